package hostbus_test

import (
	"context"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/nfrund/typedbus/internal/hostbus"
)

type collector struct {
	mu  sync.Mutex
	got []hostbus.Notification
}

func (c *collector) observe(n hostbus.Notification) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.got = append(c.got, n)
}

func (c *collector) snapshot() []hostbus.Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]hostbus.Notification(nil), c.got...)
}

func (c *collector) waitFor(t *testing.T, n int) []hostbus.Notification {
	t.Helper()
	require.Eventually(t, func() bool { return len(c.snapshot()) >= n }, 2*time.Second, time.Millisecond)
	return c.snapshot()
}

type score struct {
	Player string `json:"player"`
	Points int    `json:"points"`
}

type ledger struct {
	owner string
	total int
}

func TestWatermillBus(t *testing.T) {
	t.Run("Delivers the posted object on the posted name", func(t *testing.T) {
		bus := hostbus.NewWatermillBus()
		defer bus.Close()

		var c collector
		bus.AddObserver("score", nil, nil, c.observe)
		bus.AddObserver("other", nil, nil, func(n hostbus.Notification) { t.Errorf("unexpected delivery: %v", n) })

		bus.Post("score", score{Player: "ada", Points: 42})

		got := c.waitFor(t, 1)
		require.Len(t, got, 1)
		assert.Equal(t, "score", got[0].Name)
		assert.Equal(t, score{Player: "ada", Points: 42}, got[0].Object)
	})

	t.Run("Objects the codec cannot encode are still delivered", func(t *testing.T) {
		bus := hostbus.NewWatermillBus()
		defer bus.Close()

		var c collector
		bus.AddObserver("odd", nil, nil, c.observe)

		ch := make(chan int)
		bus.Post("odd", math.NaN())
		bus.Post("odd", ch)
		bus.Post("odd", ledger{owner: "ada", total: 7})

		got := c.waitFor(t, 3)
		require.Len(t, got, 3)
		f, ok := got[0].Object.(float64)
		require.True(t, ok)
		assert.True(t, math.IsNaN(f))
		assert.Equal(t, ch, got[1].Object)
		assert.Equal(t, ledger{owner: "ada", total: 7}, got[2].Object)
	})

	t.Run("Pointers arrive with their identity", func(t *testing.T) {
		bus := hostbus.NewWatermillBus()
		defer bus.Close()

		var c collector
		bus.AddObserver("ptr", nil, nil, c.observe)

		s := &score{Player: "ada"}
		bus.Post("ptr", s)

		got := c.waitFor(t, 1)
		assert.Same(t, s, got[0].Object)
	})

	t.Run("Absent objects arrive as Null", func(t *testing.T) {
		bus := hostbus.NewWatermillBus()
		defer bus.Close()

		var c collector
		bus.AddObserver("maybe", nil, nil, c.observe)

		var nilPtr *score
		bus.Post("maybe", nil)
		bus.Post("maybe", nilPtr)

		got := c.waitFor(t, 2)
		assert.Equal(t, hostbus.Null, got[0].Object)
		assert.Equal(t, hostbus.Null, got[1].Object)
		assert.True(t, hostbus.IsAbsent(got[0].Object))
	})

	t.Run("Posts from one goroutine arrive in order", func(t *testing.T) {
		bus := hostbus.NewWatermillBus()
		defer bus.Close()

		var c collector
		bus.AddObserver("seq", nil, nil, c.observe)

		for i := range 20 {
			bus.Post("seq", i)
		}

		got := c.waitFor(t, 20)
		for i, n := range got {
			assert.Equal(t, i, n.Object)
		}
	})

	t.Run("Sender filter matches equal objects", func(t *testing.T) {
		bus := hostbus.NewWatermillBus()
		defer bus.Close()

		var c collector
		bus.AddObserver("s", "alice", nil, c.observe)

		bus.Post("s", "bob")
		bus.Post("s", "alice")
		bus.Post("s", nil)
		bus.Post("s", "alice")

		got := c.waitFor(t, 2)
		assert.Len(t, got, 2)
	})

	t.Run("Removal stops delivery and is idempotent", func(t *testing.T) {
		bus := hostbus.NewWatermillBus()
		defer bus.Close()

		var removed, kept collector
		tok := bus.AddObserver("r", nil, nil, removed.observe)
		bus.AddObserver("r", nil, nil, kept.observe)
		require.Equal(t, 2, bus.ObserverCount("r"))

		bus.RemoveObserver(tok, "r", nil)
		bus.RemoveObserver(tok, "r", nil)
		assert.Equal(t, 1, bus.ObserverCount("r"))

		bus.Post("r", 1)
		kept.waitFor(t, 1)
		assert.Empty(t, removed.snapshot())
	})

	t.Run("Callbacks may post on their own channel", func(t *testing.T) {
		bus := hostbus.NewWatermillBus()
		defer bus.Close()

		var c collector
		bus.AddObserver("echo", nil, nil, func(n hostbus.Notification) {
			c.observe(n)
			if depth := n.Object.(int); depth < 3 {
				bus.Post("echo", depth+1)
			}
		})

		bus.Post("echo", 0)
		assert.Len(t, c.waitFor(t, 4), 4)
	})

	t.Run("Wildcard observers see every name", func(t *testing.T) {
		bus := hostbus.NewWatermillBus()
		defer bus.Close()

		var c collector
		bus.AddObserver("", nil, nil, c.observe)

		bus.Post("a", 1)
		bus.Post("b", 2)

		got := c.waitFor(t, 2)
		assert.Equal(t, "a", got[0].Name)
		assert.Equal(t, "b", got[1].Name)
	})

	t.Run("A channel named * is not the wildcard", func(t *testing.T) {
		bus := hostbus.NewWatermillBus()
		defer bus.Close()

		var star, all collector
		bus.AddObserver("*", nil, nil, star.observe)
		bus.AddObserver("", nil, nil, all.observe)

		bus.Post("score", 1)
		bus.Post("*", 2)

		got := all.waitFor(t, 2)
		require.Len(t, got, 2)
		assert.Equal(t, "score", got[0].Name)
		assert.Equal(t, "*", got[1].Name)

		onStar := star.waitFor(t, 1)
		require.Len(t, onStar, 1)
		assert.Equal(t, "*", onStar[0].Name)
		assert.Equal(t, 2, onStar[0].Object)

		bus.Post("last", 3)
		all.waitFor(t, 3)
		assert.Len(t, star.snapshot(), 1)
		assert.Len(t, all.snapshot(), 3)
	})

	t.Run("Sender filter compares values the codec cannot encode", func(t *testing.T) {
		bus := hostbus.NewWatermillBus()
		defer bus.Close()

		owner := ledger{owner: "ada"}
		var c collector
		tok := bus.AddObserver("l", owner, nil, c.observe)
		require.False(t, tok.IsZero())

		bus.Post("l", ledger{owner: "bob"})
		bus.Post("l", owner)

		got := c.waitFor(t, 1)
		assert.Equal(t, owner, got[0].Object)

		bus.RemoveObserver(tok, "l", owner)
		assert.Zero(t, bus.ObserverCount("l"))
	})

	t.Run("Synchronous queues may post on their own channel", func(t *testing.T) {
		bus := hostbus.NewWatermillBus(hostbus.WithOutputBuffer(1))
		defer bus.Close()

		inline := hostbus.QueueFunc(func(work func()) { work() })
		var c collector
		bus.AddObserver("again", nil, inline, func(n hostbus.Notification) {
			c.observe(n)
			if depth := n.Object.(int); depth < 20 {
				bus.Post("again", depth+1)
			}
		})

		bus.Post("again", 0)
		got := c.waitFor(t, 21)
		assert.Equal(t, 20, got[20].Object)
	})

	t.Run("Delivers on the given queue", func(t *testing.T) {
		bus := hostbus.NewWatermillBus()
		defer bus.Close()
		q := hostbus.NewSerialQueue("wm")
		defer q.Close()

		var c collector
		bus.AddObserver("q", nil, q, c.observe)
		bus.Post("q", "x")

		c.waitFor(t, 1)
	})

	t.Run("Events stream and clean up", func(t *testing.T) {
		bus := hostbus.NewWatermillBus()
		defer bus.Close()
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		got := make(chan hostbus.Notification, 1)
		go func() {
			for n := range bus.Events(ctx, "stream") {
				got <- n
				return
			}
		}()

		require.Eventually(t, func() bool { return bus.ObserverCount("stream") == 1 }, time.Second, time.Millisecond)
		bus.Post("stream", "v")
		assert.Equal(t, "stream", (<-got).Name)
		assert.Eventually(t, func() bool { return bus.ObserverCount("stream") == 0 }, time.Second, time.Millisecond)
	})

	t.Run("Closed bus ignores posts and registrations", func(t *testing.T) {
		bus := hostbus.NewWatermillBus()
		require.NoError(t, bus.Close())
		require.NoError(t, bus.Close())

		tok := bus.AddObserver("x", nil, nil, func(hostbus.Notification) {})
		assert.True(t, tok.IsZero())
		assert.NotPanics(t, func() { bus.Post("x", 1) })
	})
}

func TestWatermillBusTracing(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	defer provider.Shutdown(context.Background())

	bus := hostbus.NewWatermillBus(hostbus.WithTracer(provider.Tracer("test")))
	defer bus.Close()

	var c collector
	bus.AddObserver("traced", nil, nil, c.observe)
	bus.Post("traced", 1)
	c.waitFor(t, 1)

	var names []string
	require.Eventually(t, func() bool {
		names = names[:0]
		for _, span := range recorder.Ended() {
			names = append(names, span.Name())
		}
		return len(names) == 2
	}, time.Second, time.Millisecond)
	assert.ElementsMatch(t, []string{"hostbus.post.traced", "hostbus.deliver.traced"}, names)

	var post, deliver sdktrace.ReadOnlySpan
	for _, span := range recorder.Ended() {
		switch span.Name() {
		case "hostbus.post.traced":
			post = span
		case "hostbus.deliver.traced":
			deliver = span
		}
	}
	require.NotNil(t, post)
	require.NotNil(t, deliver)
	assert.Equal(t, post.SpanContext().TraceID(), deliver.SpanContext().TraceID(), "delivery continues the post's trace")
}
