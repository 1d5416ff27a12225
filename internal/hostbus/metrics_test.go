package hostbus

import (
	"context"
	"iter"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTableMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	bus := NewTable(WithRegisterer(reg))
	require.NotNil(t, bus.metrics)

	tok := bus.AddObserver("m", nil, nil, func(Notification) {})
	bus.AddObserver("m", nil, nil, func(Notification) {})
	assert.Equal(t, 2.0, testutil.ToFloat64(bus.metrics.observers.WithLabelValues("m")))

	bus.Post("m", 1)
	bus.Post("m", 2)
	assert.Equal(t, 2.0, testutil.ToFloat64(bus.metrics.posts.WithLabelValues("m")))
	assert.Equal(t, 4.0, testutil.ToFloat64(bus.metrics.deliveries.WithLabelValues("m")))

	bus.RemoveObserver(tok, "m", nil)
	assert.Equal(t, 1.0, testutil.ToFloat64(bus.metrics.observers.WithLabelValues("m")))
}

func TestMetricsShareRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	first := NewTable(WithRegisterer(reg))
	second := NewTable(WithRegisterer(reg))
	require.NotNil(t, second.metrics, "a second bus reuses the registered collectors")

	first.Post("shared", nil)
	second.Post("shared", nil)
	assert.Equal(t, 2.0, testutil.ToFloat64(first.metrics.posts.WithLabelValues("shared")))
}

func TestEventBacklogMetric(t *testing.T) {
	reg := prometheus.NewRegistry()
	bus := NewTable(WithRegisterer(reg))
	ctx, cancel := context.WithCancel(context.Background())

	next, stop := iter.Pull(bus.Events(ctx, "b"))
	defer stop()

	gotFirst := make(chan Notification)
	go func() {
		n, _ := next()
		gotFirst <- n
	}()
	require.Eventually(t, func() bool { return bus.ObserverCount("b") == 1 }, time.Second, time.Millisecond)

	for i := range 3 {
		bus.Post("b", i)
	}
	<-gotFirst
	assert.Equal(t, 2.0, testutil.ToFloat64(bus.metrics.backlog))

	cancel()
	require.Eventually(t, func() bool {
		return bus.ObserverCount("b") == 0 && testutil.ToFloat64(bus.metrics.backlog) == 0
	}, time.Second, time.Millisecond)
}

func TestNilMetrics(t *testing.T) {
	var m *metrics
	assert.NotPanics(t, func() {
		m.observerAdded("x")
		m.observerRemoved("x")
		m.posted("x")
		m.delivered("x")
		m.buffered(1)
	})
}
