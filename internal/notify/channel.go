package notify

import (
	"context"
	"iter"

	"github.com/nfrund/typedbus/internal/hostbus"
)

// Channel is a Name that only carries payloads of type T. T exists only at
// compile time: two channels are the same channel exactly when their names
// are equal, and a Channel[int] and a Channel[string] built from one name
// address the same host channel.
type Channel[T any] struct {
	name Name
}

// New returns the channel of T named name.
func New[T any](name Name) Channel[T] {
	return Channel[T]{name: name}
}

// Name returns the channel's name.
func (c Channel[T]) Name() Name {
	return c.name
}

func (c Channel[T]) String() string {
	return string(c.name)
}

// AddObserver calls fn with the payload of every post on c, once per post and
// in post order. A payload that is not a T (or an absent payload when T
// cannot be nil) panics with an *Error on the delivering goroutine.
func (c Channel[T]) AddObserver(fn func(Event, T), opts ...Option) Token {
	s := resolve(opts)
	return s.bus.AddObserver(string(c.name), s.sender, s.queue, func(n hostbus.Notification) {
		v := mustUnwrap[T](s, c.name, n.Object)
		fn(eventOf(n), v)
	})
}

// AddAsyncObserver converts the payload when the bus delivers it, then
// schedules fn on the async queue (the main queue unless WithAsyncQueue says
// otherwise) and returns immediately. Work scheduled on one serial queue runs
// one unit at a time in delivery order.
func (c Channel[T]) AddAsyncObserver(fn func(context.Context, Event, T), opts ...Option) Token {
	s := resolve(opts)
	target := s.asyncTarget()
	return s.bus.AddObserver(string(c.name), s.sender, s.queue, func(n hostbus.Notification) {
		v := mustUnwrap[T](s, c.name, n.Object)
		ev := eventOf(n)
		target.Dispatch(func() { fn(s.ctx, ev, v) })
	})
}

// RemoveObserver stops the registration behind tok. It is idempotent.
func (c Channel[T]) RemoveObserver(tok Token, opts ...Option) {
	c.name.RemoveObserver(tok, opts...)
}

// Post posts v on c. A nil v (for pointer, map, slice and similar types) is
// posted as no object, exactly like PostAbsent.
func (c Channel[T]) Post(v T, opts ...Option) {
	s := resolve(opts)
	s.bus.Post(string(c.name), normalize(v))
}

// PostAbsent posts c with no payload. It panics when T cannot be nil, since
// every observer of c would fail on the delivery.
func (c Channel[T]) PostAbsent(opts ...Option) {
	s := resolve(opts)
	if !admitsAbsence[T]() {
		err := &Error{Kind: KindAbsentPayload, Channel: c.name, Want: typeName[T]()}
		s.logger.Error("Absent payload on non-optional channel", "channel", c.name, "error", err)
		panic(err)
	}
	s.bus.Post(string(c.name), nil)
}

// Stream returns a lazy, restartable sequence of the posts on c. Every range
// over it registers one observer and buffers posts without limit, so posting
// never waits for the consumer. Leaving the loop for any reason, or canceling
// ctx, removes the observer and discards anything still buffered.
func (c Channel[T]) Stream(ctx context.Context, opts ...Option) iter.Seq2[Event, T] {
	s := resolve(opts)
	return func(yield func(Event, T) bool) {
		for n := range s.bus.Events(ctx, string(c.name)) {
			v := mustUnwrap[T](s, c.name, n.Object)
			if !yield(eventOf(n), v) {
				return
			}
		}
	}
}

// ObserverCount returns the number of live registrations on c.
func (c Channel[T]) ObserverCount(opts ...Option) int {
	return c.name.ObserverCount(opts...)
}
