package hostbus

import (
	"context"
	"sync"
)

// backlog is an unbounded FIFO with a single consumer. push never blocks, so
// a producer holding the bus is never stalled by a slow consumer.
type backlog[T any] struct {
	mu     sync.Mutex
	items  []T
	ready  chan struct{}
	closed bool
}

func newBacklog[T any]() *backlog[T] {
	return &backlog[T]{ready: make(chan struct{}, 1)}
}

// push appends v and reports whether it was accepted.
func (b *backlog[T]) push(v T) bool {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return false
	}
	b.items = append(b.items, v)
	b.mu.Unlock()

	b.signal()
	return true
}

func (b *backlog[T]) signal() {
	select {
	case b.ready <- struct{}{}:
	default:
	}
}

// pop waits for the next item. It returns false once the backlog is closed
// and drained, or when ctx is done.
func (b *backlog[T]) pop(ctx context.Context) (T, bool) {
	for {
		b.mu.Lock()
		if len(b.items) > 0 {
			v := b.items[0]
			var zero T
			b.items[0] = zero
			b.items = b.items[1:]
			b.mu.Unlock()
			return v, true
		}
		closed := b.closed
		b.mu.Unlock()

		if closed {
			var zero T
			return zero, false
		}

		select {
		case <-b.ready:
		case <-ctx.Done():
			var zero T
			return zero, false
		}
	}
}

// close stops accepting items. Items already queued can still be popped.
func (b *backlog[T]) close() {
	b.mu.Lock()
	b.closed = true
	b.mu.Unlock()
	b.signal()
}

// drop closes the backlog and discards anything still queued.
func (b *backlog[T]) drop() int {
	b.mu.Lock()
	n := len(b.items)
	b.items = nil
	b.closed = true
	b.mu.Unlock()
	b.signal()
	return n
}

func (b *backlog[T]) len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.items)
}
