package hostbus

import (
	"context"
	"log/slog"
	"sync"
)

// Queue is a dispatch context: somewhere a unit of work can be scheduled.
type Queue interface {
	Dispatch(work func())
}

// QueueFunc adapts a function to the Queue interface.
type QueueFunc func(work func())

// Dispatch calls f(work).
func (f QueueFunc) Dispatch(work func()) {
	f(work)
}

// SerialQueue runs dispatched work one unit at a time, in submission order, on
// a single goroutine. Dispatch never blocks.
type SerialQueue struct {
	name   string
	work   *backlog[func()]
	done   chan struct{}
	once   sync.Once
	logger *slog.Logger
}

// NewSerialQueue starts a serial queue. Close it to stop its goroutine.
func NewSerialQueue(name string) *SerialQueue {
	q := &SerialQueue{
		name:   name,
		work:   newBacklog[func()](),
		done:   make(chan struct{}),
		logger: slog.Default().With("component", "hostbus", "queue", name),
	}
	go q.run()
	return q
}

func (q *SerialQueue) run() {
	defer close(q.done)
	for {
		work, ok := q.work.pop(context.Background())
		if !ok {
			return
		}
		work()
	}
}

// Name returns the label the queue was created with.
func (q *SerialQueue) Name() string {
	return q.name
}

// Dispatch schedules work. Work dispatched after Close is discarded.
func (q *SerialQueue) Dispatch(work func()) {
	if !q.work.push(work) {
		q.logger.Warn("Dispatch on closed queue, work discarded")
	}
}

// Flush blocks until every unit dispatched before the call has run. It must
// not be called from work running on the same queue.
func (q *SerialQueue) Flush() {
	marker := make(chan struct{})
	if !q.work.push(func() { close(marker) }) {
		<-q.done
		return
	}
	select {
	case <-marker:
	case <-q.done:
	}
}

// Pending returns the number of units waiting to run.
func (q *SerialQueue) Pending() int {
	return q.work.len()
}

// Close stops accepting work, lets queued work finish, and waits for the
// worker goroutine to exit. Calling Close more than once is safe.
func (q *SerialQueue) Close() error {
	q.stop()
	<-q.done
	return nil
}

// stop is Close without the wait, safe to call from work on the queue itself.
func (q *SerialQueue) stop() {
	q.once.Do(q.work.close)
}

var (
	mainQueue     *SerialQueue
	mainQueueOnce sync.Once
)

// Main returns the process-wide serial queue used for main-context delivery.
// It lives for the lifetime of the process.
func Main() *SerialQueue {
	mainQueueOnce.Do(func() {
		mainQueue = NewSerialQueue("main")
	})
	return mainQueue
}
