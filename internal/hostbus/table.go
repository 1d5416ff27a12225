package hostbus

import (
	"cmp"
	"context"
	"iter"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
)

// Table is the in-memory Bus. Posting is synchronous: observers without a
// queue run on the posting goroutine before Post returns, in registration
// order.
type Table struct {
	id      string
	logger  *slog.Logger
	metrics *metrics

	nextID  atomic.Uint64
	mu      sync.RWMutex
	entries map[uint64]*entry
	byName  map[string][]*entry
}

type entry struct {
	id     uint64
	name   string
	sender any
	queue  Queue
	fn     Observer
	live   atomic.Bool
}

var _ Bus = (*Table)(nil)

// NewTable creates an empty dispatch table.
func NewTable(opts ...Option) *Table {
	o := buildOptions(opts)
	id := uuid.NewString()
	t := &Table{
		id:      id,
		logger:  o.logger.With("component", "hostbus", "backend", "memory", "bus_id", id),
		entries: make(map[uint64]*entry),
		byName:  make(map[string][]*entry),
	}
	if o.registerer != nil {
		m, err := newMetrics(o.registerer, "memory")
		if err != nil {
			t.logger.Warn("Metrics disabled", "error", err)
		} else {
			t.metrics = m
		}
	}
	return t
}

// ID returns the identifier stamped into the table's tokens.
func (t *Table) ID() string {
	return t.id
}

// AddObserver implements Bus.
func (t *Table) AddObserver(name string, sender any, queue Queue, fn Observer) Token {
	e := &entry{
		id:     t.nextID.Add(1),
		name:   name,
		sender: sender,
		queue:  queue,
		fn:     fn,
	}
	e.live.Store(true)

	t.mu.Lock()
	t.entries[e.id] = e
	t.byName[name] = append(t.byName[name], e)
	t.mu.Unlock()

	t.metrics.observerAdded(name)
	t.logger.Debug("Observer added", "channel", name, "token", e.id)
	return Token{bus: t.id, id: e.id}
}

// RemoveObserver implements Bus.
func (t *Table) RemoveObserver(tok Token, name string, sender any) {
	if tok.IsZero() || tok.bus != t.id {
		return
	}

	t.mu.Lock()
	e, ok := t.entries[tok.id]
	if !ok || (name != "" && e.name != name) || !matchesSender(sender, e.sender) {
		t.mu.Unlock()
		return
	}
	delete(t.entries, e.id)
	// Build a fresh slice so snapshots taken by in-flight posts stay intact.
	remaining := make([]*entry, 0, len(t.byName[e.name]))
	for _, other := range t.byName[e.name] {
		if other != e {
			remaining = append(remaining, other)
		}
	}
	if len(remaining) == 0 {
		delete(t.byName, e.name)
	} else {
		t.byName[e.name] = remaining
	}
	e.live.Store(false)
	t.mu.Unlock()

	t.metrics.observerRemoved(e.name)
	t.logger.Debug("Observer removed", "channel", e.name, "token", e.id)
}

// Post implements Bus.
func (t *Table) Post(name string, object any) {
	t.metrics.posted(name)

	t.mu.RLock()
	targets := slices.Clone(t.byName[name])
	if name != "" {
		targets = append(targets, t.byName[""]...)
	}
	t.mu.RUnlock()

	slices.SortFunc(targets, func(a, b *entry) int { return cmp.Compare(a.id, b.id) })

	n := Notification{Name: name, Object: object}
	for _, e := range targets {
		if !matchesSender(e.sender, object) {
			continue
		}
		t.deliver(e, n)
	}
}

func (t *Table) deliver(e *entry, n Notification) {
	run := func() {
		if !e.live.Load() {
			return
		}
		t.metrics.delivered(n.Name)
		e.fn(n)
	}
	if e.queue == nil {
		run()
		return
	}
	e.queue.Dispatch(run)
}

// Events implements Bus.
func (t *Table) Events(ctx context.Context, name string) iter.Seq[Notification] {
	return streamEvents(ctx, t, t.metrics, name)
}

// ObserverCount implements Bus.
func (t *Table) ObserverCount(name string) int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.byName[name])
}

var (
	defaultTable     *Table
	defaultTableOnce sync.Once
)

// Default returns the process-wide Table. Its metrics are registered with
// prometheus.DefaultRegisterer.
func Default() *Table {
	defaultTableOnce.Do(func() {
		defaultTable = NewTable(WithRegisterer(prometheus.DefaultRegisterer))
	})
	return defaultTable
}
