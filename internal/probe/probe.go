// Package probe drives a host bus through every typed operation and reports
// what arrived. busctl uses it to check a backend end to end.
package probe

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/nfrund/typedbus/internal/catalog"
	"github.com/nfrund/typedbus/internal/hostbus"
	"github.com/nfrund/typedbus/internal/notify"
)

// Tick is the payload of a probe post.
type Tick struct {
	Seq    int    `json:"seq"`
	Source string `json:"source"`
}

// Channels used by the probe. They are registered in the default catalog.
var (
	Ticks = catalog.MustDefine[Tick](catalog.Default(), "probe.tick", "Sequenced tick posted by the bus probe")
	Maybe = catalog.MustDefine[*Tick](catalog.Default(), "probe.maybe", "Optional tick, posted absent by the bus probe")
)

// Options controls a probe run.
type Options struct {
	Count   int
	Async   bool
	Source  string
	Timeout time.Duration
	Logger  *slog.Logger
}

// Report summarizes a probe run.
type Report struct {
	Async           bool          `json:"async"`
	Posted          int           `json:"posted"`
	Delivered       int           `json:"delivered"`
	AsyncDelivered  int           `json:"async_delivered"`
	Streamed        int           `json:"streamed"`
	Filtered        int           `json:"filtered"`
	AbsentDelivered bool          `json:"absent_delivered"`
	InOrder         bool          `json:"in_order"`
	ObserversBefore int           `json:"observers_before"`
	ObserversAfter  int           `json:"observers_after"`
	Duration        time.Duration `json:"duration"`
}

// OK reports whether every post reached every observer in order and all
// registrations were released.
func (r Report) OK() bool {
	if r.Async && r.AsyncDelivered != r.Posted {
		return false
	}
	return r.InOrder &&
		r.Delivered == r.Posted &&
		r.Streamed == r.Posted &&
		r.Filtered == 1 &&
		r.AbsentDelivered &&
		r.ObserversAfter == r.ObserversBefore
}

type recorder struct {
	mu      sync.Mutex
	seqs    []int
	async   int
	stream  int
	match   int
	absent  bool
	inOrder bool
}

func (r *recorder) snapshot(fn func(*recorder) bool) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return fn(r)
}

// Run posts opts.Count ticks on bus and waits until every observer has seen
// them.
func Run(ctx context.Context, bus hostbus.Bus, opts Options) (Report, error) {
	if opts.Count <= 0 {
		opts.Count = 10
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Second
	}
	if opts.Source == "" {
		opts.Source = "busctl"
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	logger := opts.Logger.With("component", "probe")

	ctx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	start := time.Now()
	on := notify.On(bus)
	rep := Report{Async: opts.Async, ObserversBefore: Ticks.ObserverCount(on)}
	rec := &recorder{inOrder: true}

	streamDone := make(chan struct{})
	go func() {
		defer close(streamDone)
		for range Ticks.Stream(ctx, on) {
			rec.mu.Lock()
			rec.stream++
			n := rec.stream
			rec.mu.Unlock()
			if n == opts.Count {
				return
			}
		}
	}()
	if err := waitFor(ctx, func() bool { return Ticks.ObserverCount(on) == rep.ObserversBefore+1 }); err != nil {
		return rep, fmt.Errorf("stream did not register: %w", err)
	}

	var tokens []notify.Token
	tokens = append(tokens, Ticks.AddObserver(func(_ notify.Event, tick Tick) {
		rec.mu.Lock()
		defer rec.mu.Unlock()
		if len(rec.seqs) > 0 && rec.seqs[len(rec.seqs)-1] >= tick.Seq {
			rec.inOrder = false
		}
		rec.seqs = append(rec.seqs, tick.Seq)
	}, on))

	first := Tick{Seq: 1, Source: opts.Source}
	tokens = append(tokens, Ticks.AddObserver(func(notify.Event, Tick) {
		rec.mu.Lock()
		rec.match++
		rec.mu.Unlock()
	}, on, notify.FromSender(first)))

	if opts.Async {
		queue := hostbus.NewSerialQueue("probe")
		defer queue.Close()
		tokens = append(tokens, Ticks.AddAsyncObserver(func(context.Context, notify.Event, Tick) {
			rec.mu.Lock()
			rec.async++
			rec.mu.Unlock()
		}, on, notify.WithAsyncQueue(queue), notify.WithContext(ctx)))
	}

	maybeTok := Maybe.AddObserver(func(_ notify.Event, tick *Tick) {
		rec.mu.Lock()
		rec.absent = tick == nil
		rec.mu.Unlock()
	}, on)

	for i := 1; i <= opts.Count; i++ {
		Ticks.Post(Tick{Seq: i, Source: opts.Source}, on)
		rep.Posted++
	}
	Maybe.PostAbsent(on)
	logger.Debug("Probe posts sent", "count", rep.Posted)

	err := waitFor(ctx, func() bool {
		return rec.snapshot(func(r *recorder) bool {
			done := len(r.seqs) == opts.Count && r.stream == opts.Count && r.absent && r.match == 1
			if opts.Async {
				done = done && r.async == opts.Count
			}
			return done
		})
	})

	for _, tok := range tokens {
		Ticks.RemoveObserver(tok, on)
	}
	Maybe.RemoveObserver(maybeTok, on)
	cancel()
	<-streamDone

	rec.snapshot(func(r *recorder) bool {
		rep.Delivered = len(r.seqs)
		rep.AsyncDelivered = r.async
		rep.Streamed = r.stream
		rep.Filtered = r.match
		rep.AbsentDelivered = r.absent
		rep.InOrder = r.inOrder
		return true
	})
	rep.ObserversAfter = Ticks.ObserverCount(on)
	rep.Duration = time.Since(start)

	if err != nil {
		logger.Warn("Probe incomplete", "delivered", rep.Delivered, "posted", rep.Posted, "error", err)
		return rep, fmt.Errorf("probe incomplete after %d of %d deliveries: %w", rep.Delivered, rep.Posted, err)
	}
	logger.Debug("Probe finished", "duration", rep.Duration)
	return rep, nil
}

func waitFor(ctx context.Context, cond func() bool) error {
	ticker := time.NewTicker(2 * time.Millisecond)
	defer ticker.Stop()
	for !cond() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
	return nil
}
