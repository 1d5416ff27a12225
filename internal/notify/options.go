package notify

import (
	"context"
	"log/slog"

	"github.com/nfrund/typedbus/internal/hostbus"
)

type settings struct {
	bus        hostbus.Bus
	queue      hostbus.Queue
	asyncQueue hostbus.Queue
	sender     any
	ctx        context.Context
	logger     *slog.Logger
}

// Option adjusts a single observe, remove, post or stream call.
type Option func(*settings)

// On selects the host bus. The default is hostbus.Default().
func On(bus hostbus.Bus) Option {
	return func(s *settings) {
		s.bus = bus
	}
}

// OnQueue delivers callbacks on q instead of the goroutine the bus delivers on.
func OnQueue(q hostbus.Queue) Option {
	return func(s *settings) {
		s.queue = q
	}
}

// OnMain delivers callbacks on the process-wide main queue.
func OnMain() Option {
	return func(s *settings) {
		s.queue = hostbus.Main()
	}
}

// FromSender restricts observation (or removal) to posts whose object equals
// sender. On an untyped Post it is the object being posted.
func FromSender(sender any) Option {
	return func(s *settings) {
		s.sender = sender
	}
}

// WithAsyncQueue sets where async observers run. The default is the main
// queue.
func WithAsyncQueue(q hostbus.Queue) Option {
	return func(s *settings) {
		s.asyncQueue = q
	}
}

// WithContext sets the context handed to async observers.
func WithContext(ctx context.Context) Option {
	return func(s *settings) {
		s.ctx = ctx
	}
}

// WithLogger sets the logger used to report payload mismatches.
func WithLogger(logger *slog.Logger) Option {
	return func(s *settings) {
		s.logger = logger
	}
}

func resolve(opts []Option) settings {
	var s settings
	for _, opt := range opts {
		opt(&s)
	}
	if s.bus == nil {
		s.bus = hostbus.Default()
	}
	if s.ctx == nil {
		s.ctx = context.Background()
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	s.logger = s.logger.With("component", "notify")
	return s
}

func (s settings) asyncTarget() hostbus.Queue {
	if s.asyncQueue != nil {
		return s.asyncQueue
	}
	return hostbus.Main()
}
