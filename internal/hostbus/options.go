package hostbus

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/trace"
)

type options struct {
	logger     *slog.Logger
	registerer prometheus.Registerer
	tracer     trace.Tracer
	codec      Codec
	buffer     int64
	debug      bool
}

// Option configures a Table or a WatermillBus.
type Option func(*options)

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithRegisterer enables prometheus metrics on reg.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(o *options) {
		o.registerer = reg
	}
}

// WithTracer records a span for every post and delivery. Only the
// WatermillBus uses it.
func WithTracer(tracer trace.Tracer) Option {
	return func(o *options) {
		o.tracer = tracer
	}
}

// WithCodec sets how a WatermillBus turns objects into message payloads.
func WithCodec(codec Codec) Option {
	return func(o *options) {
		o.codec = codec
	}
}

// WithOutputBuffer sets the per-subscriber channel buffer of a WatermillBus.
func WithOutputBuffer(n int64) Option {
	return func(o *options) {
		o.buffer = n
	}
}

// WithWatermillDebug forwards watermill's debug logging instead of dropping it.
func WithWatermillDebug(debug bool) Option {
	return func(o *options) {
		o.debug = debug
	}
}

func buildOptions(opts []Option) options {
	o := options{
		logger: slog.Default(),
		codec:  JSONCodec{},
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	return o
}
