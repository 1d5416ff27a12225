package tracing

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// Config holds configuration for OpenTelemetry tracing
type Config struct {
	Enabled     bool   // Whether tracing is enabled
	ServiceName string // Service name for traces
}

// Tracing owns a tracer and, when enabled, the in-process recorder that
// collects its finished spans.
type Tracing struct {
	Tracer   trace.Tracer
	recorder *tracetest.SpanRecorder
	provider *sdktrace.TracerProvider
}

// Setup initializes OpenTelemetry for the bus. Spans are kept in memory so a
// diagnostic run can report them. If cfg.Enabled is false, the tracer is a
// no-op.
func Setup(ctx context.Context, cfg Config) (*Tracing, error) {
	if !cfg.Enabled {
		return &Tracing{Tracer: noop.NewTracerProvider().Tracer("typedbus")}, nil
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			attribute.String("service.name", cfg.ServiceName),
		),
	)
	if err != nil {
		return nil, err
	}

	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithSpanProcessor(recorder),
	)

	return &Tracing{
		Tracer:   provider.Tracer("typedbus"),
		recorder: recorder,
		provider: provider,
	}, nil
}

// Enabled reports whether spans are being recorded.
func (t *Tracing) Enabled() bool {
	return t.recorder != nil
}

// Span is a finished span as reported by Spans.
type Span struct {
	Name    string
	TraceID string
	Kind    string
}

// Spans returns every span that has ended so far.
func (t *Tracing) Spans() []Span {
	if t.recorder == nil {
		return nil
	}
	ended := t.recorder.Ended()
	spans := make([]Span, 0, len(ended))
	for _, s := range ended {
		spans = append(spans, Span{
			Name:    s.Name(),
			TraceID: s.SpanContext().TraceID().String(),
			Kind:    s.SpanKind().String(),
		})
	}
	return spans
}

// Shutdown flushes and stops the tracer provider.
func (t *Tracing) Shutdown(ctx context.Context) error {
	if t.provider == nil {
		return nil
	}
	return t.provider.Shutdown(ctx)
}
