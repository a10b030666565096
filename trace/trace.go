// Package trace instruments scans with OpenTelemetry spans.
package trace

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "a11yscan"

// Tracer starts spans carrying the scan metadata.
type Tracer struct {
	trace.Tracer

	metadata []attribute.KeyValue
}

// NewTracer creates a Tracer from tp. Every span gets metadata as attributes.
func NewTracer(tp trace.TracerProvider, metadata map[string]string, options ...trace.TracerOption) *Tracer {
	meta := make([]attribute.KeyValue, 0, len(metadata))
	for k, v := range metadata {
		meta = append(meta, attribute.String(k, v))
	}
	return &Tracer{
		Tracer:   tp.Tracer(tracerName, options...),
		metadata: meta,
	}
}

// NewNoopTracer returns a Tracer that records nothing.
func NewNoopTracer() *Tracer {
	return NewTracer(NewNoopTracerProvider(), nil)
}

// Start overrides the underlying OTEL tracer method to include the tracer metadata.
func (t *Tracer) Start(
	ctx context.Context, spanName string, opts ...trace.SpanStartOption,
) (context.Context, trace.Span) {
	opts = append(opts, trace.WithAttributes(t.metadata...))
	return t.Tracer.Start(ctx, spanName, opts...)
}

// End ends span, marking it failed when err is not nil.
func End(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
