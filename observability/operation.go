package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Operation is a traced unit of work with a start time.
type Operation struct {
	Name  string
	Start time.Time
	span  trace.Span
}

// StartOperation opens a span named name and returns the derived context.
func StartOperation(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, *Operation) {
	ctx, span := StartSpan(ctx, name, trace.WithAttributes(attrs...))
	span.SetAttributes(attribute.String(AttrOperation, name))
	return ctx, &Operation{Name: name, Start: time.Now(), span: span}
}

// SetAttributes adds attributes to the operation span.
func (o *Operation) SetAttributes(attrs ...attribute.KeyValue) {
	o.span.SetAttributes(attrs...)
}

// End records err (if any) and the elapsed time, then closes the span.
func (o *Operation) End(err error) {
	status := "ok"
	if err != nil {
		status = "error"
		o.span.RecordError(err)
		o.span.SetStatus(codes.Error, err.Error())
	}
	o.span.SetAttributes(
		attribute.String(AttrStatus, status),
		attribute.Int64(AttrDurationMs, o.Duration().Milliseconds()),
	)
	o.span.End()
}

// Duration returns the time elapsed since the operation started.
func (o *Operation) Duration() time.Duration {
	return time.Since(o.Start)
}
