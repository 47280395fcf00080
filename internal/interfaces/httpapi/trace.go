package httpapi

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var apiTracer = otel.Tracer("fantasy-autopick/internal/interfaces/httpapi")

// startHandlerSpan opens "httpapi.Handler.<name>" under the request span.
// Routes skipped by RequestTracing have no parent and get the no-op span.
func startHandlerSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	if !trace.SpanContextFromContext(ctx).IsValid() {
		return ctx, trace.SpanFromContext(ctx)
	}
	return apiTracer.Start(ctx, "httpapi.Handler."+name, trace.WithAttributes(attrs...))
}
