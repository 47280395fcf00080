package httpapi

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel/trace"
)

func TestStartHandlerSpan_SkipsWithoutParent(t *testing.T) {
	ctx := context.Background()

	got, span := startHandlerSpan(ctx, "SelectRound")
	defer span.End()

	if got != ctx {
		t.Fatalf("expected context to be returned unchanged")
	}
	if span.SpanContext().IsValid() {
		t.Fatalf("expected no-op span without a parent")
	}
	if trace.SpanFromContext(got).IsRecording() {
		t.Fatalf("expected non-recording span")
	}
}
