package usecase

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel/trace"
)

func TestTraceMetaFromContext(t *testing.T) {
	if traceID, spanID := traceMetaFromContext(context.Background()); traceID != "" || spanID != "" {
		t.Fatalf("expected empty trace meta without span, got %q/%q", traceID, spanID)
	}

	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    trace.TraceID{0xaa},
		SpanID:     trace.SpanID{0xbb},
		TraceFlags: trace.FlagsSampled,
	})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)
	traceID, spanID := traceMetaFromContext(ctx)
	if traceID != sc.TraceID().String() || spanID != sc.SpanID().String() {
		t.Fatalf("unexpected trace meta %q/%q", traceID, spanID)
	}
}

func TestStartUsecaseSpan_UntracedIsNoop(t *testing.T) {
	ctx, span := startUsecaseSpan(context.Background(), "usecase.Test")
	defer span.End()
	if span != usecaseNoopSpan || trace.SpanFromContext(ctx).SpanContext().IsValid() {
		t.Fatalf("expected no-op span for untraced context")
	}
}
