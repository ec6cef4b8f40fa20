package httpapi

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var (
	apiTracer = otel.Tracer("turf-war/internal/interfaces/httpapi")
	noopSpan  = trace.SpanFromContext(context.Background())
)

// startSpan opens a child span for handler entry points only. Helpers and
// requests without an incoming span (untraced routes) get a no-op span.
func startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	if !trace.SpanFromContext(ctx).SpanContext().IsValid() || !strings.HasPrefix(name, "httpapi.Handler.") {
		return ctx, noopSpan
	}
	return apiTracer.Start(ctx, name)
}

func annotateTarget(ctx context.Context, target poiTarget) {
	trace.SpanFromContext(ctx).SetAttributes(
		attribute.String("war.id", target.warID),
		attribute.String("poi.id", target.poiID),
		attribute.String("player.id", target.playerID),
	)
}
