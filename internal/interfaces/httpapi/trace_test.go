package httpapi

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel/trace"
)

func TestStartSpan_OnlyHandlersUnderTracedRequests(t *testing.T) {
	parent := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    trace.TraceID{0x01},
		SpanID:     trace.SpanID{0x02},
		TraceFlags: trace.FlagsSampled,
	})
	traced := trace.ContextWithRemoteSpanContext(context.Background(), parent)

	tests := []struct {
		name string
		ctx  context.Context
		in   string
		want bool
	}{
		{name: "handler span", ctx: traced, in: "httpapi.Handler.GetWarStatus", want: true},
		{name: "middleware span", ctx: traced, in: "httpapi.RequestLogging", want: false},
		{name: "helper span", ctx: traced, in: "httpapi.writeError", want: false},
		{name: "untraced request", ctx: context.Background(), in: "httpapi.Handler.Healthz", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, span := startSpan(tt.ctx, tt.in)
			defer span.End()
			if got := span.SpanContext().IsValid(); got != tt.want {
				t.Fatalf("startSpan(%q) valid=%v want=%v", tt.in, got, tt.want)
			}
		})
	}
}
