package logging

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	sonic "github.com/bytedance/sonic"
	"go.opentelemetry.io/otel/trace"
)

func TestLogger_WritesKeyValueFields(t *testing.T) {
	var buf bytes.Buffer
	logger := New(LevelInfo, FormatJSON, &buf).Named("tick")

	logger.InfoContext(context.Background(), "tick finished", "war_id", "war-1", "completed", 2, "error", errors.New("boom"))

	line := strings.TrimSpace(buf.String())
	var decoded map[string]any
	if err := sonic.Unmarshal([]byte(line), &decoded); err != nil {
		t.Fatalf("decode log line %q: %v", line, err)
	}
	if decoded["msg"] != "tick finished" {
		t.Fatalf("unexpected msg: %v", decoded["msg"])
	}
	if decoded["component"] != "tick" {
		t.Fatalf("unexpected component: %v", decoded["component"])
	}
	if decoded["war_id"] != "war-1" {
		t.Fatalf("unexpected war_id: %v", decoded["war_id"])
	}
	if decoded["error"] != "boom" {
		t.Fatalf("unexpected error field: %v", decoded["error"])
	}
	if decoded["completed"] != float64(2) {
		t.Fatalf("unexpected completed field: %v", decoded["completed"])
	}
}

func TestLogger_RespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New(LevelWarn, FormatJSON, &buf)

	logger.Info("dropped")
	if buf.Len() != 0 {
		t.Fatalf("expected info line to be filtered, got %q", buf.String())
	}

	logger.Warn("kept", "odd")
	if !strings.Contains(buf.String(), `"odd":null`) {
		t.Fatalf("expected dangling key to be logged with null value, got %q", buf.String())
	}
}

func TestLogger_NilReceiverFallsBackToDefault(t *testing.T) {
	var logger *Logger
	logger.Info("no panic")
	if got := logger.With("k", "v"); got == nil {
		t.Fatalf("expected non-nil logger from nil receiver")
	}
}

func TestLogger_ContextAddsTraceIDs(t *testing.T) {
	var buf bytes.Buffer
	logger := New(LevelInfo, FormatJSON, &buf)

	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    trace.TraceID{0x0a},
		SpanID:     trace.SpanID{0x0b},
		TraceFlags: trace.FlagsSampled,
	})
	logger.InfoContext(trace.ContextWithSpanContext(context.Background(), sc), "capture started")

	if !strings.Contains(buf.String(), `"trace_id":"`+sc.TraceID().String()+`"`) {
		t.Fatalf("expected trace_id in %q", buf.String())
	}
}

func TestLogger_ConsoleFormatAndDurations(t *testing.T) {
	var buf bytes.Buffer
	logger := New(LevelInfo, ParseFormat("CONSOLE"), &buf)

	logger.Info("tick finished", "took", 1500*time.Millisecond)
	line := buf.String()
	if strings.HasPrefix(line, "{") {
		t.Fatalf("expected console output, got %q", line)
	}
	if !strings.Contains(line, "1.5s") {
		t.Fatalf("expected duration rendered as string, got %q", line)
	}
}

func TestParseFormat(t *testing.T) {
	if ParseFormat("") != FormatJSON || ParseFormat("yaml") != FormatJSON {
		t.Fatalf("unknown formats must fall back to json")
	}
}

func TestLogger_SyncOncePerRoot(t *testing.T) {
	logger := NewNop()
	child := logger.Named("tick")
	if err := child.Sync(); err != nil {
		t.Fatalf("sync: %v", err)
	}
	if !logger.synced.Load() {
		t.Fatalf("child sync should mark the root as synced")
	}
}
