package jobscheduler

import (
	"fmt"
	"strings"
	"time"
)

type DispatchStatus string

const (
	StatusSent      DispatchStatus = "sent"
	StatusCompleted DispatchStatus = "completed"
	StatusFailed    DispatchStatus = "failed"
)

// Terminal reports whether no further update is expected for the run.
func (s DispatchStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

const JobWarTick = "war_tick"

// DispatchEvent records one run of a background job. A run is written as sent
// and then upserted to completed or failed under the same DispatchID.
type DispatchEvent struct {
	DispatchID   string
	JobName      string
	Trigger      string
	Status       DispatchStatus
	Payload      map[string]any
	ErrorMessage string
	OccurredAt   time.Time
	TraceID      string
	SpanID       string
}

func (e DispatchEvent) Validate() error {
	if strings.TrimSpace(e.DispatchID) == "" {
		return fmt.Errorf("dispatch id is required")
	}
	switch e.Status {
	case StatusSent, StatusCompleted, StatusFailed:
	default:
		return fmt.Errorf("unknown dispatch status %q", e.Status)
	}
	if e.Status == StatusFailed && strings.TrimSpace(e.ErrorMessage) == "" {
		return fmt.Errorf("failed dispatch %s needs an error message", e.DispatchID)
	}
	return nil
}
