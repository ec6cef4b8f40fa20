package warevent

import (
	"fmt"
	"time"
)

type Type string

const (
	TypeCaptureStarted   Type = "capture_started"
	TypeCaptureContested Type = "capture_contested"
	TypeCaptureResumed   Type = "capture_resumed"
	TypeCaptureCancelled Type = "capture_cancelled"
	TypeCaptureHandoff   Type = "capture_handoff"
	TypeCaptureCompleted Type = "capture_completed"
	TypeDefendSuccess    Type = "defend_success"
	TypeDefendFailed     Type = "defend_failed"
	TypeWarEnded         Type = "war_ended"
)

// Event is an append-only audit entry. AttemptID links every event of one
// capture attempt; a capture_completed event is unique per attempt.
type Event struct {
	ID           string
	WarID        string
	Type         Type
	FactionID    string
	PlayerID     string
	POIID        string
	AttemptID    string
	PointsEarned int64
	Description  string
	OccurredAt   time.Time
}

func (e Event) Validate() error {
	if e.ID == "" {
		return fmt.Errorf("war event id is required")
	}
	if e.WarID == "" {
		return fmt.Errorf("war event war id is required")
	}
	if e.Type == "" {
		return fmt.Errorf("war event type is required")
	}
	if e.Type == TypeCaptureCompleted && e.AttemptID == "" {
		return fmt.Errorf("capture completion requires an attempt id")
	}
	if e.OccurredAt.IsZero() {
		return fmt.Errorf("war event timestamp is required")
	}

	return nil
}

// IdempotencyKey is non-empty for event types that may be written at most once.
func (e Event) IdempotencyKey() string {
	if e.Type != TypeCaptureCompleted || e.AttemptID == "" {
		return ""
	}
	return string(e.Type) + ":" + e.WarID + ":" + e.AttemptID
}
