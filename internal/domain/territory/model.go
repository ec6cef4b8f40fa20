package territory

import (
	"fmt"
	"math"
	"time"
)

type State string

const (
	StateNeutral    State = "neutral"
	StateControlled State = "controlled"
	StateCapturing  State = "capturing"
	StateContested  State = "contested"
)

// Control is the authoritative record of one POI within one war.
//
// ProgressPercent is a cache while capturing and the frozen value while
// contested. Readers should go through ProgressAt.
type Control struct {
	WarID                string
	POIID                string
	ControllingFactionID string

	CapturingFactionID     string
	CapturingPlayerID      string
	CaptureStartedAt       *time.Time
	AdjustedCaptureMinutes float64
	AttemptID              string
	ProgressPercent        int

	IsContested          bool
	ContestedByFactionID string
	ContestedByPlayerID  string

	PointsGeneratedSinceCapture int64
	Version                     int64
	UpdatedAt                   time.Time
}

// Actor is a faction member acting on a POI.
type Actor struct {
	PlayerID  string
	FactionID string
}

func (c Control) State() State {
	switch {
	case c.CapturingFactionID != "" && c.IsContested:
		return StateContested
	case c.CapturingFactionID != "":
		return StateCapturing
	case c.ControllingFactionID != "":
		return StateControlled
	default:
		return StateNeutral
	}
}

func (c Control) HasCapture() bool {
	return c.CapturingFactionID != ""
}

// ProgressAt derives capture progress from the stored start time. A contested
// capture reports its frozen value.
func (c Control) ProgressAt(now time.Time) int {
	switch {
	case !c.HasCapture() || c.CaptureStartedAt == nil:
		return 0
	case c.IsContested:
		return c.ProgressPercent
	default:
		return Progress(*c.CaptureStartedAt, now, c.AdjustedCaptureMinutes)
	}
}

// Progress is min(100, floor(elapsed / adjusted * 100)), computed in integer
// nanoseconds so whole-minute boundaries land exactly.
func Progress(startedAt, now time.Time, adjustedMinutes float64) int {
	total := captureDuration(adjustedMinutes)
	if total <= 0 {
		return 100
	}
	elapsed := now.Sub(startedAt)
	if elapsed <= 0 {
		return 0
	}
	if elapsed >= total {
		return 100
	}
	return int(int64(elapsed) * 100 / int64(total))
}

func captureDuration(adjustedMinutes float64) time.Duration {
	return time.Duration(math.Round(adjustedMinutes * float64(time.Minute)))
}

// Validate checks the record invariants. Every transition result satisfies it.
func (c Control) Validate() error {
	if c.WarID == "" || c.POIID == "" {
		return fmt.Errorf("control requires war and poi ids")
	}
	if (c.CapturingFactionID != "") != (c.CaptureStartedAt != nil) {
		return fmt.Errorf("capturing faction and capture start must be set together")
	}
	if (c.CapturingFactionID != "") != (c.CapturingPlayerID != "") {
		return fmt.Errorf("capturing faction and capturing player must be set together")
	}
	if c.CapturingFactionID != "" && c.CapturingFactionID == c.ControllingFactionID {
		return fmt.Errorf("faction %s cannot capture a point it controls", c.CapturingFactionID)
	}
	if c.IsContested {
		if c.CapturingFactionID == "" {
			return fmt.Errorf("contested point has no capture")
		}
		if c.ContestedByFactionID == "" || c.ContestedByFactionID == c.CapturingFactionID {
			return fmt.Errorf("contest must come from a faction other than the capturer")
		}
	} else if c.ContestedByFactionID != "" || c.ContestedByPlayerID != "" {
		return fmt.Errorf("uncontested point carries contester fields")
	}
	if c.ProgressPercent < 0 || c.ProgressPercent > 100 {
		return fmt.Errorf("progress %d out of range", c.ProgressPercent)
	}
	if c.CapturingFactionID == "" && (c.ProgressPercent != 0 || c.AttemptID != "") {
		return fmt.Errorf("idle point carries capture progress")
	}

	return nil
}
