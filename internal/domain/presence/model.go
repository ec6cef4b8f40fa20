package presence

import (
	"fmt"
	"time"
)

// Record marks a player as physically at a POI within a war. There is at most
// one record per (player, poi, war).
type Record struct {
	PlayerID     string
	POIID        string
	WarID        string
	FactionID    string
	LastActionAt time.Time
}

func (r Record) Validate() error {
	if r.PlayerID == "" || r.POIID == "" || r.WarID == "" {
		return fmt.Errorf("presence requires player, poi and war ids")
	}
	if r.LastActionAt.IsZero() {
		return fmt.Errorf("presence last action time is required")
	}

	return nil
}

// IsFresh reports whether the record is within timeout of now. The boundary is
// inclusive.
func (r Record) IsFresh(now time.Time, timeout time.Duration) bool {
	return now.Sub(r.LastActionAt) <= timeout
}

// StaleCutoff is the instant before which records are purged by the sweep:
// twice the standard timeout.
func StaleCutoff(now time.Time, timeout time.Duration) time.Time {
	return now.Add(-2 * timeout)
}
