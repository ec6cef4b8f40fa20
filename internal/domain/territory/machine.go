package territory

import "time"

// The transitions below are pure: each returns the next record or a rejection
// and never mutates the receiver. Callers hold the per-POI lock.

// StartCapture is legal from Neutral or from Controlled by another faction.
// Guards run in order: own capture (AlreadyCapturingThisFaction), any contest,
// including one held by the actor's faction (CaptureContested), then an enemy
// capture (EnemyCapturingMustBeContested), then own control (AlreadyControlled).
func (c Control) StartCapture(actor Actor, adjustedMinutes float64, attemptID string, now time.Time) (Control, error) {
	switch {
	case c.CapturingFactionID == actor.FactionID:
		return c, Reject(ErrAlreadyCapturingThisFaction, "")
	case c.IsContested:
		return c, Reject(ErrCaptureContested, StateControlled)
	case c.HasCapture():
		return c, Reject(ErrEnemyCapturingMustBeContested, StateContested)
	case c.ControllingFactionID == actor.FactionID:
		return c, Reject(ErrAlreadyControlled, StateNeutral)
	}

	startedAt := now
	next := c
	next.CapturingFactionID = actor.FactionID
	next.CapturingPlayerID = actor.PlayerID
	next.CaptureStartedAt = &startedAt
	next.AdjustedCaptureMinutes = adjustedMinutes
	next.AttemptID = attemptID
	next.ProgressPercent = 0
	return next, nil
}

// Contest freezes an enemy capture at its current progress. The capturer is kept.
func (c Control) Contest(actor Actor, now time.Time) (Control, error) {
	switch {
	case !c.HasCapture() || c.CapturingFactionID == actor.FactionID:
		return c, Reject(ErrNothingToContest, StateCapturing)
	case c.IsContested:
		return c, Reject(ErrAlreadyContested, StateCapturing)
	}

	next := c
	next.ProgressPercent = c.ProgressAt(now)
	next.IsContested = true
	next.ContestedByFactionID = actor.FactionID
	next.ContestedByPlayerID = actor.PlayerID
	return next, nil
}

// CanDefend reports whether factionID may roll a defense right now.
func (c Control) CanDefend(factionID string) error {
	if c.ControllingFactionID == "" || c.ControllingFactionID != factionID {
		return Reject(ErrNotYourPOI, StateControlled)
	}
	if !c.HasCapture() {
		return Reject(ErrNothingToDefend, StateCapturing)
	}
	return nil
}

// DefendSucceeded restores the point to its state before the attempt.
func (c Control) DefendSucceeded() Control {
	return c.ClearCapture()
}

// Complete transfers control to the capturer once progress reaches 100 and the
// capture is not contested. ok is false when there is nothing to complete, so a
// repeated call on an already transferred point does nothing.
func (c Control) Complete(now time.Time) (next Control, ok bool) {
	if !c.HasCapture() || c.IsContested {
		return c, false
	}
	if c.ControllingFactionID == c.CapturingFactionID {
		return c, false
	}
	if c.ProgressAt(now) < 100 {
		return c, false
	}

	next = c.ClearCapture()
	next.ControllingFactionID = c.CapturingFactionID
	next.PointsGeneratedSinceCapture = 0
	return next, true
}

// ClearCapture drops all capture and contest fields. Control is unchanged.
func (c Control) ClearCapture() Control {
	next := c
	next.CapturingFactionID = ""
	next.CapturingPlayerID = ""
	next.CaptureStartedAt = nil
	next.AdjustedCaptureMinutes = 0
	next.AttemptID = ""
	next.ProgressPercent = 0
	next.IsContested = false
	next.ContestedByFactionID = ""
	next.ContestedByPlayerID = ""
	return next
}

// HandOff keeps the capture running under another member of the same faction.
func (c Control) HandOff(playerID string) Control {
	next := c
	next.CapturingPlayerID = playerID
	return next
}

// HandOffContest moves the contest to another present member of the contesting
// faction.
func (c Control) HandOffContest(playerID string) Control {
	next := c
	next.ContestedByPlayerID = playerID
	return next
}

// LiftContest resumes a frozen capture. The start time is shifted so progress
// carries on from the frozen value instead of jumping ahead.
func (c Control) LiftContest(now time.Time) Control {
	if !c.IsContested {
		return c
	}
	next := c
	frozen := captureDuration(c.AdjustedCaptureMinutes) * time.Duration(c.ProgressPercent) / 100
	startedAt := now.Add(-frozen)
	next.CaptureStartedAt = &startedAt
	next.IsContested = false
	next.ContestedByFactionID = ""
	next.ContestedByPlayerID = ""
	return next
}

// RefreshProgress updates the cached progress of a running capture.
func (c Control) RefreshProgress(now time.Time) (Control, bool) {
	if !c.HasCapture() || c.IsContested {
		return c, false
	}
	pct := c.ProgressAt(now)
	if pct == c.ProgressPercent {
		return c, false
	}
	next := c
	next.ProgressPercent = pct
	return next, true
}
