package war

import (
	"fmt"
	"strings"
	"time"
)

type Status string

const (
	StatusActive Status = "active"
	StatusEnded  Status = "ended"
)

// Side is the column a faction's points are booked to.
type Side string

const (
	SideAttacker Side = "attacker"
	SideDefender Side = "defender"
)

// Session binds a territorial conflict in one district to its two factions.
type Session struct {
	ID                string
	DistrictID        string
	AttackerFactionID string
	DefenderFactionID string
	Status            Status
	AttackerPoints    int64
	DefenderPoints    int64
	StartedAt         time.Time
	EndedAt           *time.Time
}

func (s Session) Validate() error {
	if strings.TrimSpace(s.ID) == "" {
		return fmt.Errorf("war id is required")
	}
	if strings.TrimSpace(s.DistrictID) == "" {
		return fmt.Errorf("war district id is required")
	}
	if s.AttackerFactionID == "" || s.DefenderFactionID == "" {
		return fmt.Errorf("war requires two factions")
	}
	if s.AttackerFactionID == s.DefenderFactionID {
		return fmt.Errorf("war factions must differ")
	}
	switch s.Status {
	case StatusActive, StatusEnded:
	default:
		return fmt.Errorf("unknown war status %q", s.Status)
	}

	return nil
}

func (s Session) IsActive() bool {
	return s.Status == StatusActive
}

// SideOf reports which side factionID fights on. ok is false for outsiders.
func (s Session) SideOf(factionID string) (Side, bool) {
	switch {
	case factionID == "":
		return "", false
	case factionID == s.AttackerFactionID:
		return SideAttacker, true
	case factionID == s.DefenderFactionID:
		return SideDefender, true
	default:
		return "", false
	}
}

func (s Session) Opponent(factionID string) string {
	switch factionID {
	case s.AttackerFactionID:
		return s.DefenderFactionID
	case s.DefenderFactionID:
		return s.AttackerFactionID
	default:
		return ""
	}
}

func (s Session) PointsOf(side Side) int64 {
	if side == SideAttacker {
		return s.AttackerPoints
	}
	return s.DefenderPoints
}
