package warstats

import (
	"fmt"

	"github.com/riskibarqy/turf-war/internal/domain/war"
)

type AwardKind string

const (
	AwardCapture AwardKind = "capture"
	AwardDefense AwardKind = "defense"
)

// Award is one scoring application. It is booked against the war column for
// Side, the faction counters, and the player's personal tally.
type Award struct {
	WarID     string
	POIID     string
	FactionID string
	PlayerID  string
	Side      war.Side
	Kind      AwardKind
	Points    int64
}

func (a Award) Validate() error {
	if a.WarID == "" || a.FactionID == "" || a.PlayerID == "" {
		return fmt.Errorf("award requires war, faction and player ids")
	}
	if a.Side != war.SideAttacker && a.Side != war.SideDefender {
		return fmt.Errorf("award side %q is invalid", a.Side)
	}
	if a.Kind != AwardCapture && a.Kind != AwardDefense {
		return fmt.Errorf("award kind %q is invalid", a.Kind)
	}
	if a.Points < 0 {
		return fmt.Errorf("award points must be >= 0")
	}

	return nil
}

// FactionStats is keyed by (WarID, FactionID).
type FactionStats struct {
	WarID        string
	FactionID    string
	POIsCaptured int
	DefensesWon  int
	WarPoints    int64
}

// MemberStats is keyed by (WarID, PlayerID).
type MemberStats struct {
	WarID     string
	PlayerID  string
	FactionID string
	Captures  int
	Defenses  int
	WarPoints int64
}

func (f *FactionStats) Apply(a Award) {
	f.WarPoints += a.Points
	switch a.Kind {
	case AwardCapture:
		f.POIsCaptured++
	case AwardDefense:
		f.DefensesWon++
	}
}

func (m *MemberStats) Apply(a Award) {
	m.WarPoints += a.Points
	switch a.Kind {
	case AwardCapture:
		m.Captures++
	case AwardDefense:
		m.Defenses++
	}
}
