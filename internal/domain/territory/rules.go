package territory

import (
	"math"
	"time"

	"github.com/riskibarqy/turf-war/internal/domain/crew"
)

type Resource string

const (
	ResourceStamina Resource = "stamina"
	ResourceFocus   Resource = "focus"
)

type Cost struct {
	Resource Resource
	Amount   int
}

// Rules holds the gameplay tuning values. They are configuration defaults, not
// balance decisions made in code.
type Rules struct {
	PresenceTimeout time.Duration

	DefendBaseChance             float64
	EnforcerDefendBonus          float64
	InfiltratorCaptureMultiplier float64

	CapturePointsPerValue int64
	DefensePoints         int64

	CaptureStaminaCost        int
	ContestStaminaCost        int
	LookoutContestStaminaCost int
	DefendStaminaCost         int
	DefendFocusCost           int
}

func DefaultRules() Rules {
	return Rules{
		PresenceTimeout:              5 * time.Minute,
		DefendBaseChance:             0.60,
		EnforcerDefendBonus:          0.20,
		InfiltratorCaptureMultiplier: 0.7,
		CapturePointsPerValue:        100,
		DefensePoints:                25,
		CaptureStaminaCost:           10,
		ContestStaminaCost:           5,
		LookoutContestStaminaCost:    3,
		DefendStaminaCost:            8,
		DefendFocusCost:              5,
	}
}

// Normalize replaces unusable values with defaults. Zero costs are allowed.
func (r Rules) Normalize() Rules {
	d := DefaultRules()
	if r.PresenceTimeout <= 0 {
		r.PresenceTimeout = d.PresenceTimeout
	}
	if r.DefendBaseChance < 0 || r.DefendBaseChance > 1 {
		r.DefendBaseChance = d.DefendBaseChance
	}
	if r.EnforcerDefendBonus < 0 {
		r.EnforcerDefendBonus = d.EnforcerDefendBonus
	}
	if r.InfiltratorCaptureMultiplier <= 0 {
		r.InfiltratorCaptureMultiplier = d.InfiltratorCaptureMultiplier
	}
	if r.CapturePointsPerValue <= 0 {
		r.CapturePointsPerValue = d.CapturePointsPerValue
	}
	if r.DefensePoints < 0 {
		r.DefensePoints = d.DefensePoints
	}
	for _, v := range []*int{&r.CaptureStaminaCost, &r.ContestStaminaCost, &r.LookoutContestStaminaCost, &r.DefendStaminaCost, &r.DefendFocusCost} {
		if *v < 0 {
			*v = 0
		}
	}
	return r
}

func (r Rules) CaptureMultiplier(role crew.Role) float64 {
	if role == crew.RoleInfiltrator {
		return r.InfiltratorCaptureMultiplier
	}
	return 1
}

// DefendChance is the success probability for role, capped at 1.
func (r Rules) DefendChance(role crew.Role) float64 {
	chance := r.DefendBaseChance
	if role == crew.RoleEnforcer {
		chance += r.EnforcerDefendBonus
	}
	return math.Min(1, math.Max(0, chance))
}

func (r Rules) CapturePoints(strategicValue int) int64 {
	return r.CapturePointsPerValue * int64(strategicValue)
}

func (r Rules) CaptureCost(crew.Role) []Cost {
	return costs(Cost{ResourceStamina, r.CaptureStaminaCost})
}

func (r Rules) ContestCost(role crew.Role) []Cost {
	if role == crew.RoleLookout {
		return costs(Cost{ResourceStamina, r.LookoutContestStaminaCost})
	}
	return costs(Cost{ResourceStamina, r.ContestStaminaCost})
}

func (r Rules) DefendCost(crew.Role) []Cost {
	return costs(Cost{ResourceStamina, r.DefendStaminaCost}, Cost{ResourceFocus, r.DefendFocusCost})
}

func costs(items ...Cost) []Cost {
	out := items[:0]
	for _, c := range items {
		if c.Amount > 0 {
			out = append(out, c)
		}
	}
	return out
}

// AdjustedCaptureMinutes scales the POI baseline by the capturer's role.
func AdjustedCaptureMinutes(baseline int, multiplier float64) float64 {
	if multiplier <= 0 {
		multiplier = 1
	}
	return float64(baseline) * multiplier
}
