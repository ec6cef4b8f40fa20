package usecase

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/riskibarqy/turf-war/internal/domain/crew"
	"github.com/riskibarqy/turf-war/internal/domain/territory"
	"github.com/riskibarqy/turf-war/internal/domain/warevent"
)

// MembershipDirectory resolves which faction a player fights for in a war.
// It returns territory.ErrNotInWar for players outside both factions.
type MembershipDirectory interface {
	GetFactionAndRole(ctx context.Context, playerID, warID string) (string, crew.Role, error)
}

// ResourcePool is the stamina/focus system of record. TryDebit reports false
// when the balance is too low; errors are infrastructure failures.
type ResourcePool interface {
	TryDebit(ctx context.Context, playerID string, kind territory.Resource, amount int) (bool, error)
	Credit(ctx context.Context, playerID string, kind territory.Resource, amount int) error
}

// FeedPublisher delivers war events to players. Delivery is best effort.
type FeedPublisher interface {
	Publish(ctx context.Context, events ...warevent.Event) error
}

type noopFeedPublisher struct{}

func (noopFeedPublisher) Publish(context.Context, ...warevent.Event) error { return nil }

func NewNoopFeedPublisher() FeedPublisher {
	return noopFeedPublisher{}
}

// Roller decides a defense roll: true with the given probability.
type Roller interface {
	Roll(chance float64) bool
}

type RollerFunc func(chance float64) bool

func (f RollerFunc) Roll(chance float64) bool { return f(chance) }

type randomRoller struct{}

func (randomRoller) Roll(chance float64) bool {
	return rand.Float64() < chance
}

func NewRandomRoller() Roller {
	return randomRoller{}
}

// MetricsRecorder receives operational counters. Implementations must be safe
// for concurrent use.
type MetricsRecorder interface {
	ObserveAction(action, outcome string)
	ObserveTick(duration time.Duration, completed, failed int)
}

type noopMetrics struct{}

func (noopMetrics) ObserveAction(string, string) {}
func (noopMetrics) ObserveTick(time.Duration, int, int) {}
