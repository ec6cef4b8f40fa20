package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/riskibarqy/turf-war/internal/domain/poi"
	"github.com/riskibarqy/turf-war/internal/domain/territory"
	"github.com/riskibarqy/turf-war/internal/domain/war"
	"github.com/riskibarqy/turf-war/internal/domain/warevent"
	"github.com/riskibarqy/turf-war/internal/domain/warstats"
	"github.com/riskibarqy/turf-war/internal/platform/id"
)

// AwardInput identifies who earned points where.
type AwardInput struct {
	Session   war.Session
	POI       poi.PointOfInterest
	FactionID string
	PlayerID  string
	AttemptID string
}

// ScoringEngine is the only writer of war points and faction/member counters.
// Every award appends its event and applies its counters in the same Tx.
type ScoringEngine struct {
	ids   id.Generator
	rules territory.Rules
	now   func() time.Time
}

func NewScoringEngine(ids id.Generator, rules territory.Rules) *ScoringEngine {
	if ids == nil {
		ids = id.NewUUIDGenerator()
	}
	return &ScoringEngine{
		ids:   ids,
		rules: rules.Normalize(),
		now:   time.Now,
	}
}

// AwardCapture books strategic value times the per-value rate. applied is false
// when the attempt was already scored, in which case nothing is written.
func (e *ScoringEngine) AwardCapture(ctx context.Context, tx territory.Tx, in AwardInput) (warevent.Event, bool, error) {
	if in.AttemptID == "" {
		return warevent.Event{}, false, fmt.Errorf("%w: capture award requires an attempt id", ErrInvalidInput)
	}
	points := e.rules.CapturePoints(in.POI.StrategicValue)
	description := fmt.Sprintf("%s captured %s for %d points", in.FactionID, in.POI.Name, points)
	return e.award(ctx, tx, in, warstats.AwardCapture, warevent.TypeCaptureCompleted, points, description)
}

// AwardDefense books the fixed defense bonus.
func (e *ScoringEngine) AwardDefense(ctx context.Context, tx territory.Tx, in AwardInput) (warevent.Event, error) {
	points := e.rules.DefensePoints
	description := fmt.Sprintf("%s held %s for %d points", in.FactionID, in.POI.Name, points)
	event, _, err := e.award(ctx, tx, in, warstats.AwardDefense, warevent.TypeDefendSuccess, points, description)
	return event, err
}

func (e *ScoringEngine) award(
	ctx context.Context,
	tx territory.Tx,
	in AwardInput,
	kind warstats.AwardKind,
	eventType warevent.Type,
	points int64,
	description string,
) (warevent.Event, bool, error) {
	side, ok := in.Session.SideOf(in.FactionID)
	if !ok {
		return warevent.Event{}, false, territory.Reject(territory.ErrNotInWar, "")
	}

	eventID, err := e.ids.NewID()
	if err != nil {
		return warevent.Event{}, false, fmt.Errorf("generate event id: %w", err)
	}
	event := warevent.Event{
		ID:           eventID,
		WarID:        in.Session.ID,
		Type:         eventType,
		FactionID:    in.FactionID,
		PlayerID:     in.PlayerID,
		POIID:        in.POI.ID,
		AttemptID:    in.AttemptID,
		PointsEarned: points,
		Description:  description,
		OccurredAt:   e.now().UTC(),
	}

	inserted, err := tx.AppendEvent(ctx, event)
	if err != nil {
		return warevent.Event{}, false, fmt.Errorf("append %s event: %w", eventType, err)
	}
	if !inserted {
		return event, false, nil
	}

	award := warstats.Award{
		WarID:     in.Session.ID,
		POIID:     in.POI.ID,
		FactionID: in.FactionID,
		PlayerID:  in.PlayerID,
		Side:      side,
		Kind:      kind,
		Points:    points,
	}
	if err := tx.ApplyAward(ctx, award); err != nil {
		return warevent.Event{}, false, fmt.Errorf("apply %s award: %w", kind, err)
	}

	return event, true, nil
}
