package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/riskibarqy/turf-war/internal/domain/poi"
	"github.com/riskibarqy/turf-war/internal/domain/territory"
	"github.com/riskibarqy/turf-war/internal/domain/war"
)

type LegalActions struct {
	Enter   bool `json:"enter"`
	Leave   bool `json:"leave"`
	Capture bool `json:"capture"`
	Contest bool `json:"contest"`
	Defend  bool `json:"defend"`
}

type POIStatus struct {
	POIID                string
	Name                 string
	Type                 poi.Type
	StrategicValue       int
	CaptureTimeMinutes   int
	State                territory.State
	ControllingFactionID string
	CapturingFactionID   string
	CapturingPlayerID    string
	ContestedByFactionID string
	ProgressPercent      int
	IsContested          bool
	Present              bool
	Actions              LegalActions
}

type WarStatus struct {
	Session   war.Session
	FactionID string
	POIs      []POIStatus
}

// GetStatus lists every POI of the war from playerID's point of view. It needs
// no presence and works for ended wars.
func (s *CaptureService) GetStatus(ctx context.Context, warID, playerID string) (WarStatus, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.CaptureService.GetStatus")
	defer span.End()

	warID = strings.TrimSpace(warID)
	playerID = strings.TrimSpace(playerID)
	if warID == "" || playerID == "" {
		return WarStatus{}, fmt.Errorf("%w: war_id and player_id are required", ErrInvalidInput)
	}

	session, exists, err := s.wars.GetByID(ctx, warID)
	if err != nil {
		return WarStatus{}, fmt.Errorf("get war: %w", err)
	}
	if !exists {
		return WarStatus{}, fmt.Errorf("%w: war=%s", ErrNotFound, warID)
	}

	factionID, _, err := s.members.GetFactionAndRole(ctx, playerID, warID)
	if err != nil {
		return WarStatus{}, err
	}

	controls, err := s.controls.ListByWar(ctx, warID)
	if err != nil {
		return WarStatus{}, fmt.Errorf("list war controls: %w", err)
	}

	records, err := s.presence.ListByPlayer(ctx, warID, playerID)
	if err != nil {
		return WarStatus{}, fmt.Errorf("list player presence: %w", err)
	}
	now := s.now().UTC()
	present := make(map[string]bool, len(records))
	entered := make(map[string]bool, len(records))
	for _, rec := range records {
		entered[rec.POIID] = true
		present[rec.POIID] = rec.IsFresh(now, s.rules.PresenceTimeout)
	}

	actor := territory.Actor{PlayerID: playerID, FactionID: factionID}
	active := session.IsActive()
	out := WarStatus{
		Session:   session,
		FactionID: factionID,
		POIs:      make([]POIStatus, 0, len(controls)),
	}
	for _, c := range controls {
		point, exists, err := s.pois.GetByID(ctx, c.POIID)
		if err != nil {
			return WarStatus{}, fmt.Errorf("get poi %s: %w", c.POIID, err)
		}
		if !exists {
			point = poi.PointOfInterest{ID: c.POIID, Name: c.POIID}
		}

		here := present[c.POIID]
		item := POIStatus{
			POIID:                c.POIID,
			Name:                 point.Name,
			Type:                 point.Type,
			StrategicValue:       point.StrategicValue,
			CaptureTimeMinutes:   point.CaptureTimeMinutes,
			State:                c.State(),
			ControllingFactionID: c.ControllingFactionID,
			CapturingFactionID:   c.CapturingFactionID,
			CapturingPlayerID:    c.CapturingPlayerID,
			ContestedByFactionID: c.ContestedByFactionID,
			ProgressPercent:      c.ProgressAt(now),
			IsContested:          c.IsContested,
			Present:              here,
		}
		if active {
			item.Actions = legalActions(c, actor, here, entered[c.POIID], now)
		}
		out.POIs = append(out.POIs, item)
	}

	return out, nil
}

func legalActions(c territory.Control, actor territory.Actor, present, entered bool, now time.Time) LegalActions {
	actions := LegalActions{
		Enter: true,
		Leave: entered,
	}
	if !present {
		return actions
	}
	_, err := c.StartCapture(actor, 1, "", now)
	actions.Capture = err == nil
	_, err = c.Contest(actor, now)
	actions.Contest = err == nil
	actions.Defend = c.CanDefend(actor.FactionID) == nil
	return actions
}
