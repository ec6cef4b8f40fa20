package httpapi

import (
	"time"

	"github.com/riskibarqy/turf-war/internal/domain/jobscheduler"
	"github.com/riskibarqy/turf-war/internal/domain/territory"
	"github.com/riskibarqy/turf-war/internal/domain/war"
	"github.com/riskibarqy/turf-war/internal/domain/warevent"
	"github.com/riskibarqy/turf-war/internal/usecase"
)

type warSessionDTO struct {
	ID                string     `json:"id"`
	DistrictID        string     `json:"district_id"`
	AttackerFactionID string     `json:"attacker_faction_id"`
	DefenderFactionID string     `json:"defender_faction_id"`
	Status            string     `json:"status"`
	AttackerPoints    int64      `json:"attacker_points"`
	DefenderPoints    int64      `json:"defender_points"`
	StartedAt         time.Time  `json:"started_at"`
	EndedAt           *time.Time `json:"ended_at,omitempty"`
}

type poiStatusDTO struct {
	POIID                string               `json:"poi_id"`
	Name                 string               `json:"name"`
	Type                 string               `json:"type"`
	StrategicValue       int                  `json:"strategic_value"`
	CaptureTimeMinutes   int                  `json:"capture_time_minutes"`
	State                string               `json:"state"`
	ControllingFactionID string               `json:"controlling_faction_id,omitempty"`
	CapturingFactionID   string               `json:"capturing_faction_id,omitempty"`
	CapturingPlayerID    string               `json:"capturing_player_id,omitempty"`
	ContestedByFactionID string               `json:"contested_by_faction_id,omitempty"`
	ProgressPercent      int                  `json:"progress_percent"`
	IsContested          bool                 `json:"is_contested"`
	Present              bool                 `json:"present"`
	Actions              usecase.LegalActions `json:"actions"`
}

type warStatusDTO struct {
	War       warSessionDTO  `json:"war"`
	FactionID string         `json:"faction_id"`
	POIs      []poiStatusDTO `json:"pois"`
}

type controlDTO struct {
	POIID                       string     `json:"poi_id"`
	State                       string     `json:"state"`
	ControllingFactionID        string     `json:"controlling_faction_id,omitempty"`
	CapturingFactionID          string     `json:"capturing_faction_id,omitempty"`
	CapturingPlayerID           string     `json:"capturing_player_id,omitempty"`
	CaptureStartedAt            *time.Time `json:"capture_started_at,omitempty"`
	AdjustedCaptureMinutes      float64    `json:"adjusted_capture_minutes,omitempty"`
	IsContested                 bool       `json:"is_contested"`
	ContestedByFactionID        string     `json:"contested_by_faction_id,omitempty"`
	PointsGeneratedSinceCapture int64      `json:"points_generated_since_capture"`
}

type actionResultDTO struct {
	Action           string        `json:"action"`
	State            string        `json:"state"`
	ProgressPercent  int           `json:"progress_percent"`
	DefenseSucceeded bool          `json:"defense_succeeded,omitempty"`
	Control          controlDTO    `json:"control"`
	Events           []warEventDTO `json:"events"`
}

type warEventDTO struct {
	ID           string    `json:"id"`
	Type         string    `json:"type"`
	FactionID    string    `json:"faction_id,omitempty"`
	PlayerID     string    `json:"player_id,omitempty"`
	POIID        string    `json:"poi_id,omitempty"`
	PointsEarned int64     `json:"points_earned"`
	Description  string    `json:"description"`
	OccurredAt   time.Time `json:"occurred_at"`
}

type presenceDTO struct {
	WarID        string    `json:"war_id"`
	POIID        string    `json:"poi_id"`
	PlayerID     string    `json:"player_id"`
	FactionID    string    `json:"faction_id"`
	LastActionAt time.Time `json:"last_action_at"`
}

type leaveDTO struct {
	Removed bool   `json:"removed"`
	Release string `json:"release,omitempty"`
}

type factionStatsDTO struct {
	FactionID    string `json:"faction_id"`
	POIsCaptured int    `json:"pois_captured"`
	DefensesWon  int    `json:"defenses_won"`
	WarPoints    int64  `json:"war_points"`
}

type memberStatsDTO struct {
	PlayerID  string `json:"player_id"`
	FactionID string `json:"faction_id"`
	Captures  int    `json:"captures"`
	Defenses  int    `json:"defenses"`
	WarPoints int64  `json:"war_points"`
}

type scoreboardDTO struct {
	War      warSessionDTO     `json:"war"`
	Factions []factionStatsDTO `json:"factions"`
	Members  []memberStatsDTO  `json:"members"`
}

func warSessionToDTO(s war.Session) warSessionDTO {
	return warSessionDTO{
		ID:                s.ID,
		DistrictID:        s.DistrictID,
		AttackerFactionID: s.AttackerFactionID,
		DefenderFactionID: s.DefenderFactionID,
		Status:            string(s.Status),
		AttackerPoints:    s.AttackerPoints,
		DefenderPoints:    s.DefenderPoints,
		StartedAt:         s.StartedAt.UTC(),
		EndedAt:           s.EndedAt,
	}
}

func warStatusToDTO(status usecase.WarStatus) warStatusDTO {
	out := warStatusDTO{
		War:       warSessionToDTO(status.Session),
		FactionID: status.FactionID,
		POIs:      make([]poiStatusDTO, 0, len(status.POIs)),
	}
	for _, item := range status.POIs {
		out.POIs = append(out.POIs, poiStatusDTO{
			POIID:                item.POIID,
			Name:                 item.Name,
			Type:                 string(item.Type),
			StrategicValue:       item.StrategicValue,
			CaptureTimeMinutes:   item.CaptureTimeMinutes,
			State:                string(item.State),
			ControllingFactionID: item.ControllingFactionID,
			CapturingFactionID:   item.CapturingFactionID,
			CapturingPlayerID:    item.CapturingPlayerID,
			ContestedByFactionID: item.ContestedByFactionID,
			ProgressPercent:      item.ProgressPercent,
			IsContested:          item.IsContested,
			Present:              item.Present,
			Actions:              item.Actions,
		})
	}
	return out
}

func controlToDTO(c territory.Control) controlDTO {
	return controlDTO{
		POIID:                       c.POIID,
		State:                       string(c.State()),
		ControllingFactionID:        c.ControllingFactionID,
		CapturingFactionID:          c.CapturingFactionID,
		CapturingPlayerID:           c.CapturingPlayerID,
		CaptureStartedAt:            c.CaptureStartedAt,
		AdjustedCaptureMinutes:      c.AdjustedCaptureMinutes,
		IsContested:                 c.IsContested,
		ContestedByFactionID:        c.ContestedByFactionID,
		PointsGeneratedSinceCapture: c.PointsGeneratedSinceCapture,
	}
}

func actionResultToDTO(result usecase.ActionResult) actionResultDTO {
	out := actionResultDTO{
		Action:           result.Action,
		State:            string(result.State),
		ProgressPercent:  result.ProgressPercent,
		DefenseSucceeded: result.DefenseSucceeded,
		Control:          controlToDTO(result.Control),
		Events:           make([]warEventDTO, 0, len(result.Events)),
	}
	for _, event := range result.Events {
		out.Events = append(out.Events, warEventToDTO(event))
	}
	return out
}

func warEventToDTO(e warevent.Event) warEventDTO {
	return warEventDTO{
		ID:           e.ID,
		Type:         string(e.Type),
		FactionID:    e.FactionID,
		PlayerID:     e.PlayerID,
		POIID:        e.POIID,
		PointsEarned: e.PointsEarned,
		Description:  e.Description,
		OccurredAt:   e.OccurredAt.UTC(),
	}
}

func scoreboardToDTO(board usecase.Scoreboard) scoreboardDTO {
	out := scoreboardDTO{
		War:      warSessionToDTO(board.Session),
		Factions: make([]factionStatsDTO, 0, len(board.Factions)),
		Members:  make([]memberStatsDTO, 0, len(board.Members)),
	}
	for _, f := range board.Factions {
		out.Factions = append(out.Factions, factionStatsDTO{
			FactionID:    f.FactionID,
			POIsCaptured: f.POIsCaptured,
			DefensesWon:  f.DefensesWon,
			WarPoints:    f.WarPoints,
		})
	}
	for _, m := range board.Members {
		out.Members = append(out.Members, memberStatsDTO{
			PlayerID:  m.PlayerID,
			FactionID: m.FactionID,
			Captures:  m.Captures,
			Defenses:  m.Defenses,
			WarPoints: m.WarPoints,
		})
	}
	return out
}

type dispatchDTO struct {
	DispatchID   string         `json:"dispatch_id"`
	Trigger      string         `json:"trigger"`
	Status       string         `json:"status"`
	Payload      map[string]any `json:"payload,omitempty"`
	ErrorMessage string         `json:"error_message,omitempty"`
	OccurredAt   time.Time      `json:"occurred_at"`
	TraceID      string         `json:"trace_id,omitempty"`
}

func dispatchToDTO(e jobscheduler.DispatchEvent) dispatchDTO {
	return dispatchDTO{
		DispatchID:   e.DispatchID,
		Trigger:      e.Trigger,
		Status:       string(e.Status),
		Payload:      e.Payload,
		ErrorMessage: e.ErrorMessage,
		OccurredAt:   e.OccurredAt.UTC(),
		TraceID:      e.TraceID,
	}
}
