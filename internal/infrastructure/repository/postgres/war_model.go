package postgres

import (
	"database/sql"
	"time"

	"github.com/riskibarqy/turf-war/internal/domain/crew"
	"github.com/riskibarqy/turf-war/internal/domain/poi"
	"github.com/riskibarqy/turf-war/internal/domain/presence"
	"github.com/riskibarqy/turf-war/internal/domain/territory"
	"github.com/riskibarqy/turf-war/internal/domain/war"
	"github.com/riskibarqy/turf-war/internal/domain/warevent"
	"github.com/riskibarqy/turf-war/internal/domain/warstats"
)

type warTableModel struct {
	PublicID          string     `db:"public_id"`
	DistrictID        string     `db:"district_public_id"`
	AttackerFactionID string     `db:"attacker_faction_id"`
	DefenderFactionID string     `db:"defender_faction_id"`
	Status            string     `db:"status"`
	AttackerPoints    int64      `db:"attacker_points"`
	DefenderPoints    int64      `db:"defender_points"`
	StartedAt         time.Time  `db:"started_at"`
	EndedAt           *time.Time `db:"ended_at"`
}

func (m warTableModel) toDomain() war.Session {
	return war.Session{
		ID:                m.PublicID,
		DistrictID:        m.DistrictID,
		AttackerFactionID: m.AttackerFactionID,
		DefenderFactionID: m.DefenderFactionID,
		Status:            war.Status(m.Status),
		AttackerPoints:    m.AttackerPoints,
		DefenderPoints:    m.DefenderPoints,
		StartedAt:         m.StartedAt.UTC(),
		EndedAt:           utcPtr(m.EndedAt),
	}
}

type poiTableModel struct {
	PublicID           string `db:"public_id"`
	Name               string `db:"name"`
	POIType            string `db:"poi_type"`
	StrategicValue     int    `db:"strategic_value"`
	CaptureTimeMinutes int    `db:"capture_time_minutes"`
	DistrictID         string `db:"district_public_id"`
}

func (m poiTableModel) toDomain() poi.PointOfInterest {
	return poi.PointOfInterest{
		ID:                 m.PublicID,
		Name:               m.Name,
		Type:               poi.Type(m.POIType),
		StrategicValue:     m.StrategicValue,
		CaptureTimeMinutes: m.CaptureTimeMinutes,
		DistrictID:         m.DistrictID,
	}
}

type crewMemberTableModel struct {
	PlayerID  string `db:"player_id"`
	FactionID string `db:"faction_id"`
	Role      string `db:"role"`
}

func (m crewMemberTableModel) toDomain() crew.Membership {
	return crew.Membership{
		PlayerID:  m.PlayerID,
		FactionID: m.FactionID,
		Role:      crew.Role(m.Role),
	}
}

type controlTableModel struct {
	WarPublicID                 string         `db:"war_public_id"`
	POIPublicID                 string         `db:"poi_public_id"`
	ControllingFactionID        sql.NullString `db:"controlling_faction_id"`
	CapturingFactionID          sql.NullString `db:"capturing_faction_id"`
	CapturingPlayerID           sql.NullString `db:"capturing_player_id"`
	CaptureStartedAt            *time.Time     `db:"capture_started_at"`
	AdjustedCaptureMinutes      float64        `db:"adjusted_capture_minutes"`
	AttemptID                   sql.NullString `db:"attempt_id"`
	ProgressPercent             int            `db:"progress_percent"`
	IsContested                 bool           `db:"is_contested"`
	ContestedByFactionID        sql.NullString `db:"contested_by_faction_id"`
	ContestedByPlayerID         sql.NullString `db:"contested_by_player_id"`
	PointsGeneratedSinceCapture int64          `db:"points_generated_since_capture"`
	Version                     int64          `db:"version"`
	UpdatedAt                   time.Time      `db:"updated_at"`
}

var controlColumns = []string{
	"war_public_id",
	"poi_public_id",
	"controlling_faction_id",
	"capturing_faction_id",
	"capturing_player_id",
	"capture_started_at",
	"adjusted_capture_minutes",
	"attempt_id",
	"progress_percent",
	"is_contested",
	"contested_by_faction_id",
	"contested_by_player_id",
	"points_generated_since_capture",
	"version",
	"updated_at",
}

func (m controlTableModel) toDomain() territory.Control {
	return territory.Control{
		WarID:                       m.WarPublicID,
		POIID:                       m.POIPublicID,
		ControllingFactionID:        stringValue(m.ControllingFactionID),
		CapturingFactionID:          stringValue(m.CapturingFactionID),
		CapturingPlayerID:           stringValue(m.CapturingPlayerID),
		CaptureStartedAt:            utcPtr(m.CaptureStartedAt),
		AdjustedCaptureMinutes:      m.AdjustedCaptureMinutes,
		AttemptID:                   stringValue(m.AttemptID),
		ProgressPercent:             m.ProgressPercent,
		IsContested:                 m.IsContested,
		ContestedByFactionID:        stringValue(m.ContestedByFactionID),
		ContestedByPlayerID:         stringValue(m.ContestedByPlayerID),
		PointsGeneratedSinceCapture: m.PointsGeneratedSinceCapture,
		Version:                     m.Version,
		UpdatedAt:                   m.UpdatedAt.UTC(),
	}
}

func controlRowFromDomain(c territory.Control) controlTableModel {
	return controlTableModel{
		WarPublicID:                 c.WarID,
		POIPublicID:                 c.POIID,
		ControllingFactionID:        nullString(c.ControllingFactionID),
		CapturingFactionID:          nullString(c.CapturingFactionID),
		CapturingPlayerID:           nullString(c.CapturingPlayerID),
		CaptureStartedAt:            utcPtr(c.CaptureStartedAt),
		AdjustedCaptureMinutes:      c.AdjustedCaptureMinutes,
		AttemptID:                   nullString(c.AttemptID),
		ProgressPercent:             c.ProgressPercent,
		IsContested:                 c.IsContested,
		ContestedByFactionID:        nullString(c.ContestedByFactionID),
		ContestedByPlayerID:         nullString(c.ContestedByPlayerID),
		PointsGeneratedSinceCapture: c.PointsGeneratedSinceCapture,
		Version:                     c.Version,
		UpdatedAt:                   c.UpdatedAt,
	}
}

type presenceTableModel struct {
	WarPublicID  string    `db:"war_public_id"`
	POIPublicID  string    `db:"poi_public_id"`
	PlayerID     string    `db:"player_id"`
	FactionID    string    `db:"faction_id"`
	LastActionAt time.Time `db:"last_action_at"`
}

func (m presenceTableModel) toDomain() presence.Record {
	return presence.Record{
		PlayerID:     m.PlayerID,
		POIID:        m.POIPublicID,
		WarID:        m.WarPublicID,
		FactionID:    m.FactionID,
		LastActionAt: m.LastActionAt.UTC(),
	}
}

type warEventTableModel struct {
	PublicID     string         `db:"public_id"`
	WarPublicID  string         `db:"war_public_id"`
	EventType    string         `db:"event_type"`
	FactionID    sql.NullString `db:"faction_id"`
	PlayerID     sql.NullString `db:"player_id"`
	POIPublicID  sql.NullString `db:"poi_public_id"`
	AttemptID    sql.NullString `db:"attempt_id"`
	PointsEarned int64          `db:"points_earned"`
	Description  string         `db:"description"`
	OccurredAt   time.Time      `db:"occurred_at"`
}

func warEventRowFromDomain(e warevent.Event) warEventTableModel {
	return warEventTableModel{
		PublicID:     e.ID,
		WarPublicID:  e.WarID,
		EventType:    string(e.Type),
		FactionID:    nullString(e.FactionID),
		PlayerID:     nullString(e.PlayerID),
		POIPublicID:  nullString(e.POIID),
		AttemptID:    nullString(e.AttemptID),
		PointsEarned: e.PointsEarned,
		Description:  e.Description,
		OccurredAt:   e.OccurredAt.UTC(),
	}
}

func (m warEventTableModel) toDomain() warevent.Event {
	return warevent.Event{
		ID:           m.PublicID,
		WarID:        m.WarPublicID,
		Type:         warevent.Type(m.EventType),
		FactionID:    stringValue(m.FactionID),
		PlayerID:     stringValue(m.PlayerID),
		POIID:        stringValue(m.POIPublicID),
		AttemptID:    stringValue(m.AttemptID),
		PointsEarned: m.PointsEarned,
		Description:  m.Description,
		OccurredAt:   m.OccurredAt.UTC(),
	}
}

type factionStatsTableModel struct {
	WarPublicID  string `db:"war_public_id"`
	FactionID    string `db:"faction_id"`
	POIsCaptured int    `db:"pois_captured"`
	DefensesWon  int    `db:"defenses_won"`
	WarPoints    int64  `db:"war_points"`
}

func (m factionStatsTableModel) toDomain() warstats.FactionStats {
	return warstats.FactionStats{
		WarID:        m.WarPublicID,
		FactionID:    m.FactionID,
		POIsCaptured: m.POIsCaptured,
		DefensesWon:  m.DefensesWon,
		WarPoints:    m.WarPoints,
	}
}

type memberStatsTableModel struct {
	WarPublicID string `db:"war_public_id"`
	PlayerID    string `db:"player_id"`
	FactionID   string `db:"faction_id"`
	Captures    int    `db:"captures"`
	Defenses    int    `db:"defenses"`
	WarPoints   int64  `db:"war_points"`
}

func (m memberStatsTableModel) toDomain() warstats.MemberStats {
	return warstats.MemberStats{
		WarID:     m.WarPublicID,
		PlayerID:  m.PlayerID,
		FactionID: m.FactionID,
		Captures:  m.Captures,
		Defenses:  m.Defenses,
		WarPoints: m.WarPoints,
	}
}
