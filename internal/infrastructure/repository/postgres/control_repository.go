package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/riskibarqy/turf-war/internal/domain/territory"
	"github.com/riskibarqy/turf-war/internal/domain/war"
	"github.com/riskibarqy/turf-war/internal/domain/warevent"
	"github.com/riskibarqy/turf-war/internal/domain/warstats"
	qb "github.com/riskibarqy/turf-war/internal/platform/querybuilder"
)

// ControlRepository stores war_poi_controls. Mutate holds the row with
// FOR UPDATE NOWAIT for the whole callback, so the control update, the event
// rows and the score columns commit together.
type ControlRepository struct {
	db  *sqlx.DB
	now func() time.Time
}

func NewControlRepository(db *sqlx.DB) *ControlRepository {
	return &ControlRepository{db: db, now: time.Now}
}

func (r *ControlRepository) ListByWar(ctx context.Context, warID string) ([]territory.Control, error) {
	query, args, err := qb.Select(controlColumns...).From("war_poi_controls").
		Where(qb.Eq("war_public_id", warID)).
		OrderBy("poi_public_id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list controls query: %w", err)
	}

	var rows []controlTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select controls for war=%s: %w", warID, err)
	}

	out := make([]territory.Control, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func (r *ControlRepository) Get(ctx context.Context, warID, poiID string) (territory.Control, bool, error) {
	query, args, err := qb.Select(controlColumns...).From("war_poi_controls").
		Where(
			qb.Eq("war_public_id", warID),
			qb.Eq("poi_public_id", poiID),
		).
		ToSQL()
	if err != nil {
		return territory.Control{}, false, fmt.Errorf("build get control query: %w", err)
	}

	var row controlTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return territory.Control{}, false, nil
		}
		return territory.Control{}, false, fmt.Errorf("get control war=%s poi=%s: %w", warID, poiID, err)
	}
	return row.toDomain(), true, nil
}

func (r *ControlRepository) InitializeWar(ctx context.Context, warID string, controls []territory.Control) error {
	if len(controls) == 0 {
		return nil
	}

	now := r.now().UTC()
	insert := qb.InsertInto("war_poi_controls").Columns(controlColumns...)
	for _, c := range controls {
		if c.WarID != warID {
			return fmt.Errorf("control for poi=%s belongs to war=%s, not %s", c.POIID, c.WarID, warID)
		}
		if c.Version == 0 {
			c.Version = 1
		}
		c.UpdatedAt = now
		if err := c.Validate(); err != nil {
			return fmt.Errorf("validate control poi=%s: %w", c.POIID, err)
		}
		row := controlRowFromDomain(c)
		insert.Values(
			row.WarPublicID,
			row.POIPublicID,
			row.ControllingFactionID,
			row.CapturingFactionID,
			row.CapturingPlayerID,
			row.CaptureStartedAt,
			row.AdjustedCaptureMinutes,
			row.AttemptID,
			row.ProgressPercent,
			row.IsContested,
			row.ContestedByFactionID,
			row.ContestedByPlayerID,
			row.PointsGeneratedSinceCapture,
			row.Version,
			row.UpdatedAt,
		)
	}

	query, args, err := insert.Suffix("ON CONFLICT (war_public_id, poi_public_id) DO NOTHING").ToSQL()
	if err != nil {
		return fmt.Errorf("build initialize controls query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("initialize controls for war=%s: %w", warID, err)
	}
	return nil
}

func (r *ControlRepository) DeleteByWar(ctx context.Context, warID string) error {
	query, args, err := qb.DeleteFrom("war_poi_controls").
		Where(qb.Eq("war_public_id", warID)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build delete controls query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("delete controls for war=%s: %w", warID, err)
	}
	return nil
}

func (r *ControlRepository) Mutate(ctx context.Context, warID, poiID string, fn territory.MutateFunc) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx for control mutation: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	query, args, err := qb.Select(controlColumns...).From("war_poi_controls").
		Where(
			qb.Eq("war_public_id", warID),
			qb.Eq("poi_public_id", poiID),
		).
		ForUpdate(true).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build lock control query: %w", err)
	}

	var row controlTableModel
	if err := tx.GetContext(ctx, &row, query, args...); err != nil {
		switch {
		case isNotFound(err):
			return territory.ErrPOINotInWar
		case isLockNotAvailable(err):
			return territory.ErrStateChanged
		}
		return fmt.Errorf("lock control war=%s poi=%s: %w", warID, poiID, err)
	}

	current := row.toDomain()
	unit := &controlTx{tx: tx, warID: warID, poiID: poiID, readVersion: current.Version}
	if err := fn(ctx, current, unit); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit control mutation: %w", err)
	}
	return nil
}

type controlTx struct {
	tx          *sqlx.Tx
	warID       string
	poiID       string
	readVersion int64
}

func (u *controlTx) SaveControl(ctx context.Context, next territory.Control) error {
	if next.WarID != u.warID || next.POIID != u.poiID {
		return fmt.Errorf("tx is scoped to %s/%s", u.warID, u.poiID)
	}
	if next.Version != u.readVersion {
		return territory.ErrStateChanged
	}
	if err := next.Validate(); err != nil {
		return fmt.Errorf("validate control: %w", err)
	}

	row := controlRowFromDomain(next)
	query, args, err := qb.Update("war_poi_controls").
		Set("controlling_faction_id", row.ControllingFactionID).
		Set("capturing_faction_id", row.CapturingFactionID).
		Set("capturing_player_id", row.CapturingPlayerID).
		Set("capture_started_at", row.CaptureStartedAt).
		Set("adjusted_capture_minutes", row.AdjustedCaptureMinutes).
		Set("attempt_id", row.AttemptID).
		Set("progress_percent", row.ProgressPercent).
		Set("is_contested", row.IsContested).
		Set("contested_by_faction_id", row.ContestedByFactionID).
		Set("contested_by_player_id", row.ContestedByPlayerID).
		Set("points_generated_since_capture", row.PointsGeneratedSinceCapture).
		SetExpr("version", "version + 1").
		SetExpr("updated_at", "NOW()").
		Where(
			qb.Eq("war_public_id", u.warID),
			qb.Eq("poi_public_id", u.poiID),
			qb.Eq("version", u.readVersion),
		).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build save control query: %w", err)
	}

	result, err := u.tx.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("save control war=%s poi=%s: %w", u.warID, u.poiID, err)
	}
	n, err := affected(result, "save control")
	if err != nil {
		return err
	}
	if n == 0 {
		return territory.ErrStateChanged
	}
	u.readVersion++
	return nil
}

func (u *controlTx) AppendEvent(ctx context.Context, event warevent.Event) (bool, error) {
	return insertWarEvent(ctx, u.tx, event)
}

func (u *controlTx) ApplyAward(ctx context.Context, award warstats.Award) error {
	if err := award.Validate(); err != nil {
		return fmt.Errorf("validate award: %w", err)
	}

	column := "attacker_points"
	if award.Side == war.SideDefender {
		column = "defender_points"
	}
	query, args, err := qb.Update("wars").
		SetExpr(column, column+" + ?", award.Points).
		SetExpr("updated_at", "NOW()").
		Where(qb.Eq("public_id", award.WarID)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build war points query: %w", err)
	}
	result, err := u.tx.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("add %s to war=%s: %w", column, award.WarID, err)
	}
	if n, err := affected(result, "war points"); err != nil {
		return err
	} else if n == 0 {
		return fmt.Errorf("award for unknown war %s", award.WarID)
	}

	var faction warstats.FactionStats
	faction.Apply(award)
	query, args, err = qb.InsertModel("war_faction_stats", factionStatsTableModel{
		WarPublicID:  award.WarID,
		FactionID:    award.FactionID,
		POIsCaptured: faction.POIsCaptured,
		DefensesWon:  faction.DefensesWon,
		WarPoints:    faction.WarPoints,
	}, `ON CONFLICT (war_public_id, faction_id) DO UPDATE SET
    pois_captured = war_faction_stats.pois_captured + EXCLUDED.pois_captured,
    defenses_won = war_faction_stats.defenses_won + EXCLUDED.defenses_won,
    war_points = war_faction_stats.war_points + EXCLUDED.war_points,
    updated_at = NOW()`)
	if err != nil {
		return fmt.Errorf("build faction stats query: %w", err)
	}
	if _, err := u.tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("apply faction stats war=%s faction=%s: %w", award.WarID, award.FactionID, err)
	}

	var member warstats.MemberStats
	member.Apply(award)
	query, args, err = qb.InsertModel("war_member_stats", memberStatsTableModel{
		WarPublicID: award.WarID,
		PlayerID:    award.PlayerID,
		FactionID:   award.FactionID,
		Captures:    member.Captures,
		Defenses:    member.Defenses,
		WarPoints:   member.WarPoints,
	}, `ON CONFLICT (war_public_id, player_id) DO UPDATE SET
    captures = war_member_stats.captures + EXCLUDED.captures,
    defenses = war_member_stats.defenses + EXCLUDED.defenses,
    war_points = war_member_stats.war_points + EXCLUDED.war_points,
    updated_at = NOW()`)
	if err != nil {
		return fmt.Errorf("build member stats query: %w", err)
	}
	if _, err := u.tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("apply member stats war=%s player=%s: %w", award.WarID, award.PlayerID, err)
	}

	return nil
}

// insertWarEvent relies on the partial unique index over completed attempts;
// a duplicate completion inserts nothing and reports false.
func insertWarEvent(ctx context.Context, exec sqlx.ExecerContext, event warevent.Event) (bool, error) {
	if err := event.Validate(); err != nil {
		return false, fmt.Errorf("validate war event: %w", err)
	}

	query, args, err := qb.InsertModel("war_events", warEventRowFromDomain(event), "ON CONFLICT DO NOTHING")
	if err != nil {
		return false, fmt.Errorf("build insert war event query: %w", err)
	}
	result, err := exec.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("insert war event type=%s war=%s: %w", event.Type, event.WarID, err)
	}
	n, err := affected(result, "insert war event")
	if err != nil {
		return false, err
	}
	return n == 1, nil
}
