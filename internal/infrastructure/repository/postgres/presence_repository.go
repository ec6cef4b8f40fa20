package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/riskibarqy/turf-war/internal/domain/presence"
	qb "github.com/riskibarqy/turf-war/internal/platform/querybuilder"
)

type PresenceRepository struct {
	db *sqlx.DB
}

func NewPresenceRepository(db *sqlx.DB) *PresenceRepository {
	return &PresenceRepository{db: db}
}

var presenceColumns = qb.ColumnsOf(presenceTableModel{})

func (r *PresenceRepository) Upsert(ctx context.Context, record presence.Record) error {
	if err := record.Validate(); err != nil {
		return err
	}

	query, args, err := qb.UpsertModel("war_presence", presenceTableModel{
		WarPublicID:  record.WarID,
		POIPublicID:  record.POIID,
		PlayerID:     record.PlayerID,
		FactionID:    record.FactionID,
		LastActionAt: record.LastActionAt.UTC(),
	}, "war_public_id", "poi_public_id", "player_id")
	if err != nil {
		return fmt.Errorf("build upsert presence query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert presence war=%s poi=%s player=%s: %w", record.WarID, record.POIID, record.PlayerID, err)
	}
	return nil
}

func (r *PresenceRepository) Get(ctx context.Context, warID, poiID, playerID string) (presence.Record, bool, error) {
	query, args, err := qb.Select(presenceColumns...).From("war_presence").
		Where(
			qb.Eq("war_public_id", warID),
			qb.Eq("poi_public_id", poiID),
			qb.Eq("player_id", playerID),
		).
		ToSQL()
	if err != nil {
		return presence.Record{}, false, fmt.Errorf("build get presence query: %w", err)
	}

	var row presenceTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return presence.Record{}, false, nil
		}
		return presence.Record{}, false, fmt.Errorf("get presence: %w", err)
	}
	return row.toDomain(), true, nil
}

func (r *PresenceRepository) Delete(ctx context.Context, warID, poiID, playerID string) (bool, error) {
	query, args, err := qb.DeleteFrom("war_presence").
		Where(
			qb.Eq("war_public_id", warID),
			qb.Eq("poi_public_id", poiID),
			qb.Eq("player_id", playerID),
		).
		ToSQL()
	if err != nil {
		return false, fmt.Errorf("build delete presence query: %w", err)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("delete presence: %w", err)
	}
	n, err := affected(result, "delete presence")
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *PresenceRepository) ListByPOI(ctx context.Context, warID, poiID string) ([]presence.Record, error) {
	return r.list(ctx, qb.Eq("war_public_id", warID), qb.Eq("poi_public_id", poiID))
}

func (r *PresenceRepository) ListByPlayer(ctx context.Context, warID, playerID string) ([]presence.Record, error) {
	return r.list(ctx, qb.Eq("war_public_id", warID), qb.Eq("player_id", playerID))
}

func (r *PresenceRepository) list(ctx context.Context, conditions ...qb.Condition) ([]presence.Record, error) {
	query, args, err := qb.Select(presenceColumns...).From("war_presence").
		Where(conditions...).
		OrderBy("last_action_at DESC", "player_id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list presence query: %w", err)
	}

	var rows []presenceTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select presence: %w", err)
	}
	return presenceRecords(rows), nil
}

func (r *PresenceRepository) DeleteStale(ctx context.Context, warID string, cutoff time.Time) ([]presence.Record, error) {
	query, args, err := qb.DeleteFrom("war_presence").
		Where(
			qb.Eq("war_public_id", warID),
			qb.Lt("last_action_at", cutoff.UTC()),
		).
		Suffix("RETURNING " + strings.Join(presenceColumns, ", ")).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build delete stale presence query: %w", err)
	}

	var rows []presenceTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("delete stale presence war=%s: %w", warID, err)
	}
	return presenceRecords(rows), nil
}

func (r *PresenceRepository) DeleteByWar(ctx context.Context, warID string) error {
	query, args, err := qb.DeleteFrom("war_presence").
		Where(qb.Eq("war_public_id", warID)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build delete war presence query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("delete presence for war=%s: %w", warID, err)
	}
	return nil
}

func presenceRecords(rows []presenceTableModel) []presence.Record {
	out := make([]presence.Record, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out
}
