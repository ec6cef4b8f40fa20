package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/riskibarqy/turf-war/internal/domain/warevent"
	"github.com/riskibarqy/turf-war/internal/domain/warstats"
	qb "github.com/riskibarqy/turf-war/internal/platform/querybuilder"
)

type EventRepository struct {
	db *sqlx.DB
}

func NewEventRepository(db *sqlx.DB) *EventRepository {
	return &EventRepository{db: db}
}

func (r *EventRepository) ListByWar(ctx context.Context, warID string, limit int) ([]warevent.Event, error) {
	query, args, err := qb.Select(qb.ColumnsOf(warEventTableModel{})...).From("war_events").
		Where(qb.Eq("war_public_id", warID)).
		OrderBy("occurred_at DESC", "id DESC").
		Limit(limit).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list war events query: %w", err)
	}

	var rows []warEventTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select war events war=%s: %w", warID, err)
	}

	out := make([]warevent.Event, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func (r *EventRepository) Append(ctx context.Context, event warevent.Event) error {
	_, err := insertWarEvent(ctx, r.db, event)
	return err
}

type StatsRepository struct {
	db *sqlx.DB
}

func NewStatsRepository(db *sqlx.DB) *StatsRepository {
	return &StatsRepository{db: db}
}

func (r *StatsRepository) ListFactionStats(ctx context.Context, warID string) ([]warstats.FactionStats, error) {
	query, args, err := qb.Select(qb.ColumnsOf(factionStatsTableModel{})...).From("war_faction_stats").
		Where(qb.Eq("war_public_id", warID)).
		OrderBy("war_points DESC", "faction_id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list faction stats query: %w", err)
	}

	var rows []factionStatsTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select faction stats war=%s: %w", warID, err)
	}

	out := make([]warstats.FactionStats, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func (r *StatsRepository) ListMemberStats(ctx context.Context, warID string) ([]warstats.MemberStats, error) {
	query, args, err := qb.Select(qb.ColumnsOf(memberStatsTableModel{})...).From("war_member_stats").
		Where(qb.Eq("war_public_id", warID)).
		OrderBy("war_points DESC", "player_id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list member stats query: %w", err)
	}

	var rows []memberStatsTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select member stats war=%s: %w", warID, err)
	}

	out := make([]warstats.MemberStats, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}
