package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/riskibarqy/turf-war/internal/domain/war"
	qb "github.com/riskibarqy/turf-war/internal/platform/querybuilder"
)

type WarRepository struct {
	db *sqlx.DB
}

func NewWarRepository(db *sqlx.DB) *WarRepository {
	return &WarRepository{db: db}
}

func (r *WarRepository) Create(ctx context.Context, session war.Session) error {
	model := warTableModel{
		PublicID:          session.ID,
		DistrictID:        session.DistrictID,
		AttackerFactionID: session.AttackerFactionID,
		DefenderFactionID: session.DefenderFactionID,
		Status:            string(session.Status),
		StartedAt:         session.StartedAt.UTC(),
		EndedAt:           utcPtr(session.EndedAt),
	}
	query, args, err := qb.InsertModel("wars", model, "")
	if err != nil {
		return fmt.Errorf("build insert war query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("war=%s already exists: %w", session.ID, err)
		}
		return fmt.Errorf("insert war=%s: %w", session.ID, err)
	}
	return nil
}

func (r *WarRepository) GetByID(ctx context.Context, warID string) (war.Session, bool, error) {
	query, args, err := qb.Select(qb.ColumnsOf(warTableModel{})...).From("wars").
		Where(qb.Eq("public_id", warID)).
		ToSQL()
	if err != nil {
		return war.Session{}, false, fmt.Errorf("build get war query: %w", err)
	}

	var row warTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return war.Session{}, false, nil
		}
		return war.Session{}, false, fmt.Errorf("get war=%s: %w", warID, err)
	}
	return row.toDomain(), true, nil
}

func (r *WarRepository) ListActive(ctx context.Context) ([]war.Session, error) {
	query, args, err := qb.Select(qb.ColumnsOf(warTableModel{})...).From("wars").
		Where(qb.Eq("status", string(war.StatusActive))).
		OrderBy("started_at", "public_id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list active wars query: %w", err)
	}

	var rows []warTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select active wars: %w", err)
	}

	out := make([]war.Session, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func (r *WarRepository) MarkEnded(ctx context.Context, warID string, endedAt time.Time) (bool, error) {
	query, args, err := qb.Update("wars").
		Set("status", string(war.StatusEnded)).
		Set("ended_at", endedAt.UTC()).
		SetExpr("updated_at", "NOW()").
		Where(
			qb.Eq("public_id", warID),
			qb.Eq("status", string(war.StatusActive)),
		).
		ToSQL()
	if err != nil {
		return false, fmt.Errorf("build end war query: %w", err)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("end war=%s: %w", warID, err)
	}
	n, err := affected(result, "end war")
	if err != nil {
		return false, err
	}
	return n == 1, nil
}
