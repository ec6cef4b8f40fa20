package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/riskibarqy/turf-war/internal/domain/crew"
	qb "github.com/riskibarqy/turf-war/internal/platform/querybuilder"
)

type CrewRepository struct {
	db *sqlx.DB
}

func NewCrewRepository(db *sqlx.DB) *CrewRepository {
	return &CrewRepository{db: db}
}

func (r *CrewRepository) GetByPlayer(ctx context.Context, playerID string) (crew.Membership, bool, error) {
	query, args, err := qb.Select(qb.ColumnsOf(crewMemberTableModel{})...).From("crew_members").
		Where(qb.Eq("player_id", playerID)).
		ToSQL()
	if err != nil {
		return crew.Membership{}, false, fmt.Errorf("build get crew member query: %w", err)
	}

	var row crewMemberTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return crew.Membership{}, false, nil
		}
		return crew.Membership{}, false, fmt.Errorf("get crew member player=%s: %w", playerID, err)
	}
	return row.toDomain(), true, nil
}

func (r *CrewRepository) Upsert(ctx context.Context, membership crew.Membership) error {
	if err := membership.Validate(); err != nil {
		return err
	}

	query, args, err := qb.UpsertModel("crew_members", crewMemberTableModel{
		PlayerID:  membership.PlayerID,
		FactionID: membership.FactionID,
		Role:      string(membership.Role),
	}, "player_id")
	if err != nil {
		return fmt.Errorf("build upsert crew member query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert crew member player=%s: %w", membership.PlayerID, err)
	}
	return nil
}
