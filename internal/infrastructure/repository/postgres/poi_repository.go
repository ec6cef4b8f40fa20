package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/riskibarqy/turf-war/internal/domain/poi"
	qb "github.com/riskibarqy/turf-war/internal/platform/querybuilder"
)

type POIRepository struct {
	db *sqlx.DB
}

func NewPOIRepository(db *sqlx.DB) *POIRepository {
	return &POIRepository{db: db}
}

func (r *POIRepository) GetByID(ctx context.Context, poiID string) (poi.PointOfInterest, bool, error) {
	query, args, err := qb.Select(qb.ColumnsOf(poiTableModel{})...).From("points_of_interest").
		Where(
			qb.Eq("public_id", poiID),
			qb.IsNull("deleted_at"),
		).
		ToSQL()
	if err != nil {
		return poi.PointOfInterest{}, false, fmt.Errorf("build get poi query: %w", err)
	}

	var row poiTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return poi.PointOfInterest{}, false, nil
		}
		return poi.PointOfInterest{}, false, fmt.Errorf("get poi=%s: %w", poiID, err)
	}
	return row.toDomain(), true, nil
}

func (r *POIRepository) ListByDistrict(ctx context.Context, districtID string) ([]poi.PointOfInterest, error) {
	query, args, err := qb.Select(qb.ColumnsOf(poiTableModel{})...).From("points_of_interest").
		Where(
			qb.Eq("district_public_id", districtID),
			qb.IsNull("deleted_at"),
		).
		OrderBy("strategic_value DESC", "public_id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list district pois query: %w", err)
	}

	var rows []poiTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select pois for district=%s: %w", districtID, err)
	}

	out := make([]poi.PointOfInterest, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}
