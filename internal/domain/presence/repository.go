package presence

import (
	"context"
	"time"
)

type Repository interface {
	Upsert(ctx context.Context, record Record) error
	Get(ctx context.Context, warID, poiID, playerID string) (Record, bool, error)
	Delete(ctx context.Context, warID, poiID, playerID string) (bool, error)
	ListByPOI(ctx context.Context, warID, poiID string) ([]Record, error)
	ListByPlayer(ctx context.Context, warID, playerID string) ([]Record, error)
	// DeleteStale removes records last touched before cutoff and returns them.
	DeleteStale(ctx context.Context, warID string, cutoff time.Time) ([]Record, error)
	DeleteByWar(ctx context.Context, warID string) error
}
