package war

import (
	"context"
	"time"
)

// Repository describes war session persistence needs from use cases.
// Point columns are written by territory.Tx.ApplyAward, never through here.
type Repository interface {
	Create(ctx context.Context, session Session) error
	GetByID(ctx context.Context, warID string) (Session, bool, error)
	ListActive(ctx context.Context) ([]Session, error)
	MarkEnded(ctx context.Context, warID string, endedAt time.Time) (bool, error)
}
