package crew

import "context"

type Repository interface {
	GetByPlayer(ctx context.Context, playerID string) (Membership, bool, error)
	Upsert(ctx context.Context, membership Membership) error
}
