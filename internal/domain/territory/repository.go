package territory

import (
	"context"

	"github.com/riskibarqy/turf-war/internal/domain/warevent"
	"github.com/riskibarqy/turf-war/internal/domain/warstats"
)

// Tx is the unit of work handed to a Mutate callback. Nothing becomes visible
// until the callback returns nil.
type Tx interface {
	// SaveControl writes next if the stored version still matches next.Version,
	// otherwise ErrStateChanged. Each successful save bumps the version, so a
	// second save in the same Tx must carry the bumped value.
	SaveControl(ctx context.Context, next Control) error
	// AppendEvent reports false when an event with the same idempotency key
	// already exists.
	AppendEvent(ctx context.Context, event warevent.Event) (bool, error)
	ApplyAward(ctx context.Context, award warstats.Award) error
}

type MutateFunc func(ctx context.Context, current Control, tx Tx) error

type Repository interface {
	ListByWar(ctx context.Context, warID string) ([]Control, error)
	Get(ctx context.Context, warID, poiID string) (Control, bool, error)
	InitializeWar(ctx context.Context, warID string, controls []Control) error
	DeleteByWar(ctx context.Context, warID string) error
	// Mutate loads the record exclusively and runs fn against it. It returns
	// ErrPOINotInWar when the record does not exist.
	Mutate(ctx context.Context, warID, poiID string, fn MutateFunc) error
}
