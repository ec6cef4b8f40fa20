package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/riskibarqy/turf-war/internal/domain/crew"
)

type CrewRepository struct {
	mu    sync.RWMutex
	items map[string]crew.Membership
}

func NewCrewRepository(members []crew.Membership) *CrewRepository {
	items := make(map[string]crew.Membership, len(members))
	for _, m := range members {
		items[m.PlayerID] = m
	}
	return &CrewRepository{items: items}
}

func (r *CrewRepository) GetByPlayer(_ context.Context, playerID string) (crew.Membership, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.items[playerID]
	return m, ok, nil
}

func (r *CrewRepository) Upsert(_ context.Context, membership crew.Membership) error {
	if err := membership.Validate(); err != nil {
		return fmt.Errorf("validate membership: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.items[membership.PlayerID] = membership
	return nil
}
