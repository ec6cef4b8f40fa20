package memory

import (
	"context"
	"sync"

	"github.com/riskibarqy/turf-war/internal/domain/territory"
)

// ResourcePool is a local stand-in for the stamina/focus system of record.
// Players without an explicit balance start at DefaultBalance.
type ResourcePool struct {
	mu             sync.Mutex
	balances       map[string]int
	DefaultBalance int
}

func NewResourcePool(defaultBalance int) *ResourcePool {
	return &ResourcePool{
		balances:       make(map[string]int),
		DefaultBalance: defaultBalance,
	}
}

func balanceKey(playerID string, kind territory.Resource) string {
	return playerID + "::" + string(kind)
}

func (p *ResourcePool) SetBalance(playerID string, kind territory.Resource, amount int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.balances[balanceKey(playerID, kind)] = amount
}

func (p *ResourcePool) Balance(playerID string, kind territory.Resource) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.balanceLocked(balanceKey(playerID, kind))
}

func (p *ResourcePool) balanceLocked(key string) int {
	if v, ok := p.balances[key]; ok {
		return v
	}
	return p.DefaultBalance
}

func (p *ResourcePool) TryDebit(_ context.Context, playerID string, kind territory.Resource, amount int) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	key := balanceKey(playerID, kind)
	current := p.balanceLocked(key)
	if current < amount {
		return false, nil
	}
	p.balances[key] = current - amount
	return true, nil
}

func (p *ResourcePool) Credit(_ context.Context, playerID string, kind territory.Resource, amount int) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	key := balanceKey(playerID, kind)
	p.balances[key] = p.balanceLocked(key) + amount
	return nil
}
