package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/riskibarqy/turf-war/internal/domain/presence"
)

type PresenceRepository struct {
	mu    sync.RWMutex
	items map[string]presence.Record
}

func NewPresenceRepository() *PresenceRepository {
	return &PresenceRepository{items: make(map[string]presence.Record)}
}

func presenceKey(warID, poiID, playerID string) string {
	return warID + "::" + poiID + "::" + playerID
}

func (r *PresenceRepository) Upsert(_ context.Context, record presence.Record) error {
	if err := record.Validate(); err != nil {
		return fmt.Errorf("validate presence: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.items[presenceKey(record.WarID, record.POIID, record.PlayerID)] = record
	return nil
}

func (r *PresenceRepository) Get(_ context.Context, warID, poiID, playerID string) (presence.Record, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.items[presenceKey(warID, poiID, playerID)]
	return rec, ok, nil
}

func (r *PresenceRepository) Delete(_ context.Context, warID, poiID, playerID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := presenceKey(warID, poiID, playerID)
	if _, ok := r.items[key]; !ok {
		return false, nil
	}
	delete(r.items, key)
	return true, nil
}

func (r *PresenceRepository) ListByPOI(_ context.Context, warID, poiID string) ([]presence.Record, error) {
	return r.filter(func(rec presence.Record) bool {
		return rec.WarID == warID && rec.POIID == poiID
	}), nil
}

func (r *PresenceRepository) ListByPlayer(_ context.Context, warID, playerID string) ([]presence.Record, error) {
	return r.filter(func(rec presence.Record) bool {
		return rec.WarID == warID && rec.PlayerID == playerID
	}), nil
}

func (r *PresenceRepository) DeleteStale(_ context.Context, warID string, cutoff time.Time) ([]presence.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	purged := make([]presence.Record, 0)
	for key, rec := range r.items {
		if rec.WarID == warID && rec.LastActionAt.Before(cutoff) {
			purged = append(purged, rec)
			delete(r.items, key)
		}
	}
	sortRecords(purged)
	return purged, nil
}

func (r *PresenceRepository) DeleteByWar(_ context.Context, warID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for key, rec := range r.items {
		if rec.WarID == warID {
			delete(r.items, key)
		}
	}
	return nil
}

func (r *PresenceRepository) filter(keep func(presence.Record) bool) []presence.Record {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]presence.Record, 0)
	for _, rec := range r.items {
		if keep(rec) {
			out = append(out, rec)
		}
	}
	sortRecords(out)
	return out
}

// sortRecords orders by most recent action so hand-off prefers the freshest member.
func sortRecords(items []presence.Record) {
	sort.Slice(items, func(i, j int) bool {
		if !items[i].LastActionAt.Equal(items[j].LastActionAt) {
			return items[i].LastActionAt.After(items[j].LastActionAt)
		}
		return items[i].PlayerID < items[j].PlayerID
	})
}
