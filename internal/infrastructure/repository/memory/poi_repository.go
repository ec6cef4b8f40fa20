package memory

import (
	"context"
	"sync"

	"github.com/riskibarqy/turf-war/internal/domain/poi"
)

type POIRepository struct {
	mu     sync.RWMutex
	items  map[string]poi.PointOfInterest
	orders []string
}

func NewPOIRepository(points []poi.PointOfInterest) *POIRepository {
	items := make(map[string]poi.PointOfInterest, len(points))
	orders := make([]string, 0, len(points))

	for _, p := range points {
		items[p.ID] = p
		orders = append(orders, p.ID)
	}

	return &POIRepository{
		items:  items,
		orders: orders,
	}
}

func (r *POIRepository) GetByID(_ context.Context, poiID string) (poi.PointOfInterest, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.items[poiID]
	if !ok {
		return poi.PointOfInterest{}, false, nil
	}

	return p, true, nil
}

func (r *POIRepository) ListByDistrict(_ context.Context, districtID string) ([]poi.PointOfInterest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]poi.PointOfInterest, 0, len(r.orders))
	for _, id := range r.orders {
		if p := r.items[id]; p.DistrictID == districtID {
			out = append(out, p)
		}
	}

	return out, nil
}
