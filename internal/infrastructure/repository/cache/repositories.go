package cache

import (
	"context"
	"time"

	"github.com/riskibarqy/turf-war/internal/domain/crew"
	"github.com/riskibarqy/turf-war/internal/domain/poi"
	basecache "github.com/riskibarqy/turf-war/internal/platform/cache"
)

type lookup[V any] struct {
	value  V
	exists bool
}

// POIRepository caches the POI catalogue, which only changes through
// migrations.
type POIRepository struct {
	next       poi.Repository
	byID       *basecache.Store[lookup[poi.PointOfInterest]]
	byDistrict *basecache.Store[[]poi.PointOfInterest]
}

func NewPOIRepository(next poi.Repository, ttl time.Duration) *POIRepository {
	return &POIRepository{
		next:       next,
		byID:       basecache.NewStore[lookup[poi.PointOfInterest]](ttl),
		byDistrict: basecache.NewStore[[]poi.PointOfInterest](ttl),
	}
}

func (r *POIRepository) GetByID(ctx context.Context, poiID string) (poi.PointOfInterest, bool, error) {
	cached, err := r.byID.GetOrLoad(ctx, "poi:id:"+poiID, func(ctx context.Context) (lookup[poi.PointOfInterest], error) {
		item, exists, err := r.next.GetByID(ctx, poiID)
		if err != nil {
			return lookup[poi.PointOfInterest]{}, err
		}
		return lookup[poi.PointOfInterest]{value: item, exists: exists}, nil
	})
	if err != nil {
		return poi.PointOfInterest{}, false, err
	}
	return cached.value, cached.exists, nil
}

func (r *POIRepository) ListByDistrict(ctx context.Context, districtID string) ([]poi.PointOfInterest, error) {
	items, err := r.byDistrict.GetOrLoad(ctx, "poi:district:"+districtID, func(ctx context.Context) ([]poi.PointOfInterest, error) {
		items, err := r.next.ListByDistrict(ctx, districtID)
		if err != nil {
			return nil, err
		}
		return append([]poi.PointOfInterest(nil), items...), nil
	})
	if err != nil {
		return nil, err
	}
	return append([]poi.PointOfInterest(nil), items...), nil
}

// CrewRepository caches membership lookups. Upsert writes through and drops
// the cached entry for that player.
type CrewRepository struct {
	next     crew.Repository
	byPlayer *basecache.Store[lookup[crew.Membership]]
}

func NewCrewRepository(next crew.Repository, ttl time.Duration) *CrewRepository {
	return &CrewRepository{
		next:     next,
		byPlayer: basecache.NewStore[lookup[crew.Membership]](ttl),
	}
}

func (r *CrewRepository) GetByPlayer(ctx context.Context, playerID string) (crew.Membership, bool, error) {
	cached, err := r.byPlayer.GetOrLoad(ctx, "crew:player:"+playerID, func(ctx context.Context) (lookup[crew.Membership], error) {
		item, exists, err := r.next.GetByPlayer(ctx, playerID)
		if err != nil {
			return lookup[crew.Membership]{}, err
		}
		return lookup[crew.Membership]{value: item, exists: exists}, nil
	})
	if err != nil {
		return crew.Membership{}, false, err
	}
	return cached.value, cached.exists, nil
}

func (r *CrewRepository) Upsert(ctx context.Context, membership crew.Membership) error {
	if err := r.next.Upsert(ctx, membership); err != nil {
		return err
	}
	r.byPlayer.Delete(ctx, "crew:player:"+membership.PlayerID)
	return nil
}
