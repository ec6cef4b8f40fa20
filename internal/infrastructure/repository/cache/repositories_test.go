package cache

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/riskibarqy/turf-war/internal/domain/crew"
	"github.com/riskibarqy/turf-war/internal/domain/poi"
)

type countingPOIRepository struct {
	getCalls  atomic.Int32
	listCalls atomic.Int32
	err       error
}

func (r *countingPOIRepository) GetByID(_ context.Context, poiID string) (poi.PointOfInterest, bool, error) {
	r.getCalls.Add(1)
	if r.err != nil {
		return poi.PointOfInterest{}, false, r.err
	}
	if poiID != "poi-1" {
		return poi.PointOfInterest{}, false, nil
	}
	return poi.PointOfInterest{ID: "poi-1", Name: "Old Docks"}, true, nil
}

func (r *countingPOIRepository) ListByDistrict(_ context.Context, _ string) ([]poi.PointOfInterest, error) {
	r.listCalls.Add(1)
	return []poi.PointOfInterest{{ID: "poi-1"}, {ID: "poi-2"}}, nil
}

func TestPOIRepository_CachesHitsAndMisses(t *testing.T) {
	ctx := context.Background()
	next := &countingPOIRepository{}
	repo := NewPOIRepository(next, time.Minute)

	for i := 0; i < 3; i++ {
		item, ok, err := repo.GetByID(ctx, "poi-1")
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, "Old Docks", item.Name)

		_, ok, err = repo.GetByID(ctx, "poi-missing")
		require.NoError(t, err)
		require.False(t, ok)
	}
	require.EqualValues(t, 2, next.getCalls.Load())
}

func TestPOIRepository_ListReturnsCopies(t *testing.T) {
	ctx := context.Background()
	next := &countingPOIRepository{}
	repo := NewPOIRepository(next, time.Minute)

	first, err := repo.ListByDistrict(ctx, "district-harbor")
	require.NoError(t, err)
	first[0].ID = "mutated"

	second, err := repo.ListByDistrict(ctx, "district-harbor")
	require.NoError(t, err)
	require.Equal(t, "poi-1", second[0].ID)
	require.EqualValues(t, 1, next.listCalls.Load())
}

func TestPOIRepository_ErrorsAreNotCached(t *testing.T) {
	ctx := context.Background()
	next := &countingPOIRepository{err: errors.New("db down")}
	repo := NewPOIRepository(next, time.Minute)

	_, _, err := repo.GetByID(ctx, "poi-1")
	require.Error(t, err)

	next.err = nil
	_, ok, err := repo.GetByID(ctx, "poi-1")
	require.NoError(t, err)
	require.True(t, ok)
	require.EqualValues(t, 2, next.getCalls.Load())
}

type mapCrewRepository struct {
	members map[string]crew.Membership
	gets    int
}

func (r *mapCrewRepository) GetByPlayer(_ context.Context, playerID string) (crew.Membership, bool, error) {
	r.gets++
	m, ok := r.members[playerID]
	return m, ok, nil
}

func (r *mapCrewRepository) Upsert(_ context.Context, membership crew.Membership) error {
	r.members[membership.PlayerID] = membership
	return nil
}

func TestCrewRepository_UpsertInvalidates(t *testing.T) {
	ctx := context.Background()
	next := &mapCrewRepository{members: map[string]crew.Membership{
		"p1": {PlayerID: "p1", FactionID: "crew-a", Role: crew.RoleMember},
	}}
	repo := NewCrewRepository(next, time.Minute)

	m, ok, err := repo.GetByPlayer(ctx, "p1")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, crew.RoleMember, m.Role)

	_, _, _ = repo.GetByPlayer(ctx, "p1")
	require.Equal(t, 1, next.gets)

	require.NoError(t, repo.Upsert(ctx, crew.Membership{PlayerID: "p1", FactionID: "crew-a", Role: crew.RoleEnforcer}))

	m, _, err = repo.GetByPlayer(ctx, "p1")
	require.NoError(t, err)
	require.Equal(t, crew.RoleEnforcer, m.Role)
	require.Equal(t, 2, next.gets)
}
