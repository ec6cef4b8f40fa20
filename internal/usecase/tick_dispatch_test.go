package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/riskibarqy/turf-war/internal/domain/crew"
	"github.com/riskibarqy/turf-war/internal/domain/jobscheduler"
	"github.com/riskibarqy/turf-war/internal/domain/territory"
	"github.com/riskibarqy/turf-war/internal/domain/war"
	crewmock "github.com/riskibarqy/turf-war/internal/mocks/domain/crew"
	jobschedulermock "github.com/riskibarqy/turf-war/internal/mocks/domain/jobscheduler"
	warmock "github.com/riskibarqy/turf-war/internal/mocks/domain/war"
	"github.com/riskibarqy/turf-war/internal/platform/logging"
)

func dispatchWithStatus(status jobscheduler.DispatchStatus) any {
	return mock.MatchedBy(func(event jobscheduler.DispatchEvent) bool {
		return event.Status == status && event.JobName == jobscheduler.JobWarTick
	})
}

func TestTickProcessor_RecordsDispatchLifecycle(t *testing.T) {
	ctx := context.Background()
	wars := warmock.NewRepository(t)
	dispatch := jobschedulermock.NewRepository(t)

	wars.On("ListActive", mock.Anything).Return([]war.Session{}, nil).Once()
	sent := dispatch.On("UpsertEvent", mock.Anything, dispatchWithStatus(jobscheduler.StatusSent)).Return(nil).Once()
	dispatch.On("UpsertEvent", mock.Anything, dispatchWithStatus(jobscheduler.StatusCompleted)).Return(nil).Once().NotBefore(sent)

	processor := NewTickProcessor(wars, nil, nil, nil, nil, dispatch, TickConfig{}, logging.NewNop())
	processor.now = func() time.Time { return time.Date(2026, 3, 14, 9, 30, 42, 0, time.UTC) }

	result, err := processor.RunTick(ctx, TickTriggerScheduler)
	require.NoError(t, err)
	assert.Equal(t, "war_tick-scheduler-20260314T093042Z", result.DispatchID)
	assert.Zero(t, result.Wars)
}

func TestTickProcessor_RecordsFailedDispatch(t *testing.T) {
	ctx := context.Background()
	wars := warmock.NewRepository(t)
	dispatch := jobschedulermock.NewRepository(t)

	wars.On("ListActive", mock.Anything).Return(nil, errors.New("ledger offline")).Once()
	dispatch.On("UpsertEvent", mock.Anything, dispatchWithStatus(jobscheduler.StatusSent)).Return(nil).Once()
	dispatch.On("UpsertEvent", mock.Anything, mock.MatchedBy(func(event jobscheduler.DispatchEvent) bool {
		return event.Status == jobscheduler.StatusFailed && event.ErrorMessage != ""
	})).Return(nil).Once()

	processor := NewTickProcessor(wars, nil, nil, nil, nil, dispatch, TickConfig{}, logging.NewNop())
	_, err := processor.RunTick(ctx, "manual")
	if err == nil {
		t.Fatalf("expected list failure to surface")
	}
	assert.Contains(t, err.Error(), "ledger offline")
}

func TestTickProcessor_DispatchWriteFailureDoesNotFailTick(t *testing.T) {
	wars := warmock.NewRepository(t)
	dispatch := jobschedulermock.NewRepository(t)

	wars.On("ListActive", mock.Anything).Return([]war.Session{}, nil).Once()
	dispatch.On("UpsertEvent", mock.Anything, mock.Anything).Return(errors.New("dispatch table locked")).Twice()

	processor := NewTickProcessor(wars, nil, nil, nil, nil, dispatch, TickConfig{}, logging.NewNop())
	if _, err := processor.RunTick(context.Background(), TickTriggerScheduler); err != nil {
		t.Fatalf("dispatch bookkeeping must not fail the tick: %v", err)
	}
}

func TestCrewDirectory_WithMockedRepositories(t *testing.T) {
	session := war.Session{
		ID:                "war-1",
		DistrictID:        "district-1",
		AttackerFactionID: "red",
		DefenderFactionID: "blue",
		Status:            war.StatusActive,
	}

	t.Run("unknown player is not in war", func(t *testing.T) {
		wars := warmock.NewRepository(t)
		crews := crewmock.NewRepository(t)
		wars.On("GetByID", mock.Anything, "war-1").Return(session, true, nil).Once()
		crews.On("GetByPlayer", mock.Anything, "ghost").Return(crew.Membership{}, false, nil).Once()

		_, _, err := NewCrewDirectory(crews, wars).GetFactionAndRole(context.Background(), "ghost", "war-1")
		assert.Equal(t, "NotInWar", territory.CodeOf(err))
	})

	t.Run("faction outside the war", func(t *testing.T) {
		wars := warmock.NewRepository(t)
		crews := crewmock.NewRepository(t)
		wars.On("GetByID", mock.Anything, "war-1").Return(session, true, nil).Once()
		crews.On("GetByPlayer", mock.Anything, "p-green").
			Return(crew.Membership{PlayerID: "p-green", FactionID: "green", Role: crew.RoleMember}, true, nil).Once()

		_, _, err := NewCrewDirectory(crews, wars).GetFactionAndRole(context.Background(), "p-green", "war-1")
		kind, ok := territory.KindOf(err)
		require.True(t, ok)
		assert.Equal(t, territory.KindAuthorization, kind)
	})

	t.Run("roster failure is wrapped", func(t *testing.T) {
		wars := warmock.NewRepository(t)
		crews := crewmock.NewRepository(t)
		rosterErr := errors.New("roster offline")
		wars.On("GetByID", mock.Anything, "war-1").Return(session, true, nil).Once()
		crews.On("GetByPlayer", mock.Anything, "p-red").Return(crew.Membership{}, false, rosterErr).Once()

		_, _, err := NewCrewDirectory(crews, wars).GetFactionAndRole(context.Background(), "p-red", "war-1")
		require.ErrorIs(t, err, rosterErr)
		_, isAction := territory.KindOf(err)
		assert.False(t, isAction)
	})

	t.Run("member of defending faction", func(t *testing.T) {
		wars := warmock.NewRepository(t)
		crews := crewmock.NewRepository(t)
		wars.On("GetByID", mock.Anything, "war-1").Return(session, true, nil).Once()
		crews.On("GetByPlayer", mock.Anything, "p-blue").
			Return(crew.Membership{PlayerID: "p-blue", FactionID: "blue", Role: crew.RoleEnforcer}, true, nil).Once()

		faction, role, err := NewCrewDirectory(crews, wars).GetFactionAndRole(context.Background(), "p-blue", "war-1")
		require.NoError(t, err)
		assert.Equal(t, "blue", faction)
		assert.Equal(t, crew.RoleEnforcer, role)
	})
}
