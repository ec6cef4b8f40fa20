package usecase

import (
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riskibarqy/turf-war/internal/domain/territory"
	"github.com/riskibarqy/turf-war/internal/domain/warevent"
	"github.com/riskibarqy/turf-war/internal/infrastructure/repository/memory"
)

func TestCaptureService_FullCaptureAwardsStrategicValue(t *testing.T) {
	f := newWarFixture(t)
	ctx := t.Context()

	f.enter(t, poiDocks, redBoss)
	result, err := f.capture.StartCapture(ctx, testWarID, poiDocks, redBoss)
	require.NoError(t, err)
	assert.Equal(t, territory.StateCapturing, result.State)
	assert.Equal(t, 0, result.ProgressPercent)
	assert.Equal(t, 90, f.resources.Balance(redBoss, territory.ResourceStamina))

	f.clock.Advance(5 * time.Minute)
	tick, err := f.tick.RunTick(ctx, "test")
	require.NoError(t, err)
	assert.Equal(t, 1, tick.Advanced)
	assert.Equal(t, 0, tick.Completed)
	assert.Equal(t, 50, f.control(t, poiDocks).ProgressPercent)

	f.clock.Advance(5 * time.Minute)
	tick, err = f.tick.RunTick(ctx, "test")
	require.NoError(t, err)
	assert.Equal(t, 1, tick.Completed)
	assert.Equal(t, 0, tick.Failed)

	c := f.control(t, poiDocks)
	assert.Equal(t, territory.StateControlled, c.State())
	assert.Equal(t, memory.FactionIDRedHand, c.ControllingFactionID)
	assert.Empty(t, c.AttemptID)
	assert.EqualValues(t, 300, c.PointsGeneratedSinceCapture)

	session := f.war(t)
	assert.EqualValues(t, 300, session.AttackerPoints)
	assert.EqualValues(t, 0, session.DefenderPoints)

	board, err := f.warSvc.Scoreboard(ctx, testWarID)
	require.NoError(t, err)
	require.Len(t, board.Factions, 1)
	assert.Equal(t, 1, board.Factions[0].POIsCaptured)
	assert.EqualValues(t, 300, board.Factions[0].WarPoints)
	require.Len(t, board.Members, 1)
	assert.Equal(t, redBoss, board.Members[0].PlayerID)
	assert.Equal(t, 1, board.Members[0].Captures)

	assert.Equal(t, []warevent.Type{warevent.TypeCaptureStarted, warevent.TypeCaptureCompleted}, f.eventTypes(t))
	assert.Equal(t, []warevent.Type{warevent.TypeCaptureStarted, warevent.TypeCaptureCompleted}, f.feed.Types())
}

func TestCaptureService_InfiltratorCapturesFaster(t *testing.T) {
	f := newWarFixture(t)
	ctx := t.Context()

	f.enter(t, poiDocks, redGhost)
	result, err := f.capture.StartCapture(ctx, testWarID, poiDocks, redGhost)
	require.NoError(t, err)
	assert.InDelta(t, 7.0, result.Control.AdjustedCaptureMinutes, 0.0001)

	f.clock.Advance(7 * time.Minute)
	tick, err := f.tick.RunTick(ctx, "test")
	require.NoError(t, err)
	assert.Equal(t, 1, tick.Completed)
	assert.Equal(t, memory.FactionIDRedHand, f.control(t, poiDocks).ControllingFactionID)
}

func TestCaptureService_ContestFreezesProgress(t *testing.T) {
	cases := []struct {
		name    string
		elapsed time.Duration
		want    int
	}{
		{name: "halfway", elapsed: 5 * time.Minute, want: 50},
		{name: "thirty percent", elapsed: 3 * time.Minute, want: 30},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newWarFixture(t)
			ctx := t.Context()

			f.enter(t, poiDocks, redBoss)
			_, err := f.capture.StartCapture(ctx, testWarID, poiDocks, redBoss)
			require.NoError(t, err)

			f.clock.Advance(tc.elapsed)
			f.enter(t, poiDocks, blueBoss)
			contested, err := f.capture.Contest(ctx, testWarID, poiDocks, blueBoss)
			require.NoError(t, err)
			assert.Equal(t, territory.StateContested, contested.State)
			assert.Equal(t, tc.want, contested.ProgressPercent)

			f.clock.Advance(4 * time.Minute)
			tick, err := f.tick.RunTick(ctx, "test")
			require.NoError(t, err)
			assert.Equal(t, 0, tick.Completed)

			c := f.control(t, poiDocks)
			assert.True(t, c.IsContested)
			assert.Equal(t, tc.want, c.ProgressAt(f.clock.Now()))
			assert.Empty(t, c.ControllingFactionID)
		})
	}
}

func TestCaptureService_LookoutContestsCheaper(t *testing.T) {
	f := newWarFixture(t)
	ctx := t.Context()

	f.enter(t, poiDocks, redBoss)
	_, err := f.capture.StartCapture(ctx, testWarID, poiDocks, redBoss)
	require.NoError(t, err)

	f.enter(t, poiDocks, blueEyes)
	_, err = f.capture.Contest(ctx, testWarID, poiDocks, blueEyes)
	require.NoError(t, err)
	assert.Equal(t, 97, f.resources.Balance(blueEyes, territory.ResourceStamina))
}

func TestCaptureService_RejectionsCarryCodeAndPOIName(t *testing.T) {
	f := newWarFixture(t)
	ctx := t.Context()

	f.enter(t, poiDocks, redBoss)
	f.enter(t, poiDocks, redMuscle)
	f.enter(t, poiDocks, blueBoss)
	f.enter(t, poiWarehouse, blueBoss)

	_, err := f.capture.StartCapture(ctx, testWarID, poiWarehouse, blueBoss)
	requireCode(t, err, "AlreadyControlled")
	assert.Contains(t, err.Error(), "Warehouse 9")

	_, err = f.capture.Contest(ctx, testWarID, poiDocks, blueBoss)
	requireCode(t, err, "NothingToContest")

	_, err = f.capture.StartCapture(ctx, testWarID, poiDocks, redBoss)
	require.NoError(t, err)

	_, err = f.capture.StartCapture(ctx, testWarID, poiDocks, redMuscle)
	requireCode(t, err, "AlreadyCapturingThisFaction")

	_, err = f.capture.StartCapture(ctx, testWarID, poiDocks, blueBoss)
	requireCode(t, err, "EnemyCapturingMustBeContested")
	var actionErr *territory.ActionError
	require.True(t, errors.As(err, &actionErr))
	assert.Equal(t, territory.StateContested, actionErr.RequiredState)
	assert.Equal(t, "Old Docks", actionErr.POIName)

	_, err = f.capture.Contest(ctx, testWarID, poiDocks, redMuscle)
	requireCode(t, err, "NothingToContest")

	_, err = f.capture.Contest(ctx, testWarID, poiDocks, blueBoss)
	require.NoError(t, err)

	_, err = f.capture.Contest(ctx, testWarID, poiDocks, blueBoss)
	requireCode(t, err, "AlreadyContested")

	_, err = f.capture.StartCapture(ctx, testWarID, poiDocks, blueBoss)
	requireCode(t, err, "CaptureContested")

	_, err = f.capture.Defend(ctx, testWarID, poiDocks, blueBoss)
	requireCode(t, err, "NotYourPoi")
}

func TestCaptureService_MembershipAndScopeChecks(t *testing.T) {
	f := newWarFixture(t)
	ctx := t.Context()

	_, err := f.capture.StartCapture(ctx, testWarID, poiDocks, outsider)
	requireCode(t, err, "NotInWar")
	kind, ok := territory.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, territory.KindAuthorization, kind)

	_, err = f.capture.StartCapture(ctx, testWarID, "poi-oldtown-club", redBoss)
	requireCode(t, err, "PoiNotInWar")

	_, err = f.capture.StartCapture(ctx, testWarID, "poi-missing", redBoss)
	requireCode(t, err, "PoiNotInWar")

	_, err = f.capture.StartCapture(ctx, "war-missing", poiDocks, redBoss)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.capture.StartCapture(ctx, testWarID, "  ", redBoss)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestCaptureService_RequiresFreshPresence(t *testing.T) {
	f := newWarFixture(t)
	ctx := t.Context()

	_, err := f.capture.StartCapture(ctx, testWarID, poiDocks, redBoss)
	requireCode(t, err, "NotPresent")

	f.enter(t, poiDocks, redBoss)
	f.clock.Advance(5*time.Minute + time.Second)
	_, err = f.capture.StartCapture(ctx, testWarID, poiDocks, redBoss)
	requireCode(t, err, "NotPresent")

	f.enter(t, poiDocks, redBoss)
	f.clock.Advance(5 * time.Minute)
	_, err = f.capture.StartCapture(ctx, testWarID, poiDocks, redBoss)
	require.NoError(t, err)

	rec, exists, err := f.presence.Get(ctx, testWarID, poiDocks, redBoss)
	require.NoError(t, err)
	require.True(t, exists)
	assert.True(t, rec.LastActionAt.Equal(f.clock.Now()), "action refreshes presence")
}

func TestCaptureService_InsufficientResourceWritesNothing(t *testing.T) {
	f := newWarFixture(t)
	ctx := t.Context()

	f.resources.SetBalance(redBoss, territory.ResourceStamina, 5)
	f.enter(t, poiDocks, redBoss)

	_, err := f.capture.StartCapture(ctx, testWarID, poiDocks, redBoss)
	requireCode(t, err, "InsufficientResource")
	kind, _ := territory.KindOf(err)
	assert.Equal(t, territory.KindResource, kind)

	assert.Equal(t, territory.StateNeutral, f.control(t, poiDocks).State())
	assert.Equal(t, 5, f.resources.Balance(redBoss, territory.ResourceStamina))
	assert.Empty(t, f.eventTypes(t))
	assert.Empty(t, f.feed.Types())
}

func TestCaptureService_DefendDebitsAllOrNothing(t *testing.T) {
	f := newWarFixture(t)
	ctx := t.Context()

	f.enter(t, poiWarehouse, redBoss)
	_, err := f.capture.StartCapture(ctx, testWarID, poiWarehouse, redBoss)
	require.NoError(t, err)

	f.resources.SetBalance(blueBoss, territory.ResourceFocus, 2)
	f.enter(t, poiWarehouse, blueBoss)
	_, err = f.capture.Defend(ctx, testWarID, poiWarehouse, blueBoss)
	requireCode(t, err, "InsufficientResource")

	assert.Equal(t, 100, f.resources.Balance(blueBoss, territory.ResourceStamina))
	assert.Equal(t, 2, f.resources.Balance(blueBoss, territory.ResourceFocus))
	assert.Equal(t, territory.StateCapturing, f.control(t, poiWarehouse).State())
}

func TestCaptureService_DefendSuccessRestoresControl(t *testing.T) {
	f := newWarFixture(t)
	ctx := t.Context()

	var chances []float64
	f.capture.SetRoller(RollerFunc(func(chance float64) bool {
		chances = append(chances, chance)
		return true
	}))

	f.enter(t, poiWarehouse, blueBoss)
	_, err := f.capture.Defend(ctx, testWarID, poiWarehouse, blueBoss)
	requireCode(t, err, "NothingToDefend")

	f.enter(t, poiWarehouse, redBoss)
	_, err = f.capture.StartCapture(ctx, testWarID, poiWarehouse, redBoss)
	require.NoError(t, err)

	f.clock.Advance(2 * time.Minute)
	result, err := f.capture.Defend(ctx, testWarID, poiWarehouse, blueBoss)
	require.NoError(t, err)
	assert.True(t, result.DefenseSucceeded)
	assert.Equal(t, territory.StateControlled, result.State)
	assert.Equal(t, []float64{0.6}, chances)

	c := f.control(t, poiWarehouse)
	assert.Equal(t, memory.FactionIDBlueLotus, c.ControllingFactionID)
	assert.False(t, c.HasCapture())
	assert.EqualValues(t, 25, c.PointsGeneratedSinceCapture)

	session := f.war(t)
	assert.EqualValues(t, 25, session.DefenderPoints)
	assert.Equal(t, 92, f.resources.Balance(blueBoss, territory.ResourceStamina))
	assert.Equal(t, 95, f.resources.Balance(blueBoss, territory.ResourceFocus))

	board, err := f.warSvc.Scoreboard(ctx, testWarID)
	require.NoError(t, err)
	require.Len(t, board.Factions, 1)
	assert.Equal(t, 1, board.Factions[0].DefensesWon)

	assert.Equal(t, []warevent.Type{warevent.TypeCaptureStarted, warevent.TypeDefendSuccess}, f.eventTypes(t))
}

func TestCaptureService_DefendFailureKeepsAttackRunning(t *testing.T) {
	f := newWarFixture(t)
	ctx := t.Context()
	f.capture.SetRoller(RollerFunc(func(float64) bool { return false }))

	f.enter(t, poiWarehouse, redBoss)
	_, err := f.capture.StartCapture(ctx, testWarID, poiWarehouse, redBoss)
	require.NoError(t, err)

	f.enter(t, poiWarehouse, blueBoss)
	result, err := f.capture.Defend(ctx, testWarID, poiWarehouse, blueBoss)
	require.NoError(t, err)
	assert.False(t, result.DefenseSucceeded)
	assert.Equal(t, territory.StateCapturing, result.State)

	assert.Equal(t, 92, f.resources.Balance(blueBoss, territory.ResourceStamina))
	assert.EqualValues(t, 0, f.war(t).DefenderPoints)
	assert.Equal(t, []warevent.Type{warevent.TypeCaptureStarted, warevent.TypeDefendFailed}, f.eventTypes(t))

	f.clock.Advance(8 * time.Minute)
	tick, err := f.tick.RunTick(ctx, "test")
	require.NoError(t, err)
	assert.Equal(t, 1, tick.Completed)
	assert.Equal(t, memory.FactionIDRedHand, f.control(t, poiWarehouse).ControllingFactionID)
	assert.EqualValues(t, 200, f.war(t).AttackerPoints)
}

func TestCaptureService_CompleteIsIdempotent(t *testing.T) {
	f := newWarFixture(t)
	ctx := t.Context()

	f.enter(t, poiCorner, redBoss)
	_, err := f.capture.StartCapture(ctx, testWarID, poiCorner, redBoss)
	require.NoError(t, err)
	f.clock.Advance(5 * time.Minute)

	point := memory.SeedPOIs()[2]
	require.Equal(t, poiCorner, point.ID)

	completed, err := f.capture.complete(ctx, f.session, point)
	require.NoError(t, err)
	assert.True(t, completed)

	completed, err = f.capture.complete(ctx, f.session, point)
	require.NoError(t, err)
	assert.False(t, completed)

	tick, err := f.tick.RunTick(ctx, "test")
	require.NoError(t, err)
	assert.Equal(t, 0, tick.Completed)

	assert.EqualValues(t, 100, f.war(t).AttackerPoints)
	completions := 0
	for _, typ := range f.eventTypes(t) {
		if typ == warevent.TypeCaptureCompleted {
			completions++
		}
	}
	assert.Equal(t, 1, completions)
}

func TestCaptureService_ConcurrentStartsAdmitOne(t *testing.T) {
	f := newWarFixture(t)
	ctx := t.Context()

	players := []string{redBoss, redMuscle, redGhost, blueBoss, blueEyes, blueRun}
	for _, p := range players {
		f.enter(t, poiDocks, p)
	}

	var wg sync.WaitGroup
	errs := make([]error, len(players))
	for i, p := range players {
		wg.Add(1)
		go func(i int, playerID string) {
			defer wg.Done()
			_, errs[i] = f.capture.StartCapture(ctx, testWarID, poiDocks, playerID)
		}(i, p)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		code := territory.CodeOf(err)
		assert.True(t, code == "AlreadyCapturingThisFaction" || code == "EnemyCapturingMustBeContested", "unexpected code %q", code)
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, []warevent.Type{warevent.TypeCaptureStarted}, f.eventTypes(t))
}

func TestCaptureService_EndedWarRejectsActions(t *testing.T) {
	f := newWarFixture(t)
	ctx := t.Context()

	f.enter(t, poiDocks, redBoss)
	_, err := f.warSvc.EndWar(ctx, testWarID)
	require.NoError(t, err)

	_, err = f.capture.StartCapture(ctx, testWarID, poiDocks, redBoss)
	requireCode(t, err, "WarNotActive")
	assert.True(t, strings.Contains(err.Error(), "war is not active"))
}

func TestCaptureService_GetStatusWithoutPresence(t *testing.T) {
	f := newWarFixture(t)
	ctx := t.Context()

	f.enter(t, poiDocks, redBoss)
	_, err := f.capture.StartCapture(ctx, testWarID, poiDocks, redBoss)
	require.NoError(t, err)
	f.clock.Advance(4 * time.Minute)

	status, err := f.capture.GetStatus(ctx, testWarID, blueRun)
	require.NoError(t, err)
	assert.Equal(t, memory.FactionIDBlueLotus, status.FactionID)
	require.Len(t, status.POIs, 3)

	byID := make(map[string]POIStatus, len(status.POIs))
	for _, s := range status.POIs {
		byID[s.POIID] = s
	}
	docks := byID[poiDocks]
	assert.Equal(t, territory.StateCapturing, docks.State)
	assert.Equal(t, 40, docks.ProgressPercent)
	assert.False(t, docks.Present)
	assert.Equal(t, LegalActions{Enter: true}, docks.Actions)
	assert.Equal(t, memory.FactionIDBlueLotus, byID[poiWarehouse].ControllingFactionID)

	f.enter(t, poiDocks, blueRun)
	status, err = f.capture.GetStatus(ctx, testWarID, blueRun)
	require.NoError(t, err)
	for _, s := range status.POIs {
		if s.POIID != poiDocks {
			continue
		}
		assert.True(t, s.Present)
		assert.Equal(t, LegalActions{Enter: true, Leave: true, Contest: true}, s.Actions)
	}

	_, err = f.capture.GetStatus(ctx, testWarID, outsider)
	requireCode(t, err, "NotInWar")
}
