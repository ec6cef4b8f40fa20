package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/riskibarqy/turf-war/internal/domain/territory"
	"github.com/riskibarqy/turf-war/internal/domain/war"
	"github.com/riskibarqy/turf-war/internal/domain/warevent"
	"github.com/riskibarqy/turf-war/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/turf-war/internal/platform/id"
	"github.com/riskibarqy/turf-war/internal/platform/logging"
)

const (
	testWarID = "war-harbor-1"

	poiDocks     = "poi-harbor-docks"
	poiWarehouse = "poi-harbor-warehouse"
	poiCorner    = "poi-harbor-corner"

	redBoss   = "player-red-boss"
	redMuscle = "player-red-muscle"
	redGhost  = "player-red-ghost"
	blueBoss  = "player-blue-boss"
	blueEyes  = "player-blue-eyes"
	blueRun   = "player-blue-runner"
	outsider  = "player-nobody"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2026, 3, 14, 20, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type recordingFeed struct {
	mu     sync.Mutex
	events []warevent.Event
}

func (f *recordingFeed) Publish(_ context.Context, events ...warevent.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, events...)
	return nil
}

func (f *recordingFeed) Types() []warevent.Type {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]warevent.Type, 0, len(f.events))
	for _, e := range f.events {
		out = append(out, e.Type)
	}
	return out
}

type warFixture struct {
	clock     *testClock
	ledger    *memory.Ledger
	presence  *memory.PresenceRepository
	resources *memory.ResourcePool
	dispatch  *memory.JobDispatchRepository
	feed      *recordingFeed

	capture     *CaptureService
	presenceSvc *PresenceService
	warSvc      *WarService
	tick        *TickProcessor

	session war.Session
}

// newWarFixture opens a harbor war between Red Hand (attacker) and Blue Lotus
// (defender). Blue holds the warehouse; docks and corner start neutral.
func newWarFixture(t *testing.T) *warFixture {
	t.Helper()

	clock := newTestClock()
	ledger := memory.NewLedger()
	pois := memory.NewPOIRepository(memory.SeedPOIs())
	crews := memory.NewCrewRepository(memory.SeedMemberships())
	presenceRepo := memory.NewPresenceRepository()
	resources := memory.NewResourcePool(100)
	dispatch := memory.NewJobDispatchRepository()
	feed := &recordingFeed{}
	logger := logging.NewNop()
	ids := &id.Sequence{Prefix: "id-"}

	scoring := NewScoringEngine(ids, territory.DefaultRules())
	scoring.now = clock.Now

	members := NewCrewDirectory(crews, ledger.Wars())
	capture := NewCaptureService(
		ledger.Wars(),
		pois,
		ledger.Controls(),
		presenceRepo,
		members,
		resources,
		scoring,
		CaptureConfig{Rules: territory.DefaultRules(), LockWait: time.Second},
		logger,
	)
	capture.now = clock.Now
	capture.SetFeedPublisher(feed)
	capture.SetIDGenerator(ids)
	capture.SetRoller(RollerFunc(func(float64) bool { return true }))

	presenceSvc := NewPresenceService(ledger.Wars(), presenceRepo, members, capture, logger)
	presenceSvc.now = clock.Now

	warSvc := NewWarService(ledger.Wars(), pois, ledger.Controls(), presenceRepo, ledger.Events(), ledger.Stats(), logger)
	warSvc.now = clock.Now
	warSvc.SetFeedPublisher(feed)
	warSvc.SetIDGenerator(ids)

	tick := NewTickProcessor(ledger.Wars(), pois, ledger.Controls(), capture, presenceSvc, dispatch, TickConfig{Workers: 4, WarConcurrency: 2}, logger)
	tick.now = clock.Now

	session, err := warSvc.BeginWar(t.Context(), BeginWarInput{
		WarID:             testWarID,
		DistrictID:        memory.DistrictIDHarbor,
		AttackerFactionID: memory.FactionIDRedHand,
		DefenderFactionID: memory.FactionIDBlueLotus,
		InitialControl:    map[string]string{poiWarehouse: memory.FactionIDBlueLotus},
	})
	if err != nil {
		t.Fatalf("begin war: %v", err)
	}

	return &warFixture{
		clock:       clock,
		ledger:      ledger,
		presence:    presenceRepo,
		resources:   resources,
		dispatch:    dispatch,
		feed:        feed,
		capture:     capture,
		presenceSvc: presenceSvc,
		warSvc:      warSvc,
		tick:        tick,
		session:     session,
	}
}

func (f *warFixture) enter(t *testing.T, poiID, playerID string) {
	t.Helper()
	if _, err := f.presenceSvc.Enter(t.Context(), testWarID, poiID, playerID); err != nil {
		t.Fatalf("enter %s at %s: %v", playerID, poiID, err)
	}
}

func (f *warFixture) control(t *testing.T, poiID string) territory.Control {
	t.Helper()
	c, exists, err := f.ledger.Controls().Get(t.Context(), testWarID, poiID)
	if err != nil || !exists {
		t.Fatalf("get control %s: exists=%v err=%v", poiID, exists, err)
	}
	return c
}

func (f *warFixture) war(t *testing.T) war.Session {
	t.Helper()
	s, err := f.warSvc.Get(t.Context(), testWarID)
	if err != nil {
		t.Fatalf("get war: %v", err)
	}
	return s
}

func (f *warFixture) eventTypes(t *testing.T) []warevent.Type {
	t.Helper()
	events, err := f.ledger.Events().ListByWar(t.Context(), testWarID, 100)
	if err != nil {
		t.Fatalf("list events: %v", err)
	}
	out := make([]warevent.Type, 0, len(events))
	for i := len(events) - 1; i >= 0; i-- {
		out = append(out, events[i].Type)
	}
	return out
}

func requireCode(t *testing.T, err error, code string) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s rejection, got nil", code)
	}
	if got := territory.CodeOf(err); got != code {
		t.Fatalf("expected code %s, got %q (%v)", code, got, err)
	}
}
