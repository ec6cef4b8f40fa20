package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/riskibarqy/turf-war/internal/domain/territory"
	"github.com/riskibarqy/turf-war/internal/domain/war"
	"github.com/riskibarqy/turf-war/internal/domain/warevent"
	"github.com/riskibarqy/turf-war/internal/domain/warstats"
)

func newTestLedger(t *testing.T) *Ledger {
	t.Helper()
	ctx := context.Background()
	l := NewLedger()
	session := war.Session{ID: "w1", DistrictID: DistrictIDHarbor, AttackerFactionID: "red", DefenderFactionID: "blue", Status: war.StatusActive}
	if err := l.Wars().Create(ctx, session); err != nil {
		t.Fatalf("create war: %v", err)
	}
	if err := l.Controls().InitializeWar(ctx, "w1", []territory.Control{{WarID: "w1", POIID: "p1"}}); err != nil {
		t.Fatalf("initialize war: %v", err)
	}
	return l
}

func completedEvent(attemptID string) warevent.Event {
	return warevent.Event{ID: "evt-" + attemptID, WarID: "w1", Type: warevent.TypeCaptureCompleted, POIID: "p1", AttemptID: attemptID, OccurredAt: time.Now()}
}

func TestControlRepository_MutateCommitsAtomically(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t)
	award := warstats.Award{WarID: "w1", POIID: "p1", FactionID: "red", PlayerID: "pl", Side: war.SideAttacker, Kind: warstats.AwardCapture, Points: 300}

	err := l.Controls().Mutate(ctx, "w1", "p1", func(ctx context.Context, current territory.Control, tx territory.Tx) error {
		next := current
		next.ControllingFactionID = "red"
		if err := tx.SaveControl(ctx, next); err != nil {
			return err
		}
		if _, err := tx.AppendEvent(ctx, completedEvent("a1")); err != nil {
			return err
		}
		return tx.ApplyAward(ctx, award)
	})
	if err != nil {
		t.Fatalf("mutate: %v", err)
	}

	c, _, _ := l.Controls().Get(ctx, "w1", "p1")
	if c.ControllingFactionID != "red" || c.Version != 2 {
		t.Fatalf("unexpected control after commit: %+v", c)
	}
	s, _, _ := l.Wars().GetByID(ctx, "w1")
	if s.AttackerPoints != 300 || s.DefenderPoints != 0 {
		t.Fatalf("unexpected war points: %+v", s)
	}
	stats, _ := l.Stats().ListFactionStats(ctx, "w1")
	if len(stats) != 1 || stats[0].POIsCaptured != 1 || stats[0].WarPoints != 300 {
		t.Fatalf("unexpected faction stats: %+v", stats)
	}
	events, _ := l.Events().ListByWar(ctx, "w1", 0)
	if len(events) != 1 {
		t.Fatalf("expected one event, got %d", len(events))
	}
}

func TestControlRepository_MutateDiscardsOnError(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t)
	boom := errors.New("debit failed")

	err := l.Controls().Mutate(ctx, "w1", "p1", func(ctx context.Context, current territory.Control, tx territory.Tx) error {
		next := current
		next.ControllingFactionID = "blue"
		_ = tx.SaveControl(ctx, next)
		_, _ = tx.AppendEvent(ctx, completedEvent("a1"))
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected callback error, got %v", err)
	}

	c, _, _ := l.Controls().Get(ctx, "w1", "p1")
	events, _ := l.Events().ListByWar(ctx, "w1", 0)
	if c.ControllingFactionID != "" || len(events) != 0 {
		t.Fatalf("failed mutation leaked writes: control=%+v events=%d", c, len(events))
	}
}

func TestControlRepository_VersionConflict(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t)

	err := l.Controls().Mutate(ctx, "w1", "p1", func(ctx context.Context, current territory.Control, tx territory.Tx) error {
		racing := l.Controls().Mutate(ctx, "w1", "p1", func(ctx context.Context, inner territory.Control, tx territory.Tx) error {
			next := inner
			next.ControllingFactionID = "blue"
			return tx.SaveControl(ctx, next)
		})
		if racing != nil {
			t.Fatalf("inner mutate: %v", racing)
		}
		next := current
		next.ControllingFactionID = "red"
		return tx.SaveControl(ctx, next)
	})
	if !errors.Is(err, territory.ErrStateChanged) {
		t.Fatalf("expected state changed, got %v", err)
	}
}

func TestControlRepository_DuplicateCompletionIsSkipped(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t)

	appendOnce := func() bool {
		var inserted bool
		err := l.Controls().Mutate(ctx, "w1", "p1", func(ctx context.Context, current territory.Control, tx territory.Tx) error {
			var err error
			inserted, err = tx.AppendEvent(ctx, completedEvent("a1"))
			return err
		})
		if err != nil {
			t.Fatalf("mutate: %v", err)
		}
		return inserted
	}

	if !appendOnce() {
		t.Fatalf("first completion should insert")
	}
	if appendOnce() {
		t.Fatalf("second completion for the same attempt must be skipped")
	}
}

func TestControlRepository_MutateUnknownPOI(t *testing.T) {
	l := newTestLedger(t)
	err := l.Controls().Mutate(context.Background(), "w1", "nope", func(context.Context, territory.Control, territory.Tx) error {
		t.Fatalf("callback must not run")
		return nil
	})
	if !errors.Is(err, territory.ErrPOINotInWar) {
		t.Fatalf("expected ErrPOINotInWar, got %v", err)
	}
}

func TestControlRepository_SecondSaveNeedsBumpedVersion(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t)

	err := l.Controls().Mutate(ctx, "w1", "p1", func(ctx context.Context, current territory.Control, tx territory.Tx) error {
		next := current
		next.ControllingFactionID = "red"
		if err := tx.SaveControl(ctx, next); err != nil {
			return err
		}
		if err := tx.SaveControl(ctx, next); !errors.Is(err, territory.ErrStateChanged) {
			t.Fatalf("expected stale second save to fail, got %v", err)
		}
		next.Version++
		next.ControllingFactionID = "blue"
		return tx.SaveControl(ctx, next)
	})
	if err != nil {
		t.Fatalf("mutate: %v", err)
	}

	c, _, _ := l.Controls().Get(ctx, "w1", "p1")
	if c.ControllingFactionID != "blue" || c.Version != 3 {
		t.Fatalf("unexpected control after two saves: %+v", c)
	}
}
