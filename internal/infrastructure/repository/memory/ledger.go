package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/riskibarqy/turf-war/internal/domain/territory"
	"github.com/riskibarqy/turf-war/internal/domain/war"
	"github.com/riskibarqy/turf-war/internal/domain/warevent"
	"github.com/riskibarqy/turf-war/internal/domain/warstats"
)

// Ledger keeps everything a war writes in one place so a territory mutation
// can update control, the event log and the score columns atomically. The
// repositories below are views over it.
type Ledger struct {
	mu sync.RWMutex

	wars     map[string]war.Session
	warOrder []string

	controls map[string]territory.Control

	events    []warevent.Event
	eventKeys map[string]struct{}

	factionStats map[string]warstats.FactionStats
	memberStats  map[string]warstats.MemberStats

	now func() time.Time
}

func NewLedger() *Ledger {
	return &Ledger{
		wars:         make(map[string]war.Session),
		controls:     make(map[string]territory.Control),
		eventKeys:    make(map[string]struct{}),
		factionStats: make(map[string]warstats.FactionStats),
		memberStats:  make(map[string]warstats.MemberStats),
		now:          time.Now,
	}
}

func (l *Ledger) Wars() *WarRepository { return &WarRepository{l: l} }
func (l *Ledger) Controls() *ControlRepository { return &ControlRepository{l: l} }
func (l *Ledger) Events() *EventRepository { return &EventRepository{l: l} }
func (l *Ledger) Stats() *StatsRepository { return &StatsRepository{l: l} }

func pairKey(a, b string) string {
	return a + "::" + b
}

func cloneControl(c territory.Control) territory.Control {
	copied := c
	if c.CaptureStartedAt != nil {
		startedAt := *c.CaptureStartedAt
		copied.CaptureStartedAt = &startedAt
	}
	return copied
}

func cloneSession(s war.Session) war.Session {
	copied := s
	if s.EndedAt != nil {
		endedAt := *s.EndedAt
		copied.EndedAt = &endedAt
	}
	return copied
}

type WarRepository struct {
	l *Ledger
}

func (r *WarRepository) Create(_ context.Context, session war.Session) error {
	if err := session.Validate(); err != nil {
		return fmt.Errorf("validate war session: %w", err)
	}

	r.l.mu.Lock()
	defer r.l.mu.Unlock()

	if _, exists := r.l.wars[session.ID]; exists {
		return fmt.Errorf("war %s already exists", session.ID)
	}
	r.l.wars[session.ID] = cloneSession(session)
	r.l.warOrder = append(r.l.warOrder, session.ID)
	return nil
}

func (r *WarRepository) GetByID(_ context.Context, warID string) (war.Session, bool, error) {
	r.l.mu.RLock()
	defer r.l.mu.RUnlock()

	s, ok := r.l.wars[warID]
	if !ok {
		return war.Session{}, false, nil
	}
	return cloneSession(s), true, nil
}

func (r *WarRepository) ListActive(_ context.Context) ([]war.Session, error) {
	r.l.mu.RLock()
	defer r.l.mu.RUnlock()

	out := make([]war.Session, 0, len(r.l.warOrder))
	for _, id := range r.l.warOrder {
		if s := r.l.wars[id]; s.IsActive() {
			out = append(out, cloneSession(s))
		}
	}
	return out, nil
}

func (r *WarRepository) MarkEnded(_ context.Context, warID string, endedAt time.Time) (bool, error) {
	r.l.mu.Lock()
	defer r.l.mu.Unlock()

	s, ok := r.l.wars[warID]
	if !ok || !s.IsActive() {
		return false, nil
	}
	s.Status = war.StatusEnded
	s.EndedAt = &endedAt
	r.l.wars[warID] = s
	return true, nil
}

type ControlRepository struct {
	l *Ledger
}

func (r *ControlRepository) ListByWar(_ context.Context, warID string) ([]territory.Control, error) {
	r.l.mu.RLock()
	defer r.l.mu.RUnlock()

	out := make([]territory.Control, 0)
	for _, c := range r.l.controls {
		if c.WarID == warID {
			out = append(out, cloneControl(c))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].POIID < out[j].POIID })
	return out, nil
}

func (r *ControlRepository) Get(_ context.Context, warID, poiID string) (territory.Control, bool, error) {
	r.l.mu.RLock()
	defer r.l.mu.RUnlock()

	c, ok := r.l.controls[pairKey(warID, poiID)]
	if !ok {
		return territory.Control{}, false, nil
	}
	return cloneControl(c), true, nil
}

func (r *ControlRepository) InitializeWar(_ context.Context, warID string, controls []territory.Control) error {
	for _, c := range controls {
		if c.WarID != warID {
			return fmt.Errorf("control for poi %s belongs to war %s, expected %s", c.POIID, c.WarID, warID)
		}
		if err := c.Validate(); err != nil {
			return fmt.Errorf("validate control %s: %w", c.POIID, err)
		}
	}

	r.l.mu.Lock()
	defer r.l.mu.Unlock()

	now := r.l.now()
	for _, c := range controls {
		key := pairKey(c.WarID, c.POIID)
		if _, exists := r.l.controls[key]; exists {
			return fmt.Errorf("control for poi %s already initialized", c.POIID)
		}
	}
	for _, c := range controls {
		c.Version = 1
		c.UpdatedAt = now
		r.l.controls[pairKey(c.WarID, c.POIID)] = cloneControl(c)
	}
	return nil
}

func (r *ControlRepository) DeleteByWar(_ context.Context, warID string) error {
	r.l.mu.Lock()
	defer r.l.mu.Unlock()

	for key, c := range r.l.controls {
		if c.WarID == warID {
			delete(r.l.controls, key)
		}
	}
	return nil
}

// Mutate runs fn against a snapshot and commits its buffered writes only if
// the record version is unchanged. Callers serialize per POI on top of this.
func (r *ControlRepository) Mutate(ctx context.Context, warID, poiID string, fn territory.MutateFunc) error {
	current, ok, err := r.Get(ctx, warID, poiID)
	if err != nil {
		return err
	}
	if !ok {
		return territory.ErrPOINotInWar
	}

	tx := &ledgerTx{l: r.l, warID: warID, poiID: poiID, baseVersion: current.Version, readVersion: current.Version}
	if err := fn(ctx, current, tx); err != nil {
		return err
	}
	return tx.commit()
}

// baseVersion is the version read at Mutate; readVersion moves one step per
// SaveControl, the way a row update bumps it in Postgres.
type ledgerTx struct {
	l           *Ledger
	warID       string
	poiID       string
	baseVersion int64
	readVersion int64

	control *territory.Control
	events  []warevent.Event
	awards  []warstats.Award
}

func (tx *ledgerTx) SaveControl(_ context.Context, next territory.Control) error {
	if next.WarID != tx.warID || next.POIID != tx.poiID {
		return fmt.Errorf("tx is scoped to %s/%s", tx.warID, tx.poiID)
	}
	if next.Version != tx.readVersion {
		return territory.ErrStateChanged
	}
	if err := next.Validate(); err != nil {
		return fmt.Errorf("validate control: %w", err)
	}
	copied := cloneControl(next)
	tx.control = &copied
	tx.readVersion++
	return nil
}

func (tx *ledgerTx) AppendEvent(_ context.Context, event warevent.Event) (bool, error) {
	if err := event.Validate(); err != nil {
		return false, fmt.Errorf("validate war event: %w", err)
	}
	if key := event.IdempotencyKey(); key != "" {
		tx.l.mu.RLock()
		_, exists := tx.l.eventKeys[key]
		tx.l.mu.RUnlock()
		if exists {
			return false, nil
		}
		for _, pending := range tx.events {
			if pending.IdempotencyKey() == key {
				return false, nil
			}
		}
	}
	tx.events = append(tx.events, event)
	return true, nil
}

func (tx *ledgerTx) ApplyAward(_ context.Context, award warstats.Award) error {
	if err := award.Validate(); err != nil {
		return fmt.Errorf("validate award: %w", err)
	}
	tx.awards = append(tx.awards, award)
	return nil
}

func (tx *ledgerTx) commit() error {
	l := tx.l
	l.mu.Lock()
	defer l.mu.Unlock()

	key := pairKey(tx.warID, tx.poiID)
	stored, ok := l.controls[key]
	if !ok {
		return territory.ErrPOINotInWar
	}
	if stored.Version != tx.baseVersion {
		return territory.ErrStateChanged
	}
	for _, e := range tx.events {
		if k := e.IdempotencyKey(); k != "" {
			if _, exists := l.eventKeys[k]; exists {
				return territory.ErrStateChanged
			}
		}
	}
	for _, a := range tx.awards {
		if _, exists := l.wars[a.WarID]; !exists {
			return fmt.Errorf("award for unknown war %s", a.WarID)
		}
	}

	now := l.now()
	if tx.control != nil {
		next := *tx.control
		next.Version = tx.readVersion
		next.UpdatedAt = now
		l.controls[key] = next
	}
	for _, e := range tx.events {
		l.events = append(l.events, e)
		if k := e.IdempotencyKey(); k != "" {
			l.eventKeys[k] = struct{}{}
		}
	}
	for _, a := range tx.awards {
		session := l.wars[a.WarID]
		if a.Side == war.SideAttacker {
			session.AttackerPoints += a.Points
		} else {
			session.DefenderPoints += a.Points
		}
		l.wars[a.WarID] = session

		fk := pairKey(a.WarID, a.FactionID)
		fs := l.factionStats[fk]
		fs.WarID, fs.FactionID = a.WarID, a.FactionID
		fs.Apply(a)
		l.factionStats[fk] = fs

		mk := pairKey(a.WarID, a.PlayerID)
		ms := l.memberStats[mk]
		ms.WarID, ms.PlayerID, ms.FactionID = a.WarID, a.PlayerID, a.FactionID
		ms.Apply(a)
		l.memberStats[mk] = ms
	}
	return nil
}

type EventRepository struct {
	l *Ledger
}

// ListByWar returns the newest events first.
func (r *EventRepository) ListByWar(_ context.Context, warID string, limit int) ([]warevent.Event, error) {
	r.l.mu.RLock()
	defer r.l.mu.RUnlock()

	out := make([]warevent.Event, 0)
	for i := len(r.l.events) - 1; i >= 0; i-- {
		if r.l.events[i].WarID != warID {
			continue
		}
		out = append(out, r.l.events[i])
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

// Append writes an event outside a territory mutation, e.g. war_ended.
func (r *EventRepository) Append(_ context.Context, event warevent.Event) error {
	if err := event.Validate(); err != nil {
		return fmt.Errorf("validate war event: %w", err)
	}

	r.l.mu.Lock()
	defer r.l.mu.Unlock()

	if key := event.IdempotencyKey(); key != "" {
		if _, exists := r.l.eventKeys[key]; exists {
			return nil
		}
		r.l.eventKeys[key] = struct{}{}
	}
	r.l.events = append(r.l.events, event)
	return nil
}

type StatsRepository struct {
	l *Ledger
}

func (r *StatsRepository) ListFactionStats(_ context.Context, warID string) ([]warstats.FactionStats, error) {
	r.l.mu.RLock()
	defer r.l.mu.RUnlock()

	out := make([]warstats.FactionStats, 0, 2)
	for _, fs := range r.l.factionStats {
		if fs.WarID == warID {
			out = append(out, fs)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].WarPoints != out[j].WarPoints {
			return out[i].WarPoints > out[j].WarPoints
		}
		return out[i].FactionID < out[j].FactionID
	})
	return out, nil
}

func (r *StatsRepository) ListMemberStats(_ context.Context, warID string) ([]warstats.MemberStats, error) {
	r.l.mu.RLock()
	defer r.l.mu.RUnlock()

	out := make([]warstats.MemberStats, 0)
	for _, ms := range r.l.memberStats {
		if ms.WarID == warID {
			out = append(out, ms)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].WarPoints != out[j].WarPoints {
			return out[i].WarPoints > out[j].WarPoints
		}
		return out[i].PlayerID < out[j].PlayerID
	})
	return out, nil
}
