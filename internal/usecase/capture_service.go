package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/riskibarqy/turf-war/internal/domain/crew"
	"github.com/riskibarqy/turf-war/internal/domain/poi"
	"github.com/riskibarqy/turf-war/internal/domain/presence"
	"github.com/riskibarqy/turf-war/internal/domain/territory"
	"github.com/riskibarqy/turf-war/internal/domain/war"
	"github.com/riskibarqy/turf-war/internal/domain/warevent"
	"github.com/riskibarqy/turf-war/internal/platform/id"
	"github.com/riskibarqy/turf-war/internal/platform/keylock"
	"github.com/riskibarqy/turf-war/internal/platform/logging"
)

const (
	ActionCapture = "capture"
	ActionContest = "contest"
	ActionDefend  = "defend"

	stateChangedRetries = 1
)

type CaptureConfig struct {
	Rules    territory.Rules
	LockWait time.Duration
}

// ActionResult is what a player sees after a capture, contest or defend.
type ActionResult struct {
	Action           string
	Control          territory.Control
	State            territory.State
	ProgressPercent  int
	DefenseSucceeded bool
	Events           []warevent.Event
}

// CaptureService owns every transition of a POI control record. All reads that
// lead to a write happen under the per-POI lock.
type CaptureService struct {
	wars      war.Repository
	pois      poi.Repository
	controls  territory.Repository
	presence  presence.Repository
	members   MembershipDirectory
	resources ResourcePool
	scoring   *ScoringEngine
	feed      FeedPublisher
	roller    Roller
	ids       id.Generator
	metrics   MetricsRecorder
	locks     *keylock.Locker
	rules     territory.Rules
	logger    *logging.Logger
	now       func() time.Time
}

func NewCaptureService(
	wars war.Repository,
	pois poi.Repository,
	controls territory.Repository,
	presenceRepo presence.Repository,
	members MembershipDirectory,
	resources ResourcePool,
	scoring *ScoringEngine,
	cfg CaptureConfig,
	logger *logging.Logger,
) *CaptureService {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.LockWait <= 0 {
		cfg.LockWait = 2 * time.Second
	}
	rules := cfg.Rules.Normalize()
	if scoring == nil {
		scoring = NewScoringEngine(nil, rules)
	}

	return &CaptureService{
		wars:      wars,
		pois:      pois,
		controls:  controls,
		presence:  presenceRepo,
		members:   members,
		resources: resources,
		scoring:   scoring,
		feed:      NewNoopFeedPublisher(),
		roller:    NewRandomRoller(),
		ids:       id.NewUUIDGenerator(),
		metrics:   noopMetrics{},
		locks:     keylock.New(cfg.LockWait),
		rules:     rules,
		logger:    logger.Named("capture"),
		now:       time.Now,
	}
}

func (s *CaptureService) SetFeedPublisher(feed FeedPublisher) {
	if feed != nil {
		s.feed = feed
	}
}

func (s *CaptureService) SetRoller(roller Roller) {
	if roller != nil {
		s.roller = roller
	}
}

func (s *CaptureService) SetIDGenerator(ids id.Generator) {
	if ids != nil {
		s.ids = ids
	}
}

func (s *CaptureService) SetMetrics(metrics MetricsRecorder) {
	if metrics != nil {
		s.metrics = metrics
	}
}

func (s *CaptureService) Rules() territory.Rules {
	return s.rules
}

// StartCapture begins a capture by the player's faction. An infiltrator's
// capture runs on a shortened clock fixed at start time.
func (s *CaptureService) StartCapture(ctx context.Context, warID, poiID, playerID string) (ActionResult, error) {
	return s.act(ctx, ActionCapture, warID, poiID, playerID, func(scope actionScope, current territory.Control) (transitionPlan, error) {
		attemptID, err := s.ids.NewID()
		if err != nil {
			return transitionPlan{}, fmt.Errorf("generate capture attempt id: %w", err)
		}
		adjusted := territory.AdjustedCaptureMinutes(scope.point.CaptureTimeMinutes, s.rules.CaptureMultiplier(scope.role))
		next, err := current.StartCapture(scope.actor, adjusted, attemptID, scope.now)
		if err != nil {
			return transitionPlan{}, err
		}

		event, err := s.newEvent(scope, warevent.TypeCaptureStarted, attemptID,
			fmt.Sprintf("%s started capturing %s", scope.actor.FactionID, scope.point.Name))
		if err != nil {
			return transitionPlan{}, err
		}
		return transitionPlan{
			costs:  s.rules.CaptureCost(scope.role),
			next:   &next,
			events: []warevent.Event{event},
		}, nil
	})
}

// Contest blocks an enemy capture without cancelling it.
func (s *CaptureService) Contest(ctx context.Context, warID, poiID, playerID string) (ActionResult, error) {
	return s.act(ctx, ActionContest, warID, poiID, playerID, func(scope actionScope, current territory.Control) (transitionPlan, error) {
		next, err := current.Contest(scope.actor, scope.now)
		if err != nil {
			return transitionPlan{}, err
		}

		event, err := s.newEvent(scope, warevent.TypeCaptureContested, current.AttemptID,
			fmt.Sprintf("%s contested the capture of %s at %d%%", scope.actor.FactionID, scope.point.Name, next.ProgressPercent))
		if err != nil {
			return transitionPlan{}, err
		}
		return transitionPlan{
			costs:  s.rules.ContestCost(scope.role),
			next:   &next,
			events: []warevent.Event{event},
		}, nil
	})
}

// Defend rolls against the defend chance for the player's role. A failed roll
// still costs resources and leaves the attack running.
func (s *CaptureService) Defend(ctx context.Context, warID, poiID, playerID string) (ActionResult, error) {
	return s.act(ctx, ActionDefend, warID, poiID, playerID, func(scope actionScope, current territory.Control) (transitionPlan, error) {
		if err := current.CanDefend(scope.actor.FactionID); err != nil {
			return transitionPlan{}, err
		}

		plan := transitionPlan{costs: s.rules.DefendCost(scope.role)}
		if !s.roller.Roll(s.rules.DefendChance(scope.role)) {
			event, err := s.newEvent(scope, warevent.TypeDefendFailed, current.AttemptID,
				fmt.Sprintf("%s failed to hold %s", scope.actor.FactionID, scope.point.Name))
			if err != nil {
				return transitionPlan{}, err
			}
			plan.events = []warevent.Event{event}
			return plan, nil
		}

		next := current.DefendSucceeded()
		plan.next = &next
		plan.defended = true
		plan.score = func(ctx context.Context, tx territory.Tx, next *territory.Control) ([]warevent.Event, error) {
			event, err := s.scoring.AwardDefense(ctx, tx, AwardInput{
				Session:   scope.session,
				POI:       scope.point,
				FactionID: scope.actor.FactionID,
				PlayerID:  scope.actor.PlayerID,
				AttemptID: current.AttemptID,
			})
			if err != nil {
				return nil, err
			}
			next.PointsGeneratedSinceCapture += event.PointsEarned
			return []warevent.Event{event}, nil
		}
		return plan, nil
	})
}

type actionScope struct {
	session war.Session
	point   poi.PointOfInterest
	actor   territory.Actor
	role    crew.Role
	now     time.Time
}

type transitionPlan struct {
	costs    []territory.Cost
	next     *territory.Control
	events   []warevent.Event
	score    func(ctx context.Context, tx territory.Tx, next *territory.Control) ([]warevent.Event, error)
	defended bool
}

type planFunc func(scope actionScope, current territory.Control) (transitionPlan, error)

func (s *CaptureService) act(ctx context.Context, action, warID, poiID, playerID string, plan planFunc) (result ActionResult, err error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.CaptureService."+action,
		attribute.String("war.id", warID),
		attribute.String("poi.id", poiID),
	)
	defer span.End()
	defer func() { s.metrics.ObserveAction(action, actionOutcome(err)) }()

	scope, err := s.resolveScope(ctx, warID, poiID, playerID)
	if err != nil {
		return ActionResult{}, err
	}

	unlock, err := s.lockPOI(ctx, scope.session.ID, scope.point.ID)
	if err != nil {
		return ActionResult{}, territory.WithPOIName(err, scope.point.Name)
	}
	defer unlock()

	for attempt := 0; ; attempt++ {
		result, err = s.applyPlan(ctx, action, scope, plan)
		if !errors.Is(err, territory.ErrStateChanged) || attempt >= stateChangedRetries {
			break
		}
		s.logger.DebugContext(ctx, "state changed under action, re-evaluating",
			"war_id", scope.session.ID,
			"poi_id", scope.point.ID,
			"action", action,
		)
	}
	if err != nil {
		return ActionResult{}, territory.WithPOIName(err, scope.point.Name)
	}

	s.touchPresence(ctx, scope)
	s.publish(ctx, result.Events...)
	s.logger.InfoContext(ctx, "territory action applied",
		"war_id", scope.session.ID,
		"poi_id", scope.point.ID,
		"player_id", scope.actor.PlayerID,
		"faction_id", scope.actor.FactionID,
		"action", action,
		"state", result.State,
		"progress", result.ProgressPercent,
	)
	return result, nil
}

func (s *CaptureService) applyPlan(ctx context.Context, action string, scope actionScope, plan planFunc) (ActionResult, error) {
	scope.now = s.now().UTC()
	var refund func()
	var result ActionResult

	err := s.controls.Mutate(ctx, scope.session.ID, scope.point.ID, func(ctx context.Context, current territory.Control, tx territory.Tx) error {
		if err := s.requirePresence(ctx, scope); err != nil {
			return err
		}

		p, err := plan(scope, current)
		if err != nil {
			return err
		}

		refund, err = s.debit(ctx, scope.actor.PlayerID, p.costs)
		if err != nil {
			return err
		}

		final := current
		if p.next != nil {
			final = *p.next
		}
		events := append([]warevent.Event(nil), p.events...)
		for _, e := range p.events {
			if _, err := tx.AppendEvent(ctx, e); err != nil {
				return fmt.Errorf("append %s event: %w", e.Type, err)
			}
		}
		// Scored events are appended by the scoring engine itself.
		if p.score != nil {
			scored, err := p.score(ctx, tx, &final)
			if err != nil {
				return err
			}
			events = append(events, scored...)
		}
		if p.next != nil {
			if err := tx.SaveControl(ctx, final); err != nil {
				return err
			}
		}

		result = ActionResult{
			Action:           action,
			Control:          final,
			State:            final.State(),
			ProgressPercent:  final.ProgressAt(scope.now),
			DefenseSucceeded: p.defended,
			Events:           events,
		}
		return nil
	})
	if err != nil {
		if refund != nil {
			refund()
		}
		return ActionResult{}, err
	}

	return result, nil
}

// resolveScope runs the checks that do not depend on the control record.
func (s *CaptureService) resolveScope(ctx context.Context, warID, poiID, playerID string) (actionScope, error) {
	warID = strings.TrimSpace(warID)
	poiID = strings.TrimSpace(poiID)
	playerID = strings.TrimSpace(playerID)
	if warID == "" || poiID == "" || playerID == "" {
		return actionScope{}, fmt.Errorf("%w: war_id, poi_id and player_id are required", ErrInvalidInput)
	}

	session, err := s.activeWar(ctx, warID)
	if err != nil {
		return actionScope{}, err
	}

	factionID, role, err := s.members.GetFactionAndRole(ctx, playerID, warID)
	if err != nil {
		return actionScope{}, err
	}

	point, err := s.warPOI(ctx, warID, poiID)
	if err != nil {
		return actionScope{}, err
	}

	return actionScope{
		session: session,
		point:   point,
		actor:   territory.Actor{PlayerID: playerID, FactionID: factionID},
		role:    role,
	}, nil
}

func (s *CaptureService) activeWar(ctx context.Context, warID string) (war.Session, error) {
	session, exists, err := s.wars.GetByID(ctx, warID)
	if err != nil {
		return war.Session{}, fmt.Errorf("get war: %w", err)
	}
	if !exists {
		return war.Session{}, fmt.Errorf("%w: war=%s", ErrNotFound, warID)
	}
	if !session.IsActive() {
		return war.Session{}, territory.Reject(territory.ErrWarNotActive, "")
	}
	return session, nil
}

// warPOI loads a POI and confirms the war tracks a control record for it.
func (s *CaptureService) warPOI(ctx context.Context, warID, poiID string) (poi.PointOfInterest, error) {
	point, exists, err := s.pois.GetByID(ctx, poiID)
	if err != nil {
		return poi.PointOfInterest{}, fmt.Errorf("get poi: %w", err)
	}
	if !exists {
		return poi.PointOfInterest{}, territory.Reject(territory.ErrPOINotInWar, "")
	}

	_, tracked, err := s.controls.Get(ctx, warID, poiID)
	if err != nil {
		return poi.PointOfInterest{}, fmt.Errorf("get poi control: %w", err)
	}
	if !tracked {
		return poi.PointOfInterest{}, territory.WithPOIName(territory.ErrPOINotInWar, point.Name)
	}
	return point, nil
}

func (s *CaptureService) lockPOI(ctx context.Context, warID, poiID string) (func(), error) {
	unlock, err := s.locks.Lock(ctx, warID+":"+poiID)
	if errors.Is(err, keylock.ErrLockTimeout) {
		return nil, territory.Reject(territory.ErrStateChanged, "")
	}
	if err != nil {
		return nil, err
	}
	return unlock, nil
}

func (s *CaptureService) requirePresence(ctx context.Context, scope actionScope) error {
	rec, exists, err := s.presence.Get(ctx, scope.session.ID, scope.point.ID, scope.actor.PlayerID)
	if err != nil {
		return fmt.Errorf("get presence: %w", err)
	}
	if !exists || !rec.IsFresh(scope.now, s.rules.PresenceTimeout) {
		return territory.Reject(territory.ErrNotPresent, "")
	}
	return nil
}

func (s *CaptureService) touchPresence(ctx context.Context, scope actionScope) {
	rec, exists, err := s.presence.Get(ctx, scope.session.ID, scope.point.ID, scope.actor.PlayerID)
	if err != nil || !exists {
		return
	}
	rec.LastActionAt = s.now().UTC()
	if err := s.presence.Upsert(ctx, rec); err != nil {
		s.logger.WarnContext(ctx, "refresh presence after action failed",
			"war_id", scope.session.ID,
			"poi_id", scope.point.ID,
			"player_id", scope.actor.PlayerID,
			"error", err,
		)
	}
}

// debit takes every cost or none. The returned refund gives back what was
// taken if the transition is not committed.
func (s *CaptureService) debit(ctx context.Context, playerID string, costs []territory.Cost) (func(), error) {
	taken := make([]territory.Cost, 0, len(costs))
	refund := func() {
		for _, c := range taken {
			if err := s.resources.Credit(context.WithoutCancel(ctx), playerID, c.Resource, c.Amount); err != nil {
				s.logger.ErrorContext(ctx, "refund resource failed",
					"player_id", playerID,
					"resource", c.Resource,
					"amount", c.Amount,
					"error", err,
				)
			}
		}
	}

	for _, c := range costs {
		ok, err := s.resources.TryDebit(ctx, playerID, c.Resource, c.Amount)
		if err != nil {
			refund()
			return nil, fmt.Errorf("%w: debit %s: %v", ErrDependencyUnavailable, c.Resource, err)
		}
		if !ok {
			refund()
			return nil, territory.Reject(territory.ErrInsufficientResource, "")
		}
		taken = append(taken, c)
	}
	return refund, nil
}

func (s *CaptureService) newEvent(scope actionScope, eventType warevent.Type, attemptID, description string) (warevent.Event, error) {
	eventID, err := s.ids.NewID()
	if err != nil {
		return warevent.Event{}, fmt.Errorf("generate event id: %w", err)
	}
	return warevent.Event{
		ID:          eventID,
		WarID:       scope.session.ID,
		Type:        eventType,
		FactionID:   scope.actor.FactionID,
		PlayerID:    scope.actor.PlayerID,
		POIID:       scope.point.ID,
		AttemptID:   attemptID,
		Description: description,
		OccurredAt:  scope.now,
	}, nil
}

// publish hands committed events to the feed. Failures are logged only.
func (s *CaptureService) publish(ctx context.Context, events ...warevent.Event) {
	if len(events) == 0 {
		return
	}
	if err := s.feed.Publish(context.WithoutCancel(ctx), events...); err != nil {
		s.logger.WarnContext(ctx, "publish war events failed",
			"war_id", events[0].WarID,
			"count", len(events),
			"error", err,
		)
	}
}

func actionOutcome(err error) string {
	if err == nil {
		return "ok"
	}
	if kind, ok := territory.KindOf(err); ok {
		return string(kind)
	}
	if errors.Is(err, ErrInvalidInput) || errors.Is(err, ErrNotFound) {
		return "invalid"
	}
	return "error"
}

// complete finalizes a capture that has reached 100%. It is reached only from
// the tick. completed is false when there was nothing to do.
func (s *CaptureService) complete(ctx context.Context, session war.Session, point poi.PointOfInterest) (bool, error) {
	unlock, err := s.lockPOI(ctx, session.ID, point.ID)
	if err != nil {
		return false, err
	}
	defer unlock()

	now := s.now().UTC()
	var events []warevent.Event
	err = s.controls.Mutate(ctx, session.ID, point.ID, func(ctx context.Context, current territory.Control, tx territory.Tx) error {
		next, ok := current.Complete(now)
		if !ok {
			return nil
		}

		event, applied, err := s.scoring.AwardCapture(ctx, tx, AwardInput{
			Session:   session,
			POI:       point,
			FactionID: current.CapturingFactionID,
			PlayerID:  current.CapturingPlayerID,
			AttemptID: current.AttemptID,
		})
		if err != nil {
			return err
		}
		if applied {
			next.PointsGeneratedSinceCapture = event.PointsEarned
			events = append(events, event)
		} else {
			s.logger.WarnContext(ctx, "capture attempt already scored, transferring control only",
				"war_id", session.ID,
				"poi_id", point.ID,
				"attempt_id", current.AttemptID,
			)
		}
		return tx.SaveControl(ctx, next)
	})
	if err != nil {
		return false, err
	}
	if len(events) == 0 {
		return false, nil
	}

	s.publish(ctx, events...)
	s.logger.InfoContext(ctx, "capture completed",
		"war_id", session.ID,
		"poi_id", point.ID,
		"faction_id", events[0].FactionID,
		"player_id", events[0].PlayerID,
		"points", events[0].PointsEarned,
	)
	return true, nil
}

// refreshProgress rewrites the cached progress of a running capture.
func (s *CaptureService) refreshProgress(ctx context.Context, warID, poiID string) (bool, error) {
	unlock, err := s.lockPOI(ctx, warID, poiID)
	if err != nil {
		return false, err
	}
	defer unlock()

	now := s.now().UTC()
	changed := false
	err = s.controls.Mutate(ctx, warID, poiID, func(ctx context.Context, current territory.Control, tx territory.Tx) error {
		next, ok := current.RefreshProgress(now)
		if !ok {
			return nil
		}
		changed = true
		return tx.SaveControl(ctx, next)
	})
	return changed, err
}

// release is called after a player's presence at a POI ended. A capture or
// contest held by that player passes to another present member of the same
// faction, or is dropped.
func (s *CaptureService) release(ctx context.Context, session war.Session, poiID, playerID string) (warevent.Type, error) {
	current, exists, err := s.controls.Get(ctx, session.ID, poiID)
	if err != nil {
		return "", fmt.Errorf("get poi control: %w", err)
	}
	if !exists || (current.CapturingPlayerID != playerID && current.ContestedByPlayerID != playerID) {
		return "", nil
	}

	unlock, err := s.lockPOI(ctx, session.ID, poiID)
	if err != nil {
		return "", err
	}
	defer unlock()

	now := s.now().UTC()
	var events []warevent.Event
	err = s.controls.Mutate(ctx, session.ID, poiID, func(ctx context.Context, current territory.Control, tx territory.Tx) error {
		events = events[:0]
		next := current

		if next.IsContested && next.ContestedByPlayerID == playerID {
			successor, err := s.successor(ctx, session.ID, poiID, next.ContestedByFactionID, playerID, now)
			if err != nil {
				return err
			}
			if successor != "" {
				next = next.HandOffContest(successor)
			} else {
				events = append(events, s.releaseEvent(session.ID, poiID, next.ContestedByFactionID, playerID, next.AttemptID,
					warevent.TypeCaptureResumed, "contest lifted, capture resumes", now))
				next = next.LiftContest(now)
			}
		}

		if next.HasCapture() && next.CapturingPlayerID == playerID {
			successor, err := s.successor(ctx, session.ID, poiID, next.CapturingFactionID, playerID, now)
			if err != nil {
				return err
			}
			if successor != "" {
				events = append(events, s.releaseEvent(session.ID, poiID, next.CapturingFactionID, successor, next.AttemptID,
					warevent.TypeCaptureHandoff, "capture handed to "+successor, now))
				next = next.HandOff(successor)
			} else {
				events = append(events, s.releaseEvent(session.ID, poiID, next.CapturingFactionID, playerID, next.AttemptID,
					warevent.TypeCaptureCancelled, "capturer left, capture cancelled", now))
				next = next.ClearCapture()
			}
		}

		if next == current {
			return nil
		}
		if err := tx.SaveControl(ctx, next); err != nil {
			return err
		}
		for i := range events {
			eventID, err := s.ids.NewID()
			if err != nil {
				return fmt.Errorf("generate event id: %w", err)
			}
			events[i].ID = eventID
			if _, err := tx.AppendEvent(ctx, events[i]); err != nil {
				return fmt.Errorf("append %s event: %w", events[i].Type, err)
			}
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	if len(events) == 0 {
		return "", nil
	}

	s.publish(ctx, events...)
	last := events[len(events)-1]
	s.logger.InfoContext(ctx, "player release applied",
		"war_id", session.ID,
		"poi_id", poiID,
		"player_id", playerID,
		"outcome", last.Type,
	)
	return last.Type, nil
}

// successor picks the most recently active present member of factionID other
// than leaving.
func (s *CaptureService) successor(ctx context.Context, warID, poiID, factionID, leaving string, now time.Time) (string, error) {
	records, err := s.presence.ListByPOI(ctx, warID, poiID)
	if err != nil {
		return "", fmt.Errorf("list presence for hand-off: %w", err)
	}
	for _, rec := range records {
		if rec.PlayerID == leaving || rec.FactionID != factionID {
			continue
		}
		if rec.IsFresh(now, s.rules.PresenceTimeout) {
			return rec.PlayerID, nil
		}
	}
	return "", nil
}

func (s *CaptureService) releaseEvent(warID, poiID, factionID, playerID, attemptID string, eventType warevent.Type, description string, at time.Time) warevent.Event {
	return warevent.Event{
		WarID:       warID,
		Type:        eventType,
		FactionID:   factionID,
		PlayerID:    playerID,
		POIID:       poiID,
		AttemptID:   attemptID,
		Description: description,
		OccurredAt:  at,
	}
}
