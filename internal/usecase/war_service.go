package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/riskibarqy/turf-war/internal/domain/poi"
	"github.com/riskibarqy/turf-war/internal/domain/presence"
	"github.com/riskibarqy/turf-war/internal/domain/territory"
	"github.com/riskibarqy/turf-war/internal/domain/war"
	"github.com/riskibarqy/turf-war/internal/domain/warevent"
	"github.com/riskibarqy/turf-war/internal/domain/warstats"
	"github.com/riskibarqy/turf-war/internal/platform/id"
	"github.com/riskibarqy/turf-war/internal/platform/logging"
)

type BeginWarInput struct {
	WarID             string
	DistrictID        string
	AttackerFactionID string
	DefenderFactionID string
	// InitialControl maps a POI id to the faction holding it when the war
	// opens. Unlisted POIs start neutral.
	InitialControl map[string]string
}

type Scoreboard struct {
	Session  war.Session
	Factions []warstats.FactionStats
	Members  []warstats.MemberStats
}

// WarService opens and closes war sessions. When a war starts or ends is
// decided elsewhere.
type WarService struct {
	wars     war.Repository
	pois     poi.Repository
	controls territory.Repository
	presence presence.Repository
	events   warevent.Repository
	stats    warstats.Repository
	feed     FeedPublisher
	ids      id.Generator
	logger   *logging.Logger
	now      func() time.Time
}

func NewWarService(
	wars war.Repository,
	pois poi.Repository,
	controls territory.Repository,
	presenceRepo presence.Repository,
	events warevent.Repository,
	stats warstats.Repository,
	logger *logging.Logger,
) *WarService {
	if logger == nil {
		logger = logging.Default()
	}

	return &WarService{
		wars:     wars,
		pois:     pois,
		controls: controls,
		presence: presenceRepo,
		events:   events,
		stats:    stats,
		feed:     NewNoopFeedPublisher(),
		ids:      id.NewUUIDGenerator(),
		logger:   logger.Named("war"),
		now:      time.Now,
	}
}

func (s *WarService) SetFeedPublisher(feed FeedPublisher) {
	if feed != nil {
		s.feed = feed
	}
}

func (s *WarService) SetIDGenerator(ids id.Generator) {
	if ids != nil {
		s.ids = ids
	}
}

// BeginWar creates the session and one control record per POI in the district.
func (s *WarService) BeginWar(ctx context.Context, input BeginWarInput) (war.Session, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.WarService.BeginWar")
	defer span.End()

	input.WarID = strings.TrimSpace(input.WarID)
	input.DistrictID = strings.TrimSpace(input.DistrictID)
	if input.WarID == "" {
		warID, err := s.ids.NewID()
		if err != nil {
			return war.Session{}, fmt.Errorf("generate war id: %w", err)
		}
		input.WarID = warID
	}

	session := war.Session{
		ID:                input.WarID,
		DistrictID:        input.DistrictID,
		AttackerFactionID: strings.TrimSpace(input.AttackerFactionID),
		DefenderFactionID: strings.TrimSpace(input.DefenderFactionID),
		Status:            war.StatusActive,
		StartedAt:         s.now().UTC(),
	}
	if err := session.Validate(); err != nil {
		return war.Session{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	if _, exists, err := s.wars.GetByID(ctx, session.ID); err != nil {
		return war.Session{}, fmt.Errorf("get war: %w", err)
	} else if exists {
		return war.Session{}, fmt.Errorf("%w: war=%s already exists", ErrConflict, session.ID)
	}

	points, err := s.pois.ListByDistrict(ctx, session.DistrictID)
	if err != nil {
		return war.Session{}, fmt.Errorf("list district pois: %w", err)
	}
	if len(points) == 0 {
		return war.Session{}, fmt.Errorf("%w: district=%s has no points of interest", ErrInvalidInput, session.DistrictID)
	}

	known := make(map[string]struct{}, len(points))
	controls := make([]territory.Control, 0, len(points))
	for _, p := range points {
		known[p.ID] = struct{}{}
		controller := strings.TrimSpace(input.InitialControl[p.ID])
		if controller != "" {
			if _, ok := session.SideOf(controller); !ok {
				return war.Session{}, fmt.Errorf("%w: initial controller %s of %s is not in the war", ErrInvalidInput, controller, p.ID)
			}
		}
		controls = append(controls, territory.Control{
			WarID:                session.ID,
			POIID:                p.ID,
			ControllingFactionID: controller,
		})
	}
	for poiID := range input.InitialControl {
		if _, ok := known[poiID]; !ok {
			return war.Session{}, fmt.Errorf("%w: poi %s is not in district %s", ErrInvalidInput, poiID, session.DistrictID)
		}
	}

	if err := s.wars.Create(ctx, session); err != nil {
		return war.Session{}, fmt.Errorf("create war: %w", err)
	}
	if err := s.controls.InitializeWar(ctx, session.ID, controls); err != nil {
		return war.Session{}, fmt.Errorf("initialize war controls: %w", err)
	}

	s.logger.InfoContext(ctx, "war started",
		"war_id", session.ID,
		"district_id", session.DistrictID,
		"attacker", session.AttackerFactionID,
		"defender", session.DefenderFactionID,
		"pois", len(controls),
	)
	return session, nil
}

// EndWar closes an active war and drops its control and presence records.
// Scores and the event log are kept.
func (s *WarService) EndWar(ctx context.Context, warID string) (war.Session, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.WarService.EndWar")
	defer span.End()

	warID = strings.TrimSpace(warID)
	if warID == "" {
		return war.Session{}, fmt.Errorf("%w: war_id is required", ErrInvalidInput)
	}

	now := s.now().UTC()
	ended, err := s.wars.MarkEnded(ctx, warID, now)
	if err != nil {
		return war.Session{}, fmt.Errorf("mark war ended: %w", err)
	}
	session, exists, err := s.wars.GetByID(ctx, warID)
	if err != nil {
		return war.Session{}, fmt.Errorf("get war: %w", err)
	}
	if !exists {
		return war.Session{}, fmt.Errorf("%w: war=%s", ErrNotFound, warID)
	}
	if !ended {
		return session, territory.Reject(territory.ErrWarNotActive, "")
	}

	if err := s.controls.DeleteByWar(ctx, warID); err != nil {
		return war.Session{}, fmt.Errorf("delete war controls: %w", err)
	}
	if err := s.presence.DeleteByWar(ctx, warID); err != nil {
		return war.Session{}, fmt.Errorf("delete war presence: %w", err)
	}

	eventID, err := s.ids.NewID()
	if err != nil {
		return war.Session{}, fmt.Errorf("generate event id: %w", err)
	}
	event := warevent.Event{
		ID:          eventID,
		WarID:       warID,
		Type:        warevent.TypeWarEnded,
		Description: fmt.Sprintf("war ended %d to %d", session.AttackerPoints, session.DefenderPoints),
		OccurredAt:  now,
	}
	if err := s.events.Append(ctx, event); err != nil {
		return war.Session{}, fmt.Errorf("append war ended event: %w", err)
	}
	if err := s.feed.Publish(context.WithoutCancel(ctx), event); err != nil {
		s.logger.WarnContext(ctx, "publish war ended failed", "war_id", warID, "error", err)
	}

	s.logger.InfoContext(ctx, "war ended",
		"war_id", warID,
		"attacker_points", session.AttackerPoints,
		"defender_points", session.DefenderPoints,
	)
	return session, nil
}

func (s *WarService) Get(ctx context.Context, warID string) (war.Session, error) {
	session, exists, err := s.wars.GetByID(ctx, strings.TrimSpace(warID))
	if err != nil {
		return war.Session{}, fmt.Errorf("get war: %w", err)
	}
	if !exists {
		return war.Session{}, fmt.Errorf("%w: war=%s", ErrNotFound, warID)
	}
	return session, nil
}

func (s *WarService) Scoreboard(ctx context.Context, warID string) (Scoreboard, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.WarService.Scoreboard")
	defer span.End()

	session, err := s.Get(ctx, warID)
	if err != nil {
		return Scoreboard{}, err
	}
	factions, err := s.stats.ListFactionStats(ctx, session.ID)
	if err != nil {
		return Scoreboard{}, fmt.Errorf("list faction stats: %w", err)
	}
	members, err := s.stats.ListMemberStats(ctx, session.ID)
	if err != nil {
		return Scoreboard{}, fmt.Errorf("list member stats: %w", err)
	}

	return Scoreboard{Session: session, Factions: factions, Members: members}, nil
}

func (s *WarService) RecentEvents(ctx context.Context, warID string, limit int) ([]warevent.Event, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	events, err := s.events.ListByWar(ctx, strings.TrimSpace(warID), limit)
	if err != nil {
		return nil, fmt.Errorf("list war events: %w", err)
	}
	return events, nil
}
