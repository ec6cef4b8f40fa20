package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/riskibarqy/turf-war/internal/domain/presence"
	"github.com/riskibarqy/turf-war/internal/domain/territory"
	"github.com/riskibarqy/turf-war/internal/domain/war"
	"github.com/riskibarqy/turf-war/internal/domain/warevent"
	"github.com/riskibarqy/turf-war/internal/platform/logging"
)

type LeaveResult struct {
	Removed bool
	// Release is the capture event caused by leaving, if any: capture_handoff,
	// capture_cancelled or capture_resumed.
	Release warevent.Type
}

type ExpireResult struct {
	Purged []presence.Record
}

// PresenceService tracks who is physically at which POI.
type PresenceService struct {
	wars     war.Repository
	presence presence.Repository
	members  MembershipDirectory
	capture  *CaptureService
	timeout  time.Duration
	logger   *logging.Logger
	now      func() time.Time
}

func NewPresenceService(
	wars war.Repository,
	presenceRepo presence.Repository,
	members MembershipDirectory,
	capture *CaptureService,
	logger *logging.Logger,
) *PresenceService {
	if logger == nil {
		logger = logging.Default()
	}

	return &PresenceService{
		wars:     wars,
		presence: presenceRepo,
		members:  members,
		capture:  capture,
		timeout:  capture.Rules().PresenceTimeout,
		logger:   logger.Named("presence"),
		now:      time.Now,
	}
}

// Enter records the player at the POI. Entering again only resets the clock.
func (s *PresenceService) Enter(ctx context.Context, warID, poiID, playerID string) (presence.Record, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PresenceService.Enter")
	defer span.End()

	warID, poiID, playerID, err := normalizeTriple(warID, poiID, playerID)
	if err != nil {
		return presence.Record{}, err
	}

	if _, err := s.capture.activeWar(ctx, warID); err != nil {
		return presence.Record{}, err
	}
	factionID, _, err := s.members.GetFactionAndRole(ctx, playerID, warID)
	if err != nil {
		return presence.Record{}, err
	}
	point, err := s.capture.warPOI(ctx, warID, poiID)
	if err != nil {
		return presence.Record{}, err
	}

	rec := presence.Record{
		PlayerID:     playerID,
		POIID:        poiID,
		WarID:        warID,
		FactionID:    factionID,
		LastActionAt: s.now().UTC(),
	}
	if err := s.presence.Upsert(ctx, rec); err != nil {
		return presence.Record{}, fmt.Errorf("upsert presence: %w", err)
	}

	s.logger.DebugContext(ctx, "player entered poi",
		"war_id", warID,
		"poi_id", poiID,
		"poi_name", point.Name,
		"player_id", playerID,
	)
	return rec, nil
}

// Leave removes the player's presence and releases any capture or contest they
// were holding at that POI.
func (s *PresenceService) Leave(ctx context.Context, warID, poiID, playerID string) (LeaveResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PresenceService.Leave")
	defer span.End()

	warID, poiID, playerID, err := normalizeTriple(warID, poiID, playerID)
	if err != nil {
		return LeaveResult{}, err
	}

	removed, err := s.presence.Delete(ctx, warID, poiID, playerID)
	if err != nil {
		return LeaveResult{}, fmt.Errorf("delete presence: %w", err)
	}
	result := LeaveResult{Removed: removed}

	session, err := s.capture.activeWar(ctx, warID)
	if err != nil {
		if errors.Is(err, territory.ErrWarNotActive) {
			return result, nil
		}
		return result, err
	}

	released, err := s.capture.release(ctx, session, poiID, playerID)
	if err != nil {
		return result, fmt.Errorf("release capture on leave: %w", err)
	}
	result.Release = released
	return result, nil
}

// IsPresent reports whether the player acted at the POI within timeout. A zero
// timeout uses the configured presence timeout.
func (s *PresenceService) IsPresent(ctx context.Context, warID, poiID, playerID string, timeout time.Duration) (bool, error) {
	if timeout <= 0 {
		timeout = s.timeout
	}
	rec, exists, err := s.presence.Get(ctx, warID, poiID, playerID)
	if err != nil {
		return false, fmt.Errorf("get presence: %w", err)
	}
	return exists && rec.IsFresh(s.now().UTC(), timeout), nil
}

// ExpireStale purges presence older than twice timeout. Control records are
// left alone: a running or contested capture only ends through a player action.
func (s *PresenceService) ExpireStale(ctx context.Context, session war.Session, timeout time.Duration) (ExpireResult, error) {
	if timeout <= 0 {
		timeout = s.timeout
	}
	cutoff := presence.StaleCutoff(s.now().UTC(), timeout)
	purged, err := s.presence.DeleteStale(ctx, session.ID, cutoff)
	if err != nil {
		return ExpireResult{}, fmt.Errorf("delete stale presence: %w", err)
	}
	if len(purged) > 0 {
		s.logger.DebugContext(ctx, "stale presence purged", "war_id", session.ID, "count", len(purged))
	}
	return ExpireResult{Purged: purged}, nil
}

func normalizeTriple(warID, poiID, playerID string) (string, string, string, error) {
	warID = strings.TrimSpace(warID)
	poiID = strings.TrimSpace(poiID)
	playerID = strings.TrimSpace(playerID)
	if warID == "" || poiID == "" || playerID == "" {
		return "", "", "", fmt.Errorf("%w: war_id, poi_id and player_id are required", ErrInvalidInput)
	}
	return warID, poiID, playerID, nil
}
