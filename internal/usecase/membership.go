package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/riskibarqy/turf-war/internal/domain/crew"
	"github.com/riskibarqy/turf-war/internal/domain/territory"
	"github.com/riskibarqy/turf-war/internal/domain/war"
)

// CrewDirectory answers membership questions from the crew roster.
type CrewDirectory struct {
	crews crew.Repository
	wars  war.Repository
}

func NewCrewDirectory(crews crew.Repository, wars war.Repository) *CrewDirectory {
	return &CrewDirectory{crews: crews, wars: wars}
}

func (d *CrewDirectory) GetFactionAndRole(ctx context.Context, playerID, warID string) (string, crew.Role, error) {
	playerID = strings.TrimSpace(playerID)
	if playerID == "" {
		return "", "", fmt.Errorf("%w: player_id is required", ErrInvalidInput)
	}

	session, exists, err := d.wars.GetByID(ctx, warID)
	if err != nil {
		return "", "", fmt.Errorf("get war for membership: %w", err)
	}
	if !exists {
		return "", "", fmt.Errorf("%w: war=%s", ErrNotFound, warID)
	}

	member, exists, err := d.crews.GetByPlayer(ctx, playerID)
	if err != nil {
		return "", "", fmt.Errorf("get crew membership: %w", err)
	}
	if !exists {
		return "", "", territory.Reject(territory.ErrNotInWar, "")
	}
	if _, ok := session.SideOf(member.FactionID); !ok {
		return "", "", territory.Reject(territory.ErrNotInWar, "")
	}

	return member.FactionID, member.Role, nil
}
