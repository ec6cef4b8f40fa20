package warstats

import "context"

type Repository interface {
	ListFactionStats(ctx context.Context, warID string) ([]FactionStats, error)
	ListMemberStats(ctx context.Context, warID string) ([]MemberStats, error)
}
