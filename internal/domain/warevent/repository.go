package warevent

import "context"

// Repository reads the audit trail. Writes happen through territory.Tx so the
// log and the counters share one unit of work.
type Repository interface {
	ListByWar(ctx context.Context, warID string, limit int) ([]Event, error)
	Append(ctx context.Context, event Event) error
}
