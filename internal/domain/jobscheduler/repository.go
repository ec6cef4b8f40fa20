package jobscheduler

import "context"

// Repository keeps the latest state per DispatchID. ListRecent returns runs of
// jobName newest first; an empty jobName matches every job.
type Repository interface {
	UpsertEvent(ctx context.Context, event DispatchEvent) error
	ListRecent(ctx context.Context, jobName string, limit int) ([]DispatchEvent, error)
}
