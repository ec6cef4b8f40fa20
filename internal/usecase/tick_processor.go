package usecase

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/sourcegraph/conc/panics"
	"github.com/sourcegraph/conc/pool"
	"go.opentelemetry.io/otel/attribute"

	"github.com/riskibarqy/turf-war/internal/domain/jobscheduler"
	"github.com/riskibarqy/turf-war/internal/domain/poi"
	"github.com/riskibarqy/turf-war/internal/domain/territory"
	"github.com/riskibarqy/turf-war/internal/domain/war"
	"github.com/riskibarqy/turf-war/internal/platform/logging"
)

type TickConfig struct {
	Interval       time.Duration
	Workers        int
	WarConcurrency int
}

type TickResult struct {
	DispatchID     string `json:"dispatch_id"`
	Wars           int    `json:"wars"`
	POIsScanned    int    `json:"pois_scanned"`
	Advanced       int    `json:"advanced"`
	Completed      int    `json:"completed"`
	Failed         int    `json:"failed"`
	PresencePurged int    `json:"presence_purged"`
	DurationMs     int64  `json:"duration_ms"`
}

// TickProcessor is the background sweep over all active wars. It is the only
// caller of CaptureService.complete.
type TickProcessor struct {
	wars         war.Repository
	pois         poi.Repository
	controls     territory.Repository
	capture      *CaptureService
	presence     *PresenceService
	dispatchRepo jobscheduler.Repository
	metrics      MetricsRecorder
	cfg          TickConfig
	logger       *logging.Logger
	now          func() time.Time
}

func NewTickProcessor(
	wars war.Repository,
	pois poi.Repository,
	controls territory.Repository,
	capture *CaptureService,
	presenceSvc *PresenceService,
	dispatchRepo jobscheduler.Repository,
	cfg TickConfig,
	logger *logging.Logger,
) *TickProcessor {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 30 * time.Second
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 16
	}
	if cfg.WarConcurrency <= 0 {
		cfg.WarConcurrency = 4
	}

	return &TickProcessor{
		wars:         wars,
		pois:         pois,
		controls:     controls,
		capture:      capture,
		presence:     presenceSvc,
		dispatchRepo: dispatchRepo,
		metrics:      noopMetrics{},
		cfg:          cfg,
		logger:       logger.Named("tick"),
		now:          time.Now,
	}
}

func (p *TickProcessor) SetMetrics(metrics MetricsRecorder) {
	if metrics != nil {
		p.metrics = metrics
	}
}

func (p *TickProcessor) Interval() time.Duration {
	return p.cfg.Interval
}

type tickCounters struct {
	scanned   atomic.Int32
	advanced  atomic.Int32
	completed atomic.Int32
	failed    atomic.Int32
	purged    atomic.Int32
}

// RunTick advances and resolves captures in every active war and expires stale
// presence. Per-POI and per-war failures are logged and counted, never
// returned; the error covers only failing to start the sweep.
func (p *TickProcessor) RunTick(ctx context.Context, trigger string) (TickResult, error) {
	ctx, span := startJobSpan(ctx, "usecase.TickProcessor.RunTick", attribute.String("tick.trigger", trigger))
	defer span.End()

	startedAt := p.now().UTC()
	dispatchID := dedupKey(jobscheduler.JobWarTick, trigger, startedAt, time.Second)
	p.recordDispatchEvent(ctx, jobscheduler.DispatchEvent{
		DispatchID: dispatchID,
		JobName:    jobscheduler.JobWarTick,
		Trigger:    trigger,
		Status:     jobscheduler.StatusSent,
		OccurredAt: startedAt,
	})

	result, err := p.sweep(ctx)
	result.DispatchID = dispatchID
	result.DurationMs = p.now().Sub(startedAt).Milliseconds()
	p.metrics.ObserveTick(p.now().Sub(startedAt), result.Completed, result.Failed)

	event := jobscheduler.DispatchEvent{
		DispatchID: dispatchID,
		JobName:    jobscheduler.JobWarTick,
		Trigger:    trigger,
		Status:     jobscheduler.StatusCompleted,
		Payload: map[string]any{
			"wars":      result.Wars,
			"scanned":   result.POIsScanned,
			"completed": result.Completed,
			"failed":    result.Failed,
			"purged":    result.PresencePurged,
		},
		OccurredAt: p.now().UTC(),
	}
	if err != nil {
		event.Status = jobscheduler.StatusFailed
		event.ErrorMessage = err.Error()
	}
	p.recordDispatchEvent(ctx, event)

	if err != nil {
		return result, err
	}
	p.logger.InfoContext(ctx, "war tick finished",
		"dispatch_id", dispatchID,
		"wars", result.Wars,
		"scanned", result.POIsScanned,
		"completed", result.Completed,
		"failed", result.Failed,
		"presence_purged", result.PresencePurged,
		"duration_ms", result.DurationMs,
	)
	return result, nil
}

func (p *TickProcessor) sweep(ctx context.Context) (TickResult, error) {
	sessions, err := p.wars.ListActive(ctx)
	if err != nil {
		return TickResult{}, fmt.Errorf("list active wars: %w", err)
	}
	result := TickResult{Wars: len(sessions)}
	if len(sessions) == 0 {
		return result, nil
	}

	workers, err := ants.NewPool(p.cfg.Workers)
	if err != nil {
		return result, fmt.Errorf("create tick worker pool: %w", err)
	}
	defer workers.Release()

	var counters tickCounters
	wars := pool.New().WithMaxGoroutines(p.cfg.WarConcurrency)
	for _, session := range sessions {
		session := session
		wars.Go(func() {
			var catcher panics.Catcher
			catcher.Try(func() { p.sweepWar(ctx, workers, session, &counters) })
			if recovered := catcher.Recovered(); recovered != nil {
				counters.failed.Add(1)
				p.logger.ErrorContext(ctx, "war tick panicked",
					"war_id", session.ID,
					"error", recovered.AsError(),
				)
			}
		})
	}
	wars.Wait()

	result.POIsScanned = int(counters.scanned.Load())
	result.Advanced = int(counters.advanced.Load())
	result.Completed = int(counters.completed.Load())
	result.Failed = int(counters.failed.Load())
	result.PresencePurged = int(counters.purged.Load())
	return result, nil
}

func (p *TickProcessor) sweepWar(ctx context.Context, workers *ants.Pool, session war.Session, counters *tickCounters) {
	controls, err := p.controls.ListByWar(ctx, session.ID)
	if err != nil {
		counters.failed.Add(1)
		p.logger.WarnContext(ctx, "list controls for tick failed", "war_id", session.ID, "error", err)
		return
	}

	now := p.now().UTC()
	var wg sync.WaitGroup
	for _, c := range controls {
		if !c.HasCapture() || c.IsContested {
			continue
		}
		counters.scanned.Add(1)

		c := c
		progress := c.ProgressAt(now)
		wg.Add(1)
		if err := workers.Submit(func() {
			defer wg.Done()
			p.advance(ctx, session, c, progress, counters)
		}); err != nil {
			wg.Done()
			counters.failed.Add(1)
			p.logger.WarnContext(ctx, "submit poi to tick pool failed",
				"war_id", session.ID,
				"poi_id", c.POIID,
				"error", err,
			)
		}
	}
	wg.Wait()

	expired, err := p.presence.ExpireStale(ctx, session, 0)
	if err != nil {
		counters.failed.Add(1)
		p.logger.WarnContext(ctx, "expire stale presence failed", "war_id", session.ID, "error", err)
		return
	}
	counters.purged.Add(int32(len(expired.Purged)))
}

func (p *TickProcessor) advance(ctx context.Context, session war.Session, c territory.Control, progress int, counters *tickCounters) {
	if progress < 100 {
		changed, err := p.capture.refreshProgress(ctx, session.ID, c.POIID)
		if err != nil {
			counters.failed.Add(1)
			p.logger.WarnContext(ctx, "refresh capture progress failed",
				"war_id", session.ID,
				"poi_id", c.POIID,
				"error", err,
			)
			return
		}
		if changed {
			counters.advanced.Add(1)
		}
		return
	}

	point, exists, err := p.pois.GetByID(ctx, c.POIID)
	if err != nil || !exists {
		counters.failed.Add(1)
		p.logger.WarnContext(ctx, "load poi for completion failed",
			"war_id", session.ID,
			"poi_id", c.POIID,
			"exists", exists,
			"error", err,
		)
		return
	}

	completed, err := p.capture.complete(ctx, session, point)
	if err != nil {
		counters.failed.Add(1)
		p.logger.WarnContext(ctx, "complete capture failed",
			"war_id", session.ID,
			"poi_id", c.POIID,
			"error", err,
		)
		return
	}
	if completed {
		counters.completed.Add(1)
	}
}

const (
	defaultDispatchHistory = 20
	maxDispatchHistory     = 100
)

// RecentDispatches lists the latest war tick runs, newest first.
func (p *TickProcessor) RecentDispatches(ctx context.Context, limit int) ([]jobscheduler.DispatchEvent, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.TickProcessor.RecentDispatches")
	defer span.End()

	if p.dispatchRepo == nil {
		return nil, fmt.Errorf("%w: dispatch history is not configured", ErrDependencyUnavailable)
	}
	switch {
	case limit <= 0:
		limit = defaultDispatchHistory
	case limit > maxDispatchHistory:
		limit = maxDispatchHistory
	}

	events, err := p.dispatchRepo.ListRecent(ctx, jobscheduler.JobWarTick, limit)
	if err != nil {
		return nil, fmt.Errorf("list tick dispatches: %w", err)
	}
	return events, nil
}

func (p *TickProcessor) recordDispatchEvent(ctx context.Context, event jobscheduler.DispatchEvent) {
	if p.dispatchRepo == nil {
		return
	}
	event.TraceID, event.SpanID = traceMetaFromContext(ctx)
	if err := p.dispatchRepo.UpsertEvent(ctx, event); err != nil {
		p.logger.WarnContext(ctx, "record tick dispatch event failed",
			"dispatch_id", event.DispatchID,
			"status", event.Status,
			"error", err,
		)
	}
}
