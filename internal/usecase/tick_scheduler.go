package usecase

import (
	"context"
	"time"

	"github.com/riskibarqy/turf-war/internal/platform/logging"
)

const TickTriggerScheduler = "scheduler"

type tickRunner interface {
	RunTick(ctx context.Context, trigger string) (TickResult, error)
}

// TickScheduler drives RunTick on a fixed interval until its context ends.
// A run that outlives the interval is cut off by its own deadline and the next
// run starts on the following tick.
type TickScheduler struct {
	runner   tickRunner
	interval time.Duration
	logger   *logging.Logger
}

func NewTickScheduler(processor *TickProcessor, logger *logging.Logger) *TickScheduler {
	if logger == nil {
		logger = logging.Default()
	}
	return &TickScheduler{
		runner:   processor,
		interval: processor.Interval(),
		logger:   logger.Named("tick-scheduler"),
	}
}

func (s *TickScheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.InfoContext(ctx, "tick scheduler started", "interval", s.interval.String())
	for {
		select {
		case <-ctx.Done():
			s.logger.InfoContext(ctx, "tick scheduler stopped")
			return
		case <-ticker.C:
			s.runOnce(ctx)
		}
	}
}

func (s *TickScheduler) runOnce(ctx context.Context) {
	runCtx, cancel := context.WithTimeout(ctx, s.interval)
	defer cancel()

	if _, err := s.runner.RunTick(runCtx, TickTriggerScheduler); err != nil {
		s.logger.WarnContext(ctx, "scheduled war tick failed", "error", err)
	}
}
