package observability

import (
	"context"
	"errors"
	"fmt"

	"github.com/riskibarqy/turf-war/internal/config"
	"github.com/riskibarqy/turf-war/internal/platform/logging"
)

type shutdownFunc func(context.Context) error

func noopShutdown(context.Context) error { return nil }

// Runtime owns the process-wide exporters: tracing, continuous profiling and
// the pprof listener. Each is a no-op unless enabled in config.
type Runtime struct {
	logger *logging.Logger
	stops  []namedShutdown
}

type namedShutdown struct {
	name string
	fn   shutdownFunc
}

// Start brings up every enabled exporter. If one fails, the ones already
// running are shut down before the error is returned.
func Start(ctx context.Context, cfg config.Config, logger *logging.Logger) (*Runtime, error) {
	if logger == nil {
		logger = logging.Default()
	}
	rt := &Runtime{logger: logger.Named("observability")}

	starters := []struct {
		name  string
		start func(config.Config, *logging.Logger) (shutdownFunc, error)
	}{
		{"uptrace", startUptrace},
		{"pyroscope", startPyroscope},
		{"pprof", startPprof},
	}
	for _, s := range starters {
		stop, err := s.start(cfg, rt.logger)
		if err != nil {
			_ = rt.Shutdown(ctx)
			return nil, fmt.Errorf("start %s: %w", s.name, err)
		}
		rt.stops = append(rt.stops, namedShutdown{name: s.name, fn: stop})
	}
	return rt, nil
}

// Shutdown stops exporters in reverse start order and joins their errors.
func (r *Runtime) Shutdown(ctx context.Context) error {
	if r == nil {
		return nil
	}
	var errs []error
	for i := len(r.stops) - 1; i >= 0; i-- {
		s := r.stops[i]
		if err := s.fn(ctx); err != nil {
			errs = append(errs, fmt.Errorf("stop %s: %w", s.name, err))
		}
	}
	r.stops = nil
	return errors.Join(errs...)
}
