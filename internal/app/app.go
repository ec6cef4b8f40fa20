package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/riskibarqy/turf-war/external/feed"
	"github.com/riskibarqy/turf-war/internal/config"
	"github.com/riskibarqy/turf-war/internal/infrastructure/account/anubis"
	"github.com/riskibarqy/turf-war/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/turf-war/internal/interfaces/httpapi"
	"github.com/riskibarqy/turf-war/internal/observability"
	"github.com/riskibarqy/turf-war/internal/platform/logging"
	"github.com/riskibarqy/turf-war/internal/usecase"
)

const (
	metricsNamespace       = "turf_war"
	defaultResourceBalance = 100
	demoWarID              = "war-harbor-demo"
)

// App is the assembled service. Scheduler is nil when the in-process tick
// loop is disabled.
type App struct {
	Server    *http.Server
	Scheduler *usecase.TickScheduler

	closers []func() error
	logger  *logging.Logger
}

func New(ctx context.Context, cfg config.Config, logger *logging.Logger) (*App, error) {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.HTTPAddr == "" {
		return nil, fmt.Errorf("http server addr cannot be empty")
	}

	store, err := newStorage(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("build storage: %w", err)
	}
	a := &App{logger: logger, closers: []func() error{store.close}}

	publisher, err := newFeedPublisher(cfg, logger)
	if err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("build feed publisher: %w", err)
	}
	if closer, ok := publisher.(interface{ Close() error }); ok {
		a.closers = append(a.closers, closer.Close)
	}

	rules := cfg.War.Rules.Normalize()
	members := usecase.NewCrewDirectory(store.crews, store.wars)
	captureSvc := usecase.NewCaptureService(
		store.wars,
		store.pois,
		store.controls,
		store.presence,
		members,
		memory.NewResourcePool(defaultResourceBalance),
		usecase.NewScoringEngine(nil, rules),
		usecase.CaptureConfig{Rules: rules, LockWait: cfg.War.LockWait},
		logger,
	)
	captureSvc.SetFeedPublisher(publisher)

	presenceSvc := usecase.NewPresenceService(store.wars, store.presence, members, captureSvc, logger)

	warSvc := usecase.NewWarService(store.wars, store.pois, store.controls, store.presence, store.events, store.stats, logger)
	warSvc.SetFeedPublisher(publisher)

	tick := usecase.NewTickProcessor(
		store.wars,
		store.pois,
		store.controls,
		captureSvc,
		presenceSvc,
		store.dispatch,
		usecase.TickConfig{
			Interval:       cfg.War.TickInterval,
			Workers:        cfg.War.TickWorkers,
			WarConcurrency: cfg.War.TickWarConcurrency,
		},
		logger,
	)

	routerCfg := httpapi.RouterConfig{
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		InternalJobToken:   cfg.InternalJobToken,
	}
	if cfg.MetricsEnabled {
		metrics := observability.NewMetrics(metricsNamespace)
		captureSvc.SetMetrics(metrics)
		tick.SetMetrics(metrics)
		routerCfg.Metrics = metrics
	}

	if cfg.SeedDemoData {
		seedDemoWar(ctx, warSvc, logger)
	}

	verifier := anubis.NewClient(
		&http.Client{Timeout: cfg.AnubisTimeout, Transport: otelhttp.NewTransport(http.DefaultTransport)},
		cfg.AnubisBaseURL,
		cfg.AnubisIntrospectURL,
		cfg.AnubisAdminKey,
		cfg.AnubisCircuit,
		cfg.AnubisPrincipalTTL,
		logger,
	)

	handler := httpapi.NewHandler(warSvc, captureSvc, presenceSvc, tick, logger)
	a.Server = &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      httpapi.NewRouter(handler, verifier, logger, routerCfg),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	if cfg.War.TickSchedulerEnabled {
		a.Scheduler = usecase.NewTickScheduler(tick, logger)
	}

	logger.InfoContext(ctx, "app assembled",
		"storage", cfg.StorageDriver,
		"cache", cfg.CacheEnabled,
		"kafka", cfg.KafkaEnabled,
		"metrics", cfg.MetricsEnabled,
		"tick_scheduler", cfg.War.TickSchedulerEnabled,
	)
	return a, nil
}

// Close releases storage and feed resources in reverse order of creation.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func newFeedPublisher(cfg config.Config, logger *logging.Logger) (usecase.FeedPublisher, error) {
	if !cfg.KafkaEnabled {
		return usecase.NewNoopFeedPublisher(), nil
	}
	return feed.NewKafkaPublisher(feed.Config{
		Brokers:      cfg.KafkaBrokers,
		Topic:        cfg.KafkaFeedTopic,
		WriteTimeout: cfg.KafkaWriteTimeout,
		Breaker:      cfg.KafkaCircuit,
	}, logger)
}

// seedDemoWar opens a harbor war for local runs. An existing demo war is kept.
func seedDemoWar(ctx context.Context, wars *usecase.WarService, logger *logging.Logger) {
	_, err := wars.BeginWar(ctx, usecase.BeginWarInput{
		WarID:             demoWarID,
		DistrictID:        memory.DistrictIDHarbor,
		AttackerFactionID: memory.FactionIDRedHand,
		DefenderFactionID: memory.FactionIDBlueLotus,
		InitialControl:    map[string]string{"poi-harbor-warehouse": memory.FactionIDBlueLotus},
	})
	switch {
	case err == nil:
		logger.InfoContext(ctx, "demo war seeded", "war_id", demoWarID)
	case errors.Is(err, usecase.ErrConflict):
	default:
		logger.WarnContext(ctx, "seed demo war failed", "war_id", demoWarID, "error", err)
	}
}
