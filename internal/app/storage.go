package app

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/uptrace/opentelemetry-go-extra/otelsql"
	"github.com/uptrace/opentelemetry-go-extra/otelsqlx"
	"go.opentelemetry.io/otel/attribute"

	"github.com/riskibarqy/turf-war/internal/config"
	"github.com/riskibarqy/turf-war/internal/domain/crew"
	"github.com/riskibarqy/turf-war/internal/domain/jobscheduler"
	"github.com/riskibarqy/turf-war/internal/domain/poi"
	"github.com/riskibarqy/turf-war/internal/domain/presence"
	"github.com/riskibarqy/turf-war/internal/domain/territory"
	"github.com/riskibarqy/turf-war/internal/domain/war"
	"github.com/riskibarqy/turf-war/internal/domain/warevent"
	"github.com/riskibarqy/turf-war/internal/domain/warstats"
	"github.com/riskibarqy/turf-war/internal/infrastructure/repository/cache"
	"github.com/riskibarqy/turf-war/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/turf-war/internal/infrastructure/repository/postgres"
	"github.com/riskibarqy/turf-war/internal/platform/logging"
)

const dbPingTimeout = 5 * time.Second

type storage struct {
	wars     war.Repository
	pois     poi.Repository
	controls territory.Repository
	presence presence.Repository
	events   warevent.Repository
	stats    warstats.Repository
	crews    crew.Repository
	dispatch jobscheduler.Repository
	close    func() error
}

func newStorage(ctx context.Context, cfg config.Config, logger *logging.Logger) (storage, error) {
	var (
		s   storage
		err error
	)
	switch cfg.StorageDriver {
	case config.StoragePostgres:
		s, err = newPostgresStorage(ctx, cfg, logger)
	default:
		s = newMemoryStorage(cfg)
	}
	if err != nil {
		return storage{}, err
	}

	if cfg.CacheEnabled {
		s.pois = cache.NewPOIRepository(s.pois, cfg.CacheTTL)
		s.crews = cache.NewCrewRepository(s.crews, cfg.CacheTTL)
	}
	return s, nil
}

func newMemoryStorage(cfg config.Config) storage {
	var (
		points  []poi.PointOfInterest
		members []crew.Membership
	)
	if cfg.SeedDemoData {
		points = memory.SeedPOIs()
		members = memory.SeedMemberships()
	}

	ledger := memory.NewLedger()
	return storage{
		wars:     ledger.Wars(),
		pois:     memory.NewPOIRepository(points),
		controls: ledger.Controls(),
		presence: memory.NewPresenceRepository(),
		events:   ledger.Events(),
		stats:    ledger.Stats(),
		crews:    memory.NewCrewRepository(members),
		dispatch: memory.NewJobDispatchRepository(),
		close:    func() error { return nil },
	}
}

func newPostgresStorage(ctx context.Context, cfg config.Config, logger *logging.Logger) (storage, error) {
	db, err := openPostgres(ctx, cfg)
	if err != nil {
		return storage{}, err
	}
	logger.InfoContext(ctx, "postgres storage ready", "db_name", dbNameFromURL(cfg.DBURL))

	return storage{
		wars:     postgres.NewWarRepository(db),
		pois:     postgres.NewPOIRepository(db),
		controls: postgres.NewControlRepository(db),
		presence: postgres.NewPresenceRepository(db),
		events:   postgres.NewEventRepository(db),
		stats:    postgres.NewStatsRepository(db),
		crews:    postgres.NewCrewRepository(db),
		dispatch: postgres.NewJobDispatchRepository(db),
		close:    db.Close,
	}, nil
}

func openPostgres(ctx context.Context, cfg config.Config) (*sqlx.DB, error) {
	dsn := withApplicationName(cfg.DBURL, cfg.DBApplicationName)
	db, err := otelsqlx.Open("postgres", dsn,
		otelsql.WithAttributes(attribute.String("db.system", "postgresql")),
		otelsql.WithDBName(dbNameFromURL(dsn)),
		otelsql.WithQueryFormatter(compactQuery),
	)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(10)
	db.SetConnMaxIdleTime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, dbPingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}
