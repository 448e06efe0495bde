package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	directorycache "egresados/internal/directory/cache"
	directorymodels "egresados/internal/directory/models"
	directorystore "egresados/internal/directory/store"
	eventsservice "egresados/internal/events/service"
	eventsstore "egresados/internal/events/store"
	historyservice "egresados/internal/history/service"
	historystore "egresados/internal/history/store"
	"egresados/internal/platform/blob"
	"egresados/internal/platform/config"
	"egresados/internal/platform/kafka"
	"egresados/internal/platform/postgres"
	"egresados/internal/platform/redis"
	profileservice "egresados/internal/profile/service"
	profilestore "egresados/internal/profile/store"
	httptransport "egresados/internal/transport/http"
	id "egresados/pkg/domain"
	"egresados/pkg/platform/tx"
)

type identityDirectory interface {
	Lookup(ctx context.Context, ids []id.UserID) (map[id.UserID]directorymodels.Identity, error)
}

type profileStore interface {
	profileservice.ProfileStore
	eventsservice.Profiles
}

type auditLog interface {
	profileservice.AuditLog
	historyservice.Store
}

// infra holds the stores and clients selected by configuration.
type infra struct {
	storage      string
	profiles     profileStore
	audit        auditLog
	catalog      eventsservice.Catalog
	ledger       eventsservice.Ledger
	runner       tx.Runner
	directory    identityDirectory
	images       *blob.S3Store
	producer     *kafka.Producer
	healthChecks map[string]httptransport.HealthCheck
	closers      []func()
}

func (d *infra) Close() {
	for i := len(d.closers) - 1; i >= 0; i-- {
		d.closers[i]()
	}
}

// buildInfra connects Postgres, Redis, S3 and Kafka in parallel. Postgres
// falls back to in-memory stores when DATABASE_URL is empty. The others are
// optional and skipped when unconfigured.
func buildInfra(ctx context.Context, cfg config.Config, log *slog.Logger) (*infra, error) {
	var (
		db       *sql.DB
		rc       *redis.Client
		images   *blob.S3Store
		producer *kafka.Producer
	)
	g, gctx := errgroup.WithContext(ctx)
	if cfg.Database.URL != "" {
		g.Go(func() error {
			var err error
			if db, err = postgres.Open(gctx, cfg.Database); err != nil {
				return err
			}
			if cfg.Database.AutoMigrate {
				return postgres.Migrate(gctx, db)
			}
			return nil
		})
	}
	g.Go(func() error {
		var err error
		rc, err = redis.New(gctx, cfg.Redis)
		return err
	})
	if cfg.S3.Bucket != "" {
		g.Go(func() error {
			var err error
			images, err = blob.NewS3(gctx, cfg.S3)
			return err
		})
	}
	g.Go(func() error {
		var err error
		producer, err = kafka.NewProducer(cfg.Kafka)
		return err
	})

	d := &infra{healthChecks: map[string]httptransport.HealthCheck{}}
	if err := g.Wait(); err != nil {
		if db != nil {
			_ = db.Close()
		}
		if rc != nil {
			_ = rc.Close()
		}
		if producer != nil {
			producer.Close()
		}
		return nil, fmt.Errorf("connect infrastructure: %w", err)
	}

	if db != nil {
		d.storage = "postgres"
		d.profiles = profilestore.NewPostgres(db)
		d.audit = historystore.NewPostgres(db)
		d.catalog = eventsstore.NewPostgresCatalog(db)
		d.ledger = eventsstore.NewPostgresLedger(db)
		d.runner = tx.NewSQLRunner(db)
		d.directory = directorystore.NewPostgres(db)
		d.healthChecks["postgres"] = db.PingContext
		d.closers = append(d.closers, func() { _ = db.Close() })
	} else {
		log.Warn("DATABASE_URL not set, using in-memory stores")
		profiles := profilestore.NewInMemory()
		audit := historystore.NewInMemory()
		catalog := eventsstore.NewInMemoryCatalog()
		ledger := eventsstore.NewInMemoryLedger()
		d.storage = "memory"
		d.profiles = profiles
		d.audit = audit
		d.catalog = catalog
		d.ledger = ledger
		d.runner = tx.NewMemoryRunner(profiles, audit, catalog, ledger)
		d.directory = directorystore.NewInMemory()
	}

	if rc != nil {
		if cfg.Redis.IdentityTTL > 0 {
			d.directory = directorycache.New(rc.Client, d.directory, cfg.Redis.IdentityTTL, log)
		}
		d.healthChecks["redis"] = rc.Health
		d.closers = append(d.closers, func() { _ = rc.Close() })
	}
	if images != nil {
		d.images = images
	}
	if producer != nil {
		d.producer = producer
		d.healthChecks["kafka"] = producer.Ping
		d.closers = append(d.closers, producer.Close)
	}
	return d, nil
}
