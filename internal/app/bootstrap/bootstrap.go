package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	interactionengine "qconnect/contexts/community-experience/interaction-engine"
	"qconnect/contexts/community-experience/interaction-engine/adapters/fixtures"
	postgresadapter "qconnect/contexts/community-experience/interaction-engine/adapters/postgres"
	workerapp "qconnect/contexts/community-experience/interaction-engine/application/workers"
	"qconnect/internal/platform/config"
	"qconnect/internal/platform/db"
	"qconnect/internal/platform/httpserver"
	"qconnect/internal/platform/messaging"

	"golang.org/x/sync/errgroup"
)

// Package bootstrap is the composition root.
// Keep construction/wiring here so module code stays framework-agnostic.

var ErrPostgresRequired = errors.New("worker requires catalog.source=postgres and POSTGRES_DSN")

type APIApp struct {
	server   *httpserver.Server
	module   interactionengine.Module
	postgres *db.Postgres
	// embedded is set in fixture mode, where no separate worker process can
	// reach the in-memory outbox.
	embedded *relayLoop
	logger   *slog.Logger
}

type WorkerApp struct {
	postgres *db.Postgres
	loop     relayLoop
	logger   *slog.Logger
}

type relayLoop struct {
	relay        workerapp.OutboxRelay
	projector    *workerapp.ChangeProjector
	pollInterval time.Duration
	logger       *slog.Logger
}

// Runtime is a loaded interaction module plus whatever backs it.
type Runtime struct {
	Module     interactionengine.Module
	Postgres   *db.Postgres
	Repository *postgresadapter.Repository
}

func (r *Runtime) Close() error {
	if r == nil || r.Postgres == nil {
		return nil
	}
	return r.Postgres.Close()
}

// OpenRuntime loads the catalog from the configured source into an in-memory
// module. With Postgres, change notifications go to the database outbox.
func OpenRuntime(ctx context.Context, cfg config.Config, logger *slog.Logger) (*Runtime, error) {
	if cfg.Catalog.Source != config.CatalogSourcePostgres {
		module, err := interactionengine.NewInMemoryModule(ctx, fixtures.Source{
			SeedActorID: cfg.Catalog.SeedActorID,
		}, nil, logger)
		if err != nil {
			return nil, err
		}
		limitSessions(module, cfg.Session)
		return &Runtime{Module: module}, nil
	}

	pg, err := db.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}
	repo := postgresadapter.NewRepository(pg.DB, logger)
	module, err := interactionengine.NewInMemoryModule(ctx, repo, repo, logger)
	if err != nil {
		_ = pg.Close()
		return nil, err
	}
	limitSessions(module, cfg.Session)
	return &Runtime{Module: module, Postgres: pg, Repository: repo}, nil
}

func limitSessions(module interactionengine.Module, cfg config.SessionConfig) {
	module.Sessions.IdleTTL = cfg.IdleTTL
	module.Sessions.MaxSessions = cfg.MaxSessions
}

func BuildAPI(ctx context.Context, cfg config.Config, logger *slog.Logger) (*APIApp, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("service", cfg.ServiceName, "process", "api")

	runtime, err := OpenRuntime(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	app := &APIApp{
		server:   httpserver.New(runtime.Module, logger, normalizeAddr(cfg.HTTPPort)),
		module:   runtime.Module,
		postgres: runtime.Postgres,
		logger:   logger,
	}
	if runtime.Postgres == nil {
		bus, err := messaging.NewBus(cfg.KafkaBrokers, logger)
		if err != nil {
			return nil, err
		}
		store := runtime.Module.Store
		loop := &relayLoop{
			relay: workerapp.OutboxRelay{
				Outbox:    store,
				Publisher: bus,
				Clock:     store,
				BatchSize: cfg.Outbox.BatchSize,
				Logger:    logger,
			},
			pollInterval: cfg.Outbox.PollInterval,
			logger:       logger,
		}
		if cfg.EnableChangeProjector {
			loop.projector = &workerapp.ChangeProjector{
				Subscriber: bus,
				Projection: store,
				Logger:     logger,
			}
		}
		app.embedded = loop
	}
	return app, nil
}

func BuildWorker(ctx context.Context, cfg config.Config, logger *slog.Logger) (*WorkerApp, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("service", cfg.ServiceName, "process", "worker")
	if cfg.Catalog.Source != config.CatalogSourcePostgres || strings.TrimSpace(cfg.PostgresDSN) == "" {
		return nil, ErrPostgresRequired
	}

	pg, err := db.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}
	bus, err := messaging.NewBus(cfg.KafkaBrokers, logger)
	if err != nil {
		_ = pg.Close()
		return nil, err
	}

	repo := postgresadapter.NewRepository(pg.DB, logger)
	app := &WorkerApp{
		postgres: pg,
		loop: relayLoop{
			relay: workerapp.OutboxRelay{
				Outbox:    repo,
				Publisher: bus,
				Clock:     postgresadapter.SystemClock{},
				BatchSize: cfg.Outbox.BatchSize,
				Logger:    logger,
			},
			pollInterval: cfg.Outbox.PollInterval,
			logger:       logger,
		},
		logger: logger,
	}
	if cfg.EnableChangeProjector {
		app.loop.projector = &workerapp.ChangeProjector{
			Subscriber: bus,
			Projection: repo,
			Logger:     logger,
		}
	}
	return app, nil
}

// Seed writes the built-in catalog into Postgres.
func Seed(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		return ErrPostgresRequired
	}
	pg, err := db.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		return err
	}
	defer pg.Close()

	catalog, err := fixtures.Source{SeedActorID: cfg.Catalog.SeedActorID}.LoadCatalog(ctx)
	if err != nil {
		return err
	}
	return postgresadapter.NewRepository(pg.DB, logger).Seed(ctx, catalog)
}

func (a *APIApp) Module() interactionengine.Module {
	return a.module
}

func (a *APIApp) Run(ctx context.Context) error {
	a.logger.Info("api app started",
		"event", "bootstrap_api_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"embedded_relay", a.embedded != nil,
	)

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return a.server.Start(groupCtx)
	})
	if a.embedded != nil {
		group.Go(func() error {
			return a.embedded.run(groupCtx)
		})
	}
	return group.Wait()
}

func (a *APIApp) Close() error {
	if a.postgres != nil {
		return a.postgres.Close()
	}
	return nil
}

func (w *WorkerApp) Run(ctx context.Context) error {
	w.logger.Info("worker app started",
		"event", "bootstrap_worker_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"poll_interval", w.loop.pollInterval.String(),
	)
	return w.loop.run(ctx)
}

func (w *WorkerApp) Close() error {
	if w.postgres != nil {
		return w.postgres.Close()
	}
	return nil
}

func (l *relayLoop) run(ctx context.Context) error {
	if l.projector != nil {
		if err := l.projector.Start(ctx); err != nil {
			return err
		}
	}

	interval := l.pollInterval
	if interval <= 0 {
		interval = 2 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if _, err := l.relay.RunOnce(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			// A failed cycle leaves rows pending; the next tick retries them.
			l.logger.Warn("outbox relay cycle failed",
				"event", "bootstrap_relay_cycle_failed",
				"module", "internal/app/bootstrap",
				"layer", "platform",
				"error", err.Error(),
			)
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func normalizeAddr(port string) string {
	value := strings.TrimSpace(port)
	if value == "" {
		return ":8080"
	}
	if strings.HasPrefix(value, ":") {
		return value
	}
	return ":" + value
}
