package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/phrazzld/resource-api/internal/config"
	"github.com/phrazzld/resource-api/internal/events"
	"github.com/phrazzld/resource-api/internal/fixtures"
	"github.com/phrazzld/resource-api/internal/platform/memory"
	"github.com/phrazzld/resource-api/internal/platform/postgres"
	"github.com/phrazzld/resource-api/internal/query"
	"github.com/phrazzld/resource-api/internal/resource"
	"github.com/phrazzld/resource-api/internal/service"
	"github.com/phrazzld/resource-api/internal/store"
)

// application holds the shared dependencies of the server and releases
// them on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger

	// db is nil for the memory backend.
	db       *sql.DB
	store    store.RecordStore
	registry *resource.Registry

	eventEmitter    *events.InMemoryEventEmitter
	resourceService service.ResourceService
}

// newApplication builds the store selected by cfg, seeds fixtures when
// enabled and wires the resource service.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*application, error) {
	app := &application{
		config:   cfg,
		logger:   logger,
		registry: resource.DefaultRegistry(),
	}

	switch cfg.Store.Backend {
	case config.BackendPostgres:
		db, err := setupAppDatabase(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}
		app.db = db
		app.store = postgres.NewRecordStore(db, logger)
	default:
		app.store = memory.NewRecordStore(logger)
	}

	if err := app.store.Connect(ctx); err != nil {
		app.cleanup(ctx)
		return nil, fmt.Errorf("failed to connect record store: %w", err)
	}

	if cfg.Fixtures.Seed {
		if err := app.seedFixtures(ctx); err != nil {
			app.cleanup(ctx)
			return nil, err
		}
	}

	app.eventEmitter = events.NewInMemoryEventEmitter(logger)
	app.eventEmitter.RegisterHandler(events.NewAuditHandler(logger))

	svc, err := service.NewResourceService(app.store, app.registry, query.Options{
		DefaultLimit: cfg.Pagination.DefaultLimit,
		MaxLimit:     cfg.Pagination.MaxLimit,
	}, logger, service.WithEventEmitter(app.eventEmitter))
	if err != nil {
		app.cleanup(ctx)
		return nil, fmt.Errorf("failed to create resource service: %w", err)
	}
	app.resourceService = svc

	logger.Info("Application initialized successfully",
		"resource_types", app.registry.Names())
	return app, nil
}

// seedFixtures replaces the bundled collections with the bundled records.
func (app *application) seedFixtures(ctx context.Context) error {
	set, err := fixtures.Default()
	if err != nil {
		return fmt.Errorf("failed to read fixtures: %w", err)
	}
	if err := fixtures.Reset(ctx, app.store, set); err != nil {
		return fmt.Errorf("failed to seed fixtures: %w", err)
	}
	return nil
}

// Run serves HTTP until ctx is canceled or the server fails.
func (app *application) Run(ctx context.Context) error {
	if err := app.startHTTPServer(ctx, app.setupRouter()); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// cleanup releases the store and, through it, the database connection.
func (app *application) cleanup(ctx context.Context) {
	if app.store != nil {
		if err := app.store.Disconnect(ctx); err != nil {
			app.logger.Error("Error disconnecting record store", "error", err)
		}
	} else if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("Error closing database connection", "error", err)
		}
	}
	app.logger.Info("Application shutdown completed")
}
