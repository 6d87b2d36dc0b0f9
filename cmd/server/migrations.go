package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/phrazzld/resource-api/internal/config"
	"github.com/phrazzld/resource-api/internal/platform/postgres"
)

// supportedMigrationCommands lists the goose commands exposed by -migrate.
var supportedMigrationCommands = map[string]bool{
	"up":      true,
	"down":    true,
	"reset":   true,
	"status":  true,
	"version": true,
}

// runMigrations applies migrateCmd to the configured database using the
// embedded migrations.
func runMigrations(ctx context.Context, cfg *config.Config, logger *slog.Logger, migrateCmd string) error {
	if !supportedMigrationCommands[migrateCmd] {
		return fmt.Errorf("unsupported migration command %q", migrateCmd)
	}

	db, err := setupAppDatabase(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := db.Close(); cerr != nil {
			logger.Error("Error closing database connection", "error", cerr)
		}
	}()

	logger.Info("Executing migrations", "command", migrateCmd)
	if err := postgres.Migrate(ctx, db, migrateCmd, logger); err != nil {
		return err
	}
	logger.Info("Migrations completed", "command", migrateCmd)
	return nil
}
