//go:build integration

package testdb

import (
	"context"
	"database/sql"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/phrazzld/resource-api/internal/platform/postgres"
	"github.com/phrazzld/resource-api/internal/redact"
	"github.com/stretchr/testify/require"
)

const setupTimeout = 30 * time.Second

// GetTestDB opens a connection to the test database and applies all
// migrations.
func GetTestDB(ctx context.Context) (*sql.DB, error) {
	db, err := sql.Open("pgx", GetTestDatabaseURL())
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := postgres.Migrate(ctx, db, "up", slog.Default()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// GetTestDBWithT returns a migrated connection and closes it when the test
// ends. The test is skipped when no database is configured, unless it runs
// in CI.
func GetTestDBWithT(t *testing.T) *sql.DB {
	t.Helper()
	if ShouldSkipDatabaseTest() {
		if isCIEnvironment() {
			t.Fatalf("no database URL set in CI; set %s", EnvDatabaseURL)
		}
		t.Skipf("%s not set - skipping integration test", EnvDatabaseURL)
	}

	ctx, cancel := context.WithTimeout(context.Background(), setupTimeout)
	defer cancel()

	db, err := GetTestDB(ctx)
	require.NoError(t, err, "failed to prepare test database: %s", redact.Error(err))
	t.Cleanup(func() { CleanupDB(t, db) })
	return db
}

// CleanupDB closes db, reporting failures on t.
func CleanupDB(t *testing.T, db *sql.DB) {
	t.Helper()
	if db == nil {
		return
	}
	if err := db.Close(); err != nil {
		t.Errorf("failed to close database connection: %v", err)
	}
}

// UniqueCollection returns a collection name private to this test and
// deletes its rows when the test ends.
func UniqueCollection(t *testing.T, db *sql.DB, base string) string {
	t.Helper()
	name := base + "_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), setupTimeout)
		defer cancel()
		_, err := db.ExecContext(ctx, "DELETE FROM resource_records WHERE collection = $1", name)
		if err != nil {
			t.Errorf("failed to clean up collection %s: %v", name, err)
		}
	})
	return name
}
