//go:build integration

package database

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

// setupTestDB starts a throwaway PostgreSQL container and connects to it.
func setupTestDB(t *testing.T) *DB {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	ctr, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("lab_stats_test"),
		postgres.WithUsername("labstats"),
		postgres.WithPassword("labstats"),
		postgres.BasicWaitStrategies(),
	)
	testcontainers.CleanupContainer(t, ctr)
	require.NoError(t, err)

	host, err := ctr.Host(ctx)
	require.NoError(t, err)
	port, err := ctr.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)

	cfg := testDatabaseConfig()
	cfg.Host = host
	cfg.Port = port.Int()
	cfg.User = "labstats"
	cfg.Password = "labstats"
	cfg.Name = "lab_stats_test"

	db, err := New(ctx, cfg, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(db.Close)

	return db
}

// getMigrationsPath returns the repository's migrations directory.
func getMigrationsPath(t *testing.T) string {
	t.Helper()

	cwd, err := os.Getwd()
	require.NoError(t, err)

	// internal/database -> repository root
	migrationsPath := filepath.Join(cwd, "..", "..", "migrations")
	if _, err := os.Stat(migrationsPath); os.IsNotExist(err) {
		t.Skipf("Skipping test: migrations directory not found at %s", migrationsPath)
	}

	return migrationsPath
}

func TestDB_Integration(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	t.Run("health is healthy", func(t *testing.T) {
		health := db.Health(ctx)
		assert.True(t, health.Healthy())
		assert.GreaterOrEqual(t, health.MaxConns, int32(1))
	})

	t.Run("transaction commits", func(t *testing.T) {
		var result int
		err := db.WithTransaction(ctx, func(tx pgx.Tx) error {
			return tx.QueryRow(ctx, "SELECT 42").Scan(&result)
		})
		require.NoError(t, err)
		assert.Equal(t, 42, result)
	})

	t.Run("transaction error is returned after rollback", func(t *testing.T) {
		expectedErr := errors.New("intentional failure")
		err := db.WithTransaction(ctx, func(tx pgx.Tx) error {
			return expectedErr
		})
		assert.Equal(t, expectedErr, err)
	})

	t.Run("panic rolls back and re-panics", func(t *testing.T) {
		assert.Panics(t, func() {
			_ = db.WithTransaction(ctx, func(tx pgx.Tx) error {
				panic("intentional panic")
			})
		})
	})

	t.Run("batch through DBTX", func(t *testing.T) {
		var dbtx DBTX = db
		batch := &pgx.Batch{}
		batch.Queue("SELECT 1")
		batch.Queue("SELECT 2")

		br := dbtx.SendBatch(ctx, batch)
		defer br.Close()

		var v1, v2 int
		require.NoError(t, br.QueryRow().Scan(&v1))
		require.NoError(t, br.QueryRow().Scan(&v2))
		assert.Equal(t, []int{1, 2}, []int{v1, v2})
	})
}

func TestMigrator_Integration(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	migrator, err := NewMigrator(db, getMigrationsPath(t), zerolog.Nop())
	require.NoError(t, err)
	defer migrator.Close()

	t.Run("fresh database has no version", func(t *testing.T) {
		status, err := migrator.Status(ctx)
		require.NoError(t, err)
		assert.False(t, status.Applied)
		assert.Equal(t, []TableStatus{{Name: "researchers"}, {Name: "projects"}}, status.Tables)
	})

	require.NoError(t, migrator.Up())

	t.Run("up creates the catalog tables", func(t *testing.T) {
		_, err := db.Exec(ctx, `INSERT INTO researchers (id, name) VALUES ('Jane Doe', 'Jane Doe')`)
		require.NoError(t, err)

		status, err := migrator.Status(ctx)
		require.NoError(t, err)
		assert.Equal(t, SchemaVersion{Version: 1, Applied: true}, status.SchemaVersion)
		assert.Equal(t, []TableStatus{
			{Name: "researchers", Exists: true, Rows: 1},
			{Name: "projects", Exists: true},
		}, status.Tables)
	})

	t.Run("up again is a no-op", func(t *testing.T) {
		assert.NoError(t, migrator.Up())
	})

	t.Run("steps past the last migration", func(t *testing.T) {
		assert.NoError(t, migrator.Steps(1))
	})

	t.Run("down drops the catalog", func(t *testing.T) {
		require.NoError(t, migrator.Down())

		tables, err := CatalogStatus(ctx, db)
		require.NoError(t, err)
		for _, table := range tables {
			assert.False(t, table.Exists, table.Name)
		}
	})
}

func TestMigrateUp_Integration(t *testing.T) {
	db := setupTestDB(t)
	require.NoError(t, MigrateUp(db, getMigrationsPath(t), zerolog.Nop()))
	require.NoError(t, MigrateUp(db, getMigrationsPath(t), zerolog.Nop()))
}
