//go:build integration

package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/helixir/lab-stats-service/internal/domain"
)

func setupCatalogDB(t *testing.T) *pgxpool.Pool {
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

	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	m, err := migrate.New("file://../../migrations", dsn)
	require.NoError(t, err)
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		t.Fatalf("migration failed: %v", err)
	}
	srcErr, dbErr := m.Close()
	require.NoError(t, srcErr)
	require.NoError(t, dbErr)

	pool, err := pgxpool.New(context.Background(), dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	return pool
}

func TestPgCatalogRepository_Integration(t *testing.T) {
	pool := setupCatalogDB(t)
	repo := NewPgCatalogRepository(pool)
	ctx := context.Background()

	researchers := []*domain.Researcher{
		{ID: "jdoe", Name: "Jane Doe", Category: "Permanents", Details: map[string]any{"email": "jane@example.org"}},
		{ID: "Ann Poe", Name: "Ann Poe", Category: "Doctorants"},
		{ID: "broe", Name: "Bob Roe", Category: "Permanents"},
	}
	n, err := repo.UpsertResearchers(ctx, researchers)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	projects := []*domain.Project{
		{ID: "p-smart", Name: "SMART", Type: "Nationaux"},
		{ID: "SMART", Name: "Other", Type: "Internationaux"},
	}
	_, err = repo.UpsertProjects(ctx, projects)
	require.NoError(t, err)

	t.Run("lists in import order", func(t *testing.T) {
		all, err := repo.ListResearchers(ctx, "")
		require.NoError(t, err)
		require.Len(t, all, 3)
		assert.Equal(t, []string{"jdoe", "Ann Poe", "broe"}, []string{all[0].ID, all[1].ID, all[2].ID})
		assert.Equal(t, "jane@example.org", all[0].Details["email"])
	})

	t.Run("filters by category", func(t *testing.T) {
		permanents, err := repo.ListResearchers(ctx, "Permanents")
		require.NoError(t, err)
		assert.Len(t, permanents, 2)
	})

	t.Run("id match wins over name match", func(t *testing.T) {
		p, err := repo.GetProject(ctx, "SMART")
		require.NoError(t, err)
		assert.Equal(t, "Other", p.Name)
	})

	t.Run("re-import updates in place", func(t *testing.T) {
		_, err := repo.UpsertResearchers(ctx, []*domain.Researcher{
			{ID: "jdoe", Name: "Jane Doe", Category: "Emeritus"},
		})
		require.NoError(t, err)

		r, err := repo.GetResearcher(ctx, "jdoe")
		require.NoError(t, err)
		assert.Equal(t, "Emeritus", r.Category)
		assert.Empty(t, r.Details)
	})

	t.Run("unknown researcher", func(t *testing.T) {
		_, err := repo.GetResearcher(ctx, "nobody")
		assert.True(t, errors.Is(err, domain.ErrNotFound))
	})
}
