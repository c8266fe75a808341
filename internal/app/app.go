// Package app assembles the stats service and the profile catalog from
// configuration. It is shared by the API server and the labstats CLI.
package app

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/helixir/lab-stats-service/internal/config"
	"github.com/helixir/lab-stats-service/internal/database"
	"github.com/helixir/lab-stats-service/internal/observability"
	"github.com/helixir/lab-stats-service/internal/pubsources"
	"github.com/helixir/lab-stats-service/internal/pubsources/dblp"
	"github.com/helixir/lab-stats-service/internal/pubsources/hal"
	"github.com/helixir/lab-stats-service/internal/repository"
	"github.com/helixir/lab-stats-service/internal/stats"
)

// NewStatsService registers the enabled sources and returns the service
// answering person, project and lab lookups.
func NewStatsService(cfg *config.Config, logger zerolog.Logger, metrics *observability.Metrics) *stats.Service {
	registry := pubsources.NewRegistry()
	halClient := registerSources(registry, cfg, logger)

	var facets pubsources.FacetSource
	if halClient != nil {
		facets = halClient
	}

	lab := stats.LabIdentity{Acronym: cfg.Lab.Acronym, Name: cfg.Lab.Name}
	return stats.NewService(registry, facets, lab, logger, metrics)
}

// registerSources registers HAL and DBLP when enabled. The HAL client is
// returned because it also serves lab facets; it is nil when HAL is off.
func registerSources(registry *pubsources.Registry, cfg *config.Config, logger zerolog.Logger) *hal.Client {
	var halClient *hal.Client

	if cfg.Sources.HAL.Enabled {
		halCfg := cfg.Sources.HAL
		halClient = hal.New(hal.Config{
			BaseURL:    halCfg.BaseURL,
			Timeout:    halCfg.Timeout,
			RateLimit:  halCfg.RateLimit,
			MaxRetries: halCfg.MaxRetries,
			FacetLimit: cfg.Lab.FacetLimit,
			Enabled:    true,
		})
		registry.Register(halClient)
		logger.Info().Str("base_url", halCfg.BaseURL).Msg("registered publication source: HAL")
	}

	if cfg.Sources.DBLP.Enabled {
		dblpCfg := cfg.Sources.DBLP
		registry.Register(dblp.New(dblp.Config{
			BaseURL:    dblpCfg.BaseURL,
			Timeout:    dblpCfg.Timeout,
			RateLimit:  dblpCfg.RateLimit,
			MaxRetries: dblpCfg.MaxRetries,
			Enabled:    true,
		}))
		logger.Info().Str("base_url", dblpCfg.BaseURL).Msg("registered publication source: DBLP")
	}

	return halClient
}

// Catalog is an opened profile catalog. DB is set only for the postgres
// backend and must be closed by the caller through Close.
type Catalog struct {
	Repository repository.CatalogRepository
	DB         *database.DB
}

// Close releases the database pool, if any.
func (c *Catalog) Close() {
	if c.DB != nil {
		c.DB.Close()
	}
}

// OpenCatalog opens the configured catalog backend. With the postgres
// backend and migration_auto_run set, pending migrations are applied first.
func OpenCatalog(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*Catalog, error) {
	switch cfg.Catalog.Backend {
	case config.CatalogBackendPostgres:
		db, err := database.New(ctx, &cfg.Database, logger)
		if err != nil {
			return nil, fmt.Errorf("connect to database: %w", err)
		}

		if cfg.Database.MigrationAutoRun {
			if err := database.MigrateUp(db, cfg.Database.MigrationPath, logger); err != nil {
				db.Close()
				return nil, fmt.Errorf("run migrations: %w", err)
			}
		}

		return &Catalog{Repository: repository.NewPgCatalogRepository(db), DB: db}, nil

	case config.CatalogBackendFile:
		fc, err := repository.LoadFileCatalog(cfg.Catalog.ResearchersPath, cfg.Catalog.ProjectsPath, logger)
		if err != nil {
			return nil, err
		}
		return &Catalog{Repository: fc}, nil

	default:
		return nil, fmt.Errorf("unknown catalog backend %q", cfg.Catalog.Backend)
	}
}
