// Package repository provides access to the lab profile catalog: the
// researchers and projects shown on the dashboard.
//
// # Backends
//
// Two implementations of CatalogRepository exist:
//
//   - FileCatalog: loads the JSON dataset exports once at startup.
//   - PgCatalogRepository: reads the catalog from PostgreSQL. The tables are
//     filled by the labstats CLI (catalog import) from the same exports.
//
// Both preserve dataset order: listings come back in the order profiles
// first appear in the export.
//
// # Error Handling
//
// Lookups of unknown profiles return *domain.NotFoundError, which matches
// domain.ErrNotFound. Database errors are wrapped with fmt.Errorf and %w.
//
// # Transactions
//
// PgCatalogRepository works on DBTX, so an import can run inside
// database.DB.WithTransaction:
//
//	err := db.WithTransaction(ctx, func(tx pgx.Tx) error {
//	    repo := repository.NewPgCatalogRepository(tx)
//	    _, err := repo.UpsertResearchers(ctx, researchers)
//	    return err
//	})
package repository

import (
	"context"

	"github.com/helixir/lab-stats-service/internal/database"
	"github.com/helixir/lab-stats-service/internal/domain"
)

// DBTX is the database interface supporting both pool and transaction contexts.
type DBTX = database.DBTX

// ResearcherRepository reads researcher profiles.
type ResearcherRepository interface {
	// ListResearchers returns researchers in dataset order. A non-empty
	// category keeps only researchers of exactly that category.
	ListResearchers(ctx context.Context, category string) ([]*domain.Researcher, error)

	// GetResearcher returns the researcher with the given unique id.
	// Returns domain.ErrNotFound if no researcher matches.
	GetResearcher(ctx context.Context, id string) (*domain.Researcher, error)
}

// ProjectRepository reads project profiles.
type ProjectRepository interface {
	// ListProjects returns projects in dataset order.
	ListProjects(ctx context.Context) ([]*domain.Project, error)

	// GetProject returns the project whose unique id is idOrName, or failing
	// that the first project whose name (NOM) is idOrName.
	// Returns domain.ErrNotFound if neither matches.
	GetProject(ctx context.Context, idOrName string) (*domain.Project, error)
}

// CatalogRepository is the full read side of the profile catalog.
type CatalogRepository interface {
	ResearcherRepository
	ProjectRepository
}
