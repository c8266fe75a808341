package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/helixir/lab-stats-service/internal/domain"
)

// Compile-time interface verification.
var _ CatalogRepository = (*PgCatalogRepository)(nil)

// PgCatalogRepository is a PostgreSQL implementation of CatalogRepository.
type PgCatalogRepository struct {
	db DBTX
}

// NewPgCatalogRepository creates a new PostgreSQL catalog repository.
func NewPgCatalogRepository(db DBTX) *PgCatalogRepository {
	return &PgCatalogRepository{db: db}
}

// ListResearchers implements ResearcherRepository.
func (r *PgCatalogRepository) ListResearchers(ctx context.Context, category string) ([]*domain.Researcher, error) {
	query := `
		SELECT id, name, category, details
		FROM researchers
		WHERE $1 = '' OR category = $1
		ORDER BY ordinal, id`

	rows, err := r.db.Query(ctx, query, category)
	if err != nil {
		return nil, fmt.Errorf("failed to list researchers: %w", err)
	}
	defer rows.Close()

	researchers := make([]*domain.Researcher, 0)
	for rows.Next() {
		researcher, err := scanResearcher(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan researcher: %w", err)
		}
		researchers = append(researchers, researcher)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate researchers: %w", err)
	}

	return researchers, nil
}

// GetResearcher implements ResearcherRepository.
func (r *PgCatalogRepository) GetResearcher(ctx context.Context, id string) (*domain.Researcher, error) {
	query := `
		SELECT id, name, category, details
		FROM researchers
		WHERE id = $1`

	researcher, err := scanResearcher(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewNotFoundError("researcher", id)
		}
		return nil, fmt.Errorf("failed to get researcher: %w", err)
	}

	return researcher, nil
}

// ListProjects implements ProjectRepository.
func (r *PgCatalogRepository) ListProjects(ctx context.Context) ([]*domain.Project, error) {
	query := `
		SELECT id, name, type, details
		FROM projects
		ORDER BY ordinal, id`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	projects := make([]*domain.Project, 0)
	for rows.Next() {
		project, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		projects = append(projects, project)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate projects: %w", err)
	}

	return projects, nil
}

// GetProject implements ProjectRepository. An id match always ranks before a
// name match.
func (r *PgCatalogRepository) GetProject(ctx context.Context, idOrName string) (*domain.Project, error) {
	query := `
		SELECT id, name, type, details
		FROM projects
		WHERE id = $1 OR name = $1
		ORDER BY (id = $1) DESC, ordinal
		LIMIT 1`

	project, err := scanProject(r.db.QueryRow(ctx, query, idOrName))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewNotFoundError("project", idOrName)
		}
		return nil, fmt.Errorf("failed to get project: %w", err)
	}

	return project, nil
}

// UpsertResearchers creates or replaces researchers in a single batch. Slice
// position becomes the listing order.
func (r *PgCatalogRepository) UpsertResearchers(ctx context.Context, researchers []*domain.Researcher) (int, error) {
	if len(researchers) == 0 {
		return 0, nil
	}

	for i, researcher := range researchers {
		if researcher == nil {
			return 0, domain.NewValidationError("researcher", fmt.Sprintf("researcher at index %d is nil", i))
		}
		if researcher.ID == "" {
			return 0, domain.NewValidationError("id", fmt.Sprintf("researcher at index %d has no id", i))
		}
	}

	query := `
		INSERT INTO researchers (id, name, category, details, ordinal, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			category = EXCLUDED.category,
			details = EXCLUDED.details,
			ordinal = EXCLUDED.ordinal,
			updated_at = NOW()`

	batch := &pgx.Batch{}
	for i, researcher := range researchers {
		detailsJSON, err := marshalDetails(researcher.Details)
		if err != nil {
			return 0, err
		}
		batch.Queue(query, researcher.ID, researcher.Name, researcher.Category, detailsJSON, i)
	}

	return r.execBatch(ctx, batch, len(researchers), "researcher")
}

// UpsertProjects creates or replaces projects in a single batch. Slice
// position becomes the listing order.
func (r *PgCatalogRepository) UpsertProjects(ctx context.Context, projects []*domain.Project) (int, error) {
	if len(projects) == 0 {
		return 0, nil
	}

	for i, project := range projects {
		if project == nil {
			return 0, domain.NewValidationError("project", fmt.Sprintf("project at index %d is nil", i))
		}
		if project.ID == "" {
			return 0, domain.NewValidationError("id", fmt.Sprintf("project at index %d has no id", i))
		}
	}

	query := `
		INSERT INTO projects (id, name, type, details, ordinal, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			type = EXCLUDED.type,
			details = EXCLUDED.details,
			ordinal = EXCLUDED.ordinal,
			updated_at = NOW()`

	batch := &pgx.Batch{}
	for i, project := range projects {
		detailsJSON, err := marshalDetails(project.Details)
		if err != nil {
			return 0, err
		}
		batch.Queue(query, project.ID, project.Name, project.Type, detailsJSON, i)
	}

	return r.execBatch(ctx, batch, len(projects), "project")
}

func (r *PgCatalogRepository) execBatch(ctx context.Context, batch *pgx.Batch, n int, entity string) (int, error) {
	br := r.db.SendBatch(ctx, batch)
	defer br.Close()

	for i := 0; i < n; i++ {
		if _, err := br.Exec(); err != nil {
			return i, fmt.Errorf("failed to upsert %s at index %d: %w", entity, i, err)
		}
	}
	return n, nil
}

func marshalDetails(details map[string]any) ([]byte, error) {
	if details == nil {
		return []byte("{}"), nil
	}
	b, err := json.Marshal(details)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal details: %w", err)
	}
	return b, nil
}

func unmarshalDetails(b []byte) (map[string]any, error) {
	details := make(map[string]any)
	if len(b) == 0 {
		return details, nil
	}
	if err := json.Unmarshal(b, &details); err != nil {
		return nil, fmt.Errorf("failed to unmarshal details: %w", err)
	}
	return details, nil
}

func scanResearcher(row pgx.Row) (*domain.Researcher, error) {
	var (
		researcher  domain.Researcher
		detailsJSON []byte
	)
	if err := row.Scan(&researcher.ID, &researcher.Name, &researcher.Category, &detailsJSON); err != nil {
		return nil, err
	}
	details, err := unmarshalDetails(detailsJSON)
	if err != nil {
		return nil, err
	}
	researcher.Details = details
	return &researcher, nil
}

func scanProject(row pgx.Row) (*domain.Project, error) {
	var (
		project     domain.Project
		detailsJSON []byte
	)
	if err := row.Scan(&project.ID, &project.Name, &project.Type, &detailsJSON); err != nil {
		return nil, err
	}
	details, err := unmarshalDetails(detailsJSON)
	if err != nil {
		return nil, err
	}
	project.Details = details
	return &project, nil
}
