package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"

	"github.com/helixir/lab-stats-service/internal/domain"
)

// Compile-time interface verification.
var _ CatalogRepository = (*FileCatalog)(nil)

// FileCatalog is an in-memory catalog loaded from the dataset exports.
//
// An export is either an object or a list whose first element is that object.
// The object's "data" member maps a group name to a list of profiles:
//
//	[{"data": {"Permanents": [{"name": "Jane Doe", ...}], "Doctorants": [...]}}]
//
// Researchers take their group as category and default their id to their
// name. Projects take their group as type and default their id to NOM.
// When two profiles share an id the later one wins but keeps the earlier
// position.
type FileCatalog struct {
	researchers     []*domain.Researcher
	researcherIndex map[string]int
	projects        []*domain.Project
	projectIndex    map[string]int
}

// NewFileCatalog builds a catalog from already loaded profiles.
func NewFileCatalog(researchers []*domain.Researcher, projects []*domain.Project) *FileCatalog {
	c := &FileCatalog{
		researcherIndex: make(map[string]int),
		projectIndex:    make(map[string]int),
	}
	for _, r := range researchers {
		if i, ok := c.researcherIndex[r.ID]; ok {
			c.researchers[i] = r
			continue
		}
		c.researcherIndex[r.ID] = len(c.researchers)
		c.researchers = append(c.researchers, r)
	}
	for _, p := range projects {
		if i, ok := c.projectIndex[p.ID]; ok {
			c.projects[i] = p
			continue
		}
		c.projectIndex[p.ID] = len(c.projects)
		c.projects = append(c.projects, p)
	}
	return c
}

// LoadFileCatalog reads both exports. A missing file yields an empty part of
// the catalog; a malformed one is an error.
func LoadFileCatalog(researchersPath, projectsPath string, logger zerolog.Logger) (*FileCatalog, error) {
	researchers, err := loadExport(researchersPath, logger, ParseResearchers)
	if err != nil {
		return nil, fmt.Errorf("failed to load researchers: %w", err)
	}
	projects, err := loadExport(projectsPath, logger, ParseProjects)
	if err != nil {
		return nil, fmt.Errorf("failed to load projects: %w", err)
	}

	c := NewFileCatalog(researchers, projects)
	logger.Info().
		Int("researchers", len(c.researchers)).
		Int("projects", len(c.projects)).
		Msg("profile catalog loaded")
	return c, nil
}

func loadExport[T any](path string, logger zerolog.Logger, parse func(io.Reader) ([]T, error)) ([]T, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.Warn().Str("path", path).Msg("catalog export not found, starting empty")
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	return parse(f)
}

// ListResearchers implements ResearcherRepository.
func (c *FileCatalog) ListResearchers(_ context.Context, category string) ([]*domain.Researcher, error) {
	out := make([]*domain.Researcher, 0, len(c.researchers))
	for _, r := range c.researchers {
		if category != "" && r.Category != category {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

// GetResearcher implements ResearcherRepository.
func (c *FileCatalog) GetResearcher(_ context.Context, id string) (*domain.Researcher, error) {
	i, ok := c.researcherIndex[id]
	if !ok {
		return nil, domain.NewNotFoundError("researcher", id)
	}
	return c.researchers[i], nil
}

// ListProjects implements ProjectRepository.
func (c *FileCatalog) ListProjects(_ context.Context) ([]*domain.Project, error) {
	out := make([]*domain.Project, len(c.projects))
	copy(out, c.projects)
	return out, nil
}

// GetProject implements ProjectRepository.
func (c *FileCatalog) GetProject(_ context.Context, idOrName string) (*domain.Project, error) {
	if i, ok := c.projectIndex[idOrName]; ok {
		return c.projects[i], nil
	}
	for _, p := range c.projects {
		if p.Name == idOrName {
			return p, nil
		}
	}
	return nil, domain.NewNotFoundError("project", idOrName)
}

// ParseResearchers decodes a researchers export. Profiles without an id or
// name are skipped.
func ParseResearchers(r io.Reader) ([]*domain.Researcher, error) {
	groups, err := parseExport(r)
	if err != nil {
		return nil, err
	}

	var out []*domain.Researcher
	for _, g := range groups {
		for _, details := range g.profiles {
			name := stringField(details, domain.ProfileNameKey)
			id := name
			if _, ok := details[domain.ProfileIDKey]; ok {
				id = stringField(details, domain.ProfileIDKey)
			}
			if id == "" {
				continue
			}
			delete(details, domain.ProfileIDKey)
			delete(details, domain.ProfileNameKey)
			delete(details, domain.ProfileCategoryKey)
			out = append(out, &domain.Researcher{
				ID:       id,
				Name:     name,
				Category: g.name,
				Details:  details,
			})
		}
	}
	return out, nil
}

// ParseProjects decodes a projects export. Profiles without an id or NOM are
// skipped.
func ParseProjects(r io.Reader) ([]*domain.Project, error) {
	groups, err := parseExport(r)
	if err != nil {
		return nil, err
	}

	var out []*domain.Project
	for _, g := range groups {
		for _, details := range g.profiles {
			name := stringField(details, domain.ProjectNameKey)
			id := name
			if _, ok := details[domain.ProfileIDKey]; ok {
				id = stringField(details, domain.ProfileIDKey)
			}
			if id == "" {
				continue
			}
			delete(details, domain.ProfileIDKey)
			delete(details, domain.ProjectNameKey)
			delete(details, domain.ProjectTypeKey)
			out = append(out, &domain.Project{
				ID:      id,
				Name:    name,
				Type:    g.name,
				Details: details,
			})
		}
	}
	return out, nil
}

type exportGroup struct {
	name     string
	profiles []map[string]any
}

// parseExport returns the groups of the export's "data" object in file order.
// Group values that are not lists and list items that are not objects are
// ignored.
func parseExport(r io.Reader) ([]exportGroup, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read export: %w", err)
	}

	root := bytes.TrimSpace(raw)
	if len(root) > 0 && root[0] == '[' {
		var items []json.RawMessage
		if err := json.Unmarshal(root, &items); err != nil {
			return nil, fmt.Errorf("failed to decode export: %w", err)
		}
		if len(items) == 0 {
			return nil, nil
		}
		root = bytes.TrimSpace(items[0])
	}

	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(root, &envelope); err != nil {
		return nil, fmt.Errorf("failed to decode export: %w", err)
	}
	data := bytes.TrimSpace(envelope.Data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil, nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if tok, err := dec.Token(); err != nil || tok != json.Delim('{') {
		return nil, fmt.Errorf("failed to decode export: data is not an object")
	}

	var groups []exportGroup
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("failed to decode export: %w", err)
		}
		name, _ := tok.(string)

		var value any
		if err := dec.Decode(&value); err != nil {
			return nil, fmt.Errorf("failed to decode group %q: %w", name, err)
		}
		items, ok := value.([]any)
		if !ok {
			continue
		}

		g := exportGroup{name: name}
		for _, item := range items {
			if profile, ok := item.(map[string]any); ok {
				g.profiles = append(g.profiles, profile)
			}
		}
		groups = append(groups, g)
	}
	return groups, nil
}

func stringField(m map[string]any, key string) string {
	switch v := m[key].(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}
