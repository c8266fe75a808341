package repository

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helixir/lab-stats-service/internal/domain"
)

const researchersExport = `[
  {
    "data": {
      "Permanents": [
        {"name": "Jane Doe", "email": "jane@example.org", "category": "stale"},
        {"name": "Bob Roe", "_unique_id": "broe"}
      ],
      "Doctorants": [
        {"name": "Ann Poe"},
        "not a profile",
        {"name": "Jane Doe", "email": "jane@new.example.org"}
      ],
      "Notes": "not a list"
    }
  }
]`

const projectsExport = `{
  "data": {
    "Nationaux": [
      {"NOM": "MAGIC", "ANNEE": 2021},
      {"NOM": "SMART", "_unique_id": "p-smart"}
    ],
    "Internationaux": [
      {"NOM": "ORBIT", "type": "overwritten"}
    ]
  }
}`

func TestParseResearchers(t *testing.T) {
	researchers, err := ParseResearchers(strings.NewReader(researchersExport))
	require.NoError(t, err)
	require.Len(t, researchers, 4)

	assert.Equal(t, "Jane Doe", researchers[0].ID)
	assert.Equal(t, "Permanents", researchers[0].Category)
	assert.Equal(t, "jane@example.org", researchers[0].Details["email"])
	assert.NotContains(t, researchers[0].Details, "category")

	assert.Equal(t, "broe", researchers[1].ID)
	assert.Equal(t, "Bob Roe", researchers[1].Name)
	assert.NotContains(t, researchers[1].Details, "_unique_id")

	assert.Equal(t, "Doctorants", researchers[2].Category)
}

func TestParseProjects(t *testing.T) {
	projects, err := ParseProjects(strings.NewReader(projectsExport))
	require.NoError(t, err)
	require.Len(t, projects, 3)

	assert.Equal(t, "MAGIC", projects[0].ID)
	assert.Equal(t, "Nationaux", projects[0].Type)
	assert.Equal(t, json.Number("2021"), projects[0].Details["ANNEE"])

	assert.Equal(t, "p-smart", projects[1].ID)
	assert.Equal(t, "SMART", projects[1].Name)

	assert.Equal(t, "Internationaux", projects[2].Type)
}

func TestParseExport_Shapes(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    int
		wantErr bool
	}{
		{name: "empty list", input: `[]`, want: 0},
		{name: "missing data", input: `{"meta": {}}`, want: 0},
		{name: "null data", input: `{"data": null}`, want: 0},
		{name: "object root", input: `{"data": {"A": [{"name": "x"}]}}`, want: 1},
		{name: "only first list element is read", input: `[{"data": {"A": [{"name": "x"}]}}, {"data": {"B": [{"name": "y"}]}}]`, want: 1},
		{name: "data is not an object", input: `{"data": [1, 2]}`, wantErr: true},
		{name: "invalid json", input: `{"data": `, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			researchers, err := ParseResearchers(strings.NewReader(tt.input))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Len(t, researchers, tt.want)
		})
	}
}

func TestParseResearchers_SkipsProfilesWithoutIdentity(t *testing.T) {
	researchers, err := ParseResearchers(strings.NewReader(`{"data": {"A": [{"email": "x@y.z"}, {"name": "Kept"}]}}`))
	require.NoError(t, err)
	require.Len(t, researchers, 1)
	assert.Equal(t, "Kept", researchers[0].ID)
}

func newTestFileCatalog(t *testing.T) *FileCatalog {
	t.Helper()

	researchers, err := ParseResearchers(strings.NewReader(researchersExport))
	require.NoError(t, err)
	projects, err := ParseProjects(strings.NewReader(projectsExport))
	require.NoError(t, err)

	return NewFileCatalog(researchers, projects)
}

func TestFileCatalog_Researchers(t *testing.T) {
	ctx := context.Background()
	c := newTestFileCatalog(t)

	t.Run("duplicate id keeps first position with last value", func(t *testing.T) {
		all, err := c.ListResearchers(ctx, "")
		require.NoError(t, err)
		require.Len(t, all, 3)

		assert.Equal(t, "Jane Doe", all[0].ID)
		assert.Equal(t, "Doctorants", all[0].Category)
		assert.Equal(t, "jane@new.example.org", all[0].Details["email"])
		assert.Equal(t, "broe", all[1].ID)
		assert.Equal(t, "Ann Poe", all[2].ID)
	})

	t.Run("filters by exact category", func(t *testing.T) {
		permanents, err := c.ListResearchers(ctx, "Permanents")
		require.NoError(t, err)
		require.Len(t, permanents, 1)
		assert.Equal(t, "broe", permanents[0].ID)

		none, err := c.ListResearchers(ctx, "permanents")
		require.NoError(t, err)
		assert.Empty(t, none)
	})

	t.Run("gets by id", func(t *testing.T) {
		r, err := c.GetResearcher(ctx, "broe")
		require.NoError(t, err)
		assert.Equal(t, "Bob Roe", r.Name)
	})

	t.Run("unknown id is not found", func(t *testing.T) {
		_, err := c.GetResearcher(ctx, "Bob Roe")
		assert.True(t, errors.Is(err, domain.ErrNotFound))
	})
}

func TestFileCatalog_Projects(t *testing.T) {
	ctx := context.Background()
	c := newTestFileCatalog(t)

	all, err := c.ListProjects(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	t.Run("by id", func(t *testing.T) {
		p, err := c.GetProject(ctx, "p-smart")
		require.NoError(t, err)
		assert.Equal(t, "SMART", p.Name)
	})

	t.Run("falls back to name", func(t *testing.T) {
		p, err := c.GetProject(ctx, "SMART")
		require.NoError(t, err)
		assert.Equal(t, "p-smart", p.ID)
	})

	t.Run("not found", func(t *testing.T) {
		_, err := c.GetProject(ctx, "UNKNOWN")
		var notFound *domain.NotFoundError
		require.True(t, errors.As(err, &notFound))
		assert.Equal(t, "project", notFound.Entity)
	})
}

func TestLoadFileCatalog(t *testing.T) {
	dir := t.TempDir()
	researchersPath := filepath.Join(dir, "researchers.json")
	require.NoError(t, os.WriteFile(researchersPath, []byte(researchersExport), 0o600))

	t.Run("missing projects file yields empty projects", func(t *testing.T) {
		c, err := LoadFileCatalog(researchersPath, filepath.Join(dir, "missing.json"), zerolog.Nop())
		require.NoError(t, err)

		researchers, _ := c.ListResearchers(context.Background(), "")
		projects, _ := c.ListProjects(context.Background())
		assert.Len(t, researchers, 3)
		assert.Empty(t, projects)
	})

	t.Run("malformed file is an error", func(t *testing.T) {
		bad := filepath.Join(dir, "bad.json")
		require.NoError(t, os.WriteFile(bad, []byte(`{"data":`), 0o600))

		_, err := LoadFileCatalog(researchersPath, bad, zerolog.Nop())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to load projects")
	})
}

func TestProfileJSON(t *testing.T) {
	c := newTestFileCatalog(t)

	r, err := c.GetResearcher(context.Background(), "broe")
	require.NoError(t, err)
	b, err := json.Marshal(r)
	require.NoError(t, err)
	assert.JSONEq(t, `{"_unique_id":"broe","name":"Bob Roe","category":"Permanents"}`, string(b))

	p, err := c.GetProject(context.Background(), "MAGIC")
	require.NoError(t, err)
	b, err = json.Marshal(p)
	require.NoError(t, err)
	assert.JSONEq(t, `{"_unique_id":"MAGIC","NOM":"MAGIC","type":"Nationaux","ANNEE":2021}`, string(b))
}
