package httpserver

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/helixir/lab-stats-service/internal/domain"
	"github.com/helixir/lab-stats-service/internal/observability"
)

// listResearchers handles GET /researchers. The optional category parameter
// keeps researchers of exactly that category.
func (s *Server) listResearchers(w http.ResponseWriter, r *http.Request) {
	researchers, err := s.catalog.ListResearchers(r.Context(), r.URL.Query().Get("category"))
	if err != nil {
		s.logError(r, err, "failed to list researchers")
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, researchers)
}

// getResearcher handles GET /researchers/{id}: the catalog profile plus HAL
// and DBLP statistics for the researcher's name.
func (s *Server) getResearcher(w http.ResponseWriter, r *http.Request) {
	q, err := s.parseStatsQuery(r)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	researcher, err := s.catalog.GetResearcher(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.logError(r, err, "failed to get researcher")
		writeDomainError(w, err)
		return
	}

	ctx := observability.WithSubject(r.Context(), string(domain.SubjectKindPerson), researcher.Name)
	result := s.stats.PersonStats(ctx, q.request(domain.SubjectKindPerson, researcher.Name))

	writeJSON(w, http.StatusOK, researcherDetailResponse{
		Profile: researcher,
		Stats:   result,
	})
}

// listProjects handles GET /projects.
func (s *Server) listProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := s.catalog.ListProjects(r.Context())
	if err != nil {
		s.logError(r, err, "failed to list projects")
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, projects)
}

// getProject handles GET /projects/{id}. The id may also be the project name.
func (s *Server) getProject(w http.ResponseWriter, r *http.Request) {
	q, err := s.parseStatsQuery(r)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	project, err := s.catalog.GetProject(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.logError(r, err, "failed to get project")
		writeDomainError(w, err)
		return
	}

	ctx := observability.WithSubject(r.Context(), string(domain.SubjectKindProject), project.Name)
	result := s.stats.ProjectStats(ctx, q.request(domain.SubjectKindProject, project.Name))

	writeJSON(w, http.StatusOK, projectDetailResponse{
		Profile: project,
		Stats:   result,
	})
}

// getLabStats handles GET /lab/stats. The optional acronym parameter looks
// up another HAL structure; the default is the configured lab.
func (s *Server) getLabStats(w http.ResponseWriter, r *http.Request) {
	q, err := s.parseStatsQuery(r)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	acronym := strings.TrimSpace(r.URL.Query().Get("acronym"))
	if acronym == "" {
		acronym = s.stats.Lab().Acronym
	}

	ctx := observability.WithSubject(r.Context(), string(domain.SubjectKindLab), acronym)
	writeJSON(w, http.StatusOK, s.stats.LabStats(ctx, q.request(domain.SubjectKindLab, acronym)))
}

// getPersonStats handles GET /stats/person?name=, a lookup for any name,
// catalogued or not.
func (s *Server) getPersonStats(w http.ResponseWriter, r *http.Request) {
	q, ok := s.requireName(w, r)
	if !ok {
		return
	}

	ctx := observability.WithSubject(r.Context(), string(domain.SubjectKindPerson), q.Name)
	writeJSON(w, http.StatusOK, subjectStatsResponse{
		Subject: q.Name,
		Stats:   s.stats.PersonStats(ctx, q.request(domain.SubjectKindPerson, q.Name)),
	})
}

// getProjectStats handles GET /stats/project?name=.
func (s *Server) getProjectStats(w http.ResponseWriter, r *http.Request) {
	q, ok := s.requireName(w, r)
	if !ok {
		return
	}

	ctx := observability.WithSubject(r.Context(), string(domain.SubjectKindProject), q.Name)
	writeJSON(w, http.StatusOK, subjectStatsResponse{
		Subject: q.Name,
		Stats:   s.stats.ProjectStats(ctx, q.request(domain.SubjectKindProject, q.Name)),
	})
}

func (s *Server) requireName(w http.ResponseWriter, r *http.Request) (statsQuery, bool) {
	q, err := s.parseStatsQuery(r)
	if err != nil {
		writeDomainError(w, err)
		return q, false
	}
	if q.Name == "" {
		writeDomainError(w, domain.NewValidationError("name", "is required"))
		return q, false
	}
	return q, true
}

// logError logs unexpected catalog failures. Not-found lookups are routine
// and logged at debug.
func (s *Server) logError(r *http.Request, err error, msg string) {
	log := observability.LoggerFromContext(r.Context(), s.logger)
	if errors.Is(err, domain.ErrNotFound) {
		log.Debug().Err(err).Msg(msg)
		return
	}
	log.Error().Err(err).Str("path", r.URL.Path).Msg(msg)
}
