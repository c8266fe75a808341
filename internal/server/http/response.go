package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/helixir/lab-stats-service/internal/domain"
	"github.com/helixir/lab-stats-service/internal/stats"
)

// researcherDetailResponse is the body of GET /researchers/{id}.
type researcherDetailResponse struct {
	Profile *domain.Researcher  `json:"profile"`
	Stats   *stats.PersonResult `json:"stats"`
}

// projectDetailResponse is the body of GET /projects/{id}.
type projectDetailResponse struct {
	Profile *domain.Project      `json:"profile"`
	Stats   *stats.ProjectResult `json:"stats"`
}

// subjectStatsResponse is the body of the catalog-independent lookups.
type subjectStatsResponse struct {
	Subject string `json:"subject"`
	Stats   any    `json:"stats"`
}

type errorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		// Headers already sent.
		_ = err
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, errorResponse{Error: message})
}

// writeDomainError maps domain errors to HTTP status codes. Internal error
// details are not leaked to clients.
func writeDomainError(w http.ResponseWriter, err error) {
	if err == nil {
		return
	}

	var (
		notFound   *domain.NotFoundError
		validation *domain.ValidationError
	)
	switch {
	case errors.As(err, &notFound):
		writeError(w, http.StatusNotFound, fmt.Sprintf("%s not found", notFound.Entity))
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "resource not found")
	case errors.As(err, &validation):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: validation.Message, Field: validation.Field})
	case errors.Is(err, domain.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, "invalid input")
	case errors.Is(err, domain.ErrUpstream):
		writeError(w, http.StatusBadGateway, "upstream source unavailable")
	case errors.Is(err, domain.ErrServiceUnavailable):
		writeError(w, http.StatusServiceUnavailable, "service unavailable")
	default:
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
