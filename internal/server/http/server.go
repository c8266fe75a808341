// Package httpserver provides the HTTP/JSON API behind the lab dashboard.
package httpserver

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/helixir/lab-stats-service/internal/database"
	"github.com/helixir/lab-stats-service/internal/domain"
	"github.com/helixir/lab-stats-service/internal/observability"
	"github.com/helixir/lab-stats-service/internal/repository"
	"github.com/helixir/lab-stats-service/internal/stats"
)

// StatsService answers statistics lookups. *stats.Service implements it.
type StatsService interface {
	PersonStats(ctx context.Context, req domain.StatsRequest) *stats.PersonResult
	ProjectStats(ctx context.Context, req domain.StatsRequest) *stats.ProjectResult
	LabStats(ctx context.Context, req domain.StatsRequest) *stats.LabResult
	Lab() stats.LabIdentity
}

// HealthChecker reports the health of the catalog database.
type HealthChecker interface {
	Health(ctx context.Context) database.HealthStatus
}

var (
	_ StatsService  = (*stats.Service)(nil)
	_ HealthChecker = (*database.DB)(nil)
)

// Server is the HTTP API server.
type Server struct {
	router      chi.Router
	httpServer  *http.Server
	catalog     repository.CatalogRepository
	stats       StatsService
	health      HealthChecker
	metrics     *observability.Metrics
	validate    *validator.Validate
	logger      zerolog.Logger
	corsOrigins []string
}

// Config holds HTTP server configuration.
type Config struct {
	Address            string
	ReadTimeout        time.Duration
	WriteTimeout       time.Duration
	IdleTimeout        time.Duration
	CORSAllowedOrigins []string
}

// NewServer creates a new HTTP server. health may be nil when the catalog is
// not backed by a database; metrics may be nil to disable HTTP metrics.
func NewServer(
	cfg Config,
	catalog repository.CatalogRepository,
	statsService StatsService,
	health HealthChecker,
	metrics *observability.Metrics,
	logger zerolog.Logger,
) *Server {
	s := &Server{
		catalog:     catalog,
		stats:       statsService,
		health:      health,
		metrics:     metrics,
		validate:    newValidator(),
		logger:      observability.WithComponent(logger, "http-server"),
		corsOrigins: cfg.CORSAllowedOrigins,
	}

	s.router = s.buildRouter()

	s.httpServer = &http.Server{
		Addr:         cfg.Address,
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return s
}

// buildRouter creates the chi router with all middleware and routes.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(correlationIDMiddleware)
	r.Use(metricsMiddleware(s.metrics))
	r.Use(corsMiddleware(s.corsOrigins))
	r.Use(jsonContentTypeMiddleware)

	r.Get("/", s.rootHandler)
	r.Get("/healthz", s.healthHandler)
	r.Get("/readyz", s.readinessHandler)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/researchers", s.listResearchers)
		r.Get("/researchers/{id}", s.getResearcher)
		r.Get("/projects", s.listProjects)
		r.Get("/projects/{id}", s.getProject)
		r.Get("/lab/stats", s.getLabStats)
		r.Get("/stats/person", s.getPersonStats)
		r.Get("/stats/project", s.getProjectStats)
	})

	// Paths used by the first dashboard front end.
	r.Get("/researchers", s.listResearchers)
	r.Get("/researcher/{id}", s.getResearcher)
	r.Get("/projects", s.listProjects)
	r.Get("/project/{id}", s.getProject)

	return r
}

// Handler returns the root handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.logger.Info().Str("address", s.httpServer.Addr).Msg("HTTP server starting")
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("listen on HTTP address: %w", err)
	}
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) rootHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("%s Dashboard API is running", s.stats.Lab().Acronym),
	})
}

// healthHandler returns basic liveness status. It never touches upstream
// sources or the database.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// readinessHandler reports whether the catalog can serve requests.
func (s *Server) readinessHandler(w http.ResponseWriter, r *http.Request) {
	if s.health == nil {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready", "catalog": "file"})
		return
	}

	health := s.health.Health(r.Context())
	if !health.Healthy() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status":   "not_ready",
			"database": health.Status,
			"error":    health.Error,
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status":   "ready",
		"catalog":  "postgres",
		"database": health.Status,
	})
}
