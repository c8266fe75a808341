// Package stats turns normalized publication records into bounded,
// rank-ordered statistics and orchestrates the per-kind lookups.
package stats

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/helixir/lab-stats-service/internal/domain"
	"github.com/helixir/lab-stats-service/internal/observability"
	"github.com/helixir/lab-stats-service/internal/pubsources"
)

// Service answers person, project and lab statistics lookups. Upstream
// failures never surface as Go errors; they are carried inside the results.
// It is safe for concurrent use.
type Service struct {
	sources *pubsources.Registry
	facets  pubsources.FacetSource
	lab     LabIdentity
	logger  zerolog.Logger
	metrics *observability.Metrics
}

// NewService creates a Service. facets may be nil, in which case lab lookups
// report HAL as failed.
func NewService(
	sources *pubsources.Registry,
	facets pubsources.FacetSource,
	lab LabIdentity,
	logger zerolog.Logger,
	metrics *observability.Metrics,
) *Service {
	return &Service{
		sources: sources,
		facets:  facets,
		lab:     lab,
		logger:  observability.WithComponent(logger, "stats"),
		metrics: metrics,
	}
}

// Lab returns the configured lab identity.
func (s *Service) Lab() LabIdentity {
	return s.lab
}

// PersonStats queries HAL and DBLP concurrently for a researcher. Total
// latency is bounded by the slower source; one failed source leaves the
// other intact and marks the result partial.
func (s *Service) PersonStats(ctx context.Context, req domain.StatsRequest) *PersonResult {
	req.Kind = domain.SubjectKindPerson
	s.metrics.RecordStatsRequest(string(req.Kind))

	results := s.sources.SearchSources(ctx, req, domain.SourceTypeHAL, domain.SourceTypeDBLP)

	out := &PersonResult{
		HAL:  s.outcome(ctx, req, results[0], req.Subject),
		DBLP: s.outcome(ctx, req, results[1], req.Subject),
	}
	if out.Partial() {
		s.metrics.RecordPartialResult()
	}
	return out
}

// ProjectStats queries HAL for an exact-phrase project match. Every author
// counts as a collaborator.
func (s *Service) ProjectStats(ctx context.Context, req domain.StatsRequest) *ProjectResult {
	req.Kind = domain.SubjectKindProject
	s.metrics.RecordStatsRequest(string(req.Kind))

	results := s.sources.SearchSources(ctx, req, domain.SourceTypeHAL)

	return &ProjectResult{
		HAL: s.outcome(ctx, req, results[0], ""),
	}
}

// LabStats fetches lab-wide facet counts from HAL. A blank subject means the
// configured lab. DBLP has no faceting, so its block is a fixed placeholder.
func (s *Service) LabStats(ctx context.Context, req domain.StatsRequest) *LabResult {
	req.Kind = domain.SubjectKindLab
	if strings.TrimSpace(req.Subject) == "" {
		req.Subject = s.lab.Acronym
	}
	s.metrics.RecordStatsRequest(string(req.Kind))

	out := &LabResult{
		Lab:  req.CleanSubject(),
		HAL:  LabOutcome{Source: domain.SourceTypeHAL},
		DBLP: dblpLabPlaceholder(),
	}

	if s.facets == nil {
		out.HAL.Err = domain.NewUpstreamError(domain.SourceTypeHAL, 0, errors.New("facet source not configured"))
		return out
	}

	result, err := s.facets.FacetSearch(ctx, req)
	if err != nil {
		s.recordFailure(ctx, req, domain.SourceTypeHAL, err)
		out.HAL.Err = err
		return out
	}
	s.metrics.RecordSourceRequest(string(domain.SourceTypeHAL), string(req.Kind), result.SearchDuration.Seconds())

	out.HAL.Stats = TranslateFacets(result, s.identityFor(req.CleanSubject()))
	return out
}

// outcome filters and aggregates one source's records, or records its failure.
func (s *Service) outcome(ctx context.Context, req domain.StatsRequest, sr pubsources.SourceResult, self string) Outcome {
	if sr.Error != nil {
		s.recordFailure(ctx, req, sr.Source, sr.Error)
		return Outcome{Source: sr.Source, Err: sr.Error}
	}

	kind := string(req.Kind)
	source := string(sr.Source)
	s.metrics.RecordSourceRequest(source, kind, sr.Result.SearchDuration.Seconds())

	filtered := Filter(sr.Result.Records, req)
	dropped := len(sr.Result.Records) - len(filtered)
	s.metrics.RecordRecords(source, len(sr.Result.Records), dropped)

	stats := Aggregate(filtered, sr.Source, self)

	s.logger.Debug().
		Str("request_id", observability.RequestIDFromContext(ctx)).
		Str("kind", kind).
		Str("subject", req.Subject).
		Str("source", source).
		Int("fetched", len(sr.Result.Records)).
		Int("dropped", dropped).
		Dur("duration", sr.Result.SearchDuration).
		Msg("source aggregated")

	return Outcome{Source: sr.Source, Stats: stats}
}

func (s *Service) recordFailure(ctx context.Context, req domain.StatsRequest, source domain.SourceType, err error) {
	errType := errorType(err)
	s.metrics.RecordSourceRequestFailed(string(source), string(req.Kind), errType)

	log := observability.WithStatsContext(s.logger, observability.RequestIDFromContext(ctx), string(req.Kind), req.Subject)
	log.Warn().
		Err(err).
		Str("source", string(source)).
		Str("error_type", errType).
		Msg("source lookup failed")
}

// identityFor returns the lab identity used to exclude self entries when
// acronym is looked up. The configured full name only applies to the
// configured lab.
func (s *Service) identityFor(acronym string) LabIdentity {
	if strings.EqualFold(acronym, s.lab.Acronym) {
		return s.lab
	}
	return LabIdentity{Acronym: acronym}
}

func errorType(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.Is(err, pubsources.ErrSourceDisabled):
		return "disabled"
	}

	var upstreamErr *domain.UpstreamError
	if errors.As(err, &upstreamErr) && upstreamErr.StatusCode != 0 {
		return strconv.Itoa(upstreamErr.StatusCode)
	}
	return "transport"
}
