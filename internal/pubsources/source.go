// Package pubsources provides clients for the external bibliographic search
// services that feed publication statistics.
//
// Each service (HAL, DBLP) lives in its own subpackage and implements
// RecordSource: it builds a source-specific query from a domain.StatsRequest,
// performs exactly one bounded HTTP call, and normalizes the native record
// shape into domain.PublicationRecord values. Every failure crossing this
// boundary is a *domain.UpstreamError.
//
// Example usage:
//
//	source := hal.New(hal.Config{Enabled: true})
//	result, err := source.Search(ctx, domain.StatsRequest{
//		Subject: "Jane Doe",
//		Kind:    domain.SubjectKindPerson,
//	})
package pubsources

import (
	"context"
	"time"

	"github.com/helixir/lab-stats-service/internal/domain"
)

// DefaultTimeout is the per-call deadline applied to every upstream request.
const DefaultTimeout = 10 * time.Second

// SearchResult contains the normalized records returned by one source.
type SearchResult struct {
	// Records holds the normalized publications, in upstream order.
	Records []domain.PublicationRecord

	// TotalResults is the match count reported by the source, which may
	// exceed len(Records) because every query carries a row cap.
	TotalResults int

	// Source identifies which service produced the records.
	Source domain.SourceType

	// SearchDuration is the wall time of the upstream call including decoding.
	SearchDuration time.Duration
}

// FacetResult contains server-side aggregate counts keyed by canonical facet
// name (years, keywords, types, authors, journals, languages, structures).
// Each value is the upstream flat alternating sequence [name, count, ...].
type FacetResult struct {
	Fields         map[string][]any
	TotalDocs      int
	Source         domain.SourceType
	SearchDuration time.Duration
}

// RecordSource is implemented by every bibliographic source client.
type RecordSource interface {
	// Search fetches and normalizes the records of the subject described by
	// req. Implementations perform a single HTTP call, never retry on their
	// own, and return a *domain.UpstreamError on any failure.
	Search(ctx context.Context, req domain.StatsRequest) (*SearchResult, error)

	// SourceType returns the type identifier for this source.
	SourceType() domain.SourceType

	// Name returns a human-readable name used in logs and metrics.
	Name() string

	// IsEnabled reports whether the source is configured for use.
	IsEnabled() bool
}

// FacetSource is implemented by sources that can answer lab-wide faceted
// count queries.
type FacetSource interface {
	// FacetSearch fetches aggregate counts for the lab described by req.
	FacetSearch(ctx context.Context, req domain.StatsRequest) (*FacetResult, error)

	// SourceType returns the type identifier for this source.
	SourceType() domain.SourceType
}
