package pubsources

import (
	"context"
	"sync"

	"github.com/helixir/lab-stats-service/internal/domain"
)

// SourceResult holds the outcome of a search against one source.
type SourceResult struct {
	// Source identifies which source produced the outcome.
	Source domain.SourceType

	// Result is set when the search succeeded.
	Result *SearchResult

	// Error is set when the search failed. It is always a *domain.UpstreamError.
	Error error
}

// Registry holds the configured sources and fans searches out to them.
type Registry struct {
	mu      sync.RWMutex
	sources map[domain.SourceType]RecordSource
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		sources: make(map[domain.SourceType]RecordSource),
	}
}

// Register adds a source, replacing any source of the same type.
func (r *Registry) Register(source RecordSource) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sources[source.SourceType()] = source
}

// Get returns a source by type, or nil if not registered.
func (r *Registry) Get(sourceType domain.SourceType) RecordSource {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sources[sourceType]
}

// SearchSources searches the requested sources concurrently and waits for
// all of them. Total latency is bounded by the slowest source. The returned
// slice follows the order of sourceTypes; a type that is not registered or
// not enabled produces a SourceResult carrying an UpstreamError so callers
// can render it like any other failed source.
//
// Each goroutine writes only its own slot, so no locking is needed while
// results are collected.
func (r *Registry) SearchSources(ctx context.Context, req domain.StatsRequest, sourceTypes ...domain.SourceType) []SourceResult {
	results := make([]SourceResult, len(sourceTypes))

	var wg sync.WaitGroup
	for i, st := range sourceTypes {
		source := r.Get(st)
		if source == nil || !source.IsEnabled() {
			results[i] = SourceResult{
				Source: st,
				Error:  domain.NewUpstreamError(st, 0, ErrSourceDisabled),
			}
			continue
		}

		wg.Add(1)
		go func(slot int, s RecordSource) {
			defer wg.Done()
			result, err := s.Search(ctx, req)
			results[slot] = SourceResult{
				Source: s.SourceType(),
				Result: result,
				Error:  err,
			}
		}(i, source)
	}
	wg.Wait()

	return results
}
