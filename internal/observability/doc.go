// Package observability provides logging and metrics support for the lab
// stats service.
//
// # Overview
//
// The observability package provides:
//
//   - Structured logging with zerolog
//   - Prometheus metrics for lookups, upstream sources and the HTTP API
//   - Context helpers for propagating request identity
//
// # Logging
//
// Create a process logger from the logging section of the configuration:
//
//	logger := observability.NewLogger(cfg.Logging, observability.ProcessAPI)
//	logger = observability.WithStatsContext(logger, requestID, "person", "Jane Doe")
//
// # Metrics
//
//	metrics := observability.NewMetrics("lab_stats")
//	metrics.RecordStatsRequest("person")
//	metrics.RecordSourceRequest("HAL", "person", 0.42)
//
// Tests should use NewMetricsWith and a fresh prometheus.Registry.
//
// # Standard Fields
//
//   - request_id: API request identifier
//   - kind: lookup kind (person, project, lab)
//   - subject: researcher name, project name or lab acronym
//   - source: upstream source (HAL, DBLP)
//   - component: owning component
//   - process: api, labstats or migrate
//
// # Thread Safety
//
// All components are safe for concurrent use from multiple goroutines.
package observability
