package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains all Prometheus metrics for the lab stats service,
// organized by subsystem: stats lookups, upstream sources, the filter stage
// and the HTTP API.
type Metrics struct {
	// StatsRequests counts statistics lookups, labeled by kind (person, project, lab).
	StatsRequests *prometheus.CounterVec

	// PartialResults counts person lookups where exactly one source failed.
	PartialResults prometheus.Counter

	// SourceRequestsTotal counts calls to upstream sources, labeled by source and kind.
	SourceRequestsTotal *prometheus.CounterVec

	// SourceRequestsFailed counts failed upstream calls, labeled by source, kind and error type.
	SourceRequestsFailed *prometheus.CounterVec

	// SourceRequestDuration observes successful upstream call duration in seconds.
	SourceRequestDuration *prometheus.HistogramVec

	// RecordsFetched counts records returned by upstream sources, labeled by source.
	RecordsFetched *prometheus.CounterVec

	// RecordsFiltered counts records dropped by the local filter stage, labeled by source.
	RecordsFiltered *prometheus.CounterVec

	// HTTPRequests counts API requests, labeled by route pattern and status code.
	HTTPRequests *prometheus.CounterVec

	// HTTPRequestDuration observes API request duration in seconds, labeled by route pattern.
	HTTPRequestDuration *prometheus.HistogramVec
}

// NewMetrics creates a new Metrics instance registered with the default
// Prometheus registry. The namespace is used as a prefix for all metric names.
func NewMetrics(namespace string) *Metrics {
	return NewMetricsWith(namespace, prometheus.DefaultRegisterer)
}

// NewMetricsWith creates a new Metrics instance registered with reg.
func NewMetricsWith(namespace string, reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		StatsRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stats_requests_total",
			Help:      "Total number of statistics lookups",
		}, []string{"kind"}),
		PartialResults: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stats_partial_results_total",
			Help:      "Total number of person lookups answered with one failed source",
		}),

		SourceRequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "source_requests_total",
			Help:      "Total number of requests to upstream bibliographic sources",
		}, []string{"source", "kind"}),
		SourceRequestsFailed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "source_requests_failed_total",
			Help:      "Total number of failed requests to upstream bibliographic sources",
		}, []string{"source", "kind", "error_type"}),
		SourceRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "source_request_duration_seconds",
			Help:      "Duration of upstream source requests in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		}, []string{"source", "kind"}),

		RecordsFetched: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_fetched_total",
			Help:      "Total number of publication records fetched from upstream sources",
		}, []string{"source"}),
		RecordsFiltered: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_filtered_total",
			Help:      "Total number of publication records dropped by year or keyword filters",
		}, []string{"source"}),

		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of API requests",
		}, []string{"route", "status"}),
		HTTPRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of API requests in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
	}
}

// RecordStatsRequest records a statistics lookup of the given kind.
func (m *Metrics) RecordStatsRequest(kind string) {
	m.StatsRequests.WithLabelValues(kind).Inc()
}

// RecordPartialResult records a person lookup with one failed source.
func (m *Metrics) RecordPartialResult() {
	m.PartialResults.Inc()
}

// RecordSourceRequest records a successful upstream call.
func (m *Metrics) RecordSourceRequest(source, kind string, durationSeconds float64) {
	m.SourceRequestsTotal.WithLabelValues(source, kind).Inc()
	m.SourceRequestDuration.WithLabelValues(source, kind).Observe(durationSeconds)
}

// RecordSourceRequestFailed records a failed upstream call.
func (m *Metrics) RecordSourceRequestFailed(source, kind, errorType string) {
	m.SourceRequestsTotal.WithLabelValues(source, kind).Inc()
	m.SourceRequestsFailed.WithLabelValues(source, kind, errorType).Inc()
}

// RecordRecords records how many records a source returned and how many the
// filter stage dropped.
func (m *Metrics) RecordRecords(source string, fetched, dropped int) {
	m.RecordsFetched.WithLabelValues(source).Add(float64(fetched))
	m.RecordsFiltered.WithLabelValues(source).Add(float64(dropped))
}

// RecordHTTPRequest records one API request.
func (m *Metrics) RecordHTTPRequest(route, status string, durationSeconds float64) {
	m.HTTPRequests.WithLabelValues(route, status).Inc()
	m.HTTPRequestDuration.WithLabelValues(route).Observe(durationSeconds)
}
