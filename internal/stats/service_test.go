package stats

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helixir/lab-stats-service/internal/domain"
	"github.com/helixir/lab-stats-service/internal/observability"
	"github.com/helixir/lab-stats-service/internal/pubsources"
	"github.com/helixir/lab-stats-service/internal/pubsources/dblp"
	"github.com/helixir/lab-stats-service/internal/pubsources/hal"
)

const halDocs = `{
  "response": {
    "numFound": 3,
    "docs": [
      {"title_s": "Recent", "producedDateY_i": 2022, "docType_s": "ART",
       "keyword_s": ["fuzzy logic"], "authFullName_s": ["Jane Doe", "Bob"], "journalTitle_s": "FSS"},
      {"title_s": "Older", "producedDateY_i": 2015, "docType_s": "COMM",
       "keyword_s": ["ontology"], "authFullName_s": ["Jane Doe", "Alice"]},
      {"title_s": "Oldest", "producedDateY_i": 2010, "docType_s": "ART",
       "authFullName_s": "Jane Doe"}
    ]
  }
}`

const dblpHits = `{
  "result": {"hits": {"@total": "2", "hit": [
    {"info": {"authors": {"author": [{"text": "Jane Doe"}, {"text": "Carol"}]},
              "title": "DB paper.", "venue": "VLDB", "year": "2019", "type": "Journal Articles"}},
    {"info": {"authors": {"author": {"text": "Jane Doe"}},
              "title": "Solo.", "venue": ["CoRR"], "year": "2023", "type": "Informal Publications"}}
  ]}}
}`

const halFacets = `{
  "response": {"numFound": 4200, "docs": []},
  "facet_counts": {"facet_fields": {
    "producedDateY_i": ["2021", 40, "2019", 35, "2020", 38],
    "structName_s": ["LISTIC", 4200, "Université Savoie Mont Blanc", 3900, "LIG", 12],
    "docType_s": ["ART", 2000, "COMM", 1500]
  }}
}`

type fixture struct {
	service *Service
	metrics *observability.Metrics
}

func jsonServer(t *testing.T, body string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server
}

func hangingServer(t *testing.T) *httptest.Server {
	t.Helper()
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(func() {
		close(release)
		server.Close()
	})
	return server
}

func newFixture(t *testing.T, halURL, dblpURL string, timeout time.Duration) fixture {
	t.Helper()

	newHTTP := func() *pubsources.HTTPClient {
		return pubsources.NewHTTPClient(pubsources.HTTPClientConfig{
			Timeout:   timeout,
			RateLimit: 100,
			BurstSize: 100,
		})
	}

	halClient := hal.NewWithHTTPClient(hal.Config{BaseURL: halURL, Enabled: true}, newHTTP())
	dblpClient := dblp.NewWithHTTPClient(dblp.Config{BaseURL: dblpURL, Enabled: true}, newHTTP())

	registry := pubsources.NewRegistry()
	registry.Register(halClient)
	registry.Register(dblpClient)

	metrics := observability.NewMetricsWith("test", prometheus.NewRegistry())
	return fixture{
		service: NewService(registry, halClient, listic, zerolog.Nop(), metrics),
		metrics: metrics,
	}
}

func TestService_PersonStats(t *testing.T) {
	t.Run("aggregates both sources", func(t *testing.T) {
		f := newFixture(t, jsonServer(t, halDocs).URL, jsonServer(t, dblpHits).URL, 5*time.Second)

		result := f.service.PersonStats(context.Background(), domain.StatsRequest{Subject: "jane doe"})

		require.False(t, result.HAL.Failed())
		require.False(t, result.DBLP.Failed())
		assert.False(t, result.Partial())

		assert.Equal(t, 3, result.HAL.Stats.TotalPublications)
		assert.Equal(t, []string{"Bob", "Alice"}, result.HAL.Stats.TopCollaborators.Names())
		assert.Equal(t, "Recent", result.HAL.Stats.RecentPublications[0].Title)

		assert.Equal(t, 2, result.DBLP.Stats.TotalPublications)
		assert.Equal(t, []string{"Carol"}, result.DBLP.Stats.TopCollaborators.Names())
		assert.Equal(t, []string{"VLDB", "CoRR"}, result.DBLP.Stats.TopVenues.Names())
		assert.Equal(t, "Solo.", result.DBLP.Stats.RecentPublications[0].Title)

		assert.Equal(t, float64(1), testutil.ToFloat64(f.metrics.StatsRequests.WithLabelValues("person")))
		assert.Equal(t, float64(3), testutil.ToFloat64(f.metrics.RecordsFetched.WithLabelValues("HAL")))
	})

	t.Run("DBLP timeout yields partial result", func(t *testing.T) {
		f := newFixture(t, jsonServer(t, halDocs).URL, hangingServer(t).URL, 200*time.Millisecond)

		start := time.Now()
		result := f.service.PersonStats(context.Background(), domain.StatsRequest{Subject: "Jane Doe"})
		assert.Less(t, time.Since(start), 3*time.Second)

		assert.False(t, result.HAL.Failed())
		assert.True(t, result.HAL.Stats.Found)
		assert.True(t, result.DBLP.Failed())
		assert.True(t, result.Partial())

		data, err := json.Marshal(result)
		require.NoError(t, err)

		var body struct {
			HAL     map[string]any `json:"hal"`
			DBLP    map[string]any `json:"dblp"`
			Partial bool           `json:"partial"`
		}
		require.NoError(t, json.Unmarshal(data, &body))

		assert.True(t, body.Partial)
		assert.Equal(t, true, body.HAL["found"])
		assert.Equal(t, "DBLP", body.DBLP["source"])
		assert.NotEmpty(t, body.DBLP["error"])
		assert.NotContains(t, body.DBLP, "found")

		assert.Equal(t, float64(1), testutil.ToFloat64(f.metrics.PartialResults))
	})

	t.Run("both sources failing is not partial", func(t *testing.T) {
		down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		t.Cleanup(down.Close)

		f := newFixture(t, down.URL, down.URL, time.Second)
		result := f.service.PersonStats(context.Background(), domain.StatsRequest{Subject: "Jane Doe"})

		assert.True(t, result.HAL.Failed())
		assert.True(t, result.DBLP.Failed())
		assert.False(t, result.Partial())
		assert.Equal(t, float64(1), testutil.ToFloat64(f.metrics.SourceRequestsFailed.WithLabelValues("HAL", "person", "502")))
	})

	t.Run("filters apply to both sources", func(t *testing.T) {
		f := newFixture(t, jsonServer(t, halDocs).URL, jsonServer(t, dblpHits).URL, 5*time.Second)

		result := f.service.PersonStats(context.Background(), domain.StatsRequest{
			Subject:   "Jane Doe",
			StartYear: domain.IntPtr(2015),
			EndYear:   domain.IntPtr(2020),
		})

		assert.Equal(t, 1, result.HAL.Stats.TotalPublications)
		assert.Equal(t, map[int]int{2015: 1}, result.HAL.Stats.YearsDistribution)
		assert.Equal(t, 1, result.DBLP.Stats.TotalPublications)
		assert.Equal(t, float64(2), testutil.ToFloat64(f.metrics.RecordsFiltered.WithLabelValues("HAL")))
	})

	t.Run("keyword filter empties DBLP", func(t *testing.T) {
		f := newFixture(t, jsonServer(t, halDocs).URL, jsonServer(t, dblpHits).URL, 5*time.Second)

		result := f.service.PersonStats(context.Background(), domain.StatsRequest{Subject: "Jane Doe", Keyword: "fuzzy"})

		assert.True(t, result.HAL.Stats.Found)
		assert.Equal(t, 1, result.HAL.Stats.TotalPublications)
		assert.False(t, result.DBLP.Stats.Found)
		assert.False(t, result.Partial())
	})
}

func TestService_PersonStats_UnregisteredSource(t *testing.T) {
	halClient := hal.NewWithHTTPClient(hal.Config{BaseURL: jsonServer(t, halDocs).URL, Enabled: true},
		pubsources.NewHTTPClient(pubsources.HTTPClientConfig{Timeout: 5 * time.Second, RateLimit: 100, BurstSize: 100}))

	registry := pubsources.NewRegistry()
	registry.Register(halClient)

	metrics := observability.NewMetricsWith("test", prometheus.NewRegistry())
	service := NewService(registry, halClient, listic, zerolog.Nop(), metrics)

	result := service.PersonStats(context.Background(), domain.StatsRequest{Subject: "Jane Doe"})

	assert.False(t, result.HAL.Failed())
	assert.True(t, result.DBLP.Failed())
	assert.True(t, result.Partial())
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.SourceRequestsFailed.WithLabelValues("DBLP", "person", "disabled")))
	assert.Equal(t, float64(0), testutil.ToFloat64(metrics.SourceRequestsFailed.WithLabelValues("DBLP", "person", "transport")))
}

func TestErrorType(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"deadline", domain.NewUpstreamError(domain.SourceTypeDBLP, 0, context.DeadlineExceeded), "timeout"},
		{"canceled", context.Canceled, "canceled"},
		{"disabled", domain.NewUpstreamError(domain.SourceTypeHAL, 0, pubsources.ErrSourceDisabled), "disabled"},
		{"http status", domain.NewUpstreamError(domain.SourceTypeHAL, 503, errors.New("unavailable")), "503"},
		{"network", domain.NewUpstreamError(domain.SourceTypeHAL, 0, errors.New("connection refused")), "transport"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, errorType(tt.err))
		})
	}
}

func TestService_ProjectStats(t *testing.T) {
	var gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		_, _ = w.Write([]byte(halDocs))
	}))
	t.Cleanup(server.Close)

	f := newFixture(t, server.URL, hangingServer(t).URL, 5*time.Second)
	result := f.service.ProjectStats(context.Background(), domain.StatsRequest{Subject: "MAGIC"})

	assert.Equal(t, `"MAGIC"`, gotQuery)
	require.False(t, result.HAL.Failed())
	assert.Equal(t, []string{"Jane Doe", "Bob", "Alice"}, result.HAL.Stats.TopCollaborators.Names())
	assert.Equal(t, 3, result.HAL.Stats.TopCollaborators.Get("Jane Doe"))
}

func TestService_LabStats(t *testing.T) {
	t.Run("translates facets for the configured lab", func(t *testing.T) {
		var gotQuery string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotQuery = r.URL.Query().Get("q")
			_, _ = w.Write([]byte(halFacets))
		}))
		t.Cleanup(server.Close)

		f := newFixture(t, server.URL, hangingServer(t).URL, 5*time.Second)
		result := f.service.LabStats(context.Background(), domain.StatsRequest{})

		assert.Equal(t, `structAcronym_s:"LISTIC"`, gotQuery)
		assert.Equal(t, "LISTIC", result.Lab)
		require.NoError(t, result.HAL.Err)
		assert.Equal(t, 4200, result.HAL.Stats.TotalDocs)
		assert.Equal(t, []domain.FacetEntry{
			{Name: "2019", Value: 35},
			{Name: "2020", Value: 38},
			{Name: "2021", Value: 40},
		}, result.HAL.Stats.Years)
		assert.Equal(t, []domain.FacetEntry{
			{Name: "Université Savoie Mont Blanc", Value: 3900},
			{Name: "LIG", Value: 12},
		}, result.HAL.Stats.Structures)

		assert.False(t, result.DBLP.Supported)
		assert.Equal(t, domain.SourceTypeDBLP, result.DBLP.Source)
	})

	t.Run("HAL failure becomes error block", func(t *testing.T) {
		f := newFixture(t, hangingServer(t).URL, hangingServer(t).URL, 100*time.Millisecond)
		result := f.service.LabStats(context.Background(), domain.StatsRequest{Subject: "LISTIC"})

		require.Error(t, result.HAL.Err)

		data, err := json.Marshal(result)
		require.NoError(t, err)

		var body struct {
			HAL  ErrorBlock        `json:"hal"`
			DBLP UnsupportedSource `json:"dblp"`
		}
		require.NoError(t, json.Unmarshal(data, &body))
		assert.Equal(t, domain.SourceTypeHAL, body.HAL.Source)
		assert.NotEmpty(t, body.HAL.Error)
		assert.Equal(t, domain.SourceTypeDBLP, body.DBLP.Source)
	})

	t.Run("missing facet source", func(t *testing.T) {
		metrics := observability.NewMetricsWith("test", prometheus.NewRegistry())
		service := NewService(pubsources.NewRegistry(), nil, listic, zerolog.Nop(), metrics)

		result := service.LabStats(context.Background(), domain.StatsRequest{})
		assert.ErrorIs(t, result.HAL.Err, domain.ErrUpstream)
	})
}

func TestService_Lab(t *testing.T) {
	service := NewService(pubsources.NewRegistry(), nil, listic, zerolog.Nop(),
		observability.NewMetricsWith("test", prometheus.NewRegistry()))

	assert.Equal(t, listic, service.Lab())
	assert.Equal(t, LabIdentity{Acronym: "LIG"}, service.identityFor("LIG"))
	assert.Equal(t, listic, service.identityFor("listic"))
}
