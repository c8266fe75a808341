package dblp

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helixir/lab-stats-service/internal/domain"
	"github.com/helixir/lab-stats-service/internal/pubsources"
)

func newTestClient(serverURL string, timeout time.Duration) *Client {
	cfg := Config{
		BaseURL:   serverURL,
		Timeout:   timeout,
		RateLimit: 100,
		BurstSize: 100,
		Enabled:   true,
	}

	httpClient := pubsources.NewHTTPClient(pubsources.HTTPClientConfig{
		Timeout:   cfg.Timeout,
		RateLimit: cfg.RateLimit,
		BurstSize: cfg.BurstSize,
		UserAgent: "TestClient/1.0",
	})

	return NewWithHTTPClient(cfg, httpClient)
}

const searchResponse = `{
  "result": {
    "hits": {
      "@total": "3",
      "@computed": "3",
      "@sent": "3",
      "hit": [
        {
          "@score": "7",
          "@id": "1",
          "info": {
            "authors": {"author": [
              {"@pid": "1/1", "text": "Jane Doe"},
              {"@pid": "2/2", "text": "John Smith"}
            ]},
            "title": "Learning things.",
            "venue": "ICML",
            "year": "2020",
            "type": "Conference and Workshop Papers",
            "url": "https://dblp.org/rec/conf/icml/Doe20"
          }
        },
        {
          "@score": "7",
          "@id": "2",
          "info": {
            "authors": {"author": {"@pid": "1/1", "text": "Jane Doe"}},
            "title": "Solo work.",
            "venue": ["CoRR", "arXiv"],
            "year": "2022",
            "type": ["Informal Publications"]
          }
        },
        {
          "@score": "7",
          "@id": "3",
          "info": {
            "authors": {"author": ["Jane Doe", "Alice"]},
            "title": "No year"
          }
        }
      ]
    }
  }
}`

func TestClient_Search(t *testing.T) {
	t.Run("resolves every author and venue shape", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			q := r.URL.Query()
			assert.Equal(t, "Jane Doe", q.Get("q"))
			assert.Equal(t, "json", q.Get("format"))
			assert.Equal(t, "500", q.Get("h"))
			_, _ = w.Write([]byte(searchResponse))
		}))
		defer server.Close()

		client := newTestClient(server.URL, 5*time.Second)
		result, err := client.Search(context.Background(), domain.StatsRequest{
			Subject: " Jane \t Doe ",
			Kind:    domain.SubjectKindPerson,
		})
		require.NoError(t, err)

		assert.Equal(t, domain.SourceTypeDBLP, result.Source)
		assert.Equal(t, 3, result.TotalResults)
		require.Len(t, result.Records, 3)

		first := result.Records[0]
		assert.Equal(t, "Learning things.", first.Title)
		assert.Equal(t, []string{"Jane Doe", "John Smith"}, first.Authors)
		assert.Equal(t, []string{"ICML"}, first.Venues)
		assert.Equal(t, "Conference and Workshop Papers", first.Type())
		require.NotNil(t, first.Year)
		assert.Equal(t, 2020, *first.Year)
		assert.Equal(t, "https://dblp.org/rec/conf/icml/Doe20", first.URL)
		assert.Empty(t, first.Keywords)

		second := result.Records[1]
		assert.Equal(t, []string{"Jane Doe"}, second.Authors)
		assert.Equal(t, []string{"CoRR", "arXiv"}, second.Venues)
		assert.Equal(t, "CoRR", second.Venue())
		assert.Equal(t, "Informal Publications", second.Type())

		third := result.Records[2]
		assert.Equal(t, []string{"Jane Doe", "Alice"}, third.Authors)
		assert.Nil(t, third.Year)
		assert.Empty(t, third.Venues)
	})

	t.Run("empty hit list", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"result":{"hits":{"@total":"0","@computed":"0","@sent":"0"}}}`))
		}))
		defer server.Close()

		client := newTestClient(server.URL, 5*time.Second)
		result, err := client.Search(context.Background(), domain.StatsRequest{Subject: "Nobody", Kind: domain.SubjectKindPerson})
		require.NoError(t, err)
		assert.Empty(t, result.Records)
		assert.Equal(t, 0, result.TotalResults)
	})

	t.Run("timeout becomes upstream error", func(t *testing.T) {
		release := make(chan struct{})
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-release:
			case <-r.Context().Done():
			}
		}))
		defer server.Close()
		defer close(release)

		client := newTestClient(server.URL, 50*time.Millisecond)
		_, err := client.Search(context.Background(), domain.StatsRequest{Subject: "Jane Doe", Kind: domain.SubjectKindPerson})
		require.Error(t, err)

		var upstreamErr *domain.UpstreamError
		require.True(t, errors.As(err, &upstreamErr))
		assert.Equal(t, domain.SourceTypeDBLP, upstreamErr.Source)
		assert.Equal(t, 0, upstreamErr.StatusCode)
		assert.ErrorIs(t, err, domain.ErrUpstream)
	})

	t.Run("rejects project kind", func(t *testing.T) {
		client := newTestClient("http://127.0.0.1:1", time.Second)
		_, err := client.Search(context.Background(), domain.StatsRequest{Subject: "MAGIC", Kind: domain.SubjectKindProject})
		assert.ErrorIs(t, err, domain.ErrUpstream)
	})
}

func TestClient_Metadata(t *testing.T) {
	client := New(Config{})

	assert.Equal(t, domain.SourceTypeDBLP, client.SourceType())
	assert.Equal(t, "DBLP", client.Name())
	assert.False(t, client.IsEnabled())
	assert.Equal(t, DefaultBaseURL, client.config.BaseURL)
	assert.Equal(t, DefaultRateLimit, client.config.RateLimit)
}
