// Package hal implements the HAL open archive search source.
package hal

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/helixir/lab-stats-service/internal/domain"
	"github.com/helixir/lab-stats-service/internal/pubsources"
)

const (
	// DefaultBaseURL is the HAL search API endpoint.
	DefaultBaseURL = "https://api.archives-ouvertes.fr/search/"

	// DefaultRateLimit is the default rate limit for requests per second.
	DefaultRateLimit = 5.0

	// DefaultBurstSize is the default burst size for rate limiting.
	DefaultBurstSize = 5
)

// Config holds configuration for the HAL client.
type Config struct {
	// BaseURL is the search endpoint. Defaults to DefaultBaseURL.
	BaseURL string

	// Timeout is the per-call deadline. Defaults to 10 seconds.
	Timeout time.Duration

	// RateLimit is the maximum requests per second.
	RateLimit float64

	// BurstSize is the maximum burst of requests allowed.
	BurstSize int

	// MaxRetries is the number of retries on transient failures. Zero
	// keeps the single-attempt behaviour.
	MaxRetries int

	// FacetLimit is the number of values returned per lab facet.
	FacetLimit int

	// Enabled indicates whether this source is used.
	Enabled bool
}

// applyDefaults sets default values for unset configuration fields.
func (c *Config) applyDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.Timeout == 0 {
		c.Timeout = pubsources.DefaultTimeout
	}
	if c.RateLimit == 0 {
		c.RateLimit = DefaultRateLimit
	}
	if c.BurstSize == 0 {
		c.BurstSize = DefaultBurstSize
	}
	if c.FacetLimit == 0 {
		c.FacetLimit = DefaultFacetLimit
	}
}

// Client queries HAL for person, project and lab statistics.
type Client struct {
	config     Config
	httpClient *pubsources.HTTPClient
}

var (
	_ pubsources.RecordSource = (*Client)(nil)
	_ pubsources.FacetSource  = (*Client)(nil)
)

// New creates a new HAL client with the given configuration.
func New(cfg Config) *Client {
	cfg.applyDefaults()

	httpClient := pubsources.NewHTTPClient(pubsources.HTTPClientConfig{
		Timeout:    cfg.Timeout,
		RateLimit:  cfg.RateLimit,
		BurstSize:  cfg.BurstSize,
		MaxRetries: cfg.MaxRetries,
	})

	return &Client{
		config:     cfg,
		httpClient: httpClient,
	}
}

// NewWithHTTPClient creates a new HAL client with a custom HTTP client.
func NewWithHTTPClient(cfg Config, httpClient *pubsources.HTTPClient) *Client {
	cfg.applyDefaults()

	return &Client{
		config:     cfg,
		httpClient: httpClient,
	}
}

// Search fetches the documents of a person or a project. The query shape
// depends on req.Kind; lab requests must go through FacetSearch.
func (c *Client) Search(ctx context.Context, req domain.StatsRequest) (*pubsources.SearchResult, error) {
	startTime := time.Now()

	var params url.Values
	switch req.Kind {
	case domain.SubjectKindPerson:
		params = PersonQuery(req)
	case domain.SubjectKindProject:
		params = ProjectQuery(req)
	default:
		return nil, domain.NewUpstreamError(domain.SourceTypeHAL, 0,
			fmt.Errorf("unsupported record lookup kind %q", req.Kind))
	}

	var resp SearchResponse
	if err := c.httpClient.GetJSON(ctx, domain.SourceTypeHAL, c.searchURL(params), &resp); err != nil {
		return nil, err
	}

	return &pubsources.SearchResult{
		Records:        Normalize(&resp),
		TotalResults:   resp.Response.NumFound,
		Source:         domain.SourceTypeHAL,
		SearchDuration: time.Since(startTime),
	}, nil
}

// FacetSearch fetches lab-wide aggregate counts for the structure acronym
// carried in req.Subject.
func (c *Client) FacetSearch(ctx context.Context, req domain.StatsRequest) (*pubsources.FacetResult, error) {
	startTime := time.Now()

	var resp SearchResponse
	if err := c.httpClient.GetJSON(ctx, domain.SourceTypeHAL, c.searchURL(LabQuery(req, c.config.FacetLimit)), &resp); err != nil {
		return nil, err
	}

	return &pubsources.FacetResult{
		Fields:         facetsByName(resp.FacetCounts),
		TotalDocs:      resp.Response.NumFound,
		Source:         domain.SourceTypeHAL,
		SearchDuration: time.Since(startTime),
	}, nil
}

// SourceType returns the source type identifier.
func (c *Client) SourceType() domain.SourceType {
	return domain.SourceTypeHAL
}

// Name returns the human-readable name of the source.
func (c *Client) Name() string {
	return "HAL"
}

// IsEnabled returns whether the source is enabled.
func (c *Client) IsEnabled() bool {
	return c.config.Enabled
}

func (c *Client) searchURL(params url.Values) string {
	return c.config.BaseURL + "?" + params.Encode()
}
