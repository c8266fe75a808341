// Package dblp implements the DBLP computer science bibliography source.
package dblp

import (
	"context"
	"fmt"
	"time"

	"github.com/helixir/lab-stats-service/internal/domain"
	"github.com/helixir/lab-stats-service/internal/pubsources"
)

const (
	// DefaultBaseURL is the DBLP publication search endpoint.
	DefaultBaseURL = "https://dblp.org/search/publ/api"

	// DefaultRateLimit is the default rate limit for requests per second.
	// DBLP answers bursts with 429, so stay conservative.
	DefaultRateLimit = 2.0

	// DefaultBurstSize is the default burst size for rate limiting.
	DefaultBurstSize = 2
)

// Config holds configuration for the DBLP client.
type Config struct {
	// BaseURL is the search endpoint. Defaults to DefaultBaseURL.
	BaseURL string

	// Timeout is the per-call deadline. Defaults to 10 seconds.
	Timeout time.Duration

	// RateLimit is the maximum requests per second.
	RateLimit float64

	// BurstSize is the maximum burst of requests allowed.
	BurstSize int

	// MaxRetries is the number of retries on transient failures.
	MaxRetries int

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
}

// Client queries DBLP for person statistics.
type Client struct {
	config     Config
	httpClient *pubsources.HTTPClient
}

var _ pubsources.RecordSource = (*Client)(nil)

// New creates a new DBLP client with the given configuration.
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

// NewWithHTTPClient creates a new DBLP client with a custom HTTP client.
func NewWithHTTPClient(cfg Config, httpClient *pubsources.HTTPClient) *Client {
	cfg.applyDefaults()

	return &Client{
		config:     cfg,
		httpClient: httpClient,
	}
}

// Search fetches the publications of a person. Only person lookups are
// supported.
func (c *Client) Search(ctx context.Context, req domain.StatsRequest) (*pubsources.SearchResult, error) {
	startTime := time.Now()

	if req.Kind != domain.SubjectKindPerson {
		return nil, domain.NewUpstreamError(domain.SourceTypeDBLP, 0,
			fmt.Errorf("unsupported lookup kind %q", req.Kind))
	}

	searchURL := c.config.BaseURL + "?" + PersonQuery(req).Encode()

	var resp SearchResponse
	if err := c.httpClient.GetJSON(ctx, domain.SourceTypeDBLP, searchURL, &resp); err != nil {
		return nil, err
	}

	return &pubsources.SearchResult{
		Records:        Normalize(&resp),
		TotalResults:   total(&resp),
		Source:         domain.SourceTypeDBLP,
		SearchDuration: time.Since(startTime),
	}, nil
}

// SourceType returns the source type identifier.
func (c *Client) SourceType() domain.SourceType {
	return domain.SourceTypeDBLP
}

// Name returns the human-readable name of the source.
func (c *Client) Name() string {
	return "DBLP"
}

// IsEnabled returns whether the source is enabled.
func (c *Client) IsEnabled() bool {
	return c.config.Enabled
}
