package pubsources

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/helixir/lab-stats-service/internal/domain"
)

// maxResponseBytes bounds how much of an upstream body is decoded.
const maxResponseBytes = 20 << 20

// Doer sends a single HTTP request. *http.Client satisfies it; wrappers
// (circuit breakers, tracing transports) can be slotted in through
// NewHTTPClientWithDoer without touching any source package.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// HTTPClientConfig configures the HTTP client.
type HTTPClientConfig struct {
	// Timeout is the per-call deadline. Defaults to DefaultTimeout.
	Timeout time.Duration

	// RateLimit is the maximum requests per second.
	RateLimit float64

	// BurstSize is the maximum burst of requests allowed.
	BurstSize int

	// MaxRetries is the number of extra attempts on 429/5xx or network
	// errors. Zero, the default, sends every request exactly once.
	MaxRetries int

	// RetryDelay is the base delay between retries.
	RetryDelay time.Duration

	// UserAgent is the User-Agent header sent with requests.
	UserAgent string
}

// HTTPClient sends rate-limited requests to one upstream source.
// It is safe for concurrent use.
type HTTPClient struct {
	doer        Doer
	rateLimiter *RateLimiter
	config      HTTPClientConfig
}

// NewHTTPClient creates a new HTTP client backed by http.Client.
func NewHTTPClient(cfg HTTPClientConfig) *HTTPClient {
	cfg = applyHTTPDefaults(cfg)
	return NewHTTPClientWithDoer(cfg, &http.Client{Timeout: cfg.Timeout})
}

// NewHTTPClientWithDoer creates a client that sends requests through doer.
func NewHTTPClientWithDoer(cfg HTTPClientConfig, doer Doer) *HTTPClient {
	cfg = applyHTTPDefaults(cfg)
	return &HTTPClient{
		doer:        doer,
		rateLimiter: NewRateLimiter(cfg.RateLimit, cfg.BurstSize),
		config:      cfg,
	}
}

func applyHTTPDefaults(cfg HTTPClientConfig) HTTPClientConfig {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.RateLimit <= 0 {
		cfg.RateLimit = 5
	}
	if cfg.BurstSize <= 0 {
		cfg.BurstSize = 5
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = time.Second
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "Helixir-LabStatsService/1.0"
	}
	return cfg
}

// Timeout returns the effective per-call deadline.
func (c *HTTPClient) Timeout() time.Duration {
	return c.config.Timeout
}

// GetJSON performs one GET against rawURL under the per-call deadline and
// decodes the JSON body into out. Every failure (transport error, timeout,
// non-2xx status, malformed body) is returned as a *domain.UpstreamError
// attributed to source.
func (c *HTTPClient) GetJSON(ctx context.Context, source domain.SourceType, rawURL string, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return domain.NewUpstreamError(source, 0, fmt.Errorf("creating request: %w", err))
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.Do(req)
	if err != nil {
		return domain.NewUpstreamError(source, 0, fmt.Errorf("executing request: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		msg := http.StatusText(resp.StatusCode)
		if snippet := strings.TrimSpace(string(body)); snippet != "" {
			msg += ": " + snippet
		}
		return domain.NewUpstreamError(source, resp.StatusCode, errors.New(msg))
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(out); err != nil {
		return domain.NewUpstreamError(source, 0, fmt.Errorf("decoding response: %w", err))
	}
	return nil
}

// Do executes an HTTP request after waiting for the rate limiter.
// With MaxRetries > 0 it also retries network errors, 429 (honouring
// Retry-After) and 5xx responses.
func (c *HTTPClient) Do(req *http.Request) (*http.Response, error) {
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", c.config.UserAgent)
	}

	var lastErr error
	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		if err := c.rateLimiter.Wait(req.Context()); err != nil {
			return nil, fmt.Errorf("rate limiter wait: %w", err)
		}

		resp, err := c.doer.Do(req)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil, err
			}
			lastErr = fmt.Errorf("request failed: %w", err)
			if attempt < c.config.MaxRetries {
				if err := c.waitForRetry(req.Context(), c.config.RetryDelay); err != nil {
					return nil, err
				}
				continue
			}
			return nil, lastErr
		}

		if c.config.MaxRetries > 0 && c.shouldRetry(resp.StatusCode) {
			if attempt < c.config.MaxRetries {
				retryDelay := c.getRetryDelay(resp)
				_, _ = io.Copy(io.Discard, resp.Body)
				resp.Body.Close()

				lastErr = fmt.Errorf("server returned status %d", resp.StatusCode)
				if err := c.waitForRetry(req.Context(), retryDelay); err != nil {
					return nil, err
				}
				continue
			}
		}

		return resp, nil
	}

	if lastErr != nil {
		return nil, lastErr
	}
	return nil, errors.New("unexpected error: no response received")
}

// shouldRetry returns true if the status code indicates we should retry.
func (c *HTTPClient) shouldRetry(statusCode int) bool {
	if statusCode == http.StatusTooManyRequests {
		return true
	}
	return statusCode >= 500 && statusCode < 600
}

// getRetryDelay honours a Retry-After header in seconds or HTTP-date form.
func (c *HTTPClient) getRetryDelay(resp *http.Response) time.Duration {
	retryAfter := resp.Header.Get("Retry-After")
	if retryAfter == "" {
		return c.config.RetryDelay
	}

	if seconds, err := strconv.ParseInt(retryAfter, 10, 64); err == nil {
		if seconds > 0 {
			return time.Duration(seconds) * time.Second
		}
		return c.config.RetryDelay
	}

	if t, err := http.ParseTime(retryAfter); err == nil {
		if delay := time.Until(t); delay > 0 {
			return delay
		}
	}

	return c.config.RetryDelay
}

// waitForRetry waits for the specified duration, respecting context cancellation.
func (c *HTTPClient) waitForRetry(ctx context.Context, delay time.Duration) error {
	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
