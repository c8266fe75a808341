package pubsources

import (
	"context"

	"golang.org/x/time/rate"
)

// RateLimiter is a token bucket shared by all requests a client sends to one
// source. It is safe for concurrent use.
type RateLimiter struct {
	limiter *rate.Limiter
}

// NewRateLimiter creates a limiter allowing ratePerSecond sustained requests
// with bursts of up to burst requests.
//
// HAL and DBLP both ask clients to stay well below 10 req/s.
func NewRateLimiter(ratePerSecond float64, burst int) *RateLimiter {
	return &RateLimiter{
		limiter: rate.NewLimiter(rate.Limit(ratePerSecond), burst),
	}
}

// Wait blocks until a request is allowed or ctx is done.
func (r *RateLimiter) Wait(ctx context.Context) error {
	return r.limiter.Wait(ctx)
}

// Allow reports whether a request may be sent now, consuming a token if so.
func (r *RateLimiter) Allow() bool {
	return r.limiter.Allow()
}

// Tokens returns the number of currently available tokens.
func (r *RateLimiter) Tokens() float64 {
	return r.limiter.Tokens()
}
