package observability

import (
	"context"

	"github.com/rs/zerolog"
)

// Context keys for observability data.
type contextKey string

const (
	requestIDKey contextKey = "request_id"
	subjectKey   contextKey = "subject"
	kindKey      contextKey = "kind"
)

// WithRequestID adds a request ID to the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// RequestIDFromContext retrieves the request ID from context.
// Returns empty string if not present.
func RequestIDFromContext(ctx context.Context) string {
	return stringValue(ctx, requestIDKey)
}

// WithSubject records the lookup kind and subject on the context.
func WithSubject(ctx context.Context, kind, subject string) context.Context {
	ctx = context.WithValue(ctx, kindKey, kind)
	ctx = context.WithValue(ctx, subjectKey, subject)
	return ctx
}

// SubjectFromContext retrieves the lookup kind and subject.
// Returns empty strings if not present.
func SubjectFromContext(ctx context.Context) (kind, subject string) {
	return stringValue(ctx, kindKey), stringValue(ctx, subjectKey)
}

// LoggerFromContext returns logger enriched with whatever lookup fields the
// context carries.
func LoggerFromContext(ctx context.Context, logger zerolog.Logger) zerolog.Logger {
	kind, subject := SubjectFromContext(ctx)
	return WithStatsContext(logger, RequestIDFromContext(ctx), kind, subject)
}

func stringValue(ctx context.Context, key contextKey) string {
	if v := ctx.Value(key); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
