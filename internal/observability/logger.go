package observability

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/helixir/lab-stats-service/internal/config"
)

// Process names stamped on every entry as the "process" field.
const (
	ProcessAPI     = "api"
	ProcessCLI     = "labstats"
	ProcessMigrate = "migrate"
)

// NewLogger builds the logger of one process from the logging section of the
// configuration. Unknown outputs fall back to stdout, unknown levels to info.
func NewLogger(cfg config.LoggingConfig, process string) zerolog.Logger {
	out := os.Stdout
	if strings.EqualFold(strings.TrimSpace(cfg.Output), "stderr") {
		out = os.Stderr
	}
	return newLogger(cfg, process, out)
}

func newLogger(cfg config.LoggingConfig, process string, out io.Writer) zerolog.Logger {
	zerolog.TimeFieldFormat = cfg.TimeFormat
	if zerolog.TimeFieldFormat == "" {
		zerolog.TimeFieldFormat = time.RFC3339
	}

	if humanFormat(cfg.Format) {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: zerolog.TimeFieldFormat}
	}

	zctx := zerolog.New(out).With().Timestamp()
	if process != "" {
		zctx = zctx.Str("process", process)
	}
	if cfg.AddSource {
		zctx = zctx.Caller()
	}

	level := parseLevel(cfg.Level)
	zerolog.SetGlobalLevel(level)
	return zctx.Logger().Level(level)
}

func humanFormat(format string) bool {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "console", "pretty":
		return true
	}
	return false
}

// parseLevel accepts zerolog level names in any case plus "warning".
func parseLevel(level string) zerolog.Level {
	level = strings.ToLower(strings.TrimSpace(level))
	if level == "warning" {
		return zerolog.WarnLevel
	}

	parsed, err := zerolog.ParseLevel(level)
	if err != nil || parsed == zerolog.NoLevel || parsed == zerolog.Disabled {
		return zerolog.InfoLevel
	}
	return parsed
}

// WithStatsContext adds the fields identifying one statistics lookup.
func WithStatsContext(logger zerolog.Logger, requestID, kind, subject string) zerolog.Logger {
	return logger.With().
		Str("request_id", requestID).
		Str("kind", kind).
		Str("subject", subject).
		Logger()
}

// WithSourceContext adds the upstream source to a logger.
func WithSourceContext(logger zerolog.Logger, source string) zerolog.Logger {
	return logger.With().
		Str("source", source).
		Logger()
}

// WithComponent tags a logger with the component that owns it.
func WithComponent(logger zerolog.Logger, component string) zerolog.Logger {
	return logger.With().
		Str("component", component).
		Logger()
}
