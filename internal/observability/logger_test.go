package observability

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helixir/lab-stats-service/internal/config"
)

func restoreGlobals(t *testing.T) {
	t.Helper()
	level, timeFormat := zerolog.GlobalLevel(), zerolog.TimeFieldFormat
	t.Cleanup(func() {
		zerolog.SetGlobalLevel(level)
		zerolog.TimeFieldFormat = timeFormat
	})
}

func TestNewLogger_JSON(t *testing.T) {
	restoreGlobals(t)
	var buf bytes.Buffer
	logger := newLogger(config.LoggingConfig{Level: "warn", Format: "json"}, ProcessAPI, &buf)

	logger.Info().Msg("dropped")
	logger.Warn().Str("source", "HAL").Msg("kept")

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 1, "info is below the configured level")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(lines[0], &entry))
	assert.Equal(t, "api", entry["process"])
	assert.Equal(t, "HAL", entry["source"])
	assert.Equal(t, "kept", entry["message"])
	assert.Contains(t, entry, "time")
}

func TestNewLogger_Console(t *testing.T) {
	restoreGlobals(t)
	var buf bytes.Buffer
	logger := newLogger(config.LoggingConfig{Level: "info", Format: "Pretty"}, ProcessMigrate, &buf)

	logger.Info().Msg("catalog schema up to date")

	out := buf.String()
	assert.Contains(t, out, "catalog schema up to date")
	assert.Contains(t, out, "process=")
	assert.Contains(t, out, "migrate")
	assert.False(t, json.Valid(bytes.TrimSpace(buf.Bytes())))
}

func TestNewLogger_AddSourceAndEmptyProcess(t *testing.T) {
	restoreGlobals(t)
	var buf bytes.Buffer
	logger := newLogger(config.LoggingConfig{AddSource: true}, "", &buf)

	logger.Info().Msg("hello")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.NotContains(t, entry, "process")
	assert.Contains(t, entry["caller"], "logger_test.go")
}

func TestNewLogger_Output(t *testing.T) {
	restoreGlobals(t)
	for _, output := range []string{"stdout", "STDERR", "syslog", ""} {
		t.Run(output, func(t *testing.T) {
			logger := NewLogger(config.LoggingConfig{Level: "debug", Output: output}, ProcessCLI)
			assert.Equal(t, zerolog.DebugLevel, logger.GetLevel())
		})
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected zerolog.Level
	}{
		{"trace", zerolog.TraceLevel},
		{"TRACE", zerolog.TraceLevel},
		{"debug", zerolog.DebugLevel},
		{"DEBUG", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"INFO", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"WARN", zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel},
		{"WARNING", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"ERROR", zerolog.ErrorLevel},
		{"fatal", zerolog.FatalLevel},
		{"FATAL", zerolog.FatalLevel},
		{"panic", zerolog.PanicLevel},
		{"PANIC", zerolog.PanicLevel},
		{" Error ", zerolog.ErrorLevel},
		{"disabled", zerolog.InfoLevel},
		{"unknown", zerolog.InfoLevel},
		{"", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result := parseLevel(tt.input)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestWithStatsContext(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	enriched := WithStatsContext(logger, "req-123", "person", "Jane Doe")
	enriched.Info().Msg("lookup started")

	var logEntry map[string]interface{}
	err := json.Unmarshal(buf.Bytes(), &logEntry)
	require.NoError(t, err)

	assert.Equal(t, "req-123", logEntry["request_id"])
	assert.Equal(t, "person", logEntry["kind"])
	assert.Equal(t, "Jane Doe", logEntry["subject"])
	assert.Equal(t, "lookup started", logEntry["message"])
}

func TestWithSourceContext(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	enriched := WithSourceContext(logger, "DBLP")
	enriched.Warn().Msg("source failed")

	var logEntry map[string]interface{}
	err := json.Unmarshal(buf.Bytes(), &logEntry)
	require.NoError(t, err)

	assert.Equal(t, "DBLP", logEntry["source"])
	assert.Equal(t, "warn", logEntry["level"])
}

func TestLoggerContextChaining(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	enriched := WithComponent(logger, "stats")
	enriched = WithStatsContext(enriched, "req-1", "lab", "LISTIC")
	enriched = WithSourceContext(enriched, "HAL")
	enriched.Info().Msg("chained context")

	var logEntry map[string]interface{}
	err := json.Unmarshal(buf.Bytes(), &logEntry)
	require.NoError(t, err)

	assert.Equal(t, "stats", logEntry["component"])
	assert.Equal(t, "req-1", logEntry["request_id"])
	assert.Equal(t, "lab", logEntry["kind"])
	assert.Equal(t, "LISTIC", logEntry["subject"])
	assert.Equal(t, "HAL", logEntry["source"])
}
