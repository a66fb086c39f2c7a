package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cpe-tracking-backend/config"
)

func TestParseLevel(t *testing.T) {
	testCases := []struct {
		in       string
		expected slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"info", slog.LevelInfo},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}

	for _, tc := range testCases {
		t.Run(tc.in, func(t *testing.T) {
			assert.Equal(t, tc.expected, ParseLevel(tc.in))
		})
	}
}

func TestNewWithWriter_JSONDefaultFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(config.LoggingConfig{Level: "info", Format: "json"}, "1.2.3", &buf)

	logger.With("component", "store").Info("query executed", "rows", 3)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "cpetrackd", entry["service"])
	assert.Equal(t, "1.2.3", entry["version"])
	assert.Equal(t, "store", entry["component"])
	assert.Equal(t, "query executed", entry["msg"])
	assert.EqualValues(t, 3, entry["rows"])
}

func TestNewWithWriter_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(config.LoggingConfig{Level: "warn", Format: "text"}, "dev", &buf)

	logger.Info("dropped")
	assert.Empty(t, buf.String())

	logger.Warn("kept")
	assert.Contains(t, buf.String(), "kept")
}

func TestStdLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(config.LoggingConfig{Level: "info", Format: "text"}, "dev", &buf)

	logger.StdLogger(slog.LevelWarn).Printf("slow query %dms", 250)
	assert.Contains(t, buf.String(), "slow query 250ms")
	assert.Contains(t, buf.String(), "level=WARN")
}
