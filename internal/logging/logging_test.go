package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"DEBUG":   slog.LevelDebug,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"info":    slog.LevelInfo,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range cases {
		assert.Equal(t, want, ParseLevel(in), in)
	}
}

func TestJSONLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, FormatJSON, "info", "mahjong")

	logger.Debug("hidden")
	logger.Info("Table closed", "tableId", "ABC123")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "Table closed", line["msg"])
	assert.Equal(t, "mahjong", line["app"])
	assert.Equal(t, "ABC123", line["tableId"])
}

func TestTextLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, FormatText, "debug", "mahjong")

	logger.Debug("Claim window expired", "round", 2)
	out := buf.String()
	assert.Contains(t, out, "Claim window expired")
	assert.Contains(t, out, "round=2")
	assert.Contains(t, out, "mahjong")
}
