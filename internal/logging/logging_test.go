package logging_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nfrund/typedbus/internal/logging"
)

func TestNew(t *testing.T) {
	previous := slog.Default()
	t.Cleanup(func() { slog.SetDefault(previous) })

	t.Run("JSON format", func(t *testing.T) {
		var buf bytes.Buffer
		logger := logging.New(logging.Options{Format: "json", Level: "info"}, &buf)

		logger.Debug("hidden")
		logger.Info("shown", "channel", "score")

		var line map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
		assert.Equal(t, "shown", line["msg"])
		assert.Equal(t, "score", line["channel"])
	})

	t.Run("Text format sets the default logger", func(t *testing.T) {
		var buf bytes.Buffer
		logging.New(logging.Options{Level: "warn"}, &buf)

		slog.Info("hidden")
		slog.Warn("careful")

		assert.NotContains(t, buf.String(), "hidden")
		assert.Contains(t, buf.String(), "msg=careful")
	})
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, logging.ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, logging.ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, logging.ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, logging.ParseLevel(""))
}
