package utils

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]Level{
		"debug":   LevelDebug,
		" INFO ":  LevelInfo,
		"warn":    LevelWarn,
		"warning": LevelWarn,
		"error":   LevelError,
		"":        LevelInfo,
		"verbose": LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), in)
	}
}

func TestLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerTo(&buf, LevelWarn)

	logger.Debug("debug %d", 1)
	logger.Info("info %d", 2)
	logger.Warn("warn %d", 3)
	logger.Error("error %d", 4)

	out := buf.String()
	assert.NotContains(t, out, "debug 1")
	assert.NotContains(t, out, "info 2")
	assert.Contains(t, out, "[WARN]  ")
	assert.Contains(t, out, "warn 3")
	assert.Contains(t, out, "[ERROR] ")
	assert.Contains(t, out, "error 4")
	assert.False(t, logger.DebugEnabled())
	assert.True(t, NewLoggerTo(&buf, LevelDebug).DebugEnabled())
}

func TestLogger_With(t *testing.T) {
	var buf bytes.Buffer
	base := NewLoggerTo(&buf, LevelInfo)
	tagged := base.With("run 1234").With("load")

	tagged.Info("hello")
	base.Info("plain")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if assert.Len(t, lines, 2) {
		assert.Contains(t, lines[0], "[run 1234 load] hello")
		assert.NotContains(t, lines[1], "[run")
		assert.Contains(t, lines[1], "plain")
	}
}

func TestDiscard(t *testing.T) {
	logger := Discard()
	assert.NotPanics(t, func() {
		logger.Error("dropped %s", "quietly")
	})
	assert.False(t, logger.DebugEnabled())
}
