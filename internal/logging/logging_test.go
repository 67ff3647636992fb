package logging

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, ParseLevel(" WARN "))
	assert.Equal(t, slog.LevelError, ParseLevel("Error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
}

func TestConfigure(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })
	t.Setenv(EnvLevel, "")

	var buf bytes.Buffer
	Configure("warn", &buf)
	slog.Info("hidden")
	slog.Warn("shown", "comp", "test")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "msg=shown comp=test")

	SetLevel(slog.LevelDebug)
	slog.Debug("now visible")
	assert.Contains(t, buf.String(), "now visible")
}

func TestConfigure_EnvOverrides(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })
	t.Setenv(EnvLevel, "ERROR")

	var buf bytes.Buffer
	Configure("debug", &buf)
	slog.Warn("suppressed")
	assert.Empty(t, buf.String())
}
