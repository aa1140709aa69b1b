package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLoggerJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger(Config{Level: "info", Format: "json"}, &buf)

	log.Info("review run finished", "repo", "octo/demo", "pr", 7)

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "review run finished", record["msg"])
	assert.Equal(t, "octo/demo", record["repo"])
}

func TestNewLoggerLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger(Config{Level: "warn", Format: "text"}, &buf)

	log.Info("should be dropped")
	log.Warn("should appear")

	out := buf.String()
	assert.NotContains(t, out, "should be dropped")
	assert.Contains(t, out, "should appear")
}

func TestNewLoggerUnknownLevelDefaultsToInfo(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger(Config{Level: "noisy", Format: "text"}, &buf)

	log.Debug("debug hidden")
	log.Info("info visible")

	assert.False(t, strings.Contains(buf.String(), "debug hidden"))
	assert.True(t, strings.Contains(buf.String(), "info visible"))
}
