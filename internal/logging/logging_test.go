package logging

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithFileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "nexscan.log")

	logger, err := New(Config{
		Level:  LevelInfo,
		Format: FormatJSON,
		Output: path,
	})
	require.NoError(t, err)

	logger.Info("scan started", "target", "10.0.0.1")

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(data, &entry))
	assert.Equal(t, "scan started", entry["msg"])
	assert.Equal(t, "10.0.0.1", entry["target"])
}

func TestNewLevelFiltering(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nexscan.log")

	logger, err := New(Config{
		Level:  LevelWarn,
		Format: FormatText,
		Output: path,
	})
	require.NoError(t, err)

	logger.Debug("dropped")
	logger.Info("also dropped")
	logger.Warn("kept")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(data)
	assert.NotContains(t, out, "dropped")
	assert.Contains(t, out, "kept")
}

func TestNewUnknownLevelDefaultsToInfo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nexscan.log")

	logger, err := New(Config{
		Level:  LogLevel("loud"),
		Format: FormatText,
		Output: path,
	})
	require.NoError(t, err)

	logger.Debug("dropped")
	logger.Info("kept")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "kept")
	assert.NotContains(t, string(data), "dropped")
}

func TestWithHelpersAttachFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nexscan.log")

	logger, err := New(Config{
		Level:  LevelDebug,
		Format: FormatJSON,
		Output: path,
	})
	require.NoError(t, err)

	logger.WithComponent("engine").
		WithScanID("abc-123").
		WithTarget("192.0.2.1").
		Info("worker started")

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(data, &entry))
	assert.Equal(t, "engine", entry["component"])
	assert.Equal(t, "abc-123", entry["scan_id"])
	assert.Equal(t, "192.0.2.1", entry["target"])
}

func TestDebugProbeFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nexscan.log")

	logger, err := New(Config{
		Level:  LevelDebug,
		Format: FormatJSON,
		Output: path,
	})
	require.NoError(t, err)

	logger.DebugProbe("probe done", "192.0.2.1", 443, "state", "open")

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(data, &entry))
	assert.Equal(t, "192.0.2.1", entry["target"])
	assert.Equal(t, float64(443), entry["port"])
	assert.Equal(t, "open", entry["state"])
}

func TestSetDefaultSwapsGlobalLogger(t *testing.T) {
	original := Default()
	defer SetDefault(original)

	path := filepath.Join(t.TempDir(), "nexscan.log")
	logger, err := New(Config{Level: LevelInfo, Format: FormatText, Output: path})
	require.NoError(t, err)

	SetDefault(logger)
	Info("via package function", "k", "v")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), "via package function"))
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, LevelInfo, cfg.Level)
	assert.Equal(t, FormatText, cfg.Format)
	assert.Equal(t, "stderr", cfg.Output)
	assert.False(t, cfg.AddSource)
}
