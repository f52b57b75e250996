package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadAppliesDefaultsWhenFieldsOmitted(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	content := `
aggregator:
  node_id: "gw-livingroom"
`
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0o644))

	cfg, err := Load(configPath)
	require.NoError(t, err)

	assert.Equal(t, "INFO", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
	assert.Equal(t, "gw-livingroom", cfg.Aggregator.NodeID)
	assert.Equal(t, 120*time.Second, cfg.Aggregator.AccTTL)
}

func TestLoadWithoutConfigFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Logging, cfg.Logging)
}

func TestValidateRejectsInvalidLogLevel(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Logging.Level = "VERBOSE"
	assert.Error(t, Validate(cfg))
}

func TestValidateRejectsZeroShutdownTimeout(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ShutdownTimeout = 0
	assert.Error(t, Validate(cfg))
}

func TestValidateRejectsBackoffMultiplierNotGreaterThanOne(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Steer.BackoffMultiplier = 1.0
	assert.Error(t, Validate(cfg))
}

func TestSaveConfigRoundTrips(t *testing.T) {
	cfg := DefaultConfig()
	path := filepath.Join(t.TempDir(), "sub", "config.yaml")

	require.NoError(t, SaveConfig(cfg, path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.Aggregator.NodeID, loaded.Aggregator.NodeID)
}
