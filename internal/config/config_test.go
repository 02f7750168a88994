package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/zeroaltitude/vestige/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	_ = os.Unsetenv("VESTIGE_DATA_DIR")
	_ = os.Unsetenv("VESTIGE_DREAM_WRITE_THRESHOLD")

	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, "./data", cfg.DataDir)
	assert.Equal(t, 50, cfg.DreamWriteThreshold)
	assert.Equal(t, 9.0, cfg.TagTTLHours)
	assert.Equal(t, 24.0, cfg.DreamMinIntervalHours)
	assert.Equal(t, 0.70, cfg.RetentionStateThresholds.Active)
	assert.Equal(t, 0.40, cfg.RetentionStateThresholds.Dormant)
	assert.Equal(t, 0.10, cfg.RetentionStateThresholds.Silent)
	assert.Equal(t, config.DefaultFSRSWeights, cfg.FSRSWeights)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("VESTIGE_DATA_DIR", "/tmp/vestige-data")
	t.Setenv("VESTIGE_DREAM_WRITE_THRESHOLD", "75")
	t.Setenv("VESTIGE_DETERMINISTIC_MODE", "true")

	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, "/tmp/vestige-data", cfg.DataDir)
	assert.Equal(t, 75, cfg.DreamWriteThreshold)
	assert.True(t, cfg.DeterministicMode)
}

func TestLoad_FSRSWeightOverride(t *testing.T) {
	t.Setenv("VESTIGE_FSRS_W0", "0.5")

	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, 0.5, cfg.FSRSWeights[0])
	assert.Equal(t, config.DefaultFSRSWeights[1], cfg.FSRSWeights[1])
}

func TestLoad_YAMLOverrideFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "vestige.yaml")
	err := os.WriteFile(path, []byte("dream_write_threshold: 10\ndeterministic_mode: true\n"), 0o644)
	require.NoError(t, err)

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, 10, cfg.DreamWriteThreshold)
	assert.True(t, cfg.DeterministicMode)
}

func TestLoad_MissingOverrideFileIsNotAnError(t *testing.T) {
	cfg, err := config.Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "./data", cfg.DataDir)
}
