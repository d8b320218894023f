package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/egraphlab/saturate/internal/config"
)

func TestLoadFromEnvDefaults(t *testing.T) {
	cfg := config.LoadFromEnv()

	assert.Equal(t, 1, cfg.Engine.TimestampSummary)
	assert.Equal(t, 1000, cfg.Engine.MaxOuterIterations)
	assert.Equal(t, 10000, cfg.Engine.MaxInnerIterations)
	assert.Nil(t, cfg.Rules.EnabledByCategory)
	assert.False(t, cfg.Checkpoint.Enabled)
	assert.Equal(t, "info", cfg.Logging.Level)

	require.NoError(t, cfg.Validate())
}

func TestLoadFromEnvOverrides(t *testing.T) {
	t.Setenv("EGRAPH_MAX_OUTER_ITERATIONS", "42")
	t.Setenv("EGRAPH_CHECKPOINT_ENABLED", "true")
	t.Setenv("EGRAPH_RULES_DISABLED", "self_sub_zero, add_sub_inverse")
	t.Setenv("EGRAPH_LOG_LEVEL", "debug")

	cfg := config.LoadFromEnv()

	assert.Equal(t, 42, cfg.Engine.MaxOuterIterations)
	assert.True(t, cfg.Checkpoint.Enabled)
	assert.Equal(t, map[string]bool{"self_sub_zero": false, "add_sub_inverse": false}, cfg.Rules.EnabledByCategory)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestValidateRejectsNonPositiveIterationBudgets(t *testing.T) {
	cfg := config.LoadFromEnv()
	cfg.Engine.MaxOuterIterations = 0
	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsCheckpointEnabledWithoutDataDir(t *testing.T) {
	cfg := config.LoadFromEnv()
	cfg.Checkpoint.Enabled = true
	cfg.Checkpoint.DataDir = ""
	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsUnrecognizedLogLevel(t *testing.T) {
	cfg := config.LoadFromEnv()
	cfg.Logging.Level = "verbose"
	assert.Error(t, cfg.Validate())
}
