package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielpatrickdp/adaptive-difficulty/internal/aggregate"
	"github.com/danielpatrickdp/adaptive-difficulty/internal/modifier"
)

func TestLoadMissingFileYieldsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	want := Default()
	want.Normalize()
	assert.Equal(t, want, cfg)
}

func TestParseOverlaysDefaults(t *testing.T) {
	cfg, err := Parse([]byte(`
global:
  max_difficulty: 8
  aggregation:
    strategy: diminishing
    decay_factor: 0.25
modifiers:
  win_streak:
    enabled: false
    win_threshold: 5
  loss_streak:
    curve: exponential
`))
	require.NoError(t, err)

	assert.Equal(t, 8.0, cfg.Global.MaxDifficulty)
	assert.Equal(t, 1.0, cfg.Global.MinDifficulty)
	assert.Equal(t, aggregate.StrategyDiminishing, cfg.Global.Aggregation.Strategy)
	assert.Equal(t, 0.25, cfg.Global.Aggregation.DecayFactor)

	assert.False(t, cfg.Modifiers.WinStreak.Enabled)
	assert.Equal(t, 5, cfg.Modifiers.WinStreak.WinThreshold)
	assert.Equal(t, 0.5, cfg.Modifiers.WinStreak.StepSize)
	assert.Equal(t, 10, cfg.Modifiers.WinStreak.Priority)
	assert.Equal(t, modifier.CurveExponential, cfg.Modifiers.LossStreak.Curve)
	assert.True(t, cfg.Modifiers.TimeDecay.Enabled)
}

func TestParseNormalizes(t *testing.T) {
	cfg, err := Parse([]byte(`
global:
  min_difficulty: 4
  max_difficulty: 2
  default_difficulty: 9
modifiers:
  completion_rate:
    low_threshold: 0.9
    high_threshold: 0.1
  time_decay:
    decay_per_day: -1
`))
	require.NoError(t, err)

	assert.Equal(t, 4.0, cfg.Global.MaxDifficulty)
	assert.Equal(t, 4.0, cfg.Global.DefaultDifficulty)
	assert.Equal(t, 0.1, cfg.Modifiers.CompletionRate.LowThreshold)
	assert.Equal(t, 0.9, cfg.Modifiers.CompletionRate.HighThreshold)
	assert.Equal(t, modifier.DefaultTimeDecayConfig().DecayPerDay, cfg.Modifiers.TimeDecay.DecayPerDay)
}

func TestParseInvalidYAML(t *testing.T) {
	_, err := Parse([]byte("global: [unterminated"))
	assert.Error(t, err)
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "difficulty.yaml")
	cfg := Default()
	cfg.Global.MaxChangePerEvaluation = 1.25
	cfg.Modifiers.SessionPattern.Enabled = false
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 1.25, loaded.Global.MaxChangePerEvaluation)
	assert.False(t, loaded.Modifiers.SessionPattern.Enabled)
}

func TestRegistryCoversEveryType(t *testing.T) {
	r := Default().Modifiers.Registry()
	for _, id := range modifier.AllTypes {
		c, ok := r[id]
		require.True(t, ok, "missing %s", id)
		assert.Equal(t, id, c.Type())
	}
}

func TestLoadUnreadablePath(t *testing.T) {
	dir := t.TempDir()
	// a directory cannot be read as a file
	_, err := Load(dir)
	assert.Error(t, err)
	_, statErr := os.Stat(dir)
	require.NoError(t, statErr)
}

func TestLoadRuntimeDefaults(t *testing.T) {
	rt, err := LoadRuntime()
	require.NoError(t, err)
	assert.Equal(t, "difficulty.db", rt.DBPath)
	assert.Equal(t, "default", rt.Player)
	assert.Equal(t, 10, rt.HistoryWindow)
	assert.Equal(t, 30.0, rt.RageQuitSeconds)
}

func TestLoadRuntimeFromEnv(t *testing.T) {
	t.Setenv("DIFFICULTY_DB", "/tmp/save.db")
	t.Setenv("DIFFICULTY_PLAYER", "alice")
	t.Setenv("DIFFICULTY_LOG_DEV", "true")
	t.Setenv("DIFFICULTY_HISTORY_WINDOW", "0")

	rt, err := LoadRuntime()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/save.db", rt.DBPath)
	assert.Equal(t, "alice", rt.Player)
	assert.True(t, rt.LogDevelopment)
	assert.Equal(t, 10, rt.HistoryWindow, "non-positive window falls back")
}

func TestLoadRuntimeBadValue(t *testing.T) {
	t.Setenv("DIFFICULTY_HISTORY_WINDOW", "many")
	_, err := LoadRuntime()
	assert.Error(t, err)
}
