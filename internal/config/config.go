package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/danielpatrickdp/adaptive-difficulty/internal/calculator"
	"github.com/danielpatrickdp/adaptive-difficulty/internal/modifier"
)

// #region file

// File is the on-disk configuration: global bounds plus one typed section
// per modifier type.
type File struct {
	Global    calculator.GlobalConfig `yaml:"global" json:"global"`
	Modifiers Modifiers               `yaml:"modifiers" json:"modifiers"`
}

// Modifiers holds one section per modifier type.
type Modifiers struct {
	WinStreak      modifier.WinStreakConfig      `yaml:"win_streak" json:"win_streak"`
	LossStreak     modifier.LossStreakConfig     `yaml:"loss_streak" json:"loss_streak"`
	TimeDecay      modifier.TimeDecayConfig      `yaml:"time_decay" json:"time_decay"`
	RageQuit       modifier.RageQuitConfig       `yaml:"rage_quit" json:"rage_quit"`
	CompletionRate modifier.CompletionRateConfig `yaml:"completion_rate" json:"completion_rate"`
	LevelProgress  modifier.LevelProgressConfig  `yaml:"level_progress" json:"level_progress"`
	SessionPattern modifier.SessionPatternConfig `yaml:"session_pattern" json:"session_pattern"`
}

// Default returns the built-in configuration.
func Default() *File {
	return &File{
		Global: calculator.DefaultGlobalConfig(),
		Modifiers: Modifiers{
			WinStreak:      modifier.DefaultWinStreakConfig(),
			LossStreak:     modifier.DefaultLossStreakConfig(),
			TimeDecay:      modifier.DefaultTimeDecayConfig(),
			RageQuit:       modifier.DefaultRageQuitConfig(),
			CompletionRate: modifier.DefaultCompletionRateConfig(),
			LevelProgress:  modifier.DefaultLevelProgressConfig(),
			SessionPattern: modifier.DefaultSessionPatternConfig(),
		},
	}
}

// Registry returns the modifier sections keyed by type.
func (m Modifiers) Registry() modifier.Registry {
	return modifier.Registry{
		modifier.TypeWinStreak:      m.WinStreak,
		modifier.TypeLossStreak:     m.LossStreak,
		modifier.TypeTimeDecay:      m.TimeDecay,
		modifier.TypeRageQuit:       m.RageQuit,
		modifier.TypeCompletionRate: m.CompletionRate,
		modifier.TypeLevelProgress:  m.LevelProgress,
		modifier.TypeSessionPattern: m.SessionPattern,
	}
}

// fromRegistry copies typed configs back out of r.
func fromRegistry(r modifier.Registry, base Modifiers) Modifiers {
	if c, ok := modifier.Lookup[modifier.WinStreakConfig](r, modifier.TypeWinStreak); ok {
		base.WinStreak = c
	}
	if c, ok := modifier.Lookup[modifier.LossStreakConfig](r, modifier.TypeLossStreak); ok {
		base.LossStreak = c
	}
	if c, ok := modifier.Lookup[modifier.TimeDecayConfig](r, modifier.TypeTimeDecay); ok {
		base.TimeDecay = c
	}
	if c, ok := modifier.Lookup[modifier.RageQuitConfig](r, modifier.TypeRageQuit); ok {
		base.RageQuit = c
	}
	if c, ok := modifier.Lookup[modifier.CompletionRateConfig](r, modifier.TypeCompletionRate); ok {
		base.CompletionRate = c
	}
	if c, ok := modifier.Lookup[modifier.LevelProgressConfig](r, modifier.TypeLevelProgress); ok {
		base.LevelProgress = c
	}
	if c, ok := modifier.Lookup[modifier.SessionPatternConfig](r, modifier.TypeSessionPattern); ok {
		base.SessionPattern = c
	}
	return base
}

// Normalize corrects invariant violations in place by clamping.
func (f *File) Normalize() {
	f.Global = f.Global.Normalize()
	f.Modifiers = fromRegistry(f.Modifiers.Registry().Normalize(), f.Modifiers)
}

// #endregion file

// #region load

// Load reads a YAML config over the defaults. A missing file yields the
// defaults. The result is normalized.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg := Default()
			cfg.Normalize()
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML over the defaults and normalizes the result.
func Parse(data []byte) (*File, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.Normalize()
	return cfg, nil
}

// Save writes the config as YAML, creating parent directories.
func (f *File) Save(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config dir: %w", err)
		}
	}
	data, err := yaml.Marshal(f)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// #endregion load
