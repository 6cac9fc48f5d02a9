package modifier

import "math"

// #region type-id

// TypeID identifies a modifier type in the config registry.
type TypeID string

const (
	TypeWinStreak      TypeID = "win_streak"
	TypeLossStreak     TypeID = "loss_streak"
	TypeTimeDecay      TypeID = "time_decay"
	TypeRageQuit       TypeID = "rage_quit"
	TypeCompletionRate TypeID = "completion_rate"
	TypeLevelProgress  TypeID = "level_progress"
	TypeSessionPattern TypeID = "session_pattern"
)

// AllTypes lists every modifier type in registration order.
var AllTypes = []TypeID{
	TypeTimeDecay,
	TypeWinStreak,
	TypeLossStreak,
	TypeRageQuit,
	TypeCompletionRate,
	TypeLevelProgress,
	TypeSessionPattern,
}

// #endregion type-id

// #region base

// BaseConfig holds the fields every modifier config carries.
// Priority only orders execution and breaks primary-reason ties.
type BaseConfig struct {
	Enabled  bool `yaml:"enabled" json:"enabled"`
	Priority int  `yaml:"priority" json:"priority"`
}

// Config is a typed parameter bag for one modifier type.
type Config interface {
	Type() TypeID
	Base() BaseConfig
	normalize() Config
}

// #endregion base

// #region win-streak-config

// WinStreakConfig tunes the win streak bonus.
type WinStreakConfig struct {
	BaseConfig   `yaml:",inline"`
	WinThreshold int     `yaml:"win_threshold" json:"win_threshold"`
	StepSize     float64 `yaml:"step_size" json:"step_size"`
	MaxBonus     float64 `yaml:"max_bonus" json:"max_bonus"`
}

// DefaultWinStreakConfig returns sensible defaults.
func DefaultWinStreakConfig() WinStreakConfig {
	return WinStreakConfig{
		BaseConfig:   BaseConfig{Enabled: true, Priority: 10},
		WinThreshold: 3,
		StepSize:     0.5,
		MaxBonus:     2.0,
	}
}

func (c WinStreakConfig) Type() TypeID     { return TypeWinStreak }
func (c WinStreakConfig) Base() BaseConfig { return c.BaseConfig }

func (c WinStreakConfig) normalize() Config {
	d := DefaultWinStreakConfig()
	c.WinThreshold = countKnob(c.WinThreshold, d.WinThreshold)
	c.StepSize = knob(c.StepSize, d.StepSize)
	c.MaxBonus = knob(c.MaxBonus, d.MaxBonus)
	return c
}

// #endregion win-streak-config

// #region loss-streak-config

// Loss streak response curves.
const (
	CurveLinear      = "linear"
	CurveExponential = "exponential"
)

// LossStreakConfig tunes the loss streak penalty. Curve "linear" is the
// default; "exponential" grows the penalty by ExponentialBase per extra loss.
type LossStreakConfig struct {
	BaseConfig      `yaml:",inline"`
	LossThreshold   int     `yaml:"loss_threshold" json:"loss_threshold"`
	StepSize        float64 `yaml:"step_size" json:"step_size"`
	MaxPenalty      float64 `yaml:"max_penalty" json:"max_penalty"`
	Curve           string  `yaml:"curve" json:"curve"`
	ExponentialBase float64 `yaml:"exponential_base" json:"exponential_base"`
}

// DefaultLossStreakConfig returns sensible defaults.
func DefaultLossStreakConfig() LossStreakConfig {
	return LossStreakConfig{
		BaseConfig:      BaseConfig{Enabled: true, Priority: 11},
		LossThreshold:   2,
		StepSize:        0.6,
		MaxPenalty:      2.0,
		Curve:           CurveLinear,
		ExponentialBase: 1.5,
	}
}

func (c LossStreakConfig) Type() TypeID     { return TypeLossStreak }
func (c LossStreakConfig) Base() BaseConfig { return c.BaseConfig }

func (c LossStreakConfig) normalize() Config {
	d := DefaultLossStreakConfig()
	c.LossThreshold = countKnob(c.LossThreshold, d.LossThreshold)
	c.StepSize = knob(c.StepSize, d.StepSize)
	c.MaxPenalty = knob(c.MaxPenalty, d.MaxPenalty)
	if c.Curve != CurveExponential {
		c.Curve = CurveLinear
	}
	if !finite(c.ExponentialBase) || c.ExponentialBase < 1 {
		c.ExponentialBase = d.ExponentialBase
	}
	return c
}

// #endregion loss-streak-config

// #region time-decay-config

// TimeDecayConfig tunes the comeback penalty after time away.
type TimeDecayConfig struct {
	BaseConfig  `yaml:",inline"`
	GraceHours  float64 `yaml:"grace_hours" json:"grace_hours"`
	DecayPerDay float64 `yaml:"decay_per_day" json:"decay_per_day"`
	MaxDecay    float64 `yaml:"max_decay" json:"max_decay"`
}

// DefaultTimeDecayConfig returns sensible defaults.
func DefaultTimeDecayConfig() TimeDecayConfig {
	return TimeDecayConfig{
		BaseConfig:  BaseConfig{Enabled: true, Priority: 5},
		GraceHours:  6,
		DecayPerDay: 0.5,
		MaxDecay:    2.0,
	}
}

func (c TimeDecayConfig) Type() TypeID     { return TypeTimeDecay }
func (c TimeDecayConfig) Base() BaseConfig { return c.BaseConfig }

func (c TimeDecayConfig) normalize() Config {
	d := DefaultTimeDecayConfig()
	c.GraceHours = knob(c.GraceHours, d.GraceHours)
	c.DecayPerDay = knob(c.DecayPerDay, d.DecayPerDay)
	c.MaxDecay = knob(c.MaxDecay, d.MaxDecay)
	return c
}

// #endregion time-decay-config

// #region rage-quit-config

// RageQuitConfig tunes penalties for quitting behaviour.
type RageQuitConfig struct {
	BaseConfig        `yaml:",inline"`
	RageQuitThreshold int     `yaml:"rage_quit_threshold" json:"rage_quit_threshold"`
	RageQuitReduction float64 `yaml:"rage_quit_reduction" json:"rage_quit_reduction"`
	QuitReduction     float64 `yaml:"quit_reduction" json:"quit_reduction"`
	MidPlayReduction  float64 `yaml:"mid_play_reduction" json:"mid_play_reduction"`
	PenaltyMultiplier float64 `yaml:"penalty_multiplier" json:"penalty_multiplier"`
}

// DefaultRageQuitConfig returns sensible defaults.
func DefaultRageQuitConfig() RageQuitConfig {
	return RageQuitConfig{
		BaseConfig:        BaseConfig{Enabled: true, Priority: 20},
		RageQuitThreshold: 3,
		RageQuitReduction: 1.0,
		QuitReduction:     0.1,
		MidPlayReduction:  0.5,
		PenaltyMultiplier: 0.5,
	}
}

func (c RageQuitConfig) Type() TypeID     { return TypeRageQuit }
func (c RageQuitConfig) Base() BaseConfig { return c.BaseConfig }

func (c RageQuitConfig) normalize() Config {
	d := DefaultRageQuitConfig()
	c.RageQuitThreshold = countKnob(c.RageQuitThreshold, d.RageQuitThreshold)
	c.RageQuitReduction = knob(c.RageQuitReduction, d.RageQuitReduction)
	c.QuitReduction = knob(c.QuitReduction, d.QuitReduction)
	c.MidPlayReduction = knob(c.MidPlayReduction, d.MidPlayReduction)
	c.PenaltyMultiplier = knob(c.PenaltyMultiplier, d.PenaltyMultiplier)
	return c
}

// #endregion rage-quit-config

// #region completion-rate-config

// CompletionRateConfig tunes the win-rate band adjustment.
type CompletionRateConfig struct {
	BaseConfig     `yaml:",inline"`
	MinAttempts    int     `yaml:"min_attempts" json:"min_attempts"`
	LowThreshold   float64 `yaml:"low_threshold" json:"low_threshold"`
	HighThreshold  float64 `yaml:"high_threshold" json:"high_threshold"`
	LowRatePenalty float64 `yaml:"low_rate_penalty" json:"low_rate_penalty"`
	HighRateBonus  float64 `yaml:"high_rate_bonus" json:"high_rate_bonus"`
	LevelWeight    float64 `yaml:"level_weight" json:"level_weight"`
}

// DefaultCompletionRateConfig returns sensible defaults.
func DefaultCompletionRateConfig() CompletionRateConfig {
	return CompletionRateConfig{
		BaseConfig:     BaseConfig{Enabled: true, Priority: 30},
		MinAttempts:    10,
		LowThreshold:   0.4,
		HighThreshold:  0.7,
		LowRatePenalty: 0.5,
		HighRateBonus:  0.5,
		LevelWeight:    0.3,
	}
}

func (c CompletionRateConfig) Type() TypeID     { return TypeCompletionRate }
func (c CompletionRateConfig) Base() BaseConfig { return c.BaseConfig }

func (c CompletionRateConfig) normalize() Config {
	d := DefaultCompletionRateConfig()
	c.MinAttempts = countKnob(c.MinAttempts, d.MinAttempts)
	c.LowThreshold = knob(c.LowThreshold, d.LowThreshold)
	c.HighThreshold = knob(c.HighThreshold, d.HighThreshold)
	if c.LowThreshold > c.HighThreshold {
		c.LowThreshold, c.HighThreshold = c.HighThreshold, c.LowThreshold
	}
	c.LowRatePenalty = knob(c.LowRatePenalty, d.LowRatePenalty)
	c.HighRateBonus = knob(c.HighRateBonus, d.HighRateBonus)
	c.LevelWeight = clampf(knob(c.LevelWeight, d.LevelWeight), 0, 1)
	return c
}

// #endregion completion-rate-config

// #region level-progress-config

// LevelProgressConfig tunes the four level-progress analyses.
type LevelProgressConfig struct {
	BaseConfig `yaml:",inline"`

	MaxAttempts       int     `yaml:"max_attempts" json:"max_attempts"`
	PerAttemptPenalty float64 `yaml:"per_attempt_penalty" json:"per_attempt_penalty"`
	MaxAttemptPenalty float64 `yaml:"max_attempt_penalty" json:"max_attempt_penalty"` // 0 = no cap

	FastTimeRatio         float64 `yaml:"fast_time_ratio" json:"fast_time_ratio"`
	SlowTimeRatio         float64 `yaml:"slow_time_ratio" json:"slow_time_ratio"`
	FastCompletionBonus   float64 `yaml:"fast_completion_bonus" json:"fast_completion_bonus"`
	SlowCompletionPenalty float64 `yaml:"slow_completion_penalty" json:"slow_completion_penalty"`
	MaxPenaltyMultiplier  float64 `yaml:"max_penalty_multiplier" json:"max_penalty_multiplier"`

	ExpectedLevelsPerHour    float64 `yaml:"expected_levels_per_hour" json:"expected_levels_per_hour"`
	ProgressionScale         float64 `yaml:"progression_scale" json:"progression_scale"`
	MaxProgressionAdjustment float64 `yaml:"max_progression_adjustment" json:"max_progression_adjustment"` // 0 = no cap

	HardLevelThreshold     float64 `yaml:"hard_level_threshold" json:"hard_level_threshold"`
	EasyLevelThreshold     float64 `yaml:"easy_level_threshold" json:"easy_level_threshold"`
	MasteryCompletionRate  float64 `yaml:"mastery_completion_rate" json:"mastery_completion_rate"`
	MasteryBonus           float64 `yaml:"mastery_bonus" json:"mastery_bonus"`
	StruggleCompletionRate float64 `yaml:"struggle_completion_rate" json:"struggle_completion_rate"`
	StrugglePenalty        float64 `yaml:"struggle_penalty" json:"struggle_penalty"`
}

// DefaultLevelProgressConfig returns sensible defaults.
func DefaultLevelProgressConfig() LevelProgressConfig {
	return LevelProgressConfig{
		BaseConfig:             BaseConfig{Enabled: true, Priority: 40},
		MaxAttempts:            5,
		PerAttemptPenalty:      0.1,
		FastTimeRatio:          0.7,
		SlowTimeRatio:          1.5,
		FastCompletionBonus:    0.5,
		SlowCompletionPenalty:  0.5,
		MaxPenaltyMultiplier:   2.0,
		ExpectedLevelsPerHour:  4,
		ProgressionScale:       0.05,
		HardLevelThreshold:     7,
		EasyLevelThreshold:     3,
		MasteryCompletionRate:  0.8,
		MasteryBonus:           0.3,
		StruggleCompletionRate: 0.3,
		StrugglePenalty:        0.3,
	}
}

func (c LevelProgressConfig) Type() TypeID     { return TypeLevelProgress }
func (c LevelProgressConfig) Base() BaseConfig { return c.BaseConfig }

func (c LevelProgressConfig) normalize() Config {
	d := DefaultLevelProgressConfig()
	c.MaxAttempts = countKnob(c.MaxAttempts, d.MaxAttempts)
	c.PerAttemptPenalty = knob(c.PerAttemptPenalty, d.PerAttemptPenalty)
	c.MaxAttemptPenalty = knob(c.MaxAttemptPenalty, d.MaxAttemptPenalty)
	c.FastTimeRatio = knob(c.FastTimeRatio, d.FastTimeRatio)
	c.SlowTimeRatio = knob(c.SlowTimeRatio, d.SlowTimeRatio)
	if c.FastTimeRatio > c.SlowTimeRatio {
		c.FastTimeRatio, c.SlowTimeRatio = c.SlowTimeRatio, c.FastTimeRatio
	}
	c.FastCompletionBonus = knob(c.FastCompletionBonus, d.FastCompletionBonus)
	c.SlowCompletionPenalty = knob(c.SlowCompletionPenalty, d.SlowCompletionPenalty)
	c.MaxPenaltyMultiplier = knob(c.MaxPenaltyMultiplier, d.MaxPenaltyMultiplier)
	c.ExpectedLevelsPerHour = knob(c.ExpectedLevelsPerHour, d.ExpectedLevelsPerHour)
	c.ProgressionScale = knob(c.ProgressionScale, d.ProgressionScale)
	c.MaxProgressionAdjustment = knob(c.MaxProgressionAdjustment, d.MaxProgressionAdjustment)
	c.HardLevelThreshold = knob(c.HardLevelThreshold, d.HardLevelThreshold)
	c.EasyLevelThreshold = knob(c.EasyLevelThreshold, d.EasyLevelThreshold)
	c.MasteryCompletionRate = knob(c.MasteryCompletionRate, d.MasteryCompletionRate)
	c.MasteryBonus = knob(c.MasteryBonus, d.MasteryBonus)
	c.StruggleCompletionRate = knob(c.StruggleCompletionRate, d.StruggleCompletionRate)
	c.StrugglePenalty = knob(c.StrugglePenalty, d.StrugglePenalty)
	return c
}

// #endregion level-progress-config

// #region session-pattern-config

// SessionPatternConfig tunes the six session-pattern analyses. Durations are
// in seconds.
type SessionPatternConfig struct {
	BaseConfig `yaml:",inline"`

	VeryShortSessionSeconds float64 `yaml:"very_short_session_seconds" json:"very_short_session_seconds"`
	VeryShortSessionPenalty float64 `yaml:"very_short_session_penalty" json:"very_short_session_penalty"`

	MinNormalSessionSeconds  float64 `yaml:"min_normal_session_seconds" json:"min_normal_session_seconds"`
	ShortAveragePenaltyScale float64 `yaml:"short_average_penalty_scale" json:"short_average_penalty_scale"`
	MaxShortAveragePenalty   float64 `yaml:"max_short_average_penalty" json:"max_short_average_penalty"`

	RageQuitPatternThreshold  int     `yaml:"rage_quit_pattern_threshold" json:"rage_quit_pattern_threshold"`
	RageQuitPatternPenalty    float64 `yaml:"rage_quit_pattern_penalty" json:"rage_quit_pattern_penalty"`
	RageQuitPatternMultiplier float64 `yaml:"rage_quit_pattern_multiplier" json:"rage_quit_pattern_multiplier"`

	MidPlayQuitPenalty float64 `yaml:"mid_play_quit_penalty" json:"mid_play_quit_penalty"`

	NormalDurationRatio       float64 `yaml:"normal_duration_ratio" json:"normal_duration_ratio"`
	DurationRatioPenaltyScale float64 `yaml:"duration_ratio_penalty_scale" json:"duration_ratio_penalty_scale"`

	RecentSessionWindow        int     `yaml:"recent_session_window" json:"recent_session_window"`
	ShortSessionRatioThreshold float64 `yaml:"short_session_ratio_threshold" json:"short_session_ratio_threshold"`
	ShortSessionPatternPenalty float64 `yaml:"short_session_pattern_penalty" json:"short_session_pattern_penalty"`
	MidLevelQuitRatioThreshold float64 `yaml:"mid_level_quit_ratio_threshold" json:"mid_level_quit_ratio_threshold"`
	MidLevelQuitPenaltyScale   float64 `yaml:"mid_level_quit_penalty_scale" json:"mid_level_quit_penalty_scale"`
	ImprovementThreshold       float64 `yaml:"improvement_threshold" json:"improvement_threshold"`
	NoImprovementPenalty       float64 `yaml:"no_improvement_penalty" json:"no_improvement_penalty"`
}

// DefaultSessionPatternConfig returns sensible defaults.
func DefaultSessionPatternConfig() SessionPatternConfig {
	return SessionPatternConfig{
		BaseConfig:                 BaseConfig{Enabled: true, Priority: 50},
		VeryShortSessionSeconds:    60,
		VeryShortSessionPenalty:    0.3,
		MinNormalSessionSeconds:    300,
		ShortAveragePenaltyScale:   0.5,
		MaxShortAveragePenalty:     0.4,
		RageQuitPatternThreshold:   3,
		RageQuitPatternPenalty:     0.2,
		RageQuitPatternMultiplier:  1.5,
		MidPlayQuitPenalty:         0.2,
		NormalDurationRatio:        0.5,
		DurationRatioPenaltyScale:  0.3,
		RecentSessionWindow:        5,
		ShortSessionRatioThreshold: 0.6,
		ShortSessionPatternPenalty: 0.3,
		MidLevelQuitRatioThreshold: 0.5,
		MidLevelQuitPenaltyScale:   0.5,
		ImprovementThreshold:       1.1,
		NoImprovementPenalty:       0.1,
	}
}

func (c SessionPatternConfig) Type() TypeID     { return TypeSessionPattern }
func (c SessionPatternConfig) Base() BaseConfig { return c.BaseConfig }

func (c SessionPatternConfig) normalize() Config {
	d := DefaultSessionPatternConfig()
	c.VeryShortSessionSeconds = knob(c.VeryShortSessionSeconds, d.VeryShortSessionSeconds)
	c.VeryShortSessionPenalty = knob(c.VeryShortSessionPenalty, d.VeryShortSessionPenalty)
	c.MinNormalSessionSeconds = knob(c.MinNormalSessionSeconds, d.MinNormalSessionSeconds)
	c.ShortAveragePenaltyScale = knob(c.ShortAveragePenaltyScale, d.ShortAveragePenaltyScale)
	c.MaxShortAveragePenalty = knob(c.MaxShortAveragePenalty, d.MaxShortAveragePenalty)
	c.RageQuitPatternThreshold = countKnob(c.RageQuitPatternThreshold, d.RageQuitPatternThreshold)
	c.RageQuitPatternPenalty = knob(c.RageQuitPatternPenalty, d.RageQuitPatternPenalty)
	c.RageQuitPatternMultiplier = knob(c.RageQuitPatternMultiplier, d.RageQuitPatternMultiplier)
	c.MidPlayQuitPenalty = knob(c.MidPlayQuitPenalty, d.MidPlayQuitPenalty)
	c.NormalDurationRatio = knob(c.NormalDurationRatio, d.NormalDurationRatio)
	c.DurationRatioPenaltyScale = knob(c.DurationRatioPenaltyScale, d.DurationRatioPenaltyScale)
	c.RecentSessionWindow = countKnob(c.RecentSessionWindow, d.RecentSessionWindow)
	c.ShortSessionRatioThreshold = knob(c.ShortSessionRatioThreshold, d.ShortSessionRatioThreshold)
	c.ShortSessionPatternPenalty = knob(c.ShortSessionPatternPenalty, d.ShortSessionPatternPenalty)
	c.MidLevelQuitRatioThreshold = knob(c.MidLevelQuitRatioThreshold, d.MidLevelQuitRatioThreshold)
	c.MidLevelQuitPenaltyScale = knob(c.MidLevelQuitPenaltyScale, d.MidLevelQuitPenaltyScale)
	c.ImprovementThreshold = knob(c.ImprovementThreshold, d.ImprovementThreshold)
	c.NoImprovementPenalty = knob(c.NoImprovementPenalty, d.NoImprovementPenalty)
	return c
}

// #endregion session-pattern-config

// #region registry

// Registry maps each modifier type to its typed config.
type Registry map[TypeID]Config

// DefaultRegistry returns a registry holding every default config.
func DefaultRegistry() Registry {
	return Registry{
		TypeWinStreak:      DefaultWinStreakConfig(),
		TypeLossStreak:     DefaultLossStreakConfig(),
		TypeTimeDecay:      DefaultTimeDecayConfig(),
		TypeRageQuit:       DefaultRageQuitConfig(),
		TypeCompletionRate: DefaultCompletionRateConfig(),
		TypeLevelProgress:  DefaultLevelProgressConfig(),
		TypeSessionPattern: DefaultSessionPatternConfig(),
	}
}

// Normalize returns a copy with every knob made finite and non-negative.
// Invalid knobs fall back to their defaults.
func (r Registry) Normalize() Registry {
	out := make(Registry, len(r))
	for id, c := range r {
		if c == nil {
			continue
		}
		out[id] = c.normalize()
	}
	return out
}

// Lookup returns the config registered under id as T.
func Lookup[T Config](r Registry, id TypeID) (T, bool) {
	var zero T
	c, ok := r[id]
	if !ok {
		return zero, false
	}
	typed, ok := c.(T)
	if !ok {
		return zero, false
	}
	return typed, true
}

// #endregion registry

// #region helpers

// knob returns v when it is a usable non-negative number, else def.
func knob(v, def float64) float64 {
	if !finite(v) || v < 0 {
		return def
	}
	return v
}

func countKnob(v, def int) int {
	if v < 0 {
		return def
	}
	return v
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func clampf(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// #endregion helpers
