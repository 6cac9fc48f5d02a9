package calculator

import (
	"math"
	"time"

	"github.com/danielpatrickdp/adaptive-difficulty/internal/aggregate"
	"github.com/danielpatrickdp/adaptive-difficulty/internal/gate"
	"github.com/danielpatrickdp/adaptive-difficulty/internal/modifier"
)

// NoChangeReason is the primary reason when no modifier contributed.
const NoChangeReason = "No change"

// #region global-config
// GlobalConfig holds the range and step settings shared by every evaluation.
type GlobalConfig struct {
	MinDifficulty          float64          `yaml:"min_difficulty" json:"min_difficulty"`
	MaxDifficulty          float64          `yaml:"max_difficulty" json:"max_difficulty"`
	DefaultDifficulty      float64          `yaml:"default_difficulty" json:"default_difficulty"`
	MaxChangePerEvaluation float64          `yaml:"max_change_per_evaluation" json:"max_change_per_evaluation"`
	Aggregation            aggregate.Config `yaml:"aggregation" json:"aggregation"`
}

// DefaultGlobalConfig returns a 1..10 range starting at 3 with a 2.0 step cap.
func DefaultGlobalConfig() GlobalConfig {
	return GlobalConfig{
		MinDifficulty:          1,
		MaxDifficulty:          10,
		DefaultDifficulty:      3,
		MaxChangePerEvaluation: 2,
		Aggregation:            aggregate.DefaultConfig(),
	}
}

// Normalize corrects invariant violations by clamping: non-finite bounds
// fall back to defaults, max is raised to min, the default is clamped into
// range and the step cap is made non-negative.
func (c GlobalConfig) Normalize() GlobalConfig {
	d := DefaultGlobalConfig()
	if !isFinite(c.MinDifficulty) {
		c.MinDifficulty = d.MinDifficulty
	}
	if !isFinite(c.MaxDifficulty) {
		c.MaxDifficulty = d.MaxDifficulty
	}
	if c.MaxDifficulty < c.MinDifficulty {
		c.MaxDifficulty = c.MinDifficulty
	}
	if !isFinite(c.DefaultDifficulty) {
		c.DefaultDifficulty = d.DefaultDifficulty
	}
	c.DefaultDifficulty = clamp(c.DefaultDifficulty, c.MinDifficulty, c.MaxDifficulty)
	if !isFinite(c.MaxChangePerEvaluation) {
		c.MaxChangePerEvaluation = d.MaxChangePerEvaluation
	}
	c.MaxChangePerEvaluation = math.Abs(c.MaxChangePerEvaluation)
	if !c.Aggregation.Strategy.Valid() {
		c.Aggregation.Strategy = aggregate.StrategySum
	}
	return c
}

// GateConfig projects the bounds consumed by the gate.
func (c GlobalConfig) GateConfig() gate.GateConfig {
	return gate.GateConfig{
		MinDifficulty:          c.MinDifficulty,
		MaxDifficulty:          c.MaxDifficulty,
		DefaultDifficulty:      c.DefaultDifficulty,
		MaxChangePerEvaluation: c.MaxChangePerEvaluation,
	}
}

// #endregion global-config

// #region result
// Result is the immutable outcome of one evaluation. Applying it is a
// separate step (see Apply).
type Result struct {
	PreviousDifficulty float64           `json:"previous_difficulty"`
	NewDifficulty      float64           `json:"new_difficulty"`
	AppliedModifiers   []modifier.Result `json:"applied_modifiers"`
	PrimaryReason      string            `json:"primary_reason"`
	EvaluatedAt        time.Time         `json:"evaluated_at"`
	Metrics            Metrics           `json:"metrics"`
}

// Delta returns NewDifficulty - PreviousDifficulty.
func (r Result) Delta() float64 {
	return r.NewDifficulty - r.PreviousDifficulty
}

// Changed reports whether the evaluation moved the difficulty.
func (r Result) Changed() bool {
	return r.NewDifficulty != r.PreviousDifficulty
}

// #endregion result

// #region metrics
// Metrics captures diagnostics from one evaluation.
type Metrics struct {
	Strategy     aggregate.Strategy `json:"strategy"`
	RawDelta     float64            `json:"raw_delta"`
	ClampedDelta float64            `json:"clamped_delta"`
	Clamps       []gate.ClampSignal `json:"clamps,omitempty"`
	Faults       []string           `json:"faults,omitempty"`
	Skipped      []string           `json:"skipped,omitempty"` // disabled modifiers
	PrimaryName  string             `json:"primary_name,omitempty"`
}

// #endregion metrics

// #region helpers
func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// #endregion helpers
