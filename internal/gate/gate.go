package gate

import (
	"fmt"
	"math"
)

// #region gate
// Gate enforces the step limit and the absolute difficulty range on a
// proposed change.
type Gate struct {
	config GateConfig
}

// NewGate creates a gate with the given configuration.
func NewGate(config GateConfig) *Gate {
	return &Gate{config: config}
}

// Evaluate clamps delta to ±MaxChangePerEvaluation, applies it to current and
// clamps the result to [MinDifficulty, MaxDifficulty]. The returned
// difficulty is always finite and in range.
func (g *Gate) Evaluate(current, delta float64) GateDecision {
	var clamps []ClampSignal

	// 1. Non-finite inputs
	if !isFinite(current) {
		clamps = append(clamps, ClampSignal{
			Type:   ClampNonFinite,
			Reason: fmt.Sprintf("current difficulty %v replaced by default %.2f", current, g.config.DefaultDifficulty),
		})
		current = g.config.DefaultDifficulty
	}
	raw := delta
	if !isFinite(delta) {
		clamps = append(clamps, ClampSignal{
			Type:   ClampNonFinite,
			Reason: fmt.Sprintf("delta %v replaced by 0", delta),
		})
		delta = 0
	}

	// 2. Step limit
	limit := math.Abs(g.config.MaxChangePerEvaluation)
	if delta > limit || delta < -limit {
		clamped := math.Copysign(limit, delta)
		clamps = append(clamps, ClampSignal{
			Type:   ClampStepLimit,
			Reason: fmt.Sprintf("delta %.4f limited to %.4f", delta, clamped),
		})
		delta = clamped
	}

	// 3. Range
	next := current + delta
	if next < g.config.MinDifficulty {
		clamps = append(clamps, ClampSignal{
			Type:   ClampFloor,
			Reason: fmt.Sprintf("difficulty %.4f raised to floor %.4f", next, g.config.MinDifficulty),
		})
		next = g.config.MinDifficulty
	}
	if next > g.config.MaxDifficulty {
		clamps = append(clamps, ClampSignal{
			Type:   ClampCeiling,
			Reason: fmt.Sprintf("difficulty %.4f lowered to ceiling %.4f", next, g.config.MaxDifficulty),
		})
		next = g.config.MaxDifficulty
	}

	reason := fmt.Sprintf("applied delta %.4f", delta)
	if len(clamps) > 0 {
		reason = fmt.Sprintf("clamped: %s", clamps[len(clamps)-1].Reason)
	}

	return GateDecision{
		NewDifficulty: next,
		RawDelta:      raw,
		AppliedDelta:  delta,
		Clamped:       len(clamps) > 0,
		Clamps:        clamps,
		Reason:        reason,
	}
}

// #endregion gate

// #region helpers
func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// #endregion helpers
