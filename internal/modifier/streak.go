package modifier

import (
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/danielpatrickdp/adaptive-difficulty/internal/provider"
)

// #region win-streak

// WinStreak raises difficulty once the player wins several games in a row.
type WinStreak struct {
	provider provider.WinStreakProvider
	config   WinStreakConfig
	logger   *zap.Logger
}

// NewWinStreak creates a WinStreak modifier. logger may be nil.
func NewWinStreak(p provider.WinStreakProvider, config WinStreakConfig, logger *zap.Logger) *WinStreak {
	return &WinStreak{provider: p, config: config, logger: orNop(logger)}
}

func (m *WinStreak) Name() string    { return "WinStreak" }
func (m *WinStreak) Priority() int   { return m.config.Priority }
func (m *WinStreak) IsEnabled() bool { return m.config.Enabled }

// Calculate returns min(step*(streak-threshold+1), maxBonus) at or above the threshold.
func (m *WinStreak) Calculate() Result {
	streak := m.provider.GetWinStreak()
	value, capped := cappedLinear(streak, m.config.WinThreshold, m.config.StepSize, m.config.MaxBonus)

	res := Result{Name: m.Name(), Value: value}
	res.Metadata.Set("win_streak", streak)
	res.Metadata.Set("threshold", m.config.WinThreshold)
	res.Metadata.Set("capped", capped)

	switch {
	case value == 0:
		res.Reason = fmt.Sprintf("win streak %d below threshold %d", streak, m.config.WinThreshold)
	case capped:
		res.Reason = fmt.Sprintf("win streak of %d (capped at %.2f)", streak, m.config.MaxBonus)
	default:
		res.Reason = fmt.Sprintf("win streak of %d", streak)
	}

	m.logger.Debug("win streak evaluated",
		zap.Int("streak", streak),
		zap.Float64("value", value),
		zap.Bool("capped", capped),
	)
	return res
}

// #endregion win-streak

// #region loss-streak

// LossStreak lowers difficulty once the player loses several games in a row.
type LossStreak struct {
	provider provider.WinStreakProvider
	config   LossStreakConfig
	logger   *zap.Logger
}

// NewLossStreak creates a LossStreak modifier. logger may be nil.
func NewLossStreak(p provider.WinStreakProvider, config LossStreakConfig, logger *zap.Logger) *LossStreak {
	return &LossStreak{provider: p, config: config, logger: orNop(logger)}
}

func (m *LossStreak) Name() string    { return "LossStreak" }
func (m *LossStreak) Priority() int   { return m.config.Priority }
func (m *LossStreak) IsEnabled() bool { return m.config.Enabled }

// Calculate mirrors WinStreak with a negative sign. With the exponential
// curve the step grows by ExponentialBase per loss past the threshold.
func (m *LossStreak) Calculate() Result {
	streak := m.provider.GetLossStreak()

	var magnitude float64
	var capped bool
	if m.config.Curve == CurveExponential {
		magnitude, capped = cappedExponential(streak, m.config.LossThreshold, m.config.StepSize, m.config.ExponentialBase, m.config.MaxPenalty)
	} else {
		magnitude, capped = cappedLinear(streak, m.config.LossThreshold, m.config.StepSize, m.config.MaxPenalty)
	}

	res := Result{Name: m.Name(), Value: -magnitude}
	res.Metadata.Set("loss_streak", streak)
	res.Metadata.Set("threshold", m.config.LossThreshold)
	res.Metadata.Set("curve", m.config.Curve)
	res.Metadata.Set("capped", capped)

	switch {
	case magnitude == 0:
		res.Value = 0
		res.Reason = fmt.Sprintf("loss streak %d below threshold %d", streak, m.config.LossThreshold)
	case capped:
		res.Reason = fmt.Sprintf("loss streak of %d (capped at %.2f)", streak, m.config.MaxPenalty)
	default:
		res.Reason = fmt.Sprintf("loss streak of %d", streak)
	}

	m.logger.Debug("loss streak evaluated",
		zap.Int("streak", streak),
		zap.Float64("value", res.Value),
		zap.Bool("capped", capped),
	)
	return res
}

// #endregion loss-streak

// #region curves

// cappedLinear returns 0 below threshold, else min(step*(s-t+1), cap).
func cappedLinear(streak, threshold int, step, limit float64) (float64, bool) {
	if streak < threshold || streak <= 0 {
		return 0, false
	}
	raw := step * float64(streak-threshold+1)
	if raw >= limit {
		return limit, true
	}
	return raw, false
}

// cappedExponential returns 0 below threshold, else min(step*base^(s-t), cap).
func cappedExponential(streak, threshold int, step, base, limit float64) (float64, bool) {
	if streak < threshold || streak <= 0 {
		return 0, false
	}
	raw := step * math.Pow(base, float64(streak-threshold))
	if !finite(raw) || raw >= limit {
		return limit, true
	}
	return raw, false
}

// #endregion curves
