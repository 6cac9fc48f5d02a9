package modifier

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/danielpatrickdp/adaptive-difficulty/internal/provider"
)

// CompletionRate keeps the player's success rate inside a target band.
// levels may be nil, in which case only the overall win ratio is used.
type CompletionRate struct {
	streaks provider.WinStreakProvider
	levels  provider.LevelProgressProvider
	config  CompletionRateConfig
	logger  *zap.Logger
}

// NewCompletionRate creates a CompletionRate modifier. levels and logger may be nil.
func NewCompletionRate(streaks provider.WinStreakProvider, levels provider.LevelProgressProvider, config CompletionRateConfig, logger *zap.Logger) *CompletionRate {
	return &CompletionRate{streaks: streaks, levels: levels, config: config, logger: orNop(logger)}
}

func (m *CompletionRate) Name() string    { return "CompletionRate" }
func (m *CompletionRate) Priority() int   { return m.config.Priority }
func (m *CompletionRate) IsEnabled() bool { return m.config.Enabled }

func (m *CompletionRate) Calculate() Result {
	wins := m.streaks.GetTotalWins()
	losses := m.streaks.GetTotalLosses()
	attempts := wins + losses
	if attempts <= 0 || attempts < m.config.MinAttempts {
		res := neutral(m.Name(), "not enough attempts")
		res.Metadata.Set("attempts", attempts)
		res.Metadata.Set("min_attempts", m.config.MinAttempts)
		return res
	}

	overall := float64(wins) / float64(attempts)
	weight := m.config.LevelWeight
	levelRate := overall
	if m.levels != nil {
		levelRate = clampf(m.levels.GetCompletionRate(), 0, 1)
		if !finite(levelRate) {
			levelRate = overall
		}
	} else {
		weight = 0
	}
	rate := overall*(1-weight) + levelRate*weight

	res := Result{Name: m.Name()}
	res.Metadata.Set("attempts", attempts)
	res.Metadata.Set("overall_rate", overall)
	res.Metadata.Set("level_rate", levelRate)
	res.Metadata.Set("weighted_rate", rate)

	switch {
	case rate < m.config.LowThreshold:
		res.Value = -m.config.LowRatePenalty
		res.Reason = fmt.Sprintf("completion rate %.0f%% below %.0f%%", rate*100, m.config.LowThreshold*100)
	case rate > m.config.HighThreshold:
		res.Value = m.config.HighRateBonus
		res.Reason = fmt.Sprintf("completion rate %.0f%% above %.0f%%", rate*100, m.config.HighThreshold*100)
	default:
		res.Reason = fmt.Sprintf("completion rate %.0f%% within target band", rate*100)
	}

	m.logger.Debug("completion rate evaluated", zap.Float64("rate", rate), zap.Float64("value", res.Value))
	return res
}
