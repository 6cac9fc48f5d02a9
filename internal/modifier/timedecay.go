package modifier

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/danielpatrickdp/adaptive-difficulty/internal/provider"
)

// TimeDecay eases difficulty for players returning after a break. The
// penalty is proportional to fractional days away and flattens at MaxDecay.
type TimeDecay struct {
	provider provider.TimeDecayProvider
	config   TimeDecayConfig
	logger   *zap.Logger
}

// NewTimeDecay creates a TimeDecay modifier. logger may be nil.
func NewTimeDecay(p provider.TimeDecayProvider, config TimeDecayConfig, logger *zap.Logger) *TimeDecay {
	return &TimeDecay{provider: p, config: config, logger: orNop(logger)}
}

func (m *TimeDecay) Name() string    { return "TimeDecay" }
func (m *TimeDecay) Priority() int   { return m.config.Priority }
func (m *TimeDecay) IsEnabled() bool { return m.config.Enabled }

func (m *TimeDecay) Calculate() Result {
	hours := m.provider.GetTimeSinceLastPlay().Hours()
	if !finite(hours) || hours <= m.config.GraceHours {
		return neutral(m.Name(), fmt.Sprintf("%.1fh away is within the %.1fh grace period", hours, m.config.GraceHours))
	}

	daysAway := hours / 24
	decay := m.config.DecayPerDay * daysAway
	capped := decay >= m.config.MaxDecay
	if capped {
		decay = m.config.MaxDecay
	}
	if decay <= 0 {
		return neutral(m.Name(), "time decay disabled by zero cap")
	}

	res := Result{Name: m.Name(), Value: -decay}
	res.Metadata.Set("hours_away", hours)
	res.Metadata.Set("days_away", daysAway)
	res.Metadata.Set("capped", capped)
	if capped {
		res.Reason = fmt.Sprintf("away for %.1f days (capped at %.2f)", daysAway, m.config.MaxDecay)
	} else {
		res.Reason = fmt.Sprintf("away for %.1f days", daysAway)
	}

	m.logger.Debug("time decay evaluated", zap.Float64("hours", hours), zap.Float64("value", res.Value))
	return res
}
