package modifier

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/danielpatrickdp/adaptive-difficulty/internal/provider"
)

// #region rage-quit

// RageQuit eases difficulty after the player quits. The per-quit penalty
// depends on how the last session ended; a repeated rage-quit pattern adds
// one extra scaled penalty on top.
type RageQuit struct {
	provider provider.RageQuitProvider
	config   RageQuitConfig
	logger   *zap.Logger
}

// NewRageQuit creates a RageQuit modifier. logger may be nil.
func NewRageQuit(p provider.RageQuitProvider, config RageQuitConfig, logger *zap.Logger) *RageQuit {
	return &RageQuit{provider: p, config: config, logger: orNop(logger)}
}

func (m *RageQuit) Name() string    { return "RageQuit" }
func (m *RageQuit) Priority() int   { return m.config.Priority }
func (m *RageQuit) IsEnabled() bool { return m.config.Enabled }

func (m *RageQuit) Calculate() Result {
	quitType := m.provider.GetLastQuitType()
	current := m.provider.GetCurrentSessionDuration()
	average := m.provider.GetAverageSessionDuration()
	rageCount := m.provider.GetRecentRageQuitCount()

	// an explicit rage or mid-play classification stands on its own
	if quitType == provider.QuitNormal && current <= 0 && average <= 0 && rageCount <= 0 {
		return neutral(m.Name(), "no session history")
	}

	var penalty float64
	var reasons []string

	switch quitType {
	case provider.QuitRageQuit:
		penalty += m.config.RageQuitReduction
		reasons = append(reasons, "rage quit detected")
	case provider.QuitMidPlay:
		penalty += m.config.MidPlayReduction
		reasons = append(reasons, "quit mid-play")
	default:
		penalty += m.config.QuitReduction
		reasons = append(reasons, "normal quit")
	}

	pattern := m.config.RageQuitThreshold > 0 && rageCount >= m.config.RageQuitThreshold
	if pattern {
		penalty += m.config.RageQuitReduction * m.config.PenaltyMultiplier
		reasons = append(reasons, fmt.Sprintf("%d recent rage quits", rageCount))
	}

	res := Result{Name: m.Name(), Value: -penalty, Reason: strings.Join(reasons, "; ")}
	if penalty == 0 {
		res.Value = 0
	}
	res.Metadata.Set("quit_type", quitType.String())
	res.Metadata.Set("recent_rage_quits", rageCount)
	res.Metadata.Set("pattern", pattern)
	res.Metadata.Set("current_session_seconds", current)
	res.Metadata.Set("average_session_seconds", average)

	m.logger.Debug("rage quit evaluated",
		zap.Stringer("quit_type", quitType),
		zap.Int("recent_rage_quits", rageCount),
		zap.Float64("value", res.Value),
	)
	return res
}

// #endregion rage-quit
