package modifier

import (
	"fmt"
	"math"
	"strings"

	"go.uber.org/zap"

	"github.com/danielpatrickdp/adaptive-difficulty/internal/provider"
)

// #region session-pattern

// SessionPattern looks for signs of frustration across sessions. The
// baseline checks use the rage-quit provider; history is optional and
// enables the multi-session checks.
type SessionPattern struct {
	baseline provider.RageQuitProvider
	history  provider.SessionPatternProvider
	config   SessionPatternConfig
	logger   *zap.Logger
}

// NewSessionPattern creates a SessionPattern modifier. history and logger may be nil.
func NewSessionPattern(baseline provider.RageQuitProvider, history provider.SessionPatternProvider, config SessionPatternConfig, logger *zap.Logger) *SessionPattern {
	return &SessionPattern{baseline: baseline, history: history, config: config, logger: orNop(logger)}
}

func (m *SessionPattern) Name() string    { return "SessionPattern" }
func (m *SessionPattern) Priority() int   { return m.config.Priority }
func (m *SessionPattern) IsEnabled() bool { return m.config.Enabled }

// sessionSnapshot holds one read of the baseline provider.
type sessionSnapshot struct {
	current   float64
	average   float64
	lastQuit  provider.QuitType
	rageQuits int
}

// finding is one fired analysis.
type finding struct {
	key    string
	value  float64
	reason string
}

// Calculate runs the analyses in order and sums every penalty that fires.
func (m *SessionPattern) Calculate() Result {
	snap := sessionSnapshot{
		current:   m.baseline.GetCurrentSessionDuration(),
		average:   m.baseline.GetAverageSessionDuration(),
		lastQuit:  m.baseline.GetLastQuitType(),
		rageQuits: m.baseline.GetRecentRageQuitCount(),
	}

	var findings []finding
	add := func(key string, penalty float64, reason string) {
		if penalty <= 0 || !finite(penalty) {
			return
		}
		findings = append(findings, finding{key: key, value: -penalty, reason: reason})
	}

	add(m.veryShortSession(snap))
	add(m.shortAverage(snap))
	add(m.rageQuitPattern(snap))
	add(m.midPlayQuit(snap))
	add(m.durationRatio(snap))
	if m.history != nil {
		add(m.shortSessionHistory())
		add(m.midLevelQuitRatio())
		add(m.adjustmentEffectiveness(snap))
	}

	res := Result{Name: m.Name()}
	res.Metadata.Set("current_session_seconds", snap.current)
	res.Metadata.Set("average_session_seconds", snap.average)
	res.Metadata.Set("history_available", m.history != nil)
	if len(findings) == 0 {
		res.Reason = "session patterns normal"
		return res
	}

	reasons := make([]string, 0, len(findings))
	for _, f := range findings {
		res.Value += f.value
		res.Metadata.Set(f.key, f.value)
		reasons = append(reasons, f.reason)
	}
	res.Reason = strings.Join(reasons, "; ")

	m.logger.Debug("session pattern evaluated",
		zap.Int("findings", len(findings)),
		zap.Float64("value", res.Value),
	)
	return res
}

// #endregion session-pattern

// #region baseline-analyses

func (m *SessionPattern) veryShortSession(s sessionSnapshot) (string, float64, string) {
	if s.current <= 0 || s.current >= m.config.VeryShortSessionSeconds {
		return "", 0, ""
	}
	return "very_short_session", m.config.VeryShortSessionPenalty,
		fmt.Sprintf("very short session (%.0fs)", s.current)
}

func (m *SessionPattern) shortAverage(s sessionSnapshot) (string, float64, string) {
	normal := m.config.MinNormalSessionSeconds
	if s.average <= 0 || normal <= 0 || s.average >= normal {
		return "", 0, ""
	}
	shortfall := (normal - s.average) / normal
	penalty := math.Min(shortfall*m.config.ShortAveragePenaltyScale, m.config.MaxShortAveragePenalty)
	return "short_average", penalty,
		fmt.Sprintf("average session %.0fs below normal %.0fs", s.average, normal)
}

func (m *SessionPattern) rageQuitPattern(s sessionSnapshot) (string, float64, string) {
	if m.config.RageQuitPatternThreshold <= 0 || s.rageQuits < m.config.RageQuitPatternThreshold {
		return "", 0, ""
	}
	return "rage_quit_pattern", m.config.RageQuitPatternPenalty * m.config.RageQuitPatternMultiplier,
		fmt.Sprintf("rage quit pattern (%d recent)", s.rageQuits)
}

func (m *SessionPattern) midPlayQuit(s sessionSnapshot) (string, float64, string) {
	if s.lastQuit != provider.QuitMidPlay {
		return "", 0, ""
	}
	return "mid_play_quit", m.config.MidPlayQuitPenalty, "last session ended mid-play"
}

// durationRatio measures the average against the normal minimum as a ratio.
// It overlaps with shortAverage and both may fire.
func (m *SessionPattern) durationRatio(s sessionSnapshot) (string, float64, string) {
	normal := m.config.MinNormalSessionSeconds
	target := m.config.NormalDurationRatio
	if s.average <= 0 || normal <= 0 || target <= 0 {
		return "", 0, ""
	}
	ratio := s.average / normal
	if ratio >= target {
		return "", 0, ""
	}
	penalty := (target - ratio) / target * m.config.DurationRatioPenaltyScale
	return "duration_ratio", penalty,
		fmt.Sprintf("session duration ratio %.2f below %.2f", ratio, target)
}

// #endregion baseline-analyses

// #region history-analyses

// shortSessionHistory only judges a full window.
func (m *SessionPattern) shortSessionHistory() (string, float64, string) {
	window := m.config.RecentSessionWindow
	if window <= 0 {
		return "", 0, ""
	}
	durations := m.history.GetRecentSessionDurations(window)
	if len(durations) < window {
		return "", 0, ""
	}
	short := 0
	for _, d := range durations[:window] {
		if d < m.config.VeryShortSessionSeconds {
			short++
		}
	}
	fraction := float64(short) / float64(window)
	if fraction <= m.config.ShortSessionRatioThreshold {
		return "", 0, ""
	}
	return "short_session_history", m.config.ShortSessionPatternPenalty,
		fmt.Sprintf("%d of last %d sessions very short", short, window)
}

func (m *SessionPattern) midLevelQuitRatio() (string, float64, string) {
	total := m.history.GetTotalRecentQuits()
	if total <= 0 {
		return "", 0, ""
	}
	mid := m.history.GetRecentMidLevelQuits()
	ratio := float64(mid) / float64(total)
	if ratio <= m.config.MidLevelQuitRatioThreshold {
		return "", 0, ""
	}
	penalty := (ratio - m.config.MidLevelQuitRatioThreshold) * m.config.MidLevelQuitPenaltyScale
	return "mid_level_quit_ratio", penalty,
		fmt.Sprintf("%d of %d recent quits mid-level", mid, total)
}

// adjustmentEffectiveness checks whether the previous adjustment made
// sessions longer.
func (m *SessionPattern) adjustmentEffectiveness(s sessionSnapshot) (string, float64, string) {
	previous := m.history.GetPreviousDifficulty()
	before := m.history.GetSessionDurationBeforeLastAdjustment()
	if previous <= 0 || before <= 0 || s.current <= 0 {
		return "", 0, ""
	}
	improvement := s.current / before
	if improvement >= m.config.ImprovementThreshold {
		return "", 0, ""
	}
	return "no_improvement", m.config.NoImprovementPenalty,
		fmt.Sprintf("last adjustment did not help (session ratio %.2f)", improvement)
}

// #endregion history-analyses
