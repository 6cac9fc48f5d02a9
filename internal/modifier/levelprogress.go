package modifier

import (
	"fmt"
	"math"
	"strings"

	"go.uber.org/zap"

	"github.com/danielpatrickdp/adaptive-difficulty/internal/provider"
)

// #region level-progress

// LevelProgress combines four level-based analyses: attempts on the current
// level, completion time against the expected time, overall progression
// speed, and a mastery/struggle check against the level's own difficulty.
type LevelProgress struct {
	provider provider.LevelProgressProvider
	config   LevelProgressConfig
	logger   *zap.Logger
}

// NewLevelProgress creates a LevelProgress modifier. logger may be nil.
func NewLevelProgress(p provider.LevelProgressProvider, config LevelProgressConfig, logger *zap.Logger) *LevelProgress {
	return &LevelProgress{provider: p, config: config, logger: orNop(logger)}
}

func (m *LevelProgress) Name() string    { return "LevelProgress" }
func (m *LevelProgress) Priority() int   { return m.config.Priority }
func (m *LevelProgress) IsEnabled() bool { return m.config.Enabled }

// levelSnapshot holds one read of every provider value.
type levelSnapshot struct {
	level          int
	attempts       int
	avgTime        float64
	rate           float64
	difficulty     float64
	timePercentage float64
}

// Calculate sums the four analyses. Each one that fires adds a reason.
func (m *LevelProgress) Calculate() Result {
	snap := levelSnapshot{
		level:          m.provider.GetCurrentLevel(),
		attempts:       m.provider.GetAttemptsOnCurrentLevel(),
		avgTime:        m.provider.GetAverageCompletionTime(),
		rate:           m.provider.GetCompletionRate(),
		difficulty:     m.provider.GetCurrentLevelDifficulty(),
		timePercentage: m.provider.GetCurrentLevelTimePercentage(),
	}

	res := Result{Name: m.Name()}
	var reasons []string

	parts := []struct {
		key string
		fn  func(levelSnapshot) (float64, string)
	}{
		{"attempts_adjustment", m.analyzeAttempts},
		{"time_adjustment", m.analyzeTime},
		{"progression_adjustment", m.analyzeProgression},
		{"mastery_adjustment", m.analyzeMastery},
	}
	for _, p := range parts {
		v, reason := p.fn(snap)
		if !finite(v) {
			v = 0
		}
		res.Metadata.Set(p.key, v)
		if v != 0 {
			res.Value += v
			reasons = append(reasons, reason)
		}
	}

	res.Metadata.Set("level", snap.level)
	res.Metadata.Set("attempts", snap.attempts)
	if len(reasons) == 0 {
		res.Reason = fmt.Sprintf("level %d progress on track", snap.level)
	} else {
		res.Reason = strings.Join(reasons, "; ")
	}

	m.logger.Debug("level progress evaluated", zap.Int("level", snap.level), zap.Float64("value", res.Value))
	return res
}

// #endregion level-progress

// #region analyses

// analyzeAttempts penalises each attempt beyond MaxAttempts.
func (m *LevelProgress) analyzeAttempts(s levelSnapshot) (float64, string) {
	if s.attempts <= m.config.MaxAttempts {
		return 0, ""
	}
	extra := s.attempts - m.config.MaxAttempts
	penalty := float64(extra) * m.config.PerAttemptPenalty
	if m.config.MaxAttemptPenalty > 0 && penalty > m.config.MaxAttemptPenalty {
		penalty = m.config.MaxAttemptPenalty
	}
	return -penalty, fmt.Sprintf("%d attempts on level %d", s.attempts, s.level)
}

// analyzeTime compares the completion time ratio (1.0 = expected) against
// the fast and slow thresholds.
func (m *LevelProgress) analyzeTime(s levelSnapshot) (float64, string) {
	r := s.timePercentage
	if r <= 0 || !finite(r) {
		return 0, ""
	}
	switch {
	case r < m.config.FastTimeRatio && m.config.FastTimeRatio > 0:
		bonus := m.config.FastCompletionBonus * (m.config.FastTimeRatio - r) / m.config.FastTimeRatio
		return bonus, fmt.Sprintf("fast completion (%.0f%% of expected time)", r*100)
	case r > m.config.SlowTimeRatio:
		over := math.Min(r-m.config.SlowTimeRatio, m.config.MaxPenaltyMultiplier)
		return -m.config.SlowCompletionPenalty * over, fmt.Sprintf("slow completion (%.0f%% of expected time)", r*100)
	}
	return 0, ""
}

// analyzeProgression compares the actual level against the level expected
// from elapsed play time.
func (m *LevelProgress) analyzeProgression(s levelSnapshot) (float64, string) {
	if s.level <= 0 || s.avgTime <= 0 || !finite(s.avgTime) || m.config.ExpectedLevelsPerHour <= 0 {
		return 0, ""
	}
	hoursPlayed := float64(s.level) * s.avgTime / 3600
	expected := hoursPlayed * m.config.ExpectedLevelsPerHour
	diff := float64(s.level) - expected
	adj := diff * m.config.ProgressionScale
	if m.config.MaxProgressionAdjustment > 0 {
		adj = clampf(adj, -m.config.MaxProgressionAdjustment, m.config.MaxProgressionAdjustment)
	}
	switch {
	case adj > 0:
		return adj, fmt.Sprintf("ahead of curve (level %d vs %.1f expected)", s.level, expected)
	case adj < 0:
		return adj, fmt.Sprintf("behind curve (level %d vs %.1f expected)", s.level, expected)
	}
	return 0, ""
}

// analyzeMastery fires at most one of mastery or struggle.
func (m *LevelProgress) analyzeMastery(s levelSnapshot) (float64, string) {
	if s.difficulty <= 0 || !finite(s.difficulty) || !finite(s.rate) {
		return 0, ""
	}
	if s.difficulty >= m.config.HardLevelThreshold && s.rate > m.config.MasteryCompletionRate {
		return m.config.MasteryBonus, fmt.Sprintf("mastering hard level (difficulty %.1f)", s.difficulty)
	}
	if s.difficulty <= m.config.EasyLevelThreshold && s.rate < m.config.StruggleCompletionRate {
		return -m.config.StrugglePenalty, fmt.Sprintf("struggling on easy level (difficulty %.1f)", s.difficulty)
	}
	return 0, ""
}

// #endregion analyses
