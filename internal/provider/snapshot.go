package provider

import (
	"math"
	"time"
)

// #region snapshot

// Snapshot is an in-memory view of a player's telemetry that satisfies every
// provider contract. Hosts materialise one per evaluation so that each
// provider call returns immediately.
type Snapshot struct {
	Difficulty float64 `json:"difficulty" yaml:"difficulty"`

	WinStreak   int `json:"win_streak" yaml:"win_streak"`
	LossStreak  int `json:"loss_streak" yaml:"loss_streak"`
	TotalWins   int `json:"total_wins" yaml:"total_wins"`
	TotalLosses int `json:"total_losses" yaml:"total_losses"`

	LastPlayTime       time.Time `json:"last_play_time,omitzero" yaml:"last_play_time,omitempty"`
	HoursSinceLastPlay float64   `json:"hours_since_last_play" yaml:"hours_since_last_play"`

	LastQuitType           QuitType `json:"last_quit_type" yaml:"last_quit_type"`
	CurrentSessionDuration float64  `json:"current_session_duration" yaml:"current_session_duration"`
	AverageSessionDuration float64  `json:"average_session_duration" yaml:"average_session_duration"`
	RecentRageQuitCount    int      `json:"recent_rage_quit_count" yaml:"recent_rage_quit_count"`

	CurrentLevel               int     `json:"current_level" yaml:"current_level"`
	AttemptsOnCurrentLevel     int     `json:"attempts_on_current_level" yaml:"attempts_on_current_level"`
	AverageCompletionTime      float64 `json:"average_completion_time" yaml:"average_completion_time"`
	CompletionRate             float64 `json:"completion_rate" yaml:"completion_rate"`
	CurrentLevelDifficulty     float64 `json:"current_level_difficulty" yaml:"current_level_difficulty"`
	CurrentLevelTimePercentage float64 `json:"current_level_time_percentage" yaml:"current_level_time_percentage"`

	// RecentSessionDurations is ordered most recent first.
	RecentSessionDurations              []float64 `json:"recent_session_durations,omitempty" yaml:"recent_session_durations,omitempty"`
	TotalRecentQuits                    int       `json:"total_recent_quits" yaml:"total_recent_quits"`
	RecentMidLevelQuits                 int       `json:"recent_mid_level_quits" yaml:"recent_mid_level_quits"`
	PreviousDifficulty                  float64   `json:"previous_difficulty" yaml:"previous_difficulty"`
	SessionDurationBeforeLastAdjustment float64   `json:"session_duration_before_last_adjustment" yaml:"session_duration_before_last_adjustment"`
}

// #endregion snapshot

// #region data

func (s *Snapshot) GetCurrentDifficulty() float64 { return s.Difficulty }

func (s *Snapshot) SetCurrentDifficulty(value float64) { s.Difficulty = value }

// #endregion data

// #region win-streak

func (s *Snapshot) GetWinStreak() int { return s.WinStreak }
func (s *Snapshot) GetLossStreak() int { return s.LossStreak }
func (s *Snapshot) GetTotalWins() int { return s.TotalWins }
func (s *Snapshot) GetTotalLosses() int { return s.TotalLosses }

// #endregion win-streak

// #region time-decay

func (s *Snapshot) GetLastPlayTime() time.Time { return s.LastPlayTime }

func (s *Snapshot) GetTimeSinceLastPlay() time.Duration {
	if s.HoursSinceLastPlay <= 0 || math.IsNaN(s.HoursSinceLastPlay) {
		return 0
	}
	ns := s.HoursSinceLastPlay * float64(time.Hour)
	if ns >= math.MaxInt64 {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(ns)
}

func (s *Snapshot) GetDaysAwayFromGame() int {
	if s.HoursSinceLastPlay <= 0 {
		return 0
	}
	return int(s.HoursSinceLastPlay / 24)
}

// #endregion time-decay

// #region rage-quit

func (s *Snapshot) GetLastQuitType() QuitType { return s.LastQuitType }
func (s *Snapshot) GetCurrentSessionDuration() float64 { return s.CurrentSessionDuration }
func (s *Snapshot) GetAverageSessionDuration() float64 { return s.AverageSessionDuration }
func (s *Snapshot) GetRecentRageQuitCount() int { return s.RecentRageQuitCount }

// #endregion rage-quit

// #region level-progress

func (s *Snapshot) GetCurrentLevel() int { return s.CurrentLevel }
func (s *Snapshot) GetAttemptsOnCurrentLevel() int { return s.AttemptsOnCurrentLevel }
func (s *Snapshot) GetAverageCompletionTime() float64 { return s.AverageCompletionTime }
func (s *Snapshot) GetCompletionRate() float64 { return s.CompletionRate }
func (s *Snapshot) GetCurrentLevelDifficulty() float64 { return s.CurrentLevelDifficulty }
func (s *Snapshot) GetCurrentLevelTimePercentage() float64 { return s.CurrentLevelTimePercentage }

// #endregion level-progress

// #region session-pattern

// GetRecentSessionDurations returns up to count durations, most recent first.
func (s *Snapshot) GetRecentSessionDurations(count int) []float64 {
	if count <= 0 || len(s.RecentSessionDurations) == 0 {
		return nil
	}
	if count > len(s.RecentSessionDurations) {
		count = len(s.RecentSessionDurations)
	}
	out := make([]float64, count)
	copy(out, s.RecentSessionDurations[:count])
	return out
}

func (s *Snapshot) GetTotalRecentQuits() int { return s.TotalRecentQuits }
func (s *Snapshot) GetRecentMidLevelQuits() int { return s.RecentMidLevelQuits }
func (s *Snapshot) GetPreviousDifficulty() float64 { return s.PreviousDifficulty }

func (s *Snapshot) GetSessionDurationBeforeLastAdjustment() float64 {
	return s.SessionDurationBeforeLastAdjustment
}

// #endregion session-pattern
