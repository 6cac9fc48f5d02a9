package provider

import (
	"fmt"
	"strings"
	"time"
)

// #region quit-type

// QuitType classifies how the player's last session ended.
type QuitType int

const (
	QuitNormal QuitType = iota
	QuitRageQuit
	QuitMidPlay
)

// String returns the lowercase wire name used in storage and fixtures.
func (q QuitType) String() string {
	switch q {
	case QuitRageQuit:
		return "rage_quit"
	case QuitMidPlay:
		return "mid_play"
	default:
		return "normal"
	}
}

// ParseQuitType accepts the wire names plus a few short aliases.
func ParseQuitType(s string) (QuitType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "normal":
		return QuitNormal, nil
	case "rage_quit", "ragequit", "rage":
		return QuitRageQuit, nil
	case "mid_play", "midplay", "mid":
		return QuitMidPlay, nil
	default:
		return QuitNormal, fmt.Errorf("unknown quit type %q", s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (q QuitType) MarshalText() ([]byte, error) {
	return []byte(q.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (q *QuitType) UnmarshalText(b []byte) error {
	v, err := ParseQuitType(string(b))
	if err != nil {
		return err
	}
	*q = v
	return nil
}

// #endregion quit-type

// #region contracts

// DataProvider owns the persisted difficulty value. Only the apply step
// calls SetCurrentDifficulty.
type DataProvider interface {
	GetCurrentDifficulty() float64
	SetCurrentDifficulty(value float64)
}

// WinStreakProvider exposes win/loss streaks and totals. A win resets the
// loss streak and vice versa.
type WinStreakProvider interface {
	GetWinStreak() int
	GetLossStreak() int
	GetTotalWins() int
	GetTotalLosses() int
}

// TimeDecayProvider exposes when the player last played.
type TimeDecayProvider interface {
	GetLastPlayTime() time.Time
	GetTimeSinceLastPlay() time.Duration
	GetDaysAwayFromGame() int
}

// RageQuitProvider exposes quit classification and session durations (seconds).
type RageQuitProvider interface {
	GetLastQuitType() QuitType
	GetCurrentSessionDuration() float64
	GetAverageSessionDuration() float64
	GetRecentRageQuitCount() int
}

// LevelProgressProvider exposes per-level performance.
type LevelProgressProvider interface {
	GetCurrentLevel() int
	GetAttemptsOnCurrentLevel() int
	GetAverageCompletionTime() float64
	GetCompletionRate() float64
	GetCurrentLevelDifficulty() float64
	GetCurrentLevelTimePercentage() float64
}

// SessionPatternProvider is the optional multi-session history facade.
type SessionPatternProvider interface {
	GetRecentSessionDurations(count int) []float64
	GetTotalRecentQuits() int
	GetRecentMidLevelQuits() int
	GetPreviousDifficulty() float64
	GetSessionDurationBeforeLastAdjustment() float64
}

// #endregion contracts

// #region set

// Set bundles the capability providers handed to the modifier factory.
// A nil field means the host does not supply that capability.
type Set struct {
	Data           DataProvider
	WinStreak      WinStreakProvider
	TimeDecay      TimeDecayProvider
	RageQuit       RageQuitProvider
	LevelProgress  LevelProgressProvider
	SessionPattern SessionPatternProvider
}

// Full returns a Set where every capability is served by p.
func Full(p *Snapshot) Set {
	return Set{
		Data:           p,
		WinStreak:      p,
		TimeDecay:      p,
		RageQuit:       p,
		LevelProgress:  p,
		SessionPattern: p,
	}
}

// #endregion set
