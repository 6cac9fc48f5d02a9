package state

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/danielpatrickdp/adaptive-difficulty/internal/provider"
)

// #region snapshot
// Snapshot summarises the player's stored telemetry into a provider.Snapshot
// as of now. Session statistics use the most recent opts.HistoryWindow
// sessions; completion rate uses the same window over attempts on the
// current level.
func (s *Store) Snapshot(playerID string, now time.Time, opts SnapshotOptions) (*provider.Snapshot, error) {
	if opts.HistoryWindow <= 0 {
		opts = DefaultSnapshotOptions()
	}
	snap := &provider.Snapshot{}

	active, err := s.GetCurrent(playerID)
	hasActive := err == nil
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if hasActive {
		snap.Difficulty = active.Difficulty
		if active.ParentID != "" {
			parent, err := s.GetVersion(active.ParentID)
			if err != nil {
				return nil, fmt.Errorf("load parent: %w", err)
			}
			snap.PreviousDifficulty = parent.Difficulty
		}
	}

	attempts, err := s.loadAttempts(playerID)
	if err != nil {
		return nil, err
	}
	if err := s.fillAttempts(snap, attempts, opts.HistoryWindow); err != nil {
		return nil, err
	}

	sessions, err := s.loadSessions(playerID, opts.HistoryWindow)
	if err != nil {
		return nil, err
	}
	fillSessions(snap, sessions, now)

	if hasActive && snap.PreviousDifficulty > 0 {
		before, err := s.durationBefore(playerID, active.CreatedAt)
		if err != nil {
			return nil, err
		}
		if len(sessions) > 0 && sessions[0].StartedAt.After(active.CreatedAt) {
			snap.SessionDurationBeforeLastAdjustment = before
		}
	}

	return snap, nil
}

// #endregion snapshot

// #region attempts
func (s *Store) fillAttempts(snap *provider.Snapshot, attempts []Attempt, window int) error {
	if len(attempts) == 0 {
		return nil
	}

	// streaks run from the newest attempt until the outcome flips
	first := attempts[0].Won
	streak := 0
	for _, a := range attempts {
		if a.Won != first {
			break
		}
		streak++
	}
	if first {
		snap.WinStreak = streak
	} else {
		snap.LossStreak = streak
	}

	var wonSeconds float64
	var wonCount int
	var levelSeconds float64
	var levelWon int
	snap.CurrentLevel = attempts[0].Level
	for _, a := range attempts {
		if a.Won {
			snap.TotalWins++
			wonSeconds += a.Seconds
			wonCount++
		} else {
			snap.TotalLosses++
		}
		if a.Level == snap.CurrentLevel {
			snap.AttemptsOnCurrentLevel++
			if a.Won {
				levelSeconds += a.Seconds
				levelWon++
			}
		}
	}
	if wonCount > 0 {
		snap.AverageCompletionTime = wonSeconds / float64(wonCount)
	}

	// completion rate covers the current level within the window
	recent := attempts
	if len(recent) > window {
		recent = recent[:window]
	}
	var tries, wins int
	for _, a := range recent {
		if a.Level != snap.CurrentLevel {
			continue
		}
		tries++
		if a.Won {
			wins++
		}
	}
	if tries > 0 {
		snap.CompletionRate = float64(wins) / float64(tries)
	}

	lvl, err := s.getLevel(snap.CurrentLevel)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return err
	}
	snap.CurrentLevelDifficulty = lvl.Difficulty
	if levelWon > 0 && lvl.ExpectedSeconds > 0 {
		snap.CurrentLevelTimePercentage = (levelSeconds / float64(levelWon)) / lvl.ExpectedSeconds
	}
	return nil
}

// #endregion attempts

// #region sessions
func fillSessions(snap *provider.Snapshot, sessions []Session, now time.Time) {
	if len(sessions) == 0 {
		return
	}
	latest := sessions[0]
	snap.LastPlayTime = latest.EndedAt()
	if h := now.Sub(snap.LastPlayTime).Hours(); h > 0 {
		snap.HoursSinceLastPlay = h
	}
	snap.LastQuitType = latest.QuitType
	snap.CurrentSessionDuration = latest.DurationSeconds

	var total float64
	snap.RecentSessionDurations = make([]float64, 0, len(sessions))
	for _, sess := range sessions {
		total += sess.DurationSeconds
		snap.RecentSessionDurations = append(snap.RecentSessionDurations, sess.DurationSeconds)
		switch sess.QuitType {
		case provider.QuitRageQuit:
			snap.RecentRageQuitCount++
		case provider.QuitMidPlay:
			snap.RecentMidLevelQuits++
		}
	}
	snap.AverageSessionDuration = total / float64(len(sessions))
	snap.TotalRecentQuits = len(sessions)
}

// #endregion sessions

// #region classify
// ClassifyQuit labels a session ending at endedAt. A session ending within
// rageSeconds of a lost attempt is a rage quit; otherwise a session that
// ended mid-level is a mid-play quit.
func (s *Store) ClassifyQuit(playerID string, endedAt time.Time, midLevel bool, rageSeconds float64) (provider.QuitType, error) {
	var won int
	var recordedStr string
	err := s.db.QueryRow(
		`SELECT won, recorded_at FROM attempts WHERE player_id = ? AND recorded_at <= ?
		 ORDER BY recorded_at DESC, id DESC LIMIT 1`,
		playerID, endedAt.UTC().Format(timeLayout),
	).Scan(&won, &recordedStr)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return provider.QuitNormal, fmt.Errorf("classify quit: %w", err)
	}
	if err == nil && won == 0 && rageSeconds > 0 {
		if endedAt.Sub(parseTime(recordedStr)).Seconds() <= rageSeconds {
			return provider.QuitRageQuit, nil
		}
	}
	if midLevel {
		return provider.QuitMidPlay, nil
	}
	return provider.QuitNormal, nil
}

// #endregion classify

// #region queries
func (s *Store) loadAttempts(playerID string) ([]Attempt, error) {
	rows, err := s.db.Query(
		`SELECT id, player_id, level, won, seconds, recorded_at FROM attempts
		 WHERE player_id = ? ORDER BY recorded_at DESC, id DESC`, playerID,
	)
	if err != nil {
		return nil, fmt.Errorf("load attempts: %w", err)
	}
	defer rows.Close()

	var out []Attempt
	for rows.Next() {
		var a Attempt
		var won int
		var recorded string
		if err := rows.Scan(&a.ID, &a.PlayerID, &a.Level, &won, &a.Seconds, &recorded); err != nil {
			return nil, fmt.Errorf("scan attempt: %w", err)
		}
		a.Won = won != 0
		a.RecordedAt = parseTime(recorded)
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *Store) loadSessions(playerID string, limit int) ([]Session, error) {
	rows, err := s.db.Query(
		`SELECT id, player_id, started_at, duration_seconds, quit_type, level FROM sessions
		 WHERE player_id = ? ORDER BY started_at DESC, id DESC LIMIT ?`, playerID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("load sessions: %w", err)
	}
	defer rows.Close()

	var out []Session
	for rows.Next() {
		var sess Session
		var started, quit string
		if err := rows.Scan(&sess.ID, &sess.PlayerID, &started, &sess.DurationSeconds, &quit, &sess.Level); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sess.StartedAt = parseTime(started)
		sess.QuitType = parseQuit(quit)
		out = append(out, sess)
	}
	return out, rows.Err()
}

// durationBefore returns the duration of the last session started before t, or 0.
func (s *Store) durationBefore(playerID string, t time.Time) (float64, error) {
	var d float64
	err := s.db.QueryRow(
		`SELECT duration_seconds FROM sessions WHERE player_id = ? AND started_at < ?
		 ORDER BY started_at DESC, id DESC LIMIT 1`,
		playerID, t.UTC().Format(timeLayout),
	).Scan(&d)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("duration before adjustment: %w", err)
	}
	return d, nil
}

func (s *Store) getLevel(level int) (Level, error) {
	var l Level
	err := s.db.QueryRow(
		`SELECT level, difficulty, expected_seconds FROM levels WHERE level = ?`, level,
	).Scan(&l.Level, &l.Difficulty, &l.ExpectedSeconds)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Level{}, err
		}
		return Level{}, fmt.Errorf("get level %d: %w", level, err)
	}
	return l, nil
}

// #endregion queries
