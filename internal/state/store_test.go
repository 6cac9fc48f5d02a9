package state

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/danielpatrickdp/adaptive-difficulty/internal/provider"
)

var base = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func tempDB(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	s, err := NewStore(filepath.Join(dir, "test.db"))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// #region versions
func TestEnsurePlayerAndGetCurrent(t *testing.T) {
	s := tempDB(t)

	rec, err := s.EnsurePlayer("p1", 3)
	require.NoError(t, err)
	assert.NotEmpty(t, rec.VersionID)
	assert.Empty(t, rec.ParentID)

	again, err := s.EnsurePlayer("p1", 7)
	require.NoError(t, err)
	assert.Equal(t, rec.VersionID, again.VersionID)
	assert.Equal(t, 3.0, again.Difficulty)

	cur, err := s.GetCurrent("p1")
	require.NoError(t, err)
	assert.Equal(t, rec.VersionID, cur.VersionID)
}

func TestGetCurrentUnknownPlayer(t *testing.T) {
	s := tempDB(t)
	_, err := s.GetCurrent("nobody")
	require.Error(t, err)
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestCommitAndRollback(t *testing.T) {
	s := tempDB(t)

	require.NoError(t, s.CommitDifficulty(DifficultyRecord{VersionID: "v1", PlayerID: "p1", Difficulty: 3, CreatedAt: base}))
	require.NoError(t, s.CommitDifficulty(DifficultyRecord{VersionID: "v2", ParentID: "v1", PlayerID: "p1", Difficulty: 4, CreatedAt: base.Add(time.Minute)}))

	cur, err := s.GetCurrent("p1")
	require.NoError(t, err)
	assert.Equal(t, "v2", cur.VersionID)
	assert.Equal(t, "v1", cur.ParentID)
	assert.True(t, cur.CreatedAt.Equal(base.Add(time.Minute)))

	require.NoError(t, s.Rollback("p1", "v1"))
	cur, err = s.GetCurrent("p1")
	require.NoError(t, err)
	assert.Equal(t, "v1", cur.VersionID)
	assert.Equal(t, 3.0, cur.Difficulty)

	assert.Error(t, s.Rollback("p1", "missing"))
	assert.Error(t, s.Rollback("p2", "v1"), "versions are scoped to their player")
}

func TestListVersionsNewestFirst(t *testing.T) {
	s := tempDB(t)
	require.NoError(t, s.CommitDifficulty(DifficultyRecord{VersionID: "v1", PlayerID: "p1", Difficulty: 3, CreatedAt: base}))
	require.NoError(t, s.CommitDifficulty(DifficultyRecord{VersionID: "v2", ParentID: "v1", PlayerID: "p1", Difficulty: 4, CreatedAt: base.Add(time.Minute)}))
	require.NoError(t, s.CommitDifficulty(DifficultyRecord{VersionID: "other", PlayerID: "p2", Difficulty: 5, CreatedAt: base}))

	recs, err := s.ListVersions("p1", 10)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "v2", recs[0].VersionID)
	assert.Equal(t, "v1", recs[1].VersionID)

	recs, err = s.ListVersions("p1", 1)
	require.NoError(t, err)
	assert.Len(t, recs, 1)
}

func TestListVersionsWithProvenance(t *testing.T) {
	s := tempDB(t)
	require.NoError(t, s.CommitDifficulty(DifficultyRecord{VersionID: "v1", PlayerID: "p1", Difficulty: 3, CreatedAt: base}))
	require.NoError(t, s.CommitDifficulty(DifficultyRecord{VersionID: "v2", ParentID: "v1", PlayerID: "p1", Difficulty: 4, CreatedAt: base.Add(time.Minute)}))
	_, err := s.DB().Exec(
		`INSERT INTO provenance_log (version_id, player_id, trigger_type, signals_json, decision, reason, created_at)
		 VALUES ('v2', 'p1', 'evaluate', '{}', 'commit', 'Win streak of 4', ?)`, base.Format(time.RFC3339Nano))
	require.NoError(t, err)

	out, err := s.ListVersionsWithProvenance("p1", 10)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "commit", out[0].Decision)
	assert.Equal(t, "Win streak of 4", out[0].Reason)
	assert.Empty(t, out[1].Decision)
}

// #endregion versions

// #region snapshot
func seedTelemetry(t *testing.T, s *Store) {
	t.Helper()
	require.NoError(t, s.UpsertLevel(Level{Level: 3, Difficulty: 6, ExpectedSeconds: 100}))

	attempts := []Attempt{
		{PlayerID: "p1", Level: 2, Won: true, Seconds: 90, RecordedAt: base},
		{PlayerID: "p1", Level: 3, Won: false, Seconds: 120, RecordedAt: base.Add(1 * time.Minute)},
		{PlayerID: "p1", Level: 3, Won: true, Seconds: 80, RecordedAt: base.Add(2 * time.Minute)},
		{PlayerID: "p1", Level: 3, Won: true, Seconds: 120, RecordedAt: base.Add(3 * time.Minute)},
	}
	for _, a := range attempts {
		_, err := s.RecordAttempt(a)
		require.NoError(t, err)
	}

	sessions := []Session{
		{PlayerID: "p1", StartedAt: base.Add(-2 * time.Hour), DurationSeconds: 600, QuitType: provider.QuitNormal, Level: 2},
		{PlayerID: "p1", StartedAt: base, DurationSeconds: 1800, QuitType: provider.QuitRageQuit, Level: 3},
	}
	for _, sess := range sessions {
		_, err := s.RecordSession(sess)
		require.NoError(t, err)
	}
}

func TestSnapshotSummarisesTelemetry(t *testing.T) {
	s := tempDB(t)
	seedTelemetry(t, s)
	_, err := s.EnsurePlayer("p1", 3)
	require.NoError(t, err)

	now := base.Add(30*time.Minute + 48*time.Hour)
	snap, err := s.Snapshot("p1", now, DefaultSnapshotOptions())
	require.NoError(t, err)

	assert.Equal(t, 3.0, snap.Difficulty)
	assert.Equal(t, 2, snap.WinStreak)
	assert.Equal(t, 0, snap.LossStreak)
	assert.Equal(t, 3, snap.TotalWins)
	assert.Equal(t, 1, snap.TotalLosses)

	assert.Equal(t, 3, snap.CurrentLevel)
	assert.Equal(t, 3, snap.AttemptsOnCurrentLevel)
	assert.InDelta(t, 290.0/3, snap.AverageCompletionTime, 1e-9)
	// level 3 only: the level 2 win is excluded
	assert.InDelta(t, 2.0/3, snap.CompletionRate, 1e-9)
	assert.Equal(t, 6.0, snap.CurrentLevelDifficulty)
	assert.InDelta(t, 1.0, snap.CurrentLevelTimePercentage, 1e-9)

	assert.True(t, snap.LastPlayTime.Equal(base.Add(30*time.Minute)))
	assert.InDelta(t, 48.0, snap.HoursSinceLastPlay, 1e-9)
	assert.Equal(t, provider.QuitRageQuit, snap.LastQuitType)
	assert.Equal(t, 1800.0, snap.CurrentSessionDuration)
	assert.Equal(t, 1200.0, snap.AverageSessionDuration)
	assert.Equal(t, 1, snap.RecentRageQuitCount)
	assert.Equal(t, []float64{1800, 600}, snap.RecentSessionDurations)
	assert.Equal(t, 2, snap.TotalRecentQuits)
	assert.Equal(t, 0, snap.RecentMidLevelQuits)
	assert.Zero(t, snap.PreviousDifficulty)
	assert.Zero(t, snap.SessionDurationBeforeLastAdjustment)
}

func TestSnapshotWindowLimitsSessions(t *testing.T) {
	s := tempDB(t)
	seedTelemetry(t, s)

	snap, err := s.Snapshot("p1", base.Add(time.Hour), SnapshotOptions{HistoryWindow: 1})
	require.NoError(t, err)
	assert.Equal(t, []float64{1800}, snap.RecentSessionDurations)
	assert.Equal(t, 1, snap.TotalRecentQuits)
	// newest attempt only: a win
	assert.Equal(t, 1.0, snap.CompletionRate)
}

func TestSnapshotCompletionRateIsPerLevel(t *testing.T) {
	s := tempDB(t)
	attempts := []Attempt{
		{PlayerID: "p1", Level: 4, Won: true, Seconds: 60, RecordedAt: base},
		{PlayerID: "p1", Level: 4, Won: true, Seconds: 60, RecordedAt: base.Add(time.Minute)},
		{PlayerID: "p1", Level: 5, Won: false, Seconds: 60, RecordedAt: base.Add(2 * time.Minute)},
		{PlayerID: "p1", Level: 5, Won: false, Seconds: 60, RecordedAt: base.Add(3 * time.Minute)},
	}
	for _, a := range attempts {
		_, err := s.RecordAttempt(a)
		require.NoError(t, err)
	}

	snap, err := s.Snapshot("p1", base.Add(time.Hour), DefaultSnapshotOptions())
	require.NoError(t, err)
	assert.Equal(t, 5, snap.CurrentLevel)
	assert.Equal(t, 2, snap.TotalWins)
	assert.Zero(t, snap.CompletionRate)
}

func TestSnapshotLossStreak(t *testing.T) {
	s := tempDB(t)
	for i := 0; i < 3; i++ {
		_, err := s.RecordAttempt(Attempt{PlayerID: "p1", Level: 1, Won: i == 0, Seconds: 60, RecordedAt: base.Add(time.Duration(i) * time.Minute)})
		require.NoError(t, err)
	}
	snap, err := s.Snapshot("p1", base, DefaultSnapshotOptions())
	require.NoError(t, err)
	assert.Equal(t, 0, snap.WinStreak)
	assert.Equal(t, 2, snap.LossStreak)
	assert.Zero(t, snap.CurrentLevelDifficulty, "level 1 has no definition")
}

func TestSnapshotAdjustmentHistory(t *testing.T) {
	s := tempDB(t)
	seedTelemetry(t, s)
	require.NoError(t, s.CommitDifficulty(DifficultyRecord{VersionID: "v1", PlayerID: "p1", Difficulty: 4, CreatedAt: base.Add(-3 * time.Hour)}))
	require.NoError(t, s.CommitDifficulty(DifficultyRecord{VersionID: "v2", ParentID: "v1", PlayerID: "p1", Difficulty: 3, CreatedAt: base.Add(-1 * time.Hour)}))

	snap, err := s.Snapshot("p1", base.Add(time.Hour), DefaultSnapshotOptions())
	require.NoError(t, err)
	assert.Equal(t, 3.0, snap.Difficulty)
	assert.Equal(t, 4.0, snap.PreviousDifficulty)
	assert.Equal(t, 600.0, snap.SessionDurationBeforeLastAdjustment)
}

func TestSnapshotEmptyPlayer(t *testing.T) {
	s := tempDB(t)
	snap, err := s.Snapshot("ghost", base, DefaultSnapshotOptions())
	require.NoError(t, err)
	assert.Equal(t, provider.Snapshot{}, *snap)
}

// #endregion snapshot

// #region classify
func TestClassifyQuit(t *testing.T) {
	s := tempDB(t)

	q, err := s.ClassifyQuit("p1", base, true, 30)
	require.NoError(t, err)
	assert.Equal(t, provider.QuitMidPlay, q, "no attempts falls through to mid-level check")

	_, err = s.RecordAttempt(Attempt{PlayerID: "p1", Level: 1, Won: false, Seconds: 40, RecordedAt: base})
	require.NoError(t, err)

	q, err = s.ClassifyQuit("p1", base.Add(10*time.Second), false, 30)
	require.NoError(t, err)
	assert.Equal(t, provider.QuitRageQuit, q)

	q, err = s.ClassifyQuit("p1", base.Add(10*time.Minute), true, 30)
	require.NoError(t, err)
	assert.Equal(t, provider.QuitMidPlay, q)

	q, err = s.ClassifyQuit("p1", base.Add(10*time.Minute), false, 30)
	require.NoError(t, err)
	assert.Equal(t, provider.QuitNormal, q)
}

// #endregion classify

// #region player-data
func TestPlayerDataCommitsVersions(t *testing.T) {
	s := tempDB(t)
	initial, err := s.EnsurePlayer("p1", 3)
	require.NoError(t, err)

	pd := NewPlayerData(s, "p1").WithResult(`{"new_difficulty":4.5}`)
	assert.Equal(t, 3.0, pd.GetCurrentDifficulty())

	pd.SetCurrentDifficulty(4.5)
	require.NoError(t, pd.Err())
	assert.Equal(t, 4.5, pd.GetCurrentDifficulty())

	cur, err := s.GetCurrent("p1")
	require.NoError(t, err)
	assert.Equal(t, pd.LastVersionID(), cur.VersionID)
	assert.Equal(t, initial.VersionID, cur.ParentID)
	assert.JSONEq(t, `{"new_difficulty":4.5}`, cur.ResultJSON)
}

func TestPlayerDataNewPlayer(t *testing.T) {
	s := tempDB(t)
	pd := NewPlayerData(s, "fresh")
	assert.Zero(t, pd.GetCurrentDifficulty())
	require.NoError(t, pd.Err())

	pd.SetCurrentDifficulty(2)
	require.NoError(t, pd.Err())
	cur, err := s.GetCurrent("fresh")
	require.NoError(t, err)
	assert.Empty(t, cur.ParentID)
	assert.Equal(t, 2.0, cur.Difficulty)
}

// #endregion player-data
