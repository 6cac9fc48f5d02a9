package state

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/danielpatrickdp/adaptive-difficulty/internal/provider"
)

// timeLayout is fixed-width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// #region schema
const schema = `
CREATE TABLE IF NOT EXISTS difficulty_versions (
	version_id    TEXT PRIMARY KEY,
	parent_id     TEXT,
	player_id     TEXT NOT NULL,
	difficulty    REAL NOT NULL,
	created_at    TEXT NOT NULL,
	result_json   TEXT,
	FOREIGN KEY (parent_id) REFERENCES difficulty_versions(version_id)
);

CREATE TABLE IF NOT EXISTS active_difficulty (
	player_id     TEXT PRIMARY KEY,
	version_id    TEXT NOT NULL,
	FOREIGN KEY (version_id) REFERENCES difficulty_versions(version_id)
);

CREATE TABLE IF NOT EXISTS provenance_log (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	version_id    TEXT NOT NULL,
	player_id     TEXT,
	trigger_type  TEXT NOT NULL,
	signals_json  TEXT,
	decision      TEXT NOT NULL,
	reason        TEXT,
	created_at    TEXT NOT NULL,
	FOREIGN KEY (version_id) REFERENCES difficulty_versions(version_id)
);

CREATE TABLE IF NOT EXISTS sessions (
	id               INTEGER PRIMARY KEY AUTOINCREMENT,
	player_id        TEXT NOT NULL,
	started_at       TEXT NOT NULL,
	duration_seconds REAL NOT NULL,
	quit_type        TEXT NOT NULL,
	level            INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS attempts (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	player_id     TEXT NOT NULL,
	level         INTEGER NOT NULL,
	won           INTEGER NOT NULL,
	seconds       REAL NOT NULL,
	recorded_at   TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS levels (
	level            INTEGER PRIMARY KEY,
	difficulty       REAL NOT NULL,
	expected_seconds REAL NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_sessions_player ON sessions(player_id, started_at);
CREATE INDEX IF NOT EXISTS idx_attempts_player ON attempts(player_id, recorded_at);
CREATE INDEX IF NOT EXISTS idx_versions_player ON difficulty_versions(player_id, created_at);
`

// #endregion schema

// #region store-struct
// Store persists difficulty versions and the telemetry providers read from.
type Store struct {
	db *sql.DB
}

// #endregion store-struct

// #region constructor
// NewStore opens a SQLite database and runs migrations.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma fk: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db}, nil
}

// #endregion constructor

// #region close
// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// #endregion close

// #region db-accessor
// DB returns the underlying *sql.DB for use by other packages (e.g. logging).
func (s *Store) DB() *sql.DB {
	return s.db
}

// #endregion db-accessor

// #region ensure-player
// EnsurePlayer returns the player's active version, creating an initial
// version at the given difficulty when none exists.
func (s *Store) EnsurePlayer(playerID string, initial float64) (DifficultyRecord, error) {
	rec, err := s.GetCurrent(playerID)
	if err == nil {
		return rec, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return DifficultyRecord{}, err
	}
	rec = DifficultyRecord{
		VersionID:  uuid.New().String(),
		PlayerID:   playerID,
		Difficulty: initial,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.CommitDifficulty(rec); err != nil {
		return DifficultyRecord{}, fmt.Errorf("create initial: %w", err)
	}
	return rec, nil
}

// #endregion ensure-player

// #region get-current
// GetCurrent reads the player's active version. It wraps sql.ErrNoRows when
// the player has none.
func (s *Store) GetCurrent(playerID string) (DifficultyRecord, error) {
	var versionID string
	err := s.db.QueryRow(`SELECT version_id FROM active_difficulty WHERE player_id = ?`, playerID).Scan(&versionID)
	if err != nil {
		return DifficultyRecord{}, fmt.Errorf("get active %s: %w", playerID, err)
	}
	return s.GetVersion(versionID)
}

// #endregion get-current

// #region get-version
// GetVersion retrieves a specific version by ID.
func (s *Store) GetVersion(id string) (DifficultyRecord, error) {
	row := s.db.QueryRow(
		`SELECT version_id, parent_id, player_id, difficulty, created_at, result_json
		 FROM difficulty_versions WHERE version_id = ?`, id,
	)
	rec, err := scanRecord(row)
	if err != nil {
		return DifficultyRecord{}, fmt.Errorf("get version %s: %w", id, err)
	}
	return rec, nil
}

// #endregion get-version

// #region commit-difficulty
// CommitDifficulty inserts a new version and moves the player's active
// pointer to it atomically.
func (s *Store) CommitDifficulty(rec DifficultyRecord) error {
	if rec.VersionID == "" {
		rec.VersionID = uuid.New().String()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO difficulty_versions (version_id, parent_id, player_id, difficulty, created_at, result_json)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		rec.VersionID, nullIfEmpty(rec.ParentID), rec.PlayerID, rec.Difficulty,
		rec.CreatedAt.UTC().Format(timeLayout), nullIfEmpty(rec.ResultJSON),
	)
	if err != nil {
		return fmt.Errorf("insert version: %w", err)
	}

	_, err = tx.Exec(
		`INSERT INTO active_difficulty (player_id, version_id) VALUES (?, ?)
		 ON CONFLICT(player_id) DO UPDATE SET version_id = excluded.version_id`,
		rec.PlayerID, rec.VersionID,
	)
	if err != nil {
		return fmt.Errorf("update active: %w", err)
	}

	return tx.Commit()
}

// #endregion commit-difficulty

// #region rollback
// Rollback points the player's active difficulty at a previous version.
func (s *Store) Rollback(playerID, targetVersionID string) error {
	var exists int
	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM difficulty_versions WHERE version_id = ? AND player_id = ?`,
		targetVersionID, playerID,
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check version: %w", err)
	}
	if exists == 0 {
		return fmt.Errorf("version %s not found for player %s", targetVersionID, playerID)
	}

	_, err = s.db.Exec(`UPDATE active_difficulty SET version_id = ? WHERE player_id = ?`, targetVersionID, playerID)
	if err != nil {
		return fmt.Errorf("rollback: %w", err)
	}
	return nil
}

// #endregion rollback

// #region list-versions
// ListVersions returns the player's most recent versions, newest first.
func (s *Store) ListVersions(playerID string, limit int) ([]DifficultyRecord, error) {
	rows, err := s.db.Query(
		`SELECT version_id, parent_id, player_id, difficulty, created_at, result_json
		 FROM difficulty_versions WHERE player_id = ?
		 ORDER BY created_at DESC, rowid DESC LIMIT ?`, playerID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list versions: %w", err)
	}
	defer rows.Close()

	var records []DifficultyRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// ListVersionsWithProvenance joins each version with its latest provenance row.
func (s *Store) ListVersionsWithProvenance(playerID string, limit int) ([]VersionWithProvenance, error) {
	rows, err := s.db.Query(
		`SELECT v.version_id, v.parent_id, v.player_id, v.difficulty, v.created_at, v.result_json,
		        p.decision, p.reason, p.signals_json
		 FROM difficulty_versions v
		 LEFT JOIN provenance_log p ON p.id = (
		     SELECT MAX(id) FROM provenance_log WHERE version_id = v.version_id
		 )
		 WHERE v.player_id = ?
		 ORDER BY v.created_at DESC, v.rowid DESC LIMIT ?`, playerID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list versions with provenance: %w", err)
	}
	defer rows.Close()

	var out []VersionWithProvenance
	for rows.Next() {
		var vp VersionWithProvenance
		var parentID, resultJSON, decision, reason, signals sql.NullString
		var createdStr string
		if err := rows.Scan(&vp.VersionID, &parentID, &vp.PlayerID, &vp.Difficulty, &createdStr, &resultJSON,
			&decision, &reason, &signals); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		vp.ParentID = parentID.String
		vp.ResultJSON = resultJSON.String
		vp.CreatedAt = parseTime(createdStr)
		vp.Decision = decision.String
		vp.Reason = reason.String
		vp.SignalsJSON = signals.String
		out = append(out, vp)
	}
	return out, rows.Err()
}

// #endregion list-versions

// #region telemetry-writes
// RecordSession stores a finished session and returns its row ID.
func (s *Store) RecordSession(sess Session) (int64, error) {
	if sess.StartedAt.IsZero() {
		sess.StartedAt = time.Now().UTC()
	}
	res, err := s.db.Exec(
		`INSERT INTO sessions (player_id, started_at, duration_seconds, quit_type, level)
		 VALUES (?, ?, ?, ?, ?)`,
		sess.PlayerID, sess.StartedAt.UTC().Format(timeLayout), sess.DurationSeconds, sess.QuitType.String(), sess.Level,
	)
	if err != nil {
		return 0, fmt.Errorf("record session: %w", err)
	}
	return res.LastInsertId()
}

// RecordAttempt stores one level attempt and returns its row ID.
func (s *Store) RecordAttempt(a Attempt) (int64, error) {
	if a.RecordedAt.IsZero() {
		a.RecordedAt = time.Now().UTC()
	}
	won := 0
	if a.Won {
		won = 1
	}
	res, err := s.db.Exec(
		`INSERT INTO attempts (player_id, level, won, seconds, recorded_at) VALUES (?, ?, ?, ?, ?)`,
		a.PlayerID, a.Level, won, a.Seconds, a.RecordedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return 0, fmt.Errorf("record attempt: %w", err)
	}
	return res.LastInsertId()
}

// UpsertLevel creates or replaces a level definition.
func (s *Store) UpsertLevel(l Level) error {
	_, err := s.db.Exec(
		`INSERT INTO levels (level, difficulty, expected_seconds) VALUES (?, ?, ?)
		 ON CONFLICT(level) DO UPDATE SET difficulty = excluded.difficulty, expected_seconds = excluded.expected_seconds`,
		l.Level, l.Difficulty, l.ExpectedSeconds,
	)
	if err != nil {
		return fmt.Errorf("upsert level %d: %w", l.Level, err)
	}
	return nil
}

// #endregion telemetry-writes

// #region helpers
type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (DifficultyRecord, error) {
	var rec DifficultyRecord
	var parentID, resultJSON sql.NullString
	var createdStr string
	if err := row.Scan(&rec.VersionID, &parentID, &rec.PlayerID, &rec.Difficulty, &createdStr, &resultJSON); err != nil {
		return DifficultyRecord{}, err
	}
	rec.ParentID = parentID.String
	rec.ResultJSON = resultJSON.String
	rec.CreatedAt = parseTime(createdStr)
	return rec, nil
}

func parseTime(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		t, _ = time.Parse(time.RFC3339Nano, s)
	}
	return t
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func parseQuit(s string) provider.QuitType {
	q, err := provider.ParseQuitType(s)
	if err != nil {
		return provider.QuitNormal
	}
	return q
}

// #endregion helpers
