package logging

import (
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"github.com/danielpatrickdp/adaptive-difficulty/internal/calculator"
	"github.com/danielpatrickdp/adaptive-difficulty/internal/eval"
	"github.com/danielpatrickdp/adaptive-difficulty/internal/gate"
	"github.com/danielpatrickdp/adaptive-difficulty/internal/modifier"
)

// #region helpers
func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	_, err = db.Exec(`CREATE TABLE provenance_log (
		id           INTEGER PRIMARY KEY AUTOINCREMENT,
		version_id   TEXT NOT NULL,
		player_id    TEXT,
		trigger_type TEXT NOT NULL,
		signals_json TEXT,
		decision     TEXT NOT NULL,
		reason       TEXT,
		created_at   TEXT NOT NULL
	)`)
	if err != nil {
		t.Fatalf("create table: %v", err)
	}
	return db
}

// #endregion helpers

// #region log-decision-tests
func TestLogDecision_Success(t *testing.T) {
	db := setupDB(t)
	defer db.Close()

	entry := ProvenanceEntry{
		VersionID:   "v1",
		PlayerID:    "p1",
		TriggerType: "evaluate",
		SignalsJSON: `{"raw_delta":0.5}`,
		Decision:    DecisionCommit,
		Reason:      "Win streak of 4",
		CreatedAt:   time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}

	if err := LogDecision(db, entry); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var count int
	db.QueryRow("SELECT COUNT(*) FROM provenance_log").Scan(&count)
	if count != 1 {
		t.Errorf("expected 1 row, got %d", count)
	}

	var versionID, playerID, decision string
	db.QueryRow("SELECT version_id, player_id, decision FROM provenance_log").Scan(&versionID, &playerID, &decision)
	if versionID != "v1" {
		t.Errorf("expected version_id 'v1', got %q", versionID)
	}
	if playerID != "p1" {
		t.Errorf("expected player_id 'p1', got %q", playerID)
	}
	if decision != DecisionCommit {
		t.Errorf("expected decision 'commit', got %q", decision)
	}
}

func TestLogDecision_ZeroCreatedAt(t *testing.T) {
	db := setupDB(t)
	defer db.Close()

	before := time.Now().UTC()
	err := LogDecision(db, ProvenanceEntry{VersionID: "v2", TriggerType: "manual", Decision: DecisionNoOp})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var createdAtStr string
	db.QueryRow("SELECT created_at FROM provenance_log").Scan(&createdAtStr)
	createdAt, err := time.Parse(time.RFC3339Nano, createdAtStr)
	if err != nil {
		t.Fatalf("parse created_at: %v", err)
	}
	if createdAt.Before(before) {
		t.Error("expected auto-filled created_at to be >= test start time")
	}
}

func TestLogDecision_EmptyOptionalFields(t *testing.T) {
	db := setupDB(t)
	defer db.Close()

	err := LogDecision(db, ProvenanceEntry{VersionID: "v3", TriggerType: "evaluate", Decision: DecisionReject})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var playerID, signals, reason sql.NullString
	db.QueryRow("SELECT player_id, signals_json, reason FROM provenance_log").Scan(&playerID, &signals, &reason)
	if playerID.Valid || signals.Valid || reason.Valid {
		t.Error("expected empty optional fields to be stored as NULL")
	}
}

func TestLogDecision_ClosedDB(t *testing.T) {
	db := setupDB(t)
	db.Close()

	err := LogDecision(db, ProvenanceEntry{VersionID: "v4", TriggerType: "evaluate", Decision: DecisionCommit})
	if err == nil {
		t.Fatal("expected error on closed db")
	}
}

func TestLogEvaluation_StoresRecord(t *testing.T) {
	db := setupDB(t)
	defer db.Close()

	result := calculator.Result{
		PreviousDifficulty: 3,
		NewDifficulty:      3.5,
		PrimaryReason:      "Win streak of 4",
		AppliedModifiers: []modifier.Result{
			{Name: "win_streak", Value: 1, Reason: "Win streak of 4"},
			{Name: "time_decay", Value: -0.5, Reason: "away 24.0h"},
		},
		Metrics: calculator.Metrics{
			RawDelta:     0.5,
			ClampedDelta: 0.5,
			PrimaryName:  "win_streak",
			Clamps:       []gate.ClampSignal{{Type: gate.ClampCeiling, Reason: "capped"}},
		},
	}
	rec := NewEvaluationRecord("p1", result, eval.EvalResult{Passed: true, Reason: "all checks passed"})

	err := LogEvaluation(db, ProvenanceEntry{VersionID: "v5", TriggerType: "evaluate", Decision: DecisionCommit}, rec)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var playerID, signals string
	db.QueryRow("SELECT player_id, signals_json FROM provenance_log").Scan(&playerID, &signals)
	if playerID != "p1" {
		t.Errorf("expected player_id from record, got %q", playerID)
	}

	var got EvaluationRecord
	if err := json.Unmarshal([]byte(signals), &got); err != nil {
		t.Fatalf("unmarshal signals: %v", err)
	}
	if len(got.Contributions) != 2 || got.Contributions[0].Name != "win_streak" {
		t.Errorf("expected contributions in applied order, got %+v", got.Contributions)
	}
	if got.PrimaryName != "win_streak" || !got.EvalPassed {
		t.Errorf("unexpected record: %+v", got)
	}
	if len(got.Clamps) != 1 || got.Clamps[0].Type != gate.ClampCeiling {
		t.Errorf("expected ceiling clamp, got %+v", got.Clamps)
	}
}

// #endregion log-decision-tests

// #region null-if-empty-tests
func TestNullIfEmpty_Empty(t *testing.T) {
	result := nullIfEmpty("")
	if result != nil {
		t.Errorf("expected nil for empty string, got %v", result)
	}
}

func TestNullIfEmpty_NonEmpty(t *testing.T) {
	result := nullIfEmpty("hello")
	if result != "hello" {
		t.Errorf("expected 'hello', got %v", result)
	}
}

// #endregion null-if-empty-tests

// #region logger-tests
func TestNewLogger_Levels(t *testing.T) {
	logger, err := NewLogger("debug", true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !logger.Core().Enabled(-1) {
		t.Error("expected debug level enabled")
	}

	if _, err := NewLogger("loud", false); err == nil {
		t.Error("expected error for unknown level")
	}
}

// #endregion logger-tests
