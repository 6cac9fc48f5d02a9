package logging

import (
	"time"

	"github.com/danielpatrickdp/adaptive-difficulty/internal/calculator"
	"github.com/danielpatrickdp/adaptive-difficulty/internal/eval"
	"github.com/danielpatrickdp/adaptive-difficulty/internal/gate"
)

// Decisions recorded in provenance_log.
const (
	DecisionCommit   = "commit"
	DecisionReject   = "reject"
	DecisionNoOp     = "no_op"
	DecisionRollback = "rollback"
)

// #region provenance-entry
// ProvenanceEntry is a single row in the provenance_log table.
type ProvenanceEntry struct {
	VersionID   string
	PlayerID    string
	TriggerType string // "evaluate" | "rollback" | "manual"
	SignalsJSON string
	Decision    string // "commit" | "reject" | "no_op" | "rollback"
	Reason      string
	CreatedAt   time.Time
}

// #endregion provenance-entry

// #region evaluation-record
// EvaluationRecord captures one evaluation for provenance_log.signals_json
// so it can be inspected or replayed later.
type EvaluationRecord struct {
	PlayerID           string  `json:"player_id"`
	PreviousDifficulty float64 `json:"previous_difficulty"`
	NewDifficulty      float64 `json:"new_difficulty"`
	PrimaryReason      string  `json:"primary_reason"`
	PrimaryName        string  `json:"primary_name,omitempty"`

	Contributions []Contribution `json:"contributions"`

	Strategy     string             `json:"strategy"`
	RawDelta     float64            `json:"raw_delta"`
	ClampedDelta float64            `json:"clamped_delta"`
	Clamps       []gate.ClampSignal `json:"clamps,omitempty"`
	Faults       []string           `json:"faults,omitempty"`

	EvalPassed bool   `json:"eval_passed"`
	EvalReason string `json:"eval_reason"`
}

// Contribution is one modifier's share of an evaluation.
type Contribution struct {
	Name   string  `json:"name"`
	Value  float64 `json:"value"`
	Reason string  `json:"reason"`
}

// NewEvaluationRecord flattens a calculator result and its eval outcome.
func NewEvaluationRecord(playerID string, result calculator.Result, ev eval.EvalResult) EvaluationRecord {
	rec := EvaluationRecord{
		PlayerID:           playerID,
		PreviousDifficulty: result.PreviousDifficulty,
		NewDifficulty:      result.NewDifficulty,
		PrimaryReason:      result.PrimaryReason,
		PrimaryName:        result.Metrics.PrimaryName,
		Contributions:      make([]Contribution, 0, len(result.AppliedModifiers)),
		Strategy:           string(result.Metrics.Strategy),
		RawDelta:           result.Metrics.RawDelta,
		ClampedDelta:       result.Metrics.ClampedDelta,
		Clamps:             result.Metrics.Clamps,
		Faults:             result.Metrics.Faults,
		EvalPassed:         ev.Passed,
		EvalReason:         ev.Reason,
	}
	for _, m := range result.AppliedModifiers {
		rec.Contributions = append(rec.Contributions, Contribution{Name: m.Name, Value: m.Value, Reason: m.Reason})
	}
	return rec
}

// #endregion evaluation-record
