package gate

// #region clamp-type
// ClampType enumerates the bounds the gate can enforce.
type ClampType string

const (
	ClampStepLimit ClampType = "step_limit"
	ClampFloor     ClampType = "floor"
	ClampCeiling   ClampType = "ceiling"
	ClampNonFinite ClampType = "non_finite"
)

// #endregion clamp-type

// #region clamp-signal
// ClampSignal records one bound that altered the proposed change.
type ClampSignal struct {
	Type   ClampType `json:"type"`
	Reason string    `json:"reason"`
}

// #endregion clamp-signal

// #region gate-config
// GateConfig holds the global bounds for a single evaluation.
type GateConfig struct {
	MinDifficulty          float64
	MaxDifficulty          float64
	DefaultDifficulty      float64 // substituted for a non-finite current value
	MaxChangePerEvaluation float64 // |delta| cap per evaluation
}

// DefaultGateConfig returns the standard 1..10 range with a 2.0 step cap.
func DefaultGateConfig() GateConfig {
	return GateConfig{
		MinDifficulty:          1,
		MaxDifficulty:          10,
		DefaultDifficulty:      3,
		MaxChangePerEvaluation: 2,
	}
}

// #endregion gate-config

// #region gate-decision
// GateDecision is the output of the gate evaluation.
type GateDecision struct {
	NewDifficulty float64
	RawDelta      float64
	AppliedDelta  float64 // after the step limit, before the range clamp
	Clamped       bool
	Clamps        []ClampSignal // non-empty if Clamped
	Reason        string
}

// #endregion gate-decision
