package eval

// #region eval-config
// EvalConfig holds the bounds a result is validated against.
type EvalConfig struct {
	MinDifficulty          float64
	MaxDifficulty          float64
	MaxChangePerEvaluation float64
	Tolerance              float64 // float slack for the range and step checks
}

// DefaultEvalConfig returns bounds matching calculator.DefaultGlobalConfig.
func DefaultEvalConfig() EvalConfig {
	return EvalConfig{
		MinDifficulty:          1,
		MaxDifficulty:          10,
		MaxChangePerEvaluation: 2,
		Tolerance:              1e-9,
	}
}

// #endregion eval-config

// #region eval-metric
// EvalMetric captures a single validation check result.
type EvalMetric struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
	Pass  bool    `json:"pass"`
}

// #endregion eval-metric

// #region eval-result
// EvalResult is the output of post-evaluation validation.
type EvalResult struct {
	Passed  bool         `json:"passed"`
	Metrics []EvalMetric `json:"metrics"`
	Reason  string       `json:"reason"`
}

// #endregion eval-result
