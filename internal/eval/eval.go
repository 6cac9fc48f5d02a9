package eval

import (
	"fmt"
	"math"

	"github.com/danielpatrickdp/adaptive-difficulty/internal/calculator"
)

// #region eval-harness
// EvalHarness validates a calculator result before it is applied.
type EvalHarness struct {
	config EvalConfig
}

// NewEvalHarness creates an eval harness with the given configuration.
func NewEvalHarness(config EvalConfig) *EvalHarness {
	return &EvalHarness{config: config}
}

// FromGlobal builds an EvalConfig from the calculator's bounds.
func FromGlobal(g calculator.GlobalConfig) EvalConfig {
	cfg := DefaultEvalConfig()
	cfg.MinDifficulty = g.MinDifficulty
	cfg.MaxDifficulty = g.MaxDifficulty
	cfg.MaxChangePerEvaluation = g.MaxChangePerEvaluation
	return cfg
}

// Run checks finiteness, the range invariant and the step invariant.
// Modifier faults are reported as a metric but do not fail the run.
func (h *EvalHarness) Run(result calculator.Result) EvalResult {
	var metrics []EvalMetric
	var failReasons []string
	tol := h.config.Tolerance

	// 1. Finite
	finite := isFinite(result.NewDifficulty) && isFinite(result.PreviousDifficulty)
	metrics = append(metrics, EvalMetric{Name: "finite", Value: result.NewDifficulty, Pass: finite})
	if !finite {
		failReasons = append(failReasons, fmt.Sprintf("non-finite difficulty %v", result.NewDifficulty))
	}

	// 2. Range
	inRange := result.NewDifficulty >= h.config.MinDifficulty-tol && result.NewDifficulty <= h.config.MaxDifficulty+tol
	metrics = append(metrics, EvalMetric{Name: "range", Value: result.NewDifficulty, Pass: inRange})
	if !inRange {
		failReasons = append(failReasons, fmt.Sprintf("difficulty %.4f outside [%.4f, %.4f]",
			result.NewDifficulty, h.config.MinDifficulty, h.config.MaxDifficulty))
	}

	// 3. Step
	step := math.Abs(result.Delta())
	stepPass := step <= h.config.MaxChangePerEvaluation+tol
	metrics = append(metrics, EvalMetric{Name: "step", Value: step, Pass: stepPass})
	if !stepPass {
		failReasons = append(failReasons, fmt.Sprintf("step %.4f exceeds %.4f", step, h.config.MaxChangePerEvaluation))
	}

	// 4. Faults: informational
	metrics = append(metrics, EvalMetric{
		Name:  "faults",
		Value: float64(len(result.Metrics.Faults)),
		Pass:  len(result.Metrics.Faults) == 0,
	})

	reason := "all checks passed"
	if len(failReasons) == 1 {
		reason = fmt.Sprintf("eval failed: %s", failReasons[0])
	} else if len(failReasons) > 1 {
		reason = fmt.Sprintf("eval failed: %d checks: %s", len(failReasons), failReasons[0])
	}

	return EvalResult{
		Passed:  len(failReasons) == 0,
		Metrics: metrics,
		Reason:  reason,
	}
}

// #endregion eval-harness

// #region helpers
func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// #endregion helpers
