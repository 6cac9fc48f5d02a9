package replay

import (
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/danielpatrickdp/adaptive-difficulty/internal/calculator"
	"github.com/danielpatrickdp/adaptive-difficulty/internal/config"
	"github.com/danielpatrickdp/adaptive-difficulty/internal/eval"
	"github.com/danielpatrickdp/adaptive-difficulty/internal/modifier"
	"github.com/danielpatrickdp/adaptive-difficulty/internal/provider"
)

// DefaultTolerance is used by cases that do not set one.
const DefaultTolerance = 1e-6

// Directions reported per case.
const (
	DirectionRaised    = "raised"
	DirectionLowered   = "lowered"
	DirectionUnchanged = "unchanged"
)

// #region types

// CaseResult captures the outcome of replaying one fixture case.
type CaseResult struct {
	Name      string
	Passed    bool
	Direction string
	Reason    string

	Expected float64
	Result   calculator.Result
	Eval     eval.EvalResult
}

// ReplaySummary provides aggregate stats from a replay run.
type ReplaySummary struct {
	TotalCases      int
	Passed          int
	Failed          int
	Raised          int
	Lowered         int
	Unchanged       int
	FinalDifficulty float64
}

// #endregion types

// #region replay

// Replay evaluates each case with a fresh modifier set built from the
// fixture config, then checks the eval harness and the expectations.
// Operates entirely in-memory.
func Replay(f *Fixture, logger *zap.Logger) []CaseResult {
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg := f.Config
	if cfg == nil {
		cfg = config.Default()
		cfg.Normalize()
	}
	registry := cfg.Modifiers.Registry()
	harness := eval.NewEvalHarness(eval.FromGlobal(cfg.Global))
	at := f.EvaluatedAt
	clock := func() time.Time { return at }

	results := make([]CaseResult, 0, len(f.Cases))
	carried, haveCarried := 0.0, false

	for _, c := range f.Cases {
		snap := c.Snapshot
		if f.Chain && haveCarried {
			snap.Difficulty = carried
		}

		mods := modifier.Build(provider.Full(&snap), registry, logger)
		calc := calculator.New(cfg.Global, &snap, mods, calculator.WithLogger(logger), calculator.WithClock(clock))
		res := calc.Calculate()
		ev := harness.Run(res)

		cr := CaseResult{
			Name:      c.Name,
			Expected:  c.ExpectedDifficulty,
			Result:    res,
			Eval:      ev,
			Direction: direction(res),
		}
		cr.Passed, cr.Reason = check(c, res, ev)
		results = append(results, cr)

		carried, haveCarried = res.NewDifficulty, true
	}

	return results
}

func check(c FixtureCase, res calculator.Result, ev eval.EvalResult) (bool, string) {
	if !ev.Passed {
		return false, ev.Reason
	}
	tol := c.Tolerance
	if tol <= 0 {
		tol = DefaultTolerance
	}
	if math.Abs(res.NewDifficulty-c.ExpectedDifficulty) > tol {
		return false, "difficulty mismatch"
	}
	if c.ExpectedPrimary != "" && c.ExpectedPrimary != res.Metrics.PrimaryName {
		return false, "primary modifier mismatch"
	}
	return true, res.PrimaryReason
}

func direction(res calculator.Result) string {
	switch {
	case res.NewDifficulty > res.PreviousDifficulty:
		return DirectionRaised
	case res.NewDifficulty < res.PreviousDifficulty:
		return DirectionLowered
	default:
		return DirectionUnchanged
	}
}

// Summarize computes aggregate stats from replay results.
func Summarize(results []CaseResult) ReplaySummary {
	s := ReplaySummary{TotalCases: len(results)}
	for _, r := range results {
		if r.Passed {
			s.Passed++
		} else {
			s.Failed++
		}
		switch r.Direction {
		case DirectionRaised:
			s.Raised++
		case DirectionLowered:
			s.Lowered++
		case DirectionUnchanged:
			s.Unchanged++
		}
	}
	if n := len(results); n > 0 {
		s.FinalDifficulty = results[n-1].Result.NewDifficulty
	}
	return s
}

// #endregion replay
