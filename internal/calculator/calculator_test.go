package calculator

import (
	"math"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"github.com/danielpatrickdp/adaptive-difficulty/internal/aggregate"
	"github.com/danielpatrickdp/adaptive-difficulty/internal/gate"
	"github.com/danielpatrickdp/adaptive-difficulty/internal/modifier"
	"github.com/danielpatrickdp/adaptive-difficulty/internal/provider"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// #region fakes

type fakeModifier struct {
	name     string
	priority int
	disabled bool
	value    float64
	panics   bool
	applied  []modifier.Result
}

func (f *fakeModifier) Name() string    { return f.name }
func (f *fakeModifier) Priority() int   { return f.priority }
func (f *fakeModifier) IsEnabled() bool { return !f.disabled }

func (f *fakeModifier) Calculate() modifier.Result {
	if f.panics {
		panic("boom")
	}
	return modifier.Result{Name: f.name, Value: f.value, Reason: f.name + " fired"}
}

func (f *fakeModifier) OnApplied(r modifier.Result) { f.applied = append(f.applied, r) }

type fakeData struct {
	value  float64
	panics bool
	sets   int
}

func (d *fakeData) GetCurrentDifficulty() float64 {
	if d.panics {
		panic("storage offline")
	}
	return d.value
}

func (d *fakeData) SetCurrentDifficulty(v float64) {
	d.value = v
	d.sets++
}

var fixedClock = WithClock(func() time.Time { return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC) })

func mods(ms ...*fakeModifier) []modifier.Modifier {
	out := make([]modifier.Modifier, len(ms))
	for i, m := range ms {
		out[i] = m
	}
	return out
}

// #endregion fakes

// #region scenarios

func TestNewPlayerStartsAtDefault(t *testing.T) {
	res := New(DefaultGlobalConfig(), &fakeData{}, nil, fixedClock).Calculate()
	assert.Equal(t, 3.0, res.PreviousDifficulty)
	assert.Equal(t, 3.0, res.NewDifficulty)
	assert.Equal(t, NoChangeReason, res.PrimaryReason)
	assert.Empty(t, res.AppliedModifiers)
	assert.False(t, res.Changed())
}

func TestNewPlayerFloorsToMinimum(t *testing.T) {
	cfg := DefaultGlobalConfig()
	cfg.DefaultDifficulty = cfg.MinDifficulty
	loss := &fakeModifier{name: "LossStreak", value: -0.5}

	res := New(cfg, nil, mods(loss), fixedClock).Calculate()
	assert.Equal(t, 1.0, res.PreviousDifficulty)
	assert.Equal(t, 1.0, res.NewDifficulty)
	require.Len(t, res.Metrics.Clamps, 1)
	assert.Equal(t, gate.ClampFloor, res.Metrics.Clamps[0].Type)
	assert.Equal(t, "LossStreak fired", res.PrimaryReason)
}

func TestStepLimitClampsLargeDelta(t *testing.T) {
	res := New(DefaultGlobalConfig(), &fakeData{value: 3}, mods(
		&fakeModifier{name: "A", value: 2},
		&fakeModifier{name: "B", value: 3},
	), fixedClock).Calculate()
	assert.Equal(t, 5.0, res.NewDifficulty)
	assert.Equal(t, 5.0, res.Metrics.RawDelta)
	assert.Equal(t, 2.0, res.Metrics.ClampedDelta)
	assert.Equal(t, "B", res.Metrics.PrimaryName)
}

func TestStoredValueOutsideRangeIsClamped(t *testing.T) {
	res := New(DefaultGlobalConfig(), &fakeData{value: 15}, nil, fixedClock).Calculate()
	assert.Equal(t, 10.0, res.PreviousDifficulty)
	assert.Equal(t, 10.0, res.NewDifficulty)
}

func TestUnusableStoredValueFallsBackToDefault(t *testing.T) {
	for _, data := range []*fakeData{{value: math.NaN()}, {value: -2}, {panics: true}} {
		res := New(DefaultGlobalConfig(), data, nil, fixedClock).Calculate()
		assert.Equal(t, 3.0, res.PreviousDifficulty)
	}
}

// #endregion scenarios

// #region isolation

func TestFaultingModifiersContributeZero(t *testing.T) {
	good := &fakeModifier{name: "Good", priority: 3, value: 0.5}
	res := New(DefaultGlobalConfig(), &fakeData{value: 3}, mods(
		&fakeModifier{name: "Panics", priority: 1, panics: true},
		&fakeModifier{name: "NaN", priority: 2, value: math.NaN()},
		good,
	), fixedClock).Calculate()

	assert.Equal(t, 3.5, res.NewDifficulty)
	assert.Equal(t, []string{"Panics", "NaN"}, res.Metrics.Faults)
	require.Len(t, res.AppliedModifiers, 1)
	assert.Equal(t, "Good", res.AppliedModifiers[0].Name)
}

func TestDisabledModifiersSkipped(t *testing.T) {
	res := New(DefaultGlobalConfig(), &fakeData{value: 3}, mods(
		&fakeModifier{name: "Off", disabled: true, value: 2},
		&fakeModifier{name: "On", value: 0.25},
	), fixedClock).Calculate()
	assert.Equal(t, 3.25, res.NewDifficulty)
	assert.Equal(t, []string{"Off"}, res.Metrics.Skipped)
}

func TestExecutionOrderAndPrimaryTie(t *testing.T) {
	res := New(DefaultGlobalConfig(), &fakeData{value: 3}, mods(
		&fakeModifier{name: "Late", priority: 10, value: -1},
		&fakeModifier{name: "Early", priority: 5, value: 1},
		&fakeModifier{name: "EarlyToo", priority: 5, value: 0.1},
	), fixedClock).Calculate()

	names := make([]string, len(res.AppliedModifiers))
	for i, r := range res.AppliedModifiers {
		names[i] = r.Name
	}
	assert.Equal(t, []string{"Early", "EarlyToo", "Late"}, names)
	assert.Equal(t, "Early", res.Metrics.PrimaryName)
	assert.InDelta(t, 3.1, res.NewDifficulty, 1e-9)
}

func TestInvariantsHoldAcrossInputs(t *testing.T) {
	cfg := DefaultGlobalConfig()
	for _, current := range []float64{-5, 0, 1, 2.5, 9.9, 10, 42, math.Inf(1)} {
		for _, delta := range []float64{-100, -2.5, -0.1, 0, 0.3, 1.999, 7, math.Inf(-1)} {
			res := New(cfg, &fakeData{value: current}, mods(&fakeModifier{name: "X", value: delta}), fixedClock).Calculate()
			assert.GreaterOrEqual(t, res.NewDifficulty, cfg.MinDifficulty)
			assert.LessOrEqual(t, res.NewDifficulty, cfg.MaxDifficulty)
			assert.LessOrEqual(t, math.Abs(res.Delta()), cfg.MaxChangePerEvaluation+1e-12)
		}
	}
}

func TestDeterministic(t *testing.T) {
	build := func() *Calculator {
		snap := &provider.Snapshot{Difficulty: 4, WinStreak: 5, HoursSinceLastPlay: 30, CurrentSessionDuration: 40, AverageSessionDuration: 200}
		ms := modifier.Build(provider.Full(snap), modifier.DefaultRegistry(), nil)
		return New(DefaultGlobalConfig(), snap, ms, fixedClock)
	}
	first := build().Calculate()
	second := build().Calculate()
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("results differ (-first +second):\n%s", diff)
	}

	c := build()
	if diff := cmp.Diff(c.Calculate(), c.Calculate()); diff != "" {
		t.Errorf("repeat call differs:\n%s", diff)
	}
}

// #endregion isolation

// #region pipeline

func TestWinStreakPipeline(t *testing.T) {
	snap := &provider.Snapshot{Difficulty: 3, WinStreak: 4, TotalWins: 4}
	ms := modifier.Build(provider.Full(snap), modifier.DefaultRegistry(), zap.NewNop())
	res := New(DefaultGlobalConfig(), snap, ms, fixedClock, WithLogger(zap.NewNop())).Calculate()

	assert.InDelta(t, 4.0, res.NewDifficulty, 1e-9)
	assert.Equal(t, "WinStreak", res.Metrics.PrimaryName)
	assert.Equal(t, "win streak of 4", res.PrimaryReason)
	assert.Len(t, res.AppliedModifiers, len(modifier.AllTypes))
	assert.Equal(t, 3.0, snap.Difficulty, "Calculate does not persist")
}

func TestAggregationStrategyApplies(t *testing.T) {
	cfg := DefaultGlobalConfig()
	cfg.Aggregation = aggregate.Config{Strategy: aggregate.StrategyMax}
	res := New(cfg, &fakeData{value: 5}, mods(
		&fakeModifier{name: "A", value: 1},
		&fakeModifier{name: "B", value: -1.5},
	), fixedClock).Calculate()
	assert.Equal(t, 3.5, res.NewDifficulty)
	assert.Equal(t, aggregate.StrategyMax, res.Metrics.Strategy)
}

func TestApplyPersistsAndNotifies(t *testing.T) {
	data := &fakeData{value: 3}
	win := &fakeModifier{name: "Win", value: 1}
	idle := &fakeModifier{name: "Idle", disabled: true}
	ms := mods(win, idle)

	res := New(DefaultGlobalConfig(), data, ms, fixedClock).Calculate()
	require.NoError(t, Apply(res, data, ms))

	assert.Equal(t, 4.0, data.value)
	assert.Equal(t, 1, data.sets)
	require.Len(t, win.applied, 1)
	assert.Equal(t, 1.0, win.applied[0].Value)
	assert.Empty(t, idle.applied, "skipped modifiers are not notified")

	assert.Error(t, Apply(res, nil, ms))
}

// #endregion pipeline

// #region config

func TestGlobalConfigNormalize(t *testing.T) {
	cfg := GlobalConfig{
		MinDifficulty:          5,
		MaxDifficulty:          2,
		DefaultDifficulty:      math.NaN(),
		MaxChangePerEvaluation: -1.5,
		Aggregation:            aggregate.Config{Strategy: "bogus"},
	}.Normalize()

	assert.Equal(t, 5.0, cfg.MaxDifficulty)
	assert.Equal(t, 5.0, cfg.DefaultDifficulty)
	assert.Equal(t, 1.5, cfg.MaxChangePerEvaluation)
	assert.Equal(t, aggregate.StrategySum, cfg.Aggregation.Strategy)
}

// #endregion config
