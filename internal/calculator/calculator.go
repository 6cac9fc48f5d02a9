package calculator

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/danielpatrickdp/adaptive-difficulty/internal/aggregate"
	"github.com/danielpatrickdp/adaptive-difficulty/internal/gate"
	"github.com/danielpatrickdp/adaptive-difficulty/internal/modifier"
	"github.com/danielpatrickdp/adaptive-difficulty/internal/provider"
)

// #region calculator

// Calculator runs the modifier pipeline. It holds only immutable
// configuration, so every Calculate call is independent.
type Calculator struct {
	config     GlobalConfig
	data       provider.DataProvider
	modifiers  []modifier.Modifier
	aggregator *aggregate.Aggregator
	gate       *gate.Gate
	logger     *zap.Logger
	now        func() time.Time
}

// Option customises a Calculator.
type Option func(*Calculator)

// WithLogger sets the logger. The default is a no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Calculator) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithClock overrides the clock used for EvaluatedAt.
func WithClock(now func() time.Time) Option {
	return func(c *Calculator) {
		if now != nil {
			c.now = now
		}
	}
}

// New creates a Calculator. data may be nil, in which case every evaluation
// starts from DefaultDifficulty. config is normalized.
func New(config GlobalConfig, data provider.DataProvider, modifiers []modifier.Modifier, opts ...Option) *Calculator {
	config = config.Normalize()
	c := &Calculator{
		config:     config,
		data:       data,
		modifiers:  append([]modifier.Modifier(nil), modifiers...),
		aggregator: aggregate.New(config.Aggregation),
		gate:       gate.NewGate(config.GateConfig()),
		logger:     zap.NewNop(),
		now:        func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Config returns the normalized configuration in effect.
func (c *Calculator) Config() GlobalConfig {
	return c.config
}

// Modifiers returns the registered modifiers in registration order.
func (c *Calculator) Modifiers() []modifier.Modifier {
	return append([]modifier.Modifier(nil), c.modifiers...)
}

// #endregion calculator

// #region calculate

// Calculate evaluates every enabled modifier in priority order and returns
// the bounded result. It never fails: a faulting modifier contributes 0.
func (c *Calculator) Calculate() Result {
	start := time.Now()

	// 1. Current difficulty
	current := c.currentDifficulty()

	// 2. Enabled modifiers, ascending priority, stable
	active, skipped := c.selectModifiers()

	// 3. Isolated evaluation
	results := make([]modifier.Result, 0, len(active))
	var faults []string
	for _, m := range active {
		res, err := c.run(m)
		if err != nil {
			c.logger.Error("modifier failed", zap.String("modifier", m.Name()), zap.Error(err))
			faults = append(faults, m.Name())
			continue
		}
		results = append(results, res)
	}

	// 4. Aggregate
	raw := c.aggregator.Aggregate(results)

	// 5-6. Step limit and range
	decision := c.gate.Evaluate(current, raw)

	// 7. Primary reason
	primaryName, primaryReason := primary(results)

	result := Result{
		PreviousDifficulty: current,
		NewDifficulty:      decision.NewDifficulty,
		AppliedModifiers:   results,
		PrimaryReason:      primaryReason,
		EvaluatedAt:        c.now(),
		Metrics: Metrics{
			Strategy:     c.aggregator.Strategy(),
			RawDelta:     raw,
			ClampedDelta: decision.AppliedDelta,
			Clamps:       decision.Clamps,
			Faults:       faults,
			Skipped:      skipped,
			PrimaryName:  primaryName,
		},
	}

	c.logger.Info("difficulty evaluated",
		zap.Float64("previous", result.PreviousDifficulty),
		zap.Float64("new", result.NewDifficulty),
		zap.Float64("raw_delta", raw),
		zap.Int("modifiers", len(results)),
		zap.Int("faults", len(faults)),
		zap.String("primary", primaryName),
		zap.Duration("elapsed", time.Since(start)),
	)
	return result
}

// currentDifficulty reads the stored value, falling back to the default
// when it is missing, non-positive or non-finite, and clamps it into range.
func (c *Calculator) currentDifficulty() float64 {
	if c.data == nil {
		return c.config.DefaultDifficulty
	}
	v, err := readDifficulty(c.data)
	if err != nil {
		c.logger.Warn("difficulty unavailable, using default", zap.Error(err))
		return c.config.DefaultDifficulty
	}
	if !isFinite(v) || v <= 0 {
		return c.config.DefaultDifficulty
	}
	return clamp(v, c.config.MinDifficulty, c.config.MaxDifficulty)
}

func (c *Calculator) selectModifiers() (active []modifier.Modifier, skipped []string) {
	for _, m := range c.modifiers {
		if m == nil {
			continue
		}
		if !m.IsEnabled() {
			skipped = append(skipped, m.Name())
			continue
		}
		active = append(active, m)
	}
	sort.SliceStable(active, func(i, j int) bool {
		return active[i].Priority() < active[j].Priority()
	})
	return active, skipped
}

// run invokes one modifier, converting a panic or a non-finite value into an error.
func (c *Calculator) run(m modifier.Modifier) (res modifier.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	res = m.Calculate()
	if !isFinite(res.Value) {
		return modifier.Result{}, fmt.Errorf("non-finite value %v", res.Value)
	}
	if res.Name == "" {
		res.Name = m.Name()
	}
	return res, nil
}

func readDifficulty(data provider.DataProvider) (v float64, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("read difficulty: %v", r)
		}
	}()
	return data.GetCurrentDifficulty(), nil
}

// primary returns the result with the largest |value|. Results are in
// execution order, so the lower priority number wins ties.
func primary(results []modifier.Result) (string, string) {
	best := -1
	var bestAbs float64
	for i, r := range results {
		if a := math.Abs(r.Value); a > bestAbs {
			best, bestAbs = i, a
		}
	}
	if best < 0 {
		return "", NoChangeReason
	}
	return results[best].Name, results[best].Reason
}

// #endregion calculate

// #region apply

// Apply persists result through data and notifies every modifier that
// implements modifier.AppliedObserver with its own result.
func Apply(result Result, data provider.DataProvider, modifiers []modifier.Modifier) error {
	if data == nil {
		return errors.New("apply: no data provider")
	}
	data.SetCurrentDifficulty(result.NewDifficulty)

	byName := make(map[string]modifier.Result, len(result.AppliedModifiers))
	for _, r := range result.AppliedModifiers {
		byName[r.Name] = r
	}
	for _, m := range modifiers {
		obs, ok := m.(modifier.AppliedObserver)
		if !ok {
			continue
		}
		if r, ok := byName[m.Name()]; ok {
			obs.OnApplied(r)
		}
	}
	return nil
}

// #endregion apply
