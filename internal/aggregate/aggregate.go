package aggregate

import (
	"math"
	"sort"

	"github.com/danielpatrickdp/adaptive-difficulty/internal/modifier"
)

// #region reducers

type reducer func(results []modifier.Result, config Config) float64

// reducers maps each Strategy to its implementation.
var reducers = map[Strategy]reducer{
	StrategySum:         sum,
	StrategyWeighted:    weightedAverage,
	StrategyMax:         maxMagnitude,
	StrategyDiminishing: diminishing,
}

// #endregion reducers

// #region aggregator

// Aggregator reduces modifier results to a single difficulty delta.
type Aggregator struct {
	config Config
}

// New creates an Aggregator. An unknown strategy falls back to sum and a
// decay factor outside [0, 1] falls back to the default.
func New(config Config) *Aggregator {
	if !config.Strategy.Valid() {
		config.Strategy = StrategySum
	}
	if math.IsNaN(config.DecayFactor) || config.DecayFactor < 0 || config.DecayFactor > 1 {
		config.DecayFactor = DefaultConfig().DecayFactor
	}
	return &Aggregator{config: config}
}

// Strategy returns the strategy in effect.
func (a *Aggregator) Strategy() Strategy {
	return a.config.Strategy
}

// Aggregate returns the combined delta. Empty input yields 0 for every strategy.
func (a *Aggregator) Aggregate(results []modifier.Result) float64 {
	if len(results) == 0 {
		return 0
	}
	v := reducers[a.config.Strategy](results, a.config)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// #endregion aggregator

// #region strategies

func sum(results []modifier.Result, _ Config) float64 {
	var total float64
	for _, r := range results {
		total += r.Value
	}
	return total
}

// weightedAverage returns Σ w·v / Σ w. Non-positive weights drop a result.
func weightedAverage(results []modifier.Result, config Config) float64 {
	var num, den float64
	for _, r := range results {
		w := 1.0
		if cw, ok := config.Weights[r.Name]; ok {
			w = cw
		}
		if w <= 0 || math.IsNaN(w) {
			continue
		}
		num += w * r.Value
		den += w
	}
	if den == 0 {
		return 0
	}
	return num / den
}

// maxMagnitude returns the single value with the largest |value|. The
// earliest result wins ties.
func maxMagnitude(results []modifier.Result, _ Config) float64 {
	best := results[0].Value
	for _, r := range results[1:] {
		if math.Abs(r.Value) > math.Abs(best) {
			best = r.Value
		}
	}
	return best
}

// diminishing sorts by |value| descending and multiplies the i-th value by
// decay^i so secondary signals contribute less than the primary one.
func diminishing(results []modifier.Result, config Config) float64 {
	values := make([]float64, len(results))
	for i, r := range results {
		values[i] = r.Value
	}
	sort.SliceStable(values, func(i, j int) bool {
		return math.Abs(values[i]) > math.Abs(values[j])
	})
	var total float64
	factor := 1.0
	for _, v := range values {
		total += v * factor
		factor *= config.DecayFactor
	}
	return total
}

// #endregion strategies
