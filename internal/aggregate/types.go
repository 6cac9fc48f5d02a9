package aggregate

// #region strategy

// Strategy selects how modifier results are reduced to one delta.
type Strategy string

const (
	StrategySum         Strategy = "sum"
	StrategyWeighted    Strategy = "weighted"
	StrategyMax         Strategy = "max"
	StrategyDiminishing Strategy = "diminishing"
)

// Strategies lists every built-in strategy.
var Strategies = []Strategy{StrategySum, StrategyWeighted, StrategyMax, StrategyDiminishing}

// Valid reports whether s names a built-in strategy.
func (s Strategy) Valid() bool {
	_, ok := reducers[s]
	return ok
}

// #endregion strategy

// #region config

// Config holds the aggregation strategy and its parameters.
type Config struct {
	Strategy Strategy `yaml:"strategy" json:"strategy"`
	// Weights maps modifier name to weight for StrategyWeighted. Missing names weigh 1.
	Weights map[string]float64 `yaml:"weights,omitempty" json:"weights,omitempty"`
	// DecayFactor multiplies each successive result for StrategyDiminishing.
	DecayFactor float64 `yaml:"decay_factor" json:"decay_factor"`
}

// DefaultConfig returns the arithmetic-sum configuration.
func DefaultConfig() Config {
	return Config{
		Strategy:    StrategySum,
		DecayFactor: 0.5,
	}
}

// #endregion config
