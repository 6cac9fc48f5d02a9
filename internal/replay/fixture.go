package replay

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/danielpatrickdp/adaptive-difficulty/internal/config"
	"github.com/danielpatrickdp/adaptive-difficulty/internal/provider"
)

// #region fixture-types

// Fixture is the top-level JSON structure for a replay fixture.
type Fixture struct {
	Description string `json:"description"`
	// Config is decoded over the defaults; omitted sections keep them.
	Config *config.File `json:"config"`
	// EvaluatedAt pins the calculator clock so results are reproducible.
	EvaluatedAt time.Time `json:"evaluated_at"`
	// Chain carries each case's new difficulty into the next case.
	Chain bool          `json:"chain"`
	Cases []FixtureCase `json:"cases"`
}

// FixtureCase is one evaluation with its expected outcome.
type FixtureCase struct {
	Name               string            `json:"name"`
	Snapshot           provider.Snapshot `json:"snapshot"`
	ExpectedDifficulty float64           `json:"expected_difficulty"`
	// ExpectedPrimary is the expected primary modifier name; empty skips the check.
	ExpectedPrimary string  `json:"expected_primary,omitempty"`
	Tolerance       float64 `json:"tolerance,omitempty"`
}

// #endregion fixture-types

// #region fixture-loader

// LoadFixture reads and parses a JSON fixture file.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture %s: %w", path, err)
	}
	f, err := ParseFixture(data)
	if err != nil {
		return nil, fmt.Errorf("parse fixture %s: %w", path, err)
	}
	return f, nil
}

// ParseFixture decodes a fixture over the default configuration.
func ParseFixture(data []byte) (*Fixture, error) {
	f := Fixture{Config: config.Default()}
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	if f.Config == nil {
		f.Config = config.Default()
	}
	f.Config.Normalize()
	return &f, nil
}

// #endregion fixture-loader
