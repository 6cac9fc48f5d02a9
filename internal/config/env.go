package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Runtime holds process settings read from the environment.
type Runtime struct {
	DBPath         string `env:"DIFFICULTY_DB" envDefault:"difficulty.db"`
	ConfigPath     string `env:"DIFFICULTY_CONFIG" envDefault:"difficulty.yaml"`
	Player         string `env:"DIFFICULTY_PLAYER" envDefault:"default"`
	LogLevel       string `env:"DIFFICULTY_LOG_LEVEL" envDefault:"info"`
	LogDevelopment bool   `env:"DIFFICULTY_LOG_DEV" envDefault:"false"`
	// HistoryWindow is how many recent sessions feed session statistics.
	HistoryWindow int `env:"DIFFICULTY_HISTORY_WINDOW" envDefault:"10"`
	// RageQuitSeconds classifies a session ending this soon after a loss as a rage quit.
	RageQuitSeconds float64 `env:"DIFFICULTY_RAGE_QUIT_SECONDS" envDefault:"30"`
}

// LoadRuntime parses Runtime from the environment.
func LoadRuntime() (Runtime, error) {
	var r Runtime
	if err := env.Parse(&r); err != nil {
		return Runtime{}, fmt.Errorf("parse env: %w", err)
	}
	if r.HistoryWindow <= 0 {
		r.HistoryWindow = 10
	}
	return r, nil
}
