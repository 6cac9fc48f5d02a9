package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/danielpatrickdp/adaptive-difficulty/internal/config"
	"github.com/danielpatrickdp/adaptive-difficulty/internal/logging"
	"github.com/danielpatrickdp/adaptive-difficulty/internal/state"
)

// app carries the settings resolved for one invocation.
type app struct {
	runtime config.Runtime
	logger  *zap.Logger

	// flag overrides of the environment
	dbPath     string
	configPath string
	player     string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "difficultyctl",
		Short: "Adaptive difficulty scoring for a player save",
		Long: "difficultyctl records play telemetry into a SQLite save, evaluates\n" +
			"the modifier pipeline against it and applies the new difficulty.",
		SilenceUsage: true,
		CompletionOptions: cobra.CompletionOptions{
			HiddenDefaultCmd: true,
		},
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
		PersistentPostRun: func(_ *cobra.Command, _ []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}
	root.Version = version

	f := root.PersistentFlags()
	f.StringVar(&a.dbPath, "db", "", "SQLite save path (env DIFFICULTY_DB)")
	f.StringVar(&a.configPath, "config", "", "YAML config path (env DIFFICULTY_CONFIG)")
	f.StringVar(&a.player, "player", "", "player ID (env DIFFICULTY_PLAYER)")
	f.StringVar(&a.logLevel, "log-level", "", "log level (env DIFFICULTY_LOG_LEVEL)")

	root.AddCommand(newEvaluateCmd(a))
	root.AddCommand(newRecordSessionCmd(a))
	root.AddCommand(newRecordAttemptCmd(a))
	root.AddCommand(newSetLevelCmd(a))
	root.AddCommand(newInspectCmd(a))
	root.AddCommand(newRollbackCmd(a))
	root.AddCommand(newReplayCmd(a))
	root.AddCommand(newConfigCmd(a))
	return root
}

// setup reads the environment, applies flag overrides and builds the logger.
func (a *app) setup(cmd *cobra.Command) error {
	rt, err := config.LoadRuntime()
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("db") {
		rt.DBPath = a.dbPath
	}
	if flags.Changed("config") {
		rt.ConfigPath = a.configPath
	}
	if flags.Changed("player") {
		rt.Player = a.player
	}
	if flags.Changed("log-level") {
		rt.LogLevel = a.logLevel
	}
	a.runtime = rt

	logger, err := logging.NewLogger(rt.LogLevel, rt.LogDevelopment)
	if err != nil {
		return err
	}
	a.logger = logger
	return nil
}

func (a *app) openStore() (*state.Store, error) {
	store, err := state.NewStore(a.runtime.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open store %s: %w", a.runtime.DBPath, err)
	}
	return store, nil
}

func (a *app) loadConfig() (*config.File, error) {
	return config.Load(a.runtime.ConfigPath)
}
