package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/danielpatrickdp/adaptive-difficulty/internal/provider"
	"github.com/danielpatrickdp/adaptive-difficulty/internal/state"
)

// #region record-session
func newRecordSessionCmd(a *app) *cobra.Command {
	var flags struct {
		duration float64
		quit     string
		level    int
		midLevel bool
		started  string
	}
	cmd := &cobra.Command{
		Use:   "record-session",
		Short: "Record a finished play session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if flags.duration < 0 {
				return fmt.Errorf("duration must be non-negative, got %v", flags.duration)
			}
			started := time.Now().UTC().Add(-time.Duration(flags.duration * float64(time.Second)))
			if flags.started != "" {
				t, err := time.Parse(time.RFC3339, flags.started)
				if err != nil {
					return fmt.Errorf("parse --started: %w", err)
				}
				started = t.UTC()
			}

			store, err := a.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			sess := state.Session{
				PlayerID:        a.runtime.Player,
				StartedAt:       started,
				DurationSeconds: flags.duration,
				Level:           flags.level,
			}
			if flags.quit == "auto" {
				sess.QuitType, err = store.ClassifyQuit(sess.PlayerID, sess.EndedAt(), flags.midLevel, a.runtime.RageQuitSeconds)
			} else {
				sess.QuitType, err = provider.ParseQuitType(flags.quit)
			}
			if err != nil {
				return err
			}

			id, err := store.RecordSession(sess)
			if err != nil {
				return err
			}
			a.logger.Debug("session recorded", zap.Int64("id", id), zap.String("quit", sess.QuitType.String()))
			fmt.Fprintf(cmd.OutOrStdout(), "session %d recorded (%.0fs, %s)\n", id, sess.DurationSeconds, sess.QuitType)
			return nil
		},
	}
	f := cmd.Flags()
	f.Float64Var(&flags.duration, "duration", 0, "session length in seconds (required)")
	f.StringVar(&flags.quit, "quit", "auto", "quit type: normal, rage_quit, mid_play or auto")
	f.IntVar(&flags.level, "level", 0, "level the session ended on")
	f.BoolVar(&flags.midLevel, "mid-level", false, "session ended before the level finished (used by --quit auto)")
	f.StringVar(&flags.started, "started", "", "session start time, RFC3339 (default now minus duration)")
	_ = cmd.MarkFlagRequired("duration")
	return cmd
}

// #endregion record-session

// #region record-attempt
func newRecordAttemptCmd(a *app) *cobra.Command {
	var flags struct {
		level   int
		won     bool
		seconds float64
		at      string
	}
	cmd := &cobra.Command{
		Use:   "record-attempt",
		Short: "Record one attempt at a level",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			at := time.Now().UTC()
			if flags.at != "" {
				t, err := time.Parse(time.RFC3339, flags.at)
				if err != nil {
					return fmt.Errorf("parse --at: %w", err)
				}
				at = t.UTC()
			}

			store, err := a.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			id, err := store.RecordAttempt(state.Attempt{
				PlayerID:   a.runtime.Player,
				Level:      flags.level,
				Won:        flags.won,
				Seconds:    flags.seconds,
				RecordedAt: at,
			})
			if err != nil {
				return err
			}
			outcome := "lost"
			if flags.won {
				outcome = "won"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "attempt %d recorded (level %d, %s)\n", id, flags.level, outcome)
			return nil
		},
	}
	f := cmd.Flags()
	f.IntVar(&flags.level, "level", 0, "level number (required)")
	f.BoolVar(&flags.won, "won", false, "the attempt completed the level")
	f.Float64Var(&flags.seconds, "seconds", 0, "time spent on the attempt")
	f.StringVar(&flags.at, "at", "", "attempt time, RFC3339 (default now)")
	_ = cmd.MarkFlagRequired("level")
	return cmd
}

// #endregion record-attempt

// #region set-level
func newSetLevelCmd(a *app) *cobra.Command {
	var flags struct {
		level    int
		rating   float64
		expected float64
	}
	cmd := &cobra.Command{
		Use:   "set-level",
		Short: "Define a level's difficulty rating and expected completion time",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := a.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			l := state.Level{Level: flags.level, Difficulty: flags.rating, ExpectedSeconds: flags.expected}
			if err := store.UpsertLevel(l); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "level %d set (difficulty %.2f, expected %.0fs)\n", l.Level, l.Difficulty, l.ExpectedSeconds)
			return nil
		},
	}
	f := cmd.Flags()
	f.IntVar(&flags.level, "level", 0, "level number (required)")
	f.Float64Var(&flags.rating, "difficulty", 0, "intrinsic difficulty rating")
	f.Float64Var(&flags.expected, "expected-seconds", 0, "expected completion time in seconds")
	_ = cmd.MarkFlagRequired("level")
	return cmd
}

// #endregion set-level
