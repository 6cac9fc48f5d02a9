package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/danielpatrickdp/adaptive-difficulty/internal/logging"
)

func newRollbackCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "rollback <version>",
		Short: "Point the player's active difficulty at an earlier version",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			target := args[0]
			if err := store.Rollback(a.runtime.Player, target); err != nil {
				return err
			}
			rec, err := store.GetVersion(target)
			if err != nil {
				return err
			}
			err = logging.LogDecision(store.DB(), logging.ProvenanceEntry{
				VersionID:   target,
				PlayerID:    a.runtime.Player,
				TriggerType: "rollback",
				Decision:    logging.DecisionRollback,
				Reason:      "manual rollback",
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "rolled back to %s (difficulty %.2f)\n", shortID(target), rec.Difficulty)
			return nil
		},
	}
}
