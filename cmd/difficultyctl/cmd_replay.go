package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/danielpatrickdp/adaptive-difficulty/internal/replay"
)

func newReplayCmd(a *app) *cobra.Command {
	var jsonOut bool
	cmd := &cobra.Command{
		Use:   "replay <fixture.json>",
		Short: "Replay a JSON fixture through the calculator and checks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := replay.LoadFixture(args[0])
			if err != nil {
				return err
			}
			results := replay.Replay(f, a.logger)
			summary := replay.Summarize(results)

			out := cmd.OutOrStdout()
			if jsonOut {
				if err := printJSON(out, struct {
					Results []replay.CaseResult  `json:"results"`
					Summary replay.ReplaySummary `json:"summary"`
				}{results, summary}); err != nil {
					return err
				}
			} else {
				if f.Description != "" {
					fmt.Fprintf(out, "%s\n\n", f.Description)
				}
				for _, r := range results {
					status := "PASS"
					if !r.Passed {
						status = "FAIL"
					}
					fmt.Fprintf(out, "%-4s  %-32s  %6.2f -> %6.2f  (expected %6.2f)  %s\n",
						status, r.Name, r.Result.PreviousDifficulty, r.Result.NewDifficulty, r.Expected, r.Reason)
				}
				fmt.Fprintf(out, "\n%d cases: %d passed, %d failed (%d raised, %d lowered, %d unchanged)\n",
					summary.TotalCases, summary.Passed, summary.Failed, summary.Raised, summary.Lowered, summary.Unchanged)
			}

			if summary.Failed > 0 {
				return fmt.Errorf("%d of %d cases failed", summary.Failed, summary.TotalCases)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "output as JSON instead of text")
	return cmd
}
