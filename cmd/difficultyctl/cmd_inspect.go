package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/danielpatrickdp/adaptive-difficulty/internal/logging"
)

type inspectRow struct {
	VersionID  string   `json:"version_id"`
	ParentID   string   `json:"parent_id,omitempty"`
	Difficulty float64  `json:"difficulty"`
	Delta      *float64 `json:"delta,omitempty"`
	Decision   string   `json:"decision,omitempty"`
	Reason     string   `json:"reason,omitempty"`
	Primary    string   `json:"primary,omitempty"`
	CreatedAt  string   `json:"created_at"`
	Active     bool     `json:"active"`
}

func newInspectCmd(a *app) *cobra.Command {
	var flags struct {
		last    int
		jsonOut bool
	}
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "List the player's difficulty versions with provenance",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := a.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			versions, err := store.ListVersionsWithProvenance(a.runtime.Player, flags.last)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(versions) == 0 {
				fmt.Fprintln(cmd.ErrOrStderr(), "no versions found")
				return nil
			}

			activeID := ""
			if cur, err := store.GetCurrent(a.runtime.Player); err == nil {
				activeID = cur.VersionID
			}

			// store returns DESC, reverse for chronological
			rows := make([]inspectRow, len(versions))
			for i, vp := range versions {
				row := inspectRow{
					VersionID:  vp.VersionID,
					ParentID:   vp.ParentID,
					Difficulty: vp.Difficulty,
					Decision:   vp.Decision,
					Reason:     vp.Reason,
					CreatedAt:  vp.CreatedAt.Format("2006-01-02T15:04:05Z"),
					Active:     vp.VersionID == activeID,
				}
				if rec := parseEvaluationRecord(vp.SignalsJSON); rec != nil {
					d := rec.NewDifficulty - rec.PreviousDifficulty
					row.Delta = &d
					row.Primary = rec.PrimaryName
				}
				rows[len(versions)-1-i] = row
			}

			if flags.jsonOut {
				return printJSON(out, rows)
			}
			printInspectTable(out, rows)
			return nil
		},
	}
	f := cmd.Flags()
	f.IntVar(&flags.last, "last", 20, "show N most recent versions")
	f.BoolVar(&flags.jsonOut, "json", false, "output as JSON instead of table")
	return cmd
}

func printInspectTable(w io.Writer, rows []inspectRow) {
	fmt.Fprintf(w, "%-1s %-12s  %10s  %8s  %-10s  %-16s  %s\n",
		"", "Version", "Difficulty", "Delta", "Decision", "Primary", "Time")
	fmt.Fprintf(w, "%-1s %-12s+-%10s+-%8s+-%-10s+-%-16s+-%s\n",
		"", "------------", "----------", "--------", "----------", "----------------", "--------------------")
	for _, r := range rows {
		marker := ""
		if r.Active {
			marker = "*"
		}
		delta := "-"
		if r.Delta != nil {
			delta = fmt.Sprintf("%+.4f", *r.Delta)
		}
		decision := r.Decision
		if decision == "" {
			decision = "-"
		}
		fmt.Fprintf(w, "%-1s %-12s  %10.4f  %8s  %-10s  %-16s  %s\n",
			marker, shortID(r.VersionID), r.Difficulty, delta, decision, r.Primary, r.CreatedAt)
	}
}

func parseEvaluationRecord(signals string) *logging.EvaluationRecord {
	if signals == "" {
		return nil
	}
	var rec logging.EvaluationRecord
	if err := json.Unmarshal([]byte(signals), &rec); err != nil {
		return nil
	}
	return &rec
}
