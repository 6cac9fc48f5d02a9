package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/danielpatrickdp/adaptive-difficulty/internal/calculator"
	"github.com/danielpatrickdp/adaptive-difficulty/internal/eval"
	"github.com/danielpatrickdp/adaptive-difficulty/internal/logging"
	"github.com/danielpatrickdp/adaptive-difficulty/internal/modifier"
	"github.com/danielpatrickdp/adaptive-difficulty/internal/provider"
	"github.com/danielpatrickdp/adaptive-difficulty/internal/state"
)

type evaluateOutput struct {
	Player    string            `json:"player"`
	Result    calculator.Result `json:"result"`
	Eval      eval.EvalResult   `json:"eval"`
	Applied   bool              `json:"applied"`
	Decision  string            `json:"decision,omitempty"`
	VersionID string            `json:"version_id,omitempty"`
}

func newEvaluateCmd(a *app) *cobra.Command {
	var flags struct {
		apply   bool
		jsonOut bool
	}
	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Evaluate the modifier pipeline for the player",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out, err := a.evaluate(time.Now().UTC(), flags.apply)
			if err != nil {
				return err
			}
			if flags.jsonOut {
				return printJSON(cmd.OutOrStdout(), out)
			}
			printEvaluation(cmd, out)
			return nil
		},
	}
	f := cmd.Flags()
	f.BoolVar(&flags.apply, "apply", false, "commit the new difficulty when checks pass")
	f.BoolVar(&flags.jsonOut, "json", false, "output as JSON instead of text")
	return cmd
}

// evaluate runs one evaluation against the store. With apply set, a
// passing, changed result is committed as a new version and every outcome
// is written to provenance_log.
func (a *app) evaluate(now time.Time, apply bool) (evaluateOutput, error) {
	cfg, err := a.loadConfig()
	if err != nil {
		return evaluateOutput{}, err
	}
	store, err := a.openStore()
	if err != nil {
		return evaluateOutput{}, err
	}
	defer store.Close()

	player := a.runtime.Player
	var active state.DifficultyRecord
	if apply {
		active, err = store.EnsurePlayer(player, cfg.Global.DefaultDifficulty)
		if err != nil {
			return evaluateOutput{}, fmt.Errorf("ensure player: %w", err)
		}
	}

	snap, err := store.Snapshot(player, now, state.SnapshotOptions{HistoryWindow: a.runtime.HistoryWindow})
	if err != nil {
		return evaluateOutput{}, fmt.Errorf("snapshot: %w", err)
	}

	mods := modifier.Build(provider.Full(snap), cfg.Modifiers.Registry(), a.logger)
	calc := calculator.New(cfg.Global, snap, mods,
		calculator.WithLogger(a.logger),
		calculator.WithClock(func() time.Time { return now }),
	)
	result := calc.Calculate()
	ev := eval.NewEvalHarness(eval.FromGlobal(calc.Config())).Run(result)

	out := evaluateOutput{Player: player, Result: result, Eval: ev}
	if !apply {
		return out, nil
	}

	record := logging.NewEvaluationRecord(player, result, ev)
	entry := logging.ProvenanceEntry{
		VersionID:   active.VersionID,
		PlayerID:    player,
		TriggerType: "evaluate",
		Reason:      result.PrimaryReason,
		CreatedAt:   now,
	}

	switch {
	case !ev.Passed:
		entry.Decision = logging.DecisionReject
		entry.Reason = ev.Reason
	case !result.Changed():
		entry.Decision = logging.DecisionNoOp
	default:
		data, err := json.Marshal(result)
		if err != nil {
			return out, fmt.Errorf("marshal result: %w", err)
		}
		pd := state.NewPlayerData(store, player).WithResult(string(data))
		if err := calculator.Apply(result, pd, mods); err != nil {
			return out, err
		}
		if err := pd.Err(); err != nil {
			return out, fmt.Errorf("commit difficulty: %w", err)
		}
		entry.VersionID = pd.LastVersionID()
		entry.Decision = logging.DecisionCommit
		out.Applied = true
	}

	if err := logging.LogEvaluation(store.DB(), entry, record); err != nil {
		return out, err
	}
	out.Decision = entry.Decision
	out.VersionID = entry.VersionID

	a.logger.Info("evaluation recorded",
		zap.String("player", player),
		zap.String("decision", entry.Decision),
		zap.String("version_id", entry.VersionID),
	)
	return out, nil
}

func printEvaluation(cmd *cobra.Command, out evaluateOutput) {
	w := cmd.OutOrStdout()
	r := out.Result
	fmt.Fprintf(w, "Player:     %s\n", out.Player)
	fmt.Fprintf(w, "Difficulty: %.2f -> %.2f (%+.2f)\n", r.PreviousDifficulty, r.NewDifficulty, r.Delta())
	fmt.Fprintf(w, "Primary:    %s\n", r.PrimaryReason)
	if len(r.AppliedModifiers) > 0 {
		fmt.Fprintf(w, "Modifiers:\n")
		for _, m := range r.AppliedModifiers {
			fmt.Fprintf(w, "  %-16s %+7.3f  %s\n", m.Name, m.Value, m.Reason)
		}
	}
	for _, c := range r.Metrics.Clamps {
		fmt.Fprintf(w, "Clamp:      %s (%s)\n", c.Type, c.Reason)
	}
	for _, f := range r.Metrics.Faults {
		fmt.Fprintf(w, "Fault:      %s\n", f)
	}
	fmt.Fprintf(w, "Checks:     %s\n", out.Eval.Reason)
	if out.Decision != "" {
		fmt.Fprintf(w, "Decision:   %s %s\n", out.Decision, shortID(out.VersionID))
	}
}
