package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/kilianp07/spos/infra/runlog"
)

var runsOpts struct {
	path  string
	kind  string
	since time.Duration
}

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recorded runs from the jsonl run history",
	RunE: func(cmd *cobra.Command, _ []string) error {
		switch runsOpts.kind {
		case "", runlog.KindPlan, runlog.KindPricing, runlog.KindValidation:
		default:
			return fmt.Errorf("unknown run kind %q", runsOpts.kind)
		}
		q := runlog.Query{Kind: runsOpts.kind}
		if runsOpts.since > 0 {
			q.Start = time.Now().Add(-runsOpts.since)
		}
		recs, err := runlog.Read(cmd.Context(), runsOpts.path, q)
		if err != nil {
			return err
		}
		if recs == nil {
			recs = []runlog.Record{}
		}
		return printJSON(cmd.OutOrStdout(), recs)
	},
}

func init() {
	runsCmd.Flags().StringVar(&runsOpts.path, "path", "runs.jsonl", "run history file")
	runsCmd.Flags().StringVar(&runsOpts.kind, "kind", "", "plan, pricing or validation")
	runsCmd.Flags().DurationVar(&runsOpts.since, "since", 0, "only runs newer than this duration")
	rootCmd.AddCommand(runsCmd)
}
