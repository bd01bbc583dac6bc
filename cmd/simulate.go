package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kilianp07/spos/app"
	"github.com/kilianp07/spos/core/scheduler"
	"github.com/kilianp07/spos/pkg/export"
)

var simulateOpts struct {
	runs     int
	maxHours int
	minHours int
	openDays int
	seed     uint64
	format   string
}

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Compute and store the weekly opening plan",
	RunE:  simulate,
}

func init() {
	f := simulateCmd.Flags()
	f.IntVar(&simulateOpts.runs, "runs", 1, "simulation runs, each of 140 trials per window")
	f.IntVar(&simulateOpts.maxHours, "max-hours", 0, "maximum weekly labor hours (unset keeps the configured value)")
	f.IntVar(&simulateOpts.minHours, "min-hours", 0, "minimum weekly labor hours (unset keeps the configured value)")
	f.IntVar(&simulateOpts.openDays, "open-days", -1, "exact number of open days (-1 keeps the configured value)")
	f.Uint64Var(&simulateOpts.seed, "seed", 0, "random seed (0 keeps the configured value)")
	f.StringVar(&simulateOpts.format, "format", export.FormatJSON, "output format: json, csv or html")
	rootCmd.AddCommand(simulateCmd)
}

func simulate(cmd *cobra.Command, _ []string) error {
	if simulateOpts.runs < 1 {
		return fmt.Errorf("--runs must be at least 1")
	}
	if simulateOpts.openDays > 7 {
		return fmt.Errorf("--open-days must be within [0,7]")
	}
	req := scheduler.PlanRequest{
		Runs: simulateOpts.runs,
		Seed: simulateOpts.seed,
	}
	if cmd.Flags().Changed("max-hours") {
		req.MaxWeeklyHours = &simulateOpts.maxHours
	}
	if cmd.Flags().Changed("min-hours") {
		req.MinWeeklyHours = &simulateOpts.minHours
	}
	if simulateOpts.openDays >= 0 {
		req.OpenDays = &simulateOpts.openDays
	}
	return withService(cmd, func(ctx context.Context, svc *app.Service) error {
		res, err := svc.Planner.Plan(ctx, req)
		if err != nil {
			return err
		}
		if !res.Found {
			return fmt.Errorf("no weekly plan satisfies the constraints (%d candidates)", res.Candidates)
		}
		return export.Write(cmd.OutOrStdout(), simulateOpts.format, res.Plan)
	})
}
