package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kilianp07/spos/app"
	"github.com/kilianp07/spos/core/store"
	"github.com/kilianp07/spos/pkg/export"
)

var importCmd = &cobra.Command{
	Use:   "import <dataset.yaml>",
	Short: "Load input tables from a YAML or JSON dataset",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()
		ds, err := store.DecodeDataset(f)
		if err != nil {
			return fmt.Errorf("decode %s: %w", args[0], err)
		}
		return withService(cmd, func(ctx context.Context, svc *app.Service) error {
			if err := svc.Store.Import(ctx, ds); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d services, %d employees, %d appointments\n",
				len(ds.Services), len(ds.Employees), len(ds.Appointments))
			return nil
		})
	},
}

var exportOpts struct {
	format string
	output string
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the latest stored weekly plan",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withService(cmd, func(ctx context.Context, svc *app.Service) error {
			plan, found, err := svc.Store.WeeklyPlan(ctx)
			if err != nil {
				return err
			}
			if !found {
				return errors.New("no weekly plan stored, run simulate first")
			}
			if exportOpts.output == "" {
				return export.Write(cmd.OutOrStdout(), exportOpts.format, plan)
			}
			f, err := os.Create(exportOpts.output)
			if err != nil {
				return err
			}
			if err := export.Write(f, exportOpts.format, plan); err != nil {
				_ = f.Close()
				return err
			}
			return f.Close()
		})
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportOpts.format, "format", export.FormatJSON, "output format: json, csv or html")
	exportCmd.Flags().StringVarP(&exportOpts.output, "output", "o", "", "output file (default stdout)")
	rootCmd.AddCommand(importCmd, exportCmd)
}
