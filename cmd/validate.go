package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/kilianp07/spos/app"
)

var validateMonth string

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Backtest the stored plan or prices against history",
}

var validateMonteCarloCmd = &cobra.Command{
	Use:   "montecarlo",
	Short: "Compare a historical reference week with the stored plan",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withService(cmd, func(ctx context.Context, svc *app.Service) error {
			res, err := svc.Validator.MonteCarlo(ctx, validateMonth)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), res)
		})
	},
}

var validatePricingCmd = &cobra.Command{
	Use:   "pricing",
	Short: "Compare static and dynamic revenue over the evaluation period",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withService(cmd, func(ctx context.Context, svc *app.Service) error {
			res, err := svc.Validator.Pricing(ctx)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), res)
		})
	},
}

func init() {
	validateMonteCarloCmd.Flags().StringVar(&validateMonth, "month", "", "evaluation month YYYY-MM (default previous month)")
	validateCmd.AddCommand(validateMonteCarloCmd, validatePricingCmd)
	rootCmd.AddCommand(validateCmd)
}
