package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/kilianp07/spos/app"
)

var priceCmd = &cobra.Command{
	Use:   "price",
	Short: "Compute and store dynamic service prices",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withService(cmd, func(ctx context.Context, svc *app.Service) error {
			res, err := svc.Pricer.Run(ctx)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), res)
		})
	},
}

func init() {
	rootCmd.AddCommand(priceCmd)
}
