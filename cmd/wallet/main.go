package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"smartwallet/internal/cli"
)

var (
	version = "dev"
	rootCmd = &cobra.Command{
		Use:   "wallet",
		Short: "Personal finance ledger with budgets, goals and forecasts",
		Long: `wallet keeps a ledger of income and expenses, materializes recurring
transactions, tracks budgets and savings goals and serves the derived
figures over a JSON API.

Configuration is read from the environment and an optional .env file.`,
		SilenceUsage: true,
	}
)

func init() {
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(catchupCmd())
	rootCmd.AddCommand(statsCmd())
	rootCmd.AddCommand(exportCmd())
	rootCmd.AddCommand(resetCmd())
	rootCmd.AddCommand(versionCmd())
}

func main() {
	ctx, cancel := cli.SignalContext(context.Background())
	err := rootCmd.ExecuteContext(ctx)
	cancel()

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "wallet", version)
		},
	}
}
