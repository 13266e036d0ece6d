package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "backtester",
	Short: "Replay trading strategies over historical data",
	Long: `Backtester runs a strategy over daily quotes and keeps a full account
ledger: positions, transactions, costs, margin and equity at close and at
execution prices.

It provides tools for:
  - Running backtests from YAML or JSON config files
  - Journaling runs, transactions, equity and trades to CSV or SQLite
  - Querying past runs from the SQLite journal`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}
