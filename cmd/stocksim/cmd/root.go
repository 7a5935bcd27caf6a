package cmd

import (
	"github.com/spf13/cobra"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "stocksim",
	Short: "A paper stock-trading simulator",
	Long: `Stocksim is a paper-trading simulator written in Go.

It provides:
  - A cash ledger with market and limit order execution
  - A periodic matching loop that fills limit orders against a
    replayed price feed
  - Realized/unrealized profit valuation and a leaderboard
  - SQLite, CSV and Redis-backed storage`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (YAML or JSON)")
}
