package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/stocksim/market"
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Reset all accounts, orders and history",
	Long: `Clear every holding, pending limit order, transaction and candle
history, and restore every account balance to the configured
starting amount.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := buildApp()
		if err != nil {
			return err
		}
		defer app.Close()

		start := market.FromFloat(app.cfg.Data.StartingBalance)
		if err := app.ledger.Reset(start); err != nil {
			return fmt.Errorf("reset ledger: %w", err)
		}
		if err := app.book.Reset(); err != nil {
			return fmt.Errorf("reset order book: %w", err)
		}
		if err := app.journal.Reset(); err != nil {
			return fmt.Errorf("reset journal: %w", err)
		}
		if err := app.prices.Reset(); err != nil {
			return fmt.Errorf("reset price history: %w", err)
		}

		fmt.Printf("reset complete: balances restored to %s\n", market.FormatCents(start))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(resetCmd)
}
