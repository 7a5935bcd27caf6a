package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/stocksim/market"
	"github.com/rustyeddy/stocksim/valuation"
)

var leaderboardCmd = &cobra.Command{
	Use:   "leaderboard",
	Short: "Show accounts ranked by total profit",
	Long: `Rank every account by realized plus unrealized profit, marked to
the latest prices. Holdings without price data are skipped.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := buildApp()
		if err != nil {
			return err
		}
		defer app.Close()

		v := valuation.New(app.ledger, app.prices)
		entries, err := v.Leaderboard()
		if err != nil {
			return err
		}

		if len(entries) == 0 {
			fmt.Println("no accounts")
			return nil
		}

		fmt.Printf("%-4s %-20s %s\n", "#", "USER", "TOTAL PROFIT")
		for i, e := range entries {
			fmt.Printf("%-4d %-20s %s\n", i+1, e.Username, market.FormatCents(e.TotalProfit))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(leaderboardCmd)
}
