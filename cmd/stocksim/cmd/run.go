package cmd

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rustyeddy/stocksim/engine"
	"github.com/rustyeddy/stocksim/fanout"
	"github.com/rustyeddy/stocksim/feed"
	"github.com/rustyeddy/stocksim/sched"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the trading simulator",
	Long: `Start the feed replay, the limit-order matching loop and the
tick fan-out, and keep them running until interrupted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := buildApp()
		if err != nil {
			return err
		}
		defer app.Close()

		if err := app.seedAccounts(); err != nil {
			return fmt.Errorf("seed accounts: %w", err)
		}

		gen, err := feed.LoadCSV(app.cfg.Data.CSVPath, app.log)
		if err != nil {
			return fmt.Errorf("load price data: %w", err)
		}

		reg := fanout.NewRegistry()
		// The local session watches the configured symbols so the feed
		// advances even with no external subscribers attached.
		reg.Register("local", app.cfg.Symbols)

		fan := fanout.New(reg, app.prices, fanout.NewLogPublisher(app.log), app.log)
		eng := engine.New(app.ledger, app.prices, app.book, app.journal, app.log)

		matchEvery, err := app.cfg.Schedule.ParseMatchInterval()
		if err != nil {
			return err
		}
		feedEvery, err := app.cfg.Schedule.ParseFeedInterval()
		if err != nil {
			return err
		}

		s := sched.New(eng, gen, app.prices, reg, fan, matchEvery, feedEvery, app.log)

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		app.log.Info("simulator running",
			zap.Strings("symbols", app.cfg.Symbols),
			zap.Duration("match_interval", matchEvery),
			zap.Duration("feed_interval", feedEvery),
		)

		if err := s.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}
