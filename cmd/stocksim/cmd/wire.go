package cmd

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/rustyeddy/stocksim/book"
	"github.com/rustyeddy/stocksim/config"
	"github.com/rustyeddy/stocksim/journal"
	"github.com/rustyeddy/stocksim/ledger"
	"github.com/rustyeddy/stocksim/market"
)

// app bundles the wired storage stack shared by the subcommands.
type app struct {
	cfg     *config.Config
	log     *zap.Logger
	ledger  *ledger.Ledger
	journal journal.Journal
	book    book.Store
	prices  market.History

	closers []func() error
}

func loadConfig() (*config.Config, error) {
	if cfgFile == "" {
		return config.Default(), nil
	}
	return config.LoadFromFile(cfgFile)
}

func buildApp() (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	log, err := zap.NewProduction()
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, log: log}

	switch cfg.Store.Type {
	case "sqlite":
		ls, err := ledger.NewSQLite(cfg.Store.DBPath)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("open ledger store: %w", err)
		}
		a.closers = append(a.closers, ls.Close)
		a.ledger = ledger.New(ls)

		j, err := journal.NewSQLite(cfg.Store.DBPath)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("open journal: %w", err)
		}
		a.closers = append(a.closers, j.Close)
		a.journal = j

		bs, err := book.NewSQLite(cfg.Store.DBPath)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("open order book: %w", err)
		}
		a.closers = append(a.closers, bs.Close)
		a.book = bs

	case "memory":
		a.ledger = ledger.New(ledger.NewMemoryStore())
		a.journal = journal.NewMemory()
		a.book = book.NewMemoryStore()

	default:
		a.Close()
		return nil, fmt.Errorf("unknown store type %q", cfg.Store.Type)
	}

	switch cfg.Store.Candles {
	case "redis":
		rs, err := market.NewRedisStore(cfg.Store.Redis.Addr, cfg.Store.Redis.Password, cfg.Store.Redis.DB)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.closers = append(a.closers, rs.Close)
		a.prices = rs
	default:
		a.prices = market.NewCandleStore()
	}

	return a, nil
}

// seedAccounts creates any configured accounts that don't exist yet.
func (a *app) seedAccounts() error {
	start := market.FromFloat(a.cfg.Data.StartingBalance)
	for _, seed := range a.cfg.Accounts {
		_, err := a.ledger.CreateAccount(seed.ID, seed.Username, start)
		if err != nil && !errors.Is(err, ledger.ErrAccountExists) {
			return err
		}
	}
	return nil
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		_ = a.closers[i]()
	}
	if a.log != nil {
		_ = a.log.Sync()
	}
}
