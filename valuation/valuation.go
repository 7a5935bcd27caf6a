// Package valuation computes realized plus unrealized profit for
// live-prices views and the leaderboard.
package valuation

import (
	"errors"
	"sort"

	"github.com/rustyeddy/stocksim/ledger"
	"github.com/rustyeddy/stocksim/market"
)

type Engine struct {
	ledger *ledger.Ledger
	prices market.History
}

func New(l *ledger.Ledger, prices market.History) *Engine {
	return &Engine{ledger: l, prices: prices}
}

// Position is one holding marked to the latest price.
type Position struct {
	Quantity      int64
	AvgCost       market.Cents
	LivePrice     market.Cents
	TotalValue    market.Cents
	ProfitLoss    market.Cents
	ProfitLossPct float64
}

// LivePositions marks every holding of the account to market. Symbols
// without price data are skipped rather than valued at zero.
func (v *Engine) LivePositions(accountID string) (map[string]Position, error) {
	holdings, err := v.ledger.Holdings(accountID)
	if err != nil {
		return nil, err
	}

	out := make(map[string]Position, len(holdings))
	for _, h := range holdings {
		latest, err := v.prices.Latest(h.Symbol)
		if errors.Is(err, market.ErrNoPriceData) {
			continue
		}
		if err != nil {
			return nil, err
		}

		pl := (latest.Close - h.AvgCost) * h.Quantity
		pct := 0.0
		if h.AvgCost != 0 {
			pct = float64(latest.Close-h.AvgCost) / float64(h.AvgCost) * 100
		}
		out[h.Symbol] = Position{
			Quantity:      h.Quantity,
			AvgCost:       h.AvgCost,
			LivePrice:     latest.Close,
			TotalValue:    latest.Close * h.Quantity,
			ProfitLoss:    pl,
			ProfitLossPct: pct,
		}
	}
	return out, nil
}

// Valuate returns realized profit plus the unrealized profit of every
// priceable holding. A partial valuation is acceptable when some
// symbols have no feed yet.
func (v *Engine) Valuate(accountID string) (market.Cents, error) {
	acct, err := v.ledger.Account(accountID)
	if err != nil {
		return 0, err
	}

	total := acct.RealizedProfit
	holdings, err := v.ledger.Holdings(accountID)
	if err != nil {
		return 0, err
	}
	for _, h := range holdings {
		latest, err := v.prices.Latest(h.Symbol)
		if errors.Is(err, market.ErrNoPriceData) {
			continue
		}
		if err != nil {
			return 0, err
		}
		total += (latest.Close - h.AvgCost) * h.Quantity
	}
	return total, nil
}

// Entry is one leaderboard row.
type Entry struct {
	AccountID   string
	Username    string
	TotalProfit market.Cents
}

// Leaderboard ranks every account by total profit descending; equal
// totals break ties by account id ascending so the ordering is
// deterministic.
func (v *Engine) Leaderboard() ([]Entry, error) {
	accounts, err := v.ledger.Accounts()
	if err != nil {
		return nil, err
	}

	out := make([]Entry, 0, len(accounts))
	for _, a := range accounts {
		total, err := v.Valuate(a.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, Entry{AccountID: a.ID, Username: a.Username, TotalProfit: total})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].TotalProfit != out[j].TotalProfit {
			return out[i].TotalProfit > out[j].TotalProfit
		}
		return out[i].AccountID < out[j].AccountID
	})
	return out, nil
}
