package engine

import (
	"sort"
	"time"

	"github.com/rustyeddy/stocksim/market"
)

const (
	StatusExecuted = "Executed"
	StatusPending  = "Pending"
)

// HistoryEntry is one row of the merged order-history view: executed
// transactions and still-pending limit orders together.
type HistoryEntry struct {
	Kind      market.OrderKind
	Side      market.Side
	Symbol    string
	Quantity  int64
	Price     market.Cents
	Status    string
	Timestamp time.Time
}

// OrderHistory lists the account's executed trades and pending limit
// orders, newest first.
func (e *Engine) OrderHistory(accountID string) ([]HistoryEntry, error) {
	txs, err := e.journal.ListByAccount(accountID)
	if err != nil {
		return nil, err
	}
	pending, err := e.book.ListByAccount(accountID)
	if err != nil {
		return nil, err
	}

	out := make([]HistoryEntry, 0, len(txs)+len(pending))
	for _, tx := range txs {
		out = append(out, HistoryEntry{
			Kind:      tx.Kind,
			Side:      tx.Side,
			Symbol:    tx.Symbol,
			Quantity:  tx.Quantity,
			Price:     tx.Price,
			Status:    StatusExecuted,
			Timestamp: tx.Timestamp,
		})
	}
	for _, o := range pending {
		out = append(out, HistoryEntry{
			Kind:      market.OrderLimit,
			Side:      o.Side,
			Symbol:    o.Symbol,
			Quantity:  o.Quantity,
			Price:     o.LimitPrice,
			Status:    StatusPending,
			Timestamp: o.CreatedAt,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	return out, nil
}
