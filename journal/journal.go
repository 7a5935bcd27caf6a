package journal

import (
	"time"

	"github.com/rustyeddy/stocksim/market"
)

// Transaction is one executed trade. Records are append-only: nothing
// mutates or deletes them short of an administrative reset.
type Transaction struct {
	ID        string
	AccountID string
	Symbol    string
	Quantity  int64
	Price     market.Cents
	Kind      market.OrderKind
	Side      market.Side
	Timestamp time.Time
}

type Journal interface {
	Record(tx Transaction) error
	// ListByAccount returns the account's transactions, newest first.
	ListByAccount(accountID string) ([]Transaction, error)
	Reset() error
	Close() error
}
