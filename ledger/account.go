package ledger

import (
	"errors"
	"time"

	"github.com/rustyeddy/stocksim/market"
)

var (
	ErrInsufficientFunds    = errors.New("insufficient funds")
	ErrInsufficientHoldings = errors.New("insufficient holdings")
	ErrAccountNotFound      = errors.New("account not found")
	ErrAccountExists        = errors.New("account already exists")

	// ErrConflict reports store-level write contention. Callers retry a
	// bounded number of times before surfacing it.
	ErrConflict = errors.New("concurrent conflict")
)

// Account carries the cash balance and the running realized profit.
// Balance never goes below zero at any observable point; both fields
// change only through Ledger operations.
type Account struct {
	ID             string
	Username       string
	Balance        market.Cents
	RealizedProfit market.Cents
	CreatedAt      time.Time
}

// Holding is one (account, symbol) position. A record exists iff
// Quantity > 0; AvgCost is the weighted-average purchase price and is
// never changed by a sell.
type Holding struct {
	AccountID string
	Symbol    string
	Quantity  int64
	AvgCost   market.Cents
}

// Store is the persistence contract for accounts and holdings. Save
// and delete calls happen inside the owning account's critical
// section, so implementations need no cross-account coordination.
type Store interface {
	GetAccount(id string) (Account, error)
	SaveAccount(a Account) error
	ListAccounts() ([]Account, error)

	GetHolding(accountID, symbol string) (Holding, bool, error)
	SaveHolding(h Holding) error
	DeleteHolding(accountID, symbol string) error
	ListHoldings(accountID string) ([]Holding, error)

	// Reset deletes every holding and restores every balance to
	// startingBalance with zero realized profit.
	Reset(startingBalance market.Cents) error
}
