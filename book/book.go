// Package book holds pending limit orders until the matching loop
// fills or the owner cancels them.
package book

import (
	"errors"
	"time"

	"github.com/rustyeddy/stocksim/market"
)

var ErrOrderNotFound = errors.New("order not found")

// Order is a pending limit order. It terminates by exactly one
// successful fill or an explicit cancellation; there are no partial
// fills.
type Order struct {
	ID         string
	AccountID  string
	Symbol     string
	Quantity   int64
	LimitPrice market.Cents
	Side       market.Side
	CreatedAt  time.Time
}

// Matches reports whether the order fills at the given market price:
// a BUY fills at or below its limit, a SELL at or above.
func (o Order) Matches(price market.Cents) bool {
	if o.Side == market.SideBuy {
		return price <= o.LimitPrice
	}
	return price >= o.LimitPrice
}

type Store interface {
	Insert(o Order) error
	Get(id string) (Order, error)
	// Delete returns ErrOrderNotFound when the order is already gone;
	// the matching loop treats that as a concurrent cancellation, not a
	// failure.
	Delete(id string) error
	// List returns a point-in-time snapshot of all pending orders.
	List() ([]Order, error)
	// ListByAccount returns the account's pending orders, newest first.
	ListByAccount(accountID string) ([]Order, error)
	Reset() error
}
