// Package engine executes trades against the ledger and the price
// feed. Every completed trade, user-initiated or limit-triggered,
// funnels through ExecuteMarket so the ledger and the transaction log
// have a single consistency path.
package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/rustyeddy/stocksim/book"
	"github.com/rustyeddy/stocksim/journal"
	"github.com/rustyeddy/stocksim/ledger"
	"github.com/rustyeddy/stocksim/market"
	"github.com/rustyeddy/stocksim/pkg/id"
)

// maxConflictRetries bounds internal retries when a store reports
// write contention before the error is surfaced to the caller.
const maxConflictRetries = 3

var ErrInvalidOrder = errors.New("invalid order")

type Engine struct {
	ledger  *ledger.Ledger
	prices  market.History
	book    book.Store
	journal journal.Journal
	log     *zap.Logger
}

func New(l *ledger.Ledger, prices market.History, b book.Store, j journal.Journal, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{
		ledger:  l,
		prices:  prices,
		book:    b,
		journal: j,
		log:     log,
	}
}

// Fill is the result of an executed trade.
type Fill struct {
	Balance  market.Cents
	Symbol   string
	Quantity int64
	Price    market.Cents
	Realized market.Cents // sells only
}

// ExecuteMarket fills qty of symbol at the latest close price.
func (e *Engine) ExecuteMarket(ctx context.Context, accountID, symbol string, qty int64, side market.Side) (Fill, error) {
	return e.execute(ctx, accountID, symbol, qty, side, market.OrderMarket)
}

func (e *Engine) execute(ctx context.Context, accountID, symbol string, qty int64, side market.Side, kind market.OrderKind) (Fill, error) {
	_ = ctx

	if !side.Valid() {
		return Fill{}, fmt.Errorf("%w: side %q", ErrInvalidOrder, side)
	}
	if qty <= 0 {
		return Fill{}, fmt.Errorf("%w: quantity %d", ErrInvalidOrder, qty)
	}

	latest, err := e.prices.Latest(symbol)
	if err != nil {
		return Fill{}, err
	}
	price := latest.Close

	var (
		acct     ledger.Account
		realized market.Cents
	)
	err = retryConflict(func() error {
		var err error
		if side == market.SideBuy {
			acct, err = e.ledger.Buy(accountID, symbol, qty, price)
		} else {
			acct, realized, err = e.ledger.Sell(accountID, symbol, qty, price)
		}
		return err
	})
	if err != nil {
		return Fill{}, err
	}

	tx := journal.Transaction{
		ID:        id.Transaction(),
		AccountID: accountID,
		Symbol:    symbol,
		Quantity:  qty,
		Price:     price,
		Kind:      kind,
		Side:      side,
		Timestamp: time.Now().UTC(),
	}
	// The ledger mutation is already committed. Reporting failure here
	// would invite the caller to retry and execute the trade twice, so
	// a journal failure costs the record, never the trade.
	if err := e.journal.Record(tx); err != nil {
		e.log.Error("transaction record lost, trade applied",
			zap.String("transaction", tx.ID),
			zap.String("account", accountID),
			zap.String("symbol", symbol),
			zap.Error(err))
	}

	e.log.Info("trade executed",
		zap.String("account", accountID),
		zap.String("symbol", symbol),
		zap.String("side", string(side)),
		zap.String("kind", string(kind)),
		zap.Int64("quantity", qty),
		zap.String("price", market.FormatCents(price)),
	)

	return Fill{
		Balance:  acct.Balance,
		Symbol:   symbol,
		Quantity: qty,
		Price:    price,
		Realized: realized,
	}, nil
}

// PlaceLimit creates a pending limit order. A sell order must be
// covered by current holdings at creation time; the shares are not
// reserved, so a later market sell can still race the fill.
func (e *Engine) PlaceLimit(ctx context.Context, accountID, symbol string, qty int64, limitPrice market.Cents, side market.Side) (book.Order, market.Cents, error) {
	_ = ctx

	if !side.Valid() {
		return book.Order{}, 0, fmt.Errorf("%w: side %q", ErrInvalidOrder, side)
	}
	if qty <= 0 {
		return book.Order{}, 0, fmt.Errorf("%w: quantity %d", ErrInvalidOrder, qty)
	}
	if limitPrice <= 0 {
		return book.Order{}, 0, fmt.Errorf("%w: limit price %s", ErrInvalidOrder, market.FormatCents(limitPrice))
	}

	acct, err := e.ledger.Account(accountID)
	if err != nil {
		return book.Order{}, 0, err
	}

	if side == market.SideSell {
		h, ok, err := e.ledger.Holding(accountID, symbol)
		if err != nil {
			return book.Order{}, 0, err
		}
		if !ok || h.Quantity < qty {
			return book.Order{}, 0, fmt.Errorf("limit sell %d %s: %w", qty, symbol, ledger.ErrInsufficientHoldings)
		}
	}

	order := book.Order{
		ID:         id.Order(),
		AccountID:  accountID,
		Symbol:     symbol,
		Quantity:   qty,
		LimitPrice: limitPrice,
		Side:       side,
		CreatedAt:  time.Now().UTC(),
	}
	if err := e.book.Insert(order); err != nil {
		return book.Order{}, 0, fmt.Errorf("insert limit order: %w", err)
	}

	e.log.Info("limit order placed",
		zap.String("order", order.ID),
		zap.String("account", accountID),
		zap.String("symbol", symbol),
		zap.String("side", string(side)),
		zap.Int64("quantity", qty),
		zap.String("limit", market.FormatCents(limitPrice)),
	)
	return order, acct.Balance, nil
}

// CancelLimit removes a pending order. Only the owning account may
// cancel it.
func (e *Engine) CancelLimit(ctx context.Context, accountID, orderID string) error {
	_ = ctx

	o, err := e.book.Get(orderID)
	if err != nil {
		return err
	}
	if o.AccountID != accountID {
		return fmt.Errorf("cancel order %q: %w", orderID, book.ErrOrderNotFound)
	}
	return e.book.Delete(orderID)
}

func retryConflict(fn func() error) error {
	var err error
	for i := 0; i < maxConflictRetries; i++ {
		err = fn()
		if !errors.Is(err, ledger.ErrConflict) {
			return err
		}
	}
	return err
}
