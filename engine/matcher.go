package engine

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/rustyeddy/stocksim/book"
	"github.com/rustyeddy/stocksim/market"
)

// RunTick evaluates every pending limit order against the latest
// price. A BUY fills when the price is at or below its limit, a SELL
// at or above; fills happen at the feed price, not the limit price.
// Per-order failures are logged and the order stays pending for the
// next tick, so one bad order never halts the sweep.
func (e *Engine) RunTick(ctx context.Context) error {
	orders, err := e.book.List()
	if err != nil {
		return err
	}

	for _, o := range orders {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		e.matchOne(ctx, o)
	}
	return nil
}

func (e *Engine) matchOne(ctx context.Context, o book.Order) {
	latest, err := e.prices.Latest(o.Symbol)
	if err != nil {
		if errors.Is(err, market.ErrNoPriceData) {
			// No feed yet for this symbol; retry next tick.
			return
		}
		e.log.Warn("limit match: price lookup failed",
			zap.String("order", o.ID),
			zap.String("symbol", o.Symbol),
			zap.Error(err))
		return
	}

	if !o.Matches(latest.Close) {
		return
	}

	fill, err := e.execute(ctx, o.AccountID, o.Symbol, o.Quantity, o.Side, market.OrderLimit)
	if err != nil {
		// Holdings or funds can evaporate between creation and match
		// (e.g. a market sell against the same shares). The order stays
		// pending and retries indefinitely unless cancelled.
		e.log.Warn("limit match: execution failed, order stays pending",
			zap.String("order", o.ID),
			zap.String("account", o.AccountID),
			zap.String("symbol", o.Symbol),
			zap.Error(err))
		return
	}

	if err := e.book.Delete(o.ID); err != nil {
		if errors.Is(err, book.ErrOrderNotFound) {
			// Cancelled while we were filling; nothing left to remove.
			return
		}
		e.log.Error("limit match: filled but delete failed",
			zap.String("order", o.ID),
			zap.Error(err))
		return
	}

	e.log.Info("limit order filled",
		zap.String("order", o.ID),
		zap.String("account", o.AccountID),
		zap.String("symbol", o.Symbol),
		zap.String("side", string(o.Side)),
		zap.Int64("quantity", o.Quantity),
		zap.String("limit", market.FormatCents(o.LimitPrice)),
		zap.String("fill", market.FormatCents(fill.Price)),
	)
}
