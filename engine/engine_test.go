package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/rustyeddy/stocksim/book"
	"github.com/rustyeddy/stocksim/journal"
	"github.com/rustyeddy/stocksim/ledger"
	"github.com/rustyeddy/stocksim/market"
)

type testRig struct {
	engine  *Engine
	ledger  *ledger.Ledger
	prices  *market.CandleStore
	book    *book.MemoryStore
	journal *journal.Memory
}

func newTestRig(t *testing.T, balance float64) *testRig {
	t.Helper()

	l := ledger.New(ledger.NewMemoryStore())
	if _, err := l.CreateAccount("acct-1", "alice", market.FromFloat(balance)); err != nil {
		t.Fatalf("create account: %v", err)
	}

	prices := market.NewCandleStore()
	b := book.NewMemoryStore()
	j := journal.NewMemory()

	return &testRig{
		engine:  New(l, prices, b, j, zap.NewNop()),
		ledger:  l,
		prices:  prices,
		book:    b,
		journal: j,
	}
}

func (r *testRig) setPrice(t *testing.T, symbol string, close float64) {
	t.Helper()
	c := market.Candle{
		Symbol: symbol,
		Time:   time.Now().UTC(),
		Open:   market.FromFloat(close),
		High:   market.FromFloat(close),
		Low:    market.FromFloat(close),
		Close:  market.FromFloat(close),
		Volume: 1000,
	}
	if err := r.prices.Append(symbol, c); err != nil {
		t.Fatalf("append price: %v", err)
	}
}

func TestExecuteMarketBuy(t *testing.T) {
	r := newTestRig(t, 10000)
	r.setPrice(t, "AAPL", 50.00)

	fill, err := r.engine.ExecuteMarket(context.Background(), "acct-1", "AAPL", 10, market.SideBuy)
	if err != nil {
		t.Fatalf("buy: %v", err)
	}
	if fill.Balance != market.FromFloat(9500) {
		t.Fatalf("balance: got %s want 9500.00", market.FormatCents(fill.Balance))
	}
	if fill.Price != market.FromFloat(50) {
		t.Fatalf("fill price: got %s", market.FormatCents(fill.Price))
	}

	h, ok, _ := r.ledger.Holding("acct-1", "AAPL")
	if !ok || h.Quantity != 10 || h.AvgCost != market.FromFloat(50) {
		t.Fatalf("holding: %+v ok=%v", h, ok)
	}

	txs, _ := r.journal.ListByAccount("acct-1")
	if len(txs) != 1 {
		t.Fatalf("transactions: got %d want 1", len(txs))
	}
	if txs[0].Kind != market.OrderMarket || txs[0].Side != market.SideBuy {
		t.Fatalf("transaction tagged %s/%s", txs[0].Kind, txs[0].Side)
	}
}

func TestExecuteMarketSellRealizesProfit(t *testing.T) {
	r := newTestRig(t, 10000)
	r.setPrice(t, "AAPL", 50.00)

	if _, err := r.engine.ExecuteMarket(context.Background(), "acct-1", "AAPL", 10, market.SideBuy); err != nil {
		t.Fatalf("buy: %v", err)
	}

	r.setPrice(t, "AAPL", 60.00)
	fill, err := r.engine.ExecuteMarket(context.Background(), "acct-1", "AAPL", 5, market.SideSell)
	if err != nil {
		t.Fatalf("sell: %v", err)
	}

	if fill.Balance != market.FromFloat(9800) {
		t.Fatalf("balance: got %s want 9800.00", market.FormatCents(fill.Balance))
	}
	if fill.Realized != market.FromFloat(50) {
		t.Fatalf("realized: got %s want 50.00", market.FormatCents(fill.Realized))
	}
}

func TestExecuteMarketNoPriceData(t *testing.T) {
	r := newTestRig(t, 10000)

	_, err := r.engine.ExecuteMarket(context.Background(), "acct-1", "AAPL", 1, market.SideBuy)
	if !errors.Is(err, market.ErrNoPriceData) {
		t.Fatalf("want ErrNoPriceData, got %v", err)
	}
}

func TestExecuteMarketValidation(t *testing.T) {
	r := newTestRig(t, 10000)
	r.setPrice(t, "AAPL", 50.00)

	if _, err := r.engine.ExecuteMarket(context.Background(), "acct-1", "AAPL", 0, market.SideBuy); !errors.Is(err, ErrInvalidOrder) {
		t.Fatalf("zero quantity: want ErrInvalidOrder, got %v", err)
	}
	if _, err := r.engine.ExecuteMarket(context.Background(), "acct-1", "AAPL", 1, market.Side("HOLD")); !errors.Is(err, ErrInvalidOrder) {
		t.Fatalf("bad side: want ErrInvalidOrder, got %v", err)
	}
}

func TestExecuteMarketInsufficientFunds(t *testing.T) {
	r := newTestRig(t, 100)
	r.setPrice(t, "AAPL", 50.00)

	_, err := r.engine.ExecuteMarket(context.Background(), "acct-1", "AAPL", 3, market.SideBuy)
	if !errors.Is(err, ledger.ErrInsufficientFunds) {
		t.Fatalf("want ErrInsufficientFunds, got %v", err)
	}

	// Failed trades leave no transaction.
	txs, _ := r.journal.ListByAccount("acct-1")
	if len(txs) != 0 {
		t.Fatalf("transactions after failed buy: %d", len(txs))
	}
}

func TestPlaceLimitSellRequiresCoverage(t *testing.T) {
	r := newTestRig(t, 10000)
	r.setPrice(t, "AAPL", 50.00)

	_, _, err := r.engine.PlaceLimit(context.Background(), "acct-1", "AAPL", 5, market.FromFloat(60), market.SideSell)
	if !errors.Is(err, ledger.ErrInsufficientHoldings) {
		t.Fatalf("uncovered limit sell: want ErrInsufficientHoldings, got %v", err)
	}

	if _, err := r.engine.ExecuteMarket(context.Background(), "acct-1", "AAPL", 5, market.SideBuy); err != nil {
		t.Fatalf("buy: %v", err)
	}

	order, balance, err := r.engine.PlaceLimit(context.Background(), "acct-1", "AAPL", 5, market.FromFloat(60), market.SideSell)
	if err != nil {
		t.Fatalf("covered limit sell: %v", err)
	}
	if order.ID == "" {
		t.Fatal("order id missing")
	}
	if balance != market.FromFloat(9750) {
		t.Fatalf("balance: got %s want 9750.00", market.FormatCents(balance))
	}

	// Placing a limit order touches no ledger state.
	acct, _ := r.ledger.Account("acct-1")
	if acct.Balance != market.FromFloat(9750) {
		t.Fatalf("ledger touched by limit placement: %s", market.FormatCents(acct.Balance))
	}
}

func TestPlaceLimitBuyNeedsNoFunds(t *testing.T) {
	r := newTestRig(t, 1)

	// Buy limits are not funds-checked at creation; funding is
	// validated at fill time.
	order, _, err := r.engine.PlaceLimit(context.Background(), "acct-1", "AAPL", 100, market.FromFloat(50), market.SideBuy)
	if err != nil {
		t.Fatalf("limit buy: %v", err)
	}

	if _, err := r.book.Get(order.ID); err != nil {
		t.Fatalf("order not in book: %v", err)
	}
}

func TestCancelLimit(t *testing.T) {
	r := newTestRig(t, 10000)

	order, _, err := r.engine.PlaceLimit(context.Background(), "acct-1", "AAPL", 1, market.FromFloat(10), market.SideBuy)
	if err != nil {
		t.Fatalf("place: %v", err)
	}

	if err := r.engine.CancelLimit(context.Background(), "acct-2", order.ID); !errors.Is(err, book.ErrOrderNotFound) {
		t.Fatalf("foreign cancel: want ErrOrderNotFound, got %v", err)
	}
	if err := r.engine.CancelLimit(context.Background(), "acct-1", order.ID); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if err := r.engine.CancelLimit(context.Background(), "acct-1", order.ID); !errors.Is(err, book.ErrOrderNotFound) {
		t.Fatalf("double cancel: want ErrOrderNotFound, got %v", err)
	}
}

// deadJournal rejects every record. The trade must still succeed: the
// ledger commit already happened, and reporting failure would invite a
// retry that executes it twice.
type deadJournal struct {
	journal.Journal
}

func (deadJournal) Record(journal.Transaction) error {
	return errors.New("journal unavailable")
}

func TestExecuteMarketSucceedsWhenJournalFails(t *testing.T) {
	r := newTestRig(t, 10000)
	r.setPrice(t, "AAPL", 50.00)

	eng := New(r.ledger, r.prices, r.book, deadJournal{Journal: r.journal}, zap.NewNop())

	fill, err := eng.ExecuteMarket(context.Background(), "acct-1", "AAPL", 10, market.SideBuy)
	if err != nil {
		t.Fatalf("buy with dead journal: %v", err)
	}
	if fill.Balance != market.FromFloat(9500) {
		t.Fatalf("balance: got %s want 9500.00", market.FormatCents(fill.Balance))
	}

	// The ledger holds the trade even though the record was lost.
	h, ok, _ := r.ledger.Holding("acct-1", "AAPL")
	if !ok || h.Quantity != 10 {
		t.Fatalf("holding: %+v ok=%v", h, ok)
	}
	if txs, _ := r.journal.ListByAccount("acct-1"); len(txs) != 0 {
		t.Fatalf("record slipped through the dead journal: %d", len(txs))
	}
}

func TestOrderHistoryMergesExecutedAndPending(t *testing.T) {
	r := newTestRig(t, 10000)
	r.setPrice(t, "AAPL", 50.00)

	if _, err := r.engine.ExecuteMarket(context.Background(), "acct-1", "AAPL", 2, market.SideBuy); err != nil {
		t.Fatalf("buy: %v", err)
	}
	if _, _, err := r.engine.PlaceLimit(context.Background(), "acct-1", "AAPL", 1, market.FromFloat(40), market.SideBuy); err != nil {
		t.Fatalf("place: %v", err)
	}

	hist, err := r.engine.OrderHistory("acct-1")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(hist) != 2 {
		t.Fatalf("history rows: got %d want 2", len(hist))
	}

	statuses := map[string]int{}
	for _, h := range hist {
		statuses[h.Status]++
	}
	if statuses[StatusExecuted] != 1 || statuses[StatusPending] != 1 {
		t.Fatalf("statuses: %v", statuses)
	}
}
