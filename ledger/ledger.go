package ledger

import (
	"fmt"
	"sync"
	"time"

	"github.com/rustyeddy/stocksim/market"
)

// Ledger serializes every mutation of one account behind a per-account
// mutex, so a sufficiency check and the write it guards can never be
// interleaved with another writer. Operations on different accounts
// run independently.
type Ledger struct {
	store Store

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func New(store Store) *Ledger {
	return &Ledger{
		store: store,
		locks: make(map[string]*sync.Mutex),
	}
}

func (l *Ledger) lockFor(accountID string) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()

	m, ok := l.locks[accountID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[accountID] = m
	}
	return m
}

func (l *Ledger) CreateAccount(id, username string, balance market.Cents) (Account, error) {
	if _, err := l.store.GetAccount(id); err == nil {
		return Account{}, fmt.Errorf("create account %q: %w", id, ErrAccountExists)
	}

	acct := Account{
		ID:        id,
		Username:  username,
		Balance:   balance,
		CreatedAt: time.Now().UTC(),
	}
	if err := l.store.SaveAccount(acct); err != nil {
		return Account{}, fmt.Errorf("create account %q: %w", id, err)
	}
	return acct, nil
}

func (l *Ledger) Account(id string) (Account, error) {
	return l.store.GetAccount(id)
}

func (l *Ledger) Accounts() ([]Account, error) {
	return l.store.ListAccounts()
}

func (l *Ledger) Holdings(accountID string) ([]Holding, error) {
	return l.store.ListHoldings(accountID)
}

func (l *Ledger) Holding(accountID, symbol string) (Holding, bool, error) {
	return l.store.GetHolding(accountID, symbol)
}

// Credit adds amount to the account balance. There is no upper bound.
func (l *Ledger) Credit(accountID string, amount market.Cents) (Account, error) {
	m := l.lockFor(accountID)
	m.Lock()
	defer m.Unlock()
	return l.creditLocked(accountID, amount)
}

// Debit removes amount from the balance, failing with
// ErrInsufficientFunds when the balance does not cover it.
func (l *Ledger) Debit(accountID string, amount market.Cents) (Account, error) {
	m := l.lockFor(accountID)
	m.Lock()
	defer m.Unlock()
	return l.debitLocked(accountID, amount)
}

// AdjustHoldingOnBuy folds qty shares at price into the position,
// recomputing the weighted-average cost basis.
func (l *Ledger) AdjustHoldingOnBuy(accountID, symbol string, qty int64, price market.Cents) (Holding, error) {
	m := l.lockFor(accountID)
	m.Lock()
	defer m.Unlock()
	return l.buyHoldingLocked(accountID, symbol, qty, price)
}

// AdjustHoldingOnSell removes qty shares, books the realized profit
// against the average cost, and deletes the record at quantity zero.
// The average cost of the remainder is unchanged.
func (l *Ledger) AdjustHoldingOnSell(accountID, symbol string, qty int64, sellPrice market.Cents) (market.Cents, error) {
	m := l.lockFor(accountID)
	m.Lock()
	defer m.Unlock()
	_, realized, err := l.sellLocked(accountID, symbol, qty, sellPrice, 0)
	return realized, err
}

// Buy debits cost and adjusts the holding in one critical section, so
// the two writes are atomic relative to every other operation on the
// same account.
func (l *Ledger) Buy(accountID, symbol string, qty int64, price market.Cents) (Account, error) {
	if err := validateTrade(symbol, qty, price); err != nil {
		return Account{}, err
	}

	m := l.lockFor(accountID)
	m.Lock()
	defer m.Unlock()

	acct, err := l.debitLocked(accountID, price*qty)
	if err != nil {
		return Account{}, err
	}
	if _, err := l.buyHoldingLocked(accountID, symbol, qty, price); err != nil {
		// Roll the debit back so a store failure leaves no partial state.
		if _, cerr := l.creditLocked(accountID, price*qty); cerr != nil {
			return Account{}, fmt.Errorf("buy %s: %v (rollback failed: %w)", symbol, err, cerr)
		}
		return Account{}, err
	}
	return acct, nil
}

// Sell validates coverage, books realized profit and credits the
// proceeds in one critical section. It returns the updated account and
// the realized profit of this sale.
func (l *Ledger) Sell(accountID, symbol string, qty int64, price market.Cents) (Account, market.Cents, error) {
	if err := validateTrade(symbol, qty, price); err != nil {
		return Account{}, 0, err
	}

	m := l.lockFor(accountID)
	m.Lock()
	defer m.Unlock()

	return l.sellLocked(accountID, symbol, qty, price, price*qty)
}

func (l *Ledger) creditLocked(accountID string, amount market.Cents) (Account, error) {
	if amount < 0 {
		return Account{}, fmt.Errorf("credit: negative amount %d", amount)
	}
	acct, err := l.store.GetAccount(accountID)
	if err != nil {
		return Account{}, err
	}
	acct.Balance += amount
	if err := l.store.SaveAccount(acct); err != nil {
		return Account{}, fmt.Errorf("credit %q: %w", accountID, err)
	}
	return acct, nil
}

func (l *Ledger) debitLocked(accountID string, amount market.Cents) (Account, error) {
	if amount < 0 {
		return Account{}, fmt.Errorf("debit: negative amount %d", amount)
	}
	acct, err := l.store.GetAccount(accountID)
	if err != nil {
		return Account{}, err
	}
	if acct.Balance < amount {
		return Account{}, fmt.Errorf("debit %s from %q: %w",
			market.FormatCents(amount), accountID, ErrInsufficientFunds)
	}
	acct.Balance -= amount
	if err := l.store.SaveAccount(acct); err != nil {
		return Account{}, fmt.Errorf("debit %q: %w", accountID, err)
	}
	return acct, nil
}

func (l *Ledger) buyHoldingLocked(accountID, symbol string, qty int64, price market.Cents) (Holding, error) {
	h, ok, err := l.store.GetHolding(accountID, symbol)
	if err != nil {
		return Holding{}, err
	}

	if !ok {
		h = Holding{
			AccountID: accountID,
			Symbol:    symbol,
			Quantity:  qty,
			AvgCost:   price,
		}
	} else {
		total := h.Quantity + qty
		// Weighted-average cost basis, rounded to the nearest cent.
		num := h.AvgCost*h.Quantity + price*qty
		h.AvgCost = (num + total/2) / total
		h.Quantity = total
	}

	if err := l.store.SaveHolding(h); err != nil {
		return Holding{}, fmt.Errorf("save holding %s/%s: %w", accountID, symbol, err)
	}
	return h, nil
}

// sellLocked books realized profit and proceeds into the account in a
// single write, then updates the holding. The account write goes
// first: if it fails nothing was written, and if the holding write
// fails the account is restored to its prior state, so a failed or
// retried sell never leaves partial state behind.
func (l *Ledger) sellLocked(accountID, symbol string, qty int64, sellPrice, proceeds market.Cents) (Account, market.Cents, error) {
	h, ok, err := l.store.GetHolding(accountID, symbol)
	if err != nil {
		return Account{}, 0, err
	}
	if !ok || h.Quantity < qty {
		return Account{}, 0, fmt.Errorf("sell %d %s from %q: %w", qty, symbol, accountID, ErrInsufficientHoldings)
	}

	realized := (sellPrice - h.AvgCost) * qty

	prev, err := l.store.GetAccount(accountID)
	if err != nil {
		return Account{}, 0, err
	}
	acct := prev
	acct.RealizedProfit += realized
	acct.Balance += proceeds
	if err := l.store.SaveAccount(acct); err != nil {
		return Account{}, 0, fmt.Errorf("save account %q: %w", accountID, err)
	}

	h.Quantity -= qty
	if h.Quantity == 0 {
		err = l.store.DeleteHolding(accountID, symbol)
	} else {
		err = l.store.SaveHolding(h)
	}
	if err != nil {
		if rerr := l.store.SaveAccount(prev); rerr != nil {
			return Account{}, 0, fmt.Errorf("sell %s: %v (rollback failed: %w)", symbol, err, rerr)
		}
		return Account{}, 0, fmt.Errorf("save holding %s/%s: %w", accountID, symbol, err)
	}
	return acct, realized, nil
}

// Reset restores every account to startingBalance and drops all
// holdings. Administrative use only.
func (l *Ledger) Reset(startingBalance market.Cents) error {
	return l.store.Reset(startingBalance)
}

func validateTrade(symbol string, qty int64, price market.Cents) error {
	if symbol == "" {
		return market.ErrUnknownSymbol
	}
	if qty <= 0 {
		return fmt.Errorf("quantity must be positive, got %d", qty)
	}
	if price <= 0 {
		return fmt.Errorf("price must be positive, got %d", price)
	}
	return nil
}
