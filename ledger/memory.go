package ledger

import (
	"fmt"
	"sync"

	"github.com/rustyeddy/stocksim/market"
)

// MemoryStore keeps accounts and holdings in maps. It backs tests and
// single-process runs that don't need durability.
type MemoryStore struct {
	mu       sync.RWMutex
	accounts map[string]Account
	holdings map[string]map[string]Holding // account id -> symbol -> holding
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		accounts: make(map[string]Account),
		holdings: make(map[string]map[string]Holding),
	}
}

func (s *MemoryStore) GetAccount(id string) (Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	acct, ok := s.accounts[id]
	if !ok {
		return Account{}, fmt.Errorf("account %q: %w", id, ErrAccountNotFound)
	}
	return acct, nil
}

func (s *MemoryStore) SaveAccount(a Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[a.ID] = a
	return nil
}

func (s *MemoryStore) ListAccounts() ([]Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Account, 0, len(s.accounts))
	for _, a := range s.accounts {
		out = append(out, a)
	}
	return out, nil
}

func (s *MemoryStore) GetHolding(accountID, symbol string) (Holding, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	h, ok := s.holdings[accountID][symbol]
	return h, ok, nil
}

func (s *MemoryStore) SaveHolding(h Holding) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.holdings[h.AccountID] == nil {
		s.holdings[h.AccountID] = make(map[string]Holding)
	}
	s.holdings[h.AccountID][h.Symbol] = h
	return nil
}

func (s *MemoryStore) DeleteHolding(accountID, symbol string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.holdings[accountID], symbol)
	return nil
}

func (s *MemoryStore) ListHoldings(accountID string) ([]Holding, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Holding, 0, len(s.holdings[accountID]))
	for _, h := range s.holdings[accountID] {
		out = append(out, h)
	}
	return out, nil
}

func (s *MemoryStore) Reset(startingBalance market.Cents) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.holdings = make(map[string]map[string]Holding)
	for id, acct := range s.accounts {
		acct.Balance = startingBalance
		acct.RealizedProfit = 0
		s.accounts[id] = acct
	}
	return nil
}
