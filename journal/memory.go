package journal

import "sync"

// Memory is an in-process journal for tests and ephemeral runs.
type Memory struct {
	mu  sync.RWMutex
	txs []Transaction
}

func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Record(tx Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.txs = append(m.txs, tx)
	return nil
}

func (m *Memory) ListByAccount(accountID string) ([]Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []Transaction
	for i := len(m.txs) - 1; i >= 0; i-- {
		if m.txs[i].AccountID == accountID {
			out = append(out, m.txs[i])
		}
	}
	return out, nil
}

func (m *Memory) Reset() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.txs = nil
	return nil
}

func (m *Memory) Close() error {
	return nil
}
