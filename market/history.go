package market

import (
	"fmt"
	"sync"
)

// MaxCandles bounds the per-symbol history. Appending beyond the cap
// evicts the oldest candle.
const MaxCandles = 1000

// History is the price feed store contract. A single generator writes
// each symbol; readers may be concurrent and must never observe a
// partially written candle.
type History interface {
	Append(symbol string, c Candle) error
	Latest(symbol string) (Candle, error)
	Candles(symbol string) ([]Candle, error)
	Symbols() ([]string, error)
	Reset() error
}

// CandleStore is the in-memory History backed by an RWMutex map.
type CandleStore struct {
	mu      sync.RWMutex
	candles map[string][]Candle
}

func NewCandleStore() *CandleStore {
	return &CandleStore{candles: make(map[string][]Candle)}
}

func (s *CandleStore) Append(symbol string, c Candle) error {
	if symbol == "" {
		return ErrUnknownSymbol
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	hist := append(s.candles[symbol], c)
	if len(hist) > MaxCandles {
		hist = hist[len(hist)-MaxCandles:]
	}
	s.candles[symbol] = hist
	return nil
}

func (s *CandleStore) Latest(symbol string) (Candle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	hist, ok := s.candles[symbol]
	if !ok || len(hist) == 0 {
		return Candle{}, fmt.Errorf("latest %q: %w", symbol, ErrNoPriceData)
	}
	return hist[len(hist)-1], nil
}

// Candles returns a copy of the symbol's history, oldest first.
func (s *CandleStore) Candles(symbol string) ([]Candle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	hist, ok := s.candles[symbol]
	if !ok || len(hist) == 0 {
		return nil, fmt.Errorf("candles %q: %w", symbol, ErrNoPriceData)
	}
	out := make([]Candle, len(hist))
	copy(out, hist)
	return out, nil
}

func (s *CandleStore) Symbols() ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]string, 0, len(s.candles))
	for sym := range s.candles {
		out = append(out, sym)
	}
	return out, nil
}

func (s *CandleStore) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.candles = make(map[string][]Candle)
	return nil
}
