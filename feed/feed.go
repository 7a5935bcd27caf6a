// Package feed replays historical candles from a CSV dataset as a
// synthetic price feed. Replay is deterministic and cyclic: each
// symbol has its own cursor and wraps to the start when the data runs
// out.
package feed

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/rustyeddy/stocksim/market"
)

// Generator owns the per-symbol replay cursors. It is the single
// writer of the price feed store.
type Generator struct {
	mu      sync.Mutex
	candles map[string][]market.Candle
	cursors map[string]int
	log     *zap.Logger
}

// LoadCSV reads a dataset with a header row naming at least
// ticker, date, open, high, low, close and volume, in any column
// order. Bad rows are skipped.
func LoadCSV(path string, log *zap.Logger) (*Generator, error) {
	if log == nil {
		log = zap.NewNop()
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read header %s: %w", path, err)
	}
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, name := range []string{"ticker", "date", "open", "high", "low", "close", "volume"} {
		if _, ok := col[name]; !ok {
			return nil, fmt.Errorf("%s: missing column %q", path, name)
		}
	}

	g := &Generator{
		candles: make(map[string][]market.Candle),
		cursors: make(map[string]int),
		log:     log,
	}

	var badRows int
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		c, sym, ok := parseRow(row, col)
		if !ok {
			badRows++
			continue
		}
		g.candles[sym] = append(g.candles[sym], c)
	}
	if badRows > 0 {
		log.Warn("feed: skipped unparseable rows", zap.Int("rows", badRows), zap.String("path", path))
	}
	if len(g.candles) == 0 {
		return nil, fmt.Errorf("%s: no usable candles", path)
	}
	return g, nil
}

func parseRow(row []string, col map[string]int) (market.Candle, string, bool) {
	get := func(name string) string {
		i := col[name]
		if i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	sym := get("ticker")
	if sym == "" {
		return market.Candle{}, "", false
	}

	ts, err := parseDate(get("date"))
	if err != nil {
		return market.Candle{}, "", false
	}

	prices := make([]market.Cents, 4)
	for i, name := range []string{"open", "high", "low", "close"} {
		v, err := strconv.ParseFloat(get(name), 64)
		if err != nil {
			return market.Candle{}, "", false
		}
		prices[i] = market.FromFloat(v)
	}

	vol, err := strconv.ParseFloat(get("volume"), 64)
	if err != nil {
		return market.Candle{}, "", false
	}

	return market.Candle{
		Symbol: sym,
		Time:   ts,
		Open:   prices[0],
		High:   prices[1],
		Low:    prices[2],
		Close:  prices[3],
		Volume: int64(vol),
	}, sym, true
}

func parseDate(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("bad date %q", s)
}

// Symbols lists every symbol in the dataset, sorted.
func (g *Generator) Symbols() []string {
	g.mu.Lock()
	defer g.mu.Unlock()

	out := make([]string, 0, len(g.candles))
	for sym := range g.candles {
		out = append(out, sym)
	}
	sort.Strings(out)
	return out
}

// Next returns the symbol's next candle and advances its cursor,
// wrapping at the end of the dataset.
func (g *Generator) Next(symbol string) (market.Candle, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	hist, ok := g.candles[symbol]
	if !ok || len(hist) == 0 {
		return market.Candle{}, fmt.Errorf("next %q: %w", symbol, market.ErrNoPriceData)
	}

	idx := g.cursors[symbol]
	if idx >= len(hist) {
		idx = 0
	}
	g.cursors[symbol] = idx + 1
	return hist[idx], nil
}

// Advance appends the next candle of each requested symbol to the
// store. Symbols with no data are skipped and retried next cycle.
func (g *Generator) Advance(store market.History, symbols []string) {
	for _, sym := range symbols {
		c, err := g.Next(sym)
		if err != nil {
			g.log.Debug("feed: no data for symbol", zap.String("symbol", sym))
			continue
		}
		if err := store.Append(sym, c); err != nil {
			g.log.Warn("feed: append failed", zap.String("symbol", sym), zap.Error(err))
		}
	}
}
