// Package fanout tracks which symbols each session watches and
// delivers per-session filtered tick updates. The transport behind
// Publisher is out of scope; delivery is best-effort with no ack.
package fanout

import (
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/rustyeddy/stocksim/market"
)

// Publisher delivers one session's symbol updates.
type Publisher interface {
	Publish(sessionID string, updates map[string]market.Candle) error
}

// Registry maps active sessions to their symbol sets. The union of
// all registered sets is the target the feed generator advances.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]map[string]struct{}
}

func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]map[string]struct{})}
}

// Register replaces the session's symbol set.
func (r *Registry) Register(sessionID string, symbols []string) {
	set := make(map[string]struct{}, len(symbols))
	for _, s := range symbols {
		if s != "" {
			set[s] = struct{}{}
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[sessionID] = set
}

func (r *Registry) Deregister(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, sessionID)
}

// Union lists every symbol watched by at least one session.
func (r *Registry) Union() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]struct{})
	var out []string
	for _, set := range r.sessions {
		for s := range set {
			if _, ok := seen[s]; !ok {
				seen[s] = struct{}{}
				out = append(out, s)
			}
		}
	}
	return out
}

// Snapshot copies the registry for a fan-out cycle; sessions joining
// mid-cycle catch the next one.
func (r *Registry) Snapshot() map[string][]string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string][]string, len(r.sessions))
	for id, set := range r.sessions {
		syms := make([]string, 0, len(set))
		for s := range set {
			syms = append(syms, s)
		}
		out[id] = syms
	}
	return out
}

// Fanout delivers the latest candle of each watched symbol to every
// session, filtered to the session's own set.
type Fanout struct {
	reg    *Registry
	prices market.History
	pub    Publisher
	log    *zap.Logger
}

func New(reg *Registry, prices market.History, pub Publisher, log *zap.Logger) *Fanout {
	if log == nil {
		log = zap.NewNop()
	}
	return &Fanout{reg: reg, prices: prices, pub: pub, log: log}
}

// Tick publishes one round of updates. Publish failures are logged
// and skipped; a dead session never blocks the others.
func (f *Fanout) Tick() {
	sessions := f.reg.Snapshot()

	// Resolve each watched symbol once per cycle.
	latest := make(map[string]market.Candle)
	for _, syms := range sessions {
		for _, sym := range syms {
			if _, ok := latest[sym]; ok {
				continue
			}
			c, err := f.prices.Latest(sym)
			if errors.Is(err, market.ErrNoPriceData) {
				continue
			}
			if err != nil {
				f.log.Warn("fanout: price lookup failed", zap.String("symbol", sym), zap.Error(err))
				continue
			}
			latest[sym] = c
		}
	}

	for sessionID, syms := range sessions {
		updates := make(map[string]market.Candle)
		for _, sym := range syms {
			if c, ok := latest[sym]; ok {
				updates[sym] = c
			}
		}
		if len(updates) == 0 {
			continue
		}
		if err := f.pub.Publish(sessionID, updates); err != nil {
			f.log.Warn("fanout: publish failed",
				zap.String("session", sessionID),
				zap.Error(err))
		}
	}
}
