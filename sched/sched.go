// Package sched drives the two recurring tasks: the limit-order
// matching tick and the feed advance. The feed task re-reads the
// fan-out registry union every cycle, so subscription changes are
// picked up without rebuilding any job state.
package sched

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/rustyeddy/stocksim/engine"
	"github.com/rustyeddy/stocksim/fanout"
	"github.com/rustyeddy/stocksim/feed"
	"github.com/rustyeddy/stocksim/market"
)

type Scheduler struct {
	engine *engine.Engine
	gen    *feed.Generator
	prices market.History
	reg    *fanout.Registry
	fan    *fanout.Fanout

	matchEvery time.Duration
	feedEvery  time.Duration
	log        *zap.Logger
}

func New(e *engine.Engine, gen *feed.Generator, prices market.History, reg *fanout.Registry, fan *fanout.Fanout, matchEvery, feedEvery time.Duration, log *zap.Logger) *Scheduler {
	if log == nil {
		log = zap.NewNop()
	}
	if matchEvery <= 0 {
		matchEvery = time.Second
	}
	if feedEvery <= 0 {
		feedEvery = 40 * time.Second
	}
	return &Scheduler{
		engine:     e,
		gen:        gen,
		prices:     prices,
		reg:        reg,
		fan:        fan,
		matchEvery: matchEvery,
		feedEvery:  feedEvery,
		log:        log,
	}
}

// Run blocks until ctx is cancelled. The feed advances once
// immediately so matching and valuation have prices from the start.
func (s *Scheduler) Run(ctx context.Context) error {
	match := time.NewTicker(s.matchEvery)
	defer match.Stop()
	advance := time.NewTicker(s.feedEvery)
	defer advance.Stop()

	s.advanceFeed()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case <-match.C:
			if err := s.engine.RunTick(ctx); err != nil && ctx.Err() == nil {
				s.log.Error("matching tick failed", zap.Error(err))
			}

		case <-advance.C:
			s.advanceFeed()
		}
	}
}

func (s *Scheduler) advanceFeed() {
	symbols := s.reg.Union()
	if len(symbols) == 0 {
		return
	}
	s.gen.Advance(s.prices, symbols)
	s.fan.Tick()
}
