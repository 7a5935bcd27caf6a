package fanout

import (
	"go.uber.org/zap"

	"github.com/rustyeddy/stocksim/market"
)

// LogPublisher writes updates to the log instead of a transport.
// Useful for headless runs and as the default CLI sink.
type LogPublisher struct {
	log *zap.Logger
}

func NewLogPublisher(log *zap.Logger) *LogPublisher {
	if log == nil {
		log = zap.NewNop()
	}
	return &LogPublisher{log: log}
}

func (p *LogPublisher) Publish(sessionID string, updates map[string]market.Candle) error {
	for sym, c := range updates {
		p.log.Info("tick",
			zap.String("session", sessionID),
			zap.String("symbol", sym),
			zap.String("close", market.FormatCents(c.Close)),
			zap.Int64("volume", c.Volume),
			zap.Time("time", c.Time),
		)
	}
	return nil
}
