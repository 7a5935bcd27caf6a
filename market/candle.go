package market

import (
	"errors"
	"fmt"
	"math"
	"time"
)

var (
	ErrNoPriceData   = errors.New("no price data")
	ErrUnknownSymbol = errors.New("unknown symbol")
)

// Cents is a monetary amount in hundredths of the account currency.
// Balances, prices and cost bases are carried as exact integer cents;
// floats appear only at the display boundary.
type Cents = int64

const Scale float64 = 100.0

func ToFloat(c Cents) float64 {
	return float64(c) / Scale
}

func FromFloat(x float64) Cents {
	return Cents(math.Round(x * Scale))
}

func FormatCents(c Cents) string {
	sign := ""
	if c < 0 {
		sign = "-"
		c = -c
	}
	return fmt.Sprintf("%s%d.%02d", sign, c/100, c%100)
}

// Candle is one OHLCV sample for a symbol.
type Candle struct {
	Symbol string    `json:"symbol,omitempty"`
	Time   time.Time `json:"time"`
	Open   Cents     `json:"open"`
	High   Cents     `json:"high"`
	Low    Cents     `json:"low"`
	Close  Cents     `json:"close"`
	Volume int64     `json:"volume"`
}
