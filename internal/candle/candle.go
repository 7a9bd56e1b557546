// Package candle implements one-minute candle ingestion, jump-fixing,
// multi-timeframe aggregation, and the bounded in-memory candle store
// used by the simulator and strategies.
package candle

import (
	"time"

	"github.com/shopspring/decimal"
)

// Candle is a single OHLCV bar. Timestamp marks the bar's open time,
// truncated to the minute.
type Candle struct {
	Timestamp time.Time
	Open      decimal.Decimal
	High      decimal.Decimal
	Low       decimal.Decimal
	Close     decimal.Decimal
	Volume    decimal.Decimal
}

// Includes reports whether price falls within the candle's high/low
// range, used by the matching engine to decide whether a limit or stop
// order could have executed during this bar.
func (c Candle) Includes(price decimal.Decimal) bool {
	return price.GreaterThanOrEqual(c.Low) && price.LessThanOrEqual(c.High)
}

// MinuteOfDay returns the UTC minute-of-day (0..1439) for the candle's
// timestamp, the unit the CTF bucket-boundary math operates in.
func (c Candle) MinuteOfDay() int {
	return c.Timestamp.Hour()*60 + c.Timestamp.Minute()
}
