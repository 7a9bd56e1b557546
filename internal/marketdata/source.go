// Package marketdata provides the historical candle data boundary the
// engine talks to: a CandleSource for one-off bulk loads (CSV files,
// in the one concrete implementation this repository ships), a
// CandleRepository for range-queried persistence (Postgres-backed),
// and a TTL cache in front of both (Redis-backed).
package marketdata

import (
	"context"
	"time"

	"github.com/constantine-labs/backtest/internal/candle"
)

// CandleSource loads a full historical candle series for one
// (exchange, symbol) pair covering [start, finish). It has no
// live-trading surface; internal/optimize.CandleLoader declares the same
// Load method for the optimizer's workers.
type CandleSource interface {
	Load(ctx context.Context, exchange, symbol string, start, finish time.Time) ([]candle.Candle, error)
}
