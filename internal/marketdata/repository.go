package marketdata

import (
	"context"
	"time"

	"github.com/constantine-labs/backtest/internal/candle"
)

// CandleRepository is a range-queried persistence store for candles.
// The commands load either from a CSV CandleSource (the default) or,
// with -use-postgres, from the Postgres repository, optionally behind a
// RedisCache; nothing in this module seeds the repository from CSV.
type CandleRepository interface {
	CandleSource
	Store(ctx context.Context, exchange, symbol string, candles []candle.Candle) error
}
