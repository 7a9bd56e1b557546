package marketdata

import (
	"context"
	"time"

	"github.com/constantine-labs/backtest/internal/candle"
	"github.com/constantine-labs/backtest/internal/engineerr"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// PostgresRepository is a CandleRepository backed by a candles table,
// keyed on (exchange, symbol, timestamp).
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository wraps an already-connected pool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// Load returns every candle for (exchange, symbol) in [start, finish),
// ordered ascending by timestamp.
func (r *PostgresRepository) Load(ctx context.Context, exchange, symbol string, start, finish time.Time) ([]candle.Candle, error) {
	rows, err := r.pool.Query(ctx, `
		select ts, open, high, low, close, volume
		from candles
		where exchange = $1 and symbol = $2 and ts >= $3 and ts < $4
		order by ts asc
	`, exchange, symbol, start, finish)
	if err != nil {
		return nil, engineerr.New(engineerr.OpLoadCandles, symbol, err)
	}
	defer rows.Close()

	var out []candle.Candle
	for rows.Next() {
		var c candle.Candle
		var open, high, low, close, volume string
		if err := rows.Scan(&c.Timestamp, &open, &high, &low, &close, &volume); err != nil {
			return nil, engineerr.New(engineerr.OpLoadCandles, symbol, err)
		}
		c.Open, err = decimal.NewFromString(open)
		if err != nil {
			return nil, engineerr.New(engineerr.OpLoadCandles, symbol, err)
		}
		c.High, err = decimal.NewFromString(high)
		if err != nil {
			return nil, engineerr.New(engineerr.OpLoadCandles, symbol, err)
		}
		c.Low, err = decimal.NewFromString(low)
		if err != nil {
			return nil, engineerr.New(engineerr.OpLoadCandles, symbol, err)
		}
		c.Close, err = decimal.NewFromString(close)
		if err != nil {
			return nil, engineerr.New(engineerr.OpLoadCandles, symbol, err)
		}
		c.Volume, err = decimal.NewFromString(volume)
		if err != nil {
			return nil, engineerr.New(engineerr.OpLoadCandles, symbol, err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, engineerr.New(engineerr.OpLoadCandles, symbol, err)
	}
	return out, nil
}

// Store upserts candles for (exchange, symbol), overwriting any
// existing row at the same timestamp.
func (r *PostgresRepository) Store(ctx context.Context, exchange, symbol string, candles []candle.Candle) error {
	batch := &pgx.Batch{}
	for _, c := range candles {
		batch.Queue(`
			insert into candles (exchange, symbol, ts, open, high, low, close, volume)
			values ($1, $2, $3, $4, $5, $6, $7, $8)
			on conflict (exchange, symbol, ts) do update set
				open = excluded.open, high = excluded.high, low = excluded.low,
				close = excluded.close, volume = excluded.volume
		`, exchange, symbol, c.Timestamp, c.Open.String(), c.High.String(), c.Low.String(), c.Close.String(), c.Volume.String())
	}

	results := r.pool.SendBatch(ctx, batch)
	defer results.Close()
	for range candles {
		if _, err := results.Exec(); err != nil {
			return engineerr.New(engineerr.OpStoreCandles, symbol, err)
		}
	}
	return nil
}
