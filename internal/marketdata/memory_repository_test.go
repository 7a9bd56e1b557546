package marketdata

import (
	"context"
	"testing"
	"time"

	"github.com/constantine-labs/backtest/internal/candle"
	"github.com/constantine-labs/backtest/internal/testutils"
	"github.com/shopspring/decimal"
)

func TestMemoryRepository_StoreAndLoad(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	base := time.Unix(1700000000, 0)

	candles := []candle.Candle{
		{Timestamp: base, Open: decimal.NewFromInt(1), High: decimal.NewFromInt(1), Low: decimal.NewFromInt(1), Close: decimal.NewFromInt(1), Volume: decimal.NewFromInt(1)},
		{Timestamp: base.Add(time.Minute), Open: decimal.NewFromInt(2), High: decimal.NewFromInt(2), Low: decimal.NewFromInt(2), Close: decimal.NewFromInt(2), Volume: decimal.NewFromInt(2)},
	}
	err := repo.Store(ctx, "binance", "BTC-USDT", candles)
	testutils.AssertNoError(t, err, "Store should succeed")

	loaded, err := repo.Load(ctx, "binance", "BTC-USDT", base.Add(-time.Hour), base.Add(time.Hour))
	testutils.AssertNoError(t, err, "Load should succeed")
	testutils.AssertEqual(t, 2, len(loaded), "should load both candles")
}

func TestMemoryRepository_StoreUpsertsByTimestamp(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	base := time.Unix(1700000000, 0)

	first := candle.Candle{Timestamp: base, Open: decimal.NewFromInt(1), High: decimal.NewFromInt(1), Low: decimal.NewFromInt(1), Close: decimal.NewFromInt(1), Volume: decimal.NewFromInt(1)}
	updated := candle.Candle{Timestamp: base, Open: decimal.NewFromInt(9), High: decimal.NewFromInt(9), Low: decimal.NewFromInt(9), Close: decimal.NewFromInt(9), Volume: decimal.NewFromInt(9)}

	testutils.AssertNoError(t, repo.Store(ctx, "binance", "BTC-USDT", []candle.Candle{first}), "first store")
	testutils.AssertNoError(t, repo.Store(ctx, "binance", "BTC-USDT", []candle.Candle{updated}), "second store")

	loaded, err := repo.Load(ctx, "binance", "BTC-USDT", base.Add(-time.Minute), base.Add(time.Minute))
	testutils.AssertNoError(t, err, "Load should succeed")
	testutils.AssertEqual(t, 1, len(loaded), "upsert should not duplicate rows")
	testutils.AssertTrue(t, loaded[0].Open.Equal(decimal.NewFromInt(9)), "second store should overwrite the first")
}

func TestMemoryRepository_LoadUnknownPair(t *testing.T) {
	repo := NewMemoryRepository()
	loaded, err := repo.Load(context.Background(), "binance", "DOES-NOT-EXIST", time.Unix(0, 0), time.Unix(1, 0))
	testutils.AssertNoError(t, err, "Load should succeed")
	testutils.AssertEqual(t, 0, len(loaded), "unknown pair should return an empty slice")
}
