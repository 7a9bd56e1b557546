package router

import (
	"testing"
	"time"

	"github.com/constantine-labs/backtest/internal/candle"
	"github.com/shopspring/decimal"
)

func TestNewTableRejectsDuplicateID(t *testing.T) {
	routes := []Route{
		{ID: "r1", Exchange: "binance", Symbol: "BTC-USDT", Timeframe: "1m", Strategy: "noop"},
		{ID: "r1", Exchange: "binance", Symbol: "ETH-USDT", Timeframe: "1m", Strategy: "noop"},
	}
	if _, err := NewTable(routes, 0); err == nil {
		t.Fatal("expected error for duplicate route ID")
	}
}

func TestNewTableRejectsBadTimeframe(t *testing.T) {
	routes := []Route{{ID: "r1", Exchange: "binance", Symbol: "BTC-USDT", Timeframe: "bogus", Strategy: "noop"}}
	if _, err := NewTable(routes, 0); err == nil {
		t.Fatal("expected error for invalid timeframe")
	}
}

func TestTableFeedAndRoutesForPair(t *testing.T) {
	routes := []Route{
		{ID: "r1", Exchange: "binance", Symbol: "BTC-USDT", Timeframe: "1m", Strategy: "noop"},
		{ID: "r2", Exchange: "binance", Symbol: "BTC-USDT", Timeframe: "5m", Strategy: "noop"},
	}
	table, err := NewTable(routes, 10)
	if err != nil {
		t.Fatal(err)
	}

	ids := table.RoutesForPair("binance", "BTC-USDT")
	if len(ids) != 2 {
		t.Fatalf("expected 2 routes sharing the 1m feed, got %d", len(ids))
	}

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for _, id := range ids {
		series := table.Series(id)
		for i := 0; i < 5; i++ {
			series.Feed(candle.Candle{
				Timestamp: base.Add(time.Duration(i) * time.Minute),
				Open:      decimal.NewFromInt(100), High: decimal.NewFromInt(101),
				Low: decimal.NewFromInt(99), Close: decimal.NewFromInt(100),
				Volume: decimal.NewFromInt(1),
			})
		}
	}

	if table.Series("r1").Store.Len() != 5 {
		t.Errorf("1m store should have 5 candles, got %d", table.Series("r1").Store.Len())
	}
	if table.Series("r2").Store.Len() != 1 {
		t.Errorf("5m store should have 1 closed candle after 5 feeds, got %d", table.Series("r2").Store.Len())
	}
}

func TestTableTimeframeMinutes(t *testing.T) {
	routes := []Route{
		{ID: "r1", Exchange: "binance", Symbol: "BTC-USDT", Timeframe: "1m", Strategy: "noop"},
		{ID: "r2", Exchange: "binance", Symbol: "BTC-USDT", Timeframe: "5m", Strategy: "noop"},
		{ID: "r3", Exchange: "binance", Symbol: "ETH-USDT", Timeframe: "5m", Strategy: "noop"},
	}
	table, err := NewTable(routes, 0)
	if err != nil {
		t.Fatal(err)
	}
	mins := table.TimeframeMinutes()
	if len(mins) != 2 {
		t.Fatalf("expected 2 distinct timeframe minute values, got %v", mins)
	}
}
