package strategy

import (
	"testing"
	"time"

	"github.com/constantine-labs/backtest/internal/candle"
	"github.com/constantine-labs/backtest/internal/hyperparam"
	"github.com/constantine-labs/backtest/internal/matching"
	"github.com/shopspring/decimal"
)

func seedStore(store *candle.Store, closes []float64) {
	ts := time.Unix(0, 0)
	for _, c := range closes {
		v := decimal.NewFromFloat(c)
		store.Append(candle.Candle{Timestamp: ts, Open: v, High: v, Low: v, Close: v, Volume: decimal.NewFromInt(1)})
		ts = ts.Add(time.Minute)
	}
}

func TestRegistryNewUnknown(t *testing.T) {
	if _, ok := New("does-not-exist"); ok {
		t.Fatal("expected ok=false for unregistered strategy name")
	}
}

func TestNoopStrategyNeverTrades(t *testing.T) {
	s, ok := New("noop")
	if !ok {
		t.Fatal("noop strategy not registered")
	}
	store := candle.NewStore(10)
	pos := matching.NewPosition("r1", "binance", "BTC-USDT", decimal.NewFromInt(1), matching.ModeIsolated)
	book := matching.NewOrderBook("r1", pos)

	adapter, err := NewAdapter("r1", s, store, pos, book, nil)
	if err != nil {
		t.Fatalf("NewAdapter: %v", err)
	}
	adapter.Execute()
	adapter.Terminate()

	if len(book.All()) != 0 {
		t.Errorf("noop strategy placed %d orders, want 0", len(book.All()))
	}
}

func TestEMACrossStrategyHyperparameterRules(t *testing.T) {
	s := &EMACrossStrategy{}
	ok := s.HyperparameterRules(hyperparam.Set{Values: hyperparam.Values{"fast_period": 5, "slow_period": 20}})
	if !ok {
		t.Error("fast < slow should satisfy HyperparameterRules")
	}
	if s.HyperparameterRules(hyperparam.Set{Values: hyperparam.Values{"fast_period": 20, "slow_period": 5}}) {
		t.Error("fast >= slow should violate HyperparameterRules")
	}
}

func TestEMACrossStrategyOpensOnCross(t *testing.T) {
	s, ok := New("ema_cross")
	if !ok {
		t.Fatal("ema_cross strategy not registered")
	}
	store := candle.NewStore(100)
	pos := matching.NewPosition("r1", "binance", "BTC-USDT", decimal.NewFromInt(1), matching.ModeIsolated)
	pos.CurrentPrice = decimal.NewFromInt(100)
	book := matching.NewOrderBook("r1", pos)

	override := hyperparam.Set{Values: hyperparam.Values{"fast_period": 2, "slow_period": 4}}
	adapter, err := NewAdapter("r1", s, store, pos, book, &override)
	if err != nil {
		t.Fatalf("NewAdapter: %v", err)
	}

	// A flat run, then a sharp rally, pushes the fast EMA above the
	// slow EMA; the strategy should open long on the next tick after
	// the cross is detected.
	seedStore(store, []float64{100, 100, 100, 100, 100})
	adapter.Execute()
	seedStore(store, []float64{110, 120, 130})
	adapter.Execute()

	fills := book.DrainMarketOrders(time.Now())
	if len(fills) == 0 {
		t.Fatal("expected ema_cross to open a long position after the rally")
	}
	if !pos.IsOpen() {
		t.Error("position should be open after a market fill")
	}
}
