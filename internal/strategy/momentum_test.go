package strategy

import (
	"testing"
	"time"

	"github.com/constantine-labs/backtest/internal/candle"
	"github.com/constantine-labs/backtest/internal/hyperparam"
	"github.com/constantine-labs/backtest/internal/matching"
	"github.com/shopspring/decimal"
)

func TestMACDMomentumHyperparameterRules(t *testing.T) {
	s := &MACDMomentumStrategy{}
	if !s.HyperparameterRules(hyperparam.Set{Values: hyperparam.Values{"fast_period": 12, "slow_period": 26}}) {
		t.Error("fast < slow should satisfy HyperparameterRules")
	}
	if s.HyperparameterRules(hyperparam.Set{Values: hyperparam.Values{"fast_period": 26, "slow_period": 12}}) {
		t.Error("fast >= slow should violate HyperparameterRules")
	}
}

func TestMACDMomentumOpensOnHistogramCross(t *testing.T) {
	s, ok := New("macd_momentum")
	if !ok {
		t.Fatal("macd_momentum strategy not registered")
	}
	store := candle.NewStore(100)
	pos := matching.NewPosition("r1", "binance", "BTC-USDT", decimal.NewFromInt(1), matching.ModeIsolated)
	pos.CurrentPrice = decimal.NewFromInt(100)
	book := matching.NewOrderBook("r1", pos)

	override := hyperparam.Set{Values: hyperparam.Values{
		"fast_period": 2, "slow_period": 3, "signal_period": 2, "rsi_period": 2,
	}}
	adapter, err := NewAdapter("r1", s, store, pos, book, &override)
	if err != nil {
		t.Fatalf("NewAdapter: %v", err)
	}

	// A flat run establishes a zero histogram baseline, then a sharp
	// rally pushes it positive; the strategy should open long on the
	// tick after the cross, since a strong rally also keeps RSI well
	// outside the neutral no-trade band.
	seedStore(store, []float64{100, 100, 100, 100, 100, 100})
	adapter.Execute()
	seedStore(store, []float64{110, 125, 140})
	adapter.Execute()

	fills := book.DrainMarketOrders(time.Now())
	if len(fills) == 0 {
		t.Fatal("expected macd_momentum to open a long position after the rally")
	}
	if !pos.IsOpen() {
		t.Error("position should be open after a market fill")
	}
}

func TestMACDMomentumSizingClampsToBounds(t *testing.T) {
	s := &MACDMomentumStrategy{minQty: decimal.NewFromFloat(0.005), maxQty: decimal.NewFromFloat(0.05)}

	small := s.sizeFromHistogram(decimal.NewFromFloat(0.0001))
	if small.LessThan(s.minQty) {
		t.Errorf("sizeFromHistogram(tiny) = %s, want >= minQty", small)
	}

	huge := s.sizeFromHistogram(decimal.NewFromInt(1000))
	if !huge.Equal(s.maxQty) {
		t.Errorf("sizeFromHistogram(huge) = %s, want maxQty %s", huge, s.maxQty)
	}
}
