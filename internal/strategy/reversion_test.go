package strategy

import (
	"testing"
	"time"

	"github.com/constantine-labs/backtest/internal/candle"
	"github.com/constantine-labs/backtest/internal/hyperparam"
	"github.com/constantine-labs/backtest/internal/matching"
	"github.com/shopspring/decimal"
)

func TestBollingerReversionHyperparameterRulesAlwaysTrue(t *testing.T) {
	s := &BollingerReversionStrategy{}
	if !s.HyperparameterRules(hyperparam.Set{}) {
		t.Error("bollinger_reversion imposes no hyperparameter constraints")
	}
}

func TestBollingerReversionSkipsInsufficientHistory(t *testing.T) {
	s, ok := New("bollinger_reversion")
	if !ok {
		t.Fatal("bollinger_reversion strategy not registered")
	}
	store := candle.NewStore(100)
	pos := matching.NewPosition("r1", "binance", "BTC-USDT", decimal.NewFromInt(1), matching.ModeIsolated)
	book := matching.NewOrderBook("r1", pos)

	override := hyperparam.Set{Values: hyperparam.Values{
		"period": 10, "std_dev": 2, "stoch_period": 5, "atr_period": 5,
	}}
	adapter, err := NewAdapter("r1", s, store, pos, book, &override)
	if err != nil {
		t.Fatalf("NewAdapter: %v", err)
	}

	seedStore(store, []float64{100, 99, 98})
	adapter.Execute()

	if len(book.All()) != 0 {
		t.Errorf("placed %d orders on insufficient history, want 0", len(book.All()))
	}
}

func TestBollingerReversionFlattensOnReversionToMean(t *testing.T) {
	s := &BollingerReversionStrategy{}
	store := candle.NewStore(100)
	pos := matching.NewPosition("r1", "binance", "BTC-USDT", decimal.NewFromInt(1), matching.ModeIsolated)
	pos.CurrentPrice = decimal.NewFromInt(100)
	book := matching.NewOrderBook("r1", pos)

	ctx := &Context{RouteID: "r1", Store: store, Position: pos, Book: book, HP: hyperparam.Set{Values: hyperparam.Values{
		"period": 3, "std_dev": 2, "stoch_period": 3, "atr_period": 3,
	}}}
	s.Init(ctx)
	s.open(ctx, decimal.NewFromFloat(0.01))
	if len(book.DrainMarketOrders(time.Now())) == 0 {
		t.Fatal("expected the entry order to fill")
	}
	if !pos.IsOpen() {
		t.Fatal("expected position to open")
	}

	s.entryPrice = decimal.NewFromInt(90)
	s.stopDistance = decimal.NewFromInt(5)

	seedStore(store, []float64{100, 100, 100, 100})
	s.manageOpenPosition(ctx, decimal.NewFromInt(100))

	fills := book.DrainMarketOrders(time.Now())
	if len(fills) == 0 {
		t.Fatal("expected flatten to close the position once price reverted to the mean")
	}
	if pos.IsOpen() {
		t.Error("position should be flat after reverting to the mean")
	}
}
