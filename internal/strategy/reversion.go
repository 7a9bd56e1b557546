package strategy

import (
	"github.com/constantine-labs/backtest/internal/candle"
	"github.com/constantine-labs/backtest/internal/hyperparam"
	"github.com/constantine-labs/backtest/internal/matching"
	"github.com/constantine-labs/backtest/pkg/utils"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func init() {
	Register("bollinger_reversion", func() Strategy { return &BollingerReversionStrategy{} })
}

// BollingerReversionStrategy goes long when price closes below the
// lower Bollinger band while the Stochastic oscillator confirms an
// oversold read and VWAP shows the close trading at a discount to the
// session's volume-weighted price, then flattens once price reverts
// back through the middle band or an ATR-based stop is breached.
type BollingerReversionStrategy struct {
	period       int
	stdDev       float64
	stochPeriod  int
	atrPeriod    int
	qty          decimal.Decimal
	entryPrice   decimal.Decimal
	stopDistance decimal.Decimal
}

func (s *BollingerReversionStrategy) Name() string { return "bollinger_reversion" }

func (s *BollingerReversionStrategy) Hyperparameters() []hyperparam.Spec {
	return []hyperparam.Spec{
		{Name: "period", Type: hyperparam.TypeInt, Min: 10, Max: 30, Step: 2, Default: 20},
		{Name: "std_dev", Type: hyperparam.TypeFloat, Min: 1.5, Max: 3, Step: 0.5, Default: 2},
		{Name: "stoch_period", Type: hyperparam.TypeInt, Min: 5, Max: 21, Step: 2, Default: 14},
		{Name: "atr_period", Type: hyperparam.TypeInt, Min: 5, Max: 21, Step: 2, Default: 14},
	}
}

func (s *BollingerReversionStrategy) HyperparameterRules(hyperparam.Set) bool { return true }

func (s *BollingerReversionStrategy) DNA() string { return "" }

func (s *BollingerReversionStrategy) Init(ctx *Context) {
	s.period = ctx.HP.Int("period")
	s.stdDev = ctx.HP.Float("std_dev")
	s.stochPeriod = ctx.HP.Int("stoch_period")
	s.atrPeriod = ctx.HP.Int("atr_period")
	s.qty = decimal.NewFromFloat(0.01)
}

func (s *BollingerReversionStrategy) BeforeExecute(*Context) {}

func (s *BollingerReversionStrategy) Execute(ctx *Context) {
	needed := s.period + s.atrPeriod + 1
	bars := ctx.Store.Recent(needed)
	if len(bars) < needed {
		return
	}

	closes := closesOf(bars)
	highs, lows := highsAndLowsOf(bars)

	if ctx.Position.IsOpen() {
		s.manageOpenPosition(ctx, closes[len(closes)-1])
		return
	}

	_, _, lower := BollingerBands(closes, s.period, s.stdDev)
	stoch := Stochastic(highs, lows, closes, s.stochPeriod)
	atr := ATR(highs, lows, closes, s.atrPeriod)
	if len(lower) == 0 || len(stoch) == 0 || len(atr) == 0 {
		return
	}

	last := closes[len(closes)-1]
	vwap := VWAP(closes, volumesOf(bars))
	discount := utils.PercentChange(vwap, last)

	oversold := stoch[len(stoch)-1].LessThan(decimal.NewFromInt(20))
	belowBand := last.LessThan(lower[len(lower)-1])
	tradingAtDiscount := discount.LessThan(decimal.NewFromInt(-1))

	if belowBand && oversold && tradingAtDiscount {
		s.entryPrice = last
		s.stopDistance = atr[len(atr)-1].Mul(decimal.NewFromFloat(2))
		s.open(ctx, utils.ClampDecimal(s.qty, decimal.NewFromFloat(0.005), decimal.NewFromFloat(0.05)))
	}
}

func (s *BollingerReversionStrategy) manageOpenPosition(ctx *Context, last decimal.Decimal) {
	closes := closesOf(ctx.Store.Recent(s.period))
	if len(closes) < s.period {
		return
	}
	_, middle, _ := BollingerBands(closes, s.period, s.stdDev)
	revertedToMean := len(middle) > 0 && last.GreaterThanOrEqual(middle[len(middle)-1])

	stopPrice := s.entryPrice.Sub(s.stopDistance)
	stopBreached := !s.stopDistance.IsZero() && last.LessThanOrEqual(stopPrice)

	if revertedToMean || stopBreached {
		s.flatten(ctx)
	}
}

func (s *BollingerReversionStrategy) Terminate(ctx *Context) {
	s.flatten(ctx)
}

func (s *BollingerReversionStrategy) open(ctx *Context, qty decimal.Decimal) {
	if ctx.Position.IsOpen() {
		return
	}
	ctx.Book.Place(&matching.Order{
		ID: uuid.NewString(), RouteID: ctx.RouteID,
		Exchange: ctx.Position.Exchange, Symbol: ctx.Position.Symbol,
		Side: matching.SideBuy, Type: matching.TypeMarket, Role: matching.RoleOpen,
		Qty: qty,
	})
}

func (s *BollingerReversionStrategy) flatten(ctx *Context) {
	if !ctx.Position.IsOpen() {
		return
	}
	ctx.Book.Place(&matching.Order{
		ID: uuid.NewString(), RouteID: ctx.RouteID,
		Exchange: ctx.Position.Exchange, Symbol: ctx.Position.Symbol,
		Side: ctx.Position.ClosingSide(), Type: matching.TypeMarket, Role: matching.RoleClose,
		Qty: ctx.Position.Qty.Abs(),
	})
}

func highsAndLowsOf(candles []candle.Candle) (highs, lows []decimal.Decimal) {
	highs = make([]decimal.Decimal, len(candles))
	lows = make([]decimal.Decimal, len(candles))
	for i, c := range candles {
		highs[i] = c.High
		lows[i] = c.Low
	}
	return highs, lows
}

func volumesOf(candles []candle.Candle) []decimal.Decimal {
	out := make([]decimal.Decimal, len(candles))
	for i, c := range candles {
		out[i] = c.Volume
	}
	return out
}
