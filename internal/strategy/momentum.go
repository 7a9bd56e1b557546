package strategy

import (
	"github.com/constantine-labs/backtest/internal/hyperparam"
	"github.com/constantine-labs/backtest/internal/matching"
	"github.com/constantine-labs/backtest/pkg/utils"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func init() {
	Register("macd_momentum", func() Strategy { return &MACDMomentumStrategy{} })
}

// MACDMomentumStrategy opens long on a bullish MACD histogram cross and
// flattens on the reverse, sizing the order by how far the histogram
// has moved rather than trading a fixed quantity, and skipping entries
// while RSI sits in a neutral no-edge band.
type MACDMomentumStrategy struct {
	fastPeriod   int
	slowPeriod   int
	signalPeriod int
	rsiPeriod    int
	minQty       decimal.Decimal
	maxQty       decimal.Decimal
	wasAbove     bool
	hasCross     bool
}

func (s *MACDMomentumStrategy) Name() string { return "macd_momentum" }

func (s *MACDMomentumStrategy) Hyperparameters() []hyperparam.Spec {
	return []hyperparam.Spec{
		{Name: "fast_period", Type: hyperparam.TypeInt, Min: 5, Max: 15, Step: 1, Default: 12},
		{Name: "slow_period", Type: hyperparam.TypeInt, Min: 18, Max: 40, Step: 2, Default: 26},
		{Name: "signal_period", Type: hyperparam.TypeInt, Min: 5, Max: 12, Step: 1, Default: 9},
		{Name: "rsi_period", Type: hyperparam.TypeInt, Min: 7, Max: 21, Step: 1, Default: 14},
	}
}

func (s *MACDMomentumStrategy) HyperparameterRules(hp hyperparam.Set) bool {
	return hp.Int("fast_period") < hp.Int("slow_period")
}

func (s *MACDMomentumStrategy) DNA() string { return "" }

func (s *MACDMomentumStrategy) Init(ctx *Context) {
	s.fastPeriod = ctx.HP.Int("fast_period")
	s.slowPeriod = ctx.HP.Int("slow_period")
	s.signalPeriod = ctx.HP.Int("signal_period")
	s.rsiPeriod = ctx.HP.Int("rsi_period")
	s.minQty = decimal.NewFromFloat(0.005)
	s.maxQty = decimal.NewFromFloat(0.05)
}

func (s *MACDMomentumStrategy) BeforeExecute(*Context) {}

func (s *MACDMomentumStrategy) Execute(ctx *Context) {
	needed := s.slowPeriod + s.signalPeriod + 1
	closes := closesOf(ctx.Store.Recent(needed))
	if len(closes) < needed {
		return
	}

	_, _, histogram := MACD(closes, s.fastPeriod, s.slowPeriod, s.signalPeriod)
	if len(histogram) == 0 {
		return
	}
	latest := histogram[len(histogram)-1]
	above := latest.GreaterThan(decimal.Zero)
	defer func() { s.wasAbove, s.hasCross = above, true }()
	if !s.hasCross {
		return
	}

	rsi := RSI(closes, s.rsiPeriod)
	if len(rsi) == 0 {
		return
	}
	// A neutral RSI reading means momentum has no edge behind it; skip
	// the signal rather than trade into chop.
	if utils.IsWithinRange(rsi[len(rsi)-1], decimal.NewFromInt(45), decimal.NewFromInt(55)) {
		return
	}

	if above && !s.wasAbove {
		s.goLong(ctx, latest)
	} else if !above && s.wasAbove {
		s.flatten(ctx)
	}
}

func (s *MACDMomentumStrategy) Terminate(ctx *Context) {
	s.flatten(ctx)
}

// sizeFromHistogram scales the order quantity linearly between minQty
// and maxQty by how far the MACD histogram has swung, clamping the
// swing into [0, 1] first so an outsized histogram value never
// produces an oversized order.
func (s *MACDMomentumStrategy) sizeFromHistogram(histogram decimal.Decimal) decimal.Decimal {
	strength := utils.ClampDecimal(utils.AbsDecimal(histogram), decimal.Zero, decimal.NewFromInt(1))
	t, _ := strength.Float64()
	return utils.RoundDecimal(utils.LerpDecimal(s.minQty, s.maxQty, t), utils.QtyPrecision)
}

func (s *MACDMomentumStrategy) goLong(ctx *Context, histogram decimal.Decimal) {
	if ctx.Position.IsOpen() {
		return
	}
	ctx.Book.Place(&matching.Order{
		ID: uuid.NewString(), RouteID: ctx.RouteID,
		Exchange: ctx.Position.Exchange, Symbol: ctx.Position.Symbol,
		Side: matching.SideBuy, Type: matching.TypeMarket, Role: matching.RoleOpen,
		Qty: s.sizeFromHistogram(histogram),
	})
}

func (s *MACDMomentumStrategy) flatten(ctx *Context) {
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
