package strategy

import (
	"github.com/constantine-labs/backtest/internal/candle"
	"github.com/constantine-labs/backtest/internal/hyperparam"
	"github.com/constantine-labs/backtest/internal/matching"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func init() {
	Register("noop", func() Strategy { return &NoopStrategy{} })
	Register("ema_cross", func() Strategy { return &EMACrossStrategy{} })
}

// NoopStrategy never trades. It exists as a test fixture and as the
// simplest possible example of the Strategy contract.
type NoopStrategy struct{}

func (s *NoopStrategy) Name() string                      { return "noop" }
func (s *NoopStrategy) Hyperparameters() []hyperparam.Spec { return nil }
func (s *NoopStrategy) HyperparameterRules(hyperparam.Set) bool { return true }
func (s *NoopStrategy) DNA() string                        { return "" }
func (s *NoopStrategy) Init(*Context)                       {}
func (s *NoopStrategy) BeforeExecute(*Context)              {}
func (s *NoopStrategy) Execute(*Context)                    {}
func (s *NoopStrategy) Terminate(*Context)                  {}

// EMACrossStrategy goes long when a fast EMA crosses above a slow EMA
// and flattens on the reverse cross. Both periods are tunable
// hyperparameters, exercising the indicator math in this package
// (EMA) and the DNA-driven hyperparameter injection path end to end.
type EMACrossStrategy struct {
	fastPeriod int
	slowPeriod int
	qty        decimal.Decimal
	wasAbove   bool
	hasCross   bool
}

func (s *EMACrossStrategy) Name() string { return "ema_cross" }

func (s *EMACrossStrategy) Hyperparameters() []hyperparam.Spec {
	return []hyperparam.Spec{
		{Name: "fast_period", Type: hyperparam.TypeInt, Min: 2, Max: 20, Step: 1, Default: 5},
		{Name: "slow_period", Type: hyperparam.TypeInt, Min: 10, Max: 60, Step: 2, Default: 20},
	}
}

func (s *EMACrossStrategy) HyperparameterRules(hp hyperparam.Set) bool {
	return hp.Int("fast_period") < hp.Int("slow_period")
}

func (s *EMACrossStrategy) DNA() string { return "" }

func (s *EMACrossStrategy) Init(ctx *Context) {
	s.fastPeriod = ctx.HP.Int("fast_period")
	s.slowPeriod = ctx.HP.Int("slow_period")
	s.qty = decimal.NewFromFloat(0.01)
}

func (s *EMACrossStrategy) BeforeExecute(*Context) {}

func (s *EMACrossStrategy) Execute(ctx *Context) {
	closes := closesOf(ctx.Store.Recent(s.slowPeriod + 1))
	if len(closes) < s.slowPeriod+1 {
		return
	}

	fast := EMA(closes, s.fastPeriod)
	slow := EMA(closes, s.slowPeriod)
	if len(fast) == 0 || len(slow) == 0 {
		return
	}

	above := fast[len(fast)-1].GreaterThan(slow[len(slow)-1])
	defer func() { s.wasAbove, s.hasCross = above, true }()

	if !s.hasCross {
		return
	}
	if above && !s.wasAbove {
		s.goLong(ctx)
	} else if !above && s.wasAbove {
		s.flatten(ctx)
	}
}

func (s *EMACrossStrategy) Terminate(ctx *Context) {
	s.flatten(ctx)
}

func (s *EMACrossStrategy) goLong(ctx *Context) {
	if ctx.Position.IsOpen() {
		return
	}
	ctx.Book.Place(&matching.Order{
		ID: uuid.NewString(), RouteID: ctx.RouteID,
		Exchange: ctx.Position.Exchange, Symbol: ctx.Position.Symbol,
		Side: matching.SideBuy, Type: matching.TypeMarket, Role: matching.RoleOpen,
		Qty: s.qty,
	})
}

func (s *EMACrossStrategy) flatten(ctx *Context) {
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

func closesOf(candles []candle.Candle) []decimal.Decimal {
	out := make([]decimal.Decimal, len(candles))
	for i, c := range candles {
		out[i] = c.Close
	}
	return out
}
