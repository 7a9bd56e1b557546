package matching

import (
	"github.com/constantine-labs/backtest/internal/obslog"
	"github.com/shopspring/decimal"
)

// Callbacks bundles the event hooks a MatchingEngine invokes. Any field
// left nil is simply not called. Grounded on the panic-recovering
// callback dispatch used by the order manager this package replaces.
type Callbacks struct {
	OnOrderExecuted func(o Order, realizedPnL decimal.Decimal)
	OnLiquidation   func(p Position, o Order, realizedPnL decimal.Decimal)
}

func (c Callbacks) safeInvokeOrder(o Order, realizedPnL decimal.Decimal) {
	if c.OnOrderExecuted == nil {
		return
	}
	defer recoverCallbackPanic("order_executed")
	c.OnOrderExecuted(o, realizedPnL)
}

func (c Callbacks) safeInvokeLiquidation(p Position, o Order, realizedPnL decimal.Decimal) {
	if c.OnLiquidation == nil {
		return
	}
	defer recoverCallbackPanic("liquidation")
	c.OnLiquidation(p, o, realizedPnL)
}

func recoverCallbackPanic(name string) {
	if r := recover(); r != nil {
		obslog.Component("matching").Error("callback panic recovered", "callback", name, "panic", r)
	}
}
