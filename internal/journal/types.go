// Package journal accumulates completed trades and a daily balance
// series during a simulation and derives risk-adjusted performance
// metrics from them once the session ends.
package journal

import (
	"time"

	"github.com/shopspring/decimal"
)

// CompletedTrade is an append-only record of one closed position cycle,
// built from the fills the matching engine reports for a route.
type CompletedTrade struct {
	RouteID    string
	Exchange   string
	Symbol     string
	Side       string
	EntryPrice decimal.Decimal
	ExitPrice  decimal.Decimal
	Qty        decimal.Decimal
	EntryTime  time.Time
	ExitTime   time.Time
	PnL        decimal.Decimal
	ExitReason string // "signal" or "liquidation"
}

// BalancePoint is one sample of the portfolio's total equity, taken at
// a daily cadence during the simulation.
type BalancePoint struct {
	Time    time.Time
	Balance decimal.Decimal
}

// Metrics summarizes a completed session's trade list and balance
// series.
type Metrics struct {
	TotalTrades   int
	WinningTrades int
	LosingTrades  int
	WinRate       decimal.Decimal

	TotalPnL     decimal.Decimal
	ProfitFactor decimal.Decimal
	LargestWin   decimal.Decimal
	LargestLoss  decimal.Decimal

	MaxDrawdown    decimal.Decimal
	MaxDrawdownPct decimal.Decimal

	Sharpe  float64
	Sortino float64
	Calmar  float64
	Omega   float64

	LiquidationCount int
}
