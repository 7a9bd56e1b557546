package journal

import (
	"time"

	"github.com/shopspring/decimal"
)

// Journal accumulates completed trades and daily balance snapshots for
// one simulation run. The simulator owns one Journal per session and
// feeds it from the matching engine's fill and liquidation callbacks;
// it performs no candle or order logic itself.
type Journal struct {
	trades           []CompletedTrade
	balances         []BalancePoint
	liquidationCount int

	openEntry map[string]openPosition // routeID -> still-open entry leg
}

type openPosition struct {
	exchange   string
	symbol     string
	side       string
	entryPrice decimal.Decimal
	qty        decimal.Decimal
	entryTime  time.Time
}

// New returns an empty Journal.
func New() *Journal {
	return &Journal{openEntry: make(map[string]openPosition)}
}

// RecordOpen notes the entry leg of a new position for a route, so a
// later closing fill can be paired with it into a CompletedTrade.
func (j *Journal) RecordOpen(routeID, exchange, symbol, side string, entryPrice, qty decimal.Decimal, at time.Time) {
	j.openEntry[routeID] = openPosition{
		exchange: exchange, symbol: symbol, side: side,
		entryPrice: entryPrice, qty: qty, entryTime: at,
	}
}

// RecordClose pairs a closing or reducing fill with the route's
// recorded entry leg into a CompletedTrade. If no entry leg was
// recorded (a reduce against a position opened before this session's
// journal existed), the trade is recorded with a zero entry time.
func (j *Journal) RecordClose(routeID string, exitPrice, realizedPnL decimal.Decimal, reason string, at time.Time) {
	entry, ok := j.openEntry[routeID]
	trade := CompletedTrade{
		RouteID:    routeID,
		ExitPrice:  exitPrice,
		PnL:        realizedPnL,
		ExitTime:   at,
		ExitReason: reason,
	}
	if ok {
		trade.Exchange = entry.exchange
		trade.Symbol = entry.symbol
		trade.Side = entry.side
		trade.EntryPrice = entry.entryPrice
		trade.Qty = entry.qty
		trade.EntryTime = entry.entryTime
		delete(j.openEntry, routeID)
	}
	j.trades = append(j.trades, trade)
}

// RecordLiquidation increments the session's liquidation counter.
func (j *Journal) RecordLiquidation() {
	j.liquidationCount++
}

// RecordBalance appends one sample to the daily balance series. Callers
// are expected to call this once per UTC day boundary; metrics
// computation assumes the series is already daily-resampled.
func (j *Journal) RecordBalance(at time.Time, balance decimal.Decimal) {
	j.balances = append(j.balances, BalancePoint{Time: at, Balance: balance})
}

// Trades returns every completed trade recorded this session, in
// closing order.
func (j *Journal) Trades() []CompletedTrade {
	return j.trades
}

// Balances returns the recorded daily balance series.
func (j *Journal) Balances() []BalancePoint {
	return j.balances
}
