package matching

import (
	"github.com/constantine-labs/backtest/internal/candle"
	"github.com/constantine-labs/backtest/pkg/utils"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Engine is the per-route matching engine: it owns the route's order
// book and position and converts simulated price movement inside one
// forming or closed 1m candle into order fills and liquidations.
type Engine struct {
	Book      *OrderBook
	Callbacks Callbacks
	liqCount  int
}

// NewEngine creates a matching engine for a route's order book.
func NewEngine(book *OrderBook, cb Callbacks) *Engine {
	return &Engine{Book: book, Callbacks: cb}
}

// LiquidationCount returns how many times this engine has force-closed
// its position.
func (e *Engine) LiquidationCount() int {
	return e.liqCount
}

// SimulatePriceChange applies one real (forming or closed) 1m candle to
// the book: repeatedly find the first active order whose price falls
// inside the remaining candle's [low, high], split the candle at that
// price, execute the order, and continue with the remainder. Once no
// order intersects, the remaining candle is the observed price action
// and liquidation is checked against it.
func (e *Engine) SimulatePriceChange(real candle.Candle) {
	remaining := real

	for {
		order := e.firstIntersecting(remaining)
		if order == nil {
			break
		}

		before, after := split(remaining, order.Price)
		e.Book.Position.CurrentPrice = before.Close

		order.Status = StatusExecuted
		order.FillPrice = order.Price
		order.ExecutedAt = remaining.Timestamp
		realized := e.Book.Position.ApplyFill(order.Side, order.Qty, order.Price)
		e.Callbacks.safeInvokeOrder(*order, realized)

		remaining = after
	}

	e.Book.Position.CurrentPrice = remaining.Close
	e.checkLiquidation(remaining)
}

// firstIntersecting scans active orders in insertion order (ties break
// on insertion order, not creation timestamp) and returns the first
// whose price lies within the candle's range.
func (e *Engine) firstIntersecting(c candle.Candle) *Order {
	for _, o := range e.Book.Active() {
		if c.Includes(o.Price) {
			return o
		}
	}
	return nil
}

// split divides a candle into a "before" bar ending at price and an
// "after" bar starting at price. Both retain the full high/low range of
// the original bar: with only OHLCV data (no tick stream) there is no
// way to know whether the bar's extremes occurred before or after the
// crossing, so both halves conservatively keep the same extremes,
// which preserves the low <= open,close <= high invariant on each half.
func split(c candle.Candle, price decimal.Decimal) (before, after candle.Candle) {
	high := utils.MaxDecimal(c.High, price)
	low := utils.MinDecimal(c.Low, price)
	volumeHalf := c.Volume.Div(decimal.NewFromInt(2))

	before = candle.Candle{
		Timestamp: c.Timestamp, Open: c.Open, Close: price,
		High: high, Low: low, Volume: volumeHalf,
	}
	after = candle.Candle{
		Timestamp: c.Timestamp, Open: price, Close: c.Close,
		High: high, Low: low, Volume: c.Volume.Sub(volumeHalf),
	}
	return before, after
}

// checkLiquidation force-closes the position with a synthetic market
// order at the bankruptcy price if it is isolated-margined and the
// candle's range reached its liquidation price.
func (e *Engine) checkLiquidation(c candle.Candle) {
	p := e.Book.Position
	if !p.IsOpen() || p.Mode != ModeIsolated {
		return
	}
	if !c.Includes(p.LiquidationPrice) {
		return
	}

	liqOrder := &Order{
		ID:       uuid.NewString(),
		RouteID:  e.Book.RouteID,
		Exchange: p.Exchange,
		Symbol:   p.Symbol,
		Side:     p.ClosingSide(),
		Type:     TypeMarket,
		Flag:     FlagReduceOnly,
		Role:     RoleClose,
		Qty:      p.Qty.Abs(),
		Price:    p.BankruptcyPrice,
		Status:   StatusExecuted,
	}
	liqOrder.FillPrice = p.BankruptcyPrice

	realized := p.ApplyFill(liqOrder.Side, liqOrder.Qty, liqOrder.FillPrice)
	e.liqCount++
	e.Book.orders = append(e.Book.orders, liqOrder)
	e.Callbacks.safeInvokeLiquidation(*p, *liqOrder, realized)
}
