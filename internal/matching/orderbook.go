package matching

import (
	"time"

	"github.com/constantine-labs/backtest/internal/engineerr"
	"github.com/shopspring/decimal"
)

// OrderBook holds every order placed against one route, live or
// historical, and the route's single open position.
type OrderBook struct {
	RouteID  string
	Position *Position
	orders   []*Order // insertion order; scanned in this order for tie-breaks
	byID     map[string]*Order
}

// NewOrderBook creates an empty book for a route, owning the given
// position.
func NewOrderBook(routeID string, position *Position) *OrderBook {
	return &OrderBook{
		RouteID:  routeID,
		Position: position,
		byID:     make(map[string]*Order),
	}
}

// Place adds an order to the book. Market orders become active
// immediately (drained at the end of the tick); limit/stop orders start
// active so the matching engine's price scan considers them: there is
// no separate queued-until-trigger stage for plain stop orders
// (stop_limit is treated the same as limit here; no full maker/taker
// order book is modeled).
func (b *OrderBook) Place(o *Order) {
	o.Status = StatusActive
	b.orders = append(b.orders, o)
	b.byID[o.ID] = o
}

// Cancel transitions an active order to canceled. Returns an error
// wrapping engineerr.ErrRouteNotFound if the ID is unknown.
func (b *OrderBook) Cancel(orderID string) error {
	o, ok := b.byID[orderID]
	if !ok {
		return engineerr.New(engineerr.OpCancelOrder, orderID, engineerr.ErrRouteNotFound)
	}
	if o.Status == StatusActive || o.Status == StatusQueued {
		o.Status = StatusCanceled
	}
	return nil
}

// Active returns every order currently eligible for matching, in
// insertion order.
func (b *OrderBook) Active() []*Order {
	var out []*Order
	for _, o := range b.orders {
		if o.IsActive() {
			out = append(out, o)
		}
	}
	return out
}

// CountInRange reports how many active orders have a trigger price
// inside [low, high], used by the simulator's skip-ahead probe.
func (b *OrderBook) CountInRange(low, high decimal.Decimal) int {
	count := 0
	for _, o := range b.Active() {
		if o.Price.GreaterThanOrEqual(low) && o.Price.LessThanOrEqual(high) {
			count++
		}
	}
	return count
}

// Fill pairs an executed order with the realized P&L it booked.
type Fill struct {
	Order       Order
	RealizedPnL decimal.Decimal
}

// DrainMarketOrders executes every active market order still pending
// and returns the fills, leaving non-market orders untouched. Called at
// the end of every simulator tick per §4.4.3. at stamps the fills'
// ExecutedAt; callers pass the current tick's timestamp.
func (b *OrderBook) DrainMarketOrders(at time.Time) []Fill {
	var fills []Fill
	for _, o := range b.orders {
		if o.IsActive() && o.Type == TypeMarket {
			o.FillPrice = b.Position.CurrentPrice
			o.Status = StatusExecuted
			o.ExecutedAt = at
			realized := b.Position.ApplyFill(o.Side, o.Qty, o.FillPrice)
			fills = append(fills, Fill{Order: *o, RealizedPnL: realized})
		}
	}
	return fills
}

// All returns every order the book has ever held, for reporting and
// tests.
func (b *OrderBook) All() []*Order {
	return b.orders
}
