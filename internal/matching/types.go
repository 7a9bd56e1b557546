// Package matching implements the per-route order book, position
// bookkeeping, and the per-minute matching engine that converts
// simulated price movement into order executions and liquidations.
package matching

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderSide is the direction of an order.
type OrderSide string

const (
	SideBuy  OrderSide = "buy"
	SideSell OrderSide = "sell"
)

// OrderType determines how an order's trigger price is evaluated.
type OrderType string

const (
	TypeMarket    OrderType = "market"
	TypeLimit     OrderType = "limit"
	TypeStop      OrderType = "stop"
	TypeStopLimit OrderType = "stop_limit"
)

// OrderFlag modifies order execution semantics.
type OrderFlag string

const (
	FlagNone       OrderFlag = "none"
	FlagReduceOnly OrderFlag = "reduce_only"
	FlagPostOnly   OrderFlag = "post_only"
)

// OrderRole describes an order's intent relative to the route's
// position.
type OrderRole string

const (
	RoleOpen     OrderRole = "open"
	RoleIncrease OrderRole = "increase"
	RoleReduce   OrderRole = "reduce"
	RoleClose    OrderRole = "close"
)

// OrderStatus is the order's place in its state machine:
// queued -> active -> executed | canceled.
type OrderStatus string

const (
	StatusQueued   OrderStatus = "queued"
	StatusActive   OrderStatus = "active"
	StatusExecuted OrderStatus = "executed"
	StatusCanceled OrderStatus = "canceled"
)

// Order is a single virtual order against one route.
type Order struct {
	ID         string
	RouteID    string
	Exchange   string
	Symbol     string
	Side       OrderSide
	Type       OrderType
	Flag       OrderFlag
	Role       OrderRole
	Qty        decimal.Decimal // always positive; Side encodes direction
	Price      decimal.Decimal // limit/stop trigger price; ignored for market orders
	Status     OrderStatus
	CreatedAt  time.Time
	ExecutedAt time.Time
	FillPrice  decimal.Decimal
}

// IsActive reports whether the order currently participates in price
// matching.
func (o *Order) IsActive() bool {
	return o.Status == StatusActive
}

// PositionMode determines whether a position is margined in isolation
// or shares the account's cross margin pool. Only isolated mode
// liquidates in this engine, matching the Non-goal that excludes a
// production-grade cross-margin risk engine.
type PositionMode string

const (
	ModeIsolated PositionMode = "isolated"
	ModeCross    PositionMode = "cross"
)

// Position is a route's single open exposure. Qty is signed: positive
// for long, negative for short, zero for flat.
type Position struct {
	RouteID          string
	Exchange         string
	Symbol           string
	Qty              decimal.Decimal
	EntryPrice       decimal.Decimal
	CurrentPrice     decimal.Decimal
	Leverage         decimal.Decimal
	Mode             PositionMode
	LiquidationPrice decimal.Decimal
	BankruptcyPrice  decimal.Decimal
}

// IsOpen reports whether the position carries nonzero quantity.
func (p *Position) IsOpen() bool {
	return !p.Qty.IsZero()
}

// IsLong reports whether the position is long (positive qty).
func (p *Position) IsLong() bool {
	return p.Qty.IsPositive()
}

// ClosingSide returns the order side that would flatten this position:
// sell to close a long, buy to close a short.
func (p *Position) ClosingSide() OrderSide {
	if p.IsLong() {
		return SideSell
	}
	return SideBuy
}

// UnrealizedPnL computes the position's paper profit/loss at the
// current mark price.
func (p *Position) UnrealizedPnL() decimal.Decimal {
	if !p.IsOpen() {
		return decimal.Zero
	}
	return p.CurrentPrice.Sub(p.EntryPrice).Mul(p.Qty)
}

// Reset clears the position back to flat, used between optimization
// candidates so a worker can rerun the same route from a clean state.
func (p *Position) Reset() {
	p.Qty = decimal.Zero
	p.EntryPrice = decimal.Zero
	p.CurrentPrice = decimal.Zero
	p.LiquidationPrice = decimal.Zero
	p.BankruptcyPrice = decimal.Zero
}
