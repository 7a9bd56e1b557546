package matching

import "github.com/shopspring/decimal"

// maintenanceMarginRate is the fraction of notional value held back as
// maintenance margin before bankruptcy. This engine is explicitly not a
// production margin system (no tiered rates, no insurance fund); one
// flat rate keeps the isolated-mode liquidation check exercisable.
var maintenanceMarginRate = decimal.NewFromFloat(0.005)

// NewPosition returns a flat position for a route.
func NewPosition(routeID, exchange, symbol string, leverage decimal.Decimal, mode PositionMode) *Position {
	if leverage.IsZero() {
		leverage = decimal.NewFromInt(1)
	}
	return &Position{
		RouteID:  routeID,
		Exchange: exchange,
		Symbol:   symbol,
		Leverage: leverage,
		Mode:     mode,
	}
}

// ApplyFill updates the position for an executed order, handling
// opening, increasing, reducing, closing, and flipping (a reduce that
// overshoots flat and reopens in the other direction). Returns the
// realized P&L booked by this fill: zero for an opening or increasing
// fill, and the entry-to-fill-price delta on the closed portion for a
// reducing, closing, or flipping fill.
func (p *Position) ApplyFill(side OrderSide, qty, fillPrice decimal.Decimal) decimal.Decimal {
	signed := qty
	if side == SideSell {
		signed = qty.Neg()
	}

	switch {
	case p.Qty.IsZero():
		p.openAt(signed, fillPrice)
		return decimal.Zero
	case sameSign(p.Qty, signed):
		p.increase(signed, fillPrice)
		return decimal.Zero
	default:
		return p.reduceOrFlip(signed, fillPrice)
	}
}

func sameSign(a, b decimal.Decimal) bool {
	return (a.IsPositive() && b.IsPositive()) || (a.IsNegative() && b.IsNegative())
}

func (p *Position) openAt(signedQty, fillPrice decimal.Decimal) {
	p.Qty = signedQty
	p.EntryPrice = fillPrice
	p.CurrentPrice = fillPrice
	p.recomputeLiquidation()
}

func (p *Position) increase(signedQty, fillPrice decimal.Decimal) {
	totalQty := p.Qty.Add(signedQty)
	// Weighted-average entry price across old and added notional.
	oldNotional := p.EntryPrice.Mul(p.Qty.Abs())
	addedNotional := fillPrice.Mul(signedQty.Abs())
	p.EntryPrice = oldNotional.Add(addedNotional).Div(totalQty.Abs())
	p.Qty = totalQty
	p.recomputeLiquidation()
}

func (p *Position) reduceOrFlip(signedQty, fillPrice decimal.Decimal) decimal.Decimal {
	entryPrice := p.EntryPrice
	wasLong := p.IsLong()
	closedQty := signedQty.Abs()
	if closedQty.GreaterThan(p.Qty.Abs()) {
		closedQty = p.Qty.Abs()
	}
	realized := fillPrice.Sub(entryPrice).Mul(closedQty)
	if !wasLong {
		realized = realized.Neg()
	}

	remaining := p.Qty.Add(signedQty)
	switch {
	case remaining.IsZero():
		p.Reset()
	case sameSign(remaining, p.Qty):
		// Pure reduce: entry price and liquidation level hold.
		p.Qty = remaining
	default:
		// The fill overshot flat; the excess opens a new position in
		// the opposite direction at the same fill price.
		p.Qty = remaining
		p.EntryPrice = fillPrice
		p.recomputeLiquidation()
	}
	p.CurrentPrice = fillPrice
	return realized
}

func (p *Position) recomputeLiquidation() {
	if p.Qty.IsZero() {
		p.LiquidationPrice = decimal.Zero
		p.BankruptcyPrice = decimal.Zero
		return
	}
	inverseLeverage := decimal.NewFromInt(1).Div(p.Leverage)
	if p.IsLong() {
		p.BankruptcyPrice = p.EntryPrice.Mul(decimal.NewFromInt(1).Sub(inverseLeverage))
		p.LiquidationPrice = p.EntryPrice.Mul(decimal.NewFromInt(1).Sub(inverseLeverage.Sub(maintenanceMarginRate)))
	} else {
		p.BankruptcyPrice = p.EntryPrice.Mul(decimal.NewFromInt(1).Add(inverseLeverage))
		p.LiquidationPrice = p.EntryPrice.Mul(decimal.NewFromInt(1).Add(inverseLeverage.Sub(maintenanceMarginRate)))
	}
}
