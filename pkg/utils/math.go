package utils

import (
	"math"

	"github.com/shopspring/decimal"
)

// QtyPrecision is the number of decimal places order quantities are
// rounded to before being placed, matching the lot-size granularity a
// strategy's position sizing works in throughout this engine.
const QtyPrecision int32 = 4

// RoundDecimal rounds a decimal to a specific number of decimal places.
// Strategies use this to snap a computed order quantity to QtyPrecision.
func RoundDecimal(d decimal.Decimal, places int32) decimal.Decimal {
	return d.Round(places)
}

// MinDecimal returns the minimum of two decimals. Shared by the candle
// aggregator's bucket folding and the matching engine's candle split.
func MinDecimal(a, b decimal.Decimal) decimal.Decimal {
	if a.LessThan(b) {
		return a
	}
	return b
}

// MaxDecimal returns the maximum of two decimals.
func MaxDecimal(a, b decimal.Decimal) decimal.Decimal {
	if a.GreaterThan(b) {
		return a
	}
	return b
}

// AbsDecimal returns the absolute value of a decimal. Used to size a
// position's order quantity off the magnitude of a signal, independent
// of its direction.
func AbsDecimal(d decimal.Decimal) decimal.Decimal {
	return d.Abs()
}

// PercentChange calculates the percentage change between two values,
// used by mean-reversion entries to measure a close's discount or
// premium against a reference price such as VWAP.
func PercentChange(oldValue, newValue decimal.Decimal) decimal.Decimal {
	if oldValue.IsZero() {
		return decimal.Zero
	}
	return newValue.Sub(oldValue).Div(oldValue).Mul(decimal.NewFromInt(100))
}

// StandardDeviation calculates the standard deviation of a slice of
// decimals; Bollinger Bands call this per rolling window rather than
// hand-rolling the variance sum themselves.
func StandardDeviation(values []decimal.Decimal) decimal.Decimal {
	if len(values) == 0 {
		return decimal.Zero
	}

	// Calculate mean
	sum := decimal.Zero
	for _, v := range values {
		sum = sum.Add(v)
	}
	mean := sum.Div(decimal.NewFromInt(int64(len(values))))

	// Calculate variance
	variance := 0.0
	for _, v := range values {
		diff, _ := v.Sub(mean).Float64()
		variance += diff * diff
	}
	variance /= float64(len(values))

	return decimal.NewFromFloat(math.Sqrt(variance))
}

// ClampDecimal clamps a decimal value between min and max; a strategy
// uses it to keep a signal-scaled order quantity inside its risk bounds.
func ClampDecimal(value, min, max decimal.Decimal) decimal.Decimal {
	if value.LessThan(min) {
		return min
	}
	if value.GreaterThan(max) {
		return max
	}
	return value
}

// LerpDecimal performs linear interpolation between two decimals, used
// to scale an order's quantity between a minimum and maximum size by
// how strong the signal that triggered it was.
func LerpDecimal(a, b decimal.Decimal, t float64) decimal.Decimal {
	tDecimal := decimal.NewFromFloat(t)
	return a.Add(b.Sub(a).Mul(tDecimal))
}

// IsWithinRange checks if a value is within a range (inclusive); a
// momentum strategy uses this to skip entries while RSI sits in a
// neutral band with no directional edge.
func IsWithinRange(value, min, max decimal.Decimal) bool {
	return value.GreaterThanOrEqual(min) && value.LessThanOrEqual(max)
}
