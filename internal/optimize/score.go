package optimize

import (
	"math"

	"github.com/constantine-labs/backtest/internal/journal"
)

// epsilonScore is the score floor for a candidate that traded too
// little to be meaningful or whose chosen ratio came back non-positive
// (ported from the original optimizer's `score = 0.0001` fallback,
// refined per spec into a named constant rather than a magic number).
const epsilonScore = 0.0001

// minTradesForScoring is the trade count at or below which a session is
// considered statistically meaningless and scored at the floor without
// consulting its ratio at all.
const minTradesForScoring = 5

// ratioRanges bound each risk-adjusted ratio's linear normalization
// into [0,1].
var ratioRanges = map[RatioKind][2]float64{
	RatioSharpe:  {-0.5, 5},
	RatioCalmar:  {-0.5, 30},
	RatioSortino: {-0.5, 15},
	RatioOmega:   {-0.5, 5},
}

func normalize(value, lo, hi float64) float64 {
	if hi <= lo {
		return 0
	}
	n := (value - lo) / (hi - lo)
	if n < 0 {
		return 0
	}
	if n > 1 {
		return 1
	}
	return n
}

// RatioValue extracts the configured ratio out of a computed Metrics.
func RatioValue(kind RatioKind, m journal.Metrics) float64 {
	switch kind {
	case RatioCalmar:
		return m.Calmar
	case RatioSortino:
		return m.Sortino
	case RatioOmega:
		return m.Omega
	default:
		return m.Sharpe
	}
}

// Score computes `total_effect_rate * normalized_ratio` (spec §4.6) for
// a completed training session: total_effect_rate is a log-scaled
// reward for trade count capped at 1, normalized_ratio is the chosen
// risk-adjusted ratio linearly clamped into its declared range. Score
// floors at epsilonScore rather than 0 so a losing candidate still
// ranks above a rules-rejected or failed one (both carry score 0) in a
// sorted population.
func Score(m journal.Metrics, optimalTotal int, ratioKind RatioKind) float64 {
	if m.TotalTrades <= minTradesForScoring {
		return epsilonScore
	}
	ratio := RatioValue(ratioKind, m)
	if ratio <= 0 {
		return epsilonScore
	}

	bounds, ok := ratioRanges[ratioKind]
	if !ok {
		bounds = ratioRanges[RatioSharpe]
	}

	totalEffectRate := math.Log10(float64(m.TotalTrades)) / math.Log10(float64(optimalTotal))
	if totalEffectRate > 1 {
		totalEffectRate = 1
	}
	if totalEffectRate < 0 {
		totalEffectRate = 0
	}

	score := totalEffectRate * normalize(ratio, bounds[0], bounds[1])
	if score <= 0 {
		return epsilonScore
	}
	return score
}
