package optimize

import (
	"math"
	"testing"

	"github.com/constantine-labs/backtest/internal/journal"
)

func TestScoreFloorsBelowTradeThreshold(t *testing.T) {
	m := journal.Metrics{TotalTrades: 3, Sharpe: 4}
	if got := Score(m, 50, RatioSharpe); got != epsilonScore {
		t.Errorf("Score = %v, want epsilon floor %v", got, epsilonScore)
	}
}

func TestScoreFloorsOnNonPositiveRatio(t *testing.T) {
	m := journal.Metrics{TotalTrades: 50, Sharpe: -1}
	if got := Score(m, 50, RatioSharpe); got != epsilonScore {
		t.Errorf("Score = %v, want epsilon floor for a non-positive ratio", got)
	}
}

func TestScoreCapsEffectRateAtOne(t *testing.T) {
	m := journal.Metrics{TotalTrades: 1_000_000, Sharpe: 5}
	got := Score(m, 50, RatioSharpe)
	want := 1.0 * normalize(5, -0.5, 5)
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("Score = %v, want %v (effect rate clamped to 1)", got, want)
	}
}

func TestScoreUsesRatioKindRange(t *testing.T) {
	m := journal.Metrics{TotalTrades: 50, Calmar: 15}
	got := Score(m, 50, RatioCalmar)
	effectRate := math.Log10(50) / math.Log10(50)
	want := effectRate * normalize(15, -0.5, 30)
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("Score(calmar) = %v, want %v", got, want)
	}
}

func TestNormalizeClamps(t *testing.T) {
	if normalize(-10, -0.5, 5) != 0 {
		t.Error("normalize should clamp below range to 0")
	}
	if normalize(100, -0.5, 5) != 1 {
		t.Error("normalize should clamp above range to 1")
	}
}
