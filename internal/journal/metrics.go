package journal

import (
	"math"

	"github.com/constantine-labs/backtest/pkg/utils"
	"github.com/shopspring/decimal"
)

// daysPerYear is the annualization factor for return scaling. Crypto
// markets trade every day of the year, unlike the ~252 trading-day
// convention for equities.
const daysPerYear = 365.0

// Compute derives Metrics from the recorded trades and daily balance
// series. Sharpe/Sortino/Calmar/Omega are computed from day-over-day
// returns on the balance series; an empty or single-point series
// yields zero risk-adjusted ratios rather than dividing by zero.
func (j *Journal) Compute() Metrics {
	m := Metrics{
		TotalTrades:      len(j.trades),
		LiquidationCount: j.liquidationCount,
	}
	if len(j.trades) == 0 {
		return m
	}

	var totalProfit, totalLoss decimal.Decimal
	for _, t := range j.trades {
		m.TotalPnL = m.TotalPnL.Add(t.PnL)
		if t.PnL.GreaterThan(decimal.Zero) {
			m.WinningTrades++
			totalProfit = totalProfit.Add(t.PnL)
			if t.PnL.GreaterThan(m.LargestWin) {
				m.LargestWin = t.PnL
			}
		} else {
			m.LosingTrades++
			totalLoss = totalLoss.Add(t.PnL.Abs())
			if t.PnL.Abs().GreaterThan(m.LargestLoss) {
				m.LargestLoss = t.PnL.Abs()
			}
		}
	}
	m.WinRate = decimal.NewFromInt(int64(m.WinningTrades)).
		Div(decimal.NewFromInt(int64(m.TotalTrades))).Mul(decimal.NewFromInt(100))
	if !totalLoss.IsZero() {
		m.ProfitFactor = totalProfit.Div(totalLoss)
	}

	m.MaxDrawdown, m.MaxDrawdownPct = j.maxDrawdown()

	returns := j.dailyReturns()
	m.Sharpe = sharpeRatio(returns)
	m.Sortino = sortinoRatio(returns)
	m.Omega = omegaRatio(returns, 0)
	m.Calmar = calmarRatio(returns, m.MaxDrawdownPct)

	return m
}

func (j *Journal) maxDrawdown() (decimal.Decimal, decimal.Decimal) {
	var maxDD, maxDDPct decimal.Decimal
	if len(j.balances) == 0 {
		return maxDD, maxDDPct
	}
	peak := j.balances[0].Balance
	for _, p := range j.balances {
		peak = utils.MaxDecimal(peak, p.Balance)
		dd := peak.Sub(p.Balance)
		if dd.GreaterThan(maxDD) {
			maxDD = dd
			if !peak.IsZero() {
				maxDDPct = dd.Div(peak).Mul(decimal.NewFromInt(100))
			}
		}
	}
	return maxDD, maxDDPct
}

// dailyReturns converts the recorded balance series into day-over-day
// fractional returns, skipping any point following a zero balance to
// avoid a division by zero.
func (j *Journal) dailyReturns() []float64 {
	if len(j.balances) < 2 {
		return nil
	}
	returns := make([]float64, 0, len(j.balances)-1)
	for i := 1; i < len(j.balances); i++ {
		prev := j.balances[i-1].Balance
		if prev.IsZero() {
			continue
		}
		cur := j.balances[i].Balance
		r := cur.Sub(prev).Div(prev)
		returns = append(returns, r.InexactFloat64())
	}
	return returns
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

func stddev(xs []float64, mu float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	var sumSq float64
	for _, x := range xs {
		d := x - mu
		sumSq += d * d
	}
	return math.Sqrt(sumSq / float64(len(xs)-1))
}

// sharpeRatio is the annualized ratio of mean daily return to its
// standard deviation.
func sharpeRatio(returns []float64) float64 {
	if len(returns) < 2 {
		return 0
	}
	mu := mean(returns)
	sigma := stddev(returns, mu)
	if sigma == 0 {
		return 0
	}
	return mu / sigma * math.Sqrt(daysPerYear)
}

// sortinoRatio is the annualized ratio of mean daily return to the
// standard deviation of only its negative observations (downside
// deviation).
func sortinoRatio(returns []float64) float64 {
	if len(returns) < 2 {
		return 0
	}
	mu := mean(returns)
	var downside []float64
	for _, r := range returns {
		if r < 0 {
			downside = append(downside, r)
		}
	}
	if len(downside) < 2 {
		return 0
	}
	sigma := stddev(downside, 0)
	if sigma == 0 {
		return 0
	}
	return mu / sigma * math.Sqrt(daysPerYear)
}

// omegaRatio is the ratio of the sum of returns above threshold to the
// magnitude of the sum of returns below it. It returns 0 when no return
// falls below threshold (no losses to divide by).
func omegaRatio(returns []float64, threshold float64) float64 {
	var gains, losses float64
	for _, r := range returns {
		if r > threshold {
			gains += r - threshold
		} else {
			losses += threshold - r
		}
	}
	if losses == 0 {
		return 0
	}
	return gains / losses
}

// calmarRatio is the annualized mean return divided by the maximum
// drawdown percentage observed over the session.
func calmarRatio(returns []float64, maxDrawdownPct decimal.Decimal) float64 {
	if len(returns) == 0 || maxDrawdownPct.IsZero() {
		return 0
	}
	annualized := mean(returns) * daysPerYear * 100
	return annualized / maxDrawdownPct.InexactFloat64()
}
