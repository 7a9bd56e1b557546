package journal

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func TestRecordOpenCloseBuildsTrade(t *testing.T) {
	j := New()
	start := time.Unix(0, 0)
	j.RecordOpen("r1", "binance", "BTC-USDT", "buy", dec("100"), dec("1"), start)
	j.RecordClose("r1", dec("110"), dec("10"), "signal", start.Add(time.Hour))

	trades := j.Trades()
	if len(trades) != 1 {
		t.Fatalf("expected 1 trade, got %d", len(trades))
	}
	tr := trades[0]
	if !tr.EntryPrice.Equal(dec("100")) || !tr.ExitPrice.Equal(dec("110")) || !tr.PnL.Equal(dec("10")) {
		t.Errorf("trade fields = %+v, unexpected", tr)
	}
}

func TestComputeEmptySession(t *testing.T) {
	m := New().Compute()
	if m.TotalTrades != 0 || m.Sharpe != 0 {
		t.Errorf("empty session metrics should be zero, got %+v", m)
	}
}

func TestComputeWinRateAndProfitFactor(t *testing.T) {
	j := New()
	base := time.Unix(0, 0)
	j.RecordOpen("r1", "binance", "BTC-USDT", "buy", dec("100"), dec("1"), base)
	j.RecordClose("r1", dec("110"), dec("10"), "signal", base.Add(time.Hour))
	j.RecordOpen("r1", "binance", "BTC-USDT", "buy", dec("110"), dec("1"), base.Add(2*time.Hour))
	j.RecordClose("r1", dec("105"), dec("-5"), "signal", base.Add(3*time.Hour))

	m := j.Compute()
	if m.TotalTrades != 2 || m.WinningTrades != 1 || m.LosingTrades != 1 {
		t.Fatalf("unexpected trade counts: %+v", m)
	}
	if !m.ProfitFactor.Equal(dec("2")) {
		t.Errorf("ProfitFactor = %s, want 2", m.ProfitFactor)
	}
}

func TestMaxDrawdownAndSharpeFromBalanceSeries(t *testing.T) {
	j := New()
	base := time.Unix(0, 0)
	balances := []string{"1000", "1100", "900", "1200", "1150"}
	for i, b := range balances {
		j.RecordBalance(base.AddDate(0, 0, i), dec(b))
	}
	j.RecordOpen("r1", "binance", "BTC-USDT", "buy", dec("100"), dec("1"), base)
	j.RecordClose("r1", dec("110"), dec("10"), "signal", base.Add(time.Hour))

	m := j.Compute()
	if m.MaxDrawdown.IsZero() {
		t.Error("expected nonzero max drawdown across a series with a dip")
	}
	// Sharpe should be computable (nonzero variance) without panicking on
	// division by zero.
	_ = m.Sharpe
}

func TestOmegaRatioAllGains(t *testing.T) {
	got := omegaRatio([]float64{0.01, 0.02, 0.03}, 0)
	if got != 0 {
		t.Errorf("omega with zero losses should be the documented zero sentinel, got %f", got)
	}
}
