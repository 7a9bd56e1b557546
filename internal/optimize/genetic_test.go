package optimize

import (
	"context"
	"testing"
	"time"

	"github.com/constantine-labs/backtest/internal/candle"
	"github.com/constantine-labs/backtest/internal/hyperparam"
	"github.com/constantine-labs/backtest/internal/matching"
	"github.com/constantine-labs/backtest/internal/router"
	_ "github.com/constantine-labs/backtest/internal/strategy" // registers "noop"/"ema_cross"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

type fakeLoader struct{ candles []candle.Candle }

func (f fakeLoader) Load(_ context.Context, _, _ string, _, _ time.Time) ([]candle.Candle, error) {
	return f.candles, nil
}

func flatThenRallySeries(flat, rally int, flatPrice, rallyStep string) []candle.Candle {
	v, _ := decimal.NewFromString(flatPrice)
	step, _ := decimal.NewFromString(rallyStep)
	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]candle.Candle, 0, flat+rally)
	for i := 0; i < flat; i++ {
		out = append(out, candle.Candle{Timestamp: ts, Open: v, High: v, Low: v, Close: v, Volume: decimal.NewFromInt(1)})
		ts = ts.Add(time.Minute)
	}
	price := v
	for i := 0; i < rally; i++ {
		price = price.Add(step)
		out = append(out, candle.Candle{Timestamp: ts, Open: price, High: price, Low: price, Close: price, Volume: decimal.NewFromInt(1)})
		ts = ts.Add(time.Minute)
	}
	return out
}

func TestWorkerRuntimeRunScoresZeroTradeSessionAtFloor(t *testing.T) {
	route := router.Route{ID: "r1", Exchange: "binance", Symbol: "BTC-USDT", Timeframe: "5m", Strategy: "noop"}
	rt := NewWorkerRuntime(WorkerConfig{
		Route: route, InitialBalance: decimal.NewFromInt(1000),
		Leverage: decimal.NewFromInt(1), Mode: matching.ModeIsolated,
		WarmupMinutes: 10, StoreCapacity: 100, OptimalTotal: 50, RatioKind: RatioSharpe,
	})
	require.NoError(t, rt.Init(context.Background(), fakeLoader{candles: flatThenRallySeries(60, 0, "100", "1")}, time.Time{}, time.Time{}))
	score, err := rt.Run(context.Background(), "")
	require.NoError(t, err)
	require.Equal(t, epsilonScore, score, "noop strategy session should score the epsilon floor")
}

func TestRunGeneticCompletesOverLocalPool(t *testing.T) {
	specs := testSpecs() // fast_period/slow_period, matches ema_cross
	route := router.Route{ID: "r1", Exchange: "binance", Symbol: "BTC-USDT", Timeframe: "1m", Strategy: "ema_cross"}
	candles := flatThenRallySeries(30, 200, "100", "0.5")

	runtimes := make([]*WorkerRuntime, 4)
	for i := range runtimes {
		rt := NewWorkerRuntime(WorkerConfig{
			Route: route, Specs: specs, InitialBalance: decimal.NewFromInt(1000),
			Leverage: decimal.NewFromInt(1), Mode: matching.ModeIsolated,
			WarmupMinutes: 15, StoreCapacity: 500, OptimalTotal: 50, RatioKind: RatioSharpe,
		})
		require.NoError(t, rt.Init(context.Background(), fakeLoader{candles: candles}, time.Time{}, time.Time{}))
		runtimes[i] = rt
	}

	pool := NewLocalPool(runtimes)
	defer pool.Close()

	dir := t.TempDir()
	store, err := NewResultStore(dir, "ema_cross-binance-BTC-USDT-1m-genetic", specs)
	require.NoError(t, err)
	defer store.Close()

	coord := NewCoordinator("ema_cross-binance-BTC-USDT-1m-genetic", specs, nil, 50, RatioSharpe, pool, store, nil)
	cfg := GeneticConfig{PopulationSize: 8, Generations: 2, SurvivorCount: 2, MutationRate: 0.2}

	best, err := coord.RunGenetic(context.Background(), cfg)
	require.NoError(t, err)
	require.Len(t, best.DNA, len(specs))
}

type panicDispatcher struct{}

func (panicDispatcher) Dispatch(context.Context, Task) (Result, error) {
	panic("dispatch should never be called for a rules-rejected candidate")
}

func TestCoordinatorSkipsDispatchOnRuleRejection(t *testing.T) {
	specs := testSpecs()
	dir := t.TempDir()
	store, err := NewResultStore(dir, "rule-reject", specs)
	require.NoError(t, err)
	defer store.Close()

	rejectAll := func(hyperparam.Set) bool { return false }
	coord := NewCoordinator("rule-reject", specs, rejectAll, 50, RatioSharpe, panicDispatcher{}, store, nil)

	dna, _ := RandomDNA(specs, coord.Rng)
	cand, err := coord.score(context.Background(), dna)
	require.NoError(t, err)
	require.Zero(t, cand.Score)
	require.True(t, cand.Scored)
}
