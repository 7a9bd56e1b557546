package optimize

import (
	"context"
	"fmt"
	"time"

	"github.com/constantine-labs/backtest/internal/candle"
	"github.com/constantine-labs/backtest/internal/engineerr"
	"github.com/constantine-labs/backtest/internal/hyperparam"
	"github.com/constantine-labs/backtest/internal/matching"
	"github.com/constantine-labs/backtest/internal/obslog"
	"github.com/constantine-labs/backtest/internal/router"
	"github.com/constantine-labs/backtest/internal/simulator"
	"github.com/constantine-labs/backtest/internal/strategy"
	"github.com/constantine-labs/backtest/internal/telemetry"
	"github.com/shopspring/decimal"
)

// CandleLoader is the minimal data-loading contract WorkerRuntime needs
// to pin a route's 1m candle series into memory. internal/marketdata
// implements this; WorkerRuntime depends only on the interface so the
// optimizer core never has to import Postgres/Redis configuration.
type CandleLoader interface {
	Load(ctx context.Context, exchange, symbol string, start, finish time.Time) ([]candle.Candle, error)
}

// WorkerConfig supplies everything Init needs to pin one study's
// candle data into memory and everything Run needs to replay it.
type WorkerConfig struct {
	Route          router.Route
	Specs          []hyperparam.Spec
	Rules          HyperparameterRules
	InitialBalance decimal.Decimal
	Leverage       decimal.Decimal
	Mode           matching.PositionMode
	WarmupMinutes  int
	StoreCapacity  int
	OptimalTotal   int
	RatioKind      RatioKind
	Metrics        *telemetry.Metrics
}

// WorkerRuntime is a long-lived worker process (spec §4.7): it loads
// candle data for its one route exactly once via Init, then repeatedly
// resets all simulator state and re-runs a full simulation for each DNA
// string it's handed via Run.
type WorkerRuntime struct {
	route          router.Route
	strategyName   string
	specs          []hyperparam.Spec
	rules          HyperparameterRules
	data           map[string][]candle.Candle
	initialBalance decimal.Decimal
	leverage       decimal.Decimal
	mode           matching.PositionMode
	warmupMinutes  int
	storeCapacity  int
	optimalTotal   int
	ratioKind      RatioKind

	log     *obslog.Logger
	Metrics *telemetry.Metrics
}

// NewWorkerRuntime constructs a WorkerRuntime; call Init before the
// first Run.
func NewWorkerRuntime(cfg WorkerConfig) *WorkerRuntime {
	capacity := cfg.StoreCapacity
	if capacity <= 0 {
		capacity = 5000
	}
	return &WorkerRuntime{
		route: cfg.Route, strategyName: cfg.Route.Strategy, specs: cfg.Specs, rules: cfg.Rules,
		initialBalance: cfg.InitialBalance, leverage: cfg.Leverage, mode: cfg.Mode,
		warmupMinutes: cfg.WarmupMinutes, storeCapacity: capacity,
		optimalTotal: cfg.OptimalTotal, ratioKind: cfg.RatioKind, Metrics: cfg.Metrics,
		log: obslog.Component("optimize_worker").WithFields(map[string]any{"route": cfg.Route.ID}),
	}
}

// Init loads the route's one-minute candle series over [start,finish)
// through source and pins it in memory for the life of the worker —
// "load candle data for all routes once, keep pinned in memory."
func (w *WorkerRuntime) Init(ctx context.Context, source CandleLoader, start, finish time.Time) error {
	candles, err := source.Load(ctx, w.route.Exchange, w.route.Symbol, start, finish)
	if err != nil {
		return engineerr.New(engineerr.OpLoadCandles, w.route.ID, err)
	}
	w.data = map[string][]candle.Candle{
		simulator.PairKey(w.route.Exchange, w.route.Symbol): candles,
	}
	return nil
}

// Run resets all simulator state (orders, positions, trades, balance —
// by constructing a fresh Simulator rather than mutating a shared one,
// matching the original's store.reset() between candidates) and
// replays the pinned candle series under dna's decoded hyperparameter
// set, returning its score. Simulation failures are returned as an
// error rather than left to panic, so a dispatcher can record a failed
// Result and move on to the next candidate without losing the worker.
func (w *WorkerRuntime) Run(ctx context.Context, dna string) (float64, error) {
	started := time.Now()

	hp, err := hyperparam.Decode(w.specs, dna)
	if err != nil {
		return 0, engineerr.New(engineerr.OpWorkerRun, dna, err)
	}
	if w.rules != nil && !w.rules(hp) {
		return 0, nil
	}

	strat, ok := strategy.New(w.strategyName)
	if !ok {
		return 0, engineerr.New(engineerr.OpWorkerRun, dna, fmt.Errorf("strategy %q not registered", w.strategyName))
	}

	table, err := router.NewTable([]router.Route{w.route}, w.storeCapacity)
	if err != nil {
		return 0, engineerr.New(engineerr.OpWorkerRun, dna, err)
	}

	sim, err := simulator.New(table, w.data, w.initialBalance, []simulator.RouteConfig{
		{Route: w.route, Strategy: strat, Leverage: w.leverage, Mode: w.mode, HyperparamOverride: &hp},
	}, w.warmupMinutes)
	if err != nil {
		return 0, engineerr.New(engineerr.OpWorkerRun, dna, err)
	}

	if err := sim.Run(ctx); err != nil {
		w.Metrics.RecordSimulation(w.route.ID, false, time.Since(started), 0, 0)
		return 0, engineerr.New(engineerr.OpWorkerRun, dna, err)
	}

	metrics := sim.Journal().Compute()
	score := Score(metrics, w.optimalTotal, w.ratioKind)
	w.Metrics.RecordSimulation(w.route.ID, true, time.Since(started), metrics.TotalTrades, metrics.LiquidationCount)
	w.log.WithFields(map[string]any{"dna": dna, "total_trades": metrics.TotalTrades, "score": score}).Info("candidate scored")
	return score, nil
}
