package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/constantine-labs/backtest/internal/broker"
	"github.com/constantine-labs/backtest/internal/config"
	"github.com/constantine-labs/backtest/internal/marketdata"
	"github.com/constantine-labs/backtest/internal/matching"
	"github.com/constantine-labs/backtest/internal/optimize"
	"github.com/constantine-labs/backtest/internal/router"
	"github.com/constantine-labs/backtest/internal/strategy"
	"github.com/constantine-labs/backtest/internal/telemetry"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

var (
	dataDir     = flag.String("data-dir", "", "Directory of <exchange>-<symbol>.csv candle files (required unless -use-postgres)")
	usePostgres = flag.Bool("use-postgres", false, "Load candles from the Postgres repository (CANDLE_REPOSITORY_DSN) instead of CSV, caching through Redis if REDIS_ADDR is configured")
	exchange    = flag.String("exchange", "binance", "Exchange name")
	symbol      = flag.String("symbol", "BTC-USDT", "Trading symbol")
	timeframe   = flag.String("timeframe", "5m", "Route timeframe, e.g. 1m, 5m, 1h")
	strategyNm  = flag.String("strategy", "ema_cross", "Registered strategy name")
	gridPath    = flag.String("grid", "", "YAML hyperparameter grid override (empty = strategy defaults)")

	startDate = flag.String("start", "", "Start date, YYYY-MM-DD (required)")
	finishDt  = flag.String("finish", "", "Finish date, YYYY-MM-DD (required)")

	algo         = flag.String("algorithm", string(optimize.AlgorithmGenetic), "genetic|random|hill_climbing|simulated_annealing")
	ratio        = flag.String("ratio", string(optimize.RatioSharpe), "sharpe|calmar|sortino|omega")
	optimalTotal = flag.Int("optimal-total-trades", 60, "Trade count considered saturating for the trade-count reward")
	iterations   = flag.Int("iterations", 200, "Iteration budget for random/hill_climbing/simulated_annealing")

	initialCapital = flag.Float64("capital", 10000, "Initial balance for each simulated candidate")
	leverage       = flag.Float64("leverage", 1, "Position leverage")
	crossMargin    = flag.Bool("cross", false, "Use cross-margin mode instead of isolated")
	warmup         = flag.Int("warmup-minutes", 0, "Warmup minutes before a strategy starts trading")

	workerCount = flag.Int("workers", 0, "In-process worker goroutines (0 = use OPTIMIZE_WORKER_COUNT from config)")
	resultsDir  = flag.String("results-dir", "storage/optimize/csv", "Directory studies' CSV result files are written to")
	seed        = flag.Int64("seed", 1, "Search RNG seed")
	distributed = flag.Bool("distributed", false, "Dispatch tasks over the Redis broker instead of an in-process pool")
)

func main() {
	flag.Parse()

	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	printBanner()

	if (!*usePostgres && *dataDir == "") || *startDate == "" || *finishDt == "" {
		return fmt.Errorf("-data-dir (or -use-postgres), -start, and -finish are all required")
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	start, err := time.Parse("2006-01-02", *startDate)
	if err != nil {
		return fmt.Errorf("invalid -start: %w", err)
	}
	finish, err := time.Parse("2006-01-02", *finishDt)
	if err != nil {
		return fmt.Errorf("invalid -finish: %w", err)
	}

	strat, ok := strategy.New(*strategyNm)
	if !ok {
		return fmt.Errorf("strategy %q is not registered", *strategyNm)
	}

	specs := strat.Hyperparameters()
	if *gridPath != "" {
		log.Printf("📐 Loading hyperparameter grid override from %s\n", *gridPath)
		_, overrideSpecs, err := optimize.LoadGridConfig(*gridPath)
		if err != nil {
			return fmt.Errorf("failed to load grid config: %w", err)
		}
		specs = overrideSpecs
	}

	route := router.Route{
		ID:        fmt.Sprintf("%s-%s-%s-%s", *strategyNm, *exchange, *symbol, *timeframe),
		Exchange:  *exchange,
		Symbol:    *symbol,
		Timeframe: *timeframe,
		Strategy:  *strategyNm,
	}
	routeSpec := optimize.RouteSpec{StrategyName: *strategyNm, Exchange: *exchange, Symbol: *symbol, Timeframe: *timeframe}
	algorithm := optimize.Algorithm(*algo)
	study := optimize.StudyName(routeSpec, algorithm)

	mode := matching.ModeIsolated
	if *crossMargin {
		mode = matching.ModeCross
	}

	workerCfg := optimize.WorkerConfig{
		Route:          route,
		Specs:          specs,
		Rules:          strat.HyperparameterRules,
		InitialBalance: decimal.NewFromFloat(*initialCapital),
		Leverage:       decimal.NewFromFloat(*leverage),
		Mode:           mode,
		WarmupMinutes:  *warmup,
		StoreCapacity:  cfg.CandleStoreCap,
		OptimalTotal:   *optimalTotal,
		RatioKind:      optimize.RatioKind(*ratio),
	}

	store, err := optimize.NewResultStore(*resultsDir, study, specs)
	if err != nil {
		return fmt.Errorf("failed to open result store: %w", err)
	}
	defer store.Close()

	rng := rand.New(rand.NewSource(*seed))

	metrics := telemetry.NewMetrics()
	telemetryServer := telemetry.NewServer(cfg.TelemetryAddr, metrics)
	if telemetryServer != nil {
		if err := telemetryServer.Start(); err != nil {
			return fmt.Errorf("failed to start telemetry server: %w", err)
		}
		defer func() { _ = telemetryServer.Shutdown(context.Background()) }()
		log.Printf("📡 Telemetry listening on %s\n", cfg.TelemetryAddr)
	}
	workerCfg.Metrics = metrics

	ctx := context.Background()
	dispatcher, cleanup, err := buildDispatcher(ctx, cfg, workerCfg, start, finish, *distributed, metrics)
	if err != nil {
		return err
	}
	defer cleanup()

	coordinator := optimize.NewCoordinator(study, specs, strat.HyperparameterRules, *optimalTotal, optimize.RatioKind(*ratio), dispatcher, store, rng)
	coordinator.Metrics = metrics
	telemetryServer.SetReady(true)

	log.Printf("🚀 Running %s search for study %q...\n", algorithm, study)
	best, err := runAlgorithm(ctx, coordinator, algorithm, *optimalTotal, *iterations)
	if err != nil {
		return fmt.Errorf("optimization failed: %w", err)
	}

	log.Printf("✓ Best candidate: dna=%s score=%.4f\n", best.DNA, best.Score)
	return nil
}

// buildDispatcher wires either a local goroutine pool (pinning candle
// data once per worker) or a Redis-backed broker dispatcher, depending
// on -distributed. Both satisfy optimize.Dispatcher identically, so the
// coordinator's search loops never know which one they're using.
func buildDispatcher(ctx context.Context, cfg *config.EngineConfig, workerCfg optimize.WorkerConfig, start, finish time.Time, distributed bool, metrics *telemetry.Metrics) (optimize.Dispatcher, func(), error) {
	if distributed {
		client, err := broker.Connect(ctx, cfg.Storage.RedisAddr, cfg.Storage.RedisDB)
		if err != nil {
			return nil, func() {}, fmt.Errorf("failed to connect to redis broker: %w", err)
		}
		routeSpec := optimize.RouteSpec{StrategyName: workerCfg.Route.Strategy, Exchange: workerCfg.Route.Exchange, Symbol: workerCfg.Route.Symbol, Timeframe: workerCfg.Route.Timeframe}
		b := broker.New(client, optimize.StudyName(routeSpec, optimize.Algorithm(*algo)))
		dispatcher := broker.NewDispatcher(b)
		dispatcher.Metrics = metrics
		return dispatcher, func() {}, nil
	}

	source, closeSource, err := buildCandleSource(ctx, cfg)
	if err != nil {
		return nil, func() {}, err
	}

	n := *workerCount
	if n <= 0 {
		n = cfg.WorkerCount
	}
	runtimes := make([]*optimize.WorkerRuntime, n)
	for i := range runtimes {
		rt := optimize.NewWorkerRuntime(workerCfg)
		if err := rt.Init(ctx, source, start, finish); err != nil {
			closeSource()
			return nil, func() {}, fmt.Errorf("failed to init worker %d: %w", i, err)
		}
		runtimes[i] = rt
	}
	pool := optimize.NewLocalPool(runtimes)
	pool.Metrics = metrics
	return pool, func() { pool.Close(); closeSource() }, nil
}

// buildCandleSource resolves the CandleSource workers load historical
// candles from: CSV by default, or the Postgres repository (cached
// through Redis when configured) when -use-postgres is set. The
// returned cleanup closes whatever network connections were opened.
func buildCandleSource(ctx context.Context, cfg *config.EngineConfig) (marketdata.CandleSource, func(), error) {
	noop := func() {}
	if !*usePostgres {
		return marketdata.CSVCandleSource{Dir: *dataDir}, noop, nil
	}
	if cfg.Storage.PostgresDSN == "" {
		return nil, noop, fmt.Errorf("-use-postgres requires CANDLE_REPOSITORY_DSN to be set")
	}

	pool, err := pgxpool.New(ctx, cfg.Storage.PostgresDSN)
	if err != nil {
		return nil, noop, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	var repo marketdata.CandleRepository = marketdata.NewPostgresRepository(pool)

	if cfg.Storage.RedisAddr == "" {
		return repo, func() { pool.Close() }, nil
	}

	client := redis.NewClient(&redis.Options{Addr: cfg.Storage.RedisAddr, DB: cfg.Storage.RedisDB})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		pool.Close()
		return nil, noop, fmt.Errorf("failed to connect to redis cache: %w", err)
	}

	ttl := time.Duration(cfg.Storage.CacheTTLDays) * 24 * time.Hour
	cached := marketdata.NewRedisCache(client, ttl, repo)
	return cached, func() { pool.Close(); _ = client.Close() }, nil
}

func runAlgorithm(ctx context.Context, c *optimize.Coordinator, algorithm optimize.Algorithm, optimalTotal, iterations int) (optimize.Candidate, error) {
	switch algorithm {
	case optimize.AlgorithmGenetic:
		return c.RunGenetic(ctx, optimize.DefaultGeneticConfig(optimalTotal))
	case optimize.AlgorithmRandomSearch:
		return c.RunRandomSearch(ctx, iterations)
	case optimize.AlgorithmHillClimbing:
		return c.RunHillClimbing(ctx, optimize.HillClimbingConfig{Iterations: iterations, Restarts: 4})
	case optimize.AlgorithmSimulatedAnnealing:
		return c.RunSimulatedAnnealing(ctx, optimize.SimulatedAnnealingConfig{Iterations: iterations, InitialTemp: 1, CoolingRate: 0.95})
	default:
		return optimize.Candidate{}, fmt.Errorf("unsupported algorithm %q", algorithm)
	}
}

func printBanner() {
	banner := `
╔═══════════════════════════════════════════════════════╗
║                                                       ║
║        CONSTANTINE OPTIMIZATION COORDINATOR            ║
║        Hyperparameter Search Runner                    ║
║                                                       ║
╚═══════════════════════════════════════════════════════╝
`
	fmt.Println(banner)
}
