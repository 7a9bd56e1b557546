package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/constantine-labs/backtest/internal/candle"
	"github.com/constantine-labs/backtest/internal/config"
	"github.com/constantine-labs/backtest/internal/hyperparam"
	"github.com/constantine-labs/backtest/internal/journal"
	"github.com/constantine-labs/backtest/internal/marketdata"
	"github.com/constantine-labs/backtest/internal/matching"
	"github.com/constantine-labs/backtest/internal/router"
	"github.com/constantine-labs/backtest/internal/simulator"
	"github.com/constantine-labs/backtest/internal/strategy"
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
	dna         = flag.String("dna", "", "Hyperparameter DNA string (empty = strategy defaults)")

	startDate = flag.String("start", "", "Start date, YYYY-MM-DD (required)")
	finishDt  = flag.String("finish", "", "Finish date, YYYY-MM-DD (required)")

	initialCapital = flag.Float64("capital", 10000, "Initial balance for the simulation")
	leverage       = flag.Float64("leverage", 1, "Position leverage")
	crossMargin    = flag.Bool("cross", false, "Use cross-margin mode instead of isolated")
	warmup         = flag.Int("warmup-minutes", 0, "Warmup minutes before the strategy starts trading")
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

	ctx := context.Background()
	source, closeSource, err := buildCandleSource(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeSource()

	log.Printf("📂 Loading %s-%s candles...\n", *exchange, *symbol)
	candles, err := source.Load(ctx, *exchange, *symbol, start, finish)
	if err != nil {
		return fmt.Errorf("failed to load candle data: %w", err)
	}
	if len(candles) == 0 {
		return fmt.Errorf("no candle data loaded for %s-%s in [%s, %s)", *exchange, *symbol, *startDate, *finishDt)
	}
	log.Printf("✓ Loaded %d one-minute candles\n", len(candles))

	strat, ok := strategy.New(*strategyNm)
	if !ok {
		return fmt.Errorf("strategy %q is not registered", *strategyNm)
	}

	route := router.Route{
		ID:        fmt.Sprintf("%s-%s-%s-%s", *strategyNm, *exchange, *symbol, *timeframe),
		Exchange:  *exchange,
		Symbol:    *symbol,
		Timeframe: *timeframe,
		Strategy:  *strategyNm,
	}

	table, err := router.NewTable([]router.Route{route}, cfg.CandleStoreCap)
	if err != nil {
		return fmt.Errorf("failed to build router table: %w", err)
	}

	mode := matching.ModeIsolated
	if *crossMargin {
		mode = matching.ModeCross
	}

	routeConfig := simulator.RouteConfig{
		Route:    route,
		Strategy: strat,
		Leverage: decimal.NewFromFloat(*leverage),
		Mode:     mode,
	}
	if *dna != "" {
		hp, err := hyperparam.Decode(strat.Hyperparameters(), *dna)
		if err != nil {
			return fmt.Errorf("failed to decode -dna: %w", err)
		}
		routeConfig.HyperparamOverride = &hp
	}

	data := map[string][]candle.Candle{
		simulator.PairKey(*exchange, *symbol): candles,
	}

	sim, err := simulator.New(table, data, decimal.NewFromFloat(*initialCapital), []simulator.RouteConfig{routeConfig}, *warmup)
	if err != nil {
		return fmt.Errorf("failed to build simulator: %w", err)
	}

	log.Println("🚀 Running backtest...")
	startRun := time.Now()
	if err := sim.Run(ctx); err != nil {
		return fmt.Errorf("backtest failed: %w", err)
	}
	log.Printf("✓ Backtest completed in %s\n\n", time.Since(startRun).Round(time.Millisecond))

	metrics := sim.Journal().Compute()
	fmt.Println(journal.Report(metrics))

	return nil
}

// buildCandleSource resolves the CandleSource a run loads historical
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

func printBanner() {
	banner := `
╔═══════════════════════════════════════════════════════╗
║                                                       ║
║        CONSTANTINE BACKTEST ENGINE                    ║
║        Single-Route Simulation Runner                 ║
║                                                       ║
╚═══════════════════════════════════════════════════════╝
`
	fmt.Println(banner)
}
