// Package simulator drives simulated time forward one minute at a
// time across every routed (exchange, symbol, timeframe) combination,
// coordinating the candle store, matching engine, and strategy adapter
// for each route, exactly mirroring the event ordering the original
// backtest engine this package replaces: 1m insert, matching engine,
// higher-timeframe aggregation, strategy execute, market-order drain.
package simulator

import (
	"context"
	"fmt"
	"time"

	"github.com/constantine-labs/backtest/internal/candle"
	"github.com/constantine-labs/backtest/internal/engineerr"
	"github.com/constantine-labs/backtest/internal/hyperparam"
	"github.com/constantine-labs/backtest/internal/journal"
	"github.com/constantine-labs/backtest/internal/matching"
	"github.com/constantine-labs/backtest/internal/obslog"
	"github.com/constantine-labs/backtest/internal/router"
	"github.com/constantine-labs/backtest/internal/strategy"
	"github.com/shopspring/decimal"
)

// RouteConfig is the per-route setup a caller supplies: which strategy
// drives the route, and the margin parameters its Position starts
// with.
type RouteConfig struct {
	Route              router.Route
	Strategy           strategy.Strategy
	Leverage           decimal.Decimal
	Mode               matching.PositionMode
	HyperparamOverride *hyperparam.Set
}

type routeState struct {
	route    router.Route
	series   *router.Series
	position *matching.Position
	book     *matching.OrderBook
	engine   *matching.Engine
	adapter  *strategy.Adapter
}

// Simulator is the master loop over simulated time. It holds the
// loaded 1m candle map, the routed portfolio, per-route matching state,
// and the session's trade journal.
type Simulator struct {
	table         *router.Table
	data          map[string][]candle.Candle // "exchange:symbol" -> full 1m series
	routes        map[string]*routeState
	routeOrder    []string
	balance       decimal.Decimal
	journal       *journal.Journal
	warmup        int
	minTFSkip     int
	lastRawByPair map[string]candle.Candle
	log           *obslog.Logger
}

// New builds a Simulator over a routing table, a 1m candle feed keyed
// by "exchange:symbol", and per-route strategy configuration.
// warmupMinutes candles are fed into every route's series before the
// matching engine or any strategy sees a single tick, so indicators
// have history on the first real decision point.
func New(table *router.Table, data map[string][]candle.Candle, initialBalance decimal.Decimal, configs []RouteConfig, warmupMinutes int) (*Simulator, error) {
	s := &Simulator{
		table:         table,
		data:          data,
		routes:        make(map[string]*routeState, len(configs)),
		balance:       initialBalance,
		journal:       journal.New(),
		warmup:        warmupMinutes,
		lastRawByPair: make(map[string]candle.Candle),
		log:           obslog.Component("simulator"),
	}

	var tfMinutes []int
	for _, cfg := range configs {
		series := table.Series(cfg.Route.ID)
		if series == nil {
			return nil, engineerr.New(engineerr.OpSimulate, cfg.Route.ID, engineerr.ErrRouteNotFound)
		}
		leverage := cfg.Leverage
		if leverage.IsZero() {
			leverage = decimal.NewFromInt(1)
		}
		position := matching.NewPosition(cfg.Route.ID, cfg.Route.Exchange, cfg.Route.Symbol, leverage, cfg.Mode)
		book := matching.NewOrderBook(cfg.Route.ID, position)
		routeID := cfg.Route.ID
		engine := matching.NewEngine(book, matching.Callbacks{
			OnOrderExecuted: func(o matching.Order, realized decimal.Decimal) { s.onFill(routeID, o, realized) },
			OnLiquidation: func(p matching.Position, o matching.Order, realized decimal.Decimal) {
				s.onLiquidation(routeID, p, o, realized)
			},
		})
		adapter, err := strategy.NewAdapter(cfg.Route.ID, cfg.Strategy, series.Store, position, book, cfg.HyperparamOverride)
		if err != nil {
			return nil, engineerr.New(engineerr.OpStrategy, cfg.Route.ID, err)
		}

		s.routes[cfg.Route.ID] = &routeState{
			route: cfg.Route, series: series, position: position,
			book: book, engine: engine, adapter: adapter,
		}
		s.routeOrder = append(s.routeOrder, cfg.Route.ID)

		if m := cfg.Route.Minutes(); m > 1 {
			tfMinutes = append(tfMinutes, m)
		}
	}
	s.minTFSkip = minSkip(tfMinutes)

	return s, nil
}

// Journal returns the session's accumulated trades and balance series,
// valid once Run has completed (or partially valid if Run returned an
// error partway through).
func (s *Simulator) Journal() *journal.Journal {
	return s.journal
}

func minSkip(tfMinutes []int) int {
	if len(tfMinutes) == 0 {
		return 1
	}
	out := make([]int, 0, len(tfMinutes))
	seen := make(map[int]bool)
	for _, m := range tfMinutes {
		if !seen[m] {
			seen[m] = true
			out = append(out, m)
		}
	}
	return gcdAll(out)
}

func gcdAll(values []int) int {
	result := values[0]
	for _, v := range values[1:] {
		result = gcd(result, v)
	}
	if result < 1 {
		return 1
	}
	return result
}

func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	if a < 0 {
		return -a
	}
	return a
}

// PairKey is the shared 1m feed key callers must use for the data map
// passed to New: "exchange:symbol".
func PairKey(exchange, symbol string) string {
	return exchange + ":" + symbol
}

// Run drives the simulation to completion or until ctx is canceled. It
// returns engineerr.ErrTerminated (wrapped) if ctx is canceled
// mid-session, after calling Terminate on every route's strategy so
// pending state is flushed the same way a normal end-of-session would.
func (s *Simulator) Run(ctx context.Context) error {
	totalMinutes := s.shortestSeriesLength()
	if totalMinutes <= s.warmup {
		return engineerr.New(engineerr.OpSimulate, "", engineerr.ErrInsufficientData)
	}

	s.runWarmup()

	i := s.warmup
	tickCount := 0
	for i < totalMinutes {
		tickCount++
		if tickCount%64 == 0 {
			select {
			case <-ctx.Done():
				s.terminateAll()
				return engineerr.New(engineerr.OpSimulate, "", fmt.Errorf("%w: %v", engineerr.ErrTerminated, ctx.Err()))
			default:
			}
		}

		skip := s.computeSkip(i, totalMinutes)
		s.tick(i, skip)

		if (i+skip)%1440 == 0 {
			s.recordDailyBalance(i + skip)
		}

		i += skip
	}

	s.terminateAll()
	s.recordDailyBalance(totalMinutes - 1)
	return nil
}

func (s *Simulator) shortestSeriesLength() int {
	shortest := -1
	for _, series := range s.data {
		if shortest == -1 || len(series) < shortest {
			shortest = len(series)
		}
	}
	if shortest == -1 {
		return 0
	}
	return shortest
}

// runWarmup feeds the first s.warmup one-minute candles of every pair
// through its routes' series (aggregation + store insert only), never
// touching the matching engine or any strategy, matching the
// with_execution=false, with_generation=false warmup contract.
func (s *Simulator) runWarmup() {
	for pair, series := range s.data {
		if s.warmup > len(series) {
			continue
		}
		window := series[:s.warmup]
		for _, raw := range window {
			fixed := s.fixJump(pair, raw)
			for _, routeID := range s.table.RoutesForPair(splitPair(pair)) {
				s.routes[routeID].series.Feed(fixed)
			}
		}
	}
}

func splitPair(pair string) (exchange, symbol string) {
	for i := 0; i < len(pair); i++ {
		if pair[i] == ':' {
			return pair[:i], pair[i+1:]
		}
	}
	return pair, ""
}

func (s *Simulator) fixJump(pair string, raw candle.Candle) candle.Candle {
	prev, ok := s.lastRawByPair[pair]
	fixed := raw
	if ok {
		candle.FixJump(&prev, &fixed)
	}
	s.lastRawByPair[pair] = fixed
	return fixed
}

func (s *Simulator) onFill(routeID string, o matching.Order, realized decimal.Decimal) {
	rs := s.routes[routeID]
	if o.Role == matching.RoleOpen {
		s.journal.RecordOpen(routeID, rs.position.Exchange, rs.position.Symbol, string(o.Side), o.FillPrice, o.Qty, o.ExecutedAt)
		return
	}
	s.journal.RecordClose(routeID, o.FillPrice, realized, "signal", o.ExecutedAt)
	s.balance = s.balance.Add(realized)
}

func (s *Simulator) onLiquidation(routeID string, p matching.Position, o matching.Order, realized decimal.Decimal) {
	s.journal.RecordLiquidation()
	s.journal.RecordClose(routeID, o.FillPrice, realized, "liquidation", o.ExecutedAt)
	s.balance = s.balance.Add(realized)
	s.log.Liquidation(map[string]any{"route": routeID, "bankruptcy_price": o.FillPrice.String(), "realized_pnl": realized.String()})
}

func (s *Simulator) terminateAll() {
	now := s.anyTimestamp(s.shortestSeriesLength() - 1)
	for _, routeID := range s.routeOrder {
		s.routes[routeID].adapter.Terminate()
		s.drainMarket(routeID, now)
	}
}

func (s *Simulator) drainMarket(routeID string, at time.Time) {
	rs := s.routes[routeID]
	for _, fill := range rs.book.DrainMarketOrders(at) {
		s.onFill(routeID, fill.Order, fill.RealizedPnL)
	}
}

func (s *Simulator) recordDailyBalance(i int) {
	if i < 0 {
		return
	}
	ts := s.anyTimestamp(i)
	equity := s.balance
	for _, rs := range s.routes {
		equity = equity.Add(rs.position.UnrealizedPnL())
	}
	s.journal.RecordBalance(ts, equity)
}

func (s *Simulator) anyTimestamp(i int) time.Time {
	for _, series := range s.data {
		if i < len(series) {
			return series[i].Timestamp
		}
	}
	return time.Time{}
}

// computeSkip applies the skip-ahead heuristic (§4.4.2): starting from
// minTFSkip (clipped so the window never crosses a UTC day boundary),
// halve the window until every route has at most one active order
// whose price falls inside the aggregated forming candle for that
// window, or until skip reaches 1.
func (s *Simulator) computeSkip(i, totalMinutes int) int {
	skip := s.minTFSkip
	if remaining := totalMinutes - i; skip > remaining {
		skip = remaining
	}
	if dayRemainder := 1440 - i%1440; skip > dayRemainder {
		skip = dayRemainder
	}
	if skip < 1 {
		skip = 1
	}

	for skip > 1 {
		if s.skipWindowIsSafe(i, skip) {
			break
		}
		skip /= 2
	}
	return skip
}

func (s *Simulator) skipWindowIsSafe(i, skip int) bool {
	for pair, series := range s.data {
		end := i + skip
		if end > len(series) {
			end = len(series)
		}
		if end <= i {
			continue
		}
		window := candle.Merge(series[i:end])
		for _, routeID := range s.table.RoutesForPair(splitPair(pair)) {
			if s.routes[routeID].book.CountInRange(window.Low, window.High) >= 2 {
				return false
			}
		}
	}
	return true
}

// tick applies skip one-minute candles, per pair, to every route
// sharing that pair: fix the jump against the last raw candle, run the
// matching engine against the merged forming candle, feed every
// underlying one-minute candle through the route's aggregator so
// higher timeframes close on schedule, execute the strategy when a
// route's own timeframe boundary closes, and drain market orders.
func (s *Simulator) tick(i, skip int) {
	for pair, series := range s.data {
		end := i + skip
		if end > len(series) {
			end = len(series)
		}
		if end <= i {
			continue
		}
		window := series[i:end]
		routeIDs := s.table.RoutesForPair(splitPair(pair))

		fixedWindow := make([]candle.Candle, len(window))
		for j, raw := range window {
			fixedWindow[j] = s.fixJump(pair, raw)
		}
		forming := candle.Merge(fixedWindow)

		for _, routeID := range routeIDs {
			s.routes[routeID].engine.SimulatePriceChange(forming)
		}

		for _, raw := range fixedWindow {
			for _, routeID := range routeIDs {
				rs := s.routes[routeID]
				if _, closed := rs.series.Feed(raw); closed {
					rs.adapter.Execute()
				}
			}
		}

		for _, routeID := range routeIDs {
			s.drainMarket(routeID, window[len(window)-1].Timestamp)
		}
	}
}
