// Package router holds the portfolio of (exchange, symbol, timeframe)
// routes a simulation trades, and the per-route candle series derived
// from it.
package router

import (
	"fmt"

	"github.com/constantine-labs/backtest/internal/candle"
	"github.com/constantine-labs/backtest/internal/timeframe"
)

// Route identifies one tradable instrument at one timeframe. A single
// exchange+symbol pair may appear in more than one Route at different
// timeframes; each gets its own strategy instance and candle series.
type Route struct {
	ID        string
	Exchange  string
	Symbol    string
	Timeframe string
	Strategy  string // registered strategy factory name
}

func (r Route) String() string {
	return fmt.Sprintf("%s-%s-%s-%s", r.Exchange, r.Symbol, r.Timeframe, r.Strategy)
}

// Minutes resolves the route's timeframe label to minutes, panicking if
// the label is invalid. Routes are validated at Table construction time
// so this is always safe afterward.
func (r Route) Minutes() int {
	return timeframe.MustToMinutes(r.Timeframe)
}

// Series bundles a route with the candle aggregator and store that feed
// its strategy.
type Series struct {
	Route      Route
	Store      *candle.Store
	aggregator *candle.Aggregator
}

// Feed pushes one jump-fixed one-minute candle through the series'
// aggregator, appending to the store whenever a bar closes, and reports
// the closed bar if one did.
func (s *Series) Feed(c candle.Candle) (candle.Candle, bool) {
	closed, ok := s.aggregator.Feed(c)
	if ok {
		s.Store.Append(closed)
	}
	return closed, ok
}

// Table is the routed portfolio for one simulation run: every
// (exchange, symbol) group shares its 1m feed but keeps independent
// aggregators per timeframe, exactly mirroring how a single exchange
// candle stream fans out to every timeframe a user has routed.
type Table struct {
	routes []Route
	series map[string]*Series // route ID -> series
	byPair map[string][]string // "exchange:symbol" -> route IDs sharing that 1m feed
}

// NewTable builds a routing table from a list of routes, validating
// that route IDs are unique and timeframe labels parse. Capacity sets
// the candle store capacity for every route (0 uses the package
// default).
func NewTable(routes []Route, capacity int) (*Table, error) {
	t := &Table{
		series: make(map[string]*Series, len(routes)),
		byPair: make(map[string][]string),
	}
	for _, r := range routes {
		if r.ID == "" {
			return nil, fmt.Errorf("router: route for %s has no ID", r)
		}
		if _, exists := t.series[r.ID]; exists {
			return nil, fmt.Errorf("router: duplicate route ID %q", r.ID)
		}
		agg, err := candle.NewAggregator(r.Timeframe)
		if err != nil {
			return nil, fmt.Errorf("router: route %q: %w", r.ID, err)
		}
		t.series[r.ID] = &Series{
			Route:      r,
			Store:      candle.NewStore(capacity),
			aggregator: agg,
		}
		t.routes = append(t.routes, r)
		pairKey := r.Exchange + ":" + r.Symbol
		t.byPair[pairKey] = append(t.byPair[pairKey], r.ID)
	}
	return t, nil
}

// Routes returns every route in the table, in the order given to
// NewTable.
func (t *Table) Routes() []Route {
	return t.routes
}

// Series returns the series for a route ID, or nil if unknown.
func (t *Table) Series(routeID string) *Series {
	return t.series[routeID]
}

// RoutesForPair returns the route IDs that share a given exchange+symbol
// 1-minute feed.
func (t *Table) RoutesForPair(exchange, symbol string) []string {
	return t.byPair[exchange+":"+symbol]
}

// TimeframeMinutes returns the distinct timeframe-in-minutes values
// across all routes.
func (t *Table) TimeframeMinutes() []int {
	seen := make(map[int]bool)
	var out []int
	for _, r := range t.routes {
		m := r.Minutes()
		if !seen[m] {
			seen[m] = true
			out = append(out, m)
		}
	}
	return out
}
