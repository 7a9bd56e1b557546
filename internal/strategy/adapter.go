package strategy

import (
	"github.com/constantine-labs/backtest/internal/candle"
	"github.com/constantine-labs/backtest/internal/engineerr"
	"github.com/constantine-labs/backtest/internal/hyperparam"
	"github.com/constantine-labs/backtest/internal/matching"
)

// Context is the read-only view of a route's market and position state
// a Strategy's lifecycle hooks are invoked with. Strategies never see
// the still-forming 1m candle directly — Store only ever contains
// closed bars of the route's own timeframe, matching the adapter
// contract in the component this package implements.
type Context struct {
	RouteID  string
	Store    *candle.Store
	Position *matching.Position
	Book     *matching.OrderBook
	HP       hyperparam.Set
}

// Strategy is the contract user-authored trading logic implements.
// BeforeExecute/Execute/Terminate are the three points the adapter
// calls into. Decisions such as opening or flattening a position are
// made by the strategy itself from inside Execute (the built-in
// strategies use their own unexported helpers for this); the adapter
// never makes them.
type Strategy interface {
	Name() string
	Hyperparameters() []hyperparam.Spec
	// HyperparameterRules reports whether a decoded Set is a valid
	// combination worth simulating at all; returning false lets the
	// optimizer skip the simulation and assign a zero score directly.
	HyperparameterRules(hp hyperparam.Set) bool
	// DNA returns a fixed DNA string to run a single predetermined
	// hyperparameter point outside of optimization; an empty string
	// means "use defaults or an externally supplied Set".
	DNA() string

	Init(ctx *Context)
	BeforeExecute(ctx *Context)
	Execute(ctx *Context)
	Terminate(ctx *Context)
}

// Factory constructs a fresh Strategy instance by name. Registering
// strategies through a factory keyed by name replaces the source
// framework's dynamic class lookup with a static, reflection-free
// registry.
type Factory func() Strategy

var registry = make(map[string]Factory)

// Register adds a strategy factory under name. Call from an init()
// function in the package defining the strategy.
func Register(name string, factory Factory) {
	registry[name] = factory
}

// New instantiates a registered strategy by name, or reports ok=false
// if no factory was registered under that name.
func New(name string) (Strategy, bool) {
	factory, ok := registry[name]
	if !ok {
		return nil, false
	}
	return factory(), true
}

// Adapter wires one route's Strategy instance to its hyperparameters
// and drives its lifecycle hooks from the simulator's tick loop.
type Adapter struct {
	Strategy Strategy
	ctx      *Context
}

// NewAdapter resolves hyperparameters for strategy (from an explicit
// Set if given, else the strategy's own DNA string, else grid
// defaults) and returns an Adapter ready to drive its lifecycle.
func NewAdapter(routeID string, s Strategy, store *candle.Store, position *matching.Position, book *matching.OrderBook, override *hyperparam.Set) (*Adapter, error) {
	hp, err := resolveHyperparameters(s, override)
	if err != nil {
		return nil, err
	}
	if !s.HyperparameterRules(hp) {
		return nil, engineerr.New(engineerr.OpStrategy, routeID, engineerr.ErrInvalidDNA)
	}
	ctx := &Context{RouteID: routeID, Store: store, Position: position, Book: book, HP: hp}
	s.Init(ctx)
	return &Adapter{Strategy: s, ctx: ctx}, nil
}

func resolveHyperparameters(s Strategy, override *hyperparam.Set) (hyperparam.Set, error) {
	if override != nil {
		return *override, nil
	}
	specs := s.Hyperparameters()
	if dna := s.DNA(); dna != "" {
		return hyperparam.Decode(specs, dna)
	}
	values := make(hyperparam.Values, len(specs))
	for _, spec := range specs {
		values[spec.Name] = spec.Default
	}
	return hyperparam.Set{Specs: specs, Values: values}, nil
}

// Execute calls BeforeExecute then Execute, invoked by the simulator
// exactly once per route on every tick where that route's timeframe
// boundary closes.
func (a *Adapter) Execute() {
	a.Strategy.BeforeExecute(a.ctx)
	a.Strategy.Execute(a.ctx)
}

// Terminate flushes any pending strategy state at session end.
func (a *Adapter) Terminate() {
	a.Strategy.Terminate(a.ctx)
}
