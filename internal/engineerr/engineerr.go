// Package engineerr provides the wrapped-error idiom used across the
// simulation and optimization engine: every error is tagged with the
// Operation that produced it and optionally a Target identifying which
// route, order, or worker was involved.
package engineerr

import (
	"errors"
	"fmt"
)

// Operation identifies the stage of the engine that produced an error.
type Operation string

const (
	OpConfig        Operation = "config"
	OpLoadCandles   Operation = "load_candles"
	OpStoreCandles  Operation = "store_candles"
	OpAggregate     Operation = "aggregate_candle"
	OpPlaceOrder    Operation = "place_order"
	OpCancelOrder   Operation = "cancel_order"
	OpExecuteOrder  Operation = "execute_order"
	OpLiquidate     Operation = "liquidate_position"
	OpSimulate      Operation = "simulate"
	OpStrategy      Operation = "run_strategy"
	OpScore         Operation = "score_candidate"
	OpDispatchTask  Operation = "dispatch_task"
	OpWorkerRun     Operation = "worker_run"
	OpBroker        Operation = "broker"
	OpPersistResult Operation = "persist_result"
)

// EngineError carries an Operation, an optional Target (a route ID,
// order ID, or worker ID), and the underlying error.
type EngineError struct {
	Op     Operation
	Target string
	Err    error
}

// Error implements the error interface.
func (e *EngineError) Error() string {
	if e == nil {
		return ""
	}
	if e.Target != "" {
		return fmt.Sprintf("%s %s: %v", e.Op, e.Target, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

// Unwrap returns the wrapped error.
func (e *EngineError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// New wraps err with an Operation and Target. Returns nil if err is nil.
// If err is already an *EngineError, it is returned unchanged rather
// than double-wrapped.
func New(op Operation, target string, err error) error {
	if err == nil {
		return nil
	}
	var ee *EngineError
	if errors.As(err, &ee) {
		return err
	}
	return &EngineError{Op: op, Target: target, Err: err}
}

// Sentinel errors checked with errors.Is across packages.
var (
	// ErrTerminated is returned by any blocking engine operation when
	// its context is canceled cooperatively (a run was stopped, a
	// worker task timed out).
	ErrTerminated = errors.New("engine: terminated")
	// ErrInsufficientData signals a route's candle series doesn't yet
	// have enough history for the operation requested (e.g. an
	// indicator warmup window).
	ErrInsufficientData = errors.New("engine: insufficient candle data")
	// ErrRouteNotFound is returned when an order or signal references a
	// route ID the router doesn't know about.
	ErrRouteNotFound = errors.New("engine: route not found")
	// ErrPositionNotOpen is returned when an operation requires an open
	// position (closing, checking liquidation) but none exists.
	ErrPositionNotOpen = errors.New("engine: position not open")
	// ErrInvalidDNA signals a hyperparameter DNA string that doesn't
	// decode against the strategy's search space.
	ErrInvalidDNA = errors.New("engine: invalid DNA string")
)
