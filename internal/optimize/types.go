// Package optimize implements the hyperparameter search coordinator and
// worker runtime: it drives repeated simulations over the DNA-encoded
// grid a strategy declares, scores each completed session against a
// risk-adjusted ratio, and persists every (dna, score) pair to a study
// CSV.
package optimize

import (
	"github.com/constantine-labs/backtest/internal/hyperparam"
)

// Algorithm names a supported hyperparameter search strategy.
type Algorithm string

const (
	AlgorithmGenetic            Algorithm = "genetic"
	AlgorithmRandomSearch       Algorithm = "random"
	AlgorithmSimulatedAnnealing Algorithm = "simulated_annealing"
	AlgorithmHillClimbing       Algorithm = "hill_climbing"
	AlgorithmWalkForward        Algorithm = "walk_forward"
)

// RatioKind selects which risk-adjusted ratio a candidate is scored
// against.
type RatioKind string

const (
	RatioSharpe  RatioKind = "sharpe"
	RatioCalmar  RatioKind = "calmar"
	RatioSortino RatioKind = "sortino"
	RatioOmega   RatioKind = "omega"
)

// Candidate is one point in the hyperparameter grid, addressed by its
// DNA string, and the score assigned to it.
type Candidate struct {
	DNA string
	// Score is only meaningful when Scored is true.
	Score float64
	// Scored reports whether Score was ever assigned — false means a
	// dispatch failed or the candidate is still pending.
	Scored bool
}

// Task is one unit of dispatchable simulation work: run the strategy
// under study with this DNA-decoded hyperparameter set and report back
// a score.
type Task struct {
	StudyName string
	DNA       string
}

// Result is a completed Task's outcome. Err is non-empty when the
// worker caught a simulation failure; the coordinator records the
// candidate as unscored ("nan" in the study CSV) and the loop continues.
// A rules rejection, by contrast, is recorded as scored with score 0.
type Result struct {
	DNA   string
	Score float64
	Err   string
}

// RouteSpec names the single route a Coordinator/WorkerRuntime
// optimizes, mirroring the source framework's one-route-per-study
// restriction (spec §4.6).
type RouteSpec struct {
	StrategyName string
	Exchange     string
	Symbol       string
	Timeframe    string
}

// HyperparameterRules is the optional per-strategy gate a Coordinator
// consults before dispatching a candidate at all; it has the same shape
// as Strategy.HyperparameterRules from internal/strategy, so a
// strategy's method value can be passed in directly.
type HyperparameterRules func(hyperparam.Set) bool
