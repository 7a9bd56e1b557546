package optimize

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/constantine-labs/backtest/internal/engineerr"
	"github.com/constantine-labs/backtest/internal/hyperparam"
	"github.com/constantine-labs/backtest/internal/obslog"
	"github.com/constantine-labs/backtest/internal/telemetry"
)

// StudyName builds the canonical study identifier
// `strategy-exchange-symbol-timeframe-algorithm` (GLOSSARY "Study"),
// used both as the CSV filename stem and the broker's task routing key.
func StudyName(route RouteSpec, algo Algorithm) string {
	return fmt.Sprintf("%s-%s-%s-%s-%s", route.StrategyName, route.Exchange, route.Symbol, route.Timeframe, algo)
}

// Dispatcher submits one simulation Task and blocks for its Result.
// The search loops in this package are transport-agnostic: a Dispatcher
// can be the in-process pool in pool.go (tests, single-machine runs)
// or internal/broker's Redis-backed queue (distributed runs).
type Dispatcher interface {
	Dispatch(ctx context.Context, task Task) (Result, error)
}

// Coordinator runs a hyperparameter search for one study and persists
// every candidate it evaluates to a ResultStore.
type Coordinator struct {
	Study        string
	Specs        []hyperparam.Spec
	Rules        HyperparameterRules
	OptimalTotal int
	RatioKind    RatioKind
	Dispatcher   Dispatcher
	Store        *ResultStore
	Rng          *rand.Rand
	Metrics      *telemetry.Metrics

	log *obslog.Logger
}

// NewCoordinator builds a Coordinator. rng may be nil, in which case a
// time-independent seed of 1 is used — callers that need varied runs
// across processes should pass their own seeded *rand.Rand.
func NewCoordinator(study string, specs []hyperparam.Spec, rules HyperparameterRules, optimalTotal int, ratioKind RatioKind, dispatcher Dispatcher, store *ResultStore, rng *rand.Rand) *Coordinator {
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}
	return &Coordinator{
		Study: study, Specs: specs, Rules: rules, OptimalTotal: optimalTotal,
		RatioKind: ratioKind, Dispatcher: dispatcher, Store: store, Rng: rng,
		log: obslog.Component("optimize").WithFields(map[string]any{"study": study}),
	}
}

// score resolves one DNA string to a scored Candidate: invalid
// combinations (per Rules) are assigned score 0 without ever being
// dispatched (spec §4.6 step 3); everything else goes to the worker
// pool. Every candidate, dispatched or not, is recorded to the study
// CSV before returning.
func (c *Coordinator) score(ctx context.Context, dna string) (Candidate, error) {
	if c.Rules != nil {
		set, err := hyperparam.Decode(c.Specs, dna)
		if err != nil {
			return Candidate{}, engineerr.New(engineerr.OpScore, dna, err)
		}
		if !c.Rules(set) {
			cand := Candidate{DNA: dna, Score: 0, Scored: true}
			c.Metrics.RecordCandidate(c.Study, "rules_rejected")
			c.Store.Record(cand)
			return cand, nil
		}
	}

	res, err := c.Dispatcher.Dispatch(ctx, Task{StudyName: c.Study, DNA: dna})
	if err != nil {
		return Candidate{}, engineerr.New(engineerr.OpDispatchTask, dna, err)
	}

	cand := Candidate{DNA: dna, Score: res.Score, Scored: res.Err == ""}
	if res.Err != "" {
		c.log.WithFields(map[string]any{"dna": dna, "error": res.Err}).Warn("candidate simulation failed")
		c.Metrics.RecordCandidate(c.Study, "sim_error")
	} else {
		c.Metrics.RecordCandidate(c.Study, "scored")
		c.Metrics.ObserveCandidateScore(c.Study, string(c.RatioKind), cand.Score)
	}
	c.Store.Record(cand)
	return cand, nil
}
