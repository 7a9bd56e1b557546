package broker

import (
	"context"
	"time"

	"github.com/constantine-labs/backtest/internal/optimize"
	"github.com/constantine-labs/backtest/internal/telemetry"
)

// Dispatcher adapts a Broker to optimize.Dispatcher, letting a
// Coordinator's search loops submit tasks over Redis transparently in
// place of the in-process LocalPool.
type Dispatcher struct {
	broker  *Broker
	Metrics *telemetry.Metrics
}

// NewDispatcher wraps broker as an optimize.Dispatcher.
func NewDispatcher(broker *Broker) Dispatcher {
	return Dispatcher{broker: broker}
}

// Dispatch submits task and waits for its result. A broker-level error
// (timeout, a worker's caught simulation failure) is reported back as a
// failed Result rather than propagated, matching the coordinator's
// contract that a bad candidate never aborts the search.
func (d Dispatcher) Dispatch(ctx context.Context, task optimize.Task) (optimize.Result, error) {
	started := time.Now()
	score, err := d.broker.Submit(ctx, task.StudyName, task.DNA)
	d.Metrics.RecordDispatch("broker", time.Since(started), err)
	if err != nil {
		return optimize.Result{DNA: task.DNA, Err: err.Error()}, nil
	}
	return optimize.Result{DNA: task.DNA, Score: score}, nil
}

// WorkerLoop is the long-running process side of the broker exchange:
// it continuously pops tasks and runs them against a single pinned
// WorkerRuntime, reporting each result back. This unifies the
// original's separate `init_worker`/`run_worker` Celery tasks into one
// loop, since a Go process's own main function is the natural place to
// preload candle data once and then loop, with no task-queue framework
// required to get a long-lived worker.
func WorkerLoop(ctx context.Context, b *Broker, runtime *optimize.WorkerRuntime, popTimeout time.Duration) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		msg, ok, err := b.Pop(ctx, popTimeout)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}

		score, runErr := runtime.Run(ctx, msg.DNA)
		if runErr != nil {
			_ = b.ReportResult(ctx, msg.ID, 0, runErr.Error())
			continue
		}
		if err := b.ReportResult(ctx, msg.ID, score, ""); err != nil {
			return err
		}
	}
}
