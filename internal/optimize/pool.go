package optimize

import (
	"context"
	"sync"
	"time"

	"github.com/constantine-labs/backtest/internal/telemetry"
)

// LocalPool is an in-process Dispatcher backed by a fixed set of
// WorkerRuntime goroutines pulling from one shared task channel — the
// single-machine analog of internal/broker's distributed Redis queue.
// Tests and `cmd/optimize` without the -distributed flag use this
// directly.
type LocalPool struct {
	tasks chan localTask
	wg    sync.WaitGroup

	inFlightMu sync.Mutex
	inFlight   int
	Metrics    *telemetry.Metrics
}

type localTask struct {
	task Task
	resp chan localResponse
}

type localResponse struct {
	result Result
	err    error
}

// NewLocalPool starts one goroutine per runtime, each driving its own
// already-Init'd WorkerRuntime, all pulling from a shared task queue.
func NewLocalPool(runtimes []*WorkerRuntime) *LocalPool {
	p := &LocalPool{tasks: make(chan localTask)}
	for _, rt := range runtimes {
		p.wg.Add(1)
		go p.loop(rt)
	}
	return p
}

func (p *LocalPool) loop(rt *WorkerRuntime) {
	defer p.wg.Done()
	for t := range p.tasks {
		score, err := rt.Run(context.Background(), t.task.DNA)
		if err != nil {
			t.resp <- localResponse{result: Result{DNA: t.task.DNA, Err: err.Error()}}
			continue
		}
		t.resp <- localResponse{result: Result{DNA: t.task.DNA, Score: score}}
	}
}

// Dispatch submits task to whichever worker goroutine picks it up next
// and blocks for its result, or returns ctx.Err() if canceled first.
func (p *LocalPool) Dispatch(ctx context.Context, task Task) (Result, error) {
	started := time.Now()
	p.adjustInFlight(1)
	defer p.adjustInFlight(-1)

	resp := make(chan localResponse, 1)
	select {
	case p.tasks <- localTask{task: task, resp: resp}:
	case <-ctx.Done():
		p.Metrics.RecordDispatch("local", time.Since(started), ctx.Err())
		return Result{}, ctx.Err()
	}
	select {
	case r := <-resp:
		p.Metrics.RecordDispatch("local", time.Since(started), r.err)
		return r.result, r.err
	case <-ctx.Done():
		p.Metrics.RecordDispatch("local", time.Since(started), ctx.Err())
		return Result{}, ctx.Err()
	}
}

func (p *LocalPool) adjustInFlight(delta int) {
	p.inFlightMu.Lock()
	p.inFlight += delta
	n := p.inFlight
	p.inFlightMu.Unlock()
	p.Metrics.SetPoolInFlight("local", n)
}

// Close stops accepting new tasks and waits for in-flight runs to
// finish their current task.
func (p *LocalPool) Close() {
	close(p.tasks)
	p.wg.Wait()
}
