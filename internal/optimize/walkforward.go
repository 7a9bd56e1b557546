package optimize

import (
	"context"
	"time"
)

// WalkForwardWindow is one disjoint train/test split of a walk-forward
// run.
type WalkForwardWindow struct {
	TrainStart, TrainEnd time.Time
	TestStart, TestEnd   time.Time
}

// WalkForwardWindows generates the train/test window sequence driven
// by trainMonths/testMonths/incMonths, using time.AddDate for the
// month shifting: starting at start, each window trains over
// trainMonths and tests over
// the following testMonths, then the whole window steps forward by
// incMonths, continuing until the test window would run past finish.
func WalkForwardWindows(start, finish time.Time, trainMonths, testMonths, incMonths int) []WalkForwardWindow {
	var windows []WalkForwardWindow
	trainStart := start
	for {
		trainEnd := trainStart.AddDate(0, trainMonths, 0)
		testEnd := trainEnd.AddDate(0, testMonths, 0)
		if testEnd.After(finish) {
			break
		}
		windows = append(windows, WalkForwardWindow{
			TrainStart: trainStart, TrainEnd: trainEnd,
			TestStart: trainEnd, TestEnd: testEnd,
		})
		trainStart = trainStart.AddDate(0, incMonths, 0)
	}
	return windows
}

// WalkForwardResult reports one window's in-sample selection and its
// out-of-sample score, the robustness signal a pure in-sample genetic
// search can't provide on its own.
type WalkForwardResult struct {
	Window         WalkForwardWindow
	Selected       Candidate
	OutOfSample    Candidate
}

// RunWalkForward drives one genetic search per window on c.Dispatcher,
// then rescores the window's winning DNA against testDispatcher. Both
// share this Coordinator's Rules/Store/Rng. The same two dispatchers
// serve every window: each window's bounds are recorded in its result
// but are not passed to either dispatcher, so the candles replayed are
// not restricted to the window's train or test range.
func (c *Coordinator) RunWalkForward(ctx context.Context, windows []WalkForwardWindow, cfg GeneticConfig, testDispatcher Dispatcher) ([]WalkForwardResult, error) {
	results := make([]WalkForwardResult, 0, len(windows))
	originalDispatcher := c.Dispatcher

	for _, w := range windows {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		c.Dispatcher = originalDispatcher
		selected, err := c.RunGenetic(ctx, cfg)
		if err != nil {
			return results, err
		}

		c.Dispatcher = testDispatcher
		outOfSample, err := c.score(ctx, selected.DNA)
		c.Dispatcher = originalDispatcher
		if err != nil {
			return results, err
		}

		results = append(results, WalkForwardResult{Window: w, Selected: selected, OutOfSample: outOfSample})
	}
	return results, nil
}
