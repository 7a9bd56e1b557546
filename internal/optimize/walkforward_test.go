package optimize

import (
	"testing"
	"time"
)

func TestWalkForwardWindowsSteps(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	finish := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)

	windows := WalkForwardWindows(start, finish, 2, 1, 1)
	if len(windows) == 0 {
		t.Fatal("expected at least one walk-forward window")
	}
	for i, w := range windows {
		if !w.TrainEnd.Equal(w.TestStart) {
			t.Errorf("window %d: TrainEnd %v != TestStart %v", i, w.TrainEnd, w.TestStart)
		}
		if !w.TestEnd.After(w.TrainEnd) {
			t.Errorf("window %d: TestEnd must be after TrainEnd", i)
		}
		if w.TestEnd.After(finish) {
			t.Errorf("window %d: TestEnd %v exceeds finish %v", i, w.TestEnd, finish)
		}
	}
	if len(windows) > 1 {
		if !windows[1].TrainStart.Equal(windows[0].TrainStart.AddDate(0, 1, 0)) {
			t.Error("consecutive windows should step forward by incMonths")
		}
	}
}

func TestWalkForwardWindowsEmptyWhenRangeTooShort(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	finish := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	windows := WalkForwardWindows(start, finish, 2, 1, 1)
	if len(windows) != 0 {
		t.Errorf("expected no windows when the range is shorter than one train+test span, got %d", len(windows))
	}
}
