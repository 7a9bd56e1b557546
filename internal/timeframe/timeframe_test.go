package timeframe

import "testing"

func TestToMinutes(t *testing.T) {
	cases := map[string]int{
		"1m":  1,
		"5m":  5,
		"1h":  60,
		"4h":  240,
		"1D":  1440,
		"7h":  420,
		"45m": 45,
	}
	for label, want := range cases {
		got, err := ToMinutes(label)
		if err != nil {
			t.Fatalf("ToMinutes(%q): unexpected error: %v", label, err)
		}
		if got != want {
			t.Errorf("ToMinutes(%q) = %d, want %d", label, got, want)
		}
	}
}

func TestToMinutesInvalid(t *testing.T) {
	for _, label := range []string{"", "m", "0m", "-5h", "5x", "abc"} {
		if _, err := ToMinutes(label); err == nil {
			t.Errorf("ToMinutes(%q): expected error, got nil", label)
		}
	}
}

func TestDividesDay(t *testing.T) {
	if !DividesDay(60) {
		t.Error("60 should divide a 1440-minute day")
	}
	if DividesDay(420) {
		t.Error("420 (7h) should not divide a 1440-minute day")
	}
}

func TestIsBucketClose(t *testing.T) {
	if !IsBucketClose(59, 60) {
		t.Error("minute 59 should close a 60-minute bucket")
	}
	if IsBucketClose(58, 60) {
		t.Error("minute 58 should not close a 60-minute bucket")
	}
	// 7h (420m) does not divide the day; the last minute of the day
	// must still close the open bucket even though it isn't a multiple
	// of 420.
	if !IsBucketClose(1439, 420) {
		t.Error("last minute of day must close a non-dividing bucket")
	}
}

func TestMinSkip(t *testing.T) {
	got := MinSkip([]int{1, 5, 60})
	if got != 1 {
		t.Errorf("MinSkip([1,5,60]) = %d, want 1", got)
	}
	got = MinSkip([]int{5, 15, 60})
	if got != 5 {
		t.Errorf("MinSkip([5,15,60]) = %d, want 5", got)
	}
}

func TestMinSkipEmpty(t *testing.T) {
	if got := MinSkip(nil); got != 1 {
		t.Errorf("MinSkip(nil) = %d, want 1", got)
	}
}
