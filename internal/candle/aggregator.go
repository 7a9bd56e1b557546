package candle

import (
	"github.com/constantine-labs/backtest/internal/timeframe"
	"github.com/constantine-labs/backtest/pkg/utils"
)

// Aggregator folds a stream of one-minute candles into bars of a larger
// timeframe, including custom (non-divisor-of-day) timeframes whose
// final bucket of each UTC day is short rather than partial-filled with
// the next day's candles. Each Aggregator instance tracks exactly one
// (route, timeframe) pair; the CandleStore owns one per routed
// timeframe above 1m.
type Aggregator struct {
	minutes int
	open    bool
	bucket  Candle
	count   int
}

// NewAggregator creates an aggregator for the given timeframe label.
// Label "1m" is accepted but Feed always closes immediately, since no
// folding is needed.
func NewAggregator(label string) (*Aggregator, error) {
	minutes, err := timeframe.ToMinutes(label)
	if err != nil {
		return nil, err
	}
	return &Aggregator{minutes: minutes}, nil
}

// Feed ingests one already jump-fixed one-minute candle and reports the
// closed bar, if this candle closed one. Returns (bar, true) on close,
// (zero, false) otherwise.
func (a *Aggregator) Feed(c Candle) (Candle, bool) {
	if a.minutes <= 1 {
		return c, true
	}
	if !a.open {
		a.bucket = c
		a.open = true
		a.count = 1
	} else {
		a.bucket.High = utils.MaxDecimal(a.bucket.High, c.High)
		a.bucket.Low = utils.MinDecimal(a.bucket.Low, c.Low)
		a.bucket.Close = c.Close
		a.bucket.Volume = a.bucket.Volume.Add(c.Volume)
		a.count++
	}

	if timeframe.IsBucketClose(c.MinuteOfDay(), a.minutes) {
		closed := a.bucket
		a.open = false
		a.count = 0
		return closed, true
	}
	return Candle{}, false
}

// Merge folds a contiguous window of one-minute candles into a single
// bar spanning the window, used by the simulator to build the forming
// candle for a skip window and the temporary probe candle for the
// skip-ahead heuristic. Panics if candles is empty; callers always hold
// at least one minute to merge.
func Merge(candles []Candle) Candle {
	bar := candles[0]
	for _, c := range candles[1:] {
		bar.High = utils.MaxDecimal(bar.High, c.High)
		bar.Low = utils.MinDecimal(bar.Low, c.Low)
		bar.Close = c.Close
		bar.Volume = bar.Volume.Add(c.Volume)
	}
	return bar
}
