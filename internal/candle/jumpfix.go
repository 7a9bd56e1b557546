package candle

// FixJump repairs a gapped one-minute candle in place: when the price
// has jumped between bars so that cur's open doesn't equal prev's
// close, cur's open is pulled to prev's close and cur's high/low are
// widened just enough to keep including the corrected open. This is
// the symmetric form: it never biases the correction toward the
// direction of the jump, it only makes the two candles continuous.
//
// Ported from the canonical form in the reference implementation this
// module replaces (a directional variant exists elsewhere in that
// lineage but produces a biased high/low and is intentionally not used
// here).
func FixJump(prev, cur *Candle) {
	if cur.Open.Equal(prev.Close) {
		return
	}
	cur.Open = prev.Close
	if prev.Close.LessThan(cur.Low) {
		cur.Low = prev.Close
	}
	if prev.Close.GreaterThan(cur.High) {
		cur.High = prev.Close
	}
}
