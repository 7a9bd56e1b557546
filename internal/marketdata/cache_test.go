package marketdata

import (
	"testing"
	"time"
)

// RedisCache's Load/Store paths require a live Redis server, which
// isn't available as a Go test dependency here (no fake/in-memory
// redis.Client implementation exists in the reference pack, and
// fabricating one would defeat the point of using a real client). The
// key derivation is pure and worth covering directly.
func TestCacheKey_Deterministic(t *testing.T) {
	start := time.Unix(1700000000, 0)
	finish := time.Unix(1700003600, 0)

	a := cacheKey("binance", "BTC-USDT", start, finish)
	b := cacheKey("binance", "BTC-USDT", start, finish)
	if a != b {
		t.Errorf("cacheKey should be deterministic: %q != %q", a, b)
	}

	c := cacheKey("binance", "ETH-USDT", start, finish)
	if a == c {
		t.Errorf("cacheKey should differ across symbols")
	}
}
