package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/constantine-labs/backtest/internal/candle"
	"github.com/constantine-labs/backtest/internal/engineerr"
	"github.com/constantine-labs/backtest/internal/obslog"
	"github.com/redis/go-redis/v9"
)

// RedisCache wraps a CandleRepository with a Redis-backed cache keyed
// on (exchange, symbol, start, finish), mirroring the original's
// redis_load/redis_save pickle cache but with a JSON payload and an
// explicit TTL instead of an unbounded key.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	next   CandleRepository
	log    *obslog.Logger
}

// NewRedisCache wraps next with a Redis cache of the given TTL.
func NewRedisCache(client *redis.Client, ttl time.Duration, next CandleRepository) *RedisCache {
	return &RedisCache{
		client: client,
		ttl:    ttl,
		next:   next,
		log:    obslog.Component("marketdata.cache"),
	}
}

func cacheKey(exchange, symbol string, start, finish time.Time) string {
	return fmt.Sprintf("constantine:candles:%s:%s:%d:%d", exchange, symbol, start.Unix(), finish.Unix())
}

// Load returns the cached candle series for (exchange, symbol, start,
// finish) if present; otherwise it loads from next, caches the result,
// and returns it.
func (c *RedisCache) Load(ctx context.Context, exchange, symbol string, start, finish time.Time) ([]candle.Candle, error) {
	key := cacheKey(exchange, symbol, start, finish)

	raw, err := c.client.Get(ctx, key).Bytes()
	if err == nil {
		var candles []candle.Candle
		if jsonErr := json.Unmarshal(raw, &candles); jsonErr == nil {
			c.log.Debug("cache hit", "key", key, "candles", len(candles))
			return candles, nil
		}
	} else if err != redis.Nil {
		c.log.WithError(err).Warn("cache read failed, falling through", "key", key)
	}

	candles, err := c.next.Load(ctx, exchange, symbol, start, finish)
	if err != nil {
		return nil, err
	}

	if raw, err := json.Marshal(candles); err == nil {
		if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
			c.log.WithError(err).Warn("cache write failed", "key", key)
		}
	}
	return candles, nil
}

// Store delegates to next and invalidates nothing: callers that mutate
// the underlying repository are expected to use a fresh time range, so
// existing cache entries for unrelated ranges remain valid.
func (c *RedisCache) Store(ctx context.Context, exchange, symbol string, candles []candle.Candle) error {
	return engineerr.New(engineerr.OpStoreCandles, symbol, c.next.Store(ctx, exchange, symbol, candles))
}
