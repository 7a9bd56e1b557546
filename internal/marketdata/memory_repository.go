package marketdata

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/constantine-labs/backtest/internal/candle"
)

// MemoryRepository is an in-process CandleRepository used in tests and
// in single-machine runs that don't need Postgres.
type MemoryRepository struct {
	mu   sync.Mutex
	data map[string][]candle.Candle
}

// NewMemoryRepository returns an empty MemoryRepository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{data: make(map[string][]candle.Candle)}
}

func pairKey(exchange, symbol string) string {
	return exchange + ":" + symbol
}

// Load returns every stored candle for (exchange, symbol) in
// [start, finish), ordered ascending by timestamp.
func (m *MemoryRepository) Load(_ context.Context, exchange, symbol string, start, finish time.Time) ([]candle.Candle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []candle.Candle
	for _, c := range m.data[pairKey(exchange, symbol)] {
		if c.Timestamp.Before(start) || !c.Timestamp.Before(finish) {
			continue
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out, nil
}

// Store appends candles for (exchange, symbol), replacing any existing
// entry at the same timestamp.
func (m *MemoryRepository) Store(_ context.Context, exchange, symbol string, candles []candle.Candle) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := pairKey(exchange, symbol)
	byTime := make(map[int64]candle.Candle, len(m.data[key]))
	for _, c := range m.data[key] {
		byTime[c.Timestamp.UnixNano()] = c
	}
	for _, c := range candles {
		byTime[c.Timestamp.UnixNano()] = c
	}

	merged := make([]candle.Candle, 0, len(byTime))
	for _, c := range byTime {
		merged = append(merged, c)
	}
	sort.Slice(merged, func(i, j int) bool { return merged[i].Timestamp.Before(merged[j].Timestamp) })
	m.data[key] = merged
	return nil
}
