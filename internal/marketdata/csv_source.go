package marketdata

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/constantine-labs/backtest/internal/candle"
	"github.com/constantine-labs/backtest/internal/engineerr"
	"github.com/shopspring/decimal"
)

// CSVCandleSource loads historical candles from a directory of
// per-(exchange,symbol) CSV files named "<exchange>-<symbol>.csv",
// supporting the multi-route shape this engine needs. Expected columns:
// timestamp,open,high,low,close,volume. Timestamp accepts Unix seconds,
// Unix milliseconds, or RFC3339.
type CSVCandleSource struct {
	Dir string
}

// Load reads the CSV file for exchange/symbol and returns every candle
// in [start, finish), sorted ascending by timestamp.
func (c CSVCandleSource) Load(_ context.Context, exchange, symbol string, start, finish time.Time) ([]candle.Candle, error) {
	path := fmt.Sprintf("%s/%s-%s.csv", c.Dir, exchange, symbol)
	f, err := os.Open(path)
	if err != nil {
		return nil, engineerr.New(engineerr.OpLoadCandles, path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	header, err := reader.Read()
	if err != nil {
		return nil, engineerr.New(engineerr.OpLoadCandles, path, err)
	}
	if _, numErr := strconv.ParseFloat(header[1], 64); numErr == nil {
		// first row was data, not a header — rewind and read it too.
		if _, err := f.Seek(0, io.SeekStart); err != nil {
			return nil, engineerr.New(engineerr.OpLoadCandles, path, err)
		}
		reader = csv.NewReader(f)
	}

	var candles []candle.Candle
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, engineerr.New(engineerr.OpLoadCandles, path, err)
		}
		if len(record) < 6 {
			continue
		}
		bar, err := parseRecord(record)
		if err != nil {
			continue
		}
		if bar.Timestamp.Before(start) || !bar.Timestamp.Before(finish) {
			continue
		}
		candles = append(candles, bar)
	}

	sort.Slice(candles, func(i, j int) bool { return candles[i].Timestamp.Before(candles[j].Timestamp) })
	return candles, nil
}

func parseRecord(record []string) (candle.Candle, error) {
	ts, err := parseTimestamp(record[0])
	if err != nil {
		return candle.Candle{}, err
	}
	open, err := decimal.NewFromString(record[1])
	if err != nil {
		return candle.Candle{}, fmt.Errorf("invalid open: %w", err)
	}
	high, err := decimal.NewFromString(record[2])
	if err != nil {
		return candle.Candle{}, fmt.Errorf("invalid high: %w", err)
	}
	low, err := decimal.NewFromString(record[3])
	if err != nil {
		return candle.Candle{}, fmt.Errorf("invalid low: %w", err)
	}
	closeP, err := decimal.NewFromString(record[4])
	if err != nil {
		return candle.Candle{}, fmt.Errorf("invalid close: %w", err)
	}
	volume, err := decimal.NewFromString(record[5])
	if err != nil {
		return candle.Candle{}, fmt.Errorf("invalid volume: %w", err)
	}
	return candle.Candle{Timestamp: ts, Open: open, High: high, Low: low, Close: closeP, Volume: volume}, nil
}

func parseTimestamp(s string) (time.Time, error) {
	if ts, err := strconv.ParseInt(s, 10, 64); err == nil {
		if ts > 10_000_000_000 {
			return time.UnixMilli(ts).UTC(), nil
		}
		return time.Unix(ts, 0).UTC(), nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	for _, layout := range []string{"2006-01-02 15:04:05", "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unable to parse timestamp %q", s)
}
