package marketdata

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/constantine-labs/backtest/internal/testutils"
)

func TestCSVCandleSource_Load(t *testing.T) {
	dir := t.TempDir()
	content := `timestamp,open,high,low,close,volume
1640995200,50000,51000,49000,50500,100
1640995260,50500,51500,49500,51000,150
1640995320,51000,52000,50000,51500,200`
	err := os.WriteFile(filepath.Join(dir, "binance-BTC-USDT.csv"), []byte(content), 0644)
	testutils.AssertNoError(t, err, "failed to write fixture")

	src := CSVCandleSource{Dir: dir}
	candles, err := src.Load(context.Background(), "binance", "BTC-USDT", time.Unix(0, 0), time.Unix(1700000000, 0))
	testutils.AssertNoError(t, err, "Load should succeed")
	testutils.AssertEqual(t, 3, len(candles), "should load 3 candles")
	testutils.AssertTrue(t, candles[0].Timestamp.Before(candles[1].Timestamp), "candles should be ascending")
}

func TestCSVCandleSource_Load_RangeFilter(t *testing.T) {
	dir := t.TempDir()
	content := `1640995200,50000,51000,49000,50500,100
1640995260,50500,51500,49500,51000,150
1640995320,51000,52000,50000,51500,200`
	err := os.WriteFile(filepath.Join(dir, "binance-BTC-USDT.csv"), []byte(content), 0644)
	testutils.AssertNoError(t, err, "failed to write fixture")

	src := CSVCandleSource{Dir: dir}
	candles, err := src.Load(context.Background(), "binance", "BTC-USDT", time.Unix(1640995260, 0), time.Unix(1640995320, 0))
	testutils.AssertNoError(t, err, "Load should succeed")
	testutils.AssertEqual(t, 1, len(candles), "range should exclude the first and last candle")
}

func TestCSVCandleSource_Load_MissingFile(t *testing.T) {
	src := CSVCandleSource{Dir: t.TempDir()}
	_, err := src.Load(context.Background(), "binance", "ETH-USDT", time.Unix(0, 0), time.Unix(1, 0))
	testutils.AssertError(t, err, "missing file should error")
}

func TestParseTimestamp_Formats(t *testing.T) {
	cases := []string{"1640995200", "1640995200000", "2022-01-01T12:00:00Z", "2022-01-01 12:00:00"}
	for _, c := range cases {
		if _, err := parseTimestamp(c); err != nil {
			t.Errorf("parseTimestamp(%q) failed: %v", c, err)
		}
	}
}

func TestParseTimestamp_Invalid(t *testing.T) {
	_, err := parseTimestamp("not-a-timestamp")
	testutils.AssertError(t, err, "invalid timestamp should error")
}
