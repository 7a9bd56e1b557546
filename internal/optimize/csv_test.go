package optimize

import (
	"math"
	"testing"

	"github.com/constantine-labs/backtest/internal/hyperparam"
)

func TestResultStoreRecordAndLoad(t *testing.T) {
	specs := testSpecs()
	dir := t.TempDir()

	store, err := NewResultStore(dir, "ema_cross-binance-BTC-USDT-5m-genetic", specs)
	if err != nil {
		t.Fatalf("NewResultStore: %v", err)
	}
	dna, _ := hyperparam.Encode(specs, hyperparam.Values{"fast_period": 5, "slow_period": 20})
	store.Record(Candidate{DNA: dna, Score: 0.42, Scored: true})

	unscoredDNA, _ := hyperparam.Encode(specs, hyperparam.Values{"fast_period": 10, "slow_period": 30})
	store.Record(Candidate{DNA: unscoredDNA, Scored: false})
	if err := store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	loaded, err := LoadExisting(dir, "ema_cross-binance-BTC-USDT-5m-genetic", specs)
	if err != nil {
		t.Fatalf("LoadExisting: %v", err)
	}

	scored, ok := loaded[dna]
	if !ok {
		t.Fatal("expected scored candidate to round-trip")
	}
	if !scored.Scored || math.Abs(scored.Score-0.42) > 1e-9 {
		t.Errorf("loaded candidate = %+v, want Scored=true Score=0.42", scored)
	}

	unscored, ok := loaded[unscoredDNA]
	if !ok {
		t.Fatal("expected unscored candidate to round-trip")
	}
	if unscored.Scored {
		t.Error("unscored candidate loaded as Scored=true")
	}
}

func TestLoadExistingMissingFileReturnsEmpty(t *testing.T) {
	loaded, err := LoadExisting(t.TempDir(), "does-not-exist", testSpecs())
	if err != nil {
		t.Fatalf("LoadExisting: %v", err)
	}
	if len(loaded) != 0 {
		t.Errorf("expected empty map for a missing study file, got %d entries", len(loaded))
	}
}
