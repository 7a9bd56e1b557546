package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected config to load with defaults, got error: %v", err)
	}
	if cfg.CandleStoreCap != 5000 {
		t.Errorf("CandleStoreCap = %d, want default 5000", cfg.CandleStoreCap)
	}
	if cfg.WorkerCount != 4 {
		t.Errorf("WorkerCount = %d, want default 4", cfg.WorkerCount)
	}
}

func TestLoadRespectsEnvOverrides(t *testing.T) {
	t.Setenv("CANDLE_STORE_CAPACITY", "1000")
	t.Setenv("OPTIMIZE_WORKER_COUNT", "8")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.CandleStoreCap != 1000 {
		t.Errorf("CandleStoreCap = %d, want 1000", cfg.CandleStoreCap)
	}
	if cfg.WorkerCount != 8 {
		t.Errorf("WorkerCount = %d, want 8", cfg.WorkerCount)
	}
}

func TestLoadRejectsInvalidCapacity(t *testing.T) {
	t.Setenv("CANDLE_STORE_CAPACITY", "-5")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for negative candle store capacity")
	}
}

func TestLoadRejectsNegativeInitialBalance(t *testing.T) {
	t.Setenv("INITIAL_BALANCE", "-100")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for negative initial balance")
	}
}
