// Package config loads environment-driven configuration for the
// backtest/optimization engine. Config *files* and a CLI scaffold are
// out of scope; this package only resolves env vars (optionally loaded
// from a local .env via godotenv) into a validated struct.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// StorageConfig configures the Postgres-backed candle repository and
// Redis-backed candle cache and task broker.
type StorageConfig struct {
	PostgresDSN  string
	RedisAddr    string
	RedisDB      int
	CacheTTLDays int
}

// EngineConfig aggregates runtime configuration for a simulation or
// optimization run.
type EngineConfig struct {
	Environment      string
	TelemetryAddr    string
	InitialBalance   decimal.Decimal
	CandleStoreCap   int
	WorkerCount      int
	WorkerTimeoutSec int
	Storage          StorageConfig
}

// Load reads a local .env file if present (ignored if missing — this is
// a convenience for local runs, not a requirement) then resolves
// EngineConfig from the environment and validates it.
func Load() (*EngineConfig, error) {
	_ = godotenv.Load()

	cfg := &EngineConfig{
		Environment:      getEnv("APP_ENV", "development"),
		TelemetryAddr:    getEnv("TELEMETRY_ADDR", ":9100"),
		InitialBalance:   getEnvDecimal("INITIAL_BALANCE", decimal.NewFromInt(10000)),
		CandleStoreCap:   getEnvInt("CANDLE_STORE_CAPACITY", 5000),
		WorkerCount:      getEnvInt("OPTIMIZE_WORKER_COUNT", 4),
		WorkerTimeoutSec: getEnvInt("OPTIMIZE_WORKER_TIMEOUT_SEC", 300),
		Storage: StorageConfig{
			PostgresDSN:  getEnv("CANDLE_REPOSITORY_DSN", ""),
			RedisAddr:    getEnv("REDIS_ADDR", "localhost:6379"),
			RedisDB:      getEnvInt("REDIS_DB", 0),
			CacheTTLDays: getEnvInt("CANDLE_CACHE_TTL_DAYS", 7),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *EngineConfig) validate() error {
	var problems []string

	if c.CandleStoreCap <= 0 {
		problems = append(problems, "CANDLE_STORE_CAPACITY must be positive")
	}
	if c.WorkerCount <= 0 {
		problems = append(problems, "OPTIMIZE_WORKER_COUNT must be positive")
	}
	if c.WorkerTimeoutSec <= 0 {
		problems = append(problems, "OPTIMIZE_WORKER_TIMEOUT_SEC must be positive")
	}
	if c.InitialBalance.IsNegative() {
		problems = append(problems, "INITIAL_BALANCE must not be negative")
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}
	return defaultValue
}

func getEnvDecimal(key string, defaultValue decimal.Decimal) decimal.Decimal {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if parsed, err := decimal.NewFromString(value); err == nil {
		return parsed
	}
	return defaultValue
}
