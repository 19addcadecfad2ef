// Package config loads runtime settings from the environment and an optional .env file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// Config holds application configuration
type Config struct {
	DBPath    string          // SQLite event store file, always absolute
	DailyRate decimal.Decimal // interest charged per day on outstanding principal
	LogLevel  string
	LogPretty bool
	Port      int
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	dbPath := getEnv("LEDGER_DB_PATH", "")
	if dbPath == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve working directory: %w", err)
		}
		dbPath = filepath.Join(cwd, "db.sqlite3")
	}
	absDBPath, err := filepath.Abs(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve database path: %w", err)
	}

	rate, err := decimal.NewFromString(getEnv("LEDGER_DAILY_RATE", "0.00035"))
	if err != nil {
		return nil, fmt.Errorf("invalid LEDGER_DAILY_RATE: %w", err)
	}

	cfg := &Config{
		DBPath:    absDBPath,
		DailyRate: rate,
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogPretty: getEnvAsBool("LOG_PRETTY", true),
		Port:      getEnvAsInt("PORT", 8080),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the loaded values are usable
func (c *Config) Validate() error {
	if !c.DailyRate.IsPositive() {
		return fmt.Errorf("daily rate must be positive, got %s", c.DailyRate)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("port out of range: %d", c.Port)
	}
	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
