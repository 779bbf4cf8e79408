package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// Config holds application configuration
type Config struct {
	DatabasePath    string
	HistoryDir      string
	SymbolsCSVPath  string
	SymbolSuffix    string
	Exchange        string
	IndexSymbols    []string
	InitialCash     decimal.Decimal
	RefreshSchedule string
	LogLevel        string
	Port            int
	DevMode         bool
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	initialCash, err := decimal.NewFromString(getEnv("INITIAL_CASH", "100000"))
	if err != nil {
		return nil, fmt.Errorf("INITIAL_CASH is not a valid amount: %w", err)
	}

	cfg := &Config{
		Port:            getEnvAsInt("PORT", 8001),
		DevMode:         getEnvAsBool("DEV_MODE", false),
		DatabasePath:    getEnv("DATABASE_PATH", "./data/portfolio.db"),
		HistoryDir:      getEnv("HISTORY_DIR", "./data/history"),
		SymbolsCSVPath:  getEnv("SYMBOLS_CSV_PATH", "./nse_stocks.csv"),
		SymbolSuffix:    getEnv("SYMBOL_SUFFIX", ".NS"),
		Exchange:        getEnv("EXCHANGE", "NSE"),
		IndexSymbols:    []string{getEnv("INDEX_SYMBOL_1", "^NSEI"), getEnv("INDEX_SYMBOL_2", "^BSESN")},
		InitialCash:     initialCash,
		RefreshSchedule: getEnv("REFRESH_SCHEDULE", "@every 5m"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if required configuration is present
func (c *Config) Validate() error {
	if c.DatabasePath == "" {
		return fmt.Errorf("DATABASE_PATH is required")
	}

	if c.InitialCash.IsNegative() {
		return fmt.Errorf("INITIAL_CASH must not be negative")
	}

	// Note: symbols CSV is optional - autocomplete degrades without it

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
