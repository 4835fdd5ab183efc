// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// CurrencyPair is an ordered currency pair tracked by the rate refresher.
// USD:BRL and BRL:USD are distinct pairs.
type CurrencyPair struct {
	From string
	To   string
}

func (p CurrencyPair) String() string {
	return p.From + ":" + p.To
}

// Config holds application configuration
type Config struct {
	DataDir      string // Base directory for the sqlite databases, always absolute
	Port         int
	LogLevel     string
	DevMode      bool
	BaseCurrency string         // Currency dashboard totals are reported in
	TrackedPairs []CurrencyPair // Pairs the scheduled refresher keeps fresh
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	dataDir := getEnv("FOLIO_DATA_DIR", "")
	if dataDir == "" {
		dataDir = "./data"
	}

	// Always resolve to absolute path
	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}

	// Ensure directory exists
	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	baseCurrency := strings.ToUpper(getEnv("FOLIO_BASE_CURRENCY", "BRL"))

	pairs, err := parsePairs(getEnv("FOLIO_TRACKED_PAIRS", defaultTrackedPairs(baseCurrency)))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		DataDir:      absDataDir,
		Port:         getEnvAsInt("FOLIO_PORT", 8080),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		DevMode:      getEnvAsBool("DEV_MODE", false),
		BaseCurrency: baseCurrency,
		TrackedPairs: pairs,
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if required configuration is present
func (c *Config) Validate() error {
	if len(c.BaseCurrency) != 3 {
		return fmt.Errorf("base currency must be a 3-letter code, got %q", c.BaseCurrency)
	}
	if len(c.TrackedPairs) == 0 {
		return fmt.Errorf("at least one tracked currency pair is required")
	}
	return nil
}

// defaultTrackedPairs covers the major currencies against the base currency,
// both directions, since stored rates are not symmetric.
func defaultTrackedPairs(base string) string {
	majors := []string{"USD", "EUR", "GBP", "CAD"}
	var parts []string
	for _, ccy := range majors {
		if ccy == base {
			continue
		}
		parts = append(parts, ccy+":"+base, base+":"+ccy)
	}
	return strings.Join(parts, ",")
}

// parsePairs parses "USD:BRL,EUR:BRL" into CurrencyPair values.
func parsePairs(raw string) ([]CurrencyPair, error) {
	var pairs []CurrencyPair
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		fields := strings.Split(part, ":")
		if len(fields) != 2 {
			return nil, fmt.Errorf("invalid currency pair %q, expected FROM:TO", part)
		}

		from := strings.ToUpper(strings.TrimSpace(fields[0]))
		to := strings.ToUpper(strings.TrimSpace(fields[1]))
		if len(from) != 3 || len(to) != 3 {
			return nil, fmt.Errorf("invalid currency pair %q, codes must be 3 letters", part)
		}
		if from == to {
			continue // identity pairs never need refreshing
		}

		pairs = append(pairs, CurrencyPair{From: from, To: to})
	}
	return pairs, nil
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
