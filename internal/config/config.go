// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	DataDir            string // Base directory for the results database (always absolute)
	Port               int    // HTTP listen port
	LogLevel           string // debug, info, warn, error
	DevMode            bool   // Pretty console logging, verbose diagnostics
	Workers            int    // Worker goroutines for partition/sweep fan-out (0 = NumCPU)
	PartitionPolicy    string // "exhaustive" or "heuristic"
	MaxExhaustiveModes int    // Oscillator count above which exhaustive search is refused
	PhiSampleEvery     int    // Evaluate Phi every N integration steps along a trajectory
}

// Load reads configuration from the environment. A .env file in the working
// directory is honored when present but is never required.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		DataDir:            getEnv("QPHI_DATA_DIR", "./data"),
		Port:               getEnvInt("QPHI_PORT", 8090),
		LogLevel:           getEnv("QPHI_LOG_LEVEL", "info"),
		DevMode:            getEnvBool("QPHI_DEV_MODE", false),
		Workers:            getEnvInt("QPHI_WORKERS", 0),
		PartitionPolicy:    getEnv("QPHI_PARTITION_POLICY", "exhaustive"),
		MaxExhaustiveModes: getEnvInt("QPHI_MAX_EXHAUSTIVE_MODES", 12),
		PhiSampleEvery:     getEnvInt("QPHI_PHI_SAMPLE_EVERY", 10),
	}

	absDataDir, err := filepath.Abs(cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data dir to absolute path: %w", err)
	}
	cfg.DataDir = absDataDir

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks configuration invariants before anything starts.
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level %q", c.LogLevel)
	}
	switch c.PartitionPolicy {
	case "exhaustive", "heuristic":
	default:
		return fmt.Errorf("invalid partition policy %q (want exhaustive or heuristic)", c.PartitionPolicy)
	}
	if c.MaxExhaustiveModes < 1 {
		return fmt.Errorf("max exhaustive modes must be >= 1, got %d", c.MaxExhaustiveModes)
	}
	if c.PhiSampleEvery < 1 {
		return fmt.Errorf("phi sample interval must be >= 1, got %d", c.PhiSampleEvery)
	}
	return nil
}

// ResultsDBPath returns the path of the sweep results database.
func (c *Config) ResultsDBPath() string {
	return filepath.Join(c.DataDir, "results.db")
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}
