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
	DataDir             string // Base directory for databases and staged artifacts (always absolute)
	DatasetPath         string // Historical trade dataset (CSV)
	ExportsModelPath    string // Pre-trained exports model artifact
	ImportsModelPath    string // Pre-trained imports model artifact
	BalanceModelPath    string // Pre-trained trade balance model artifact
	DefaultHorizon      int    // Forecast horizon preselected in the UI
	HistoryFromYear     int    // First year of history shown on charts
	RunLogRetentionDays int    // Days of forecast run history to keep
	LogLevel            string
	Port                int
	DevMode             bool
	ArtifactSync        *ArtifactSyncConfig
}

// ArtifactSyncConfig holds the optional object-storage sync configuration.
// When Bucket is empty the sync service is disabled and artifacts are only
// ever read from local disk.
type ArtifactSyncConfig struct {
	Endpoint        string // S3-compatible endpoint URL (empty = AWS default resolution)
	Bucket          string
	Prefix          string // Key prefix under which model artifacts are published
	AccessKeyID     string
	SecretAccessKey string
	Region          string
}

// Enabled reports whether artifact sync is configured.
func (c *ArtifactSyncConfig) Enabled() bool {
	return c != nil && c.Bucket != ""
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	// Determine data directory:
	// 1. Check NERACA_DATA_DIR environment variable
	// 2. If not set, default to ./data
	// 3. Always resolve to absolute path
	// 4. Ensure directory exists
	dataDir := getEnv("NERACA_DATA_DIR", "")
	if dataDir == "" {
		dataDir = "./data"
	}

	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}

	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	cfg := &Config{
		DataDir:             absDataDir,
		DatasetPath:         getEnv("NERACA_DATASET", filepath.Join(absDataDir, "data_ekspor_impor.csv")),
		ExportsModelPath:    getEnv("NERACA_MODEL_EKSPOR", filepath.Join(absDataDir, "model_ekspor.msgpack")),
		ImportsModelPath:    getEnv("NERACA_MODEL_IMPOR", filepath.Join(absDataDir, "model_impor.msgpack")),
		BalanceModelPath:    getEnv("NERACA_MODEL_NERACA", filepath.Join(absDataDir, "model_neraca.msgpack")),
		DefaultHorizon:      getEnvAsInt("NERACA_DEFAULT_HORIZON", 12),
		HistoryFromYear:     getEnvAsInt("NERACA_HISTORY_FROM_YEAR", 2020),
		RunLogRetentionDays: getEnvAsInt("NERACA_RUNLOG_RETENTION_DAYS", 90),
		Port:                getEnvAsInt("NERACA_PORT", 8080),
		DevMode:             getEnvAsBool("DEV_MODE", false),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		ArtifactSync:        loadArtifactSyncConfig(),
	}

	// Validate required fields
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if required configuration is present
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	if c.RunLogRetentionDays < 0 {
		return fmt.Errorf("run log retention must not be negative: %d", c.RunLogRetentionDays)
	}
	// Dataset and model paths are not stat'ed here: loaders surface missing
	// files per request, the server still starts without them.
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

// loadArtifactSyncConfig loads object-storage sync configuration.
// Sync stays disabled unless a bucket is configured.
func loadArtifactSyncConfig() *ArtifactSyncConfig {
	return &ArtifactSyncConfig{
		Endpoint:        getEnv("NERACA_S3_ENDPOINT", ""),
		Bucket:          getEnv("NERACA_S3_BUCKET", ""),
		Prefix:          getEnv("NERACA_S3_PREFIX", "artifacts/"),
		AccessKeyID:     getEnv("NERACA_S3_ACCESS_KEY_ID", ""),
		SecretAccessKey: getEnv("NERACA_S3_SECRET_ACCESS_KEY", ""),
		Region:          getEnv("NERACA_S3_REGION", "auto"),
	}
}
