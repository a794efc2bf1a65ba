package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	InputCSV           string
	DataDir            string
	CuratedDir         string
	StorePath          string
	PreCleanThreshold  float64
	PostCleanThreshold float64
}

// NewConfig loads configuration from environment variables
func NewConfig() *Config {
	// Load .env file (ignore error if file doesn't exist)
	_ = godotenv.Load()

	dataDir := getEnv("DATA_DIR", "./data")

	return &Config{
		InputCSV:           getEnv("INPUT_CSV", "./input/df_fraud_credit.csv"),
		DataDir:            dataDir,
		CuratedDir:         getEnv("CURATED_DIR", "./curated"),
		StorePath:          getEnv("STORE_PATH", filepath.Join(dataDir, "results.db")),
		PreCleanThreshold:  getEnvFloat64("PRE_CLEAN_THRESHOLD", 0.98),
		PostCleanThreshold: getEnvFloat64("POST_CLEAN_THRESHOLD", 0.995),
	}
}

// EnsureDirs creates the data and curated directories if they do not exist.
func (c *Config) EnsureDirs() error {
	for _, dir := range []string{c.DataDir, c.CuratedDir, filepath.Dir(c.StorePath)} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvFloat64(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}
