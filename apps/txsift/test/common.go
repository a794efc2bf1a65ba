package test

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"txsift/apps/txsift/internal/config"
	"txsift/apps/txsift/internal/ingest"
	"txsift/apps/txsift/internal/pipeline"
	"txsift/apps/txsift/internal/publish"
	"txsift/apps/txsift/internal/quality"
	"txsift/apps/txsift/internal/standardize"
)

const (
	// Input file header in the shape produced by the upstream export
	InputHeader = "timestamp,receiving_address,location_region,transaction_type,amount,risk_score"

	// Test wallet addresses (example addresses)
	TestAddressA = "0x7a250d5630b4cf539739df2c5dacb4c659f2488d"
	TestAddressB = "0x5c69bee701ef814a2b6a3edd4b1652cb9cc5aa6f"
	TestAddressC = "0xc02aaa39b223fe8d0a0e5c4f27ead9083c756cc2"
)

// SaleRecord mirrors one row of the sales views for scanning in assertions
type SaleRecord struct {
	ReceivingAddress string  `gorm:"column:receiving_address"`
	Amount           float64 `gorm:"column:amount"`
	Timestamp        string  `gorm:"column:timestamp"`
}

// NewTestConfig returns a configuration rooted in a per-test temp directory.
func NewTestConfig(t *testing.T) *config.Config {
	t.Helper()
	tmp := t.TempDir()
	cfg := &config.Config{
		InputCSV:           filepath.Join(tmp, "input", "transactions.csv"),
		DataDir:            filepath.Join(tmp, "data"),
		CuratedDir:         filepath.Join(tmp, "curated"),
		StorePath:          filepath.Join(tmp, "data", "results.db"),
		PreCleanThreshold:  0.98,
		PostCleanThreshold: 0.995,
	}
	if err := cfg.EnsureDirs(); err != nil {
		t.Fatalf("Failed to create directories: %v", err)
	}
	return cfg
}

// NewController wires a full pipeline over the given configuration.
func NewController(cfg *config.Config) *pipeline.Controller {
	logger := zap.NewNop()
	store := publish.NewStore(cfg.StorePath, logger)
	return pipeline.NewController(
		cfg,
		ingest.NewIngester(logger),
		standardize.NewStandardizer(logger),
		quality.NewProfiler(logger, quality.NewFileSink(cfg.DataDir, logger)),
		quality.NewGate(logger),
		publish.NewPublisher(store, cfg.CuratedDir, logger),
		logger)
}

// WriteInput writes the header plus the given rows as the run's input file.
func WriteInput(t *testing.T, cfg *config.Config, rows []string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(cfg.InputCSV), 0755); err != nil {
		t.Fatalf("Failed to create input directory: %v", err)
	}
	content := InputHeader + "\n" + strings.Join(rows, "\n") + "\n"
	if err := os.WriteFile(cfg.InputCSV, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write input file: %v", err)
	}
}

// OpenStore opens the run's embedded store for assertions.
func OpenStore(t *testing.T, path string) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("Failed to open store at %s: %v", path, err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

// ReadCSVFile parses an exported file into records, header included.
func ReadCSVFile(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("Failed to open %s: %v", path, err)
	}
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("Failed to parse %s: %v", path, err)
	}
	return records
}
