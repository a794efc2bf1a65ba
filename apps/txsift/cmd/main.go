package main

import (
	"context"
	"errors"
	"os"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"txsift/apps/txsift/internal/config"
	"txsift/apps/txsift/internal/ingest"
	"txsift/apps/txsift/internal/pipeline"
	"txsift/apps/txsift/internal/publish"
	"txsift/apps/txsift/internal/quality"
	"txsift/apps/txsift/internal/standardize"
)

// Exit codes for the distinct failure modes.
const (
	exitOK           = 0
	exitFailure      = 1
	exitMissingInput = 2
	exitGateRejected = 3
)

func main() {
	// Initialize zap logger
	logger, err := zap.NewProduction()
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}

	code := run(logger)
	_ = logger.Sync()
	os.Exit(code)
}

func run(logger *zap.Logger) int {
	// Load configuration from environment variables
	cfg := config.NewConfig()

	logger = logger.With(zap.String("run_id", uuid.New().String()))
	logger.Info("Starting pipeline with configuration",
		zap.String("input_csv", cfg.InputCSV),
		zap.String("data_dir", cfg.DataDir),
		zap.String("curated_dir", cfg.CuratedDir),
		zap.String("store_path", cfg.StorePath),
		zap.Float64("pre_clean_threshold", cfg.PreCleanThreshold),
		zap.Float64("post_clean_threshold", cfg.PostCleanThreshold),
	)

	if err := cfg.EnsureDirs(); err != nil {
		logger.Error("Failed to prepare directories", zap.Error(err))
		return exitFailure
	}

	ingester := ingest.NewIngester(logger)
	standardizer := standardize.NewStandardizer(logger)
	profiler := quality.NewProfiler(logger, quality.NewFileSink(cfg.DataDir, logger))
	gate := quality.NewGate(logger)
	store := publish.NewStore(cfg.StorePath, logger)
	publisher := publish.NewPublisher(store, cfg.CuratedDir, logger)

	controller := pipeline.NewController(cfg, ingester, standardizer, profiler, gate, publisher, logger)

	if err := controller.Run(context.Background()); err != nil {
		var gateErr *quality.GateError
		switch {
		case errors.Is(err, ingest.ErrInputNotFound):
			logger.Error("Pipeline aborted: input file not found", zap.Error(err))
			return exitMissingInput
		case errors.As(err, &gateErr):
			logger.Error("Pipeline aborted: quality gate rejected the batch", zap.Error(err))
			return exitGateRejected
		default:
			logger.Error("Pipeline failed", zap.Error(err))
			return exitFailure
		}
	}

	return exitOK
}
