// Command ingest-dpe pages the ADEME DPE API for every configured department
// and stores each page verbatim in the bronze layer.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"valeurverte/internal/config"
	"valeurverte/internal/infrastructure"
	"valeurverte/internal/ingest"
	"valeurverte/internal/pipeline"
	"valeurverte/internal/storage"
)

func main() {
	configPath := flag.String("config", "", "path to config.yaml (defaults to auto-discovery)")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Error("Failed to initialize logger", "error", err)
		os.Exit(1)
	}

	store, err := storage.NewClient(cfg.Store, logger)
	if err != nil {
		logger.Error("Failed to connect to object store", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ingester := ingest.NewDPEIngester(store, cfg, logger)
	runner := pipeline.NewRunner(logger, pipeline.StepFunc{
		StepID:   "ingest-dpe",
		StepName: "DPE API ingestion",
		Fn: func(ctx context.Context, state *pipeline.State) error {
			stats, err := ingester.IngestAll(ctx)
			if err != nil {
				return pipeline.NewExecutionError("ingest-dpe", err, false)
			}
			state.Set("records", stats.Records)
			if len(stats.FailedDepts) == len(cfg.Scope.Departements) {
				return pipeline.NewFatalError("every department failed to ingest", nil)
			}
			return nil
		},
	})

	if _, err := runner.Run(ctx, pipeline.NewState()); err != nil {
		logger.Error("Ingestion failed", "error", err)
		os.Exit(1)
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFrom(path)
	}
	return config.Load()
}
