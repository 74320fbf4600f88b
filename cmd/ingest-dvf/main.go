// Command ingest-dvf uploads the local raw DVF exports verbatim into the
// bronze layer, keyed by year.
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
	sourceDir := flag.String("source", "", "directory with raw DVF files (defaults to config dvf.source_dir)")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}
	if *sourceDir != "" {
		cfg.DVF.SourceDir = *sourceDir
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

	ingester := ingest.NewDVFIngester(store, cfg, logger)
	runner := pipeline.NewRunner(logger, pipeline.StepFunc{
		StepID:   "ingest-dvf",
		StepName: "DVF file ingestion",
		Fn: func(ctx context.Context, state *pipeline.State) error {
			stats, err := ingester.IngestAll(ctx)
			if err != nil {
				return pipeline.NewExecutionError("ingest-dvf", err, false)
			}
			state.Set("uploaded", stats.Uploaded)
			if stats.Failed > 0 && stats.Uploaded == 0 {
				return pipeline.NewFatalError("every DVF file failed to upload", nil)
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
