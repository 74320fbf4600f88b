// Command transform-silver rebuilds the silver layer from bronze: typed and
// cleaned DVF sales and DPE diagnostics, partitioned by department, year and
// quarter. Reruns fully replace the previous silver objects.
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
	"valeurverte/internal/pipeline"
	"valeurverte/internal/silver"
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

	dvf := silver.NewDVFTransformer(store, cfg, logger)
	dpe := silver.NewDPETransformer(store, cfg, logger)

	runner := pipeline.NewRunner(logger,
		pipeline.StepFunc{
			StepID:   "silver-dvf",
			StepName: "DVF silver transform",
			Fn: func(ctx context.Context, state *pipeline.State) error {
				rows, err := dvf.Run(ctx)
				if err != nil {
					return pipeline.NewExecutionError("silver-dvf", err, false)
				}
				state.Set("dvf_rows", rows)
				return nil
			},
		},
		pipeline.StepFunc{
			StepID:   "silver-dpe",
			StepName: "DPE silver transform",
			Fn: func(ctx context.Context, state *pipeline.State) error {
				rows, err := dpe.Run(ctx)
				if err != nil {
					return pipeline.NewExecutionError("silver-dpe", err, false)
				}
				state.Set("dpe_rows", rows)
				return nil
			},
		},
	)

	state := pipeline.NewState()
	if _, err := runner.Run(ctx, state); err != nil {
		logger.Error("Silver transform failed", "error", err)
		os.Exit(1)
	}
	logger.Info("Silver layer rebuilt",
		slog.Int("dvf_rows", state.GetInt("dvf_rows")),
		slog.Int("dpe_rows", state.GetInt("dpe_rows")))
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFrom(path)
	}
	return config.Load()
}
