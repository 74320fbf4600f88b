// Command transform-gold aggregates the silver datasets into the gold market
// indicators and derives the business analytics report.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"valeurverte/internal/analytics"
	"valeurverte/internal/config"
	"valeurverte/internal/gold"
	"valeurverte/internal/infrastructure"
	"valeurverte/internal/pipeline"
	"valeurverte/internal/storage"
)

func main() {
	configPath := flag.String("config", "", "path to config.yaml (defaults to auto-discovery)")
	skipAnalytics := flag.Bool("skip-analytics", false, "build the gold dataset without the analytics report")
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

	transformer := gold.NewTransformer(store, cfg, logger)
	steps := []pipeline.Step{
		pipeline.StepFunc{
			StepID:   "gold-build",
			StepName: "gold aggregation and join",
			Fn: func(ctx context.Context, state *pipeline.State) error {
				rows, err := transformer.Run(ctx)
				if err != nil {
					return pipeline.NewExecutionError("gold-build", err, false)
				}
				state.Set("gold_rows", len(rows))
				if len(rows) == 0 {
					state.Set("gold_empty", true)
				}
				return nil
			},
		},
	}

	if !*skipAnalytics {
		analyticsRunner := analytics.NewRunner(store, cfg, logger)
		steps = append(steps, pipeline.StepFunc{
			StepID:   "analytics",
			StepName: "derived business analytics",
			Fn: func(ctx context.Context, state *pipeline.State) error {
				if empty, _ := state.Get("gold_empty"); empty == true {
					logger.Warn("gold dataset is empty, skipping analytics")
					return nil
				}
				if _, err := analyticsRunner.Run(ctx); err != nil {
					return pipeline.NewExecutionError("analytics", err, false)
				}
				return nil
			},
		})
	}

	state := pipeline.NewState()
	if _, err := pipeline.NewRunner(logger, steps...).Run(ctx, state); err != nil {
		logger.Error("Gold transform failed", "error", err)
		os.Exit(1)
	}
	logger.Info("Gold layer rebuilt", slog.Int("rows", state.GetInt("gold_rows")))
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFrom(path)
	}
	return config.Load()
}
