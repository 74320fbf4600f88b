// Command dashboard serves the gold market indicators and the analytics
// report over HTTP. It never writes to the lake.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"valeurverte/internal/config"
	"valeurverte/internal/dashboard"
	"valeurverte/internal/infrastructure"
	"valeurverte/internal/storage"
)

func main() {
	configPath := flag.String("config", "", "path to config.yaml (defaults to auto-discovery)")
	addr := flag.String("addr", ":8080", "listen address")
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

	server := dashboard.NewServer(store, cfg, logger)
	if err := server.Run(ctx, *addr); err != nil {
		logger.Error("Dashboard server failed", "error", err)
		os.Exit(1)
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFrom(path)
	}
	return config.Load()
}
