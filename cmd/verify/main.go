// Command verify inspects the lake after a pipeline run: object counts per
// layer, parquet row counts, and the gold invariants. It exits non-zero when
// an invariant is violated so it can gate a scheduled rebuild.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"valeurverte/internal/config"
	"valeurverte/internal/gold"
	"valeurverte/internal/infrastructure"
	"valeurverte/internal/lake"
	"valeurverte/internal/storage"
	"valeurverte/pkg/contracts/domain"
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

	ctx := context.Background()
	if err := verify(ctx, store, cfg, logger); err != nil {
		logger.Error("Lake verification failed", "error", err)
		os.Exit(1)
	}
	logger.Info("Lake verification passed")
}

func verify(ctx context.Context, store storage.ObjectStore, cfg *config.Config, logger *slog.Logger) error {
	layers := []struct {
		bucket string
		prefix string
		name   string
	}{
		{cfg.Buckets.Bronze, lake.BronzeDPEPrefix, "bronze/dpe"},
		{cfg.Buckets.Bronze, lake.BronzeDVFPrefix, "bronze/dvf"},
		{cfg.Buckets.Silver, lake.SilverDVFPrefix, "silver/dvf"},
		{cfg.Buckets.Silver, lake.SilverDPEPrefix, "silver/dpe"},
		{cfg.Buckets.Gold, lake.GoldPrefix, "gold"},
	}
	for _, layer := range layers {
		objects, err := store.List(ctx, layer.bucket, layer.prefix)
		if err != nil {
			return fmt.Errorf("list %s: %w", layer.name, err)
		}
		var size int64
		for _, o := range objects {
			size += o.Size
		}
		logger.Info("layer inspected",
			slog.String("layer", layer.name),
			slog.Int("objects", len(objects)),
			slog.Int64("bytes", size))
	}

	silverDVF, err := countRows[domain.SilverDVFRow](ctx, store, cfg.Buckets.Silver, lake.SilverDVFPrefix)
	if err != nil {
		return err
	}
	silverDPE, err := countRows[domain.SilverDPERow](ctx, store, cfg.Buckets.Silver, lake.SilverDPEPrefix)
	if err != nil {
		return err
	}
	logger.Info("silver row counts",
		slog.Int("dvf", silverDVF),
		slog.Int("dpe", silverDPE))

	data, err := store.Get(ctx, cfg.Buckets.Gold, lake.GoldCompleteKey)
	if err != nil {
		return fmt.Errorf("gold dataset missing: %w", err)
	}
	rows, err := lake.UnmarshalParquet[domain.GoldRow](data)
	if err != nil {
		return fmt.Errorf("gold dataset unreadable: %w", err)
	}
	logger.Info("gold row count", slog.Int("rows", len(rows)))

	for i := range rows {
		if rows[i].NbVentes <= 0 {
			return fmt.Errorf("gold row %s/%s has non-positive nb_ventes %d",
				rows[i].Departement, rows[i].Trimestre, rows[i].NbVentes)
		}
	}
	if err := gold.ValidatePcts(rows); err != nil {
		return err
	}
	return nil
}

func countRows[T any](ctx context.Context, store storage.ObjectStore, bucket, prefix string) (int, error) {
	objects, err := store.List(ctx, bucket, prefix)
	if err != nil {
		return 0, fmt.Errorf("list %s: %w", prefix, err)
	}
	total := 0
	for _, obj := range objects {
		data, err := store.Get(ctx, bucket, obj.Key)
		if err != nil {
			return 0, err
		}
		rows, err := lake.UnmarshalParquet[T](data)
		if err != nil {
			return 0, fmt.Errorf("decode %s: %w", obj.Key, err)
		}
		total += len(rows)
	}
	return total, nil
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFrom(path)
	}
	return config.Load()
}
