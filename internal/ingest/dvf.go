package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"valeurverte/internal/config"
	"valeurverte/internal/lake"
	"valeurverte/internal/storage"
)

// knownYears are the year substrings recognized in DVF export names.
var knownYears = []string{"2020", "2021", "2022", "2023"}

// DVFStats summarizes one ingestion run.
type DVFStats struct {
	Uploaded int
	Failed   int
}

// DVFIngester copies local DVF delimited exports verbatim into the bronze
// layer under a year-keyed path.
type DVFIngester struct {
	store     storage.ObjectStore
	sourceDir string
	bucket    string
	logger    *slog.Logger

	now func() time.Time
}

// NewDVFIngester builds an ingester from the pipeline configuration.
func NewDVFIngester(store storage.ObjectStore, cfg *config.Config, logger *slog.Logger) *DVFIngester {
	if logger == nil {
		logger = slog.Default()
	}
	return &DVFIngester{
		store:     store,
		sourceDir: cfg.DVF.SourceDir,
		bucket:    cfg.Buckets.Bronze,
		logger:    logger,
		now:       time.Now,
	}
}

// IngestAll uploads every DVF file found in the source directory. A failed
// upload is logged and counted; the remaining files continue.
func (i *DVFIngester) IngestAll(ctx context.Context) (DVFStats, error) {
	if err := i.store.EnsureBucket(ctx, i.bucket); err != nil {
		return DVFStats{}, err
	}

	files, err := i.findFiles()
	if err != nil {
		return DVFStats{}, err
	}
	if len(files) == 0 {
		i.logger.Warn("no DVF files found", slog.String("source_dir", i.sourceDir))
		return DVFStats{}, nil
	}

	var stats DVFStats
	for _, path := range files {
		if err := i.ingestFile(ctx, path); err != nil {
			if ctx.Err() != nil {
				return stats, ctx.Err()
			}
			stats.Failed++
			i.logger.Error("DVF upload failed",
				slog.String("file", filepath.Base(path)),
				slog.String("error", err.Error()))
			continue
		}
		stats.Uploaded++
	}

	i.logger.Info("DVF ingestion finished",
		slog.Int("uploaded", stats.Uploaded),
		slog.Int("failed", stats.Failed))
	return stats, nil
}

func (i *DVFIngester) ingestFile(ctx context.Context, path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}

	year := YearOfFile(filepath.Base(path), info.ModTime())
	key := lake.BronzeDVFKey(year, i.now(), filepath.Base(path))

	if err := i.store.PutFile(ctx, i.bucket, key, path); err != nil {
		return err
	}

	i.logger.Info("DVF file uploaded",
		slog.String("file", filepath.Base(path)),
		slog.String("year", year),
		slog.String("key", key),
		slog.Float64("size_mb", float64(info.Size())/1024/1024))
	return nil
}

// findFiles returns the .txt and .csv files of the source directory.
func (i *DVFIngester) findFiles() ([]string, error) {
	entries, err := os.ReadDir(i.sourceDir)
	if err != nil {
		return nil, fmt.Errorf("read source dir %s: %w", i.sourceDir, err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".txt", ".csv":
			files = append(files, filepath.Join(i.sourceDir, e.Name()))
		}
	}
	return files, nil
}

// YearOfFile determines the destination year of a DVF export: a known year
// substring of the filename, else the file modification year.
func YearOfFile(name string, modTime time.Time) string {
	lower := strings.ToLower(name)
	for _, year := range knownYears {
		if strings.Contains(lower, year) {
			return year
		}
	}
	return fmt.Sprintf("%d", modTime.Year())
}
