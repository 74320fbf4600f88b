package analytics

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"valeurverte/internal/config"
	"valeurverte/internal/lake"
	"valeurverte/internal/storage"
	"valeurverte/pkg/contracts/domain"
)

// Runner loads the silver and gold datasets, runs every analysis, and
// persists the bundled report to the gold layer.
type Runner struct {
	store        storage.ObjectStore
	silverBucket string
	goldBucket   string
	logger       *slog.Logger

	now func() time.Time
}

// NewRunner builds a runner from the pipeline configuration.
func NewRunner(store storage.ObjectStore, cfg *config.Config, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		store:        store,
		silverBucket: cfg.Buckets.Silver,
		goldBucket:   cfg.Buckets.Gold,
		logger:       logger,
		now:          time.Now,
	}
}

// Run executes every analysis and writes the JSON report. A failed analysis
// is recorded in the bundle, it never aborts the others.
func (r *Runner) Run(ctx context.Context) (*Bundle, error) {
	sales, err := loadSilver[domain.SilverDVFRow](ctx, r.store, r.silverBucket, lake.SilverDVFPrefix)
	if err != nil {
		return nil, fmt.Errorf("load silver DVF: %w", err)
	}
	diags, err := loadSilver[domain.SilverDPERow](ctx, r.store, r.silverBucket, lake.SilverDPEPrefix)
	if err != nil {
		return nil, fmt.Errorf("load silver DPE: %w", err)
	}

	goldData, err := r.store.Get(ctx, r.goldBucket, lake.GoldCompleteKey)
	if err != nil {
		return nil, fmt.Errorf("load gold dataset: %w", err)
	}
	goldRows, err := lake.UnmarshalParquet[domain.GoldRow](goldData)
	if err != nil {
		return nil, fmt.Errorf("decode gold dataset: %w", err)
	}

	bundle := BuildBundle(sales, diags, goldRows, r.now())
	for _, report := range bundle.Reports {
		r.logger.Info("analysis finished",
			slog.String("analysis", report.Name),
			slog.String("outcome", string(report.Outcome)),
			slog.String("detail", report.Detail))
	}

	data, err := json.MarshalIndent(bundle, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode analytics report: %w", err)
	}
	if err := r.store.Put(ctx, r.goldBucket, lake.AnalyticsReportKey, data, "application/json"); err != nil {
		return nil, err
	}
	r.logger.Info("analytics report written", slog.String("key", lake.AnalyticsReportKey))
	return &bundle, nil
}

// BuildBundle runs every analysis over in-memory datasets.
func BuildBundle(sales []domain.SilverDVFRow, diags []domain.SilverDPERow, gold []domain.GoldRow, now time.Time) Bundle {
	return Bundle{
		GeneratedAt: now.UTC(),
		Reports: []Report{
			GreenValueDecote(sales, diags),
			QuarterlyTrends(gold),
			SpatialDisparities(gold),
			MarketSegments(gold),
			PassoiresThermiques(gold),
		},
	}
}

func loadSilver[T any](ctx context.Context, store storage.ObjectStore, bucket, prefix string) ([]T, error) {
	objects, err := store.List(ctx, bucket, prefix)
	if err != nil {
		return nil, err
	}

	var rows []T
	for _, obj := range objects {
		data, err := store.Get(ctx, bucket, obj.Key)
		if err != nil {
			return nil, err
		}
		part, err := lake.UnmarshalParquet[T](data)
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", obj.Key, err)
		}
		rows = append(rows, part...)
	}
	return rows, nil
}
