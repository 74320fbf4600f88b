package gold

import (
	"context"
	"fmt"
	"log/slog"

	"valeurverte/internal/config"
	"valeurverte/internal/lake"
	"valeurverte/internal/storage"
	"valeurverte/pkg/contracts/domain"
)

// Transformer rebuilds the gold market indicators from the silver datasets.
type Transformer struct {
	store        storage.ObjectStore
	silverBucket string
	goldBucket   string
	logger       *slog.Logger
}

// NewTransformer builds a transformer from the pipeline configuration.
func NewTransformer(store storage.ObjectStore, cfg *config.Config, logger *slog.Logger) *Transformer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Transformer{
		store:        store,
		silverBucket: cfg.Buckets.Silver,
		goldBucket:   cfg.Buckets.Gold,
		logger:       logger,
	}
}

// Run loads both silver datasets, aggregates, joins, and writes the flat gold
// file plus one parquet object per (departement, trimestre) partition. An
// empty DVF dataset is a warning and no gold object is written.
func (t *Transformer) Run(ctx context.Context) ([]domain.GoldRow, error) {
	dvfRows, err := loadDataset[domain.SilverDVFRow](ctx, t.store, t.silverBucket,
		lake.SilverDVFPrefix, dvfRequiredColumns)
	if err != nil {
		return nil, fmt.Errorf("load silver DVF: %w", err)
	}
	if len(dvfRows) == 0 {
		t.logger.Warn("silver DVF dataset is empty, skipping gold build")
		return nil, nil
	}

	dpeRows, err := loadDataset[domain.SilverDPERow](ctx, t.store, t.silverBucket,
		lake.SilverDPEPrefix, dpeRequiredColumns)
	if err != nil {
		return nil, fmt.Errorf("load silver DPE: %w", err)
	}
	if len(dpeRows) == 0 {
		t.logger.Warn("silver DPE dataset is empty, gold rows will carry null DPE metrics")
	}

	rows := BuildGold(AggregateDVF(dvfRows), AggregateDPE(dpeRows))
	if err := ValidatePcts(rows); err != nil {
		return nil, err
	}

	if err := t.write(ctx, rows); err != nil {
		return nil, err
	}
	t.logger.Info("gold dataset written",
		slog.Int("rows", len(rows)),
		slog.Int("dvf_rows", len(dvfRows)),
		slog.Int("dpe_rows", len(dpeRows)))
	return rows, nil
}

func (t *Transformer) write(ctx context.Context, rows []domain.GoldRow) error {
	if err := t.store.EnsureBucket(ctx, t.goldBucket); err != nil {
		return err
	}

	data, err := lake.MarshalParquet(rows)
	if err != nil {
		return fmt.Errorf("encode gold dataset: %w", err)
	}
	if err := t.store.Put(ctx, t.goldBucket, lake.GoldCompleteKey, data, lake.ContentTypeParquet); err != nil {
		return err
	}

	for i := range rows {
		part, err := lake.MarshalParquet(rows[i : i+1])
		if err != nil {
			return fmt.Errorf("encode gold partition: %w", err)
		}
		key := lake.GoldPartitionKey(rows[i].Departement, rows[i].Trimestre)
		if err := t.store.Put(ctx, t.goldBucket, key, part, lake.ContentTypeParquet); err != nil {
			return err
		}
	}
	return nil
}

var dvfRequiredColumns = []string{
	"prix_m2", "code_departement", "code_commune", "trimestre", "annee",
}

var dpeRequiredColumns = []string{
	"classe_consommation_energie", "code_insee_commune_actualise",
	"tv016_departement_code", "trimestre", "annee",
}

// loadDataset reads every parquet object under a silver prefix. The first
// object's schema is checked against the required columns so a schema drift
// fails the run before any aggregation happens.
func loadDataset[T any](
	ctx context.Context,
	store storage.ObjectStore,
	bucket, prefix string,
	required []string,
) ([]T, error) {
	objects, err := store.List(ctx, bucket, prefix)
	if err != nil {
		return nil, err
	}

	var rows []T
	for n, obj := range objects {
		data, err := store.Get(ctx, bucket, obj.Key)
		if err != nil {
			return nil, err
		}
		if n == 0 {
			if err := lake.RequireColumns(data, required...); err != nil {
				return nil, fmt.Errorf("%s: %w", obj.Key, err)
			}
		}
		part, err := lake.UnmarshalParquet[T](data)
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", obj.Key, err)
		}
		rows = append(rows, part...)
	}
	return rows, nil
}
