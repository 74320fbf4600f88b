package silver

import (
	"context"
	"fmt"
	"log/slog"

	"valeurverte/internal/lake"
	"valeurverte/internal/storage"
)

// partitionKey identifies one (departement, annee, trimestre) partition.
type partitionKey struct {
	departement string
	annee       int32
	trimestre   string
}

// writeDataset writes rows as one parquet object per partition. Partition
// columns stay present in the rows so readers never depend on key parsing.
func writeDataset[T any](
	ctx context.Context,
	store storage.ObjectStore,
	bucket string,
	rows []T,
	key func(T) partitionKey,
	objectKey func(partitionKey) string,
	logger *slog.Logger,
) error {
	if err := store.EnsureBucket(ctx, bucket); err != nil {
		return err
	}

	partitions := make(map[partitionKey][]T)
	for _, row := range rows {
		k := key(row)
		partitions[k] = append(partitions[k], row)
	}

	for k, part := range partitions {
		data, err := lake.MarshalParquet(part)
		if err != nil {
			return fmt.Errorf("encode partition %s/%d/%s: %w", k.departement, k.annee, k.trimestre, err)
		}
		obj := objectKey(k)
		if err := store.Put(ctx, bucket, obj, data, lake.ContentTypeParquet); err != nil {
			return err
		}
		logger.Info("partition written",
			slog.String("key", obj),
			slog.Int("rows", len(part)))
	}

	logger.Info("dataset written",
		slog.Int("rows", len(rows)),
		slog.Int("partitions", len(partitions)))
	return nil
}
