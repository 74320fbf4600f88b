package silver

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"time"

	"valeurverte/internal/config"
	"valeurverte/internal/lake"
	"valeurverte/internal/storage"
	"valeurverte/pkg/contracts/domain"
)

// DVFParseStats counts what the cleaning dropped.
type DVFParseStats struct {
	Total            int
	MissingRequired  int
	NonPositiveArea  int
	UnparseableDate  int
	OutOfScope       int
	Kept             int
}

// DVFTransformer rebuilds the silver DVF dataset from the bronze raw files.
type DVFTransformer struct {
	store        storage.ObjectStore
	bronzeBucket string
	silverBucket string
	scope        config.ScopeConfig
	logger       *slog.Logger
}

// NewDVFTransformer builds a transformer from the pipeline configuration.
func NewDVFTransformer(store storage.ObjectStore, cfg *config.Config, logger *slog.Logger) *DVFTransformer {
	if logger == nil {
		logger = slog.Default()
	}
	return &DVFTransformer{
		store:        store,
		bronzeBucket: cfg.Buckets.Bronze,
		silverBucket: cfg.Buckets.Silver,
		scope:        cfg.Scope,
		logger:       logger,
	}
}

// Run reads every configured year from bronze, cleans and types the rows,
// and writes the partitioned silver dataset. An empty result is a warning
// and no silver object is written.
func (t *DVFTransformer) Run(ctx context.Context) (int, error) {
	var rows []domain.SilverDVFRow
	for _, year := range t.scope.Years {
		yearRows, err := t.loadYear(ctx, year)
		if err != nil {
			return 0, err
		}
		rows = append(rows, yearRows...)
	}

	if len(rows) == 0 {
		t.logger.Warn("DVF silver dataset is empty, skipping write")
		return 0, nil
	}

	err := writeDataset(ctx, t.store, t.silverBucket, rows,
		func(r domain.SilverDVFRow) partitionKey {
			return partitionKey{departement: r.CodeDepartement, annee: r.Annee, trimestre: r.Trimestre}
		},
		func(k partitionKey) string {
			return lake.SilverDVFKey(k.departement, k.annee, k.trimestre)
		},
		t.logger.With(slog.String("dataset", "silver/dvf")),
	)
	if err != nil {
		return 0, err
	}
	return len(rows), nil
}

func (t *DVFTransformer) loadYear(ctx context.Context, year int) ([]domain.SilverDVFRow, error) {
	prefix := lake.BronzeDVFYearPrefix(fmt.Sprintf("%d", year))
	objects, err := t.store.List(ctx, t.bronzeBucket, prefix)
	if err != nil {
		return nil, err
	}
	if len(objects) == 0 {
		t.logger.Warn("no bronze DVF objects", slog.Int("year", year))
		return nil, nil
	}

	var rows []domain.SilverDVFRow
	for _, obj := range objects {
		data, err := t.store.Get(ctx, t.bronzeBucket, obj.Key)
		if err != nil {
			return nil, err
		}

		fileRows, stats, err := ParseDVF(bytes.NewReader(data), t.scope)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", obj.Key, err)
		}
		t.logger.Info("bronze DVF object parsed",
			slog.String("key", obj.Key),
			slog.Int("total", stats.Total),
			slog.Int("kept", stats.Kept),
			slog.Int("dropped_missing", stats.MissingRequired),
			slog.Int("dropped_surface", stats.NonPositiveArea),
			slog.Int("dropped_date", stats.UnparseableDate),
			slog.Int("dropped_scope", stats.OutOfScope))
		rows = append(rows, fileRows...)
	}
	return rows, nil
}

// ParseDVF reads a raw pipe-delimited DVF export and produces typed silver
// rows. Rows missing value or surface are dropped; the surface filter runs
// before the price-per-area division so the denominator is always positive.
func ParseDVF(r io.Reader, scope config.ScopeConfig) ([]domain.SilverDVFRow, DVFParseStats, error) {
	cr := csv.NewReader(r)
	cr.Comma = '|'
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err != nil {
		return nil, DVFParseStats{}, fmt.Errorf("read DVF header: %w", err)
	}

	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[name] = i
	}
	var missing []string
	for _, col := range domain.DVFColumns {
		if _, ok := idx[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, DVFParseStats{}, fmt.Errorf("DVF file is missing required columns %v", missing)
	}

	field := func(record []string, col string) string {
		i := idx[col]
		if i >= len(record) {
			return ""
		}
		return record[i]
	}

	var (
		rows  []domain.SilverDVFRow
		stats DVFParseStats
	)
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, stats, fmt.Errorf("read DVF record: %w", err)
		}
		stats.Total++

		rawValue := field(record, domain.DVFColValeurFonciere)
		rawSurface := field(record, domain.DVFColSurfaceBati)
		if rawValue == "" || rawSurface == "" {
			stats.MissingRequired++
			continue
		}
		valeur, errV := ParseDecimal(rawValue)
		surface, errS := ParseDecimal(rawSurface)
		if errV != nil || errS != nil {
			stats.MissingRequired++
			continue
		}
		if surface <= 0 {
			stats.NonPositiveArea++
			continue
		}

		mutation, err := time.Parse("02/01/2006", field(record, domain.DVFColDateMutation))
		if err != nil {
			stats.UnparseableDate++
			continue
		}

		dept := CleanString(field(record, domain.DVFColCodeDept))
		if !scope.InScope(dept) {
			stats.OutOfScope++
			continue
		}

		rows = append(rows, domain.SilverDVFRow{
			DateMutation:    mutation,
			ValeurFonciere:  valeur,
			SurfaceBati:     surface,
			TypeLocal:       CleanString(field(record, domain.DVFColTypeLocal)),
			CodeCommune:     CleanString(field(record, domain.DVFColCodeCommune)),
			CodeDepartement: dept,
			PrixM2:          valeur / surface,
			Annee:           int32(mutation.Year()),
			Trimestre:       Quarter(mutation),
		})
		stats.Kept++
	}
	return rows, stats, nil
}
