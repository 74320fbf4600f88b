package silver

import (
	"bytes"
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

// DPEParseStats counts what the cleaning dropped.
type DPEParseStats struct {
	Total           int
	UnparseableDate int
	OutOfScope      int
	Kept            int
}

// DPETransformer rebuilds the silver DPE dataset from the bronze API pages.
type DPETransformer struct {
	store        storage.ObjectStore
	bronzeBucket string
	silverBucket string
	scope        config.ScopeConfig
	logger       *slog.Logger
}

// NewDPETransformer builds a transformer from the pipeline configuration.
func NewDPETransformer(store storage.ObjectStore, cfg *config.Config, logger *slog.Logger) *DPETransformer {
	if logger == nil {
		logger = slog.Default()
	}
	return &DPETransformer{
		store:        store,
		bronzeBucket: cfg.Buckets.Bronze,
		silverBucket: cfg.Buckets.Silver,
		scope:        cfg.Scope,
		logger:       logger,
	}
}

// Run reads every configured department from bronze, cleans and types the
// records, and writes the partitioned silver dataset. An empty result is a
// warning and no silver object is written.
func (t *DPETransformer) Run(ctx context.Context) (int, error) {
	var rows []domain.SilverDPERow
	for _, dept := range t.scope.Departements {
		deptRows, err := t.loadDepartment(ctx, dept)
		if err != nil {
			return 0, err
		}
		rows = append(rows, deptRows...)
	}

	if len(rows) == 0 {
		t.logger.Warn("DPE silver dataset is empty, skipping write")
		return 0, nil
	}

	err := writeDataset(ctx, t.store, t.silverBucket, rows,
		func(r domain.SilverDPERow) partitionKey {
			return partitionKey{departement: r.CodeDepartement, annee: r.Annee, trimestre: r.Trimestre}
		},
		func(k partitionKey) string {
			return lake.SilverDPEKey(k.departement, k.annee, k.trimestre)
		},
		t.logger.With(slog.String("dataset", "silver/dpe")),
	)
	if err != nil {
		return 0, err
	}
	return len(rows), nil
}

func (t *DPETransformer) loadDepartment(ctx context.Context, dept string) ([]domain.SilverDPERow, error) {
	objects, err := t.store.List(ctx, t.bronzeBucket, lake.BronzeDPEDeptPrefix(dept))
	if err != nil {
		return nil, err
	}
	if len(objects) == 0 {
		t.logger.Warn("no bronze DPE objects", slog.String("departement", dept))
		return nil, nil
	}

	var rows []domain.SilverDPERow
	for _, obj := range objects {
		data, err := t.store.Get(ctx, t.bronzeBucket, obj.Key)
		if err != nil {
			return nil, err
		}

		pageRows, stats, err := ParseDPEPage(data, t.scope)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", obj.Key, err)
		}
		t.logger.Info("bronze DPE page parsed",
			slog.String("key", obj.Key),
			slog.Int("total", stats.Total),
			slog.Int("kept", stats.Kept),
			slog.Int("dropped_date", stats.UnparseableDate),
			slog.Int("dropped_scope", stats.OutOfScope))
		rows = append(rows, pageRows...)
	}
	return rows, nil
}

// ParseDPEPage decodes one stored bronze page (a JSON array of records) and
// produces typed silver rows. Records with an unparseable diagnostic date are
// dropped; commune and department codes are normalized because the source
// returns them inconsistently as strings or numbers.
func ParseDPEPage(data []byte, scope config.ScopeConfig) ([]domain.SilverDPERow, DPEParseStats, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var records []map[string]any
	if err := dec.Decode(&records); err != nil {
		return nil, DPEParseStats{}, fmt.Errorf("decode bronze page: %w", err)
	}

	var (
		rows  []domain.SilverDPERow
		stats DPEParseStats
	)
	for _, rec := range records {
		stats.Total++

		date, ok := parseDPEDate(CleanString(rec[domain.DPEFieldDate]))
		if !ok {
			stats.UnparseableDate++
			continue
		}

		dept := CleanString(rec[domain.DPEFieldDepartement])
		if !scope.InScope(dept) {
			stats.OutOfScope++
			continue
		}

		rows = append(rows, domain.SilverDPERow{
			DateEtablissement: date,
			CodeCommune:       CleanString(rec[domain.DPEFieldCommune]),
			ClasseEnergie:     CleanString(rec[domain.DPEFieldClasseEnergie]),
			ClasseGES:         CleanString(rec[domain.DPEFieldClasseGES]),
			TypeBatiment:      CleanString(rec[domain.DPEFieldTypeBatiment]),
			CodeDepartement:   dept,
			Annee:             int32(date.Year()),
			Trimestre:         Quarter(date),
		})
		stats.Kept++
	}
	return rows, stats, nil
}

// parseDPEDate accepts the two date shapes the API emits, a plain date and a
// full RFC 3339 timestamp.
func parseDPEDate(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	if len(s) >= 10 {
		if t, err := time.Parse("2006-01-02", s[:10]); err == nil {
			return t, true
		}
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, true
	}
	return time.Time{}, false
}
