package silver

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"valeurverte/internal/config"
	"valeurverte/internal/lake"
	"valeurverte/internal/storage"
	"valeurverte/pkg/contracts/domain"
)

func TestParseDPEPage(t *testing.T) {
	// The source mixes types: commune codes arrive as numbers or strings,
	// dates as plain dates or full timestamps.
	page := []byte(`[
		{"numero_dpe":"1","date_etablissement_dpe":"2020-02-10","code_insee_commune_actualise":92044,
		 "classe_consommation_energie":"D","classe_estimation_ges":"C",
		 "tr002_type_batiment_description":"Logement","tv016_departement_code":"92"},
		{"numero_dpe":"2","date_etablissement_dpe":"2020-05-01T00:00:00+01:00","code_insee_commune_actualise":"92044.0",
		 "classe_consommation_energie":"G","classe_estimation_ges":"F",
		 "tr002_type_batiment_description":"Maison","tv016_departement_code":92},
		{"numero_dpe":"3","date_etablissement_dpe":null,"code_insee_commune_actualise":"92044",
		 "classe_consommation_energie":"A","classe_estimation_ges":"A",
		 "tr002_type_batiment_description":"Logement","tv016_departement_code":"92"},
		{"numero_dpe":"4","date_etablissement_dpe":"2020-03-01","code_insee_commune_actualise":"75101",
		 "classe_consommation_energie":"B","classe_estimation_ges":"B",
		 "tr002_type_batiment_description":"Logement","tv016_departement_code":"75"}
	]`)

	rows, stats, err := ParseDPEPage(page, testScope())
	require.NoError(t, err)

	assert.Equal(t, 4, stats.Total)
	assert.Equal(t, 2, stats.Kept)
	assert.Equal(t, 1, stats.UnparseableDate)
	assert.Equal(t, 1, stats.OutOfScope)

	require.Len(t, rows, 2)
	assert.Equal(t, "92044", rows[0].CodeCommune)
	assert.Equal(t, "D", rows[0].ClasseEnergie)
	assert.Equal(t, "92", rows[0].CodeDepartement)
	assert.Equal(t, "2020Q1", rows[0].Trimestre)
	assert.Equal(t, int32(2020), rows[0].Annee)

	// The numeric department and the float-tailed commune both normalize.
	assert.Equal(t, "92044", rows[1].CodeCommune)
	assert.Equal(t, "92", rows[1].CodeDepartement)
	assert.Equal(t, "2020Q2", rows[1].Trimestre)
}

func TestParseDPEPageRejectsGarbage(t *testing.T) {
	_, _, err := ParseDPEPage([]byte("not json"), testScope())
	assert.Error(t, err)
}

func TestParseDPEDate(t *testing.T) {
	tests := []struct {
		name string
		in   string
		ok   bool
		want string
	}{
		{"plain date", "2020-02-10", true, "2020-02-10"},
		{"timestamp", "2020-02-10T12:30:00Z", true, "2020-02-10"},
		{"timestamp with offset", "2020-02-10T00:00:00+01:00", true, "2020-02-10"},
		{"empty", "", false, ""},
		{"garbage", "10/02/2020", false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := parseDPEDate(tt.in)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got.Format("2006-01-02"))
			}
		})
	}
}

func TestDPETransformerWritesPartitions(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemStore()

	page := []byte(`[
		{"date_etablissement_dpe":"2020-02-10","code_insee_commune_actualise":"92044",
		 "classe_consommation_energie":"D","classe_estimation_ges":"C",
		 "tr002_type_batiment_description":"Logement","tv016_departement_code":"92"},
		{"date_etablissement_dpe":"2020-02-20","code_insee_commune_actualise":"92044",
		 "classe_consommation_energie":"G","classe_estimation_ges":"F",
		 "tr002_type_batiment_description":"Logement","tv016_departement_code":"92"}
	]`)
	key := lake.BronzeDPEKey("92", 1, time.Date(2021, 7, 1, 12, 0, 0, 0, time.UTC))
	require.NoError(t, store.Put(ctx, "bronze", key, page, "application/json"))

	cfg := &config.Config{
		Buckets: config.BucketsConfig{Bronze: "bronze", Silver: "silver"},
		Scope:   testScope(),
	}

	rows, err := NewDPETransformer(store, cfg, nil).Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, rows)

	data, err := store.Get(ctx, "silver", lake.SilverDPEKey("92", 2020, "2020Q1"))
	require.NoError(t, err)
	part, err := lake.UnmarshalParquet[domain.SilverDPERow](data)
	require.NoError(t, err)
	require.Len(t, part, 2)
	assert.Equal(t, "D", part[0].ClasseEnergie)
}

func TestDPETransformerEmptyInputWritesNothing(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemStore()
	require.NoError(t, store.EnsureBucket(ctx, "bronze"))

	cfg := &config.Config{
		Buckets: config.BucketsConfig{Bronze: "bronze", Silver: "silver"},
		Scope:   testScope(),
	}

	rows, err := NewDPETransformer(store, cfg, nil).Run(ctx)
	require.NoError(t, err)
	assert.Zero(t, rows)

	objects, err := store.List(ctx, "silver", lake.SilverDPEPrefix)
	require.NoError(t, err)
	assert.Empty(t, objects)
}
