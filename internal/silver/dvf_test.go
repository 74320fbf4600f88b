package silver

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"valeurverte/internal/config"
	"valeurverte/internal/lake"
	"valeurverte/internal/storage"
	"valeurverte/pkg/contracts/domain"
)

const dvfHeader = "Date mutation|Valeur fonciere|Code departement|Code commune|Type local|Surface reelle bati"

func testScope() config.ScopeConfig {
	return config.ScopeConfig{
		Departements: []string{"92", "59"},
		DateStart:    "2020-01-01",
		DateEnd:      "2021-06-30",
		Years:        []int{2020},
	}
}

func TestParseDVF(t *testing.T) {
	raw := strings.Join([]string{
		dvfHeader,
		"07/01/2020|300000,00|92|044|Appartement|60,00",  // kept, prix_m2 = 5000
		"15/02/2020|150000,00|92|044|Appartement|0,00",   // surface 0, dropped before division
		"20/03/2020||92|044|Appartement|50,00",           // missing value
		"20/03/2020|100000,00|92|044|Maison|",            // missing surface
		"bad-date|100000,00|92|044|Maison|40,00",         // unparseable date
		"10/04/2020|200000,00|75|101|Appartement|80,00",  // out of scope department
		"25/05/2020|420000,00|59|350|Maison|120,00",      // kept, prix_m2 = 3500
	}, "\n")

	rows, stats, err := ParseDVF(strings.NewReader(raw), testScope())
	require.NoError(t, err)

	assert.Equal(t, 7, stats.Total)
	assert.Equal(t, 2, stats.Kept)
	assert.Equal(t, 2, stats.MissingRequired)
	assert.Equal(t, 1, stats.NonPositiveArea)
	assert.Equal(t, 1, stats.UnparseableDate)
	assert.Equal(t, 1, stats.OutOfScope)

	require.Len(t, rows, 2)
	assert.Equal(t, 5000.0, rows[0].PrixM2)
	assert.Equal(t, "92", rows[0].CodeDepartement)
	assert.Equal(t, "2020Q1", rows[0].Trimestre)
	assert.Equal(t, int32(2020), rows[0].Annee)

	assert.Equal(t, 3500.0, rows[1].PrixM2)
	assert.Equal(t, "59", rows[1].CodeDepartement)
	assert.Equal(t, "2020Q2", rows[1].Trimestre)
}

func TestParseDVFSurfaceFilterProtectsDivision(t *testing.T) {
	raw := dvfHeader + "\n07/01/2020|300000,00|92|044|Appartement|0,00\n"

	rows, stats, err := ParseDVF(strings.NewReader(raw), testScope())
	require.NoError(t, err)
	assert.Empty(t, rows)
	assert.Equal(t, 1, stats.NonPositiveArea)
	for _, r := range rows {
		assert.Positive(t, r.SurfaceBati)
	}
}

func TestParseDVFMissingColumnFailsFast(t *testing.T) {
	raw := "Date mutation|Valeur fonciere|Code departement\n07/01/2020|300000,00|92\n"

	_, _, err := ParseDVF(strings.NewReader(raw), testScope())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Surface reelle bati")
}

func TestDVFTransformerWritesPartitions(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemStore()

	raw := strings.Join([]string{
		dvfHeader,
		"07/01/2020|300000,00|92|044|Appartement|60,00",
		"15/02/2020|400000,00|92|044|Appartement|80,00",
		"25/05/2020|420000,00|59|350|Maison|120,00",
	}, "\n")
	require.NoError(t, store.Put(ctx, "bronze", "dvf/2020/dvf_2020_x.txt", []byte(raw), "text/plain"))

	cfg := &config.Config{
		Buckets: config.BucketsConfig{Bronze: "bronze", Silver: "silver"},
		Scope:   testScope(),
	}

	rows, err := NewDVFTransformer(store, cfg, nil).Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, rows)

	// 92/2020Q1 holds two rows, 59/2020Q2 one.
	data, err := store.Get(ctx, "silver", lake.SilverDVFKey("92", 2020, "2020Q1"))
	require.NoError(t, err)
	part, err := lake.UnmarshalParquet[domain.SilverDVFRow](data)
	require.NoError(t, err)
	assert.Len(t, part, 2)

	data, err = store.Get(ctx, "silver", lake.SilverDVFKey("59", 2020, "2020Q2"))
	require.NoError(t, err)
	part, err = lake.UnmarshalParquet[domain.SilverDVFRow](data)
	require.NoError(t, err)
	assert.Len(t, part, 1)
	assert.Equal(t, 3500.0, part[0].PrixM2)
}

func TestDVFTransformerRebuildIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemStore()

	raw := dvfHeader + "\n07/01/2020|300000,00|92|044|Appartement|60,00\n"
	require.NoError(t, store.Put(ctx, "bronze", "dvf/2020/dvf_2020_x.txt", []byte(raw), "text/plain"))

	cfg := &config.Config{
		Buckets: config.BucketsConfig{Bronze: "bronze", Silver: "silver"},
		Scope:   testScope(),
	}
	transformer := NewDVFTransformer(store, cfg, nil)

	first, err := transformer.Run(ctx)
	require.NoError(t, err)
	second, err := transformer.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	objects, err := store.List(ctx, "silver", lake.SilverDVFPrefix)
	require.NoError(t, err)
	assert.Len(t, objects, 1)
}

func TestDVFTransformerEmptyInputWritesNothing(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemStore()
	require.NoError(t, store.EnsureBucket(ctx, "bronze"))

	cfg := &config.Config{
		Buckets: config.BucketsConfig{Bronze: "bronze", Silver: "silver"},
		Scope:   testScope(),
	}

	rows, err := NewDVFTransformer(store, cfg, nil).Run(ctx)
	require.NoError(t, err)
	assert.Zero(t, rows)

	objects, err := store.List(ctx, "silver", lake.SilverDVFPrefix)
	require.NoError(t, err)
	assert.Empty(t, objects)
}
