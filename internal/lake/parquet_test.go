package lake

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"valeurverte/pkg/contracts/domain"
)

func sampleRows() []domain.SilverDVFRow {
	return []domain.SilverDVFRow{
		{
			DateMutation:    time.Date(2020, 2, 10, 0, 0, 0, 0, time.UTC),
			ValeurFonciere:  300000,
			SurfaceBati:     60,
			TypeLocal:       "Appartement",
			CodeCommune:     "044",
			CodeDepartement: "92",
			PrixM2:          5000,
			Annee:           2020,
			Trimestre:       "2020Q1",
		},
		{
			DateMutation:    time.Date(2020, 5, 20, 0, 0, 0, 0, time.UTC),
			ValeurFonciere:  150000,
			SurfaceBati:     50,
			TypeLocal:       "Maison",
			CodeCommune:     "350",
			CodeDepartement: "59",
			PrixM2:          3000,
			Annee:           2020,
			Trimestre:       "2020Q2",
		},
	}
}

func TestParquetRoundTrip(t *testing.T) {
	rows := sampleRows()

	data, err := MarshalParquet(rows)
	require.NoError(t, err)
	require.NotEmpty(t, data)

	decoded, err := UnmarshalParquet[domain.SilverDVFRow](data)
	require.NoError(t, err)
	require.Len(t, decoded, 2)
	assert.Equal(t, rows[0].PrixM2, decoded[0].PrixM2)
	assert.Equal(t, rows[1].CodeDepartement, decoded[1].CodeDepartement)
	assert.Equal(t, "2020Q2", decoded[1].Trimestre)
}

func TestRequireColumns(t *testing.T) {
	data, err := MarshalParquet(sampleRows())
	require.NoError(t, err)

	assert.NoError(t, RequireColumns(data, "prix_m2", "code_departement", "trimestre"))

	err = RequireColumns(data, "prix_m2", "no_such_column")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no_such_column")
}

func TestRequireColumnsRejectsGarbage(t *testing.T) {
	err := RequireColumns([]byte("not a parquet file"), "prix_m2")
	assert.Error(t, err)
}

func TestGoldRowOptionalColumns(t *testing.T) {
	n := int64(3)
	pct := 66.7
	rows := []domain.GoldRow{
		{Departement: "92", Annee: "2020", Trimestre: "2020Q1", NbVentes: 10, PrixM2Median: 5000, PrixM2Mean: 5100,
			DPETotal: &n, ClasseAPct: &pct},
		{Departement: "59", Annee: "2020", Trimestre: "2020Q1", NbVentes: 4, PrixM2Median: 2000, PrixM2Mean: 2100},
	}

	data, err := MarshalParquet(rows)
	require.NoError(t, err)

	decoded, err := UnmarshalParquet[domain.GoldRow](data)
	require.NoError(t, err)
	require.Len(t, decoded, 2)

	// Left-join semantics survive the encoding: absent DPE metrics stay
	// null, they never become zeros.
	require.NotNil(t, decoded[0].DPETotal)
	assert.Equal(t, int64(3), *decoded[0].DPETotal)
	assert.Nil(t, decoded[1].DPETotal)
	assert.Nil(t, decoded[1].ClasseAPct)
}
