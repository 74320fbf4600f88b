package gold

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"valeurverte/pkg/contracts/domain"
)

func dvfRow(dept, trimestre string, prixM2 float64) domain.SilverDVFRow {
	return domain.SilverDVFRow{CodeDepartement: dept, Trimestre: trimestre, PrixM2: prixM2}
}

func dpeRow(dept, trimestre, class string) domain.SilverDPERow {
	return domain.SilverDPERow{CodeDepartement: dept, Trimestre: trimestre, ClasseEnergie: class}
}

func TestAggregateDVF(t *testing.T) {
	rows := []domain.SilverDVFRow{
		dvfRow("92", "2020Q1", 1000),
		dvfRow("92", "2020Q1", 2000),
		dvfRow("92", "2020Q1", 3000),
		dvfRow("59", "2020Q1", 2500),
	}

	aggs := AggregateDVF(rows)
	require.Len(t, aggs, 2)

	// Sorted by department then quarter.
	assert.Equal(t, "59", aggs[0].Departement)
	assert.Equal(t, int64(1), aggs[0].NbVentes)

	agg92 := aggs[1]
	assert.Equal(t, int64(3), agg92.NbVentes)
	assert.Equal(t, 2000.0, agg92.PrixM2Median)
	assert.Equal(t, 2000.0, agg92.PrixM2Mean)
}

func TestAggregateDVFEvenCountMedian(t *testing.T) {
	rows := []domain.SilverDVFRow{
		dvfRow("92", "2020Q1", 1000),
		dvfRow("92", "2020Q1", 2000),
		dvfRow("92", "2020Q1", 4000),
		dvfRow("92", "2020Q1", 8000),
	}

	aggs := AggregateDVF(rows)
	require.Len(t, aggs, 1)
	assert.Equal(t, 3000.0, aggs[0].PrixM2Median)
	assert.Equal(t, 3750.0, aggs[0].PrixM2Mean)
}

func TestAggregateDVFRoundsToWholeEuros(t *testing.T) {
	rows := []domain.SilverDVFRow{
		dvfRow("92", "2020Q1", 1000.4),
		dvfRow("92", "2020Q1", 1000.4),
		dvfRow("92", "2020Q1", 1000.4),
	}

	aggs := AggregateDVF(rows)
	require.Len(t, aggs, 1)
	assert.Equal(t, 1000.0, aggs[0].PrixM2Median)
	assert.Equal(t, 1000.0, aggs[0].PrixM2Mean)
}

func TestAggregateDPE(t *testing.T) {
	rows := []domain.SilverDPERow{
		dpeRow("92", "2020Q1", "A"),
		dpeRow("92", "2020Q1", "A"),
		dpeRow("92", "2020Q1", "G"),
		dpeRow("92", "2020Q1", "N"), // not a class, ignored
		dpeRow("92", "2020Q1", ""),  // missing, ignored
	}

	mixes := AggregateDPE(rows)
	require.Len(t, mixes, 1)

	mix := mixes[0]
	assert.Equal(t, int64(3), mix.Total)
	assert.Equal(t, int64(2), mix.Counts["A"])
	assert.Equal(t, int64(1), mix.Counts["G"])
	assert.Equal(t, int64(0), mix.Counts["B"])
	assert.InDelta(t, 66.7, mix.Pcts["A"], 0.01)
	assert.InDelta(t, 33.3, mix.Pcts["G"], 0.01)
	assert.Equal(t, 0.0, mix.Pcts["B"])

	var sum float64
	for _, c := range domain.EnergyClasses {
		sum += mix.Pcts[c]
	}
	assert.InDelta(t, 100, sum, 0.1)
}

func TestAggregateDPEAllInvalidClasses(t *testing.T) {
	rows := []domain.SilverDPERow{
		dpeRow("92", "2020Q1", "N"),
		dpeRow("92", "2020Q1", "H"),
	}

	assert.Empty(t, AggregateDPE(rows))
}

func TestBuildGoldLeftJoin(t *testing.T) {
	sales := AggregateDVF([]domain.SilverDVFRow{
		dvfRow("92", "2020Q1", 5000),
		dvfRow("92", "2020Q2", 5200),
		dvfRow("59", "2020Q1", 2000),
	})
	mixes := AggregateDPE([]domain.SilverDPERow{
		dpeRow("92", "2020Q1", "D"),
		dpeRow("92", "2020Q1", "F"),
	})

	rows := BuildGold(sales, mixes)
	require.Len(t, rows, 3)

	byKey := make(map[string]domain.GoldRow)
	for _, r := range rows {
		byKey[r.Departement+"/"+r.Trimestre] = r
	}

	joined := byKey["92/2020Q1"]
	require.True(t, joined.HasDPE())
	assert.Equal(t, int64(2), *joined.DPETotal)
	assert.Equal(t, int64(1), *joined.ClasseD)
	assert.Equal(t, int64(1), *joined.ClasseF)
	assert.Equal(t, int64(0), *joined.ClasseA)
	assert.Equal(t, "2020", joined.Annee)

	// DVF quarters without diagnostics keep null DPE metrics, never zeros.
	unjoined := byKey["92/2020Q2"]
	assert.False(t, unjoined.HasDPE())
	assert.Nil(t, unjoined.ClasseA)
	assert.Nil(t, unjoined.ClasseAPct)
	assert.Equal(t, int64(1), unjoined.NbVentes)

	assert.False(t, byKey["59/2020Q1"].HasDPE())
}

func TestBuildGoldDeterministicOrder(t *testing.T) {
	sales := AggregateDVF([]domain.SilverDVFRow{
		dvfRow("92", "2020Q2", 5000),
		dvfRow("34", "2020Q1", 3000),
		dvfRow("92", "2020Q1", 5000),
	})

	rows := BuildGold(sales, nil)
	require.Len(t, rows, 3)
	assert.Equal(t, "34", rows[0].Departement)
	assert.Equal(t, "2020Q1", rows[1].Trimestre)
	assert.Equal(t, "2020Q2", rows[2].Trimestre)
}

func TestValidatePcts(t *testing.T) {
	sales := AggregateDVF([]domain.SilverDVFRow{dvfRow("92", "2020Q1", 5000)})
	mixes := AggregateDPE([]domain.SilverDPERow{
		dpeRow("92", "2020Q1", "A"),
		dpeRow("92", "2020Q1", "A"),
		dpeRow("92", "2020Q1", "G"),
	})

	rows := BuildGold(sales, mixes)
	assert.NoError(t, ValidatePcts(rows))

	bad := 90.0
	rows[0].ClasseAPct = &bad
	rows[0].ClasseGPct = nil
	err := ValidatePcts(rows)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sum to")
}

func TestMedian(t *testing.T) {
	assert.Equal(t, 0.0, median(nil))
	assert.Equal(t, 5.0, median([]float64{5}))
	assert.Equal(t, 2.0, median([]float64{3, 1, 2}))
	assert.Equal(t, 2.5, median([]float64{4, 1, 2, 3}))
}
