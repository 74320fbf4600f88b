// Package gold aggregates the silver datasets into BI-ready market
// indicators: DVF price statistics per (departement, trimestre), a pivoted
// DPE class mix, and the left join of the two.
package gold

import (
	"fmt"
	"math"
	"sort"

	"valeurverte/pkg/contracts/domain"
)

// groupKey identifies one (departement, trimestre) aggregation group.
type groupKey struct {
	departement string
	trimestre   string
}

// MarketAggregate is the DVF side of a gold row before the join.
type MarketAggregate struct {
	Departement  string
	Trimestre    string
	NbVentes     int64
	PrixM2Median float64
	PrixM2Mean   float64
}

// ClassMix is the pivoted DPE side of a gold row before the join.
type ClassMix struct {
	Departement string
	Trimestre   string
	Total       int64
	Counts      map[string]int64
	Pcts        map[string]float64
}

// AggregateDVF groups sales by (departement, trimestre) and computes the
// count, the median and the mean of prix_m2, both rounded to whole euros.
func AggregateDVF(rows []domain.SilverDVFRow) []MarketAggregate {
	groups := make(map[groupKey][]float64)
	for _, r := range rows {
		k := groupKey{departement: r.CodeDepartement, trimestre: r.Trimestre}
		groups[k] = append(groups[k], r.PrixM2)
	}

	aggs := make([]MarketAggregate, 0, len(groups))
	for k, prices := range groups {
		aggs = append(aggs, MarketAggregate{
			Departement:  k.departement,
			Trimestre:    k.trimestre,
			NbVentes:     int64(len(prices)),
			PrixM2Median: math.Round(median(prices)),
			PrixM2Mean:   math.Round(mean(prices)),
		})
	}
	sortByGroup(aggs, func(a MarketAggregate) groupKey {
		return groupKey{departement: a.Departement, trimestre: a.Trimestre}
	})
	return aggs
}

// AggregateDPE pivots diagnostics into per-class counts and percentages per
// (departement, trimestre). Records whose energy class is not one of A..G are
// ignored. Percentages are rounded to one decimal; a class absent from a
// group gets a zero count and a zero percentage, never a null.
func AggregateDPE(rows []domain.SilverDPERow) []ClassMix {
	groups := make(map[groupKey]map[string]int64)
	for _, r := range rows {
		if !domain.IsEnergyClass(r.ClasseEnergie) {
			continue
		}
		k := groupKey{departement: r.CodeDepartement, trimestre: r.Trimestre}
		if groups[k] == nil {
			groups[k] = make(map[string]int64)
		}
		groups[k][r.ClasseEnergie]++
	}

	mixes := make([]ClassMix, 0, len(groups))
	for k, counts := range groups {
		mix := ClassMix{
			Departement: k.departement,
			Trimestre:   k.trimestre,
			Counts:      make(map[string]int64, len(domain.EnergyClasses)),
			Pcts:        make(map[string]float64, len(domain.EnergyClasses)),
		}
		for _, c := range domain.EnergyClasses {
			mix.Counts[c] = counts[c]
			mix.Total += counts[c]
		}
		for _, c := range domain.EnergyClasses {
			if mix.Total > 0 {
				mix.Pcts[c] = round1(100 * float64(mix.Counts[c]) / float64(mix.Total))
			} else {
				mix.Pcts[c] = 0
			}
		}
		mixes = append(mixes, mix)
	}
	sortByGroup(mixes, func(m ClassMix) groupKey {
		return groupKey{departement: m.Departement, trimestre: m.Trimestre}
	})
	return mixes
}

// BuildGold left joins the DPE class mix onto the DVF aggregates. Every DVF
// group produces a row; a group without diagnostics keeps null DPE columns.
// The output is sorted by (departement, trimestre) so rebuilds are
// byte-stable.
func BuildGold(sales []MarketAggregate, mixes []ClassMix) []domain.GoldRow {
	byGroup := make(map[groupKey]ClassMix, len(mixes))
	for _, m := range mixes {
		byGroup[groupKey{departement: m.Departement, trimestre: m.Trimestre}] = m
	}

	rows := make([]domain.GoldRow, 0, len(sales))
	for _, s := range sales {
		row := domain.GoldRow{
			Departement:  s.Departement,
			Annee:        anneeOfTrimestre(s.Trimestre),
			Trimestre:    s.Trimestre,
			NbVentes:     s.NbVentes,
			PrixM2Median: s.PrixM2Median,
			PrixM2Mean:   s.PrixM2Mean,
		}
		if mix, ok := byGroup[groupKey{departement: s.Departement, trimestre: s.Trimestre}]; ok {
			row.DPETotal = ptr(mix.Total)
			row.ClasseA = ptr(mix.Counts[domain.ClassA])
			row.ClasseB = ptr(mix.Counts[domain.ClassB])
			row.ClasseC = ptr(mix.Counts[domain.ClassC])
			row.ClasseD = ptr(mix.Counts[domain.ClassD])
			row.ClasseE = ptr(mix.Counts[domain.ClassE])
			row.ClasseF = ptr(mix.Counts[domain.ClassF])
			row.ClasseG = ptr(mix.Counts[domain.ClassG])
			row.ClasseAPct = ptr(mix.Pcts[domain.ClassA])
			row.ClasseBPct = ptr(mix.Pcts[domain.ClassB])
			row.ClasseCPct = ptr(mix.Pcts[domain.ClassC])
			row.ClasseDPct = ptr(mix.Pcts[domain.ClassD])
			row.ClasseEPct = ptr(mix.Pcts[domain.ClassE])
			row.ClasseFPct = ptr(mix.Pcts[domain.ClassF])
			row.ClasseGPct = ptr(mix.Pcts[domain.ClassG])
		}
		rows = append(rows, row)
	}
	return rows
}

// anneeOfTrimestre extracts "2020" from "2020Q1".
func anneeOfTrimestre(trimestre string) string {
	if len(trimestre) < 4 {
		return trimestre
	}
	return trimestre[:4]
}

// median of values; the mean of the two middle values for even counts.
func median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func ptr[T any](v T) *T {
	return &v
}

func sortByGroup[T any](items []T, key func(T) groupKey) {
	sort.Slice(items, func(a, b int) bool {
		ka, kb := key(items[a]), key(items[b])
		if ka.departement != kb.departement {
			return ka.departement < kb.departement
		}
		return ka.trimestre < kb.trimestre
	})
}

// ValidatePcts checks the percentage invariant of a built gold dataset: rows
// carrying DPE metrics must have class percentages summing to 100 within
// rounding tolerance.
func ValidatePcts(rows []domain.GoldRow) error {
	for i := range rows {
		r := &rows[i]
		if !r.HasDPE() || *r.DPETotal == 0 {
			continue
		}
		if sum := r.PctSum(); math.Abs(sum-100) > 0.5 {
			return fmt.Errorf("class percentages of %s/%s sum to %.1f, want 100",
				r.Departement, r.Trimestre, sum)
		}
	}
	return nil
}
