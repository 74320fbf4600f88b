package analytics

import (
	"math"
	"sort"

	"valeurverte/pkg/contracts/domain"
)

// DeptDispersion summarizes the median price distribution of one department.
type DeptDispersion struct {
	Departement string  `json:"departement"`
	Mean        float64 `json:"mean"`
	Std         float64 `json:"std"`
	Min         float64 `json:"min"`
	Max         float64 `json:"max"`
	CV          float64 `json:"cv"`
	SalesShare  float64 `json:"sales_share_pct"`
}

// SpatialResult is the cross-department disparity picture.
type SpatialResult struct {
	Departements     []DeptDispersion `json:"departements"`
	TopSalesShare    float64          `json:"top_sales_share_pct"`
	PriceDPECorr     *float64         `json:"price_dpe_corr,omitempty"`
	PriceDPECorrNote string           `json:"price_dpe_corr_note,omitempty"`
}

// SpatialDisparities measures how unevenly prices and volumes distribute
// across departments, and correlates quarterly median prices with diagnostic
// volumes where the correlation is defined.
func SpatialDisparities(rows []domain.GoldRow) Report {
	const name = "spatial_disparities"
	if len(rows) == 0 {
		return failed(name, "no gold rows")
	}

	byDept := make(map[string][]domain.GoldRow)
	var totalSales int64
	for _, r := range rows {
		byDept[r.Departement] = append(byDept[r.Departement], r)
		totalSales += r.NbVentes
	}

	depts := make([]string, 0, len(byDept))
	for d := range byDept {
		depts = append(depts, d)
	}
	sort.Strings(depts)

	result := SpatialResult{}
	for _, dept := range depts {
		var medians []float64
		var sales int64
		for _, r := range byDept[dept] {
			medians = append(medians, r.PrixM2Median)
			sales += r.NbVentes
		}

		d := DeptDispersion{
			Departement: dept,
			Mean:        round2(mean(medians)),
			Std:         round2(stddev(medians)),
			Min:         medians[0],
			Max:         medians[0],
		}
		for _, m := range medians {
			d.Min = math.Min(d.Min, m)
			d.Max = math.Max(d.Max, m)
		}
		if d.Mean != 0 {
			d.CV = round2(d.Std / d.Mean)
		}
		if totalSales > 0 {
			d.SalesShare = round1(100 * float64(sales) / float64(totalSales))
		}
		result.Departements = append(result.Departements, d)
		result.TopSalesShare = math.Max(result.TopSalesShare, d.SalesShare)
	}

	// Correlate price with diagnostic volume over the rows that carry both.
	var prices, volumes []float64
	for _, r := range rows {
		if !r.HasDPE() {
			continue
		}
		prices = append(prices, r.PrixM2Median)
		volumes = append(volumes, float64(*r.DPETotal))
	}
	if corr, ok := pearson(prices, volumes); ok {
		c := round2(corr)
		result.PriceDPECorr = &c
	} else {
		result.PriceDPECorrNote = "correlation undefined, too few joined quarters"
	}

	if result.PriceDPECorr == nil {
		return partial(name, result.PriceDPECorrNote, result)
	}
	return success(name, result)
}
