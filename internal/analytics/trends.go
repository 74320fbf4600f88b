package analytics

import (
	"sort"

	"valeurverte/pkg/contracts/domain"
)

// DeptTrend is the quarterly price trajectory of one department.
type DeptTrend struct {
	Departement   string    `json:"departement"`
	Trimestres    []string  `json:"trimestres"`
	MedianPrices  []float64 `json:"median_prices"`
	QoQGrowthPct  []float64 `json:"qoq_growth_pct"`
	MeanGrowthPct float64   `json:"mean_growth_pct"`
	VolatilityPct float64   `json:"volatility_pct"`
}

// QuarterlyTrends computes quarter-over-quarter median price growth per
// department from the gold rows, plus the mean growth and its volatility
// (standard deviation). Departments with a single quarter report no growth.
func QuarterlyTrends(rows []domain.GoldRow) Report {
	const name = "quarterly_trends"
	if len(rows) == 0 {
		return failed(name, "no gold rows")
	}

	byDept := make(map[string][]domain.GoldRow)
	for _, r := range rows {
		byDept[r.Departement] = append(byDept[r.Departement], r)
	}

	depts := make([]string, 0, len(byDept))
	for d := range byDept {
		depts = append(depts, d)
	}
	sort.Strings(depts)

	trends := make([]DeptTrend, 0, len(depts))
	singleQuarter := 0
	for _, dept := range depts {
		series := byDept[dept]
		sort.Slice(series, func(a, b int) bool { return series[a].Trimestre < series[b].Trimestre })

		trend := DeptTrend{Departement: dept}
		for _, r := range series {
			trend.Trimestres = append(trend.Trimestres, r.Trimestre)
			trend.MedianPrices = append(trend.MedianPrices, r.PrixM2Median)
		}
		for i := 1; i < len(trend.MedianPrices); i++ {
			prev := trend.MedianPrices[i-1]
			if prev == 0 {
				continue
			}
			growth := 100 * (trend.MedianPrices[i] - prev) / prev
			trend.QoQGrowthPct = append(trend.QoQGrowthPct, round1(growth))
		}
		if len(trend.QoQGrowthPct) == 0 {
			singleQuarter++
		} else {
			trend.MeanGrowthPct = round1(mean(trend.QoQGrowthPct))
			trend.VolatilityPct = round1(stddev(trend.QoQGrowthPct))
		}
		trends = append(trends, trend)
	}

	if singleQuarter == len(trends) {
		return partial(name, "every department has a single quarter, no growth to compute", trends)
	}
	return success(name, trends)
}
