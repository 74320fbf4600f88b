package analytics

import (
	"fmt"

	"valeurverte/pkg/contracts/domain"
)

// DecoteResult quantifies the green value discount: how much cheaper the m2
// sells in communes dominated by poor energy classes, relative to class D.
type DecoteResult struct {
	SalesJoined  int                `json:"sales_joined"`
	MeanByClass  map[string]float64 `json:"mean_prix_m2_by_class"`
	DecotePctVsD map[string]float64 `json:"decote_pct_vs_d,omitempty"`
}

// GreenValueDecote joins sales to diagnostics on the commune code (inner
// join: sales in communes without any diagnostic are excluded), labels each
// commune with its dominant energy class, and compares mean prix_m2 of the
// passoire classes against class D.
func GreenValueDecote(sales []domain.SilverDVFRow, diags []domain.SilverDPERow) Report {
	const name = "green_value_decote"

	communeClass := dominantClassByCommune(diags)
	if len(communeClass) == 0 {
		return failed(name, "no diagnostics with a valid energy class")
	}

	prices := make(map[string][]float64)
	joined := 0
	for _, s := range sales {
		class, ok := communeClass[s.CodeCommune]
		if !ok {
			continue
		}
		prices[class] = append(prices[class], s.PrixM2)
		joined++
	}
	if joined == 0 {
		return failed(name, "no sale shares a commune with a diagnostic")
	}

	result := DecoteResult{
		SalesJoined: joined,
		MeanByClass: make(map[string]float64),
	}
	for class, values := range prices {
		result.MeanByClass[class] = round2(mean(values))
	}

	refMean, hasRef := result.MeanByClass[domain.ClassD]
	if !hasRef || refMean == 0 {
		return partial(name, "no class D sales to anchor the discount", result)
	}

	result.DecotePctVsD = make(map[string]float64)
	for _, class := range []string{domain.ClassF, domain.ClassG} {
		classMean, ok := result.MeanByClass[class]
		if !ok {
			continue
		}
		result.DecotePctVsD[class] = round1(100 * (refMean - classMean) / refMean)
	}
	if len(result.DecotePctVsD) == 0 {
		return partial(name, "no passoire class sales to compare against class D", result)
	}
	return success(name, result)
}

// dominantClassByCommune labels each commune with its most frequent energy
// class; ties break toward the better class so the discount is never
// overstated.
func dominantClassByCommune(diags []domain.SilverDPERow) map[string]string {
	counts := make(map[string]map[string]int)
	for _, d := range diags {
		if !domain.IsEnergyClass(d.ClasseEnergie) || d.CodeCommune == "" {
			continue
		}
		if counts[d.CodeCommune] == nil {
			counts[d.CodeCommune] = make(map[string]int)
		}
		counts[d.CodeCommune][d.ClasseEnergie]++
	}

	dominant := make(map[string]string, len(counts))
	for commune, byClass := range counts {
		best, bestCount := "", -1
		for _, class := range domain.EnergyClasses {
			if byClass[class] > bestCount {
				best, bestCount = class, byClass[class]
			}
		}
		dominant[commune] = best
	}
	return dominant
}

// String renders the discount for logs.
func (r DecoteResult) String() string {
	return fmt.Sprintf("joined=%d decote_vs_d=%v", r.SalesJoined, r.DecotePctVsD)
}
