package analytics

import (
	"sort"

	"valeurverte/pkg/contracts/domain"
)

// Market segments relative to the global mean price.
const (
	SegmentHigh = "high"
	SegmentMid  = "mid"
	SegmentLow  = "low"
)

// segmentBandPct is the half-width of the mid segment around the global mean.
const segmentBandPct = 10.0

// DeptSegment classifies one department against the global market.
type DeptSegment struct {
	Departement string  `json:"departement"`
	MeanPrixM2  float64 `json:"mean_prix_m2"`
	DeltaPct    float64 `json:"delta_pct"`
	Segment     string  `json:"segment"`
}

// SegmentResult is the market segmentation output.
type SegmentResult struct {
	GlobalMean   float64       `json:"global_mean_prix_m2"`
	Departements []DeptSegment `json:"departements"`
}

// MarketSegments classifies each department as high, mid or low market
// depending on whether its mean price sits more than 10% above, within 10%
// of, or more than 10% below the global mean.
func MarketSegments(rows []domain.GoldRow) Report {
	const name = "market_segments"
	if len(rows) == 0 {
		return failed(name, "no gold rows")
	}

	byDept := make(map[string][]float64)
	var all []float64
	for _, r := range rows {
		byDept[r.Departement] = append(byDept[r.Departement], r.PrixM2Mean)
		all = append(all, r.PrixM2Mean)
	}

	global := mean(all)
	if global == 0 {
		return failed(name, "global mean price is zero")
	}

	depts := make([]string, 0, len(byDept))
	for d := range byDept {
		depts = append(depts, d)
	}
	sort.Strings(depts)

	result := SegmentResult{GlobalMean: round2(global)}
	for _, dept := range depts {
		m := mean(byDept[dept])
		delta := 100 * (m - global) / global
		seg := SegmentMid
		switch {
		case delta > segmentBandPct:
			seg = SegmentHigh
		case delta < -segmentBandPct:
			seg = SegmentLow
		}
		result.Departements = append(result.Departements, DeptSegment{
			Departement: dept,
			MeanPrixM2:  round2(m),
			DeltaPct:    round1(delta),
			Segment:     seg,
		})
	}
	return success(name, result)
}

// PassoireShare is the share of energy sieves per department.
type PassoireShare struct {
	Departement string  `json:"departement"`
	Passoires   int64   `json:"passoires"`
	Performants int64   `json:"performants"`
	Total       int64   `json:"total"`
	SharePct    float64 `json:"share_pct"`
}

// PassoiresThermiques measures, per department, the weight of F and G
// diagnostics against the total and against the performant classes A and B.
func PassoiresThermiques(rows []domain.GoldRow) Report {
	const name = "passoires_thermiques"

	type tally struct{ passoires, performants, total int64 }
	byDept := make(map[string]*tally)
	for i := range rows {
		r := &rows[i]
		if !r.HasDPE() {
			continue
		}
		t := byDept[r.Departement]
		if t == nil {
			t = &tally{}
			byDept[r.Departement] = t
		}
		t.total += *r.DPETotal
		for _, class := range domain.EnergyClasses {
			count := r.ClassCount(class)
			if count == nil {
				continue
			}
			if domain.IsPassoire(class) {
				t.passoires += *count
			}
			if class == domain.ClassA || class == domain.ClassB {
				t.performants += *count
			}
		}
	}
	if len(byDept) == 0 {
		return failed(name, "no gold row carries DPE metrics")
	}

	depts := make([]string, 0, len(byDept))
	for d := range byDept {
		depts = append(depts, d)
	}
	sort.Strings(depts)

	var shares []PassoireShare
	for _, dept := range depts {
		t := byDept[dept]
		s := PassoireShare{
			Departement: dept,
			Passoires:   t.passoires,
			Performants: t.performants,
			Total:       t.total,
		}
		if t.total > 0 {
			s.SharePct = round1(100 * float64(t.passoires) / float64(t.total))
		}
		shares = append(shares, s)
	}
	return success(name, shares)
}
