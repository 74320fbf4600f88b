package domain

// GoldRow is one BI-ready market indicator row per (departement, trimestre).
//
// The DPE columns are optional: a quarter with DVF sales but no DPE
// observations keeps null DPE metrics (left join), it is never backfilled
// with zeros. When DPETotal is set and positive, the seven percentage
// columns sum to 100 within rounding.
type GoldRow struct {
	Departement  string  `parquet:"departement" json:"departement"`
	Annee        string  `parquet:"annee" json:"annee"`
	Trimestre    string  `parquet:"trimestre" json:"trimestre"`
	NbVentes     int64   `parquet:"nb_ventes" json:"nb_ventes"`
	PrixM2Median float64 `parquet:"prix_m2_median" json:"prix_m2_median"`
	PrixM2Mean   float64 `parquet:"prix_m2_mean" json:"prix_m2_mean"`

	DPETotal *int64 `parquet:"dpe_total,optional" json:"dpe_total,omitempty"`

	ClasseA *int64 `parquet:"classe_A,optional" json:"classe_A,omitempty"`
	ClasseB *int64 `parquet:"classe_B,optional" json:"classe_B,omitempty"`
	ClasseC *int64 `parquet:"classe_C,optional" json:"classe_C,omitempty"`
	ClasseD *int64 `parquet:"classe_D,optional" json:"classe_D,omitempty"`
	ClasseE *int64 `parquet:"classe_E,optional" json:"classe_E,omitempty"`
	ClasseF *int64 `parquet:"classe_F,optional" json:"classe_F,omitempty"`
	ClasseG *int64 `parquet:"classe_G,optional" json:"classe_G,omitempty"`

	ClasseAPct *float64 `parquet:"classe_A_pct,optional" json:"classe_A_pct,omitempty"`
	ClasseBPct *float64 `parquet:"classe_B_pct,optional" json:"classe_B_pct,omitempty"`
	ClasseCPct *float64 `parquet:"classe_C_pct,optional" json:"classe_C_pct,omitempty"`
	ClasseDPct *float64 `parquet:"classe_D_pct,optional" json:"classe_D_pct,omitempty"`
	ClasseEPct *float64 `parquet:"classe_E_pct,optional" json:"classe_E_pct,omitempty"`
	ClasseFPct *float64 `parquet:"classe_F_pct,optional" json:"classe_F_pct,omitempty"`
	ClasseGPct *float64 `parquet:"classe_G_pct,optional" json:"classe_G_pct,omitempty"`
}

// HasDPE reports whether the row carries DPE metrics from the join.
func (r GoldRow) HasDPE() bool {
	return r.DPETotal != nil
}

// ClassCount returns the count column for a class, or nil when the row has
// no DPE metrics or the class is unknown.
func (r GoldRow) ClassCount(class string) *int64 {
	switch class {
	case ClassA:
		return r.ClasseA
	case ClassB:
		return r.ClasseB
	case ClassC:
		return r.ClasseC
	case ClassD:
		return r.ClasseD
	case ClassE:
		return r.ClasseE
	case ClassF:
		return r.ClasseF
	case ClassG:
		return r.ClasseG
	}
	return nil
}

// ClassPct returns the percentage column for a class, or nil when absent.
func (r GoldRow) ClassPct(class string) *float64 {
	switch class {
	case ClassA:
		return r.ClasseAPct
	case ClassB:
		return r.ClasseBPct
	case ClassC:
		return r.ClasseCPct
	case ClassD:
		return r.ClasseDPct
	case ClassE:
		return r.ClasseEPct
	case ClassF:
		return r.ClasseFPct
	case ClassG:
		return r.ClasseGPct
	}
	return nil
}

// PctSum returns the sum of the seven percentage columns, treating absent
// columns as zero.
func (r GoldRow) PctSum() float64 {
	var sum float64
	for _, c := range EnergyClasses {
		if p := r.ClassPct(c); p != nil {
			sum += *p
		}
	}
	return sum
}
