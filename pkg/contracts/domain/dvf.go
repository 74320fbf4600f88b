package domain

import (
	"time"
)

// Column headers of the raw DVF pipe-delimited export used by the silver stage.
const (
	DVFColDateMutation   = "Date mutation"
	DVFColValeurFonciere = "Valeur fonciere"
	DVFColCodeDept       = "Code departement"
	DVFColCodeCommune    = "Code commune"
	DVFColTypeLocal      = "Type local"
	DVFColSurfaceBati    = "Surface reelle bati"
)

// DVFColumns lists the raw columns the silver transform reads; other columns
// of the export are ignored.
var DVFColumns = []string{
	DVFColDateMutation,
	DVFColValeurFonciere,
	DVFColCodeDept,
	DVFColCodeCommune,
	DVFColTypeLocal,
	DVFColSurfaceBati,
}

// SilverDVFRow is one cleaned, typed property transaction in the silver layer.
// PrixM2 is only ever computed from rows where SurfaceBati > 0.
type SilverDVFRow struct {
	DateMutation    time.Time `parquet:"date_mutation,timestamp(millisecond)" json:"date_mutation"`
	ValeurFonciere  float64   `parquet:"valeur_fonciere" json:"valeur_fonciere"`
	SurfaceBati     float64   `parquet:"surface_reelle_bati" json:"surface_reelle_bati"`
	TypeLocal       string    `parquet:"type_local" json:"type_local"`
	CodeCommune     string    `parquet:"code_commune" json:"code_commune"`
	CodeDepartement string    `parquet:"code_departement" json:"code_departement"`
	PrixM2          float64   `parquet:"prix_m2" json:"prix_m2"`
	Annee           int32     `parquet:"annee" json:"annee"`
	Trimestre       string    `parquet:"trimestre" json:"trimestre"`
}
