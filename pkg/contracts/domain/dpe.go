package domain

import (
	"time"
)

// Energy classes of a DPE diagnostic, A (best) to G (worst).
const (
	ClassA = "A"
	ClassB = "B"
	ClassC = "C"
	ClassD = "D"
	ClassE = "E"
	ClassF = "F"
	ClassG = "G"
)

// EnergyClasses lists the valid DPE energy classes in order.
var EnergyClasses = []string{ClassA, ClassB, ClassC, ClassD, ClassE, ClassF, ClassG}

// IsEnergyClass reports whether s is one of the seven DPE classes A..G.
func IsEnergyClass(s string) bool {
	for _, c := range EnergyClasses {
		if s == c {
			return true
		}
	}
	return false
}

// IsPassoire reports whether an energy class is a "passoire thermique" (F or G).
func IsPassoire(class string) bool {
	return class == ClassF || class == ClassG
}

// Field names of the ADEME data-fair "dpe-france" dataset requested at ingestion.
const (
	DPEFieldNumero          = "numero_dpe"
	DPEFieldDate            = "date_etablissement_dpe"
	DPEFieldCommune         = "code_insee_commune_actualise"
	DPEFieldClasseEnergie   = "classe_consommation_energie"
	DPEFieldClasseGES       = "classe_estimation_ges"
	DPEFieldTypeBatiment    = "tr002_type_batiment_description"
	DPEFieldDepartement     = "tv016_departement_code"
)

// DPESelectFields is the field list passed to the API select parameter.
var DPESelectFields = []string{
	DPEFieldNumero,
	DPEFieldDate,
	DPEFieldCommune,
	DPEFieldClasseEnergie,
	DPEFieldClasseGES,
	DPEFieldTypeBatiment,
	DPEFieldDepartement,
}

// SilverDPERow is one cleaned, typed DPE observation in the silver layer.
// Column names follow the ADEME source so the gold stage and any external
// reader see the same schema as the original dataset.
type SilverDPERow struct {
	DateEtablissement time.Time `parquet:"date_etablissement_dpe,timestamp(millisecond)" json:"date_etablissement_dpe"`
	CodeCommune       string    `parquet:"code_insee_commune_actualise" json:"code_insee_commune_actualise"`
	ClasseEnergie     string    `parquet:"classe_consommation_energie" json:"classe_consommation_energie"`
	ClasseGES         string    `parquet:"classe_estimation_ges" json:"classe_estimation_ges"`
	TypeBatiment      string    `parquet:"tr002_type_batiment_description" json:"tr002_type_batiment_description"`
	CodeDepartement   string    `parquet:"tv016_departement_code" json:"tv016_departement_code"`
	Annee             int32     `parquet:"annee" json:"annee"`
	Trimestre         string    `parquet:"trimestre" json:"trimestre"`
}
