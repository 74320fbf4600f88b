// Package lake defines the bucket/key layout of the medallion data lake and
// the parquet encoding shared by the silver and gold stages.
//
// Layout:
//
//	bronze  dpe/<dept>/dpe_batch_<NNNN>_<timestamp>.json
//	bronze  dvf/<year>/dvf_<year>_<timestamp>_<original name>
//	silver  dvf/<dept>/<annee>/<trimestre>/part-00000.parquet
//	silver  dpe/<dept>/<annee>/<trimestre>/part-00000.parquet
//	gold    market_indicators/gold_complete.parquet
//	gold    market_indicators/<departement>/<trimestre>/part-00000.parquet
package lake

import (
	"fmt"
	"time"
)

const (
	// BronzeDPEPrefix and BronzeDVFPrefix root the two bronze datasets.
	BronzeDPEPrefix = "dpe/"
	BronzeDVFPrefix = "dvf/"

	// SilverDVFPrefix and SilverDPEPrefix root the two silver datasets.
	SilverDVFPrefix = "dvf/"
	SilverDPEPrefix = "dpe/"

	// GoldPrefix roots the gold dataset.
	GoldPrefix = "market_indicators/"

	// GoldCompleteKey is the flat gold file the dashboard reads.
	GoldCompleteKey = GoldPrefix + "gold_complete.parquet"

	// AnalyticsReportKey is the JSON report of the derived business metrics.
	AnalyticsReportKey = GoldPrefix + "analytics_report.json"
)

const batchTimestampLayout = "20060102_150405"

// BronzeDPEKey names one stored API page for a department.
func BronzeDPEKey(departement string, batch int, ts time.Time) string {
	return fmt.Sprintf("%s%s/dpe_batch_%04d_%s.json",
		BronzeDPEPrefix, departement, batch, ts.Format(batchTimestampLayout))
}

// BronzeDPEDeptPrefix lists all pages of one department.
func BronzeDPEDeptPrefix(departement string) string {
	return BronzeDPEPrefix + departement + "/"
}

// BronzeDVFKey names one uploaded raw DVF file.
func BronzeDVFKey(year string, ts time.Time, originalName string) string {
	return fmt.Sprintf("%s%s/dvf_%s_%s_%s",
		BronzeDVFPrefix, year, year, ts.Format(batchTimestampLayout), originalName)
}

// BronzeDVFYearPrefix lists all raw files of one year.
func BronzeDVFYearPrefix(year string) string {
	return fmt.Sprintf("%s%s/", BronzeDVFPrefix, year)
}

// SilverDVFKey names the parquet file of one DVF partition.
func SilverDVFKey(departement string, annee int32, trimestre string) string {
	return fmt.Sprintf("%s%s/%d/%s/part-00000.parquet", SilverDVFPrefix, departement, annee, trimestre)
}

// SilverDPEKey names the parquet file of one DPE partition.
func SilverDPEKey(departement string, annee int32, trimestre string) string {
	return fmt.Sprintf("%s%s/%d/%s/part-00000.parquet", SilverDPEPrefix, departement, annee, trimestre)
}

// GoldPartitionKey names the parquet file of one gold partition.
func GoldPartitionKey(departement, trimestre string) string {
	return fmt.Sprintf("%s%s/%s/part-00000.parquet", GoldPrefix, departement, trimestre)
}
