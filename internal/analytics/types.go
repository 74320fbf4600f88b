// Package analytics derives business metrics from the silver and gold
// datasets: the green value discount, quarterly trends, spatial disparities,
// market segmentation and the passoires thermiques share. Each analysis
// reports a typed outcome instead of a partially filled result.
package analytics

import "time"

// Outcome is the typed result state of one analysis.
type Outcome string

const (
	// OutcomeSuccess means the analysis produced a complete result.
	OutcomeSuccess Outcome = "success"
	// OutcomePartial means the analysis produced a result with gaps, for
	// example a missing reference class.
	OutcomePartial Outcome = "partial"
	// OutcomeFailed means the analysis produced no result.
	OutcomeFailed Outcome = "failed"
)

// Report is the outcome of one analysis. Result is nil when the analysis
// failed; Detail explains partial and failed outcomes.
type Report struct {
	Name    string  `json:"name"`
	Outcome Outcome `json:"outcome"`
	Detail  string  `json:"detail,omitempty"`
	Result  any     `json:"result,omitempty"`
}

// Bundle is the full analytics report persisted to the gold layer.
type Bundle struct {
	GeneratedAt time.Time `json:"generated_at"`
	Reports     []Report  `json:"reports"`
}

func success(name string, result any) Report {
	return Report{Name: name, Outcome: OutcomeSuccess, Result: result}
}

func partial(name, detail string, result any) Report {
	return Report{Name: name, Outcome: OutcomePartial, Detail: detail, Result: result}
}

func failed(name, detail string) Report {
	return Report{Name: name, Outcome: OutcomeFailed, Detail: detail}
}
