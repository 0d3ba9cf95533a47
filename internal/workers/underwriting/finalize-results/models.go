// internal/workers/underwriting/finalize-results/models.go
package finalizeresults

import "underwriting-workers/internal/underwriting"

type Input struct {
	ApplicationID    int64                            `json:"applicationId"`
	RunID            string                           `json:"runId"`
	TotalPrograms    int                              `json:"totalPrograms"`
	EligibleCount    int                              `json:"eligibleCount"`
	NeedsReviewCount int                              `json:"needsReviewCount"`
	IneligibleCount  int                              `json:"ineligibleCount"`
	BestMatch        *underwriting.ProgramMatchResult `json:"bestMatch,omitempty"`
}

type Output struct {
	ApplicationID int64  `json:"applicationId"`
	RunID         string `json:"runId"`
	FinalStatus   string `json:"finalStatus"`
	Summary       string `json:"runSummary"`
}
