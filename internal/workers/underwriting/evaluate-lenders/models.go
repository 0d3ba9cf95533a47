// internal/workers/underwriting/evaluate-lenders/models.go
package evaluatelenders

import (
	"underwriting-workers/internal/models"
	"underwriting-workers/internal/underwriting"
)

type Input struct {
	ApplicationID int64                   `json:"applicationId"`
	Application   *models.LoanApplication `json:"application"`
}

type Output struct {
	ApplicationID    int64                            `json:"applicationId"`
	RunID            string                           `json:"runId"`
	TotalPrograms    int                              `json:"totalPrograms"`
	EligibleCount    int                              `json:"eligibleCount"`
	NeedsReviewCount int                              `json:"needsReviewCount"`
	IneligibleCount  int                              `json:"ineligibleCount"`
	BestMatch        *underwriting.ProgramMatchResult `json:"bestMatch,omitempty"`
	Status           string                           `json:"matchOutcome"`
}

// Match outcomes surfaced to the workflow for gateway routing.
const (
	OutcomeMatched    = "MATCHED"
	OutcomeReviewOnly = "REVIEW_ONLY"
	OutcomeNoMatches  = "NO_MATCHES"
)
