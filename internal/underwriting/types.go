// internal/underwriting/types.go

// Package underwriting evaluates a loan application against a catalog of
// lender programs and produces a ranked, explainable match result. The
// package is pure: it performs no I/O, holds no state between runs, and
// returns identical output for identical input regardless of how evaluation
// is scheduled.
package underwriting

import "underwriting-workers/internal/models"

// MatchStatus is the categorical outcome for one program.
type MatchStatus string

const (
	StatusEligible    MatchStatus = "ELIGIBLE"
	StatusIneligible  MatchStatus = "INELIGIBLE"
	StatusNeedsReview MatchStatus = "NEEDS_REVIEW"
)

// CriterionEvaluation is the audit unit: every criterion evaluated against
// every program produces exactly one, even when the underlying data is
// missing.
type CriterionEvaluation struct {
	CriterionID   int64                `json:"criteriaId"`
	Type          models.CriterionType `json:"criteriaType"`
	Name          string               `json:"criteriaName"`
	Passed        bool                 `json:"passed"`
	IsRequired    bool                 `json:"isRequired"`
	ExpectedValue string               `json:"expectedValue"`
	ActualValue   string               `json:"actualValue"`
	Explanation   string               `json:"explanation"`
	Weight        float64              `json:"weight"`
}

// ProgramMatchResult is the outcome of evaluating one program against one
// application. CriteriaMet + CriteriaFailed always equals CriteriaTotal, and
// FitScore is always within [0, 100].
type ProgramMatchResult struct {
	LenderID        int64                 `json:"lenderId"`
	LenderName      string                `json:"lenderName"`
	ProgramID       int64                 `json:"programId"`
	ProgramName     string                `json:"programName"`
	ProgramPriority int                   `json:"programPriority"`
	Status          MatchStatus           `json:"status"`
	FitScore        float64               `json:"fitScore"`
	Summary         string                `json:"summary"`
	Recommendation  string                `json:"recommendation,omitempty"`
	CriteriaResults []CriterionEvaluation `json:"criteriaResults"`
	CriteriaMet     int                   `json:"criteriaMet"`
	CriteriaFailed  int                   `json:"criteriaFailed"`
	CriteriaTotal   int                   `json:"criteriaTotal"`
}

// ResultEnvelope is the aggregate output of one evaluation run. Buckets are
// ordered by descending fit score, then ascending program priority, then
// ascending program ID, so identical inputs always produce identical
// envelopes.
type ResultEnvelope struct {
	TotalPrograms    int                  `json:"totalPrograms"`
	EligibleCount    int                  `json:"eligibleCount"`
	NeedsReviewCount int                  `json:"needsReviewCount"`
	IneligibleCount  int                  `json:"ineligibleCount"`
	BestMatch        *ProgramMatchResult  `json:"bestMatch,omitempty"`
	Eligible         []ProgramMatchResult `json:"eligible"`
	NeedsReview      []ProgramMatchResult `json:"needsReview"`
	Ineligible       []ProgramMatchResult `json:"ineligible"`
}
