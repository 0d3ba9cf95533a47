// internal/models/match.go
package models

import "time"

// UnderwritingRun records one pass of an application through the matching
// workflow.
type UnderwritingRun struct {
	ID                    int64      `json:"id"`
	ApplicationID         int64      `json:"applicationId"`
	WorkflowRunID         string     `json:"workflowRunId"`
	Status                string     `json:"status"`
	StartedAt             *time.Time `json:"startedAt,omitempty"`
	CompletedAt           *time.Time `json:"completedAt,omitempty"`
	TotalLendersEvaluated int        `json:"totalLendersEvaluated"`
	EligibleLenders       int        `json:"eligibleLenders"`
	ErrorMessage          *string    `json:"errorMessage,omitempty"`
}

// MatchResultRow is the persisted form of one program's match outcome,
// as stored in the match_results table.
type MatchResultRow struct {
	ID             int64     `json:"id"`
	ApplicationID  int64     `json:"applicationId"`
	LenderID       int64     `json:"lenderId"`
	ProgramID      int64     `json:"programId"`
	Status         string    `json:"status"`
	FitScore       float64   `json:"fitScore"`
	Summary        string    `json:"summary"`
	Recommendation string    `json:"recommendation"`
	CriteriaMet    int       `json:"criteriaMet"`
	CriteriaFailed int       `json:"criteriaFailed"`
	CriteriaTotal  int       `json:"criteriaTotal"`
	CreatedAt      time.Time `json:"createdAt"`
}
