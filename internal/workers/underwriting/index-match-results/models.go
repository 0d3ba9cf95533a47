// internal/workers/underwriting/index-match-results/models.go
package indexmatchresults

import "time"

type Input struct {
	ApplicationID int64  `json:"applicationId"`
	RunID         string `json:"runId"`
}

type Output struct {
	ApplicationID int64  `json:"applicationId"`
	RunID         string `json:"runId"`
	IndexName     string `json:"indexName"`
	Indexed       int    `json:"indexedCount"`
}

// MatchDocument is the search-facing projection of a match result row.
type MatchDocument struct {
	MatchID        int64     `json:"matchId"`
	ApplicationID  int64     `json:"applicationId"`
	RunID          string    `json:"runId"`
	LenderID       int64     `json:"lenderId"`
	LenderName     string    `json:"lenderName"`
	ProgramID      int64     `json:"programId"`
	ProgramName    string    `json:"programName"`
	Status         string    `json:"status"`
	FitScore       float64   `json:"fitScore"`
	Summary        string    `json:"summary"`
	Recommendation string    `json:"recommendation"`
	CriteriaMet    int       `json:"criteriaMet"`
	CriteriaFailed int       `json:"criteriaFailed"`
	CriteriaTotal  int       `json:"criteriaTotal"`
	MatchedAt      time.Time `json:"matchedAt"`
	IndexedAt      time.Time `json:"indexedAt"`
}
