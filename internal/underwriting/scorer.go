// internal/underwriting/scorer.go
package underwriting

import (
	"fmt"
	"math"
	"strings"

	"underwriting-workers/internal/models"
)

// Scorer evaluates a single program against a single application.
type Scorer struct {
	registry *Registry
}

func NewScorer(registry *Registry) *Scorer {
	return &Scorer{registry: registry}
}

// EvaluateProgram runs every active criterion of the program through its
// evaluator and derives status, fit score, and the summary. Status follows a
// strict priority: any failed required criterion makes the program
// INELIGIBLE; otherwise any failed optional criterion makes it NEEDS_REVIEW;
// otherwise it is ELIGIBLE. The fit score is the weighted share of passed
// criteria, required and optional alike, rounded to one decimal.
func (s *Scorer) EvaluateProgram(app *models.LoanApplication, lender models.Lender, program models.LenderProgram) ProgramMatchResult {
	var (
		results        []CriterionEvaluation
		requiredFailed int
		optionalFailed int
		totalWeight    float64
		passedWeight   float64
		met            int
	)

	for _, criterion := range program.Criteria {
		if !criterion.IsActive {
			continue
		}
		result := s.registry.Resolve(criterion.Type)(app, criterion, criterion.IsRequired)
		results = append(results, result)

		totalWeight += result.Weight
		if result.Passed {
			passedWeight += result.Weight
			met++
		} else if result.IsRequired {
			requiredFailed++
		} else {
			optionalFailed++
		}
	}

	total := len(results)
	failed := total - met

	// A program with no criteria (or only zero-weight criteria) is trivially
	// eligible with a perfect score.
	fitScore := 100.0
	if totalWeight > 0 {
		fitScore = math.Round(passedWeight/totalWeight*1000) / 10
	} else if requiredFailed > 0 {
		fitScore = 0
	}

	status, summary, recommendation := s.summarize(lender, program, results, requiredFailed, optionalFailed, total)

	return ProgramMatchResult{
		LenderID:        lender.ID,
		LenderName:      lender.DisplayName,
		ProgramID:       program.ID,
		ProgramName:     program.Name,
		ProgramPriority: program.Priority,
		Status:          status,
		FitScore:        fitScore,
		Summary:         summary,
		Recommendation:  recommendation,
		CriteriaResults: results,
		CriteriaMet:     met,
		CriteriaFailed:  failed,
		CriteriaTotal:   total,
	}
}

func (s *Scorer) summarize(lender models.Lender, program models.LenderProgram, results []CriterionEvaluation, requiredFailed, optionalFailed, total int) (MatchStatus, string, string) {
	switch {
	case requiredFailed > 0:
		var failedNames []string
		for _, r := range results {
			if r.IsRequired && !r.Passed {
				failedNames = append(failedNames, r.Name)
			}
		}
		summary := fmt.Sprintf("Failed %d required criteria: %s", requiredFailed, strings.Join(truncateNames(failedNames, 3), ", "))
		if extra := len(failedNames) - 3; extra > 0 {
			summary += fmt.Sprintf(" and %d more", extra)
		}
		return StatusIneligible, summary, ""

	case optionalFailed > 0:
		var missing []string
		for _, r := range results {
			if !r.IsRequired && !r.Passed {
				missing = append(missing, r.Name)
			}
		}
		summary := fmt.Sprintf("Met all required criteria but failed %d optional criteria: %s",
			optionalFailed, strings.Join(truncateNames(missing, 3), ", "))
		return StatusNeedsReview, summary, "Manual review recommended"

	default:
		summary := fmt.Sprintf("Meets all %d criteria for %s", total, program.Name)
		recommendation := fmt.Sprintf("Strong candidate for %s - %s", lender.DisplayName, program.Name)
		return StatusEligible, summary, recommendation
	}
}

func truncateNames(names []string, n int) []string {
	if len(names) <= n {
		return names
	}
	return names[:n]
}
