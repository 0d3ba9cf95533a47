// internal/underwriting/scorer_test.go
package underwriting

import (
	"testing"

	"underwriting-workers/internal/models"

	"github.com/stretchr/testify/assert"
)

func testLender() models.Lender {
	return models.Lender{ID: 1, Name: "summit", DisplayName: "Summit Capital", IsActive: true}
}

func testProgram(criteria ...models.PolicyCriterion) models.LenderProgram {
	return models.LenderProgram{
		ID: 10, LenderID: 1, Name: "Core Program", IsActive: true, Priority: 1,
		Criteria: criteria,
	}
}

func ficoCriterion(threshold float64, required bool, weight float64) models.PolicyCriterion {
	return models.PolicyCriterion{
		ID: 100, Type: models.CriterionFicoScore, Name: "Minimum FICO",
		Operator: models.OpGreaterThanOrEqual, NumericValue: f64(threshold),
		IsRequired: required, Weight: weight, IsActive: true,
	}
}

func downPaymentCriterion(threshold float64, required bool, weight float64) models.PolicyCriterion {
	return models.PolicyCriterion{
		ID: 101, Type: models.CriterionDownPaymentPercent, Name: "Down Payment",
		Operator: models.OpGreaterThanOrEqual, NumericValue: f64(threshold),
		IsRequired: required, Weight: weight, IsActive: true,
	}
}

func TestScorer_AllCriteriaPass(t *testing.T) {
	scorer := NewScorer(NewRegistry())
	app := fullApplication()

	result := scorer.EvaluateProgram(app, testLender(), testProgram(
		ficoCriterion(650, true, 2),
		downPaymentCriterion(10, false, 1),
	))

	assert.Equal(t, StatusEligible, result.Status)
	assert.Equal(t, 100.0, result.FitScore)
	assert.Equal(t, 2, result.CriteriaMet)
	assert.Equal(t, 0, result.CriteriaFailed)
	assert.Contains(t, result.Recommendation, "Summit Capital")
}

func TestScorer_RequiredFailureIsIneligible(t *testing.T) {
	scorer := NewScorer(NewRegistry())
	app := fullApplication()
	lowFico := 580
	app.Guarantor.FicoScore = &lowFico

	result := scorer.EvaluateProgram(app, testLender(), testProgram(
		ficoCriterion(650, true, 2),
		downPaymentCriterion(10, false, 1),
	))

	assert.Equal(t, StatusIneligible, result.Status)
	// Passed weight 1 of total 3.
	assert.Equal(t, 33.3, result.FitScore)
	assert.Contains(t, result.Summary, "Minimum FICO")
	assert.Empty(t, result.Recommendation)
}

func TestScorer_OptionalFailureNeedsReview(t *testing.T) {
	scorer := NewScorer(NewRegistry())
	app := fullApplication()
	app.LoanRequest.DownPaymentPercent = f64(5)

	result := scorer.EvaluateProgram(app, testLender(), testProgram(
		ficoCriterion(650, true, 2),
		downPaymentCriterion(10, false, 1),
	))

	assert.Equal(t, StatusNeedsReview, result.Status)
	assert.Equal(t, 66.7, result.FitScore)
	assert.Equal(t, "Manual review recommended", result.Recommendation)
	assert.Contains(t, result.Summary, "Down Payment")
}

func TestScorer_InactiveCriteriaSkipped(t *testing.T) {
	scorer := NewScorer(NewRegistry())
	app := fullApplication()
	lowFico := 500
	app.Guarantor.FicoScore = &lowFico

	inactive := ficoCriterion(650, true, 2)
	inactive.IsActive = false

	result := scorer.EvaluateProgram(app, testLender(), testProgram(
		inactive,
		downPaymentCriterion(10, false, 1),
	))

	assert.Equal(t, StatusEligible, result.Status)
	assert.Equal(t, 1, result.CriteriaTotal)
}

func TestScorer_EmptyProgramIsTriviallyEligible(t *testing.T) {
	scorer := NewScorer(NewRegistry())

	result := scorer.EvaluateProgram(fullApplication(), testLender(), testProgram())

	assert.Equal(t, StatusEligible, result.Status)
	assert.Equal(t, 100.0, result.FitScore)
	assert.Equal(t, 0, result.CriteriaTotal)
}

func TestScorer_CountsInvariant(t *testing.T) {
	scorer := NewScorer(NewRegistry())
	app := fullApplication()
	app.LoanRequest.DownPaymentPercent = f64(5)

	result := scorer.EvaluateProgram(app, testLender(), testProgram(
		ficoCriterion(650, true, 2),
		downPaymentCriterion(10, false, 1),
		models.PolicyCriterion{ID: 102, Type: models.CriterionStateExcluded, Name: "Excluded States",
			Operator: models.OpNotInList, ListValues: []string{"NV"},
			IsRequired: true, Weight: 0.5, IsActive: true},
	))

	assert.Equal(t, result.CriteriaTotal, result.CriteriaMet+result.CriteriaFailed)
	assert.Len(t, result.CriteriaResults, result.CriteriaTotal)
	assert.GreaterOrEqual(t, result.FitScore, 0.0)
	assert.LessOrEqual(t, result.FitScore, 100.0)
}

func TestScorer_UnknownCriterionTypePassesOpen(t *testing.T) {
	scorer := NewScorer(NewRegistry())

	result := scorer.EvaluateProgram(fullApplication(), testLender(), testProgram(
		models.PolicyCriterion{
			ID: 103, Type: models.CriterionType("carbon_footprint"), Name: "Carbon Footprint",
			Operator: models.OpLessThanOrEqual, NumericValue: f64(100),
			IsRequired: true, Weight: 1, IsActive: true,
		},
	))

	assert.Equal(t, StatusEligible, result.Status)
	assert.Contains(t, result.CriteriaResults[0].Explanation, "No evaluator registered")
}
