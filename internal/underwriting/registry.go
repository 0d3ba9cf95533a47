// internal/underwriting/registry.go
package underwriting

import (
	"fmt"
	"sort"

	"underwriting-workers/internal/models"
)

// EvaluatorFunc judges one criterion against one application. Implementations
// must be pure: no I/O, no mutation of inputs, and they always return a
// result — missing application data is itself evaluated, never raised.
type EvaluatorFunc func(app *models.LoanApplication, c models.PolicyCriterion, required bool) CriterionEvaluation

// Registry maps criterion type tags to evaluator functions. Adding a new
// criterion type means registering one function under a new tag; the scorer
// and engine need no changes.
type Registry struct {
	evaluators map[models.CriterionType]EvaluatorFunc
}

// NewRegistry returns a registry pre-loaded with the built-in criterion
// vocabulary.
func NewRegistry() *Registry {
	r := &Registry{evaluators: make(map[models.CriterionType]EvaluatorFunc)}

	r.Register(models.CriterionFicoScore, evaluateFicoScore)
	r.Register(models.CriterionPaynetScore, evaluatePaynetScore)
	r.Register(models.CriterionTimeInBusiness, evaluateTimeInBusiness)
	r.Register(models.CriterionAnnualRevenue, evaluateAnnualRevenue)
	r.Register(models.CriterionLoanAmountMin, evaluateLoanAmountMin)
	r.Register(models.CriterionLoanAmountMax, evaluateLoanAmountMax)
	r.Register(models.CriterionEquipmentAge, evaluateEquipmentAge)
	r.Register(models.CriterionEquipmentType, evaluateEquipmentType)
	r.Register(models.CriterionStateAllowed, evaluateStateAllowed)
	r.Register(models.CriterionStateExcluded, evaluateStateExcluded)
	r.Register(models.CriterionIndustryAllowed, evaluateIndustryAllowed)
	r.Register(models.CriterionIndustryExcluded, evaluateIndustryExcluded)
	r.Register(models.CriterionBankruptcyLookback, evaluateBankruptcyLookback)
	r.Register(models.CriterionForeclosureLookback, evaluateForeclosureLookback)
	r.Register(models.CriterionTaxLienMax, evaluateTaxLienMax)
	r.Register(models.CriterionDownPaymentPercent, evaluateDownPaymentPercent)
	r.Register(models.CriterionDebtServiceCoverage, evaluateDebtServiceCoverage)
	r.Register(models.CriterionCollateralCoverage, evaluateCollateralCoverage)

	return r
}

// Register binds an evaluator to a type tag, replacing any existing binding.
func (r *Registry) Register(t models.CriterionType, fn EvaluatorFunc) {
	r.evaluators[t] = fn
}

// Resolve returns the evaluator for a type tag. Unknown tags resolve to a
// default evaluator that passes with an explanation, so not-yet-implemented
// criterion types never hard-fail a run. A typo'd type therefore always
// passes silently — visible only through the audit trail.
func (r *Registry) Resolve(t models.CriterionType) EvaluatorFunc {
	if fn, ok := r.evaluators[t]; ok {
		return fn
	}
	return evaluateUnknownType
}

// Types lists the registered type tags in stable order, letting callers
// detect catalog entries that would fall through to the default evaluator.
func (r *Registry) Types() []models.CriterionType {
	out := make([]models.CriterionType, 0, len(r.evaluators))
	for t := range r.evaluators {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// evaluateUnknownType is the fail-open fallback for unregistered type tags.
func evaluateUnknownType(_ *models.LoanApplication, c models.PolicyCriterion, required bool) CriterionEvaluation {
	return CriterionEvaluation{
		CriterionID:   c.ID,
		Type:          c.Type,
		Name:          c.Name,
		Passed:        true,
		IsRequired:    required,
		ExpectedValue: formatExpected(c),
		ActualValue:   "Not evaluated",
		Explanation:   fmt.Sprintf("No evaluator registered for criteria type %q; treated as passing", c.Type),
		Weight:        c.Weight,
	}
}
