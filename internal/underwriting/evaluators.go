// internal/underwriting/evaluators.go
package underwriting

import (
	"fmt"

	"underwriting-workers/internal/models"
)

// Built-in evaluators. Each one follows the same policy: absent data is a
// designed state judged by that criterion's own rules, and a malformed
// configuration payload becomes a failing result with an explanation, never
// a panic or an aborted run.

func pass(c models.PolicyCriterion, required bool, actual, explanation string) CriterionEvaluation {
	return CriterionEvaluation{
		CriterionID:   c.ID,
		Type:          c.Type,
		Name:          c.Name,
		Passed:        true,
		IsRequired:    required,
		ExpectedValue: formatExpected(c),
		ActualValue:   actual,
		Explanation:   explanation,
		Weight:        c.Weight,
	}
}

// fail applies the criterion's configured failure message when one exists.
func fail(c models.PolicyCriterion, required bool, actual, explanation string) CriterionEvaluation {
	if c.FailureMessage != nil && *c.FailureMessage != "" {
		explanation = *c.FailureMessage
	}
	return CriterionEvaluation{
		CriterionID:   c.ID,
		Type:          c.Type,
		Name:          c.Name,
		Passed:        false,
		IsRequired:    required,
		ExpectedValue: formatExpected(c),
		ActualValue:   actual,
		Explanation:   explanation,
		Weight:        c.Weight,
	}
}

const notProvided = "Not provided"

// compareOrFail runs the numeric comparison and folds configuration errors
// into a failing result.
func compareOrFail(c models.PolicyCriterion, required bool, actual float64, actualDisplay string, passMsg, failMsg string) CriterionEvaluation {
	ok, err := compareNumeric(actual, c)
	if err != nil {
		return fail(c, required, actualDisplay, "Invalid criterion configuration: "+err.Error())
	}
	if !ok {
		return fail(c, required, actualDisplay, failMsg)
	}
	return pass(c, required, actualDisplay, passMsg)
}

// ---- Threshold criteria ----

func evaluateFicoScore(app *models.LoanApplication, c models.PolicyCriterion, required bool) CriterionEvaluation {
	if app.Guarantor == nil {
		return fail(c, required, notProvided, "No personal guarantor information provided")
	}
	if app.Guarantor.FicoScore == nil {
		return fail(c, required, notProvided, "FICO score not provided")
	}
	fico := float64(*app.Guarantor.FicoScore)
	return compareOrFail(c, required, fico, formatNumeric(fico),
		fmt.Sprintf("FICO score of %d meets requirement", *app.Guarantor.FicoScore),
		fmt.Sprintf("FICO score of %d does not meet the requirement of %s", *app.Guarantor.FicoScore, formatNumericPtr(c.NumericValue)))
}

func evaluatePaynetScore(app *models.LoanApplication, c models.PolicyCriterion, required bool) CriterionEvaluation {
	if app.BusinessCredit == nil {
		return fail(c, required, notProvided, "No business credit information provided")
	}
	score := app.BusinessCredit.PaynetScore
	if score == nil {
		score = app.BusinessCredit.PaynetMasterScore
	}
	if score == nil {
		return fail(c, required, notProvided, "PayNet score not provided")
	}
	v := float64(*score)
	return compareOrFail(c, required, v, formatNumeric(v),
		fmt.Sprintf("PayNet score of %d meets requirement", *score),
		fmt.Sprintf("PayNet score of %d does not meet the requirement of %s", *score, formatNumericPtr(c.NumericValue)))
}

func evaluateTimeInBusiness(app *models.LoanApplication, c models.PolicyCriterion, required bool) CriterionEvaluation {
	if app.Business == nil {
		return fail(c, required, notProvided, "No business information provided")
	}
	months := app.Business.MonthsInBusiness
	if months == nil && app.Business.YearsInBusiness != nil {
		m := int(*app.Business.YearsInBusiness * 12)
		months = &m
	}
	if months == nil {
		return fail(c, required, notProvided, "Time in business not provided")
	}
	years := float64(*months) / 12
	display := fmt.Sprintf("%d months", *months)
	return compareOrFail(c, required, float64(*months), display,
		fmt.Sprintf("Business operating for %.1f years meets requirement", years),
		fmt.Sprintf("Business operating for %.1f years (%d months), below the %s month requirement", years, *months, formatNumericPtr(c.NumericValue)))
}

func evaluateAnnualRevenue(app *models.LoanApplication, c models.PolicyCriterion, required bool) CriterionEvaluation {
	if app.Business == nil {
		return fail(c, required, notProvided, "No business information provided")
	}
	revenue := app.Business.AnnualRevenue
	if revenue == nil && app.Business.MonthlyRevenue != nil {
		annual := *app.Business.MonthlyRevenue * 12
		revenue = &annual
	}
	if revenue == nil {
		return fail(c, required, notProvided, "Annual revenue not provided")
	}
	display := formatMoney(*revenue)
	return compareOrFail(c, required, *revenue, display,
		fmt.Sprintf("Annual revenue of %s meets requirement", display),
		fmt.Sprintf("Annual revenue of %s does not meet the requirement of %s", display, formatNumericPtr(c.NumericValue)))
}

func evaluateDownPaymentPercent(app *models.LoanApplication, c models.PolicyCriterion, required bool) CriterionEvaluation {
	if app.LoanRequest == nil {
		return fail(c, required, notProvided, "No loan request information provided")
	}
	pct := app.LoanRequest.DownPaymentPercent
	if pct == nil {
		return fail(c, required, notProvided, "Down payment information not provided")
	}
	display := fmt.Sprintf("%.1f%%", *pct)
	return compareOrFail(c, required, *pct, display,
		fmt.Sprintf("Down payment of %s meets requirement", display),
		fmt.Sprintf("Down payment of %s does not meet the requirement of %s%%", display, formatNumericPtr(c.NumericValue)))
}

func evaluateTaxLienMax(app *models.LoanApplication, c models.PolicyCriterion, required bool) CriterionEvaluation {
	if app.Guarantor == nil {
		return fail(c, required, notProvided, "No personal guarantor information provided")
	}
	if !app.Guarantor.HasOpenTaxLiens {
		return pass(c, required, "$0", "No open tax liens")
	}
	amount := 0.0
	if app.Guarantor.TaxLienAmount != nil {
		amount = *app.Guarantor.TaxLienAmount
	}
	display := formatMoney(amount)
	return compareOrFail(c, required, amount, display,
		fmt.Sprintf("Tax liens of %s within acceptable limit", display),
		fmt.Sprintf("Open tax liens of %s exceed the limit of %s", display, formatNumericPtr(c.NumericValue)))
}

// ---- Range criteria ----

func evaluateLoanAmountMin(app *models.LoanApplication, c models.PolicyCriterion, required bool) CriterionEvaluation {
	amount, ok := requestedAmount(app)
	if !ok {
		return fail(c, required, notProvided, "Requested loan amount not provided")
	}
	display := formatMoney(amount)
	return compareOrFail(c, required, amount, display,
		fmt.Sprintf("Requested amount of %s meets minimum requirement", display),
		fmt.Sprintf("Requested amount of %s is below the minimum of %s", display, formatNumericPtr(c.NumericValue)))
}

func evaluateLoanAmountMax(app *models.LoanApplication, c models.PolicyCriterion, required bool) CriterionEvaluation {
	amount, ok := requestedAmount(app)
	if !ok {
		return fail(c, required, notProvided, "Requested loan amount not provided")
	}
	display := formatMoney(amount)
	return compareOrFail(c, required, amount, display,
		fmt.Sprintf("Requested amount of %s within maximum limit", display),
		fmt.Sprintf("Requested amount of %s exceeds the maximum of %s", display, formatNumericPtr(c.NumericValue)))
}

func evaluateEquipmentAge(app *models.LoanApplication, c models.PolicyCriterion, required bool) CriterionEvaluation {
	if app.LoanRequest == nil {
		return fail(c, required, notProvided, "No loan request information provided")
	}
	age := app.LoanRequest.EquipmentAgeYears
	if age == nil {
		return fail(c, required, notProvided, "Equipment age not provided")
	}
	display := fmt.Sprintf("%s years", formatNumeric(*age))
	return compareOrFail(c, required, *age, display,
		fmt.Sprintf("Equipment age of %s meets requirement", display),
		fmt.Sprintf("Equipment age of %s exceeds the maximum of %s years", display, formatNumericPtr(c.NumericValue)))
}

func requestedAmount(app *models.LoanApplication) (float64, bool) {
	if app.LoanRequest == nil || app.LoanRequest.RequestedAmount == nil {
		return 0, false
	}
	return *app.LoanRequest.RequestedAmount, true
}

// ---- Set-membership criteria ----

// Inclusion lists fail on absent values (coverage cannot be confirmed);
// exclusion lists pass on absent values (nothing to exclude).

func evaluateEquipmentType(app *models.LoanApplication, c models.PolicyCriterion, required bool) CriterionEvaluation {
	if app.LoanRequest == nil || app.LoanRequest.EquipmentType == nil || *app.LoanRequest.EquipmentType == "" {
		if c.Operator == models.OpNotInList {
			return pass(c, required, notProvided, "Equipment type not provided; nothing to exclude")
		}
		return fail(c, required, notProvided, "Equipment type not provided")
	}
	eqType := *app.LoanRequest.EquipmentType
	normalized := normalizeToken(eqType)
	set := normalizeTokens(c.ListValues)

	switch c.Operator {
	case models.OpInList:
		if containsToken(set, normalized) {
			return pass(c, required, eqType, fmt.Sprintf("Equipment type %q is approved", eqType))
		}
		return fail(c, required, eqType, fmt.Sprintf("Equipment type %q is not in the approved list", eqType))
	case models.OpNotInList:
		if !containsToken(set, normalized) {
			return pass(c, required, eqType, fmt.Sprintf("Equipment type %q is not excluded", eqType))
		}
		return fail(c, required, eqType, fmt.Sprintf("Equipment type %q is in the excluded list", eqType))
	}
	return fail(c, required, eqType, fmt.Sprintf("Invalid operator %q for equipment type criterion", c.Operator))
}

func evaluateStateAllowed(app *models.LoanApplication, c models.PolicyCriterion, required bool) CriterionEvaluation {
	state, ok := businessState(app)
	if !ok {
		return fail(c, required, notProvided, "Business state not provided")
	}
	if containsToken(normalizeTokens(c.ListValues), normalizeToken(state)) {
		return pass(c, required, state, fmt.Sprintf("Business state %q is covered", state))
	}
	return fail(c, required, state, fmt.Sprintf("Business state %q is not in the approved states", state))
}

func evaluateStateExcluded(app *models.LoanApplication, c models.PolicyCriterion, required bool) CriterionEvaluation {
	state, ok := businessState(app)
	if !ok {
		return pass(c, required, notProvided, "Business state not provided; nothing to exclude")
	}
	if containsToken(normalizeTokens(c.ListValues), normalizeToken(state)) {
		return fail(c, required, state, fmt.Sprintf("Business state %q is in the excluded states list", state))
	}
	return pass(c, required, state, fmt.Sprintf("Business state %q is not excluded", state))
}

func evaluateIndustryAllowed(app *models.LoanApplication, c models.PolicyCriterion, required bool) CriterionEvaluation {
	industry, ok := businessIndustry(app)
	if !ok {
		return fail(c, required, notProvided, "Industry not provided")
	}
	if containsToken(normalizeTokens(c.ListValues), normalizeToken(industry)) {
		return pass(c, required, industry, fmt.Sprintf("Industry %q is approved", industry))
	}
	return fail(c, required, industry, fmt.Sprintf("Industry %q is not in the approved industries", industry))
}

func evaluateIndustryExcluded(app *models.LoanApplication, c models.PolicyCriterion, required bool) CriterionEvaluation {
	industry, ok := businessIndustry(app)
	if !ok {
		return pass(c, required, notProvided, "Industry not provided; nothing to exclude")
	}
	if containsToken(normalizeTokens(c.ListValues), normalizeToken(industry)) {
		return fail(c, required, industry, fmt.Sprintf("Industry %q is in the excluded industries list", industry))
	}
	return pass(c, required, industry, fmt.Sprintf("Industry %q is not excluded", industry))
}

func businessState(app *models.LoanApplication) (string, bool) {
	if app.Business == nil || app.Business.State == "" {
		return "", false
	}
	return app.Business.State, true
}

func businessIndustry(app *models.LoanApplication) (string, bool) {
	if app.Business == nil || app.Business.Industry == nil || *app.Business.Industry == "" {
		return "", false
	}
	return *app.Business.Industry, true
}

// ---- Lookback criteria ----

func evaluateBankruptcyLookback(app *models.LoanApplication, c models.PolicyCriterion, required bool) CriterionEvaluation {
	if app.Guarantor == nil {
		return fail(c, required, notProvided, "No personal guarantor information provided")
	}
	if !app.Guarantor.HasBankruptcy {
		return pass(c, required, "No bankruptcy", "No bankruptcy on record")
	}
	years := app.Guarantor.YearsSinceBankruptcy
	if years == nil {
		return fail(c, required, "Bankruptcy - unknown date", "Bankruptcy on record but discharge date unknown")
	}
	if c.NumericValue == nil {
		return fail(c, required, fmt.Sprintf("%.1f years since discharge", *years),
			fmt.Sprintf("Invalid criterion configuration: criterion %q requires a lookback period in years", c.Name))
	}
	display := fmt.Sprintf("%.1f years since discharge", *years)
	if *years >= *c.NumericValue {
		return pass(c, required, display,
			fmt.Sprintf("Bankruptcy discharged %.1f years ago, meets %s year requirement", *years, formatNumeric(*c.NumericValue)))
	}
	return fail(c, required, display,
		fmt.Sprintf("Bankruptcy discharged %.1f years ago, but must be at least %s years", *years, formatNumeric(*c.NumericValue)))
}

func evaluateForeclosureLookback(app *models.LoanApplication, c models.PolicyCriterion, required bool) CriterionEvaluation {
	if app.Guarantor == nil {
		return fail(c, required, notProvided, "No personal guarantor information provided")
	}
	if !app.Guarantor.HasForeclosure {
		return pass(c, required, "No foreclosure", "No foreclosure on record")
	}
	years := app.Guarantor.YearsSinceForeclosure
	if years == nil {
		return fail(c, required, "Foreclosure - unknown date", "Foreclosure on record but completion date unknown")
	}
	if c.NumericValue == nil {
		return fail(c, required, fmt.Sprintf("%.1f years since foreclosure", *years),
			fmt.Sprintf("Invalid criterion configuration: criterion %q requires a lookback period in years", c.Name))
	}
	display := fmt.Sprintf("%.1f years since foreclosure", *years)
	if *years >= *c.NumericValue {
		return pass(c, required, display,
			fmt.Sprintf("Foreclosure %.1f years ago, meets %s year requirement", *years, formatNumeric(*c.NumericValue)))
	}
	return fail(c, required, display,
		fmt.Sprintf("Foreclosure %.1f years ago, but must be at least %s years", *years, formatNumeric(*c.NumericValue)))
}

// ---- Ratio criteria ----

// Ratio criteria are decision-relevant, so missing inputs produce an explicit
// "insufficient data" failure instead of a silent pass.

func evaluateDebtServiceCoverage(app *models.LoanApplication, c models.PolicyCriterion, required bool) CriterionEvaluation {
	if app.LoanRequest == nil || app.LoanRequest.RequestedAmount == nil || app.LoanRequest.TermMonths == nil || *app.LoanRequest.TermMonths == 0 {
		return fail(c, required, "Insufficient data", "Insufficient data to compute debt service coverage: requested amount and term required")
	}
	var monthlyRevenue float64
	switch {
	case app.Business != nil && app.Business.MonthlyRevenue != nil:
		monthlyRevenue = *app.Business.MonthlyRevenue
	case app.Business != nil && app.Business.AnnualRevenue != nil:
		monthlyRevenue = *app.Business.AnnualRevenue / 12
	default:
		return fail(c, required, "Insufficient data", "Insufficient data to compute debt service coverage: revenue not provided")
	}

	monthlyPayment := *app.LoanRequest.RequestedAmount / float64(*app.LoanRequest.TermMonths)
	ratio := monthlyRevenue / monthlyPayment
	display := fmt.Sprintf("%.2fx", ratio)
	return compareOrFail(c, required, ratio, display,
		fmt.Sprintf("Debt service coverage of %s meets requirement", display),
		fmt.Sprintf("Debt service coverage of %s does not meet the requirement of %sx", display, formatNumericPtr(c.NumericValue)))
}

func evaluateCollateralCoverage(app *models.LoanApplication, c models.PolicyCriterion, required bool) CriterionEvaluation {
	if app.LoanRequest == nil || app.LoanRequest.RequestedAmount == nil || *app.LoanRequest.RequestedAmount == 0 {
		return fail(c, required, "Insufficient data", "Insufficient data to compute collateral coverage: requested amount required")
	}
	if app.LoanRequest.EquipmentCost == nil {
		return fail(c, required, "Insufficient data", "Insufficient data to compute collateral coverage: equipment cost not provided")
	}
	ratio := *app.LoanRequest.EquipmentCost / *app.LoanRequest.RequestedAmount
	display := fmt.Sprintf("%.2fx", ratio)
	return compareOrFail(c, required, ratio, display,
		fmt.Sprintf("Collateral coverage of %s meets requirement", display),
		fmt.Sprintf("Collateral coverage of %s does not meet the requirement of %sx", display, formatNumericPtr(c.NumericValue)))
}
