// internal/underwriting/operators.go
package underwriting

import (
	"fmt"
	"strings"

	"underwriting-workers/internal/models"
)

// compareNumeric applies the criterion's operator to an actual value. A nil
// threshold where one is needed is a configuration problem, reported as an
// error so the evaluator can surface it as a failing result instead of
// aborting the run.
func compareNumeric(actual float64, c models.PolicyCriterion) (bool, error) {
	switch c.Operator {
	case models.OpGreaterThan, models.OpGreaterThanOrEqual,
		models.OpLessThan, models.OpLessThanOrEqual,
		models.OpEqual, models.OpNotEqual:
		if c.NumericValue == nil {
			return false, fmt.Errorf("criterion %q: operator %s requires a numeric value", c.Name, c.Operator)
		}
	case models.OpBetween:
		if c.NumericValueMin == nil || c.NumericValueMax == nil {
			return false, fmt.Errorf("criterion %q: operator between requires min and max values", c.Name)
		}
	default:
		return false, fmt.Errorf("criterion %q: operator %s is not numeric", c.Name, c.Operator)
	}

	switch c.Operator {
	case models.OpGreaterThan:
		return actual > *c.NumericValue, nil
	case models.OpGreaterThanOrEqual:
		return actual >= *c.NumericValue, nil
	case models.OpLessThan:
		return actual < *c.NumericValue, nil
	case models.OpLessThanOrEqual:
		return actual <= *c.NumericValue, nil
	case models.OpEqual:
		return actual == *c.NumericValue, nil
	case models.OpNotEqual:
		return actual != *c.NumericValue, nil
	case models.OpBetween:
		return actual >= *c.NumericValueMin && actual <= *c.NumericValueMax, nil
	}
	return false, nil
}

// formatExpected renders the configured requirement for the audit trail.
func formatExpected(c models.PolicyCriterion) string {
	switch c.Operator {
	case models.OpGreaterThanOrEqual:
		return fmt.Sprintf(">= %s", formatNumericPtr(c.NumericValue))
	case models.OpGreaterThan:
		return fmt.Sprintf("> %s", formatNumericPtr(c.NumericValue))
	case models.OpLessThanOrEqual:
		return fmt.Sprintf("<= %s", formatNumericPtr(c.NumericValue))
	case models.OpLessThan:
		return fmt.Sprintf("< %s", formatNumericPtr(c.NumericValue))
	case models.OpEqual:
		if c.NumericValue != nil {
			return fmt.Sprintf("= %s", formatNumeric(*c.NumericValue))
		}
		if c.StringValue != nil {
			return fmt.Sprintf("= %s", *c.StringValue)
		}
		return "= (unset)"
	case models.OpNotEqual:
		return fmt.Sprintf("!= %s", formatNumericPtr(c.NumericValue))
	case models.OpBetween:
		return fmt.Sprintf("%s - %s", formatNumericPtr(c.NumericValueMin), formatNumericPtr(c.NumericValueMax))
	case models.OpInList:
		return "One of: " + strings.Join(c.ListValues, ", ")
	case models.OpNotInList:
		return "Not: " + strings.Join(c.ListValues, ", ")
	}
	if c.NumericValue != nil {
		return formatNumeric(*c.NumericValue)
	}
	if c.StringValue != nil {
		return *c.StringValue
	}
	return strings.Join(c.ListValues, ", ")
}

func formatNumericPtr(v *float64) string {
	if v == nil {
		return "(unset)"
	}
	return formatNumeric(*v)
}

// formatNumeric drops the fractional part when the value is whole, so the
// audit trail reads "680" rather than "680.00".
func formatNumeric(v float64) string {
	if v == float64(int64(v)) {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%.2f", v)
}

// formatMoney renders dollar amounts with a thousands-friendly precision.
func formatMoney(v float64) string {
	return "$" + formatNumeric(v)
}

// normalizeToken lowercases and underscores a value for set-membership
// comparisons, so "Heavy Equipment" matches "heavy_equipment".
func normalizeToken(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), " ", "_")
}

func normalizeTokens(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		out = append(out, normalizeToken(v))
	}
	return out
}

func containsToken(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}
