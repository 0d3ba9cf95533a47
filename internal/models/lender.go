// internal/models/lender.go
package models

import "time"

// CriterionType tags a policy criterion with the evaluator that knows how to
// judge it. The vocabulary is open: unknown tags resolve to the engine's
// default evaluator instead of failing the run.
type CriterionType string

const (
	CriterionFicoScore           CriterionType = "fico_score"
	CriterionPaynetScore         CriterionType = "paynet_score"
	CriterionTimeInBusiness      CriterionType = "time_in_business"
	CriterionAnnualRevenue       CriterionType = "annual_revenue"
	CriterionLoanAmountMin       CriterionType = "loan_amount_min"
	CriterionLoanAmountMax       CriterionType = "loan_amount_max"
	CriterionEquipmentAge        CriterionType = "equipment_age"
	CriterionEquipmentType       CriterionType = "equipment_type"
	CriterionStateAllowed        CriterionType = "state_allowed"
	CriterionStateExcluded       CriterionType = "state_excluded"
	CriterionIndustryAllowed     CriterionType = "industry_allowed"
	CriterionIndustryExcluded    CriterionType = "industry_excluded"
	CriterionBankruptcyLookback  CriterionType = "bankruptcy_lookback"
	CriterionForeclosureLookback CriterionType = "foreclosure_lookback"
	CriterionTaxLienMax          CriterionType = "tax_lien_max"
	CriterionDownPaymentPercent  CriterionType = "down_payment_percent"
	CriterionDebtServiceCoverage CriterionType = "debt_service_coverage"
	CriterionCollateralCoverage  CriterionType = "collateral_coverage"
)

// ComparisonOperator selects how a criterion's configured value is compared
// against the application's value.
type ComparisonOperator string

const (
	OpGreaterThan        ComparisonOperator = "gt"
	OpGreaterThanOrEqual ComparisonOperator = "gte"
	OpLessThan           ComparisonOperator = "lt"
	OpLessThanOrEqual    ComparisonOperator = "lte"
	OpEqual              ComparisonOperator = "eq"
	OpNotEqual           ComparisonOperator = "neq"
	OpBetween            ComparisonOperator = "between"
	OpInList             ComparisonOperator = "in"
	OpNotInList          ComparisonOperator = "not_in"
)

// Lender is a funding source with one or more underwriting programs.
type Lender struct {
	ID               int64           `json:"id"`
	Name             string          `json:"name"`
	DisplayName      string          `json:"displayName"`
	IsActive         bool            `json:"isActive"`
	Programs         []LenderProgram `json:"programs"`
	LastPolicyUpdate *time.Time      `json:"lastPolicyUpdate,omitempty"`
}

// LenderProgram is the unit an application is matched against. Priority breaks
// fit-score ties: lower values rank first.
type LenderProgram struct {
	ID       int64             `json:"id"`
	LenderID int64             `json:"lenderId"`
	Name     string            `json:"name"`
	IsActive bool              `json:"isActive"`
	Priority int               `json:"priority"`
	Criteria []PolicyCriterion `json:"criteria"`
}

// PolicyCriterion is a single eligibility rule. Exactly one of the value
// payloads (numeric threshold, numeric range, string, list) is populated,
// selected by Type and Operator.
type PolicyCriterion struct {
	ID              int64              `json:"id"`
	ProgramID       int64              `json:"programId"`
	Type            CriterionType      `json:"criteriaType"`
	Name            string             `json:"criteriaName"`
	Operator        ComparisonOperator `json:"operator"`
	NumericValue    *float64           `json:"numericValue,omitempty"`
	NumericValueMin *float64           `json:"numericValueMin,omitempty"`
	NumericValueMax *float64           `json:"numericValueMax,omitempty"`
	StringValue     *string            `json:"stringValue,omitempty"`
	ListValues      []string           `json:"listValues,omitempty"`
	IsRequired      bool               `json:"isRequired"`
	Weight          float64            `json:"weight"`
	FailureMessage  *string            `json:"failureMessage,omitempty"`
	IsActive        bool               `json:"isActive"`
}
