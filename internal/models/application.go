// internal/models/application.go
package models

import "time"

// ApplicationStatus tracks a loan application through its lifecycle.
type ApplicationStatus string

const (
	ApplicationStatusDraft      ApplicationStatus = "DRAFT"
	ApplicationStatusSubmitted  ApplicationStatus = "SUBMITTED"
	ApplicationStatusProcessing ApplicationStatus = "PROCESSING"
	ApplicationStatusCompleted  ApplicationStatus = "COMPLETED"
	ApplicationStatusFailed     ApplicationStatus = "FAILED"
)

// LoanApplication is the full application snapshot handed to the underwriting
// engine. Optional numeric fields are pointers: several criteria must
// distinguish "value is zero" from "value was never provided".
type LoanApplication struct {
	ID          int64             `json:"id"`
	ReferenceID string            `json:"referenceId"`
	Status      ApplicationStatus `json:"status"`

	Business       *Business          `json:"business,omitempty"`
	Guarantor      *PersonalGuarantor `json:"guarantor,omitempty"`
	BusinessCredit *BusinessCredit    `json:"businessCredit,omitempty"`
	LoanRequest    *LoanRequest       `json:"loanRequest,omitempty"`

	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
	SubmittedAt *time.Time `json:"submittedAt,omitempty"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

// Business holds the applicant business profile.
type Business struct {
	LegalName        string   `json:"legalName"`
	DBAName          *string  `json:"dbaName,omitempty"`
	EntityType       *string  `json:"entityType,omitempty"`
	State            string   `json:"state"`
	City             *string  `json:"city,omitempty"`
	ZipCode          *string  `json:"zipCode,omitempty"`
	Industry         *string  `json:"industry,omitempty"`
	NAICSCode        *string  `json:"naicsCode,omitempty"`
	YearsInBusiness  *float64 `json:"yearsInBusiness,omitempty"`
	MonthsInBusiness *int     `json:"monthsInBusiness,omitempty"`
	AnnualRevenue    *float64 `json:"annualRevenue,omitempty"`
	MonthlyRevenue   *float64 `json:"monthlyRevenue,omitempty"`
	EmployeeCount    *int     `json:"employeeCount,omitempty"`
}

// PersonalGuarantor holds the personal guarantor's credit profile.
type PersonalGuarantor struct {
	FirstName               string     `json:"firstName"`
	LastName                string     `json:"lastName"`
	OwnershipPercentage     *float64   `json:"ownershipPercentage,omitempty"`
	FicoScore               *int       `json:"ficoScore,omitempty"`
	HasBankruptcy           bool       `json:"hasBankruptcy"`
	BankruptcyDischargeDate *time.Time `json:"bankruptcyDischargeDate,omitempty"`
	YearsSinceBankruptcy    *float64   `json:"yearsSinceBankruptcy,omitempty"`
	HasForeclosure          bool       `json:"hasForeclosure"`
	YearsSinceForeclosure   *float64   `json:"yearsSinceForeclosure,omitempty"`
	HasOpenTaxLiens         bool       `json:"hasOpenTaxLiens"`
	TaxLienAmount           *float64   `json:"taxLienAmount,omitempty"`
	HasJudgments            bool       `json:"hasJudgments"`
	HasCollections          bool       `json:"hasCollections"`
}

// BusinessCredit holds commercial credit bureau scores.
type BusinessCredit struct {
	PaynetScore           *int     `json:"paynetScore,omitempty"`
	PaynetMasterScore     *int     `json:"paynetMasterScore,omitempty"`
	PaydexScore           *int     `json:"paydexScore,omitempty"`
	ExperianBusinessScore *int     `json:"experianBusinessScore,omitempty"`
	NumberOfTradeLines    *int     `json:"numberOfTradeLines,omitempty"`
	HasSlowPays           bool     `json:"hasSlowPays"`
	HasChargeOffs         bool     `json:"hasChargeOffs"`
	ChargeOffAmount       *float64 `json:"chargeOffAmount,omitempty"`
}

// LoanRequest holds the requested financing terms and the equipment being
// financed.
type LoanRequest struct {
	RequestedAmount      *float64 `json:"requestedAmount,omitempty"`
	LoanPurpose          *string  `json:"loanPurpose,omitempty"`
	TermMonths           *int     `json:"termMonths,omitempty"`
	EquipmentType        *string  `json:"equipmentType,omitempty"`
	EquipmentDescription *string  `json:"equipmentDescription,omitempty"`
	EquipmentCost        *float64 `json:"equipmentCost,omitempty"`
	EquipmentYear        *int     `json:"equipmentYear,omitempty"`
	EquipmentAgeYears    *float64 `json:"equipmentAgeYears,omitempty"`
	EquipmentCondition   *string  `json:"equipmentCondition,omitempty"`
	IsTitled             bool     `json:"isTitled"`
	VendorName           *string  `json:"vendorName,omitempty"`
	DownPaymentAmount    *float64 `json:"downPaymentAmount,omitempty"`
	DownPaymentPercent   *float64 `json:"downPaymentPercent,omitempty"`
}
