// internal/workers/underwriting/derive-features/models.go
package derivefeatures

import "underwriting-workers/internal/models"

type Input struct {
	ApplicationID int64                   `json:"applicationId"`
	Application   *models.LoanApplication `json:"application"`
}

type Output struct {
	ApplicationID int64                   `json:"applicationId"`
	Application   *models.LoanApplication `json:"application"`
	Derived       DerivedFeatures         `json:"derivedFeatures"`
}

// DerivedFeatures reports which attributes derivation filled in.
type DerivedFeatures struct {
	MonthsInBusiness   *int     `json:"monthsInBusiness,omitempty"`
	YearsInBusiness    *float64 `json:"yearsInBusiness,omitempty"`
	EquipmentAgeYears  *float64 `json:"equipmentAgeYears,omitempty"`
	DownPaymentPercent *float64 `json:"downPaymentPercent,omitempty"`
}
