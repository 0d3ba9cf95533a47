// internal/underwriting/features.go
package underwriting

import "underwriting-workers/internal/models"
import "time"

// DeriveFeatures fills in application attributes that evaluators expect to be
// pre-computed: months/years in business, equipment age, and down-payment
// percent. The reference time is explicit so derivation is reproducible; the
// engine itself never calls the clock.
//
// Already-present values are never overwritten — derivation only fills gaps.
func DeriveFeatures(app *models.LoanApplication, now time.Time) {
	if app == nil {
		return
	}

	if b := app.Business; b != nil {
		if b.MonthsInBusiness == nil && b.YearsInBusiness != nil {
			months := int(*b.YearsInBusiness * 12)
			b.MonthsInBusiness = &months
		} else if b.YearsInBusiness == nil && b.MonthsInBusiness != nil {
			years := float64(*b.MonthsInBusiness) / 12
			b.YearsInBusiness = &years
		}
	}

	if lr := app.LoanRequest; lr != nil {
		if lr.EquipmentAgeYears == nil && lr.EquipmentYear != nil {
			age := float64(now.Year() - *lr.EquipmentYear)
			lr.EquipmentAgeYears = &age
		}
		if lr.DownPaymentPercent == nil && lr.DownPaymentAmount != nil &&
			lr.RequestedAmount != nil && *lr.RequestedAmount > 0 {
			pct := *lr.DownPaymentAmount / *lr.RequestedAmount * 100
			lr.DownPaymentPercent = &pct
		}
	}
}
