// internal/workers/underwriting/validate-application/models.go
package validateapplication

import "underwriting-workers/internal/models"

type Input struct {
	ApplicationID int64 `json:"applicationId"`
}

type Output struct {
	ApplicationID    int64                   `json:"applicationId"`
	Valid            bool                    `json:"valid"`
	ValidationErrors []string                `json:"validationErrors,omitempty"`
	Application      *models.LoanApplication `json:"application"`
}
