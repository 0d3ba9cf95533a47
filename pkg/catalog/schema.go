// pkg/catalog/schema.go
package catalog

// LenderCatalog is the on-disk representation of the lender/program/criteria
// catalog consumed by the seeder.
type LenderCatalog struct {
	Version     string          `json:"version"`
	LastUpdated string          `json:"lastUpdated"`
	Lenders     []CatalogLender `json:"lenders"`
}

type CatalogLender struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	DisplayName string           `json:"displayName"`
	IsActive    bool             `json:"isActive"`
	Programs    []CatalogProgram `json:"programs"`
}

type CatalogProgram struct {
	ID       string             `json:"id"`
	Name     string             `json:"name"`
	IsActive bool               `json:"isActive"`
	Priority int                `json:"priority"`
	Criteria []CatalogCriterion `json:"criteria"`
}

type CatalogCriterion struct {
	ID              string   `json:"id"`
	Type            string   `json:"type"`
	Name            string   `json:"name"`
	Operator        string   `json:"operator"`
	NumericValue    *float64 `json:"numericValue,omitempty"`
	NumericValueMin *float64 `json:"numericValueMin,omitempty"`
	NumericValueMax *float64 `json:"numericValueMax,omitempty"`
	StringValue     *string  `json:"stringValue,omitempty"`
	ListValues      []string `json:"listValues,omitempty"`
	IsRequired      bool     `json:"isRequired"`
	Weight          float64  `json:"weight"`
	FailureMessage  *string  `json:"failureMessage,omitempty"`
	IsActive        bool     `json:"isActive"`
}
