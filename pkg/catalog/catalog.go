// pkg/catalog/catalog.go
package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// catalogSchema validates the structural shape of a catalog file before it is
// unmarshalled. Criterion payload fields (thresholds, lists) are checked at
// evaluation time, not here.
const catalogSchema = `{
  "type": "object",
  "required": ["version", "lenders"],
  "properties": {
    "version": {"type": "string"},
    "lastUpdated": {"type": "string"},
    "lenders": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["id", "name", "programs"],
        "properties": {
          "id": {"type": "string", "minLength": 1},
          "name": {"type": "string", "minLength": 1},
          "displayName": {"type": "string"},
          "isActive": {"type": "boolean"},
          "programs": {
            "type": "array",
            "items": {
              "type": "object",
              "required": ["id", "name", "criteria"],
              "properties": {
                "id": {"type": "string", "minLength": 1},
                "name": {"type": "string", "minLength": 1},
                "isActive": {"type": "boolean"},
                "priority": {"type": "integer", "minimum": 0},
                "criteria": {
                  "type": "array",
                  "items": {
                    "type": "object",
                    "required": ["id", "type", "name", "operator"],
                    "properties": {
                      "id": {"type": "string", "minLength": 1},
                      "type": {"type": "string", "minLength": 1},
                      "name": {"type": "string", "minLength": 1},
                      "operator": {"type": "string", "minLength": 1},
                      "weight": {"type": "number", "minimum": 0},
                      "isRequired": {"type": "boolean"},
                      "isActive": {"type": "boolean"}
                    }
                  }
                }
              }
            }
          }
        }
      }
    }
  }
}`

// Load reads and validates a catalog file.
func Load(path string) (*LenderCatalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file %s: %w", path, err)
	}
	return Parse(data)
}

// Parse validates raw catalog JSON against the catalog schema and unmarshals it.
func Parse(data []byte) (*LenderCatalog, error) {
	schemaLoader := gojsonschema.NewStringLoader(catalogSchema)
	documentLoader := gojsonschema.NewBytesLoader(data)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return nil, fmt.Errorf("catalog validation error: %w", err)
	}

	if !result.Valid() {
		errs := make([]string, len(result.Errors()))
		for i, desc := range result.Errors() {
			errs[i] = desc.String()
		}
		return nil, fmt.Errorf("catalog schema violations: %s", strings.Join(errs, "; "))
	}

	var cat LenderCatalog
	if err := json.Unmarshal(data, &cat); err != nil {
		return nil, fmt.Errorf("failed to unmarshal catalog: %w", err)
	}

	return &cat, nil
}

// ActivePrograms counts programs that would participate in an evaluation.
func (c *LenderCatalog) ActivePrograms() int {
	count := 0
	for _, lender := range c.Lenders {
		if !lender.IsActive {
			continue
		}
		for _, program := range lender.Programs {
			if program.IsActive {
				count++
			}
		}
	}
	return count
}
