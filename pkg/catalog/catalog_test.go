// pkg/catalog/catalog_test.go
package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validCatalog = `{
  "version": "2026.08",
  "lastUpdated": "2026-08-20T10:00:00Z",
  "lenders": [
    {
      "id": "summit",
      "name": "summit",
      "displayName": "Summit Capital",
      "isActive": true,
      "programs": [
        {
          "id": "summit-core",
          "name": "Core Program",
          "isActive": true,
          "priority": 1,
          "criteria": [
            {
              "id": "summit-core-fico",
              "type": "fico_score",
              "name": "Minimum FICO",
              "operator": "gte",
              "numericValue": 650,
              "isRequired": true,
              "weight": 2,
              "isActive": true
            }
          ]
        },
        {
          "id": "summit-flex",
          "name": "Flex Program",
          "isActive": false,
          "priority": 2,
          "criteria": []
        }
      ]
    },
    {
      "id": "dormant",
      "name": "dormant",
      "displayName": "Dormant Lending",
      "isActive": false,
      "programs": [
        {
          "id": "dormant-main",
          "name": "Main",
          "isActive": true,
          "priority": 1,
          "criteria": []
        }
      ]
    }
  ]
}`

func TestParse_ValidCatalog(t *testing.T) {
	cat, err := Parse([]byte(validCatalog))

	require.NoError(t, err)
	assert.Equal(t, "2026.08", cat.Version)
	require.Len(t, cat.Lenders, 2)
	assert.Equal(t, "Summit Capital", cat.Lenders[0].DisplayName)
	require.Len(t, cat.Lenders[0].Programs, 2)
	require.Len(t, cat.Lenders[0].Programs[0].Criteria, 1)
	require.NotNil(t, cat.Lenders[0].Programs[0].Criteria[0].NumericValue)
	assert.Equal(t, 650.0, *cat.Lenders[0].Programs[0].Criteria[0].NumericValue)
}

func TestParse_SchemaViolations(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"missing version", `{"lenders": []}`},
		{"lender missing name", `{"version": "1", "lenders": [{"id": "x", "programs": []}]}`},
		{"criterion missing operator", `{"version": "1", "lenders": [{"id": "x", "name": "x", "programs": [{"id": "p", "name": "p", "criteria": [{"id": "c", "type": "fico_score", "name": "c"}]}]}]}`},
		{"not json", `{nope`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data))
			assert.Error(t, err)
		})
	}
}

func TestLoad_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.json")
	require.NoError(t, os.WriteFile(path, []byte(validCatalog), 0644))

	cat, err := Load(path)

	require.NoError(t, err)
	assert.Len(t, cat.Lenders, 2)

	_, err = Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestActivePrograms(t *testing.T) {
	cat, err := Parse([]byte(validCatalog))
	require.NoError(t, err)

	// Inactive programs and programs of inactive lenders are not counted.
	assert.Equal(t, 1, cat.ActivePrograms())
}
