// pkg/registry/registry_test.go
package registry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeRegistry(t *testing.T, content string) string {
	path := filepath.Join(t.TempDir(), "activity-registry.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

const testRegistry = `{
  "version": "1.0.0",
  "lastUpdated": "2026-08-20T10:00:00Z",
  "activities": [
    {
      "id": "evaluate-lenders",
      "displayName": "Evaluate Lenders",
      "description": "Scores an application against the lender catalog",
      "category": "underwriting",
      "version": "1.0.0",
      "taskType": "evaluate-lenders",
      "inputSchema": {
        "type": "object",
        "required": ["applicationId"],
        "properties": {
          "applicationId": {"type": "integer", "minimum": 1}
        }
      },
      "outputSchema": {},
      "errorCodes": ["CATALOG_LOAD_FAILED"],
      "timeout": "30s",
      "retries": 3,
      "workflows": ["underwriting-pipeline"],
      "tags": ["scoring"]
    }
  ]
}`

func TestLoadRegistry(t *testing.T) {
	path := writeRegistry(t, testRegistry)

	reg, err := LoadRegistry(path)

	require.NoError(t, err)
	assert.Equal(t, "1.0.0", reg.Version)
	require.Len(t, reg.Activities, 1)
	assert.Equal(t, "evaluate-lenders", reg.Activities[0].ID)
}

func TestFindByTaskType(t *testing.T) {
	path := writeRegistry(t, testRegistry)
	reg, err := LoadRegistry(path)
	require.NoError(t, err)

	activity, found := reg.FindByTaskType("evaluate-lenders")
	require.True(t, found)
	assert.Equal(t, "Evaluate Lenders", activity.DisplayName)

	_, found = reg.FindByTaskType("no-such-task")
	assert.False(t, found)
}

func TestValidateInput(t *testing.T) {
	path := writeRegistry(t, testRegistry)
	reg, err := LoadRegistry(path)
	require.NoError(t, err)

	activity, _ := reg.FindByTaskType("evaluate-lenders")

	assert.NoError(t, activity.ValidateInput(map[string]interface{}{"applicationId": 42}))

	err = activity.ValidateInput(map[string]interface{}{"applicationId": "not-a-number"})
	assert.Error(t, err)

	err = activity.ValidateInput(map[string]interface{}{})
	assert.Error(t, err)
}

func TestValidateInput_NoSchemaPasses(t *testing.T) {
	activity := &Activity{TaskType: "unschematized"}

	assert.NoError(t, activity.ValidateInput(map[string]interface{}{"anything": true}))
}
