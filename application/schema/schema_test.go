package schema_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/extgate-dev/extgate-sdk/application/schema"
	"github.com/extgate-dev/extgate-sdk/domain/entities"
)

func TestGenerateSchema(t *testing.T) {
	data, err := schema.GenerateSchema(entities.ExtensionManifest{})
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))

	properties, ok := doc["properties"].(map[string]any)
	require.True(t, ok, "schema should expose manifest properties")

	for _, field := range []string{"id", "version", "minHostVersion", "targetPlatform", "entry"} {
		assert.Contains(t, properties, field)
	}
}
