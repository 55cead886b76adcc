// Package schema generates JSON schemas from Go types.
package schema

import (
	"encoding/json"

	"github.com/invopop/jsonschema"
)

// GenerateSchema produces a JSON schema document for the given value's type.
// Used by the host loader to publish the extension manifest format for
// editor and registry tooling.
func GenerateSchema(v any) ([]byte, error) {
	reflector := &jsonschema.Reflector{
		DoNotReference: true,
		ExpandedStruct: true,
	}
	s := reflector.Reflect(v)
	return json.MarshalIndent(s, "", "  ")
}
