// Package validation provides advisory validation of the allowed-extensions
// policy setting.
//
// Validation is diagnostic only: the evaluator itself degrades malformed
// configuration to "no policy" and never fails, but hosts can surface these
// findings to administrators before the policy silently permits everything.
package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// policySchema describes the allowed-extensions setting: a mapping from
// extension id, publisher or "*" to a boolean, the "release" marker, or a
// list of `<semver>[@platform]` strings.
const policySchema = `{
  "type": "object",
  "additionalProperties": {
    "anyOf": [
      { "type": "boolean" },
      { "type": "string", "enum": ["release"] },
      {
        "type": "array",
        "items": {
          "type": "string",
          "pattern": "^[0-9]+\\.[0-9]+\\.[0-9]+(-[0-9A-Za-z.-]+)?(\\+[0-9A-Za-z.-]+)?(@[0-9A-Za-z-]+)?$"
        }
      }
    ]
  }
}`

// ValidationError describes one problem found in the setting value.
type ValidationError struct {
	Field   string
	Message string
}

// Result is the outcome of validating a policy setting value.
type Result struct {
	Valid  bool
	Errors []ValidationError
}

// PolicyValidator validates raw policy setting values against the expected
// shape.
type PolicyValidator struct {
	schema *jsonschema.Schema
}

// NewPolicyValidator compiles the policy setting schema.
func NewPolicyValidator() (*PolicyValidator, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("allowed-extensions.json", strings.NewReader(policySchema)); err != nil {
		return nil, fmt.Errorf("failed to add policy schema resource: %w", err)
	}
	schema, err := compiler.Compile("allowed-extensions.json")
	if err != nil {
		return nil, fmt.Errorf("failed to compile policy schema: %w", err)
	}
	return &PolicyValidator{schema: schema}, nil
}

// Validate checks a raw setting value. A nil value is valid: it means no
// policy is configured.
func (v *PolicyValidator) Validate(raw any) *Result {
	result := &Result{Valid: true}
	if raw == nil {
		return result
	}

	// Round-trip through JSON so the schema sees plain decoded types.
	b, err := json.Marshal(raw)
	if err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, ValidationError{
			Message: fmt.Sprintf("setting value is not representable as JSON: %v", err),
		})
		return result
	}
	var obj any
	if err := json.Unmarshal(b, &obj); err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, ValidationError{
			Message: fmt.Sprintf("failed to prepare validation object: %v", err),
		})
		return result
	}

	if err := v.schema.Validate(obj); err != nil {
		result.Valid = false
		var ve *jsonschema.ValidationError
		if errors.As(err, &ve) {
			for _, cause := range flatten(ve) {
				result.Errors = append(result.Errors, ValidationError{
					Field:   strings.TrimPrefix(cause.InstanceLocation, "/"),
					Message: cause.Message,
				})
			}
		} else {
			result.Errors = append(result.Errors, ValidationError{Message: err.Error()})
		}
	}

	return result
}

// flatten returns the leaf causes of a validation error.
func flatten(ve *jsonschema.ValidationError) []*jsonschema.ValidationError {
	if len(ve.Causes) == 0 {
		return []*jsonschema.ValidationError{ve}
	}
	var leaves []*jsonschema.ValidationError
	for _, cause := range ve.Causes {
		leaves = append(leaves, flatten(cause)...)
	}
	return leaves
}
