package manifest

import (
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

// packageSchema is the subset of the package.json schema this tool relies on.
// Violations are reported as warnings, never errors: manifests are
// user-authored documents this tool does not own, and real-world manifests
// bend the format routinely.
const packageSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "name": {"type": "string", "minLength": 1},
    "version": {"type": "string"},
    "type": {"enum": ["module", "commonjs"]},
    "main": {"type": "string"},
    "module": {"type": "string"},
    "types": {"type": "string"},
    "typings": {"type": "string"},
    "bin": {
      "oneOf": [
        {"type": "string"},
        {"type": "object", "additionalProperties": {"type": "string"}}
      ]
    },
    "exports": {
      "oneOf": [
        {"type": "string"},
        {"type": "array"},
        {"type": "object"}
      ]
    },
    "files": {"type": "array", "items": {"type": "string"}},
    "dependencies": {"type": "object", "additionalProperties": {"type": "string"}},
    "devDependencies": {"type": "object", "additionalProperties": {"type": "string"}},
    "peerDependencies": {"type": "object", "additionalProperties": {"type": "string"}},
    "optionalDependencies": {"type": "object", "additionalProperties": {"type": "string"}},
    "typesVersions": {"type": "object"},
    "engines": {"type": "object"}
  }
}`

// ValidateSchema checks raw manifest bytes against the embedded schema and
// returns one message per violation.
func ValidateSchema(data []byte) ([]string, error) {
	schemaLoader := gojsonschema.NewStringLoader(packageSchema)
	documentLoader := gojsonschema.NewBytesLoader(data)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return nil, fmt.Errorf("validate manifest schema: %w", err)
	}

	if result.Valid() {
		return nil, nil
	}

	messages := make([]string, 0, len(result.Errors()))
	for _, violation := range result.Errors() {
		messages = append(messages, fmt.Sprintf("%s: %s", violation.Field(), violation.Description()))
	}

	return messages, nil
}
