package mapping

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"

	"github.com/c360/cleansweep/errors"
)

// specSchema is the structural contract for mapping specifications.
// Semantic rules (path grammar, alignment constraints, name uniqueness)
// are enforced by Spec.Validate after decoding.
const specSchema = `{
	"type": "object",
	"required": ["fields"],
	"additionalProperties": false,
	"properties": {
		"root": {"type": "string"},
		"fields": {
			"type": "array",
			"minItems": 1,
			"items": {
				"type": "object",
				"required": ["name", "path"],
				"additionalProperties": false,
				"properties": {
					"name":    {"type": "string", "minLength": 1},
					"path":    {"type": "string", "minLength": 1},
					"default": {"type": ["string", "number", "boolean", "null"]},
					"type":    {"enum": ["string", "int", "float", "bool"]},
					"align":   {"type": "string", "minLength": 1}
				}
			}
		}
	}
}`

// Load reads, schema-validates, and semantically validates a mapping
// specification from a JSON or YAML file (dispatch by extension; .yaml and
// .yml are YAML, everything else JSON).
func Load(path string) (*Spec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WrapInvalid(
			fmt.Errorf("%w: %s: %v", errors.ErrMappingParse, path, err),
			"mapping", "Load", "read specification")
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return LoadYAML(data)
	default:
		return LoadJSON(data)
	}
}

// LoadJSON parses a JSON-encoded mapping specification.
func LoadJSON(data []byte) (*Spec, error) {
	// Surface syntax errors as parse failures before schema validation,
	// which reports them less usefully.
	if !json.Valid(data) {
		return nil, errors.WrapInvalid(
			fmt.Errorf("%w: invalid JSON", errors.ErrMappingParse),
			"mapping", "LoadJSON", "syntax check")
	}

	if err := validateSchema(gojsonschema.NewBytesLoader(data)); err != nil {
		return nil, err
	}

	var spec Spec
	if err := json.Unmarshal(data, &spec); err != nil {
		return nil, errors.WrapInvalid(
			fmt.Errorf("%w: %v", errors.ErrMappingParse, err),
			"mapping", "LoadJSON", "decode specification")
	}

	if err := spec.Validate(); err != nil {
		return nil, err
	}
	return &spec, nil
}

// LoadYAML parses a YAML-encoded mapping specification.
func LoadYAML(data []byte) (*Spec, error) {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, errors.WrapInvalid(
			fmt.Errorf("%w: %v", errors.ErrMappingParse, err),
			"mapping", "LoadYAML", "decode YAML")
	}

	if err := validateSchema(gojsonschema.NewGoLoader(raw)); err != nil {
		return nil, err
	}

	var spec Spec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, errors.WrapInvalid(
			fmt.Errorf("%w: %v", errors.ErrMappingParse, err),
			"mapping", "LoadYAML", "decode specification")
	}

	if err := spec.Validate(); err != nil {
		return nil, err
	}
	return &spec, nil
}

func validateSchema(doc gojsonschema.JSONLoader) error {
	result, err := gojsonschema.Validate(gojsonschema.NewStringLoader(specSchema), doc)
	if err != nil {
		return errors.WrapInvalid(
			fmt.Errorf("%w: %v", errors.ErrMappingParse, err),
			"mapping", "validateSchema", "run schema validation")
	}
	if !result.Valid() {
		details := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			details = append(details, desc.String())
		}
		return errors.WrapInvalid(
			fmt.Errorf("%w: %s", errors.ErrMappingValidation, strings.Join(details, "; ")),
			"mapping", "validateSchema", "schema validation")
	}
	return nil
}
