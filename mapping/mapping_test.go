package mapping

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/cleansweep/document"
	"github.com/c360/cleansweep/errors"
)

func TestLoadJSON_Valid(t *testing.T) {
	data := []byte(`{
		"root": "$.payload",
		"fields": [
			{"name": "id", "path": "$.id", "type": "string"},
			{"name": "value", "path": "$.items[*].v", "type": "float", "align": "items"},
			{"name": "label", "path": "$.items[*].label", "align": "items"},
			{"name": "source", "path": "$.meta.source", "default": "unknown"}
		]
	}`)

	spec, err := LoadJSON(data)
	require.NoError(t, err)

	assert.Equal(t, "$.payload", spec.Root)
	require.Len(t, spec.Fields, 4)
	assert.Equal(t, "id", spec.Fields[0].Name)
	assert.Equal(t, "$.items[*].v", spec.Fields[1].Address().String())
	assert.Equal(t, "items", spec.Fields[1].Align)
	assert.Equal(t, "unknown", spec.Fields[3].Default)
}

func TestLoadJSON_ParseError(t *testing.T) {
	_, err := LoadJSON([]byte(`{"fields": [`))
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrMappingParse)
}

func TestLoadJSON_SchemaViolations(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"missing fields", `{"root": "$"}`},
		{"empty fields", `{"fields": []}`},
		{"field missing path", `{"fields": [{"name": "x"}]}`},
		{"field missing name", `{"fields": [{"path": "$.x"}]}`},
		{"unknown type", `{"fields": [{"name": "x", "path": "$.x", "type": "decimal"}]}`},
		{"unknown property", `{"fields": [{"name": "x", "path": "$.x", "bogus": 1}]}`},
		{"composite default", `{"fields": [{"name": "x", "path": "$.x", "default": {"a": 1}}]}`},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := LoadJSON([]byte(test.data))
			require.Error(t, err)
			assert.ErrorIs(t, err, errors.ErrMappingValidation)
		})
	}
}

func TestValidate_SemanticViolations(t *testing.T) {
	tests := []struct {
		name string
		spec Spec
	}{
		{
			"duplicate names",
			Spec{Fields: []Field{
				{Name: "x", Path: "$.a"},
				{Name: "x", Path: "$.b"},
			}},
		},
		{
			"bad path expression",
			Spec{Fields: []Field{{Name: "x", Path: "$.a[["}}},
		},
		{
			"wildcard root",
			Spec{Root: "$.items[*]", Fields: []Field{{Name: "x", Path: "$.a"}}},
		},
		{
			"align on concrete path",
			Spec{Fields: []Field{{Name: "x", Path: "$.a.b", Align: "g"}}},
		},
		{
			"conflicting alignment in one family",
			Spec{Fields: []Field{
				{Name: "v", Path: "$.items[*].v", Align: "g"},
				{Name: "w", Path: "$.items[*].w"},
			}},
		},
		{
			"two labels in one family",
			Spec{Fields: []Field{
				{Name: "v", Path: "$.items[*].v", Align: "g1"},
				{Name: "w", Path: "$.items[*].w", Align: "g2"},
			}},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			err := test.spec.Validate()
			require.Error(t, err)
			assert.ErrorIs(t, err, errors.ErrMappingValidation)
		})
	}
}

func TestLoadYAML_Valid(t *testing.T) {
	data := []byte(`
root: $.payload
fields:
  - name: id
    path: $.id
  - name: score
    path: $.scores[*]
    type: float
    default: 0
`)

	spec, err := LoadYAML(data)
	require.NoError(t, err)

	assert.Equal(t, "$.payload", spec.Root)
	require.Len(t, spec.Fields, 2)
	assert.Equal(t, "$.scores[*]", spec.Fields[1].Address().String())
	assert.Equal(t, TypeFloat, spec.Fields[1].Type)
}

func TestLoadYAML_ParseError(t *testing.T) {
	_, err := LoadYAML([]byte("fields:\n  - name: x\n path: broken indent"))
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrMappingParse)
}

func TestLoad_DispatchByExtension(t *testing.T) {
	dir := t.TempDir()

	jsonPath := filepath.Join(dir, "spec.json")
	require.NoError(t, os.WriteFile(jsonPath,
		[]byte(`{"fields": [{"name": "x", "path": "$.x"}]}`), 0o600))

	yamlPath := filepath.Join(dir, "spec.yaml")
	require.NoError(t, os.WriteFile(yamlPath,
		[]byte("fields:\n  - name: y\n    path: $.y\n"), 0o600))

	jsonSpec, err := Load(jsonPath)
	require.NoError(t, err)
	assert.Equal(t, "x", jsonSpec.Fields[0].Name)

	yamlSpec, err := Load(yamlPath)
	require.NoError(t, err)
	assert.Equal(t, "y", yamlSpec.Fields[0].Name)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrMappingParse)
}

func TestField_DefaultValue(t *testing.T) {
	tests := []struct {
		name     string
		dflt     any
		expected document.Value
	}{
		{"absent", nil, document.Null()},
		{"string", "unknown", document.String("unknown")},
		{"bool", true, document.Bool(true)},
		{"integral float from JSON", float64(5), document.Int(5)},
		{"fractional", 2.5, document.Float(2.5)},
		{"int from YAML", int(7), document.Int(7)},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			f := Field{Name: "x", Path: "$.x", Default: test.dflt}
			assert.True(t, test.expected.Equal(f.DefaultValue()))
		})
	}
}
