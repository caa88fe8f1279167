package transform

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/cleansweep/document"
	"github.com/c360/cleansweep/errors"
	"github.com/c360/cleansweep/mapping"
)

func loadSpec(t *testing.T, data string) *mapping.Spec {
	t.Helper()
	spec, err := mapping.LoadJSON([]byte(data))
	require.NoError(t, err)
	return spec
}

func fieldValue(t *testing.T, rec Record, name string) document.Value {
	t.Helper()
	v, ok := rec.Get(name)
	require.True(t, ok, "field %q missing from record", name)
	return v
}

func TestTransform_SingleConcreteField(t *testing.T) {
	// A mapping with one concrete field over a single-scalar document
	// yields exactly one record carrying the source scalar.
	spec := loadSpec(t, `{"fields": [{"name": "out", "path": "$.v"}]}`)

	records, err := New().TransformBytes(spec, []byte(`{"v": 42}`), "")
	require.NoError(t, err)

	require.Len(t, records, 1)
	assert.Equal(t, int64(42), fieldValue(t, records[0], "out").IntVal())
}

func TestTransform_FanOutCardinality(t *testing.T) {
	spec := loadSpec(t, `{"fields": [{"name": "v", "path": "$.items[*].v"}]}`)

	records, err := New().TransformBytes(spec,
		[]byte(`{"items": [{"v": 1}, {"v": 2}, {"v": 3}]}`), "")
	require.NoError(t, err)

	require.Len(t, records, 3)
	for i, expected := range []int64{1, 2, 3} {
		assert.Equal(t, expected, fieldValue(t, records[i], "v").IntVal())
	}
}

func TestTransform_SharedFamilyAdvancesTogether(t *testing.T) {
	// Two fields over the same wildcard prefix are one group, not a
	// cartesian square.
	spec := loadSpec(t, `{"fields": [
		{"name": "v", "path": "$.items[*].v"},
		{"name": "label", "path": "$.items[*].label"}
	]}`)

	records, err := New().TransformBytes(spec,
		[]byte(`{"items": [{"v": 1, "label": "a"}, {"v": 2, "label": "b"}]}`), "")
	require.NoError(t, err)

	require.Len(t, records, 2)
	assert.Equal(t, int64(1), fieldValue(t, records[0], "v").IntVal())
	assert.Equal(t, "a", fieldValue(t, records[0], "label").StringVal())
	assert.Equal(t, int64(2), fieldValue(t, records[1], "v").IntVal())
	assert.Equal(t, "b", fieldValue(t, records[1], "label").StringVal())
}

func TestTransform_CartesianFanOut(t *testing.T) {
	// Independent wildcard groups of sizes 2 and 3 yield 6 records, with
	// the group declared first varying slowest.
	spec := loadSpec(t, `{"fields": [
		{"name": "a", "path": "$.as[*]"},
		{"name": "b", "path": "$.bs[*]"}
	]}`)

	records, err := New().TransformBytes(spec,
		[]byte(`{"as": [1, 2], "bs": [10, 20, 30]}`), "")
	require.NoError(t, err)

	require.Len(t, records, 6)
	expected := [][2]int64{
		{1, 10}, {1, 20}, {1, 30},
		{2, 10}, {2, 20}, {2, 30},
	}
	for i, pair := range expected {
		assert.Equal(t, pair[0], fieldValue(t, records[i], "a").IntVal(), "row %d", i)
		assert.Equal(t, pair[1], fieldValue(t, records[i], "b").IntVal(), "row %d", i)
	}
}

func TestTransform_AlignedFanOut(t *testing.T) {
	spec := loadSpec(t, `{"fields": [
		{"name": "a", "path": "$.as[*]", "align": "pair"},
		{"name": "b", "path": "$.bs[*]", "align": "pair"}
	]}`)

	records, err := New().TransformBytes(spec,
		[]byte(`{"as": [1, 2, 3], "bs": [10, 20, 30]}`), "")
	require.NoError(t, err)

	require.Len(t, records, 3)
	for i, pair := range [][2]int64{{1, 10}, {2, 20}, {3, 30}} {
		assert.Equal(t, pair[0], fieldValue(t, records[i], "a").IntVal())
		assert.Equal(t, pair[1], fieldValue(t, records[i], "b").IntVal())
	}
}

func TestTransform_AlignedLengthMismatch(t *testing.T) {
	spec := loadSpec(t, `{"fields": [
		{"name": "a", "path": "$.as[*]", "align": "pair"},
		{"name": "b", "path": "$.bs[*]", "align": "pair"}
	]}`)

	_, err := New().TransformBytes(spec,
		[]byte(`{"as": [1, 2], "bs": [10, 20, 30]}`), "")
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrFanOutAlignment)
}

func TestTransform_HalfLabelledFamilyRejected(t *testing.T) {
	// Labelling only one field of a wildcard family would split the
	// family into two groups and cartesian-product the array against
	// itself, pairing item 0's v with item 1's w. The mapping is
	// rejected outright instead.
	_, err := mapping.LoadJSON([]byte(`{"fields": [
		{"name": "v", "path": "$.items[*].v", "align": "x"},
		{"name": "w", "path": "$.items[*].w"}
	]}`))
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrMappingValidation)
}

func TestTransform_ScalarBroadcast(t *testing.T) {
	spec := loadSpec(t, `{"fields": [
		{"name": "source", "path": "$.meta.source"},
		{"name": "v", "path": "$.items[*].v"}
	]}`)

	records, err := New().TransformBytes(spec,
		[]byte(`{"meta": {"source": "feed-a"}, "items": [{"v": 1}, {"v": 2}]}`), "")
	require.NoError(t, err)

	require.Len(t, records, 2)
	for _, rec := range records {
		assert.Equal(t, "feed-a", fieldValue(t, rec, "source").StringVal())
	}
}

func TestTransform_MissingPathDefault(t *testing.T) {
	spec := loadSpec(t, `{"fields": [
		{"name": "present", "path": "$.a"},
		{"name": "with_default", "path": "$.missing", "default": "unknown"},
		{"name": "no_default", "path": "$.also_missing"}
	]}`)

	records, err := New().TransformBytes(spec, []byte(`{"a": 1}`), "")
	require.NoError(t, err)

	require.Len(t, records, 1)
	rec := records[0]

	// Every declared field appears in every record.
	assert.Equal(t, 3, rec.Len())
	assert.Equal(t, "unknown", fieldValue(t, rec, "with_default").StringVal())
	assert.Equal(t, document.KindNull, fieldValue(t, rec, "no_default").Kind())
}

func TestTransform_FanOutHoleUsesDefault(t *testing.T) {
	spec := loadSpec(t, `{"fields": [
		{"name": "v", "path": "$.items[*].v"},
		{"name": "label", "path": "$.items[*].label", "default": "n/a"}
	]}`)

	records, err := New().TransformBytes(spec,
		[]byte(`{"items": [{"v": 1, "label": "a"}, {"v": 2}]}`), "")
	require.NoError(t, err)

	require.Len(t, records, 2)
	assert.Equal(t, "a", fieldValue(t, records[0], "label").StringVal())
	assert.Equal(t, "n/a", fieldValue(t, records[1], "label").StringVal())
}

func TestTransform_EmptyWildcardGroupYieldsNoRecords(t *testing.T) {
	spec := loadSpec(t, `{"fields": [{"name": "v", "path": "$.items[*].v"}]}`)

	records, err := New().TransformBytes(spec, []byte(`{"items": []}`), "")
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestTransform_AmbiguousConcretePath(t *testing.T) {
	spec := loadSpec(t, `{"fields": [{"name": "v", "path": "$.a"}]}`)

	// Duplicate keys survive decoding, so the concrete path binds twice.
	_, err := New().TransformBytes(spec, []byte(`{"a": 1, "a": 2}`), "")
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrAmbiguousPath)
}

func TestTransform_TypeCoercion(t *testing.T) {
	spec := loadSpec(t, `{"fields": [
		{"name": "price", "path": "$.price", "type": "float"},
		{"name": "count", "path": "$.count", "type": "int"},
		{"name": "id", "path": "$.id", "type": "string"},
		{"name": "active", "path": "$.active", "type": "bool"}
	]}`)

	records, err := New().TransformBytes(spec,
		[]byte(`{"price": "19.99", "count": "7", "id": 1234, "active": "true"}`), "")
	require.NoError(t, err)

	require.Len(t, records, 1)
	rec := records[0]
	assert.Equal(t, 19.99, fieldValue(t, rec, "price").FloatVal())
	assert.Equal(t, int64(7), fieldValue(t, rec, "count").IntVal())
	assert.Equal(t, "1234", fieldValue(t, rec, "id").StringVal())
	assert.True(t, fieldValue(t, rec, "active").BoolVal())
}

func TestTransform_CoercionFailure(t *testing.T) {
	spec := loadSpec(t, `{"fields": [{"name": "count", "path": "$.count", "type": "int"}]}`)

	_, err := New().TransformBytes(spec, []byte(`{"count": "seven"}`), "")
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrTypeCoercion)
	// The error names the field and the offending value.
	assert.Contains(t, err.Error(), `"count"`)
	assert.Contains(t, err.Error(), "seven")
}

func TestTransform_EffectiveRoot(t *testing.T) {
	doc := []byte(`{"outer": {"inner": {"v": 1}}, "v": 99}`)

	// The mapping's declared root applies when no explicit root is given.
	spec := loadSpec(t, `{"root": "$.outer.inner", "fields": [{"name": "v", "path": "$.v"}]}`)
	records, err := New().TransformBytes(spec, doc, "")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, int64(1), fieldValue(t, records[0], "v").IntVal())

	// An explicit root overrides the mapping's.
	records, err = New().TransformBytes(spec, doc, "$")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, int64(99), fieldValue(t, records[0], "v").IntVal())
}

func TestTransform_UnresolvableRootPropagates(t *testing.T) {
	spec := loadSpec(t, `{"fields": [{"name": "v", "path": "$.v"}]}`)

	// a.b is a scalar, so the root cannot resolve; the tokenizer failure
	// surfaces unchanged.
	_, err := New().TransformBytes(spec, []byte(`{"a": {"b": 5}}`), "$.a.b.c")
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrPathResolution)
}

func TestTransform_FieldOrderFollowsDeclaration(t *testing.T) {
	spec := loadSpec(t, `{"fields": [
		{"name": "z_last", "path": "$.a"},
		{"name": "a_first", "path": "$.b"}
	]}`)

	records, err := New().TransformBytes(spec, []byte(`{"b": 2, "a": 1}`), "")
	require.NoError(t, err)

	require.Len(t, records, 1)
	fields := records[0].Fields()
	require.Len(t, fields, 2)
	assert.Equal(t, "z_last", fields[0].Name)
	assert.Equal(t, "a_first", fields[1].Name)

	out, err := json.Marshal(records[0])
	require.NoError(t, err)
	assert.Equal(t, `{"z_last":1,"a_first":2}`, string(out))
}

func TestTransform_Deterministic(t *testing.T) {
	spec := loadSpec(t, `{"fields": [
		{"name": "a", "path": "$.as[*]"},
		{"name": "b", "path": "$.bs[*]"},
		{"name": "s", "path": "$.s", "default": "d"}
	]}`)
	doc := []byte(`{"as": [1, 2], "bs": [10, 20, 30], "s": "x"}`)

	first, err := New().TransformBytes(spec, doc, "")
	require.NoError(t, err)
	second, err := New().TransformBytes(spec, doc, "")
	require.NoError(t, err)

	firstJSON, err := json.Marshal(first)
	require.NoError(t, err)
	secondJSON, err := json.Marshal(second)
	require.NoError(t, err)
	assert.Equal(t, string(firstJSON), string(secondJSON))
}

func TestTransform_NestedWildcards(t *testing.T) {
	spec := loadSpec(t, `{"fields": [{"name": "cell", "path": "$.rows[*].cells[*]"}]}`)

	records, err := New().TransformBytes(spec,
		[]byte(`{"rows": [{"cells": [1, 2]}, {"cells": [3]}]}`), "")
	require.NoError(t, err)

	require.Len(t, records, 3)
	for i, expected := range []int64{1, 2, 3} {
		assert.Equal(t, expected, fieldValue(t, records[i], "cell").IntVal())
	}
}

func TestTransform_FromFiles(t *testing.T) {
	dir := t.TempDir()

	mappingPath := filepath.Join(dir, "mapping.json")
	require.NoError(t, os.WriteFile(mappingPath, []byte(`{
		"fields": [
			{"name": "id", "path": "$.id", "type": "string"},
			{"name": "v", "path": "$.items[*].v", "type": "int"}
		]
	}`), 0o600))

	docPath := filepath.Join(dir, "doc.json")
	require.NoError(t, os.WriteFile(docPath,
		[]byte(`{"id": 7, "items": [{"v": "1"}, {"v": "2"}]}`), 0o600))

	records, err := New().Transform(mappingPath, docPath, "")
	require.NoError(t, err)

	require.Len(t, records, 2)
	assert.Equal(t, "7", fieldValue(t, records[0], "id").StringVal())
	assert.Equal(t, int64(2), fieldValue(t, records[1], "v").IntVal())
}

func TestTransform_MappingErrorsPropagate(t *testing.T) {
	dir := t.TempDir()

	badMapping := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(badMapping, []byte(`{"fields": []}`), 0o600))

	docPath := filepath.Join(dir, "doc.json")
	require.NoError(t, os.WriteFile(docPath, []byte(`{}`), 0o600))

	_, err := New().Transform(badMapping, docPath, "")
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrMappingValidation)

	_, err = New().Transform(filepath.Join(dir, "absent.json"), docPath, "")
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrMappingParse)
}

func TestRecord_SetReplacesInPlace(t *testing.T) {
	var rec Record
	rec.Set("a", document.Int(1))
	rec.Set("b", document.Int(2))
	rec.Set("a", document.Int(10))

	require.Equal(t, 2, rec.Len())
	assert.Equal(t, "a", rec.Fields()[0].Name)
	assert.Equal(t, int64(10), rec.Fields()[0].Value.IntVal())
}
