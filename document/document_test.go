package document

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/cleansweep/errors"
)

func TestDecode_PreservesMemberOrder(t *testing.T) {
	v, err := DecodeBytes([]byte(`{"z": 1, "a": 2, "m": 3}`))
	require.NoError(t, err)
	require.Equal(t, KindObject, v.Kind())

	members := v.Members()
	require.Len(t, members, 3)
	assert.Equal(t, "z", members[0].Key)
	assert.Equal(t, "a", members[1].Key)
	assert.Equal(t, "m", members[2].Key)
}

func TestDecode_NumberKinds(t *testing.T) {
	tests := []struct {
		name  string
		input string
		kind  Kind
	}{
		{"integer", `42`, KindInt},
		{"negative integer", `-7`, KindInt},
		{"fraction", `3.14`, KindFloat},
		{"exponent", `1e3`, KindFloat},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			v, err := DecodeBytes([]byte(test.input))
			require.NoError(t, err)
			assert.Equal(t, test.kind, v.Kind())
		})
	}
}

func TestDecode_Nested(t *testing.T) {
	v, err := DecodeBytes([]byte(`{"items": [{"v": 1}, {"v": true}], "name": "x"}`))
	require.NoError(t, err)

	items, ok := v.Lookup("items")
	require.True(t, ok)
	require.Equal(t, KindArray, items.Kind())
	require.Len(t, items.Elems(), 2)

	first, ok := items.Elems()[0].Lookup("v")
	require.True(t, ok)
	assert.Equal(t, int64(1), first.IntVal())

	second, ok := items.Elems()[1].Lookup("v")
	require.True(t, ok)
	assert.True(t, second.BoolVal())
}

func TestDecode_Malformed(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"truncated object", `{"a": 1`},
		{"bare garbage", `{{`},
		{"trailing content", `{"a": 1} extra`},
		{"empty input", ``},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := DecodeBytes([]byte(test.input))
			require.Error(t, err)
			assert.ErrorIs(t, err, errors.ErrDocumentParse)
		})
	}
}

func TestDecode_DuplicateKeysRetained(t *testing.T) {
	v, err := DecodeBytes([]byte(`{"a": 1, "a": 2}`))
	require.NoError(t, err)
	require.Len(t, v.Members(), 2)
	assert.Equal(t, int64(1), v.Members()[0].Value.IntVal())
	assert.Equal(t, int64(2), v.Members()[1].Value.IntVal())
}

func TestMarshalJSON_RoundTripsOrder(t *testing.T) {
	input := `{"z":1,"a":{"y":true,"b":null},"m":[1,2.5,"s"]}`
	v, err := DecodeBytes([]byte(input))
	require.NoError(t, err)

	out, err := v.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, input, string(out))
}

func TestValue_Equal(t *testing.T) {
	a := Object(
		Member{Key: "x", Value: Int(1)},
		Member{Key: "y", Value: Array(String("s"), Bool(true))},
	)
	b := Object(
		Member{Key: "x", Value: Int(1)},
		Member{Key: "y", Value: Array(String("s"), Bool(true))},
	)
	assert.True(t, a.Equal(b))

	// Member order is significant
	c := Object(
		Member{Key: "y", Value: Array(String("s"), Bool(true))},
		Member{Key: "x", Value: Int(1)},
	)
	assert.False(t, a.Equal(c))

	// Int and float never compare equal
	assert.False(t, Int(1).Equal(Float(1)))
}

func TestValue_IsScalar(t *testing.T) {
	assert.True(t, Null().IsScalar())
	assert.True(t, Bool(true).IsScalar())
	assert.True(t, Int(1).IsScalar())
	assert.True(t, Float(1.5).IsScalar())
	assert.True(t, String("s").IsScalar())
	assert.False(t, Object().IsScalar())
	assert.False(t, Array().IsScalar())
}
