package clean

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/cleansweep/document"
	"github.com/c360/cleansweep/errors"
	"github.com/c360/cleansweep/transform"
)

func record(pairs ...any) transform.Record {
	var rec transform.Record
	for i := 0; i < len(pairs); i += 2 {
		name := pairs[i].(string)
		switch v := pairs[i+1].(type) {
		case nil:
			rec.Set(name, document.Null())
		case string:
			rec.Set(name, document.String(v))
		case int:
			rec.Set(name, document.Int(int64(v)))
		case bool:
			rec.Set(name, document.Bool(v))
		default:
			panic("unsupported test value")
		}
	}
	return rec
}

func fieldString(t *testing.T, rec transform.Record, name string) string {
	t.Helper()
	v, ok := rec.Get(name)
	require.True(t, ok)
	require.Equal(t, document.KindString, v.Kind())
	return v.StringVal()
}

func TestReplaceRule(t *testing.T) {
	eng, err := NewEngine([]Rule{{
		Kind:        KindReplace,
		Fields:      []string{"text"},
		Patterns:    []string{` {2,}`},
		Replacement: " ",
	}}, nil)
	require.NoError(t, err)

	out := eng.Apply([]transform.Record{record("text", "I'm not  sure")})
	require.Len(t, out, 1)
	assert.Equal(t, "I'm not sure", fieldString(t, out[0], "text"))
}

func TestRemoveRule(t *testing.T) {
	eng, err := NewEngine([]Rule{{
		Kind:     KindRemove,
		Fields:   []string{"text"},
		Patterns: []string{`\[\d+\]`},
	}}, nil)
	require.NoError(t, err)

	out := eng.Apply([]transform.Record{record("text", "see note[12] and[3] here")})
	require.Len(t, out, 1)
	assert.Equal(t, "see note and here", fieldString(t, out[0], "text"))
}

func TestRewriteSkipsNonStringFields(t *testing.T) {
	eng, err := NewEngine([]Rule{{
		Kind:        KindReplace,
		Fields:      []string{"count", "missing"},
		Patterns:    []string{`\d`},
		Replacement: "x",
	}}, nil)
	require.NoError(t, err)

	out := eng.Apply([]transform.Record{record("count", 42)})
	require.Len(t, out, 1)
	v, ok := out[0].Get("count")
	require.True(t, ok)
	assert.Equal(t, int64(42), v.IntVal())
}

func TestRewriteDoesNotMutateInput(t *testing.T) {
	eng, err := NewEngine([]Rule{{
		Kind:        KindReplace,
		Fields:      []string{"text"},
		Patterns:    []string{"old"},
		Replacement: "new",
	}}, nil)
	require.NoError(t, err)

	in := []transform.Record{record("text", "old value")}
	out := eng.Apply(in)
	assert.Equal(t, "new value", fieldString(t, out[0], "text"))
	assert.Equal(t, "old value", fieldString(t, in[0], "text"))
}

func TestKeepMatch(t *testing.T) {
	eng, err := NewEngine([]Rule{{
		Kind:     KindKeepMatch,
		Fields:   []string{"lang"},
		Patterns: []string{`^en`},
	}}, nil)
	require.NoError(t, err)

	out := eng.Apply([]transform.Record{
		record("lang", "en-US"),
		record("lang", "fr-FR"),
		record("lang", "en-GB"),
	})
	require.Len(t, out, 2)
	assert.Equal(t, "en-US", fieldString(t, out[0], "lang"))
	assert.Equal(t, "en-GB", fieldString(t, out[1], "lang"))
}

func TestDropMatch(t *testing.T) {
	eng, err := NewEngine([]Rule{{
		Kind:     KindDropMatch,
		Fields:   []string{"status"},
		Patterns: []string{"deleted", "archived"},
	}}, nil)
	require.NoError(t, err)

	out := eng.Apply([]transform.Record{
		record("status", "active"),
		record("status", "deleted"),
		record("status", "archived"),
		record("status", "pending"),
	})
	require.Len(t, out, 2)
	assert.Equal(t, "active", fieldString(t, out[0], "status"))
	assert.Equal(t, "pending", fieldString(t, out[1], "status"))
}

func TestMatchAgainstNonStringRendering(t *testing.T) {
	eng, err := NewEngine([]Rule{{
		Kind:     KindDropMatch,
		Fields:   []string{"code"},
		Patterns: []string{`^4\d\d$`},
	}}, nil)
	require.NoError(t, err)

	out := eng.Apply([]transform.Record{
		record("code", 200),
		record("code", 404),
	})
	require.Len(t, out, 1)
	v, _ := out[0].Get("code")
	assert.Equal(t, int64(200), v.IntVal())
}

func TestDropEmpty(t *testing.T) {
	eng, err := NewEngine([]Rule{{
		Kind:   KindDropEmpty,
		Fields: []string{"name"},
	}}, nil)
	require.NoError(t, err)

	out := eng.Apply([]transform.Record{
		record("name", "ada"),
		record("name", ""),
		record("name", "   "),
		record("name", nil),
		record("other", "no name field"),
	})
	require.Len(t, out, 2)
	assert.Equal(t, "ada", fieldString(t, out[0], "name"))
	_, hasName := out[1].Get("name")
	assert.False(t, hasName)
}

func TestDropDuplicates(t *testing.T) {
	eng, err := NewEngine([]Rule{{
		Kind:   KindDropDuplicates,
		Fields: []string{"id"},
	}}, nil)
	require.NoError(t, err)

	out := eng.Apply([]transform.Record{
		record("id", "a", "n", 1),
		record("id", "b", "n", 2),
		record("id", "a", "n", 3),
	})
	require.Len(t, out, 2)
	v, _ := out[0].Get("n")
	assert.Equal(t, int64(1), v.IntVal())
	v, _ = out[1].Get("n")
	assert.Equal(t, int64(2), v.IntVal())
}

func TestDropDuplicatesCompositeKey(t *testing.T) {
	eng, err := NewEngine([]Rule{{
		Kind:   KindDropDuplicates,
		Fields: []string{"first", "last"},
	}}, nil)
	require.NoError(t, err)

	out := eng.Apply([]transform.Record{
		record("first", "ada", "last", "lovelace"),
		record("first", "ada", "last", "byron"),
		record("first", "ada", "last", "lovelace"),
	})
	assert.Len(t, out, 2)
}

func TestRulesApplyInOrder(t *testing.T) {
	eng, err := NewEngine([]Rule{
		{Kind: KindReplace, Fields: []string{"text"}, Patterns: []string{"spam"}, Replacement: ""},
		{Kind: KindDropEmpty, Fields: []string{"text"}},
	}, nil)
	require.NoError(t, err)

	out := eng.Apply([]transform.Record{
		record("text", "spam"),
		record("text", "keep"),
	})
	require.Len(t, out, 1)
	assert.Equal(t, "keep", fieldString(t, out[0], "text"))
}

func TestRuleValidation(t *testing.T) {
	tests := []struct {
		name string
		rule Rule
	}{
		{"unknown kind", Rule{Kind: "shuffle", Fields: []string{"a"}}},
		{"no fields", Rule{Kind: KindReplace, Patterns: []string{"x"}}},
		{"no patterns", Rule{Kind: KindKeepMatch, Fields: []string{"a"}}},
		{"bad pattern", Rule{Kind: KindRemove, Fields: []string{"a"}, Patterns: []string{"("}}},
		{"patterns on drop_empty", Rule{Kind: KindDropEmpty, Fields: []string{"a"}, Patterns: []string{"x"}}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewEngine([]Rule{tc.rule}, nil)
			require.Error(t, err)
			assert.ErrorIs(t, err, errors.ErrRuleValidation)
			assert.True(t, errors.IsInvalid(err))
		})
	}
}

func TestEmptyEngine(t *testing.T) {
	eng, err := NewEngine(nil, nil)
	require.NoError(t, err)
	in := []transform.Record{record("a", 1)}
	assert.Equal(t, in, eng.Apply(in))
}
