// Package transform projects tokenized documents into ordered sequences of
// output records according to a mapping specification.
//
// The transformer composes the tokenizer: it loads a mapping, tokenizes the
// document scoped to the effective root, and re-assembles the token sequence
// into zero or more records. Wildcard-bearing field paths drive row fan-out:
// fields sharing a wildcard prefix advance together, groups labelled with
// the same alignment zip pairwise, and independent groups combine via
// cartesian product with scalar fields broadcast to every row.
//
// Calls are single-pass and stateless; a failure aborts the whole call with
// no partial output.
package transform

import (
	"fmt"
	"sort"

	"github.com/c360/cleansweep/address"
	"github.com/c360/cleansweep/document"
	"github.com/c360/cleansweep/errors"
	"github.com/c360/cleansweep/mapping"
	"github.com/c360/cleansweep/tokenize"
)

// Transformer projects documents into record sequences. It holds no state
// and is safe for concurrent use across documents.
type Transformer struct {
	tokenizer *tokenize.Tokenizer
}

// New creates a Transformer.
func New() *Transformer {
	return &Transformer{tokenizer: tokenize.New()}
}

// Transform loads the mapping specification at mappingPath and the JSON
// document at documentPath and returns the ordered record sequence. An
// explicit root overrides the mapping's declared root; empty means the
// mapping decides, falling back to the document top level.
func (t *Transformer) Transform(mappingPath, documentPath, root string) ([]Record, error) {
	spec, err := mapping.Load(mappingPath)
	if err != nil {
		return nil, err
	}

	tokens, err := t.tokenizer.Tokenize(documentPath, effectiveRoot(root, spec))
	if err != nil {
		return nil, err
	}

	return assemble(spec, tokens)
}

// TransformBytes transforms an in-memory JSON encoding with an
// already-loaded specification.
func (t *Transformer) TransformBytes(spec *mapping.Spec, data []byte, root string) ([]Record, error) {
	tokens, err := t.tokenizer.TokenizeBytes(data, effectiveRoot(root, spec))
	if err != nil {
		return nil, err
	}
	return assemble(spec, tokens)
}

// TransformDocument transforms an already-decoded document tree.
func (t *Transformer) TransformDocument(spec *mapping.Spec, doc document.Value, root string) ([]Record, error) {
	tokens, err := t.tokenizer.TokenizeValue(doc, effectiveRoot(root, spec))
	if err != nil {
		return nil, err
	}
	return assemble(spec, tokens)
}

func effectiveRoot(root string, spec *mapping.Spec) string {
	if root != "" {
		return root
	}
	return spec.Root
}

// family is one wildcard prefix: the set of array positions a group of
// fields traverses together. Tuples hold the distinct wildcard index
// combinations observed in token order (ascending by construction).
type family struct {
	key    string
	tuples [][]int
	seen   map[string]bool
}

func (f *family) add(tuple []int) {
	key := fmt.Sprint(tuple)
	if f.seen[key] {
		return
	}
	f.seen[key] = true
	f.tuples = append(f.tuples, tuple)
}

// fanGroup is a fan-out unit: one family, or several families zipped
// together by a shared alignment label.
type fanGroup struct {
	key        string
	families   []*family
	byFamily   map[string]*family
	firstField int
	count      int
}

func (g *fanGroup) family(key string) *family {
	if f, ok := g.byFamily[key]; ok {
		return f
	}
	f := &family{key: key, seen: make(map[string]bool)}
	g.byFamily[key] = f
	g.families = append(g.families, f)
	return f
}

// assemble re-projects the token sequence into records.
func assemble(spec *mapping.Spec, tokens []tokenize.Token) ([]Record, error) {
	// Index tokens by concrete path. Lists, not single values: a document
	// with duplicate keys produces colliding paths, which a concrete field
	// must report as ambiguity rather than pick one silently.
	byPath := make(map[string][]document.Value, len(tokens))
	for _, tok := range tokens {
		key := tok.Path.String()
		byPath[key] = append(byPath[key], tok.Value)
	}

	// Resolve concrete fields once; they broadcast to every row.
	concreteValues := make(map[string]document.Value)
	groups, groupOf, err := collectGroups(spec, tokens)
	if err != nil {
		return nil, err
	}
	for i := range spec.Fields {
		field := &spec.Fields[i]
		if !field.Address().IsConcrete() {
			continue
		}
		v, err := lookupConcrete(field, field.Address(), byPath)
		if err != nil {
			return nil, err
		}
		concreteValues[field.Name] = v
	}

	// Aligned groups zip by position: every family in the group must
	// observe the same number of index tuples.
	for _, g := range groups {
		g.count = len(g.families[0].tuples)
		for _, f := range g.families[1:] {
			if len(f.tuples) != g.count {
				return nil, errors.WrapInvalid(
					fmt.Errorf("%w: group %q: %q has %d elements, %q has %d",
						errors.ErrFanOutAlignment, g.key,
						g.families[0].key, g.count, f.key, len(f.tuples)),
					"Transformer", "assemble", "align fan-out groups")
			}
		}
	}

	// Cartesian combination, outer groups varying slowest. Group order
	// follows field declaration order.
	total := 1
	for _, g := range groups {
		total *= g.count
	}
	if total == 0 {
		return []Record{}, nil
	}

	strides := make([]int, len(groups))
	stride := 1
	for i := len(groups) - 1; i >= 0; i-- {
		strides[i] = stride
		stride *= groups[i].count
	}

	records := make([]Record, 0, total)
	for row := 0; row < total; row++ {
		var rec Record
		for i := range spec.Fields {
			field := &spec.Fields[i]
			if field.Address().IsConcrete() {
				rec.Set(field.Name, concreteValues[field.Name])
				continue
			}

			g := groupOf[field.Name]
			pos := (row / strides[g]) % groups[g].count
			fam := groups[g].byFamily[field.Address().Family().String()]

			bound, err := field.Address().Bind(fam.tuples[pos])
			if err != nil {
				return nil, err
			}
			v, err := lookupConcrete(field, bound, byPath)
			if err != nil {
				return nil, err
			}
			rec.Set(field.Name, v)
		}
		records = append(records, rec)
	}

	return records, nil
}

// collectGroups partitions wildcard fields into fan-out groups and gathers
// each family's index tuples from the token sequence.
func collectGroups(
	spec *mapping.Spec, tokens []tokenize.Token,
) (groups []*fanGroup, groupOf map[string]int, err error) {
	groupOf = make(map[string]int)
	byKey := make(map[string]*fanGroup)

	for i := range spec.Fields {
		field := &spec.Fields[i]
		addr := field.Address()
		if addr.IsConcrete() {
			continue
		}

		famKey := addr.Family().String()
		groupKey := field.Align
		if groupKey == "" {
			groupKey = "family:" + famKey
		}

		g, ok := byKey[groupKey]
		if !ok {
			g = &fanGroup{
				key:        groupKey,
				byFamily:   make(map[string]*family),
				firstField: i,
			}
			byKey[groupKey] = g
			groups = append(groups, g)
		}

		fam := g.family(famKey)
		for _, tok := range tokens {
			if addr.Matches(tok.Path) {
				fam.add(addr.WildcardIndices(tok.Path))
			}
		}
	}

	sort.SliceStable(groups, func(a, b int) bool {
		return groups[a].firstField < groups[b].firstField
	})

	index := make(map[string]int, len(groups))
	for i, g := range groups {
		index[g.key] = i
	}
	for i := range spec.Fields {
		field := &spec.Fields[i]
		if field.Address().IsConcrete() {
			continue
		}
		groupKey := field.Align
		if groupKey == "" {
			groupKey = "family:" + field.Address().Family().String()
		}
		groupOf[field.Name] = index[groupKey]
	}

	return groups, groupOf, nil
}

// lookupConcrete binds a field to the token at a concrete path: exactly one
// match yields the coerced value, none yields the declared default (or
// null), several is an ambiguous document shape.
func lookupConcrete(
	field *mapping.Field, path address.Path, byPath map[string][]document.Value,
) (document.Value, error) {
	matches := byPath[path.String()]
	switch len(matches) {
	case 0:
		return field.DefaultValue(), nil
	case 1:
		return coerce(field, matches[0])
	default:
		return document.Value{}, errors.WrapInvalid(
			fmt.Errorf("%w: field %q path %q matched %d tokens",
				errors.ErrAmbiguousPath, field.Name, path.String(), len(matches)),
			"Transformer", "assemble", "bind concrete path")
	}
}
