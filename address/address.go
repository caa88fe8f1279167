// Package address implements the path-addressing grammar used to locate
// values inside nested documents: dot-separated keys for object member
// access, [n] for a fixed array index, and [*] for wildcard array traversal.
//
// A path with no wildcard identifies at most one position for a given
// document shape. A wildcard-bearing path denotes a family of positions and
// drives record fan-out in the transformer.
package address

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/c360/cleansweep/errors"

	"github.com/c360/cleansweep/document"
)

// SegmentKind identifies the type of one path segment.
type SegmentKind int

const (
	// SegmentKey is object member access by key
	SegmentKey SegmentKind = iota
	// SegmentIndex is array access by fixed index
	SegmentIndex
	// SegmentWildcard is array traversal over all elements
	SegmentWildcard
)

// Segment is a single step in a path address.
type Segment struct {
	Kind  SegmentKind
	Key   string
	Index int
}

// Path is a parsed path address. The zero value addresses the document root.
// Paths are immutable; derivation methods return copies.
type Path struct {
	segments []Segment
}

// Root returns the path addressing the document top level.
func Root() Path { return Path{} }

// Parse parses a path expression. The leading "$" root marker is optional;
// "" and "$" both address the document root.
func Parse(expr string) (Path, error) {
	s := strings.TrimSpace(expr)
	s = strings.TrimPrefix(s, "$")
	if s == "" {
		return Path{}, nil
	}

	var segments []Segment
	for len(s) > 0 {
		switch {
		case s[0] == '.':
			s = s[1:]
			key, rest, err := scanKey(s, expr)
			if err != nil {
				return Path{}, err
			}
			segments = append(segments, Segment{Kind: SegmentKey, Key: key})
			s = rest
		case s[0] == '[':
			end := strings.IndexByte(s, ']')
			if end < 0 {
				return Path{}, parseErr(expr, "unterminated bracket")
			}
			inner := s[1:end]
			s = s[end+1:]
			if inner == "*" {
				segments = append(segments, Segment{Kind: SegmentWildcard})
				continue
			}
			idx, err := strconv.Atoi(inner)
			if err != nil || idx < 0 {
				return Path{}, parseErr(expr, fmt.Sprintf("invalid index %q", inner))
			}
			segments = append(segments, Segment{Kind: SegmentIndex, Index: idx})
		default:
			// A bare leading key: "a.b" is shorthand for "$.a.b".
			if len(segments) > 0 {
				return Path{}, parseErr(expr, fmt.Sprintf("unexpected character %q", s[0]))
			}
			key, rest, err := scanKey(s, expr)
			if err != nil {
				return Path{}, err
			}
			segments = append(segments, Segment{Kind: SegmentKey, Key: key})
			s = rest
		}
	}
	return Path{segments: segments}, nil
}

func scanKey(s, expr string) (key, rest string, err error) {
	end := strings.IndexAny(s, ".[")
	if end == 0 || s == "" {
		return "", "", parseErr(expr, "empty key")
	}
	if end < 0 {
		return s, "", nil
	}
	return s[:end], s[end:], nil
}

func parseErr(expr, detail string) error {
	return errors.WrapInvalid(
		fmt.Errorf("%w: %q: %s", errors.ErrPathResolution, expr, detail),
		"address", "Parse", "parse expression")
}

// String renders the path in canonical form: "$.a.b[0].c[*]".
func (p Path) String() string {
	var b strings.Builder
	b.WriteByte('$')
	for _, seg := range p.segments {
		switch seg.Kind {
		case SegmentKey:
			b.WriteByte('.')
			b.WriteString(seg.Key)
		case SegmentIndex:
			b.WriteByte('[')
			b.WriteString(strconv.Itoa(seg.Index))
			b.WriteByte(']')
		case SegmentWildcard:
			b.WriteString("[*]")
		}
	}
	return b.String()
}

// Segments returns the path segments. The returned slice must not be
// modified.
func (p Path) Segments() []Segment { return p.segments }

// Len returns the number of segments.
func (p Path) Len() int { return len(p.segments) }

// IsRoot reports whether the path addresses the document top level.
func (p Path) IsRoot() bool { return len(p.segments) == 0 }

// IsConcrete reports whether the path contains no wildcard segments.
func (p Path) IsConcrete() bool {
	for _, seg := range p.segments {
		if seg.Kind == SegmentWildcard {
			return false
		}
	}
	return true
}

// NumWildcards returns the number of wildcard segments.
func (p Path) NumWildcards() int {
	n := 0
	for _, seg := range p.segments {
		if seg.Kind == SegmentWildcard {
			n++
		}
	}
	return n
}

// Key returns a new path with an object key segment appended.
func (p Path) Key(key string) Path {
	return p.append(Segment{Kind: SegmentKey, Key: key})
}

// Index returns a new path with a fixed array index segment appended.
func (p Path) Index(i int) Path {
	return p.append(Segment{Kind: SegmentIndex, Index: i})
}

func (p Path) append(seg Segment) Path {
	segments := make([]Segment, len(p.segments)+1)
	copy(segments, p.segments)
	segments[len(p.segments)] = seg
	return Path{segments: segments}
}

// Matches reports whether a (possibly wildcard-bearing) pattern path matches
// a concrete token path. A wildcard segment matches any index segment;
// all other segments must be identical.
func (p Path) Matches(concrete Path) bool {
	if len(p.segments) != len(concrete.segments) {
		return false
	}
	for i, seg := range p.segments {
		other := concrete.segments[i]
		switch seg.Kind {
		case SegmentWildcard:
			if other.Kind != SegmentIndex {
				return false
			}
		case SegmentKey:
			if other.Kind != SegmentKey || other.Key != seg.Key {
				return false
			}
		case SegmentIndex:
			if other.Kind != SegmentIndex || other.Index != seg.Index {
				return false
			}
		}
	}
	return true
}

// WildcardIndices extracts the concrete indices standing at this pattern's
// wildcard positions in a matching concrete path. The concrete path must
// satisfy Matches.
func (p Path) WildcardIndices(concrete Path) []int {
	var indices []int
	for i, seg := range p.segments {
		if seg.Kind == SegmentWildcard {
			indices = append(indices, concrete.segments[i].Index)
		}
	}
	return indices
}

// Bind substitutes the path's wildcards with the given indices, in order,
// producing a concrete path. The number of indices must equal NumWildcards.
func (p Path) Bind(indices []int) (Path, error) {
	if len(indices) != p.NumWildcards() {
		return Path{}, errors.WrapInvalid(
			fmt.Errorf("%w: %q needs %d indices, got %d",
				errors.ErrPathResolution, p.String(), p.NumWildcards(), len(indices)),
			"address", "Bind", "substitute wildcards")
	}
	segments := make([]Segment, len(p.segments))
	copy(segments, p.segments)
	n := 0
	for i, seg := range segments {
		if seg.Kind == SegmentWildcard {
			segments[i] = Segment{Kind: SegmentIndex, Index: indices[n]}
			n++
		}
	}
	return Path{segments: segments}, nil
}

// Family returns the pattern prefix up to and including the last wildcard.
// Fields whose paths share a family traverse the same array elements and
// therefore fan out together. Concrete paths have an empty family.
func (p Path) Family() Path {
	last := -1
	for i, seg := range p.segments {
		if seg.Kind == SegmentWildcard {
			last = i
		}
	}
	if last < 0 {
		return Path{}
	}
	segments := make([]Segment, last+1)
	copy(segments, p.segments[:last+1])
	return Path{segments: segments}
}

// Resolve walks the document tree to the position this path addresses.
// The path must be concrete. Resolution fails when a key is missing, an
// index is out of range, or a scalar stands where a composite is required.
func (p Path) Resolve(doc document.Value) (document.Value, error) {
	cur := doc
	for i, seg := range p.segments {
		switch seg.Kind {
		case SegmentKey:
			if cur.Kind() != document.KindObject {
				return document.Value{}, resolveErr(p, i, fmt.Sprintf(
					"expected object at %q, found %s", prefix(p, i), cur.Kind()))
			}
			v, ok := cur.Lookup(seg.Key)
			if !ok {
				return document.Value{}, resolveErr(p, i, fmt.Sprintf(
					"key %q not found at %q", seg.Key, prefix(p, i)))
			}
			cur = v
		case SegmentIndex:
			if cur.Kind() != document.KindArray {
				return document.Value{}, resolveErr(p, i, fmt.Sprintf(
					"expected array at %q, found %s", prefix(p, i), cur.Kind()))
			}
			if seg.Index >= len(cur.Elems()) {
				return document.Value{}, resolveErr(p, i, fmt.Sprintf(
					"index %d out of range at %q (length %d)",
					seg.Index, prefix(p, i), len(cur.Elems())))
			}
			cur = cur.Elems()[seg.Index]
		case SegmentWildcard:
			return document.Value{}, resolveErr(p, i, "wildcard is not resolvable to a single position")
		}
	}
	return cur, nil
}

func resolveErr(p Path, seg int, detail string) error {
	return errors.WrapInvalid(
		fmt.Errorf("%w: %q: %s", errors.ErrPathResolution, p.String(), detail),
		"address", "Resolve", fmt.Sprintf("segment %d", seg))
}

func prefix(p Path, end int) string {
	return Path{segments: p.segments[:end]}.String()
}
