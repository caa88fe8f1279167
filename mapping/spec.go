// Package mapping loads and validates the declarative field-correspondence
// specifications that drive the transformer.
//
// A mapping declares an optional root address restricting transformation to
// a subtree, and an ordered list of field definitions, each correlating an
// output field name to a source path expression with an optional default
// value, target type, and fan-out alignment label. Specs are read-only
// configuration: loaded once per transform call, never mutated.
package mapping

import (
	"fmt"
	"math"

	"github.com/c360/cleansweep/address"
	"github.com/c360/cleansweep/document"
	"github.com/c360/cleansweep/errors"
)

// Field types accepted for coercion.
const (
	TypeString = "string"
	TypeInt    = "int"
	TypeFloat  = "float"
	TypeBool   = "bool"
)

// Field correlates one output field name to a source path expression.
type Field struct {
	// Name is the output record field name, unique within the spec.
	Name string `json:"name" yaml:"name"`
	// Path is the source path expression; a wildcard-bearing path drives
	// row fan-out.
	Path string `json:"path" yaml:"path"`
	// Default is the scalar used when the path matches no token. Absent
	// means the null-equivalent.
	Default any `json:"default,omitempty" yaml:"default,omitempty"`
	// Type requests coercion of the matched value ("string", "int",
	// "float", "bool"). Empty means no coercion.
	Type string `json:"type,omitempty" yaml:"type,omitempty"`
	// Align labels wildcard fields that fan out pairwise (zip) instead of
	// by cartesian product. Only valid on wildcard-bearing paths.
	Align string `json:"align,omitempty" yaml:"align,omitempty"`

	parsed address.Path
}

// Address returns the parsed path expression. Valid after Spec.Validate.
func (f *Field) Address() address.Path { return f.parsed }

// DefaultValue returns the declared default as a document value, or null
// when no default is declared.
func (f *Field) DefaultValue() document.Value {
	switch d := f.Default.(type) {
	case nil:
		return document.Null()
	case bool:
		return document.Bool(d)
	case string:
		return document.String(d)
	case int:
		return document.Int(int64(d))
	case int64:
		return document.Int(d)
	case uint64:
		return document.Int(int64(d))
	case float64:
		// JSON decoding hands integral defaults over as float64.
		if d == math.Trunc(d) && !math.IsInf(d, 0) {
			return document.Int(int64(d))
		}
		return document.Float(d)
	default:
		return document.Null()
	}
}

// Spec is a parsed and validated mapping specification.
type Spec struct {
	// Root optionally restricts tokenization to a subtree. An explicit
	// root parameter on the transform call overrides it.
	Root string `json:"root,omitempty" yaml:"root,omitempty"`
	// Fields are the output field definitions in declaration order, which
	// is also the output record field order.
	Fields []Field `json:"fields" yaml:"fields"`
}

// Validate performs semantic validation beyond the structural schema: path
// expressions must parse, field names must be unique, the root must be a
// concrete address, alignment labels may only appear on wildcard-bearing
// paths, and fields sharing a wildcard family must agree on their label.
func (s *Spec) Validate() error {
	if len(s.Fields) == 0 {
		return validationErr("at least one field is required")
	}

	rootPath, err := address.Parse(s.Root)
	if err != nil {
		return validationErr(fmt.Sprintf("root %q is not a valid path expression", s.Root))
	}
	if !rootPath.IsConcrete() {
		return validationErr(fmt.Sprintf("root %q must not contain wildcards", s.Root))
	}

	seen := make(map[string]bool, len(s.Fields))
	familyAlign := make(map[string]string)
	familyField := make(map[string]string)
	for i := range s.Fields {
		f := &s.Fields[i]
		if f.Name == "" {
			return validationErr(fmt.Sprintf("field %d has an empty name", i))
		}
		if seen[f.Name] {
			return validationErr(fmt.Sprintf("duplicate field name %q", f.Name))
		}
		seen[f.Name] = true

		parsed, err := address.Parse(f.Path)
		if err != nil {
			return validationErr(fmt.Sprintf("field %q path %q is not a valid path expression", f.Name, f.Path))
		}
		f.parsed = parsed

		if f.Align != "" && parsed.IsConcrete() {
			return validationErr(fmt.Sprintf("field %q declares align %q on a concrete path", f.Name, f.Align))
		}
		if !parsed.IsConcrete() {
			// Fields traversing the same arrays are one fan-out unit and
			// must agree on their alignment label; splitting a family
			// would cross-product an array against itself.
			fam := parsed.Family().String()
			if prev, ok := familyAlign[fam]; ok {
				if prev != f.Align {
					return validationErr(fmt.Sprintf(
						"conflicting fan-out alignment on %q: field %q declares align %q, field %q declares align %q",
						fam, familyField[fam], prev, f.Name, f.Align))
				}
			} else {
				familyAlign[fam] = f.Align
				familyField[fam] = f.Name
			}
		}

		switch f.Type {
		case "", TypeString, TypeInt, TypeFloat, TypeBool:
		default:
			return validationErr(fmt.Sprintf("field %q declares unknown type %q", f.Name, f.Type))
		}
	}

	return nil
}

func validationErr(detail string) error {
	return errors.WrapInvalid(
		fmt.Errorf("%w: %s", errors.ErrMappingValidation, detail),
		"mapping", "Validate", "semantic validation")
}
