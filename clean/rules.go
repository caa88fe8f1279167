// Package clean applies regex-driven cleaning rules to record batches.
//
// Rules come in two shapes: value rules rewrite string field contents
// (replace, remove), and record rules decide whether a record survives
// (keep_match, drop_match, drop_empty, drop_duplicates). Rules are compiled
// once at engine construction and reused across batches.
package clean

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/c360/cleansweep/document"
	"github.com/c360/cleansweep/errors"
)

// Kind identifies a cleaning rule behavior.
type Kind string

const (
	// KindReplace rewrites pattern matches in string fields with the replacement
	KindReplace Kind = "replace"
	// KindRemove deletes pattern matches from string fields
	KindRemove Kind = "remove"
	// KindKeepMatch keeps only records where a listed field matches a pattern
	KindKeepMatch Kind = "keep_match"
	// KindDropMatch drops records where a listed field matches a pattern
	KindDropMatch Kind = "drop_match"
	// KindDropEmpty drops records where a listed field is null or empty
	KindDropEmpty Kind = "drop_empty"
	// KindDropDuplicates drops records repeating a listed field combination
	KindDropDuplicates Kind = "drop_duplicates"
)

// Rule is one declarative cleaning rule.
type Rule struct {
	Kind Kind `json:"kind"`
	// Fields are the record fields the rule inspects or rewrites.
	Fields []string `json:"fields"`
	// Patterns are regular expressions, required for the match-driven kinds.
	Patterns []string `json:"patterns,omitempty"`
	// Replacement is the substitution text for replace rules.
	Replacement string `json:"replacement,omitempty"`

	compiled []*regexp.Regexp
}

func (r *Rule) compile() error {
	if len(r.Fields) == 0 {
		return ruleErr(r, "at least one field is required")
	}

	switch r.Kind {
	case KindReplace, KindRemove, KindKeepMatch, KindDropMatch:
		if len(r.Patterns) == 0 {
			return ruleErr(r, "at least one pattern is required")
		}
	case KindDropEmpty, KindDropDuplicates:
		if len(r.Patterns) > 0 {
			return ruleErr(r, "patterns are not accepted")
		}
	default:
		return ruleErr(r, fmt.Sprintf("unknown kind %q", r.Kind))
	}

	r.compiled = make([]*regexp.Regexp, 0, len(r.Patterns))
	for _, pattern := range r.Patterns {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return ruleErr(r, fmt.Sprintf("invalid pattern %q: %v", pattern, err))
		}
		r.compiled = append(r.compiled, re)
	}
	return nil
}

func ruleErr(r *Rule, detail string) error {
	return errors.WrapInvalid(
		fmt.Errorf("%w: %s rule: %s", errors.ErrRuleValidation, r.Kind, detail),
		"clean", "compile", "validate rule")
}

// rewrite applies the rule's patterns to a single string value.
func (r *Rule) rewrite(s string) string {
	replacement := r.Replacement
	if r.Kind == KindRemove {
		replacement = ""
	}
	for _, re := range r.compiled {
		s = re.ReplaceAllString(s, replacement)
	}
	return s
}

// matches reports whether any pattern matches the value's string rendering.
func (r *Rule) matches(v document.Value) bool {
	s, ok := renderString(v)
	if !ok {
		return false
	}
	for _, re := range r.compiled {
		if re.MatchString(s) {
			return true
		}
	}
	return false
}

// renderString converts a scalar to its matchable text form. Null has no
// text form and never matches.
func renderString(v document.Value) (string, bool) {
	switch v.Kind() {
	case document.KindString:
		return v.StringVal(), true
	case document.KindNull:
		return "", false
	default:
		rendered, err := v.MarshalJSON()
		if err != nil {
			return "", false
		}
		return string(rendered), true
	}
}

func isEmpty(v document.Value) bool {
	if v.Kind() == document.KindNull {
		return true
	}
	return v.Kind() == document.KindString && strings.TrimSpace(v.StringVal()) == ""
}
