package clean

import (
	"log/slog"
	"strings"

	"github.com/c360/cleansweep/document"
	"github.com/c360/cleansweep/transform"
)

// Engine applies an ordered rule list to record batches.
type Engine struct {
	rules  []Rule
	logger *slog.Logger
}

// NewEngine compiles the given rules. Rules apply in declaration order.
func NewEngine(rules []Rule, logger *slog.Logger) (*Engine, error) {
	if logger == nil {
		logger = slog.Default()
	}
	compiled := make([]Rule, len(rules))
	copy(compiled, rules)
	for i := range compiled {
		if err := compiled[i].compile(); err != nil {
			return nil, err
		}
	}
	return &Engine{rules: compiled, logger: logger}, nil
}

// Apply runs every rule over the batch and returns the surviving records.
// Value rules rewrite fields in cloned records, so the input batch is never
// mutated.
func (e *Engine) Apply(records []transform.Record) []transform.Record {
	out := records
	for i := range e.rules {
		rule := &e.rules[i]
		before := len(out)
		switch rule.Kind {
		case KindReplace, KindRemove:
			out = applyRewrite(rule, out)
		case KindKeepMatch:
			out = filter(out, func(rec *transform.Record) bool {
				return anyField(rule, rec, rule.matches)
			})
		case KindDropMatch:
			out = filter(out, func(rec *transform.Record) bool {
				return !anyField(rule, rec, rule.matches)
			})
		case KindDropEmpty:
			out = filter(out, func(rec *transform.Record) bool {
				return !anyField(rule, rec, isEmpty)
			})
		case KindDropDuplicates:
			out = dropDuplicates(rule, out)
		}
		if dropped := before - len(out); dropped > 0 {
			e.logger.Debug("rule dropped records",
				"kind", string(rule.Kind), "dropped", dropped, "remaining", len(out))
		}
	}
	return out
}

func applyRewrite(rule *Rule, records []transform.Record) []transform.Record {
	out := make([]transform.Record, len(records))
	for i := range records {
		rec := records[i].Clone()
		for _, name := range rule.Fields {
			v, ok := rec.Get(name)
			if !ok || v.Kind() != document.KindString {
				continue
			}
			rec.Set(name, document.String(rule.rewrite(v.StringVal())))
		}
		out[i] = rec
	}
	return out
}

// anyField reports whether pred holds for any of the rule's fields that are
// present on the record. Absent fields do not count.
func anyField(rule *Rule, rec *transform.Record, pred func(document.Value) bool) bool {
	for _, name := range rule.Fields {
		v, ok := rec.Get(name)
		if !ok {
			continue
		}
		if pred(v) {
			return true
		}
	}
	return false
}

func filter(records []transform.Record, keep func(*transform.Record) bool) []transform.Record {
	out := make([]transform.Record, 0, len(records))
	for i := range records {
		if keep(&records[i]) {
			out = append(out, records[i])
		}
	}
	return out
}

// dropDuplicates keeps the first record for each combination of the rule's
// field values. Absent fields key as a distinct marker so partial records do
// not collide with empty ones.
func dropDuplicates(rule *Rule, records []transform.Record) []transform.Record {
	seen := make(map[string]struct{}, len(records))
	out := make([]transform.Record, 0, len(records))
	for i := range records {
		var sb strings.Builder
		for _, name := range rule.Fields {
			v, ok := records[i].Get(name)
			if !ok {
				sb.WriteString("\x00absent")
			} else if rendered, err := v.MarshalJSON(); err == nil {
				sb.Write(rendered)
			}
			sb.WriteByte('\x1f')
		}
		key := sb.String()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, records[i])
	}
	return out
}
