package transform

import (
	"bytes"
	"encoding/json"

	"github.com/c360/cleansweep/document"
)

// RecordField is one named scalar in an output record.
type RecordField struct {
	Name  string
	Value document.Value
}

// Record is an ordered mapping from field name to scalar value. Field order
// follows the mapping specification's declaration order and is preserved
// through JSON marshalling.
type Record struct {
	fields []RecordField
}

// Set assigns a field value, replacing an existing field in place or
// appending a new one.
func (r *Record) Set(name string, value document.Value) {
	for i := range r.fields {
		if r.fields[i].Name == name {
			r.fields[i].Value = value
			return
		}
	}
	r.fields = append(r.fields, RecordField{Name: name, Value: value})
}

// Get returns the value of the named field.
func (r *Record) Get(name string) (document.Value, bool) {
	for _, f := range r.fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return document.Value{}, false
}

// Fields returns the record's fields in order. The returned slice must not
// be modified.
func (r *Record) Fields() []RecordField { return r.fields }

// Len returns the number of fields.
func (r *Record) Len() int { return len(r.fields) }

// Clone returns an independent copy of the record.
func (r *Record) Clone() Record {
	fields := make([]RecordField, len(r.fields))
	copy(fields, r.fields)
	return Record{fields: fields}
}

// MarshalJSON encodes the record as a JSON object with fields in order.
func (r Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range r.fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(f.Name)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := f.Value.MarshalJSON()
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
