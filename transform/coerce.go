package transform

import (
	"fmt"
	"math"
	"strconv"

	"github.com/c360/cleansweep/document"
	"github.com/c360/cleansweep/errors"
	"github.com/c360/cleansweep/mapping"
)

// coerce converts a matched scalar to the field's declared target type.
// Null values pass through untouched: a missing or explicitly-null source
// carries no information to coerce. Failure names the field and the
// offending value, never silently dropping the field.
func coerce(field *mapping.Field, v document.Value) (document.Value, error) {
	if field.Type == "" || v.Kind() == document.KindNull {
		return v, nil
	}

	switch field.Type {
	case mapping.TypeString:
		return coerceString(field, v)
	case mapping.TypeInt:
		return coerceInt(field, v)
	case mapping.TypeFloat:
		return coerceFloat(field, v)
	case mapping.TypeBool:
		return coerceBool(field, v)
	}
	// Unknown types are rejected by mapping validation.
	return document.Value{}, coercionErr(field, v, "unknown target type")
}

func coerceString(field *mapping.Field, v document.Value) (document.Value, error) {
	switch v.Kind() {
	case document.KindString:
		return v, nil
	case document.KindInt:
		return document.String(strconv.FormatInt(v.IntVal(), 10)), nil
	case document.KindFloat:
		return document.String(strconv.FormatFloat(v.FloatVal(), 'g', -1, 64)), nil
	case document.KindBool:
		return document.String(strconv.FormatBool(v.BoolVal())), nil
	}
	return document.Value{}, coercionErr(field, v, "not representable as string")
}

func coerceInt(field *mapping.Field, v document.Value) (document.Value, error) {
	switch v.Kind() {
	case document.KindInt:
		return v, nil
	case document.KindFloat:
		f := v.FloatVal()
		if f != math.Trunc(f) || math.IsInf(f, 0) || math.IsNaN(f) {
			return document.Value{}, coercionErr(field, v, "fractional value")
		}
		return document.Int(int64(f)), nil
	case document.KindString:
		i, err := strconv.ParseInt(v.StringVal(), 10, 64)
		if err != nil {
			return document.Value{}, coercionErr(field, v, "not an integer")
		}
		return document.Int(i), nil
	}
	return document.Value{}, coercionErr(field, v, "not representable as int")
}

func coerceFloat(field *mapping.Field, v document.Value) (document.Value, error) {
	switch v.Kind() {
	case document.KindFloat:
		return v, nil
	case document.KindInt:
		return document.Float(float64(v.IntVal())), nil
	case document.KindString:
		f, err := strconv.ParseFloat(v.StringVal(), 64)
		if err != nil {
			return document.Value{}, coercionErr(field, v, "not a number")
		}
		return document.Float(f), nil
	}
	return document.Value{}, coercionErr(field, v, "not representable as float")
}

func coerceBool(field *mapping.Field, v document.Value) (document.Value, error) {
	switch v.Kind() {
	case document.KindBool:
		return v, nil
	case document.KindString:
		b, err := strconv.ParseBool(v.StringVal())
		if err != nil {
			return document.Value{}, coercionErr(field, v, "not a boolean")
		}
		return document.Bool(b), nil
	case document.KindInt:
		switch v.IntVal() {
		case 0:
			return document.Bool(false), nil
		case 1:
			return document.Bool(true), nil
		}
		return document.Value{}, coercionErr(field, v, "integer is not 0 or 1")
	}
	return document.Value{}, coercionErr(field, v, "not representable as bool")
}

func coercionErr(field *mapping.Field, v document.Value, detail string) error {
	rendered, err := v.MarshalJSON()
	if err != nil {
		rendered = []byte("?")
	}
	return errors.WrapInvalid(
		fmt.Errorf("%w: field %q value %s: %s",
			errors.ErrTypeCoercion, field.Name, rendered, detail),
		"Transformer", "coerce", fmt.Sprintf("coerce field %q to %s", field.Name, field.Type))
}
