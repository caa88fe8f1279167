package document

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/c360/cleansweep/errors"
)

// Decode reads a JSON document from r into an order-preserving Value tree.
// Object member order follows the source encoding. Numbers without a
// fraction or exponent decode as KindInt, everything else as KindFloat.
func Decode(r io.Reader) (Value, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	v, err := decodeValue(dec)
	if err != nil {
		return Value{}, errors.WrapInvalid(
			fmt.Errorf("%w: %v", errors.ErrDocumentParse, err),
			"document", "Decode", "read value")
	}

	// Trailing non-whitespace content is malformed input, not a second document.
	if _, err := dec.Token(); err != io.EOF {
		return Value{}, errors.WrapInvalid(
			fmt.Errorf("%w: trailing content after document", errors.ErrDocumentParse),
			"document", "Decode", "check trailing content")
	}

	return v, nil
}

// DecodeBytes decodes a JSON document from a byte slice.
func DecodeBytes(data []byte) (Value, error) {
	return Decode(strings.NewReader(string(data)))
}

func decodeValue(dec *json.Decoder) (Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return Value{}, err
	}
	return decodeFromToken(dec, tok)
}

func decodeFromToken(dec *json.Decoder, tok json.Token) (Value, error) {
	switch t := tok.(type) {
	case nil:
		return Null(), nil
	case bool:
		return Bool(t), nil
	case string:
		return String(t), nil
	case json.Number:
		return decodeNumber(t)
	case json.Delim:
		switch t {
		case '{':
			return decodeObject(dec)
		case '[':
			return decodeArray(dec)
		}
	}
	return Value{}, fmt.Errorf("unexpected token %v", tok)
}

func decodeObject(dec *json.Decoder) (Value, error) {
	var members []Member
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return Value{}, err
		}
		key, ok := keyTok.(string)
		if !ok {
			return Value{}, fmt.Errorf("object key is not a string: %v", keyTok)
		}
		val, err := decodeValue(dec)
		if err != nil {
			return Value{}, err
		}
		members = append(members, Member{Key: key, Value: val})
	}
	// Consume closing '}'
	if _, err := dec.Token(); err != nil {
		return Value{}, err
	}
	return Object(members...), nil
}

func decodeArray(dec *json.Decoder) (Value, error) {
	var elems []Value
	for dec.More() {
		val, err := decodeValue(dec)
		if err != nil {
			return Value{}, err
		}
		elems = append(elems, val)
	}
	// Consume closing ']'
	if _, err := dec.Token(); err != nil {
		return Value{}, err
	}
	return Array(elems...), nil
}

func decodeNumber(n json.Number) (Value, error) {
	s := n.String()
	if !strings.ContainsAny(s, ".eE") {
		i, err := n.Int64()
		if err == nil {
			return Int(i), nil
		}
		// Integral syntax but out of int64 range, fall through to float.
	}
	f, err := n.Float64()
	if err != nil {
		return Value{}, fmt.Errorf("invalid number %q: %v", s, err)
	}
	return Float(f), nil
}
