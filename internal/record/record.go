// Package record defines the loosely typed data model flowing through one invocation.
//
// Upstream APIs do not guarantee stable field names or types, so a record is an
// open mapping of field name to a small value variant instead of a fixed schema.
package record

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Kind discriminates the variants a Value may hold.
type Kind int

const (
	// KindNull is the kind of the zero Value.
	KindNull Kind = iota
	// KindString holds free form text.
	KindString
	// KindNumber holds a JSON number as a float64.
	KindNumber
	// KindBool holds a boolean.
	KindBool
)

// Value is a single loosely typed field value.
//
// Nested JSON objects and arrays are preserved as their compact encoding in a
// string Value. That preservation is one way: re-encoding yields a JSON string,
// not the original structure.
type Value struct {
	kind Kind
	str  string
	num  float64
	b    bool
}

// Null returns the null Value.
func Null() Value { return Value{} }

// String returns a string Value.
func String(s string) Value { return Value{kind: KindString, str: s} }

// Number returns a number Value.
func Number(f float64) Value { return Value{kind: KindNumber, num: f} }

// Bool returns a boolean Value.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Kind returns the variant held by v.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is the null Value.
func (v Value) IsNull() bool { return v.kind == KindNull }

// AsString returns the string held by v, if any.
func (v Value) AsString() (string, bool) { return v.str, v.kind == KindString }

// AsNumber returns the number held by v, if any.
func (v Value) AsNumber() (float64, bool) { return v.num, v.kind == KindNumber }

// AsBool returns the boolean held by v, if any.
func (v Value) AsBool() (bool, bool) { return v.b, v.kind == KindBool }

// Text returns the serialized text form of v: strings as is, numbers in their
// shortest exact decimal form, booleans as true or false, null as the empty string.
func (v Value) Text() string {
	switch v.kind {
	case KindString:
		return v.str
	case KindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.b)
	default:
		return ""
	}
}

// UnmarshalJSON implements json.Unmarshaler.
func (v *Value) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return errors.New("empty JSON value")
	}

	switch trimmed[0] {
	case 'n':
		if !bytes.Equal(trimmed, []byte("null")) {
			return fmt.Errorf("invalid JSON literal: %s", trimmed)
		}
		*v = Value{}
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(trimmed, &b); err != nil {
			return err
		}
		*v = Bool(b)
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		*v = String(s)
	case '{', '[':
		var buf bytes.Buffer
		if err := json.Compact(&buf, trimmed); err != nil {
			return err
		}
		*v = String(buf.String())
	default:
		var f float64
		if err := json.Unmarshal(trimmed, &f); err != nil {
			return err
		}
		*v = Number(f)
	}
	return nil
}

// MarshalJSON implements json.Marshaler.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindString:
		return json.Marshal(v.str)
	case KindNumber:
		return json.Marshal(v.num)
	case KindBool:
		return json.Marshal(v.b)
	default:
		return []byte("null"), nil
	}
}

// MarshalYAML implements yaml.Marshaler.
func (v Value) MarshalYAML() (interface{}, error) {
	switch v.kind {
	case KindString:
		return v.str, nil
	case KindNumber:
		return v.num, nil
	case KindBool:
		return v.b, nil
	default:
		return nil, nil
	}
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (v *Value) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("cannot decode YAML %v into a value", node.Kind)
	}

	switch node.Tag {
	case "!!null":
		*v = Value{}
	case "!!bool":
		var b bool
		if err := node.Decode(&b); err != nil {
			return err
		}
		*v = Bool(b)
	case "!!int", "!!float":
		var f float64
		if err := node.Decode(&f); err != nil {
			return err
		}
		*v = Number(f)
	default:
		var s string
		if err := node.Decode(&s); err != nil {
			return err
		}
		*v = String(s)
	}
	return nil
}

// UnmarshalTOML implements toml's Unmarshaler interface, so spec files can
// carry literal values. TOML cannot express null.
func (v *Value) UnmarshalTOML(data any) error {
	switch d := data.(type) {
	case string:
		*v = String(d)
	case bool:
		*v = Bool(d)
	case int64:
		*v = Number(float64(d))
	case float64:
		*v = Number(d)
	default:
		return fmt.Errorf("cannot decode TOML %T into a value", data)
	}
	return nil
}

// Record is one item as returned by the upstream API.
// It has no identity beyond its position in the response.
type Record map[string]Value
