package processor

import (
	"cmp"
	"errors"
	"fmt"
	"log/slog"

	"github.com/BurntSushi/toml"
	"github.com/feedsnap/feedsnap/internal/record"
	"github.com/ubuntu/decorate"
)

// Supported filter operations.
const (
	OpEq = "eq"
	OpNe = "ne"
	OpGt = "gt"
	OpGe = "ge"
	OpLt = "lt"
	OpLe = "le"
)

// Spec describes the shape of the transformed records.
//
// Fields lists the record fields to keep, in output order. Defaults supplies
// fallback values for records missing a field; fields without a default fall
// back to null. Filter optionally restricts which records are kept.
type Spec struct {
	Fields   []string                `toml:"fields"`
	Defaults map[string]record.Value `toml:"defaults"`
	Filter   *Condition              `toml:"filter"`
}

// Condition is a single comparison applied to a record field.
type Condition struct {
	Field string       `toml:"field"`
	Op    string       `toml:"op"`
	Value record.Value `toml:"value"`
}

// LoadSpec reads a transform spec from a TOML file.
// The returned spec is not sanitized.
func LoadSpec(path string) (s Spec, err error) {
	defer decorate.OnError(&err, "failed to load transform spec from %s", path)

	if _, err := toml.DecodeFile(path, &s); err != nil {
		return Spec{}, err
	}
	return s, nil
}

// Sanitize checks that the Spec is properly configured.
func (s *Spec) Sanitize(l *slog.Logger) error {
	if len(s.Fields) == 0 {
		return errors.New("spec must list at least one field")
	}

	seen := make(map[string]struct{}, len(s.Fields))
	for _, f := range s.Fields {
		if f == "" {
			return errors.New("spec fields cannot contain an empty string")
		}
		if _, ok := seen[f]; ok {
			return fmt.Errorf("spec fields contain %q more than once", f)
		}
		seen[f] = struct{}{}
	}

	for f := range s.Defaults {
		if _, ok := seen[f]; !ok {
			l.Warn("Default set for a field that is not part of the output", "field", f)
		}
	}

	if s.Filter != nil {
		if s.Filter.Field == "" {
			return errors.New("filter field cannot be an empty string")
		}
		switch s.Filter.Op {
		case OpEq, OpNe, OpGt, OpGe, OpLt, OpLe:
		default:
			return fmt.Errorf("unsupported filter operation %q", s.Filter.Op)
		}
	}

	return nil
}

// Matches reports whether the record satisfies the condition.
//
// A record missing the field does not match. Equality holds only between
// values of the same kind. Ordering operations compare numbers with numbers
// and strings with strings; any other combination does not match.
func (c Condition) Matches(r record.Record) bool {
	v, ok := r[c.Field]
	if !ok {
		return false
	}

	switch c.Op {
	case OpEq:
		return v == c.Value
	case OpNe:
		return v != c.Value
	}

	if n, ok := v.AsNumber(); ok {
		if m, ok := c.Value.AsNumber(); ok {
			return ordered(c.Op, cmp.Compare(n, m))
		}
		return false
	}
	if s, ok := v.AsString(); ok {
		if t, ok := c.Value.AsString(); ok {
			return ordered(c.Op, cmp.Compare(s, t))
		}
	}
	return false
}

// ordered reports whether the comparison outcome c satisfies the ordering operation.
func ordered(op string, c int) bool {
	switch op {
	case OpGt:
		return c > 0
	case OpGe:
		return c >= 0
	case OpLt:
		return c < 0
	case OpLe:
		return c <= 0
	}
	return false
}
