package sim

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind is the declared type of a signal.
type Kind uint8

const (
	KindBool Kind = iota + 1
	KindInt
)

func (k Kind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	default:
		return "kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// ParseKind maps a declared type name to a Kind. Both the short names used in
// YAML descriptors and the FMI element names are accepted.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "bool", "boolean":
		return KindBool, nil
	case "int", "integer", "enum", "enumeration":
		return KindInt, nil
	default:
		return 0, fmt.Errorf("unsupported signal type %q", s)
	}
}

// Value is a single scalar signal value. Booleans are stored as 0/1 so that a
// value always fits in one machine word.
type Value struct {
	kind Kind
	raw  int64
}

// Bool returns a boolean Value.
func Bool(b bool) Value {
	if b {
		return Value{kind: KindBool, raw: 1}
	}
	return Value{kind: KindBool}
}

// Int returns an integer Value.
func Int(i int64) Value {
	return Value{kind: KindInt, raw: i}
}

// Kind reports the value's type. The zero Value has kind 0 and is invalid.
func (v Value) Kind() Kind { return v.kind }

// IsValid reports whether v was produced by Bool or Int.
func (v Value) IsValid() bool { return v.kind == KindBool || v.kind == KindInt }

// AsBool returns the boolean interpretation of v. Integers are true when non-zero.
func (v Value) AsBool() bool { return v.raw != 0 }

// AsInt returns the integer interpretation of v. Booleans map to 0/1.
func (v Value) AsInt() int64 { return v.raw }

// Convert returns v re-typed as k. Integer to boolean conversion treats any
// non-zero integer as true.
func (v Value) Convert(k Kind) Value {
	switch k {
	case KindBool:
		return Bool(v.raw != 0)
	case KindInt:
		return Int(v.raw)
	default:
		return Value{}
	}
}

func (v Value) String() string {
	switch v.kind {
	case KindBool:
		return strconv.FormatBool(v.raw != 0)
	case KindInt:
		return strconv.FormatInt(v.raw, 10)
	default:
		return "<invalid>"
	}
}

// ParseValue parses s as a value of kind k.
func ParseValue(k Kind, s string) (Value, error) {
	s = strings.TrimSpace(s)
	switch k {
	case KindBool:
		b, err := strconv.ParseBool(s)
		if err != nil {
			return Value{}, fmt.Errorf("parsing %q as bool: %w", s, err)
		}
		return Bool(b), nil
	case KindInt:
		i, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return Value{}, fmt.Errorf("parsing %q as int: %w", s, err)
		}
		return Int(i), nil
	default:
		return Value{}, fmt.Errorf("cannot parse value of %s", k)
	}
}
