package temporal

import (
	"fmt"
	"strconv"
	"time"
)

// Kind enumerates the closed set of scalar types a source column may carry.
// Canonicalization for hashing is resolved per kind here, never by open-ended
// type inspection of arbitrary values.
type Kind uint8

const (
	KindNull Kind = iota
	KindString
	KindInt
	KindFloat
	KindDate
	KindBinary
)

// String returns the configuration name of the kind.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindString:
		return "string"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindDate:
		return "date"
	case KindBinary:
		return "binary"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// ParseKind resolves a configuration name to a Kind.
func ParseKind(name string) (Kind, error) {
	switch name {
	case "string", "text":
		return KindString, nil
	case "int", "integer":
		return KindInt, nil
	case "float", "real":
		return KindFloat, nil
	case "date":
		return KindDate, nil
	case "binary", "blob":
		return KindBinary, nil
	default:
		return KindNull, fmt.Errorf("unknown column kind %q", name)
	}
}

// DateLayout is the canonical encoding for date values.
const DateLayout = "2006-01-02"

// Value is one scalar cell of a source or target row. The zero value is null.
type Value struct {
	kind Kind
	str  string
	num  int64
	flt  float64
	date time.Time
	bin  []byte
}

// Null returns the null value.
func Null() Value { return Value{} }

// String wraps a string value.
func String(s string) Value { return Value{kind: KindString, str: s} }

// Int wraps an integer value.
func Int(i int64) Value { return Value{kind: KindInt, num: i} }

// Float wraps a float value.
func Float(f float64) Value { return Value{kind: KindFloat, flt: f} }

// Date wraps a date value. The time-of-day portion is dropped and the date
// is normalized to UTC so equal calendar days always compare equal.
func Date(t time.Time) Value {
	y, m, d := t.Date()
	return Value{kind: KindDate, date: time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

// Binary wraps a raw byte value.
func Binary(b []byte) Value { return Value{kind: KindBinary, bin: b} }

// Kind reports the variant held by the value.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether the value is null.
func (v Value) IsNull() bool { return v.kind == KindNull }

// Canonical returns the stable byte encoding used for hashing and for
// building natural-key tuples. Two values that encode the same logical
// content always produce the same bytes, regardless of how they were parsed.
func (v Value) Canonical() []byte {
	switch v.kind {
	case KindString:
		return []byte(v.str)
	case KindInt:
		return strconv.AppendInt(nil, v.num, 10)
	case KindFloat:
		return strconv.AppendFloat(nil, v.flt, 'g', -1, 64)
	case KindDate:
		return []byte(v.date.Format(DateLayout))
	case KindBinary:
		return v.bin
	default:
		return []byte("null")
	}
}

// Native returns the value in the representation database drivers expect:
// nil, string, int64, float64, time.Time or []byte.
func (v Value) Native() any {
	switch v.kind {
	case KindString:
		return v.str
	case KindInt:
		return v.num
	case KindFloat:
		return v.flt
	case KindDate:
		return v.date
	case KindBinary:
		return v.bin
	default:
		return nil
	}
}

// Time returns the date payload. Only meaningful for KindDate.
func (v Value) Time() time.Time { return v.date }

// String implements fmt.Stringer using the canonical encoding.
func (v Value) String() string { return string(v.Canonical()) }

// Equal reports whether two values have identical canonical encodings.
func (v Value) Equal(other Value) bool {
	return v.kind == other.kind && string(v.Canonical()) == string(other.Canonical())
}
