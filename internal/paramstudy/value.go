package paramstudy

import (
	"fmt"
	"math"
	"strconv"
)

// Kind identifies the concrete type held by a Value.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindInt
	KindFloat
	KindString
	KindBool
)

// String returns the kind name used in persisted files and error messages.
func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindBool:
		return "bool"
	default:
		return "invalid"
	}
}

// ParseKind is the inverse of Kind.String.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "int":
		return KindInt, nil
	case "float":
		return KindFloat, nil
	case "string":
		return KindString, nil
	case "bool":
		return KindBool, nil
	}
	return KindInvalid, fmt.Errorf("unknown value kind %q", s)
}

// IsNumeric reports whether values of this kind can be plotted or summarised.
func (k Kind) IsNumeric() bool {
	return k == KindInt || k == KindFloat
}

// Value is a single parameter value. The zero Value is invalid.
type Value struct {
	kind Kind
	i    int64
	f    float64
	s    string
	b    bool
}

// Int returns an integer Value.
func Int(v int64) Value { return Value{kind: KindInt, i: v} }

// Float returns a floating point Value. Negative zero is stored as zero.
func Float(v float64) Value {
	if v == 0 {
		v = 0
	}
	return Value{kind: KindFloat, f: v}
}

// String returns a string Value.
func String(v string) Value { return Value{kind: KindString, s: v} }

// Bool returns a boolean Value.
func Bool(v bool) Value { return Value{kind: KindBool, b: v} }

// ValueOf converts a decoded scalar into a Value. Integer types map to
// KindInt, floating point types to KindFloat. NaN is rejected.
func ValueOf(v any) (Value, error) {
	switch val := v.(type) {
	case Value:
		if val.kind == KindInvalid {
			return Value{}, fmt.Errorf("invalid value")
		}
		return val, nil
	case int:
		return Int(int64(val)), nil
	case int32:
		return Int(int64(val)), nil
	case int64:
		return Int(val), nil
	case uint:
		if uint64(val) > math.MaxInt64 {
			return Value{}, fmt.Errorf("integer %d overflows int64", val)
		}
		return Int(int64(val)), nil
	case uint64:
		if val > math.MaxInt64 {
			return Value{}, fmt.Errorf("integer %d overflows int64", val)
		}
		return Int(int64(val)), nil
	case float32:
		return floatValue(float64(val))
	case float64:
		return floatValue(val)
	case string:
		return String(val), nil
	case bool:
		return Bool(val), nil
	}
	return Value{}, fmt.Errorf("unsupported value type %T", v)
}

func floatValue(f float64) (Value, error) {
	if math.IsNaN(f) {
		return Value{}, fmt.Errorf("NaN is not a valid parameter value")
	}
	return Float(f), nil
}

// Kind returns the kind of the value.
func (v Value) Kind() Kind { return v.kind }

// IsValid reports whether v holds a value.
func (v Value) IsValid() bool { return v.kind != KindInvalid }

// Int64 returns the integer payload. It panics on other kinds.
func (v Value) Int64() int64 {
	v.mustBe(KindInt)
	return v.i
}

// Float64 returns the numeric payload as float64. Integers are converted.
func (v Value) Float64() float64 {
	switch v.kind {
	case KindInt:
		return float64(v.i)
	case KindFloat:
		return v.f
	}
	panic(fmt.Sprintf("paramstudy: Float64 called on %s value", v.kind))
}

// Str returns the string payload. It panics on other kinds.
func (v Value) Str() string {
	v.mustBe(KindString)
	return v.s
}

// Boolean returns the bool payload. It panics on other kinds.
func (v Value) Boolean() bool {
	v.mustBe(KindBool)
	return v.b
}

func (v Value) mustBe(k Kind) {
	if v.kind != k {
		panic(fmt.Sprintf("paramstudy: %s accessor called on %s value", k, v.kind))
	}
}

// Any returns the payload as a plain Go value (int64, float64, string, bool).
func (v Value) Any() any {
	switch v.kind {
	case KindInt:
		return v.i
	case KindFloat:
		return v.f
	case KindString:
		return v.s
	case KindBool:
		return v.b
	}
	return nil
}

// Equal reports whether two values have the same kind and payload.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindInt:
		return v.i == o.i
	case KindFloat:
		return v.f == o.f
	case KindString:
		return v.s == o.s
	case KindBool:
		return v.b == o.b
	}
	return true
}

// Equivalent reports whether two values identify the same parameter value
// for hashing: numbers compare by canonical form across int and float,
// everything else must share kind and payload.
func (v Value) Equivalent(o Value) bool {
	if v.kind.IsNumeric() && o.kind.IsNumeric() {
		return v.Canonical() == o.Canonical()
	}
	return v.Equal(o)
}

// maxExactInt bounds the integers a float64 holds exactly.
const maxExactInt = 1 << 53

// Canonical returns the normalised text form used for set hashing. Floats
// are written with 16 significant digits so that values differing only by
// accumulated rounding error hash identically. A float that is integral at
// that precision is written like an int, so promoting an int column to
// float keeps every existing hash.
func (v Value) Canonical() string {
	switch v.kind {
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		s := strconv.FormatFloat(v.f, 'e', 15, 64)
		if r, err := strconv.ParseFloat(s, 64); err == nil && r == math.Trunc(r) && math.Abs(r) < maxExactInt {
			return strconv.FormatInt(int64(r), 10)
		}
		return s
	case KindString:
		return v.s
	case KindBool:
		return strconv.FormatBool(v.b)
	}
	return ""
}

// Text returns a lossless text form: shortest round-trip representation for
// floats, Canonical for everything else.
func (v Value) Text() string {
	if v.kind == KindFloat {
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	}
	return v.Canonical()
}

// ParseText is the inverse of Text for a known kind.
func ParseText(k Kind, s string) (Value, error) {
	switch k {
	case KindInt:
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return Value{}, fmt.Errorf("cannot parse %q as int: %w", s, err)
		}
		return Int(n), nil
	case KindFloat:
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return Value{}, fmt.Errorf("cannot parse %q as float: %w", s, err)
		}
		return floatValue(f)
	case KindString:
		return String(s), nil
	case KindBool:
		b, err := strconv.ParseBool(s)
		if err != nil {
			return Value{}, fmt.Errorf("cannot parse %q as bool: %w", s, err)
		}
		return Bool(b), nil
	}
	return Value{}, fmt.Errorf("cannot parse value of kind %s", k)
}

// String implements fmt.Stringer.
func (v Value) String() string {
	return v.Text()
}

// columnKind returns the single kind a column of values is stored as.
// Int and float mix to float; any other mix is an error.
func columnKind(values []Value) (Kind, error) {
	kind := KindInvalid
	for _, v := range values {
		switch {
		case !v.IsValid():
			return KindInvalid, fmt.Errorf("missing value")
		case kind == KindInvalid:
			kind = v.kind
		case kind == v.kind:
		case kind.IsNumeric() && v.kind.IsNumeric():
			kind = KindFloat
		default:
			return KindInvalid, fmt.Errorf("mixes %s and %s values", kind, v.kind)
		}
	}
	return kind, nil
}

// convertTo converts v to kind k. Only int to float promotion is supported.
func convertTo(v Value, k Kind) Value {
	if v.kind == KindInt && k == KindFloat {
		return Float(float64(v.i))
	}
	return v
}
