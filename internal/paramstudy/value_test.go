package paramstudy

import (
	"math"
	"testing"
)

func TestValueOf(t *testing.T) {
	tests := []struct {
		name    string
		in      any
		want    Value
		wantErr bool
	}{
		{"int", 3, Int(3), false},
		{"int64", int64(-7), Int(-7), false},
		{"uint64 overflow", uint64(math.MaxUint64), Value{}, true},
		{"float", 2.5, Float(2.5), false},
		{"float32", float32(0.5), Float(0.5), false},
		{"NaN", math.NaN(), Value{}, true},
		{"string", "steel", String("steel"), false},
		{"bool", true, Bool(true), false},
		{"value passthrough", Int(4), Int(4), false},
		{"invalid value", Value{}, Value{}, true},
		{"unsupported", []int{1}, Value{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ValueOf(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValueOf(%v) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if !tt.wantErr && !got.Equal(tt.want) {
				t.Errorf("ValueOf(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestFloatNegativeZero(t *testing.T) {
	if got := Float(math.Copysign(0, -1)); got.Canonical() != Float(0).Canonical() {
		t.Errorf("Expected -0 to normalise to 0, got %s", got.Canonical())
	}
}

func TestValueCanonical(t *testing.T) {
	tests := []struct {
		v    Value
		want string
	}{
		{Int(42), "42"},
		{Float(1), "1"},
		{Float(-3), "-3"},
		{Float(3.0000000000000004), "3"},
		{Float(2.5), "2.500000000000000e+00"},
		{Float(1e20), "1.000000000000000e+20"},
		{Float(0.1 + 0.2), "3.000000000000000e-01"},
		{String("a b"), "a b"},
		{Bool(false), "false"},
	}
	for _, tt := range tests {
		if got := tt.v.Canonical(); got != tt.want {
			t.Errorf("Canonical(%v) = %q, want %q", tt.v, got, tt.want)
		}
	}
}

func TestValueTextRoundTrip(t *testing.T) {
	values := []Value{Int(-12), Float(0.1 + 0.2), Float(1e-300), String("x=1"), Bool(true)}
	for _, v := range values {
		got, err := ParseText(v.Kind(), v.Text())
		if err != nil {
			t.Fatalf("ParseText(%s, %q) failed: %v", v.Kind(), v.Text(), err)
		}
		if !got.Equal(v) {
			t.Errorf("round trip of %v gave %v", v, got)
		}
	}
}

func TestParseTextErrors(t *testing.T) {
	if _, err := ParseText(KindInt, "1.5"); err == nil {
		t.Error("Expected error parsing 1.5 as int")
	}
	if _, err := ParseText(KindBool, "maybe"); err == nil {
		t.Error("Expected error parsing maybe as bool")
	}
	if _, err := ParseText(KindFloat, "NaN"); err == nil {
		t.Error("Expected error parsing NaN")
	}
	if _, err := ParseText(KindInvalid, "1"); err == nil {
		t.Error("Expected error for invalid kind")
	}
}

func TestParseKind(t *testing.T) {
	for _, k := range []Kind{KindInt, KindFloat, KindString, KindBool} {
		got, err := ParseKind(k.String())
		if err != nil || got != k {
			t.Errorf("ParseKind(%q) = %v, %v", k.String(), got, err)
		}
	}
	if _, err := ParseKind("complex"); err == nil {
		t.Error("Expected error for unknown kind")
	}
}

func TestColumnKind(t *testing.T) {
	tests := []struct {
		name    string
		values  []Value
		want    Kind
		wantErr bool
	}{
		{"ints", []Value{Int(1), Int(2)}, KindInt, false},
		{"int and float promote", []Value{Int(1), Float(2.5)}, KindFloat, false},
		{"strings", []Value{String("a")}, KindString, false},
		{"int and string", []Value{Int(1), String("a")}, KindInvalid, true},
		{"bool and float", []Value{Bool(true), Float(1)}, KindInvalid, true},
		{"missing", []Value{Int(1), {}}, KindInvalid, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := columnKind(tt.values)
			if (err != nil) != tt.wantErr {
				t.Fatalf("columnKind error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("columnKind = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestValueAccessorsPanicOnWrongKind(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("Expected panic calling Int64 on a string value")
		}
	}()
	String("x").Int64()
}
