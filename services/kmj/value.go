package kmj

import (
	"fmt"
	"math"
	"strconv"
)

// Value is an indicator reading that may be undefined.
// The zero Value is undefined.
type Value struct {
	v  float64
	ok bool
}

// Some returns a defined Value. Non-finite inputs yield an undefined Value.
func Some(v float64) Value {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Value{}
	}
	return Value{v: v, ok: true}
}

// None returns an undefined Value
func None() Value {
	return Value{}
}

// Get returns the underlying number and whether it is defined
func (x Value) Get() (float64, bool) {
	return x.v, x.ok
}

// Defined reports whether the value carries a number
func (x Value) Defined() bool {
	return x.ok
}

// Or returns the value, or fallback when undefined
func (x Value) Or(fallback float64) float64 {
	if !x.ok {
		return fallback
	}
	return x.v
}

// MarshalJSON encodes undefined values as null
func (x Value) MarshalJSON() ([]byte, error) {
	if !x.ok {
		return []byte("null"), nil
	}
	return strconv.AppendFloat(nil, x.v, 'f', -1, 64), nil
}

// UnmarshalJSON decodes null as undefined
func (x *Value) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*x = None()
		return nil
	}
	v, err := strconv.ParseFloat(string(b), 64)
	if err != nil {
		return fmt.Errorf("decode value %s: %w", b, err)
	}
	*x = Some(v)
	return nil
}

func (x Value) String() string {
	if !x.ok {
		return "n/a"
	}
	return strconv.FormatFloat(x.v, 'f', 4, 64)
}
