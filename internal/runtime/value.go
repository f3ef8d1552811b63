// Package runtime implements the interpreter and runtime value system for Lox.
package runtime

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Value is the interface for all runtime values.
type Value interface {
	String() string
}

// ---- Primitive values ----

// NilVal is the type of the single nil value.
type NilVal struct{}

// Nil is the only nil value. It is the result of statements, of functions
// that fall off their end, and of variables declared without initializer.
var Nil Value = NilVal{}

func (v NilVal) String() string { return "nil" }

// BoolVal represents a boolean value.
type BoolVal bool

func (v BoolVal) String() string { return strconv.FormatBool(bool(v)) }

// NumberVal represents a double-precision number.
type NumberVal float64

// String renders the shortest form that round-trips. Integral values have no
// fractional part. Magnitudes of 1e21 and above, or below 1e-6, use exponent
// notation (`1e+21`, `1.5e-7`). Non-finite values print as Infinity,
// -Infinity and NaN.
func (v NumberVal) String() string {
	f := float64(v)
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	case f == 0:
		return "0" // also for -0
	}
	if abs := math.Abs(f); abs >= 1e21 || abs < 1e-6 {
		mantissa, exp, _ := strings.Cut(strconv.FormatFloat(f, 'e', -1, 64), "e")
		n, _ := strconv.Atoi(exp)
		return fmt.Sprintf("%se%+d", mantissa, n)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// StringVal represents an immutable string value.
type StringVal string

func (v StringVal) String() string { return string(v) }

// ---- Truthiness and equality ----

// IsTruthy reports the truthiness of a value: nil and false are falsy,
// everything else (including 0 and "") is truthy.
func IsTruthy(v Value) bool {
	switch val := v.(type) {
	case NilVal:
		return false
	case BoolVal:
		return bool(val)
	default:
		return true
	}
}

// ValuesEqual compares two values without coercion. Values of different
// kinds are never equal; functions, classes and instances compare by
// identity. NaN is not equal to itself.
func ValuesEqual(a, b Value) bool {
	return a == b
}

// Stringify renders a value the way `print` does.
func Stringify(v Value) string {
	if v == nil {
		return Nil.String()
	}
	return v.String()
}
