// Package evaluator implements the Lox tree-walking interpreter.
package evaluator

import (
	"math"
	"strconv"
)

// Value is the interface for all Lox runtime values.
// Use the sealed marker method to restrict implementations to this package.
type Value interface {
	loxValue() // sealed marker
}

// Nil is the absence of a value.
type Nil struct{}

func (Nil) loxValue() {}

// Bool is a boolean value.
type Bool bool

func (Bool) loxValue() {}

// Number is a double-precision value.
type Number float64

func (Number) loxValue() {}

// String is an immutable text value.
type String string

func (String) loxValue() {}

// FromLiteral converts a token or AST literal (nil, bool, float64, string)
// to a Value.
func FromLiteral(lit any) Value {
	switch v := lit.(type) {
	case bool:
		return Bool(v)
	case float64:
		return Number(v)
	case string:
		return String(v)
	}
	return Nil{}
}

// Truthiness returns the boolean interpretation of a Lox value.
// nil and false are falsy; everything else, including 0 and "", is truthy.
func Truthiness(v Value) bool {
	switch val := v.(type) {
	case nil, Nil:
		return false
	case Bool:
		return bool(val)
	default:
		return true
	}
}

// Equal compares two values. Values of different kinds are never equal,
// nil equals only nil, and numbers follow IEEE comparison (NaN != NaN).
func Equal(a, b Value) bool {
	if a == nil {
		a = Nil{}
	}
	if b == nil {
		b = Nil{}
	}
	switch x := a.(type) {
	case Nil:
		_, ok := b.(Nil)
		return ok
	case Bool:
		y, ok := b.(Bool)
		return ok && x == y
	case Number:
		y, ok := b.(Number)
		return ok && x == y
	case String:
		y, ok := b.(String)
		return ok && x == y
	}
	return false
}

// Stringify renders a value the way print shows it.
func Stringify(v Value) string {
	switch val := v.(type) {
	case nil, Nil:
		return "nil"
	case Bool:
		return strconv.FormatBool(bool(val))
	case Number:
		return FormatNumber(float64(val))
	case String:
		return string(val)
	}
	return ""
}

// FormatNumber prints n in its shortest decimal form; integral values have
// no fractional part, so 3.0 prints as "3".
func FormatNumber(n float64) string {
	switch {
	case math.IsNaN(n):
		return "NaN"
	case math.IsInf(n, 1):
		return "inf"
	case math.IsInf(n, -1):
		return "-inf"
	}
	return strconv.FormatFloat(n, 'f', -1, 64)
}

// TypeName returns the user-facing name of a value's kind.
func TypeName(v Value) string {
	switch v.(type) {
	case nil, Nil:
		return "nil"
	case Bool:
		return "boolean"
	case Number:
		return "number"
	case String:
		return "string"
	}
	return "unknown"
}
