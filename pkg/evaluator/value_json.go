package evaluator

import (
	"encoding/json"
	"math"
)

// ValueToJSON marshals a Value to JSON bytes.
// Integral numbers have no decimal point; non-finite numbers, which JSON
// cannot represent, are emitted as their printed strings.
func ValueToJSON(v Value) ([]byte, error) {
	return json.Marshal(valueToRaw(v))
}

func valueToRaw(v Value) any {
	switch val := v.(type) {
	case Bool:
		return bool(val)

	case Number:
		n := float64(val)
		if math.IsInf(n, 0) || math.IsNaN(n) {
			return FormatNumber(n)
		}
		if n == math.Trunc(n) && n >= math.MinInt64 && n < math.MaxInt64 {
			return int64(n)
		}
		return n

	case String:
		return string(val)
	}

	return nil
}
