package evaluator_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thomasrohde/lox/go/pkg/evaluator"
)

func TestTruthiness(t *testing.T) {
	tests := []struct {
		value    evaluator.Value
		expected bool
	}{
		{evaluator.Nil{}, false},
		{evaluator.Bool(false), false},
		{evaluator.Bool(true), true},
		{evaluator.Number(0), true},
		{evaluator.Number(-1), true},
		{evaluator.Number(math.NaN()), true},
		{evaluator.String(""), true},
		{evaluator.String("hello"), true},
	}

	for i, tt := range tests {
		got := evaluator.Truthiness(tt.value)
		if got != tt.expected {
			t.Errorf("test %d: Truthiness(%#v) = %v, want %v", i, tt.value, got, tt.expected)
		}
	}
}

func TestEqual(t *testing.T) {
	tests := []struct {
		name string
		a, b evaluator.Value
		want bool
	}{
		{"nil nil", evaluator.Nil{}, evaluator.Nil{}, true},
		{"nil false", evaluator.Nil{}, evaluator.Bool(false), false},
		{"false nil", evaluator.Bool(false), evaluator.Nil{}, false},
		{"nil zero", evaluator.Nil{}, evaluator.Number(0), false},
		{"bools", evaluator.Bool(true), evaluator.Bool(true), true},
		{"bools differ", evaluator.Bool(true), evaluator.Bool(false), false},
		{"numbers", evaluator.Number(1.5), evaluator.Number(1.5), true},
		{"numbers differ", evaluator.Number(1), evaluator.Number(2), false},
		{"zero signs", evaluator.Number(0), evaluator.Number(math.Copysign(0, -1)), true},
		{"NaN", evaluator.Number(math.NaN()), evaluator.Number(math.NaN()), false},
		{"strings", evaluator.String("a"), evaluator.String("a"), true},
		{"strings differ", evaluator.String("a"), evaluator.String("b"), false},
		{"number string", evaluator.Number(1), evaluator.String("1"), false},
		{"bool number", evaluator.Bool(true), evaluator.Number(1), false},
		{"empty string nil", evaluator.String(""), evaluator.Nil{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, evaluator.Equal(tt.a, tt.b))
		})
	}
}

func TestStringify(t *testing.T) {
	// Variables keep the sum out of constant folding, which is exact.
	tenth, fifth := 0.1, 0.2
	tests := []struct {
		value evaluator.Value
		want  string
	}{
		{evaluator.Nil{}, "nil"},
		{evaluator.Bool(true), "true"},
		{evaluator.Bool(false), "false"},
		{evaluator.Number(3), "3"},
		{evaluator.Number(3.5), "3.5"},
		{evaluator.Number(-0.25), "-0.25"},
		{evaluator.Number(100), "100"},
		{evaluator.Number(1e21), "1000000000000000000000"},
		{evaluator.Number(tenth + fifth), "0.30000000000000004"},
		{evaluator.Number(math.Inf(1)), "inf"},
		{evaluator.Number(math.Inf(-1)), "-inf"},
		{evaluator.Number(math.NaN()), "NaN"},
		{evaluator.String("raw \"text\""), "raw \"text\""},
		{evaluator.String(""), ""},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, evaluator.Stringify(tt.value))
		})
	}
}

func TestFromLiteral(t *testing.T) {
	assert.Equal(t, evaluator.Nil{}, evaluator.FromLiteral(nil))
	assert.Equal(t, evaluator.Bool(true), evaluator.FromLiteral(true))
	assert.Equal(t, evaluator.Number(2.5), evaluator.FromLiteral(2.5))
	assert.Equal(t, evaluator.String("s"), evaluator.FromLiteral("s"))
}

func TestTypeName(t *testing.T) {
	assert.Equal(t, "nil", evaluator.TypeName(evaluator.Nil{}))
	assert.Equal(t, "boolean", evaluator.TypeName(evaluator.Bool(false)))
	assert.Equal(t, "number", evaluator.TypeName(evaluator.Number(0)))
	assert.Equal(t, "string", evaluator.TypeName(evaluator.String("")))
}

func TestValueToJSON(t *testing.T) {
	tests := []struct {
		value evaluator.Value
		want  string
	}{
		{evaluator.Nil{}, "null"},
		{evaluator.Bool(true), "true"},
		{evaluator.Number(3), "3"},
		{evaluator.Number(2.5), "2.5"},
		{evaluator.Number(math.Inf(1)), `"inf"`},
		{evaluator.Number(math.NaN()), `"NaN"`},
		{evaluator.String("hi"), `"hi"`},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			b, err := evaluator.ValueToJSON(tt.value)
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(b))
		})
	}
}
