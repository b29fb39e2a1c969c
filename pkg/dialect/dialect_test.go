package dialect

import (
	"math"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cellkit/cellfmt/pkg/token"
)

func baseDialect() *Dialect {
	return NewDialect("base").
		Operators(CFamilyOperators).
		Functions(CMathFunctions).
		WithReservedWords("int", "double").
		Qualifier(DeclConstant, "static const").
		Numbers(DecimalNumbers("", CInfinity)).
		RealType("double").
		CommentPrefix("//").
		Build()
}

func TestBuilder_Lookup(t *testing.T) {
	d := baseDialect()

	op, ok := d.Operator(token.PLUS)
	require.True(t, ok)
	assert.Equal(t, "+", op.Symbol)
	assert.Equal(t, PrecedenceAddition, d.Precedence(token.PLUS))
	assert.Greater(t, d.Precedence(token.STAR), d.Precedence(token.PLUS))

	fn, ok := d.Function("abs", 1)
	require.True(t, ok)
	assert.Equal(t, "fabs", fn.Spelling)

	_, ok = d.Function("gamma", 1)
	assert.False(t, ok)
}

func TestFunction_ArityOverride(t *testing.T) {
	d := baseDialect()

	fn, ok := d.Function("log", 1)
	require.True(t, ok)
	assert.Equal(t, "log", fn.Spelling)

	fn, ok = d.Function("log", 2)
	require.True(t, ok)
	assert.Equal(t, "(log({0}) / log({1}))", fn.Template)
}

func TestExtend_OverrideLayer(t *testing.T) {
	base := baseDialect()
	derived := NewDialect("derived").
		Extend(base).
		Function("exp", "expf").
		WithoutFunction("sign").
		WithoutOperator(token.REM).
		WithReservedWords("kernel").
		Qualifier(DeclConstant, "__constant__").
		Numbers(DecimalNumbers("f", CInfinity)).
		RealType("float").
		Build()

	assert.Same(t, base, derived.Base())

	// overridden
	fn, ok := derived.Function("exp", 1)
	require.True(t, ok)
	assert.Equal(t, "expf", fn.Spelling)
	assert.Equal(t, "__constant__", derived.Qualifier(DeclConstant))
	assert.Equal(t, "float", derived.RealType())
	assert.Equal(t, "2.0f", derived.FormatNumber(big.NewFloat(2)))

	// inherited
	fn, ok = derived.Function("sqrt", 1)
	require.True(t, ok)
	assert.Equal(t, "sqrt", fn.Spelling)
	assert.Equal(t, "//", derived.CommentPrefix())
	assert.Equal(t, PrecedenceMultiply, derived.Precedence(token.SLASH))

	// hidden
	_, ok = derived.Function("sign", 1)
	assert.False(t, ok)
	_, ok = derived.Operator(token.REM)
	assert.False(t, ok)
	assert.NotContains(t, derived.Operators(), token.REM)
	assert.Contains(t, derived.Operators(), token.PLUS)

	// base untouched
	_, ok = base.Function("sign", 1)
	assert.True(t, ok)
	fn, _ = base.Function("exp", 1)
	assert.Equal(t, "exp", fn.Spelling)

	// reserved words accumulate
	assert.True(t, derived.IsReservedWord("kernel"))
	assert.True(t, derived.IsReservedWord("int"))
	assert.False(t, base.IsReservedWord("kernel"))
	assert.Equal(t, []string{"double", "int", "kernel"}, derived.ReservedWords())
}

func TestDefaults(t *testing.T) {
	d := NewDialect("bare").Build()
	open, closing := d.Parens()
	assert.Equal(t, "(", open)
	assert.Equal(t, ")", closing)
	assert.Equal(t, ", ", d.ArgSeparator())
	assert.Equal(t, "", d.Qualifier(DeclKernel))
	assert.Equal(t, "x_1", d.SanitizeIdentifier("x.1"))
	assert.Equal(t, "x", d.DecorateIdentifier("x"))
	_, ok := d.Conditional()
	assert.False(t, ok)
}

func TestCIdentifier(t *testing.T) {
	tests := []struct{ in, want string }{
		{"V", "V"},
		{"membrane.V", "membrane_V"},
		{"1x", "_1x"},
		{"a b-c", "a_b_c"},
		{"", "_"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, CIdentifier(tt.in))
		})
	}
}

func TestDecimalNumbers(t *testing.T) {
	f := DecimalNumbers("", CInfinity)
	tests := []struct {
		in   float64
		want string
	}{
		{2, "2.0"},
		{-3, "-3.0"},
		{0.5, "0.5"},
		{1e-5, "1e-05"},
		{1.5e22, "1.5e+22"},
		{math.Inf(1), "INFINITY"},
		{math.Inf(-1), "-INFINITY"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, f(big.NewFloat(tt.in)))
		})
	}

	single := DecimalNumbers("f", CInfinity)
	assert.Equal(t, "2.0f", single(big.NewFloat(2)))
	assert.Equal(t, "INFINITY", single(new(big.Float).SetInf(false)))

	// Finite literals past the float64 range.
	huge, _, err := big.ParseFloat("1e400", 10, 128, big.ToNearestEven)
	require.NoError(t, err)
	assert.Equal(t, "INFINITY", f(huge))
	assert.Equal(t, `-float("inf")`, DecimalNumbers("", `float("inf")`)(new(big.Float).Neg(huge)))
}
