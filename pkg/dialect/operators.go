package dialect

import (
	"math"
	"math/big"
	"strconv"
	"strings"

	"github.com/cellkit/cellfmt/pkg/token"
)

// This file contains the "toolbox" of reusable operator, function and
// literal configurations. Dialects compose these rather than spelling out
// every entry.

// CFamilyOperators contains the operators shared by C-like languages.
var CFamilyOperators = []OperatorDef{
	{Token: token.OR, Symbol: "||", Precedence: PrecedenceOr},
	{Token: token.AND, Symbol: "&&", Precedence: PrecedenceAnd},

	{Token: token.EQ, Symbol: "==", Precedence: PrecedenceEquality},
	{Token: token.NE, Symbol: "!=", Precedence: PrecedenceEquality},
	{Token: token.LT, Symbol: "<", Precedence: PrecedenceComparison},
	{Token: token.GT, Symbol: ">", Precedence: PrecedenceComparison},
	{Token: token.LE, Symbol: "<=", Precedence: PrecedenceComparison},
	{Token: token.GE, Symbol: ">=", Precedence: PrecedenceComparison},

	{Token: token.PLUS, Symbol: "+", Precedence: PrecedenceAddition},
	{Token: token.MINUS, Symbol: "-", Precedence: PrecedenceAddition},
	{Token: token.STAR, Symbol: "*", Precedence: PrecedenceMultiply},
	{Token: token.SLASH, Symbol: "/", Precedence: PrecedenceMultiply},

	{Token: token.NEG, Symbol: "-", Precedence: PrecedenceUnary},
	{Token: token.POS, Symbol: "+", Precedence: PrecedenceUnary},
	{Token: token.NOT, Symbol: "!", Precedence: PrecedenceUnary},

	// No power, quotient or floored remainder operators in C.
	{Token: token.POW, Template: "pow({0}, {1})", Precedence: PrecedenceAtom, Operands: []int{0, 0}},
	{Token: token.QUOT, Template: "floor({0} / {1})", Precedence: PrecedenceAtom,
		Operands: []int{PrecedenceMultiply, PrecedenceUnary}},
	{Token: token.REM, Template: "({0} - {1} * floor({0} / {1}))", Precedence: PrecedenceAtom,
		Operands: []int{PrecedenceMultiply, PrecedencePower}},
}

// CMathFunctions spells the canonical vocabulary with <math.h> names.
var CMathFunctions = []FunctionDef{
	{Name: "sqrt", Spelling: "sqrt"},
	{Name: "exp", Spelling: "exp"},
	{Name: "log", Spelling: "log"},
	{Name: "log/2", Template: "(log({0}) / log({1}))", Operands: []int{0, 0}},
	{Name: "log10", Spelling: "log10"},
	{Name: "sin", Spelling: "sin"},
	{Name: "cos", Spelling: "cos"},
	{Name: "tan", Spelling: "tan"},
	{Name: "asin", Spelling: "asin"},
	{Name: "acos", Spelling: "acos"},
	{Name: "atan", Spelling: "atan"},
	{Name: "sinh", Spelling: "sinh"},
	{Name: "cosh", Spelling: "cosh"},
	{Name: "tanh", Spelling: "tanh"},
	{Name: "floor", Spelling: "floor"},
	{Name: "ceil", Spelling: "ceil"},
	{Name: "abs", Spelling: "fabs"},
	{Name: "sign", Template: "(({0} > 0) - ({0} < 0))", Operands: []int{PrecedenceComparison + 1}},
}

// CKeywords are the C99 keywords plus <math.h> names that generated code
// must not shadow.
var CKeywords = []string{
	"auto", "break", "case", "char", "const", "continue", "default", "do",
	"double", "else", "enum", "extern", "float", "for", "goto", "if",
	"inline", "int", "long", "register", "restrict", "return", "short",
	"signed", "sizeof", "static", "struct", "switch", "typedef", "union",
	"unsigned", "void", "volatile", "while", "_Bool", "_Complex", "_Imaginary",
	"NULL", "main",
	"sqrt", "exp", "log", "log10", "pow", "sin", "cos", "tan", "asin",
	"acos", "atan", "atan2", "sinh", "cosh", "tanh", "floor", "ceil", "fabs",
	"fmod",
}

// DecimalNumbers formats literals as shortest round-trip decimals that
// always read as floating point: 2 becomes "2.0", 1e-05 stays "1e-05".
// suffix is appended verbatim (e.g. "f" for single precision). Literals
// beyond the float64 range are spelled with infinity, without the suffix.
func DecimalNumbers(suffix, infinity string) NumberFormat {
	return func(v *big.Float) string {
		f, _ := v.Float64()
		if math.IsInf(f, 0) {
			if f < 0 {
				return "-" + infinity
			}
			return infinity
		}
		s := strconv.FormatFloat(f, 'g', -1, 64)
		if !strings.ContainsAny(s, ".e") {
			s += ".0"
		}
		return s + suffix
	}
}

// CInfinity is the <math.h> spelling of positive infinity.
const CInfinity = "INFINITY"
