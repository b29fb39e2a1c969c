// Package latex provides the typesetting dialect. It renders math-mode
// LaTeX: fractions, superscripts and \left( \right) grouping, with its own
// precedence and no reserved words.
package latex

import (
	"math"
	"math/big"
	"strconv"
	"strings"

	"github.com/cellkit/cellfmt/pkg/dialect"
	"github.com/cellkit/cellfmt/pkg/token"
)

const atom = dialect.PrecedenceAtom

var operators = []dialect.OperatorDef{
	{Token: token.OR, Symbol: `\vee`, Precedence: dialect.PrecedenceOr},
	{Token: token.AND, Symbol: `\wedge`, Precedence: dialect.PrecedenceAnd},
	{Token: token.NOT, Symbol: `\neg `, Precedence: dialect.PrecedenceUnary},

	{Token: token.EQ, Symbol: "=", Precedence: dialect.PrecedenceComparison, Assoc: dialect.AssocNone},
	{Token: token.NE, Symbol: `\neq`, Precedence: dialect.PrecedenceComparison, Assoc: dialect.AssocNone},
	{Token: token.LT, Symbol: "<", Precedence: dialect.PrecedenceComparison, Assoc: dialect.AssocNone},
	{Token: token.GT, Symbol: ">", Precedence: dialect.PrecedenceComparison, Assoc: dialect.AssocNone},
	{Token: token.LE, Symbol: `\leq`, Precedence: dialect.PrecedenceComparison, Assoc: dialect.AssocNone},
	{Token: token.GE, Symbol: `\geq`, Precedence: dialect.PrecedenceComparison, Assoc: dialect.AssocNone},

	{Token: token.PLUS, Symbol: "+", Precedence: dialect.PrecedenceAddition},
	{Token: token.MINUS, Symbol: "-", Precedence: dialect.PrecedenceAddition},
	{Token: token.STAR, Symbol: `\cdot`, Precedence: dialect.PrecedenceMultiply},
	{Token: token.REM, Symbol: `\bmod`, Precedence: dialect.PrecedenceMultiply},

	{Token: token.NEG, Symbol: "-", Precedence: dialect.PrecedenceUnary},
	{Token: token.POS, Symbol: "+", Precedence: dialect.PrecedenceUnary},

	// Braces delimit numerator, denominator and exponent, so only the base
	// of a power needs explicit grouping.
	{Token: token.SLASH, Template: `\frac{{0}}{{1}}`, Precedence: atom, Operands: []int{0, 0}},
	{Token: token.QUOT, Template: `\left\lfloor\frac{{0}}{{1}}\right\rfloor`, Precedence: atom, Operands: []int{0, 0}},
	{Token: token.POW, Template: `{0}^{{1}}`, Precedence: dialect.PrecedencePower, Operands: []int{atom, 0}},
}

var functions = []dialect.FunctionDef{
	{Name: "sqrt", Template: `\sqrt{{0}}`, Operands: []int{0}},
	{Name: "exp", Spelling: `\exp`},
	{Name: "log", Spelling: `\ln`},
	{Name: "log/2", Template: `\log_{{1}}\left({0}\right)`, Operands: []int{0, 0}},
	{Name: "log10", Spelling: `\log_{10}`},
	{Name: "sin", Spelling: `\sin`},
	{Name: "cos", Spelling: `\cos`},
	{Name: "tan", Spelling: `\tan`},
	{Name: "asin", Spelling: `\arcsin`},
	{Name: "acos", Spelling: `\arccos`},
	{Name: "atan", Spelling: `\arctan`},
	{Name: "sinh", Spelling: `\sinh`},
	{Name: "cosh", Spelling: `\cosh`},
	{Name: "tanh", Spelling: `\tanh`},
	{Name: "floor", Template: `\left\lfloor{0}\right\rfloor`, Operands: []int{0}},
	{Name: "ceil", Template: `\left\lceil{0}\right\rceil`, Operands: []int{0}},
	{Name: "abs", Template: `\left|{0}\right|`, Operands: []int{0}},
	{Name: "sign", Spelling: `\operatorname{sgn}`},
}

// Math-mode escapes for characters allowed in model names.
var escaper = strings.NewReplacer(
	`\`, `\textbackslash{}`,
	"_", `\_`,
	"&", `\&`,
	"%", `\%`,
	"$", `\$`,
	"#", `\#`,
	"{", `\{`,
	"}", `\}`,
	"^", `\^{}`,
	"~", `\~{}`,
)

// Escape makes s safe inside \text{} or in running text.
func Escape(s string) string {
	return escaper.Replace(s)
}

func identifier(name string) string {
	return `\text{` + Escape(name) + `}`
}

// Numbers renders literals as math-mode decimals; exponents become
// "m \times 10^{e}".
func Numbers(v *big.Float) string {
	f, _ := v.Float64()
	if math.IsInf(f, 0) {
		if f < 0 {
			return `-\infty`
		}
		return `\infty`
	}
	s := strconv.FormatFloat(f, 'g', -1, 64)
	mant, exp, ok := strings.Cut(s, "e")
	if !ok {
		return s
	}
	e, err := strconv.Atoi(exp)
	if err != nil {
		return s
	}
	if mant == "1" {
		return "10^{" + strconv.Itoa(e) + "}"
	}
	return mant + ` \times 10^{` + strconv.Itoa(e) + "}"
}

// LaTeX is the typesetting dialect.
var LaTeX = dialect.NewDialect("latex").
	Operators(operators).
	Functions(functions).
	ConditionalTemplate(`\begin{cases}{1} & \text{if } {0} \\ {2} & \text{otherwise}\end{cases}`,
		atom, 0, 0, 0).
	Identifiers(func(s string) string { return s }, identifier).
	Numbers(Numbers).
	Parens(`\left(`, `\right)`, ", ").
	CommentPrefix("%").
	Build()
