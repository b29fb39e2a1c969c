// Package python provides a Python dialect restricted to the subset that
// Starlark also accepts, so generated code can be checked in-process.
package python

import (
	"github.com/cellkit/cellfmt/pkg/dialect"
	"github.com/cellkit/cellfmt/pkg/token"
)

// Keywords are Python keywords and builtins generated code must not shadow.
var Keywords = []string{
	"False", "None", "True", "and", "as", "assert", "async", "await",
	"break", "class", "continue", "def", "del", "elif", "else", "except",
	"finally", "for", "from", "global", "if", "import", "in", "is",
	"lambda", "load", "nonlocal", "not", "or", "pass", "raise", "return",
	"try", "while", "with", "yield",
	"abs", "float", "int", "len", "list", "max", "min", "print", "range",
	"math", "state", "time",
}

var operators = []dialect.OperatorDef{
	{Token: token.OR, Symbol: "or", Precedence: dialect.PrecedenceOr},
	{Token: token.AND, Symbol: "and", Precedence: dialect.PrecedenceAnd},
	{Token: token.NOT, Symbol: "not ", Precedence: dialect.PrecedenceNot},

	// Python chains comparisons, so they share one non-associative level.
	{Token: token.EQ, Symbol: "==", Precedence: dialect.PrecedenceComparison, Assoc: dialect.AssocNone},
	{Token: token.NE, Symbol: "!=", Precedence: dialect.PrecedenceComparison, Assoc: dialect.AssocNone},
	{Token: token.LT, Symbol: "<", Precedence: dialect.PrecedenceComparison, Assoc: dialect.AssocNone},
	{Token: token.GT, Symbol: ">", Precedence: dialect.PrecedenceComparison, Assoc: dialect.AssocNone},
	{Token: token.LE, Symbol: "<=", Precedence: dialect.PrecedenceComparison, Assoc: dialect.AssocNone},
	{Token: token.GE, Symbol: ">=", Precedence: dialect.PrecedenceComparison, Assoc: dialect.AssocNone},

	{Token: token.PLUS, Symbol: "+", Precedence: dialect.PrecedenceAddition},
	{Token: token.MINUS, Symbol: "-", Precedence: dialect.PrecedenceAddition},
	{Token: token.STAR, Symbol: "*", Precedence: dialect.PrecedenceMultiply},
	{Token: token.SLASH, Symbol: "/", Precedence: dialect.PrecedenceMultiply},
	{Token: token.QUOT, Symbol: "//", Precedence: dialect.PrecedenceMultiply},
	{Token: token.REM, Symbol: "%", Precedence: dialect.PrecedenceMultiply},

	{Token: token.NEG, Symbol: "-", Precedence: dialect.PrecedenceUnary},
	{Token: token.POS, Symbol: "+", Precedence: dialect.PrecedenceUnary},

	// Starlark has no ** operator.
	{Token: token.POW, Template: "math.pow({0}, {1})", Precedence: dialect.PrecedenceAtom, Operands: []int{0, 0}},
}

var functions = []dialect.FunctionDef{
	{Name: "sqrt", Spelling: "math.sqrt"},
	{Name: "exp", Spelling: "math.exp"},
	{Name: "log", Spelling: "math.log"},
	{Name: "log10", Template: "math.log({0}, 10)", Operands: []int{0}},
	{Name: "sin", Spelling: "math.sin"},
	{Name: "cos", Spelling: "math.cos"},
	{Name: "tan", Spelling: "math.tan"},
	{Name: "asin", Spelling: "math.asin"},
	{Name: "acos", Spelling: "math.acos"},
	{Name: "atan", Spelling: "math.atan"},
	{Name: "sinh", Spelling: "math.sinh"},
	{Name: "cosh", Spelling: "math.cosh"},
	{Name: "tanh", Spelling: "math.tanh"},
	{Name: "floor", Spelling: "math.floor"},
	{Name: "ceil", Spelling: "math.ceil"},
	{Name: "abs", Spelling: "math.fabs"},
	{Name: "sign", Unsupported: true},
}

// Python is the Python/Starlark dialect.
var Python = dialect.NewDialect("python").
	Operators(operators).
	Functions(functions).
	ConditionalTemplate("({1} if {0} else {2})", dialect.PrecedenceAtom,
		dialect.PrecedenceOr, dialect.PrecedenceOr, dialect.PrecedenceOr).
	WithReservedWords(Keywords...).
	Numbers(dialect.DecimalNumbers("", `float("inf")`)).
	CommentPrefix("#").
	Build()
