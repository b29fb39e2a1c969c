package writer_test

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cellkit/cellfmt/pkg/core"
	"github.com/cellkit/cellfmt/pkg/dialect"
	"github.com/cellkit/cellfmt/pkg/dialects/ansic"
	"github.com/cellkit/cellfmt/pkg/dialects/cuda"
	"github.com/cellkit/cellfmt/pkg/dialects/latex"
	"github.com/cellkit/cellfmt/pkg/dialects/opencl"
	"github.com/cellkit/cellfmt/pkg/dialects/python"
	"github.com/cellkit/cellfmt/pkg/token"
	"github.com/cellkit/cellfmt/pkg/writer"
)

var (
	a = core.Ref("a")
	b = core.Ref("b")
	c = core.Ref("c")
	x = core.Ref("x")
)

func bin(op token.TokenType, l, r core.Expr) core.Expr { return core.Bin(op, l, r) }

type renderCase struct {
	name string
	expr core.Expr
	want string
}

func runCases(t *testing.T, d *dialect.Dialect, cases []renderCase) {
	t.Helper()
	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			got, err := writer.Render(tt.expr, d)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRender_ANSIC(t *testing.T) {
	runCases(t, ansic.ANSIC, []renderCase{
		{"linear", bin(token.PLUS, bin(token.STAR, core.Num(2), x), core.Num(1)), "2.0 * x + 1.0"},
		{"right nested minus", bin(token.MINUS, a, bin(token.MINUS, b, c)), "a - (b - c)"},
		{"left nested minus", bin(token.MINUS, bin(token.MINUS, a, b), c), "a - b - c"},
		{"sum times", bin(token.STAR, bin(token.PLUS, a, b), c), "(a + b) * c"},
		{"divide product", bin(token.SLASH, a, bin(token.STAR, b, c)), "a / (b * c)"},
		{"product divide", bin(token.SLASH, bin(token.STAR, a, b), c), "a * b / c"},
		{"pow", bin(token.POW, bin(token.PLUS, a, b), core.Num(2)), "pow(a + b, 2.0)"},
		{"double negation", core.Neg(core.Neg(x)), "-(-x)"},
		{"negated negative literal", core.Neg(core.Num(-2)), "-(-2.0)"},
		{"negative literal left", bin(token.STAR, core.Num(-2), x), "-2.0 * x"},
		{"negative literal right", bin(token.MINUS, x, core.Num(-2)), "x - (-2.0)"},
		{"negated sum", core.Neg(bin(token.PLUS, a, b)), "-(a + b)"},
		{"conditional", core.Cond(bin(token.LT, x, core.Num(0)), core.Neg(x), x), "(x < 0.0 ? -x : x)"},
		{"not and", core.Not(bin(token.AND, a, b)), "!(a && b)"},
		{"and under or", bin(token.OR, bin(token.AND, a, b), c), "a && b || c"},
		{"or under and", bin(token.AND, bin(token.OR, a, b), c), "(a || b) && c"},
		{"comparison under equality", bin(token.EQ, a, bin(token.LT, b, c)), "a == b < c"},
		{"log base", core.Fn("log", x, core.Num(10)), "(log(x) / log(10.0))"},
		{"abs", core.Fn("abs", x), "fabs(x)"},
		{"sign", core.Fn("sign", bin(token.MINUS, a, b)), "((a - b > 0) - (a - b < 0))"},
		{"remainder", bin(token.REM, a, bin(token.PLUS, b, c)), "(a - (b + c) * floor(a / (b + c)))"},
		{"quotient", bin(token.QUOT, bin(token.PLUS, a, b), c), "floor((a + b) / c)"},
		{"exponent literal", core.Num(1e-5), "1e-05"},
		{"infinity", core.Num(math.Inf(1)), "INFINITY"},
		{"negative infinity right", bin(token.MINUS, x, core.Num(math.Inf(-1))), "x - (-INFINITY)"},
		{"reserved name", bin(token.PLUS, core.Ref("int"), core.Ref("exp")), "int_ + exp_"},
		{"dotted name", core.Ref("membrane.V"), "membrane_V"},
	})
}

func TestRender_CUDA(t *testing.T) {
	runCases(t, cuda.CUDA, []renderCase{
		{"intrinsic", core.Fn("exp", bin(token.STAR, core.Num(2), x)), "expf(2.0f * x)"},
		{"pow", bin(token.POW, x, core.Num(3)), "powf(x, 3.0f)"},
		{"infinity has no suffix", bin(token.STAR, core.Num(math.Inf(1)), x), "INFINITY * x"},
		{"inherited operators", bin(token.SLASH, a, bin(token.MINUS, b, c)), "a / (b - c)"},
		{"log base", core.Fn("log", x, core.Num(2)), "(logf(x) / logf(2.0f))"},
		{"conditional", core.Cond(bin(token.GE, x, a), a, x), "(x >= a ? a : x)"},
		{"cuda keyword", core.Ref("threadIdx"), "threadIdx_"},
		{"c keyword", core.Ref("double"), "double_"},
	})
}

func TestRender_OpenCL(t *testing.T) {
	runCases(t, opencl.OpenCL, []renderCase{
		{"math", core.Fn("exp", x), "exp(x)"},
		{"sign builtin", core.Fn("sign", x), "sign(x)"},
		{"literal", core.Num(3), "3.0"},
		{"keyword", core.Ref("kernel"), "kernel_"},
	})
}

func TestRender_Python(t *testing.T) {
	runCases(t, python.Python, []renderCase{
		{"conditional", core.Cond(bin(token.LT, x, a), a, x), "(a if x < a else x)"},
		{"infinity", bin(token.STAR, core.Num(math.Inf(1)), x), `float("inf") * x`},
		{"not comparison", core.Not(bin(token.LT, a, b)), "not a < b"},
		{"not under and", bin(token.AND, core.Not(a), b), "not a and b"},
		{"comparison of comparison", bin(token.LT, bin(token.LT, a, b), c), "(a < b) < c"},
		{"equality of comparison", bin(token.EQ, a, bin(token.LT, b, c)), "a == (b < c)"},
		{"pow", bin(token.POW, x, core.Num(2)), "math.pow(x, 2.0)"},
		{"log10", core.Fn("log10", x), "math.log(x, 10)"},
		{"remainder", bin(token.REM, a, b), "a % b"},
		{"quotient", bin(token.QUOT, a, bin(token.STAR, b, c)), "a // (b * c)"},
		{"keyword", core.Ref("lambda"), "lambda_"},
	})
}

func TestRender_LaTeX(t *testing.T) {
	runCases(t, latex.LaTeX, []renderCase{
		{"fraction", bin(token.SLASH, bin(token.PLUS, a, b), c), `\frac{\text{a} + \text{b}}{\text{c}}`},
		{"power of sum", bin(token.POW, bin(token.PLUS, a, b), core.Num(2)), `\left(\text{a} + \text{b}\right)^{2}`},
		{"power right nested", bin(token.POW, a, bin(token.POW, b, c)), `\text{a}^{\text{b}^{\text{c}}}`},
		{"power left nested", bin(token.POW, bin(token.POW, a, b), c), `\left(\text{a}^{\text{b}}\right)^{\text{c}}`},
		{"power of negation", bin(token.POW, core.Neg(a), core.Num(2)), `\left(-\text{a}\right)^{2}`},
		{"product", bin(token.STAR, a, bin(token.MINUS, b, c)), `\text{a} \cdot \left(\text{b} - \text{c}\right)`},
		{"small literal", core.Num(1e-5), `10^{-5}`},
		{"scientific literal", core.Num(2.5e-7), `2.5 \times 10^{-7}`},
		{"plain literal", core.Num(2), "2"},
		{"infinity", core.Num(math.Inf(-1)), `-\infty`},
		{"escaped name", core.Ref("i_Na"), `\text{i\_Na}`},
		{"sqrt", core.Fn("sqrt", x), `\sqrt{\text{x}}`},
		{"exp", core.Fn("exp", x), `\exp\left(\text{x}\right)`},
		{"log base", core.Fn("log", x, core.Num(2)), `\log_{2}\left(\text{x}\right)`},
		{"abs", core.Fn("abs", x), `\left|\text{x}\right|`},
		{"comparison", bin(token.LE, a, b), `\text{a} \leq \text{b}`},
		{"cases", core.Cond(bin(token.LT, x, core.Num(0)), a, b),
			`\begin{cases}\text{a} & \text{if } \text{x} < 0 \\ \text{b} & \text{otherwise}\end{cases}`},
		{"no reserved words", core.Ref("int"), `\text{int}`},
	})
}

func TestRender_Unsupported(t *testing.T) {
	tests := []struct {
		name      string
		d         *dialect.Dialect
		expr      core.Expr
		construct string
	}{
		{"cuda sign", cuda.CUDA, core.Fn("sign", x), "function sign"},
		{"python sign", python.Python, bin(token.PLUS, a, core.Fn("sign", x)), "function sign"},
		{"unknown function", ansic.ANSIC, core.Fn("gamma", x), "function gamma"},
		{"bad arity", ansic.ANSIC, core.Fn("sqrt", x, a), "function sqrt"},
		{"unary as binary", ansic.ANSIC, core.Bin(token.NEG, a, b), "operator neg"},
		{"nested", latex.LaTeX, core.Neg(core.Fn("erf", x)), "function erf"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := writer.Render(tt.expr, tt.d)
			require.Error(t, err)
			assert.Empty(t, got)
			assert.True(t, errors.Is(err, core.ErrUnsupportedConstruct))

			var uc *core.UnsupportedConstructError
			require.True(t, errors.As(err, &uc))
			assert.Equal(t, tt.construct, uc.Construct)
			assert.Equal(t, tt.d.Name, uc.Dialect)
		})
	}
}

func allDialects() []*dialect.Dialect {
	return []*dialect.Dialect{ansic.ANSIC, cuda.CUDA, opencl.OpenCL, python.Python, latex.LaTeX}
}

// everyConstruct returns one expression per node kind, operator and
// function in the vocabulary.
func everyConstruct() []core.Expr {
	exprs := []core.Expr{
		core.Num(1.25),
		core.Num(-4),
		x,
		core.Cond(bin(token.GT, x, a), a, b),
	}
	for _, op := range token.Unary() {
		exprs = append(exprs, &core.Unary{Op: op, X: bin(token.PLUS, a, b)})
	}
	for _, op := range token.Binary() {
		exprs = append(exprs, bin(op, bin(token.MINUS, a, b), core.Neg(c)))
	}
	for _, fn := range core.Functions() {
		args := make([]core.Expr, fn.MaxArgs)
		for i := range args {
			args[i] = bin(token.STAR, a, core.Num(float64(i+2)))
		}
		exprs = append(exprs, core.Fn(fn.Name, args...))
		if fn.MinArgs != fn.MaxArgs {
			exprs = append(exprs, core.Fn(fn.Name, args[:fn.MinArgs]...))
		}
	}
	return exprs
}

func TestRender_Total(t *testing.T) {
	for _, d := range allDialects() {
		t.Run(d.Name, func(t *testing.T) {
			rendered := 0
			for _, e := range everyConstruct() {
				got, err := writer.Render(e, d)
				if err != nil {
					assert.True(t, errors.Is(err, core.ErrUnsupportedConstruct), "%s: %v", core.Format(e), err)
					continue
				}
				assert.NotEmpty(t, got, core.Format(e))
				rendered++
			}
			assert.Greater(t, rendered, 30)
		})
	}
}

func TestRender_Idempotent(t *testing.T) {
	for _, d := range allDialects() {
		w := writer.New(d)
		for _, e := range everyConstruct() {
			first, err1 := w.Render(e)
			second, err2 := w.Render(e)
			assert.Equal(t, first, second)
			assert.Equal(t, err1, err2)
		}
	}
}
