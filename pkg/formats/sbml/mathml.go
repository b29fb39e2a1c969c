package sbml

import (
	"math"
	"strings"

	"github.com/cellkit/cellfmt/pkg/core"
	"github.com/cellkit/cellfmt/pkg/token"
)

const timeSymbol = "http://www.sbml.org/sbml/symbols/time"

// mathConverter turns the MathML content subset used by SBML into
// expressions. locals renames kinetic law parameters to their namespaced
// binding names.
type mathConverter struct {
	locals map[string]string
	time   string
}

var relations = map[string]token.TokenType{
	"eq":  token.EQ,
	"neq": token.NE,
	"lt":  token.LT,
	"gt":  token.GT,
	"leq": token.LE,
	"geq": token.GE,
}

var elementary = map[string]string{
	"abs":     "abs",
	"exp":     "exp",
	"ln":      "log",
	"floor":   "floor",
	"ceiling": "ceil",
	"sin":     "sin",
	"cos":     "cos",
	"tan":     "tan",
	"arcsin":  "asin",
	"arccos":  "acos",
	"arctan":  "atan",
	"sinh":    "sinh",
	"cosh":    "cosh",
	"tanh":    "tanh",
}

// convertMath converts the single expression inside a <math> element.
func (c *mathConverter) convertMath(m *element) (core.Expr, error) {
	if m == nil {
		return nil, nil
	}
	if m.name != "math" {
		return nil, m.errorf("expected <math>, found <%s>", m.name)
	}
	if len(m.children) != 1 {
		return nil, m.errorf("<math> must hold exactly one expression, found %d", len(m.children))
	}
	return c.convert(m.children[0])
}

func (c *mathConverter) convert(e *element) (core.Expr, error) {
	switch e.name {
	case "cn":
		return c.number(e)
	case "ci":
		name := e.text()
		if name == "" {
			return nil, e.errorf("empty identifier")
		}
		if local, ok := c.locals[name]; ok {
			name = local
		}
		return core.Ref(name), nil
	case "csymbol":
		url, _ := e.attr("definitionURL")
		if url != timeSymbol {
			return nil, e.errorf("unsupported csymbol %q", url)
		}
		return core.Ref(c.time), nil
	case "pi":
		return core.Num(math.Pi), nil
	case "exponentiale":
		return core.Num(math.E), nil
	case "true":
		return core.Num(1), nil
	case "false":
		return core.Num(0), nil
	case "apply":
		return c.apply(e)
	case "piecewise":
		return c.piecewise(e)
	}
	return nil, e.errorf("unsupported MathML element <%s>", e.name)
}

func (c *mathConverter) number(e *element) (core.Expr, error) {
	typ, _ := e.attr("type")
	switch typ {
	case "", "real", "integer":
		n, err := core.ParseNumber(e.text())
		if err != nil {
			return nil, e.errorf("%v", err)
		}
		return n, nil
	case "e-notation", "rational":
		if len(e.segments) != 2 {
			return nil, e.errorf("<cn type=%q> needs two parts separated by <sep/>", typ)
		}
		a, err := core.ParseNumber(e.segments[0])
		if err != nil {
			return nil, e.errorf("%v", err)
		}
		b, err := core.ParseNumber(e.segments[1])
		if err != nil {
			return nil, e.errorf("%v", err)
		}
		if typ == "rational" {
			return core.Bin(token.SLASH, a, b), nil
		}
		n, err := core.ParseNumber(strings.TrimSpace(e.segments[0]) + "e" + strings.TrimSpace(e.segments[1]))
		if err != nil {
			return nil, e.errorf("%v", err)
		}
		return n, nil
	}
	return nil, e.errorf("unsupported number type %q", typ)
}

func (c *mathConverter) apply(e *element) (core.Expr, error) {
	if len(e.children) == 0 {
		return nil, e.errorf("empty <apply>")
	}
	op := e.children[0]

	// Qualifiers are kept aside; the rest are operands.
	var degree, logbase *element
	var operands []core.Expr
	for _, child := range e.children[1:] {
		switch child.name {
		case "degree":
			degree = child
		case "logbase":
			logbase = child
		default:
			x, err := c.convert(child)
			if err != nil {
				return nil, err
			}
			operands = append(operands, x)
		}
	}

	arity := func(n int) error {
		if len(operands) != n {
			return op.errorf("<%s> takes %d operands, found %d", op.name, n, len(operands))
		}
		return nil
	}

	switch op.name {
	case "plus":
		if len(operands) == 0 {
			return core.Num(0), nil
		}
		return fold(token.PLUS, operands), nil
	case "times":
		if len(operands) == 0 {
			return core.Num(1), nil
		}
		return fold(token.STAR, operands), nil
	case "and":
		if len(operands) == 0 {
			return core.Num(1), nil
		}
		return fold(token.AND, operands), nil
	case "or":
		if len(operands) == 0 {
			return core.Num(0), nil
		}
		return fold(token.OR, operands), nil
	case "xor":
		if len(operands) == 0 {
			return core.Num(0), nil
		}
		acc := operands[0]
		for _, x := range operands[1:] {
			acc = core.Bin(token.AND, core.Bin(token.OR, acc, x), core.Not(core.Bin(token.AND, acc, x)))
		}
		return acc, nil
	case "minus":
		switch len(operands) {
		case 1:
			return core.Neg(operands[0]), nil
		case 2:
			return core.Bin(token.MINUS, operands[0], operands[1]), nil
		}
		return nil, op.errorf("<minus> takes 1 or 2 operands, found %d", len(operands))
	case "divide":
		if err := arity(2); err != nil {
			return nil, err
		}
		return core.Bin(token.SLASH, operands[0], operands[1]), nil
	case "power":
		if err := arity(2); err != nil {
			return nil, err
		}
		return core.Bin(token.POW, operands[0], operands[1]), nil
	case "quotient":
		if err := arity(2); err != nil {
			return nil, err
		}
		return core.Bin(token.QUOT, operands[0], operands[1]), nil
	case "rem":
		if err := arity(2); err != nil {
			return nil, err
		}
		return core.Bin(token.REM, operands[0], operands[1]), nil
	case "not":
		if err := arity(1); err != nil {
			return nil, err
		}
		return core.Not(operands[0]), nil
	case "root":
		if err := arity(1); err != nil {
			return nil, err
		}
		if degree == nil {
			return core.Fn("sqrt", operands[0]), nil
		}
		d, err := c.qualifier(degree)
		if err != nil {
			return nil, err
		}
		if n, ok := d.(*core.Number); ok && n.Float64() == 2 {
			return core.Fn("sqrt", operands[0]), nil
		}
		return core.Bin(token.POW, operands[0], core.Bin(token.SLASH, core.Num(1), d)), nil
	case "log":
		if err := arity(1); err != nil {
			return nil, err
		}
		if logbase == nil {
			return core.Fn("log10", operands[0]), nil
		}
		b, err := c.qualifier(logbase)
		if err != nil {
			return nil, err
		}
		if n, ok := b.(*core.Number); ok && n.Float64() == 10 {
			return core.Fn("log10", operands[0]), nil
		}
		return core.Fn("log", operands[0], b), nil
	}

	if rel, ok := relations[op.name]; ok {
		if len(operands) < 2 {
			return nil, op.errorf("<%s> needs at least 2 operands, found %d", op.name, len(operands))
		}
		// a < b < c means a < b and b < c.
		acc := core.Expr(core.Bin(rel, operands[0], operands[1]))
		for i := 2; i < len(operands); i++ {
			acc = core.Bin(token.AND, acc, core.Bin(rel, operands[i-1], operands[i]))
		}
		return acc, nil
	}
	if fn, ok := elementary[op.name]; ok {
		if err := arity(1); err != nil {
			return nil, err
		}
		return core.Fn(fn, operands[0]), nil
	}
	if op.name == "ci" {
		return nil, op.errorf("function definitions are not supported: %s", op.text())
	}
	return nil, op.errorf("unsupported MathML operator <%s>", op.name)
}

func (c *mathConverter) qualifier(q *element) (core.Expr, error) {
	if len(q.children) != 1 {
		return nil, q.errorf("<%s> must hold exactly one expression", q.name)
	}
	return c.convert(q.children[0])
}

// piecewise nests pieces into conditionals, first piece outermost.
func (c *mathConverter) piecewise(e *element) (core.Expr, error) {
	type piece struct {
		value, cond core.Expr
	}
	var pieces []piece
	var otherwise core.Expr
	for _, child := range e.children {
		switch child.name {
		case "piece":
			if len(child.children) != 2 {
				return nil, child.errorf("<piece> needs a value and a condition")
			}
			v, err := c.convert(child.children[0])
			if err != nil {
				return nil, err
			}
			cond, err := c.convert(child.children[1])
			if err != nil {
				return nil, err
			}
			pieces = append(pieces, piece{v, cond})
		case "otherwise":
			x, err := c.qualifier(child)
			if err != nil {
				return nil, err
			}
			otherwise = x
		default:
			return nil, child.errorf("unexpected <%s> in <piecewise>", child.name)
		}
	}
	if len(pieces) == 0 {
		if otherwise == nil {
			return nil, e.errorf("empty <piecewise>")
		}
		return otherwise, nil
	}
	if otherwise == nil {
		return nil, e.errorf("<piecewise> without <otherwise> is not supported")
	}
	acc := otherwise
	for i := len(pieces) - 1; i >= 0; i-- {
		acc = core.Cond(pieces[i].cond, pieces[i].value, acc)
	}
	return acc, nil
}

func fold(op token.TokenType, xs []core.Expr) core.Expr {
	acc := xs[0]
	for _, x := range xs[1:] {
		acc = core.Bin(op, acc, x)
	}
	return acc
}
