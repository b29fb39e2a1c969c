package hclmodel

import (
	"fmt"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"

	"github.com/cellkit/cellfmt/pkg/core"
	"github.com/cellkit/cellfmt/pkg/token"
)

var binaryOps = map[*hclsyntax.Operation]token.TokenType{
	hclsyntax.OpAdd:                token.PLUS,
	hclsyntax.OpSubtract:           token.MINUS,
	hclsyntax.OpMultiply:           token.STAR,
	hclsyntax.OpDivide:             token.SLASH,
	hclsyntax.OpModulo:             token.REM,
	hclsyntax.OpEqual:              token.EQ,
	hclsyntax.OpNotEqual:           token.NE,
	hclsyntax.OpLessThan:           token.LT,
	hclsyntax.OpGreaterThan:        token.GT,
	hclsyntax.OpLessThanOrEqual:    token.LE,
	hclsyntax.OpGreaterThanOrEqual: token.GE,
	hclsyntax.OpLogicalAnd:         token.AND,
	hclsyntax.OpLogicalOr:          token.OR,
}

// Calls that map onto operators rather than functions.
var operatorCalls = map[string]token.TokenType{
	"pow":  token.POW,
	"quot": token.QUOT,
}

// C spellings accepted so generated code reads back.
var aliases = map[string]string{
	"fabs": "abs",
}

// ParseExpression parses a single expression in HCL syntax.
func ParseExpression(src string) (core.Expr, error) {
	expr, diags := hclsyntax.ParseExpression([]byte(src), "expression", hcl.Pos{Line: 1, Column: 1})
	if diags.HasErrors() {
		return nil, diagError("expression", diags)
	}
	return convert(expr, "expression")
}

func diagError(path string, diags hcl.Diagnostics) error {
	for _, d := range diags {
		if d.Severity != hcl.DiagError {
			continue
		}
		e := &core.MalformedInputError{Format: Key, Path: path, Msg: d.Summary}
		if d.Detail != "" {
			e.Msg += ": " + d.Detail
		}
		if d.Subject != nil {
			e.Line = d.Subject.Start.Line
		}
		return e
	}
	return &core.MalformedInputError{Format: Key, Path: path, Msg: diags.Error()}
}

func exprError(path string, expr hclsyntax.Expression, format string, args ...any) error {
	return &core.MalformedInputError{
		Format: Key,
		Path:   path,
		Line:   expr.Range().Start.Line,
		Msg:    fmt.Sprintf(format, args...),
	}
}

// convert maps an HCL syntax tree onto an expression. path names the
// attribute being converted, for errors.
func convert(expr hclsyntax.Expression, path string) (core.Expr, error) {
	switch e := expr.(type) {
	case *hclsyntax.LiteralValueExpr:
		return literal(e.Val, e, path)

	case *hclsyntax.ScopeTraversalExpr:
		parts := []string{e.Traversal.RootName()}
		for _, step := range e.Traversal[1:] {
			attr, ok := step.(hcl.TraverseAttr)
			if !ok {
				return nil, exprError(path, e, "only dotted names are supported in references")
			}
			parts = append(parts, attr.Name)
		}
		return core.Ref(strings.Join(parts, ".")), nil

	case *hclsyntax.ParenthesesExpr:
		return convert(e.Expression, path)

	case *hclsyntax.UnaryOpExpr:
		x, err := convert(e.Val, path)
		if err != nil {
			return nil, err
		}
		switch e.Op {
		case hclsyntax.OpNegate:
			if n, ok := x.(*core.Number); ok && !n.IsNegative() {
				return core.Num(-n.Float64()), nil
			}
			return core.Neg(x), nil
		case hclsyntax.OpLogicalNot:
			return core.Not(x), nil
		}
		return nil, exprError(path, e, "unsupported unary operator")

	case *hclsyntax.BinaryOpExpr:
		op, ok := binaryOps[e.Op]
		if !ok {
			return nil, exprError(path, e, "unsupported binary operator")
		}
		l, err := convert(e.LHS, path)
		if err != nil {
			return nil, err
		}
		r, err := convert(e.RHS, path)
		if err != nil {
			return nil, err
		}
		return core.Bin(op, l, r), nil

	case *hclsyntax.ConditionalExpr:
		c, err := convert(e.Condition, path)
		if err != nil {
			return nil, err
		}
		t, err := convert(e.TrueResult, path)
		if err != nil {
			return nil, err
		}
		f, err := convert(e.FalseResult, path)
		if err != nil {
			return nil, err
		}
		return core.Cond(c, t, f), nil

	case *hclsyntax.FunctionCallExpr:
		if e.ExpandFinal {
			return nil, exprError(path, e, "argument expansion is not supported")
		}
		args := make([]core.Expr, len(e.Args))
		for i, a := range e.Args {
			x, err := convert(a, path)
			if err != nil {
				return nil, err
			}
			args[i] = x
		}
		if op, ok := operatorCalls[e.Name]; ok {
			if len(args) != 2 {
				return nil, exprError(path, e, "%s takes 2 arguments, got %d", e.Name, len(args))
			}
			return core.Bin(op, args[0], args[1]), nil
		}
		name := e.Name
		if alias, ok := aliases[name]; ok {
			name = alias
		}
		call := core.Fn(name, args...)
		if err := core.CheckCall(call); err != nil {
			return nil, exprError(path, e, "%v", err)
		}
		return call, nil
	}
	return nil, exprError(path, expr, "unsupported expression %T", expr)
}

func literal(v cty.Value, expr hclsyntax.Expression, path string) (core.Expr, error) {
	if v.IsNull() || !v.IsKnown() {
		return nil, exprError(path, expr, "null literal")
	}
	switch v.Type() {
	case cty.Number:
		// Literals pass through float64, the precision of every output format.
		f, _ := v.AsBigFloat().Float64()
		return core.Num(f), nil
	case cty.Bool:
		if v.True() {
			return core.Num(1), nil
		}
		return core.Num(0), nil
	}
	return nil, exprError(path, expr, "unsupported literal of type %s", v.Type().FriendlyName())
}
