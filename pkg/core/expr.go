package core

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/cellkit/cellfmt/pkg/token"
)

// Kind tags the variant of an expression node.
type Kind int

// Kind constants, one per node type.
const (
	KindNumber Kind = iota
	KindName
	KindUnary
	KindBinary
	KindCall
	KindIf
)

var kindNames = [...]string{"number", "name", "unary", "binary", "call", "if"}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "Kind(" + strconv.Itoa(int(k)) + ")"
}

// Expr is a node of an expression tree. The set of implementations is closed
// to this package.
type Expr interface {
	Kind() Kind
	Children() []Expr
	exprNode()
}

// NumberPrecision is the mantissa precision of literal values.
const NumberPrecision = 64

// Number is a numeric literal.
type Number struct {
	Value *big.Float
}

// Name is a reference to a model binding.
type Name struct {
	Ref string
}

// Unary applies a prefix operator.
type Unary struct {
	Op token.TokenType
	X  Expr
}

// Binary applies an infix operator.
type Binary struct {
	Op    token.TokenType
	Left  Expr
	Right Expr
}

// Call applies a function from the canonical vocabulary.
type Call struct {
	Func string
	Args []Expr
}

// If selects Then when Cond holds, Else otherwise.
type If struct {
	Cond Expr
	Then Expr
	Else Expr
}

func (*Number) exprNode() {}
func (*Name) exprNode()   {}
func (*Unary) exprNode()  {}
func (*Binary) exprNode() {}
func (*Call) exprNode()   {}
func (*If) exprNode()     {}

// Kind implements Expr.
func (*Number) Kind() Kind { return KindNumber }

// Kind implements Expr.
func (*Name) Kind() Kind { return KindName }

// Kind implements Expr.
func (*Unary) Kind() Kind { return KindUnary }

// Kind implements Expr.
func (*Binary) Kind() Kind { return KindBinary }

// Kind implements Expr.
func (*Call) Kind() Kind { return KindCall }

// Kind implements Expr.
func (*If) Kind() Kind { return KindIf }

// Children implements Expr.
func (*Number) Children() []Expr { return nil }

// Children implements Expr.
func (*Name) Children() []Expr { return nil }

// Children implements Expr.
func (u *Unary) Children() []Expr { return []Expr{u.X} }

// Children implements Expr.
func (b *Binary) Children() []Expr { return []Expr{b.Left, b.Right} }

// Children implements Expr.
func (c *Call) Children() []Expr { return c.Args }

// Children implements Expr.
func (i *If) Children() []Expr { return []Expr{i.Cond, i.Then, i.Else} }

// ---------- Constructors ----------

// Num returns a literal holding v.
func Num(v float64) *Number {
	return &Number{Value: new(big.Float).SetPrec(NumberPrecision).SetFloat64(v)}
}

// ParseNumber parses a decimal or scientific literal.
func ParseNumber(s string) (*Number, error) {
	f, _, err := big.ParseFloat(strings.TrimSpace(s), 10, NumberPrecision, big.ToNearestEven)
	if err != nil {
		return nil, fmt.Errorf("invalid number %q: %w", s, err)
	}
	return &Number{Value: f}, nil
}

// Float64 returns the nearest float64 to the literal.
func (n *Number) Float64() float64 {
	f, _ := n.Value.Float64()
	return f
}

// IsNegative reports whether the literal is below zero.
func (n *Number) IsNegative() bool {
	return n.Value.Sign() < 0
}

// IsInteger reports whether the literal has no fractional part.
func (n *Number) IsInteger() bool {
	return n.Value.IsInt()
}

// Ref returns a reference to name.
func Ref(name string) *Name { return &Name{Ref: name} }

// Neg returns -x.
func Neg(x Expr) *Unary { return &Unary{Op: token.NEG, X: x} }

// Not returns the logical negation of x.
func Not(x Expr) *Unary { return &Unary{Op: token.NOT, X: x} }

// Bin returns l op r.
func Bin(op token.TokenType, l, r Expr) *Binary {
	return &Binary{Op: op, Left: l, Right: r}
}

// Fn returns a call of name with args.
func Fn(name string, args ...Expr) *Call {
	return &Call{Func: name, Args: args}
}

// Cond returns a conditional expression.
func Cond(c, then, els Expr) *If {
	return &If{Cond: c, Then: then, Else: els}
}

// ---------- Traversal ----------

// Walk visits e and its descendants in pre-order. Returning false from fn
// skips the children of the current node.
func Walk(e Expr, fn func(Expr) bool) {
	if e == nil || !fn(e) {
		return
	}
	for _, c := range e.Children() {
		Walk(c, fn)
	}
}

// References returns the names referenced by e in first-appearance order.
func References(e Expr) []string {
	var refs []string
	seen := make(map[string]bool)
	Walk(e, func(n Expr) bool {
		if name, ok := n.(*Name); ok && !seen[name.Ref] {
			seen[name.Ref] = true
			refs = append(refs, name.Ref)
		}
		return true
	})
	return refs
}

// Equal reports whether a and b are structurally identical.
func Equal(a, b Expr) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if a.Kind() != b.Kind() {
		return false
	}
	switch x := a.(type) {
	case *Number:
		return x.Value.Cmp(b.(*Number).Value) == 0
	case *Name:
		return x.Ref == b.(*Name).Ref
	case *Unary:
		if x.Op != b.(*Unary).Op {
			return false
		}
	case *Binary:
		if x.Op != b.(*Binary).Op {
			return false
		}
	case *Call:
		if x.Func != b.(*Call).Func {
			return false
		}
	}
	ac, bc := a.Children(), b.Children()
	if len(ac) != len(bc) {
		return false
	}
	for i := range ac {
		if !Equal(ac[i], bc[i]) {
			return false
		}
	}
	return true
}

// Format renders e as a fully parenthesised prefix form, for diagnostics.
func Format(e Expr) string {
	var sb strings.Builder
	format(&sb, e)
	return sb.String()
}

func format(sb *strings.Builder, e Expr) {
	switch x := e.(type) {
	case nil:
		sb.WriteString("<nil>")
	case *Number:
		sb.WriteString(x.Value.Text('g', -1))
	case *Name:
		sb.WriteString(x.Ref)
	case *Unary:
		sb.WriteString("(" + x.Op.String() + " ")
		format(sb, x.X)
		sb.WriteString(")")
	case *Binary:
		sb.WriteString("(" + x.Op.String() + " ")
		format(sb, x.Left)
		sb.WriteString(" ")
		format(sb, x.Right)
		sb.WriteString(")")
	case *Call:
		sb.WriteString("(" + x.Func)
		for _, a := range x.Args {
			sb.WriteString(" ")
			format(sb, a)
		}
		sb.WriteString(")")
	case *If:
		sb.WriteString("(if ")
		format(sb, x.Cond)
		sb.WriteString(" ")
		format(sb, x.Then)
		sb.WriteString(" ")
		format(sb, x.Else)
		sb.WriteString(")")
	}
}
