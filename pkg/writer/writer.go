// Package writer renders expression trees into a target syntax described by
// a dialect.
//
// Rendering is a post-order traversal: every sub-render yields its text and
// the precedence of its top-level construct, and the parent decides from the
// dialect's table whether that text needs grouping. Output is minimally
// parenthesised.
package writer

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cellkit/cellfmt/pkg/core"
	"github.com/cellkit/cellfmt/pkg/dialect"
)

// Writer renders expressions for one dialect within one naming session.
// A Writer is not safe for concurrent use; create one per document.
type Writer struct {
	dialect *dialect.Dialect
	session *Session
}

// New creates a writer with a fresh session.
func New(d *dialect.Dialect) *Writer {
	return &Writer{dialect: d, session: NewSession(d)}
}

// Render renders e with a throwaway session.
func Render(e core.Expr, d *dialect.Dialect) (string, error) {
	return New(d).Render(e)
}

// Dialect returns the writer's dialect.
func (w *Writer) Dialect() *dialect.Dialect { return w.dialect }

// Session returns the naming session shared by every Render call.
func (w *Writer) Session() *Session { return w.session }

// Render renders e.
func (w *Writer) Render(e core.Expr) (string, error) {
	r, err := w.render(e)
	if err != nil {
		return "", err
	}
	return r.text, nil
}

// Name returns the emitted form of a model name.
func (w *Writer) Name(ref string) string {
	return w.dialect.DecorateIdentifier(w.session.Identifier(ref))
}

// Number returns the emitted form of a literal.
func (w *Writer) Number(n *core.Number) string {
	return w.dialect.FormatNumber(n.Value)
}

type rendered struct {
	text string
	prec int
	// unary marks text that starts with a prefix operator.
	unary bool
}

func (w *Writer) unsupported(construct string) error {
	return &core.UnsupportedConstructError{Construct: construct, Dialect: w.dialect.Name}
}

func (w *Writer) render(e core.Expr) (rendered, error) {
	switch x := e.(type) {
	case *core.Number:
		return w.renderNumber(x), nil
	case *core.Name:
		return rendered{text: w.Name(x.Ref), prec: dialect.PrecedenceAtom}, nil
	case *core.Unary:
		return w.renderUnary(x)
	case *core.Binary:
		return w.renderBinary(x)
	case *core.Call:
		return w.renderCall(x)
	case *core.If:
		return w.renderIf(x)
	case nil:
		return rendered{}, fmt.Errorf("cannot render nil expression")
	default:
		return rendered{}, w.unsupported(fmt.Sprintf("expression kind %s", e.Kind()))
	}
}

func (w *Writer) renderNumber(n *core.Number) rendered {
	text := w.Number(n)
	if n.IsNegative() {
		return rendered{text: text, prec: dialect.PrecedenceUnary, unary: true}
	}
	return rendered{text: text, prec: dialect.PrecedenceAtom}
}

func (w *Writer) renderUnary(u *core.Unary) (rendered, error) {
	def, ok := w.dialect.Operator(u.Op)
	if !ok || !u.Op.IsUnary() {
		return rendered{}, w.unsupported("operator " + u.Op.String())
	}
	operand, err := w.render(u.X)
	if err != nil {
		return rendered{}, err
	}
	if def.Template != "" {
		return rendered{text: w.fill(def.Template, def.Operands, operand), prec: def.Precedence}, nil
	}
	text := operand.text
	if operand.prec < def.Precedence || operand.unary {
		text = w.group(text)
	}
	return rendered{text: def.Symbol + text, prec: def.Precedence, unary: true}, nil
}

func (w *Writer) renderBinary(b *core.Binary) (rendered, error) {
	def, ok := w.dialect.Operator(b.Op)
	if !ok || !b.Op.IsBinary() {
		return rendered{}, w.unsupported("operator " + b.Op.String())
	}
	left, err := w.render(b.Left)
	if err != nil {
		return rendered{}, err
	}
	right, err := w.render(b.Right)
	if err != nil {
		return rendered{}, err
	}
	if def.Template != "" {
		return rendered{text: w.fill(def.Template, def.Operands, left, right), prec: def.Precedence}, nil
	}

	p := def.Precedence
	lt, rt := left.text, right.text
	if left.prec < p || (left.prec == p && def.Assoc != dialect.AssocLeft) {
		lt = w.group(lt)
	}
	if right.prec < p || (right.prec == p && def.Assoc != dialect.AssocRight) || right.unary {
		rt = w.group(rt)
	}
	return rendered{
		text:  lt + " " + def.Symbol + " " + rt,
		prec:  p,
		unary: left.unary && lt == left.text,
	}, nil
}

func (w *Writer) renderCall(c *core.Call) (rendered, error) {
	fn := "function " + c.Func
	if err := core.CheckCall(c); err != nil {
		return rendered{}, w.unsupported(fn)
	}
	def, ok := w.dialect.Function(c.Func, len(c.Args))
	if !ok {
		return rendered{}, w.unsupported(fn)
	}
	args := make([]rendered, len(c.Args))
	for i, a := range c.Args {
		r, err := w.render(a)
		if err != nil {
			return rendered{}, err
		}
		args[i] = r
	}
	if def.Template != "" {
		return rendered{text: w.fill(def.Template, def.Operands, args...), prec: dialect.PrecedenceAtom}, nil
	}
	texts := make([]string, len(args))
	for i, a := range args {
		texts[i] = a.text
	}
	open, closing := w.dialect.Parens()
	return rendered{
		text: def.Spelling + open + strings.Join(texts, w.dialect.ArgSeparator()) + closing,
		prec: dialect.PrecedenceAtom,
	}, nil
}

func (w *Writer) renderIf(i *core.If) (rendered, error) {
	def, ok := w.dialect.Conditional()
	if !ok {
		return rendered{}, w.unsupported("conditional")
	}
	parts := make([]rendered, 0, 3)
	for _, e := range []core.Expr{i.Cond, i.Then, i.Else} {
		r, err := w.render(e)
		if err != nil {
			return rendered{}, err
		}
		parts = append(parts, r)
	}
	return rendered{text: w.fill(def.Template, def.Operands, parts...), prec: def.Precedence}, nil
}

// fill substitutes {i} placeholders, grouping operands whose precedence is
// below the minimum declared for their slot.
func (w *Writer) fill(tmpl string, mins []int, operands ...rendered) string {
	pairs := make([]string, 0, 2*len(operands))
	for i, op := range operands {
		text := op.text
		if i < len(mins) && op.prec < mins[i] {
			text = w.group(text)
		}
		pairs = append(pairs, "{"+strconv.Itoa(i)+"}", text)
	}
	return strings.NewReplacer(pairs...).Replace(tmpl)
}

func (w *Writer) group(text string) string {
	open, closing := w.dialect.Parens()
	return open + text + closing
}
