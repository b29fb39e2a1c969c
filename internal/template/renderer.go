package template

import (
	"strings"

	starctx "github.com/cellkit/cellfmt/internal/starlark"
	"go.starlark.net/starlark"
)

// Render parses src and executes it against ctx.
func Render(src, name string, ctx *starctx.ExecutionContext) (string, error) {
	t, err := Parse(src, name)
	if err != nil {
		return "", err
	}
	return t.Execute(ctx)
}

// Execute renders t with ctx's globals. Inside a loop body the loop variable
// and loop_index are visible as locals.
func (t *Template) Execute(ctx *starctx.ExecutionContext) (string, error) {
	ev := &evaluator{ctx: ctx}
	if err := ev.nodes(t.Body, nil); err != nil {
		return "", err
	}
	return ev.out.String(), nil
}

type evaluator struct {
	ctx *starctx.ExecutionContext
	out strings.Builder
}

func (ev *evaluator) nodes(nodes []Node, locals starlark.StringDict) error {
	for _, n := range nodes {
		if err := ev.node(n, locals); err != nil {
			return err
		}
	}
	return nil
}

func (ev *evaluator) node(n Node, locals starlark.StringDict) error {
	switch n := n.(type) {
	case *Text:
		ev.out.WriteString(n.Value)
	case *Expr:
		s, err := ev.ctx.EvalExprStringWithLocals(n.Src, n.At.File, n.At.Line, locals)
		if err != nil {
			return renderError(n.At, err, "expression failed")
		}
		ev.out.WriteString(s)
	case *Loop:
		return ev.loop(n, locals)
	case *Cond:
		for _, arm := range n.Arms {
			v, err := ev.ctx.EvalExprWithLocals(arm.Test, arm.At.File, arm.At.Line, locals)
			if err != nil {
				return renderError(arm.At, err, "condition %q failed", arm.Test)
			}
			if v.Truth() {
				return ev.nodes(arm.Body, locals)
			}
		}
		return ev.nodes(n.Else, locals)
	default:
		return errorf(PhaseRender, n.Position(), "unexpected node %T", n)
	}
	return nil
}

func (ev *evaluator) loop(n *Loop, locals starlark.StringDict) error {
	seq, err := ev.ctx.EvalExprWithLocals(n.Iter, n.At.File, n.At.Line, locals)
	if err != nil {
		return renderError(n.At, err, "loop iterable failed")
	}
	iterable, ok := seq.(starlark.Iterable)
	if !ok {
		return errorf(PhaseRender, n.At, "cannot iterate over %s", seq.Type())
	}

	iter := iterable.Iterate()
	defer iter.Done()

	scope := make(starlark.StringDict, len(locals)+2)
	for k, v := range locals {
		scope[k] = v
	}

	var elem starlark.Value
	for i := 0; iter.Next(&elem); i++ {
		scope[n.Var] = elem
		scope["loop_index"] = starlark.MakeInt(i)
		if err := ev.nodes(n.Body, scope); err != nil {
			return err
		}
	}
	return nil
}

func renderError(pos Pos, cause error, format string, args ...any) *Error {
	e := errorf(PhaseRender, pos, format, args...)
	e.Err = cause
	return e
}
