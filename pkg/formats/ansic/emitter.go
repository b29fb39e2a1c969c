package ansic

import (
	"fmt"
	"strings"

	"github.com/cellkit/cellfmt/pkg/core"
	"github.com/cellkit/cellfmt/pkg/export"
	"github.com/cellkit/cellfmt/pkg/writer"
)

// Emitter writes the statements C-family exporters have in common. The
// CUDA exporter reuses it with its own dialect.
type Emitter struct {
	P    *export.Printer
	W    *writer.Writer
	Plan *export.CodePlan
}

// NewEmitter prepares a printer and a writer session for plan. reserved
// lists the identifiers the generated scaffolding uses.
func NewEmitter(w *writer.Writer, plan *export.CodePlan, comments bool, reserved ...string) *Emitter {
	w.Session().Reserve(reserved...)
	w.Session().Declare(plan.Model.Names()...)
	return &Emitter{
		P:    export.NewPrinter(w.Dialect().CommentPrefix(), 4, comments),
		W:    w,
		Plan: plan,
	}
}

// Real returns the floating point type of the dialect.
func (e *Emitter) Real() string { return e.W.Dialect().RealType() }

// Expr renders the expression of b, annotating errors with its name.
func (e *Emitter) Expr(b *core.Binding, x core.Expr) (string, error) {
	s, err := e.W.Render(x)
	if err != nil {
		return "", export.Annotate(err, b.Name)
	}
	return s, nil
}

// Header writes the leading comment block.
func (e *Emitter) Header(generator string) {
	m := e.Plan.Model
	e.P.Comment(fmt.Sprintf("Model %s, generated by %s.", m.Name, generator))
	if doc := m.Meta["doc"]; doc != "" {
		e.P.Comment(doc)
	}
	if e.P.Comments() {
		e.P.Blank()
	}
}

// Parameters writes one qualified constant definition per literal constant.
func (e *Emitter) Parameters(qualifier string) error {
	if len(e.Plan.Parameters) == 0 {
		return nil
	}
	e.P.Blank()
	for _, b := range e.Plan.Parameters {
		value, err := e.Expr(b, b.Expr)
		if err != nil {
			return err
		}
		e.P.Line("%s %s = %s;%s", declPrefix(qualifier, e.Real()), e.W.Name(b.Name), value, e.trailer(b))
	}
	return nil
}

// Locals writes a const local per binding.
func (e *Emitter) Locals(bindings []*core.Binding) error {
	for _, b := range bindings {
		value, err := e.Expr(b, b.Expr)
		if err != nil {
			return err
		}
		e.P.Line("const %s %s = %s;%s", e.Real(), e.W.Name(b.Name), value, e.trailer(b))
	}
	return nil
}

// StateLocals reads the state vector into named locals.
func (e *Emitter) StateLocals(vector string) {
	for i, s := range e.Plan.States {
		e.P.Line("const %s %s = %s[%d];", e.Real(), e.W.Name(s.Name), vector, i)
	}
}

// TimeLocal binds the model's time input to the time argument.
func (e *Emitter) TimeLocal(arg string) {
	if t := e.Plan.Time; t != nil && e.W.Name(t.Name) != arg {
		e.P.Line("const %s %s = %s;", e.Real(), e.W.Name(t.Name), arg)
	}
}

// InitialAssignments writes vector[i] = initial value for every state.
func (e *Emitter) InitialAssignments(vector string) error {
	if err := e.Locals(e.Plan.InitialIntermediates); err != nil {
		return err
	}
	for i, s := range e.Plan.States {
		value, err := e.Expr(s, s.Initial)
		if err != nil {
			return err
		}
		e.P.Line("%s[%d] = %s;%s", vector, i, value, e.comment(s.Name))
	}
	return nil
}

// Derivatives writes vector[i] = derivative for every state.
func (e *Emitter) Derivatives(vector string) error {
	for i, s := range e.Plan.States {
		value, err := e.Expr(s, s.Expr)
		if err != nil {
			return err
		}
		e.P.Line("%s[%d] = %s;%s", vector, i, value, e.comment("d"+s.Name+"/dt"))
	}
	return nil
}

// OpenFunction writes a function header and opening brace.
func (e *Emitter) OpenFunction(qualifier, result, name string, params ...string) {
	e.P.Blank()
	e.P.Line("%s%s(%s)", declPrefix(qualifier, result)+" ", name, strings.Join(params, ", "))
	e.P.Line("{")
	e.P.Indent()
}

// CloseFunction writes the closing brace.
func (e *Emitter) CloseFunction() {
	e.P.Dedent()
	e.P.Line("}")
}

func (e *Emitter) comment(text string) string {
	if !e.P.Comments() {
		return ""
	}
	return " " + e.W.Dialect().CommentPrefix() + " " + export.InlineComment(text)
}

func (e *Emitter) trailer(b *core.Binding) string {
	var parts []string
	if b.Unit != "" {
		parts = append(parts, "["+b.Unit+"]")
	}
	if b.Doc != "" {
		parts = append(parts, b.Doc)
	}
	if e.W.Name(b.Name) != b.Name {
		parts = append(parts, "("+b.Name+")")
	}
	if len(parts) == 0 {
		return ""
	}
	return e.comment(strings.Join(parts, " "))
}

func declPrefix(qualifier, typ string) string {
	if qualifier == "" {
		return typ
	}
	return qualifier + " " + typ
}
