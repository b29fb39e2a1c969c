// Package python exports models as a Python module that Starlark can also
// execute, and registers the Python writer.
package python

import (
	"strings"

	"github.com/cellkit/cellfmt/pkg/core"
	"github.com/cellkit/cellfmt/pkg/dialect"
	pydialect "github.com/cellkit/cellfmt/pkg/dialects/python"
	"github.com/cellkit/cellfmt/pkg/export"
	"github.com/cellkit/cellfmt/pkg/formats"
	"github.com/cellkit/cellfmt/pkg/writer"
)

// Key is the registry key of the exporter and the writer.
const Key = "python"

// Options configure the Python exporter.
type Options struct {
	IncludeComments bool `mapstructure:"include_comments"`
	IncludeImports  bool `mapstructure:"include_imports"`
}

func defaultOptions() Options {
	return Options{IncludeComments: true, IncludeImports: true}
}

// Exporter writes initial_state() and rhs(time, state) functions returning
// lists in state order.
type Exporter struct{}

// Register adds the Python exporter and writer to r.
func Register(r *formats.Registry) error {
	if err := r.RegisterExporter(Exporter{}); err != nil {
		return err
	}
	return r.RegisterWriter(pydialect.Python, "Python expressions")
}

// Descriptor implements formats.Exporter.
func (Exporter) Descriptor() core.Descriptor {
	return core.Descriptor{Key: Key, Label: "Python module", Caps: core.CapExport | core.CapCode}
}

// Options implements formats.Exporter.
func (Exporter) Options() []string {
	opts := defaultOptions()
	names, _ := export.OptionNames(&opts)
	return names
}

type module struct {
	p    *export.Printer
	w    *writer.Writer
	plan *export.CodePlan
}

// Export implements formats.Exporter.
func (Exporter) Export(m *core.Model, raw export.Options) (*export.Document, error) {
	opts := defaultOptions()
	if err := export.Decode(Key, raw, &opts); err != nil {
		return nil, err
	}
	plan, err := export.PlanCode(m)
	if err != nil {
		return nil, err
	}

	w := writer.New(pydialect.Python)
	w.Session().Reserve("N_STATES", "initial_state", "rhs")
	w.Session().Declare(m.Names()...)
	mod := &module{p: export.NewPrinter("#", 4, opts.IncludeComments), w: w, plan: plan}
	p := mod.p

	p.Comment("Model " + m.Name + ", generated by cellfmt.")
	if doc := m.Meta["doc"]; doc != "" {
		p.Comment(doc)
	}
	if opts.IncludeImports {
		p.Blank()
		p.Line("import math")
	}

	if len(plan.Parameters) > 0 {
		p.Blank()
		if err := mod.assign(plan.Parameters); err != nil {
			return nil, err
		}
	}
	p.Blank()
	p.Line("N_STATES = %d", len(plan.States))

	mod.openDef("initial_state()")
	if err := mod.assign(plan.InitialIntermediates); err != nil {
		return nil, err
	}
	if err := mod.returnList(func(s *core.Binding) core.Expr { return s.Initial }, func(s *core.Binding) string { return s.Name }); err != nil {
		return nil, err
	}
	p.Dedent()

	mod.openDef("rhs(time, state)")
	if t := plan.Time; t != nil {
		p.Line("%s = time", w.Name(t.Name))
	}
	for i, s := range plan.States {
		p.Line("%s = state[%d]", w.Name(s.Name), i)
	}
	if err := mod.assign(plan.Intermediates); err != nil {
		return nil, err
	}
	if err := mod.returnList(func(s *core.Binding) core.Expr { return s.Expr }, func(s *core.Binding) string { return "d" + s.Name + "/dt" }); err != nil {
		return nil, err
	}
	p.Dedent()

	return &export.Document{
		Exporter: Key,
		Filename: stem(m) + ".py",
		Content:  p.String(),
	}, nil
}

func (mod *module) openDef(signature string) {
	mod.p.Blank()
	mod.p.Writeln()
	mod.p.Line("def %s:", signature)
	mod.p.Indent()
}

func (mod *module) assign(bindings []*core.Binding) error {
	for _, b := range bindings {
		value, err := mod.w.Render(b.Expr)
		if err != nil {
			return export.Annotate(err, b.Name)
		}
		mod.p.Line("%s = %s%s", mod.w.Name(b.Name), value, mod.trailer(b))
	}
	return nil
}

func (mod *module) returnList(expr func(*core.Binding) core.Expr, label func(*core.Binding) string) error {
	if len(mod.plan.States) == 0 {
		mod.p.Line("return []")
		return nil
	}
	mod.p.Line("return [")
	mod.p.Indent()
	for _, s := range mod.plan.States {
		value, err := mod.w.Render(expr(s))
		if err != nil {
			return export.Annotate(err, s.Name)
		}
		mod.p.Line("%s,%s", value, mod.comment(label(s)))
	}
	mod.p.Dedent()
	mod.p.Line("]")
	return nil
}

func (mod *module) comment(text string) string {
	text = export.InlineComment(text)
	if !mod.p.Comments() || text == "" {
		return ""
	}
	return "  # " + text
}

func (mod *module) trailer(b *core.Binding) string {
	var parts []string
	if b.Unit != "" {
		parts = append(parts, "["+b.Unit+"]")
	}
	if b.Doc != "" {
		parts = append(parts, b.Doc)
	}
	if mod.w.Name(b.Name) != b.Name {
		parts = append(parts, "("+b.Name+")")
	}
	return mod.comment(strings.Join(parts, " "))
}

func stem(m *core.Model) string {
	if m.Name == "" {
		return "model"
	}
	return strings.ToLower(dialect.CIdentifier(m.Name))
}
