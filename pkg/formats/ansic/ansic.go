// Package ansic exports models as C99 source and registers the C writer.
package ansic

import (
	"strings"

	"github.com/cellkit/cellfmt/pkg/core"
	"github.com/cellkit/cellfmt/pkg/dialect"
	ansidialect "github.com/cellkit/cellfmt/pkg/dialects/ansic"
	"github.com/cellkit/cellfmt/pkg/dialects/opencl"
	"github.com/cellkit/cellfmt/pkg/export"
	"github.com/cellkit/cellfmt/pkg/formats"
	"github.com/cellkit/cellfmt/pkg/writer"
)

// Key is the registry key of the exporter and the writer.
const Key = "ansic"

// Options configure the C exporter.
type Options struct {
	IncludeComments bool   `mapstructure:"include_comments"`
	FunctionPrefix  string `mapstructure:"function_prefix"`
	// StaticFunctions gives initial_state and rhs internal linkage, for
	// sources that are #included rather than compiled on their own.
	StaticFunctions bool `mapstructure:"static_functions"`
}

func defaultOptions() Options {
	return Options{IncludeComments: true}
}

// Exporter writes a C99 translation unit with the model constants, an
// initial_state function and a rhs function.
type Exporter struct{}

// Register adds the C exporter and the C and OpenCL writers to r.
func Register(r *formats.Registry) error {
	if err := r.RegisterExporter(Exporter{}); err != nil {
		return err
	}
	if err := r.RegisterWriter(ansidialect.ANSIC, "ANSI C expressions"); err != nil {
		return err
	}
	return r.RegisterWriter(opencl.OpenCL, "OpenCL C expressions")
}

// Descriptor implements formats.Exporter.
func (Exporter) Descriptor() core.Descriptor {
	return core.Descriptor{Key: Key, Label: "C99 source", Caps: core.CapExport | core.CapCode}
}

// Options implements formats.Exporter.
func (Exporter) Options() []string {
	opts := defaultOptions()
	names, _ := export.OptionNames(&opts)
	return names
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

	d := ansidialect.ANSIC
	names := FunctionNames(opts.FunctionPrefix)
	e := NewEmitter(writer.New(d), plan, opts.IncludeComments, names.Reserved()...)

	e.Header("cellfmt")
	e.P.Line("#include <math.h>")
	e.P.Blank()
	e.P.Line("#define %s %d", names.StateCount, len(plan.States))

	if err := e.Parameters(d.Qualifier(dialect.DeclConstant)); err != nil {
		return nil, err
	}

	fn := d.Qualifier(dialect.DeclFunction)
	if opts.StaticFunctions {
		fn = "static"
	}
	e.OpenFunction(fn, "void", names.Initial, e.Real()+" *state")
	if err := e.InitialAssignments("state"); err != nil {
		return nil, err
	}
	e.CloseFunction()

	e.OpenFunction(fn, "void", names.RHS, e.Real()+" time", "const "+e.Real()+" *state", e.Real()+" *deriv")
	e.TimeLocal("time")
	e.StateLocals("state")
	if err := e.Locals(plan.Intermediates); err != nil {
		return nil, err
	}
	if err := e.Derivatives("deriv"); err != nil {
		return nil, err
	}
	e.CloseFunction()

	return &export.Document{
		Exporter: Key,
		Filename: FileStem(m) + ".c",
		Content:  e.P.String(),
	}, nil
}

// Names are the identifiers of the generated scaffolding.
type Names struct {
	StateCount string
	Initial    string
	RHS        string
}

// FunctionNames applies prefix to the scaffolding identifiers.
func FunctionNames(prefix string) Names {
	return Names{
		StateCount: strings.ToUpper(prefix) + "N_STATES",
		Initial:    prefix + "initial_state",
		RHS:        prefix + "rhs",
	}
}

// Reserved lists the identifiers model names must avoid.
func (n Names) Reserved() []string {
	return []string{n.StateCount, n.Initial, n.RHS, "time", "state", "deriv"}
}

// FileStem returns the file name stem for m.
func FileStem(m *core.Model) string {
	if m.Name == "" {
		return "model"
	}
	return dialect.CIdentifier(m.Name)
}
