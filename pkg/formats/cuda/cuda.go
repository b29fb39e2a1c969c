// Package cuda exports models as CUDA source with a forward-Euler step
// kernel and registers the CUDA writer.
package cuda

import (
	"github.com/cellkit/cellfmt/pkg/core"
	"github.com/cellkit/cellfmt/pkg/dialect"
	cudadialect "github.com/cellkit/cellfmt/pkg/dialects/cuda"
	"github.com/cellkit/cellfmt/pkg/export"
	"github.com/cellkit/cellfmt/pkg/formats"
	"github.com/cellkit/cellfmt/pkg/formats/ansic"
	"github.com/cellkit/cellfmt/pkg/writer"
)

// Registry keys.
const (
	Key       = "cuda-kernel"
	WriterKey = "cuda"
)

// Options configure the CUDA exporter.
type Options struct {
	KernelName      string `mapstructure:"kernel_name"`
	IncludeComments bool   `mapstructure:"include_comments"`
}

func defaultOptions() Options {
	return Options{KernelName: "cell_step", IncludeComments: true}
}

// Exporter writes one .cu file: __constant__ parameters, __device__
// initial_state and rhs functions, and __global__ init and step kernels
// over n_cells independent cells.
type Exporter struct{}

// Register adds the CUDA exporter and writer to r.
func Register(r *formats.Registry) error {
	if err := r.RegisterExporter(Exporter{}); err != nil {
		return err
	}
	return r.RegisterWriter(cudadialect.CUDA, "CUDA single-precision expressions")
}

// Descriptor implements formats.Exporter.
func (Exporter) Descriptor() core.Descriptor {
	return core.Descriptor{Key: Key, Label: "CUDA kernel", Caps: core.CapExport | core.CapCode}
}

// Options implements formats.Exporter.
func (Exporter) Options() []string {
	opts := defaultOptions()
	names, _ := export.OptionNames(&opts)
	return names
}

// Export implements formats.Exporter.
func (x Exporter) Export(m *core.Model, raw export.Options) (*export.Document, error) {
	opts := defaultOptions()
	if err := export.Decode(Key, raw, &opts); err != nil {
		return nil, err
	}
	d := cudadialect.CUDA
	if opts.KernelName == "" || dialect.CIdentifier(opts.KernelName) != opts.KernelName || d.IsReservedWord(opts.KernelName) {
		return nil, &core.InvalidOptionError{
			Option:   "kernel_name",
			Exporter: Key,
			Valid:    x.Options(),
			Msg:      "must be a C identifier that is not a keyword",
		}
	}

	plan, err := export.PlanCode(m)
	if err != nil {
		return nil, err
	}

	names := ansic.FunctionNames("")
	initKernel := opts.KernelName + "_init"
	reserved := append(names.Reserved(), opts.KernelName, initKernel, "states", "n_cells", "dt", "cell", "i")
	e := ansic.NewEmitter(writer.New(d), plan, opts.IncludeComments, reserved...)
	fp := e.Real()

	e.Header("cellfmt")
	e.P.Line("#define %s %d", names.StateCount, len(plan.States))

	if err := e.Parameters(d.Qualifier(dialect.DeclConstant)); err != nil {
		return nil, err
	}

	device := d.Qualifier(dialect.DeclFunction)
	e.OpenFunction(device, "void", names.Initial, fp+" *state")
	if err := e.InitialAssignments("state"); err != nil {
		return nil, err
	}
	e.CloseFunction()

	e.OpenFunction(device, "void", names.RHS, fp+" time", "const "+fp+" *state", fp+" *deriv")
	e.TimeLocal("time")
	e.StateLocals("state")
	if err := e.Locals(plan.Intermediates); err != nil {
		return nil, err
	}
	if err := e.Derivatives("deriv"); err != nil {
		return nil, err
	}
	e.CloseFunction()

	global := d.Qualifier(dialect.DeclKernel)
	e.OpenFunction(global, "void", initKernel, fp+" *states", "int n_cells")
	writeCellGuard(e)
	e.P.Line("%s(states + cell * %s);", names.Initial, names.StateCount)
	e.CloseFunction()

	e.OpenFunction(global, "void", opts.KernelName, fp+" *states", "int n_cells", fp+" time", fp+" dt")
	writeCellGuard(e)
	e.P.Line("%s *state = states + cell * %s;", fp, names.StateCount)
	e.P.Line("%s deriv[%s];", fp, names.StateCount)
	e.P.Line("%s(time, state, deriv);", names.RHS)
	e.P.Line("for (int i = 0; i < %s; i++) {", names.StateCount)
	e.P.Indent()
	e.P.Line("state[i] += dt * deriv[i];")
	e.P.Dedent()
	e.P.Line("}")
	e.CloseFunction()

	return &export.Document{
		Exporter: Key,
		Filename: ansic.FileStem(m) + ".cu",
		Content:  e.P.String(),
	}, nil
}

func writeCellGuard(e *ansic.Emitter) {
	e.P.Line("const int cell = blockIdx.x * blockDim.x + threadIdx.x;")
	e.P.Line("if (cell >= n_cells) {")
	e.P.Indent()
	e.P.Line("return;")
	e.P.Dedent()
	e.P.Line("}")
}
