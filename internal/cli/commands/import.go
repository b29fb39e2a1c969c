package commands

import (
	"fmt"
	"sort"
	"strings"

	"github.com/cellkit/cellfmt/internal/cli/output"
	"github.com/cellkit/cellfmt/pkg/core"
	"github.com/spf13/cobra"
)

type bindingOutput struct {
	Name    string `json:"name" yaml:"name"`
	Role    string `json:"role" yaml:"role"`
	Expr    string `json:"expr,omitempty" yaml:"expr,omitempty"`
	Initial string `json:"initial,omitempty" yaml:"initial,omitempty"`
	Unit    string `json:"unit,omitempty" yaml:"unit,omitempty"`
	Doc     string `json:"doc,omitempty" yaml:"doc,omitempty"`
}

type channelOutput struct {
	Name    string `json:"name" yaml:"name"`
	Unit    string `json:"unit" yaml:"unit"`
	Records int    `json:"records" yaml:"records"`
	Samples int    `json:"samples" yaml:"samples"`
}

type modelOutput struct {
	Name     string            `json:"name" yaml:"name"`
	Meta     map[string]string `json:"meta,omitempty" yaml:"meta,omitempty"`
	Bindings []bindingOutput   `json:"bindings" yaml:"bindings"`
	Interval float64           `json:"interval,omitempty" yaml:"interval,omitempty"`
	Channels []channelOutput   `json:"channels,omitempty" yaml:"channels,omitempty"`
}

// NewImportCommand creates the import command.
func NewImportCommand() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import a model or recording and describe it",
		Long: `Read an SBML model, a WinWCP recording or an HCL model description and
print the bindings it defines. Recordings also list their channels.

The importer is chosen from the file extension unless --format is given.`,
		Example: `  # Inspect an SBML model
  cellfmt import beeler_reuter.sbml

  # Force the WCP importer and emit JSON
  cellfmt import cell01.001 --format wcp -o json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd, args[0], format)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "", "Importer key (default: from file extension)")
	_ = cmd.RegisterFlagCompletionFunc("format", completeKeys(func(c *CommandContext) []string {
		return c.Engine.Registry().Importers()
	}))
	return cmd
}

func runImport(cmd *cobra.Command, path, format string) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd, withoutHistory())
	if err != nil {
		return err
	}
	defer cleanup()

	m, err := cmdCtx.Engine.Load(path, format)
	if err != nil {
		return err
	}

	out := describeModel(m)
	r := cmdCtx.Renderer
	return r.Emit(out, func() { printModel(r, out) })
}

func describeModel(m *core.Model) modelOutput {
	out := modelOutput{
		Name:     m.Name,
		Meta:     m.Meta,
		Bindings: make([]bindingOutput, 0, m.Len()),
	}
	for _, b := range m.Bindings() {
		bo := bindingOutput{
			Name: b.Name,
			Role: b.Role.String(),
			Unit: b.Unit,
			Doc:  b.Doc,
		}
		if b.Expr != nil {
			bo.Expr = core.Format(b.Expr)
		}
		if b.Initial != nil {
			bo.Initial = core.Format(b.Initial)
		}
		out.Bindings = append(out.Bindings, bo)
	}
	if m.Data != nil {
		out.Interval = m.Data.Interval
		for _, c := range m.Data.Channels {
			out.Channels = append(out.Channels, channelOutput{
				Name:    c.Name,
				Unit:    c.Unit,
				Records: len(c.Records),
				Samples: c.Samples(),
			})
		}
	}
	return out
}

func printModel(r *output.Renderer, m modelOutput) {
	r.Header(fmt.Sprintf("Model %s", m.Name))
	if len(m.Meta) > 0 {
		keys := make([]string, 0, len(m.Meta))
		for k := range m.Meta {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			r.Printf("  %s %s\n", r.Muted(k+":"), m.Meta[k])
		}
	}
	r.Println()

	if len(m.Bindings) > 0 {
		rows := make([][]string, 0, len(m.Bindings))
		for _, b := range m.Bindings {
			rows = append(rows, []string{b.Name, b.Role, b.Expr, b.Initial, b.Unit})
		}
		r.Table([]string{"Name", "Role", "Expression", "Initial", "Unit"}, rows)
	}

	if len(m.Channels) > 0 {
		r.Println()
		r.Header(fmt.Sprintf("Recording (dt = %g s)", m.Interval))
		rows := make([][]string, 0, len(m.Channels))
		for _, c := range m.Channels {
			rows = append(rows, []string{c.Name, c.Unit, fmt.Sprint(c.Records), fmt.Sprint(c.Samples)})
		}
		r.Table([]string{"Channel", "Unit", "Records", "Samples"}, rows)
	}

	var counts []string
	for _, role := range []core.Role{core.RoleInput, core.RoleConstant, core.RoleState, core.RoleVariable} {
		n := 0
		for _, b := range m.Bindings {
			if b.Role == role.String() {
				n++
			}
		}
		if n > 0 {
			counts = append(counts, fmt.Sprintf("%d %s", n, role))
		}
	}
	if len(counts) > 0 {
		r.Println(r.Muted(strings.Join(counts, ", ")))
	}
}
