package commands

import (
	"fmt"
	"strings"

	"github.com/cellkit/cellfmt/pkg/core"
	"github.com/cellkit/cellfmt/pkg/formats"
	"github.com/spf13/cobra"
)

// formatOutput is one registry entry in structured output.
type formatOutput struct {
	Key          string   `json:"key" yaml:"key"`
	Label        string   `json:"label" yaml:"label"`
	Capabilities []string `json:"capabilities" yaml:"capabilities"`
	Extensions   []string `json:"extensions,omitempty" yaml:"extensions,omitempty"`
	Options      []string `json:"options,omitempty" yaml:"options,omitempty"`
}

var roleCaps = map[string]core.Capability{
	formats.RoleExporter: core.CapExport,
	formats.RoleImporter: core.CapImport,
	formats.RoleWriter:   core.CapWrite,
}

// NewFormatsCommand creates the formats command.
func NewFormatsCommand() *cobra.Command {
	var role string
	cmd := &cobra.Command{
		Use:   "formats",
		Short: "List registered exporters, importers and writers",
		Long: `List every registered format key with its capabilities.

A key registered in several roles (ansic is both an exporter and a
writer) is listed once with the union of its capabilities.`,
		Example: `  # List everything
  cellfmt formats

  # Only exporters, as YAML
  cellfmt formats --role exporter -o yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runFormats(cmd, role)
		},
	}

	cmd.Flags().StringVar(&role, "role", "", "Filter by role: exporter, importer, writer")
	_ = cmd.RegisterFlagCompletionFunc("role", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{formats.RoleExporter, formats.RoleImporter, formats.RoleWriter}, cobra.ShellCompDirectiveNoFileComp
	})
	return cmd
}

func runFormats(cmd *cobra.Command, role string) error {
	var want core.Capability
	if role != "" {
		c, ok := roleCaps[strings.ToLower(role)]
		if !ok {
			return fmt.Errorf("unknown role %q (valid: exporter, importer, writer)", role)
		}
		want = c
	}

	cmdCtx, cleanup, err := NewCommandContext(cmd, withoutHistory())
	if err != nil {
		return err
	}
	defer cleanup()

	reg := cmdCtx.Engine.Registry()
	r := cmdCtx.Renderer

	var entries []formatOutput
	for _, d := range reg.Descriptors() {
		if want != 0 && !d.Caps.Has(want) {
			continue
		}
		entry := formatOutput{
			Key:          d.Key,
			Label:        d.Label,
			Capabilities: strings.Split(d.Caps.String(), "|"),
		}
		if d.Caps.Has(core.CapExport) {
			if exp, err := reg.Exporter(d.Key); err == nil {
				entry.Options = exp.Options()
			}
		}
		if d.Caps.Has(core.CapImport) {
			if imp, err := reg.Importer(d.Key); err == nil {
				entry.Extensions = imp.Extensions()
			}
		}
		entries = append(entries, entry)
	}

	return r.Emit(entries, func() {
		rows := make([][]string, 0, len(entries))
		for _, e := range entries {
			rows = append(rows, []string{
				r.Key(e.Key),
				e.Label,
				strings.Join(e.Capabilities, ", "),
				strings.Join(e.Extensions, " "),
				strings.Join(e.Options, ", "),
			})
		}
		r.Table([]string{"Key", "Label", "Capabilities", "Extensions", "Options"}, rows)
	})
}
