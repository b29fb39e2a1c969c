package commands

import (
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/cellkit/cellfmt/internal/cli/output"
	"github.com/cellkit/cellfmt/internal/engine"
	"github.com/cellkit/cellfmt/pkg/export"
	"github.com/spf13/cobra"
)

// ExportOptions holds options for the export command.
type ExportOptions struct {
	Exporters []string
	Format    string
	Force     bool
	Watch     bool
	Set       []string // exporter.option=value
}

// exportOutput is the structured result of one export run.
type exportOutput struct {
	Model   string   `json:"model" yaml:"model"`
	Written []string `json:"written" yaml:"written"`
	Skipped []string `json:"skipped,omitempty" yaml:"skipped,omitempty"`
	Error   string   `json:"error,omitempty" yaml:"error,omitempty"`
}

// NewExportCommand creates the export command.
func NewExportCommand() *cobra.Command {
	opts := &ExportOptions{}
	cmd := &cobra.Command{
		Use:   "export <model>",
		Short: "Export a model with one or more exporters",
		Long: `Import a model file and export it with the selected exporters.

Every exporter renders before anything is written: if one fails, no file
is touched. Documents whose content matches the last recorded export are
skipped unless --force is given.

Exporter options come from the exporters section of cellfmt.yaml and can
be overridden with --set exporter.option=value.`,
		Example: `  # C and CUDA sources into ./gen
  cellfmt export luo_rudy.hcl -e ansic,cuda-kernel --output-dir gen

  # Every exporter, re-exporting on each save
  cellfmt export model.sbml --watch

  # Override an exporter option
  cellfmt export model.hcl -e ansic --set ansic.function_prefix=lr_`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringSliceVarP(&opts.Exporters, "exporter", "e", nil, "Exporter keys (default: all)")
	cmd.Flags().StringVarP(&opts.Format, "format", "f", "", "Importer key (default: from file extension)")
	cmd.Flags().BoolVar(&opts.Force, "force", false, "Write documents even if unchanged")
	cmd.Flags().BoolVarP(&opts.Watch, "watch", "w", false, "Re-export whenever the model file changes")
	cmd.Flags().StringArrayVar(&opts.Set, "set", nil, "Exporter option as exporter.option=value (repeatable)")

	_ = cmd.RegisterFlagCompletionFunc("exporter", completeKeys(func(c *CommandContext) []string {
		return c.Engine.Registry().Exporters()
	}))
	_ = cmd.RegisterFlagCompletionFunc("format", completeKeys(func(c *CommandContext) []string {
		return c.Engine.Registry().Importers()
	}))
	return cmd
}

func runExport(cmd *cobra.Command, source string, opts *ExportOptions) error {
	overrides, err := parseSetFlags(opts.Set)
	if err != nil {
		return err
	}

	cmdCtx, cleanup, err := NewCommandContext(cmd, withForce(opts.Force))
	if err != nil {
		return err
	}
	defer cleanup()

	exporters := opts.Exporters
	if len(exporters) == 0 {
		exporters = cmdCtx.Engine.Registry().Exporters()
	}

	req := engine.ExportRequest{
		Source:    source,
		Format:    opts.Format,
		Exporters: exporters,
		Options:   overrides,
	}
	r := cmdCtx.Renderer

	if !opts.Watch {
		result, err := cmdCtx.Engine.Export(cmd.Context(), req)
		if err != nil {
			return err
		}
		return reportExport(r, result, nil)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	if !r.Structured() {
		_, _ = fmt.Fprintln(r.ErrWriter(), r.Muted(fmt.Sprintf("watching %s (Ctrl+C to stop)", source)))
	}
	return cmdCtx.Engine.Watch(ctx, req, func(result *engine.ExportResult, err error) {
		if reportErr := reportExport(r, result, err); reportErr != nil {
			cmdCtx.Logger.Error("failed to report export", "error", reportErr)
		}
	})
}

// reportExport prints one run. err is a failed run in watch mode.
func reportExport(r *output.Renderer, result *engine.ExportResult, err error) error {
	out := exportOutput{}
	if result != nil {
		out.Model = result.Model
		out.Written = result.Written
		out.Skipped = result.Skipped
	}
	if err != nil {
		out.Error = err.Error()
	}
	if out.Written == nil {
		out.Written = []string{}
	}

	return r.Emit(out, func() {
		if err != nil {
			r.Errorf("export failed: %v", err)
			return
		}
		for _, path := range out.Written {
			r.Printf("%s %s\n", r.Success("wrote"), path)
		}
		for _, path := range out.Skipped {
			r.Printf("%s %s\n", r.Muted("unchanged"), path)
		}
	})
}

// parseSetFlags turns exporter.option=value pairs into per-exporter options.
// Values stay strings; option decoding converts them.
func parseSetFlags(pairs []string) (map[string]export.Options, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	out := make(map[string]export.Options)
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("invalid --set %q: expected exporter.option=value", pair)
		}
		exporter, option, ok := strings.Cut(key, ".")
		if !ok || exporter == "" || option == "" {
			return nil, fmt.Errorf("invalid --set %q: expected exporter.option=value", pair)
		}
		if out[exporter] == nil {
			out[exporter] = export.Options{}
		}
		out[exporter][option] = value
	}
	return out, nil
}

// completeKeys builds a flag completion function from registry keys.
func completeKeys(keys func(*CommandContext) []string) func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	return func(cmd *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		cmdCtx, cleanup, err := NewCommandContext(cmd, withoutHistory())
		if err != nil {
			return nil, cobra.ShellCompDirectiveError
		}
		defer cleanup()
		return keys(cmdCtx), cobra.ShellCompDirectiveNoFileComp
	}
}
