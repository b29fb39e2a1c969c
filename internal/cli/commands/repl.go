package commands

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"slices"
	"strings"

	"github.com/cellkit/cellfmt/internal/engine"
	"github.com/chzyer/readline"
	"github.com/spf13/cobra"
)

const replPrompt = "cellfmt> "

// NewREPLCommand creates the repl command.
func NewREPLCommand() *cobra.Command {
	var writers []string
	cmd := &cobra.Command{
		Use:   "repl",
		Short: "Render expressions interactively",
		Long: `Start an interactive session that renders each expression you type
with the active writers.

Expressions use model syntax (see "cellfmt render --help"). Lines starting
with a dot are session commands; type .help to list them.`,
		Example: `  # Start with the C and LaTeX writers
  cellfmt repl -w ansic,latex`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runREPL(cmd, writers)
		},
	}

	cmd.Flags().StringSliceVarP(&writers, "writer", "w", []string{"ansic"}, "Active writers")
	return cmd
}

func runREPL(cmd *cobra.Command, writers []string) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd, withoutHistory())
	if err != nil {
		return err
	}
	defer cleanup()

	session, err := newREPLSession(cmdCtx.Engine, cmd.OutOrStdout(), cmd.ErrOrStderr(), writers)
	if err != nil {
		return err
	}

	// Line history lives next to the state database.
	historyFile := ""
	if sp := cmdCtx.Cfg.StatePath; sp != "" && sp != ":memory:" {
		historyFile = filepath.Join(filepath.Dir(sp), "repl_history")
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          replPrompt,
		HistoryFile:     historyFile,
		AutoComplete:    session.completer(),
		InterruptPrompt: "^C",
		EOFPrompt:       ".quit",
	})
	if err != nil {
		return fmt.Errorf("failed to initialize REPL: %w", err)
	}
	defer func() { _ = rl.Close() }()

	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "cellfmt expression REPL (writers: %s)\n", strings.Join(session.writers, ", "))
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Type .help for commands, .quit to exit")
	_, _ = fmt.Fprintln(cmd.OutOrStdout())

	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if session.handle(line) {
			return nil
		}
	}
}

// replSession evaluates REPL lines.
type replSession struct {
	eng     *engine.Engine
	out     io.Writer
	errOut  io.Writer
	writers []string
}

func newREPLSession(eng *engine.Engine, out, errOut io.Writer, writers []string) (*replSession, error) {
	s := &replSession{eng: eng, out: out, errOut: errOut}
	if err := s.use(writers); err != nil {
		return nil, err
	}
	return s, nil
}

// use replaces the active writers after checking every key.
func (s *replSession) use(keys []string) error {
	if len(keys) == 0 {
		return fmt.Errorf("no writers given")
	}
	for _, k := range keys {
		if _, err := s.eng.Registry().Writer(k); err != nil {
			return err
		}
	}
	s.writers = slices.Clone(keys)
	return nil
}

// handle evaluates one line and reports whether the session should end.
func (s *replSession) handle(line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}
	if strings.HasPrefix(line, ".") {
		return s.command(line)
	}

	for _, key := range s.writers {
		text, err := s.eng.RenderExpression(line, key)
		switch {
		case err != nil && len(s.writers) == 1:
			_, _ = fmt.Fprintf(s.errOut, "Error: %v\n", err)
		case err != nil:
			_, _ = fmt.Fprintf(s.errOut, "%s: error: %v\n", key, err)
		case len(s.writers) == 1:
			_, _ = fmt.Fprintln(s.out, text)
		default:
			_, _ = fmt.Fprintf(s.out, "%s: %s\n", key, text)
		}
	}
	return false
}

func (s *replSession) command(line string) bool {
	parts := strings.Fields(line)
	switch strings.ToLower(parts[0]) {
	case ".quit", ".exit":
		return true

	case ".help":
		printREPLHelp(s.out)

	case ".writers":
		for _, key := range s.eng.Registry().Writers() {
			marker := " "
			if slices.Contains(s.writers, key) {
				marker = "*"
			}
			_, _ = fmt.Fprintf(s.out, "%s %s\n", marker, key)
		}

	case ".use":
		var keys []string
		for _, p := range parts[1:] {
			for _, k := range strings.Split(p, ",") {
				if k != "" {
					keys = append(keys, k)
				}
			}
		}
		if err := s.use(keys); err != nil {
			_, _ = fmt.Fprintf(s.errOut, "Error: %v\n", err)
		}

	case ".all":
		s.writers = s.eng.Registry().Writers()

	default:
		_, _ = fmt.Fprintf(s.errOut, "Unknown command: %s (type .help for commands)\n", parts[0])
	}
	return false
}

func (s *replSession) completer() *readline.PrefixCompleter {
	var keys []readline.PrefixCompleterInterface
	for _, k := range s.eng.Registry().Writers() {
		keys = append(keys, readline.PcItem(k))
	}
	return readline.NewPrefixCompleter(
		readline.PcItem(".help"),
		readline.PcItem(".writers"),
		readline.PcItem(".use", keys...),
		readline.PcItem(".all"),
		readline.PcItem(".quit"),
	)
}

func printREPLHelp(w io.Writer) {
	help := `
Commands:
  .help             Show this help message
  .writers          List writers (* marks active ones)
  .use <key>[,...]  Render with the given writers
  .all              Render with every writer
  .quit / .exit     Exit the REPL

Anything else is rendered as an expression, e.g. exp(-V / 10) * g_Na
`
	_, _ = fmt.Fprintln(w, help)
}
