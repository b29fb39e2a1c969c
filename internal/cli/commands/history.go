package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

type historyOutput struct {
	ID        string    `json:"id" yaml:"id"`
	Exporter  string    `json:"exporter" yaml:"exporter"`
	Source    string    `json:"source" yaml:"source"`
	Target    string    `json:"target" yaml:"target"`
	Digest    string    `json:"digest" yaml:"digest"`
	Size      int64     `json:"size" yaml:"size"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recorded exports",
		Long: `List documents written by previous exports, newest first.

Each record holds the exporter, the source model, the written file and a
BLAKE3 digest of its content. The digest lets export skip unchanged files.`,
		Example: `  # Last 20 exports
  cellfmt history

  # Everything, as JSON
  cellfmt history --limit 0 -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runHistory(cmd, limit)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum records to show (0 for all)")
	return cmd
}

func runHistory(cmd *cobra.Command, limit int) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	store := cmdCtx.Engine.Store()
	if store == nil {
		return fmt.Errorf("export history is disabled (no state_path configured)")
	}

	records, err := store.ListExports(cmd.Context(), limit)
	if err != nil {
		return err
	}

	out := make([]historyOutput, 0, len(records))
	for _, rec := range records {
		out = append(out, historyOutput{
			ID:        rec.ID,
			Exporter:  rec.Exporter,
			Source:    rec.Source,
			Target:    rec.Target,
			Digest:    rec.Digest,
			Size:      rec.Size,
			CreatedAt: rec.CreatedAt,
		})
	}

	r := cmdCtx.Renderer
	return r.Emit(out, func() {
		if len(out) == 0 {
			r.Println(r.Muted("No exports recorded."))
			return
		}
		rows := make([][]string, 0, len(out))
		for _, h := range out {
			rows = append(rows, []string{
				h.CreatedAt.Local().Format("2006-01-02 15:04:05"),
				r.Key(h.Exporter),
				h.Target,
				h.Digest[:min(12, len(h.Digest))],
				fmt.Sprint(h.Size),
			})
		}
		r.Table([]string{"Time", "Exporter", "Target", "Digest", "Bytes"}, rows)
	})
}
