package engine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/cellkit/cellfmt/internal/state"
	"github.com/cellkit/cellfmt/pkg/core"
	"github.com/cellkit/cellfmt/pkg/export"
	"github.com/cellkit/cellfmt/pkg/formats/hclmodel"
	"github.com/cellkit/cellfmt/pkg/writer"
)

// ExportRequest describes one export run.
type ExportRequest struct {
	// Source is the model file
	Source string
	// Format forces the importer; empty detects it from the extension
	Format string
	// Exporters lists the targets by exporter key
	Exporters []string
	// OutputDir overrides the configured output directory
	OutputDir string
	// Options override configured options, keyed by exporter key
	Options map[string]export.Options
}

// ExportResult lists what an export run did.
type ExportResult struct {
	Model   string
	Written []string
	// Skipped holds targets whose content matched the last recorded export
	Skipped []string
}

// Render exports m with one exporter without writing anything.
func (e *Engine) Render(m *core.Model, key string, overrides export.Options) (*export.Document, error) {
	exp, err := e.registry.Exporter(key)
	if err != nil {
		return nil, err
	}
	return exp.Export(m, e.optionsFor(key, overrides))
}

// Export loads the source model, renders every exporter concurrently and
// writes the documents only if all of them succeeded.
func (e *Engine) Export(ctx context.Context, req ExportRequest) (*ExportResult, error) {
	if len(req.Exporters) == 0 {
		return nil, fmt.Errorf("no exporters requested")
	}
	// Resolve keys up front so a typo fails before any work.
	for _, key := range req.Exporters {
		if _, err := e.registry.Exporter(key); err != nil {
			return nil, err
		}
	}
	if err := e.checkOptionKeys(req.Options); err != nil {
		return nil, err
	}

	m, err := e.Load(req.Source, req.Format)
	if err != nil {
		return nil, err
	}

	docs := make([]*export.Document, len(req.Exporters))
	g, gctx := errgroup.WithContext(ctx)
	for i, key := range req.Exporters {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			doc, err := e.Render(m, key, req.Options[key])
			if err != nil {
				return fmt.Errorf("exporter %q: %w", key, err)
			}
			docs[i] = doc
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	dir := req.OutputDir
	if dir == "" {
		dir = e.outputDir
	}
	result := &ExportResult{Model: m.Name}

	pending := make([]*export.Document, 0, len(docs))
	digests := make(map[*export.Document]string, len(docs))
	for _, doc := range docs {
		target := filepath.Join(dir, doc.Filename)
		digest := state.Digest(doc.Bytes())
		if e.unchanged(ctx, target, digest) {
			e.logger.Debug("skipping unchanged document", "target", target)
			result.Skipped = append(result.Skipped, target)
			continue
		}
		digests[doc] = digest
		pending = append(pending, doc)
	}
	if len(pending) == 0 {
		return result, nil
	}

	paths, err := export.WriteDocuments(dir, pending)
	if err != nil {
		return nil, err
	}
	result.Written = paths

	if e.store != nil {
		for i, doc := range pending {
			rec := &state.ExportRecord{
				Exporter: doc.Exporter,
				Source:   req.Source,
				Target:   paths[i],
				Digest:   digests[doc],
				Size:     int64(len(doc.Content)),
			}
			if err := e.store.RecordExport(ctx, rec); err != nil {
				return result, err
			}
		}
	}
	e.logger.Info("exported model", "model", m.Name, "written", len(result.Written), "skipped", len(result.Skipped))
	return result, nil
}

// unchanged reports whether the history and the file on disk both hold
// digest. History lookup failures only cost a rewrite.
func (e *Engine) unchanged(ctx context.Context, target, digest string) bool {
	if e.store == nil || e.force {
		return false
	}
	last, err := e.store.LastDigest(ctx, target)
	if err != nil {
		e.logger.Warn("export history lookup failed", "target", target, "error", err)
		return false
	}
	if last != digest {
		return false
	}
	onDisk, err := os.ReadFile(target)
	if err != nil {
		return false
	}
	if state.Digest(onDisk) != digest {
		e.logger.Debug("output modified since last export", "target", target)
		return false
	}
	return true
}

// RenderExpression parses an HCL expression and renders it with a writer.
func (e *Engine) RenderExpression(src, writerKey string) (string, error) {
	d, err := e.registry.Writer(writerKey)
	if err != nil {
		return "", err
	}
	expr, err := hclmodel.ParseExpression(src)
	if err != nil {
		return "", err
	}
	return writer.Render(expr, d)
}
