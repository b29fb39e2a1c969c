// Package engine loads models and exports them through the format registry.
// It renders every requested target before writing any file and records
// written documents in the state store.
package engine

import (
	"fmt"
	"log/slog"
	"maps"
	"os"
	"slices"

	"github.com/cellkit/cellfmt/internal/state"
	"github.com/cellkit/cellfmt/pkg/core"
	"github.com/cellkit/cellfmt/pkg/export"
	"github.com/cellkit/cellfmt/pkg/formats"
	"github.com/cellkit/cellfmt/pkg/formats/builtin"
)

// Engine orchestrates imports and exports.
type Engine struct {
	registry  *formats.Registry
	store     state.Store
	outputDir string
	options   map[string]export.Options
	force     bool
	logger    *slog.Logger
}

// Config holds engine configuration.
type Config struct {
	// Registry resolves formats; nil uses the built-in registry
	Registry *formats.Registry
	// StatePath is the SQLite export history; empty disables history
	StatePath string
	// OutputDir is the default directory for exported documents
	OutputDir string
	// Options holds per-exporter options keyed by exporter key
	Options map[string]export.Options
	// Force writes documents even when their content is unchanged
	Force bool
	// Logger is the structured logger (optional, uses discard if nil)
	Logger *slog.Logger
}

// New creates an engine and opens its state store.
func New(cfg Config) (*Engine, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	reg := cfg.Registry
	if reg == nil {
		var err error
		if reg, err = builtin.Default(); err != nil {
			return nil, err
		}
	}

	e := &Engine{
		registry:  reg,
		outputDir: cfg.OutputDir,
		options:   cfg.Options,
		force:     cfg.Force,
		logger:    logger,
	}
	if e.outputDir == "" {
		e.outputDir = "."
	}
	if err := e.checkOptionKeys(cfg.Options); err != nil {
		return nil, err
	}

	if cfg.StatePath != "" {
		store := state.NewSQLiteStore(logger)
		if err := store.Open(cfg.StatePath); err != nil {
			return nil, fmt.Errorf("failed to open state store: %w", err)
		}
		e.store = store
	}

	logger.Debug("initialized engine", "output_dir", e.outputDir, "state_path", cfg.StatePath)
	return e, nil
}

// Close releases the state store.
func (e *Engine) Close() error {
	if e.store != nil {
		return e.store.Close()
	}
	return nil
}

// Registry returns the format registry.
func (e *Engine) Registry() *formats.Registry { return e.registry }

// Store returns the export history, or nil when disabled.
func (e *Engine) Store() state.Store { return e.store }

// Load imports the model at path. format selects the importer; empty
// selects it from the file extension.
func (e *Engine) Load(path, format string) (*core.Model, error) {
	var (
		imp formats.Importer
		err error
	)
	if format != "" {
		imp, err = e.registry.Importer(format)
	} else {
		imp, err = e.registry.ImporterFor(path)
	}
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open model: %w", err)
	}
	defer f.Close()

	m, err := imp.Import(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	e.logger.Debug("loaded model",
		"path", path,
		"importer", imp.Descriptor().Key,
		"model", m.Name,
		"bindings", m.Len())
	return m, nil
}

// checkOptionKeys fails on options addressed to an exporter that is not
// registered.
func (e *Engine) checkOptionKeys(opts map[string]export.Options) error {
	keys := slices.Sorted(maps.Keys(opts))
	for _, key := range keys {
		if _, err := e.registry.Exporter(key); err != nil {
			return fmt.Errorf("options for %q: %w", key, err)
		}
	}
	return nil
}

// optionsFor merges configured options for key with overrides.
func (e *Engine) optionsFor(key string, overrides export.Options) export.Options {
	merged := export.Options{}
	for k, v := range e.options[key] {
		merged[k] = v
	}
	for k, v := range overrides {
		merged[k] = v
	}
	return merged
}
