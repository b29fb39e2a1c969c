package commands

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/cellkit/cellfmt/internal/cli/config"
	"github.com/cellkit/cellfmt/internal/cli/output"
	"github.com/cellkit/cellfmt/internal/engine"
	"github.com/spf13/cobra"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Engine   *engine.Engine
	Renderer *output.Renderer
}

// engineOption adjusts the engine configuration built from the CLI config.
type engineOption func(*engine.Config)

// withoutHistory disables the export history for commands that only read.
func withoutHistory() engineOption {
	return func(c *engine.Config) { c.StatePath = "" }
}

// withForce makes exports rewrite unchanged documents.
func withForce(force bool) engineOption {
	return func(c *engine.Config) { c.Force = force }
}

// NewCommandContext creates a CommandContext with engine and renderer.
// Returns the context and a cleanup function that must be called (typically via defer).
func NewCommandContext(cmd *cobra.Command, opts ...engineOption) (*CommandContext, func(), error) {
	cfg := getConfig()
	logger := config.GetLogger(cmd.Context())

	eng, err := createEngine(cfg, logger, opts...)
	if err != nil {
		return nil, nil, err
	}

	cleanup := func() {
		if err := eng.Close(); err != nil {
			logger.Warn("failed to close engine", "error", err)
		}
	}

	return &CommandContext{
		Cfg:      cfg,
		Logger:   logger,
		Engine:   eng,
		Renderer: newRenderer(cmd, cfg),
	}, cleanup, nil
}

func newRenderer(cmd *cobra.Command, cfg *config.Config) *output.Renderer {
	return output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.Mode(cfg.OutputFormat))
}

// getConfig returns the loaded configuration, or the defaults when the
// command runs without the root command (tests).
func getConfig() *config.Config {
	if cfg := config.GetCurrentConfig(); cfg != nil {
		return cfg
	}
	return config.Default()
}

func createEngine(cfg *config.Config, logger *slog.Logger, opts ...engineOption) (*engine.Engine, error) {
	engineCfg := engine.Config{
		StatePath: cfg.StatePath,
		OutputDir: cfg.OutputDir,
		Options:   cfg.ExporterOptions(),
		Logger:    logger,
	}
	for _, opt := range opts {
		opt(&engineCfg)
	}

	// Ensure state directory exists
	if engineCfg.StatePath != "" && engineCfg.StatePath != ":memory:" {
		stateDir := filepath.Dir(engineCfg.StatePath)
		if stateDir != "." && stateDir != "" {
			if err := os.MkdirAll(stateDir, 0750); err != nil {
				return nil, fmt.Errorf("failed to create state directory: %w", err)
			}
		}
	}

	return engine.New(engineCfg)
}
