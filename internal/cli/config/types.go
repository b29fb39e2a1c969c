// Package config provides configuration management for the cellfmt CLI.
//
// Values are layered with koanf: built-in defaults, then cellfmt.yaml, then
// CELLFMT_ environment variables, then explicitly set command-line flags.
package config

import (
	"fmt"
	"slices"
	"strings"

	"github.com/cellkit/cellfmt/pkg/export"
)

// Default configuration values.
const (
	DefaultStateFile = ".cellfmt/state.db"
	DefaultOutputDir = "."
	DefaultOutput    = "auto" // TTY=text, non-TTY=json
	DefaultLogLevel  = "warn"
	DefaultLogFormat = "text"
)

// Valid values for enumerated settings.
var (
	OutputModes = []string{"auto", "text", "json", "yaml"}
	LogLevels   = []string{"debug", "info", "warn", "error"}
	LogFormats  = []string{"text", "json"}
)

// Config holds all CLI configuration options.
type Config struct {
	OutputFormat string `koanf:"output"`
	Verbose      bool   `koanf:"verbose"`
	LogLevel     string `koanf:"log_level"`
	LogFormat    string `koanf:"log_format"`
	StatePath    string `koanf:"state_path"`
	OutputDir    string `koanf:"output_dir"`
	// Exporters holds per-exporter options keyed by exporter key, e.g.
	// exporters.ansic.function_prefix.
	Exporters map[string]map[string]any `koanf:"exporters"`
}

// ExporterOptions converts the configured exporter options for the engine.
func (c *Config) ExporterOptions() map[string]export.Options {
	if len(c.Exporters) == 0 {
		return nil
	}
	out := make(map[string]export.Options, len(c.Exporters))
	for key, opts := range c.Exporters {
		out[key] = export.Options(opts)
	}
	return out
}

// Validate checks enumerated settings.
func (c *Config) Validate() error {
	if err := oneOf("output", c.OutputFormat, OutputModes); err != nil {
		return err
	}
	if err := oneOf("log_level", c.LogLevel, LogLevels); err != nil {
		return err
	}
	return oneOf("log_format", c.LogFormat, LogFormats)
}

func oneOf(key, value string, valid []string) error {
	if slices.Contains(valid, strings.ToLower(value)) {
		return nil
	}
	return fmt.Errorf("invalid %s %q (valid: %s)", key, value, strings.Join(valid, ", "))
}
