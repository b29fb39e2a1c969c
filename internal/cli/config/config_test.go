package config

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cellfmt.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func testFlags() *pflag.FlagSet {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.StringP("output", "o", "", "output format")
	flags.String("state", "", "state database")
	flags.String("output-dir", "", "output directory")
	flags.String("log-level", "", "log level")
	flags.BoolP("verbose", "v", false, "verbose")
	return flags
}

func TestLoadConfig_Defaults(t *testing.T) {
	ResetConfig()

	cfgPath := writeConfig(t, "")
	cfg, err := LoadConfig(cfgPath, nil)
	require.NoError(t, err)

	dir := filepath.Dir(cfgPath)
	assert.Equal(t, DefaultOutput, cfg.OutputFormat)
	assert.Equal(t, DefaultLogLevel, cfg.LogLevel)
	assert.Equal(t, DefaultLogFormat, cfg.LogFormat)
	assert.False(t, cfg.Verbose)
	assert.Equal(t, filepath.Join(dir, DefaultStateFile), cfg.StatePath)
	assert.Equal(t, dir, cfg.OutputDir)
	assert.Equal(t, cfgPath, GetConfigFileUsed())
	assert.Same(t, cfg, GetCurrentConfig())
}

func TestLoadConfig_File(t *testing.T) {
	ResetConfig()

	cfgPath := writeConfig(t, `output: yaml
log_level: debug
log_format: json
state_path: /var/lib/cellfmt/state.db
output_dir: generated
exporters:
  ansic:
    function_prefix: lr_
    include_comments: false
  latex-article:
    title: Luo-Rudy
`)
	cfg, err := LoadConfig(cfgPath, nil)
	require.NoError(t, err)

	assert.Equal(t, "yaml", cfg.OutputFormat)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, "/var/lib/cellfmt/state.db", cfg.StatePath)
	assert.Equal(t, filepath.Join(filepath.Dir(cfgPath), "generated"), cfg.OutputDir)

	opts := cfg.ExporterOptions()
	require.Contains(t, opts, "ansic")
	assert.Equal(t, "lr_", opts["ansic"]["function_prefix"])
	assert.Equal(t, false, opts["ansic"]["include_comments"])
	assert.Equal(t, "Luo-Rudy", opts["latex-article"]["title"])
}

func TestLoadConfig_MissingFile(t *testing.T) {
	ResetConfig()

	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error reading config file")
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"output", "output: xml\n", `invalid output "xml"`},
		{"log level", "log_level: trace\n", `invalid log_level "trace"`},
		{"log format", "log_format: logfmt\n", `invalid log_format "logfmt"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ResetConfig()
			_, err := LoadConfig(writeConfig(t, tt.content), nil)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadConfig_EnvPrecedenceOverFile(t *testing.T) {
	ResetConfig()

	cfgPath := writeConfig(t, "output: text\nexporters:\n  ansic:\n    function_prefix: file_\n")
	t.Setenv("CELLFMT_OUTPUT", "json")
	t.Setenv("CELLFMT_EXPORTERS__ANSIC__FUNCTION_PREFIX", "env_")

	cfg, err := LoadConfig(cfgPath, nil)
	require.NoError(t, err)

	assert.Equal(t, "json", cfg.OutputFormat, "env var should override config file")
	assert.Equal(t, "env_", cfg.ExporterOptions()["ansic"]["function_prefix"])
}

func TestLoadConfig_FlagPrecedence(t *testing.T) {
	ResetConfig()

	cfgPath := writeConfig(t, "output: text\nstate_path: from_file.db\n")
	t.Setenv("CELLFMT_OUTPUT", "json")

	flags := testFlags()
	require.NoError(t, flags.Set("output", "yaml"))
	require.NoError(t, flags.Set("state", "/tmp/from_flag.db"))

	cfg, err := LoadConfig(cfgPath, flags)
	require.NoError(t, err)

	assert.Equal(t, "yaml", cfg.OutputFormat, "flag should override env var and config file")
	assert.Equal(t, "/tmp/from_flag.db", cfg.StatePath, "--state maps to state_path")
}

func TestLoadConfig_FlagNotSetUsesEnv(t *testing.T) {
	ResetConfig()

	cfgPath := writeConfig(t, "output: text\n")
	t.Setenv("CELLFMT_OUTPUT", "json")

	// Registered but never set, so Changed is false.
	cfg, err := LoadConfig(cfgPath, testFlags())
	require.NoError(t, err)

	assert.Equal(t, "json", cfg.OutputFormat)
}

func TestLoadConfig_RelativeFlagPathUsesWorkingDirectory(t *testing.T) {
	ResetConfig()

	cfgPath := writeConfig(t, "")
	flags := testFlags()
	require.NoError(t, flags.Set("output-dir", "out"))

	cfg, err := LoadConfig(cfgPath, flags)
	require.NoError(t, err)

	cwd, err := os.Getwd()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(cwd, "out"), cfg.OutputDir)
}

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name      string
		cfg       Config
		wantDebug bool
		wantJSON  bool
	}{
		{name: "default warn", cfg: Config{LogLevel: "warn", LogFormat: "text"}},
		{name: "debug", cfg: Config{LogLevel: "debug", LogFormat: "text"}, wantDebug: true},
		{name: "verbose forces debug", cfg: Config{LogLevel: "error", Verbose: true}, wantDebug: true},
		{name: "json", cfg: Config{LogLevel: "debug", LogFormat: "json"}, wantDebug: true, wantJSON: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := NewLogger(&buf, &tt.cfg)
			assert.Equal(t, tt.wantDebug, logger.Enabled(context.Background(), slog.LevelDebug))

			logger.Error("boom", "k", "v")
			if tt.wantJSON {
				assert.Contains(t, buf.String(), `"msg":"boom"`)
			} else {
				assert.Contains(t, buf.String(), "msg=boom")
			}
		})
	}
}

func TestGetLogger(t *testing.T) {
	assert.NotNil(t, GetLogger(context.Background()))

	var buf bytes.Buffer
	logger := NewLogger(&buf, &Config{LogLevel: "info"})
	ctx := WithLogger(context.Background(), logger)
	assert.Same(t, logger, GetLogger(ctx))
}
