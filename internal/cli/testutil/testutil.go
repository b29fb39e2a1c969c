// Package testutil provides test utilities for CLI testing.
package testutil

import (
	"bytes"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/cellkit/cellfmt/internal/cli/output"
)

// MembraneModel is a small HCL model with every binding role.
const MembraneModel = `model {
  name = "membrane"
  doc  = "Passive membrane with a leak current"
}

input "time" {
  unit = "ms"
}

constant "membrane.Cm" {
  value = 1
  unit  = "uF/cm2"
}

constant "leak.g" {
  value = 0.3
  unit  = "mS/cm2"
}

variable "leak.i" {
  value = leak.g * (membrane.V + 54.4)
  unit  = "uA/cm2"
}

state "membrane.V" {
  initial = -84
  rate    = -leak.i / membrane.Cm
  unit    = "mV"
}
`

// SetupTestProject creates a temporary project holding membrane.hcl and an
// optional cellfmt.yaml. It returns the project directory.
func SetupTestProject(t *testing.T, config string) string {
	t.Helper()

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "membrane.hcl"), []byte(MembraneModel), 0644); err != nil {
		t.Fatalf("failed to create membrane.hcl: %v", err)
	}
	if config != "" {
		if err := os.WriteFile(filepath.Join(dir, "cellfmt.yaml"), []byte(config), 0644); err != nil {
			t.Fatalf("failed to create cellfmt.yaml: %v", err)
		}
	}
	return dir
}

// TestRenderer wraps a Renderer for testing with captured output buffers.
type TestRenderer struct {
	*output.Renderer
	Out    *bytes.Buffer
	ErrOut *bytes.Buffer
}

// NewTestRenderer creates a new test renderer with the specified mode and TTY state.
func NewTestRenderer(mode output.Mode, isTTY bool) *TestRenderer {
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	return &TestRenderer{
		Renderer: output.NewRendererWithTTY(out, errOut, isTTY, mode),
		Out:      out,
		ErrOut:   errOut,
	}
}

// Output returns the stdout output as a string.
func (tr *TestRenderer) Output() string {
	return tr.Out.String()
}

// ErrorOutput returns the stderr output as a string.
func (tr *TestRenderer) ErrorOutput() string {
	return tr.ErrOut.String()
}

// ansiPattern matches ANSI escape codes.
var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

// AssertNoANSI checks that a string contains no ANSI escape codes.
func AssertNoANSI(t *testing.T, s string) {
	t.Helper()
	if ansiPattern.MatchString(s) {
		t.Errorf("string contains ANSI escape codes: %q", s)
	}
}

// AssertContains checks that the string contains every expected substring.
func AssertContains(t *testing.T, s string, expected ...string) {
	t.Helper()
	for _, e := range expected {
		if !strings.Contains(s, e) {
			t.Errorf("string %q does not contain expected %q", s, e)
		}
	}
}
