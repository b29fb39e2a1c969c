// Package builtin assembles the registry of every format shipped with
// cellfmt.
package builtin

import (
	"fmt"
	"sync"

	"github.com/cellkit/cellfmt/pkg/formats"
	"github.com/cellkit/cellfmt/pkg/formats/ansic"
	"github.com/cellkit/cellfmt/pkg/formats/cuda"
	"github.com/cellkit/cellfmt/pkg/formats/hclmodel"
	"github.com/cellkit/cellfmt/pkg/formats/latex"
	"github.com/cellkit/cellfmt/pkg/formats/python"
	"github.com/cellkit/cellfmt/pkg/formats/sbml"
	"github.com/cellkit/cellfmt/pkg/formats/wcp"
)

var plugins = []struct {
	name     string
	register func(*formats.Registry) error
}{
	{"ansic", ansic.Register},
	{"cuda", cuda.Register},
	{"python", python.Register},
	{"latex", latex.Register},
	{"sbml", sbml.Register},
	{"wcp", wcp.Register},
	{"hcl", hclmodel.Register},
}

var (
	defaultOnce     sync.Once
	defaultRegistry *formats.Registry
	defaultErr      error
)

// New builds an unfrozen registry holding every built-in format.
func New() (*formats.Registry, error) {
	r := formats.NewRegistry()
	for _, p := range plugins {
		if err := p.register(r); err != nil {
			return nil, fmt.Errorf("registering %s formats: %w", p.name, err)
		}
	}
	return r, nil
}

// Default returns the process-wide registry, built once and frozen.
func Default() (*formats.Registry, error) {
	defaultOnce.Do(func() {
		defaultRegistry, defaultErr = New()
		if defaultErr == nil {
			defaultRegistry.Freeze()
		}
	})
	return defaultRegistry, defaultErr
}
