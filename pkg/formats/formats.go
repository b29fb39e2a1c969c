// Package formats defines the exporter and importer contracts and the
// registry that maps format keys to them.
package formats

import (
	"io"

	"github.com/cellkit/cellfmt/pkg/core"
	"github.com/cellkit/cellfmt/pkg/export"
)

// Exporter turns a model into one target-language document.
// Implementations hold no per-model state and are safe for concurrent use.
type Exporter interface {
	Descriptor() core.Descriptor
	// Options returns the option keys Export accepts, sorted.
	Options() []string
	Export(m *core.Model, opts export.Options) (*export.Document, error)
}

// Importer reads an external file into a model. The whole input is read.
type Importer interface {
	Descriptor() core.Descriptor
	// Extensions returns the file extensions the importer claims, with the
	// leading dot.
	Extensions() []string
	Import(r io.Reader) (*core.Model, error)
}
