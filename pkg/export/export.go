// Package export holds the pieces every exporter shares: the Document it
// produces, option decoding, evaluation order, boilerplate templates and
// atomic file output.
package export

import (
	"errors"
	"fmt"

	"github.com/cellkit/cellfmt/pkg/core"
)

// Document is the output of one exporter run.
type Document struct {
	Exporter string // registry key of the exporter that produced it
	Filename string // suggested file name, e.g. "luo_rudy.cu"
	Content  string
}

// Bytes returns the content as a byte slice.
func (d *Document) Bytes() []byte { return []byte(d.Content) }

// Annotate attaches the owning binding to an error raised while rendering
// one of its expressions.
func Annotate(err error, binding string) error {
	if err == nil {
		return nil
	}
	var unsupported *core.UnsupportedConstructError
	if errors.As(err, &unsupported) {
		annotated := *unsupported
		if annotated.Binding == "" {
			annotated.Binding = binding
		}
		return &annotated
	}
	return fmt.Errorf("binding %q: %w", binding, err)
}
