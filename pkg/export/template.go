package export

import (
	"fmt"
	"io/fs"

	starctx "github.com/cellkit/cellfmt/internal/starlark"
	"github.com/cellkit/cellfmt/internal/template"
)

// RenderTemplate renders the boilerplate template name from fsys with vars
// as its globals.
func RenderTemplate(fsys fs.FS, name string, vars map[string]any) (string, error) {
	src, err := fs.ReadFile(fsys, name)
	if err != nil {
		return "", fmt.Errorf("read template: %w", err)
	}
	ctx, err := starctx.NewExecutionContext(vars)
	if err != nil {
		return "", err
	}
	return template.Render(string(src), name, ctx)
}
