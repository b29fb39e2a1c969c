// Package latex exports models as LaTeX documents and registers the LaTeX
// writer. The article and poster variants share the writer and differ only
// in their boilerplate template.
package latex

import (
	"embed"
	"strings"

	starctx "github.com/cellkit/cellfmt/internal/starlark"
	"github.com/cellkit/cellfmt/pkg/core"
	"github.com/cellkit/cellfmt/pkg/dialect"
	texdialect "github.com/cellkit/cellfmt/pkg/dialects/latex"
	"github.com/cellkit/cellfmt/pkg/export"
	"github.com/cellkit/cellfmt/pkg/formats"
	"github.com/cellkit/cellfmt/pkg/writer"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

//go:embed templates/*.tmpl
var templates embed.FS

// Registry keys.
const (
	ArticleKey = "latex-article"
	PosterKey  = "latex-poster"
	WriterKey  = "latex"
)

// Options configure both LaTeX exporters.
type Options struct {
	Title           string `mapstructure:"title"`
	Author          string `mapstructure:"author"`
	IncludeComments bool   `mapstructure:"include_comments"`
}

func defaultOptions() Options {
	return Options{IncludeComments: true}
}

// Exporter renders a model into one LaTeX document variant.
type Exporter struct {
	key      string
	label    string
	template string
	suffix   string
}

// Article returns the latex-article exporter.
func Article() Exporter {
	return Exporter{key: ArticleKey, label: "LaTeX article", template: "templates/article.tex.tmpl", suffix: ".tex"}
}

// Poster returns the latex-poster exporter.
func Poster() Exporter {
	return Exporter{key: PosterKey, label: "LaTeX poster", template: "templates/poster.tex.tmpl", suffix: "-poster.tex"}
}

// Register adds both document exporters and the LaTeX writer to r.
func Register(r *formats.Registry) error {
	for _, e := range []Exporter{Article(), Poster()} {
		if err := r.RegisterExporter(e); err != nil {
			return err
		}
	}
	return r.RegisterWriter(texdialect.LaTeX, "LaTeX math")
}

// Descriptor implements formats.Exporter.
func (e Exporter) Descriptor() core.Descriptor {
	return core.Descriptor{Key: e.key, Label: e.label, Caps: core.CapExport | core.CapDocument}
}

// Options implements formats.Exporter.
func (Exporter) Options() []string {
	opts := defaultOptions()
	names, _ := export.OptionNames(&opts)
	return names
}

// Export implements formats.Exporter.
func (e Exporter) Export(m *core.Model, raw export.Options) (*export.Document, error) {
	opts := defaultOptions()
	if err := export.Decode(e.key, raw, &opts); err != nil {
		return nil, err
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}

	w := writer.New(texdialect.LaTeX)
	w.Session().Declare(m.Names()...)

	sections, initials, err := equations(w, m, opts.IncludeComments)
	if err != nil {
		return nil, err
	}

	title := opts.Title
	if title == "" {
		title = Heading(m.Name)
	}
	content, err := export.RenderTemplate(templates, e.template, map[string]any{
		"model_name":       m.Name,
		"title":            texdialect.Escape(title),
		"author":           texdialect.Escape(opts.Author),
		"doc":              texdialect.Escape(m.Meta["doc"]),
		"include_comments": opts.IncludeComments,
		"sections":         sections,
		"initials":         initials,
	})
	if err != nil {
		return nil, err
	}

	stem := "model"
	if m.Name != "" {
		stem = dialect.CIdentifier(m.Name)
	}
	return &export.Document{Exporter: e.key, Filename: stem + e.suffix, Content: content}, nil
}

// Heading turns a model or component name into a section title.
func Heading(name string) string {
	if name == "" {
		return "Model"
	}
	words := strings.NewReplacer("_", " ", ".", " ").Replace(name)
	return cases.Title(language.English).String(words)
}

type section struct {
	title string
	rows  []starctx.Record
}

// equations groups bindings by component in order of first appearance.
func equations(w *writer.Writer, m *core.Model, comments bool) ([]starctx.Record, []starctx.Record, error) {
	timeName := `\text{t}`
	if inputs := m.ByRole(core.RoleInput); len(inputs) > 0 {
		timeName = w.Name(inputs[0].Name)
	}

	var order []*section
	byComponent := make(map[string]*section)
	var initials []starctx.Record

	for _, b := range m.Bindings() {
		if b.Role == core.RoleInput {
			continue
		}
		rhs, err := w.Render(b.Expr)
		if err != nil {
			return nil, nil, export.Annotate(err, b.Name)
		}
		lhs := w.Name(b.Name)
		if b.Role == core.RoleState {
			lhs = `\frac{\mathrm{d}` + lhs + `}{\mathrm{d}` + timeName + `}`

			initial, err := w.Render(b.Initial)
			if err != nil {
				return nil, nil, export.Annotate(err, b.Name)
			}
			initials = append(initials, starctx.Record{
				"lhs":  w.Name(b.Name) + "(0)",
				"rhs":  initial,
				"note": note(b, comments),
			})
		}

		comp := b.Component()
		s, ok := byComponent[comp]
		if !ok {
			s = &section{title: texdialect.Escape(Heading(comp))}
			byComponent[comp] = s
			order = append(order, s)
		}
		s.rows = append(s.rows, starctx.Record{
			"lhs":  lhs,
			"rhs":  rhs,
			"note": note(b, comments),
			"role": b.Role.String(),
		})
	}

	sections := make([]starctx.Record, len(order))
	for i, s := range order {
		sections[i] = starctx.Record{"title": s.title, "equations": terminate(s.rows)}
	}
	return sections, terminate(initials), nil
}

// terminate sets the row ending: a line break on every row but the last,
// followed by the row's comment.
func terminate(rows []starctx.Record) []starctx.Record {
	for i, r := range rows {
		end := ""
		if i < len(rows)-1 {
			end = ` \\`
		}
		r["end"] = end + r["note"].(string)
	}
	return rows
}

func note(b *core.Binding, comments bool) string {
	if !comments {
		return ""
	}
	var parts []string
	if b.Unit != "" {
		parts = append(parts, "["+b.Unit+"]")
	}
	if b.Doc != "" {
		parts = append(parts, b.Doc)
	}
	if len(parts) == 0 {
		return ""
	}
	return " % " + export.InlineComment(strings.Join(parts, " "))
}
