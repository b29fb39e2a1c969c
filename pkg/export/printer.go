package export

import (
	"bytes"
	"fmt"
	"strings"
)

// Printer accumulates generated source with indentation and comments.
type Printer struct {
	output      *bytes.Buffer
	comment     string
	indentUnit  string
	depth       int
	atLineStart bool
	comments    bool
}

// NewPrinter creates a printer. commentPrefix is the line-comment token of
// the target language; comments are emitted only when enabled.
func NewPrinter(commentPrefix string, indentSize int, comments bool) *Printer {
	return &Printer{
		output:      &bytes.Buffer{},
		comment:     commentPrefix,
		indentUnit:  strings.Repeat(" ", indentSize),
		atLineStart: true,
		comments:    comments,
	}
}

// String returns the output with exactly one trailing newline.
func (p *Printer) String() string {
	return strings.TrimRight(p.output.String(), "\n") + "\n"
}

// Write writes s, indenting it if it starts a line.
func (p *Printer) Write(s string) {
	if p.atLineStart && len(s) > 0 && s[0] != '\n' {
		p.writeIndent()
	}
	p.output.WriteString(s)
	p.atLineStart = false
}

// Writeln ends the current line.
func (p *Printer) Writeln() {
	p.output.WriteByte('\n')
	p.atLineStart = true
}

// Line writes one formatted line.
func (p *Printer) Line(format string, args ...any) {
	p.Write(fmt.Sprintf(format, args...))
	p.Writeln()
}

// Raw writes pre-formatted text without indentation.
func (p *Printer) Raw(s string) {
	p.output.WriteString(s)
	p.atLineStart = strings.HasSuffix(s, "\n")
}

// Blank writes an empty line unless the output already ends with one.
func (p *Printer) Blank() {
	if !p.atLineStart {
		p.Writeln()
	}
	if !bytes.HasSuffix(p.output.Bytes(), []byte("\n\n")) && p.output.Len() > 0 {
		p.Writeln()
	}
}

// Comment writes text as line comments, one per line of text.
func (p *Printer) Comment(text string) {
	if !p.comments || text == "" {
		return
	}
	text = strings.NewReplacer("\r\n", "\n", "\r", "\n").Replace(text)
	for _, line := range strings.Split(text, "\n") {
		p.Line("%s %s", p.comment, strings.TrimRight(line, "\\ \t"))
	}
}

// InlineComment flattens text onto one line so it can follow code on the
// same line. Trailing backslashes are dropped; C splices the next line onto
// a comment that ends with one.
func InlineComment(text string) string {
	return strings.TrimRight(strings.Join(strings.Fields(text), " "), "\\ ")
}

// Comments reports whether comments are enabled.
func (p *Printer) Comments() bool { return p.comments }

// Indent increases the indentation of following lines.
func (p *Printer) Indent() {
	p.depth++
}

// Dedent decreases the indentation of following lines.
func (p *Printer) Dedent() {
	if p.depth > 0 {
		p.depth--
	}
}

func (p *Printer) writeIndent() {
	for i := 0; i < p.depth; i++ {
		p.output.WriteString(p.indentUnit)
	}
	p.atLineStart = false
}
