package template

import "strings"

type itemKind int

const (
	itemText itemKind = iota
	itemExpr
	itemDirective
)

func (k itemKind) String() string {
	switch k {
	case itemText:
		return "text"
	case itemExpr:
		return "expr"
	case itemDirective:
		return "directive"
	}
	return "?"
}

type item struct {
	kind itemKind
	val  string
	pos  Pos
}

type scanner struct {
	src   string
	file  string
	off   int
	line  int
	col   int
	items []item
}

// scan splits src into text, expression and directive items. Empty text is
// never emitted.
func scan(src, file string) ([]item, error) {
	s := &scanner{src: src, file: file, line: 1, col: 1}
	lineStart := true
	for s.off < len(src) {
		rest := src[s.off:]
		open := nextOpen(rest)
		switch {
		case open < 0:
			s.text(rest)
			s.moveTo(len(src))
			lineStart = false
		case open > 0:
			text := rest[:open]
			if rest[open+1] == '*' {
				text = dropIndent(text, lineStart)
			}
			s.text(text)
			s.moveTo(s.off + open)
			lineStart = false
		case rest[1] == '{':
			if err := s.expr(); err != nil {
				return nil, err
			}
			lineStart = false
		default:
			nl, err := s.directive()
			if err != nil {
				return nil, err
			}
			lineStart = nl
		}
	}
	return s.items, nil
}

// nextOpen returns the offset of the first {{ or {* in s, or -1.
func nextOpen(s string) int {
	for i := 0; i+1 < len(s); i++ {
		if s[i] == '{' && (s[i+1] == '{' || s[i+1] == '*') {
			return i
		}
	}
	return -1
}

// dropIndent strips the blanks between the last newline and a directive.
func dropIndent(text string, lineStart bool) string {
	trimmed := strings.TrimRight(text, " \t")
	if (trimmed == "" && lineStart) || strings.HasSuffix(trimmed, "\n") {
		return trimmed
	}
	return text
}

func (s *scanner) pos() Pos {
	return Pos{File: s.file, Line: s.line, Col: s.col}
}

func (s *scanner) moveTo(off int) {
	for _, r := range s.src[s.off:off] {
		if r == '\n' {
			s.line++
			s.col = 1
		} else {
			s.col++
		}
	}
	s.off = off
}

func (s *scanner) text(v string) {
	if v != "" {
		s.items = append(s.items, item{kind: itemText, val: v, pos: s.pos()})
	}
}

// expr consumes {{ ... }}. Braces inside the expression nest so dict
// literals survive.
func (s *scanner) expr() error {
	start := s.pos()
	body := s.src[s.off+2:]
	depth := 0
	for i := 0; i < len(body); i++ {
		switch body[i] {
		case '{':
			depth++
		case '}':
			if depth > 0 {
				depth--
				continue
			}
			if strings.HasPrefix(body[i:], "}}") {
				s.items = append(s.items, item{kind: itemExpr, val: strings.TrimSpace(body[:i]), pos: start})
				s.moveTo(s.off + 2 + i + 2)
				return nil
			}
		}
	}
	return errorf(PhaseScan, start, "unclosed expression: missing '}}'")
}

// directive consumes {* ... *} plus the line break right after it, and
// reports whether a line break was consumed.
func (s *scanner) directive() (bool, error) {
	start := s.pos()
	body := s.src[s.off+2:]
	end := strings.Index(body, "*}")
	if end < 0 {
		return false, errorf(PhaseScan, start, "unclosed directive: missing '*}'")
	}
	s.items = append(s.items, item{kind: itemDirective, val: strings.TrimSpace(body[:end]), pos: start})

	next := s.off + 2 + end + 2
	nl := true
	switch {
	case strings.HasPrefix(s.src[next:], "\n"):
		next++
	case strings.HasPrefix(s.src[next:], "\r\n"):
		next += 2
	default:
		nl = false
	}
	s.moveTo(next)
	return nl, nil
}
