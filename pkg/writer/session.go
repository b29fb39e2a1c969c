package writer

import (
	"sort"
	"strconv"

	"github.com/cellkit/cellfmt/pkg/dialect"
)

// Session assigns emitted identifiers to model names.
//
// A name is first sanitised by the dialect. If the result is reserved or
// already emitted for another name, "_" is appended, then "_2", "_3", ...
// until it is free. The same name always maps to the same identifier within
// a session, and two names never share one.
type Session struct {
	dialect *dialect.Dialect
	names   map[string]string // model name -> identifier
	taken   map[string]bool   // identifiers in use
}

// NewSession creates an empty session.
func NewSession(d *dialect.Dialect) *Session {
	return &Session{
		dialect: d,
		names:   make(map[string]string),
		taken:   make(map[string]bool),
	}
}

// Reserve marks identifiers used by generated code (loop variables,
// parameters) so model names are rewritten around them.
func (s *Session) Reserve(identifiers ...string) {
	for _, id := range identifiers {
		s.taken[id] = true
	}
}

// Declare assigns identifiers to names in order. Exporters declare every
// binding up front so assignment follows declaration order rather than
// first use.
func (s *Session) Declare(names ...string) {
	for _, n := range names {
		s.Identifier(n)
	}
}

// Identifier returns the identifier for name, assigning one if needed.
func (s *Session) Identifier(name string) string {
	if id, ok := s.names[name]; ok {
		return id
	}
	base := s.dialect.SanitizeIdentifier(name)
	id := base
	if s.unavailable(id) {
		id = base + "_"
		for i := 2; s.unavailable(id); i++ {
			id = base + "_" + strconv.Itoa(i)
		}
	}
	s.names[name] = id
	s.taken[id] = true
	return id
}

func (s *Session) unavailable(id string) bool {
	return s.taken[id] || s.dialect.IsReservedWord(id)
}

// Rewritten returns the names whose identifier differs from the name.
func (s *Session) Rewritten() map[string]string {
	out := make(map[string]string)
	for n, id := range s.names {
		if n != id {
			out[n] = id
		}
	}
	return out
}

// Names returns every name seen so far, sorted.
func (s *Session) Names() []string {
	out := make([]string, 0, len(s.names))
	for n := range s.names {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
