package core

import (
	"errors"
	"fmt"
	"strings"
)

// Role classifies a binding.
type Role int

// Role constants.
const (
	RoleVariable Role = iota // intermediate, computed from other bindings
	RoleState                // Expr is the time derivative
	RoleConstant
	RoleInput // supplied by the simulation environment, e.g. time
)

var roleNames = map[Role]string{
	RoleVariable: "variable",
	RoleState:    "state",
	RoleConstant: "constant",
	RoleInput:    "input",
}

func (r Role) String() string {
	if s, ok := roleNames[r]; ok {
		return s
	}
	return fmt.Sprintf("Role(%d)", int(r))
}

// Binding associates a name with an expression.
type Binding struct {
	Name    string
	Role    Role
	Expr    Expr // nil for inputs
	Initial Expr // initial value, states only
	Unit    string
	Doc     string
}

// Component returns the dotted prefix of the binding name, or "" when the
// name is not qualified.
func (b *Binding) Component() string {
	if i := strings.LastIndexByte(b.Name, '.'); i > 0 {
		return b.Name[:i]
	}
	return ""
}

// Model is an ordered set of named bindings.
type Model struct {
	Name string
	Meta map[string]string
	Data *DataLog

	bindings []*Binding
	index    map[string]int
}

// NewModel creates an empty model.
func NewModel(name string) *Model {
	return &Model{
		Name:  name,
		Meta:  make(map[string]string),
		index: make(map[string]int),
	}
}

// Add appends b. Names are unique within a model.
func (m *Model) Add(b *Binding) error {
	if b == nil || b.Name == "" {
		return errors.New("binding must have a name")
	}
	if _, exists := m.index[b.Name]; exists {
		return &NameCollisionError{Name: b.Name}
	}
	m.index[b.Name] = len(m.bindings)
	m.bindings = append(m.bindings, b)
	return nil
}

// MustAdd is Add for statically known models; it panics on collision.
func (m *Model) MustAdd(b *Binding) *Model {
	if err := m.Add(b); err != nil {
		panic(err)
	}
	return m
}

// Lookup returns the binding called name.
func (m *Model) Lookup(name string) (*Binding, bool) {
	i, ok := m.index[name]
	if !ok {
		return nil, false
	}
	return m.bindings[i], true
}

// Bindings returns all bindings in insertion order.
func (m *Model) Bindings() []*Binding {
	out := make([]*Binding, len(m.bindings))
	copy(out, m.bindings)
	return out
}

// ByRole returns the bindings with role r in insertion order.
func (m *Model) ByRole(r Role) []*Binding {
	var out []*Binding
	for _, b := range m.bindings {
		if b.Role == r {
			out = append(out, b)
		}
	}
	return out
}

// Names returns all binding names in insertion order.
func (m *Model) Names() []string {
	out := make([]string, len(m.bindings))
	for i, b := range m.bindings {
		out[i] = b.Name
	}
	return out
}

// Len returns the number of bindings.
func (m *Model) Len() int { return len(m.bindings) }

// Validate checks that every reference resolves, that states carry an
// initial value and that calls use the canonical vocabulary.
func (m *Model) Validate() error {
	var errs []error
	for _, b := range m.bindings {
		if b.Role != RoleInput && b.Expr == nil {
			errs = append(errs, fmt.Errorf("binding %q has no expression", b.Name))
		}
		if b.Role == RoleState && b.Initial == nil {
			errs = append(errs, fmt.Errorf("state %q has no initial value", b.Name))
		}
		for _, e := range []Expr{b.Expr, b.Initial} {
			errs = append(errs, m.checkExpr(b.Name, e)...)
		}
	}
	return errors.Join(errs...)
}

func (m *Model) checkExpr(owner string, e Expr) []error {
	var errs []error
	Walk(e, func(n Expr) bool {
		switch x := n.(type) {
		case *Name:
			if _, ok := m.index[x.Ref]; !ok {
				errs = append(errs, &UnresolvedReferenceError{Binding: owner, Ref: x.Ref})
			}
		case *Call:
			if err := CheckCall(x); err != nil {
				errs = append(errs, fmt.Errorf("binding %q: %w", owner, err))
			}
		}
		return true
	})
	return errs
}

// DataLog holds time series attached to a model by a data importer.
type DataLog struct {
	Interval float64 // sampling interval in seconds
	Channels []*Channel
}

// Channel is one recorded signal, split into records (sweeps).
type Channel struct {
	Name    string
	Unit    string
	Records [][]float64
}

// Channel returns the channel called name.
func (d *DataLog) Channel(name string) (*Channel, bool) {
	for _, c := range d.Channels {
		if c.Name == name {
			return c, true
		}
	}
	return nil, false
}

// Samples returns the number of samples per channel across all records.
func (c *Channel) Samples() int {
	n := 0
	for _, r := range c.Records {
		n += len(r)
	}
	return n
}
