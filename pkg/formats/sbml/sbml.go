// Package sbml imports Systems Biology Markup Language models.
//
// Compartments, parameters and species become constants, variables or
// states depending on the rules and reactions that touch them. Reaction
// rates are kept as variables named after the reaction and summed into the
// rates of the species they consume and produce.
package sbml

import (
	"fmt"
	"io"
	"strconv"

	"github.com/cellkit/cellfmt/pkg/core"
	"github.com/cellkit/cellfmt/pkg/formats"
	"github.com/cellkit/cellfmt/pkg/token"
)

// Key is the registry key of the importer.
const Key = "sbml"

// TimeName is the input every imported model declares.
const TimeName = "time"

// Importer reads SBML level 2 and 3 core documents.
type Importer struct{}

// Register adds the SBML importer to r.
func Register(r *formats.Registry) error {
	return r.RegisterImporter(Importer{})
}

// Descriptor implements formats.Importer.
func (Importer) Descriptor() core.Descriptor {
	return core.Descriptor{Key: Key, Label: "SBML model"}
}

// Extensions implements formats.Importer.
func (Importer) Extensions() []string {
	return []string{".sbml", ".xml"}
}

// symbol is a compartment, parameter or species before its role is known.
type symbol struct {
	id       string
	kind     string
	value    core.Expr
	unit     string
	doc      string
	boundary bool
	constant bool
	el       *element
}

type rule struct {
	expr core.Expr
	el   *element
}

type reaction struct {
	id     string
	rate   core.Expr
	locals []*symbol
	// stoichiometry per species; reactants are negative
	species []string
	coeffs  map[string]float64
}

type document struct {
	model     *element
	symbols   []*symbol
	byID      map[string]*symbol
	initial   map[string]rule
	assigned  map[string]rule
	rates     map[string]rule
	reactions []*reaction
}

// Import implements formats.Importer.
func (Importer) Import(r io.Reader) (*core.Model, error) {
	root, err := parseTree(r)
	if err != nil {
		return nil, err
	}
	if root.name != "sbml" {
		return nil, root.errorf("root element must be <sbml>, found <%s>", root.name)
	}
	model := root.child("model")
	if model == nil {
		return nil, root.errorf("missing <model>")
	}

	d := &document{
		model:    model,
		byID:     make(map[string]*symbol),
		initial:  make(map[string]rule),
		assigned: make(map[string]rule),
		rates:    make(map[string]rule),
	}
	steps := []func() error{d.readSymbols, d.readInitialAssignments, d.readRules, d.readReactions}
	for _, step := range steps {
		if err := step(); err != nil {
			return nil, err
		}
	}
	return d.build()
}

func (d *document) add(s *symbol) error {
	if s.id == "" {
		return s.el.errorf("%s without id", s.kind)
	}
	if _, dup := d.byID[s.id]; dup {
		return s.el.errorf("duplicate id %q", s.id)
	}
	d.byID[s.id] = s
	d.symbols = append(d.symbols, s)
	return nil
}

func (d *document) readSymbols() error {
	for _, el := range d.model.all("listOfCompartments", "compartment") {
		s := newSymbol(el, "compartment")
		v, err := numberAttr(el, "size", "volume")
		if err != nil {
			return err
		}
		if v == nil {
			v = core.Num(1)
		}
		s.value = v
		if err := d.add(s); err != nil {
			return err
		}
	}
	for _, el := range d.model.all("listOfParameters", "parameter") {
		s := newSymbol(el, "parameter")
		v, err := numberAttr(el, "value")
		if err != nil {
			return err
		}
		s.value = v
		if err := d.add(s); err != nil {
			return err
		}
	}
	for _, el := range d.model.all("listOfSpecies", "species") {
		s := newSymbol(el, "species")
		if u, ok := el.attr("substanceUnits"); ok {
			s.unit = u
		}
		v, err := numberAttr(el, "initialAmount", "initialConcentration")
		if err != nil {
			return err
		}
		s.value = v
		s.boundary = el.attrs["boundaryCondition"] == "true"
		if err := d.add(s); err != nil {
			return err
		}
	}
	return nil
}

func newSymbol(el *element, kind string) *symbol {
	s := &symbol{kind: kind, el: el}
	s.id, _ = el.attr("id")
	s.unit, _ = el.attr("units")
	if name, ok := el.attr("name"); ok && name != s.id {
		s.doc = name
	}
	s.constant = el.attrs["constant"] == "true"
	return s
}

// numberAttr returns the first of names present on el.
func numberAttr(el *element, names ...string) (core.Expr, error) {
	for _, name := range names {
		raw, ok := el.attr(name)
		if !ok {
			continue
		}
		n, err := core.ParseNumber(raw)
		if err != nil {
			return nil, el.errorf("attribute %s: %v", name, err)
		}
		return n, nil
	}
	return nil, nil
}

func (d *document) readInitialAssignments() error {
	conv := &mathConverter{time: TimeName}
	for _, el := range d.model.all("listOfInitialAssignments", "initialAssignment") {
		id, _ := el.attr("symbol")
		if _, ok := d.byID[id]; !ok {
			return el.errorf("initial assignment to undeclared symbol %q", id)
		}
		x, err := conv.convertMath(el.child("math"))
		if err != nil {
			return err
		}
		if x == nil {
			return el.errorf("initial assignment without <math>")
		}
		d.initial[id] = rule{expr: x, el: el}
	}
	return nil
}

func (d *document) readRules() error {
	list := d.model.child("listOfRules")
	if list == nil {
		return nil
	}
	conv := &mathConverter{time: TimeName}
	for _, el := range list.children {
		var target map[string]rule
		switch el.name {
		case "assignmentRule":
			target = d.assigned
		case "rateRule":
			target = d.rates
		case "algebraicRule":
			return el.errorf("algebraic rules are not supported")
		default:
			continue
		}
		id, _ := el.attr("variable")
		if _, ok := d.byID[id]; !ok {
			return el.errorf("rule for undeclared symbol %q", id)
		}
		if _, dup := d.assigned[id]; dup {
			return el.errorf("symbol %q has more than one rule", id)
		}
		if _, dup := d.rates[id]; dup {
			return el.errorf("symbol %q has more than one rule", id)
		}
		x, err := conv.convertMath(el.child("math"))
		if err != nil {
			return err
		}
		if x == nil {
			return el.errorf("rule without <math>")
		}
		target[id] = rule{expr: x, el: el}
	}
	return nil
}

func (d *document) readReactions() error {
	for _, el := range d.model.all("listOfReactions", "reaction") {
		rx := &reaction{coeffs: make(map[string]float64)}
		rx.id, _ = el.attr("id")
		if rx.id == "" {
			return el.errorf("reaction without id")
		}
		if _, dup := d.byID[rx.id]; dup {
			return el.errorf("duplicate id %q", rx.id)
		}

		for _, part := range []struct {
			list string
			sign float64
		}{{"listOfReactants", -1}, {"listOfProducts", 1}} {
			for _, ref := range el.all(part.list, "speciesReference") {
				sp, _ := ref.attr("species")
				if s, ok := d.byID[sp]; !ok || s.kind != "species" {
					return ref.errorf("reference to undeclared species %q", sp)
				}
				coeff := 1.0
				if raw, ok := ref.attr("stoichiometry"); ok {
					v, err := strconv.ParseFloat(raw, 64)
					if err != nil {
						return ref.errorf("stoichiometry: %v", err)
					}
					coeff = v
				}
				if _, seen := rx.coeffs[sp]; !seen {
					rx.species = append(rx.species, sp)
				}
				rx.coeffs[sp] += part.sign * coeff
			}
		}

		law := el.child("kineticLaw")
		if law == nil {
			return el.errorf("reaction %q has no <kineticLaw>", rx.id)
		}
		conv := &mathConverter{time: TimeName, locals: make(map[string]string)}
		params := append(law.all("listOfParameters", "parameter"), law.all("listOfLocalParameters", "localParameter")...)
		for _, p := range params {
			s := newSymbol(p, "parameter")
			v, err := numberAttr(p, "value")
			if err != nil {
				return err
			}
			if v == nil {
				return p.errorf("local parameter %q has no value", s.id)
			}
			local := s.id
			s.id = rx.id + "." + local
			s.value = v
			s.constant = true
			conv.locals[local] = s.id
			rx.locals = append(rx.locals, s)
		}
		rate, err := conv.convertMath(law.child("math"))
		if err != nil {
			return err
		}
		if rate == nil {
			return law.errorf("kinetic law without <math>")
		}
		rx.rate = rate
		d.reactions = append(d.reactions, rx)
	}
	return nil
}

// reactive reports whether reactions change s.
func (d *document) reactive(s *symbol) bool {
	if s.kind != "species" || s.boundary || s.constant {
		return false
	}
	for _, rx := range d.reactions {
		if rx.coeffs[s.id] != 0 {
			return true
		}
	}
	return false
}

// speciesRate sums stoichiometry times reaction rate over all reactions.
func (d *document) speciesRate(id string) core.Expr {
	var acc core.Expr
	for _, rx := range d.reactions {
		c := rx.coeffs[id]
		if c == 0 {
			continue
		}
		term := core.Expr(core.Ref(rx.id))
		if mag := abs(c); mag != 1 {
			term = core.Bin(token.STAR, core.Num(mag), term)
		}
		switch {
		case acc == nil && c < 0:
			acc = core.Neg(term)
		case acc == nil:
			acc = term
		case c < 0:
			acc = core.Bin(token.MINUS, acc, term)
		default:
			acc = core.Bin(token.PLUS, acc, term)
		}
	}
	return acc
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func (d *document) build() (*core.Model, error) {
	name, _ := d.model.attr("name")
	if name == "" {
		name, _ = d.model.attr("id")
	}
	m := core.NewModel(name)
	if id, ok := d.model.attr("id"); ok {
		m.Meta["sbml_id"] = id
	}
	if err := m.Add(&core.Binding{Name: TimeName, Role: core.RoleInput, Unit: d.model.attrs["timeUnits"]}); err != nil {
		return nil, d.model.errorf("%v", err)
	}

	for _, s := range d.symbols {
		b := &core.Binding{Name: s.id, Unit: s.unit, Doc: s.doc}
		start := s.value
		if ia, ok := d.initial[s.id]; ok {
			start = ia.expr
		}

		rate, hasRate := d.rates[s.id]
		switch {
		case hasRate || d.reactive(s):
			b.Role = core.RoleState
			b.Initial = start
			if hasRate {
				b.Expr = rate.expr
			} else {
				b.Expr = d.speciesRate(s.id)
			}
			if b.Initial == nil {
				return nil, s.el.errorf("state %q has no initial value", s.id)
			}
		case d.assigned[s.id].expr != nil:
			b.Role = core.RoleVariable
			b.Expr = d.assigned[s.id].expr
		default:
			b.Role = core.RoleConstant
			b.Expr = start
			if b.Expr == nil {
				return nil, s.el.errorf("%s %q has no value", s.kind, s.id)
			}
		}
		if err := m.Add(b); err != nil {
			return nil, s.el.errorf("%v", err)
		}
	}

	for _, rx := range d.reactions {
		for _, p := range rx.locals {
			if err := m.Add(&core.Binding{Name: p.id, Role: core.RoleConstant, Expr: p.value, Unit: p.unit, Doc: p.doc}); err != nil {
				return nil, p.el.errorf("%v", err)
			}
		}
		if err := m.Add(&core.Binding{Name: rx.id, Role: core.RoleVariable, Expr: rx.rate, Doc: "rate of reaction " + rx.id}); err != nil {
			return nil, fmt.Errorf("reaction %q: %w", rx.id, err)
		}
	}

	if err := m.Validate(); err != nil {
		return nil, &core.MalformedInputError{Format: Key, Path: d.model.path, Line: d.model.line, Msg: err.Error()}
	}
	return m, nil
}
