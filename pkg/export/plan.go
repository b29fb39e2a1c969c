package export

import (
	"fmt"

	"github.com/cellkit/cellfmt/pkg/core"
	"github.com/cellkit/cellfmt/pkg/token"
)

// CodePlan splits a model into the sections a code exporter emits.
type CodePlan struct {
	Model *core.Model
	// Time is the input the right-hand side receives as its time argument,
	// nil when the model has no input.
	Time *core.Binding
	// Parameters are constants with literal values, in declaration order.
	Parameters []*core.Binding
	// States are the state bindings in declaration order; their position is
	// their index in the state vector.
	States []*core.Binding
	// Intermediates are derived constants and variables in evaluation order.
	Intermediates []*core.Binding
	// InitialIntermediates are the derived constants the initial values
	// need, in evaluation order.
	InitialIntermediates []*core.Binding
}

// PlanCode validates m and orders its bindings for code generation.
func PlanCode(m *core.Model) (*CodePlan, error) {
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("model %q: %w", m.Name, err)
	}

	plan := &CodePlan{Model: m, States: m.ByRole(core.RoleState)}

	inputs := m.ByRole(core.RoleInput)
	switch len(inputs) {
	case 0:
	case 1:
		plan.Time = inputs[0]
	default:
		return nil, fmt.Errorf("model %q: code exporters accept one input (time), found %d", m.Name, len(inputs))
	}

	for _, b := range m.ByRole(core.RoleConstant) {
		if IsLiteral(b.Expr) {
			plan.Parameters = append(plan.Parameters, b)
		}
	}

	ordered, err := EvaluationOrder(m, core.RoleConstant, core.RoleVariable)
	if err != nil {
		return nil, err
	}
	for _, b := range ordered {
		if b.Role == core.RoleConstant && IsLiteral(b.Expr) {
			continue
		}
		plan.Intermediates = append(plan.Intermediates, b)
	}

	needed, err := plan.initialNeeds()
	if err != nil {
		return nil, err
	}
	for _, b := range plan.Intermediates {
		if needed[b.Name] {
			plan.InitialIntermediates = append(plan.InitialIntermediates, b)
		}
	}
	return plan, nil
}

// initialNeeds collects the derived constants reachable from initial values.
// Initial values may only read constants.
func (p *CodePlan) initialNeeds() (map[string]bool, error) {
	needed := make(map[string]bool)
	for _, s := range p.States {
		for _, ref := range core.References(s.Initial) {
			b, _ := p.Model.Lookup(ref)
			if b.Role != core.RoleConstant {
				return nil, fmt.Errorf("initial value of %q reads %s %q; only constants are allowed", s.Name, b.Role, ref)
			}
			needed[ref] = true
			deps, err := Dependencies(p.Model, ref, core.RoleConstant)
			if err != nil {
				return nil, err
			}
			for _, d := range deps {
				needed[d] = true
			}
		}
	}
	return needed, nil
}

// StateIndex returns the position of a state in the state vector.
func (p *CodePlan) StateIndex(name string) int {
	for i, s := range p.States {
		if s.Name == name {
			return i
		}
	}
	return -1
}

// IsLiteral reports whether e is a number, possibly negated.
func IsLiteral(e core.Expr) bool {
	switch x := e.(type) {
	case *core.Number:
		return true
	case *core.Unary:
		if x.Op == token.NEG || x.Op == token.POS {
			_, ok := x.X.(*core.Number)
			return ok
		}
	}
	return false
}
