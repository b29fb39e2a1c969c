package export

import (
	"errors"

	"github.com/cellkit/cellfmt/internal/dag"
	"github.com/cellkit/cellfmt/pkg/core"
)

// EvaluationOrder returns the bindings with the given roles ordered so that
// every binding follows the bindings it references. The order equals
// declaration order whenever declaration order is already valid. Only
// references between the selected bindings count.
func EvaluationOrder(m *core.Model, roles ...core.Role) ([]*core.Binding, error) {
	g, err := dependencyGraph(m, roles)
	if err != nil {
		return nil, err
	}
	nodes, err := g.TopologicalSort()
	if err != nil {
		var cycle *dag.CycleError
		if errors.As(err, &cycle) {
			return nil, &core.DependencyCycleError{Path: cycle.Path}
		}
		return nil, err
	}
	out := make([]*core.Binding, len(nodes))
	for i, n := range nodes {
		out[i] = n.Data.(*core.Binding)
	}
	return out, nil
}

// Dependencies returns the names of the bindings with the given roles that
// name depends on, directly or transitively, in declaration order.
func Dependencies(m *core.Model, name string, roles ...core.Role) ([]string, error) {
	g, err := dependencyGraph(m, roles)
	if err != nil {
		return nil, err
	}
	return g.GetUpstreamNodes(name), nil
}

func dependencyGraph(m *core.Model, roles []core.Role) (*dag.Graph, error) {
	selected := func(r core.Role) bool {
		if len(roles) == 0 {
			return true
		}
		for _, want := range roles {
			if r == want {
				return true
			}
		}
		return false
	}

	g := dag.NewGraph()
	var members []*core.Binding
	for _, b := range m.Bindings() {
		if selected(b.Role) {
			g.AddNode(b.Name, b)
			members = append(members, b)
		}
	}
	for _, b := range members {
		if b.Role == core.RoleState {
			// a state's expression is its derivative; it reads the current
			// value, so it never orders against other bindings
			continue
		}
		for _, ref := range core.References(b.Expr) {
			if ref == b.Name {
				return nil, &core.DependencyCycleError{Path: []string{b.Name, b.Name}}
			}
			if _, ok := g.GetNode(ref); !ok {
				continue
			}
			if err := g.AddEdge(ref, b.Name); err != nil {
				return nil, err
			}
		}
	}
	return g, nil
}
