package graph

import (
	"fmt"
	"sort"
	"strings"

	"github.com/relab-tools/faultline/pkg/model"
)

// Project flattens a linked model into its node and edge view. Gate nodes
// carry the connective as a property; basic events carry their probability.
func Project(m *model.Model) *Graph {
	g := NewGraph()
	if m.Top != nil {
		g.Top = m.Top.Name
	}

	for _, e := range m.Basic {
		g.AddNode(&Node{
			ID:    e.Name,
			Type:  NodeBasic,
			Label: e.Name,
			Properties: map[string]string{
				"probability": fmt.Sprintf("%g", e.Probability),
			},
		})
	}
	for _, e := range m.House {
		g.AddNode(&Node{
			ID:    e.Name,
			Type:  NodeHouse,
			Label: e.Name,
			Properties: map[string]string{
				"state": fmt.Sprintf("%t", e.State),
			},
		})
	}

	seen := make(map[*model.Gate]bool)
	var visit func(gate *model.Gate)
	visit = func(gate *model.Gate) {
		if seen[gate] {
			return
		}
		seen[gate] = true

		props := map[string]string{"connective": gate.Op.String()}
		if gate.Op == model.AtLeast {
			props["min"] = fmt.Sprintf("%d", gate.K)
		}
		g.AddNode(&Node{
			ID:         gate.Name,
			Type:       NodeGate,
			Label:      fmt.Sprintf("%s (%s)", gate.Name, gate.Op),
			Properties: props,
		})

		for _, arg := range gate.Args {
			g.AddEdge(&Edge{FromID: arg.ID(), ToID: gate.Name, Type: EdgeFeeds})
			if arg.Gate != nil {
				visit(arg.Gate)
			}
		}
	}
	if m.Top != nil {
		visit(m.Top)
	}
	for _, gate := range m.Gates {
		visit(gate)
	}

	return g
}

// DOT renders the graph in Graphviz dot syntax. Gates are boxes, basic
// events are ellipses, house events are diamonds. Output is stable across
// runs.
func (g *Graph) DOT() string {
	var sb strings.Builder
	sb.WriteString("digraph fault_tree {\n")
	sb.WriteString("  rankdir=BT;\n")

	ids := make([]string, 0, len(g.Nodes))
	for id := range g.Nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		n := g.Nodes[id]
		shape := "box"
		switch n.Type {
		case NodeBasic:
			shape = "ellipse"
		case NodeHouse:
			shape = "diamond"
		}
		fmt.Fprintf(&sb, "  %q [label=%q, shape=%s];\n", n.ID, n.Label, shape)
	}

	for _, e := range g.Edges {
		fmt.Fprintf(&sb, "  %q -> %q;\n", e.FromID, e.ToID)
	}

	sb.WriteString("}\n")
	return sb.String()
}
