package model

import (
	"encoding/json"
	"fmt"
)

// Document is the JSON wire form of a fault tree accepted by the daemon,
// the CLI, and the MCP tools. It is the minimal model-builder surface; the
// full XML input grammar lives outside this project.
type Document struct {
	Name        string          `json:"name"`
	Top         string          `json:"top"`
	Gates       []GateDoc       `json:"gates"`
	BasicEvents []BasicEventDoc `json:"basic_events"`
	HouseEvents []HouseEventDoc `json:"house_events,omitempty"`
}

type GateDoc struct {
	Name     string   `json:"name"`
	Type     string   `json:"type"`
	Min      int      `json:"min,omitempty"` // for atleast
	Children []string `json:"children"`
}

type BasicEventDoc struct {
	Name        string  `json:"name"`
	Probability float64 `json:"probability,omitempty"`
	FailureRate float64 `json:"failure_rate,omitempty"`
	Flavor      string  `json:"flavor,omitempty"`
}

type HouseEventDoc struct {
	Name  string `json:"name"`
	State bool   `json:"state"`
}

// FromJSON decodes and links a model document.
func FromJSON(data []byte) (*Model, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode model document: %w", err)
	}
	return doc.Build()
}

// Build links the document into a validated Model.
func (d *Document) Build() (*Model, error) {
	m := &Model{Name: d.Name}
	basics := make(map[string]*BasicEvent, len(d.BasicEvents))
	houses := make(map[string]*HouseEvent, len(d.HouseEvents))
	gates := make(map[string]*Gate, len(d.Gates))

	for _, e := range d.BasicEvents {
		if _, dup := basics[e.Name]; dup {
			return nil, &StructuralError{Msg: fmt.Sprintf("duplicate basic event %q", e.Name)}
		}
		flavor := FlavorBasic
		if e.Flavor != "" {
			flavor = Flavor(e.Flavor)
			if flavor != FlavorBasic && flavor != FlavorConditional {
				return nil, &StructuralError{Msg: fmt.Sprintf("basic event %q: unknown flavor %q", e.Name, e.Flavor)}
			}
		}
		event := &BasicEvent{Name: e.Name, Probability: e.Probability, FailureRate: e.FailureRate, Flavor: flavor}
		basics[e.Name] = event
		m.Basic = append(m.Basic, event)
	}
	for _, e := range d.HouseEvents {
		if _, dup := houses[e.Name]; dup {
			return nil, &StructuralError{Msg: fmt.Sprintf("duplicate house event %q", e.Name)}
		}
		event := &HouseEvent{Name: e.Name, State: e.State}
		houses[e.Name] = event
		m.House = append(m.House, event)
	}
	for _, g := range d.Gates {
		if _, dup := gates[g.Name]; dup {
			return nil, &StructuralError{Msg: fmt.Sprintf("duplicate gate %q", g.Name)}
		}
		op, err := ParseConnective(g.Type)
		if err != nil {
			return nil, &StructuralError{Msg: err.Error()}
		}
		gate := &Gate{Name: g.Name, Op: op, K: g.Min}
		gates[g.Name] = gate
		m.Gates = append(m.Gates, gate)
	}
	// Second pass: children may reference gates declared in any order.
	for _, g := range d.Gates {
		gate := gates[g.Name]
		for _, child := range g.Children {
			switch {
			case gates[child] != nil:
				gate.Args = append(gate.Args, Arg{Gate: gates[child]})
			case basics[child] != nil:
				gate.Args = append(gate.Args, Arg{Basic: basics[child]})
			case houses[child] != nil:
				gate.Args = append(gate.Args, Arg{House: houses[child]})
			default:
				return nil, &StructuralError{Msg: fmt.Sprintf("gate %q: unknown child %q", g.Name, child)}
			}
		}
	}
	top, ok := gates[d.Top]
	if !ok {
		return nil, &StructuralError{Msg: fmt.Sprintf("top gate %q is not declared", d.Top)}
	}
	m.Top = top
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}
