package model

import "fmt"

// StructuralError reports an invalid formula graph: wrong gate arity,
// cyclic gate references, or dangling children. It is fatal; analysis does
// not proceed.
type StructuralError struct {
	Msg string
}

func (e *StructuralError) Error() string { return e.Msg }

// Model is the immutable formula graph handed to the analysis engine.
// It is created once by a model builder and read-only afterwards.
type Model struct {
	Name  string
	Top   *Gate
	Gates []*Gate
	Basic []*BasicEvent
	House []*HouseEvent
}

// BasicEvent looks up a basic event by identifier.
func (m *Model) BasicEvent(id string) (*BasicEvent, bool) {
	for _, e := range m.Basic {
		if e.Name == id {
			return e, true
		}
	}
	return nil, false
}

// Probabilities returns the point probability of every basic event at the
// given mission time, keyed by event identifier.
func (m *Model) Probabilities(missionTime float64) map[string]float64 {
	probs := make(map[string]float64, len(m.Basic))
	for _, e := range m.Basic {
		probs[e.Name] = e.P(missionTime)
	}
	return probs
}

// Validate checks the whole graph: per-gate arity, probability ranges, and
// acyclicity. The engine calls this again before reduction.
func (m *Model) Validate() error {
	if m.Top == nil {
		return &StructuralError{Msg: "model has no top gate"}
	}
	for _, e := range m.Basic {
		if e.Probability < 0 || e.Probability > 1 {
			return &StructuralError{Msg: fmt.Sprintf("basic event %q: probability %g outside [0, 1]", e.Name, e.Probability)}
		}
		if e.FailureRate < 0 {
			return &StructuralError{Msg: fmt.Sprintf("basic event %q: negative failure rate %g", e.Name, e.FailureRate)}
		}
	}
	for _, g := range m.Gates {
		if err := g.Validate(); err != nil {
			return err
		}
	}
	if err := m.Top.Validate(); err != nil {
		return err
	}
	return detectCycle(m.Top)
}

const (
	unvisited = iota
	onStack
	done
)

// detectCycle runs a colored depth-first search over gate children.
func detectCycle(top *Gate) error {
	states := make(map[*Gate]int)
	var visit func(g *Gate) error
	visit = func(g *Gate) error {
		switch states[g] {
		case done:
			return nil
		case onStack:
			return &StructuralError{Msg: fmt.Sprintf("cycle detected through gate %q", g.Name)}
		}
		states[g] = onStack
		for _, arg := range g.Args {
			if arg.Gate == nil {
				continue
			}
			if err := visit(arg.Gate); err != nil {
				return err
			}
		}
		states[g] = done
		return nil
	}
	return visit(top)
}
