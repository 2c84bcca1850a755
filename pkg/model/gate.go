package model

import "fmt"

// Connective is the Boolean operator of a gate. The set is closed; each
// connective carries its own arity contract checked by Gate.Validate.
type Connective int

const (
	And Connective = iota
	Or
	Not
	Null
	Nor
	Nand
	Xor
	AtLeast
	Inhibit
)

var connectiveNames = map[Connective]string{
	And:     "and",
	Or:      "or",
	Not:     "not",
	Null:    "null",
	Nor:     "nor",
	Nand:    "nand",
	Xor:     "xor",
	AtLeast: "atleast",
	Inhibit: "inhibit",
}

func (c Connective) String() string {
	if name, ok := connectiveNames[c]; ok {
		return name
	}
	return fmt.Sprintf("connective(%d)", int(c))
}

// ParseConnective maps a lower-case connective name to its value.
func ParseConnective(name string) (Connective, error) {
	for c, n := range connectiveNames {
		if n == name {
			return c, nil
		}
	}
	return 0, fmt.Errorf("unknown gate connective %q", name)
}

// Gate is an internal node of the fault tree. Children reference gates or
// events by pointer; the graph must be acyclic.
type Gate struct {
	Name string
	Op   Connective
	K    int // minimum number for AtLeast; ignored otherwise
	Args []Arg
}

// Arg is a single gate child: exactly one of Gate, Basic, or House is set.
type Arg struct {
	Gate  *Gate
	Basic *BasicEvent
	House *HouseEvent
}

// ID returns the identifier of the referenced node.
func (a Arg) ID() string {
	switch {
	case a.Gate != nil:
		return a.Gate.Name
	case a.Basic != nil:
		return a.Basic.Name
	case a.House != nil:
		return a.House.Name
	}
	return ""
}

// Validate re-asserts the arity invariant of the gate connective.
// The model builder checks this at build time; the analysis engine calls
// it again before reduction.
func (g *Gate) Validate() error {
	n := len(g.Args)
	switch g.Op {
	case And, Or, Nor, Nand:
		if n < 2 {
			return &StructuralError{Msg: fmt.Sprintf("gate %q: %s connective requires at least 2 children, got %d", g.Name, g.Op, n)}
		}
	case Not, Null:
		if n != 1 {
			return &StructuralError{Msg: fmt.Sprintf("gate %q: %s connective requires exactly 1 child, got %d", g.Name, g.Op, n)}
		}
	case Xor:
		if n != 2 {
			return &StructuralError{Msg: fmt.Sprintf("gate %q: xor connective requires exactly 2 children, got %d", g.Name, n)}
		}
	case AtLeast:
		if g.K < 1 {
			return &StructuralError{Msg: fmt.Sprintf("gate %q: atleast connective requires a positive minimum, got %d", g.Name, g.K)}
		}
		if n <= g.K {
			return &StructuralError{Msg: fmt.Sprintf("gate %q: atleast(%d) connective requires more than %d children, got %d", g.Name, g.K, g.K, n)}
		}
	case Inhibit:
		if n != 2 {
			return &StructuralError{Msg: fmt.Sprintf("gate %q: inhibit connective requires exactly 2 children, got %d", g.Name, n)}
		}
		if err := g.validateInhibitFlavors(); err != nil {
			return err
		}
	default:
		return &StructuralError{Msg: fmt.Sprintf("gate %q: unknown connective %d", g.Name, int(g.Op))}
	}
	return nil
}

// validateInhibitFlavors requires exactly one basic-flavored and one
// conditional-flavored basic-event child.
func (g *Gate) validateInhibitFlavors() error {
	var basics, conditionals int
	for _, arg := range g.Args {
		if arg.Basic == nil {
			return &StructuralError{Msg: fmt.Sprintf("gate %q: inhibit children must be basic events", g.Name)}
		}
		switch arg.Basic.Flavor {
		case FlavorConditional:
			conditionals++
		default:
			basics++
		}
	}
	if basics != 1 || conditionals != 1 {
		return &StructuralError{Msg: fmt.Sprintf("gate %q: inhibit requires one basic and one conditional child", g.Name)}
	}
	return nil
}
