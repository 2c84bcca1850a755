package engine

import (
	"fmt"
	"math"

	"github.com/relab-tools/faultline/pkg/model"
)

// The reducer builds a shared binary decision diagram from the formula
// graph. Nodes live in an arena addressed by index; a hash-consing table
// keyed by (variable level, then-index, else-index) guarantees that
// structurally equal sub-formulas are physically shared. Terminals occupy
// the two reserved indices.
const (
	bddFalse int32 = 0
	bddTrue  int32 = 1
)

// terminalLevel orders terminals below every variable.
const terminalLevel = math.MaxInt32

type bddNode struct {
	level int32 // variable level; fixed total order shared by all nodes
	high  int32 // then-branch: variable is true
	low   int32 // else-branch: variable is false
}

type bdd struct {
	nodes    []bddNode
	unique   map[bddNode]int32
	andCache map[[2]int32]int32
	orCache  map[[2]int32]int32
	notCache map[int32]int32
}

func newBDD() *bdd {
	b := &bdd{
		unique:   make(map[bddNode]int32),
		andCache: make(map[[2]int32]int32),
		orCache:  make(map[[2]int32]int32),
		notCache: make(map[int32]int32),
	}
	b.nodes = append(b.nodes,
		bddNode{level: terminalLevel}, // false
		bddNode{level: terminalLevel}, // true
	)
	return b
}

func isTerminal(n int32) bool { return n == bddFalse || n == bddTrue }

// mk returns the canonical node for (level, high, low), applying the
// redundancy rule and the insert-if-absent sharing rule.
func (b *bdd) mk(level, high, low int32) int32 {
	if high == low {
		return high
	}
	key := bddNode{level: level, high: high, low: low}
	if idx, ok := b.unique[key]; ok {
		return idx
	}
	idx := int32(len(b.nodes))
	b.nodes = append(b.nodes, key)
	b.unique[key] = idx
	return idx
}

func (b *bdd) variable(level int32) int32 {
	return b.mk(level, bddTrue, bddFalse)
}

func (b *bdd) and(f, g int32) int32 {
	if f == bddFalse || g == bddFalse {
		return bddFalse
	}
	if f == bddTrue {
		return g
	}
	if g == bddTrue || f == g {
		return f
	}
	key := orderedPair(f, g)
	if r, ok := b.andCache[key]; ok {
		return r
	}
	r := b.applyBinary(f, g, b.and)
	b.andCache[key] = r
	return r
}

func (b *bdd) or(f, g int32) int32 {
	if f == bddTrue || g == bddTrue {
		return bddTrue
	}
	if f == bddFalse {
		return g
	}
	if g == bddFalse || f == g {
		return f
	}
	key := orderedPair(f, g)
	if r, ok := b.orCache[key]; ok {
		return r
	}
	r := b.applyBinary(f, g, b.or)
	b.orCache[key] = r
	return r
}

// applyBinary performs the Shannon expansion on the topmost variable of
// the two operands.
func (b *bdd) applyBinary(f, g int32, op func(int32, int32) int32) int32 {
	nf, ng := b.nodes[f], b.nodes[g]
	switch {
	case nf.level == ng.level:
		return b.mk(nf.level, op(nf.high, ng.high), op(nf.low, ng.low))
	case nf.level < ng.level:
		return b.mk(nf.level, op(nf.high, g), op(nf.low, g))
	default:
		return b.mk(ng.level, op(f, ng.high), op(f, ng.low))
	}
}

func (b *bdd) not(f int32) int32 {
	switch f {
	case bddFalse:
		return bddTrue
	case bddTrue:
		return bddFalse
	}
	if r, ok := b.notCache[f]; ok {
		return r
	}
	n := b.nodes[f]
	r := b.mk(n.level, b.not(n.high), b.not(n.low))
	b.notCache[f] = r
	b.notCache[r] = f
	return r
}

func (b *bdd) xor(f, g int32) int32 {
	return b.or(b.and(f, b.not(g)), b.and(b.not(f), g))
}

func orderedPair(f, g int32) [2]int32 {
	if f > g {
		f, g = g, f
	}
	return [2]int32{f, g}
}

// Diagram is the reduced, canonical form of a formula graph: house events
// substituted, constants collapsed, sub-formulas shared.
type Diagram struct {
	bdd      *bdd
	root     int32
	varEvent []string         // level -> basic event identifier
	varOf    map[string]int32 // basic event identifier -> level
}

// Reduce validates the formula graph and builds its shared decision
// diagram. The variable order is the first-seen order of basic events in a
// depth-first walk from the top gate, so reduction is deterministic for a
// given model regardless of map iteration or child shuffling upstream.
func Reduce(m *model.Model, settings Settings) (*Diagram, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}

	d := &Diagram{bdd: newBDD(), varOf: make(map[string]int32)}
	d.assignLevels(m.Top, make(map[*model.Gate]bool))

	results := make(map[*model.Gate]int32)
	root, err := d.convert(m.Top, results)
	if err != nil {
		return nil, err
	}
	d.root = root
	return d, nil
}

// assignLevels fixes the total variable order.
func (d *Diagram) assignLevels(g *model.Gate, visited map[*model.Gate]bool) {
	if visited[g] {
		return
	}
	visited[g] = true
	for _, arg := range g.Args {
		switch {
		case arg.Gate != nil:
			d.assignLevels(arg.Gate, visited)
		case arg.Basic != nil:
			if _, ok := d.varOf[arg.Basic.Name]; !ok {
				d.varOf[arg.Basic.Name] = int32(len(d.varEvent))
				d.varEvent = append(d.varEvent, arg.Basic.Name)
			}
		}
	}
}

func (d *Diagram) convert(g *model.Gate, results map[*model.Gate]int32) (int32, error) {
	if r, ok := results[g]; ok {
		return r, nil
	}
	args := make([]int32, 0, len(g.Args))
	for _, arg := range g.Args {
		switch {
		case arg.Gate != nil:
			r, err := d.convert(arg.Gate, results)
			if err != nil {
				return 0, err
			}
			args = append(args, r)
		case arg.Basic != nil:
			args = append(args, d.bdd.variable(d.varOf[arg.Basic.Name]))
		case arg.House != nil:
			if arg.House.State {
				args = append(args, bddTrue)
			} else {
				args = append(args, bddFalse)
			}
		default:
			return 0, &StructuralError{Msg: fmt.Sprintf("gate %q: empty child reference", g.Name)}
		}
	}

	b := d.bdd
	var result int32
	switch g.Op {
	case model.And, model.Inhibit:
		result = fold(args, b.and)
	case model.Or:
		result = fold(args, b.or)
	case model.Nand:
		result = b.not(fold(args, b.and))
	case model.Nor:
		result = b.not(fold(args, b.or))
	case model.Not:
		result = b.not(args[0])
	case model.Null:
		result = args[0]
	case model.Xor:
		result = b.xor(args[0], args[1])
	case model.AtLeast:
		result = b.atLeast(g.K, args)
	default:
		return 0, &StructuralError{Msg: fmt.Sprintf("gate %q: unknown connective %v", g.Name, g.Op)}
	}
	results[g] = result
	return result, nil
}

func fold(args []int32, op func(int32, int32) int32) int32 {
	result := args[0]
	for _, a := range args[1:] {
		result = op(result, a)
	}
	return result
}

// atLeast decomposes the voting connective by conditioning on each child
// in turn: atleast(k, [x, rest...]) = ite(x, atleast(k-1, rest), atleast(k, rest)).
func (b *bdd) atLeast(k int, args []int32) int32 {
	if k <= 0 {
		return bddTrue
	}
	if len(args) < k {
		return bddFalse
	}
	x := args[0]
	withX := b.atLeast(k-1, args[1:])
	withoutX := b.atLeast(k, args[1:])
	return b.or(b.and(x, withX), b.and(b.not(x), withoutX))
}

// Constant reports whether the reduced formula collapsed to a constant,
// and which one.
func (d *Diagram) Constant() (value, ok bool) {
	switch d.root {
	case bddTrue:
		return true, true
	case bddFalse:
		return false, true
	}
	return false, false
}

// Size is the node count of the diagram including terminals.
func (d *Diagram) Size() int { return len(d.bdd.nodes) }

// VariableCount is the number of distinct basic events in the diagram's
// support order.
func (d *Diagram) VariableCount() int { return len(d.varEvent) }
