package engine

import (
	"sort"

	"github.com/relab-tools/faultline/pkg/model"
)

// The MOCUS-style generator expands gates top-down into sets of literals
// without building a diagram. Negations are pushed down to events by
// De Morgan rewriting, XOR and ATLEAST are unrolled into OR-of-AND form,
// and complement literals are dropped at the end, so the output is the
// classical coherent cut-set approximation.

// mocusSet is a working product: event identifier -> complement flag.
// The nil map is never used; the empty map is the unity product.
type mocusSet map[string]bool

type mocusKey struct {
	gate *model.Gate
	neg  bool
}

type mocus struct {
	settings  Settings
	probs     map[string]float64
	truncated int64
	dropped   bool // a complement literal was erased by the coherent reading
	memo      map[mocusKey][]mocusSet
}

// mocusEnumerate generates minimal cut sets by direct top-down expansion.
// The third result reports whether the coherent approximation erased any
// complement literal.
func mocusEnumerate(m *model.Model, settings Settings, probs map[string]float64) (*ProductContainer, int64, bool, error) {
	if err := settings.Validate(); err != nil {
		return nil, 0, false, err
	}
	if err := m.Validate(); err != nil {
		return nil, 0, false, err
	}
	mc := &mocus{settings: settings, probs: probs, memo: make(map[mocusKey][]mocusSet)}
	sets, err := mc.expand(m.Top, false)
	if err != nil {
		return nil, 0, false, err
	}
	return mc.finish(sets), mc.truncated, mc.dropped, nil
}

func (mc *mocus) expand(g *model.Gate, neg bool) ([]mocusSet, error) {
	key := mocusKey{gate: g, neg: neg}
	if sets, ok := mc.memo[key]; ok {
		return sets, nil
	}
	// NAND and NOR are negated forms of AND and OR.
	op := g.Op
	switch op {
	case model.Nand:
		op, neg = model.And, !neg
	case model.Nor:
		op, neg = model.Or, !neg
	}

	var sets []mocusSet
	var err error
	switch op {
	case model.And, model.Inhibit:
		if neg {
			sets, err = mc.disjoin(g.Args, true) // De Morgan
		} else {
			sets, err = mc.conjoin(g.Args, false)
		}
	case model.Or:
		if neg {
			sets, err = mc.conjoin(g.Args, true) // De Morgan
		} else {
			sets, err = mc.disjoin(g.Args, false)
		}
	case model.Not:
		sets, err = mc.expandArg(g.Args[0], !neg)
	case model.Null:
		sets, err = mc.expandArg(g.Args[0], neg)
	case model.Xor:
		sets, err = mc.expandXor(g.Args[0], g.Args[1], neg)
	case model.AtLeast:
		sets, err = mc.expandAtLeast(g, neg)
	default:
		return nil, &StructuralError{Msg: "unsupported connective in direct enumeration: " + g.Op.String()}
	}
	if err != nil {
		return nil, err
	}
	mc.memo[key] = sets
	return sets, nil
}

// expandArg produces the product sets of a single child with polarity.
func (mc *mocus) expandArg(arg model.Arg, neg bool) ([]mocusSet, error) {
	switch {
	case arg.Gate != nil:
		return mc.expand(arg.Gate, neg)
	case arg.Basic != nil:
		return []mocusSet{{arg.Basic.Name: neg}}, nil
	case arg.House != nil:
		if arg.House.State != neg {
			return []mocusSet{{}}, nil // constant true: the unity product
		}
		return nil, nil // constant false: no products
	}
	return nil, &StructuralError{Msg: "empty child reference"}
}

// conjoin cross-multiplies child product sets, discarding contradictions
// and truncating oversized or improbable combinations.
func (mc *mocus) conjoin(args []model.Arg, negChildren bool) ([]mocusSet, error) {
	result := []mocusSet{{}}
	for _, arg := range args {
		childSets, err := mc.expandArg(arg, negChildren)
		if err != nil {
			return nil, err
		}
		result = mc.cross(result, childSets)
		if len(result) == 0 {
			return nil, nil
		}
	}
	return result, nil
}

func (mc *mocus) disjoin(args []model.Arg, negChildren bool) ([]mocusSet, error) {
	var result []mocusSet
	for _, arg := range args {
		childSets, err := mc.expandArg(arg, negChildren)
		if err != nil {
			return nil, err
		}
		result = append(result, childSets...)
	}
	return result, nil
}

func (mc *mocus) expandXor(a, b model.Arg, neg bool) ([]mocusSet, error) {
	// xor = a!b + !ab; its negation is ab + !a!b.
	polarities := [][2]bool{{false, true}, {true, false}}
	if neg {
		polarities = [][2]bool{{false, false}, {true, true}}
	}
	var result []mocusSet
	for _, pol := range polarities {
		left, err := mc.expandArg(a, pol[0])
		if err != nil {
			return nil, err
		}
		right, err := mc.expandArg(b, pol[1])
		if err != nil {
			return nil, err
		}
		result = append(result, mc.cross(left, right)...)
	}
	return result, nil
}

// expandAtLeast unrolls the voting gate: at least k of n children hold,
// or, negated, at least n-k+1 children fail to hold.
func (mc *mocus) expandAtLeast(g *model.Gate, neg bool) ([]mocusSet, error) {
	k := g.K
	if neg {
		k = len(g.Args) - g.K + 1
	}
	var result []mocusSet
	subset := make([]model.Arg, 0, k)
	var choose func(start int) error
	choose = func(start int) error {
		if len(subset) == k {
			sets, err := mc.conjoin(subset, neg)
			if err != nil {
				return err
			}
			result = append(result, sets...)
			return nil
		}
		for i := start; i <= len(g.Args)-(k-len(subset)); i++ {
			subset = append(subset, g.Args[i])
			if err := choose(i + 1); err != nil {
				return err
			}
			subset = subset[:len(subset)-1]
		}
		return nil
	}
	if err := choose(0); err != nil {
		return nil, err
	}
	return result, nil
}

// cross merges every pair of products from the two operands.
func (mc *mocus) cross(a, b []mocusSet) []mocusSet {
	var result []mocusSet
	for _, left := range a {
		for _, right := range b {
			merged, ok := mergeSets(left, right)
			if !ok {
				continue // contradiction: x and not-x cannot co-occur
			}
			if len(merged) > mc.settings.LimitOrder || mc.setProbability(merged) < mc.settings.CutOff {
				mc.truncated++
				continue
			}
			result = append(result, merged)
		}
	}
	return result
}

func mergeSets(a, b mocusSet) (mocusSet, bool) {
	merged := make(mocusSet, len(a)+len(b))
	for event, complement := range a {
		merged[event] = complement
	}
	for event, complement := range b {
		if existing, ok := merged[event]; ok && existing != complement {
			return nil, false
		}
		merged[event] = complement
	}
	return merged, true
}

func (mc *mocus) setProbability(s mocusSet) float64 {
	p := 1.0
	for event, complement := range s {
		if complement {
			p *= 1 - mc.probs[event]
		} else {
			p *= mc.probs[event]
		}
	}
	return p
}

// finish applies the coherent approximation and absorption minimization.
func (mc *mocus) finish(sets []mocusSet) *ProductContainer {
	// Drop complement literals: an always-satisfiable negation carries no
	// failure requirement in a coherent reading.
	positive := make([]Product, 0, len(sets))
	for _, s := range sets {
		product := make(Product, 0, len(s))
		for event, complement := range s {
			if complement {
				mc.dropped = true
				continue
			}
			product = append(product, Literal{Event: event})
		}
		sortLiterals(product)
		positive = append(positive, product)
	}

	sort.Slice(positive, func(i, j int) bool { return positive[i].less(positive[j]) })
	container := &ProductContainer{}
	for _, candidate := range positive {
		if containsSubset(container.Products, candidate) {
			continue
		}
		container.Products = append(container.Products, candidate)
	}
	container.sortCanonical()
	return container
}

// containsSubset reports whether any accepted product absorbs the
// candidate. Accepted products are visited in ascending order, so a
// duplicate counts as its own subset.
func containsSubset(accepted []Product, candidate Product) bool {
	for _, p := range accepted {
		if len(p) > len(candidate) {
			continue
		}
		if isSubset(p, candidate) {
			return true
		}
	}
	return false
}

func isSubset(small, big Product) bool {
	i := 0
	for _, lit := range big {
		if i == len(small) {
			return true
		}
		if small[i] == lit {
			i++
		}
	}
	return i == len(small)
}
