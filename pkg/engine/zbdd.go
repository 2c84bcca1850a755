package engine

// Product generation walks the reduced diagram through a zero-suppressed
// decision diagram. Literals are encoded on interleaved levels: the
// positive literal of variable v sits at 2v, its complement at 2v+1, so
// the ZBDD shares the diagram's fixed variable order with both polarities.
const (
	zEmpty int32 = 0 // no products: the constant-false formula
	zBase  int32 = 1 // the empty product: the constant-true formula
)

type zddNode struct {
	lit  int32 // encoded literal
	high int32 // products containing the literal
	low  int32 // products without it
}

type zdd struct {
	nodes        []zddNode
	unique       map[zddNode]int32
	unionCache   map[[2]int32]int32
	productCache map[[2]int32]int32
	subsumeCache map[[2]int32]int32
	countCache   map[int32]int64
}

func newZDD() *zdd {
	z := &zdd{
		unique:       make(map[zddNode]int32),
		unionCache:   make(map[[2]int32]int32),
		productCache: make(map[[2]int32]int32),
		subsumeCache: make(map[[2]int32]int32),
		countCache:   make(map[int32]int64),
	}
	z.nodes = append(z.nodes, zddNode{}, zddNode{})
	return z
}

// mk applies the zero-suppression rule before consulting the sharing
// table.
func (z *zdd) mk(lit, high, low int32) int32 {
	if high == zEmpty {
		return low
	}
	key := zddNode{lit: lit, high: high, low: low}
	if idx, ok := z.unique[key]; ok {
		return idx
	}
	idx := int32(len(z.nodes))
	z.nodes = append(z.nodes, key)
	z.unique[key] = idx
	return idx
}

// union is set union of two product sets.
func (z *zdd) union(a, b int32) int32 {
	if a == zEmpty || a == b {
		return b
	}
	if b == zEmpty {
		return a
	}
	if a == zBase {
		nb := z.nodes[b]
		return z.mk(nb.lit, nb.high, z.union(zBase, nb.low))
	}
	if b == zBase {
		return z.union(b, a)
	}
	key := orderedPair(a, b)
	if r, ok := z.unionCache[key]; ok {
		return r
	}
	na, nb := z.nodes[a], z.nodes[b]
	var r int32
	switch {
	case na.lit == nb.lit:
		r = z.mk(na.lit, z.union(na.high, nb.high), z.union(na.low, nb.low))
	case na.lit < nb.lit:
		r = z.mk(na.lit, na.high, z.union(na.low, b))
	default:
		r = z.mk(nb.lit, nb.high, z.union(nb.low, a))
	}
	z.unionCache[key] = r
	return r
}

// product is the conjunction cross-product of two product sets.
// Pairings that place a variable and its complement in the same product
// are contradictions and vanish.
func (z *zdd) product(a, b int32) int32 {
	if a == zEmpty || b == zEmpty {
		return zEmpty
	}
	if a == zBase {
		return b
	}
	if b == zBase || a == b {
		return a
	}
	key := orderedPair(a, b)
	if r, ok := z.productCache[key]; ok {
		return r
	}
	na, nb := z.nodes[a], z.nodes[b]
	if na.lit > nb.lit {
		na, nb = nb, na
		a, b = b, a
	}
	var r int32
	switch {
	case na.lit == nb.lit:
		// (x*A1 + A0)(x*B1 + B0) = x*(A1B1 + A1B0 + A0B1) + A0B0
		high := z.union(z.product(na.high, nb.high),
			z.union(z.product(na.high, nb.low), z.product(na.low, nb.high)))
		r = z.mk(na.lit, high, z.product(na.low, nb.low))
	case na.lit^1 == nb.lit:
		// Opposite polarities of one variable: the joint branch vanishes.
		// (x*A1 + A0)(!x*B1 + B0) = x*A1*B0 + !x*A0*B1 + A0*B0
		high := z.product(na.high, nb.low)
		negated := z.mk(nb.lit, z.product(na.low, nb.high), z.product(na.low, nb.low))
		r = z.mk(na.lit, high, negated)
	default:
		r = z.mk(na.lit, z.product(na.high, b), z.product(na.low, b))
	}
	z.productCache[key] = r
	return r
}

// subsume removes from f every product that is a superset of some product
// in g.
func (z *zdd) subsume(f, g int32) int32 {
	if g == zBase {
		return zEmpty
	}
	if g == zEmpty || f == zEmpty || f == zBase {
		return f
	}
	key := [2]int32{f, g}
	if r, ok := z.subsumeCache[key]; ok {
		return r
	}
	nf, ng := z.nodes[f], z.nodes[g]
	var r int32
	switch {
	case nf.lit > ng.lit:
		r = z.subsume(f, ng.low)
	case nf.lit == ng.lit:
		high := z.subsume(nf.high, ng.high)
		high = z.subsume(high, ng.low)
		r = z.mk(nf.lit, high, z.subsume(nf.low, ng.low))
	default:
		r = z.mk(nf.lit, z.subsume(nf.high, g), z.subsume(nf.low, g))
	}
	z.subsumeCache[key] = r
	return r
}

// minimize applies bottom-up subsumption so that no product contains
// another.
func (z *zdd) minimize(f int32, memo map[int32]int32) int32 {
	if f == zEmpty || f == zBase {
		return f
	}
	if r, ok := memo[f]; ok {
		return r
	}
	n := z.nodes[f]
	high := z.minimize(n.high, memo)
	low := z.minimize(n.low, memo)
	high = z.subsume(high, low)
	var r int32
	if high == zEmpty {
		r = low
	} else {
		r = z.mk(n.lit, high, low)
	}
	memo[f] = r
	return r
}

// count returns the number of products in the set.
func (z *zdd) count(f int32) int64 {
	if f == zEmpty {
		return 0
	}
	if f == zBase {
		return 1
	}
	if c, ok := z.countCache[f]; ok {
		return c
	}
	n := z.nodes[f]
	c := z.count(n.high) + z.count(n.low)
	z.countCache[f] = c
	return c
}

// productGenerator converts the reduced BDD into a minimized product set.
type productGenerator struct {
	d        *Diagram
	z        *zdd
	settings Settings
}

// Products enumerates the minimal cut sets (coherent mode) or prime
// implicants (exact mode) of the diagram, truncated by the configured
// order and probability limits. The returned count is the number of
// products discarded by truncation.
func (d *Diagram) Products(settings Settings, probs map[string]float64) (*ProductContainer, int64) {
	if value, ok := d.Constant(); ok {
		if value {
			return Unity(), 0
		}
		return EmptyContainer(), 0
	}
	g := &productGenerator{d: d, z: newZDD(), settings: settings}
	var root int32
	if settings.PrimeImplicants {
		root = g.primeImplicants(d.root, make(map[int32]int32))
	} else {
		root = g.minimalCutSets(d.root, make(map[int32]int32))
	}
	root = g.z.minimize(root, make(map[int32]int32))
	return g.extract(root, probs)
}

// minimalCutSets drops complement literals: the else-branch of each
// diagram node contributes its products without recording the negated
// variable. Exact for monotone formulas, a safe coherent approximation
// otherwise.
func (g *productGenerator) minimalCutSets(n int32, memo map[int32]int32) int32 {
	switch n {
	case bddTrue:
		return zBase
	case bddFalse:
		return zEmpty
	}
	if r, ok := memo[n]; ok {
		return r
	}
	node := g.d.bdd.nodes[n]
	high := g.minimalCutSets(node.high, memo)
	low := g.minimalCutSets(node.low, memo)
	high = g.z.subsume(high, low)
	var r int32
	if high == zEmpty {
		r = low
	} else {
		r = g.z.mk(posLit(node.level), high, low)
	}
	memo[n] = r
	return r
}

// primeImplicants keeps both polarities and applies the consensus rule:
// implicants of high AND low need neither literal, and the remaining
// branch implicants are extended with the deciding literal.
func (g *productGenerator) primeImplicants(n int32, memo map[int32]int32) int32 {
	switch n {
	case bddTrue:
		return zBase
	case bddFalse:
		return zEmpty
	}
	if r, ok := memo[n]; ok {
		return r
	}
	node := g.d.bdd.nodes[n]
	consensus := g.primeImplicants(g.d.bdd.and(node.high, node.low), memo)
	high := g.z.subsume(g.primeImplicants(node.high, memo), consensus)
	low := g.z.subsume(g.primeImplicants(node.low, memo), consensus)

	r := consensus
	if high != zEmpty {
		r = g.z.union(r, g.z.mk(posLit(node.level), high, zEmpty))
	}
	if low != zEmpty {
		r = g.z.union(r, g.z.mk(negLit(node.level), low, zEmpty))
	}
	memo[n] = r
	return r
}

func posLit(level int32) int32 { return 2 * level }
func negLit(level int32) int32 { return 2*level + 1 }

// extract walks the product set depth-first, pruning branches that exceed
// the order limit or fall below the probability cut-off. Pruned branches
// are counted, not silently lost.
func (g *productGenerator) extract(root int32, probs map[string]float64) (*ProductContainer, int64) {
	container := &ProductContainer{}
	var truncated int64
	prefix := make(Product, 0, g.settings.LimitOrder)

	var walk func(n int32, prob float64)
	walk = func(n int32, prob float64) {
		switch n {
		case zEmpty:
			return
		case zBase:
			product := make(Product, len(prefix))
			copy(product, prefix)
			container.Products = append(container.Products, product)
			return
		}
		node := g.z.nodes[n]
		walk(node.low, prob)

		event := g.d.varEvent[node.lit>>1]
		complement := node.lit&1 == 1
		litProb := probs[event]
		if complement {
			litProb = 1 - litProb
		}
		nextProb := prob * litProb
		if len(prefix)+1 > g.settings.LimitOrder || nextProb < g.settings.CutOff {
			truncated += g.z.count(node.high)
			return
		}
		prefix = append(prefix, Literal{Event: event, Complement: complement})
		walk(node.high, nextProb)
		prefix = prefix[:len(prefix)-1]
	}
	walk(root, 1)
	container.sortCanonical()
	return container, truncated
}
