package engine

import (
	"fmt"
	"sort"
)

// Quantifier computes the probability of a product container under a
// fixed assignment of basic-event probabilities.
type Quantifier struct {
	settings Settings
	findings []Finding
}

// NewQuantifier returns a quantifier configured by the analysis settings.
func NewQuantifier(settings Settings) *Quantifier {
	return &Quantifier{settings: settings}
}

// Findings reports the non-fatal warnings accumulated by Probability calls.
func (q *Quantifier) Findings() []Finding {
	return q.findings
}

// Probability evaluates the container against the given probability map
// using the configured approximation policy.
func (q *Quantifier) Probability(c *ProductContainer, probs map[string]float64) float64 {
	if c.IsUnity() {
		return 1
	}
	if c.IsEmpty() {
		return 0
	}
	switch q.settings.Approximation {
	case ApproxRareEvent:
		return q.rareEvent(c, probs)
	case ApproxMCUB:
		return q.mcub(c, probs)
	default:
		return q.exact(c, probs)
	}
}

// rareEvent sums the product probabilities. The sum is an upper bound
// and can spill past 1 for likely events.
func (q *Quantifier) rareEvent(c *ProductContainer, probs map[string]float64) float64 {
	var sum float64
	for _, p := range c.Products {
		sum += p.Probability(probs)
	}
	if sum > 1 {
		q.warn(approximation("the rare-event sum exceeded 1 and was adjusted to 1"))
		return 1
	}
	return sum
}

// mcub computes the min-cut-upper-bound 1 - prod(1 - P(product)).
func (q *Quantifier) mcub(c *ProductContainer, probs map[string]float64) float64 {
	if !c.Coherent() {
		q.warn(approximation("the min-cut-upper-bound approximation is unreliable for non-coherent product sets"))
	}
	miss := 1.0
	for _, p := range c.Products {
		miss *= 1 - p.Probability(probs)
	}
	return 1 - miss
}

// exact runs the inclusion-exclusion recursion over the product set.
// The expansion is capped at NumSums terms; a capped expansion is
// reported as an approximation finding.
func (q *Quantifier) exact(c *ProductContainer, probs map[string]float64) float64 {
	nsums := q.settings.NumSums
	if nsums <= 0 {
		nsums = DefaultSettings().NumSums
	}
	capped := false
	p := probOr(c.Products, nsums, probs, &capped)
	if capped {
		q.warn(approximation(fmt.Sprintf("the inclusion-exclusion expansion was capped at %d sums", nsums)))
	}
	if p > 1 {
		q.warn(approximation("the probability value exceeded 1 and was adjusted to 1"))
		return 1
	}
	if p < 0 {
		return 0
	}
	return p
}

func (q *Quantifier) warn(f Finding) {
	for _, have := range q.findings {
		if have == f {
			return
		}
	}
	q.findings = append(q.findings, f)
}

// probOr expands P(p1 + p2 + ...) = P(p1) + P(p2 + ...) - P(p1*(p2 + ...))
// recursively, truncating the expansion after nsums levels.
func probOr(products []Product, nsums int, probs map[string]float64, capped *bool) float64 {
	if len(products) == 0 {
		return 0
	}
	if nsums <= 0 {
		*capped = true
		return 0
	}
	first, rest := products[0], products[1:]
	p := first.Probability(probs)
	p += probOr(rest, nsums, probs, capped)
	p -= probOr(combineProduct(first, rest), nsums-1, probs, capped)
	return p
}

// combineProduct conjoins one product with each member of a set,
// dropping conjunctions that contain a literal and its complement.
func combineProduct(el Product, set []Product) []Product {
	out := make([]Product, 0, len(set))
next:
	for _, p := range set {
		merged := make(map[string]bool, len(el)+len(p))
		for _, l := range el {
			merged[l.Event] = l.Complement
		}
		for _, l := range p {
			if c, ok := merged[l.Event]; ok {
				if c != l.Complement {
					continue next
				}
				continue
			}
			merged[l.Event] = l.Complement
		}
		conj := make(Product, 0, len(merged))
		for ev, c := range merged {
			conj = append(conj, Literal{Event: ev, Complement: c})
		}
		sortLiterals(conj)
		out = append(out, conj)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].less(out[j]) })
	return out
}
