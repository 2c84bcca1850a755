package engine

import "sort"

// Literal references a basic event, possibly complemented.
type Literal struct {
	Event      string `json:"event"`
	Complement bool   `json:"complement,omitempty"`
}

// Product is a conjunction of literals with no duplicate or contradictory
// members, kept sorted by event identifier for canonical comparison.
type Product []Literal

// Order is the number of literals in the product.
func (p Product) Order() int { return len(p) }

// Probability multiplies the literal probabilities assuming independence.
// Complement literals contribute (1 - p). The empty product has
// probability 0 by convention; the Unity container is special-cased by the
// quantifier.
func (p Product) Probability(probs map[string]float64) float64 {
	if len(p) == 0 {
		return 0
	}
	result := 1.0
	for _, lit := range p {
		if lit.Complement {
			result *= 1 - probs[lit.Event]
		} else {
			result *= probs[lit.Event]
		}
	}
	return result
}

// Contains reports whether the product references the event with either
// polarity.
func (p Product) Contains(event string) bool {
	for _, lit := range p {
		if lit.Event == event {
			return true
		}
	}
	return false
}

func (p Product) less(q Product) bool {
	if len(p) != len(q) {
		return len(p) < len(q)
	}
	for i := range p {
		if p[i].Event != q[i].Event {
			return p[i].Event < q[i].Event
		}
		if p[i].Complement != q[i].Complement {
			return !p[i].Complement
		}
	}
	return false
}

// ProductContainer is a disjunction of products. The distinguished
// single-empty-product container represents a formula that is always true
// (Unity); the empty container represents a formula that is always false.
type ProductContainer struct {
	Products []Product `json:"products"`
}

// Unity returns the container of the constant-true formula.
func Unity() *ProductContainer {
	return &ProductContainer{Products: []Product{{}}}
}

// EmptyContainer returns the container of the constant-false formula.
func EmptyContainer() *ProductContainer {
	return &ProductContainer{}
}

// IsUnity reports the constant-true container.
func (c *ProductContainer) IsUnity() bool {
	return len(c.Products) == 1 && len(c.Products[0]) == 0
}

// IsEmpty reports the constant-false container.
func (c *ProductContainer) IsEmpty() bool { return len(c.Products) == 0 }

// Coherent reports whether the container is free of complement literals.
func (c *ProductContainer) Coherent() bool {
	for _, p := range c.Products {
		for _, lit := range p {
			if lit.Complement {
				return false
			}
		}
	}
	return true
}

// MaxOrder returns the order of the largest product.
func (c *ProductContainer) MaxOrder() int {
	max := 0
	for _, p := range c.Products {
		if len(p) > max {
			max = len(p)
		}
	}
	return max
}

// Distribution gives the count of products per order, indexed by order.
// Used for diagnostics and printing, not for analysis.
func (c *ProductContainer) Distribution() []int {
	dist := make([]int, c.MaxOrder()+1)
	for _, p := range c.Products {
		dist[len(p)]++
	}
	return dist
}

// Events returns the sorted identifiers of all referenced basic events.
func (c *ProductContainer) Events() []string {
	seen := make(map[string]bool)
	var events []string
	for _, p := range c.Products {
		for _, lit := range p {
			if !seen[lit.Event] {
				seen[lit.Event] = true
				events = append(events, lit.Event)
			}
		}
	}
	sort.Strings(events)
	return events
}

// Occurrences counts the products containing the event in either polarity.
func (c *ProductContainer) Occurrences(event string) int {
	count := 0
	for _, p := range c.Products {
		if p.Contains(event) {
			count++
		}
	}
	return count
}

// sortCanonical fixes the product order so that floating-point summation
// is reproducible across runs regardless of enumeration order.
func (c *ProductContainer) sortCanonical() {
	for _, p := range c.Products {
		sortLiterals(p)
	}
	sort.Slice(c.Products, func(i, j int) bool {
		return c.Products[i].less(c.Products[j])
	})
}

func sortLiterals(p Product) {
	sort.Slice(p, func(i, j int) bool {
		if p[i].Event != p[j].Event {
			return p[i].Event < p[j].Event
		}
		return !p[i].Complement && p[j].Complement
	})
}
