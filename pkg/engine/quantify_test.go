package engine

import (
	"math"
	"testing"
)

func almostEqual(a, b, tol float64) bool { return math.Abs(a-b) <= tol }

func twoTrainProducts(t *testing.T) (*ProductContainer, map[string]float64) {
	t.Helper()
	m := buildModel(t, twoTrainDoc())
	products, _ := mustProducts(t, m, DefaultSettings())
	return products, m.Probabilities(0)
}

func TestQuantifyExact(t *testing.T) {
	products, probs := twoTrainProducts(t)
	q := NewQuantifier(DefaultSettings())
	got := q.Probability(products, probs)
	if !almostEqual(got, 0.646, 1e-9) {
		t.Errorf("exact probability = %g, want 0.646", got)
	}
	if len(q.Findings()) != 0 {
		t.Errorf("unexpected findings: %v", q.Findings())
	}
}

func TestQuantifyMCUB(t *testing.T) {
	products, probs := twoTrainProducts(t)
	settings := DefaultSettings()
	settings.Approximation = ApproxMCUB
	q := NewQuantifier(settings)
	got := q.Probability(products, probs)
	// 1 - (1-0.42)(1-0.30)(1-0.28)(1-0.20)
	if !almostEqual(got, 0.766144, 1e-9) {
		t.Errorf("mcub probability = %g, want 0.766144", got)
	}
}

func TestQuantifyRareEventClamp(t *testing.T) {
	products, probs := twoTrainProducts(t)
	settings := DefaultSettings()
	settings.Approximation = ApproxRareEvent
	q := NewQuantifier(settings)
	// The raw sum is 0.42+0.30+0.28+0.20 = 1.2.
	got := q.Probability(products, probs)
	if got != 1 {
		t.Errorf("rare-event probability = %g, want 1", got)
	}
	findings := q.Findings()
	if len(findings) != 1 || findings[0].Kind != FindingApproximation {
		t.Errorf("findings = %v, want one approximation warning", findings)
	}
}

func TestQuantifyRareEventSum(t *testing.T) {
	products := &ProductContainer{Products: []Product{
		{{Event: "A"}},
		{{Event: "B"}},
	}}
	probs := map[string]float64{"A": 0.1, "B": 0.2}
	settings := DefaultSettings()
	settings.Approximation = ApproxRareEvent
	got := NewQuantifier(settings).Probability(products, probs)
	if !almostEqual(got, 0.3, 1e-12) {
		t.Errorf("rare-event probability = %g, want 0.3", got)
	}
	exact := NewQuantifier(DefaultSettings()).Probability(products, probs)
	if !almostEqual(exact, 0.28, 1e-12) {
		t.Errorf("exact probability = %g, want 0.28", exact)
	}
}

func TestQuantifyCappedSums(t *testing.T) {
	products, probs := twoTrainProducts(t)
	settings := DefaultSettings()
	settings.NumSums = 1
	q := NewQuantifier(settings)
	// One sum keeps only the first-order terms, which matches the
	// rare-event total of 1.2 and gets clamped.
	got := q.Probability(products, probs)
	if got != 1 {
		t.Errorf("capped probability = %g, want 1", got)
	}
	if len(q.Findings()) == 0 {
		t.Error("capped expansion should yield an approximation finding")
	}
}

func TestQuantifyComplementLiterals(t *testing.T) {
	// f = A*!B + B with P(A)=0.4, P(B)=0.5.
	products := &ProductContainer{Products: []Product{
		{{Event: "A"}, {Event: "B", Complement: true}},
		{{Event: "B"}},
	}}
	probs := map[string]float64{"A": 0.4, "B": 0.5}
	got := NewQuantifier(DefaultSettings()).Probability(products, probs)
	// Disjoint terms: 0.4*0.5 + 0.5 = 0.7.
	if !almostEqual(got, 0.7, 1e-12) {
		t.Errorf("exact probability = %g, want 0.7", got)
	}
}

func TestQuantifyConstants(t *testing.T) {
	probs := map[string]float64{}
	for _, approx := range []Approximation{ApproxNone, ApproxRareEvent, ApproxMCUB} {
		settings := DefaultSettings()
		settings.Approximation = approx
		if got := NewQuantifier(settings).Probability(Unity(), probs); got != 1 {
			t.Errorf("%s: unity probability = %g, want 1", approx, got)
		}
		if got := NewQuantifier(settings).Probability(EmptyContainer(), probs); got != 0 {
			t.Errorf("%s: empty probability = %g, want 0", approx, got)
		}
	}
}

func TestQuantifyMCUBNonCoherentWarning(t *testing.T) {
	products := &ProductContainer{Products: []Product{
		{{Event: "A", Complement: true}},
		{{Event: "B"}},
	}}
	settings := DefaultSettings()
	settings.Approximation = ApproxMCUB
	q := NewQuantifier(settings)
	q.Probability(products, map[string]float64{"A": 0.1, "B": 0.2})
	findings := q.Findings()
	if len(findings) != 1 || findings[0].Kind != FindingApproximation {
		t.Errorf("findings = %v, want one approximation warning", findings)
	}
}
