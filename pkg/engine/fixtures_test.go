package engine

import (
	"sort"
	"strings"
	"testing"

	"github.com/relab-tools/faultline/pkg/model"
)

// twoTrainDoc is the classic two-train cooling system: both redundant
// trains must fail, each train fails when its pump or its valve fails.
func twoTrainDoc() model.Document {
	return model.Document{
		Name: "two-train",
		Top:  "TopEvent",
		Gates: []model.GateDoc{
			{Name: "TopEvent", Type: "and", Children: []string{"TrainOne", "TrainTwo"}},
			{Name: "TrainOne", Type: "or", Children: []string{"PumpOne", "ValveOne"}},
			{Name: "TrainTwo", Type: "or", Children: []string{"PumpTwo", "ValveTwo"}},
		},
		BasicEvents: []model.BasicEventDoc{
			{Name: "PumpOne", Probability: 0.6},
			{Name: "PumpTwo", Probability: 0.7},
			{Name: "ValveOne", Probability: 0.4},
			{Name: "ValveTwo", Probability: 0.5},
		},
	}
}

func buildModel(t *testing.T, doc model.Document) *model.Model {
	t.Helper()
	m, err := doc.Build()
	if err != nil {
		t.Fatalf("failed to build model: %v", err)
	}
	return m
}

func mustProducts(t *testing.T, m *model.Model, settings Settings) (*ProductContainer, int64) {
	t.Helper()
	d, err := Reduce(m, settings)
	if err != nil {
		t.Fatalf("failed to reduce model: %v", err)
	}
	return d.Products(settings, m.Probabilities(settings.MissionTime))
}

// renderProducts formats a container as sorted "lit lit" strings so tests
// can compare product sets without depending on the canonical ordering.
func renderProducts(c *ProductContainer) []string {
	out := make([]string, 0, len(c.Products))
	for _, p := range c.Products {
		lits := make([]string, 0, len(p))
		for _, l := range p {
			if l.Complement {
				lits = append(lits, "!"+l.Event)
			} else {
				lits = append(lits, l.Event)
			}
		}
		sort.Strings(lits)
		out = append(out, strings.Join(lits, " "))
	}
	sort.Strings(out)
	return out
}

func sameProducts(got *ProductContainer, want []string) bool {
	rendered := renderProducts(got)
	if len(rendered) != len(want) {
		return false
	}
	sorted := append([]string(nil), want...)
	sort.Strings(sorted)
	for i := range rendered {
		if rendered[i] != sorted[i] {
			return false
		}
	}
	return true
}
