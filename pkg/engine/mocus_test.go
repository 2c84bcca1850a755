package engine

import (
	"testing"

	"github.com/relab-tools/faultline/pkg/model"
)

func enumerate(t *testing.T, doc model.Document, settings Settings) (*ProductContainer, int64, bool) {
	t.Helper()
	m := buildModel(t, doc)
	products, truncated, dropped, err := mocusEnumerate(m, settings, m.Probabilities(settings.MissionTime))
	if err != nil {
		t.Fatalf("enumeration failed: %v", err)
	}
	return products, truncated, dropped
}

func TestMocusMatchesDiagramOnTwoTrain(t *testing.T) {
	settings := DefaultSettings()
	settings.Algorithm = AlgorithmMOCUS
	direct, truncated, dropped := enumerate(t, twoTrainDoc(), settings)
	if truncated != 0 {
		t.Errorf("truncated = %d, want 0", truncated)
	}
	if dropped {
		t.Error("coherent tree should not drop literals")
	}

	m := buildModel(t, twoTrainDoc())
	viaDiagram, _ := mustProducts(t, m, DefaultSettings())
	if !sameProducts(direct, renderProducts(viaDiagram)) {
		t.Errorf("direct = %v, diagram = %v", renderProducts(direct), renderProducts(viaDiagram))
	}
}

func TestMocusXor(t *testing.T) {
	doc := model.Document{
		Name: "exclusive",
		Top:  "TopEvent",
		Gates: []model.GateDoc{
			{Name: "TopEvent", Type: "xor", Children: []string{"A", "B"}},
		},
		BasicEvents: []model.BasicEventDoc{
			{Name: "A", Probability: 0.1},
			{Name: "B", Probability: 0.2},
		},
	}
	settings := DefaultSettings()
	settings.Algorithm = AlgorithmMOCUS
	products, _, dropped := enumerate(t, doc, settings)
	if !dropped {
		t.Error("xor expansion should drop complement literals")
	}
	if !sameProducts(products, []string{"A", "B"}) {
		t.Errorf("products = %v, want [A B]", renderProducts(products))
	}
}

func TestMocusAtLeast(t *testing.T) {
	doc := model.Document{
		Name: "two-of-three",
		Top:  "Vote",
		Gates: []model.GateDoc{
			{Name: "Vote", Type: "atleast", Min: 2, Children: []string{"A", "B", "C"}},
		},
		BasicEvents: []model.BasicEventDoc{
			{Name: "A", Probability: 0.1},
			{Name: "B", Probability: 0.1},
			{Name: "C", Probability: 0.1},
		},
	}
	settings := DefaultSettings()
	settings.Algorithm = AlgorithmMOCUS
	products, _, _ := enumerate(t, doc, settings)
	want := []string{"A B", "A C", "B C"}
	if !sameProducts(products, want) {
		t.Errorf("products = %v, want %v", renderProducts(products), want)
	}
}

func TestMocusAbsorption(t *testing.T) {
	doc := model.Document{
		Name: "absorbed",
		Top:  "TopEvent",
		Gates: []model.GateDoc{
			{Name: "TopEvent", Type: "or", Children: []string{"A", "Both"}},
			{Name: "Both", Type: "and", Children: []string{"A", "B"}},
		},
		BasicEvents: []model.BasicEventDoc{
			{Name: "A", Probability: 0.1},
			{Name: "B", Probability: 0.2},
		},
	}
	settings := DefaultSettings()
	settings.Algorithm = AlgorithmMOCUS
	products, _, _ := enumerate(t, doc, settings)
	if !sameProducts(products, []string{"A"}) {
		t.Errorf("products = %v, want [A]", renderProducts(products))
	}
}

func TestMocusHouseEvents(t *testing.T) {
	doc := model.Document{
		Name: "switched",
		Top:  "TopEvent",
		Gates: []model.GateDoc{
			{Name: "TopEvent", Type: "and", Children: []string{"Switch", "Pump"}},
		},
		BasicEvents: []model.BasicEventDoc{{Name: "Pump", Probability: 0.1}},
		HouseEvents: []model.HouseEventDoc{{Name: "Switch", State: true}},
	}
	settings := DefaultSettings()
	settings.Algorithm = AlgorithmMOCUS
	products, _, _ := enumerate(t, doc, settings)
	if !sameProducts(products, []string{"Pump"}) {
		t.Errorf("products = %v, want [Pump]", renderProducts(products))
	}

	doc.HouseEvents[0].State = false
	products, _, _ = enumerate(t, doc, settings)
	if !products.IsEmpty() {
		t.Errorf("products = %v, want none with the switch off", renderProducts(products))
	}
}

func TestMocusNorApproximation(t *testing.T) {
	// !(A + B) has only complement literals; the coherent reading
	// degenerates to the unity product.
	doc := model.Document{
		Name: "negated",
		Top:  "TopEvent",
		Gates: []model.GateDoc{
			{Name: "TopEvent", Type: "nor", Children: []string{"A", "B"}},
		},
		BasicEvents: []model.BasicEventDoc{
			{Name: "A", Probability: 0.1},
			{Name: "B", Probability: 0.2},
		},
	}
	settings := DefaultSettings()
	settings.Algorithm = AlgorithmMOCUS
	products, _, dropped := enumerate(t, doc, settings)
	if !dropped {
		t.Error("nor expansion should drop complement literals")
	}
	if !products.IsUnity() {
		t.Errorf("products = %v, want the unity product", renderProducts(products))
	}
}
