package engine

import (
	"testing"

	"github.com/relab-tools/faultline/pkg/model"
)

func TestReduceTwoTrain(t *testing.T) {
	m := buildModel(t, twoTrainDoc())
	d, err := Reduce(m, DefaultSettings())
	if err != nil {
		t.Fatalf("Reduce failed: %v", err)
	}
	if got := d.VariableCount(); got != 4 {
		t.Errorf("VariableCount = %d, want 4", got)
	}
	if _, constant := d.Constant(); constant {
		t.Error("two-train diagram should not be constant")
	}
}

func TestReduceDeterministic(t *testing.T) {
	m := buildModel(t, twoTrainDoc())
	first, err := Reduce(m, DefaultSettings())
	if err != nil {
		t.Fatalf("Reduce failed: %v", err)
	}
	second, err := Reduce(m, DefaultSettings())
	if err != nil {
		t.Fatalf("Reduce failed: %v", err)
	}
	if first.Size() != second.Size() {
		t.Errorf("diagram size differs between runs: %d vs %d", first.Size(), second.Size())
	}
	probs := m.Probabilities(0)
	a, _ := first.Products(DefaultSettings(), probs)
	b, _ := second.Products(DefaultSettings(), probs)
	ra, rb := renderProducts(a), renderProducts(b)
	if len(ra) != len(rb) {
		t.Fatalf("product count differs between runs: %d vs %d", len(ra), len(rb))
	}
	for i := range ra {
		if ra[i] != rb[i] {
			t.Errorf("product %d differs between runs: %q vs %q", i, ra[i], rb[i])
		}
	}
}

func TestReduceConstantHouse(t *testing.T) {
	cases := []struct {
		name  string
		gate  string
		state bool
		want  bool // constant value
	}{
		{name: "or with true house is unity", gate: "or", state: true, want: true},
		{name: "and with false house is null", gate: "and", state: false, want: false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			doc := model.Document{
				Name: "switched",
				Top:  "TopEvent",
				Gates: []model.GateDoc{
					{Name: "TopEvent", Type: tc.gate, Children: []string{"Switch", "Pump"}},
				},
				BasicEvents: []model.BasicEventDoc{{Name: "Pump", Probability: 0.1}},
				HouseEvents: []model.HouseEventDoc{{Name: "Switch", State: tc.state}},
			}
			d, err := Reduce(buildModel(t, doc), DefaultSettings())
			if err != nil {
				t.Fatalf("Reduce failed: %v", err)
			}
			value, constant := d.Constant()
			if !constant {
				t.Fatal("diagram should collapse to a constant")
			}
			if value != tc.want {
				t.Errorf("constant = %v, want %v", value, tc.want)
			}
		})
	}
}

func TestReduceAtLeast(t *testing.T) {
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
	m := buildModel(t, doc)
	products, truncated := mustProducts(t, m, DefaultSettings())
	if truncated != 0 {
		t.Errorf("truncated = %d, want 0", truncated)
	}
	want := []string{"A B", "A C", "B C"}
	if !sameProducts(products, want) {
		t.Errorf("products = %v, want %v", renderProducts(products), want)
	}
}

func TestReduceNegatedGates(t *testing.T) {
	// nand(A, B) = !A + !B, as prime implicants.
	doc := model.Document{
		Name: "inverted",
		Top:  "Fail",
		Gates: []model.GateDoc{
			{Name: "Fail", Type: "nand", Children: []string{"A", "B"}},
		},
		BasicEvents: []model.BasicEventDoc{
			{Name: "A", Probability: 0.9},
			{Name: "B", Probability: 0.8},
		},
	}
	m := buildModel(t, doc)
	settings := DefaultSettings()
	settings.PrimeImplicants = true
	products, _ := mustProducts(t, m, settings)
	want := []string{"!A", "!B"}
	if !sameProducts(products, want) {
		t.Errorf("products = %v, want %v", renderProducts(products), want)
	}
}
