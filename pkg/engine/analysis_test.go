package engine

import (
	"testing"

	"github.com/relab-tools/faultline/pkg/engine/safety"
	"github.com/relab-tools/faultline/pkg/model"
)

func TestRunTwoTrain(t *testing.T) {
	m := buildModel(t, twoTrainDoc())
	settings := DefaultSettings()
	settings.Importance = true
	res, err := Run(m, settings)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if res.Model != "two-train" {
		t.Errorf("model name = %q", res.Model)
	}
	if len(res.Products.Products) != 4 {
		t.Errorf("got %d products, want 4", len(res.Products.Products))
	}
	if res.Probability == nil {
		t.Fatal("probability missing")
	}
	if !almostEqual(*res.Probability, 0.646, 1e-9) {
		t.Errorf("probability = %g, want 0.646", *res.Probability)
	}
	if len(res.Importance) != 4 {
		t.Errorf("got %d importance records, want 4", len(res.Importance))
	}
	if len(res.Findings) != 0 {
		t.Errorf("unexpected findings: %v", res.Findings)
	}
}

func TestRunDegenerateTop(t *testing.T) {
	doc := model.Document{
		Name: "always-on",
		Top:  "TopEvent",
		Gates: []model.GateDoc{
			{Name: "TopEvent", Type: "or", Children: []string{"Switch", "Pump"}},
		},
		BasicEvents: []model.BasicEventDoc{{Name: "Pump", Probability: 0.1}},
		HouseEvents: []model.HouseEventDoc{{Name: "Switch", State: true}},
	}
	res, err := Run(buildModel(t, doc), DefaultSettings())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !res.Products.IsUnity() {
		t.Error("products should be the unity container")
	}
	if res.Probability == nil || *res.Probability != 1 {
		t.Errorf("probability = %v, want 1", res.Probability)
	}
	found := false
	for _, f := range res.Findings {
		if f.Kind == FindingDegenerate {
			found = true
		}
	}
	if !found {
		t.Errorf("findings = %v, want a degenerate warning", res.Findings)
	}
}

func TestRunTruncationFinding(t *testing.T) {
	m := buildModel(t, twoTrainDoc())
	settings := DefaultSettings()
	settings.LimitOrder = 1
	res, err := Run(m, settings)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if res.Truncated != 4 {
		t.Errorf("truncated = %d, want 4", res.Truncated)
	}
	found := false
	for _, f := range res.Findings {
		if f.Kind == FindingTruncation {
			found = true
		}
	}
	if !found {
		t.Errorf("findings = %v, want a truncation warning", res.Findings)
	}
}

func TestRunMocusApproximationFinding(t *testing.T) {
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
	res, err := Run(buildModel(t, doc), settings)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	found := false
	for _, f := range res.Findings {
		if f.Kind == FindingApproximation {
			found = true
		}
	}
	if !found {
		t.Errorf("findings = %v, want an approximation warning", res.Findings)
	}
}

func TestRunSafetyCurve(t *testing.T) {
	doc := model.Document{
		Name: "slow-drift",
		Top:  "TopEvent",
		Gates: []model.GateDoc{
			{Name: "TopEvent", Type: "null", Children: []string{"Sensor"}},
		},
		BasicEvents: []model.BasicEventDoc{{Name: "Sensor", FailureRate: 1e-6}},
	}
	settings := DefaultSettings()
	settings.Safety = true
	settings.MissionTime = 1000
	settings.TimeStep = 100
	res, err := Run(buildModel(t, doc), settings)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if res.Safety == nil {
		t.Fatal("safety summary missing")
	}
	s := res.Safety
	if len(s.Points) != 11 {
		t.Fatalf("got %d points, want 11", len(s.Points))
	}
	if s.Points[0].Time != 0 {
		t.Errorf("first sample at t=%g, want 0", s.Points[0].Time)
	}
	if last := s.Points[len(s.Points)-1].Time; last != 1000 {
		t.Errorf("last sample at t=%g, want 1000", last)
	}
	// 1-exp(-1e-6 t) averages near 5.5e-4 over the mission.
	if !almostEqual(s.Average, 5.5e-4, 5e-5) {
		t.Errorf("average = %g", s.Average)
	}
	if s.Level != 3 {
		t.Errorf("level = %d, want 3", s.Level)
	}
	sum := 0.0
	for _, f := range s.Fractions {
		sum += f
	}
	if !almostEqual(sum, 1, 1e-9) {
		t.Errorf("band fractions sum to %g, want 1", sum)
	}
}

func TestRunRejectsBadSettings(t *testing.T) {
	m := buildModel(t, twoTrainDoc())
	settings := DefaultSettings()
	settings.Algorithm = "newton"
	if _, err := Run(m, settings); err == nil {
		t.Error("expected an error for an unknown algorithm")
	}
	settings = DefaultSettings()
	settings.SafetyMetric = safety.Metric("mtbf")
	if _, err := Run(m, settings); err == nil {
		t.Error("expected an error for an unknown safety metric")
	}
}
