package reports

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/relab-tools/faultline/pkg/engine"
	"github.com/relab-tools/faultline/pkg/store"
)

type fakeStore struct {
	runs map[string]*store.Run
}

func (f *fakeStore) GetRun(_ context.Context, runID string) (*store.Run, error) {
	return f.runs[runID], nil
}

func (f *fakeStore) ListRuns(_ context.Context, filter store.RunFilter) ([]*store.Run, error) {
	var out []*store.Run
	for _, r := range f.runs {
		if filter.Model != "" && r.Model != filter.Model {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func testStore() *fakeStore {
	p := 0.646
	result := &engine.Result{
		Model:       "two-train",
		Settings:    engine.DefaultSettings(),
		Probability: &p,
		EventProbabilities: map[string]float64{
			"PumpOne": 0.6, "PumpTwo": 0.7, "ValveOne": 0.4, "ValveTwo": 0.5,
		},
		Products: &engine.ProductContainer{Products: []engine.Product{
			{{Event: "PumpOne"}, {Event: "PumpTwo"}},
			{{Event: "PumpOne"}, {Event: "ValveTwo"}},
			{{Event: "PumpTwo"}, {Event: "ValveOne"}},
			{{Event: "ValveOne"}, {Event: "ValveTwo"}},
		}},
		Importance: []engine.ImportanceRecord{
			{Event: "PumpOne", Occurrence: 2, MIF: 0.51, CIF: 0.47368, DIF: 0.78947, RAW: 1.31579, RRW: 1.9},
		},
	}
	return &fakeStore{runs: map[string]*store.Run{
		"run-1": {
			RunID:        "run-1",
			Model:        "two-train",
			Algorithm:    "bdd",
			CreatedAt:    time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
			ProductCount: 4,
			Probability:  &p,
			Result:       result,
		},
	}}
}

func readCSV(t *testing.T, g Generator, params ReportParams) [][]string {
	t.Helper()
	out, err := g.Generate(context.Background(), params)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	records, err := csv.NewReader(out).ReadAll()
	if err != nil {
		t.Fatalf("failed to parse csv: %v", err)
	}
	return records
}

func TestProductsReportCSV(t *testing.T) {
	g, err := NewReportGenerator(ReportTypeProducts, ReportFormatCSV, testStore())
	if err != nil {
		t.Fatalf("factory failed: %v", err)
	}
	records := readCSV(t, g, ReportParams{RunID: "run-1"})
	if len(records) != 5 {
		t.Fatalf("got %d rows, want header plus 4 products", len(records))
	}
	if records[0][0] != "rank" || records[0][4] != "literals" {
		t.Errorf("unexpected header: %v", records[0])
	}
	if records[1][3] == "" {
		t.Error("contribution column should be populated")
	}
	if !strings.Contains(records[1][4], "PumpOne") {
		t.Errorf("unexpected literals: %q", records[1][4])
	}
}

func TestProductsReportJSON(t *testing.T) {
	g := NewProductsReport(testStore(), ReportFormatJSON)
	out, err := g.Generate(context.Background(), ReportParams{RunID: "run-1"})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	var rows []ProductRow
	if err := json.NewDecoder(out).Decode(&rows); err != nil {
		t.Fatalf("failed to decode json: %v", err)
	}
	if len(rows) != 4 {
		t.Fatalf("got %d rows, want 4", len(rows))
	}
	// 0.42 of the 1.2 rare-event total.
	if rows[0].Probability != 0.42 {
		t.Errorf("probability = %g, want 0.42", rows[0].Probability)
	}
	if rows[0].Contribution < 0.34 || rows[0].Contribution > 0.36 {
		t.Errorf("contribution = %g, want 0.35", rows[0].Contribution)
	}
}

func TestProductsReportMissingRun(t *testing.T) {
	g := NewProductsReport(testStore(), ReportFormatCSV)
	if _, err := g.Generate(context.Background(), ReportParams{RunID: "ghost"}); err == nil {
		t.Error("expected an error for an unknown run")
	}
}

func TestImportanceReportCSV(t *testing.T) {
	g := NewImportanceReport(testStore(), ReportFormatCSV)
	records := readCSV(t, g, ReportParams{RunID: "run-1"})
	if len(records) != 2 {
		t.Fatalf("got %d rows, want header plus 1 record", len(records))
	}
	if records[1][0] != "PumpOne" || records[1][1] != "2" {
		t.Errorf("unexpected row: %v", records[1])
	}
}

func TestRunsReportCSV(t *testing.T) {
	g := NewRunsReport(testStore(), ReportFormatCSV)
	records := readCSV(t, g, ReportParams{Model: "two-train"})
	if len(records) != 2 {
		t.Fatalf("got %d rows, want header plus 1 run", len(records))
	}
	if records[1][0] != "run-1" || records[1][6] != "0.646" {
		t.Errorf("unexpected row: %v", records[1])
	}
}

func TestFactoryRejectsUnknown(t *testing.T) {
	if _, err := NewReportGenerator("access_log", ReportFormatCSV, testStore()); err == nil {
		t.Error("expected an error for an unknown report type")
	}
	if _, err := NewReportGenerator(ReportTypeRuns, "xml", testStore()); err == nil {
		t.Error("expected an error for an unknown format")
	}
}
