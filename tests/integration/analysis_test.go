package integration_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/relab-tools/faultline/pkg/api"
	"github.com/relab-tools/faultline/pkg/client"
	"github.com/relab-tools/faultline/pkg/engine"
	"github.com/relab-tools/faultline/pkg/model"
	"github.com/relab-tools/faultline/pkg/store"
)

// newStack spins up the full daemon stack in-process: SQLite store, API
// server, and SDK client wired through an httptest listener.
func newStack(t *testing.T) *client.Client {
	t.Helper()

	st, err := store.NewStore(":memory:")
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	server := api.NewServer(st, "")
	ts := httptest.NewServer(server.Handler())
	t.Cleanup(ts.Close)

	return client.NewClient(ts.URL)
}

func twoTrainDoc(name string) model.Document {
	return model.Document{
		Name: name,
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

func TestAnalyzeListReport(t *testing.T) {
	c := newStack(t)
	ctx := context.Background()

	settings := engine.DefaultSettings()
	settings.Importance = true

	resp, err := c.Analyze(ctx, client.AnalyzeRequest{
		Model:    twoTrainDoc("two-train"),
		Settings: &settings,
	})
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if resp.Result.Probability == nil {
		t.Fatal("expected a quantified result")
	}
	if p := *resp.Result.Probability; p < 0.6459 || p > 0.6461 {
		t.Errorf("probability = %v, want 0.646", p)
	}
	if len(resp.Result.Importance) != 4 {
		t.Errorf("expected 4 importance records, got %d", len(resp.Result.Importance))
	}

	runs, err := c.ListRuns(ctx, client.RunsOptions{Model: "two-train"})
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	if len(runs) != 1 || runs[0].RunID != resp.RunID {
		t.Fatalf("unexpected runs: %+v", runs)
	}

	run, err := c.GetRun(ctx, resp.RunID)
	if err != nil {
		t.Fatalf("GetRun failed: %v", err)
	}
	if run.Result == nil || run.Result.Products == nil || len(run.Result.Products.Products) != 4 {
		t.Errorf("stored run lost its product set: %+v", run.Result)
	}
}

func TestQuantifyRoundTrip(t *testing.T) {
	c := newStack(t)

	resp, err := c.Quantify(context.Background(), client.QuantifyRequest{
		Products: []engine.Product{
			{{Event: "A"}},
			{{Event: "B"}},
		},
		Probabilities: map[string]float64{"A": 0.1, "B": 0.2},
		Approximation: engine.ApproxRareEvent,
	})
	if err != nil {
		t.Fatalf("Quantify failed: %v", err)
	}
	if resp.Probability < 0.2999 || resp.Probability > 0.3001 {
		t.Errorf("probability = %v, want 0.3", resp.Probability)
	}
}

func TestProductsReportOverHTTP(t *testing.T) {
	st, err := store.NewStore(":memory:")
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	server := api.NewServer(st, "")
	ts := httptest.NewServer(server.Handler())
	t.Cleanup(ts.Close)

	c := client.NewClient(ts.URL)
	resp, err := c.Analyze(context.Background(), client.AnalyzeRequest{Model: twoTrainDoc("report-model")})
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	httpResp, err := http.Get(ts.URL + "/v1/reports?type=products&format=csv&run_id=" + resp.RunID)
	if err != nil {
		t.Fatalf("report request failed: %v", err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK {
		t.Fatalf("report status = %d", httpResp.StatusCode)
	}
	body, _ := io.ReadAll(httpResp.Body)
	if !strings.HasPrefix(string(body), "rank,order,probability") {
		t.Errorf("unexpected report header: %q", string(body)[:40])
	}
	lines := strings.Count(strings.TrimSpace(string(body)), "\n")
	if lines != 4 {
		t.Errorf("expected 4 product rows, got %d", lines)
	}
}
