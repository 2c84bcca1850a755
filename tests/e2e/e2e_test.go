package e2e_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/relab-tools/faultline/pkg/client"
	"github.com/relab-tools/faultline/pkg/model"
)

func TestEndToEnd(t *testing.T) {
	if os.Getenv("E2E") != "true" {
		t.Skip("Skipping e2e test")
	}

	endpoint := os.Getenv("FAULTLINE_ENDPOINT")
	if endpoint == "" {
		endpoint = "http://localhost:8490"
	}

	c := client.NewClient(endpoint)

	// Poll Ping until success
	var err error
	for i := 0; i < 30; i++ {
		_, err = c.Ping(context.Background())
		if err == nil {
			break
		}
		time.Sleep(time.Second)
	}
	if err != nil {
		t.Fatal("Failed to ping server after 30 seconds")
	}

	// Analyze a sample model
	doc := model.Document{
		Name: "e2e-two-train",
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

	resp, err := c.Analyze(context.Background(), client.AnalyzeRequest{Model: doc})
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if resp.Result == nil || resp.Result.Probability == nil {
		t.Fatal("Expected a quantified result")
	}
	if p := *resp.Result.Probability; p < 0.64 || p > 0.66 {
		t.Errorf("Top event probability = %v, want about 0.646", p)
	}

	// The run must be listed and retrievable
	runs, err := c.ListRuns(context.Background(), client.RunsOptions{Model: "e2e-two-train", Limit: 10})
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	if len(runs) == 0 {
		t.Fatal("Expected at least one stored run")
	}

	run, err := c.GetRun(context.Background(), resp.RunID)
	if err != nil {
		t.Fatalf("GetRun failed: %v", err)
	}
	if run.RunID != resp.RunID {
		t.Errorf("GetRun returned %s, want %s", run.RunID, resp.RunID)
	}
}
