package mcp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
)

func TestMCPServer_ReadRuns(t *testing.T) {
	// 1. Mock API Server
	apiHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v1/runs" {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`[{"run_id": "run-1", "model": "two-train", "algorithm": "bdd", "product_count": 4}]`))
			return
		}
		http.NotFound(w, r)
	})
	ts := httptest.NewServer(apiHandler)
	defer ts.Close()

	// 2. Create MCP Server
	s := NewServer(ts.URL)

	// 3. Test Handler directly
	req := mcp.ReadResourceRequest{
		Params: mcp.ReadResourceParams{
			URI: "faultline://runs",
		},
	}

	result, err := s.handleReadRuns(context.Background(), req)
	if err != nil {
		t.Fatalf("handleReadRuns failed: %v", err)
	}

	if len(result) != 1 {
		t.Fatalf("Expected 1 resource content, got %d", len(result))
	}

	content, ok := result[0].(mcp.TextResourceContents)
	if !ok {
		t.Fatalf("Expected TextResourceContents")
	}

	if content.MIMEType != "application/json" {
		t.Errorf("Expected application/json, got %s", content.MIMEType)
	}

	var runs []map[string]interface{}
	if err := json.Unmarshal([]byte(content.Text), &runs); err != nil {
		t.Errorf("Failed to parse result JSON: %v", err)
	}
	if len(runs) != 1 {
		t.Errorf("Expected 1 run item")
	}
}

func TestMCPServer_AnalyzeFaultTree(t *testing.T) {
	// 1. Mock API Server
	apiHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v1/analyze" {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"run_id": "run-1", "result": {"model": "single", "probability": 0.01}}`))
			return
		}
		http.NotFound(w, r)
	})
	ts := httptest.NewServer(apiHandler)
	defer ts.Close()

	// 2. Create MCP Server
	s := NewServer(ts.URL)

	// 3. Test Handler directly
	modelJSON := `{
		"name": "single",
		"top": "top",
		"gates": [{"name": "top", "type": "null", "children": ["pump"]}],
		"basic_events": [{"name": "pump", "probability": 0.01}]
	}`
	req := mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name: "analyze_fault_tree",
			Arguments: map[string]interface{}{
				"model_json": modelJSON,
				"algorithm":  "bdd",
			},
		},
	}

	result, err := s.handleAnalyzeFaultTree(context.Background(), req)
	if err != nil {
		t.Fatalf("handleAnalyzeFaultTree failed: %v", err)
	}

	if result.IsError {
		t.Errorf("Expected success, got error")
	}

	if len(result.Content) == 0 {
		t.Errorf("Expected content in result")
	} else {
		text, ok := result.Content[0].(mcp.TextContent)
		if ok {
			if !strings.Contains(text.Text, "run-1") {
				t.Errorf("Expected run id in result, got %s", text.Text)
			}
		}
	}
}

func TestMCPServer_AnalyzeFaultTreeBadModel(t *testing.T) {
	s := NewServer("http://127.0.0.1:0")

	req := mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name: "analyze_fault_tree",
			Arguments: map[string]interface{}{
				"model_json": "{not json",
			},
		},
	}

	result, err := s.handleAnalyzeFaultTree(context.Background(), req)
	if err != nil {
		t.Fatalf("handleAnalyzeFaultTree failed: %v", err)
	}
	if !result.IsError {
		t.Error("Expected an error result for malformed model JSON")
	}
}

func TestMCPServer_QuantifyExpression(t *testing.T) {
	// 1. Mock API Server
	apiHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v1/quantify" {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"probability": 0.028}`))
			return
		}
		http.NotFound(w, r)
	})
	ts := httptest.NewServer(apiHandler)
	defer ts.Close()

	// 2. Create MCP Server
	s := NewServer(ts.URL)

	// 3. Test Handler directly
	req := mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name: "quantify_expression",
			Arguments: map[string]interface{}{
				"products_json":      `[[{"event":"A"},{"event":"B"}]]`,
				"probabilities_json": `{"A":0.1,"B":0.28}`,
			},
		},
	}

	result, err := s.handleQuantifyExpression(context.Background(), req)
	if err != nil {
		t.Fatalf("handleQuantifyExpression failed: %v", err)
	}

	if result.IsError {
		t.Errorf("Expected success, got error")
	}

	if len(result.Content) == 0 {
		t.Errorf("Expected content in result")
	} else {
		text, ok := result.Content[0].(mcp.TextContent)
		if ok {
			if !strings.Contains(text.Text, "0.028") {
				t.Errorf("Expected probability in result, got %s", text.Text)
			}
		}
	}
}
