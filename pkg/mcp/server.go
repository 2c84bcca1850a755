package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/relab-tools/faultline/pkg/client"
	"github.com/relab-tools/faultline/pkg/engine"
	"github.com/relab-tools/faultline/pkg/model"
)

// Server adapts faultline-d to the Model Context Protocol.
type Server struct {
	mcpServer *server.MCPServer
	apiClient *client.Client
}

// NewServer creates a new MCP server instance.
func NewServer(apiURL string) *Server {
	s := &Server{
		mcpServer: server.NewMCPServer(
			"faultline",
			"1.0.0",
		),
		apiClient: client.NewClient(apiURL),
	}
	s.registerResources()
	s.registerTools()
	s.registerPrompts()
	return s
}

// Serve starts the MCP server on stdio.
func (s *Server) Serve() error {
	return server.ServeStdio(s.mcpServer)
}

// --- Resources ---

func (s *Server) registerResources() {
	// faultline://runs
	s.mcpServer.AddResource(mcp.NewResource(
		"faultline://runs",
		"Faultline Run History",
		mcp.WithResourceDescription("Recent analysis runs with model name, algorithm, and top event probability"),
		mcp.WithMIMEType("application/json"),
	), s.handleReadRuns)
}

// --- Tools ---

func (s *Server) registerTools() {
	// analyze_fault_tree
	s.mcpServer.AddTool(mcp.NewTool(
		"analyze_fault_tree",
		mcp.WithDescription("Analyze a fault tree model: find minimal cut sets and quantify the top event probability."),
		mcp.WithString("model_json", mcp.Required(), mcp.Description("The fault tree model document as JSON (name, top, gates, basic_events, house_events)")),
		mcp.WithString("algorithm", mcp.Description("Analysis algorithm: 'bdd' (default) or 'mocus'")),
		mcp.WithString("approximation", mcp.Description("Quantification policy: 'none' (default, exact), 'rare-event', or 'mcub'")),
		mcp.WithBoolean("importance", mcp.Description("Compute importance measures for every basic event")),
		mcp.WithNumber("limit_order", mcp.Description("Maximum product order to keep (default 20)")),
		mcp.WithNumber("cut_off", mcp.Description("Minimum product probability to keep (default 1e-8)")),
	), s.handleAnalyzeFaultTree)

	// quantify_expression
	s.mcpServer.AddTool(mcp.NewTool(
		"quantify_expression",
		mcp.WithDescription("Quantify a set of products (conjunctions of event literals) against given event probabilities."),
		mcp.WithString("products_json", mcp.Required(), mcp.Description(`Products as JSON, e.g. [[{"event":"A"},{"event":"B","complement":true}]]`)),
		mcp.WithString("probabilities_json", mcp.Required(), mcp.Description(`Event probabilities as JSON, e.g. {"A":0.01,"B":0.02}`)),
		mcp.WithString("approximation", mcp.Description("Quantification policy: 'none' (default), 'rare-event', or 'mcub'")),
	), s.handleQuantifyExpression)
}

// --- Prompts ---

func (s *Server) registerPrompts() {
	s.mcpServer.AddPrompt(mcp.NewPrompt(
		"faultline-aware",
		mcp.WithPromptDescription("Provides context about Faultline concepts (gates, basic events, cut sets, importance)"),
	), s.handleGetPrompt)
}

// --- Handlers ---

func (s *Server) handleReadRuns(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	runs, err := s.apiClient.ListRuns(ctx, client.RunsOptions{Limit: 50})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch runs: %w", err)
	}

	data, err := json.MarshalIndent(runs, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal runs: %w", err)
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      request.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

func (s *Server) handleAnalyzeFaultTree(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	modelJSON := mcp.ParseString(request, "model_json", "")
	if modelJSON == "" {
		return mcp.NewToolResultError("model_json is required"), nil
	}

	var doc model.Document
	if err := json.Unmarshal([]byte(modelJSON), &doc); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid model JSON: %v", err)), nil
	}

	settings := engine.DefaultSettings()
	if alg := mcp.ParseString(request, "algorithm", ""); alg != "" {
		settings.Algorithm = engine.Algorithm(alg)
	}
	if approx := mcp.ParseString(request, "approximation", ""); approx != "" {
		settings.Approximation = engine.Approximation(approx)
	}
	settings.Importance = mcp.ParseBoolean(request, "importance", false)
	if order := mcp.ParseFloat64(request, "limit_order", 0); order > 0 {
		settings.LimitOrder = int(order)
	}
	if cutOff := mcp.ParseFloat64(request, "cut_off", -1); cutOff >= 0 {
		settings.CutOff = cutOff
	}

	resp, err := s.apiClient.Analyze(ctx, client.AnalyzeRequest{
		Model:    doc,
		Settings: &settings,
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("API error: %v", err)), nil
	}

	data, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) handleQuantifyExpression(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	productsJSON := mcp.ParseString(request, "products_json", "")
	probsJSON := mcp.ParseString(request, "probabilities_json", "")

	var products []engine.Product
	if err := json.Unmarshal([]byte(productsJSON), &products); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid products JSON: %v", err)), nil
	}
	var probs map[string]float64
	if err := json.Unmarshal([]byte(probsJSON), &probs); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid probabilities JSON: %v", err)), nil
	}

	req := client.QuantifyRequest{
		Products:      products,
		Probabilities: probs,
	}
	if approx := mcp.ParseString(request, "approximation", ""); approx != "" {
		req.Approximation = engine.Approximation(approx)
	}

	resp, err := s.apiClient.Quantify(ctx, req)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("API error: %v", err)), nil
	}

	resultMsg := fmt.Sprintf("Probability: %g", resp.Probability)
	for _, f := range resp.Findings {
		resultMsg += fmt.Sprintf("\n%s: %s", f.Kind, f.Message)
	}
	return mcp.NewToolResultText(resultMsg), nil
}

func (s *Server) handleGetPrompt(ctx context.Context, request mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	name := request.Params.Name
	if name != "faultline-aware" {
		return nil, fmt.Errorf("prompt not found: %s", name)
	}

	promptText := `You are interacting with Faultline, a fault tree analysis engine.

Concepts:
- Basic event: A component failure with a probability (e.g. 'pump-one', p=0.01).
- Gate: A Boolean connective over events and other gates (and, or, atleast, not, xor, inhibit).
- Top event: The system failure being analyzed; the root gate of the tree.
- Cut set: A minimal combination of basic events that causes the top event.
- Importance: Per-event measures (MIF, CIF, DIF, RAW, RRW) ranking how much each event matters.

Use 'analyze_fault_tree' to find cut sets and quantify a model.
Use 'quantify_expression' to evaluate a product set under different probabilities.
Read 'faultline://runs' to review past analyses.
`

	return mcp.NewGetPromptResult(
		"faultline-aware",
		[]mcp.PromptMessage{
			mcp.NewPromptMessage(mcp.RoleUser, mcp.NewTextContent(promptText)),
		},
	), nil
}
