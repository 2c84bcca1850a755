package api

import (
	"github.com/relab-tools/faultline/pkg/engine"
	"github.com/relab-tools/faultline/pkg/model"
)

// AnalyzeRequest carries a model document and optional settings.
// Omitted settings fall back to the engine defaults.
type AnalyzeRequest struct {
	Model    model.Document   `json:"model"`
	Settings *engine.Settings `json:"settings,omitempty"`
}

// AnalyzeResponse returns the stored run and its full result.
type AnalyzeResponse struct {
	RunID  string         `json:"run_id"`
	Cached bool           `json:"cached"`
	Result *engine.Result `json:"result"`
}

// QuantifyRequest evaluates a bare product set against a probability
// assignment, without building a model.
type QuantifyRequest struct {
	Products      []engine.Product     `json:"products"`
	Probabilities map[string]float64   `json:"probabilities"`
	Approximation engine.Approximation `json:"approximation,omitempty"`
	NumSums       int                  `json:"num_sums,omitempty"`
}

// QuantifyResponse is the evaluated probability with any warnings.
type QuantifyResponse struct {
	Probability float64          `json:"probability"`
	Findings    []engine.Finding `json:"findings,omitempty"`
}
