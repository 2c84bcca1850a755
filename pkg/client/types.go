package client

import (
	"time"

	"github.com/relab-tools/faultline/pkg/engine"
	"github.com/relab-tools/faultline/pkg/model"
)

// AnalyzeRequest mirrors the daemon's /v1/analyze body.
type AnalyzeRequest struct {
	Model    model.Document   `json:"model"`
	Settings *engine.Settings `json:"settings,omitempty"`
}

// AnalyzeResponse is the stored run reference with the full result.
type AnalyzeResponse struct {
	RunID  string         `json:"run_id"`
	Cached bool           `json:"cached"`
	Result *engine.Result `json:"result"`
}

// QuantifyRequest mirrors the daemon's /v1/quantify body.
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

// RunSummary is one row of the daemon's run listing.
type RunSummary struct {
	RunID        string         `json:"run_id"`
	Model        string         `json:"model"`
	Algorithm    string         `json:"algorithm"`
	CreatedAt    time.Time      `json:"created_at"`
	ProductCount int            `json:"product_count"`
	Truncated    int64          `json:"truncated"`
	Probability  *float64       `json:"probability,omitempty"`
	Result       *engine.Result `json:"result,omitempty"`
}

// RunsOptions filters the run listing.
type RunsOptions struct {
	Model string
	Since time.Time
	Limit int
}

// Status represents the health check response.
type Status struct {
	// Status is the health status string (e.g. "ok").
	Status string `json:"status"`
}
