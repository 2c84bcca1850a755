package store

import (
	"context"
	"time"

	"github.com/relab-tools/faultline/pkg/engine"
)

// Run is a persisted analysis run. The full result is kept as a JSON
// blob; the columns carry the fields the list and report queries need.
type Run struct {
	RunID        string         `json:"run_id"`
	Model        string         `json:"model"`
	Algorithm    string         `json:"algorithm"`
	CreatedAt    time.Time      `json:"created_at"`
	ProductCount int            `json:"product_count"`
	Truncated    int64          `json:"truncated"`
	Probability  *float64       `json:"probability,omitempty"`
	Result       *engine.Result `json:"result,omitempty"`
}

// RunFilter narrows ListRuns queries.
type RunFilter struct {
	Model string
	Since time.Time
	Limit int
}

// RunStore persists analysis results and serves them back for reports.
type RunStore interface {
	SaveRun(ctx context.Context, run *Run) error
	GetRun(ctx context.Context, runID string) (*Run, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]*Run, error)
	DeleteRun(ctx context.Context, runID string) error
	Close() error
}
