package reports

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/relab-tools/faultline/pkg/store"
)

// RunsReport lists stored analysis runs, newest first.
type RunsReport struct {
	store  ReportStore
	format ReportFormat
}

// NewRunsReport creates a new RunsReport generator.
func NewRunsReport(s ReportStore, format ReportFormat) *RunsReport {
	return &RunsReport{store: s, format: format}
}

// Generate renders run summaries filtered by model and recency.
func (r *RunsReport) Generate(ctx context.Context, params ReportParams) (io.Reader, error) {
	runs, err := r.store.ListRuns(ctx, store.RunFilter{
		Model: params.Model,
		Since: params.Since,
		Limit: params.Limit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}

	if r.format == ReportFormatJSON {
		return encodeJSON(runs)
	}

	buf := &bytes.Buffer{}
	writer := csv.NewWriter(buf)
	headers := []string{"run_id", "model", "algorithm", "created_at", "products", "truncated", "probability"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write headers: %w", err)
	}
	for _, run := range runs {
		probability := ""
		if run.Probability != nil {
			probability = fmt.Sprintf("%g", *run.Probability)
		}
		row := []string{
			run.RunID,
			run.Model,
			run.Algorithm,
			run.CreatedAt.Format(time.RFC3339),
			fmt.Sprintf("%d", run.ProductCount),
			fmt.Sprintf("%d", run.Truncated),
			probability,
		}
		if err := writer.Write(row); err != nil {
			return nil, fmt.Errorf("failed to write row: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("failed to flush writer: %w", err)
	}
	return buf, nil
}
