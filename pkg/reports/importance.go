package reports

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
)

// ImportanceReport renders the importance records of one run.
type ImportanceReport struct {
	store  ReportStore
	format ReportFormat
}

// NewImportanceReport creates a new ImportanceReport generator.
func NewImportanceReport(s ReportStore, format ReportFormat) *ImportanceReport {
	return &ImportanceReport{store: s, format: format}
}

// Generate renders the importance table of the run named by params.RunID.
func (r *ImportanceReport) Generate(ctx context.Context, params ReportParams) (io.Reader, error) {
	if params.RunID == "" {
		return nil, fmt.Errorf("importance report requires a run id")
	}
	run, err := r.store.GetRun(ctx, params.RunID)
	if err != nil {
		return nil, fmt.Errorf("failed to load run: %w", err)
	}
	if run == nil {
		return nil, fmt.Errorf("run %q not found", params.RunID)
	}
	if run.Result == nil || run.Result.Importance == nil {
		return nil, fmt.Errorf("run %q has no importance records", params.RunID)
	}
	records := run.Result.Importance

	if r.format == ReportFormatJSON {
		return encodeJSON(records)
	}

	buf := &bytes.Buffer{}
	writer := csv.NewWriter(buf)
	headers := []string{"event", "occurrence", "mif", "cif", "dif", "raw", "rrw"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write headers: %w", err)
	}
	for _, rec := range records {
		row := []string{
			rec.Event,
			fmt.Sprintf("%d", rec.Occurrence),
			fmt.Sprintf("%g", rec.MIF),
			fmt.Sprintf("%g", rec.CIF),
			fmt.Sprintf("%g", rec.DIF),
			fmt.Sprintf("%g", rec.RAW),
			fmt.Sprintf("%g", rec.RRW),
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
