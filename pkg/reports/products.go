package reports

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/relab-tools/faultline/pkg/engine"
)

// ProductsReport renders the product list of one run, with per-product
// probabilities and their contribution to the rare-event total.
type ProductsReport struct {
	store  ReportStore
	format ReportFormat
}

// NewProductsReport creates a new ProductsReport generator.
func NewProductsReport(s ReportStore, format ReportFormat) *ProductsReport {
	return &ProductsReport{store: s, format: format}
}

// ProductRow is one rendered product.
type ProductRow struct {
	Rank         int     `json:"rank"`
	Order        int     `json:"order"`
	Probability  float64 `json:"probability"`
	Contribution float64 `json:"contribution"`
	Literals     string  `json:"literals"`
}

// Generate renders the products of the run named by params.RunID.
func (r *ProductsReport) Generate(ctx context.Context, params ReportParams) (io.Reader, error) {
	if params.RunID == "" {
		return nil, fmt.Errorf("products report requires a run id")
	}
	run, err := r.store.GetRun(ctx, params.RunID)
	if err != nil {
		return nil, fmt.Errorf("failed to load run: %w", err)
	}
	if run == nil {
		return nil, fmt.Errorf("run %q not found", params.RunID)
	}
	rows := productRows(run.Result)

	if r.format == ReportFormatJSON {
		return encodeJSON(rows)
	}

	buf := &bytes.Buffer{}
	writer := csv.NewWriter(buf)
	headers := []string{"rank", "order", "probability", "contribution", "literals"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write headers: %w", err)
	}
	for _, row := range rows {
		record := []string{
			fmt.Sprintf("%d", row.Rank),
			fmt.Sprintf("%d", row.Order),
			fmt.Sprintf("%g", row.Probability),
			fmt.Sprintf("%g", row.Contribution),
			row.Literals,
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write row: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("failed to flush writer: %w", err)
	}
	return buf, nil
}

// productRows flattens a result into report rows. The event probabilities
// at mission time are recovered from the stored result settings, so the
// row probabilities match what the run reported.
func productRows(result *engine.Result) []ProductRow {
	if result == nil || result.Products == nil {
		return nil
	}
	probs := result.EventProbabilities
	total := 0.0
	for _, p := range result.Products.Products {
		total += p.Probability(probs)
	}
	rows := make([]ProductRow, 0, len(result.Products.Products))
	for i, p := range result.Products.Products {
		prob := p.Probability(probs)
		contribution := 0.0
		if total > 0 {
			contribution = prob / total
		}
		rows = append(rows, ProductRow{
			Rank:         i + 1,
			Order:        p.Order(),
			Probability:  prob,
			Contribution: contribution,
			Literals:     renderLiterals(p),
		})
	}
	return rows
}

func renderLiterals(p engine.Product) string {
	lits := make([]string, 0, len(p))
	for _, l := range p {
		if l.Complement {
			lits = append(lits, "!"+l.Event)
		} else {
			lits = append(lits, l.Event)
		}
	}
	return strings.Join(lits, " ")
}

func encodeJSON(v any) (io.Reader, error) {
	buf := &bytes.Buffer{}
	enc := json.NewEncoder(buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("failed to encode report: %w", err)
	}
	return buf, nil
}
