package reports

import (
	"context"
	"io"
	"time"

	"github.com/relab-tools/faultline/pkg/store"
)

type ReportType string

const (
	ReportTypeProducts   ReportType = "products"
	ReportTypeImportance ReportType = "importance"
	ReportTypeRuns       ReportType = "runs"
)

type ReportFormat string

const (
	ReportFormatCSV  ReportFormat = "csv"
	ReportFormatJSON ReportFormat = "json"
)

type ReportParams struct {
	RunID string
	Model string
	Since time.Time
	Limit int
}

// ReportStore defines the interface for data access required by reports.
type ReportStore interface {
	GetRun(ctx context.Context, runID string) (*store.Run, error)
	ListRuns(ctx context.Context, filter store.RunFilter) ([]*store.Run, error)
}

type Generator interface {
	Generate(ctx context.Context, params ReportParams) (io.Reader, error)
}
