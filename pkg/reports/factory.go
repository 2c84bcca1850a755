package reports

import (
	"fmt"
)

// NewReportGenerator creates a report generator based on the report type.
func NewReportGenerator(reportType ReportType, format ReportFormat, s ReportStore) (Generator, error) {
	switch format {
	case ReportFormatCSV, ReportFormatJSON:
	default:
		return nil, fmt.Errorf("unknown report format: %s", format)
	}
	switch reportType {
	case ReportTypeProducts:
		return NewProductsReport(s, format), nil
	case ReportTypeImportance:
		return NewImportanceReport(s, format), nil
	case ReportTypeRuns:
		return NewRunsReport(s, format), nil
	default:
		return nil, fmt.Errorf("unknown report type: %s", reportType)
	}
}
