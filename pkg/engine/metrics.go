package engine

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// FaultlineAnalysisTotal tracks the number of analysis runs
	FaultlineAnalysisTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "faultline_analysis_total",
			Help: "Total number of analysis runs by algorithm and outcome",
		},
		[]string{"algorithm", "outcome"},
	)

	// FaultlineAnalysisSeconds tracks how long an analysis took
	FaultlineAnalysisSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "faultline_analysis_seconds",
			Help:    "Wall-clock duration of an analysis run",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
		},
		[]string{"algorithm"},
	)

	// FaultlineProducts tracks the product count of the last run per model
	FaultlineProducts = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "faultline_products",
			Help: "Number of products found by the last analysis of a model",
		},
		[]string{"model"},
	)

	// FaultlineTruncatedTotal tracks products dropped by truncation limits
	FaultlineTruncatedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "faultline_truncated_total",
			Help: "Total number of products dropped by order or cut-off limits",
		},
		[]string{"model"},
	)
)

func init() {
	// Register metrics with the default registry
	prometheus.MustRegister(FaultlineAnalysisTotal)
	prometheus.MustRegister(FaultlineAnalysisSeconds)
	prometheus.MustRegister(FaultlineProducts)
	prometheus.MustRegister(FaultlineTruncatedTotal)
}
