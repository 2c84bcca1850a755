package engine

import (
	"fmt"
	"time"

	"github.com/relab-tools/faultline/pkg/engine/safety"
	"github.com/relab-tools/faultline/pkg/model"
)

// Result is the complete outcome of one analysis run.
type Result struct {
	Model     string    `json:"model"`
	Settings  Settings  `json:"settings"`
	StartedAt time.Time `json:"started_at"`
	ElapsedMS int64     `json:"elapsed_ms"`

	Products  *ProductContainer `json:"products"`
	Truncated int64             `json:"truncated"`

	// EventProbabilities is the per-event probability assignment at
	// mission time, kept so reports can re-derive product probabilities.
	EventProbabilities map[string]float64 `json:"event_probabilities,omitempty"`

	Probability *float64           `json:"probability,omitempty"`
	Importance  []ImportanceRecord `json:"importance,omitempty"`
	Safety      *safety.Summary    `json:"safety,omitempty"`

	Findings []Finding `json:"findings,omitempty"`
}

// Run analyzes the model: product generation first, then the optional
// quantification, importance, and safety stages over the shared product
// container.
func Run(m *model.Model, settings Settings) (*Result, error) {
	start := time.Now()
	if err := settings.Validate(); err != nil {
		FaultlineAnalysisTotal.WithLabelValues(string(settings.Algorithm), "invalid").Inc()
		return nil, err
	}

	res, err := run(m, settings, start)
	elapsed := time.Since(start)
	if err != nil {
		FaultlineAnalysisTotal.WithLabelValues(string(settings.Algorithm), "error").Inc()
		return nil, err
	}
	res.ElapsedMS = elapsed.Milliseconds()
	FaultlineAnalysisTotal.WithLabelValues(string(settings.Algorithm), "ok").Inc()
	FaultlineAnalysisSeconds.WithLabelValues(string(settings.Algorithm)).Observe(elapsed.Seconds())
	FaultlineProducts.WithLabelValues(m.Name).Set(float64(len(res.Products.Products)))
	if res.Truncated > 0 {
		FaultlineTruncatedTotal.WithLabelValues(m.Name).Add(float64(res.Truncated))
	}
	return res, nil
}

func run(m *model.Model, settings Settings, start time.Time) (*Result, error) {
	probs := m.Probabilities(settings.MissionTime)

	res := &Result{
		Model:              m.Name,
		Settings:           settings,
		StartedAt:          start.UTC(),
		EventProbabilities: probs,
	}

	switch settings.Algorithm {
	case AlgorithmMOCUS:
		products, truncated, dropped, err := mocusEnumerate(m, settings, probs)
		if err != nil {
			return nil, err
		}
		res.Products, res.Truncated = products, truncated
		if dropped {
			res.addFinding(approximation("complement literals were dropped for the coherent cut-set reading"))
		}
	default:
		diagram, err := Reduce(m, settings)
		if err != nil {
			return nil, err
		}
		products, truncated := diagram.Products(settings, probs)
		res.Products, res.Truncated = products, truncated
	}

	if res.Truncated > 0 {
		res.addFinding(truncation(fmt.Sprintf("%d products were dropped by the order or cut-off limits", res.Truncated)))
	}
	if res.Products.IsUnity() {
		res.addFinding(degenerate("the top event is guaranteed to occur"))
	} else if res.Products.IsEmpty() {
		res.addFinding(degenerate("the top event cannot occur"))
	}

	if settings.Probability || settings.Importance || settings.Safety {
		q := NewQuantifier(settings)
		p := q.Probability(res.Products, probs)
		res.Probability = &p
		for _, f := range q.Findings() {
			res.addFinding(f)
		}
	}
	if settings.Importance {
		records, findings := Importance(res.Products, probs, settings)
		res.Importance = records
		for _, f := range findings {
			res.addFinding(f)
		}
	}
	if settings.Safety {
		summary, err := runSafety(m, settings, res.Products)
		if err != nil {
			return nil, err
		}
		res.Safety = summary
	}
	return res, nil
}

// runSafety grades the time-dependent top-event probability. Each sample
// re-evaluates the container with the event probabilities at that time.
func runSafety(m *model.Model, settings Settings, products *ProductContainer) (*safety.Summary, error) {
	metric := settings.SafetyMetric
	if metric == "" {
		metric = safety.MetricPFDAvg
	}
	eval := func(t float64) float64 {
		p := NewQuantifier(settings).Probability(products, m.Probabilities(t))
		if metric == safety.MetricPFH && t > 0 {
			return p / t
		}
		return p
	}
	return safety.Evaluate(eval, settings.MissionTime, settings.TimeStep, metric)
}

func (r *Result) addFinding(f Finding) {
	for _, have := range r.Findings {
		if have == f {
			return
		}
	}
	r.Findings = append(r.Findings, f)
}
