package engine

import (
	"fmt"

	"github.com/relab-tools/faultline/pkg/engine/safety"
)

// Algorithm selects the qualitative analysis strategy.
type Algorithm string

const (
	// AlgorithmBDD builds a shared binary decision diagram and derives the
	// product set from it. Required for prime implicants.
	AlgorithmBDD Algorithm = "bdd"
	// AlgorithmMOCUS enumerates cut sets top-down without a diagram.
	// Coherent approximation only.
	AlgorithmMOCUS Algorithm = "mocus"
)

// Approximation selects the quantification policy.
type Approximation string

const (
	// ApproxNone requests exact inclusion-exclusion quantification.
	ApproxNone Approximation = "none"
	// ApproxRareEvent sums product probabilities.
	ApproxRareEvent Approximation = "rare-event"
	// ApproxMCUB applies the minimal-cut-set upper bound.
	ApproxMCUB Approximation = "mcub"
)

// Settings configures a single analysis run. The zero value is not usable;
// start from DefaultSettings.
type Settings struct {
	Algorithm       Algorithm     `json:"algorithm"`
	PrimeImplicants bool          `json:"prime_implicants"`
	Approximation   Approximation `json:"approximation"`

	Probability  bool          `json:"probability"`
	Importance   bool          `json:"importance"`
	Safety       bool          `json:"safety"`        // SIL classification over mission time
	SafetyMetric safety.Metric `json:"safety_metric"` // defaults to pfd-avg

	LimitOrder int     `json:"limit_order"` // max product order
	CutOff     float64 `json:"cut_off"`     // min product probability
	NumSums    int     `json:"num_sums"`    // inclusion-exclusion term cap

	MissionTime float64 `json:"mission_time"` // hours
	TimeStep    float64 `json:"time_step"`    // hours; 0 disables the curve
}

// DefaultSettings mirrors the conventional defaults of fault tree tools.
func DefaultSettings() Settings {
	return Settings{
		Algorithm:     AlgorithmBDD,
		Approximation: ApproxNone,
		Probability:   true,
		LimitOrder:    20,
		CutOff:        1e-8,
		NumSums:       7,
		MissionTime:   8760,
	}
}

// Validate rejects out-of-range limits before any work is done.
func (s Settings) Validate() error {
	switch s.Algorithm {
	case AlgorithmBDD, AlgorithmMOCUS:
	default:
		return fmt.Errorf("unknown algorithm %q", s.Algorithm)
	}
	switch s.Approximation {
	case ApproxNone, ApproxRareEvent, ApproxMCUB:
	default:
		return fmt.Errorf("unknown approximation %q", s.Approximation)
	}
	if s.LimitOrder < 1 {
		return fmt.Errorf("limit order must be at least 1, got %d", s.LimitOrder)
	}
	if s.CutOff < 0 || s.CutOff > 1 {
		return fmt.Errorf("cut-off probability %g outside [0, 1]", s.CutOff)
	}
	if s.NumSums < 1 {
		return fmt.Errorf("number of sums must be at least 1, got %d", s.NumSums)
	}
	if s.MissionTime < 0 {
		return fmt.Errorf("mission time must be non-negative, got %g", s.MissionTime)
	}
	if s.TimeStep < 0 {
		return fmt.Errorf("time step must be non-negative, got %g", s.TimeStep)
	}
	if s.TimeStep > 0 && s.MissionTime <= 0 {
		return fmt.Errorf("time step requires a positive mission time")
	}
	if s.PrimeImplicants && s.Algorithm != AlgorithmBDD {
		return fmt.Errorf("prime implicants require the bdd algorithm")
	}
	switch s.SafetyMetric {
	case "", safety.MetricPFDAvg, safety.MetricPFH:
	default:
		return fmt.Errorf("unknown safety metric %q", s.SafetyMetric)
	}
	if s.Safety && s.MissionTime <= 0 {
		return fmt.Errorf("safety classification requires a positive mission time")
	}
	return nil
}
