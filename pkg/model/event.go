package model

import "math"

// Flavor distinguishes how a basic event participates in an INHIBIT gate.
type Flavor string

const (
	FlavorBasic       Flavor = "basic"
	FlavorConditional Flavor = "conditional"
)

// Event is a leaf of the fault tree: either a basic event with a
// probability or a house event with a fixed boolean state.
type Event interface {
	ID() string
}

// BasicEvent is a component failure with a probability in [0, 1].
// When FailureRate is set, the probability is a function of mission time
// under a constant-hazard-rate unavailability model.
type BasicEvent struct {
	Name        string
	Probability float64
	FailureRate float64 // per hour; 0 means the fixed Probability applies
	Flavor      Flavor
}

// ID returns the unique identifier of the event.
func (e *BasicEvent) ID() string { return e.Name }

// P returns the event probability at elapsed time t.
// Rate-based events follow p(t) = 1 - exp(-lambda*t).
func (e *BasicEvent) P(t float64) float64 {
	if e.FailureRate > 0 {
		return 1 - math.Exp(-e.FailureRate*t)
	}
	return e.Probability
}

// HouseEvent is a constant-valued leaf used for configuration switches.
// It is substituted by its state during Boolean reduction.
type HouseEvent struct {
	Name  string
	State bool
}

// ID returns the unique identifier of the event.
func (e *HouseEvent) ID() string { return e.Name }
