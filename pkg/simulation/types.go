package simulation

import (
	"time"
)

// SimulationResult captures the final state of a sampling run for reporting
type SimulationResult struct {
	ScenarioName string                 `json:"scenario_name"`
	Trials       uint64                 `json:"trials"`
	Seed         int64                  `json:"seed"`
	Elapsed      time.Duration          `json:"elapsed"`
	Failures     uint64                 `json:"failures"`
	Estimate     float64                `json:"estimate"`
	StdErr       float64                `json:"std_err"`
	ConfLow      float64                `json:"conf_low"`  // 95% interval
	ConfHigh     float64                `json:"conf_high"` // 95% interval
	EventStats   map[string]*EventStats `json:"event_stats"`
	Checks       []CheckResult          `json:"checks"`
	Success      bool                   `json:"success"`
}

// EventStats counts how often a basic event failed across trials, and how
// often it failed in a trial where the top event also occurred.
type EventStats struct {
	Occurred   uint64 `json:"occurred"`
	Coincident uint64 `json:"coincident"`
}

// CheckResult is the evaluated form of one scenario check.
type CheckResult struct {
	Metric   string `json:"metric"`
	Expected string `json:"expected"` // e.g. "<= 0.70"
	Actual   string `json:"actual"`   // e.g. "0.6458"
	Passed   bool   `json:"passed"`
}

// Scenario configures a Monte Carlo estimation of the top event probability.
type Scenario struct {
	Name        string  `json:"name" yaml:"name"`
	Trials      uint64  `json:"trials" yaml:"trials"`
	Seed        int64   `json:"seed" yaml:"seed"` // Deterministic seed
	Workers     int     `json:"workers" yaml:"workers"`
	MissionTime float64 `json:"mission_time" yaml:"mission_time"` // hours
	Checks      []Check `json:"checks,omitempty" yaml:"checks,omitempty"`
}

// Check asserts a condition on the finished estimate.
type Check struct {
	Metric    string  `json:"metric" yaml:"metric"`       // "estimate" or "std_err"
	Condition string  `json:"condition" yaml:"condition"` // ">", "<", ">=", "<=", "=="
	Value     float64 `json:"value" yaml:"value"`
}
