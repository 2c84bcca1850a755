package engine

import "github.com/relab-tools/faultline/pkg/model"

// StructuralError is re-exported so that callers can match engine failures
// without importing the model package.
type StructuralError = model.StructuralError

// FindingKind classifies the non-fatal observations of an analysis run.
type FindingKind string

const (
	// FindingApproximation marks a result computed under weakened
	// assumptions: a capped inclusion-exclusion expansion, a clamped
	// probability, or MCUB applied to a non-coherent product set.
	FindingApproximation FindingKind = "approximation"
	// FindingTruncation reports products dropped by the configured
	// order/probability limits.
	FindingTruncation FindingKind = "truncation"
	// FindingDegenerate reports degenerate top events (constant true or
	// false formulas).
	FindingDegenerate FindingKind = "degenerate"
)

// Finding is a warning or notice accumulated alongside results. Findings
// are data, never errors: the run completes and the caller decides what to
// surface.
type Finding struct {
	Kind    FindingKind `json:"kind"`
	Message string      `json:"message"`
}

func approximation(msg string) Finding {
	return Finding{Kind: FindingApproximation, Message: msg}
}

func truncation(msg string) Finding {
	return Finding{Kind: FindingTruncation, Message: msg}
}

func degenerate(msg string) Finding {
	return Finding{Kind: FindingDegenerate, Message: msg}
}
