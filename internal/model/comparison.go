package model

import (
	"time"

	"github.com/lvonguyen/costintel/internal/money"
)

// CostComponent is one additive line item in a CostEstimate.
type CostComponent struct {
	Name        CostComponentName
	MonthlyCost money.Money
	HourlyCost  Optional[money.Money]
	Unit        string
}

// CostEstimate pairs a catalog option identity with its priced components.
// Invariant: MonthlyCost == sum(Components[i].MonthlyCost).
type CostEstimate struct {
	Provider    Provider
	Region      Region
	OptionName  string
	MonthlyCost money.Money
	Components  []CostComponent
	Features    map[string]struct{}

	// Class-specific option payload, set by exactly one comparison engine.
	VM      *VmInstanceType
	Storage *StorageOption
	Network *NetworkOption
}

// Comparison holds the requirements, full estimate list, and the chosen
// recommended estimate for one comparison call.
type Comparison struct {
	RequirementsName  string
	Estimates         []CostEstimate
	RecommendedOption CostEstimate
}

// ComparisonResult wraps a Comparison with filter echo and telemetry.
type ComparisonResult struct {
	Comparison     Comparison
	FilterEcho     ComparisonFilter
	TotalCount     int
	FilteredCount  int
	ProcessingTime time.Duration
}

// FailureDetail records one soft per-provider failure inside a fan-out.
type FailureDetail struct {
	Provider Provider
	Err      error
}

// PartialResult surfaces per-provider fan-out outcomes explicitly rather
// than silently swallowing failures, resolving the design note's open
// question: callers decide whether a non-empty Failures is fatal (it is
// fatal only when Successes is empty).
type PartialResult[T any] struct {
	Successes []T
	Failures  []FailureDetail
}

// AllFailed reports whether every provider in the fan-out failed.
func (p PartialResult[T]) AllFailed() bool {
	return len(p.Successes) == 0 && len(p.Failures) > 0
}
