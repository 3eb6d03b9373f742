package model

import (
	"time"

	"github.com/lvonguyen/costintel/internal/money"
)

// ResourceMetadata describes the priced entity a cost record refers to.
type ResourceMetadata struct {
	Provider       Provider
	ProviderID     string
	Name           string
	CanonicalType  ResourceType
	Region         Region
	BillingType    string
	Specifications map[string]any
}

// CostAllocation carries the tagging/ownership dimensions used for
// chargeback and aggregation group-by paths.
type CostAllocation struct {
	Project     string
	CostCenter  string
	Environment string
	Tags        map[string]string
}

// CostBreakdown is the fixed-shape bucket set every NormalizedCostEntry
// carries. Invariant: at creation time exactly one bucket holds the
// non-zero raw amount, selected by the resource's canonical type; database
// and container (and any type other than compute/storage/network) route to
// Other by default (see SPEC_FULL.md §4.1).
type CostBreakdown struct {
	Compute money.Money
	Storage money.Money
	Network money.Money
	Other   money.Money
}

// Sum returns the total of all four buckets; all buckets must share a
// currency, which callers guarantee by construction.
func (b CostBreakdown) Sum() money.Money {
	return money.Sum(b.Compute.Currency, b.Compute, b.Storage, b.Network, b.Other)
}

// BucketFor returns a CostBreakdown with amount placed in the bucket
// matching canonicalType and zero elsewhere, per spec.md §4.1 step 3.
func BucketFor(canonicalType ResourceType, amount money.Money) CostBreakdown {
	zero := money.Zero(amount.Currency)
	b := CostBreakdown{Compute: zero, Storage: zero, Network: zero, Other: zero}
	switch canonicalType {
	case ResourceCompute:
		b.Compute = amount
	case ResourceStorage:
		b.Storage = amount
	case ResourceNetwork:
		b.Network = amount
	default:
		b.Other = amount
	}
	return b
}

// TimeWindow is a closed-open interval [Start, End).
type TimeWindow struct {
	Start time.Time
	End   time.Time
}

// NormalizedCostEntry is the canonical cost record produced by the
// normalization engine and consumed by the aggregator; it is never mutated
// after creation (spec.md §3 Lifecycles).
type NormalizedCostEntry struct {
	ID         string
	AccountID  string
	Resource   ResourceMetadata
	Allocation CostAllocation
	Breakdown  CostBreakdown
	Currency   string
	Window     TimeWindow
}

// TotalCost returns the sum of the entry's cost breakdown.
func (e *NormalizedCostEntry) TotalCost() money.Money {
	return e.Breakdown.Sum()
}

// RawCostRecord is the provider-native record handed to the normalizer
// before canonicalization: a flat bag of fields plus the raw cost amount
// and currency, mirroring what an adapter's cost-query methods return.
type RawCostRecord struct {
	ResourceID      string
	ProviderType    string // e.g. "Amazon Elastic Compute Cloud", "Microsoft.Compute"
	Name            string
	Region          Region
	BillingType     string
	Amount          string // exact-decimal string, never float
	Currency        string
	RawFields       map[string]string
	AllocationTags  map[string]string
	ProjectKey      string
	CostCenterKey   string
	EnvironmentKey  string
	Window          TimeWindow
}
