package model

import (
	"time"

	"github.com/lvonguyen/costintel/internal/money"
)

// RecommendationKind discriminates the four recommendation shapes the
// recommendation engine produces (SPEC_FULL.md §4.6).
type RecommendationKind string

const (
	RecommendationCostOptimization RecommendationKind = "cost_optimization"
	RecommendationPerfOptimization RecommendationKind = "performance_optimization"
	RecommendationPlacement        RecommendationKind = "placement"
	RecommendationMigration        RecommendationKind = "migration"
)

// Recommendation is a point-in-time suggestion derived from selection and/or
// comparison output. ValidUntil = generated-at + a configured TTL, per
// spec.md §3 Lifecycles ("carry a valid_until stamp equal to now + ttl").
type Recommendation struct {
	ID               string
	Kind             RecommendationKind
	Resource         ResourceMetadata
	Current          Optional[CostEstimate]
	Recommended      CostEstimate
	EstimatedSavings money.Money
	Rationale        string
	GeneratedAt      time.Time
	ValidUntil       time.Time
}

// Resource is the minimal inventory entity the recommendation engine
// consults through the inventory port (spec.md §6). Exactly one of
// VM/Storage/Network is populated, selected by Type, mirroring
// CostBreakdown's one-bucket invariant; it carries enough of the original
// requirement shape to re-quote the resource through the comparison engine
// for cost/performance-optimization and migration recommendations.
type Resource struct {
	ID                 string
	Provider           Provider
	Region             Region
	Type               ResourceType
	Tags               map[string]string
	CurrentMonthlyCost money.Money

	VM      *VmRequirements
	Storage *StorageRequirements
	Network *NetworkRequirements
}
