package model

import "time"

// Weights maps scoring factors to fractions that should sum to ~1.0.
type Weights struct {
	Cost        float64
	Performance float64
	Compliance  float64
	Preference  float64
}

// DefaultWeights mirrors the default ranking weights named in spec.md §3
// and §4.3.
var DefaultWeights = Weights{Cost: 0.4, Performance: 0.3, Compliance: 0.2, Preference: 0.1}

// SelectionRule is an ordered capability filter applied before scoring.
type SelectionRule struct {
	ExcludedProviders        []Provider
	RequiredFeatures         []string
	RequiredCertifications   []string
	RequiredComplianceFrameworks []string
	MinAvailabilitySLA       Optional[float64]
}

// SelectionPolicy overrides default weights/rules for one selection call.
type SelectionPolicy struct {
	DefaultWeights     Optional[Weights]
	Rules              []SelectionRule
	PreferredProviders []Provider
	MaxMonthlyBudget   Optional[float64]
	MaxAlternatives    int
}

// PerformanceScore is the weighted performance sub-score breakdown, per
// spec.md §4.3 step 5 (0.3/0.3/0.2/0.2 weights).
type PerformanceScore struct {
	Latency     float64
	Throughput  float64
	Reliability float64
	Scalability float64
	Overall     float64
}

// ComplianceScore is the weighted compliance sub-score breakdown (0.4
// framework-average + 0.3 certification-coverage + 0.3 feature-coverage).
type ComplianceScore struct {
	FrameworkAverage      float64
	CertificationCoverage float64
	FeatureCoverage       float64
	Overall               float64
}

// ScoredOption is one candidate's full per-factor score breakdown plus
// total, ready for ranking.
type ScoredOption struct {
	Estimate        CostEstimate
	CostScore       float64
	Performance     PerformanceScore
	Compliance      ComplianceScore
	PreferenceScore float64
	TotalScore      float64
}

// SelectionResult is the outcome of one select() call: a chosen option, up
// to N alternatives, and the score matrix behind the decision.
type SelectionResult struct {
	Selected     ScoredOption
	Alternatives []ScoredOption
	AllScored    []ScoredOption
	CachedAt     time.Time
	CacheKey     string
}
