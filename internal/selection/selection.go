// Package selection implements the selection/recommendation core (component
// F, spec.md §4.3): capability filtering, weighted cost/performance/
// compliance/preference scoring, and ranking into a primary choice plus
// alternatives.
//
// Grounded on original_source/provider-selection-service/engine.py's
// ProviderSelectionEngine — its _rank_options weighting and _filter_providers
// capability gate are ported directly, but its six _calculate_*_score
// methods (latency/throughput/reliability/scalability/framework/coverage)
// were all literal `return 0.5` stubs; this implementation replaces every
// one with a real calculation against model.ProviderCapability, and replaces
// _calculate_cost_score's unbudgeted branch (`return 0.5` with a TODO) with
// the relative min→1/max→0 normalization spec.md §4.3 step 6 specifies.
package selection

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/lvonguyen/costintel/internal/cache"
	"github.com/lvonguyen/costintel/internal/comparison"
	"github.com/lvonguyen/costintel/internal/costerrors"
	"github.com/lvonguyen/costintel/internal/model"
)

// CapabilityLookup fetches per-(provider, region) capability data, the
// selection engine's one external collaborator beyond the comparison
// engine (spec.md §4.3 step 1).
type CapabilityLookup interface {
	Capabilities(provider model.Provider, region model.Region) (model.ProviderCapability, bool)
}

// Engine runs select() over the VM/storage/network comparison engines.
type Engine struct {
	comparison *comparison.Engine
	caps       CapabilityLookup

	selectionTimeout       time.Duration
	cacheTTL               time.Duration
	maxConcurrentEvaluations int

	mu               sync.Mutex
	activeEvaluations map[string]struct{}

	resultCache *cache.Cache[model.SelectionResult]
}

// Config configures a selection Engine.
type Config struct {
	SelectionTimeout         time.Duration
	CacheTTL                 time.Duration
	MaxConcurrentEvaluations int
}

// New builds a selection Engine.
func New(cmp *comparison.Engine, caps CapabilityLookup, cfg Config) *Engine {
	timeout := cfg.SelectionTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	maxConcurrent := cfg.MaxConcurrentEvaluations
	if maxConcurrent <= 0 {
		maxConcurrent = 10
	}
	return &Engine{
		comparison:               cmp,
		caps:                     caps,
		selectionTimeout:         timeout,
		cacheTTL:                 ttl,
		maxConcurrentEvaluations: maxConcurrent,
		activeEvaluations:        make(map[string]struct{}),
		resultCache:              cache.New[model.SelectionResult](ttl, "selection"),
	}
}

// SelectVM runs the selection pipeline for a VM requirement, per spec.md
// §4.3 steps 1-8.
func (e *Engine) SelectVM(ctx context.Context, req model.VmRequirements, regions []model.Region, policy model.SelectionPolicy) (model.SelectionResult, error) {
	key := cacheKey(req, policy)
	if cached, ok := e.resultCache.Get(key); ok {
		return cached, nil
	}

	if err := e.beginEvaluation(req.Name); err != nil {
		return model.SelectionResult{}, err
	}
	defer e.endEvaluation(req.Name)

	capabilities := e.capabilitiesFor(regions)
	eligible := filterCapabilities(capabilities, policy)
	if len(eligible) == 0 {
		return model.SelectionResult{}, &costerrors.NoMatchingOptionsError{RequirementsName: req.Name}
	}

	providersList := providerNames(eligible)
	filter := model.ComparisonFilter{Providers: providersList, RequirementsName: req.Name}

	comparisonResult, err := e.comparison.CompareVM(ctx, req, filter)
	if err != nil {
		return model.SelectionResult{}, err
	}

	estimates := comparisonResult.Comparison.Estimates
	if policy.MaxMonthlyBudget.IsPresent() {
		budget, _ := policy.MaxMonthlyBudget.Get()
		estimates = filterByBudget(estimates, budget)
		if len(estimates) == 0 {
			return model.SelectionResult{}, budgetError(comparisonResult.Comparison.Estimates, budget)
		}
	}

	scored := e.scoreAndRank(estimates, eligible, policy)
	if len(scored) == 0 {
		return model.SelectionResult{}, &costerrors.NoMatchingOptionsError{RequirementsName: req.Name}
	}

	maxAlternatives := policy.MaxAlternatives
	if maxAlternatives <= 0 || maxAlternatives > len(scored)-1 {
		maxAlternatives = len(scored) - 1
	}

	result := model.SelectionResult{
		Selected:     scored[0],
		Alternatives: scored[1 : 1+maxAlternatives],
		AllScored:    scored,
		CachedAt:     time.Now(),
		CacheKey:     key,
	}
	e.resultCache.Set(key, result)
	return result, nil
}

func (e *Engine) beginEvaluation(name string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.activeEvaluations) >= e.maxConcurrentEvaluations {
		return &costerrors.ConcurrencyError{Active: len(e.activeEvaluations), Max: e.maxConcurrentEvaluations}
	}
	e.activeEvaluations[name] = struct{}{}
	return nil
}

func (e *Engine) endEvaluation(name string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.activeEvaluations, name)
}

func (e *Engine) capabilitiesFor(regions []model.Region) []model.ProviderCapability {
	var out []model.ProviderCapability
	for _, region := range regions {
		for _, p := range []model.Provider{model.AWS, model.Azure, model.GCP} {
			if cap, ok := e.caps.Capabilities(p, region); ok {
				out = append(out, cap)
			}
		}
	}
	return out
}

// filterCapabilities applies spec.md §4.3 step 2: region coverage (implicit
// in capabilitiesFor), availability SLA floor, feature/certification/
// compliance-framework subset checks, and policy exclusions.
func filterCapabilities(capabilities []model.ProviderCapability, policy model.SelectionPolicy) []model.ProviderCapability {
	excluded := make(map[model.Provider]bool)
	for _, rule := range policy.Rules {
		for _, p := range rule.ExcludedProviders {
			excluded[p] = true
		}
	}

	var out []model.ProviderCapability
	for _, cap := range capabilities {
		if excluded[cap.Provider] {
			continue
		}
		if !passesRules(cap, policy.Rules) {
			continue
		}
		out = append(out, cap)
	}
	return out
}

func passesRules(cap model.ProviderCapability, rules []model.SelectionRule) bool {
	for _, rule := range rules {
		if rule.MinAvailabilitySLA.IsPresent() {
			min, _ := rule.MinAvailabilitySLA.Get()
			if cap.AvailabilitySLA < min {
				return false
			}
		}
		if !subsetOf(rule.RequiredFeatures, cap.Features) {
			return false
		}
		if !subsetOf(rule.RequiredCertifications, cap.Certifications) {
			return false
		}
		if !subsetOf(rule.RequiredComplianceFrameworks, cap.ComplianceFrameworks) {
			return false
		}
	}
	return true
}

func subsetOf(want []string, have map[string]struct{}) bool {
	for _, w := range want {
		if _, ok := have[w]; !ok {
			return false
		}
	}
	return true
}

func providerNames(capabilities []model.ProviderCapability) []model.Provider {
	seen := make(map[model.Provider]bool)
	var out []model.Provider
	for _, c := range capabilities {
		if !seen[c.Provider] {
			seen[c.Provider] = true
			out = append(out, c.Provider)
		}
	}
	return out
}

func filterByBudget(estimates []model.CostEstimate, budget float64) []model.CostEstimate {
	var out []model.CostEstimate
	for _, e := range estimates {
		cost, _ := e.MonthlyCost.Amount.Float64()
		if cost <= budget {
			out = append(out, e)
		}
	}
	return out
}

func budgetError(estimates []model.CostEstimate, budget float64) error {
	min := -1.0
	for _, e := range estimates {
		cost, _ := e.MonthlyCost.Amount.Float64()
		if min < 0 || cost < min {
			min = cost
		}
	}
	if min < 0 {
		min = 0
	}
	return &costerrors.BudgetError{MinObserved: min, Budget: budget}
}

// scoreAndRank computes per-factor scores for every estimate against its
// provider's capability, applies weights, and sorts descending with the
// spec's tie-break (lowest monthly cost, then provider-preference order,
// then provider name).
func (e *Engine) scoreAndRank(estimates []model.CostEstimate, capabilities []model.ProviderCapability, policy model.SelectionPolicy) []model.ScoredOption {
	capByProvider := make(map[model.Provider]model.ProviderCapability, len(capabilities))
	for _, c := range capabilities {
		capByProvider[c.Provider] = c
	}

	weights := model.DefaultWeights
	if policy.DefaultWeights.IsPresent() {
		weights, _ = policy.DefaultWeights.Get()
	}

	costScores := relativeCostScores(estimates, policy)

	scored := make([]model.ScoredOption, 0, len(estimates))
	for i, estimate := range estimates {
		cap := capByProvider[estimate.Provider]
		perf := performanceScore(cap)
		comp := complianceScore(cap)
		pref := preferenceScore(estimate.Provider, policy.PreferredProviders)

		total := costScores[i]*weights.Cost + perf.Overall*weights.Performance +
			comp.Overall*weights.Compliance + pref*weights.Preference

		scored = append(scored, model.ScoredOption{
			Estimate: estimate, CostScore: costScores[i],
			Performance: perf, Compliance: comp, PreferenceScore: pref, TotalScore: total,
		})
	}

	preferenceOrder := make(map[model.Provider]int, len(policy.PreferredProviders))
	for i, p := range policy.PreferredProviders {
		preferenceOrder[p] = i
	}

	sort.SliceStable(scored, func(i, j int) bool {
		a, b := scored[i], scored[j]
		if a.TotalScore != b.TotalScore {
			return a.TotalScore > b.TotalScore
		}
		if cmp := a.Estimate.MonthlyCost.Cmp(b.Estimate.MonthlyCost); cmp != 0 {
			return cmp < 0
		}
		pa, pOkA := preferenceOrder[a.Estimate.Provider]
		pb, pOkB := preferenceOrder[b.Estimate.Provider]
		if pOkA != pOkB {
			return pOkA
		}
		if pa != pb {
			return pa < pb
		}
		return a.Estimate.Provider < b.Estimate.Provider
	})

	return scored
}

// relativeCostScores implements spec.md §4.3 step 6's cost_score rule:
// budget-relative when a budget is set, else min→1/max→0 relative
// normalization across the candidate set.
func relativeCostScores(estimates []model.CostEstimate, policy model.SelectionPolicy) []float64 {
	scores := make([]float64, len(estimates))

	if policy.MaxMonthlyBudget.IsPresent() {
		budget, _ := policy.MaxMonthlyBudget.Get()
		for i, e := range estimates {
			cost, _ := e.MonthlyCost.Amount.Float64()
			ratio := cost / budget
			scores[i] = clamp01(1.0 - ratio)
		}
		return scores
	}

	if len(estimates) == 0 {
		return scores
	}

	min, max := -1.0, -1.0
	costs := make([]float64, len(estimates))
	for i, e := range estimates {
		cost, _ := e.MonthlyCost.Amount.Float64()
		costs[i] = cost
		if min < 0 || cost < min {
			min = cost
		}
		if max < 0 || cost > max {
			max = cost
		}
	}

	span := max - min
	for i, cost := range costs {
		if span == 0 {
			scores[i] = 1.0
			continue
		}
		scores[i] = clamp01(1.0 - (cost-min)/span)
	}
	return scores
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// performanceScore computes the weighted latency/throughput/reliability/
// scalability breakdown from a real ProviderCapability (spec.md §4.3 step
// 5), replacing the original's four `return 0.5` stubs.
func performanceScore(cap model.ProviderCapability) model.PerformanceScore {
	latency := latencyScore(cap.AvgLatencyMs)
	throughput := throughputScore(cap.MaxThroughputMbps)
	reliability := clamp01((cap.AvailabilitySLA - 0.9) / 0.1)
	scalability := scalabilityScore(cap.MaxScaleUnits)

	overall := latency*0.3 + throughput*0.3 + reliability*0.2 + scalability*0.2
	return model.PerformanceScore{Latency: latency, Throughput: throughput, Reliability: reliability, Scalability: scalability, Overall: overall}
}

// PerformanceScoreFor exposes the capability-based performance breakdown to
// callers outside the selection engine, namely the recommendation engine's
// performance-optimization and migration recommendations, which need to
// compare a resource's current-provider performance against a candidate's.
func PerformanceScoreFor(cap model.ProviderCapability) model.PerformanceScore {
	return performanceScore(cap)
}

// latencyScore maps average latency to [0,1]: 0ms→1.0, 200ms+→0.0.
func latencyScore(avgLatencyMs float64) float64 {
	const ceiling = 200.0
	return clamp01(1.0 - avgLatencyMs/ceiling)
}

// throughputScore maps max throughput to [0,1] against a 10 Gbps ceiling.
func throughputScore(maxThroughputMbps float64) float64 {
	const ceiling = 10_000.0
	return clamp01(maxThroughputMbps / ceiling)
}

// scalabilityScore maps max scale units to [0,1] against a 1000-unit
// ceiling, the largest scale bracket observed across providers' published
// quota documentation.
func scalabilityScore(maxScaleUnits float64) float64 {
	const ceiling = 1000.0
	return clamp01(maxScaleUnits / ceiling)
}

// complianceScore computes the weighted framework/certification/feature
// coverage breakdown from a real ProviderCapability (spec.md §4.3 step 5),
// replacing the original's three `return 0.5` stubs. Coverage here is
// self-reported capability richness (set sizes against known maximums)
// since no requirement-specific framework list is threaded through yet at
// this call site; requirement-specific subset checks already gate
// eligibility in filterCapabilities.
func complianceScore(cap model.ProviderCapability) model.ComplianceScore {
	const knownFrameworks = 8.0  // SOC2, ISO27001, HIPAA, PCI-DSS, FedRAMP, GDPR, CSA-STAR, NIST
	const knownCertifications = 6.0
	const knownFeatures = 6.0

	frameworkAvg := clamp01(float64(len(cap.ComplianceFrameworks)) / knownFrameworks)
	certCoverage := clamp01(float64(len(cap.Certifications)) / knownCertifications)
	featureCoverage := clamp01(float64(len(cap.Features)) / knownFeatures)

	overall := frameworkAvg*0.4 + certCoverage*0.3 + featureCoverage*0.3
	return model.ComplianceScore{FrameworkAverage: frameworkAvg, CertificationCoverage: certCoverage, FeatureCoverage: featureCoverage, Overall: overall}
}

func preferenceScore(provider model.Provider, preferred []model.Provider) float64 {
	if len(preferred) == 0 {
		return 0.5
	}
	for _, p := range preferred {
		if p == provider {
			return 1.0
		}
	}
	return 0.0
}

func cacheKey(req model.VmRequirements, policy model.SelectionPolicy) string {
	payload, _ := json.Marshal(struct {
		Req    model.VmRequirements
		Policy model.SelectionPolicy
	}{req, policy})
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

