// Package recommendation implements the recommendation engine (component
// G, SPEC_FULL.md §4.6): cost-optimization, performance-optimization,
// placement, and migration recommendations derived from the comparison and
// selection engines.
//
// Grounded on original_source/provider-selection-service/recommendation.py's
// RecommendationEngine. Its four get_*_recommendations methods leaned on a
// CostOptimizer port whose get_optimization_opportunities/_get_performance_*
// helpers were themselves TODO-stamped fixtures (a single hardcoded
// "instance_upgrade" opportunity, flat fake metrics). This implementation
// replaces that synthetic optimizer with the real comparison/selection
// engines: "opportunities" are simply cheaper or higher-scoring catalog
// options the engines already rank, and "current metrics" are read from the
// same CapabilityLookup the selection engine uses.
package recommendation

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/lvonguyen/costintel/internal/comparison"
	"github.com/lvonguyen/costintel/internal/costerrors"
	"github.com/lvonguyen/costintel/internal/inventory"
	"github.com/lvonguyen/costintel/internal/model"
	"github.com/lvonguyen/costintel/internal/money"
	"github.com/lvonguyen/costintel/internal/selection"
)

// Config tunes the recommendation engine's thresholds and lifecycle, named
// after the original's RecommendationEngine constructor arguments.
type Config struct {
	TTL                              time.Duration
	MaxAlternatives                  int
	MinSavingsPercent                float64
	MinPerformanceImprovementPercent float64
}

func (c *Config) applyDefaults() {
	if c.TTL <= 0 {
		c.TTL = time.Hour
	}
	if c.MaxAlternatives <= 0 {
		c.MaxAlternatives = 3
	}
	if c.MinSavingsPercent <= 0 {
		c.MinSavingsPercent = 10.0
	}
	if c.MinPerformanceImprovementPercent <= 0 {
		c.MinPerformanceImprovementPercent = 10.0
	}
}

// Engine produces recommendations from the selection and comparison
// engines plus a resource inventory.
type Engine struct {
	selection  *selection.Engine
	comparison *comparison.Engine
	caps       selection.CapabilityLookup
	inventory  *inventory.Store
	cfg        Config
}

// New builds a recommendation Engine.
func New(sel *selection.Engine, cmp *comparison.Engine, caps selection.CapabilityLookup, inv *inventory.Store, cfg Config) *Engine {
	cfg.applyDefaults()
	return &Engine{selection: sel, comparison: cmp, caps: caps, inventory: inv, cfg: cfg}
}

func (e *Engine) newRecommendation(kind model.RecommendationKind, resource model.Resource, current model.Optional[model.CostEstimate], recommended model.CostEstimate, savings money.Money, rationale string) model.Recommendation {
	now := time.Now()
	return model.Recommendation{
		ID:               uuid.NewString(),
		Kind:             kind,
		Resource:         model.ResourceMetadata{Provider: resource.Provider, ProviderID: resource.ID, Region: resource.Region, CanonicalType: resource.Type},
		Current:          current,
		Recommended:      recommended,
		EstimatedSavings: savings,
		Rationale:        rationale,
		GeneratedAt:      now,
		ValidUntil:       now.Add(e.cfg.TTL),
	}
}

// CostOptimizationRecommendations finds, per resource of resourceType in
// region, the cheapest catalog option meeting the same requirements and
// recommends it when the saving clears MinSavingsPercent, per
// recommendation.py's get_cost_optimization_recommendations.
func (e *Engine) CostOptimizationRecommendations(ctx context.Context, resourceType model.ResourceType, region model.Region, maxRecommendations int) ([]model.Recommendation, error) {
	resources, err := e.inventory.List(ctx, resourceType, region)
	if err != nil {
		return nil, err
	}

	var out []model.Recommendation
	for _, r := range resources {
		best, found, err := e.cheapestOption(ctx, r)
		if err != nil || !found {
			continue
		}
		savingsPercent, ok := percentImprovement(r.CurrentMonthlyCost, best.MonthlyCost)
		if !ok || savingsPercent < e.cfg.MinSavingsPercent {
			continue
		}
		savings := r.CurrentMonthlyCost.Sub(best.MonthlyCost)
		rationale := fmt.Sprintf("switching to %s/%s saves %.1f%% over the current placement", best.Provider, best.OptionName, savingsPercent)
		current := model.Some(model.CostEstimate{Provider: r.Provider, Region: r.Region, MonthlyCost: r.CurrentMonthlyCost})
		out = append(out, e.newRecommendation(model.RecommendationCostOptimization, r, current, best, savings, rationale))
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].EstimatedSavings.Amount.GreaterThan(out[j].EstimatedSavings.Amount)
	})
	return limitRecommendations(out, maxRecommendations), nil
}

// PerformanceOptimizationRecommendations finds the highest-scoring catalog
// option (by capability performance score, not cost) for each resource and
// recommends it when the improvement clears MinPerformanceImprovementPercent.
func (e *Engine) PerformanceOptimizationRecommendations(ctx context.Context, resourceType model.ResourceType, region model.Region, maxRecommendations int) ([]model.Recommendation, error) {
	resources, err := e.inventory.List(ctx, resourceType, region)
	if err != nil {
		return nil, err
	}

	var out []model.Recommendation
	for _, r := range resources {
		currentCap, ok := e.caps.Capabilities(r.Provider, r.Region)
		if !ok {
			continue
		}
		currentScore := selection.PerformanceScoreFor(currentCap).Overall

		estimates, err := e.estimatesFor(ctx, r)
		if err != nil || len(estimates) == 0 {
			continue
		}

		bestEstimate, bestScore, found := e.bestPerforming(estimates)
		if !found {
			continue
		}
		improvement := relativeImprovementPercent(currentScore, bestScore)
		if improvement < e.cfg.MinPerformanceImprovementPercent {
			continue
		}

		rationale := fmt.Sprintf("%s offers a %.1f%% performance improvement over the current placement", bestEstimate.Provider, improvement)
		current := model.Some(model.CostEstimate{Provider: r.Provider, Region: r.Region, MonthlyCost: r.CurrentMonthlyCost})
		savings := r.CurrentMonthlyCost.Sub(bestEstimate.MonthlyCost)
		out = append(out, e.newRecommendation(model.RecommendationPerfOptimization, r, current, bestEstimate, savings, rationale))
	}

	return limitRecommendations(out, maxRecommendations), nil
}

// PlacementRecommendations materializes a first-time SelectVM result as a
// primary recommendation plus up to MaxAlternatives alternates, per
// recommendation.py's get_placement_recommendations.
func (e *Engine) PlacementRecommendations(ctx context.Context, req model.VmRequirements, regions []model.Region, policy model.SelectionPolicy) ([]model.Recommendation, error) {
	result, err := e.selection.SelectVM(ctx, req, regions, policy)
	if err != nil {
		return nil, err
	}

	resource := model.Resource{ID: req.Name, Provider: result.Selected.Estimate.Provider, Region: result.Selected.Estimate.Region, Type: model.ResourceCompute, VM: &req}

	recs := make([]model.Recommendation, 0, 1+len(result.Alternatives))
	recs = append(recs, e.newRecommendation(
		model.RecommendationPlacement, resource, model.None[model.CostEstimate](), result.Selected.Estimate,
		money.Zero(result.Selected.Estimate.MonthlyCost.Currency),
		fmt.Sprintf("top-ranked placement: total score %.3f (cost %.2f, performance %.2f, compliance %.2f, preference %.2f)",
			result.Selected.TotalScore, result.Selected.CostScore, result.Selected.Performance.Overall, result.Selected.Compliance.Overall, result.Selected.PreferenceScore),
	))

	max := e.cfg.MaxAlternatives
	if max > len(result.Alternatives) {
		max = len(result.Alternatives)
	}
	for _, alt := range result.Alternatives[:max] {
		recs = append(recs, e.newRecommendation(
			model.RecommendationPlacement, resource, model.None[model.CostEstimate](), alt.Estimate,
			money.Zero(alt.Estimate.MonthlyCost.Currency),
			fmt.Sprintf("alternative placement: total score %.3f", alt.TotalScore),
		))
	}
	return recs, nil
}

// MigrationRecommendations compares each VM resource's current placement
// against every option the selection engine scores, and recommends
// migrating when either the cost or performance benefit clears its
// threshold, per recommendation.py's get_migration_recommendations.
func (e *Engine) MigrationRecommendations(ctx context.Context, region model.Region, maxRecommendations int) ([]model.Recommendation, error) {
	resources, err := e.inventory.List(ctx, model.ResourceCompute, region)
	if err != nil {
		return nil, err
	}

	var out []model.Recommendation
	for _, r := range resources {
		if r.VM == nil {
			continue
		}
		currentCap, ok := e.caps.Capabilities(r.Provider, r.Region)
		if !ok {
			continue
		}
		currentPerf := selection.PerformanceScoreFor(currentCap).Overall

		result, err := e.selection.SelectVM(ctx, *r.VM, []model.Region{r.Region}, model.SelectionPolicy{})
		if err != nil {
			if _, ok := err.(*costerrors.NoMatchingOptionsError); ok {
				continue
			}
			return nil, err
		}

		candidates := append([]model.ScoredOption{result.Selected}, result.Alternatives...)
		for _, candidate := range candidates {
			costSavingsPercent, costOK := percentImprovement(r.CurrentMonthlyCost, candidate.Estimate.MonthlyCost)
			perfImprovementPercent := relativeImprovementPercent(currentPerf, candidate.Performance.Overall)

			if (!costOK || costSavingsPercent < e.cfg.MinSavingsPercent) && perfImprovementPercent < e.cfg.MinPerformanceImprovementPercent {
				continue
			}

			savings := r.CurrentMonthlyCost.Sub(candidate.Estimate.MonthlyCost)
			rationale := fmt.Sprintf("migrating %s -> %s: %.1f%% cost change, %.1f%% performance change",
				r.Provider, candidate.Estimate.Provider, costSavingsPercent, perfImprovementPercent)
			current := model.Some(model.CostEstimate{Provider: r.Provider, Region: r.Region, MonthlyCost: r.CurrentMonthlyCost})
			out = append(out, e.newRecommendation(model.RecommendationMigration, r, current, candidate.Estimate, savings, rationale))
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].EstimatedSavings.Amount.GreaterThan(out[j].EstimatedSavings.Amount)
	})
	return limitRecommendations(out, maxRecommendations), nil
}

// cheapestOption re-quotes resource against the comparison engine and
// returns its top-ranked (cheapest) estimate.
func (e *Engine) cheapestOption(ctx context.Context, r model.Resource) (model.CostEstimate, bool, error) {
	estimates, err := e.estimatesFor(ctx, r)
	if err != nil || len(estimates) == 0 {
		return model.CostEstimate{}, false, err
	}
	return estimates[0], true, nil
}

// estimatesFor dispatches to the right comparison call by resource type and
// returns the full ranked estimate list (cheapest first).
func (e *Engine) estimatesFor(ctx context.Context, r model.Resource) ([]model.CostEstimate, error) {
	switch {
	case r.VM != nil:
		result, err := e.comparison.CompareVM(ctx, *r.VM, model.ComparisonFilter{})
		if err != nil {
			return nil, ignoreNoMatch(err)
		}
		return result.Comparison.Estimates, nil
	case r.Storage != nil:
		result, err := e.comparison.CompareStorage(ctx, *r.Storage, model.ComparisonFilter{})
		if err != nil {
			return nil, ignoreNoMatch(err)
		}
		return result.Comparison.Estimates, nil
	case r.Network != nil:
		result, err := e.comparison.CompareNetwork(ctx, *r.Network, model.ComparisonFilter{})
		if err != nil {
			return nil, ignoreNoMatch(err)
		}
		return result.Comparison.Estimates, nil
	default:
		return nil, nil
	}
}

func ignoreNoMatch(err error) error {
	switch err.(type) {
	case *costerrors.NoMatchingOptionsError:
		return nil
	default:
		return err
	}
}

// bestPerforming scores every estimate's provider capability and returns
// the highest-scoring one.
func (e *Engine) bestPerforming(estimates []model.CostEstimate) (model.CostEstimate, float64, bool) {
	var best model.CostEstimate
	bestScore := -1.0
	found := false
	for _, est := range estimates {
		cap, ok := e.caps.Capabilities(est.Provider, est.Region)
		if !ok {
			continue
		}
		score := selection.PerformanceScoreFor(cap).Overall
		if score > bestScore {
			best, bestScore, found = est, score, true
		}
	}
	return best, bestScore, found
}

// percentImprovement returns 100*(from-to)/from as a percentage, false when
// from is zero (avoids a divide-by-zero, mirroring the original's implicit
// reliance on a non-zero current cost).
func percentImprovement(from, to money.Money) (float64, bool) {
	fromFloat, _ := from.Amount.Float64()
	toFloat, _ := to.Amount.Float64()
	if fromFloat == 0 {
		return 0, false
	}
	return (fromFloat - toFloat) / fromFloat * 100, true
}

// relativeImprovementPercent returns 100*(to-from)/from for plain float
// scores (performance scores are already normalized to [0,1], never
// money), guarding the same divide-by-zero case.
func relativeImprovementPercent(from, to float64) float64 {
	if from == 0 {
		return 0
	}
	return (to - from) / from * 100
}

func limitRecommendations(recs []model.Recommendation, max int) []model.Recommendation {
	if max <= 0 || max >= len(recs) {
		return recs
	}
	return recs[:max]
}
