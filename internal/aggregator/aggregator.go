// Package aggregator implements the Aggregation Engine (component D): it
// groups normalized cost entries by arbitrary dotted-path keys and computes
// totals (spec.md §4.4).
//
// Grounded on original_source/cloud-cost-normalization/normalizer.py's
// aggregate_costs. Per the design note on ad-hoc dotted-path reflection,
// group_by paths are resolved through a pre-compiled list of extractor
// functions rather than per-entry reflection.
package aggregator

import (
	"strings"

	"github.com/lvonguyen/costintel/internal/model"
	"github.com/lvonguyen/costintel/internal/money"
)

// fieldExtractor pulls one dotted-path segment's value out of an entry. An
// unresolved path returns the empty-string sentinel, per spec.md §4.4.
type fieldExtractor func(*model.NormalizedCostEntry) string

// compileExtractor builds the extractor function for one dotted path once,
// replacing the reflective field walk the original implementation performs
// per entry per path.
func compileExtractor(path string) fieldExtractor {
	switch path {
	case "resource.provider":
		return func(e *model.NormalizedCostEntry) string { return string(e.Resource.Provider) }
	case "resource.type":
		return func(e *model.NormalizedCostEntry) string { return string(e.Resource.CanonicalType) }
	case "resource.region":
		return func(e *model.NormalizedCostEntry) string { return string(e.Resource.Region) }
	case "resource.billing_type":
		return func(e *model.NormalizedCostEntry) string { return e.Resource.BillingType }
	case "resource.name":
		return func(e *model.NormalizedCostEntry) string { return e.Resource.Name }
	case "allocation.project":
		return func(e *model.NormalizedCostEntry) string { return e.Allocation.Project }
	case "allocation.cost_center":
		return func(e *model.NormalizedCostEntry) string { return e.Allocation.CostCenter }
	case "allocation.environment":
		return func(e *model.NormalizedCostEntry) string { return e.Allocation.Environment }
	case "account_id":
		return func(e *model.NormalizedCostEntry) string { return e.AccountID }
	}

	if tag, ok := strings.CutPrefix(path, "allocation.tags."); ok {
		key := tag
		return func(e *model.NormalizedCostEntry) string {
			if e.Allocation.Tags == nil {
				return ""
			}
			return e.Allocation.Tags[key]
		}
	}

	// Unknown path: stable empty-string sentinel for every entry.
	return func(*model.NormalizedCostEntry) string { return "" }
}

// Engine runs aggregate() calls. Compiled extractors are cached per Engine,
// keyed by the group_by set, so repeat calls with the same group_by set are
// cheap; the cache keeps one entry per distinct group_by set and never
// evicts.
type Engine struct {
	cache map[string][]fieldExtractor
}

// New returns a ready-to-use aggregation Engine.
func New() *Engine {
	return &Engine{cache: make(map[string][]fieldExtractor)}
}

func (e *Engine) extractorsFor(groupBy []string) []fieldExtractor {
	key := strings.Join(groupBy, "\x00")
	if cached, ok := e.cache[key]; ok {
		return cached
	}
	extractors := make([]fieldExtractor, len(groupBy))
	for i, path := range groupBy {
		extractors[i] = compileExtractor(path)
	}
	e.cache[key] = extractors
	return extractors
}

// Aggregate groups entries by groupBy dotted paths and sums their cost.
// Invariant: Σ Costs[key] == TotalCost across all keys, for any group_by.
func (e *Engine) Aggregate(entries []*model.NormalizedCostEntry, groupBy []string, currency string) model.CostAggregation {
	extractors := e.extractorsFor(groupBy)

	costs := make(map[string]money.Money)
	counts := make(map[string]int)
	total := money.Zero(currency)

	var window model.TimeWindow
	first := true

	for _, entry := range entries {
		entryTotal := entry.TotalCost()
		if entryTotal.Currency != currency {
			continue
		}

		parts := make([]string, len(extractors))
		for i, extract := range extractors {
			parts[i] = extract(entry)
		}
		key := strings.Join(parts, ":")
		if existing, ok := costs[key]; ok {
			costs[key] = existing.Add(entryTotal)
		} else {
			costs[key] = entryTotal
		}
		counts[key]++
		total = total.Add(entryTotal)

		if first {
			window = entry.Window
			first = false
		} else {
			if entry.Window.Start.Before(window.Start) {
				window.Start = entry.Window.Start
			}
			if entry.Window.End.After(window.End) {
				window.End = entry.Window.End
			}
		}
	}

	return model.CostAggregation{
		GroupBy:   groupBy,
		Costs:     costs,
		Counts:    counts,
		TotalCost: total,
		Window:    window,
		Currency:  currency,
	}
}
