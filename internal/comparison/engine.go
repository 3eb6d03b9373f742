// Package comparison implements the per-resource-class comparison engine
// (component E, spec.md §4.2): fan out across providers, filter catalog
// options, compose multi-tier cost estimates, and rank.
//
// Grounded on the fan-out pattern in the teacher's
// internal/aggregator/aggregator.go, a path this repository now uses for the
// aggregation engine (concurrent per-provider queries joined
// under one error channel), generalized from sync.WaitGroup+mutex into
// golang.org/x/sync/errgroup with a context deadline standing in for the
// teacher's implicit "wait for everyone" join, and from
// original_source/vm-pricing-comparison-engine/engine.py /
// storage-cost-comparison-service/comparison.py /
// network-cost-comparison-engine/comparison.py for the four-stage filter
// pipeline (numeric range, feature/certification set, discriminator
// equality, engine-level override) and the tiered cost composition.
package comparison

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/lvonguyen/costintel/internal/costerrors"
	"github.com/lvonguyen/costintel/internal/model"
	"github.com/lvonguyen/costintel/internal/money"
	"github.com/lvonguyen/costintel/internal/providers"
)

// Engine runs comparisons for all three resource classes, sharing the
// provider fan-out, ranking, and timeout machinery.
type Engine struct {
	factory           providers.AdapterFactory
	comparisonTimeout time.Duration
	preferredOrder    []model.Provider
}

// Config configures a comparison Engine.
type Config struct {
	ComparisonTimeout time.Duration
	PreferredOrder    []model.Provider
}

// New builds an Engine over factory.
func New(factory providers.AdapterFactory, cfg Config) *Engine {
	preferred := cfg.PreferredOrder
	if len(preferred) == 0 {
		preferred = []model.Provider{model.AWS, model.Azure, model.GCP}
	}
	timeout := cfg.ComparisonTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Engine{factory: factory, comparisonTimeout: timeout, preferredOrder: preferred}
}

// perProviderFetch is implemented differently by each resource class
// (listing + costing calls against providers.Adapter) and passed into run.
type perProviderFetch func(ctx context.Context, adapter providers.Adapter, provider model.Provider) ([]model.CostEstimate, error)

// run executes fetch concurrently across every eligible provider under the
// comparison deadline, filters out the failed providers unless all of them
// failed, and returns the raw estimate list for the caller's filter+rank
// pipeline.
func (e *Engine) run(ctx context.Context, filter model.ComparisonFilter, fetch perProviderFetch) ([]model.CostEstimate, int, error) {
	ctx, cancel := context.WithTimeout(ctx, e.comparisonTimeout)
	defer cancel()

	eligible := e.eligibleProviders(filter)

	type outcome struct {
		estimates []model.CostEstimate
		err       error
	}
	outcomes := make([]outcome, len(eligible))

	g, gctx := errgroup.WithContext(ctx)
	for i, p := range eligible {
		i, p := i, p
		g.Go(func() error {
			adapter, err := e.factory.Build(p)
			if err != nil {
				outcomes[i] = outcome{err: err}
				return nil
			}
			estimates, err := fetch(gctx, adapter, p)
			outcomes[i] = outcome{estimates: estimates, err: err}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, 0, &costerrors.ComparisonTimeoutError{RequirementsName: filter.RequirementsName, Timeout: e.comparisonTimeout.String()}
		}
		return nil, 0, err
	}
	if ctx.Err() != nil {
		return nil, 0, &costerrors.ComparisonTimeoutError{RequirementsName: filter.RequirementsName, Timeout: e.comparisonTimeout.String()}
	}

	var all []model.CostEstimate
	succeeded := 0
	for _, o := range outcomes {
		if o.err != nil {
			continue
		}
		succeeded++
		all = append(all, o.estimates...)
	}
	if succeeded == 0 && len(eligible) > 0 {
		providerNames := make([]string, len(eligible))
		for i, p := range eligible {
			providerNames[i] = string(p)
		}
		return nil, 0, &costerrors.NoMatchingOptionsError{RequirementsName: filter.RequirementsName, Providers: providerNames}
	}

	return all, len(all), nil
}

func (e *Engine) eligibleProviders(filter model.ComparisonFilter) []model.Provider {
	if len(filter.Providers) > 0 {
		return filter.Providers
	}
	return e.preferredOrder
}

// rank applies the default ranker (spec.md §4.2 step 7): minimum monthly
// cost, ties broken by provider preference order then option name.
func (e *Engine) rank(estimates []model.CostEstimate) []model.CostEstimate {
	preference := make(map[model.Provider]int, len(e.preferredOrder))
	for i, p := range e.preferredOrder {
		preference[p] = i
	}

	out := make([]model.CostEstimate, len(estimates))
	copy(out, estimates)

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if cmp := a.MonthlyCost.Cmp(b.MonthlyCost); cmp != 0 {
			return cmp < 0
		}
		pa, pb := preference[a.Provider], preference[b.Provider]
		if pa != pb {
			return pa < pb
		}
		return a.OptionName < b.OptionName
	})
	return out
}

func applyCostFilters(estimates []model.CostEstimate, filter model.ComparisonFilter) []model.CostEstimate {
	out := estimates[:0:0]
	for _, e := range estimates {
		if filter.MaxMonthlyCost.IsPresent() {
			max, _ := filter.MaxMonthlyCost.Get()
			if e.MonthlyCost.Amount.GreaterThan(decimal.NewFromFloat(max)) {
				continue
			}
		}
		if filter.MaxHourlyCost.IsPresent() {
			max, _ := filter.MaxHourlyCost.Get()
			hourly, hasHourly := firstHourly(e)
			if hasHourly && hourly.Amount.GreaterThan(decimal.NewFromFloat(max)) {
				continue
			}
		}
		out = append(out, e)
	}
	return out
}

func firstHourly(e model.CostEstimate) (money.Money, bool) {
	for _, c := range e.Components {
		if c.HourlyCost.IsPresent() {
			v, _ := c.HourlyCost.Get()
			return v, true
		}
	}
	return money.Money{}, false
}
