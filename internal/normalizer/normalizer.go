// Package normalizer implements the Normalization Engine (component C):
// it maps each provider's raw cost record into the canonical
// model.NormalizedCostEntry, applying resource-type mapping and currency
// conversion (spec.md §4.1).
//
// Grounded on original_source/cloud-cost-normalization/normalizer.py.
package normalizer

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/lvonguyen/costintel/internal/costerrors"
	"github.com/lvonguyen/costintel/internal/currency"
	"github.com/lvonguyen/costintel/internal/model"
	"github.com/lvonguyen/costintel/internal/money"
)

// Engine normalizes raw provider records into NormalizedCostEntry values.
// Mapping tables are loaded once at construction and are immutable for the
// engine's lifetime (spec.md §3 Lifecycles).
type Engine struct {
	mappings map[string]model.ResourceMapping // "provider:providerType" -> mapping
	currency *currency.Service
}

// New builds an Engine with the default per-provider mapping table plus any
// extra mappings supplied (e.g. from configuration), which take precedence.
func New(conv *currency.Service, extra ...model.ResourceMapping) *Engine {
	e := &Engine{mappings: make(map[string]model.ResourceMapping), currency: conv}
	for _, m := range defaultMappings() {
		e.mappings[mappingKey(m.Provider, m.ProviderType)] = m
	}
	for _, m := range extra {
		e.mappings[mappingKey(m.Provider, m.ProviderType)] = m
	}
	return e
}

func mappingKey(p model.Provider, providerType string) string {
	return string(p) + ":" + providerType
}

// Options controls batch-level normalization behavior.
type Options struct {
	// ContinueOnError, when true, skips records that fail and collects
	// their errors instead of failing the whole batch. Default is
	// fail-fast per spec.md §4.1 ("Errors").
	ContinueOnError bool
	TargetCurrency  string
}

// Normalize implements the normalize(provider, time_window, raw_records)
// contract. It is idempotent: the same input batch yields entries with
// equal ids and equal field values.
func (e *Engine) Normalize(ctx context.Context, provider model.Provider, records []model.RawCostRecord, opts Options) ([]model.NormalizedCostEntry, []error, error) {
	entries := make([]model.NormalizedCostEntry, 0, len(records))
	var softErrors []error

	for _, rec := range records {
		entry, err := e.normalizeOne(ctx, provider, rec, opts.TargetCurrency)
		if err != nil {
			wrapped := &costerrors.DataNormalizationError{Provider: string(provider), Cause: err}
			if opts.ContinueOnError {
				softErrors = append(softErrors, wrapped)
				continue
			}
			return nil, nil, wrapped
		}
		entries = append(entries, entry)
	}

	return entries, softErrors, nil
}

func (e *Engine) normalizeOne(ctx context.Context, provider model.Provider, rec model.RawCostRecord, targetCurrency string) (model.NormalizedCostEntry, error) {
	mapping, ok := e.mappings[mappingKey(provider, rec.ProviderType)]
	if !ok {
		return model.NormalizedCostEntry{}, &costerrors.ResourceMappingError{
			Provider:       string(provider),
			ProviderType:   rec.ProviderType,
			AvailableTypes: e.availableTypes(provider),
		}
	}

	specs := make(map[string]any)
	for _, rule := range mapping.Projections {
		if v, ok := rec.RawFields[rule.Src]; ok {
			writeDotPath(specs, rule.DotPath, v)
		}
	}

	amount, err := decimal.NewFromString(rec.Amount)
	if err != nil {
		return model.NormalizedCostEntry{}, fmt.Errorf("invalid raw amount %q: %w", rec.Amount, err)
	}
	raw := money.Money{Amount: amount, Currency: rec.Currency}
	breakdown := model.BucketFor(mapping.NormalizedType, raw)

	if targetCurrency != "" && targetCurrency != rec.Currency {
		breakdown, err = e.convertBreakdown(ctx, breakdown, targetCurrency)
		if err != nil {
			return model.NormalizedCostEntry{}, err
		}
	} else if targetCurrency == "" {
		targetCurrency = rec.Currency
	}

	entry := model.NormalizedCostEntry{
		ID:        deterministicID(provider, rec.ResourceID, rec.Window.Start.Format("2006-01-02T15:04:05")),
		AccountID: rec.RawFields["accountId"],
		Resource: model.ResourceMetadata{
			Provider:       provider,
			ProviderID:     rec.ResourceID,
			Name:           rec.Name,
			CanonicalType:  mapping.NormalizedType,
			Region:         rec.Region,
			BillingType:    rec.BillingType,
			Specifications: specs,
		},
		Allocation: model.CostAllocation{
			Project:     rec.ProjectKey,
			CostCenter:  rec.CostCenterKey,
			Environment: rec.EnvironmentKey,
			Tags:        rec.AllocationTags,
		},
		Breakdown: breakdown,
		Currency:  targetCurrency,
		Window:    rec.Window,
	}
	return entry, nil
}

// convertBreakdown converts each non-zero bucket to targetCurrency, per
// spec.md §4.1's currency-conversion rule: only non-zero buckets are
// converted, and on failure no partial entry is emitted.
func (e *Engine) convertBreakdown(ctx context.Context, b model.CostBreakdown, target string) (model.CostBreakdown, error) {
	convert := func(m money.Money) (money.Money, error) {
		if m.IsZero() {
			return money.Zero(target), nil
		}
		return e.currency.Convert(ctx, m, target)
	}

	compute, err := convert(b.Compute)
	if err != nil {
		return model.CostBreakdown{}, err
	}
	storage, err := convert(b.Storage)
	if err != nil {
		return model.CostBreakdown{}, err
	}
	network, err := convert(b.Network)
	if err != nil {
		return model.CostBreakdown{}, err
	}
	other, err := convert(b.Other)
	if err != nil {
		return model.CostBreakdown{}, err
	}

	return model.CostBreakdown{Compute: compute, Storage: storage, Network: network, Other: other}, nil
}

func (e *Engine) availableTypes(provider model.Provider) []string {
	var out []string
	prefix := string(provider) + ":"
	for key := range e.mappings {
		if strings.HasPrefix(key, prefix) {
			out = append(out, strings.TrimPrefix(key, prefix))
		}
	}
	return out
}

func deterministicID(provider model.Provider, resourceID, startISO string) string {
	return fmt.Sprintf("%s-%s-%s", provider, resourceID, startISO)
}

// writeDotPath writes value into specs at the nested path described by
// dotPath ("a.b.c"), creating intermediate maps as needed.
func writeDotPath(specs map[string]any, dotPath string, value string) {
	parts := strings.Split(dotPath, ".")
	cur := specs
	for i, part := range parts {
		if i == len(parts)-1 {
			cur[part] = value
			return
		}
		next, ok := cur[part].(map[string]any)
		if !ok {
			next = make(map[string]any)
			cur[part] = next
		}
		cur = next
	}
}
