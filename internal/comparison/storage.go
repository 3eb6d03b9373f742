package comparison

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/lvonguyen/costintel/internal/costerrors"
	"github.com/lvonguyen/costintel/internal/model"
	"github.com/lvonguyen/costintel/internal/providers"
)

// CompareStorage runs the storage comparison pipeline.
func (e *Engine) CompareStorage(ctx context.Context, req model.StorageRequirements, filter model.ComparisonFilter) (model.ComparisonResult, error) {
	if err := validateStorage(req); err != nil {
		return model.ComparisonResult{}, err
	}

	start := time.Now()
	filter.RequirementsName = req.Name

	all, total, err := e.run(ctx, filter, func(ctx context.Context, adapter providers.Adapter, provider model.Provider) ([]model.CostEstimate, error) {
		return storageEstimatesForProvider(ctx, adapter, provider, req, filter)
	})
	if err != nil {
		return model.ComparisonResult{}, err
	}

	filtered := applyCostFilters(all, filter)
	if len(filtered) == 0 {
		return model.ComparisonResult{}, &costerrors.NoMatchingOptionsError{RequirementsName: req.Name, Regions: []string{string(req.Region)}}
	}

	ranked := e.rank(filtered)

	return model.ComparisonResult{
		Comparison: model.Comparison{
			RequirementsName:  req.Name,
			Estimates:         ranked,
			RecommendedOption: ranked[0],
		},
		FilterEcho:     filter,
		TotalCount:     total,
		FilteredCount:  len(filtered),
		ProcessingTime: time.Since(start),
	}, nil
}

func validateStorage(req model.StorageRequirements) error {
	if req.CapacityGB <= 0 {
		return &costerrors.ValidationError{Field: "capacity_gb", Value: req.CapacityGB, Constraints: "must be > 0"}
	}
	if req.Region == "" {
		return &costerrors.ValidationError{Field: "region", Value: req.Region, Constraints: "must be non-empty"}
	}
	return nil
}

func storageEstimatesForProvider(ctx context.Context, adapter providers.Adapter, provider model.Provider, req model.StorageRequirements, filter model.ComparisonFilter) ([]model.CostEstimate, error) {
	candidates, err := adapter.ListStorageOptions(ctx, req.StorageType, req.Region)
	if err != nil {
		return nil, err
	}

	var estimates []model.CostEstimate
	for _, opt := range filterStorageCandidates(candidates, req, filter) {
		storageCost, err := adapter.GetStorageCosts(ctx, req.StorageType, opt.StorageClass, opt.ReplicationType, req.Region, req.CapacityGB)
		if err != nil {
			continue
		}
		components := []model.CostComponent{storageCost}
		monthly := storageCost.MonthlyCost

		// Additive IOPS component. The adapter's storage-cost call already
		// covers capacity; when the requirement names an IOPS level, an IOPS
		// component is added for any storage type, priced as a fraction of
		// the base storage cost (iopsSurchargeFactor), since no pack adapter
		// exposes a dedicated IOPS-pricing call. No throughput component is
		// priced.
		if req.IOPS.IsPresent() {
			iops, _ := req.IOPS.Get()
			iopsComponent := model.CostComponent{
				Name:        model.ComponentIOPS,
				MonthlyCost: storageCost.MonthlyCost.Mul(iopsSurchargeFactor(iops)),
				Unit:        "iops",
			}
			components = append(components, iopsComponent)
			monthly = monthly.Add(iopsComponent.MonthlyCost)
		}

		optCopy := opt
		estimates = append(estimates, model.CostEstimate{
			Provider: provider, Region: req.Region, OptionName: string(opt.StorageClass),
			MonthlyCost: monthly, Components: components, Features: opt.Features, Storage: &optCopy,
		})
	}
	return estimates, nil
}

// iopsSurchargeFactor returns a flat fractional surcharge on the base
// storage cost scaled by the requested IOPS tier, in the absence of a
// dedicated per-adapter IOPS-pricing call.
func iopsSurchargeFactor(iops int) decimal.Decimal {
	switch {
	case iops >= 10000:
		return decimal.NewFromFloat(0.35)
	case iops >= 3000:
		return decimal.NewFromFloat(0.15)
	default:
		return decimal.NewFromFloat(0.05)
	}
}

func filterStorageCandidates(candidates []model.StorageOption, req model.StorageRequirements, filter model.ComparisonFilter) []model.StorageOption {
	var out []model.StorageOption
	for _, c := range candidates {
		if req.CapacityGB < c.MinCapacityGB {
			continue
		}
		if c.MaxCapacityGB.IsPresent() {
			max, _ := c.MaxCapacityGB.Get()
			if req.CapacityGB > max {
				continue
			}
		}
		if req.StorageClass.IsPresent() {
			want, _ := req.StorageClass.Get()
			if c.StorageClass != want {
				continue
			}
		}
		if req.ReplicationType.IsPresent() {
			want, _ := req.ReplicationType.Get()
			if c.ReplicationType != want {
				continue
			}
		}
		if filter.StorageClass.IsPresent() {
			want, _ := filter.StorageClass.Get()
			if c.StorageClass != want {
				continue
			}
		}
		if filter.ReplicationType.IsPresent() {
			want, _ := filter.ReplicationType.Get()
			if c.ReplicationType != want {
				continue
			}
		}
		if req.IOPS.IsPresent() && c.MaxIOPS.IsPresent() {
			want, _ := req.IOPS.Get()
			max, _ := c.MaxIOPS.Get()
			if want > max {
				continue
			}
		}
		if req.ThroughputMBps.IsPresent() && c.MaxThroughputMBps.IsPresent() {
			want, _ := req.ThroughputMBps.Get()
			max, _ := c.MaxThroughputMBps.Get()
			if want > max {
				continue
			}
		}
		if !hasAllFeatures(c.Features, req.RequiredFeatures) {
			continue
		}
		if !hasAllFeatures(c.Certifications, req.RequiredCertifications) {
			continue
		}
		out = append(out, c)
	}
	return out
}
