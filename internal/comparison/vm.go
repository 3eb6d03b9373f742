package comparison

import (
	"context"
	"time"

	"github.com/lvonguyen/costintel/internal/costerrors"
	"github.com/lvonguyen/costintel/internal/model"
	"github.com/lvonguyen/costintel/internal/providers"
)

// CompareVM runs the VM comparison pipeline: validate, fan out, filter,
// cost, rank (spec.md §4.2 steps 1-7).
func (e *Engine) CompareVM(ctx context.Context, req model.VmRequirements, filter model.ComparisonFilter) (model.ComparisonResult, error) {
	if err := validateVM(req); err != nil {
		return model.ComparisonResult{}, err
	}

	start := time.Now()
	filter.RequirementsName = req.Name

	all, total, err := e.run(ctx, filter, func(ctx context.Context, adapter providers.Adapter, provider model.Provider) ([]model.CostEstimate, error) {
		return vmEstimatesForProvider(ctx, adapter, provider, req, filter)
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

func validateVM(req model.VmRequirements) error {
	if req.VCPUs <= 0 {
		return &costerrors.ValidationError{Field: "vcpus", Value: req.VCPUs, Constraints: "must be > 0"}
	}
	if req.MemoryGB <= 0 {
		return &costerrors.ValidationError{Field: "memory_gb", Value: req.MemoryGB, Constraints: "must be > 0"}
	}
	if req.Region == "" {
		return &costerrors.ValidationError{Field: "region", Value: req.Region, Constraints: "must be non-empty"}
	}
	return nil
}

func vmEstimatesForProvider(ctx context.Context, adapter providers.Adapter, provider model.Provider, req model.VmRequirements, filter model.ComparisonFilter) ([]model.CostEstimate, error) {
	candidates, err := adapter.ListInstanceTypes(ctx, req.Region)
	if err != nil {
		return nil, err
	}

	var estimates []model.CostEstimate
	for _, vm := range filterVMCandidates(candidates, req, filter) {
		compute, err := adapter.GetComputeCosts(ctx, vm.Name, req.Region, req.OS, req.PurchaseOption)
		if err != nil {
			continue
		}
		components := []model.CostComponent{compute}
		monthly := compute.MonthlyCost

		if req.LocalDiskGB.IsPresent() {
			diskGB, _ := req.LocalDiskGB.Get()
			storageCost, err := adapter.GetStorageCosts(ctx, model.StorageBlock, model.StorageStandard, model.ReplicationNone, req.Region, diskGB)
			if err == nil {
				components = append(components, storageCost)
				monthly = monthly.Add(storageCost.MonthlyCost)
			}
		}

		vmCopy := vm
		estimates = append(estimates, model.CostEstimate{
			Provider: provider, Region: req.Region, OptionName: vm.Name,
			MonthlyCost: monthly, Components: components, Features: vm.Features, VM: &vmCopy,
		})
	}
	return estimates, nil
}

// filterVMCandidates applies numeric range filters (vCPU, memory, GPU
// count), feature/certification inclusion, and engine-level filter
// overrides (VCPU/memory bounds). The requirement's OS is not compared with
// the candidate's OS.
func filterVMCandidates(candidates []model.VmInstanceType, req model.VmRequirements, filter model.ComparisonFilter) []model.VmInstanceType {
	var out []model.VmInstanceType
	for _, c := range candidates {
		if c.VCPUs < req.VCPUs || c.MemoryGB < req.MemoryGB {
			continue
		}
		if filter.MinVCPUs.IsPresent() {
			min, _ := filter.MinVCPUs.Get()
			if c.VCPUs < min {
				continue
			}
		}
		if filter.MaxVCPUs.IsPresent() {
			max, _ := filter.MaxVCPUs.Get()
			if c.VCPUs > max {
				continue
			}
		}
		if filter.MinMemoryGB.IsPresent() {
			min, _ := filter.MinMemoryGB.Get()
			if c.MemoryGB < min {
				continue
			}
		}
		if filter.MaxMemoryGB.IsPresent() {
			max, _ := filter.MaxMemoryGB.Get()
			if c.MemoryGB > max {
				continue
			}
		}
		if req.GPUCount > 0 && c.GPUCount < req.GPUCount {
			continue
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

func hasAllFeatures(have map[string]struct{}, want []string) bool {
	for _, w := range want {
		if _, ok := have[w]; !ok {
			return false
		}
	}
	return true
}
