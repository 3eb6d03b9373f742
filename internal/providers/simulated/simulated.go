// Package simulated implements providers.Adapter against bundled fixture
// data instead of live cloud APIs, backing AdapterFactory's ModeSimulated
// (SPEC_FULL.md §6, "simulation_mode" config option). Grounded on the
// teacher's pattern of returning static example data when a provider config
// has no live credentials (internal/providers/gcp.go's BigQuery-stub
// GetCosts), generalized here into a full fixture-backed adapter usable in
// tests and offline demos without any network dependency.
package simulated

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/lvonguyen/costintel/internal/model"
	"github.com/lvonguyen/costintel/internal/money"
	"github.com/lvonguyen/costintel/internal/providers"
)

// Adapter is a fixture-backed providers.Adapter for one provider.
type Adapter struct {
	provider model.Provider
	vms      []model.VmInstanceType
	storage  []model.StorageOption
	network  []model.NetworkOption
}

// New builds a simulated Adapter for provider, seeded with a small but
// representative fixture catalog.
func New(provider model.Provider) *Adapter {
	return &Adapter{
		provider: provider,
		vms:      fixtureVMs(provider),
		storage:  fixtureStorage(provider),
		network:  fixtureNetwork(provider),
	}
}

func (a *Adapter) Name() model.Provider { return a.provider }

// FetchRawCostRecords returns a handful of deterministic fixture records
// spanning [start, end), enough to exercise the normalization engine in
// offline tests.
func (a *Adapter) FetchRawCostRecords(ctx context.Context, start, end time.Time) ([]model.RawCostRecord, error) {
	providerType := map[model.Provider]string{
		model.AWS:   "Amazon Elastic Compute Cloud",
		model.Azure: "Microsoft.Compute",
		model.GCP:   "Compute Engine",
	}[a.provider]

	return []model.RawCostRecord{
		{
			ResourceID: "sim-resource-1", ProviderType: providerType, Name: "sim-vm-1",
			Region: "us-east-1", Amount: "142.50", Currency: "USD",
			AllocationTags: map[string]string{"env": "production"},
			ProjectKey:     "sim-project", CostCenterKey: "cc-100", EnvironmentKey: "production",
			Window: model.TimeWindow{Start: start, End: end},
		},
		{
			ResourceID: "sim-resource-2", ProviderType: providerType, Name: "sim-vm-2",
			Region: "us-east-1", Amount: "38.12", Currency: "USD",
			AllocationTags: map[string]string{"env": "staging"},
			ProjectKey:     "sim-project", CostCenterKey: "cc-200", EnvironmentKey: "staging",
			Window: model.TimeWindow{Start: start, End: end},
		},
	}, nil
}

func (a *Adapter) ListInstanceTypes(ctx context.Context, region model.Region) ([]model.VmInstanceType, error) {
	out := make([]model.VmInstanceType, 0, len(a.vms))
	for _, vm := range a.vms {
		vm.Region = region
		out = append(out, vm)
	}
	return out, nil
}

func (a *Adapter) ListStorageOptions(ctx context.Context, storageType model.StorageType, region model.Region) ([]model.StorageOption, error) {
	out := make([]model.StorageOption, 0, len(a.storage))
	for _, opt := range a.storage {
		if opt.StorageType != storageType {
			continue
		}
		opt.Region = region
		out = append(out, opt)
	}
	return out, nil
}

func (a *Adapter) ListNetworkOptions(ctx context.Context, serviceType model.NetworkServiceType, region model.Region) ([]model.NetworkOption, error) {
	out := make([]model.NetworkOption, 0, len(a.network))
	for _, opt := range a.network {
		if opt.ServiceType != serviceType {
			continue
		}
		opt.Region = region
		out = append(out, opt)
	}
	return out, nil
}

func (a *Adapter) GetComputeCosts(ctx context.Context, instanceType string, region model.Region, os string, purchase model.PurchaseOption) (model.CostComponent, error) {
	for _, vm := range a.vms {
		if vm.Name != instanceType {
			continue
		}
		hourly := money.Money{Amount: decimal.NewFromFloat(vm.VCPUs * 0.0416), Currency: "USD"}
		if purchase == model.PurchaseSpot {
			hourly = hourly.Mul(decimal.NewFromFloat(0.3))
		}
		return model.CostComponent{Name: model.ComponentCompute, MonthlyCost: money.HourlyToMonthly(hourly), HourlyCost: model.Some(hourly), Unit: "hour"}, nil
	}
	return model.CostComponent{}, fmt.Errorf("simulated adapter: no fixture instance type %q", instanceType)
}

func (a *Adapter) GetStorageCosts(ctx context.Context, storageType model.StorageType, storageClass model.StorageClass, replication model.ReplicationType, region model.Region, capacityGB float64) (model.CostComponent, error) {
	rate := decimal.NewFromFloat(0.023)
	if storageClass == model.StorageArchive || storageClass == model.StorageDeepArchive {
		rate = decimal.NewFromFloat(0.004)
	}
	perGB := money.Money{Amount: rate, Currency: "USD"}
	return model.CostComponent{Name: model.ComponentStorage, MonthlyCost: perGB.Mul(decimal.NewFromFloat(capacityGB)), Unit: "GB-month"}, nil
}

func (a *Adapter) GetNetworkCosts(ctx context.Context, serviceType model.NetworkServiceType, region model.Region, params providers.NetworkCostParams) (providers.NetworkCostResult, error) {
	transfer := money.Money{Amount: decimal.NewFromFloat(0.09), Currency: "USD"}.Mul(decimal.NewFromFloat(params.DataTransferGB))
	components := []model.CostComponent{{Name: model.ComponentTransfer, MonthlyCost: transfer, Unit: "GB"}}
	total := transfer

	if params.RequestsPerSecond > 0 {
		monthlyRequests := money.MonthlyRequestsFromRPS(decimal.NewFromFloat(params.RequestsPerSecond))
		requestCost := money.RequestCost(monthlyRequests, money.Money{Amount: decimal.NewFromFloat(0.40), Currency: "USD"})
		components = append(components, model.CostComponent{Name: model.ComponentRequests, MonthlyCost: requestCost, Unit: "million-requests"})
		total = total.Add(requestCost)
	}

	return providers.NetworkCostResult{MonthlyCost: total, Components: components}, nil
}

func fixtureVMs(provider model.Provider) []model.VmInstanceType {
	names := map[model.Provider][3]string{
		model.AWS:   {"t3.medium", "m5.large", "c5.xlarge"},
		model.Azure: {"Standard_B2s", "Standard_D2s_v3", "Standard_F4s_v2"},
		model.GCP:   {"e2-medium", "n2-standard-2", "c2-standard-4"},
	}[provider]

	return []model.VmInstanceType{
		{Provider: provider, Name: names[0], VCPUs: 2, MemoryGB: 4, OS: "linux", Features: map[string]struct{}{}},
		{Provider: provider, Name: names[1], VCPUs: 2, MemoryGB: 8, OS: "linux", Features: map[string]struct{}{}},
		{Provider: provider, Name: names[2], VCPUs: 4, MemoryGB: 8, OS: "linux", Features: map[string]struct{}{"compute_optimized": {}}},
	}
}

func fixtureStorage(provider model.Provider) []model.StorageOption {
	return []model.StorageOption{
		{Provider: provider, StorageType: model.StorageObject, StorageClass: model.StorageStandard, ReplicationType: model.ReplicationNone},
		{Provider: provider, StorageType: model.StorageObject, StorageClass: model.StorageInfrequent, ReplicationType: model.ReplicationNone},
		{Provider: provider, StorageType: model.StorageBlock, StorageClass: model.StorageStandard, ReplicationType: model.ReplicationNone, MinCapacityGB: 10, MaxCapacityGB: model.Some(16384.0)},
	}
}

func fixtureNetwork(provider model.Provider) []model.NetworkOption {
	return []model.NetworkOption{
		{Provider: provider, ServiceType: model.NetworkLoadBalancer, LoadBalancerType: model.Some("standard")},
		{Provider: provider, ServiceType: model.NetworkCDN, CDNType: model.Some("standard")},
	}
}
