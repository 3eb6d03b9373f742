// Package providers defines the Provider Capability Adapter (component A):
// a uniform query surface over each cloud's native catalog, pricing, and
// usage APIs (spec.md §6). Concrete adapters live in the aws, azure, gcp,
// and simulated subpackages; AdapterFactory (this file) replaces the
// teacher's env-flag branching with explicit live/simulated selection
// (SPEC_FULL.md §6, design note on global mutable mode flags).
package providers

import (
	"context"
	"time"

	"github.com/lvonguyen/costintel/internal/model"
	"github.com/lvonguyen/costintel/internal/money"
)

// RawCostFetcher is implemented by every concrete adapter (aws, azure, gcp,
// simulated) in addition to Adapter: it pulls provider-native billing
// records for a window, ready for the normalization engine. It is kept
// separate from Adapter because it is consumed only by the collection
// fan-out, never by the comparison/selection engines.
type RawCostFetcher interface {
	FetchRawCostRecords(ctx context.Context, start, end time.Time) ([]model.RawCostRecord, error)
}

// NetworkCostResult is the shape get_network_costs returns: a total plus
// its component breakdown.
type NetworkCostResult struct {
	MonthlyCost money.Money
	Components  []model.CostComponent
}

// Adapter is the six-operation interface the core consumes from every
// provider (spec.md §6 ops 1-6). Every method is a suspendable call: it
// takes a context and returns a typed result or a typed error (costerrors).
type Adapter interface {
	Name() model.Provider

	ListInstanceTypes(ctx context.Context, region model.Region) ([]model.VmInstanceType, error)
	ListStorageOptions(ctx context.Context, storageType model.StorageType, region model.Region) ([]model.StorageOption, error)
	ListNetworkOptions(ctx context.Context, serviceType model.NetworkServiceType, region model.Region) ([]model.NetworkOption, error)

	GetComputeCosts(ctx context.Context, instanceType string, region model.Region, os string, purchase model.PurchaseOption) (model.CostComponent, error)
	GetStorageCosts(ctx context.Context, storageType model.StorageType, storageClass model.StorageClass, replication model.ReplicationType, region model.Region, capacityGB float64) (model.CostComponent, error)
	GetNetworkCosts(ctx context.Context, serviceType model.NetworkServiceType, region model.Region, params NetworkCostParams) (NetworkCostResult, error)
}

// NetworkCostParams bundles the many optional discriminators
// get_network_costs accepts (spec.md §6 op 6), grounded on
// network_comparison/comparison.py's get_service_costs call.
type NetworkCostParams struct {
	BandwidthGbps     float64
	DataTransferGB    float64
	RequestsPerSecond float64
	HighAvailability  bool
	CrossRegion       bool
	LoadBalancerType  model.Optional[string]
	CDNType           model.Optional[string]
	DNSType           model.Optional[string]
	VPNType           model.Optional[string]
	TransitType       model.Optional[string]
	WAFType           model.Optional[string]
	DDoSType          model.Optional[string]
	NATType           model.Optional[string]
}
