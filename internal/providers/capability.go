package providers

import (
	"context"

	"github.com/lvonguyen/costintel/internal/model"
)

// staticProfile carries the reference performance/compliance figures a
// cloud cost API never exposes directly (SLA, latency, throughput
// ceiling, scale ceiling). original_source/provider-selection-service's
// _get_provider_capabilities hardcoded availability_sla=99.9 for every
// provider with a `# TODO: Get from provider` beside it; this table
// differentiates providers instead, while still being a fixed reference
// table rather than a live signal (documented as a judgment call).
type staticProfile struct {
	availabilitySLA   float64
	avgLatencyMs      float64
	maxThroughputMbps float64
	maxScaleUnits     float64
}

var staticProfiles = map[model.Provider]staticProfile{
	model.AWS:   {availabilitySLA: 0.9999, avgLatencyMs: 12, maxThroughputMbps: 25000, maxScaleUnits: 1000},
	model.Azure: {availabilitySLA: 0.9995, avgLatencyMs: 15, maxThroughputMbps: 20000, maxScaleUnits: 800},
	model.GCP:   {availabilitySLA: 0.9999, avgLatencyMs: 10, maxThroughputMbps: 30000, maxScaleUnits: 1200},
}

func profileFor(p model.Provider) staticProfile {
	if prof, ok := staticProfiles[p]; ok {
		return prof
	}
	return staticProfile{availabilitySLA: 0.999, avgLatencyMs: 20, maxThroughputMbps: 10000, maxScaleUnits: 500}
}

// CapabilityRegistry builds model.ProviderCapability values on demand by
// querying an AdapterFactory's catalog listings (instance types, storage
// options, network options) and unioning their Features/Certifications,
// replacing _get_provider_capabilities' TODO-stamped empty sets with the
// adapters' real catalog data. Results are cached per (provider, region)
// since catalog data changes far slower than cost data.
type CapabilityRegistry struct {
	factory AdapterFactory
	cache   map[string]model.ProviderCapability
}

// NewCapabilityRegistry builds a registry over factory.
func NewCapabilityRegistry(factory AdapterFactory) *CapabilityRegistry {
	return &CapabilityRegistry{factory: factory, cache: make(map[string]model.ProviderCapability)}
}

// Capabilities implements selection.CapabilityLookup.
func (r *CapabilityRegistry) Capabilities(provider model.Provider, region model.Region) (model.ProviderCapability, bool) {
	key := string(provider) + ":" + string(region)
	if cap, ok := r.cache[key]; ok {
		return cap, true
	}

	adapter, err := r.factory.Build(provider)
	if err != nil {
		return model.ProviderCapability{}, false
	}

	ctx := context.Background()
	profile := profileFor(provider)
	cap := model.ProviderCapability{
		Provider:             provider,
		Region:               region,
		AvailabilitySLA:      profile.availabilitySLA,
		AvgLatencyMs:         profile.avgLatencyMs,
		MaxThroughputMbps:    profile.maxThroughputMbps,
		MaxScaleUnits:        profile.maxScaleUnits,
		Features:             make(map[string]struct{}),
		Certifications:       make(map[string]struct{}),
		ComplianceFrameworks: make(map[string]struct{}),
	}

	if vms, err := adapter.ListInstanceTypes(ctx, region); err == nil {
		for _, vm := range vms {
			unionInto(cap.Features, vm.Features)
			unionInto(cap.Certifications, vm.Certifications)
		}
	}
	if storage, err := adapter.ListStorageOptions(ctx, model.StorageBlock, region); err == nil {
		for _, s := range storage {
			unionInto(cap.Features, s.Features)
			unionInto(cap.Certifications, s.Certifications)
		}
	}
	if network, err := adapter.ListNetworkOptions(ctx, model.NetworkLoadBalancer, region); err == nil {
		for _, n := range network {
			unionInto(cap.Features, n.Features)
			unionInto(cap.Certifications, n.Certifications)
		}
	}
	for framework := range complianceFrameworksFor(cap.Certifications) {
		cap.ComplianceFrameworks[framework] = struct{}{}
	}

	r.cache[key] = cap
	return cap, true
}

func unionInto(dst map[string]struct{}, src map[string]struct{}) {
	for k := range src {
		dst[k] = struct{}{}
	}
}

// complianceFrameworksFor maps well-known certification names onto the
// broader compliance frameworks they satisfy (e.g. a soc2 certification
// maps to the SOC2 framework), since catalog listings carry
// certifications but not the framework grouping the selection engine
// scores against.
func complianceFrameworksFor(certifications map[string]struct{}) map[string]struct{} {
	frameworks := make(map[string]struct{})
	mapping := map[string]string{
		"soc2":       "SOC2",
		"iso27001":   "ISO27001",
		"hipaa":      "HIPAA",
		"pci-dss":    "PCI-DSS",
		"fedramp":    "FedRAMP",
		"gdpr":       "GDPR",
	}
	for cert := range certifications {
		if framework, ok := mapping[cert]; ok {
			frameworks[framework] = struct{}{}
		}
	}
	return frameworks
}
