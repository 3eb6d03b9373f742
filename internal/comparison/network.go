package comparison

import (
	"context"
	"time"

	"github.com/lvonguyen/costintel/internal/costerrors"
	"github.com/lvonguyen/costintel/internal/model"
	"github.com/lvonguyen/costintel/internal/providers"
)

// CompareNetwork runs the network comparison pipeline.
func (e *Engine) CompareNetwork(ctx context.Context, req model.NetworkRequirements, filter model.ComparisonFilter) (model.ComparisonResult, error) {
	if err := validateNetwork(req); err != nil {
		return model.ComparisonResult{}, err
	}

	start := time.Now()
	filter.RequirementsName = req.Name

	all, total, err := e.run(ctx, filter, func(ctx context.Context, adapter providers.Adapter, provider model.Provider) ([]model.CostEstimate, error) {
		return networkEstimatesForProvider(ctx, adapter, provider, req, filter)
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

func validateNetwork(req model.NetworkRequirements) error {
	if req.Region == "" {
		return &costerrors.ValidationError{Field: "region", Value: req.Region, Constraints: "must be non-empty"}
	}
	if err := validateDiscriminator(req); err != nil {
		return err
	}
	return nil
}

// validateDiscriminator enforces the class-mandated discriminator per
// spec.md §3 (e.g. VPNType required when ServiceType == NetworkVPN).
func validateDiscriminator(req model.NetworkRequirements) error {
	mandatory := map[model.NetworkServiceType]func() bool{
		model.NetworkVPN:         req.VPNType.IsPresent,
		model.NetworkTransit:     req.TransitType.IsPresent,
		model.NetworkWAF:         req.WAFType.IsPresent,
		model.NetworkDDoS:        req.DDoSType.IsPresent,
		model.NetworkNAT:         req.NATType.IsPresent,
		model.NetworkLoadBalancer: req.LoadBalancerType.IsPresent,
		model.NetworkCDN:         req.CDNType.IsPresent,
		model.NetworkDNS:         req.DNSType.IsPresent,
	}
	isPresent, mandated := mandatory[req.ServiceType]
	if mandated && !isPresent() {
		return &costerrors.ValidationError{
			Field:       "service_type_discriminator",
			Value:       req.ServiceType,
			Constraints: "requires a matching discriminator field to be set",
		}
	}
	return nil
}

func networkEstimatesForProvider(ctx context.Context, adapter providers.Adapter, provider model.Provider, req model.NetworkRequirements, filter model.ComparisonFilter) ([]model.CostEstimate, error) {
	candidates, err := adapter.ListNetworkOptions(ctx, req.ServiceType, req.Region)
	if err != nil {
		return nil, err
	}

	var estimates []model.CostEstimate
	for _, opt := range filterNetworkCandidates(candidates, req, filter) {
		params := providers.NetworkCostParams{
			BandwidthGbps: req.BandwidthGbps, DataTransferGB: req.DataTransferGB,
			RequestsPerSecond: req.RequestsPerSecond, HighAvailability: req.HighAvailability,
			CrossRegion: req.CrossRegion,
			LoadBalancerType: req.LoadBalancerType, CDNType: req.CDNType, DNSType: req.DNSType,
			VPNType: req.VPNType, TransitType: req.TransitType, WAFType: req.WAFType,
			DDoSType: req.DDoSType, NATType: req.NATType,
		}
		result, err := adapter.GetNetworkCosts(ctx, req.ServiceType, req.Region, params)
		if err != nil {
			continue
		}

		optCopy := opt
		estimates = append(estimates, model.CostEstimate{
			Provider: provider, Region: req.Region, OptionName: string(opt.ServiceType),
			MonthlyCost: result.MonthlyCost, Components: result.Components, Features: opt.Features, Network: &optCopy,
		})
	}
	return estimates, nil
}

func filterNetworkCandidates(candidates []model.NetworkOption, req model.NetworkRequirements, filter model.ComparisonFilter) []model.NetworkOption {
	var out []model.NetworkOption
	for _, c := range candidates {
		if c.MaxBandwidthGbps.IsPresent() {
			max, _ := c.MaxBandwidthGbps.Get()
			if req.BandwidthGbps > max {
				continue
			}
		}
		if filter.NetworkServiceType.IsPresent() {
			want, _ := filter.NetworkServiceType.Get()
			if c.ServiceType != want {
				continue
			}
		}
		if !discriminatorMatches(c, req) {
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

func discriminatorMatches(c model.NetworkOption, req model.NetworkRequirements) bool {
	switch req.ServiceType {
	case model.NetworkVPN:
		return optionalStringMatches(c.VPNType, req.VPNType)
	case model.NetworkTransit:
		return optionalStringMatches(c.TransitType, req.TransitType)
	case model.NetworkWAF:
		return optionalStringMatches(c.WAFType, req.WAFType)
	case model.NetworkDDoS:
		return optionalStringMatches(c.DDoSType, req.DDoSType)
	case model.NetworkNAT:
		return optionalStringMatches(c.NATType, req.NATType)
	case model.NetworkLoadBalancer:
		return optionalStringMatches(c.LoadBalancerType, req.LoadBalancerType)
	case model.NetworkCDN:
		return optionalStringMatches(c.CDNType, req.CDNType)
	case model.NetworkDNS:
		return optionalStringMatches(c.DNSType, req.DNSType)
	default:
		return true
	}
}

func optionalStringMatches(have, want model.Optional[string]) bool {
	if !want.IsPresent() {
		return true
	}
	wantVal, _ := want.Get()
	haveVal, ok := have.Get()
	return ok && haveVal == wantVal
}
