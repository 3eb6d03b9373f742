package comparison

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lvonguyen/costintel/internal/model"
)

func TestCompareNetworkReturnsRankedEstimates(t *testing.T) {
	engine := New(testFactory(), Config{})

	req := model.NetworkRequirements{
		Name: "public-lb", Region: "us-east-1", ServiceType: model.NetworkLoadBalancer,
		DataTransferGB: 1000, LoadBalancerType: model.Some("standard"),
	}
	result, err := engine.CompareNetwork(context.Background(), req, model.ComparisonFilter{})
	require.NoError(t, err)

	require.NotEmpty(t, result.Comparison.Estimates)
	assert.Equal(t, result.Comparison.Estimates[0], result.Comparison.RecommendedOption)
}

func TestCompareNetworkMissingDiscriminatorFails(t *testing.T) {
	engine := New(testFactory(), Config{})

	req := model.NetworkRequirements{Name: "vpn-link", Region: "us-east-1", ServiceType: model.NetworkVPN}
	_, err := engine.CompareNetwork(context.Background(), req, model.ComparisonFilter{})
	assert.Error(t, err)
}

func TestCompareNetworkMissingRegionFails(t *testing.T) {
	engine := New(testFactory(), Config{})

	req := model.NetworkRequirements{Name: "cdn", ServiceType: model.NetworkCDN, CDNType: model.Some("standard")}
	_, err := engine.CompareNetwork(context.Background(), req, model.ComparisonFilter{})
	assert.Error(t, err)
}

func TestCompareNetworkAddsRequestCostComponent(t *testing.T) {
	engine := New(testFactory(), Config{})

	req := model.NetworkRequirements{
		Name: "api-gateway", Region: "us-east-1", ServiceType: model.NetworkLoadBalancer,
		LoadBalancerType: model.Some("standard"), RequestsPerSecond: 500,
	}
	result, err := engine.CompareNetwork(context.Background(), req, model.ComparisonFilter{})
	require.NoError(t, err)

	found := false
	for _, c := range result.Comparison.Estimates[0].Components {
		if c.Name == model.ComponentRequests {
			found = true
		}
	}
	assert.True(t, found)
}
