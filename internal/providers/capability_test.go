package providers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lvonguyen/costintel/internal/model"
	"github.com/lvonguyen/costintel/internal/providers/simulated"
)

func testFactory() AdapterFactory {
	return NewStaticFactory(ModeSimulated, map[model.Provider]Adapter{
		model.AWS:   simulated.New(model.AWS),
		model.Azure: simulated.New(model.Azure),
		model.GCP:   simulated.New(model.GCP),
	})
}

func TestCapabilitiesBuildsFromCatalogAndProfile(t *testing.T) {
	registry := NewCapabilityRegistry(testFactory())

	cap, ok := registry.Capabilities(model.AWS, "us-east-1")
	require.True(t, ok)
	assert.Equal(t, model.AWS, cap.Provider)
	assert.Equal(t, 0.9999, cap.AvailabilitySLA)
	_, hasComputeOptimized := cap.Features["compute_optimized"]
	assert.True(t, hasComputeOptimized)
}

func TestCapabilitiesUnknownProviderNotFound(t *testing.T) {
	registry := NewCapabilityRegistry(testFactory())

	cap, ok := registry.Capabilities(model.Provider("oracle"), "us-east-1")
	assert.False(t, ok)
	assert.Equal(t, model.ProviderCapability{}, cap)
}

func TestCapabilitiesAreCachedPerProviderAndRegion(t *testing.T) {
	registry := NewCapabilityRegistry(testFactory())

	first, ok := registry.Capabilities(model.GCP, "us-central1")
	require.True(t, ok)

	second, ok := registry.Capabilities(model.GCP, "us-central1")
	require.True(t, ok)
	assert.Equal(t, first, second)

	third, ok := registry.Capabilities(model.GCP, "europe-west1")
	require.True(t, ok)
	assert.Equal(t, model.Region("europe-west1"), third.Region)
}
