package recommendation

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lvonguyen/costintel/internal/comparison"
	"github.com/lvonguyen/costintel/internal/inventory"
	"github.com/lvonguyen/costintel/internal/model"
	"github.com/lvonguyen/costintel/internal/money"
	"github.com/lvonguyen/costintel/internal/providers"
	"github.com/lvonguyen/costintel/internal/providers/simulated"
	"github.com/lvonguyen/costintel/internal/selection"
)

// sharedSelection is built once: selection.New registers fixed-name
// Prometheus counters, so constructing a second selection.Engine in the same
// test binary would panic on duplicate registration. Each test still gets
// its own recommendation.Engine and inventory.Store over this shared core.
var (
	sharedComparison *comparison.Engine
	sharedCaps       *providers.CapabilityRegistry
	sharedSelection  *selection.Engine
	sharedOnce       sync.Once
)

func testEngine(t *testing.T) (*Engine, *inventory.Store) {
	t.Helper()
	sharedOnce.Do(func() {
		factory := providers.NewStaticFactory(providers.ModeSimulated, map[model.Provider]providers.Adapter{
			model.AWS:   simulated.New(model.AWS),
			model.Azure: simulated.New(model.Azure),
			model.GCP:   simulated.New(model.GCP),
		})
		sharedComparison = comparison.New(factory, comparison.Config{})
		sharedCaps = providers.NewCapabilityRegistry(factory)
		sharedSelection = selection.New(sharedComparison, sharedCaps, selection.Config{})
	})
	store := inventory.NewStore()
	return New(sharedSelection, sharedComparison, sharedCaps, store, Config{}), store
}

func overpricedVM(t *testing.T) model.Resource {
	t.Helper()
	cost, err := money.New("5000.00", "USD")
	require.NoError(t, err)

	return model.Resource{
		ID:                 "vm-1",
		Provider:           model.AWS,
		Region:             "us-east-1",
		Type:               model.ResourceCompute,
		CurrentMonthlyCost: cost,
		VM:                 &model.VmRequirements{Name: "vm-1", Region: "us-east-1", VCPUs: 2, MemoryGB: 4, OS: "linux"},
	}
}

func TestCostOptimizationRecommendationsFindsCheaperOption(t *testing.T) {
	engine, store := testEngine(t)
	store.Put(overpricedVM(t))

	recs, err := engine.CostOptimizationRecommendations(context.Background(), model.ResourceCompute, "us-east-1", 10)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, model.RecommendationCostOptimization, recs[0].Kind)
	assert.True(t, recs[0].EstimatedSavings.Amount.IsPositive())
}

func TestCostOptimizationRecommendationsSkipsBelowThreshold(t *testing.T) {
	engine, store := testEngine(t)
	cost, err := money.New("1.00", "USD")
	require.NoError(t, err)
	store.Put(model.Resource{
		ID: "vm-cheap", Provider: model.AWS, Region: "us-east-1", Type: model.ResourceCompute,
		CurrentMonthlyCost: cost,
		VM:                 &model.VmRequirements{Name: "vm-cheap", Region: "us-east-1", VCPUs: 2, MemoryGB: 4, OS: "linux"},
	})

	recs, err := engine.CostOptimizationRecommendations(context.Background(), model.ResourceCompute, "us-east-1", 10)
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestPlacementRecommendationsReturnsPrimaryAndAlternatives(t *testing.T) {
	engine, _ := testEngine(t)
	req := model.VmRequirements{Name: "new-service", Region: "us-east-1", VCPUs: 2, MemoryGB: 4, OS: "linux"}

	recs, err := engine.PlacementRecommendations(context.Background(), req, []model.Region{"us-east-1"}, model.SelectionPolicy{})
	require.NoError(t, err)
	require.NotEmpty(t, recs)
	assert.Equal(t, model.RecommendationPlacement, recs[0].Kind)
}

func TestMigrationRecommendationsSkipsNonVMResources(t *testing.T) {
	engine, store := testEngine(t)
	store.Put(model.Resource{ID: "bucket-1", Provider: model.AWS, Region: "us-east-1", Type: model.ResourceCompute})

	recs, err := engine.MigrationRecommendations(context.Background(), "us-east-1", 10)
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestLimitRecommendationsCapsResults(t *testing.T) {
	engine, store := testEngine(t)
	for i := 0; i < 3; i++ {
		r := overpricedVM(t)
		r.ID = r.ID + string(rune('a'+i))
		r.VM.Name = r.ID
		store.Put(r)
	}

	recs, err := engine.CostOptimizationRecommendations(context.Background(), model.ResourceCompute, "us-east-1", 2)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(recs), 2)
}
