package selection

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lvonguyen/costintel/internal/comparison"
	"github.com/lvonguyen/costintel/internal/model"
	"github.com/lvonguyen/costintel/internal/providers"
	"github.com/lvonguyen/costintel/internal/providers/simulated"
)

// sharedEngine is built once: selection.New registers fixed-name Prometheus
// counters in the cache package, so constructing a second Engine in the same
// test binary would panic on duplicate registration.
var (
	sharedEngine     *Engine
	sharedEngineOnce sync.Once
)

func testEngine(t *testing.T) *Engine {
	t.Helper()
	sharedEngineOnce.Do(func() {
		factory := providers.NewStaticFactory(providers.ModeSimulated, map[model.Provider]providers.Adapter{
			model.AWS:   simulated.New(model.AWS),
			model.Azure: simulated.New(model.Azure),
			model.GCP:   simulated.New(model.GCP),
		})
		cmp := comparison.New(factory, comparison.Config{})
		caps := providers.NewCapabilityRegistry(factory)
		sharedEngine = New(cmp, caps, Config{})
	})
	return sharedEngine
}

func TestSelectVMReturnsSelectedAndAlternatives(t *testing.T) {
	engine := testEngine(t)

	req := model.VmRequirements{Name: "web-tier", Region: "us-east-1", VCPUs: 2, MemoryGB: 4, OS: "linux"}
	result, err := engine.SelectVM(context.Background(), req, []model.Region{"us-east-1"}, model.SelectionPolicy{})
	require.NoError(t, err)

	assert.NotEmpty(t, result.Selected.Estimate.OptionName)
	for _, alt := range result.Alternatives {
		assert.LessOrEqual(t, alt.TotalScore, result.Selected.TotalScore)
	}
	assert.NotEmpty(t, result.CacheKey)
}

func TestSelectVMCachesByRequirementsAndPolicy(t *testing.T) {
	engine := testEngine(t)

	req := model.VmRequirements{Name: "web-tier", Region: "us-east-1", VCPUs: 2, MemoryGB: 4, OS: "linux"}
	first, err := engine.SelectVM(context.Background(), req, []model.Region{"us-east-1"}, model.SelectionPolicy{})
	require.NoError(t, err)

	second, err := engine.SelectVM(context.Background(), req, []model.Region{"us-east-1"}, model.SelectionPolicy{})
	require.NoError(t, err)

	assert.Equal(t, first.CacheKey, second.CacheKey)
	assert.Equal(t, first.Selected.Estimate.OptionName, second.Selected.Estimate.OptionName)
}

func TestSelectVMSelectsPreferredProvider(t *testing.T) {
	engine := testEngine(t)

	req := model.VmRequirements{Name: "web-tier", Region: "us-east-1", VCPUs: 2, MemoryGB: 4, OS: "linux"}
	policy := model.SelectionPolicy{PreferredProviders: []model.Provider{model.GCP}}
	result, err := engine.SelectVM(context.Background(), req, []model.Region{"us-east-1"}, policy)
	require.NoError(t, err)

	assert.Equal(t, model.GCP, result.Selected.Estimate.Provider)
}

func TestSelectVMRespectsMaxMonthlyBudget(t *testing.T) {
	engine := testEngine(t)

	req := model.VmRequirements{Name: "web-tier", Region: "us-east-1", VCPUs: 2, MemoryGB: 4, OS: "linux"}
	policy := model.SelectionPolicy{MaxMonthlyBudget: model.Some(0.01)}
	_, err := engine.SelectVM(context.Background(), req, []model.Region{"us-east-1"}, policy)
	assert.Error(t, err)
}

func TestSelectVMConcurrencyLimitRejectsWhenExceeded(t *testing.T) {
	// Built directly (not via New) to avoid registering a second set of
	// cache Prometheus counters under the same metric names.
	engine := &Engine{maxConcurrentEvaluations: 1, activeEvaluations: make(map[string]struct{})}

	err := engine.beginEvaluation("in-flight")
	require.NoError(t, err)
	defer engine.endEvaluation("in-flight")

	err = engine.beginEvaluation("another")
	assert.Error(t, err)
}
