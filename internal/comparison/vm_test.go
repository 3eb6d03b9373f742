package comparison

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lvonguyen/costintel/internal/model"
	"github.com/lvonguyen/costintel/internal/providers"
	"github.com/lvonguyen/costintel/internal/providers/simulated"
)

func testFactory() providers.AdapterFactory {
	return providers.NewStaticFactory(providers.ModeSimulated, map[model.Provider]providers.Adapter{
		model.AWS:   simulated.New(model.AWS),
		model.Azure: simulated.New(model.Azure),
		model.GCP:   simulated.New(model.GCP),
	})
}

func TestCompareVMReturnsRankedEstimates(t *testing.T) {
	engine := New(testFactory(), Config{})

	req := model.VmRequirements{Name: "web-tier", Region: "us-east-1", VCPUs: 2, MemoryGB: 4, OS: "linux"}
	result, err := engine.CompareVM(context.Background(), req, model.ComparisonFilter{})
	require.NoError(t, err)

	require.NotEmpty(t, result.Comparison.Estimates)
	assert.Equal(t, result.Comparison.Estimates[0], result.Comparison.RecommendedOption)

	for i := 1; i < len(result.Comparison.Estimates); i++ {
		prev, cur := result.Comparison.Estimates[i-1], result.Comparison.Estimates[i]
		assert.LessOrEqual(t, prev.MonthlyCost.Cmp(cur.MonthlyCost), 0)
	}
}

func TestCompareVMFiltersByProvider(t *testing.T) {
	engine := New(testFactory(), Config{})

	req := model.VmRequirements{Name: "web-tier", Region: "us-east-1", VCPUs: 2, MemoryGB: 4, OS: "linux"}
	result, err := engine.CompareVM(context.Background(), req, model.ComparisonFilter{Providers: []model.Provider{model.AWS}})
	require.NoError(t, err)

	for _, e := range result.Comparison.Estimates {
		assert.Equal(t, model.AWS, e.Provider)
	}
}

func TestCompareVMInvalidRequirementsFails(t *testing.T) {
	engine := New(testFactory(), Config{})

	_, err := engine.CompareVM(context.Background(), model.VmRequirements{Name: "bad", Region: "us-east-1"}, model.ComparisonFilter{})
	assert.Error(t, err)
}

func TestCompareVMNoMatchingOptionsWhenRequirementsExceedCatalog(t *testing.T) {
	engine := New(testFactory(), Config{})

	req := model.VmRequirements{Name: "huge", Region: "us-east-1", VCPUs: 256, MemoryGB: 4096, OS: "linux"}
	_, err := engine.CompareVM(context.Background(), req, model.ComparisonFilter{})
	assert.Error(t, err)
}

func TestCompareVMAppliesMaxMonthlyCostFilter(t *testing.T) {
	engine := New(testFactory(), Config{})

	req := model.VmRequirements{Name: "web-tier", Region: "us-east-1", VCPUs: 2, MemoryGB: 4, OS: "linux"}
	result, err := engine.CompareVM(context.Background(), req, model.ComparisonFilter{MaxMonthlyCost: model.Some(1.0)})
	assert.Error(t, err)
	assert.Empty(t, result.Comparison.Estimates)
}
