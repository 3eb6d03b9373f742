package comparison

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lvonguyen/costintel/internal/model"
)

func TestCompareStorageReturnsRankedEstimates(t *testing.T) {
	engine := New(testFactory(), Config{})

	req := model.StorageRequirements{Name: "archive-bucket", Region: "us-east-1", StorageType: model.StorageObject, CapacityGB: 500}
	result, err := engine.CompareStorage(context.Background(), req, model.ComparisonFilter{})
	require.NoError(t, err)

	require.NotEmpty(t, result.Comparison.Estimates)
	assert.Equal(t, result.Comparison.Estimates[0], result.Comparison.RecommendedOption)
}

func TestCompareStorageAppliesIOPSSurcharge(t *testing.T) {
	engine := New(testFactory(), Config{})

	base := model.StorageRequirements{Name: "block-vol", Region: "us-east-1", StorageType: model.StorageBlock, CapacityGB: 100}
	withoutIOPS, err := engine.CompareStorage(context.Background(), base, model.ComparisonFilter{})
	require.NoError(t, err)

	withIOPS := base
	withIOPS.IOPS = model.Some(10000)
	withIOPSResult, err := engine.CompareStorage(context.Background(), withIOPS, model.ComparisonFilter{})
	require.NoError(t, err)

	assert.True(t, withIOPSResult.Comparison.Estimates[0].MonthlyCost.Cmp(withoutIOPS.Comparison.Estimates[0].MonthlyCost) > 0)
}

func TestCompareStorageInvalidCapacityFails(t *testing.T) {
	engine := New(testFactory(), Config{})

	req := model.StorageRequirements{Name: "bad", Region: "us-east-1", StorageType: model.StorageObject, CapacityGB: 0}
	_, err := engine.CompareStorage(context.Background(), req, model.ComparisonFilter{})
	assert.Error(t, err)
}

func TestCompareStorageFiltersByStorageClass(t *testing.T) {
	engine := New(testFactory(), Config{})

	req := model.StorageRequirements{
		Name: "standard-only", Region: "us-east-1", StorageType: model.StorageObject, CapacityGB: 50,
		StorageClass: model.Some(model.StorageInfrequent),
	}
	result, err := engine.CompareStorage(context.Background(), req, model.ComparisonFilter{})
	require.NoError(t, err)

	for _, est := range result.Comparison.Estimates {
		assert.Equal(t, string(model.StorageInfrequent), est.OptionName)
	}
}
