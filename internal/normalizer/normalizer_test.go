package normalizer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lvonguyen/costintel/internal/currency"
	"github.com/lvonguyen/costintel/internal/model"
)

func newEngine(t *testing.T) *Engine {
	t.Helper()
	conv, err := currency.New(currency.Config{})
	require.NoError(t, err)
	return New(conv)
}

func awsComputeRecord() model.RawCostRecord {
	return model.RawCostRecord{
		ResourceID:   "i-0123456789",
		ProviderType: "Amazon Elastic Compute Cloud",
		Name:         "web-1",
		Region:       "us-east-1",
		BillingType:  "OnDemand",
		Amount:       "42.50",
		Currency:     "USD",
		RawFields: map[string]string{
			"instanceType":    "m5.large",
			"operatingSystem": "linux",
			"accountId":       "123456789012",
		},
		AllocationTags: map[string]string{"team": "platform"},
		ProjectKey:     "proj-1",
		CostCenterKey:  "cc-100",
		EnvironmentKey: "production",
	}
}

func TestNormalizeMapsKnownProviderType(t *testing.T) {
	engine := newEngine(t)
	entries, softErrors, err := engine.Normalize(context.Background(), model.AWS, []model.RawCostRecord{awsComputeRecord()}, Options{})
	require.NoError(t, err)
	assert.Empty(t, softErrors)
	require.Len(t, entries, 1)

	entry := entries[0]
	assert.Equal(t, model.ResourceCompute, entry.Resource.CanonicalType)
	assert.Equal(t, "123456789012", entry.AccountID)
	assert.Equal(t, "cc-100", entry.Allocation.CostCenter)
	assert.Equal(t, "m5.large", entry.Resource.Specifications["instance_type"])
	assert.Equal(t, "42.50 USD", entry.Breakdown.Compute.String())
	assert.True(t, entry.Breakdown.Storage.IsZero())
}

func TestNormalizeUnknownProviderTypeFailsFast(t *testing.T) {
	engine := newEngine(t)
	rec := awsComputeRecord()
	rec.ProviderType = "Some::Unmapped::Type"

	_, _, err := engine.Normalize(context.Background(), model.AWS, []model.RawCostRecord{rec}, Options{})
	assert.Error(t, err)
}

func TestNormalizeContinueOnErrorCollectsSoftErrors(t *testing.T) {
	engine := newEngine(t)
	good := awsComputeRecord()
	bad := awsComputeRecord()
	bad.ProviderType = "Some::Unmapped::Type"

	entries, softErrors, err := engine.Normalize(context.Background(), model.AWS, []model.RawCostRecord{good, bad}, Options{ContinueOnError: true})
	require.NoError(t, err)
	assert.Len(t, entries, 1)
	assert.Len(t, softErrors, 1)
}

func TestNormalizeConvertsToTargetCurrency(t *testing.T) {
	conv, err := currency.New(currency.Config{Rates: map[string]string{"USD:EUR": "0.9"}})
	require.NoError(t, err)
	engine := New(conv)

	entries, _, err := engine.Normalize(context.Background(), model.AWS, []model.RawCostRecord{awsComputeRecord()}, Options{TargetCurrency: "EUR"})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "EUR", entries[0].Currency)
	assert.Equal(t, "38.25", entries[0].Breakdown.Compute.Amount.StringFixed(2))
}

func TestNormalizeInvalidAmountFails(t *testing.T) {
	engine := newEngine(t)
	rec := awsComputeRecord()
	rec.Amount = "not-a-number"

	_, _, err := engine.Normalize(context.Background(), model.AWS, []model.RawCostRecord{rec}, Options{})
	assert.Error(t, err)
}
