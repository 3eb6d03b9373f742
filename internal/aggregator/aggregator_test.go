package aggregator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lvonguyen/costintel/internal/model"
	"github.com/lvonguyen/costintel/internal/money"
)

func entry(t *testing.T, provider model.Provider, rtype model.ResourceType, amount string) *model.NormalizedCostEntry {
	t.Helper()
	cost, err := money.New(amount, "USD")
	require.NoError(t, err)

	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	return &model.NormalizedCostEntry{
		Resource: model.ResourceMetadata{Provider: provider, CanonicalType: rtype},
		Breakdown: model.CostBreakdown{
			Compute: cost,
			Storage: money.Zero("USD"),
			Network: money.Zero("USD"),
			Other:   money.Zero("USD"),
		},
		Currency: "USD",
		Window:   model.TimeWindow{Start: now, End: now.Add(time.Hour)},
	}
}

func TestAggregateGroupsByProvider(t *testing.T) {
	entries := []*model.NormalizedCostEntry{
		entry(t, model.AWS, model.ResourceCompute, "10.00"),
		entry(t, model.AWS, model.ResourceStorage, "5.00"),
		entry(t, model.Azure, model.ResourceCompute, "3.00"),
	}

	agg := New()
	result := agg.Aggregate(entries, []string{"resource.provider"}, "USD")

	assert.Equal(t, "15.00 USD", result.Costs["aws"].String())
	assert.Equal(t, "3.00 USD", result.Costs["azure"].String())
	assert.Equal(t, 2, result.Counts["aws"])
	assert.Equal(t, "18.00 USD", result.TotalCost.String())
}

func TestAggregateGroupsByMultiplePaths(t *testing.T) {
	entries := []*model.NormalizedCostEntry{
		entry(t, model.AWS, model.ResourceCompute, "10.00"),
		entry(t, model.AWS, model.ResourceStorage, "5.00"),
	}

	agg := New()
	result := agg.Aggregate(entries, []string{"resource.provider", "resource.type"}, "USD")

	assert.Equal(t, "10.00 USD", result.Costs["aws:compute"].String())
	assert.Equal(t, "5.00 USD", result.Costs["aws:storage"].String())
}

func TestAggregateUnknownPathCollapsesToSingleGroup(t *testing.T) {
	entries := []*model.NormalizedCostEntry{
		entry(t, model.AWS, model.ResourceCompute, "10.00"),
		entry(t, model.Azure, model.ResourceStorage, "5.00"),
	}

	agg := New()
	result := agg.Aggregate(entries, []string{"nonexistent.path"}, "USD")

	require.Len(t, result.Costs, 1)
	assert.Equal(t, "15.00 USD", result.Costs[""].String())
}

func TestAggregateTagPath(t *testing.T) {
	e := entry(t, model.AWS, model.ResourceCompute, "10.00")
	e.Allocation.Tags = map[string]string{"team": "platform"}

	agg := New()
	result := agg.Aggregate([]*model.NormalizedCostEntry{e}, []string{"allocation.tags.team"}, "USD")

	assert.Equal(t, "10.00 USD", result.Costs["platform"].String())
}

func TestAggregateEmptyInput(t *testing.T) {
	agg := New()
	result := agg.Aggregate(nil, []string{"resource.provider"}, "USD")

	assert.Empty(t, result.Costs)
	assert.True(t, result.TotalCost.IsZero())
}

func TestAggregateWindowSpansAllEntries(t *testing.T) {
	early := entry(t, model.AWS, model.ResourceCompute, "1.00")
	early.Window = model.TimeWindow{
		Start: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2026, 1, 1, 1, 0, 0, 0, time.UTC),
	}
	late := entry(t, model.AWS, model.ResourceCompute, "1.00")
	late.Window = model.TimeWindow{
		Start: time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2026, 1, 5, 1, 0, 0, 0, time.UTC),
	}

	agg := New()
	result := agg.Aggregate([]*model.NormalizedCostEntry{early, late}, []string{"resource.provider"}, "USD")

	assert.Equal(t, early.Window.Start, result.Window.Start)
	assert.Equal(t, late.Window.End, result.Window.End)
}
