package chargeback

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lvonguyen/costintel/internal/model"
	"github.com/lvonguyen/costintel/internal/money"
)

func allocEntry(t *testing.T, provider model.Provider, rtype model.ResourceType, costCenter, amount string) model.NormalizedCostEntry {
	t.Helper()
	cost, err := money.New(amount, "USD")
	require.NoError(t, err)

	return model.NormalizedCostEntry{
		Resource:   model.ResourceMetadata{Provider: provider, CanonicalType: rtype},
		Allocation: model.CostAllocation{CostCenter: costCenter},
		Breakdown: model.CostBreakdown{
			Compute: cost,
			Storage: money.Zero("USD"),
			Network: money.Zero("USD"),
			Other:   money.Zero("USD"),
		},
		Currency: "USD",
	}
}

func TestAllocateDirectCosts(t *testing.T) {
	entries := []model.NormalizedCostEntry{
		allocEntry(t, model.AWS, model.ResourceCompute, "platform", "100.00"),
		allocEntry(t, model.Azure, model.ResourceStorage, "platform", "20.00"),
		allocEntry(t, model.AWS, model.ResourceCompute, "data", "50.00"),
	}

	allocator := NewAllocator(AllocatorConfig{Currency: "USD"})
	allocations := allocator.Allocate(entries)

	require.Contains(t, allocations, "platform")
	require.Contains(t, allocations, "data")
	assert.Equal(t, "120.00 USD", allocations["platform"].TotalCost.String())
	assert.Equal(t, "50.00 USD", allocations["data"].TotalCost.String())
	assert.Equal(t, "100.00 USD", allocations["platform"].ByProvider[model.AWS].String())
	assert.Equal(t, "20.00 USD", allocations["platform"].ByProvider[model.Azure].String())
}

func TestAllocateUntaggedToPool(t *testing.T) {
	entries := []model.NormalizedCostEntry{
		allocEntry(t, model.AWS, model.ResourceCompute, "platform", "100.00"),
		allocEntry(t, model.AWS, model.ResourceCompute, "", "30.00"),
	}

	allocator := NewAllocator(AllocatorConfig{Currency: "USD", UntaggedPool: "shared"})
	allocations := allocator.Allocate(entries)

	require.Contains(t, allocations, "shared")
	assert.Equal(t, "30.00 USD", allocations["shared"].TotalCost.String())
	assert.Equal(t, "100.00 USD", allocations["platform"].TotalCost.String())
}

func TestAllocateUntaggedSplitBySharedCostRules(t *testing.T) {
	entries := []model.NormalizedCostEntry{
		allocEntry(t, model.AWS, model.ResourceCompute, "", "100.00"),
	}

	allocator := NewAllocator(AllocatorConfig{
		Currency: "USD",
		SharedCostSplit: []SharedCostRule{
			{CostCenter: "platform", Percentage: 70},
			{CostCenter: "data", Percentage: 30},
		},
	})
	allocations := allocator.Allocate(entries)

	assert.Equal(t, "70.00 USD", allocations["platform"].TotalCost.String())
	assert.Equal(t, "30.00 USD", allocations["data"].TotalCost.String())
}

func TestAllocateUntaggedDistributesProportionallyByDefault(t *testing.T) {
	entries := []model.NormalizedCostEntry{
		allocEntry(t, model.AWS, model.ResourceCompute, "platform", "75.00"),
		allocEntry(t, model.AWS, model.ResourceCompute, "data", "25.00"),
		allocEntry(t, model.AWS, model.ResourceCompute, "", "40.00"),
	}

	allocator := NewAllocator(AllocatorConfig{Currency: "USD"})
	allocations := allocator.Allocate(entries)

	assert.Equal(t, "105.00", allocations["platform"].TotalCost.Amount.StringFixed(2))
	assert.Equal(t, "35.00", allocations["data"].TotalCost.Amount.StringFixed(2))
}

func TestGenerateReportSortsDescendingByTotalCost(t *testing.T) {
	entries := []model.NormalizedCostEntry{
		allocEntry(t, model.AWS, model.ResourceCompute, "small", "10.00"),
		allocEntry(t, model.AWS, model.ResourceCompute, "big", "500.00"),
	}

	allocator := NewAllocator(AllocatorConfig{Currency: "USD"})
	allocations := allocator.Allocate(entries)
	report := GenerateReport(allocations, "2026-01", "USD")

	require.Len(t, report.Allocations, 2)
	assert.Equal(t, "big", report.Allocations[0].CostCenter)
	assert.Equal(t, "small", report.Allocations[1].CostCenter)
	assert.Equal(t, "510.00 USD", report.TotalCost.String())
}

func TestReportSaveCSVWritesHeaderAndTotalRow(t *testing.T) {
	entries := []model.NormalizedCostEntry{
		allocEntry(t, model.AWS, model.ResourceCompute, "platform", "100.00"),
	}

	allocator := NewAllocator(AllocatorConfig{Currency: "USD"})
	allocations := allocator.Allocate(entries)
	report := GenerateReport(allocations, "2026-01", "USD")

	path := filepath.Join(t.TempDir(), "chargeback.csv")
	require.NoError(t, report.SaveCSV(path))

	contents, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(contents), "Cost Center")
	assert.Contains(t, string(contents), "TOTAL")
	assert.Contains(t, string(contents), "platform")
}
