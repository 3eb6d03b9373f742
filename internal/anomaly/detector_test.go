package anomaly

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lvonguyen/costintel/internal/model"
	"github.com/lvonguyen/costintel/internal/money"
)

func costEntry(t *testing.T, daysAgo int, amount string) model.NormalizedCostEntry {
	t.Helper()
	cost, err := money.New(amount, "USD")
	require.NoError(t, err)

	start := time.Now().AddDate(0, 0, -daysAgo)
	return model.NormalizedCostEntry{
		Resource: model.ResourceMetadata{Provider: model.AWS, CanonicalType: model.ResourceCompute},
		Breakdown: model.CostBreakdown{
			Compute: cost,
			Storage: money.Zero("USD"),
			Network: money.Zero("USD"),
			Other:   money.Zero("USD"),
		},
		Currency: "USD",
		Window:   model.TimeWindow{Start: start, End: start.Add(24 * time.Hour)},
	}
}

func TestDetectFlagsSpikeAboveBaseline(t *testing.T) {
	var entries []model.NormalizedCostEntry
	for day := 10; day <= 20; day++ {
		amount := "90.00"
		if day%2 == 0 {
			amount = "110.00"
		}
		entries = append(entries, costEntry(t, day, amount))
	}
	entries = append(entries, costEntry(t, 1, "500.00"))

	detector := NewDetector(DetectorConfig{Sensitivity: SensitivityMedium, BaselineDays: 7, MinSpend: 10})
	anomalies := detector.Detect(entries)

	require.Len(t, anomalies, 1)
	assert.Equal(t, model.AWS, anomalies[0].Provider)
	assert.Equal(t, model.ResourceCompute, anomalies[0].ResourceType)
	assert.Equal(t, float64(500), anomalies[0].ActualCost)
}

func TestDetectIgnoresGroupsBelowMinSpend(t *testing.T) {
	var entries []model.NormalizedCostEntry
	for day := 10; day <= 20; day++ {
		entries = append(entries, costEntry(t, day, "1.00"))
	}
	entries = append(entries, costEntry(t, 1, "50.00"))

	detector := NewDetector(DetectorConfig{Sensitivity: SensitivityHigh, BaselineDays: 7, MinSpend: 100})
	anomalies := detector.Detect(entries)
	assert.Empty(t, anomalies)
}

func TestDetectNoAnomalyWhenStable(t *testing.T) {
	var entries []model.NormalizedCostEntry
	for day := 1; day <= 20; day++ {
		entries = append(entries, costEntry(t, day, "100.00"))
	}

	detector := NewDetector(DetectorConfig{Sensitivity: SensitivityLow, BaselineDays: 14, MinSpend: 10})
	anomalies := detector.Detect(entries)
	assert.Empty(t, anomalies)
}

func TestDetectEmptyInput(t *testing.T) {
	detector := NewDetector(DetectorConfig{Sensitivity: SensitivityMedium, BaselineDays: 14})
	assert.Nil(t, detector.Detect(nil))
}

func TestDetectSortsBySeverityDescending(t *testing.T) {
	var entries []model.NormalizedCostEntry
	for day := 10; day <= 20; day++ {
		amount := "80.00"
		if day%2 == 0 {
			amount = "120.00"
		}
		entries = append(entries, costEntry(t, day, amount))
	}
	entries = append(entries, costEntry(t, 1, "150.00"))
	entries = append(entries, costEntry(t, 2, "900.00"))

	detector := NewDetector(DetectorConfig{Sensitivity: SensitivityHigh, BaselineDays: 7, MinSpend: 10})
	anomalies := detector.Detect(entries)
	require.Len(t, anomalies, 2)
	assert.GreaterOrEqual(t, severityRank(anomalies[0].Severity), severityRank(anomalies[1].Severity))
}
