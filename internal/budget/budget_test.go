package budget

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lvonguyen/costintel/internal/costerrors"
	"github.com/lvonguyen/costintel/internal/model"
	"github.com/lvonguyen/costintel/internal/money"
)

func entryOnDay(t *testing.T, start time.Time, dayOffset int, amount string) model.NormalizedCostEntry {
	t.Helper()
	cost, err := money.New(amount, "USD")
	require.NoError(t, err)

	day := start.AddDate(0, 0, dayOffset)
	return model.NormalizedCostEntry{
		ID:       "entry",
		Resource: model.ResourceMetadata{Provider: model.AWS, CanonicalType: model.ResourceCompute},
		Breakdown: model.CostBreakdown{
			Compute: cost,
			Storage: money.Zero("USD"),
			Network: money.Zero("USD"),
			Other:   money.Zero("USD"),
		},
		Currency: "USD",
		Window:   model.TimeWindow{Start: day, End: day.Add(24 * time.Hour)},
	}
}

func newTestBudget(t *testing.T, limit string) model.Budget {
	t.Helper()
	amount, err := money.New(limit, "USD")
	require.NoError(t, err)

	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	return model.Budget{
		Name:   "engineering",
		Amount: amount,
		Period: model.BudgetMonthly,
		Start:  now,
		End:    now.AddDate(0, 1, 0),
		Thresholds: []model.Threshold{
			{Percentage: 50, Amount: mustMoney(t, "50.00")},
			{Percentage: 90, Amount: mustMoney(t, "90.00")},
		},
	}
}

func mustMoney(t *testing.T, amount string) money.Money {
	t.Helper()
	m, err := money.New(amount, "USD")
	require.NoError(t, err)
	return m
}

func TestCreateBudgetAssignsIDAndSortsThresholds(t *testing.T) {
	mgr := New(Config{})
	b := newTestBudget(t, "100.00")
	b.Thresholds[0], b.Thresholds[1] = b.Thresholds[1], b.Thresholds[0]

	created, err := mgr.CreateBudget(b)
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, float64(50), created.Thresholds[0].Percentage)
	assert.Equal(t, float64(90), created.Thresholds[1].Percentage)
}

func TestCreateBudgetValidation(t *testing.T) {
	mgr := New(Config{})

	_, err := mgr.CreateBudget(model.Budget{})
	require.Error(t, err)
	assert.IsType(t, &costerrors.ValidationError{}, err)
}

func TestDeleteBudgetCascadesAlerts(t *testing.T) {
	mgr := New(Config{})
	created, err := mgr.CreateBudget(newTestBudget(t, "100.00"))
	require.NoError(t, err)

	entries := []model.NormalizedCostEntry{entryOnDay(t, created.Start, 0, "60.00")}
	_, err = mgr.EvaluateBudget(created.ID, entries)
	require.NoError(t, err)

	require.NoError(t, mgr.DeleteBudget(created.ID))

	_, err = mgr.ListAlerts(created.ID, "")
	assert.Error(t, err)
}

func TestEvaluateBudgetOpensAndResolvesAlerts(t *testing.T) {
	mgr := New(Config{})
	created, err := mgr.CreateBudget(newTestBudget(t, "100.00"))
	require.NoError(t, err)

	over := []model.NormalizedCostEntry{entryOnDay(t, created.Start, 0, "60.00")}
	alerts, err := mgr.EvaluateBudget(created.ID, over)
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, model.AlertActive, alerts[0].Status)
	assert.Equal(t, float64(50), alerts[0].Threshold.Percentage)

	under := []model.NormalizedCostEntry{entryOnDay(t, created.Start, 0, "10.00")}
	alerts, err = mgr.EvaluateBudget(created.ID, under)
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, model.AlertResolved, alerts[0].Status)
}

func TestForecastRequiresMinimumDataPoints(t *testing.T) {
	mgr := New(Config{ForecastDataPoints: 5})
	created, err := mgr.CreateBudget(newTestBudget(t, "1000.00"))
	require.NoError(t, err)

	entries := []model.NormalizedCostEntry{entryOnDay(t, created.Start, 0, "10.00")}
	_, err = mgr.Forecast(created.ID, entries)
	require.Error(t, err)
	assert.IsType(t, &costerrors.InsufficientDataError{}, err)
}

func TestForecastProjectsUpwardTrend(t *testing.T) {
	mgr := New(Config{ForecastDataPoints: 3})
	created, err := mgr.CreateBudget(newTestBudget(t, "1000.00"))
	require.NoError(t, err)

	entries := []model.NormalizedCostEntry{
		entryOnDay(t, created.Start, 0, "10.00"),
		entryOnDay(t, created.Start, 1, "20.00"),
		entryOnDay(t, created.Start, 2, "30.00"),
	}

	forecast, err := mgr.Forecast(created.ID, entries)
	require.NoError(t, err)
	assert.Equal(t, 3, forecast.DataPoints)
	assert.True(t, forecast.ProjectedSpend.Amount.IsPositive())
}

func TestSummarizeComputesPercentOfLimit(t *testing.T) {
	mgr := New(Config{})
	created, err := mgr.CreateBudget(newTestBudget(t, "100.00"))
	require.NoError(t, err)

	entries := []model.NormalizedCostEntry{entryOnDay(t, created.Start, 0, "25.00")}
	summary, err := mgr.Summarize(created.ID, entries)
	require.NoError(t, err)
	assert.InDelta(t, 25.0, summary.PercentOfLimit, 0.001)
}

func TestUpdateAlertAttachesResolutionNotes(t *testing.T) {
	mgr := New(Config{})
	created, err := mgr.CreateBudget(newTestBudget(t, "100.00"))
	require.NoError(t, err)

	entries := []model.NormalizedCostEntry{entryOnDay(t, created.Start, 0, "60.00")}
	alerts, err := mgr.EvaluateBudget(created.ID, entries)
	require.NoError(t, err)
	require.Len(t, alerts, 1)

	updated, err := mgr.UpdateAlert(created.ID, alerts[0].ID, model.AlertAcknowledged, "investigating")
	require.NoError(t, err)
	assert.Equal(t, model.AlertAcknowledged, updated.Status)
	assert.Equal(t, "investigating", updated.ResolutionNotes)
}
