package reporter

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lvonguyen/costintel/internal/anomaly"
	"github.com/lvonguyen/costintel/internal/config"
	"github.com/lvonguyen/costintel/internal/model"
	"github.com/lvonguyen/costintel/internal/money"
)

func testData(t *testing.T) ReportData {
	t.Helper()
	total, err := money.New("150.00", "USD")
	require.NoError(t, err)
	compute, err := money.New("100.00", "USD")
	require.NoError(t, err)
	storage, err := money.New("50.00", "USD")
	require.NoError(t, err)

	return ReportData{
		Period: "2026-07",
		Aggregation: model.CostAggregation{
			GroupBy:   []string{"provider"},
			Costs:     map[string]money.Money{"aws": compute, "azure": storage},
			Counts:    map[string]int{"aws": 3, "azure": 1},
			TotalCost: total,
			Currency:  "USD",
		},
		Entries: []model.NormalizedCostEntry{
			{
				AccountID: "acct-1",
				Currency:  "USD",
				Resource:  model.ResourceMetadata{Provider: model.AWS, CanonicalType: model.ResourceCompute, Region: "us-east-1"},
				Window:    model.TimeWindow{Start: time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC), End: time.Date(2026, 7, 2, 0, 0, 0, 0, time.UTC)},
				Breakdown: model.CostBreakdown{Compute: compute},
			},
		},
		Anomalies: []anomaly.Anomaly{
			{Provider: model.AWS, ResourceType: model.ResourceCompute, ActualCost: 500, ExpectedCost: 100, PercentChange: 400, Severity: "high"},
		},
		GeneratedAt: time.Date(2026, 7, 30, 9, 0, 0, 0, time.UTC),
	}
}

func TestGenerateHTMLWritesFileWithReportContent(t *testing.T) {
	dir := t.TempDir()
	r := New(config.ReporterConfig{OutputDir: dir})

	path, err := r.GenerateHTML(testData(t))
	require.NoError(t, err)
	assert.Equal(t, dir, filepath.Dir(path))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), "2026-07")
	assert.Contains(t, string(content), "150.00 USD")
	assert.Contains(t, string(content), "high")
}

func TestGenerateCSVWritesHeaderAndRows(t *testing.T) {
	dir := t.TempDir()
	r := New(config.ReporterConfig{OutputDir: dir})

	path, err := r.GenerateCSV(testData(t))
	require.NoError(t, err)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(content)), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "Provider")
	assert.Contains(t, lines[1], "acct-1")
}

func TestGenerateJSONRoundTrips(t *testing.T) {
	dir := t.TempDir()
	r := New(config.ReporterConfig{OutputDir: dir})

	path, err := r.GenerateJSON(testData(t))
	require.NoError(t, err)

	content, err := os.ReadFile(path)
	require.NoError(t, err)

	var decoded ReportData
	require.NoError(t, json.Unmarshal(content, &decoded))
	assert.Equal(t, "2026-07", decoded.Period)
}

func TestGenerateHTMLCreatesOutputDirIfMissing(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "reports")
	r := New(config.ReporterConfig{OutputDir: dir})

	_, err := r.GenerateHTML(testData(t))
	require.NoError(t, err)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}
