// Package anomaly provides cost anomaly detection over normalized cost
// entries, grounded on the teacher's internal/anomaly package: the same
// per-group Z-score baseline/threshold approach, regrouped from the
// teacher's flat Cloud/Service keys onto model.NormalizedCostEntry's
// Provider/CanonicalType and re-timed onto its TimeWindow instead of a
// single Date field.
package anomaly

import (
	"math"
	"sort"
	"time"

	"github.com/lvonguyen/costintel/internal/model"
)

// Sensitivity levels for anomaly detection.
type Sensitivity string

const (
	SensitivityLow    Sensitivity = "low"
	SensitivityMedium Sensitivity = "medium"
	SensitivityHigh   Sensitivity = "high"
)

// DetectorConfig holds configuration for anomaly detection.
type DetectorConfig struct {
	Sensitivity  Sensitivity
	BaselineDays int
	MinSpend     float64
}

// Anomaly represents a detected cost anomaly.
type Anomaly struct {
	Date          time.Time
	ResourceType  model.ResourceType
	Provider      model.Provider
	ActualCost    float64
	ExpectedCost  float64
	Deviation     float64
	PercentChange float64
	Reason        string
	Severity      string
}

// Detector performs anomaly detection on normalized cost entries.
type Detector struct {
	config     DetectorConfig
	thresholds map[Sensitivity]float64
}

// NewDetector creates a new anomaly detector.
func NewDetector(cfg DetectorConfig) *Detector {
	return &Detector{
		config: cfg,
		thresholds: map[Sensitivity]float64{
			SensitivityLow:    3.0,
			SensitivityMedium: 2.0,
			SensitivityHigh:   1.5,
		},
	}
}

// groupKey identifies the per-provider, per-resource-type series a baseline
// is computed over.
type groupKey struct {
	provider model.Provider
	rtype    model.ResourceType
}

// Detect analyzes normalized cost entries for anomalies, grouped by
// (provider, canonical resource type).
func (d *Detector) Detect(entries []model.NormalizedCostEntry) []Anomaly {
	if len(entries) == 0 {
		return nil
	}

	grouped := make(map[groupKey][]model.NormalizedCostEntry)
	for _, e := range entries {
		key := groupKey{provider: e.Resource.Provider, rtype: e.Resource.CanonicalType}
		grouped[key] = append(grouped[key], e)
	}

	var anomalies []Anomaly
	for _, group := range grouped {
		sort.Slice(group, func(i, j int) bool { return group[i].Window.Start.Before(group[j].Window.Start) })

		baseline := d.calculateBaseline(group)
		if baseline.Mean < d.config.MinSpend {
			continue
		}

		for _, e := range d.getRecentEntries(group, 7) {
			if anomaly := d.checkAnomaly(e, baseline); anomaly != nil {
				anomalies = append(anomalies, *anomaly)
			}
		}
	}

	sort.Slice(anomalies, func(i, j int) bool {
		return severityRank(anomalies[i].Severity) > severityRank(anomalies[j].Severity)
	})
	return anomalies
}

// Baseline holds statistical baseline for a (provider, resource type) group.
type Baseline struct {
	Mean   float64
	StdDev float64
	Min    float64
	Max    float64
	Count  int
}

func (d *Detector) calculateBaseline(entries []model.NormalizedCostEntry) Baseline {
	cutoff := time.Now().AddDate(0, 0, -d.config.BaselineDays)
	var values []float64
	for _, e := range entries {
		if e.Window.Start.Before(cutoff) {
			v, _ := e.TotalCost().Amount.Float64()
			values = append(values, v)
		}
	}
	if len(values) == 0 {
		return Baseline{}
	}

	sum, min, max := 0.0, values[0], values[0]
	for _, v := range values {
		sum += v
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	mean := sum / float64(len(values))

	var sumSqDiff float64
	for _, v := range values {
		sumSqDiff += (v - mean) * (v - mean)
	}
	stdDev := math.Sqrt(sumSqDiff / float64(len(values)))

	return Baseline{Mean: mean, StdDev: stdDev, Min: min, Max: max, Count: len(values)}
}

func (d *Detector) getRecentEntries(entries []model.NormalizedCostEntry, days int) []model.NormalizedCostEntry {
	cutoff := time.Now().AddDate(0, 0, -days)
	var recent []model.NormalizedCostEntry
	for _, e := range entries {
		if e.Window.Start.After(cutoff) {
			recent = append(recent, e)
		}
	}
	return recent
}

func (d *Detector) checkAnomaly(e model.NormalizedCostEntry, baseline Baseline) *Anomaly {
	if baseline.StdDev == 0 {
		return nil
	}

	actual, _ := e.TotalCost().Amount.Float64()
	zScore := (actual - baseline.Mean) / baseline.StdDev
	threshold := d.thresholds[d.config.Sensitivity]
	if math.Abs(zScore) < threshold {
		return nil
	}

	percentChange := ((actual - baseline.Mean) / baseline.Mean) * 100

	severity := "low"
	switch {
	case math.Abs(zScore) >= 4.0:
		severity = "critical"
	case math.Abs(zScore) >= 3.0:
		severity = "high"
	case math.Abs(zScore) >= 2.0:
		severity = "medium"
	}

	return &Anomaly{
		Date:          e.Window.Start,
		ResourceType:  e.Resource.CanonicalType,
		Provider:      e.Resource.Provider,
		ActualCost:    actual,
		ExpectedCost:  baseline.Mean,
		Deviation:     zScore,
		PercentChange: percentChange,
		Reason:        determineReason(percentChange),
		Severity:      severity,
	}
}

func determineReason(percentChange float64) string {
	switch {
	case percentChange > 100:
		return "significant cost spike, possible new workload or misconfiguration"
	case percentChange > 50:
		return "notable increase, check for scaling events or new resources"
	case percentChange < -50:
		return "significant decrease, resource termination or reduced usage"
	case percentChange > 20:
		return "moderate increase, normal variance or gradual growth"
	default:
		return "cost deviation from historical baseline"
	}
}

func severityRank(severity string) int {
	switch severity {
	case "critical":
		return 4
	case "high":
		return 3
	case "medium":
		return 2
	case "low":
		return 1
	default:
		return 0
	}
}
