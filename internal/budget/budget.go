// Package budget implements budget CRUD, threshold alert evaluation, and
// linear-trend spend forecasting, grounded on
// original_source/cloud-budget-manager/manager.py's BudgetManager: the same
// create/get/update/delete-with-cascade and get-alerts/get-forecast shape,
// re-keyed onto model.Budget/model.Alert and backed by in-memory maps
// guarded by a mutex instead of the Python original's async state object.
// Unlike the original, whose _update_budget_summary/_generate_forecast
// bodies were left as TODO stubs, EvaluateBudget and Forecast here compute
// real threshold crossings and a real least-squares trend projection.
package budget

import (
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lvonguyen/costintel/internal/costerrors"
	"github.com/lvonguyen/costintel/internal/model"
	"github.com/lvonguyen/costintel/internal/money"
)

// Config tunes the forecast requirements shared by every budget.
type Config struct {
	ForecastDataPoints    int
	ForecastConfidence    float64
	AlertBufferPercentage float64
}

func (c *Config) applyDefaults() {
	if c.ForecastDataPoints <= 0 {
		c.ForecastDataPoints = 30
	}
	if c.ForecastConfidence <= 0 {
		c.ForecastConfidence = 0.95
	}
}

// Manager owns budget and alert state. Deleting a budget cascades to its
// alerts, mirroring manager.py's delete_budget.
type Manager struct {
	mu      sync.RWMutex
	cfg     Config
	budgets map[string]model.Budget
	alerts  map[string][]model.Alert
}

// New creates an empty budget manager.
func New(cfg Config) *Manager {
	cfg.applyDefaults()
	return &Manager{
		cfg:     cfg,
		budgets: make(map[string]model.Budget),
		alerts:  make(map[string][]model.Alert),
	}
}

// CreateBudget validates and stores a new budget, assigning an ID if the
// caller left one blank.
func (m *Manager) CreateBudget(b model.Budget) (model.Budget, error) {
	if err := validateBudget(b); err != nil {
		return model.Budget{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	if _, exists := m.budgets[b.ID]; exists {
		return model.Budget{}, &costerrors.ConfigurationError{
			Message: fmt.Sprintf("budget already exists: %s", b.ID),
		}
	}

	sort.Slice(b.Thresholds, func(i, j int) bool {
		return b.Thresholds[i].Percentage < b.Thresholds[j].Percentage
	})

	m.budgets[b.ID] = b
	m.alerts[b.ID] = nil
	return b, nil
}

// GetBudget returns a budget by ID.
func (m *Manager) GetBudget(id string) (model.Budget, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	b, ok := m.budgets[id]
	if !ok {
		return model.Budget{}, &costerrors.DataNotFoundError{Kind: "budget", ID: id}
	}
	return b, nil
}

// UpdateBudget replaces a budget's stored configuration wholesale, keeping
// its existing alert history.
func (m *Manager) UpdateBudget(b model.Budget) (model.Budget, error) {
	if err := validateBudget(b); err != nil {
		return model.Budget{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.budgets[b.ID]; !ok {
		return model.Budget{}, &costerrors.DataNotFoundError{Kind: "budget", ID: b.ID}
	}

	sort.Slice(b.Thresholds, func(i, j int) bool {
		return b.Thresholds[i].Percentage < b.Thresholds[j].Percentage
	})
	m.budgets[b.ID] = b
	return b, nil
}

// DeleteBudget removes a budget and cascades to its alerts.
func (m *Manager) DeleteBudget(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.budgets[id]; !ok {
		return &costerrors.DataNotFoundError{Kind: "budget", ID: id}
	}
	delete(m.budgets, id)
	delete(m.alerts, id)
	return nil
}

// ListAlerts returns the alerts recorded for a budget, optionally filtered
// by status.
func (m *Manager) ListAlerts(budgetID string, status model.AlertStatus) ([]model.Alert, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if _, ok := m.budgets[budgetID]; !ok {
		return nil, &costerrors.DataNotFoundError{Kind: "budget", ID: budgetID}
	}

	all := m.alerts[budgetID]
	if status == "" {
		return append([]model.Alert(nil), all...), nil
	}

	var filtered []model.Alert
	for _, a := range all {
		if a.Status == status {
			filtered = append(filtered, a)
		}
	}
	return filtered, nil
}

// UpdateAlert transitions an alert's status, optionally attaching
// resolution notes.
func (m *Manager) UpdateAlert(budgetID, alertID string, status model.AlertStatus, notes string) (model.Alert, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	alerts, ok := m.alerts[budgetID]
	if !ok {
		return model.Alert{}, &costerrors.DataNotFoundError{Kind: "budget", ID: budgetID}
	}

	for i := range alerts {
		if alerts[i].ID == alertID {
			alerts[i].Status = status
			if notes != "" {
				alerts[i].ResolutionNotes = notes
			}
			m.alerts[budgetID] = alerts
			return alerts[i], nil
		}
	}
	return model.Alert{}, &costerrors.DataNotFoundError{Kind: "alert", ID: alertID}
}

// EvaluateBudget compares a budget's matching spend against each of its
// thresholds and records any newly active alerts, returning all alerts
// recorded this evaluation (new and pre-existing, active and resolved).
func (m *Manager) EvaluateBudget(budgetID string, entries []model.NormalizedCostEntry) ([]model.Alert, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, ok := m.budgets[budgetID]
	if !ok {
		return nil, &costerrors.DataNotFoundError{Kind: "budget", ID: budgetID}
	}

	spend := matchingSpend(b, entries)
	now := time.Now()

	existing := m.alerts[budgetID]
	active := make(map[float64]bool)
	for _, a := range existing {
		if a.Status == model.AlertActive {
			active[a.Threshold.Percentage] = true
		}
	}

	for _, th := range b.Thresholds {
		crossed := spend.Cmp(th.Amount) >= 0
		switch {
		case crossed && !active[th.Percentage]:
			existing = append(existing, model.Alert{
				ID:            uuid.NewString(),
				BudgetID:      budgetID,
				Threshold:     th,
				ObservedSpend: spend,
				Status:        model.AlertActive,
				EvaluatedAt:   now,
			})
		case crossed && active[th.Percentage]:
			for i := range existing {
				if existing[i].Threshold.Percentage == th.Percentage && existing[i].Status == model.AlertActive {
					existing[i].ObservedSpend = spend
					existing[i].EvaluatedAt = now
				}
			}
		case !crossed && active[th.Percentage]:
			for i := range existing {
				if existing[i].Threshold.Percentage == th.Percentage && existing[i].Status == model.AlertActive {
					existing[i].Status = model.AlertResolved
					existing[i].EvaluatedAt = now
				}
			}
		}
	}

	m.alerts[budgetID] = existing
	return append([]model.Alert(nil), existing...), nil
}

// matchingSpend sums TotalCost for entries passing a budget's filter,
// within [budget.Start, budget.End).
func matchingSpend(b model.Budget, entries []model.NormalizedCostEntry) money.Money {
	total := money.Zero(b.Amount.Currency)
	for _, e := range entries {
		if e.Window.Start.Before(b.Start) || !e.Window.Start.Before(b.End) {
			continue
		}
		if !matchesFilter(b.Filter, e) {
			continue
		}
		total = total.Add(e.TotalCost())
	}
	return total
}

func matchesFilter(f model.BudgetFilter, e model.NormalizedCostEntry) bool {
	if len(f.Providers) > 0 {
		found := false
		for _, p := range f.Providers {
			if p == e.Resource.Provider {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if len(f.Projects) > 0 {
		found := false
		for _, p := range f.Projects {
			if p == e.Allocation.Project {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	for k, v := range f.Tags {
		if e.Allocation.Tags[k] != v {
			return false
		}
	}
	return true
}

// Forecast projects a budget's spend to the end of its current period using
// ordinary least-squares regression over daily spend samples, requiring at
// least cfg.ForecastDataPoints days of history.
func (m *Manager) Forecast(budgetID string, entries []model.NormalizedCostEntry) (model.SpendingForecast, error) {
	m.mu.RLock()
	b, ok := m.budgets[budgetID]
	m.mu.RUnlock()
	if !ok {
		return model.SpendingForecast{}, &costerrors.DataNotFoundError{Kind: "budget", ID: budgetID}
	}

	daily := dailySpend(b, entries)
	if len(daily) < m.cfg.ForecastDataPoints {
		return model.SpendingForecast{}, &costerrors.InsufficientDataError{
			Have: len(daily),
			Need: m.cfg.ForecastDataPoints,
		}
	}

	days := sortedDays(daily)
	slope, intercept := linearRegression(days, daily)

	totalPeriodDays := int(b.End.Sub(b.Start).Hours() / 24)
	elapsedDays := int(days[len(days)-1]) + 1

	projectedTotal := 0.0
	for _, v := range daily {
		projectedTotal += v
	}
	for d := elapsedDays; d < totalPeriodDays; d++ {
		if v := slope*float64(d) + intercept; v > 0 {
			projectedTotal += v
		}
	}

	projected, err := money.New(fmt.Sprintf("%.6f", projectedTotal), b.Amount.Currency)
	if err != nil {
		return model.SpendingForecast{}, fmt.Errorf("forecast: %w", err)
	}

	return model.SpendingForecast{
		BudgetID:        budgetID,
		ProjectedSpend:  projected,
		ConfidenceLevel: m.cfg.ForecastConfidence,
		DataPoints:      len(daily),
		GeneratedAt:     time.Now(),
	}, nil
}

// dailySpend buckets matching entries by day offset from the budget start.
func dailySpend(b model.Budget, entries []model.NormalizedCostEntry) map[int]float64 {
	byDay := make(map[int]float64)
	for _, e := range entries {
		if e.Window.Start.Before(b.Start) || !e.Window.Start.Before(b.End) {
			continue
		}
		if !matchesFilter(b.Filter, e) {
			continue
		}
		offset := int(e.Window.Start.Sub(b.Start).Hours() / 24)
		v, _ := e.TotalCost().Amount.Float64()
		byDay[offset] += v
	}
	return byDay
}

func sortedDays(daily map[int]float64) []float64 {
	days := make([]int, 0, len(daily))
	for d := range daily {
		days = append(days, d)
	}
	sort.Ints(days)
	out := make([]float64, len(days))
	for i, d := range days {
		out[i] = float64(d)
	}
	return out
}

// linearRegression fits y = slope*x + intercept over the (x, y) pairs given
// by xs and the day->value map keyed on the same integer days xs encodes.
func linearRegression(xs []float64, daily map[int]float64) (slope, intercept float64) {
	n := float64(len(xs))
	if n == 0 {
		return 0, 0
	}

	var sumX, sumY, sumXY, sumXX float64
	for _, x := range xs {
		y := daily[int(x)]
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
	}

	denom := n*sumXX - sumX*sumX
	if math.Abs(denom) < 1e-9 {
		return 0, sumY / n
	}

	slope = (n*sumXY - sumX*sumY) / denom
	intercept = (sumY - slope*sumX) / n
	return slope, intercept
}

// Summarize computes a point-in-time rollup of a budget's spend, active
// alert count, and forecast (when enough history exists).
func (m *Manager) Summarize(budgetID string, entries []model.NormalizedCostEntry) (model.BudgetSummary, error) {
	b, err := m.GetBudget(budgetID)
	if err != nil {
		return model.BudgetSummary{}, err
	}

	spend := matchingSpend(b, entries)
	spendF, _ := spend.Amount.Float64()
	limitF, _ := b.Amount.Amount.Float64()
	pct := 0.0
	if limitF != 0 {
		pct = (spendF / limitF) * 100
	}

	alerts, err := m.ListAlerts(budgetID, model.AlertActive)
	if err != nil {
		return model.BudgetSummary{}, err
	}

	summary := model.BudgetSummary{
		BudgetID:       budgetID,
		PeriodSpend:    spend,
		PercentOfLimit: pct,
		ActiveAlerts:   len(alerts),
		ForecastSpend:  money.Zero(b.Amount.Currency),
		GeneratedAt:    time.Now(),
	}

	if forecast, err := m.Forecast(budgetID, entries); err == nil {
		summary.ForecastSpend = forecast.ProjectedSpend
	}

	return summary, nil
}

func validateBudget(b model.Budget) error {
	if b.Name == "" {
		return &costerrors.ValidationError{Field: "name", Value: b.Name, Constraints: "must be non-empty"}
	}
	if b.Amount.Amount.IsNegative() {
		return &costerrors.ValidationError{Field: "amount", Value: b.Amount.String(), Constraints: "must be non-negative"}
	}
	if !b.End.After(b.Start) {
		return &costerrors.ValidationError{Field: "end", Value: b.End, Constraints: "must be after start"}
	}
	for _, th := range b.Thresholds {
		if th.Percentage <= 0 || th.Percentage > 200 {
			return &costerrors.ValidationError{Field: "threshold.percentage", Value: th.Percentage, Constraints: "must be in (0, 200]"}
		}
	}
	return nil
}
