package model

import (
	"time"

	"github.com/lvonguyen/costintel/internal/money"
)

// BudgetPeriod is the recurrence window a Budget tracks spend against.
type BudgetPeriod string

const (
	BudgetMonthly   BudgetPeriod = "monthly"
	BudgetQuarterly BudgetPeriod = "quarterly"
	BudgetAnnually  BudgetPeriod = "annually"
)

// Threshold is one alert trip-point; Thresholds on a Budget are kept sorted
// ascending by Percentage.
type Threshold struct {
	Percentage float64
	Amount     money.Money
}

// BudgetFilter restricts which NormalizedCostEntry values count toward a
// budget's spend (e.g. by provider, project, or tag).
type BudgetFilter struct {
	Providers []Provider
	Projects  []string
	Tags      map[string]string
}

// Budget is CRUD state owned by the budget subsystem. Deleting a budget
// cascades to its alerts (spec.md §3: "A budget owns its alerts").
type Budget struct {
	ID           string
	Name         string
	Amount       money.Money
	Period       BudgetPeriod
	Start        time.Time
	End          time.Time
	Thresholds   []Threshold
	Filter       BudgetFilter
}

// AlertStatus is the lifecycle state of a derived Alert.
type AlertStatus string

const (
	AlertActive       AlertStatus = "active"
	AlertAcknowledged AlertStatus = "acknowledged"
	AlertResolved     AlertStatus = "resolved"
)

// Alert is a derived value: one per budget-threshold crossing per
// evaluation period.
type Alert struct {
	ID              string
	BudgetID        string
	Threshold       Threshold
	ObservedSpend   money.Money
	Status          AlertStatus
	EvaluatedAt     time.Time
	ResolutionNotes string
}

// BudgetSummary is the point-in-time rollup shown on a budget's dashboard
// card: spend to date against the period's total allowance.
type BudgetSummary struct {
	BudgetID       string
	PeriodSpend    money.Money
	PercentOfLimit float64
	ActiveAlerts   int
	ForecastSpend  money.Money
	GeneratedAt    time.Time
}

// SpendingForecast is the output of a budget forecast call.
type SpendingForecast struct {
	BudgetID        string
	ProjectedSpend  money.Money
	ConfidenceLevel float64
	DataPoints      int
	GeneratedAt     time.Time
}
