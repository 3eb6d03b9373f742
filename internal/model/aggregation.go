package model

import (
	"time"

	"github.com/lvonguyen/costintel/internal/money"
)

// CostAggregation is the output of the aggregation engine's aggregate()
// call: a map of group key to total cost, per-key counts, a grand total,
// the overall time window spanned, and the carried currency (spec.md §4.4).
type CostAggregation struct {
	GroupBy     []string
	Costs       map[string]money.Money
	Counts      map[string]int
	TotalCost   money.Money
	Window      TimeWindow
	Currency    string
}
