// Package money provides exact-decimal monetary values and tiered pricing
// arithmetic shared by the normalizer, comparison, and aggregation engines.
//
// All cost paths use github.com/shopspring/decimal internally; float64 is
// never used for an amount that contributes to a cost total.
package money

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Money is an exact-decimal amount paired with an ISO-4217 currency code.
type Money struct {
	Amount   decimal.Decimal
	Currency string
}

// Zero returns a zero-valued Money in the given currency.
func Zero(currency string) Money {
	return Money{Amount: decimal.Zero, Currency: currency}
}

// New builds a Money from a decimal string, e.g. New("12.50", "USD").
func New(amount string, currency string) (Money, error) {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return Money{}, fmt.Errorf("money: invalid amount %q: %w", amount, err)
	}
	return Money{Amount: d, Currency: currency}, nil
}

// Add returns m+other. Panics if currencies differ; callers convert first.
func (m Money) Add(other Money) Money {
	m.mustMatch(other)
	return Money{Amount: m.Amount.Add(other.Amount), Currency: m.Currency}
}

// Sub returns m-other.
func (m Money) Sub(other Money) Money {
	m.mustMatch(other)
	return Money{Amount: m.Amount.Sub(other.Amount), Currency: m.Currency}
}

// Mul scales the amount by a unitless decimal factor (e.g. a quantity).
func (m Money) Mul(factor decimal.Decimal) Money {
	return Money{Amount: m.Amount.Mul(factor), Currency: m.Currency}
}

// Cmp compares amounts of two Money values in the same currency.
func (m Money) Cmp(other Money) int {
	m.mustMatch(other)
	return m.Amount.Cmp(other.Amount)
}

// IsZero reports whether the amount is exactly zero.
func (m Money) IsZero() bool {
	return m.Amount.IsZero()
}

// Round applies banker's rounding (round-half-to-even) to places fractional
// digits. Used only at serialization/display boundaries, per the decimal
// semantics design note: internal arithmetic keeps full precision.
func (m Money) Round(places int32) Money {
	return Money{Amount: m.Amount.RoundBank(places), Currency: m.Currency}
}

func (m Money) String() string {
	return fmt.Sprintf("%s %s", m.Amount.StringFixed(2), m.Currency)
}

func (m Money) mustMatch(other Money) {
	if m.Currency != other.Currency {
		panic(fmt.Sprintf("money: currency mismatch %s vs %s", m.Currency, other.Currency))
	}
}

// Sum adds a slice of same-currency Money values, starting from zero in the
// given currency. Returns zero if values is empty.
func Sum(currency string, values ...Money) Money {
	total := Zero(currency)
	for _, v := range values {
		total = total.Add(v)
	}
	return total
}

// PricingTier is a contiguous segment of a tiered-pricing schedule:
// quantity in [Min, Max) is billed at Rate per unit. Max of nil means the
// tier is unbounded (covers to infinity).
type PricingTier struct {
	Min  decimal.Decimal
	Max  *decimal.Decimal
	Rate decimal.Decimal
}

// CostForQuantity applies an ordered, contiguous tier schedule to a quantity
// and returns the total cost: the sum, over each tier the quantity reaches,
// of min(remaining-in-tier, tier-size) * tier.Rate. Tiers must be sorted
// ascending by Min and must cover [0, inf) contiguously; callers that build
// tier schedules from provider catalogs are responsible for that invariant.
func CostForQuantity(tiers []PricingTier, quantity decimal.Decimal, currency string) Money {
	remaining := quantity
	total := decimal.Zero

	for _, tier := range tiers {
		if remaining.LessThanOrEqual(decimal.Zero) {
			break
		}
		var tierSize decimal.Decimal
		if tier.Max == nil {
			tierSize = remaining
		} else {
			tierSize = tier.Max.Sub(tier.Min)
		}
		covered := remaining
		if covered.GreaterThan(tierSize) {
			covered = tierSize
		}
		total = total.Add(covered.Mul(tier.Rate))
		remaining = remaining.Sub(covered)
	}

	return Money{Amount: total, Currency: currency}
}

// HourlyToMonthly converts a per-hour rate to a monthly rate using the
// spec's fixed 730-hour month (§4.2 "Hourly-vs-monthly services").
func HourlyToMonthly(hourly Money) Money {
	return hourly.Mul(decimal.NewFromInt(730))
}

// MonthlyRequestsFromRPS converts a sustained requests-per-second rate into
// a monthly request count using a fixed 2,592,000-second month (30 days),
// per spec.md §4.2's tiered-costing rule for request-count pricing.
func MonthlyRequestsFromRPS(rps decimal.Decimal) decimal.Decimal {
	return rps.Mul(decimal.NewFromInt(2_592_000))
}

// RequestCost prices a monthly request count at pricePerMillion per 1e6
// requests, per spec.md §4.2.
func RequestCost(monthlyRequests decimal.Decimal, pricePerMillion Money) Money {
	million := decimal.NewFromInt(1_000_000)
	return pricePerMillion.Mul(monthlyRequests.Div(million))
}
