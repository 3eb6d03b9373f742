package money

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAndString(t *testing.T) {
	m, err := New("12.50", "USD")
	require.NoError(t, err)
	assert.Equal(t, "12.50 USD", m.String())
}

func TestNewInvalidAmount(t *testing.T) {
	_, err := New("not-a-number", "USD")
	assert.Error(t, err)
}

func TestAddAndSub(t *testing.T) {
	a, _ := New("10.00", "USD")
	b, _ := New("2.50", "USD")

	assert.Equal(t, "12.50 USD", a.Add(b).String())
	assert.Equal(t, "7.50 USD", a.Sub(b).String())
}

func TestAddCurrencyMismatchPanics(t *testing.T) {
	a, _ := New("10.00", "USD")
	b, _ := New("10.00", "EUR")

	assert.Panics(t, func() { a.Add(b) })
}

func TestCmpAndIsZero(t *testing.T) {
	a, _ := New("5.00", "USD")
	b, _ := New("3.00", "USD")
	z := Zero("USD")

	assert.Equal(t, 1, a.Cmp(b))
	assert.Equal(t, -1, b.Cmp(a))
	assert.True(t, z.IsZero())
	assert.False(t, a.IsZero())
}

func TestSum(t *testing.T) {
	a, _ := New("1.00", "USD")
	b, _ := New("2.00", "USD")
	c, _ := New("3.00", "USD")

	total := Sum("USD", a, b, c)
	assert.Equal(t, "6.00 USD", total.String())
	assert.True(t, Sum("USD").IsZero())
}

func TestCostForQuantityTieredPricing(t *testing.T) {
	tiers := []PricingTier{
		{Min: decimal.Zero, Max: decimalPtr(decimal.NewFromInt(100)), Rate: decimal.NewFromFloat(0.10)},
		{Min: decimal.NewFromInt(100), Max: decimalPtr(decimal.NewFromInt(500)), Rate: decimal.NewFromFloat(0.05)},
		{Min: decimal.NewFromInt(500), Max: nil, Rate: decimal.NewFromFloat(0.02)},
	}

	// 100 units at 0.10 + 400 units at 0.05 + 100 units at 0.02 = 10 + 20 + 2 = 32
	got := CostForQuantity(tiers, decimal.NewFromInt(600), "USD")
	assert.Equal(t, "32.00", got.Amount.StringFixed(2))
}

func TestCostForQuantityPartialFirstTier(t *testing.T) {
	tiers := []PricingTier{
		{Min: decimal.Zero, Max: decimalPtr(decimal.NewFromInt(100)), Rate: decimal.NewFromFloat(0.10)},
		{Min: decimal.NewFromInt(100), Max: nil, Rate: decimal.NewFromFloat(0.05)},
	}

	got := CostForQuantity(tiers, decimal.NewFromInt(50), "USD")
	assert.Equal(t, "5.00", got.Amount.StringFixed(2))
}

func TestHourlyToMonthly(t *testing.T) {
	hourly, _ := New("1.00", "USD")
	monthly := HourlyToMonthly(hourly)
	assert.Equal(t, "730.00 USD", monthly.String())
}

func TestMonthlyRequestsFromRPS(t *testing.T) {
	got := MonthlyRequestsFromRPS(decimal.NewFromInt(10))
	assert.True(t, got.Equal(decimal.NewFromInt(25_920_000)))
}

func TestRequestCost(t *testing.T) {
	perMillion, _ := New("0.50", "USD")
	got := RequestCost(decimal.NewFromInt(2_000_000), perMillion)
	assert.Equal(t, "1.00", got.Amount.StringFixed(2))
}

func decimalPtr(d decimal.Decimal) *decimal.Decimal {
	return &d
}
