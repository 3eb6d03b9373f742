package currency

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lvonguyen/costintel/internal/costerrors"
	"github.com/lvonguyen/costintel/internal/money"
)

func TestConvertSameCurrencyIsNoOp(t *testing.T) {
	svc, err := New(Config{})
	require.NoError(t, err)

	amt, _ := money.New("10.00", "USD")
	got, err := svc.Convert(context.Background(), amt, "USD")
	require.NoError(t, err)
	assert.Equal(t, amt, got)
}

func TestConvertAppliesConfiguredRate(t *testing.T) {
	svc, err := New(Config{Rates: map[string]string{"EUR:USD": "1.10"}})
	require.NoError(t, err)

	amt, _ := money.New("100.00", "EUR")
	got, err := svc.Convert(context.Background(), amt, "USD")
	require.NoError(t, err)
	assert.Equal(t, "USD", got.Currency)
	assert.Equal(t, "110.00", got.Amount.StringFixed(2))
}

func TestConvertMissingRateReturnsError(t *testing.T) {
	svc, err := New(Config{})
	require.NoError(t, err)

	amt, _ := money.New("10.00", "GBP")
	_, err = svc.Convert(context.Background(), amt, "JPY")
	require.Error(t, err)
	assert.IsType(t, &costerrors.CurrencyConversionError{}, err)
}

func TestSetRateUpdatesLiveConversions(t *testing.T) {
	svc, err := New(Config{})
	require.NoError(t, err)

	svc.SetRate("EUR", "USD", decimal.NewFromFloat(1.2))

	amt, _ := money.New("50.00", "EUR")
	got, err := svc.Convert(context.Background(), amt, "USD")
	require.NoError(t, err)
	assert.Equal(t, "60.00", got.Amount.StringFixed(2))
}

func TestNewRejectsInvalidRate(t *testing.T) {
	_, err := New(Config{Rates: map[string]string{"EUR:USD": "not-a-number"}})
	assert.Error(t, err)
}
