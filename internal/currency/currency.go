// Package currency implements the Currency Service (component B): a
// deterministic amount converter used by the normalizer after canonical
// cost buckets are assigned (spec.md §4.1, §6).
package currency

import (
	"context"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/lvonguyen/costintel/internal/costerrors"
	"github.com/lvonguyen/costintel/internal/money"
)

// Service converts Money between ISO-4217 currencies using a configured
// rate table. Deterministic per (from, to): the same pair always yields the
// same rate within one Service instance, matching spec.md §6's "Deterministic
// per (from, to, as-of)".
type Service struct {
	mu    sync.RWMutex
	rates map[string]decimal.Decimal // "FROM:TO" -> rate
	base  string
}

// Config seeds a Service's rate table. Rates map a "FROM:TO" pair (e.g.
// "EUR:USD") to a decimal conversion rate.
type Config struct {
	BaseCurrency string
	Rates        map[string]string
}

// New builds a Service from Config, validating every configured rate parses
// as an exact decimal.
func New(cfg Config) (*Service, error) {
	s := &Service{rates: make(map[string]decimal.Decimal), base: cfg.BaseCurrency}
	for pair, rateStr := range cfg.Rates {
		rate, err := decimal.NewFromString(rateStr)
		if err != nil {
			return nil, fmt.Errorf("currency: invalid rate %q for %s: %w", rateStr, pair, err)
		}
		s.rates[pair] = rate
	}
	return s, nil
}

// SetRate updates or adds a conversion rate at runtime (e.g. from a refresh
// job); safe for concurrent use.
func (s *Service) SetRate(from, to string, rate decimal.Decimal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rates[from+":"+to] = rate
}

// Convert converts amt to the target currency. Returns amt unchanged (same
// Money value) if already in the target currency.
func (s *Service) Convert(_ context.Context, amt money.Money, target string) (money.Money, error) {
	if amt.Currency == target {
		return amt, nil
	}

	s.mu.RLock()
	rate, ok := s.rates[amt.Currency+":"+target]
	s.mu.RUnlock()
	if !ok {
		return money.Money{}, &costerrors.CurrencyConversionError{
			From: amt.Currency,
			To:   target,
			Cause: fmt.Errorf("no rate configured for %s->%s", amt.Currency, target),
		}
	}

	return money.Money{Amount: amt.Amount.Mul(rate), Currency: target}, nil
}
