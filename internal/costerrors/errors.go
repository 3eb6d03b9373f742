// Package costerrors defines the typed error taxonomy shared across the
// normalization, comparison, selection, and aggregation engines (spec.md
// §7). Each type carries its own typed context fields and builds its Error
// string from them; only ConfigurationError has a Message field and an
// optional Details map. Grounded on the per-package exceptions.py files in
// original_source/.
package costerrors

import "fmt"

// ValidationError signals malformed requirements: missing discriminators or
// field-range violations. Never retried.
type ValidationError struct {
	Field       string
	Value       any
	Constraints string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation: field %q value %v violates %s", e.Field, e.Value, e.Constraints)
}

// ConfigurationError signals a missing provider adapter, invalid weights, or
// an unsupported enum value. Surfaced at startup or first call.
type ConfigurationError struct {
	Message string
	Details map[string]any
}

func (e *ConfigurationError) Error() string { return "configuration: " + e.Message }

// ResourceMappingError is raised when a (provider, provider-type) pair has
// no entry in the mapping table; it lists the mappings that do exist.
type ResourceMappingError struct {
	Provider        string
	ProviderType    string
	AvailableTypes  []string
}

func (e *ResourceMappingError) Error() string {
	return fmt.Sprintf("resource mapping: no mapping for provider %q type %q (available: %v)",
		e.Provider, e.ProviderType, e.AvailableTypes)
}

// DataNormalizationError wraps a raw payload error encountered while
// normalizing one provider's batch, preserving the original message.
type DataNormalizationError struct {
	Provider string
	Cause    error
}

func (e *DataNormalizationError) Error() string {
	return fmt.Sprintf("normalization failed for provider %q: %v", e.Provider, e.Cause)
}

func (e *DataNormalizationError) Unwrap() error { return e.Cause }

// CurrencyConversionError covers unknown currency and unreachable rate
// provider failures.
type CurrencyConversionError struct {
	From, To string
	Cause    error
}

func (e *CurrencyConversionError) Error() string {
	return fmt.Sprintf("currency conversion %s->%s failed: %v", e.From, e.To, e.Cause)
}

func (e *CurrencyConversionError) Unwrap() error { return e.Cause }

// ComparisonTimeoutError is raised when a comparison's deadline elapses
// before all providers respond; in-flight work is cancelled and partial
// results are discarded.
type ComparisonTimeoutError struct {
	RequirementsName string
	Timeout          string
}

func (e *ComparisonTimeoutError) Error() string {
	return fmt.Sprintf("comparison timed out for %q after %s", e.RequirementsName, e.Timeout)
}

// SelectionTimeoutError mirrors ComparisonTimeoutError for the selection
// engine's overall evaluation deadline.
type SelectionTimeoutError struct {
	RequirementsName string
	Timeout          string
}

func (e *SelectionTimeoutError) Error() string {
	return fmt.Sprintf("selection timed out for %q after %s", e.RequirementsName, e.Timeout)
}

// ConcurrencyError is raised when the selection engine's active-evaluation
// set is already at max_concurrent_evaluations.
type ConcurrencyError struct {
	Active int
	Max    int
}

func (e *ConcurrencyError) Error() string {
	return fmt.Sprintf("concurrency limit reached: %d active of max %d", e.Active, e.Max)
}

// NoMatchingOptionsError is raised when a comparison's filtered estimate set
// is empty.
type NoMatchingOptionsError struct {
	RequirementsName string
	Providers        []string
	Regions          []string
}

func (e *NoMatchingOptionsError) Error() string {
	return fmt.Sprintf("no matching options for %q (providers=%v regions=%v)",
		e.RequirementsName, e.Providers, e.Regions)
}

// BudgetError is raised when every candidate exceeds a selection policy's
// max_monthly_budget; it carries the cheapest observed cost.
type BudgetError struct {
	MinObserved float64
	Budget      float64
}

func (e *BudgetError) Error() string {
	return fmt.Sprintf("all candidates exceed budget %.2f (min observed %.2f)", e.Budget, e.MinObserved)
}

// InsufficientDataError is raised when a forecast is requested with fewer
// than forecast_data_points historical samples.
type InsufficientDataError struct {
	Have int
	Need int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient data: have %d samples, need %d", e.Have, e.Need)
}

// DataNotFoundError covers generic not-found lookups (e.g. budget, alert,
// recommendation by id).
type DataNotFoundError struct {
	Kind string
	ID   string
}

func (e *DataNotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.ID)
}

// AuthenticationError is raised by adapters on credential/region failures;
// treated as a configuration error for the affected provider only.
type AuthenticationError struct {
	Provider string
	Cause    error
}

func (e *AuthenticationError) Error() string {
	return fmt.Sprintf("authentication failed for provider %q: %v", e.Provider, e.Cause)
}

func (e *AuthenticationError) Unwrap() error { return e.Cause }

// ThrottlingError marks a transient rate-limit response. providers.WithRetry
// retries calls that fail with it; no adapter in this repository wraps its
// calls in WithRetry.
type ThrottlingError struct {
	Provider string
	Attempt  int
}

func (e *ThrottlingError) Error() string {
	return fmt.Sprintf("throttled by provider %q on attempt %d", e.Provider, e.Attempt)
}
