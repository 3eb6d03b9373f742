package providers

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lvonguyen/costintel/internal/costerrors"
)

func TestWithRetrySucceedsOnFirstAttempt(t *testing.T) {
	calls := 0
	v, err := WithRetry(context.Background(), 3, func(attempt int) (int, error) {
		calls++
		return 7, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 7, v)
	assert.Equal(t, 1, calls)
}

func TestWithRetryRetriesOnThrottlingError(t *testing.T) {
	calls := 0
	v, err := WithRetry(context.Background(), 3, func(attempt int) (int, error) {
		calls++
		if attempt < 3 {
			return 0, &costerrors.ThrottlingError{Provider: "aws"}
		}
		return 99, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 99, v)
	assert.Equal(t, 3, calls)
}

func TestWithRetryExhaustsAttemptsAndReturnsLastError(t *testing.T) {
	calls := 0
	_, err := WithRetry(context.Background(), 2, func(attempt int) (int, error) {
		calls++
		return 0, &costerrors.ThrottlingError{Provider: "aws"}
	})
	assert.Error(t, err)
	assert.Equal(t, 2, calls)
}

func TestWithRetryDoesNotRetryNonThrottlingErrors(t *testing.T) {
	calls := 0
	permanent := errors.New("permanent failure")
	_, err := WithRetry(context.Background(), 3, func(attempt int) (int, error) {
		calls++
		return 0, permanent
	})
	assert.Equal(t, permanent, err)
	assert.Equal(t, 1, calls)
}
