package providers

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunReturnsFnResult(t *testing.T) {
	pool := NewPool(2)
	v, err := Run(context.Background(), pool, func() (int, error) { return 42, nil })
	require.NoError(t, err)
	assert.Equal(t, 42, v)
}

func TestRunPropagatesFnError(t *testing.T) {
	pool := NewPool(1)
	boom := errors.New("boom")
	_, err := Run(context.Background(), pool, func() (int, error) { return 0, boom })
	assert.Equal(t, boom, err)
}

func TestRunLimitsConcurrencyToPoolSize(t *testing.T) {
	pool := NewPool(1)
	var inFlight int32
	var maxInFlight int32

	slow := func() (int, error) {
		n := atomic.AddInt32(&inFlight, 1)
		if n > atomic.LoadInt32(&maxInFlight) {
			atomic.StoreInt32(&maxInFlight, n)
		}
		time.Sleep(10 * time.Millisecond)
		atomic.AddInt32(&inFlight, -1)
		return 0, nil
	}

	done := make(chan struct{}, 3)
	for i := 0; i < 3; i++ {
		go func() {
			_, _ = Run(context.Background(), pool, slow)
			done <- struct{}{}
		}()
	}
	for i := 0; i < 3; i++ {
		<-done
	}

	assert.Equal(t, int32(1), atomic.LoadInt32(&maxInFlight))
}

func TestRunReturnsContextErrorWhenCancelledBeforeSlot(t *testing.T) {
	pool := NewPool(0)
	pool.tokens <- struct{}{}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Run(ctx, pool, func() (int, error) { return 1, nil })
	assert.ErrorIs(t, err, context.Canceled)
}
