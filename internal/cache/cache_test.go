package cache

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetSetRoundTrip(t *testing.T) {
	c := New[string](time.Minute, "test_getset")
	_, ok := c.Get("missing")
	assert.False(t, ok)

	c.Set("key", "value")
	got, ok := c.Get("key")
	require.True(t, ok)
	assert.Equal(t, "value", got)
}

func TestGetExpiresAfterTTL(t *testing.T) {
	c := New[string](time.Millisecond, "test_expiry")
	c.Set("key", "value")
	time.Sleep(5 * time.Millisecond)

	_, ok := c.Get("key")
	assert.False(t, ok)
}

func TestGetOrLoadCallsLoadOnlyOnMiss(t *testing.T) {
	c := New[int](time.Minute, "test_getorload")
	calls := 0
	load := func() (int, error) {
		calls++
		return 42, nil
	}

	v, err := c.GetOrLoad("key", load)
	require.NoError(t, err)
	assert.Equal(t, 42, v)

	v, err = c.GetOrLoad("key", load)
	require.NoError(t, err)
	assert.Equal(t, 42, v)
	assert.Equal(t, 1, calls)
}

func TestGetOrLoadPropagatesLoadError(t *testing.T) {
	c := New[int](time.Minute, "test_getorload_err")
	_, err := c.GetOrLoad("key", func() (int, error) {
		return 0, errors.New("load failed")
	})
	assert.Error(t, err)

	_, ok := c.Get("key")
	assert.False(t, ok, "a failed load must not be cached")
}

func TestHitRatioTracksHitsAndMisses(t *testing.T) {
	c := New[string](time.Minute, "test_hitratio")
	c.Get("miss")
	c.Set("key", "value")
	c.Get("key")

	assert.InDelta(t, 0.5, c.HitRatio(), 0.001)
}
