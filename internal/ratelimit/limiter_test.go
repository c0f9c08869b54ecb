package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_InvalidArgsDisable(t *testing.T) {
	assert.Nil(t, New(0, 1, 0))
	assert.Nil(t, New(1, 0, 0))

	var l *KeyedLimiter
	assert.True(t, l.Allow("anything", time.Now()))
	assert.NoError(t, l.Wait(context.Background(), "anything"))
	assert.Equal(t, 0, l.Len())
}

func TestAllow_PerKeyBuckets(t *testing.T) {
	l := New(1, 2, time.Minute)
	now := time.Unix(1_700_000_000, 0)

	assert.True(t, l.Allow("10.0.0.1", now))
	assert.True(t, l.Allow("10.0.0.1", now))
	assert.False(t, l.Allow("10.0.0.1", now), "burst exhausted")
	assert.True(t, l.Allow("10.0.0.2", now), "other keys have their own bucket")

	assert.True(t, l.Allow("10.0.0.1", now.Add(time.Second)), "bucket refills")
	assert.True(t, l.Allow("  ", now), "blank keys are not limited")
	assert.Equal(t, 2, l.Len())
}

func TestAllow_EvictsIdleKeys(t *testing.T) {
	l := New(100, 100, time.Minute)
	start := time.Unix(1_700_000_000, 0)
	l.Allow("idle", start)

	later := start.Add(time.Hour)
	for i := 0; i < 600; i++ {
		l.Allow("busy", later)
	}
	assert.Equal(t, 1, l.Len())
}

func TestWait_HonoursContext(t *testing.T) {
	l := New(0.001, 1, time.Minute)
	require.NoError(t, l.Wait(context.Background(), "api.binance.com"))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.Error(t, l.Wait(ctx, "api.binance.com"))
}
