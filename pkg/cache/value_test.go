// Copyright 2025 LandingPress Authors
// SPDX-License-Identifier: Apache-2.0

package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestValue_CachesWithinTTL(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 1, 5, 12, 0, 0, 0, time.UTC)}
	var calls atomic.Int32
	v := NewValue(5*time.Minute, func(ctx context.Context) (string, error) {
		n := calls.Add(1)
		return "v" + string(rune('0'+n)), nil
	}, WithClock[string](clock.Now))

	ctx := context.Background()
	got, err := v.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "v1", got)

	clock.Advance(4 * time.Minute)
	got, err = v.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "v1", got)
	assert.EqualValues(t, 1, v.Loads())

	clock.Advance(time.Minute)
	got, err = v.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "v2", got, "entry at exactly TTL age is expired")
	assert.EqualValues(t, 2, v.Loads())
}

func TestValue_ErrorIsNotCached(t *testing.T) {
	boom := errors.New("boom")
	fail := true
	v := NewValue(time.Minute, func(ctx context.Context) (int, error) {
		if fail {
			return 0, boom
		}
		return 42, nil
	})

	_, err := v.Get(context.Background())
	assert.ErrorIs(t, err, boom)

	fail = false
	got, err := v.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 42, got)
}

func TestValue_SetForAndInvalidate(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0)}
	v := NewValue(time.Hour, func(ctx context.Context) (int, error) {
		return 1, nil
	}, WithClock[int](clock.Now))

	v.SetFor(7, time.Second)
	got, ok := v.Peek()
	require.True(t, ok)
	assert.Equal(t, 7, got)

	clock.Advance(2 * time.Second)
	_, ok = v.Peek()
	assert.False(t, ok)

	v.Set(9)
	v.Invalidate()
	_, ok = v.Peek()
	assert.False(t, ok)
}

func TestValue_ConcurrentMissesShareLoad(t *testing.T) {
	release := make(chan struct{})
	v := NewValue(time.Minute, func(ctx context.Context) (int, error) {
		<-release
		return 5, nil
	})

	var wg sync.WaitGroup
	results := make([]int, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			val, err := v.Get(context.Background())
			assert.NoError(t, err)
			results[i] = val
		}(i)
	}

	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	for _, r := range results {
		assert.Equal(t, 5, r)
	}
	// Late arrivals may start a second flight after the first completes; never one per caller.
	assert.LessOrEqual(t, v.Loads(), int64(2))
}
