// Copyright 2025 LandingPress Authors
// SPDX-License-Identifier: Apache-2.0

package cache

import (
	"context"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"
)

// slot is an immutable snapshot of the cached value.
type slot[V any] struct {
	value   V
	expires time.Time
}

// Value is a single-slot cache with a TTL.
//
// Reads are lock-free. Concurrent misses share one in-flight load through
// singleflight; a stale value may be served to callers that raced the
// refresh, which is acceptable for read-mostly configuration.
//
// Usage:
//
//	v := cache.NewValue(5*time.Minute, func(ctx context.Context) (Config, error) {
//	    return loadConfig(ctx)
//	})
//	cfg, err := v.Get(ctx)
type Value[V any] struct {
	ttl  time.Duration
	now  func() time.Time
	load func(ctx context.Context) (V, error)

	cur   atomic.Pointer[slot[V]]
	group singleflight.Group
	loads atomic.Int64
}

// ValueOption configures a Value
type ValueOption[V any] func(*Value[V])

// WithClock replaces time.Now, mainly for tests.
func WithClock[V any](now func() time.Time) ValueOption[V] {
	return func(v *Value[V]) {
		v.now = now
	}
}

// NewValue creates a Value that calls load on a miss or after ttl has elapsed.
func NewValue[V any](ttl time.Duration, load func(ctx context.Context) (V, error), opts ...ValueOption[V]) *Value[V] {
	v := &Value[V]{
		ttl:  ttl,
		now:  time.Now,
		load: load,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Peek returns the cached value if it has not expired.
func (v *Value[V]) Peek() (V, bool) {
	s := v.cur.Load()
	if s == nil || !v.now().Before(s.expires) {
		var zero V
		return zero, false
	}
	return s.value, true
}

// Get returns the cached value, loading it when missing or expired.
// Load errors are returned as-is and nothing is cached.
func (v *Value[V]) Get(ctx context.Context) (V, error) {
	if val, ok := v.Peek(); ok {
		return val, nil
	}

	res, err, _ := v.group.Do("load", func() (any, error) {
		// Another caller may have refreshed while we waited
		if val, ok := v.Peek(); ok {
			return val, nil
		}
		v.loads.Add(1)
		val, err := v.load(ctx)
		if err != nil {
			return nil, err
		}
		v.Set(val)
		return val, nil
	})
	if err != nil {
		var zero V
		return zero, err
	}
	return res.(V), nil
}

// Set stores val for the default TTL.
func (v *Value[V]) Set(val V) {
	v.SetFor(val, v.ttl)
}

// SetFor stores val for a custom TTL.
func (v *Value[V]) SetFor(val V, ttl time.Duration) {
	v.cur.Store(&slot[V]{value: val, expires: v.now().Add(ttl)})
}

// Invalidate drops the cached value so the next Get reloads.
func (v *Value[V]) Invalidate() {
	v.cur.Store(nil)
}

// Loads returns how many times the load function has been called.
func (v *Value[V]) Loads() int64 {
	return v.loads.Load()
}
