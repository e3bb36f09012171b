// Copyright 2025 LandingPress Authors
// SPDX-License-Identifier: Apache-2.0

package storageconfig

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/LeeDigitalWorks/landingpress/pkg/cache"
	"github.com/LeeDigitalWorks/landingpress/pkg/logger"
)

// ErrConfigResolutionFailed is recorded when the store cannot produce a usable
// config. It never escapes Resolver.Get.
var ErrConfigResolutionFailed = errors.New("storage config resolution failed")

const (
	DefaultTTL         = 5 * time.Minute
	DefaultFallbackTTL = 30 * time.Second
	defaultLoadTimeout = 5 * time.Second
)

// Store reads raw settings by key. Missing keys are simply absent from the map.
type Store interface {
	Settings(ctx context.Context, keys []string) (map[string]string, error)
}

// Options configures a Resolver
type Options struct {
	TTL         time.Duration
	FallbackTTL time.Duration
	LoadTimeout time.Duration
	Now         func() time.Time
}

// Resolver returns the current StorageConfig. It owns its cache, so every
// component composed around one Resolver shares a single snapshot per TTL.
type Resolver struct {
	store       Store
	fallback    StorageConfig
	fallbackTTL time.Duration
	loadTimeout time.Duration
	value       *cache.Value[StorageConfig]
}

// NewResolver creates a Resolver. A nil store always yields the fallback.
func NewResolver(store Store, fallback StorageConfig, opts Options) *Resolver {
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	if opts.FallbackTTL <= 0 {
		opts.FallbackTTL = DefaultFallbackTTL
	}
	if opts.LoadTimeout <= 0 {
		opts.LoadTimeout = defaultLoadTimeout
	}

	r := &Resolver{
		store:       store,
		fallback:    fallback.normalize(),
		fallbackTTL: opts.FallbackTTL,
		loadTimeout: opts.LoadTimeout,
	}

	var cacheOpts []cache.ValueOption[StorageConfig]
	if opts.Now != nil {
		cacheOpts = append(cacheOpts, cache.WithClock[StorageConfig](opts.Now))
	}
	r.value = cache.NewValue(opts.TTL, r.resolve, cacheOpts...)
	return r
}

// Get returns the cached config, re-resolving it once the TTL has elapsed.
// It never fails: store errors fall back to the environment defaults.
func (r *Resolver) Get(ctx context.Context) StorageConfig {
	cfg, err := r.value.Get(ctx)
	if err == nil {
		return cfg
	}
	if ctx.Err() != nil {
		// The caller gave up; the store is not known to be down.
		logger.Ctx(ctx).Debug().Err(err).Msg("storage config lookup abandoned by caller")
		return r.fallback
	}

	logger.Ctx(ctx).Warn().Err(err).
		Str("endpoint", r.fallback.Endpoint).
		Str("bucket", r.fallback.Bucket).
		Msg("using fallback storage config")
	resolutionsTotal.WithLabelValues("fallback").Inc()

	r.value.SetFor(r.fallback, r.fallbackTTL)
	return r.fallback
}

// Invalidate forces the next Get to consult the store again.
func (r *Resolver) Invalidate() {
	r.value.Invalidate()
}

// Lookups returns how many times the store has been consulted.
func (r *Resolver) Lookups() int64 {
	return r.value.Loads()
}

func (r *Resolver) resolve(ctx context.Context) (StorageConfig, error) {
	if r.store == nil {
		return StorageConfig{}, fmt.Errorf("%w: no config store configured", ErrConfigResolutionFailed)
	}

	// The load is shared by every waiting caller, so it must outlive the one that started it.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.loadTimeout)
	defer cancel()

	start := time.Now()
	settings, err := r.store.Settings(ctx, Keys)
	if err != nil {
		return StorageConfig{}, fmt.Errorf("%w: %w", ErrConfigResolutionFailed, err)
	}

	cfg := r.fallback.merge(settings)
	if !cfg.Valid() {
		return StorageConfig{}, fmt.Errorf("%w: endpoint or bucket missing", ErrConfigResolutionFailed)
	}

	resolutionsTotal.WithLabelValues("store").Inc()
	logger.Ctx(ctx).Debug().
		Str("endpoint", cfg.Endpoint).
		Str("bucket", cfg.Bucket).
		Dur("duration", time.Since(start)).
		Msg("resolved storage config")
	return cfg, nil
}
