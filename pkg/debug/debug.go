// Copyright 2025 LandingPress Authors
// SPDX-License-Identifier: Apache-2.0

// Package debug serves metrics, health, readiness and pprof endpoints on a
// separate listener.
package debug

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/pprof"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/LeeDigitalWorks/landingpress/pkg/logger"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ReadyCheck reports nil when a dependency is usable.
type ReadyCheck func(ctx context.Context) error

var (
	ready atomic.Bool

	checksMu sync.RWMutex
	checks   = make(map[string]ReadyCheck)

	checkTimeout = 2 * time.Second
)

func SetReady() {
	ready.Store(true)
}

func SetNotReady() {
	ready.Store(false)
}

// AddReadyCheck registers a named check consulted by /ready.
func AddReadyCheck(name string, check ReadyCheck) {
	checksMu.Lock()
	defer checksMu.Unlock()
	checks[name] = check
}

// RemoveReadyCheck drops a check registered with AddReadyCheck.
func RemoveReadyCheck(name string) {
	checksMu.Lock()
	defer checksMu.Unlock()
	delete(checks, name)
}

// Readiness runs every check and returns the failures by name. A process
// that has not called SetReady reports "startup".
func Readiness(ctx context.Context) map[string]string {
	failed := make(map[string]string)
	if !ready.Load() {
		failed["startup"] = "not ready"
	}

	checksMu.RLock()
	names := make([]string, 0, len(checks))
	for name := range checks {
		names = append(names, name)
	}
	snapshot := make(map[string]ReadyCheck, len(checks))
	for k, v := range checks {
		snapshot[k] = v
	}
	checksMu.RUnlock()

	sort.Strings(names)
	for _, name := range names {
		cctx, cancel := context.WithTimeout(ctx, checkTimeout)
		err := snapshot[name](cctx)
		cancel()
		if err != nil {
			failed[name] = err.Error()
		}
	}
	return failed
}

// Mux returns the debug handler.
func Mux() *http.ServeMux {
	mux := http.NewServeMux()

	mux.Handle("/metrics", promhttp.HandlerFor(prometheus.DefaultGatherer, promhttp.HandlerOpts{}))
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		failed := Readiness(r.Context())
		w.Header().Set("Content-Type", "application/json")
		if len(failed) > 0 {
			w.WriteHeader(http.StatusServiceUnavailable)
		} else {
			w.WriteHeader(http.StatusOK)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"ready":  len(failed) == 0,
			"failed": failed,
		})
	})

	return mux
}

// Serve runs the debug server on addr until ctx is cancelled.
func Serve(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           Mux(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", addr).Msg("debug server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
