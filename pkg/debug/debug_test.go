// Copyright 2025 LandingPress Authors
// SPDX-License-Identifier: Apache-2.0

package debug

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func get(t *testing.T, srv *httptest.Server, path string) (*http.Response, string) {
	t.Helper()
	resp, err := srv.Client().Get(srv.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(body)
}

func TestHealth(t *testing.T) {
	srv := httptest.NewServer(Mux())
	defer srv.Close()

	resp, _ := get(t, srv, "/health")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestReady(t *testing.T) {
	srv := httptest.NewServer(Mux())
	defer srv.Close()

	SetNotReady()
	resp, body := get(t, srv, "/ready")
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Contains(t, body, "startup")

	SetReady()
	defer SetNotReady()

	resp, _ = get(t, srv, "/ready")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	AddReadyCheck("config_store", func(context.Context) error { return errors.New("connection refused") })
	defer RemoveReadyCheck("config_store")

	resp, body = get(t, srv, "/ready")
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	var out struct {
		Ready  bool              `json:"ready"`
		Failed map[string]string `json:"failed"`
	}
	require.NoError(t, json.Unmarshal([]byte(body), &out))
	assert.False(t, out.Ready)
	assert.Equal(t, map[string]string{"config_store": "connection refused"}, out.Failed)
}

func TestMetrics(t *testing.T) {
	c := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "landingpress_debug_test_total",
		Help: "Test counter.",
	})
	prometheus.MustRegister(c)
	defer prometheus.Unregister(c)
	c.Inc()

	srv := httptest.NewServer(Mux())
	defer srv.Close()

	resp, body := get(t, srv, "/metrics")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "landingpress_debug_test_total 1")
}

func TestServeStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Serve(ctx, "127.0.0.1:0") }()

	cancel()
	assert.NoError(t, <-done)
}
