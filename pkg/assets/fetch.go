// Copyright 2025 LandingPress Authors
// SPDX-License-Identifier: Apache-2.0

package assets

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"
)

const (
	DefaultMaxImageBytes int64 = 20 * 1024 * 1024
	DefaultFetchTimeout        = 15 * time.Second
	DefaultFetchRPS            = 10

	userAgent = "landingpress-asset-fetcher/1.0"
)

// Fetched is the body of a retrieved reference plus the origin's declared type.
type Fetched struct {
	Data        []byte
	ContentType string
}

// Fetcher retrieves the bytes behind a remote or blob reference.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (Fetched, error)
}

// HTTPFetcherOptions configures an HTTPFetcher
type HTTPFetcherOptions struct {
	Timeout  time.Duration
	RPS      float64 // <= 0 disables throttling
	MaxBytes int64
	Client   *http.Client
}

// HTTPFetcher fetches http(s) URLs with a bounded body size and a
// process-wide request rate.
type HTTPFetcher struct {
	client   *http.Client
	limiter  *rate.Limiter
	maxBytes int64
}

// NewHTTPFetcher creates an HTTPFetcher.
func NewHTTPFetcher(opts HTTPFetcherOptions) *HTTPFetcher {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultFetchTimeout
	}
	if opts.MaxBytes <= 0 {
		opts.MaxBytes = DefaultMaxImageBytes
	}
	client := opts.Client
	if client == nil {
		client = &http.Client{Timeout: opts.Timeout}
	}

	f := &HTTPFetcher{client: client, maxBytes: opts.MaxBytes}
	if opts.RPS > 0 {
		burst := max(int(opts.RPS), 1)
		f.limiter = rate.NewLimiter(rate.Limit(opts.RPS), burst)
	}
	return f
}

// Fetch GETs rawURL. Every failure is wrapped in ErrFetchFailed.
func (f *HTTPFetcher) Fetch(ctx context.Context, rawURL string) (Fetched, error) {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return Fetched{}, fmt.Errorf("%w: %q is not an http(s) url", ErrFetchFailed, rawURL)
	}

	if f.limiter != nil {
		if err := f.limiter.Wait(ctx); err != nil {
			return Fetched{}, fmt.Errorf("%w: %w", ErrFetchFailed, err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return Fetched{}, fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "image/*")

	resp, err := f.client.Do(req)
	if err != nil {
		return Fetched{}, fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return Fetched{}, fmt.Errorf("%w: %s returned %d", ErrFetchFailed, u.Host, resp.StatusCode)
	}

	data, err := readAllWithLimit(resp.Body, f.maxBytes)
	if err != nil {
		return Fetched{}, fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}
	return Fetched{Data: data, ContentType: resp.Header.Get("Content-Type")}, nil
}

// readAllWithLimit reads from reader and rejects payloads larger than maxBytes.
func readAllWithLimit(reader io.Reader, maxBytes int64) ([]byte, error) {
	limited := &io.LimitedReader{R: reader, N: maxBytes + 1}
	data, err := io.ReadAll(limited)
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > maxBytes {
		return nil, fmt.Errorf("%w: max %d bytes", ErrAssetTooLarge, maxBytes)
	}
	return data, nil
}
