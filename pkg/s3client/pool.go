// Copyright 2025 LandingPress Authors
// SPDX-License-Identifier: Apache-2.0

// Package s3client pools S3 clients for S3-compatible endpoints (MinIO, AWS, R2).
package s3client

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/LeeDigitalWorks/landingpress/pkg/logger"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"golang.org/x/sync/singleflight"
)

// Config holds what is needed to reach one S3-compatible endpoint.
type Config struct {
	Endpoint        string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	PathStyle       bool
}

// endpointKey identifies a target regardless of credentials.
type endpointKey struct {
	endpoint  string
	region    string
	pathStyle bool
}

type pooled struct {
	accessKey string
	secret    string
	client    *s3.Client
}

// Pool keeps one client per endpoint. A config snapshot carrying different
// credentials for a known endpoint replaces its client.
type Pool struct {
	mu      sync.RWMutex
	clients map[endpointKey]pooled
	group   singleflight.Group

	httpClient *http.Client
}

// NewPool creates a pool whose clients share one HTTP transport.
func NewPool(timeout time.Duration, maxIdleConns int) *Pool {
	if timeout <= 0 {
		timeout = time.Minute
	}
	if maxIdleConns <= 0 {
		maxIdleConns = 64
	}

	return &Pool{
		clients: make(map[endpointKey]pooled),
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConns:        maxIdleConns,
				MaxIdleConnsPerHost: maxIdleConns,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

// GetClient returns the client for cfg, building it on first use or after
// a credential change.
func (p *Pool) GetClient(ctx context.Context, cfg *Config) (*s3.Client, error) {
	key := endpointKey{endpoint: cfg.Endpoint, region: cfg.Region, pathStyle: cfg.PathStyle}

	p.mu.RLock()
	entry, ok := p.clients[key]
	p.mu.RUnlock()
	if ok && entry.accessKey == cfg.AccessKeyID && entry.secret == cfg.SecretAccessKey {
		return entry.client, nil
	}

	flightKey := fmt.Sprintf("%s|%s|%t|%s", key.endpoint, key.region, key.pathStyle, cfg.AccessKeyID)
	v, err, _ := p.group.Do(flightKey, func() (any, error) {
		client, err := p.build(ctx, cfg)
		if err != nil {
			return nil, err
		}

		p.mu.Lock()
		_, rotated := p.clients[key]
		p.clients[key] = pooled{accessKey: cfg.AccessKeyID, secret: cfg.SecretAccessKey, client: client}
		p.mu.Unlock()

		logger.Ctx(ctx).Debug().
			Str("endpoint", cfg.Endpoint).
			Str("region", cfg.Region).
			Bool("rotated", rotated).
			Msg("s3 client ready")
		return client, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*s3.Client), nil
}

// Len returns the number of endpoints with a live client.
func (p *Pool) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.clients)
}

func (p *Pool) build(ctx context.Context, cfg *Config) (*s3.Client, error) {
	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(cfg.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")),
		config.WithHTTPClient(p.httpClient),
		// MinIO rejects the default trailing checksums.
		config.WithRequestChecksumCalculation(aws.RequestChecksumCalculationWhenRequired),
		config.WithResponseChecksumValidation(aws.ResponseChecksumValidationWhenRequired),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.PathStyle
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	}), nil
}

// Close drops all clients and idle connections.
func (p *Pool) Close() error {
	p.mu.Lock()
	clear(p.clients)
	p.mu.Unlock()

	p.httpClient.CloseIdleConnections()
	return nil
}
