// Copyright 2025 LandingPress Authors
// SPDX-License-Identifier: Apache-2.0

package s3client

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *Config {
	return &Config{Endpoint: "http://localhost:9000", Region: "us-east-1", AccessKeyID: "a", SecretAccessKey: "s", PathStyle: true}
}

func TestPool_ReusesClientPerEndpoint(t *testing.T) {
	p := NewPool(10*time.Second, 10)
	defer p.Close()
	ctx := context.Background()

	c1, err := p.GetClient(ctx, testConfig())
	require.NoError(t, err)
	c2, err := p.GetClient(ctx, testConfig())
	require.NoError(t, err)
	assert.Same(t, c1, c2)

	other := testConfig()
	other.Endpoint = "http://localhost:9001"
	c3, err := p.GetClient(ctx, other)
	require.NoError(t, err)
	assert.NotSame(t, c1, c3)
	assert.Equal(t, 2, p.Len())

	require.NoError(t, p.Close())
	assert.Equal(t, 0, p.Len())
}

func TestPool_RotatedCredentialsReplaceClient(t *testing.T) {
	p := NewPool(0, 0)
	defer p.Close()
	ctx := context.Background()

	c1, err := p.GetClient(ctx, testConfig())
	require.NoError(t, err)

	rotated := testConfig()
	rotated.SecretAccessKey = "s2"
	c2, err := p.GetClient(ctx, rotated)
	require.NoError(t, err)
	assert.NotSame(t, c1, c2)
	assert.Equal(t, 1, p.Len())

	c3, err := p.GetClient(ctx, rotated)
	require.NoError(t, err)
	assert.Same(t, c2, c3)
}

func TestPool_ConcurrentGetClient(t *testing.T) {
	p := NewPool(0, 0)
	defer p.Close()

	var wg sync.WaitGroup
	clients := make([]*s3.Client, 16)
	for i := range clients {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c, err := p.GetClient(context.Background(), testConfig())
			assert.NoError(t, err)
			clients[i] = c
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, p.Len())
	for _, c := range clients {
		assert.NotNil(t, c)
	}
}
