// Copyright 2025 LandingPress Authors
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"context"
	"testing"
	"time"

	"github.com/LeeDigitalWorks/landingpress/pkg/storageconfig"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	s := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{
		Addr: s.Addr(),
	})
	return s, client
}

func TestRedis_Settings(t *testing.T) {
	s, client := setupTestRedis(t)
	defer client.Close()

	s.HSet(DefaultSettingsKey, storageconfig.KeyEndpoint, "minio.internal:9000")
	s.HSet(DefaultSettingsKey, storageconfig.KeyBucket, "pages")

	store := NewRedisWithClient(client, "")
	got, err := store.Settings(context.Background(), storageconfig.Keys)
	require.NoError(t, err)

	assert.Equal(t, map[string]string{
		storageconfig.KeyEndpoint: "minio.internal:9000",
		storageconfig.KeyBucket:   "pages",
	}, got)
}

func TestRedis_SetSetting(t *testing.T) {
	_, client := setupTestRedis(t)
	defer client.Close()

	store := NewRedisWithClient(client, "custom:settings")
	ctx := context.Background()
	require.NoError(t, store.SetSetting(ctx, storageconfig.KeyRegion, "eu-west-1"))

	got, err := store.Settings(ctx, []string{storageconfig.KeyRegion, storageconfig.KeyBucket})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{storageconfig.KeyRegion: "eu-west-1"}, got)
}

func TestRedis_OutageIsAnError(t *testing.T) {
	s, client := setupTestRedis(t)
	defer client.Close()

	store := NewRedisWithClient(client, "")
	s.Close()

	_, err := store.Settings(context.Background(), storageconfig.Keys)
	assert.Error(t, err)
}

func TestRedis_DrivesResolver(t *testing.T) {
	s, client := setupTestRedis(t)
	defer client.Close()

	s.HSet(DefaultSettingsKey, storageconfig.KeyEndpoint, "minio.internal:9000")
	s.HSet(DefaultSettingsKey, storageconfig.KeyBucket, "pages")

	fallback := storageconfig.StorageConfig{Endpoint: "http://localhost:9000", Region: "us-east-1", Bucket: "landing-pages"}
	resolver := storageconfig.NewResolver(NewRedisWithClient(client, ""), fallback, storageconfig.Options{TTL: time.Minute})

	cfg := resolver.Get(context.Background())
	assert.Equal(t, "https://minio.internal:9000", cfg.Endpoint)
	assert.Equal(t, "pages", cfg.Bucket)
	assert.Equal(t, "us-east-1", cfg.Region)
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	cs, ps, err := Open(ctx, Config{Source: SourceNone})
	require.NoError(t, err)
	assert.Nil(t, cs)
	assert.Nil(t, ps)

	_, _, err = Open(ctx, Config{Source: "etcd"})
	assert.Error(t, err)

	s := miniredis.RunT(t)
	s.HSet("lp", storageconfig.KeyBucket, "pages")
	cs, ps, err = Open(ctx, Config{Source: SourceRedis, RedisAddr: s.Addr(), RedisSettingsKey: "lp"})
	require.NoError(t, err)
	defer cs.Close()
	assert.Nil(t, ps)

	got, err := cs.Settings(ctx, []string{storageconfig.KeyBucket})
	require.NoError(t, err)
	assert.Equal(t, "pages", got[storageconfig.KeyBucket])
}
