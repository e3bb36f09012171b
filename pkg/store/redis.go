// Copyright 2025 LandingPress Authors
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const DefaultSettingsKey = "landingpress:settings"

// RedisConfig configures the Redis settings store.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	// SettingsKey is the hash holding one field per setting.
	SettingsKey string `mapstructure:"settings_key"`
}

// Redis reads settings from a single hash.
type Redis struct {
	client *redis.Client
	key    string
}

// NewRedis connects to Redis and verifies the connection.
func NewRedis(ctx context.Context, cfg RedisConfig) (*Redis, error) {
	if cfg.Addr == "" {
		cfg.Addr = "localhost:6379"
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}
	return NewRedisWithClient(client, cfg.SettingsKey), nil
}

// NewRedisWithClient creates a settings store over an existing client.
func NewRedisWithClient(client *redis.Client, settingsKey string) *Redis {
	if settingsKey == "" {
		settingsKey = DefaultSettingsKey
	}
	return &Redis{client: client, key: settingsKey}
}

// Settings returns the hash fields named by keys. Missing fields are omitted.
func (r *Redis) Settings(ctx context.Context, keys []string) (map[string]string, error) {
	values, err := r.client.HMGet(ctx, r.key, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("hmget %s: %w", r.key, err)
	}

	settings := make(map[string]string, len(keys))
	for i, v := range values {
		if s, ok := v.(string); ok {
			settings[keys[i]] = s
		}
	}
	return settings, nil
}

// SetSetting writes one hash field.
func (r *Redis) SetSetting(ctx context.Context, key, value string) error {
	if err := r.client.HSet(ctx, r.key, key, value).Err(); err != nil {
		return fmt.Errorf("hset %s: %w", r.key, err)
	}
	return nil
}

func (r *Redis) Close() error {
	return r.client.Close()
}

var _ ConfigStore = (*Redis)(nil)
