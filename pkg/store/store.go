// Copyright 2025 LandingPress Authors
// SPDX-License-Identifier: Apache-2.0

// Package store reads pipeline settings and project records from the
// persistent configuration stores.
package store

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/LeeDigitalWorks/landingpress/pkg/storageconfig"
	"github.com/LeeDigitalWorks/landingpress/pkg/types"
)

// ErrProjectNotFound is returned when no project has the requested id.
var ErrProjectNotFound = errors.New("project not found")

// Source selects the configuration store backend.
type Source string

const (
	SourceNone     Source = "none"
	SourcePostgres Source = "postgres"
	SourceRedis    Source = "redis"
)

// ConfigStore is a settings backend usable by storageconfig.Resolver.
type ConfigStore interface {
	storageconfig.Store
	io.Closer
}

// ProjectStore resolves project records by id.
type ProjectStore interface {
	GetProject(ctx context.Context, projectID string) (types.ProjectContext, error)
}

// Config holds connection settings for every backend.
type Config struct {
	Source Source

	PostgresDSN string

	RedisAddr        string
	RedisPassword    string
	RedisDB          int
	RedisSettingsKey string
}

// Open connects to the configured settings backend. The returned
// ProjectStore is nil unless the backend also holds project records.
// SourceNone yields a nil ConfigStore, which makes the resolver use its
// fallback config.
func Open(ctx context.Context, cfg Config) (ConfigStore, ProjectStore, error) {
	switch cfg.Source {
	case "", SourceNone:
		return nil, nil, nil
	case SourcePostgres:
		pg, err := NewPostgres(ctx, DefaultPostgresConfig(cfg.PostgresDSN))
		if err != nil {
			return nil, nil, err
		}
		return pg, pg, nil
	case SourceRedis:
		r, err := NewRedis(ctx, RedisConfig{
			Addr:        cfg.RedisAddr,
			Password:    cfg.RedisPassword,
			DB:          cfg.RedisDB,
			SettingsKey: cfg.RedisSettingsKey,
		})
		if err != nil {
			return nil, nil, err
		}
		return r, nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown config source %q", cfg.Source)
	}
}
