// Copyright 2025 LandingPress Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/LeeDigitalWorks/landingpress/pkg/assets"
	"github.com/LeeDigitalWorks/landingpress/pkg/keyname"
	"github.com/LeeDigitalWorks/landingpress/pkg/logger"
	"github.com/LeeDigitalWorks/landingpress/pkg/s3client"
	"github.com/LeeDigitalWorks/landingpress/pkg/storageconfig"
	"github.com/LeeDigitalWorks/landingpress/pkg/store"
	"github.com/LeeDigitalWorks/landingpress/pkg/transcode"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

type PipelineOpts struct {
	// Configuration store
	ConfigSource     string
	PostgresDSN      string
	RedisAddr        string
	RedisPassword    string
	RedisDB          int
	RedisSettingsKey string

	// Fallback storage parameters
	Fallback storageconfig.StorageConfig

	ConfigCacheTTL    time.Duration
	ConfigFallbackTTL time.Duration

	JPEGQuality       int
	UploadConcurrency int
	LeafTimeout       time.Duration
	FetchTimeout      time.Duration
	FetchRPS          float64
	MaxImageBytes     int64
	MaxImagePixels    int64
	ScanRemoteURLs    bool
	FailFast          bool
	KeyTimezone       string
}

func addPipelineFlags(f *pflag.FlagSet) {
	f.String("config_source", string(store.SourceNone), "Settings store for storage config (none, postgres, redis)")
	f.String("postgres_dsn", "", "PostgreSQL DSN for settings and projects")
	f.String("redis_addr", "localhost:6379", "Redis address for settings")
	f.String("redis_password", "", "Redis password")
	f.Int("redis_db", 0, "Redis database number")
	f.String("redis_settings_key", store.DefaultSettingsKey, "Redis hash holding the settings")

	f.String(storageconfig.KeyEndpoint, storageconfig.DefaultEndpoint, "Fallback S3 endpoint. Env: MINIO_ENDPOINT")
	f.String(storageconfig.KeyRegion, storageconfig.DefaultRegion, "Fallback S3 region. Env: MINIO_REGION")
	f.String(storageconfig.KeyAccessKey, "", "Fallback S3 access key. Env: MINIO_ACCESS_KEY")
	f.String(storageconfig.KeySecretKey, "", "Fallback S3 secret key (use env var MINIO_SECRET_KEY)")
	f.String(storageconfig.KeyBucket, storageconfig.DefaultBucket, "Fallback S3 bucket. Env: MINIO_BUCKET")

	f.Duration("config_cache_ttl", storageconfig.DefaultTTL, "How long a resolved storage config is reused")
	f.Duration("config_fallback_ttl", storageconfig.DefaultFallbackTTL, "How long fallback config is used after a store outage")

	f.Int("jpeg_quality", transcode.DefaultQuality, "JPEG quality of stored images (1-100)")
	f.Int("upload_concurrency", 1, "Parallel uploads per document")
	f.Duration("leaf_timeout", assets.DefaultLeafTimeout, "Timeout for one image upload")
	f.Duration("fetch_timeout", assets.DefaultFetchTimeout, "Timeout for fetching remote images")
	f.Float64("fetch_rps", assets.DefaultFetchRPS, "Remote fetches per second (0 disables throttling)")
	f.Int64("max_image_bytes", assets.DefaultMaxImageBytes, "Maximum size of one source image")
	f.Int64("max_image_pixels", transcode.DefaultMaxPixels, "Maximum width*height of one source image")
	f.Bool("scan_remote_urls", false, "Also persist http(s) URLs found outside known fields")
	f.Bool("fail_fast", true, "Stop a document after the first storage outage")
	f.String("key_timezone", "UTC", "Time zone for dates in storage keys")
}

func loadPipelineOpts(cmd *cobra.Command) PipelineOpts {
	f := NewFlagLoader(cmd)
	return PipelineOpts{
		ConfigSource:      f.String("config_source"),
		PostgresDSN:       f.String("postgres_dsn"),
		RedisAddr:         f.String("redis_addr"),
		RedisPassword:     f.String("redis_password"),
		RedisDB:           f.Int("redis_db"),
		RedisSettingsKey:  f.String("redis_settings_key"),
		Fallback:          storageconfig.FromViper(),
		ConfigCacheTTL:    f.Duration("config_cache_ttl"),
		ConfigFallbackTTL: f.Duration("config_fallback_ttl"),
		JPEGQuality:       f.Int("jpeg_quality"),
		UploadConcurrency: f.Int("upload_concurrency"),
		LeafTimeout:       f.Duration("leaf_timeout"),
		FetchTimeout:      f.Duration("fetch_timeout"),
		FetchRPS:          f.Float64("fetch_rps"),
		MaxImageBytes:     f.Int64("max_image_bytes"),
		MaxImagePixels:    f.Int64("max_image_pixels"),
		ScanRemoteURLs:    f.Bool("scan_remote_urls"),
		FailFast:          f.Bool("fail_fast"),
		KeyTimezone:       f.String("key_timezone"),
	}
}

// pipeline is the composed asset pipeline and the resources it owns.
type pipeline struct {
	processor *assets.Processor
	resolver  *storageconfig.Resolver
	projects  store.ProjectStore
	pool      *s3client.Pool

	configStore store.ConfigStore
}

func buildPipeline(ctx context.Context, opts PipelineOpts) (*pipeline, error) {
	loc, err := time.LoadLocation(opts.KeyTimezone)
	if err != nil {
		return nil, fmt.Errorf("key_timezone: %w", err)
	}
	if opts.JPEGQuality < 1 || opts.JPEGQuality > 100 {
		return nil, fmt.Errorf("jpeg_quality must be within 1..100, got %d", opts.JPEGQuality)
	}

	configStore, projects, err := store.Open(ctx, store.Config{
		Source:           store.Source(opts.ConfigSource),
		PostgresDSN:      opts.PostgresDSN,
		RedisAddr:        opts.RedisAddr,
		RedisPassword:    opts.RedisPassword,
		RedisDB:          opts.RedisDB,
		RedisSettingsKey: opts.RedisSettingsKey,
	})
	if err != nil {
		return nil, fmt.Errorf("open config store: %w", err)
	}

	var settings storageconfig.Store
	if configStore != nil {
		settings = configStore
	}
	resolver := storageconfig.NewResolver(settings, opts.Fallback, storageconfig.Options{
		TTL:         opts.ConfigCacheTTL,
		FallbackTTL: opts.ConfigFallbackTTL,
	})

	pool := s3client.NewPool(opts.LeafTimeout, 0)
	uploader := assets.NewUploader(assets.UploaderOptions{
		Configs:    resolver,
		Open:       assets.PoolOpener(pool),
		Transcoder: transcode.New(opts.JPEGQuality, transcode.WithMaxPixels(opts.MaxImagePixels)),
		Namer:      keyname.New(loc),
		Fetcher: assets.NewHTTPFetcher(assets.HTTPFetcherOptions{
			Timeout:  opts.FetchTimeout,
			RPS:      opts.FetchRPS,
			MaxBytes: opts.MaxImageBytes,
		}),
		MaxBytes: opts.MaxImageBytes,
	})
	walker := assets.NewWalker(assets.WalkerOptions{
		Concurrency:    opts.UploadConcurrency,
		LeafTimeout:    opts.LeafTimeout,
		ScanRemoteURLs: opts.ScanRemoteURLs,
		FailFast:       opts.FailFast,
	})

	logger.Info().
		Str("config_source", opts.ConfigSource).
		Str("fallback_endpoint", opts.Fallback.Endpoint).
		Str("fallback_bucket", opts.Fallback.Bucket).
		Int("upload_concurrency", opts.UploadConcurrency).
		Str("max_image_bytes", humanize.IBytes(uint64(opts.MaxImageBytes))).
		Msg("asset pipeline initialized")

	return &pipeline{
		processor:   assets.NewProcessor(uploader, walker, projects),
		resolver:    resolver,
		projects:    projects,
		pool:        pool,
		configStore: configStore,
	}, nil
}

func (p *pipeline) Close() error {
	var err error
	if p.configStore != nil {
		err = p.configStore.Close()
	}
	if cerr := p.pool.Close(); err == nil {
		err = cerr
	}
	return err
}
