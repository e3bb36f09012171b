// Copyright 2025 LandingPress Authors
// SPDX-License-Identifier: Apache-2.0

package assets

import (
	"context"
	"fmt"
	"time"

	"github.com/LeeDigitalWorks/landingpress/pkg/keyname"
	"github.com/LeeDigitalWorks/landingpress/pkg/logger"
	"github.com/LeeDigitalWorks/landingpress/pkg/objstore"
	"github.com/LeeDigitalWorks/landingpress/pkg/s3client"
	"github.com/LeeDigitalWorks/landingpress/pkg/storageconfig"
	"github.com/LeeDigitalWorks/landingpress/pkg/transcode"
	"github.com/LeeDigitalWorks/landingpress/pkg/types"

	"github.com/dustin/go-humanize"
)

// ConfigSource yields the storage config snapshot to use.
type ConfigSource interface {
	Get(ctx context.Context) storageconfig.StorageConfig
}

// ObjectStore is the subset of objstore.Client the uploader needs.
type ObjectStore interface {
	Put(ctx context.Context, bucket, key string, data []byte, contentType string) error
	PublicURL(bucket, key string) string
}

// StoreOpener binds an ObjectStore to a config snapshot.
type StoreOpener func(ctx context.Context, cfg storageconfig.StorageConfig) (ObjectStore, error)

// PoolOpener opens objstore clients through pool.
func PoolOpener(pool *s3client.Pool) StoreOpener {
	return func(ctx context.Context, cfg storageconfig.StorageConfig) (ObjectStore, error) {
		c, err := objstore.New(ctx, pool, cfg)
		if err != nil {
			return nil, err
		}
		return c, nil
	}
}

// UploaderOptions configures an Uploader
type UploaderOptions struct {
	Configs    ConfigSource
	Open       StoreOpener
	Transcoder *transcode.Transcoder
	Namer      *keyname.Namer
	Fetcher    Fetcher
	MaxBytes   int64
	Now        func() time.Time
}

// Uploader turns one image reference into a persisted object:
// decode -> transcode -> key -> put -> public URL.
type Uploader struct {
	configs    ConfigSource
	open       StoreOpener
	transcoder *transcode.Transcoder
	namer      *keyname.Namer
	fetcher    Fetcher
	maxBytes   int64
	now        func() time.Time
}

// NewUploader creates an Uploader. Configs and Open are required.
func NewUploader(opts UploaderOptions) *Uploader {
	if opts.Transcoder == nil {
		opts.Transcoder = transcode.New(transcode.DefaultQuality)
	}
	if opts.Namer == nil {
		opts.Namer = keyname.New(time.UTC)
	}
	if opts.MaxBytes <= 0 {
		opts.MaxBytes = DefaultMaxImageBytes
	}
	if opts.Fetcher == nil {
		opts.Fetcher = NewHTTPFetcher(HTTPFetcherOptions{MaxBytes: opts.MaxBytes})
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Uploader{
		configs:    opts.Configs,
		open:       opts.Open,
		transcoder: opts.Transcoder,
		namer:      opts.Namer,
		fetcher:    opts.Fetcher,
		maxBytes:   opts.MaxBytes,
		now:        opts.Now,
	}
}

// Upload persists a single reference for project using a fresh config snapshot.
func (u *Uploader) Upload(ctx context.Context, ref string, project types.ProjectContext, role keyname.Role) (types.UploadResult, error) {
	s, err := u.session(ctx)
	if err != nil {
		return types.UploadResult{}, err
	}
	return s.upload(ctx, ref, project, role)
}

// session is an Uploader bound to one config snapshot and store client.
type session struct {
	*Uploader
	store  ObjectStore
	bucket string
	prefix string
}

func (u *Uploader) session(ctx context.Context) (*session, error) {
	cfg := u.configs.Get(ctx)
	store, err := u.open(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &session{
		Uploader: u,
		store:    store,
		bucket:   cfg.Bucket,
		prefix:   objstore.PublicPrefix(cfg.Endpoint, cfg.Bucket),
	}, nil
}

func (s *session) upload(ctx context.Context, ref string, project types.ProjectContext, role keyname.Role) (types.UploadResult, error) {
	start := time.Now()

	raw, sourceType, err := s.resolve(ctx, ref)
	if err != nil {
		return types.UploadResult{}, err
	}

	out, err := s.transcoder.Transcode(raw)
	if err != nil {
		return types.UploadResult{}, err
	}

	key := s.namer.BuildKey(project, role, s.now(), out.Extension)
	if err := s.store.Put(ctx, s.bucket, key, out.Data, out.ContentType); err != nil {
		return types.UploadResult{}, err
	}

	result := types.UploadResult{
		URL:  s.store.PublicURL(s.bucket, key),
		Key:  key,
		Size: int64(len(out.Data)),
	}

	uploadBytes.Observe(float64(result.Size))
	uploadDuration.Observe(time.Since(start).Seconds())
	logger.Ctx(ctx).Debug().
		Str("key", key).
		Str("role", role.String()).
		Str("source_type", sourceType).
		Str("source_size", humanize.Bytes(uint64(len(raw)))).
		Str("stored_size", humanize.Bytes(uint64(result.Size))).
		Dur("duration", time.Since(start)).
		Msg("asset uploaded")

	return result, nil
}

// resolve returns the raw bytes behind ref and the declared source type.
// The declared type is informational; the transcoder output decides what is stored.
func (s *session) resolve(ctx context.Context, ref string) ([]byte, string, error) {
	parsed, err := ParseReference(ref)
	if err != nil {
		return nil, "", err
	}

	switch parsed.Kind {
	case RefDataURI:
		if int64(len(parsed.Payload)) > s.maxBytes {
			return nil, "", fmt.Errorf("%w: max %d bytes", ErrAssetTooLarge, s.maxBytes)
		}
		return parsed.Payload, parsed.MIME, nil
	case RefBlob, RefRemote:
		fetched, err := s.fetcher.Fetch(ctx, parsed.URL)
		if err != nil {
			return nil, "", err
		}
		return fetched.Data, fetched.ContentType, nil
	default:
		return nil, "", fmt.Errorf("%w: %s", ErrUnsupportedReference, parsed.Kind)
	}
}
