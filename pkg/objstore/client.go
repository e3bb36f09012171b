// Copyright 2025 LandingPress Authors
// SPDX-License-Identifier: Apache-2.0

// Package objstore performs object operations against an S3-compatible
// backend using path-style addressing.
package objstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/LeeDigitalWorks/landingpress/pkg/s3client"
	"github.com/LeeDigitalWorks/landingpress/pkg/storageconfig"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

var (
	// ErrStorageUnavailable covers connectivity, auth and missing-bucket failures.
	ErrStorageUnavailable = errors.New("object storage unavailable")
	// ErrObjectNotFound is returned by Get for a missing key.
	ErrObjectNotFound = errors.New("object not found")
)

// Client is bound to one StorageConfig snapshot. Create a new Client after
// the config changes; the underlying S3 client is shared through the pool.
type Client struct {
	endpoint string
	s3       *s3.Client
	presign  *s3.PresignClient
}

// New returns a Client for cfg.
func New(ctx context.Context, pool *s3client.Pool, cfg storageconfig.StorageConfig) (*Client, error) {
	endpoint := storageconfig.NormalizeEndpoint(cfg.Endpoint)
	if endpoint == "" {
		return nil, fmt.Errorf("%w: endpoint not configured", ErrStorageUnavailable)
	}

	client, err := pool.GetClient(ctx, &s3client.Config{
		Endpoint:        endpoint,
		Region:          cfg.Region,
		AccessKeyID:     cfg.AccessKeyID,
		SecretAccessKey: cfg.SecretAccessKey,
		PathStyle:       true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
	}

	return &Client{
		endpoint: endpoint,
		s3:       client,
		presign:  s3.NewPresignClient(client),
	}, nil
}

// Put uploads data under bucket/key. Errors are not retried here.
func (c *Client) Put(ctx context.Context, bucket, key string, data []byte, contentType string) error {
	input := &s3.PutObjectInput{
		Bucket:        aws.String(bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}

	if _, err := c.s3.PutObject(ctx, input); err != nil {
		return fmt.Errorf("%w: put object %s/%s: %w", ErrStorageUnavailable, bucket, key, err)
	}
	return nil
}

// Get downloads bucket/key.
func (c *Client) Get(ctx context.Context, bucket, key string) ([]byte, error) {
	out, err := c.s3.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("%w: %s/%s", ErrObjectNotFound, bucket, key)
		}
		return nil, fmt.Errorf("%w: get object %s/%s: %w", ErrStorageUnavailable, bucket, key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read object %s/%s: %w", ErrStorageUnavailable, bucket, key, err)
	}
	return data, nil
}

// Exists reports whether bucket/key is present.
func (c *Client) Exists(ctx context.Context, bucket, key string) (bool, error) {
	_, err := c.s3.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err == nil {
		return true, nil
	}
	if isNotFound(err) {
		return false, nil
	}
	return false, fmt.Errorf("%w: head object %s/%s: %w", ErrStorageUnavailable, bucket, key, err)
}

// PublicURL returns the unsigned "{endpoint}/{bucket}/{key}" address.
func (c *Client) PublicURL(bucket, key string) string {
	return PublicURL(c.endpoint, bucket, key)
}

// SignedURL returns a time-limited GET URL for objects that are not public.
func (c *Client) SignedURL(ctx context.Context, bucket, key string, ttl time.Duration) (string, error) {
	req, err := c.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		return "", fmt.Errorf("presign %s/%s: %w", bucket, key, err)
	}
	return req.URL, nil
}

// PublicURL joins endpoint, bucket and key, escaping each key segment.
func PublicURL(endpoint, bucket, key string) string {
	segments := strings.Split(key, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return strings.TrimRight(endpoint, "/") + "/" + bucket + "/" + strings.Join(segments, "/")
}

// PublicPrefix is the URL prefix shared by every object in bucket.
func PublicPrefix(endpoint, bucket string) string {
	return strings.TrimRight(storageconfig.NormalizeEndpoint(endpoint), "/") + "/" + bucket + "/"
}

func isNotFound(err error) bool {
	var nf *s3types.NotFound
	if errors.As(err, &nf) {
		return true
	}
	var nsk *s3types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NotFound", "NoSuchKey":
			return true
		}
	}
	return false
}
