// Copyright 2025 LandingPress Authors
// SPDX-License-Identifier: Apache-2.0

// Package storageconfig resolves object-storage connection parameters from a
// persisted configuration store, caching the result and falling back to
// environment defaults when the store cannot be read.
package storageconfig

import (
	"strings"

	"github.com/spf13/viper"
)

// Keys under which the configuration store holds storage parameters.
const (
	KeyEndpoint  = "minio_endpoint"
	KeyRegion    = "minio_region"
	KeyAccessKey = "minio_access_key"
	KeySecretKey = "minio_secret_key"
	KeyBucket    = "minio_bucket"
)

// Keys lists every configuration key the resolver reads.
var Keys = []string{KeyEndpoint, KeyRegion, KeyAccessKey, KeySecretKey, KeyBucket}

const (
	DefaultEndpoint = "http://localhost:9000"
	DefaultRegion   = "us-east-1"
	DefaultBucket   = "landing-pages"
)

// StorageConfig holds everything needed to reach the S3-compatible backend.
type StorageConfig struct {
	Endpoint        string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
}

// Valid reports whether the config can address objects at all.
func (c StorageConfig) Valid() bool {
	return c.Endpoint != "" && c.Bucket != ""
}

// merge overlays non-empty settings onto c.
func (c StorageConfig) merge(settings map[string]string) StorageConfig {
	if v := strings.TrimSpace(settings[KeyEndpoint]); v != "" {
		c.Endpoint = v
	}
	if v := strings.TrimSpace(settings[KeyRegion]); v != "" {
		c.Region = v
	}
	if v := strings.TrimSpace(settings[KeyAccessKey]); v != "" {
		c.AccessKeyID = v
	}
	if v := strings.TrimSpace(settings[KeySecretKey]); v != "" {
		c.SecretAccessKey = v
	}
	if v := strings.TrimSpace(settings[KeyBucket]); v != "" {
		c.Bucket = v
	}
	return c.normalize()
}

func (c StorageConfig) normalize() StorageConfig {
	c.Endpoint = NormalizeEndpoint(c.Endpoint)
	c.Bucket = strings.Trim(strings.TrimSpace(c.Bucket), "/")
	if c.Region == "" {
		c.Region = DefaultRegion
	}
	return c
}

// NormalizeEndpoint adds an https scheme when none is given and trims trailing slashes.
func NormalizeEndpoint(endpoint string) string {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return ""
	}
	if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		endpoint = "https://" + endpoint
	}
	return strings.TrimRight(endpoint, "/")
}

// FromViper builds the fallback config from viper keys, which include the
// MINIO_* environment variables once AutomaticEnv is enabled.
func FromViper() StorageConfig {
	for _, key := range Keys {
		_ = viper.BindEnv(key, strings.ToUpper(key))
	}
	viper.SetDefault(KeyEndpoint, DefaultEndpoint)
	viper.SetDefault(KeyRegion, DefaultRegion)
	viper.SetDefault(KeyBucket, DefaultBucket)

	return StorageConfig{
		Endpoint:        viper.GetString(KeyEndpoint),
		Region:          viper.GetString(KeyRegion),
		AccessKeyID:     viper.GetString(KeyAccessKey),
		SecretAccessKey: viper.GetString(KeySecretKey),
		Bucket:          viper.GetString(KeyBucket),
	}.normalize()
}
