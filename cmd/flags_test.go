// Copyright 2025 LandingPress Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"bytes"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlagLoaderPrecedence(t *testing.T) {
	t.Cleanup(viper.Reset)

	cmd := &cobra.Command{Use: "test"}
	f := cmd.Flags()
	f.String("name", "default", "")
	f.Int("count", 1, "")
	f.Duration("wait", time.Second, "")
	f.Float64("rate", 1.5, "")
	f.Bool("on", false, "")

	viper.Set("name", "from-viper")
	viper.Set("count", 7)

	require.NoError(t, f.Parse([]string{"--wait=3s", "--on"}))
	loader := NewFlagLoader(cmd)

	assert.Equal(t, "from-viper", loader.String("name"))
	assert.Equal(t, 7, loader.Int("count"))
	assert.Equal(t, 3*time.Second, loader.Duration("wait"))
	assert.True(t, loader.Bool("on"))

	require.NoError(t, f.Parse([]string{"--name=from-flag"}))
	assert.Equal(t, "from-flag", loader.String("name"))
}

func TestPipelineFlagsDefaults(t *testing.T) {
	t.Cleanup(viper.Reset)

	cmd := &cobra.Command{Use: "test"}
	addPipelineFlags(cmd.Flags())
	require.NoError(t, viper.BindPFlags(cmd.Flags()))

	opts := loadPipelineOpts(cmd)
	assert.Equal(t, "none", opts.ConfigSource)
	assert.Equal(t, 82, opts.JPEGQuality)
	assert.Equal(t, 1, opts.UploadConcurrency)
	assert.Equal(t, 5*time.Minute, opts.ConfigCacheTTL)
	assert.True(t, opts.FailFast)
	assert.False(t, opts.ScanRemoteURLs)
	assert.Equal(t, "UTC", opts.KeyTimezone)
	assert.Equal(t, int64(40_000_000), opts.MaxImagePixels)
	assert.Equal(t, "landing-pages", opts.Fallback.Bucket)
}

func TestVersionCommand(t *testing.T) {
	info := VersionInfo()
	assert.Equal(t, Version, info["version"])
	assert.NotEmpty(t, info["go_version"])
}

func TestVersionCommandOutput(t *testing.T) {
	var out bytes.Buffer
	versionCmd.SetOut(&out)
	t.Cleanup(func() { versionCmd.SetOut(nil) })

	versionCmd.Run(versionCmd, nil)
	assert.Contains(t, out.String(), "LandingPress "+Version)
	assert.Contains(t, out.String(), "Go version:")
}
