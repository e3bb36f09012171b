// Copyright 2025 LandingPress Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/LeeDigitalWorks/landingpress/pkg/logger"
	"github.com/LeeDigitalWorks/landingpress/pkg/objstore"
	"github.com/LeeDigitalWorks/landingpress/pkg/utils"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var objectCmd = &cobra.Command{
	Use:   "object",
	Short: "Inspect persisted assets",
	Long:  `Operator utilities against the storage the pipeline currently resolves to.`,
}

var objectHeadCmd = &cobra.Command{
	Use:   "head",
	Short: "Check whether a key exists",
	Run:   runObject(objectHead),
}

var objectGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Download an object",
	Run:   runObject(objectGet),
}

var objectSignCmd = &cobra.Command{
	Use:   "sign",
	Short: "Print a presigned GET URL for a key",
	Run:   runObject(objectSign),
}

func init() {
	rootCmd.AddCommand(objectCmd)
	objectCmd.AddCommand(objectHeadCmd, objectGetCmd, objectSignCmd)

	for _, c := range []*cobra.Command{objectHeadCmd, objectGetCmd, objectSignCmd} {
		c.Flags().String("key", "", "Object key, e.g. u1/MySite_05012024/fotos/05012024MySite_logo.jpg")
		addPipelineFlags(c.Flags())
	}
	objectGetCmd.Flags().String("output", "-", "Where to write the object (- for stdout)")
	objectSignCmd.Flags().Duration("ttl", 15*time.Minute, "Validity of the signed URL")
}

type objectAction func(ctx context.Context, cmd *cobra.Command, c *objstore.Client, bucket, key string) error

func runObject(action objectAction) func(cmd *cobra.Command, args []string) {
	return func(cmd *cobra.Command, args []string) {
		utils.LoadConfiguration("landingpress", false)
		key := NewFlagLoader(cmd).String("key")
		if key == "" {
			logger.Fatal().Msg("--key is required")
		}

		p, err := buildPipeline(cmd.Context(), loadPipelineOpts(cmd))
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to build pipeline")
		}
		defer p.Close()

		cfg := p.resolver.Get(cmd.Context())
		client, err := objstore.New(cmd.Context(), p.pool, cfg)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to create storage client")
		}
		if err := action(cmd.Context(), cmd, client, cfg.Bucket, key); err != nil {
			logger.Fatal().Err(err).Str("key", key).Msg("object command failed")
		}
	}
}

func objectHead(ctx context.Context, cmd *cobra.Command, c *objstore.Client, bucket, key string) error {
	ok, err := c.Exists(ctx, bucket, key)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s/%s", objstore.ErrObjectNotFound, bucket, key)
	}
	fmt.Fprintln(cmd.OutOrStdout(), c.PublicURL(bucket, key))
	return nil
}

func objectGet(ctx context.Context, cmd *cobra.Command, c *objstore.Client, bucket, key string) error {
	data, err := c.Get(ctx, bucket, key)
	if err != nil {
		return err
	}
	output := NewFlagLoader(cmd).String("output")
	if err := writeOutput(output, cmd.OutOrStdout(), data); err != nil {
		return err
	}
	if output != "" && output != "-" {
		logger.Info().Str("key", key).Str("size", humanize.Bytes(uint64(len(data)))).Str("output", output).Msg("object written")
	}
	return nil
}

func objectSign(ctx context.Context, cmd *cobra.Command, c *objstore.Client, bucket, key string) error {
	url, err := c.SignedURL(ctx, bucket, key, NewFlagLoader(cmd).Duration("ttl"))
	if err != nil {
		return err
	}
	_, err = io.WriteString(cmd.OutOrStdout(), url+"\n")
	return err
}
