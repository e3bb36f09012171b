// Copyright 2025 LandingPress Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"os"

	"github.com/LeeDigitalWorks/landingpress/pkg/logger"
	"github.com/LeeDigitalWorks/landingpress/pkg/utils"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:   "landingpress",
	Short: "LandingPress - landing page asset pipeline",
	Long: `LandingPress persists the images referenced by landing page project
documents to S3-compatible storage and rewrites the documents with the
resulting public URLs. It runs as a one-shot CLI or as an HTTP service.`,
	PersistentPreRun: initializeCommand,
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&utils.ConfigurationFileDirectory, "config_dir", ".", "Directory for configuration files")
	rootCmd.PersistentFlags().String("log_level", "", "Log level (debug, info, warn, error); overrides LOG_LEVEL")
}

// initializeCommand binds the running command's flags so viper lookups see
// them, then applies the log level.
func initializeCommand(cmd *cobra.Command, args []string) {
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		logger.Warn().Err(err).Msg("failed to bind flags")
	}

	level, _ := cmd.Flags().GetString("log_level")
	if level == "" {
		return
	}
	parsed, err := zerolog.ParseLevel(level)
	if err != nil {
		logger.Warn().Str("log_level", level).Msg("unknown log level, keeping default")
		return
	}
	logger.SetLevel(parsed)
}

func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
