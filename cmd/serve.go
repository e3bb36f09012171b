// Copyright 2025 LandingPress Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/LeeDigitalWorks/landingpress/pkg/api"
	"github.com/LeeDigitalWorks/landingpress/pkg/debug"
	"github.com/LeeDigitalWorks/landingpress/pkg/logger"
	"github.com/LeeDigitalWorks/landingpress/pkg/utils"

	"github.com/spf13/cobra"
)

type ServeOpts struct {
	IP           string
	HTTPPort     int
	DebugPort    int
	ConnTimeout  time.Duration
	MaxBodyBytes int64
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the document processing API",
	Long: `Start the LandingPress HTTP API:
- POST /v1/documents/process persists every image of a project document
- POST /v1/assets persists a single image reference
Metrics, health and pprof are served on the debug port.`,
	Run: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	f := serveCmd.Flags()
	f.String("ip", "0.0.0.0", "IP address to bind to")
	f.Int("http_port", 8090, "HTTP port for the API")
	f.Int("debug_port", 8095, "Debug HTTP port")
	f.Duration("conn_timeout", 30*time.Second, "Idle timeout of a client connection, scaled by bytes transferred")
	f.Int64("max_body_bytes", api.DefaultMaxBodyBytes, "Maximum request body size")
	addPipelineFlags(f)
}

func runServe(cmd *cobra.Command, args []string) {
	utils.LoadConfiguration("landingpress", false)
	f := NewFlagLoader(cmd)
	opts := ServeOpts{
		IP:           f.String("ip"),
		HTTPPort:     f.Int("http_port"),
		DebugPort:    f.Int("debug_port"),
		ConnTimeout:  f.Duration("conn_timeout"),
		MaxBodyBytes: f.Int64("max_body_bytes"),
	}

	debug.SetNotReady()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	p, err := buildPipeline(ctx, loadPipelineOpts(cmd))
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build pipeline")
	}
	defer p.Close()

	debug.AddReadyCheck("storage_config", func(ctx context.Context) error {
		if !p.resolver.Get(ctx).Valid() {
			return errors.New("no usable storage config")
		}
		return nil
	})

	handler := api.NewHandler(p.processor, p.processor.Uploader(), opts.MaxBodyBytes)
	httpServer := startHTTPServer(handler, utils.JoinHostPort(opts.IP, opts.HTTPPort), opts.ConnTimeout)
	go func() {
		if err := debug.Serve(ctx, utils.JoinHostPort(opts.IP, opts.DebugPort)); err != nil {
			logger.Error().Err(err).Msg("debug server stopped")
		}
	}()

	debug.SetReady()
	waitForShutdown()
	debug.SetNotReady()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("http server shutdown")
	}
}

func startHTTPServer(handler http.Handler, addr string, connTimeout time.Duration) *http.Server {
	listener, err := utils.NewListener(addr, connTimeout)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create HTTP listener")
	}

	httpServer := &http.Server{Handler: handler, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		logger.Info().Str("http_addr", addr).Msg("Starting HTTP server")
		if err := httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("failed to start HTTP server")
		}
	}()
	return httpServer
}

func waitForShutdown() {
	stopChan := make(chan os.Signal, 1)
	signal.Notify(stopChan, os.Interrupt, syscall.SIGHUP, syscall.SIGTERM)
	<-stopChan
}
