// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pdiddy/pdfpng/internal/server"
	"github.com/pdiddy/pdfpng/pkg/types"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve conversions over HTTP",
	Long: `Serve starts an HTTP server exposing POST /convert. The request carries one
PDF or PNG file in the multipart field "file"; the response is the first
converted file (the first page PNG, or the assembled PDF).

GET /healthz reports liveness and the active rasterizer. The server stops
gracefully on SIGINT or SIGTERM.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	engine, err := newEngine(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return server.New(engine, cfg.Server, logger).Run(ctx)
}

func init() {
	defaults := types.DefaultConfig()

	serveCmd.Flags().String("addr", defaults.Server.Addr, "listen address")
	serveCmd.Flags().Int64("max-upload-bytes", defaults.Server.MaxUploadBytes, "maximum request body size in bytes")
	serveCmd.Flags().Bool("debug", false, "include stack traces in error responses")

	bindFlag("server.addr", serveCmd.Flags().Lookup("addr"))
	bindFlag("server.max_upload_bytes", serveCmd.Flags().Lookup("max-upload-bytes"))
	bindFlag("server.debug", serveCmd.Flags().Lookup("debug"))

	rootCmd.AddCommand(serveCmd)
}
