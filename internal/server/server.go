// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package server is the HTTP front-end: a gin router exposing POST /convert,
// which accepts one PDF or PNG upload and streams back the first converted
// file.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/pdiddy/pdfpng/internal/convert"
	"github.com/pdiddy/pdfpng/pkg/types"
)

const shutdownTimeout = 10 * time.Second

// Server wires the conversion engine to HTTP.
type Server struct {
	engine *convert.Engine
	cfg    types.ServerConfig
	log    *zap.Logger
	router *gin.Engine
}

// New builds the router. Zero-valued cfg fields fall back to the package
// defaults in types.
func New(engine *convert.Engine, cfg types.ServerConfig, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Addr == "" {
		cfg.Addr = types.DefaultServerAddr
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = types.DefaultMaxUploadBytes
	}

	if cfg.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		engine: engine,
		cfg:    cfg,
		log:    logger,
	}

	r := gin.New()
	r.MaxMultipartMemory = cfg.MaxUploadBytes
	r.Use(requestID(), accessLog(logger), recovery(logger))

	r.GET("/healthz", s.handleHealth)
	r.POST("/convert", limitBody(cfg.MaxUploadBytes), s.handleConvert)

	s.router = r
	return s
}

// Handler returns the HTTP handler, for use with httptest or a custom server.
func (s *Server) Handler() http.Handler { return s.router }

// Run serves on cfg.Addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("listening",
			zap.String("addr", s.cfg.Addr),
			zap.String("backend", s.engine.Backend()),
			zap.Bool("debug", s.cfg.Debug))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serving on %s: %w", s.cfg.Addr, err)
	case <-ctx.Done():
	}

	s.log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	return nil
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "backend": s.engine.Backend()})
}
