// Copyright 2024 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

// Package server serves the API from a gin engine mounted on an http.Server,
// so shutdown follows the lifecycle context instead of gin.Run.
package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stratastor/burrow/config"
	"github.com/stratastor/burrow/internal/common"
	"github.com/stratastor/burrow/pkg/errors"
	"github.com/stratastor/logger"
)

const shutdownTimeout = 10 * time.Second

var (
	mu  sync.Mutex
	srv *http.Server
	stk *stack
)

// newEngine builds the gin engine with middleware and the /health check.
// ready, when set, is consulted by /health.
func newEngine(cfg *config.Config, l logger.Logger, ready func(context.Context) error) *gin.Engine {
	// Switch to debug mode for non-production environments
	switch cfg.Environment {
	case "prod", "production":
		gin.SetMode(gin.ReleaseMode)
	default:
		gin.SetMode(gin.DebugMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(LoggerMiddleware(l))

	engine.GET("/health", func(c *gin.Context) {
		if ready != nil {
			if err := ready(c.Request.Context()); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{
					"status": "unhealthy",
					"error":  err.Error(),
				})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})
	return engine
}

// Start serves the API on port until ctx is cancelled. A zero port falls
// back to the configured one.
func Start(ctx context.Context, port int) error {
	cfg := config.GetConfig()
	if err := common.InitLogger(cfg); err != nil {
		return errors.Wrap(err, errors.LoggerError)
	}
	l, err := logger.NewTag(config.NewLoggerConfig(cfg), "server")
	if err != nil {
		return errors.Wrap(err, errors.LoggerError)
	}
	if port == 0 {
		port = cfg.Server.Port
	}

	s, err := buildStack(ctx, cfg, l)
	if err != nil {
		return errors.Wrap(err, errors.ServerStart)
	}

	engine := newEngine(cfg, l, s.store.Ping)
	registerRoutes(engine, s.handler)

	if err := s.startAlerts(cfg, l); err != nil {
		// The API is still useful without periodic health checks.
		l.Error("Failed to start pool health alerts", "err", err)
	}
	if err := s.snapTasks.Start(ctx); err != nil {
		l.Error("Failed to start periodic snapshot tasks", "err", err)
	}

	mu.Lock()
	stk = s
	srv = &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: engine,
	}
	server := srv
	mu.Unlock()

	// Channel to catch server startup errors
	errChan := make(chan error, 1)

	// While gin.Run() would be simpler, it:
	// - Doesn't support graceful shutdown
	// - Blocks until the server exits
	// - Doesn't integrate with our context-based lifecycle management from lifecycle package
	go func() {
		l.Info("Listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	// Wait for either server error or context cancellation
	select {
	case err := <-errChan:
		s.Close()
		return errors.Wrap(err, errors.ServerStart)
	case <-ctx.Done():
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return Shutdown(sctx)
	}
}

// Shutdown stops the listener, the schedulers and the store. It is safe
// to call more than once.
func Shutdown(ctx context.Context) error {
	mu.Lock()
	server, s := srv, stk
	srv, stk = nil, nil
	mu.Unlock()

	var err error
	if server != nil {
		if e := server.Shutdown(ctx); e != nil {
			err = errors.Wrap(e, errors.ServerShutdown)
		}
	}
	if s != nil {
		s.Close()
	}
	return err
}
