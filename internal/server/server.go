// Package server exposes the parser over HTTP.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ccollicutt/probeplot/pkg/config"
	"github.com/ccollicutt/probeplot/pkg/webhook"
)

// Server bundles router and dependencies for the HTTP API.
type Server struct {
	cfg     *config.Config
	engine  *gin.Engine
	metrics *Metrics
	logger  *slog.Logger
	hooks   *webhook.Client

	// deliveries tracks webhook sends still running after their response.
	deliveries sync.WaitGroup
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger for access and error logs.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		s.logger = l
	}
}

// WithWebhookClient sets the client used to deliver configured webhooks.
func WithWebhookClient(c *webhook.Client) Option {
	return func(s *Server) {
		s.hooks = c
	}
}

// New constructs a server with routes and middleware.
func New(cfg *config.Config, opts ...Option) *Server {
	s := &Server{
		cfg:     cfg,
		metrics: NewMetrics(),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.hooks == nil {
		s.hooks = webhook.NewClient(webhook.WithLogger(s.logger))
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(requestIDMiddleware())
	engine.Use(metricsMiddleware(s.metrics))
	engine.Use(accessLogMiddleware(s.logger))
	engine.Use(corsMiddleware())

	s.engine = engine
	s.registerRoutes()
	return s
}

// Engine exposes the underlying gin engine (for tests).
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// Run starts the HTTP server and blocks until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Server.Listen,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		s.logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)
		s.Wait()
		return err
	}
}

// Wait blocks until background webhook deliveries have finished.
func (s *Server) Wait() {
	s.deliveries.Wait()
}

func (s *Server) registerRoutes() {
	s.engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	s.engine.GET("/metrics", gin.WrapH(s.metrics.Handler()))

	api := s.engine.Group("/api/v1")
	if s.cfg.Server.BearerToken != "" {
		api.Use(bearerAuthMiddleware(s.cfg.Server.BearerToken))
	}
	api.POST("/parse", s.handleParse)
	api.POST("/render", s.handleRender)
}
