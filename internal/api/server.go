// Package api exposes the fulfillment, loyalty, and scheduling operations
// over a JSON REST surface. Handlers stay thin: validate input, call the
// transactional operation, map typed errors to HTTP statuses.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/homeit/platform/internal/notify"
	"github.com/homeit/platform/internal/policy"
)

// Server wires the route handlers to their collaborators.
type Server struct {
	db       *gorm.DB
	catalog  *policy.Catalog
	notifier *notify.Notifier
	logger   *zap.Logger
}

// StartOpts holds configuration for the API server.
type StartOpts struct {
	DB       *gorm.DB
	Catalog  *policy.Catalog
	Notifier *notify.Notifier // may be nil
	Logger   *zap.Logger
	Port     int
}

// Start launches the API server. It blocks until ctx is cancelled, then
// shuts down gracefully.
func Start(ctx context.Context, opts StartOpts) error {
	if opts.DB == nil {
		return fmt.Errorf("api: db is required")
	}
	if opts.Catalog == nil {
		return fmt.Errorf("api: catalog is required")
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Port <= 0 {
		opts.Port = 8080
	}

	s := &Server{
		db:       opts.DB,
		catalog:  opts.Catalog,
		notifier: opts.Notifier,
		logger:   opts.Logger,
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), s.requestLog())
	s.registerRoutes(router)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", opts.Port),
		Handler: router,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info("api listening", zap.Int("port", opts.Port))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("api: %w", err)
	}
	return nil
}

// requestLog logs each request with its status and latency.
func (s *Server) requestLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)))
	}
}
