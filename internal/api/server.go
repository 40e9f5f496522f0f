// Package api serves harvest status, health, and Prometheus metrics over HTTP.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Jaysooner/gratefulgpt-scraper-dataset/internal/harvest"
	"github.com/Jaysooner/gratefulgpt-scraper-dataset/internal/logger"
)

const serviceName = "harvester"

// StatusProvider exposes per-source harvest reports.
type StatusProvider interface {
	Snapshot() []harvest.Report
	Lookup(source string) (harvest.Report, bool)
}

// Server is the status HTTP server.
type Server struct {
	router  *gin.Engine
	server  *http.Server
	log     logger.Logger
	cfg     Config
	started time.Time
}

// NewServer builds the router. gatherer may be nil to use the default registry.
func NewServer(cfg Config, status StatusProvider, gatherer prometheus.Gatherer, log logger.Logger) *Server {
	cfg.SetDefaults()
	if cfg.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	router := gin.New()
	router.Use(recoveryMiddleware(log), loggerMiddleware(log))

	s := &Server{
		router:  router,
		log:     log,
		cfg:     cfg,
		started: time.Now(),
	}

	router.GET("/health", s.health)
	router.HEAD("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/status", statusListHandler(status))
	router.GET("/status/:source", statusHandler(status))
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	return s
}

// Handler returns the router for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("Starting status server", logger.String("address", s.server.Addr))
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("status server: %w", err)
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.ShutdownTimeout)
	defer cancel()
	if err := s.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("status server shutdown: %w", err)
	}
	s.log.Info("Status server stopped")
	return nil
}

type healthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Version string `json:"version,omitempty"`
	Uptime  string `json:"uptime"`
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, healthResponse{
		Status:  "healthy",
		Service: serviceName,
		Version: s.cfg.ServiceVersion,
		Uptime:  time.Since(s.started).Truncate(time.Second).String(),
	})
}

func statusListHandler(status StatusProvider) gin.HandlerFunc {
	return func(c *gin.Context) {
		reports := status.Snapshot()
		c.JSON(http.StatusOK, gin.H{"sources": reports, "count": len(reports)})
	}
}

func statusHandler(status StatusProvider) gin.HandlerFunc {
	return func(c *gin.Context) {
		name := c.Param("source")
		report, ok := status.Lookup(name)
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "no harvest recorded for source " + name})
			return
		}
		c.JSON(http.StatusOK, report)
	}
}
