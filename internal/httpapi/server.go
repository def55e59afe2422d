// Package httpapi exposes the bounds calculator, the containment check and
// radius queries over the place index as a JSON HTTP API.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/kass/geo-bounds/internal/metrics"
	"github.com/kass/geo-bounds/pkg/rtree"
)

// Config holds the router and server settings. Index may be nil.
type Config struct {
	Addr         string
	Mode         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	Index        *rtree.GeoIndex
	Logger       *zap.Logger
}

// NewRouter builds the gin engine with middleware and routes
func NewRouter(cfg Config) *gin.Engine {
	if cfg.Mode != "" {
		gin.SetMode(cfg.Mode)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	engine := gin.New()
	engine.Use(Recovery(logger))
	engine.Use(metrics.Middleware())
	engine.Use(RequestLogger(logger))

	h := NewHandler(cfg.Index, logger)

	engine.GET("/healthz", h.Health)
	engine.GET("/metrics", metrics.Handler())

	v1 := engine.Group("/v1")
	{
		v1.GET("/bounds", h.Bounds)
		v1.GET("/within", h.Within)
		v1.GET("/places", h.Places)
		v1.GET("/places/nearest", h.Nearest)
	}

	return engine
}

// Server wraps an http.Server running the API router
type Server struct {
	httpServer *http.Server
	logger     *zap.Logger
}

// NewServer creates a Server and publishes the index size metric
func NewServer(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Index != nil {
		metrics.IndexedPlaces.Set(float64(cfg.Index.Count()))
	}

	return &Server{
		httpServer: &http.Server{
			Addr:         cfg.Addr,
			Handler:      NewRouter(cfg),
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
		},
		logger: logger,
	}
}

// Start blocks serving requests until Shutdown is called
func (s *Server) Start() error {
	s.logger.Info("starting server", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones until ctx ends
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down server")
	return s.httpServer.Shutdown(ctx)
}
