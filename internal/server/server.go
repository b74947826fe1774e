// Package server exposes the dispatch service over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/spigell/soto-lp/internal/dispatch"
	"github.com/spigell/soto-lp/internal/logger"
	"github.com/spigell/soto-lp/internal/metrics"
)

const (
	DefaultAddr   = ":8080"
	apiPrefix     = "/api/soto-lp"
	shutdownGrace = 10 * time.Second
)

type Config struct {
	Addr           string
	AllowedOrigins []string
}

// Deps are the collaborators of the HTTP API. Ping and Gatherer are optional.
type Deps struct {
	Service  *dispatch.Service
	Ping     func(ctx context.Context) error
	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer
	Logger   *zap.Logger
}

type Server struct {
	cfg     Config
	service *dispatch.Service
	ping    func(ctx context.Context) error
	logger  *zap.Logger
	engine  *gin.Engine
}

func New(cfg Config, deps Deps) *Server {
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}
	gatherer := deps.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	s := &Server{
		cfg:     cfg,
		service: deps.Service,
		ping:    deps.Ping,
		logger:  logger.OrNop(deps.Logger),
	}

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestID())
	r.Use(requestLog(s.logger, deps.Metrics))
	r.Use(corsMiddleware(cfg.AllowedOrigins))

	r.GET("/health", s.health)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	api := r.Group(apiPrefix)
	{
		api.POST("/add-job", s.addJob)
		api.GET("/get-jobs", s.getJobs)
		api.POST("/add-driver", s.addDriver)
		api.GET("/get-drivers", s.getDrivers)
		api.POST("/process-matches", s.processMatches)
		api.GET("/get-matches", s.getMatches)
		api.GET("/statistics", s.statistics)
		api.POST("/extract", s.extract)
		api.GET("/export-matches", s.exportMatches)
	}

	s.engine = r
	return s
}

// Handler returns the HTTP handler serving every route.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", zap.String("addr", s.cfg.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve http: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()

	s.logger.Info("shutting down http server")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	return nil
}
