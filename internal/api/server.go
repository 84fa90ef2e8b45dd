// Package api is the thin HTTP adapter over the service query surface. It
// contains no business logic beyond request parsing and error mapping.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/adambarczewski00/telemetry-board/internal/metrics"
	"github.com/adambarczewski00/telemetry-board/internal/service"
)

// Options tune the HTTP server.
type Options struct {
	Listen          string
	MetricsEndpoint bool
}

// Server serves the asset/price/alert query API.
type Server struct {
	opts    Options
	svc     *service.Service
	metrics *metrics.Metrics
	logger  zerolog.Logger
	router  *gin.Engine
	httpSrv *http.Server
}

// NewServer builds the router; nothing listens until Start.
func NewServer(opts Options, svc *service.Service, m *metrics.Metrics, logger zerolog.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		opts:    opts,
		svc:     svc,
		metrics: m,
		logger:  logger.With().Str("component", "api").Logger(),
	}
	s.router = s.buildRouter()
	return s
}

func (s *Server) buildRouter() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), s.requestMetrics())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	if s.opts.MetricsEndpoint {
		router.GET("/metrics", gin.WrapH(s.metrics.Handler()))
	}

	router.GET("/assets", s.listAssets)
	router.POST("/assets", s.createAsset)
	router.GET("/prices", s.listPrices)
	router.GET("/prices/latest", s.latestPrice)
	router.GET("/prices/summary", s.priceSummary)
	router.GET("/alerts", s.listAlerts)

	return router
}

// requestMetrics records per-request counters and latency, keyed by the
// route template to keep label cardinality bounded.
func (s *Server) requestMetrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		started := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		s.metrics.RequestServed(c.Request.Method, path, c.Writer.Status(), time.Since(started))
	}
}

// Start blocks serving HTTP until Shutdown or a listener error.
func (s *Server) Start() error {
	s.httpSrv = &http.Server{
		Addr:              s.opts.Listen,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	s.logger.Info().Str("listen", s.opts.Listen).Msg("http server starting")
	err := s.httpSrv.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpSrv == nil {
		return nil
	}
	return s.httpSrv.Shutdown(ctx)
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}
