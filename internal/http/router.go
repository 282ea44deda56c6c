package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/guttosm/packing-service/internal/i18n"
	"github.com/guttosm/packing-service/internal/metrics"
	"github.com/guttosm/packing-service/internal/middleware"
)

// RouterConfig holds router configuration options.
type RouterConfig struct {
	RateLimit      int
	RateWindow     time.Duration
	CORSOrigins    []string
	RequestTimeout time.Duration
}

// DefaultRouterConfig returns the default router configuration.
func DefaultRouterConfig() RouterConfig {
	return RouterConfig{
		RateLimit:      100,
		RateWindow:     time.Minute,
		RequestTimeout: 30 * time.Second,
	}
}

// NewRouter creates and configures the Gin router for the packing service.
// The returned stop function releases the rate limiter's cleanup goroutine.
func NewRouter(handler *Handler, healthHandler *HealthHandler, cfg RouterConfig) (*gin.Engine, func()) {
	router := gin.New()

	stop := configureGlobalMiddleware(router, &cfg)

	// Infrastructure routes skip the request deadline.
	healthHandler.Register(router)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.NoRoute(func(c *gin.Context) {
		NewResponseBuilder(c).Error(http.StatusNotFound, i18n.ErrKeyNotFound, nil)
	})

	api := router.Group("/api")
	if cfg.RequestTimeout > 0 {
		api.Use(middleware.TimeoutWithDuration(cfg.RequestTimeout))
	}
	if handler != nil {
		NewPackingRoutes(handler).RegisterRoutes(api)
	}

	return router, stop
}

// configureGlobalMiddleware sets up middleware applied to all routes.
func configureGlobalMiddleware(router *gin.Engine, cfg *RouterConfig) func() {
	router.Use(
		middleware.CORS(cfg.CORSOrigins),
		middleware.RequestID(),
		middleware.Recovery(),
		metrics.PrometheusMiddleware(),
		middleware.Compression(),
		middleware.RequestLogger(),
		middleware.ErrorHandler(),
	)

	if cfg.RateLimit <= 0 {
		return func() {}
	}
	limiter := middleware.NewRateLimiter(cfg.RateLimit, cfg.RateWindow)
	router.Use(limiter.RateLimit())
	return limiter.Stop
}
