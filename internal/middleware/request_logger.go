package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/guttosm/packing-service/internal/logger"
	"github.com/guttosm/packing-service/internal/metrics"
)

// quietPaths are polled by orchestrators and scrapers; successful hits are
// only logged at debug level.
var quietPaths = map[string]bool{
	"/healthz": true,
	"/readyz":  true,
	"/metrics": true,
}

// RequestLogger returns a middleware that logs one structured line per request.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		statusCode := c.Writer.Status()
		route := c.FullPath()
		if route == "" {
			route = metrics.UnmatchedRoute
		}

		log := logger.FromContext(c.Request.Context())
		level := getLogLevel(statusCode)
		if level == zerolog.InfoLevel && quietPaths[c.Request.URL.Path] {
			level = zerolog.DebugLevel
		}

		log.WithLevel(level).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Str("route", route).
			Int("status_code", statusCode).
			Int("response_bytes", c.Writer.Size()).
			Int64("duration_ms", time.Since(start).Milliseconds()).
			Str("ip", c.ClientIP()).
			Str("user_agent", c.Request.UserAgent()).
			Msg("HTTP request")
	}
}

// getLogLevel returns the log level based on HTTP status code.
func getLogLevel(statusCode int) zerolog.Level {
	switch {
	case statusCode >= http.StatusInternalServerError:
		return zerolog.ErrorLevel
	case statusCode >= http.StatusBadRequest:
		return zerolog.WarnLevel
	default:
		return zerolog.InfoLevel
	}
}
