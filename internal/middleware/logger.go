package middleware

import (
	"log/slog"
	"strconv"
	"time"

	"github.com/osvaldoandrade/coffeeshop/internal/metrics"

	"github.com/gin-gonic/gin"
)

const loggerKey = "logger"

// LoggerMiddleware stores a request-scoped logger in the context and emits
// one line per request. It must run after RequestIDMiddleware.
func LoggerMiddleware(logger *slog.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = slog.Default()
	}
	return func(c *gin.Context) {
		start := time.Now()
		reqLogger := logger
		if id := c.GetString(requestIDKey); id != "" {
			reqLogger = logger.With("request_id", id)
		}
		c.Set(loggerKey, reqLogger)

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		latency := time.Since(start)
		metrics.HTTPRequestDurationSeconds.
			WithLabelValues(c.Request.Method, route, strconv.Itoa(status)).
			Observe(latency.Seconds())

		level := slog.LevelInfo
		if status >= 500 {
			level = slog.LevelError
		}
		reqLogger.Log(c.Request.Context(), level, "http request",
			"method", c.Request.Method,
			"route", route,
			"path", c.Request.URL.Path,
			"status", status,
			"latency_ms", latency.Milliseconds(),
		)
	}
}

// LoggerFrom returns the request logger, or slog.Default outside a request.
func LoggerFrom(c *gin.Context) *slog.Logger {
	if v, ok := c.Get(loggerKey); ok {
		if l, ok := v.(*slog.Logger); ok {
			return l
		}
	}
	return slog.Default()
}
