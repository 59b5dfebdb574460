package utils

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"ledger_reporter/internal/pkg/metrics"
)

// ZapLoggerMiddleware logs every request through zap and feeds the request
// duration histogram.
func ZapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	requestLogger := logger.Named("HTTP")
	return func(c *gin.Context) {
		start := time.Now()
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		metrics.HTTPRequestDuration.
			WithLabelValues(c.Request.Method, path, strconv.Itoa(status)).
			Observe(latency.Seconds())

		requestLogger.Info("Request handled",
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Int("status", status),
			zap.Duration("latency", latency),
		)
	}
}
