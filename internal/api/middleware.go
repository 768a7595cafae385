package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/your-org/cinedex/internal/observability"
)

// LoggingMiddleware logs each request with slog.
func LoggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		duration := time.Since(start)
		status := c.Writer.Status()

		slog.Info("request",
			"method", c.Request.Method,
			"path", path,
			"status", status,
			"duration", duration.String(),
			"ip", c.ClientIP(),
		)

		observability.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			path,
			fmt.Sprintf("%d", status),
		).Observe(duration.Seconds())
	}
}

// DemoGuard refuses mutating admin operations when demo mode is on, so
// a public showcase instance cannot be wiped.
func DemoGuard(demoMode bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if demoMode {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin operations are disabled in demo mode"})
			return
		}
		c.Next()
	}
}
