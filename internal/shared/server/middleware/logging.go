package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"tool-advisor/internal/shared/metrics"
	"tool-advisor/internal/shared/telemetry"
)

// Logging emits a structured log per request and counts it in metrics.
func Logging() gin.HandlerFunc {
	return func(c *gin.Context) {
		if strings.EqualFold(c.Request.Method, "OPTIONS") {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()
		latency := time.Since(start)
		status := c.Writer.Status()
		reqID := RequestIDFromContext(c)
		metrics.ObserveHTTPRequest(c.Request.Method, c.FullPath(), status)

		workpiece, _ := c.Get("workpiece")
		chosenTool, _ := c.Get("chosenTool")

		telemetry.Info("request.complete", map[string]any{
			"request_id":  reqID,
			"method":      c.Request.Method,
			"path":        c.Request.URL.Path,
			"route":       c.FullPath(),
			"status":      status,
			"duration_ms": float64(latency.Microseconds()) / 1000.0,
			"workpiece":   workpiece,
			"chosen_tool": chosenTool,
			"client_ip":   c.ClientIP(),
			"user_agent":  c.Request.UserAgent(),
		})
	}
}
