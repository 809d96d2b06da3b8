package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/lingua-crm-api/internal/service"
)

const eventStreamType = "text/event-stream"

// Metrics records latency and status per route. Unrouted requests share one
// label. Dashboard event streams stay open for the whole session and are left
// out so they do not swamp the latency histogram.
func Metrics(metricsSvc *service.MetricsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if metricsSvc == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()
		if strings.HasPrefix(c.Writer.Header().Get("Content-Type"), eventStreamType) {
			return
		}
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		metricsSvc.ObserveHTTPRequest(c.Request.Method, path, c.Writer.Status(), time.Since(start))
	}
}
