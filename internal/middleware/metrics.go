package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/lunch-rotation-api/internal/service"
)

// unmatchedRoute labels requests that hit no registered route so signed link
// values and probes do not explode the path label.
const unmatchedRoute = "unmatched"

// Metrics records request duration and count per route template. Paths in
// skip are not observed.
func Metrics(metrics *service.MetricsService, skip ...string) gin.HandlerFunc {
	skipped := make(map[string]struct{}, len(skip))
	for _, path := range skip {
		if path != "" {
			skipped[path] = struct{}{}
		}
	}
	return func(c *gin.Context) {
		if metrics == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if _, ok := skipped[route]; ok {
			return
		}
		if route == "" {
			route = unmatchedRoute
		}
		metrics.ObserveHTTPRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
