package mw

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"property-maintenance-backend/internal/metrics"
)

// Metrics records the count and latency of every request, labelled by route.
func Metrics(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		m.ObserveRequest(c.Request.Method, path, strconv.Itoa(c.Writer.Status()), time.Since(start))
	}
}
