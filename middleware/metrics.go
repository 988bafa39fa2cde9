package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"learnstack/utils"
)

// MetricsMiddleware handles basic HTTP metrics. Paths are labelled by route
// template so ids do not explode the label set.
func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		method := c.Request.Method

		utils.ActiveRequests.Inc()
		defer utils.ActiveRequests.Dec()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := c.Writer.Status()

		utils.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
		utils.HTTPRequestDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
		utils.HTTPResponseSize.WithLabelValues(method, path).Observe(float64(c.Writer.Size()))
	}
}
