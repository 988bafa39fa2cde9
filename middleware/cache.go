package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

// CacheControlMiddleware marks catalog reads as privately cacheable.
func CacheControlMiddleware(maxAge time.Duration) gin.HandlerFunc {
	value := "private, max-age=" + strconv.Itoa(int(maxAge.Seconds()))
	return func(c *gin.Context) {
		c.Header("Cache-Control", value)
		c.Next()
	}
}
