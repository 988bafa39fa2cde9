package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"learnstack/utils"
)

// RequestSizeLimiter rejects bodies over maxSize bytes. Code submissions are
// the largest legitimate payloads.
func RequestSizeLimiter(maxSize int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxSize {
			c.JSON(http.StatusRequestEntityTooLarge, &utils.Response{
				Status: http.StatusRequestEntityTooLarge,
				Error:  "Request body too large",
			})
			c.Abort()
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxSize)
		c.Next()
	}
}
