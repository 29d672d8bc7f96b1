package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// MaxBodyMessage is returned when a request body exceeds the limit.
const MaxBodyMessage = "Request is too large"

// BodyLimit caps request bodies at limit bytes. Requests that declare a larger
// body are rejected at once; others fail with *http.MaxBytesError once the
// limit is crossed while reading.
func BodyLimit(limit int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > limit {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{"error": MaxBodyMessage})
			return
		}

		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		c.Next()
	}
}
