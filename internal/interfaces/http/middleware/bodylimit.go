package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tuition/backend/internal/interfaces/http/dto"
)

// BodyLimit rejects a declared Content-Length over maxBytes with 413 and caps
// the reader for chunked bodies, whose overflow surfaces as a bind error.
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBytes {
			abortWith(c, http.StatusRequestEntityTooLarge, dto.ErrCodeTooLarge, "Request body exceeds maximum allowed size")
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}
