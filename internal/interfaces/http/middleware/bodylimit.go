package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rotem1230/gal1/internal/interfaces/http/dto"
)

// BodyLimit returns a middleware that limits request body size. Requests
// announcing a larger body are rejected up front; the rest are read through
// http.MaxBytesReader so chunked uploads are capped as well.
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if maxBytes <= 0 {
			c.Next()
			return
		}
		if c.Request.ContentLength > maxBytes {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeRequestTooLarge,
				"Request body exceeds maximum allowed size",
				GetRequestID(c),
			))
			return
		}

		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}
