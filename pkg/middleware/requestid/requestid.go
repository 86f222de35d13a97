package requestid

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	headerKey  = "X-Request-ID"
	contextKey = "request_id"
	maxLength  = 128
)

type ctxKey struct{}

// Middleware tags every request with an ID, reusing a sane incoming X-Request-ID.
// The ID is stored on the gin context, the request context and the response header.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		reqID := strings.TrimSpace(c.GetHeader(headerKey))
		if reqID == "" || len(reqID) > maxLength {
			reqID = uuid.NewString()
		}

		c.Set(contextKey, reqID)
		c.Request = c.Request.WithContext(context.WithValue(c.Request.Context(), ctxKey{}, reqID))
		c.Writer.Header().Set(headerKey, reqID)

		c.Next()
	}
}

// Value returns the request ID stored in the gin context.
func Value(c *gin.Context) string {
	id, _ := c.Get(contextKey)
	s, _ := id.(string)
	return s
}

// FromContext returns the request ID carried by ctx, if any.
func FromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}
