package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
)

const unmatchedRoute = "unmatched"

type httpObserver interface {
	ObserveHTTPRequest(method, path string, status int, duration time.Duration)
}

// Metrics records the duration and status of every request under its route template.
// Requests that match no route share one label.
func Metrics(observer httpObserver) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = unmatchedRoute
		}
		observer.ObserveHTTPRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
