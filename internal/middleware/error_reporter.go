package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/attendance-tracker-api/pkg/middleware/requestid"
)

// CaptureFunc forwards an error to an external reporter.
type CaptureFunc func(err error, tags map[string]string)

// ErrorReporter forwards the last error of every 5xx response to capture.
func ErrorReporter(capture CaptureFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		if capture == nil || c.Writer.Status() < http.StatusInternalServerError {
			return
		}
		last := c.Errors.Last()
		if last == nil {
			return
		}
		capture(last.Err, map[string]string{
			"method":     c.Request.Method,
			"route":      c.FullPath(),
			"status":     http.StatusText(c.Writer.Status()),
			"request_id": requestid.Value(c),
		})
	}
}
