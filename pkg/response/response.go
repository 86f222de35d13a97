package response

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"

	appErrors "github.com/noah-isme/attendance-tracker-api/pkg/errors"
)

// Envelope represents the common response contract.
type Envelope struct {
	Data  interface{}            `json:"data,omitempty"`
	Error *appErrors.Error       `json:"error,omitempty"`
	Meta  map[string]interface{} `json:"meta,omitempty"`
}

// JSON sends a success response with optional metadata.
func JSON(c *gin.Context, status int, data interface{}, meta ...map[string]interface{}) {
	noStore(c)
	envelope := Envelope{Data: data}
	if len(meta) > 0 && len(meta[0]) > 0 {
		envelope.Meta = meta[0]
	}
	c.JSON(status, envelope)
}

// Created responds with HTTP 201 Created.
func Created(c *gin.Context, data interface{}) {
	JSON(c, http.StatusCreated, data)
}

// Error sends an error response converting the error to the common structure.
// The original error is attached to the gin context for logging and error reporting.
func Error(c *gin.Context, err error) {
	appErr := appErrors.FromError(err)
	_ = c.Error(err)
	noStore(c)
	c.JSON(appErr.Status, Envelope{Error: appErr})
}

// NoContent sends a 204 response.
func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Attachment streams a rendered file as a download. Non-ASCII file names are sent using RFC 5987.
func Attachment(c *gin.Context, filename, contentType string, payload []byte) {
	noStore(c)
	c.Header("Content-Disposition", ContentDisposition(filename))
	c.Data(http.StatusOK, contentType, payload)
}

// ContentDisposition builds an attachment header value with an ASCII fallback name.
func ContentDisposition(filename string) string {
	fallback := asciiFallback(filename)
	return fmt.Sprintf(`attachment; filename="%s"; filename*=UTF-8''%s`, fallback, url.PathEscape(filename))
}

func asciiFallback(filename string) string {
	var b strings.Builder
	for _, r := range filename {
		switch {
		case r == '"' || r == '\\':
			b.WriteRune('_')
		case r < 0x20 || r > 0x7e:
			b.WriteRune('_')
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func noStore(c *gin.Context) {
	c.Header("Cache-Control", "no-store")
	c.Header("Pragma", "no-cache")
}
