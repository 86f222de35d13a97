package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/attendance-tracker-api/internal/models"
	appErrors "github.com/noah-isme/attendance-tracker-api/pkg/errors"
)

type validatorStub struct {
	token string
}

func (v validatorStub) ValidateToken(token string) (*models.JWTClaims, error) {
	if token != v.token {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token")
	}
	return &models.JWTClaims{Username: "teacher"}, nil
}

func newEngine(mw ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(mw...)
	return r
}

func TestJWT(t *testing.T) {
	r := newEngine(JWT(validatorStub{token: "good"}))
	r.GET("/me", func(c *gin.Context) {
		c.String(http.StatusOK, Claims(c).Username)
	})

	cases := []struct {
		header string
		status int
	}{
		{"", http.StatusUnauthorized},
		{"Token good", http.StatusUnauthorized},
		{"Bearer ", http.StatusUnauthorized},
		{"Bearer bad", http.StatusUnauthorized},
		{"bearer good", http.StatusOK},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		if tc.header != "" {
			req.Header.Set("Authorization", tc.header)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, tc.status, w.Code, tc.header)
		if tc.status == http.StatusOK {
			assert.Equal(t, "teacher", w.Body.String())
		}
	}
}

type observerStub struct {
	routes []string
	status []int
}

func (o *observerStub) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	o.routes = append(o.routes, path)
	o.status = append(o.status, status)
}

func TestMetricsUsesRouteTemplate(t *testing.T) {
	observer := &observerStub{}
	r := newEngine(Metrics(observer))
	r.DELETE("/students/:id", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	for _, path := range []string{"/students/abc", "/nowhere"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, path, nil))
	}
	assert.Equal(t, []string{"/students/:id", unmatchedRoute}, observer.routes)
	assert.Equal(t, []int{http.StatusNoContent, http.StatusNotFound}, observer.status)
}

func TestSetCacheHit(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	assert.Nil(t, ResponseMeta(c))
	SetCacheHit(c, true)
	assert.Equal(t, map[string]interface{}{"cache_hit": true}, ResponseMeta(c))
}

func TestErrorReporterOnlyReportsServerErrors(t *testing.T) {
	var captured []error
	r := newEngine(ErrorReporter(func(err error, tags map[string]string) {
		captured = append(captured, err)
		assert.Equal(t, "/boom", tags["route"])
	}))
	boom := errors.New("db down")
	r.GET("/boom", func(c *gin.Context) {
		_ = c.Error(boom)
		c.Status(http.StatusInternalServerError)
	})
	r.GET("/missing", func(c *gin.Context) {
		_ = c.Error(appErrors.ErrNotFound)
		c.Status(http.StatusNotFound)
	})

	for _, path := range []string{"/boom", "/missing"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}
	require.Len(t, captured, 1)
	assert.Same(t, boom, captured[0])
}
