package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/attendance-tracker-api/internal/service"
)

const readinessTimeout = 3 * time.Second

// ReadinessCheck reports whether one dependency can serve traffic.
type ReadinessCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// MetricsHandler exposes observability endpoints.
type MetricsHandler struct {
	metrics *service.MetricsService
	checks  []ReadinessCheck
}

// NewMetricsHandler constructs a metrics handler. Checks run on every readiness probe.
func NewMetricsHandler(metrics *service.MetricsService, checks ...ReadinessCheck) *MetricsHandler {
	return &MetricsHandler{metrics: metrics, checks: checks}
}

// Prometheus serves the Prometheus metrics endpoint.
func (h *MetricsHandler) Prometheus(c *gin.Context) {
	if h.metrics == nil {
		c.Status(http.StatusServiceUnavailable)
		return
	}
	h.metrics.Handler().ServeHTTP(c.Writer, c.Request)
}

// Health reports liveness.
func (h *MetricsHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Ready pings every dependency and answers 503 when any of them fails.
func (h *MetricsHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), readinessTimeout)
	defer cancel()

	status := http.StatusOK
	results := make(map[string]string, len(h.checks))
	for _, check := range h.checks {
		if err := check.Check(ctx); err != nil {
			status = http.StatusServiceUnavailable
			results[check.Name] = err.Error()
			continue
		}
		results[check.Name] = "ok"
	}

	state := "ready"
	if status != http.StatusOK {
		state = "unavailable"
	}
	c.JSON(status, gin.H{"status": state, "checks": results})
}
