package handler

import (
	"github.com/gin-gonic/gin"
)

// Handlers groups every API handler registered by RegisterRoutes.
type Handlers struct {
	Auth       *AuthHandler
	Students   *StudentHandler
	Attendance *AttendanceHandler
	Reports    *ReportHandler
}

// RegisterRoutes mounts the API on api. When guard is non-nil it protects every route except login.
func RegisterRoutes(api *gin.RouterGroup, h Handlers, guard gin.HandlerFunc) {
	if h.Auth != nil {
		api.POST("/auth/login", h.Auth.Login)
	}

	protected := api.Group("")
	if guard != nil {
		protected.Use(guard)
	}

	students := protected.Group("/students")
	students.GET("", h.Students.List)
	students.POST("", h.Students.Create)
	students.DELETE("", h.Students.Clear)
	students.POST("/bulk", h.Students.BulkImport)
	students.POST("/upload", h.Students.Upload)
	students.POST("/upload/preview", h.Students.Preview)
	students.PUT("/:id", h.Students.Rename)
	students.DELETE("/:id", h.Students.Delete)

	attendance := protected.Group("/attendance")
	attendance.GET("", h.Attendance.List)
	attendance.POST("", h.Attendance.Upsert)
	attendance.PUT("/days/:day", h.Attendance.ReplaceDay)

	reports := protected.Group("/reports")
	reports.GET("/monthly", h.Reports.Monthly)
	reports.GET("/monthly/export", h.Reports.Export)
}

// RegisterOps mounts liveness, readiness and metrics outside the API prefix.
func RegisterOps(r gin.IRouter, h *MetricsHandler) {
	r.GET("/health", h.Health)
	r.GET("/ready", h.Ready)
	r.GET("/metrics", h.Prometheus)
}
