package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/attendance-tracker-api/api/swagger"
	"github.com/noah-isme/attendance-tracker-api/internal/handler"
	"github.com/noah-isme/attendance-tracker-api/internal/middleware"
	"github.com/noah-isme/attendance-tracker-api/internal/repository"
	"github.com/noah-isme/attendance-tracker-api/internal/service"
	"github.com/noah-isme/attendance-tracker-api/pkg/cache"
	"github.com/noah-isme/attendance-tracker-api/pkg/config"
	"github.com/noah-isme/attendance-tracker-api/pkg/database"
	"github.com/noah-isme/attendance-tracker-api/pkg/export"
	"github.com/noah-isme/attendance-tracker-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/attendance-tracker-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/attendance-tracker-api/pkg/middleware/requestid"
	"github.com/noah-isme/attendance-tracker-api/pkg/observability"
)

// @title Attendance Tracker API
// @version 1.0.0
// @description Classroom roster, daily attendance and monthly reports
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if err := run(cfg, logr); err != nil {
		logr.Error("server stopped", zap.Error(err))
		_ = logr.Sync()
		os.Exit(1)
	}
}

func run(cfg *config.Config, logr *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	flushSentry, err := observability.InitSentry(cfg.Sentry.DSN, cfg.Env, cfg.Sentry.Release)
	if err != nil {
		logr.Warn("sentry disabled", zap.Error(err))
	}
	defer flushSentry()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close() //nolint:errcheck

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(ctx, db.DB, "up"); err != nil {
			return err
		}
		logr.Info("migrations applied")
	}

	redisClient, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, caching disabled", zap.Error(err))
		redisClient = nil
	}
	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	defer cacheRepo.Close() //nolint:errcheck

	metrics := service.NewMetricsService()
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Cache.TTL, logr, cacheRepo.Enabled())
	validate := validator.New()
	loc := cfg.Location()

	studentRepo := repository.NewStudentRepository(db)
	attendanceRepo := repository.NewAttendanceRepository(db)

	students := service.NewStudentService(studentRepo, cacheSvc, metrics, validate, logr)
	attendance := service.NewAttendanceService(attendanceRepo, cacheSvc, metrics, validate, logr, loc)
	reports := service.NewReportService(studentRepo, attendanceRepo, cacheSvc, metrics, validate, logr)
	exports := service.NewExportService(reports,
		export.NewCSVExporter(),
		export.NewPDFExporter(cfg.Reports.PDFFontPath),
		export.NewXLSXExporter(),
		metrics, logr, loc)

	handlers := handler.Handlers{
		Students:   handler.NewStudentHandler(students, cfg.Import.MaxFileSizeBytes),
		Attendance: handler.NewAttendanceHandler(attendance),
		Reports:    handler.NewReportHandler(reports, exports),
	}
	var guard gin.HandlerFunc
	if cfg.Auth.Enabled {
		auth := service.NewAuthService(validate, logr, service.AuthConfig{
			Username:          cfg.Auth.Username,
			PasswordHash:      cfg.Auth.PasswordHash,
			AccessTokenSecret: cfg.Auth.Secret,
			AccessTokenExpiry: cfg.Auth.Expiration,
			Issuer:            cfg.Auth.Issuer,
		})
		handlers.Auth = handler.NewAuthHandler(auth)
		guard = middleware.JWT(auth)
	}

	var capture middleware.CaptureFunc
	if cfg.Sentry.DSN != "" {
		capture = observability.CaptureErr
	}

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))
	r.Use(middleware.ErrorReporter(capture))

	checks := []handler.ReadinessCheck{{Name: "postgres", Check: db.PingContext}}
	if cacheRepo.Enabled() {
		checks = append(checks, handler.ReadinessCheck{Name: "redis", Check: cacheRepo.Ping})
	}
	handler.RegisterOps(r, handler.NewMetricsHandler(metrics, checks...))
	handler.RegisterRoutes(r.Group(cfg.APIPrefix), handlers, guard)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env), zap.Bool("auth", cfg.Auth.Enabled), zap.Bool("cache", cacheRepo.Enabled()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
	case <-ctx.Done():
	}

	logr.Info("shutting down", zap.Duration("timeout", cfg.ShutdownTimeout))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
