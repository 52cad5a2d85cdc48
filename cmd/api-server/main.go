package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/nile-sports/academy-api/api/swagger"
	"github.com/nile-sports/academy-api/internal/handler"
	"github.com/nile-sports/academy-api/internal/middleware"
	"github.com/nile-sports/academy-api/internal/models"
	"github.com/nile-sports/academy-api/internal/repository"
	"github.com/nile-sports/academy-api/internal/service"
	"github.com/nile-sports/academy-api/pkg/cache"
	"github.com/nile-sports/academy-api/pkg/config"
	"github.com/nile-sports/academy-api/pkg/database"
	"github.com/nile-sports/academy-api/pkg/jobs"
	"github.com/nile-sports/academy-api/pkg/logger"
	"github.com/nile-sports/academy-api/pkg/mailer"
	corsmiddleware "github.com/nile-sports/academy-api/pkg/middleware/cors"
	reqidmiddleware "github.com/nile-sports/academy-api/pkg/middleware/requestid"
)

// @title Nile Sports Academy API
// @version 1.0.0
// @description Back office for coaching session pay and GPS attendance
// @BasePath /api/v1
// @schemes http

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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
		redisClient = nil
	}

	userRepo := repository.NewUserRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	rateRepo := repository.NewRateRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	attendanceRepo := repository.NewAttendanceRepository(db)
	adjustmentRepo := repository.NewAdjustmentRepository(db)
	payrollRepo := repository.NewPayrollRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	metricsSvc := service.NewMetricsService()
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Payroll.CacheTTL, logr, redisClient != nil)

	authSvc := service.NewAuthService(userRepo, nil, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             cfg.JWT.Issuer,
	})
	userSvc := service.NewUserService(userRepo, nil, logr)
	courseSvc := service.NewCourseService(courseRepo, nil, logr)
	rateSvc := service.NewRateService(rateRepo, courseRepo, cfg.Rates, nil, logr)
	sessionSvc := service.NewSessionService(sessionRepo, courseRepo, rateSvc, cacheSvc, nil, logr)
	attendanceSvc := service.NewAttendanceService(attendanceRepo, sessionRepo, cfg.Academy, nil, logr)
	adjustmentSvc := service.NewAdjustmentService(adjustmentRepo, cacheSvc, nil, logr)
	payrollSvc := service.NewPayrollService(payrollRepo, userRepo, cacheSvc, cfg.Payroll.CacheTTL, logr)
	invoiceSvc := service.NewInvoiceService(payrollSvc, mailer.NewSMTP(cfg.Mailer), logr)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Invoices.Enabled {
		queue := jobs.NewQueue("invoices", invoiceSvc.HandleRetry, jobs.QueueConfig{
			Workers:    cfg.Invoices.RetryWorkers,
			RetryDelay: cfg.Invoices.RetryDelay,
			Logger:     logr,
		})
		invoiceSvc.AttachQueue(queue)
		queue.Start(ctx)
		defer queue.Stop()
	}

	authHandler := handler.NewAuthHandler(authSvc)
	userHandler := handler.NewUserHandler(userSvc, rateSvc)
	courseHandler := handler.NewCourseHandler(courseSvc, rateSvc)
	sessionHandler := handler.NewSessionHandler(sessionSvc)
	attendanceHandler := handler.NewAttendanceHandler(attendanceSvc)
	adjustmentHandler := handler.NewAdjustmentHandler(adjustmentSvc)
	payrollHandler := handler.NewPayrollHandler(payrollSvc, invoiceSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Health)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.Refresh)

	authed := api.Group("")
	authed.Use(middleware.JWT(authSvc))

	authed.POST("/auth/logout", authHandler.Logout)
	authed.GET("/auth/me", authHandler.Me)
	authed.POST("/auth/change-password", authHandler.ChangePassword)

	adminOnly := middleware.RequireRoles(models.RoleAdmin)
	anyRole := middleware.RequireRoles(models.RoleAdmin, models.RoleCoach)

	users := authed.Group("/users", adminOnly)
	users.GET("", userHandler.List)
	users.GET("/:id", userHandler.Get)
	users.POST("", userHandler.Create)
	users.PUT("/:id", userHandler.Update)
	users.DELETE("/:id", userHandler.Delete)
	users.GET("/:id/rates", userHandler.ListRates)

	courses := authed.Group("/courses")
	courses.GET("", anyRole, courseHandler.List)
	courses.GET("/:id", anyRole, courseHandler.Get)
	courses.POST("", adminOnly, courseHandler.Create)
	courses.PUT("/:id", adminOnly, courseHandler.Update)
	courses.DELETE("/:id", adminOnly, courseHandler.Archive)
	courses.POST("/:id/archive", adminOnly, courseHandler.Archive)
	courses.GET("/:id/rates", adminOnly, courseHandler.ListRates)
	courses.GET("/:id/coaches/:coachId/rates", adminOnly, courseHandler.ListCoachRates)
	courses.POST("/:id/coaches/:coachId/rates", adminOnly, courseHandler.SetRate)

	sessions := authed.Group("/sessions")
	sessions.GET("", anyRole, sessionHandler.List)
	sessions.GET("/:id", anyRole, sessionHandler.Get)
	sessions.POST("", anyRole, sessionHandler.Create)
	sessions.PUT("/:id", anyRole, sessionHandler.Update)
	sessions.DELETE("/:id", adminOnly, sessionHandler.Delete)

	attendance := authed.Group("/attendance")
	attendance.POST("", middleware.RequireRoles(models.RoleCoach), attendanceHandler.Mark)
	attendance.GET("", anyRole, attendanceHandler.History)

	adminAttendance := authed.Group("/admin/attendance", adminOnly)
	adminAttendance.POST("",
		middleware.Audit(userRepo, models.AuditActionAdminMark, "attendance"), attendanceHandler.AdminMark)
	adminAttendance.DELETE("/:id",
		middleware.Audit(userRepo, models.AuditActionRemoveMark, "attendance"), attendanceHandler.Remove)

	adjustments := authed.Group("/adjustments", adminOnly)
	adjustments.GET("", adjustmentHandler.List)
	adjustments.POST("", adjustmentHandler.Create)
	adjustments.PUT("/:id", adjustmentHandler.Update)
	adjustments.DELETE("/:id", adjustmentHandler.Delete)

	payroll := authed.Group("/payroll")
	payroll.GET("/:month", anyRole, payrollHandler.Summary)
	payroll.GET("/:month/export", adminOnly, payrollHandler.Export)
	payroll.POST("/:month/invoices", adminOnly,
		middleware.Audit(userRepo, models.AuditActionInvoiceSend, "payroll"), payrollHandler.SendInvoices)

	authed.GET("/system/metrics", adminOnly, metricsHandler.Snapshot)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}
