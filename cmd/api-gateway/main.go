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
	"github.com/google/uuid"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/coursekit/planner-api/api/swagger"
	"github.com/coursekit/planner-api/internal/handler"
	"github.com/coursekit/planner-api/internal/middleware"
	"github.com/coursekit/planner-api/internal/models"
	"github.com/coursekit/planner-api/internal/repository"
	"github.com/coursekit/planner-api/internal/service"
	"github.com/coursekit/planner-api/pkg/cache"
	"github.com/coursekit/planner-api/pkg/config"
	"github.com/coursekit/planner-api/pkg/database"
	"github.com/coursekit/planner-api/pkg/export"
	"github.com/coursekit/planner-api/pkg/jobs"
	"github.com/coursekit/planner-api/pkg/logger"
	corsmiddleware "github.com/coursekit/planner-api/pkg/middleware/cors"
	reqidmiddleware "github.com/coursekit/planner-api/pkg/middleware/requestid"
	"github.com/coursekit/planner-api/pkg/storage"
)

// @title Course Planner API
// @version 1.0.0
// @description Catalog browsing, schedule planning and export API
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

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	metricsService := service.NewMetricsService()

	var cacheService *service.CacheService
	if cfg.Catalog.CacheEnabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, catalog cache disabled", "error", err)
		} else {
			defer redisClient.Close()
			cacheRepo := repository.NewCacheRepository(redisClient, logr)
			cacheService = service.NewCacheService(cacheRepo, metricsService, cfg.Catalog.CacheTTL, logr, true)
		}
	}

	courseRepo := repository.NewCourseRepository(db)
	sectionRepo := repository.NewSectionRepository(db)
	scheduleRepo := repository.NewScheduleRepository(db)
	termRepo := repository.NewTermRepository(db)
	feedbackRepo := repository.NewFeedbackRepository(db)
	userRepo := repository.NewUserRepository(db)

	authService := service.NewAuthService(userRepo, nil, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             cfg.JWT.Issuer,
	})
	catalogService := service.NewCatalogService(courseRepo, sectionRepo, cacheService, logr)
	termService := service.NewTermService(termRepo, cacheService, logr)
	scheduleService := service.NewScheduleService(scheduleRepo, sectionRepo, nil, logr)
	feedbackService := service.NewFeedbackService(feedbackRepo, nil, logr)

	var exportService *service.ExportService
	if cfg.Exports.Enabled {
		exportStorage, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
		if err != nil {
			logr.Sugar().Fatalw("failed to init export storage", "error", err)
		}
		signer := storage.NewSignedURLSigner(cfg.JWT.Secret, cfg.Exports.ResultTTL)
		exportService = service.NewExportService(scheduleService, exportStorage, signer, service.ExportConfig{
			APIPrefix:    cfg.APIPrefix,
			ResultTTL:    cfg.Exports.ResultTTL,
			CalendarName: cfg.Exports.CalendarName,
		}, logr, nil, nil, export.NewICSExporter())
	}

	authHandler := handler.NewAuthHandler(authService)
	courseHandler := handler.NewCourseHandler(catalogService)
	termHandler := handler.NewTermHandler(termService)
	scheduleHandler := handler.NewScheduleHandler(scheduleService)
	feedbackHandler := handler.NewFeedbackHandler(feedbackService)
	metricsHandler := handler.NewMetricsHandler(metricsService)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.WithResponseMeta())
	r.Use(middleware.Metrics(metricsService))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.Refresh)
	auth.POST("/logout", middleware.JWT(authService), authHandler.Logout)
	auth.GET("/me", middleware.JWT(authService), authHandler.Me)

	api.GET("/terms", termHandler.List)
	api.GET("/terms/current", termHandler.GetCurrent)
	api.GET("/terms/:id", termHandler.Get)

	api.GET("/courses", courseHandler.List)
	api.GET("/courses/:id", courseHandler.Get)
	api.GET("/subjects", courseHandler.Subjects)

	schedules := api.Group("/schedules", middleware.JWT(authService))
	schedules.GET("", scheduleHandler.List)
	schedules.POST("", scheduleHandler.Create)
	schedules.GET("/:id", scheduleHandler.Get)
	schedules.PUT("/:id", scheduleHandler.Update)
	schedules.DELETE("/:id", scheduleHandler.Delete)
	schedules.POST("/:id/sections", scheduleHandler.AddSection)
	schedules.DELETE("/:id/sections/:crn", scheduleHandler.RemoveSection)
	schedules.GET("/:id/conflicts", scheduleHandler.Conflicts)

	if cfg.Feedback.Enabled {
		api.POST("/feedback", middleware.OptionalJWT(authService), feedbackHandler.Submit)
		api.GET("/feedback", middleware.JWT(authService), middleware.RequireRoles(models.RoleAdmin), feedbackHandler.List)
	}

	var cleanupQueue *jobs.Queue
	if exportService != nil {
		exportHandler := handler.NewExportHandler(exportService)
		schedules.POST("/:id/export", exportHandler.Create)
		api.GET("/exports/:token", exportHandler.Download)

		cleanupQueue = jobs.NewQueue("export-cleanup", func(ctx context.Context, job jobs.Job) error {
			removed, err := exportService.Cleanup(0)
			if err != nil {
				return err
			}
			if len(removed) > 0 {
				logr.Sugar().Infow("expired exports removed", "count", len(removed))
			}
			return nil
		}, jobs.QueueConfig{Workers: 1, Logger: logr})
	}

	api.GET("/admin/metrics", middleware.JWT(authService), middleware.RequireRoles(models.RoleAdmin), metricsHandler.Snapshot)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cleanupQueue != nil {
		cleanupQueue.Start(ctx)
		defer cleanupQueue.Stop()
		go func() {
			ticker := time.NewTicker(time.Hour)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					if err := cleanupQueue.Enqueue(jobs.Job{ID: uuid.NewString(), Type: "cleanup"}); err != nil {
						logr.Sugar().Warnw("failed to enqueue export cleanup", "error", err)
					}
				}
			}
		}()
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{Addr: addr, Handler: r}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}
