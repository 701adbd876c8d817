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
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/godolist/godo-api/api/swagger"
	"github.com/godolist/godo-api/internal/handler"
	"github.com/godolist/godo-api/internal/middleware"
	"github.com/godolist/godo-api/internal/repository"
	"github.com/godolist/godo-api/internal/service"
	"github.com/godolist/godo-api/pkg/cache"
	"github.com/godolist/godo-api/pkg/config"
	"github.com/godolist/godo-api/pkg/database"
	"github.com/godolist/godo-api/pkg/logger"
	corsmiddleware "github.com/godolist/godo-api/pkg/middleware/cors"
	reqidmiddleware "github.com/godolist/godo-api/pkg/middleware/requestid"
	"github.com/godolist/godo-api/pkg/scheduler"
)

// @title GoDo API
// @version 1.0.0
// @description TODO list backend with JWT session tracking
// @BasePath /api/v1
// @schemes http

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

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
	defer db.Close() //nolint:errcheck

	validate := validator.New()
	metrics := service.NewMetricsService()

	userRepo := repository.NewUserRepository(db)
	sessionRepo := repository.NewSessionRepository(db, logr)
	taskRepo := repository.NewTaskRepository(db)

	authSvc := service.NewAuthService(userRepo, sessionRepo, validate, logr, metrics, service.AuthConfig{
		Secret:     cfg.JWT.Secret,
		Expiration: cfg.JWT.Expiration,
	})
	userSvc := service.NewUserService(userRepo, sessionRepo, validate, logr)
	taskSvc := service.NewTaskService(taskRepo, validate, logr)
	cleanupSvc := service.NewSessionCleanupService(sessionRepo, logr, metrics, cfg.Session.RetentionWindow)

	authHandler := handler.NewAuthHandler(authSvc, cleanupSvc)
	userHandler := handler.NewUserHandler(userSvc)
	taskHandler := handler.NewTaskHandler(taskSvc)
	metricsHandler := handler.NewMetricsHandler(metrics)

	loginGuard := gin.HandlerFunc(func(c *gin.Context) { c.Next() })
	if cfg.RateLimit.Enabled && cfg.Redis.Enabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Fatalw("failed to connect to redis", "error", err)
		}
		defer redisClient.Close() //nolint:errcheck
		loginGuard = middleware.LoginRateLimit(redisClient, cfg.RateLimit.MaxAttempts, cfg.RateLimit.Window, logr)
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

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	// Routes below carry no caller identity; everything else goes through
	// the JWT guard.
	api.POST("/auth/register", authHandler.Register)
	api.POST("/auth/login", loginGuard, authHandler.Login)
	api.GET("/tasks", taskHandler.ListAll)

	auth := api.Group("", middleware.JWT(authSvc, logr))
	{
		auth.POST("/auth/logout", authHandler.Logout)
		auth.GET("/auth/me", authHandler.Me)
		auth.POST("/auth/sessions/cleanup", authHandler.CleanupSessions)

		auth.GET("/users", userHandler.List)
		auth.GET("/users/by-email", userHandler.GetByEmail)
		auth.GET("/users/:id", userHandler.Get)
		auth.PATCH("/users/:id", userHandler.Update)
		auth.DELETE("/users/:id", userHandler.Delete)

		auth.GET("/tasks/todo/list", taskHandler.ListMine)
		auth.GET("/tasks/todo/list/:id", taskHandler.Get)
		auth.POST("/tasks/todo/create", taskHandler.Create)
		auth.PATCH("/tasks/todo/update/:id", taskHandler.Update)
		auth.DELETE("/tasks/todo/list/:id", taskHandler.Delete)
		auth.GET("/tasks/todo/export", taskHandler.Export)
	}

	sched := scheduler.New(logr)
	sched.Every(cfg.Session.CleanupInterval, "session-cleanup", cleanupSvc.Run)
	sched.Start(ctx)
	defer sched.Stop()

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

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("server shutdown failed", "error", err)
	}
	logr.Sugar().Infow("server stopped")
}
