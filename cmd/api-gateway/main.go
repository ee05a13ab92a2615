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
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/contact-console/api/swagger"
	"github.com/noah-isme/contact-console/internal/handler"
	"github.com/noah-isme/contact-console/internal/middleware"
	"github.com/noah-isme/contact-console/internal/repository"
	"github.com/noah-isme/contact-console/internal/service"
	"github.com/noah-isme/contact-console/pkg/cache"
	"github.com/noah-isme/contact-console/pkg/config"
	"github.com/noah-isme/contact-console/pkg/database"
	"github.com/noah-isme/contact-console/pkg/logger"
	corsmiddleware "github.com/noah-isme/contact-console/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/contact-console/pkg/middleware/requestid"
)

// @title Contact Console API
// @version 1.0.0
// @description Lead intake and administrator pipeline
// @BasePath /api
// @schemes http https
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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Fatal("database unavailable", zap.Error(err))
	}
	defer db.Close()

	if err := database.Migrate(ctx, db); err != nil {
		logr.Fatal("schema migration failed", zap.Error(err))
	}

	var redisClient *redis.Client
	if cfg.Contacts.StatsCacheEnabled {
		redisClient, err = cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, stats cache disabled", zap.Error(err))
			redisClient = nil
		}
	}

	metrics := service.NewMetricsService()
	validate := validator.New()

	cacheRepo := repository.NewCacheRepository(redisClient, logr, "contact-console")
	defer cacheRepo.Close() //nolint:errcheck
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Contacts.StatsCacheTTL, logr, redisClient != nil)

	authSvc := service.NewAuthService(repository.NewAdminRepository(db), validate, metrics, logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            cfg.JWT.Issuer,
	})
	contactSvc := service.NewContactService(repository.NewContactRepository(db), cacheSvc, metrics, validate, logr, service.ContactServiceConfig{
		MaxPageSize:   cfg.Contacts.MaxPageSize,
		StatsCacheTTL: cfg.Contacts.StatsCacheTTL,
	})

	if _, err := authSvc.EnsureBootstrapAdmin(ctx, cfg.Bootstrap.AdminEmail, cfg.Bootstrap.AdminPassword, cfg.Bootstrap.AdminName); err != nil {
		logr.Error("bootstrap admin failed", zap.Error(err))
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

	metricsHandler := handler.NewMetricsHandler(metrics)
	r.GET("/health", metricsHandler.Health)
	r.GET("/metrics", metricsHandler.Prometheus)

	handler.RegisterRoutes(r.Group(cfg.APIPrefix), handler.Routes{
		Contacts:      handler.NewContactHandler(contactSvc),
		Auth:          handler.NewAuthHandler(authSvc),
		Metrics:       metricsHandler,
		AuthService:   authSvc,
		SubmitLimiter: middleware.NewIPRateLimiter(cfg.Contacts.SubmitRatePerMinute, cfg.Contacts.SubmitBurst),
		Logger:        logr,
	})

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env, "prefix", cfg.APIPrefix)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
	logr.Info("server stopped")
}
