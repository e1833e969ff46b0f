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
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	_ "github.com/noah-isme/bagrut-dashboard-api/api/swagger"
	"github.com/noah-isme/bagrut-dashboard-api/internal/handler"
	"github.com/noah-isme/bagrut-dashboard-api/internal/repository"
	"github.com/noah-isme/bagrut-dashboard-api/internal/service"
	"github.com/noah-isme/bagrut-dashboard-api/pkg/cache"
	"github.com/noah-isme/bagrut-dashboard-api/pkg/config"
	"github.com/noah-isme/bagrut-dashboard-api/pkg/database"
	"github.com/noah-isme/bagrut-dashboard-api/pkg/export"
	"github.com/noah-isme/bagrut-dashboard-api/pkg/logger"
)

// @title Bagrut Dashboard API
// @version 1.0.0
// @description Matriculation eligibility tracking for school registrars
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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logr); err != nil {
		logr.Fatal("server failed", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, logr *zap.Logger) error {
	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer db.Close()

	var redisClient *redis.Client
	if cfg.Dashboard.CacheEnabled {
		redisClient, err = cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, dashboard cache disabled", zap.Error(err))
			redisClient = nil
		}
	}

	var metrics *service.MetricsService
	if cfg.Metrics.Enabled {
		metrics = service.NewMetricsService()
	}

	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	defer cacheRepo.Close() //nolint:errcheck
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Dashboard.CacheTTL, logr, redisClient != nil)

	students := repository.NewStudentRepository(db)
	users := repository.NewUserRepository(db)
	validate := validator.New()

	authSvc := service.NewAuthService(users, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             cfg.JWT.Issuer,
	})
	studentSvc := service.NewStudentService(students, cacheSvc, metrics, validate, logr)
	importSvc := service.NewImportService(students, cacheSvc, metrics, logr, cfg.Import.MaxFileSizeBytes)
	dashboardSvc := service.NewDashboardService(students, cacheSvc, logr, service.DashboardServiceConfig{CacheTTL: cfg.Dashboard.CacheTTL})
	exportSvc := service.NewExportService(students, export.NewCSVExporter(true), export.NewPDFExporter(cfg.Export.PDFFontPath), metrics, logr)

	router := newRouter(routerDeps{
		APIPrefix:      cfg.APIPrefix,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		EnableDocs:     cfg.Env != config.EnvProduction,
		EnableMetrics:  cfg.Metrics.Enabled,
		Logger:         logr,
		Metrics:        metrics,
		Tokens:         authSvc,
		Audit:          users,
		Auth:           handler.NewAuthHandler(authSvc),
		Students:       handler.NewStudentHandler(studentSvc),
		Imports:        handler.NewImportHandler(importSvc, cfg.Import.MaxFileSizeBytes),
		Exports:        handler.NewExportHandler(exportSvc),
		Dashboard:      handler.NewDashboardHandler(dashboardSvc),
		System:         handler.NewMetricsHandler(metrics, db),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
