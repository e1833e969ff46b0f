package main

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/bagrut-dashboard-api/internal/handler"
	"github.com/noah-isme/bagrut-dashboard-api/internal/middleware"
	"github.com/noah-isme/bagrut-dashboard-api/internal/models"
	"github.com/noah-isme/bagrut-dashboard-api/internal/service"
	"github.com/noah-isme/bagrut-dashboard-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/bagrut-dashboard-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/bagrut-dashboard-api/pkg/middleware/requestid"
)

type routerDeps struct {
	APIPrefix      string
	AllowedOrigins []string
	EnableDocs     bool
	EnableMetrics  bool

	Logger  *zap.Logger
	Metrics *service.MetricsService
	Tokens  middleware.TokenValidator
	Audit   middleware.AuditWriter

	Auth      *handler.AuthHandler
	Students  *handler.StudentHandler
	Imports   *handler.ImportHandler
	Exports   *handler.ExportHandler
	Dashboard *handler.DashboardHandler
	System    *handler.MetricsHandler
}

func newRouter(d routerDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(d.Logger, "/health", "/metrics"))
	r.Use(corsmiddleware.New(d.AllowedOrigins))
	if d.EnableMetrics && d.Metrics != nil {
		r.Use(middleware.Metrics(d.Metrics, "/metrics"))
		r.GET("/metrics", d.System.Prometheus)
	}

	r.GET("/health", d.System.Health)
	r.GET("/ready", d.System.Ready)

	if d.EnableDocs {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(d.APIPrefix)
	api.Use(middleware.WithResponseMeta())

	auth := api.Group("/auth")
	auth.POST("/login", d.Auth.Login)
	auth.POST("/refresh", d.Auth.Refresh)

	secured := api.Group("")
	secured.Use(middleware.JWT(d.Tokens))
	secured.POST("/auth/logout", d.Auth.Logout)
	secured.GET("/auth/me", d.Auth.Me)

	secured.GET("/students", d.Students.List)
	secured.GET("/students/export", d.Exports.Export)
	secured.GET("/students/:id", d.Students.Get)
	secured.GET("/dashboard", d.Dashboard.Summary)
	secured.GET("/dashboard/mapping", d.Dashboard.Mapping)

	admin := secured.Group("")
	admin.Use(middleware.RequireRoles(models.RoleAdmin))
	admin.POST("/students", audited(d, models.AuditActionStudentCreate, "student"), d.Students.Create)
	admin.POST("/students/import", audited(d, models.AuditActionStudentImport, "student"), d.Imports.Import)
	admin.PUT("/students/:id", audited(d, models.AuditActionStudentUpdate, "student"), d.Students.Update)
	admin.DELETE("/students/:id", audited(d, models.AuditActionStudentDelete, "student"), d.Students.Delete)
	admin.GET("/system/metrics", d.System.Summary)

	return r
}

func audited(d routerDeps, action, resource string) gin.HandlerFunc {
	return middleware.Audit(d.Audit, d.Logger, action, resource)
}
