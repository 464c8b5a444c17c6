package main

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-insights-api/internal/handler"
	"github.com/noah-isme/sma-insights-api/internal/middleware"
	"github.com/noah-isme/sma-insights-api/internal/models"
	"github.com/noah-isme/sma-insights-api/pkg/config"
	"github.com/noah-isme/sma-insights-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/sma-insights-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/sma-insights-api/pkg/middleware/requestid"
)

type routeDeps struct {
	identity    middleware.TokenValidator
	metrics     middleware.HTTPObserver
	grades      *handler.GradesHandler
	reports     *handler.ReportHandler
	alerts      *handler.AlertHandler
	performance *handler.PerformanceHandler
	submissions *handler.SubmissionHandler
	system      *handler.MetricsHandler
}

func newRouter(cfg *config.Config, logr *zap.Logger, deps routeDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	if deps.metrics != nil {
		r.Use(middleware.Metrics(deps.metrics))
	}
	r.Use(middleware.WithResponseMeta())

	r.GET("/health", deps.system.Health)
	r.GET("/ready", deps.system.Ready)
	r.GET("/metrics", deps.system.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.JWT(deps.identity))

	anyRole := middleware.RequireRoles(models.RoleAdmin, models.RoleTeacher, models.RoleParent)
	staff := middleware.RequireRoles(models.RoleAdmin, models.RoleTeacher)

	students := api.Group("/students", anyRole)
	students.GET("/grades", deps.grades.List)
	students.GET("/:id/grades", deps.grades.Student)
	students.GET("/:id/progress", deps.grades.Progress)
	students.GET("/:id/report", deps.grades.Report)
	students.POST("/:id/report/archive", deps.reports.Archive)

	api.GET("/reports/download", anyRole, deps.reports.Download)

	api.GET("/alerts", anyRole, deps.alerts.List)
	api.POST("/alerts/dispatch", staff, deps.alerts.Dispatch)

	api.GET("/teachers/:id/performance", staff, deps.performance.Teacher)
	api.POST("/submissions/:id/grade", middleware.RequireRoles(models.RoleTeacher), deps.submissions.Grade)

	api.GET("/system/metrics", middleware.RequireRoles(models.RoleAdmin), deps.system.System)

	return r
}
