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
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	_ "github.com/noah-isme/sma-insights-api/api/swagger"
	"github.com/noah-isme/sma-insights-api/internal/handler"
	"github.com/noah-isme/sma-insights-api/internal/repository"
	"github.com/noah-isme/sma-insights-api/internal/service"
	"github.com/noah-isme/sma-insights-api/pkg/cache"
	"github.com/noah-isme/sma-insights-api/pkg/config"
	"github.com/noah-isme/sma-insights-api/pkg/database"
	"github.com/noah-isme/sma-insights-api/pkg/logger"
	"github.com/noah-isme/sma-insights-api/pkg/storage"
)

// @title SMA Insights API
// @version 1.0.0
// @description Academic aggregation, alerting and staff performance endpoints
// @BasePath /api/v1
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

const shutdownTimeout = 15 * time.Second

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

	db, err := database.NewPostgres(context.Background(), cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app := buildApp(ctx, cfg, db, logr)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           app.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Warn("http shutdown", zap.Error(err))
	}
	if err := app.notifications.Shutdown(shutdownCtx); err != nil {
		logr.Warn("notification queue shutdown", zap.Error(err))
	}
	if app.closeCache != nil {
		if err := app.closeCache(); err != nil {
			logr.Warn("redis close", zap.Error(err))
		}
	}
}

type application struct {
	router        *gin.Engine
	notifications *service.NotificationService
	closeCache    func() error
}

func buildApp(ctx context.Context, cfg *config.Config, db *sqlx.DB, logr *zap.Logger) *application {
	metrics := service.NewMetricsService()
	validate := validator.New()
	policy := service.PolicyFromConfig(cfg.Insights)

	var cacheRepo service.CacheRepository
	var closeCache func() error
	if cfg.Redis.Enabled {
		client, err := cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, insights cache disabled", zap.Error(err))
		} else {
			repo := repository.NewCacheRepository(client, "insights", logr)
			cacheRepo = repo
			closeCache = repo.Close
		}
	}
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Insights.CacheTTL, logr, cfg.Insights.CacheEnabled && cacheRepo != nil)

	students := repository.NewStudentRepository(db)
	groups := repository.NewGroupRepository(db)
	tasks := repository.NewTaskRepository(db)
	submissions := repository.NewSubmissionRepository(db)
	subjects := repository.NewSubjectRepository(db)
	attendance := repository.NewAttendanceRepository(db)
	performance := repository.NewPerformanceRepository(db)
	users := repository.NewUserRepository(db)

	notifications := service.NewNotificationService(cfg.Notifications, service.NewLogSink(logr), metrics, logr)
	notifications.Start(ctx)

	scoper := service.NewAccessScoper(students, groups, logr)
	loader := service.NewSnapshotLoader(students, tasks, submissions, subjects, metrics)
	gradesSvc := service.NewGradesService(scoper, loader, policy, logr)
	reportSvc := service.NewReportService(gradesSvc, metrics, logr)
	if store, err := storage.NewDiskStore(cfg.Reports.ArchiveDir); err != nil {
		logr.Warn("report archive disabled", zap.Error(err))
	} else {
		reportSvc.WithArchive(store, storage.NewLinkSigner(cfg.Reports.LinkSecret, cfg.Reports.LinkTTL), cfg.APIPrefix)
		reportSvc.StartSweeper(ctx, cfg.Reports.SweepInterval)
	}
	alertSvc := service.NewAlertService(scoper, loader, notifications, policy, metrics, logr)
	performanceSvc := service.NewPerformanceService(service.PerformanceServiceDeps{
		Users:       users,
		Groups:      groups,
		Submissions: submissions,
		Attendance:  attendance,
		Stored:      performance,
		Cache:       cacheSvc,
		CacheTTL:    cfg.Insights.CacheTTL,
		Metrics:     metrics,
		Logger:      logr,
	}, policy)
	submissionSvc := service.NewSubmissionService(submissions, tasks, notifications, cacheSvc, validate, logr)
	identity := service.NewIdentityService(cfg.JWT)

	router := newRouter(cfg, logr, routeDeps{
		identity:    identity,
		metrics:     metrics,
		grades:      handler.NewGradesHandler(gradesSvc, reportSvc),
		reports:     handler.NewReportHandler(reportSvc),
		alerts:      handler.NewAlertHandler(alertSvc),
		performance: handler.NewPerformanceHandler(performanceSvc),
		submissions: handler.NewSubmissionHandler(submissionSvc),
		system:      handler.NewMetricsHandler(metrics, db),
	})

	return &application{router: router, notifications: notifications, closeCache: closeCache}
}
