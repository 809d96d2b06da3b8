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
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/lingua-crm-api/api/swagger"
	"github.com/noah-isme/lingua-crm-api/internal/handler"
	"github.com/noah-isme/lingua-crm-api/internal/middleware"
	"github.com/noah-isme/lingua-crm-api/internal/repository"
	"github.com/noah-isme/lingua-crm-api/internal/repository/memory"
	"github.com/noah-isme/lingua-crm-api/internal/service"
	"github.com/noah-isme/lingua-crm-api/pkg/cache"
	"github.com/noah-isme/lingua-crm-api/pkg/config"
	"github.com/noah-isme/lingua-crm-api/pkg/database"
	"github.com/noah-isme/lingua-crm-api/pkg/events"
	"github.com/noah-isme/lingua-crm-api/pkg/export"
	"github.com/noah-isme/lingua-crm-api/pkg/jobs"
	"github.com/noah-isme/lingua-crm-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/lingua-crm-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/lingua-crm-api/pkg/middleware/requestid"
	"github.com/noah-isme/lingua-crm-api/pkg/storage"
)

// @title Lingua CRM API
// @version 1.0.0
// @description Prospects, students, classes, tasks and finances for a language-services office.
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

const (
	eventHeartbeat  = 20 * time.Second
	shutdownTimeout = 10 * time.Second
	cacheNamespace  = "lingua"
)

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

	redisClient, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	repos, db, err := openStore(ctx, cfg, redisClient, logr)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
	}

	bus := events.NewBus(logr)
	var publisher events.Publisher = bus
	if cfg.Events.FanoutEnabled && redisClient != nil {
		fanout := events.NewRedisFanout(redisClient, cfg.Events.RedisChannel, bus, logr)
		if err := fanout.Start(ctx); err != nil {
			return fmt.Errorf("start event fanout: %w", err)
		}
		publisher = fanout
		logr.Info("event fanout enabled", zap.String("channel", cfg.Events.RedisChannel))
	}

	metrics := service.NewMetricsService()

	var cacheRepo service.CacheRepository
	if redisClient != nil {
		cacheRepo = repository.NewCacheRepository(redisClient, cacheNamespace, logr)
	}
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Dashboard.CacheTTL, logr, cfg.Dashboard.CacheEnabled && cacheRepo != nil)

	students := service.NewStudentService(repos.Students, repos.Sequences, nil, publisher, metrics, nil, logr)
	prospects := service.NewProspectService(repos.Prospects, students, nil, publisher, metrics, nil, logr)
	clients := service.NewClientService(repos.Prospects, repos.Students)
	classes := service.NewClassService(repos.Classes, repos.Students, nil, publisher, metrics, nil, logr)
	enrollments := service.NewEnrollmentService(repos.Students, repos.Classes, nil, publisher, metrics, logr)
	tasks := service.NewTaskService(repos.FollowUps, repos.Communications, repos.Prospects, nil, publisher, metrics, nil, logr)
	finance := service.NewFinanceService(repos.Payments, repos.Expenditures, clients, nil, publisher, metrics, nil, logr)

	dashboard := service.NewDashboardService(service.DashboardServiceParams{
		Prospects:      repos.Prospects,
		Students:       repos.Students,
		Payments:       repos.Payments,
		Expenditures:   repos.Expenditures,
		FollowUps:      repos.FollowUps,
		Communications: repos.Communications,
		Cache:          cacheSvc,
		Logger:         logr,
		Config: service.DashboardServiceConfig{
			CacheTTL:  cfg.Dashboard.CacheTTL,
			TaskLimit: cfg.Dashboard.FeedLimit,
		},
	})
	defer dashboard.InvalidateOnChange(bus)()

	h := handler.Handlers{
		Prospects:   handler.NewProspectHandler(prospects),
		Clients:     handler.NewClientHandler(clients, finance),
		Students:    handler.NewStudentHandler(students),
		Classes:     handler.NewClassHandler(classes),
		Enrollments: handler.NewEnrollmentHandler(enrollments),
		Tasks:       handler.NewTaskHandler(tasks),
		Finance:     handler.NewFinanceHandler(finance),
		Dashboard:   handler.NewDashboardHandler(dashboard),
		Events:      handler.NewEventHandler(bus, eventHeartbeat, logr),
		Metrics:     handler.NewMetricsHandler(metrics, readinessChecks(db, redisClient)),
	}

	if cfg.Reports.Enabled {
		queue, reports, err := startReports(ctx, cfg, repos, publisher, metrics, logr)
		if err != nil {
			return err
		}
		defer queue.Stop()
		h.Reports = handler.NewReportHandler(reports, logr)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))

	r.GET("/health", h.Metrics.Health)
	r.GET("/ready", h.Metrics.Ready)
	if cfg.Metrics.Enabled {
		r.GET("/metrics", h.Metrics.Prometheus)
	}
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	auth := middleware.JWT(middleware.NewTokenVerifier(cfg.JWT.Secret, cfg.JWT.Issuer))
	handler.RegisterRoutes(r.Group(cfg.APIPrefix), h, auth)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logr.Info("server starting",
			zap.String("addr", srv.Addr),
			zap.String("env", cfg.Env),
			zap.String("store", cfg.Store.Driver),
		)
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
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// openStore selects the persistence driver. The returned db is nil for the
// memory driver.
func openStore(ctx context.Context, cfg *config.Config, redisClient *redis.Client, logr *zap.Logger) (repository.Store, *sqlx.DB, error) {
	var (
		repos repository.Store
		db    *sqlx.DB
	)
	switch cfg.Store.Driver {
	case config.StorePostgres:
		conn, err := database.NewPostgres(ctx, cfg.Database)
		if err != nil {
			return repository.Store{}, nil, err
		}
		db = conn
		repos = repository.NewPostgresStore(db)
	default:
		repos = memory.New().Repositories()
		logr.Warn("using in-memory store; data is lost on restart")
	}

	if cfg.Store.SequenceDriver == config.SequenceRedis {
		if redisClient == nil {
			return repository.Store{}, nil, errors.New("redis sequence driver requires redis to be enabled")
		}
		repos.Sequences = repository.NewRedisSequence(redisClient, cacheNamespace)
	}
	return repos, db, nil
}

func startReports(ctx context.Context, cfg *config.Config, repos repository.Store, publisher events.Publisher, metrics *service.MetricsService, logr *zap.Logger) (*jobs.Queue, *service.ReportService, error) {
	files, err := storage.NewLocalStorage(cfg.Reports.StorageDir)
	if err != nil {
		return nil, nil, fmt.Errorf("init report storage: %w", err)
	}
	exporter := service.NewExportService(service.ExportDeps{
		Payments:     repos.Payments,
		Expenditures: repos.Expenditures,
		Prospects:    repos.Prospects,
		Storage:      files,
		Signer:       storage.NewSignedURLSigner(cfg.Reports.SignedURLSecret, cfg.Reports.SignedURLTTL),
		CSV:          export.NewCSVExporter(),
		PDF:          export.NewPDFExporter("Lingua CRM"),
	}, service.ExportConfig{
		APIPrefix: cfg.APIPrefix,
		ResultTTL: cfg.Reports.SignedURLTTL,
	}, logr)

	worker := service.NewReportWorker(repos.ReportJobs, exporter, publisher, metrics, cfg.Reports.WorkerRetries, logr)
	queue := jobs.NewQueue("reports", jobs.QueueConfig{
		Workers:    cfg.Reports.WorkerConcurrency,
		MaxRetries: cfg.Reports.WorkerRetries,
		RetryDelay: 2 * time.Second,
		Logger:     logr,
	})
	reports := service.NewReportService(repos.ReportJobs, queue, exporter, nil, metrics, logr, service.ReportServiceConfig{
		ResultTTL:       cfg.Reports.SignedURLTTL,
		CleanupInterval: time.Hour,
	})
	queue.Handle(jobs.KindReportExport, worker.Handle)
	queue.Handle(jobs.KindExportSweep, reports.Sweep)
	queue.Start(ctx)

	reports.RecoverPendingJobs(ctx)
	reports.StartCleanup(ctx)
	return queue, reports, nil
}

func readinessChecks(db *sqlx.DB, redisClient *redis.Client) map[string]handler.ReadinessCheck {
	checks := map[string]handler.ReadinessCheck{}
	if db != nil {
		checks["database"] = db.PingContext
	}
	if redisClient != nil {
		checks["redis"] = func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}
	}
	return checks
}
