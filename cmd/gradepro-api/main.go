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
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/gradepro-api/api/swagger"
	"github.com/noah-isme/gradepro-api/internal/grading"
	"github.com/noah-isme/gradepro-api/internal/handler"
	"github.com/noah-isme/gradepro-api/internal/middleware"
	"github.com/noah-isme/gradepro-api/internal/repository"
	"github.com/noah-isme/gradepro-api/internal/service"
	"github.com/noah-isme/gradepro-api/pkg/cache"
	"github.com/noah-isme/gradepro-api/pkg/config"
	"github.com/noah-isme/gradepro-api/pkg/database"
	"github.com/noah-isme/gradepro-api/pkg/jobs"
	"github.com/noah-isme/gradepro-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/gradepro-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/gradepro-api/pkg/middleware/requestid"
	"github.com/noah-isme/gradepro-api/pkg/storage"
)

// @title GradePro API
// @version 1.0.0
// @description Grade target planning, achievability checks and required-marks prediction
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

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(context.Background(), cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer db.Close()

	var redisClient *redis.Client
	if cfg.Calculator.CacheEnabled {
		redisClient, err = cache.NewRedis(context.Background(), cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, calculator cache disabled", zap.Error(err))
		} else {
			defer redisClient.Close()
		}
	}

	history, err := service.LoadHistory(cfg.Calculator.HistoryFile, logr)
	if err != nil {
		logr.Fatal("failed to load historical table", zap.Error(err))
	}
	solver := grading.NewSolver(history)

	sessionStore, closeStore, err := newSessionStore(cfg, db)
	if err != nil {
		logr.Fatal("failed to open session store", zap.Error(err))
	}
	defer closeStore()

	validate := service.NewValidator()
	metricsSvc := service.NewMetricsService()
	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Calculator.CacheTTL, logr, redisClient != nil)

	studentRepo := repository.NewStudentRepository(db)
	authSvc := service.NewAuthService(studentRepo, service.NewBcryptVerifier(studentRepo), validate, logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            cfg.JWT.Issuer,
	})
	calculatorSvc := service.NewCalculatorService(solver, validate, cacheSvc, metricsSvc, logr, cfg.Calculator.CacheTTL)
	resetRequiredMarksCache(context.Background(), calculatorSvc, redisClient != nil, logr)
	adviceSvc := service.NewAdviceService(validate, logr)
	sessionSvc := service.NewSessionService(sessionStore, solver, metricsSvc, logr)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var exportHandler *handler.ExportJobHandler
	if cfg.Exports.Enabled {
		exportJobs, queue, err := newExportPipeline(ctx, cfg, db, sessionSvc, logr)
		if err != nil {
			logr.Fatal("failed to start export pipeline", zap.Error(err))
		}
		defer queue.Stop()
		exportHandler = handler.NewExportJobHandler(exportJobs)
	}

	deps := map[string]handler.Pinger{"postgres": db}
	if redisClient != nil {
		deps["redis"] = cache.Pinger{Client: redisClient}
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	if cfg.Metrics.Enabled {
		r.Use(middleware.Metrics(metricsSvc))
	}

	registerRoutes(r, cfg, routeHandlers{
		auth:       handler.NewAuthHandler(authSvc),
		calculator: handler.NewCalculatorHandler(calculatorSvc),
		advice:     handler.NewAdviceHandler(adviceSvc),
		sessions:   handler.NewSessionHandler(sessionSvc),
		exports:    exportHandler,
		metrics:    handler.NewMetricsHandler(metricsSvc, deps),
		jwt:        middleware.JWT(authSvc),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env), zap.String("session_store", cfg.Sessions.Store))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}

type cacheResetter interface {
	ResetCache(ctx context.Context) error
}

// resetRequiredMarksCache drops cached required-marks results so a restarted process never
// serves answers computed against a different historical table.
func resetRequiredMarksCache(ctx context.Context, calc cacheResetter, enabled bool, logr *zap.Logger) {
	if !enabled {
		return
	}
	if err := calc.ResetCache(ctx); err != nil {
		logr.Warn("failed to reset calculator cache", zap.Error(err))
	}
}

type routeHandlers struct {
	auth       *handler.AuthHandler
	calculator *handler.CalculatorHandler
	advice     *handler.AdviceHandler
	sessions   *handler.SessionHandler
	exports    *handler.ExportJobHandler
	metrics    *handler.MetricsHandler
	jwt        gin.HandlerFunc
}

func registerRoutes(r *gin.Engine, cfg *config.Config, h routeHandlers) {
	r.GET("/health", h.metrics.Health)
	r.GET("/ready", h.metrics.Ready)
	if cfg.Metrics.Enabled {
		r.GET("/metrics", h.metrics.Prometheus)
	}
	if cfg.Docs.Enabled && cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.WithResponseMeta())

	auth := api.Group("/auth")
	auth.POST("/signup", h.auth.Signup)
	auth.POST("/login", h.auth.Login)
	auth.GET("/me", h.jwt, h.auth.Me)

	calc := api.Group("/calculator")
	calc.GET("/grade-scale", h.calculator.GradeScale)
	calc.GET("/grade", h.calculator.Grade)
	calc.POST("/targets", h.calculator.DistributeTargets)
	calc.POST("/achievability", h.calculator.CheckAchievability)
	calc.POST("/required-marks", h.calculator.RequiredMarks)
	calc.POST("/required-marks/batch", h.calculator.RequiredMarksBatch)

	api.POST("/advice", h.advice.Generate)

	sessions := api.Group("/sessions", h.jwt)
	sessions.GET("/me", h.sessions.Get)
	sessions.PUT("/me", h.sessions.Put)
	sessions.DELETE("/me", h.sessions.Delete)
	sessions.GET("/me/export", h.sessions.Export)
	if h.exports != nil {
		sessions.POST("/me/exports", h.exports.Create)
		sessions.GET("/me/exports/:id", h.exports.Status)
		api.GET("/exports/download/:token", h.exports.Download)
	}

	api.GET("/metrics/summary", h.jwt, h.metrics.Summary)
}

func newSessionStore(cfg *config.Config, db *sqlx.DB) (service.SessionStore, func(), error) {
	if cfg.Sessions.Store != config.SessionStoreSQLite {
		return repository.NewSessionRepository(db), func() {}, nil
	}
	sqliteDB, err := database.NewSQLite(cfg.Sessions.SQLitePath)
	if err != nil {
		return nil, nil, err
	}
	store, err := repository.NewSQLiteSessionRepository(context.Background(), sqliteDB)
	if err != nil {
		_ = sqliteDB.Close()
		return nil, nil, err
	}
	return store, func() { _ = sqliteDB.Close() }, nil
}

// newExportPipeline wires storage, signing and the worker queue behind export jobs. The
// returned queue is already started.
func newExportPipeline(ctx context.Context, cfg *config.Config, db *sqlx.DB, sessions *service.SessionService, logr *zap.Logger) (*service.ExportJobService, *jobs.Queue, error) {
	files, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
	if err != nil {
		return nil, nil, err
	}
	signer := storage.NewSignedURLSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL)
	exporter := service.NewExportService(sessions, files, signer, service.ExportConfig{
		APIPrefix: cfg.APIPrefix,
		ResultTTL: cfg.Exports.SignedURLTTL,
	}, logr)

	repo := repository.NewExportJobRepository(db)
	worker := service.NewExportWorker(repo, exporter, cfg.Exports.WorkerRetries, logr)
	queue := jobs.NewQueue("session-exports", worker.Handle, jobs.QueueConfig{
		Workers:    cfg.Exports.WorkerConcurrency,
		MaxRetries: cfg.Exports.WorkerRetries,
		Logger:     logr,
	})
	queue.Start(ctx)

	svc := service.NewExportJobService(repo, sessions, queue, exporter, logr, service.ExportJobServiceConfig{
		ResultTTL:       cfg.Exports.SignedURLTTL,
		CleanupInterval: cfg.Exports.CleanupInterval,
	})
	svc.RecoverPendingJobs(ctx)
	svc.StartCleanup(ctx)
	return svc, queue, nil
}
