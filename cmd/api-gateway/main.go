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
	"github.com/jmoiron/sqlx"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/course-registration-api/api/swagger"
	"github.com/noah-isme/course-registration-api/internal/handler"
	internalmiddleware "github.com/noah-isme/course-registration-api/internal/middleware"
	"github.com/noah-isme/course-registration-api/internal/repository"
	"github.com/noah-isme/course-registration-api/internal/service"
	"github.com/noah-isme/course-registration-api/pkg/cache"
	"github.com/noah-isme/course-registration-api/pkg/config"
	"github.com/noah-isme/course-registration-api/pkg/database"
	"github.com/noah-isme/course-registration-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/course-registration-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/course-registration-api/pkg/middleware/requestid"
)

// @title Course Registration API
// @version 1.0.0
// @description Course administration, student enrollment and waiting lists
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
		logr.Fatal("database unavailable", zap.Error(err))
	}
	defer db.Close()

	metrics := service.NewMetricsService()
	cacheSvc, closeCache := newCacheService(cfg, metrics, logr)
	defer closeCache()

	courseSvc := service.NewCourseService(service.CourseServiceParams{
		Courses:       repository.NewCourseRepository(db),
		Templates:     repository.NewCourseTemplateRepository(db),
		Students:      repository.NewStudentRepository(db),
		Registrations: repository.NewRegistrationRepository(db),
		WaitingList:   repository.NewWaitingListRepository(db),
		Cache:         cacheSvc,
		Metrics:       metrics,
		Validator:     validator.New(),
		Logger:        logr.Named("courses"),
		Config: service.CourseServiceConfig{
			DefaultSemester:          cfg.Courses.DefaultSemester,
			PurgeWaitingListOnDelete: cfg.Courses.PurgeWaitingListOnDelete,
			CacheTTL:                 cfg.Courses.CacheTTL,
		},
	})
	rosterSvc := service.NewRosterExportService(courseSvc, cfg.Exports.RosterEnabled, logr.Named("rosters"))

	r := newRouter(cfg, logr, db, metrics, handler.NewCourseHandler(courseSvc, rosterSvc))

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

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
	logr.Info("server stopped")
}

type closableCache interface {
	service.CacheRepository
	Close() error
}

func newCacheService(cfg *config.Config, metrics *service.MetricsService, logr *zap.Logger) (*service.CacheService, func()) {
	if !cfg.Courses.CacheEnabled {
		return nil, func() {}
	}

	var repo closableCache
	if cfg.Courses.CacheBackend == config.CacheBackendRedis {
		client, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, falling back to in-memory course cache", zap.String("addr", cache.Addr(cfg.Redis)), zap.Error(err))
		} else {
			repo = repository.NewCacheRepository(client, logr.Named("cache"))
		}
	}
	if repo == nil {
		repo = repository.NewMemoryCacheRepository(cfg.Courses.CacheTTL)
	}

	closeFn := func() {
		if err := repo.Close(); err != nil {
			logr.Warn("cache close failed", zap.Error(err))
		}
	}
	return service.NewCacheService(repo, metrics, cfg.Courses.CacheTTL, logr.Named("cache"), true), closeFn
}

func newRouter(cfg *config.Config, logr *zap.Logger, db *sqlx.DB, metrics *service.MetricsService, courses *handler.CourseHandler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metrics))

	handler.NewMetricsHandler(metrics, db).RegisterRoutes(r)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	courses.RegisterRoutes(r.Group(cfg.APIPrefix))
	return r
}
