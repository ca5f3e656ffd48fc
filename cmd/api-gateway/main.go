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
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/academic-records-api/api/swagger"
	"github.com/noah-isme/academic-records-api/internal/handler"
	"github.com/noah-isme/academic-records-api/internal/middleware"
	"github.com/noah-isme/academic-records-api/internal/models"
	"github.com/noah-isme/academic-records-api/internal/reportsource"
	"github.com/noah-isme/academic-records-api/internal/repository"
	"github.com/noah-isme/academic-records-api/internal/service"
	"github.com/noah-isme/academic-records-api/pkg/cache"
	"github.com/noah-isme/academic-records-api/pkg/config"
	"github.com/noah-isme/academic-records-api/pkg/database"
	"github.com/noah-isme/academic-records-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/academic-records-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/academic-records-api/pkg/middleware/requestid"
	"github.com/noah-isme/academic-records-api/pkg/observability"
	"github.com/noah-isme/academic-records-api/pkg/storage"
)

// @title Academic Records API
// @version 1.0.0
// @description Grade ingestion, curriculum classification, student progress and cohort completion reports.
// @BasePath /api/v1
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

	flush, err := observability.InitSentry(cfg.Sentry.DSN, cfg.Env, cfg.Release)
	if err != nil {
		logr.Warn("sentry disabled", zap.Error(err))
	}
	defer flush()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect database", zap.Error(err))
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(ctx, db.DB); err != nil {
			logr.Fatal("failed to apply migrations", zap.Error(err))
		}
	}

	var redisClient *redis.Client
	if cfg.Reports.CacheEnabled {
		redisClient, err = cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, report caching disabled", zap.Error(err))
			redisClient = nil
		}
	}

	metrics := service.NewMetricsService()
	app := buildApp(cfg, logr, db, redisClient, metrics)
	if app.archive != nil {
		app.archive.StartCleanup(ctx)
	}

	if err := app.reconcile.Start(ctx); err != nil {
		logr.Fatal("failed to start reconciliation", zap.Error(err))
	}

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           newRouter(cfg, logr, app),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Error("server failed", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
	app.reconcile.Stop()
	if redisClient != nil {
		_ = redisClient.Close()
	}
}

type application struct {
	metrics    *service.MetricsService
	audit      *repository.AuditRepository
	auth       *service.AuthService
	enrollment *handler.EnrollmentHandler
	students   *handler.StudentHandler
	courses    *handler.CourseHandler
	cohort     *handler.CohortHandler
	health     *handler.MetricsHandler
	reconcile  *service.ReconcileService
	archive    *service.ArchiveService
}

func buildApp(cfg *config.Config, logr *zap.Logger, db *sqlx.DB, redisClient *redis.Client, metrics *service.MetricsService) *application {
	courseRepo := repository.NewCourseRepository(db)
	curriculumRepo := repository.NewCurriculumRepository(db)
	instructorRepo := repository.NewInstructorRepository(db)
	classRepo := repository.NewClassRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	var cacheRepo service.CacheRepository
	if redisClient != nil {
		cacheRepo = repository.NewCacheRepository(redisClient, logr)
	}
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Reports.CacheTTL, logr, redisClient != nil)

	source := reportsource.NewSource(
		reportsource.NewFetcher(reportsource.FetcherConfig{Timeout: cfg.Ingestion.FetchTimeout, MaxBytes: cfg.Ingestion.MaxDocumentBytes}),
		reportsource.NewParser(cfg.Ingestion.StudentIDPrefix),
	)

	var archiveSvc *service.ArchiveService
	deps := service.IngestionDeps{}
	if cfg.Ingestion.ArchiveDir != "" {
		store, err := storage.NewLocalStorage(cfg.Ingestion.ArchiveDir)
		if err != nil {
			logr.Warn("document archive disabled", zap.Error(err))
		} else {
			archiveSvc = service.NewArchiveService(store, service.ArchiveConfig{Retention: cfg.Ingestion.ArchiveRetention}, logr)
			deps.Archive = archiveSvc
		}
	}

	progressSvc := service.NewProgressService(studentRepo, metrics, logr)
	deps.Tx = db
	deps.Classes = classRepo
	deps.Courses = courseRepo
	deps.Instructors = instructorRepo
	deps.Curricula = curriculumRepo
	deps.Students = studentRepo
	deps.Enrollments = enrollmentRepo
	deps.Progress = progressSvc
	deps.Reports = source
	deps.Cache = cacheSvc
	deps.Metrics = metrics
	ingestionSvc := service.NewIngestionService(deps, validator.New(), logr)
	cohortSvc := service.NewCohortService(courseRepo, enrollmentRepo, studentRepo, curriculumRepo, cacheSvc, nil, logr, service.CohortConfig{
		PrimaryProgram: cfg.Reports.PrimaryProgram,
		CacheTTL:       cfg.Reports.CacheTTL,
	})
	courseSvc := service.NewCourseService(courseRepo, curriculumRepo)
	reconcileSvc := service.NewReconcileService(studentRepo, ingestionSvc, metrics, logr, service.ReconcileConfig{
		Schedule: cfg.Reconcile.Schedule,
		Workers:  cfg.Reconcile.Workers,
		Retries:  cfg.Reconcile.Retries,
	})

	checks := map[string]handler.Pinger{"postgres": db}
	if redisClient != nil {
		checks["redis"] = handler.PingFunc(func(ctx context.Context) error { return redisClient.Ping(ctx).Err() })
	}

	return &application{
		metrics:    metrics,
		audit:      auditRepo,
		auth:       service.NewAuthService(logr, service.AuthConfig{AccessTokenSecret: cfg.JWT.Secret, Issuer: cfg.JWT.Issuer}),
		enrollment: handler.NewEnrollmentHandler(ingestionSvc),
		students:   handler.NewStudentHandler(progressSvc, reconcileSvc),
		courses:    handler.NewCourseHandler(courseSvc),
		cohort:     handler.NewCohortHandler(cohortSvc),
		health:     handler.NewMetricsHandler(metrics, checks),
		reconcile:  reconcileSvc,
		archive:    archiveSvc,
	}
}

func newRouter(cfg *config.Config, logr *zap.Logger, app *application) *gin.Engine {
	r := gin.New()
	r.Use(observability.Recovery(logr))
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(app.metrics))

	r.GET("/health", app.health.Health)
	r.GET("/ready", app.health.Ready)
	r.GET("/metrics", app.health.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.JWT(app.auth))

	mutate := middleware.RequireRoles(models.GradeMutationRoles...)
	staff := []string{string(models.RoleAdmin), string(models.RoleCoordinator), string(models.RoleProgramDirector), string(models.RoleLecturer)}
	audit := func(action, resource, param string) gin.HandlerFunc {
		return middleware.Audit(app.audit, logr, action, resource, param)
	}

	enrollments := api.Group("/enrollments", mutate)
	enrollments.POST("", audit(models.AuditActionGradeUpload, "enrollment", ""), app.enrollment.Upload)
	enrollments.POST("/import", audit(models.AuditActionGradeImport, "enrollment", ""), app.enrollment.Import)
	enrollments.PATCH("/:id", audit(models.AuditActionGradeCorrect, "enrollment", "id"), app.enrollment.Correct)

	students := api.Group("/students")
	students.GET("/:sid/progress", middleware.RBAC(append(staff, middleware.SelfSID)...), app.students.Progress)
	students.POST("/:sid/recalculate", mutate, audit(models.AuditActionRecalculate, "student", "sid"), app.enrollment.Recalculate)
	students.POST("/recalculate", middleware.RequireRoles(models.RoleAdmin), audit(models.AuditActionRecalculate, "student", ""), app.students.ReconcileAll)
	students.GET("/recalculate/:jobId", middleware.RequireRoles(models.RoleAdmin), app.students.ReconcileStatus)

	courses := api.Group("/courses")
	courses.GET("", app.courses.List)
	courses.GET("/:code", app.courses.Get)

	reports := api.Group("/reports")
	reports.GET("/cohort", app.cohort.CourseOverall)
	reports.GET("/cohort/:courseCode", app.cohort.CountStudents)
	reports.GET("/cohort/:courseCode/export", app.cohort.Export)

	return r
}
