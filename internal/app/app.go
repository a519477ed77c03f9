package app

import (
	"coder_edu_progress/internal/config"
	"coder_edu_progress/internal/controller"
	"coder_edu_progress/internal/repository"
	"coder_edu_progress/internal/service"
	"coder_edu_progress/pkg/configwatcher"
	"coder_edu_progress/pkg/database"
	"coder_edu_progress/pkg/logger"
	"coder_edu_progress/pkg/monitoring"
	"coder_edu_progress/pkg/security"
	"coder_edu_progress/pkg/tracing"
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config          *config.Config
	Router          *gin.Engine
	DB              *gorm.DB
	Redis           *redis.Client
	dispatcher      *service.Dispatcher
	limiter         *security.Limiter
	tracer          *sdktrace.TracerProvider
	configCallbacks []func(*config.Config)
	stop            context.CancelFunc
	background      context.Context
}

type repositories struct {
	quiz         *repository.QuizRepository
	course       *repository.CourseRepository
	submission   *repository.ExerciseSubmissionRepository
	progress     *repository.ProgressRepository
	achievement  *repository.AchievementRepository
	certificate  *repository.CertificateRepository
	notification *repository.NotificationRepository
	aggregate    *repository.AggregateRepository
}

type services struct {
	notification *service.NotificationService
	achievement  *service.AchievementService
	certificate  *service.CertificateService
	learning     *service.LearningService
}

type controllers struct {
	learning    *controller.LearningController
	achievement *controller.AchievementController
	certificate *controller.CertificateController
	health      *controller.HealthController
}

func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.configCallbacks = append(a.configCallbacks, callback)
}

func (a *App) initRepositories(db *gorm.DB) *repositories {
	return &repositories{
		quiz:         repository.NewQuizRepository(db),
		course:       repository.NewCourseRepository(db),
		submission:   repository.NewExerciseSubmissionRepository(db),
		progress:     repository.NewProgressRepository(db),
		achievement:  repository.NewAchievementRepository(db),
		certificate:  repository.NewCertificateRepository(db),
		notification: repository.NewNotificationRepository(db),
		aggregate:    repository.NewAggregateRepository(db),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config, rdb *redis.Client) *services {
	s := &services{}

	s.notification = service.NewNotificationService(repos.notification, rdb, cfg.Engine.NotificationsChannel)
	s.achievement = service.NewAchievementService(repos.achievement, repos.aggregate, s.notification)
	s.certificate = service.NewCertificateService(
		repos.certificate,
		repos.course,
		repos.progress,
		repos.quiz,
		s.notification,
		cfg.Engine.CertificateMaxAttempts,
	)
	s.learning = service.NewLearningService(
		repos.quiz,
		repos.course,
		repos.submission,
		repos.progress,
		s.achievement,
		s.certificate,
		a.dispatcher,
	)

	return s
}

func (a *App) initControllers(s *services, db *gorm.DB, rdb *redis.Client) *controllers {
	return &controllers{
		learning:    controller.NewLearningController(s.learning),
		achievement: controller.NewAchievementController(s.achievement, s.notification),
		certificate: controller.NewCertificateController(s.certificate),
		health:      controller.NewHealthController(db, rdb),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS))
	router.Use(security.Secure())
	router.Use(a.limiter.Middleware())

	// 分布式追踪中间件
	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

// NewApp 初始化全部依赖。只迁移时返回的 App 不含路由。
func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)
	logger.Log.Info("Logger initialized successfully")

	db, err := database.InitDB(cfg)
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
		log.Fatalf("Failed to initialize database: %v", err)
	}

	if cfg.MigrateOnly {
		return &App{Config: cfg, DB: db}
	}

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		// 通知推送可降级为只落库
		logger.Log.Warn("Redis unavailable, notifications will only be stored", zap.Error(err))
		rdb = nil
	}

	// 监控初始化
	monitoring.Init()

	if cfg.Server.Mode != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	app := newApp(cfg, db, rdb)

	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracer("progress-engine", cfg.Tracing.CollectorEndpoint, cfg.Tracing.SampleRatio)
		if err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
		app.tracer = tp
	}

	app.RegisterConfigCallback(logger.ApplyConfig)
	app.startBackgroundTasks()

	return app
}

// newApp 组装仓储、服务、控制器和路由，不做任何外部连接
func newApp(cfg *config.Config, db *gorm.DB, rdb *redis.Client) *App {
	app := &App{Config: cfg, DB: db, Redis: rdb}
	app.background, app.stop = context.WithCancel(context.Background())
	app.dispatcher = service.NewDispatcher(cfg.Engine.Workers, cfg.Engine.QueueSize, cfg.Engine.JobTimeout())
	app.limiter = security.NewLimiter(cfg.RateLimit)

	repos := app.initRepositories(db)
	services := app.initServices(repos, cfg, rdb)
	controllers := app.initControllers(services, db, rdb)

	router := gin.New()
	router.Use(gin.Recovery())
	app.Router = router

	app.setupMiddlewares(router, cfg)
	app.registerRoutes(router, controllers)

	return app
}

func (a *App) startBackgroundTasks() {
	go a.limiter.Run(a.background)

	w, err := configwatcher.New(filepath.Join("configs", "config.yaml"), func(cfg *config.Config) {
		for _, cb := range a.configCallbacks {
			cb(cfg)
		}
	})
	if err != nil {
		logger.Log.Warn("Config hot reload disabled", zap.Error(err))
		return
	}
	go w.Run(a.background)
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:              ":" + a.Config.Server.Port,
		Handler:           a.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// 启动服务器
	go func() {
		logger.Log.Info("Server running", zap.String("port", a.Config.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Fatal("listen failed", zap.Error(err))
		}
	}()

	// 等待中断信号优雅地关闭服务器
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Error("Server forced to shutdown", zap.Error(err))
	}

	a.Close(ctx)
	logger.Log.Info("Server exiting")
}

// Close 先排空后台任务再释放连接
func (a *App) Close(ctx context.Context) {
	if a.stop != nil {
		a.stop()
	}
	if a.dispatcher != nil {
		if err := a.dispatcher.Close(ctx); err != nil {
			logger.Log.Warn("Background jobs did not finish before shutdown", zap.Error(err))
		}
	}
	if a.tracer != nil {
		if err := a.tracer.Shutdown(ctx); err != nil {
			logger.Log.Error("Failed to shutdown tracer provider", zap.Error(err))
		}
	}
	if a.Redis != nil {
		_ = a.Redis.Close()
	}
	if sqlDB, err := a.DB.DB(); err == nil {
		_ = sqlDB.Close()
	}
	_ = logger.Log.Sync()
}
