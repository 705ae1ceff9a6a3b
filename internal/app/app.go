package app

import (
	"certilearn_backend/internal/config"
	"certilearn_backend/internal/controller"
	"certilearn_backend/internal/repository"
	"certilearn_backend/internal/service"
	"certilearn_backend/pkg/database"
	"certilearn_backend/pkg/logger"
	"certilearn_backend/pkg/monitoring"
	"certilearn_backend/pkg/security"
	"certilearn_backend/pkg/tracing"
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config        *config.Config
	Router        *gin.Engine
	DB            *gorm.DB
	Redis         *redis.Client
	services      *services
	shutdownHooks []func()
}

type repositories struct {
	user        *repository.UserRepository
	course      *repository.CourseRepository
	enrollment  *repository.EnrollmentRepository
	payment     *repository.PaymentRepository
	quiz        *repository.QuizRepository
	certificate *repository.CertificateRepository
}

type services struct {
	auth        *service.AuthService
	user        *service.UserService
	storage     *service.StorageService
	course      *service.CourseService
	enrollment  *service.EnrollmentService
	payment     *service.PaymentService
	quiz        *service.QuizService
	quizSession *service.QuizSessionService
	certificate *service.CertificateService
}

type controllers struct {
	auth        *controller.AuthController
	course      *controller.CourseController
	enrollment  *controller.EnrollmentController
	quiz        *controller.QuizController
	payment     *controller.PaymentController
	certificate *controller.CertificateController
	admin       *controller.AdminController
	health      *controller.HealthController
}

func (a *App) initRepositories(db *gorm.DB) *repositories {
	return &repositories{
		user:        repository.NewUserRepository(db),
		course:      repository.NewCourseRepository(db),
		enrollment:  repository.NewEnrollmentRepository(db),
		payment:     repository.NewPaymentRepository(db),
		quiz:        repository.NewQuizRepository(db),
		certificate: repository.NewCertificateRepository(db),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config, rdb *redis.Client) *services {
	s := &services{}

	s.storage = service.NewStorageService(cfg)
	s.auth = service.NewAuthService(repos.user, cfg)
	s.user = service.NewUserService(repos.user)
	s.enrollment = service.NewEnrollmentService(repos.enrollment, repos.course)
	s.certificate = service.NewCertificateService(repos.certificate, repos.enrollment, repos.course)
	s.payment = service.NewPaymentService(repos.payment, repos.enrollment, repos.course, s.storage, s.certificate)
	s.quiz = service.NewQuizService(repos.quiz, repos.enrollment, repos.course, s.enrollment, rdb, cfg)
	s.course = service.NewCourseService(repos.course, repos.quiz, s.quiz)

	s.quizSession = service.NewQuizSessionService(s.quiz, cfg)
	s.quizSession.StartSweeper()

	return s
}

func (a *App) initControllers(s *services, db *gorm.DB) *controllers {
	return &controllers{
		auth:        controller.NewAuthController(s.auth),
		course:      controller.NewCourseController(s.course),
		enrollment:  controller.NewEnrollmentController(s.enrollment),
		quiz:        controller.NewQuizController(s.quiz, s.quizSession),
		payment:     controller.NewPaymentController(s.payment),
		certificate: controller.NewCertificateController(s.certificate),
		admin:       controller.NewAdminController(s.course, s.payment, s.enrollment, s.user),
		health:      controller.NewHealthController(db),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure(security.SecureConfig{
		FrameOption:           cfg.Security.FrameOption,
		HSTSMaxAgeSeconds:     cfg.Security.HSTSMaxAgeSeconds,
		ContentSecurityPolicy: cfg.Security.ContentSecurityPolicy,
	}))

	window := time.Duration(cfg.RateLimit.WindowMinutes) * time.Minute
	if window <= 0 {
		window = time.Minute
	}
	maxRequests := cfg.RateLimit.MaxRequests
	if maxRequests <= 0 {
		maxRequests = 1000
	}
	router.Use(security.RateLimiter(maxRequests, window, "/health", "/metrics"))

	// 分布式追踪中间件
	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)

	logger.Log.Info("Logger initialized successfully")

	db, err := database.InitDB(cfg)
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
		log.Fatalf("Failed to initialize database: %v", err)
	}

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		// 缓存层不可用时降级运行，测验读取全部回源数据库
		logger.Log.Warn("Failed to initialize redis, quiz caching disabled", zap.Error(err))
		rdb = nil
	}

	app := &App{
		Config: cfg,
		DB:     db,
		Redis:  rdb,
	}

	if cfg.MigrateOnly {
		return app
	}

	repos := app.initRepositories(db)
	services := app.initServices(repos, cfg, rdb)
	app.services = services
	controllers := app.initControllers(services, db)

	// 监控初始化
	monitoring.Init()

	router := gin.Default()
	app.Router = router

	app.setupMiddlewares(router, cfg)

	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracer("certilearn", cfg.Tracing.CollectorEndpoint)
		if err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
		app.onShutdown(func() {
			if err := tp.Shutdown(context.Background()); err != nil {
				logger.Log.Error("Failed to shutdown tracer provider", zap.Error(err))
			}
		})
	}

	app.registerRoutes(router, controllers, repos, cfg)

	if cfg.Storage.Type == "local" {
		router.Static("/uploads", cfg.Storage.LocalPath)
	}

	return app
}

func (a *App) onShutdown(hook func()) {
	a.shutdownHooks = append(a.shutdownHooks, hook)
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	// 启动服务器
	go func() {
		log.Printf("Server running on port %s", a.Config.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// 等待中断信号优雅地关闭服务器（设置5秒的超时时间）
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// 停掉答题会话清理协程
	if a.services != nil && a.services.quizSession != nil {
		a.services.quizSession.Close()
	}
	for _, hook := range a.shutdownHooks {
		hook()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exiting")
}
