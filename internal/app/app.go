package app

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/byounghoonpark/PBH-Quiz/internal/config"
	"github.com/byounghoonpark/PBH-Quiz/internal/controller"
	"github.com/byounghoonpark/PBH-Quiz/internal/repository"
	"github.com/byounghoonpark/PBH-Quiz/internal/service"
	"github.com/byounghoonpark/PBH-Quiz/pkg/configwatcher"
	"github.com/byounghoonpark/PBH-Quiz/pkg/database"
	"github.com/byounghoonpark/PBH-Quiz/pkg/logger"
	"github.com/byounghoonpark/PBH-Quiz/pkg/monitoring"
	"github.com/byounghoonpark/PBH-Quiz/pkg/security"
	"github.com/byounghoonpark/PBH-Quiz/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config *config.Config
	Router *gin.Engine
	DB     *gorm.DB
	Redis  *redis.Client
}

type repositories struct {
	user    *repository.UserRepository
	grade   *repository.GradeRepository
	quiz    *repository.QuizRepository
	session *repository.SessionRepository
}

type services struct {
	auth    *service.AuthService
	quiz    *service.QuizService
	session *service.SessionService
}

type controllers struct {
	auth    *controller.AuthController
	quiz    *controller.QuizController
	session *controller.SessionController
	health  *controller.HealthController
}

func (a *App) initRepositories(db *gorm.DB) *repositories {
	return &repositories{
		user:    repository.NewUserRepository(db),
		grade:   repository.NewGradeRepository(db),
		quiz:    repository.NewQuizRepository(db),
		session: repository.NewSessionRepository(db),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config, rdb *redis.Client) *services {
	return &services{
		auth: service.NewAuthService(repos.user, repos.grade, cfg.JWT.Secret, cfg.JWT.ExpireTime),
		quiz: service.NewQuizService(repos.quiz, repos.grade),
		// 随机源传 nil 使用时间种子；测试里注入固定种子
		session: service.NewSessionService(repos.session, repos.quiz, repos.user, rdb, nil),
	}
}

func (a *App) initControllers(s *services, db *gorm.DB) *controllers {
	return &controllers{
		auth:    controller.NewAuthController(s.auth),
		quiz:    controller.NewQuizController(s.quiz),
		session: controller.NewSessionController(s.session),
		health:  controller.NewHealthController(db),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	// AuthMiddleware 从上下文取配置，热更新后新请求立即生效
	router.Use(func(c *gin.Context) {
		c.Set("config", a.Config)
		c.Next()
	})

	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())

	maxRequests := cfg.RateLimit.MaxRequests
	if maxRequests <= 0 {
		maxRequests = 10000
	}
	windowMinutes := cfg.RateLimit.WindowMinutes
	if windowMinutes <= 0 {
		windowMinutes = 1
	}
	router.Use(security.RateLimiter(maxRequests, time.Duration(windowMinutes)*time.Minute))

	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)

	logger.Log.Info("Logger initialized successfully")

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.InitDB(&cfg.Database)
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
	}

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		// 缓存不可用时降级为直查数据库
		logger.Log.Warn("Redis unavailable, response caching disabled", zap.Error(err))
		rdb = nil
	}

	app := &App{
		Config: cfg,
		DB:     db,
		Redis:  rdb,
	}

	repos := app.initRepositories(db)
	services := app.initServices(repos, cfg, rdb)
	controllers := app.initControllers(services, db)

	monitoring.Init()

	router := gin.Default()
	app.Router = router

	app.setupMiddlewares(router, cfg)

	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracer("quiz-backend", cfg.Tracing.CollectorEndpoint)
		if err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
		go func() {
			quit := make(chan os.Signal, 1)
			signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
			<-quit
			if err := tp.Shutdown(context.Background()); err != nil {
				logger.Log.Error("Failed to shutdown tracer provider", zap.Error(err))
			}
		}()
	}

	app.registerRoutes(router, controllers)

	// 配置热更新（JWT 密钥轮换等）
	go configwatcher.WatchConfig("configs/config.yaml", func(newCfg *config.Config) {
		*app.Config = *newCfg
		logger.Log.Info("Configuration reloaded")
	})

	return app
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

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

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exiting")
}
