package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"todo/internal/auth"
	"todo/internal/config"
	"todo/internal/database"
	"todo/internal/events"
	"todo/internal/handler"
	"todo/internal/logger"
	"todo/internal/mail"
	"todo/internal/metrics"
	"todo/internal/middleware"
	"todo/internal/ratelimit"
	"todo/internal/repository"
	"todo/internal/scheduler"
	"todo/internal/service"
	"todo/internal/validation"
)

// Deps are the collaborators the router is built from. Zero values fall
// back to in-process implementations.
type Deps struct {
	Config    *config.Config
	DB        *gorm.DB
	Logger    *zap.Logger
	Mailer    mail.Mailer
	Publisher events.Publisher
	Limiter   ratelimit.Limiter
	Metrics   *metrics.Metrics
	// HashCost is the bcrypt cost; 0 means bcrypt.DefaultCost.
	HashCost int
}

type Server struct {
	Engine    *gin.Engine
	DB        *gorm.DB
	Config    *config.Config
	Logger    *zap.Logger
	Scheduler *scheduler.Scheduler
	Publisher events.Publisher
	redis     *redis.Client
}

// Init connects every backend named by cfg and builds the HTTP engine.
func Init(cfg *config.Config) (*Server, error) {
	if !cfg.AppDebug {
		gin.SetMode(gin.ReleaseMode)
	}

	log, err := logger.New(logger.Config{
		Level:      cfg.LogLevel,
		File:       cfg.LogFile,
		MaxSizeMB:  50,
		MaxBackups: 5,
		MaxAgeDays: 14,
		Debug:      cfg.AppDebug,
	})
	if err != nil {
		return nil, fmt.Errorf("❌ failed to build logger: %w", err)
	}

	db, err := database.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("❌ failed to connect to DB: %w", err)
	}
	log.Info("✅ Connected to database", zap.String("driver", cfg.DBDriver))

	s := &Server{DB: db, Config: cfg, Logger: log}
	deps := Deps{
		Config:  cfg,
		DB:      db,
		Logger:  log,
		Metrics: metrics.New(),
	}

	if cfg.MailHost != "" {
		mailer, err := mail.NewSMTPMailer(mail.SMTPConfig{
			Host:     cfg.MailHost,
			Port:     cfg.MailPort,
			Username: cfg.MailUsername,
			Password: cfg.MailPassword,
			From:     cfg.MailFrom,
		})
		if err != nil {
			return nil, fmt.Errorf("❌ failed to configure mailer: %w", err)
		}
		deps.Mailer = mailer
	}

	if cfg.NATSURL != "" {
		pub, err := events.NewNATSPublisher(cfg.NATSURL)
		if err != nil {
			return nil, fmt.Errorf("❌ failed to connect to NATS: %w", err)
		}
		log.Info("✅ Connected to NATS", zap.String("url", cfg.NATSURL))
		deps.Publisher = pub
	}

	var memLimiter *ratelimit.MemoryLimiter
	if cfg.RedisAddr != "" {
		s.redis = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		deps.Limiter = ratelimit.NewRedisLimiter(s.redis, cfg.RateLimitPerMinute)
		log.Info("✅ Rate limiting through Redis", zap.String("addr", cfg.RedisAddr))
	} else {
		memLimiter = ratelimit.NewMemoryLimiter(cfg.RateLimitPerMinute)
		deps.Limiter = memLimiter
	}

	s.Engine = NewRouter(deps)
	s.Publisher = deps.Publisher

	s.Scheduler = scheduler.New(log, deps.Metrics.CleanupRemoved)
	jobs := []scheduler.Job{
		scheduler.ExpiredAccessTokens(repository.NewAccessTokenRepository(db), time.Hour),
		scheduler.StaleResetTokens(repository.NewPasswordResetRepository(db), service.ResetTokenTTL, time.Hour),
	}
	if memLimiter != nil {
		jobs = append(jobs, scheduler.IdleRateLimitBuckets(memLimiter, 10*time.Minute, 10*time.Minute))
	}
	for _, job := range jobs {
		if err := s.Scheduler.Add(job); err != nil {
			return nil, fmt.Errorf("❌ failed to schedule %s: %w", job.Name, err)
		}
	}

	return s, nil
}

// NewRouter wires repositories, services and handlers onto a gin engine.
func NewRouter(d Deps) *gin.Engine {
	cfg := d.Config
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.Mailer == nil {
		d.Mailer = mail.NewLogMailer(d.Logger)
	}
	if d.Publisher == nil {
		d.Publisher = events.NoopPublisher{}
	}
	if d.Limiter == nil {
		d.Limiter = ratelimit.NewMemoryLimiter(cfg.RateLimitPerMinute)
	}
	if d.Metrics == nil {
		d.Metrics = metrics.New()
	}

	validation.Register()

	userRepo := repository.NewUserRepository(d.DB)
	taskRepo := repository.NewTaskRepository(d.DB)
	tagRepo := repository.NewTagRepository(d.DB)

	authService := service.NewAuthService(service.Dependencies{
		Users:       userRepo,
		Tokens:      repository.NewAccessTokenRepository(d.DB),
		Resets:      repository.NewPasswordResetRepository(d.DB),
		Hasher:      auth.NewPasswordHasher(d.HashCost),
		Issuer:      auth.NewTokenIssuer(cfg.JWTSecret, time.Duration(cfg.JWTExpiryHours)*time.Hour),
		Signer:      auth.NewURLSigner(cfg.AppKey),
		Mailer:      d.Mailer,
		Publisher:   d.Publisher,
		Logger:      d.Logger,
		AppURL:      cfg.AppURL,
		FrontendURL: cfg.FrontendURL,
		OnEvent:     d.Metrics.AuthEvent,
	})

	authHandler := handler.NewAuthHandler(authService)
	taskHandler := handler.NewTaskHandler(taskRepo, tagRepo)
	tagHandler := handler.NewTagHandler(tagRepo)

	r := gin.New()
	r.Use(
		middleware.RequestIDMiddleware(),
		middleware.GinZapMiddleware(d.Logger),
		middleware.MetricsMiddleware(d.Metrics),
		middleware.ErrorHandler(d.Logger, cfg.AppDebug),
		middleware.Recovery(),
	)
	r.NoRoute(middleware.NoRoute)

	r.GET("/metrics", gin.WrapH(d.Metrics.Handler()))
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	limit := middleware.RateLimit(d.Limiter, d.Logger, d.Metrics.RateLimited)

	api := r.Group("/api")
	if sqlDB, err := d.DB.DB(); err == nil {
		api.GET("/health", handler.NewHealthHandler(sqlDB).Check)
	}

	// Public routes
	public := api.Group("/", limit)
	{
		public.POST("/auth/register", authHandler.Register)
		public.POST("/auth/login", authHandler.Login)
		public.POST("/auth/forgot-password", authHandler.ForgotPassword)
		public.POST("/auth/reset-password", authHandler.ResetPassword)
		public.GET("/email/verify/:id/:hash", authHandler.VerifyEmail)
	}

	// Protected routes - require authentication
	authorized := api.Group("/", middleware.JWTAuthMiddleware(authService), limit)
	{
		authorized.POST("/auth/logout", authHandler.Logout)
		authorized.GET("/auth/user", authHandler.CurrentUser)
		authorized.POST("/email/resend", authHandler.ResendVerification)

		authorized.GET("/tasks", taskHandler.List)
		authorized.POST("/tasks", taskHandler.Create)
		authorized.GET("/tasks/:id", taskHandler.Show)
		authorized.PUT("/tasks/:id", taskHandler.Update)
		authorized.DELETE("/tasks/:id", taskHandler.Delete)

		authorized.GET("/tags", tagHandler.List)
		authorized.POST("/tags", tagHandler.Create)
		authorized.GET("/tags/:id", tagHandler.Show)
		authorized.PUT("/tags/:id", tagHandler.Update)
		authorized.DELETE("/tags/:id", tagHandler.Delete)
	}

	return r
}

func (s *Server) Run() {
	srv := &http.Server{
		Addr:              ":" + s.Config.ServerPort,
		Handler:           s.Engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.Scheduler.Start()

	go func() {
		s.Logger.Info("🚀 Server running", zap.String("port", s.Config.ServerPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.Logger.Fatal("❌ Failed to listen", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	s.Logger.Info("🛑 Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		s.Logger.Error("❌ Server forced to shutdown", zap.Error(err))
	}
	s.Close()

	s.Logger.Info("✅ Server exited properly")
}

// Close releases background workers and backend connections.
func (s *Server) Close() {
	if s.Scheduler != nil {
		s.Scheduler.Stop()
	}
	if s.Publisher != nil {
		s.Publisher.Close()
	}
	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			s.Logger.Warn("failed to close redis client", zap.Error(err))
		}
	}
	if sqlDB, err := s.DB.DB(); err == nil {
		_ = sqlDB.Close()
	}
	_ = s.Logger.Sync()
}
