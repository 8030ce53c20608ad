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
	_ "github.com/justsurfingit/studylink/docs"
	"github.com/justsurfingit/studylink/internal/auth"
	"github.com/justsurfingit/studylink/internal/cache"
	"github.com/justsurfingit/studylink/internal/config"
	"github.com/justsurfingit/studylink/internal/database"
	"github.com/justsurfingit/studylink/internal/handlers"
	"github.com/justsurfingit/studylink/internal/logger"
	"github.com/justsurfingit/studylink/internal/scheduler"
	"github.com/justsurfingit/studylink/internal/services"
	"go.uber.org/zap"
)

// @title StudyLink API
// @version 1.0
// @description Internship and apprenticeship marketplace connecting students, schools and companies.

// @BasePath /api

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the session token.

func main() {
	// 1. Config and logging
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	zlog, err := logger.New(cfg.Log.Level, cfg.Log.Format, "studylink-api")
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer zlog.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 2. Database: one pool for the whole process
	db, err := database.Connect(cfg.DatabaseURL, zlog)
	if err != nil {
		zlog.Fatal("database connection failed", zap.Error(err))
	}
	defer database.Close(db)
	if err := database.Migrate(db); err != nil {
		zlog.Fatal("migration failed", zap.Error(err))
	}
	sqlDB, err := db.DB()
	if err != nil {
		zlog.Fatal("database handle", zap.Error(err))
	}

	// 3. Mail delivery
	mailer, err := newMailer(ctx, cfg, zlog)
	if err != nil {
		zlog.Fatal("mailer", zap.String("provider", cfg.Email.Provider), zap.Error(err))
	}
	if cfg.Email.Provider == "log" {
		zlog.Warn("EMAIL_PROVIDER=log: sign-in links are written to the log, not sent")
	}
	emailService := services.NewEmailService(mailer, zlog)

	// 4. Core services
	roleService := services.NewRoleService(db, zlog)
	domainService := services.NewDomainService(db, zlog)
	userService := services.NewUserService(db, zlog)
	schoolService := services.NewSchoolService(db, zlog)
	companyService := services.NewCompanyService(db, zlog)
	jobService := services.NewJobService(db)

	authService := services.NewAuthService(db, roleService, emailService, cfg.BaseURL, cfg.JWTSecret, zlog)
	if cfg.RedisURL != "" {
		rdb, err := cache.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			zlog.Fatal("redis", zap.Error(err))
		}
		defer rdb.Close()
		authService.Throttle = cache.NewThrottle(rdb, "studylink:magic-link:", cfg.SendThrottle)
		zlog.Info("magic link throttle enabled", zap.Duration("window", cfg.SendThrottle))
	}

	// 5. Optional integrations
	llmService, err := services.NewLLMService(ctx, cfg.GeminiAPIKey)
	switch {
	case errors.Is(err, services.ErrFeatureDisabled):
		zlog.Info("GEMINI_API_KEY not set: job extraction disabled")
	case err != nil:
		zlog.Fatal("gemini client", zap.Error(err))
	}

	var google handlers.GoogleSignIn
	if cfg.Google.Enabled() {
		google = auth.NewGoogleProvider(cfg.Google.ClientID, cfg.Google.ClientSecret, cfg.BaseURL+"/api/auth/google/callback")
	}

	// 6. Background jobs
	sched := scheduler.New(authService, cfg.TokenPurgeSchedule, zlog)
	if err := sched.Start(ctx); err != nil {
		zlog.Fatal("scheduler", zap.Error(err))
	}
	defer sched.Stop()

	// 7. HTTP
	if cfg.Log.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := handlers.NewRouter(handlers.Deps{
		Ready:           sqlDB,
		Log:             zlog,
		BaseURL:         cfg.BaseURL,
		Sessions:        auth.NewSessionManager(cfg.JWTSecret, cfg.SessionTTL),
		Google:          google,
		Auth:            authService,
		Roles:           roleService,
		Domains:         domainService,
		Users:           userService,
		Profiles:        services.NewProfileService(db, roleService, domainService, zlog),
		Schools:         schoolService,
		Companies:       companyService,
		Jobs:            jobService,
		JobRequests:     services.NewJobRequestService(db, zlog),
		Recommendations: services.NewRecommendationService(db),
		Students:        services.NewStudentService(db),
		Export:          services.NewExportService(schoolService),
		LLM:             llmService,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      30 * time.Second,
	}

	go func() {
		zlog.Info("server starting", zap.String("port", cfg.Port), zap.String("base_url", cfg.BaseURL))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Fatal("server failed", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zlog.Info("shutting down")
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zlog.Error("shutdown error", zap.Error(err))
	}
}

func newMailer(ctx context.Context, cfg *config.Config, zlog *zap.Logger) (services.Mailer, error) {
	switch cfg.Email.Provider {
	case "resend":
		return services.NewResendMailer(cfg.Email.ResendBaseURL, cfg.Email.ResendAPIKey, cfg.Email.From), nil
	case "gmail":
		gmailService, err := auth.NewGmailService(ctx, cfg.Email.GmailCredential, cfg.Email.GmailToken)
		if err != nil {
			return nil, err
		}
		return services.NewGmailMailer(gmailService, cfg.Email.From), nil
	default:
		return &services.LogMailer{Log: zlog}, nil
	}
}
