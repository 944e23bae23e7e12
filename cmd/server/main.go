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

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	_ "authcodelab/docs" // swagger docs

	"authcodelab/internal/auth"
	"authcodelab/internal/cache"
	"authcodelab/internal/config"
	"authcodelab/internal/db"
	"authcodelab/internal/handler"
	"authcodelab/internal/logger"
	"authcodelab/internal/mail"
	"authcodelab/internal/model"
	"authcodelab/internal/ratelimit"
	"authcodelab/internal/repository"
	"authcodelab/internal/risk"
	"authcodelab/internal/router"
	"authcodelab/internal/service"
)

// @title AuthCodeLab API
// @version 1.0
// @description Authentication service with email OTP verification, TOTP two-factor login, refresh token rotation and role-based dashboards.
// @host localhost:4000
// @BasePath /api
// @schemes http
// @securityDefinitions.apikey CookieAuth
// @in cookie
// @name token
func main() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config: %v", err)
	}

	zl, err := logger.New(logger.Config{Development: !cfg.IsProduction(), Level: cfg.LogLevel})
	if err != nil {
		log.Fatalf("logger init: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	userRepo, closeStore, err := openUserRepository(ctx, cfg)
	if err != nil {
		zl.Fatal("user store init", zap.String("driver", cfg.DBDriver), zap.Error(err))
	}
	defer closeStore()

	cacheClient := cache.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	defer func() { _ = cacheClient.Close() }()
	if err := cacheClient.Ping(ctx); err != nil {
		zl.Warn("redis unreachable at startup, login attempts will be rejected until it recovers", zap.Error(err))
	}

	dispatcher := mail.NewDispatcher(newMailSender(cfg, zl), zl, cfg.MailWorkers, cfg.MailQueueSize)
	defer dispatcher.Close()

	var analyzer risk.Analyzer = risk.Disabled{}
	if cfg.RiskEngineURL != "" {
		analyzer = risk.NewClient(risk.Config{URL: cfg.RiskEngineURL, Timeout: cfg.RiskEngineTimeout}, zl)
	}

	var challenges auth.ChallengeStoreInterface
	if cfg.TwoFactorLoginChallenge {
		challenges = auth.NewChallengeStore(cacheClient)
	}

	jwtService := auth.NewJWTService(cfg.JWTSecret, cfg.JWTRefreshSecret)
	cookies := auth.CookieWriter{Production: cfg.IsProduction()}

	tokenService := service.NewTokenService(userRepo, jwtService, zl)
	twoFactorService := service.NewTwoFactorService(userRepo, cfg.TOTPIssuer)
	otpService := service.NewOTPService(userRepo, dispatcher)
	userService := service.NewUserService(userRepo)
	authService := service.NewAuthService(userRepo, tokenService, twoFactorService, dispatcher, analyzer, challenges, zl)

	limiter := ratelimit.New(cacheClient.Redis(), ratelimit.Config{
		Points: cfg.LoginRatePoints,
		Window: cfg.LoginRateWindow,
		Block:  cfg.LoginRateBlock,
	})

	e := echo.New()
	e.HideBanner = true
	router.Register(
		e,
		cfg,
		zl,
		router.SessionMiddleware(tokenService, userService),
		ratelimit.Middleware(limiter, zl),
		handler.NewAuthHandler(authService, otpService, cookies),
		handler.NewTwoFactorHandler(twoFactorService, authService, cookies),
		handler.NewUserHandler(userService),
	)

	swaggerHost := cfg.SwaggerHost
	if swaggerHost == "" {
		swaggerHost = "localhost:" + cfg.ServerPort
	}
	zl.Info("swagger documentation available", zap.String("url", "http://"+swaggerHost+"/swagger/index.html"))

	go func() {
		if err := e.Start(":" + cfg.ServerPort); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zl.Error("server start", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	zl.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		zl.Error("server shutdown", zap.Error(err))
	}
}

// openUserRepository selects the user store by DB_DRIVER. The returned
// func releases the underlying connection.
func openUserRepository(ctx context.Context, cfg *config.Config) (repository.UserRepository, func(), error) {
	if cfg.DBDriver == "mongo" {
		client, err := db.NewMongo(ctx, cfg.MongoURI)
		if err != nil {
			return nil, nil, err
		}
		closeFn := func() { _ = client.Disconnect(context.Background()) }
		repo, err := repository.NewMongoUserRepository(ctx, client.Database(cfg.MongoDatabase))
		if err != nil {
			closeFn()
			return nil, nil, err
		}
		return repo, closeFn, nil
	}

	gormDB, err := db.Open(cfg.DBDriver, cfg.DatabaseDSN)
	if err != nil {
		return nil, nil, err
	}
	closeFn := func() {
		if sqlDB, err := gormDB.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	if err := gormDB.AutoMigrate(&model.User{}); err != nil {
		closeFn()
		return nil, nil, fmt.Errorf("auto-migrate: %w", err)
	}
	return repository.NewUserRepository(gormDB), closeFn, nil
}

func newMailSender(cfg *config.Config, zl *zap.Logger) mail.Sender {
	switch cfg.MailTransport {
	case "smtp":
		return mail.NewSMTPSender(mail.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUser,
			Password: cfg.SMTPPassword,
			From:     cfg.SenderEmail,
			FromName: cfg.SenderName,
		})
	case "brevo":
		return mail.NewBrevoSender(cfg.BrevoAPIKey, cfg.SenderEmail, cfg.SenderName)
	default:
		return mail.NewLogSender(zl)
	}
}
