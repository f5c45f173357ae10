package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"travel-planner/internal/config"
	"travel-planner/internal/db"
	"travel-planner/internal/email"
	apihttp "travel-planner/internal/http"
	"travel-planner/internal/llm"
	"travel-planner/internal/repository"
	"travel-planner/internal/service"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: loading .env: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	var accounts repository.AccountRepository
	switch cfg.StoreDriver {
	case config.StoreDriverPostgres:
		pool, err := db.NewPool(ctx, cfg)
		if err != nil {
			logger.Fatal("db connect", zap.Error(err))
		}
		defer pool.Close()
		if err := db.EnsureSchema(ctx, pool); err != nil {
			logger.Fatal("db schema", zap.Error(err))
		}
		accounts = repository.NewPgAccountRepository(pool)
	case config.StoreDriverFile:
		accounts = repository.NewFileAccountRepository(cfg.UsersFile)
	default:
		logger.Fatal("unknown store driver", zap.String("driver", cfg.StoreDriver))
	}

	limiter := service.NewMemoryLoginRateLimiter(cfg.LoginRateWindow, cfg.LoginRateMax)
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer redisClient.Close()
		ctxPing, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := redisClient.Ping(ctxPing).Err(); err != nil {
			logger.Warn("redis ping failed, using in-memory login limiter", zap.Error(err))
		} else {
			limiter = service.NewRedisLoginRateLimiter(redisClient, cfg.LoginRateWindow, cfg.LoginRateMax)
		}
		cancel()
	}

	emailSender := email.NewDisabledSender("email sender not configured")
	if cfg.SMTPHost != "" {
		sender, err := email.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPFrom, cfg.SMTPFromName, cfg.SMTPUseTLS)
		if err != nil {
			logger.Warn("smtp sender init failed", zap.Error(err))
		} else {
			emailSender = sender
		}
	}

	if cfg.LLMAPIKey == "" || cfg.LLMModel == "" {
		logger.Warn("llm not fully configured, /ai will answer with the fallback reply")
	}
	llmClient := llm.NewHTTPClient(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModel, logger)

	jwtSvc := service.NewJWTService(cfg.JWTSecret, cfg.JWTTTL)
	accountSvc := service.NewAccountService(logger, accounts, jwtSvc, limiter)
	itinerarySvc := service.NewItineraryService(llmClient, logger)

	authHandler := apihttp.NewAuthHandler(logger, accountSvc, emailSender)
	itineraryHandler := apihttp.NewItineraryHandler(logger, itinerarySvc)
	router := apihttp.NewRouter(logger, apihttp.RouterOptions{
		APIPrefix:     cfg.APIPrefix,
		ClientOrigin:  cfg.ClientOrigin,
		AIRequireAuth: cfg.AIRequireAuth,
	}, jwtSvc, authHandler, itineraryHandler)

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Warn("server shutdown", zap.Error(err))
		}
	}()

	logger.Info("starting server",
		zap.String("port", cfg.HTTPPort),
		zap.String("store", cfg.StoreDriver),
	)

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("server error", zap.Error(err))
	}
}
