package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"agrimarket/internal/cache"
	"agrimarket/internal/config"
	"agrimarket/internal/db"
	"agrimarket/internal/email"
	apihttp "agrimarket/internal/http"
	"agrimarket/internal/llm"
	"agrimarket/internal/realtime"
	"agrimarket/internal/repository"
	"agrimarket/internal/security"
	"agrimarket/internal/service"
	"agrimarket/internal/weather"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	ctx := context.Background()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: loading .env: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		logger.Fatal("db connect", zap.Error(err))
	}
	defer pool.Close()

	userRepo := repository.NewPgUserRepository(pool)
	profileRepo := repository.NewPgProfileRepository(pool)
	conversationRepo := repository.NewPgConversationRepository(pool)
	messageRepo := repository.NewPgMessageRepository(pool)
	farmRepo := repository.NewPgFarmRepository(pool)
	productRepo := repository.NewPgProductRepository(pool)
	marketPriceRepo := repository.NewPgMarketPriceRepository(pool)
	weatherRepo := repository.NewPgWeatherRepository(pool)

	var (
		otpLimiter    security.RateLimiter
		tokenStore    service.RefreshTokenStore
		hub           realtime.Hub
		forecastCache cache.Cache
		redisClient   *redis.Client
	)
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		ctxPing, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := redisClient.Ping(ctxPing).Err(); err != nil {
			logger.Warn("redis ping failed, using in-memory fallbacks", zap.Error(err))
			redisClient = nil
		} else {
			otpLimiter = security.NewRedisRateLimiter(redisClient, 10*time.Minute, 3)
			tokenStore = service.NewRedisRefreshTokenStore(redisClient)
			hub = realtime.NewRedisHub(redisClient, logger)
			forecastCache = cache.NewRedisCache(redisClient, "agrimarket:")
		}
		cancel()
	}
	if hub == nil {
		hub = realtime.NewMemoryHub()
	}
	if forecastCache == nil {
		forecastCache = cache.NewMemoryCache()
	}
	if otpLimiter == nil {
		otpLimiter = security.NewMemoryRateLimiter(10*time.Minute, 3)
	}
	if tokenStore == nil {
		tokenStore = service.NewMemoryRefreshTokenStore()
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

	jwtSvc := service.NewJWTServiceWithStore(
		cfg.JWTSecret,
		time.Duration(cfg.JWTAccessTTLMinutes)*time.Minute,
		time.Duration(cfg.JWTRefreshTTLMinutes)*time.Minute,
		tokenStore,
	)
	if cfg.JWTSecret == "" {
		logger.Warn("jwt secret not configured")
	}
	if cfg.GeminiAPIKey == "" {
		logger.Warn("gemini api key not configured, assistant disabled")
	}

	geminiClient := llm.NewGeminiClient(cfg.GeminiBaseURL, cfg.GeminiAPIKey, cfg.GeminiModel, logger)
	weatherClient := weather.NewHTTPClient(cfg.OpenMeteoForecastURL, cfg.OpenMeteoGeocodingURL, logger)

	userSvc := service.NewUserService(logger, userRepo, profileRepo, emailSender, otpLimiter)
	profileSvc := service.NewProfileService(logger, profileRepo)
	chatSvc := service.NewChatService(logger, conversationRepo, messageRepo, geminiClient, hub)
	attachmentSvc := service.NewAttachmentService(messageRepo, conversationRepo, hub)
	weatherSvc := service.NewWeatherService(logger, weatherRepo, weatherClient, forecastCache)
	marketSvc := service.NewMarketService(logger, marketPriceRepo)
	farmSvc := service.NewFarmService(logger, farmRepo)
	productSvc := service.NewProductService(logger, productRepo)
	var cartSvc *service.CartService
	if redisClient != nil {
		cartSvc = service.NewCartService(logger, redisClient, productSvc)
	}
	agentSvc := service.NewAgentService(logger, time.Now().UnixNano())

	authHandler := apihttp.NewAuthHandler(logger, userSvc, jwtSvc)
	profileHandler := apihttp.NewProfileHandler(logger, profileSvc)
	chatHandler := apihttp.NewChatHandler(logger, chatSvc, attachmentSvc, hub)
	weatherHandler := apihttp.NewWeatherHandler(logger, weatherSvc, profileSvc)
	marketHandler := apihttp.NewMarketHandler(logger, marketSvc)
	farmHandler := apihttp.NewFarmHandler(logger, farmSvc)
	marketplaceHandler := apihttp.NewMarketplaceHandler(logger, productSvc, cartSvc)
	agentHandler := apihttp.NewAgentHandler(logger, agentSvc, profileSvc)

	router := apihttp.NewRouter(
		logger,
		jwtSvc,
		authHandler,
		profileHandler,
		chatHandler,
		weatherHandler,
		marketHandler,
		farmHandler,
		marketplaceHandler,
		agentHandler,
	)

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	logger.Info("starting server", zap.String("port", cfg.HTTPPort))

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal("server error", zap.Error(err))
	}
}
