package main

import (
	"context"
	"os"

	"github.com/TuhinPramanik4/Civicsolve/internal/cache"
	"github.com/TuhinPramanik4/Civicsolve/internal/config"
	"github.com/TuhinPramanik4/Civicsolve/internal/handler"
	"github.com/TuhinPramanik4/Civicsolve/internal/llm"
	"github.com/TuhinPramanik4/Civicsolve/internal/logger"
	"github.com/TuhinPramanik4/Civicsolve/internal/middleware"
	"github.com/TuhinPramanik4/Civicsolve/internal/ratelimit"
	"github.com/TuhinPramanik4/Civicsolve/internal/verify"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	// Load .env file if exists
	_ = godotenv.Load()

	log := logger.New("verification-gateway")
	cfg := config.LoadGateway()

	// Initialize LLM client based on provider. A missing key is reported per request.
	apiKey := cfg.APIKey()
	var client llm.LLMClient
	switch cfg.LLMProvider {
	case "gemini":
		if apiKey != "" {
			client = llm.NewGeminiClient(cfg.GeminiBaseURL, apiKey, cfg.GeminiModel, cfg.ModelTimeout)
			log.Infof("Using Gemini API with model: %s", cfg.GeminiModel)
		}
	case "openai":
		if apiKey != "" {
			client = llm.NewOpenAIClient(cfg.OpenAIBaseURL, apiKey, cfg.OpenAIModel)
			log.Infof("Using OpenAI-compatible API at %s with model: %s", cfg.OpenAIBaseURL, cfg.OpenAIModel)
		}
	case "ollama":
		client = llm.NewOllamaClient(cfg.OllamaURL, cfg.OllamaModel, cfg.ModelTimeout)
		log.Infof("Using Ollama at %s with model: %s", cfg.OllamaURL, cfg.OllamaModel)
	default:
		log.Errorf("Unknown LLM provider: %s (supported: gemini, openai, ollama)", cfg.LLMProvider)
		os.Exit(1)
	}
	if client == nil {
		log.Warnf("No API key configured for provider %s, verification requests will fail", cfg.LLMProvider)
	}

	// Redis is optional: without it there is no verdict cache and no rate limit (fail-open)
	var verdicts verify.VerdictCache
	var limiter middleware.RateChecker
	if cfg.RedisURL != "" {
		redisClient, err := cache.Connect(context.Background(), cfg.RedisURL)
		if err != nil {
			log.WithError(err).Warn("Failed to connect to Redis, continuing without cache and rate limit")
		} else {
			defer redisClient.Close()
			limiter = ratelimit.NewLimiter(ratelimit.NewRedisCounter(redisClient),
				ratelimit.PerMinute("verify", cfg.RateLimitPerMinute))
			if cfg.VerdictCacheTTL > 0 {
				verdicts = verify.NewRedisVerdictCache(cache.NewRedisCache(redisClient, "verdict:", cfg.VerdictCacheTTL))
			}
		}
	}

	service := verify.NewService(
		verify.NewHTTPFetcher(cfg.ImageFetchTimeout),
		client,
		verdicts,
		verify.Options{
			Provider:      cfg.LLMProvider,
			MinImageBytes: cfg.MinImageBytes,
			MaxImageBytes: cfg.MaxImageBytes,
			ModelTimeout:  cfg.ModelTimeout,
		},
		log,
	)
	verifyHandler := handler.NewVerifyHandler(service)

	// Setup router
	r := gin.New()
	// Forwarded headers are honoured only from TRUSTED_PROXIES
	if err := r.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		log.WithError(err).Error("Invalid TRUSTED_PROXIES")
		os.Exit(1)
	}
	r.Use(gin.Logger(), middleware.RequestID(), middleware.Recovery(log), middleware.CORS(), middleware.Metrics())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	if cfg.ServiceKey == "" {
		log.Warn("GATEWAY_SERVICE_KEY not set, all callers are rate limited by IP")
	}
	verifyRoutes := r.Group("/", middleware.ServiceAuth(cfg.ServiceKey), middleware.RateLimit(limiter, "verify", log))
	handler.RegisterVerifyRoutes(verifyRoutes, verifyHandler)

	log.Infof("Verification gateway starting on port %s", cfg.Port)

	if err := r.Run(":" + cfg.Port); err != nil {
		log.WithError(err).Error("server stopped")
		os.Exit(1)
	}
}
