package main

import (
	"context"
	"fmt"
	"os"

	"github.com/TuhinPramanik4/Civicsolve/internal/blob"
	"github.com/TuhinPramanik4/Civicsolve/internal/cache"
	"github.com/TuhinPramanik4/Civicsolve/internal/client"
	"github.com/TuhinPramanik4/Civicsolve/internal/config"
	"github.com/TuhinPramanik4/Civicsolve/internal/database"
	"github.com/TuhinPramanik4/Civicsolve/internal/handler"
	"github.com/TuhinPramanik4/Civicsolve/internal/logger"
	"github.com/TuhinPramanik4/Civicsolve/internal/middleware"
	"github.com/TuhinPramanik4/Civicsolve/internal/ratelimit"
	"github.com/TuhinPramanik4/Civicsolve/internal/staging"
	"github.com/TuhinPramanik4/Civicsolve/internal/submission"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
)

// reportStore is what both report table backends provide
type reportStore interface {
	submission.ReportTable
	handler.ReportLister
}

func main() {
	// Load .env file if exists
	_ = godotenv.Load()

	log := logger.New("reports")
	cfg := config.LoadReports()
	ctx := context.Background()

	store, err := openReportStore(ctx, cfg.Store)
	if err != nil {
		log.WithError(err).Error("Failed to open report store")
		os.Exit(1)
	}
	if closer, ok := store.(interface{ Close(context.Context) error }); ok {
		defer closer.Close(context.Background())
	}

	blobs, err := openBlobStore(ctx, cfg.Blob)
	if err != nil {
		log.WithError(err).Error("Failed to open blob store")
		os.Exit(1)
	}

	// Redis shares staged photos between replicas; without it they stay in memory
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = cache.Connect(ctx, cfg.RedisURL)
		if err != nil {
			log.WithError(err).Warn("Failed to connect to Redis, staging photos in memory")
		} else {
			defer redisClient.Close()
		}
	}

	var stagedStore staging.Store = staging.NewMemoryStore(cfg.StagingTTL)
	var limiter middleware.RateChecker
	if redisClient != nil {
		stagedStore = staging.NewRedisStore(redisClient, cfg.StagingTTL)
		limiter = ratelimit.NewLimiter(ratelimit.NewRedisCounter(redisClient), ratelimit.PerMinute("submit", cfg.RateLimitPerMinute))
	}
	stager := staging.NewStager(stagedStore, cfg.PublicBaseURL)

	orchestrator := submission.NewOrchestrator(
		client.NewGatewayClient(cfg.GatewayURL, cfg.GatewayServiceKey, cfg.Timeouts.Verify),
		stager,
		blobs,
		store,
		submission.Options{
			Timeouts: submission.Timeouts{
				Verify: cfg.Timeouts.Verify,
				Upload: cfg.Timeouts.Upload,
				Insert: cfg.Timeouts.Insert,
			},
			BlobPrefix:                  cfg.Blob.Prefix,
			RequireDescriptionWithPhoto: cfg.RequireDescriptionWithPhoto,
		},
		log,
	)
	reportHandler := handler.NewReportHandler(orchestrator, store, stager, log)

	// Setup router
	r := gin.New()
	if err := r.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		log.WithError(err).Error("Invalid TRUSTED_PROXIES")
		os.Exit(1)
	}
	r.Use(gin.Logger(), middleware.RequestID(), middleware.Recovery(log), middleware.CORS(), middleware.Metrics())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	if local, ok := blobs.(*blob.LocalStore); ok {
		r.Static("/uploads", local.Dir())
	}

	submitAuth := middleware.OptionalAuth(cfg.JWTSecret)
	if cfg.JWTSecret != "" {
		submitAuth = middleware.Auth(cfg.JWTSecret)
	} else {
		log.Warn("JWT_SECRET not set, accepting anonymous reports")
	}

	api := r.Group("/api")
	{
		api.POST("/reports", submitAuth, middleware.RateLimit(limiter, "submit", log), reportHandler.Submit)
		api.GET("/reports", reportHandler.List)
		api.GET("/staged/:id", reportHandler.Staged)
	}

	log.Infof("Reports service starting on port %s", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.WithError(err).Error("server stopped")
		os.Exit(1)
	}
}

func openReportStore(ctx context.Context, cfg config.StoreConfig) (reportStore, error) {
	switch cfg.Backend {
	case "postgres":
		db, err := database.Connect(cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := database.Migrate(db); err != nil {
			return nil, fmt.Errorf("failed to migrate database: %w", err)
		}
		return database.NewReportStore(db), nil
	case "mongo":
		return database.ConnectMongo(ctx, cfg.MongoURI, cfg.MongoDB)
	default:
		return nil, fmt.Errorf("unknown report store %q (supported: postgres, mongo)", cfg.Backend)
	}
}

func openBlobStore(ctx context.Context, cfg config.BlobConfig) (blob.Store, error) {
	switch cfg.Backend {
	case "local":
		return blob.NewLocalStore(cfg.LocalDir, cfg.PublicURL)
	case "s3":
		return blob.NewS3Store(ctx, blob.S3Config{
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			PublicURL: cfg.S3PublicURL,
		})
	case "ftp":
		return blob.NewFTPStore(blob.FTPConfig{
			Host:      cfg.FTPHost,
			Port:      cfg.FTPPort,
			User:      cfg.FTPUser,
			Password:  cfg.FTPPassword,
			PublicURL: cfg.PublicURL,
		}), nil
	default:
		return nil, fmt.Errorf("unknown blob backend %q (supported: local, s3, ftp)", cfg.Backend)
	}
}
