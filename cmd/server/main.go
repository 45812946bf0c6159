// Package main runs the recordings HTTP server with graceful shutdown.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/TloSmallpotato/record-noti-stats-app-ngcaug/config"
	"github.com/TloSmallpotato/record-noti-stats-app-ngcaug/internal/middleware"
	"github.com/TloSmallpotato/record-noti-stats-app-ngcaug/internal/recordings"
	"github.com/TloSmallpotato/record-noti-stats-app-ngcaug/internal/webhooks"
	"github.com/TloSmallpotato/record-noti-stats-app-ngcaug/pkg/database"
	"github.com/TloSmallpotato/record-noti-stats-app-ngcaug/pkg/redis"
	"github.com/TloSmallpotato/record-noti-stats-app-ngcaug/pkg/response"
	"github.com/TloSmallpotato/record-noti-stats-app-ngcaug/pkg/storage"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx := context.Background()
	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), int32(cfg.Database.MaxConns), logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool); err != nil {
		logger.Fatal("migrate", zap.Error(err))
	}

	// Redis only backs the count cache; run without it if unreachable.
	var countCache *recordings.CountCache
	rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		logger.Warn("redis unavailable, count cache disabled", zap.Error(err))
	} else {
		defer rdb.Close()
		countCache = recordings.NewCountCache(rdb.Client, 0, logger)
	}

	var s3Client *storage.S3
	s3Client, err = storage.NewS3(ctx, storage.S3Config{
		Region:               cfg.AWS.Region,
		AccessKeyID:          cfg.AWS.AccessKeyID,
		SecretAccessKey:      cfg.AWS.SecretAccessKey,
		VideosBucket:         cfg.AWS.VideosBucket,
		PresignExpireMinutes: cfg.AWS.PresignExpireMinutes,
	}, logger)
	if err != nil {
		logger.Warn("s3 disabled, uploads will fail", zap.Error(err))
		s3Client = nil
	}

	repo := recordings.NewRepository(pool)
	var objStorage recordings.ObjectStorage
	if s3Client != nil {
		objStorage = s3Client
	}
	recordingHandler := recordings.NewHandler(repo, objStorage, countCache, cfg.Upload.MaxUploadBytes(), logger)
	webhookHandler := webhooks.NewHandler(logger)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))
	router.Use(middleware.Logger(logger))
	router.MaxMultipartMemory = cfg.Upload.MaxUploadBytes()

	router.GET("/health", func(c *gin.Context) { response.OK(c, gin.H{"status": "ok"}) })

	router.GET("/recordings", recordingHandler.List)
	router.POST("/recordings", recordingHandler.Create)
	router.GET("/recordings/count", recordingHandler.Count)
	router.DELETE("/recordings/:id", recordingHandler.Delete)
	router.POST("/recordings/upload", recordingHandler.Upload)

	router.POST("/webhooks/github", webhookHandler.GitHub)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
