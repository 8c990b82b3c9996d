package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/vive890/academic-resource-depot/internal/admin"
	"github.com/vive890/academic-resource-depot/internal/auth"
	"github.com/vive890/academic-resource-depot/internal/config"
	"github.com/vive890/academic-resource-depot/internal/logger"
	"github.com/vive890/academic-resource-depot/internal/presigned"
	"github.com/vive890/academic-resource-depot/internal/resource"
	"github.com/vive890/academic-resource-depot/internal/server"
	"github.com/vive890/academic-resource-depot/internal/stats"
	"github.com/vive890/academic-resource-depot/internal/storage"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// .env is optional; real deployments inject the environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dbPool, err := storage.NewPostgresPool(ctx, cfg.Postgres)
	if err != nil {
		log.Fatal("connect postgres", zap.Error(err))
	}
	defer dbPool.Close()

	minioClient, err := storage.NewMinIOClient(cfg.MinIO)
	if err != nil {
		log.Fatal("connect minio", zap.Error(err))
	}
	if err := storage.EnsureBucket(ctx, minioClient, cfg.MinIO.Bucket, cfg.MinIO.Region); err != nil {
		log.Fatal("ensure bucket", zap.Error(err))
	}

	deps := server.Dependencies{
		Config:      cfg,
		DB:          dbPool,
		ObjectStore: minioClient,
	}

	authRepo := auth.NewRepository(dbPool)
	deps.AuthService = auth.NewService(authRepo, cfg.Auth)

	signer := presigned.NewService(minioClient, cfg.MinIO.PresignTTL)
	blobs := resource.NewMinIOStore(minioClient, cfg.MinIO.Bucket, cfg.MinIO.OperationTimeout, signer)
	resourceService := resource.NewService(resource.NewRepository(dbPool), blobs, resource.Options{
		Limits: resource.Limits{
			MaxDocumentBytes: cfg.Intake.MaxDocumentBytes,
			MaxPreviewBytes:  cfg.Intake.MaxPreviewBytes,
		},
		CounterTimeout: cfg.Intake.CounterTimeout,
		Logger:         log.Named("resource"),
	})
	deps.ResourceService = resourceService

	var statsService *stats.Service
	if cfg.Redis.Enabled() {
		redisClient, err := storage.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			log.Fatal("connect redis", zap.Error(err))
		}
		defer redisClient.Close()

		deps.Redis = redisClient
		statsService = stats.NewService(authRepo, resourceService, stats.NewRedisCache(redisClient, cfg.Stats.CacheTTL), log.Named("stats"))
	} else {
		log.Info("redis not configured, platform statistics are computed on every request")
		statsService = stats.NewService(authRepo, resourceService, nil, log.Named("stats"))
	}
	deps.StatsService = statsService
	deps.AdminService = admin.NewService(authRepo, resourceService, statsService, log.Named("admin"))

	httpServer := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      server.NewRouter(deps),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("depot API listening", zap.String("addr", cfg.Server.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("http server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	log.Info("shutting down gracefully")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown http server", zap.Error(err))
	}
	if err := resourceService.Drain(shutdownCtx); err != nil {
		log.Warn("pending download counts abandoned", zap.Error(err))
	}
}
