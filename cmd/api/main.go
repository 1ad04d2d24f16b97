package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "go.uber.org/automaxprocs"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"car-classifieds/internal/core/auth"
	"car-classifieds/internal/core/config"
	"car-classifieds/internal/core/logger"
	"car-classifieds/internal/core/server"
	"car-classifieds/internal/core/slot"
	"car-classifieds/internal/events"
	"car-classifieds/internal/repo"
	"car-classifieds/internal/service"
	"car-classifieds/internal/transport/http/handler"
	"car-classifieds/internal/transport/http/router"
	"car-classifieds/internal/upload"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load(os.Getenv("CONFIG_PATH"))
	log, cleanup := logger.Build(logger.Options{
		Level:       cfg.Log.Level,
		JSON:        cfg.Log.JSON,
		AddCaller:   true,
		Development: !cfg.Log.JSON,
		Rotate: logger.FileRotate{
			Enable:     cfg.Log.Rotate.Enable,
			Filename:   cfg.Log.Rotate.Filename,
			MaxSizeMB:  cfg.Log.Rotate.MaxSizeMB,
			MaxBackups: cfg.Log.Rotate.MaxBackups,
			MaxAgeDays: cfg.Log.Rotate.MaxAgeDays,
			Compress:   cfg.Log.Rotate.Compress,
		},
	})
	defer cleanup()
	defer logger.RedirectStdLog(log, zapcore.InfoLevel)()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 存储槽位（失败直接 Fatal）
	sl, closeSlot, err := slot.Open(ctx, cfg, log)
	if err != nil {
		log.Fatal("open storage slot", zap.Error(err))
	}
	defer closeSlot()

	store := repo.NewListingStore(sl, log.Named("store"))
	if err := store.Load(ctx); err != nil {
		log.Fatal("load listings", zap.Error(err))
	}

	pub := mustPublisher(cfg, log)
	if c, ok := pub.(interface{ Close() }); ok {
		defer c.Close()
	}
	uploader := mustUploader(ctx, cfg, log)

	jwter := &auth.JWTer{
		Secret: []byte(cfg.JWT.Secret),
		Issuer: cfg.JWT.Issuer,
		TTL:    time.Duration(cfg.JWT.AccessTokenTTLMin) * time.Minute,
	}

	svc := service.NewListingService(store, pub, log.Named("service"))
	r := router.NewAPIEngine(log, jwter,
		router.Limits{
			RPS:          cfg.App.HTTP.RateLimitRPS,
			Burst:        cfg.App.HTTP.RateLimitBurst,
			MaxInFlight:  cfg.App.HTTP.MaxInFlight,
			MaxBodyBytes: cfg.App.HTTP.MaxBodyMB << 20,
			Timeout:      time.Duration(cfg.App.HTTP.RequestTimeoutSec) * time.Second,
		},
		handler.NewListingHandler(svc, log),
		handler.NewUploadHandler(uploader, cfg.Upload.MaxFileMB<<20, log),
	)

	addr := server.Addr(cfg.App.HTTP.Host, cfg.App.HTTP.Port)
	srv := server.BuildServer(
		addr, r,
		time.Duration(cfg.App.HTTP.ReadTimeoutSec)*time.Second,
		time.Duration(cfg.App.HTTP.WriteTimeoutSec)*time.Second,
		time.Duration(cfg.App.HTTP.IdleTimeoutSec)*time.Second,
	)

	host4human := cfg.App.HTTP.Host
	if host4human == "" || host4human == "0.0.0.0" {
		host4human = "127.0.0.1"
	}
	baseURL := "http://" + host4human + ":" + fmt.Sprint(cfg.App.HTTP.Port)
	log.Info("listings api starting",
		zap.String("addr", addr),
		zap.String("open", baseURL),
		zap.String("health", baseURL+"/health"),
		zap.String("api_v1", baseURL+"/api/v1"),
		zap.String("storage", cfg.Storage.Backend),
		zap.String("upload", cfg.Upload.Backend),
	)

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("listings api start FAILED", zap.Error(err))
		}
	}()
	log.Info("listings api started SUCCESS")

	// 优雅关闭
	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	log.Info("listings api stopped gracefully")
}

func mustPublisher(cfg *config.Config, l *zap.Logger) events.Publisher {
	if !cfg.Events.Enabled {
		return events.Nop{}
	}
	p, err := events.NewNATSPublisher(cfg.Events.NATSURL, cfg.Events.SubjectPrefix)
	if err != nil {
		l.Fatal("nats connect", zap.Error(err))
	}
	l.Info("events: nats", zap.String("url", cfg.Events.NATSURL), zap.String("prefix", cfg.Events.SubjectPrefix))
	return p
}

func mustUploader(ctx context.Context, cfg *config.Config, l *zap.Logger) upload.Uploader {
	if cfg.Upload.Backend == "minio" {
		m, err := upload.NewMinIO(ctx, upload.MinIOOptions{
			Endpoint:  cfg.Upload.MinIO.Endpoint,
			AccessKey: cfg.Upload.MinIO.AccessKey,
			SecretKey: cfg.Upload.MinIO.SecretKey,
			Bucket:    cfg.Upload.MinIO.Bucket,
			UseSSL:    cfg.Upload.MinIO.UseSSL,
		}, l.Named("minio"))
		if err != nil {
			l.Fatal("minio init", zap.Error(err))
		}
		return upload.Instrument("minio", m)
	}
	latency := time.Duration(cfg.Upload.LatencyMs) * time.Millisecond
	return upload.Instrument("mock", upload.NewMock(latency, cfg.Upload.PlaceholderBase))
}
