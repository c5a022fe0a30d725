package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/fathima-sithara/ephemeral-chat/internal/api"
	"github.com/fathima-sithara/ephemeral-chat/internal/auth"
	"github.com/fathima-sithara/ephemeral-chat/internal/cache"
	"github.com/fathima-sithara/ephemeral-chat/internal/config"
	"github.com/fathima-sithara/ephemeral-chat/internal/events"
	"github.com/fathima-sithara/ephemeral-chat/internal/logger"
	"github.com/fathima-sithara/ephemeral-chat/internal/repository"
	"github.com/fathima-sithara/ephemeral-chat/internal/service"
	"github.com/fathima-sithara/ephemeral-chat/internal/settings"
	"github.com/fathima-sithara/ephemeral-chat/internal/ws"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load: %v", err)
	}

	zl, err := logger.New(cfg.App.Env != "production")
	if err != nil {
		log.Fatalf("logger init: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	mc, err := repository.NewMongoClient(cfg.Mongo.URI)
	if err != nil {
		zl.Fatal("mongo init", zap.Error(err))
	}
	defer func() { _ = mc.Disconnect(context.Background()) }()

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer rdb.Close()

	kprod := events.NewPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
	defer func() { _ = kprod.Close() }()

	repo := repository.NewMongoRepository(mc.Database(cfg.Mongo.DB), zl)

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	watcher := settings.NewWatcher(repo, zl)
	go watcher.Run(ctx)

	recent := cache.NewRecentCache(rdb)
	msgSvc := service.NewMessageService(repo, recent, kprod, zl)
	adminSvc := service.NewAdminService(repo, kprod, zl)

	jv, err := auth.NewValidator(cfg.JWT)
	if err != nil {
		zl.Fatal("jwt init", zap.Error(err))
	}

	wsrv := ws.NewServer(repo, watcher, jv, zl)
	app := api.NewServer(cfg, msgSvc, adminSvc, watcher, jv, rdb, wsrv, zl)

	go func() {
		if err := app.Listen(":" + cfg.App.PortString()); err != nil {
			zl.Fatal("server listen", zap.Error(err))
		}
	}()
	zl.Info("ephemeral-chat started", zap.String("port", cfg.App.PortString()))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt)
	<-quit

	stop()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = app.ShutdownWithContext(shutdownCtx)
	zl.Info("ephemeral-chat stopped")
}
