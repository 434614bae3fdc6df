package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"taskplanner/internal/config"
	"taskplanner/internal/handler"
	"taskplanner/internal/httpserver"
	"taskplanner/internal/repository"
	"taskplanner/internal/service/auth"
	"taskplanner/internal/service/task"
	"taskplanner/pkg/db"
	"taskplanner/pkg/logger"
	"taskplanner/pkg/mq"
	"taskplanner/pkg/redis"
)

func main() {
	cfg := config.Load()

	log := logger.NewLogger()
	defer log.Sync()

	log.Info("Starting taskplanner...",
		zap.String("db_host", cfg.DB.Host),
		zap.Int("db_port", cfg.DB.Port),
		zap.String("http_port", cfg.Server.Port),
	)

	dbConn, err := db.NewConnection(cfg.DB, log)
	if err != nil {
		log.Fatal("Failed to init DB", zap.Error(err))
	}
	defer dbConn.Close()

	store := repository.NewStore(dbConn, log)

	var cache task.Cache
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(cfg.Redis)
		cache = task.NewRedisCache(rdb, log)
		log.Info("Redis cache enabled", zap.String("addr", cfg.Redis.Addr))
	}

	var pub task.Publisher
	if cfg.MQ.URL != "" {
		publisher, err := mq.NewPublisher(cfg.MQ.URL)
		if err != nil {
			log.Fatal("Failed to init MQ publisher", zap.Error(err))
		}
		defer publisher.Close()
		pub = publisher
		log.Info("MQ publisher connected")
	}

	taskSvc := task.NewService(store, cache, pub, log)
	authSvc := auth.NewService(store, cfg.JWT.Secret)

	router := httpserver.NewRouter(httpserver.Handlers{
		Auth:     handler.NewAuthHandler(authSvc, log),
		Task:     handler.NewTaskHandler(taskSvc, log),
		Category: handler.NewCategoryHandler(store, log),
		Tag:      handler.NewTagHandler(store, log),
	}, log, dbConn, cfg.JWT.Secret)

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	go func() {
		log.Info("HTTP server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down taskplanner gracefully...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error", zap.Error(err))
	} else {
		log.Info("HTTP server stopped")
	}

	log.Info("taskplanner shutdown complete")
}
