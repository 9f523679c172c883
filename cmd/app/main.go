package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"taskboard/internal/config"
	httpServer "taskboard/internal/http"
	"taskboard/internal/http/middleware"
	"taskboard/internal/logger"
	"taskboard/internal/repository"
	"taskboard/internal/service"
	"taskboard/internal/ws"

	"github.com/gin-gonic/gin"
)

// version is set at build time: -ldflags "-X main.version=..."
var version = "dev"

func main() {
	cfg := config.Load()
	logger.Init(cfg.LogLevel, cfg.LogJSON)

	if cfg.AuthEnabled() {
		service.InitJWT(cfg.JWTSecret)
	}

	ctx := context.Background()
	slot, err := repository.Open(ctx, cfg)
	if err != nil {
		logger.Fatal("failed to open storage", "driver", cfg.StorageDriver, "error", err)
	}
	defer slot.Close()

	store := service.NewTaskStore(slot, service.WithKey(cfg.StorageKey))
	if err := store.Load(ctx); err != nil {
		// non-fatal: start with an empty list
		logger.Warn("starting with empty task list", "error", err)
	}

	hub := ws.NewHub()
	hub.Attach(store)
	defer hub.Close()

	if rs, ok := slot.(*repository.RedisSlot); ok {
		middleware.UseRedisClient(rs.Client())
	} else {
		middleware.InitRedisRateLimiter(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	}

	r := gin.Default()
	httpServer.RegisterRoutes(r, httpServer.Deps{
		Store:   store,
		Hub:     hub,
		Slot:    slot,
		Config:  cfg,
		Version: version,
	})

	srv := &http.Server{
		Addr:    ":" + cfg.AppPort,
		Handler: r,
	}

	go func() {
		logger.Info("server started", "port", cfg.AppPort, "driver", cfg.StorageDriver, "auth", cfg.AuthEnabled())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("listen failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}

	logger.Info("server exited")
}
