package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"milsabores/internal/client/backend"
	"milsabores/internal/commons"
	"milsabores/internal/config"
	"milsabores/internal/infrastructure/logger"
	"milsabores/internal/infrastructure/mysql"
	"milsabores/internal/infrastructure/redis"
	"milsabores/internal/returns"
	"milsabores/internal/sale"
	"milsabores/internal/server"
	"milsabores/internal/settings"
)

func loadConfig() (*config.Config, error) {
	if path := os.Getenv("CONFIG_PATH"); path != "" {
		return commons.LoadConfig(path)
	}
	return config.Load()
}

func main() {
	cfg, err := loadConfig()
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	zapLogger, err := logger.New(cfg.Log.Level)
	if err != nil {
		log.Fatalf("creating logger: %v", err)
	}
	defer zapLogger.Sync()

	if cfg.Auth.JWTSecret == "" {
		zapLogger.Fatal("JWT_SECRET is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := mysql.NewConnection(ctx, cfg.Database)
	if err != nil {
		zapLogger.Fatal("connecting to database", zap.Error(err))
	}
	defer db.Close()
	zapLogger.Info("database connected")

	rdb, err := redis.NewClient(ctx, cfg.Redis)
	if err != nil {
		zapLogger.Fatal("connecting to redis", zap.Error(err))
	}
	defer rdb.Close()
	zapLogger.Info("redis connected", zap.String("addr", cfg.Redis.Addr))

	settingsModule, err := settings.NewModule(db, rdb, cfg, zapLogger)
	if err != nil {
		zapLogger.Fatal("building settings module", zap.Error(err))
	}
	if err := settingsModule.Service.Reload(ctx); err != nil {
		zapLogger.Warn("using default settings", zap.Error(err))
	}
	go func() {
		if err := settingsModule.Service.Listen(ctx); err != nil {
			zapLogger.Error("settings listener stopped", zap.Error(err))
		}
	}()

	client := backend.NewClient(cfg.Backend, zapLogger)
	saleModule := sale.NewModule(client, settingsModule.Service, zapLogger)
	go sweepBaskets(ctx, saleModule, cfg.Basket, zapLogger)

	health := server.NewHealthHandler(map[string]server.Check{
		"mysql": db.PingContext,
		"redis": func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
	}, zapLogger)

	router := server.NewRouter(server.Controllers{
		Basket:   saleModule.Controller,
		Returns:  returns.NewModule(client, settingsModule.Service, zapLogger),
		Settings: settingsModule.Controller,
		Health:   health,
	}, cfg.Auth.JWTSecret, zapLogger)

	srv := server.New(cfg.Server.Port, router, zapLogger)

	go func() {
		if err := srv.Start(); err != nil {
			zapLogger.Fatal("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	zapLogger.Info("received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLogger.Fatal("server shutdown failed", zap.Error(err))
	}

	zapLogger.Info("server stopped gracefully")
}

func sweepBaskets(ctx context.Context, m *sale.Module, cfg config.BasketConfig, logger *zap.Logger) {
	if cfg.SweepInterval <= 0 || cfg.MaxIdle <= 0 {
		return
	}
	ticker := time.NewTicker(cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := m.Store.Sweep(cfg.MaxIdle); n > 0 {
				logger.Info("idle baskets dropped", zap.Int("count", n), zap.Int("remaining", m.Store.Len()))
			}
		}
	}
}
