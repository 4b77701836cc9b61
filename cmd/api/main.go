// Command api is the SmartCollar notification backend.
//
// It serves the inbound telemetry endpoints, consumes the collar_telemetry
// change feed, runs the reminder sweep scheduler, and pushes mobile
// notifications through FCM.
//
// Usage:
//
//	smartcollar-api
//	PORT=8080 smartcollar-api
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"

	"github.com/kohizeri/smartcollar-api/internal/alert"
	"github.com/kohizeri/smartcollar-api/internal/api"
	"github.com/kohizeri/smartcollar-api/internal/api/handler"
	"github.com/kohizeri/smartcollar-api/internal/cache"
	"github.com/kohizeri/smartcollar-api/internal/config"
	"github.com/kohizeri/smartcollar-api/internal/db"
	"github.com/kohizeri/smartcollar-api/internal/listener"
	"github.com/kohizeri/smartcollar-api/internal/maintenance"
	"github.com/kohizeri/smartcollar-api/internal/push"
	"github.com/kohizeri/smartcollar-api/internal/reminder"
	"github.com/kohizeri/smartcollar-api/internal/store/postgres"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	// Load .env if present
	_ = godotenv.Load(".env")

	cfg, err := config.Load()
	if err != nil {
		logger.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Context with signal handling
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	// Connect to database
	logger.Info("Connecting to database...")
	pool, err := db.New(ctx, cfg)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	logger.Info("Database connected",
		"min_conns", cfg.DBPoolMinConns,
		"max_conns", cfg.DBPoolMaxConns)

	// Connect to Redis (cooldown state)
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	defer rdb.Close()
	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	logger.Info("Redis connected", "addr", cfg.RedisAddr)

	// Store with read cache on the telemetry hot path
	appCache := cache.New(cfg.CacheEnabled)
	st := postgres.New(pool.Pool, appCache)

	// Push delivery channel
	var sender push.Sender
	fcm, err := push.NewFCMSender(ctx, cfg.FCMCredentialsFile, logger)
	if err != nil {
		logger.Error("Failed to initialize FCM", "error", err)
		os.Exit(1)
	}
	if fcm != nil {
		sender = fcm
		logger.Info("FCM push delivery enabled")
	} else {
		sender = &push.LogSender{Logger: logger}
		logger.Info("Push delivery disabled (no FIREBASE_CREDENTIALS_FILE)")
	}

	// Alerting engine
	gate := alert.NewRedisGate(rdb, cfg.Cooldown, logger)
	dispatcher := alert.NewDispatcher(st, sender, logger)
	evaluator := alert.NewEvaluator(st, gate, dispatcher, logger)

	// Reminder sweep scheduler
	scheduler := reminder.New(st, dispatcher, cfg.ReminderSweepInterval, logger)
	go scheduler.Start(ctx)

	// LISTEN/NOTIFY consumer for collar telemetry writes
	go listener.Start(ctx, cfg.DatabaseURL, evaluator, logger)

	// Notification-log retention
	go maintenance.Start(ctx, st, maintenance.Config{
		CleanupInterval: cfg.CleanupInterval,
		Retention:       cfg.NotificationRetention,
	}, logger)

	// Router
	h := handler.New(st, evaluator, pool.HealthCheck, func(ctx context.Context) error {
		return rdb.Ping(ctx).Err()
	})
	router := api.NewRouter(h, cfg)

	// HTTP server
	addr := fmt.Sprintf("%s:%d", cfg.APIHost, cfg.APIPort)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("Starting SmartCollar API",
			"addr", addr,
			"environment", cfg.Environment,
			"cooldown", cfg.Cooldown,
			"sweep_interval", cfg.ReminderSweepInterval)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt
	<-ctx.Done()
	logger.Info("Shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Shutdown error", "error", err)
	}
	logger.Info("Server stopped")
}
