package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/hirehub/interview-engine/internal/api"
	"github.com/hirehub/interview-engine/internal/cleanup"
	"github.com/hirehub/interview-engine/internal/config"
	"github.com/hirehub/interview-engine/internal/evaluation"
	"github.com/hirehub/interview-engine/internal/notify"
	"github.com/hirehub/interview-engine/internal/question"
	"github.com/hirehub/interview-engine/internal/room"
	"github.com/hirehub/interview-engine/internal/schedule"
	"github.com/hirehub/interview-engine/internal/session"
	"github.com/hirehub/interview-engine/internal/storage"
)

func main() {
	// Setup structured logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	slog.Info("starting interview-engine",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
	)

	// Create context for initialization
	initCtx, initCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer initCancel()

	// Run database migrations
	slog.Info("running database migrations", "dir", cfg.Database.MigrationsDir)
	if err := storage.MigrateFromDSN(initCtx, cfg.Database.DSN, cfg.Database.MigrationsDir); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	// Initialize database repository
	repo, err := storage.NewPostgresRepository(initCtx, storage.PostgresConfig{
		DSN:          cfg.Database.DSN,
		MaxOpenConns: int32(cfg.Database.MaxOpenConns),
		MaxIdleConns: int32(cfg.Database.MaxIdleConns),
	})
	if err != nil {
		slog.Error("failed to create database repository", "error", err)
		os.Exit(1)
	}
	slog.Info("database connected successfully")

	// Initialize redis (session fanout + notifications)
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Address,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := redisClient.Ping(initCtx).Err(); err != nil {
		slog.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}
	slog.Info("redis connected successfully", "address", cfg.Redis.Address)

	notifier := notify.NewRedisDispatcher(redisClient, cfg.Notify.Channel)

	// Create context with cancellation for background workers
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Session fanout: local hub plus the cross-instance redis bus
	hub := session.NewHub()
	go hub.Run(ctx)

	bus := session.NewBus(redisClient, hub)
	go bus.Run(ctx)

	// Domain wiring
	engine := schedule.NewEngine(repo, notifier)
	rooms := room.NewManager(repo, notifier, cfg.Session.JoinGrace)
	coordinator := session.NewCoordinator(rooms, repo, hub, bus)
	questions := question.NewFlow(rooms, repo)
	results := evaluation.NewFinalizer(rooms, repo)

	// Start sweep worker
	sweeper := cleanup.NewSweeper(repo, cfg.Cleanup.Interval)
	sweeper.Start(ctx)

	// Setup HTTP server
	server := api.NewServer(cfg.Server, engine, rooms, coordinator, questions, results, hub, repo, redisClient)
	httpServer := &http.Server{
		Addr:        fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:     server.Router(),
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		slog.Info("HTTP server starting", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down gracefully...")

	// Cancel context to stop hub, bus and sweeper
	cancel()

	// Shutdown HTTP server with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	if err := redisClient.Close(); err != nil {
		slog.Error("redis close error", "error", err)
	}

	if err := repo.Close(); err != nil {
		slog.Error("repository close error", "error", err)
	}

	slog.Info("interview-engine stopped")
}
