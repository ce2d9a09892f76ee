package main

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/honeynil/ecommerce-api/internal/api"
	"github.com/honeynil/ecommerce-api/internal/config"
	"github.com/honeynil/ecommerce-api/internal/handler"
	"github.com/honeynil/ecommerce-api/internal/infrastructure/auth"
	"github.com/honeynil/ecommerce-api/internal/infrastructure/kafka"
	"github.com/honeynil/ecommerce-api/internal/infrastructure/password"
	"github.com/honeynil/ecommerce-api/internal/infrastructure/redis"
	"github.com/honeynil/ecommerce-api/internal/observability"
	core "github.com/honeynil/ecommerce-api/internal/repository/postgres"
	service "github.com/honeynil/ecommerce-api/internal/services"
	_ "github.com/lib/pq"
)

func main() {
	ctx := context.Background()
	cfg := config.Load()

	// Логи, метрики, трейсы
	shutdownTracing, metricsHandler := observability.Setup(ctx, cfg.ServiceName, cfg.OTLPEndpoint)
	defer shutdownTracing(context.Background())

	db, err := sql.Open("postgres", cfg.PostgresDSN)
	if err != nil {
		slog.Error("failed to open Postgres", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	err = db.PingContext(pingCtx)
	cancel()
	if err != nil {
		slog.Error("failed to connect to Postgres", "error", err)
		os.Exit(1)
	}
	if err := core.Migrate(ctx, db); err != nil {
		slog.Error("failed to migrate database", "error", err)
		os.Exit(1)
	}

	// The blacklist stays correct without Redis, only slower.
	var cache redis.RedisClient
	if client, err := redis.NewClient(ctx, cfg.RedisAddr); err != nil {
		slog.Warn("running without blacklist cache", "error", err)
	} else {
		cache = client
		defer client.Close()
	}

	var events kafka.EventPublisher
	if len(cfg.KafkaBrokers) > 0 {
		producer := kafka.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopic)
		events = producer
		defer producer.Close()
	}

	codec, err := auth.NewTokenCodec([]byte(cfg.JWTSecret), cfg.AccessTokenLifetime, cfg.RefreshTokenLifetime)
	if err != nil {
		slog.Error("failed to create token codec", "error", err)
		os.Exit(1)
	}
	cookies := auth.NewCookieTransport(cfg.Cookie)

	userRepo := core.NewPostgresUserRepository(db)
	blacklistRepo := core.NewPostgresBlacklistRepository(db)

	blacklist := service.NewTokenBlacklist(blacklistRepo, cache, cfg.RefreshTokenLifetime)
	authService := service.NewAuthService(
		userRepo,
		blacklist,
		codec,
		password.NewHasher(cfg.BcryptCost),
		password.DefaultPolicy(cfg.PasswordMinLength),
		events,
		service.WithBlacklistAfterRotation(cfg.BlacklistAfterRotation),
	)
	userService := service.NewUserService(userRepo)

	router := api.SetupRouter(api.RouterDeps{
		Handler:        handler.NewHandler(authService, userService, cookies),
		Codec:          codec,
		Cookies:        cookies,
		MetricsHandler: metricsHandler,
		CORSOrigins:    cfg.CORSOrigins,
	})

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		slog.Info("starting server", "addr", cfg.HTTPAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown failed", "error", err)
	}
	slog.Info("server stopped")
}
