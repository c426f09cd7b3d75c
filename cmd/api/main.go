package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/creatorhub-platform/creatorhub/internal/api"
	"github.com/creatorhub-platform/creatorhub/internal/auth"
	"github.com/creatorhub-platform/creatorhub/internal/config"
	"github.com/creatorhub-platform/creatorhub/internal/database"
	"github.com/creatorhub-platform/creatorhub/internal/events"
	"github.com/creatorhub-platform/creatorhub/internal/middleware"
	iredis "github.com/creatorhub-platform/creatorhub/internal/redis"
	"github.com/creatorhub-platform/creatorhub/internal/server"
	"github.com/creatorhub-platform/creatorhub/internal/subscription"
	"github.com/creatorhub-platform/creatorhub/internal/usage"
	"github.com/creatorhub-platform/creatorhub/internal/users"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("loading config", "error", err)
		os.Exit(1)
	}

	setupLogger(cfg.Log)

	if err := cfg.Validate(); err != nil {
		slog.Error("validating config", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	// PostgreSQL
	pool, err := database.NewPostgresPool(ctx, cfg.DB)
	if err != nil {
		slog.Error("connecting to postgres", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if cfg.DB.MigrationsPath != "" {
		if err := database.RunMigrations(cfg.DB.DSN(), cfg.DB.MigrationsPath); err != nil {
			slog.Error("running migrations", "error", err)
			os.Exit(1)
		}
	}

	// Redis
	redisClient, err := iredis.NewClient(ctx, cfg.Redis)
	if err != nil {
		slog.Error("connecting to redis", "error", err)
		os.Exit(1)
	}
	defer redisClient.Close()

	// NATS usage events (optional)
	var (
		eventsClient  *events.Client
		usageEvents   usage.Events
		eventsHealthy func() bool
	)
	if cfg.NATS.URL != "" {
		eventsClient, err = events.NewClient(ctx, cfg.NATS)
		if err != nil {
			slog.Error("connecting to NATS", "error", err)
			os.Exit(1)
		}
		defer eventsClient.Close()
		usageEvents = events.NewPublisher(eventsClient.JetStream())
		eventsHealthy = eventsClient.Healthy
	}

	// Auth
	jwtManager := auth.NewJWTManager(
		cfg.JWT.AccessSecret,
		cfg.JWT.RefreshSecret,
		cfg.JWT.AccessExpiry,
		cfg.JWT.RefreshExpiry,
	)
	authSvc := auth.NewService(jwtManager, redisClient)
	userRepo := users.NewRepository(pool)
	userSvc := users.NewService(userRepo)
	authHandler := auth.NewHandler(authSvc, userSvc)

	// Subscriptions
	subRepo := subscription.NewRepository(pool)
	subSvc := subscription.NewService(subRepo)
	subHandler := subscription.NewHandler(subSvc)

	// Usage quotas
	usageStore := usage.NewStore(pool)
	usageSvc := usage.NewService(usageStore, subSvc, usageEvents)
	usageHandler := usage.NewHandler(usageSvc)

	// Auth endpoint rate limiter
	authLimiter := middleware.NewRateLimiter(redisClient, "ratelimit:auth:",
		cfg.RateLimit.AuthMaxRequests, cfg.RateLimit.AuthWindowSec)

	// Router
	router := api.NewRouter(pool, api.RouterConfig{
		CORSAllowedOrigins: cfg.CORS.AllowedOrigins,
		AuthRateLimiter:    authLimiter.Middleware,
	}, api.HandlerSet{
		Register: authHandler.Register,
		Login:    authHandler.Login,
		Refresh:  authHandler.Refresh,
		Logout:   authHandler.Logout,

		CheckUsage:     usageHandler.Check,
		IncrementUsage: usageHandler.Increment,
		UsageStatus:    usageHandler.Status,

		GetSubscription: subHandler.Get,

		AuthMiddleware: auth.Middleware(authSvc),
		EventsHealthy:  eventsHealthy,
	})

	// Start server
	srv := server.New(cfg.Server, router)
	if err := srv.Start(); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}

func setupLogger(cfg config.LogConfig) {
	var handler slog.Handler

	opts := &slog.HandlerOptions{}
	switch cfg.Level {
	case "debug":
		opts.Level = slog.LevelDebug
	case "info":
		opts.Level = slog.LevelInfo
	case "warn":
		opts.Level = slog.LevelWarn
	case "error":
		opts.Level = slog.LevelError
	default:
		opts.Level = slog.LevelInfo
	}

	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	slog.SetDefault(slog.New(handler))
}
