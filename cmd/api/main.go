package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/neuraplay/recall/internal/api"
	"github.com/neuraplay/recall/internal/auth"
	"github.com/neuraplay/recall/internal/config"
	"github.com/neuraplay/recall/internal/database"
	"github.com/neuraplay/recall/internal/embedding"
	"github.com/neuraplay/recall/internal/memory"
	"github.com/neuraplay/recall/internal/middleware"
	inats "github.com/neuraplay/recall/internal/nats"
	iredis "github.com/neuraplay/recall/internal/redis"
	"github.com/neuraplay/recall/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("loading config", "error", err)
		os.Exit(1)
	}

	setupLogger(cfg.Log)

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	if path := os.Getenv("MIGRATIONS_PATH"); path != "" {
		if err := database.RunMigrations(cfg.DB.DSN(), path); err != nil {
			slog.Error("running migrations", "error", err)
			os.Exit(1)
		}
	}

	// PostgreSQL
	pool, err := database.NewPostgresPool(ctx, cfg.DB)
	if err != nil {
		slog.Error("connecting to postgres", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	// Redis
	redisClient, err := iredis.NewClient(ctx, cfg.Redis)
	if err != nil {
		slog.Error("connecting to redis", "error", err)
		os.Exit(1)
	}
	defer redisClient.Close()

	// NATS is optional: eventing off just means no dashboard signals
	var natsClient *inats.Client
	var events *inats.Publisher
	if cfg.NATS.Enabled {
		natsClient, err = inats.NewClient(ctx, cfg.NATS)
		if err != nil {
			slog.Warn("connecting to nats, continuing without eventing", "error", err)
		} else {
			defer natsClient.Close()
			events = inats.NewPublisher(natsClient.JetStream())
		}
	}

	// Embedding chain: remote model, redis lookaside cache, hash fallback
	hash := embedding.NewHash(cfg.Embedding.Dimensions)
	var primary embedding.Provider = hash
	if cfg.Embedding.Provider == "gemini" {
		gemini, err := embedding.NewGemini(ctx, cfg.Embedding)
		if err != nil {
			slog.Warn("gemini embedding unavailable, using hash fallback", "error", err)
		} else {
			primary = embedding.NewCache(gemini, redisClient, cfg.Embedding.CacheTTL)
		}
	}
	embedder := embedding.NewChain(primary, hash)

	// Search tiers
	accel := memory.NewAcceleratedStore(cfg.Search.AcceleratedEnabled)
	vector := memory.NewVectorStore(pool)
	text := memory.NewTextStore(pool)
	orch := memory.NewOrchestrator(embedder,
		[]memory.SimilarityBackend{accel, vector, text},
		cfg.Search, slog.Default())

	scorer := memory.NewScorer(memory.ParseScoringConfig([]byte(cfg.Search.ScoringJSON)))
	svc := memory.NewService(vector, text, accel, orch, scorer, embedder, events, slog.Default())
	handler := memory.NewHandler(svc)

	// Auth
	jwtManager := auth.NewJWTManager(cfg.JWT.AccessSecret, cfg.JWT.AccessExpiry)

	rateLimiter := middleware.NewRateLimiter(redisClient,
		cfg.Server.RateLimitMax, cfg.Server.RateLimitWindowSec)

	router := api.NewRouter(pool, redisClient, natsClient, api.RouterConfig{
		CORSAllowedOrigins: cfg.Server.CORSAllowedOrigins,
		APIRateLimiter:     rateLimiter.Middleware,
	}, api.HandlerSet{
		StoreMemory:        handler.Store,
		SearchMemories:     handler.Search,
		ListMemories:       handler.List,
		DeleteMemory:       handler.Delete,
		SearchCapabilities: handler.Capabilities,

		AuthMiddleware: auth.Middleware(jwtManager),
	})

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
