package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/dotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	Server    ServerConfig
	DB        DBConfig
	Redis     RedisConfig
	NATS      NATSConfig
	JWT       JWTConfig
	Embedding EmbeddingConfig
	Search    SearchConfig
	Log       LogConfig
}

type ServerConfig struct {
	Host               string
	Port               int
	CORSAllowedOrigins []string
	RateLimitMax       int
	RateLimitWindowSec int
}

type DBConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
	MaxConns int32
}

func (c DBConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Name, c.SSLMode)
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type NATSConfig struct {
	URL     string
	Enabled bool
}

type JWTConfig struct {
	AccessSecret string
	AccessExpiry time.Duration
}

// EmbeddingConfig configures the remote embedding model and its local fallback.
type EmbeddingConfig struct {
	Provider       string // "gemini" or "hash"
	GeminiProject  string
	GeminiLocation string
	GeminiModel    string
	Dimensions     int
	CacheTTL       time.Duration
}

// SearchConfig configures the retrieval tier chain.
type SearchConfig struct {
	AcceleratedEnabled bool
	AcceleratedTimeout time.Duration
	VectorTimeout      time.Duration
	TextTimeout        time.Duration
	DefaultLimit       int
	DefaultThreshold   float64
	ScoringJSON        string
}

// Ceiling is the hard upper bound for one search request across all tiers.
func (c SearchConfig) Ceiling() time.Duration {
	return c.AcceleratedTimeout + c.VectorTimeout + c.TextTimeout
}

type LogConfig struct {
	Level  string
	Format string
}

func Load() (*Config, error) {
	k := koanf.New(".")

	// Load .env file if it exists (ignore error if missing)
	_ = k.Load(file.Provider(".env"), dotenv.Parser())

	// Load environment variables (override .env)
	err := k.Load(env.Provider("", ".", func(s string) string {
		return strings.ToLower(strings.ReplaceAll(s, "_", "."))
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("loading env vars: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Host:               k.String("server.host"),
			Port:               k.Int("server.port"),
			RateLimitMax:       k.Int("server.ratelimit.max"),
			RateLimitWindowSec: k.Int("server.ratelimit.window.sec"),
		},
		DB: DBConfig{
			Host:     k.String("db.host"),
			Port:     k.Int("db.port"),
			User:     k.String("db.user"),
			Password: k.String("db.password"),
			Name:     k.String("db.name"),
			SSLMode:  k.String("db.sslmode"),
			MaxConns: int32(k.Int("db.max.conns")),
		},
		Redis: RedisConfig{
			Host:     k.String("redis.host"),
			Port:     k.Int("redis.port"),
			Password: k.String("redis.password"),
			DB:       k.Int("redis.db"),
		},
		NATS: NATSConfig{
			URL:     k.String("nats.url"),
			Enabled: k.Bool("nats.enabled"),
		},
		JWT: JWTConfig{
			AccessSecret: k.String("jwt.access.secret"),
		},
		Embedding: EmbeddingConfig{
			Provider:       k.String("embedding.provider"),
			GeminiProject:  k.String("embedding.gemini.project"),
			GeminiLocation: k.String("embedding.gemini.location"),
			GeminiModel:    k.String("embedding.gemini.model"),
			Dimensions:     k.Int("embedding.dimensions"),
		},
		Search: SearchConfig{
			AcceleratedEnabled: k.Bool("search.accelerated.enabled"),
			DefaultLimit:       k.Int("search.default.limit"),
			DefaultThreshold:   k.Float64("search.default.threshold"),
			ScoringJSON:        k.String("search.scoring.json"),
		},
		Log: LogConfig{
			Level:  k.String("log.level"),
			Format: k.String("log.format"),
		},
	}

	if origins := k.String("cors.allowed.origins"); origins != "" {
		for _, o := range strings.Split(origins, ",") {
			if o = strings.TrimSpace(o); o != "" {
				cfg.Server.CORSAllowedOrigins = append(cfg.Server.CORSAllowedOrigins, o)
			}
		}
	}

	// Apply defaults
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.RateLimitMax == 0 {
		cfg.Server.RateLimitMax = 120
	}
	if cfg.Server.RateLimitWindowSec == 0 {
		cfg.Server.RateLimitWindowSec = 60
	}
	if len(cfg.Server.CORSAllowedOrigins) == 0 {
		cfg.Server.CORSAllowedOrigins = []string{"*"}
	}
	if cfg.DB.Host == "" {
		cfg.DB.Host = "localhost"
	}
	if cfg.DB.Port == 0 {
		cfg.DB.Port = 5432
	}
	if cfg.DB.User == "" {
		cfg.DB.User = "recall"
	}
	if cfg.DB.Name == "" {
		cfg.DB.Name = "recall"
	}
	if cfg.DB.SSLMode == "" {
		cfg.DB.SSLMode = "disable"
	}
	if cfg.DB.MaxConns == 0 {
		cfg.DB.MaxConns = 25
	}
	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
	if cfg.NATS.URL == "" {
		cfg.NATS.URL = "nats://localhost:4222"
	}
	if cfg.Embedding.Provider == "" {
		cfg.Embedding.Provider = "gemini"
	}
	if cfg.Embedding.GeminiLocation == "" {
		cfg.Embedding.GeminiLocation = "us-central1"
	}
	if cfg.Embedding.GeminiModel == "" {
		cfg.Embedding.GeminiModel = "gemini-embedding-001"
	}
	if cfg.Embedding.Dimensions == 0 {
		cfg.Embedding.Dimensions = 768
	}
	if cfg.Search.DefaultLimit == 0 {
		cfg.Search.DefaultLimit = 15
	}
	if cfg.Search.DefaultThreshold == 0 {
		cfg.Search.DefaultThreshold = 0.6
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "debug"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}

	// Parse durations
	cfg.JWT.AccessExpiry, err = parseDuration(k.String("jwt.access.expiry"), "1h")
	if err != nil {
		return nil, fmt.Errorf("parsing jwt access expiry: %w", err)
	}
	cfg.Embedding.CacheTTL, err = parseDuration(k.String("embedding.cache.ttl"), "24h")
	if err != nil {
		return nil, fmt.Errorf("parsing embedding cache ttl: %w", err)
	}
	cfg.Search.AcceleratedTimeout, err = parseDuration(k.String("search.accelerated.timeout"), "2s")
	if err != nil {
		return nil, fmt.Errorf("parsing accelerated tier timeout: %w", err)
	}
	cfg.Search.VectorTimeout, err = parseDuration(k.String("search.vector.timeout"), "5s")
	if err != nil {
		return nil, fmt.Errorf("parsing vector tier timeout: %w", err)
	}
	cfg.Search.TextTimeout, err = parseDuration(k.String("search.text.timeout"), "5s")
	if err != nil {
		return nil, fmt.Errorf("parsing text tier timeout: %w", err)
	}

	return cfg, nil
}

func parseDuration(s, fallback string) (time.Duration, error) {
	if s == "" {
		s = fallback
	}
	return time.ParseDuration(s)
}
