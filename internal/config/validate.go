package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

// Validate checks Config for production-critical problems.
// It collects all errors into a single joined error.
func (c *Config) Validate() error {
	var errs []string

	// JWT secret
	if len(c.JWT.AccessSecret) < 32 {
		errs = append(errs, "JWT_ACCESS_SECRET must be at least 32 characters")
	}

	// DB password
	if c.DB.Password == "" {
		errs = append(errs, "DB_PASSWORD is required")
	}

	// Port ranges
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("SERVER_PORT must be 1–65535, got %d", c.Server.Port))
	}
	if c.DB.Port < 1 || c.DB.Port > 65535 {
		errs = append(errs, fmt.Sprintf("DB_PORT must be 1–65535, got %d", c.DB.Port))
	}
	if c.Redis.Port < 1 || c.Redis.Port > 65535 {
		errs = append(errs, fmt.Sprintf("REDIS_PORT must be 1–65535, got %d", c.Redis.Port))
	}

	// Embedding provider
	switch c.Embedding.Provider {
	case "gemini":
		if c.Embedding.GeminiProject == "" {
			errs = append(errs, "EMBEDDING_GEMINI_PROJECT is required when EMBEDDING_PROVIDER=gemini")
		}
	case "hash":
		// Deterministic local provider, offline by construction.
		slog.Warn("EMBEDDING_PROVIDER is 'hash' — remote embedding model disabled")
	default:
		errs = append(errs, fmt.Sprintf("EMBEDDING_PROVIDER must be 'gemini' or 'hash', got %q", c.Embedding.Provider))
	}
	if c.Embedding.Dimensions < 8 {
		errs = append(errs, fmt.Sprintf("EMBEDDING_DIMENSIONS must be at least 8, got %d", c.Embedding.Dimensions))
	}

	// Tier timeouts
	if c.Search.AcceleratedTimeout <= 0 || c.Search.VectorTimeout <= 0 || c.Search.TextTimeout <= 0 {
		errs = append(errs, "search tier timeouts must be positive")
	}
	if c.Search.DefaultThreshold < 0 || c.Search.DefaultThreshold > 1 {
		errs = append(errs, fmt.Sprintf("SEARCH_DEFAULT_THRESHOLD must be 0–1, got %g", c.Search.DefaultThreshold))
	}

	if len(errs) > 0 {
		return errors.New("config validation failed:\n  " + strings.Join(errs, "\n  "))
	}
	return nil
}
