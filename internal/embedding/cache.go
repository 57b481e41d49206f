package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache wraps a Provider with a best-effort Redis cache keyed by content
// hash. Remote embedding calls are the expensive part of a store, and the
// same fact text recurs across sessions, so hits are common. Cache
// failures degrade to a plain provider call, never to an error.
type Cache struct {
	inner  Provider
	client *redis.Client
	ttl    time.Duration
}

// NewCache creates a caching provider. client may be nil (no caching).
func NewCache(inner Provider, client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{inner: inner, client: client, ttl: ttl}
}

func cacheKey(text string) string {
	sum := sha256.Sum256([]byte(text))
	return fmt.Sprintf("emb:%s", hex.EncodeToString(sum[:]))
}

func (c *Cache) Embed(ctx context.Context, text string) ([]float32, error) {
	if c.client == nil || text == "" {
		return c.inner.Embed(ctx, text)
	}

	key := cacheKey(text)
	if data, err := c.client.Get(ctx, key).Bytes(); err == nil {
		var vec []float32
		if err := json.Unmarshal(data, &vec); err == nil && len(vec) == c.inner.Dimensions() {
			return vec, nil
		}
	}

	vec, err := c.inner.Embed(ctx, text)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(vec); err == nil {
		if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
			slog.Debug("embedding cache write failed", "error", err)
		}
	}
	return vec, nil
}

func (c *Cache) Dimensions() int {
	return c.inner.Dimensions()
}
