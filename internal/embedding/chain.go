package embedding

import (
	"context"
	"log/slog"

	"github.com/neuraplay/recall/internal/metrics"
)

// Chain tries the primary (remote) provider and absorbs its failure into
// the deterministic fallback. It upholds the provider guarantee that a
// vector of the configured dimensionality always comes back.
type Chain struct {
	primary  Provider
	fallback *Hash
}

// NewChain creates a provider chain. primary may be nil, in which case
// every call is served by the hash fallback.
func NewChain(primary Provider, fallback *Hash) *Chain {
	return &Chain{primary: primary, fallback: fallback}
}

// Embed returns a vector for text. It never returns an error.
func (c *Chain) Embed(ctx context.Context, text string) ([]float32, error) {
	if c.primary != nil {
		vec, err := c.primary.Embed(ctx, text)
		if err == nil {
			return vec, nil
		}
		slog.Warn("remote embedding unavailable, using hash fallback", "error", err)
		metrics.EmbeddingFallbacksTotal.Inc()
	}
	return c.fallback.Embed(ctx, text)
}

func (c *Chain) Dimensions() int {
	return c.fallback.Dimensions()
}
