// Package embedding turns free text into fixed-length vectors for the
// memory tiers. The remote Gemini model is the primary path; a pure,
// deterministic hashing embedder backs it so callers always get a vector.
package embedding

import (
	"context"
	"errors"
)

// ErrUnavailable signals that the remote embedding model could not serve.
// It is always recoverable: the caller falls back to the hash provider.
var ErrUnavailable = errors.New("embedding model unavailable")

// Provider converts text into a fixed-length vector.
type Provider interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Dimensions() int
}
