package memory

import (
	"context"
	"errors"
)

// Tier source tags.
const (
	SourceAccelerated = "accelerated"
	SourceVector      = "vector"
	SourceText        = "text"
)

// ErrBackendUnavailable signals that a similarity tier cannot serve this
// request. It is recoverable: the orchestrator falls to the next tier.
var ErrBackendUnavailable = errors.New("similarity backend unavailable")

// Query is the normalized input every tier accepts. Vector may be nil for
// tiers that rank lexically.
type Query struct {
	UserID    string
	Text      string
	Vector    []float32
	Filters   Filters
	Limit     int
	Threshold float64
}

// SimilarityBackend is one retrieval tier. Implementations own the
// normalization boundary: they always return the canonical SearchResult
// shape, so no downstream code branches on storage-layer response shapes.
type SimilarityBackend interface {
	Name() string
	Search(ctx context.Context, q Query) ([]SearchResult, error)
	Store(ctx context.Context, rec *Record) error
}
