package memory

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"time"

	"github.com/google/uuid"
	chromem "github.com/philippgille/chromem-go"
)

// AcceleratedStore is the opportunistic first tier: an in-process
// approximate index that only knows about memories written since the
// service started. A miss here is normal and just means the query falls
// through to the durable tiers.
type AcceleratedStore struct {
	db      *chromem.DB
	enabled bool
}

// NewAcceleratedStore creates the in-process tier. When disabled it
// reports unavailable and the orchestrator skips straight past it.
func NewAcceleratedStore(enabled bool) *AcceleratedStore {
	return &AcceleratedStore{
		db:      chromem.NewDB(),
		enabled: enabled,
	}
}

func (s *AcceleratedStore) Name() string { return SourceAccelerated }

// Enabled reports whether the in-process tier participates in searches.
func (s *AcceleratedStore) Enabled() bool { return s.enabled }

// embeddings are always supplied by the caller, never computed here
func noEmbed(ctx context.Context, text string) ([]float32, error) {
	return nil, errors.New("external embeddings only")
}

func collectionName(userID string) string {
	return "memories-" + userID
}

func (s *AcceleratedStore) Search(ctx context.Context, q Query) ([]SearchResult, error) {
	if !s.enabled {
		return nil, fmt.Errorf("%w: accelerated tier disabled", ErrBackendUnavailable)
	}
	if len(q.Vector) == 0 {
		return nil, fmt.Errorf("%w: no query vector", ErrBackendUnavailable)
	}

	col := s.db.GetCollection(collectionName(q.UserID), noEmbed)
	if col == nil {
		return nil, nil
	}
	n := col.Count()
	if n == 0 {
		return nil, nil
	}
	if q.Limit > 0 && q.Limit < n {
		n = q.Limit
	}

	hits, err := col.QueryEmbedding(ctx, q.Vector, n, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("accelerated query: %w", err)
	}

	var results []SearchResult
	for _, h := range hits {
		sim := float64(h.Similarity)
		if sim < q.Threshold {
			continue
		}
		r := resultFromDocument(h, sim)
		if !matchesFilters(r, q.Filters) {
			continue
		}
		results = append(results, r)
	}
	return results, nil
}

func resultFromDocument(h chromem.Result, sim float64) SearchResult {
	id, _ := uuid.Parse(h.ID)
	r := SearchResult{
		ID:         id,
		Key:        h.Metadata["memory_key"],
		Content:    h.Content,
		Similarity: sim,
		Category:   h.Metadata["category"],
		EntityType: h.Metadata["entity_type"],
		Source:     SourceAccelerated,
		Metadata:   map[string]any{},
	}
	if src := h.Metadata[MetaSource]; src != "" {
		r.Metadata[MetaSource] = src
	}
	if imp := h.Metadata[MetaImportanceScore]; imp != "" {
		if v, err := strconv.ParseFloat(imp, 64); err == nil {
			r.Metadata[MetaImportanceScore] = v
		}
	}
	if ts := h.Metadata["created_at"]; ts != "" {
		if t, err := time.Parse(time.RFC3339, ts); err == nil {
			r.CreatedAt = t
		}
	}
	return r
}

// matchesFilters applies the shared search filters in process; the
// index itself only supports exact metadata matches.
func matchesFilters(r SearchResult, f Filters) bool {
	if len(f.ContentTypes) > 0 && !slices.Contains(f.ContentTypes, r.Category) {
		return false
	}
	if len(f.Categories) > 0 && !slices.Contains(f.Categories, r.Category) {
		return false
	}
	if slices.Contains(f.ExcludeCategories, r.Category) {
		return false
	}
	if f.QualityMin > 0 && metaFloat(r.Metadata, MetaImportanceScore, 0.5) < f.QualityMin {
		return false
	}
	if f.TimeRange != "" && !r.CreatedAt.IsZero() {
		if cutoff, ok := timeRangeCutoff(f.TimeRange); ok && r.CreatedAt.Before(cutoff) {
			return false
		}
	}
	return true
}

func timeRangeCutoff(timeRange string) (time.Time, bool) {
	days := map[string]int{"24h": 1, "7d": 7, "30d": 30, "90d": 90}[timeRange]
	if days == 0 {
		days = 30
	}
	return time.Now().AddDate(0, 0, -days), true
}

// Store indexes a freshly written memory. Records without embeddings
// are skipped; they are only reachable through the text tier.
func (s *AcceleratedStore) Store(ctx context.Context, rec *Record) error {
	if !s.enabled || len(rec.Embedding) == 0 {
		return nil
	}

	col, err := s.db.GetOrCreateCollection(collectionName(rec.UserID), nil, noEmbed)
	if err != nil {
		return fmt.Errorf("accelerated collection: %w", err)
	}

	meta := map[string]string{
		"memory_key":  rec.Key,
		"category":    rec.Category,
		"entity_type": rec.EntityType,
		"created_at":  time.Now().UTC().Format(time.RFC3339),
	}
	if src := metaString(rec.Metadata, MetaSource); src != "" {
		meta[MetaSource] = src
	}
	if imp := metaFloat(rec.Metadata, MetaImportanceScore, 0); imp > 0 {
		meta[MetaImportanceScore] = strconv.FormatFloat(imp, 'f', -1, 64)
	}

	err = col.AddDocument(ctx, chromem.Document{
		ID:        rec.ID.String(),
		Metadata:  meta,
		Embedding: rec.Embedding,
		Content:   rec.Content,
	})
	if err != nil {
		return fmt.Errorf("accelerated add: %w", err)
	}
	return nil
}

// Forget drops a memory from the in-process index after a delete.
func (s *AcceleratedStore) Forget(ctx context.Context, userID string, id uuid.UUID) {
	if !s.enabled {
		return
	}
	col := s.db.GetCollection(collectionName(userID), noEmbed)
	if col == nil {
		return
	}
	_ = col.Delete(ctx, nil, nil, id.String())
}
