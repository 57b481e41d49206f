package memory

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/neuraplay/recall/internal/embedding"
	"github.com/neuraplay/recall/internal/metrics"
	"github.com/neuraplay/recall/internal/nats"
)

// Service is the gateway the HTTP layer talks to. It owns the write
// path (classify, embed, persist, index) and the read path (orchestrate,
// score, shape the response).
type Service struct {
	vector *VectorStore
	text   *TextStore
	accel  *AcceleratedStore
	orch   *Orchestrator
	scorer *Scorer

	embedder embedding.Provider
	events   *nats.Publisher
	logger   *slog.Logger
}

func NewService(
	vector *VectorStore,
	text *TextStore,
	accel *AcceleratedStore,
	orch *Orchestrator,
	scorer *Scorer,
	embedder embedding.Provider,
	events *nats.Publisher,
	logger *slog.Logger,
) *Service {
	return &Service{
		vector:   vector,
		text:     text,
		accel:    accel,
		orch:     orch,
		scorer:   scorer,
		embedder: embedder,
		events:   events,
		logger:   logger,
	}
}

// Store persists one memory. Classification is derived from the key,
// never trusted from the caller. The write path degrades: if the vector
// write fails the record is stored text-only, and only when both writes
// fail does the caller see an error.
func (s *Service) Store(ctx context.Context, userID, key, content string, metadata map[string]any) (*Record, error) {
	key = strings.TrimSpace(key)
	content = strings.TrimSpace(content)
	if key == "" || content == "" {
		return nil, fmt.Errorf("memory key and content are required")
	}
	if metadata == nil {
		metadata = map[string]any{}
	}

	entityType := DetectEntityType(key)
	category := CategoryForKey(entityType, key)

	rec := &Record{
		ID:         uuid.New(),
		UserID:     userID,
		Key:        key,
		Content:    content,
		Category:   category,
		EntityType: entityType,
		Metadata:   metadata,
	}

	vec, err := s.embedder.Embed(ctx, content)
	if err != nil {
		s.logger.Warn("embedding content failed, storing text-only",
			"user_id", userID, "key", key, "error", err)
	} else {
		rec.Embedding = vec
	}

	if err := s.vector.Store(ctx, rec); err != nil {
		s.logger.Warn("vector store write failed, falling back to text-only",
			"user_id", userID, "key", key, "error", err)
		if terr := s.text.Store(ctx, rec); terr != nil {
			return nil, fmt.Errorf("storing memory: %w", terr)
		}
		rec.Embedding = nil
	}

	if rec.Embedding != nil {
		if err := s.accel.Store(ctx, rec); err != nil {
			s.logger.Debug("accelerated index write failed", "key", key, "error", err)
		}
	}

	metrics.MemoriesStoredTotal.WithLabelValues(entityType).Inc()

	if err := s.events.PublishMemoryStored(ctx, nats.MemoryStoredEvent{
		MemoryID:   rec.ID.String(),
		UserID:     userID,
		Key:        key,
		Category:   category,
		EntityType: entityType,
		HasVector:  rec.Embedding != nil,
		StoredAt:   time.Now().UTC(),
	}); err != nil {
		s.logger.Warn("publishing memory stored event", "error", err)
	}

	return rec, nil
}

// Search runs the tier chain and ranks what comes back. It always
// returns a successful response: a degraded deployment answers with
// whatever tier could serve, and a fully dark one answers empty.
func (s *Service) Search(ctx context.Context, userID, query string, filters Filters, limit int, threshold float64, qctx QueryContext) SearchResponse {
	out := s.orch.Search(ctx, Query{
		UserID:    userID,
		Text:      query,
		Filters:   filters,
		Limit:     limit,
		Threshold: threshold,
	})

	scored := s.scorer.Score(out.Results, qctx)

	resp := SearchResponse{
		Success:  true,
		Memories: scored,
		Count:    len(scored),
		Sources:  []string{},
	}
	if out.Tier != "" {
		resp.Sources = []string{out.Tier}
	}

	if out.Degraded() && len(out.Failed) > 0 {
		if err := s.events.PublishSearchDegraded(ctx, nats.SearchDegradedEvent{
			UserID:       userID,
			RequestedAt:  time.Now().UTC(),
			ServedBy:     out.Tier,
			FailedTiers:  out.Failed,
			ResultsCount: len(scored),
		}); err != nil {
			s.logger.Warn("publishing search degraded event", "error", err)
		}
	}

	return resp
}

// List returns a page of the user's memories plus the total count.
func (s *Service) List(ctx context.Context, userID string, page, pageSize int) ([]Record, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	records, err := s.vector.ListByUser(ctx, userID, page, pageSize)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.vector.CountByUser(ctx, userID)
	if err != nil {
		return nil, 0, err
	}
	return records, total, nil
}

// Delete removes a memory from the durable store and the in-process index.
func (s *Service) Delete(ctx context.Context, userID string, id uuid.UUID) error {
	if err := s.vector.Delete(ctx, id, userID); err != nil {
		return err
	}
	s.accel.Forget(ctx, userID, id)

	if err := s.events.PublishMemoryDeleted(ctx, nats.MemoryDeletedEvent{
		MemoryID:  id.String(),
		UserID:    userID,
		DeletedAt: time.Now().UTC(),
	}); err != nil {
		s.logger.Warn("publishing memory deleted event", "error", err)
	}
	return nil
}

// Capabilities reports which tiers this deployment can currently serve
// from, so clients can adapt their expectations.
func (s *Service) Capabilities(ctx context.Context) Capabilities {
	durable := s.vector.Ping(ctx) == nil
	return Capabilities{
		HNSW:   s.accel.Enabled(),
		Vector: durable,
		Text:   durable,
	}
}
