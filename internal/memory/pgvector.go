package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	pgvector "github.com/pgvector/pgvector-go"
)

// VectorStore is the plain vector tier: cosine similarity through the
// store's native distance operator, re-weighted with a composite
// relevance score computed over the fetched rows.
type VectorStore struct {
	pool *pgxpool.Pool
}

// NewVectorStore creates the pgvector-backed tier.
func NewVectorStore(pool *pgxpool.Pool) *VectorStore {
	return &VectorStore{pool: pool}
}

func (s *VectorStore) Name() string { return SourceVector }

// Ping reports whether the durable store is reachable.
func (s *VectorStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

const resultColumns = `id, user_id, memory_key, content, category, entity_type, metadata, created_at`

// appendFilters renders the shared filter predicates into WHERE clauses.
func appendFilters(where *[]string, args *[]any, f Filters) {
	if len(f.ContentTypes) > 0 {
		*args = append(*args, f.ContentTypes)
		*where = append(*where, fmt.Sprintf("category = ANY($%d)", len(*args)))
	}
	if len(f.Categories) > 0 {
		*args = append(*args, f.Categories)
		*where = append(*where, fmt.Sprintf("category = ANY($%d)", len(*args)))
	}
	if len(f.ExcludeCategories) > 0 {
		*args = append(*args, f.ExcludeCategories)
		*where = append(*where, fmt.Sprintf("NOT (category = ANY($%d))", len(*args)))
	}
	if f.QualityMin > 0 {
		*args = append(*args, f.QualityMin)
		*where = append(*where, fmt.Sprintf("COALESCE((metadata->>'importance_score')::float, 0.5) >= $%d", len(*args)))
	}
	if f.TimeRange != "" {
		*args = append(*args, timeRangeInterval(f.TimeRange))
		*where = append(*where, fmt.Sprintf("created_at >= now() - ($%d)::interval", len(*args)))
	}
}

func (s *VectorStore) Search(ctx context.Context, q Query) ([]SearchResult, error) {
	if len(q.Vector) == 0 {
		return nil, fmt.Errorf("%w: no query vector", ErrBackendUnavailable)
	}

	vec := pgvector.NewVector(q.Vector)
	args := []any{vec, q.UserID}
	where := []string{
		"user_id = $2",
		"embedding IS NOT NULL",
		"content <> ''",
	}
	appendFilters(&where, &args, q.Filters)

	args = append(args, q.Threshold)
	where = append(where, fmt.Sprintf("1 - (embedding <=> $1) >= $%d", len(args)))
	args = append(args, q.Limit)

	sql := fmt.Sprintf(
		`SELECT %s, 1 - (embedding <=> $1) AS similarity
		 FROM memories
		 WHERE %s
		 ORDER BY embedding <=> $1
		 LIMIT $%d`,
		resultColumns, strings.Join(where, " AND "), len(args),
	)

	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}
	defer rows.Close()

	var results []SearchResult
	for rows.Next() {
		r, err := scanResult(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scanning vector result: %w", err)
		}
		r.Source = SourceVector
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("vector search rows: %w", err)
	}

	reweight(results, q.Text)
	s.touchAccessCounts(results)
	return results, nil
}

type scanFunc func(dest ...any) error

func scanResult(scan scanFunc) (SearchResult, error) {
	var (
		r    SearchResult
		meta []byte
	)
	if err := scan(&r.ID, new(string), &r.Key, &r.Content, &r.Category, &r.EntityType, &meta, &r.CreatedAt, &r.Similarity); err != nil {
		return r, err
	}
	if len(meta) > 0 {
		if err := json.Unmarshal(meta, &r.Metadata); err != nil {
			r.Metadata = map[string]any{}
		}
	}
	return r, nil
}

// reweight replaces the raw cosine similarity with the composite
// relevance score: 0.6 similarity, 0.2 keyword overlap, 0.1 quality,
// 0.05 log usage, 0.05 length relevance.
func reweight(results []SearchResult, queryText string) {
	terms := tokenizeQuery(queryText)
	for i := range results {
		r := &results[i]
		quality := clamp01(metaFloat(r.Metadata, MetaImportanceScore, 0.5))
		usage := metaFloat(r.Metadata, MetaAccessCount, 0)
		logUsage := math.Min(1, math.Log1p(usage)/math.Log1p(100))

		r.Similarity = 0.6*r.Similarity +
			0.2*keywordOverlap(terms, r.Content) +
			0.1*quality +
			0.05*logUsage +
			0.05*lengthRelevance(r.Content)
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Similarity > results[j].Similarity
	})
}

func tokenizeQuery(text string) []string {
	var terms []string
	for _, tok := range strings.Fields(strings.ToLower(text)) {
		tok = strings.Trim(tok, ".,!?'\"")
		if len(tok) >= 3 {
			terms = append(terms, tok)
		}
	}
	return terms
}

func keywordOverlap(terms []string, content string) float64 {
	if len(terms) == 0 {
		return 0
	}
	c := strings.ToLower(content)
	var hits int
	for _, t := range terms {
		if strings.Contains(c, t) {
			hits++
		}
	}
	return float64(hits) / float64(len(terms))
}

// lengthRelevance prefers contents in the useful 20–400 char band; very
// short fragments and very long dumps rank lower.
func lengthRelevance(content string) float64 {
	n := float64(len(content))
	switch {
	case n == 0:
		return 0
	case n < 20:
		return n / 20
	case n <= 400:
		return 1
	default:
		return 400 / n
	}
}

func clamp01(v float64) float64 {
	return math.Min(1, math.Max(0, v))
}

// touchAccessCounts bumps usage counters for the returned rows. It is a
// soft popularity signal: fire-and-forget, loss under concurrency is
// acceptable, and it must never block the response.
func (s *VectorStore) touchAccessCounts(results []SearchResult) {
	if len(results) == 0 {
		return
	}
	ids := make([]uuid.UUID, len(results))
	for i, r := range results {
		ids[i] = r.ID
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()

		_, err := s.pool.Exec(ctx,
			`UPDATE memories
			 SET metadata = jsonb_set(metadata, '{access_count}',
			     to_jsonb(COALESCE((metadata->>'access_count')::int, 0) + 1), true)
			 WHERE id = ANY($1)`,
			ids,
		)
		if err != nil {
			slog.Debug("access count bump failed", "error", err)
		}
	}()
}

func (s *VectorStore) Store(ctx context.Context, rec *Record) error {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}

	meta, err := json.Marshal(rec.Metadata)
	if err != nil {
		return fmt.Errorf("marshaling metadata: %w", err)
	}

	if len(rec.Embedding) > 0 {
		vec := pgvector.NewVector(rec.Embedding)
		_, err = s.pool.Exec(ctx,
			`INSERT INTO memories (id, user_id, memory_key, content, embedding, category, entity_type, metadata)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			 ON CONFLICT (user_id, memory_key) DO UPDATE SET
			   content = EXCLUDED.content,
			   embedding = EXCLUDED.embedding,
			   category = EXCLUDED.category,
			   entity_type = EXCLUDED.entity_type,
			   metadata = EXCLUDED.metadata,
			   updated_at = now()`,
			rec.ID, rec.UserID, rec.Key, rec.Content, vec, rec.Category, rec.EntityType, meta,
		)
		if err != nil {
			return fmt.Errorf("inserting memory with embedding: %w", err)
		}
		return nil
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO memories (id, user_id, memory_key, content, category, entity_type, metadata)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (user_id, memory_key) DO UPDATE SET
		   content = EXCLUDED.content,
		   category = EXCLUDED.category,
		   entity_type = EXCLUDED.entity_type,
		   metadata = EXCLUDED.metadata,
		   updated_at = now()`,
		rec.ID, rec.UserID, rec.Key, rec.Content, rec.Category, rec.EntityType, meta,
	)
	if err != nil {
		return fmt.Errorf("inserting memory: %w", err)
	}
	return nil
}

// ListByUser returns paginated memories for the dashboard.
func (s *VectorStore) ListByUser(ctx context.Context, userID string, page, pageSize int) ([]Record, error) {
	offset := (page - 1) * pageSize
	rows, err := s.pool.Query(ctx,
		`SELECT id, user_id, memory_key, content, category, entity_type, metadata, created_at, updated_at
		 FROM memories
		 WHERE user_id = $1
		 ORDER BY updated_at DESC
		 LIMIT $2 OFFSET $3`,
		userID, pageSize, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("listing memories: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var (
			r    Record
			meta []byte
		)
		if err := rows.Scan(&r.ID, &r.UserID, &r.Key, &r.Content, &r.Category, &r.EntityType, &meta, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning memory: %w", err)
		}
		if len(meta) > 0 {
			_ = json.Unmarshal(meta, &r.Metadata)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// CountByUser returns the total number of memories for a user.
func (s *VectorStore) CountByUser(ctx context.Context, userID string) (int64, error) {
	var count int64
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM memories WHERE user_id = $1`, userID,
	).Scan(&count)
	return count, err
}

// Delete removes a single memory scoped to its owner.
func (s *VectorStore) Delete(ctx context.Context, id uuid.UUID, userID string) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM memories WHERE id = $1 AND user_id = $2`, id, userID,
	)
	if err != nil {
		return fmt.Errorf("deleting memory: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("memory not found")
	}
	return nil
}
