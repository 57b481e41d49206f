package memory

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

// TextStore is the last-resort tier: Postgres full-text ranking plus
// trigram similarity for partial matches. It needs no embeddings, so it
// keeps answering while the vector path is down.
type TextStore struct {
	pool *pgxpool.Pool
}

// NewTextStore creates the full-text tier.
func NewTextStore(pool *pgxpool.Pool) *TextStore {
	return &TextStore{pool: pool}
}

func (s *TextStore) Name() string { return SourceText }

func (s *TextStore) Search(ctx context.Context, q Query) ([]SearchResult, error) {
	if strings.TrimSpace(q.Text) == "" {
		return nil, nil
	}

	args := []any{q.Text, q.UserID}
	where := []string{
		"user_id = $2",
		"content <> ''",
		"(content_tsv @@ websearch_to_tsquery('english', $1) OR similarity(content, $1) > 0.2)",
	}
	appendFilters(&where, &args, q.Filters)
	args = append(args, q.Limit)

	sql := fmt.Sprintf(
		`SELECT %s,
		        GREATEST(ts_rank(content_tsv, websearch_to_tsquery('english', $1)),
		                 similarity(content, $1)) AS score
		 FROM memories
		 WHERE %s
		 ORDER BY score DESC
		 LIMIT $%d`,
		resultColumns, strings.Join(where, " AND "), len(args),
	)

	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("text search: %w", err)
	}
	defer rows.Close()

	var results []SearchResult
	for rows.Next() {
		r, err := scanResult(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scanning text result: %w", err)
		}
		r.Source = SourceText
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("text search rows: %w", err)
	}

	normalizeRanks(results)
	return results, nil
}

// normalizeRanks maps the raw lexical scores onto the same 0..1 scale
// the other tiers report. ts_rank values are corpus-dependent, so the
// batch is scaled against its own best hit.
func normalizeRanks(results []SearchResult) {
	var max float64
	for _, r := range results {
		if r.Similarity > max {
			max = r.Similarity
		}
	}
	if max <= 0 {
		return
	}
	for i := range results {
		results[i].Similarity = clamp01(results[i].Similarity / max)
	}
}

// Store on the text tier persists the record without its embedding; the
// generated tsvector column keeps it searchable.
func (s *TextStore) Store(ctx context.Context, rec *Record) error {
	stripped := *rec
	stripped.Embedding = nil
	vs := VectorStore{pool: s.pool}
	if err := vs.Store(ctx, &stripped); err != nil {
		return err
	}
	rec.ID = stripped.ID
	return nil
}
