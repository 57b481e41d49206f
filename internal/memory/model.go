package memory

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Entity types: whose fact a memory records. A family member's name is a
// `family` fact, never a `user` one, no matter what the content says.
const (
	EntityUser    = "user"
	EntityFamily  = "family"
	EntityFriend  = "friend"
	EntityPet     = "pet"
	EntityGeneral = "general"
)

// Record categories. The user/family/friend/pet categories mirror entity
// types for person-scoped facts; the rest classify what the fact is about.
const (
	CategoryUser         = "user"
	CategoryFamily       = "family"
	CategoryFriend       = "friend"
	CategoryPet          = "pet"
	CategoryIdentity     = "identity"
	CategoryRelationship = "relationship"
	CategoryPreference   = "preference"
	CategoryGoal         = "goal"
	CategoryEducation    = "education"
	CategoryActivity     = "activity"
	CategoryCanvas       = "canvas"
	CategoryGeneral      = "general"
)

// Metadata keys the engine reads and writes.
const (
	MetaSource          = "source"
	MetaImportanceScore = "importance_score"
	MetaAccessCount     = "access_count"
)

// Record is a stored memory row.
type Record struct {
	ID         uuid.UUID      `json:"id"`
	UserID     string         `json:"user_id"`
	Key        string         `json:"memory_key"`
	Content    string         `json:"content"`
	Embedding  []float32      `json:"embedding,omitempty"`
	Category   string         `json:"category"`
	EntityType string         `json:"entity_type"`
	Metadata   map[string]any `json:"metadata"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

// importance returns the record's importance score, defaulting per cfg.
func metaFloat(meta map[string]any, key string, def float64) float64 {
	switch v := meta[key].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	}
	return def
}

func metaString(meta map[string]any, key string) string {
	s, _ := meta[key].(string)
	return s
}

// SearchResult is the canonical shape every tier normalizes into.
// Produced fresh per query, never persisted.
type SearchResult struct {
	ID         uuid.UUID      `json:"id"`
	Key        string         `json:"memory_key"`
	Content    string         `json:"content"`
	Similarity float64        `json:"similarity"`
	Category   string         `json:"category"`
	EntityType string         `json:"entity_type"`
	Metadata   map[string]any `json:"metadata"`
	CreatedAt  time.Time      `json:"created_at"`
	Source     string         `json:"source"` // accelerated|vector|text
}

// Filters narrow a search before scoring. Categories/ExcludeCategories are
// hard include/exclude; the scorer's context boost is the soft counterpart.
type Filters struct {
	ContentTypes      []string `json:"content_types,omitempty"`
	Categories        []string `json:"categories,omitempty"`
	ExcludeCategories []string `json:"exclude_categories,omitempty"`
	TimeRange         string   `json:"time_range,omitempty"`
	QualityMin        float64  `json:"quality_min,omitempty"`
}

// timeRangeInterval maps the API's relative time ranges onto SQL intervals.
func timeRangeInterval(timeRange string) string {
	switch timeRange {
	case "24h":
		return "1 day"
	case "7d":
		return "7 days"
	case "30d":
		return "30 days"
	case "90d":
		return "90 days"
	default:
		return "30 days"
	}
}

// QueryContext carries the caller's intent signals for one search.
// Constructed per request, never stored.
type QueryContext struct {
	Type             string   `json:"type"` // greeting|recall|chat|dashboard|learning
	Category         string   `json:"category,omitempty"`
	QueryTerms       []string `json:"query_terms,omitempty"`
	ResolvedPronoun  string   `json:"resolved_pronoun,omitempty"`
	IsTemporalQuery  bool     `json:"is_temporal_query,omitempty"`
	IsDashboardQuery bool     `json:"is_dashboard_query,omitempty"`
	CurrentCourse    string   `json:"current_course,omitempty"`
}

// temporalPhrases are the cues that a query asks about past events.
var temporalPhrases = []string{
	"last time",
	"yesterday",
	"before",
	"previously",
	"earlier",
	"recently",
	"what did we",
	"do you remember when",
}

// IsTemporalPhrase reports whether the query refers to past events.
func IsTemporalPhrase(query string) bool {
	q := strings.ToLower(query)
	for _, phrase := range temporalPhrases {
		if strings.Contains(q, phrase) {
			return true
		}
	}
	return false
}

// NewQueryContext builds a QueryContext from caller signals, deriving the
// query terms and temporal flag from the query text itself.
func NewQueryContext(queryType, query string) QueryContext {
	var terms []string
	for _, tok := range strings.Fields(strings.ToLower(query)) {
		tok = strings.Trim(tok, ".,!?'\"")
		if len(tok) >= 3 {
			terms = append(terms, tok)
		}
	}
	return QueryContext{
		Type:            queryType,
		QueryTerms:      terms,
		IsTemporalQuery: IsTemporalPhrase(query),
	}
}

// Supersession is the scoring breakdown attached to each ranked memory.
type Supersession struct {
	TimeDecay      float64 `json:"timeDecay"`
	Relevance      float64 `json:"relevance"`
	Importance     float64 `json:"importance"`
	SourcePriority float64 `json:"sourcePriority"`
	AccessBonus    float64 `json:"accessBonus"`
	ContextBoost   float64 `json:"contextBoost"`
	BoostReason    string  `json:"boostReason"`
	Score          float64 `json:"score"`
	AgeInDays      float64 `json:"ageInDays"`
}

// ScoredMemory is a SearchResult decorated with its supersession score.
// Field names are stable regardless of which tier produced the result.
type ScoredMemory struct {
	ID           uuid.UUID      `json:"id"`
	MemoryKey    string         `json:"memory_key"`
	Content      string         `json:"content"`
	Similarity   float64        `json:"similarity"`
	Category     string         `json:"category"`
	Metadata     map[string]any `json:"metadata"`
	Source       string         `json:"source"`
	Supersession Supersession   `json:"_supersession"`
}

// SearchResponse is what callers of the gateway receive.
type SearchResponse struct {
	Success  bool           `json:"success"`
	Memories []ScoredMemory `json:"memories"`
	Count    int            `json:"count"`
	Sources  []string       `json:"sources"`
}

// Capabilities reports which tiers the deployment can serve from. hnsw is
// separate from vector so operators can tell when acceleration silently
// degraded.
type Capabilities struct {
	HNSW   bool `json:"hnsw"`
	Vector bool `json:"vector"`
	Text   bool `json:"text"`
}
