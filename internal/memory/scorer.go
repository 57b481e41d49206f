package memory

import (
	"sort"
	"strings"
	"time"
)

// Scorer is the supersession engine: it re-ranks normalized search
// results by what the caller is doing right now, independent of raw
// similarity. An old low-similarity family fact can outrank a fresh
// high-similarity one when the query intent asks about family.
type Scorer struct {
	cfg ScoringConfig
	now func() time.Time
}

// NewScorer creates a scorer with the given tunables.
func NewScorer(cfg ScoringConfig) *Scorer {
	return &Scorer{cfg: cfg, now: time.Now}
}

// Score decorates results with their supersession breakdown, sorts them
// descending by final score and truncates to top-N.
func (s *Scorer) Score(results []SearchResult, qctx QueryContext) []ScoredMemory {
	now := s.now()

	scored := make([]ScoredMemory, 0, len(results))
	for _, r := range results {
		if r.Content == "" {
			// Malformed record, filtered silently.
			continue
		}

		sup := s.baseScore(r, now)
		boost, reason := s.contextBoost(r, qctx, sup.AgeInDays)
		sup.ContextBoost = boost
		sup.BoostReason = reason
		sup.Score = sup.Relevance*sup.TimeDecay*sup.Importance*sup.SourcePriority + sup.AccessBonus + boost

		scored = append(scored, ScoredMemory{
			ID:           r.ID,
			MemoryKey:    r.Key,
			Content:      r.Content,
			Similarity:   r.Similarity,
			Category:     r.Category,
			Metadata:     r.Metadata,
			Source:       r.Source,
			Supersession: sup,
		})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Supersession.Score > scored[j].Supersession.Score
	})

	if len(scored) > s.cfg.TopN {
		scored = scored[:s.cfg.TopN]
	}
	return scored
}

func (s *Scorer) baseScore(r SearchResult, now time.Time) Supersession {
	ageInDays := 0.0
	if !r.CreatedAt.IsZero() {
		ageInDays = now.Sub(r.CreatedAt).Hours() / 24
		if ageInDays < 0 {
			ageInDays = 0
		}
	}

	timeDecay := 1 - ageInDays*s.cfg.DecayPerDay
	if timeDecay < s.cfg.DecayFloor {
		timeDecay = s.cfg.DecayFloor
	}

	relevance := r.Similarity
	if relevance <= 0 {
		relevance = s.cfg.DefaultRelevance
	}

	importance := metaFloat(r.Metadata, MetaImportanceScore, s.cfg.DefaultImportance)

	sourcePriority := s.cfg.DefaultSourcePriority
	if p, ok := s.cfg.SourcePriorities[metaString(r.Metadata, MetaSource)]; ok {
		sourcePriority = p
	}

	accessBonus := metaFloat(r.Metadata, MetaAccessCount, 0) * s.cfg.AccessBonusPerUse
	if accessBonus > s.cfg.AccessBonusCap {
		accessBonus = s.cfg.AccessBonusCap
	}

	return Supersession{
		TimeDecay:      timeDecay,
		Relevance:      relevance,
		Importance:     importance,
		SourcePriority: sourcePriority,
		AccessBonus:    accessBonus,
		AgeInDays:      ageInDays,
	}
}

// contextBoost computes the additive intent boost. Multiple reasons can
// combine; the reasons string records which ones fired.
func (s *Scorer) contextBoost(r SearchResult, qctx QueryContext, ageInDays float64) (float64, string) {
	var boost float64
	var reasons []string

	add := func(amount float64, reason string) {
		boost += amount
		reasons = append(reasons, reason)
	}

	switch qctx.Type {
	case "greeting":
		if matchesDef(categoryDefs["coreIdentity"], r) {
			add(categoryDefs["coreIdentity"].boost, "greeting_identity")
		}
		if matchesDef(categoryDefs["preferences"], r) {
			add(categoryDefs["preferences"].boost/2, "greeting_preference")
		}
		if matchesDef(categoryDefs["education"], r) {
			add(categoryDefs["education"].boost/2, "greeting_education")
		}
		if matchesDef(categoryDefs["activities"], r) {
			add(categoryDefs["activities"].boost, "greeting_activity")
		}

	case "recall":
		if qctx.Category != "" {
			if def, ok := resolveCategoryDef(strings.ToLower(qctx.Category)); ok && matchesDef(def, r) {
				add(def.boost, "recall_"+def.name)
			}
		}
		if termMatches(qctx.QueryTerms, r) {
			add(s.cfg.QueryTermBoost, "query_term")
		}
		if qctx.ResolvedPronoun != "" &&
			strings.Contains(strings.ToLower(r.Content), strings.ToLower(qctx.ResolvedPronoun)) {
			add(s.cfg.PronounBoost, "resolved_pronoun")
		}
	}

	if qctx.Type == "dashboard" || qctx.Type == "learning" || qctx.IsDashboardQuery {
		if matchesDef(categoryDefs["education"], r) {
			add(categoryDefs["education"].boost, "dashboard_education")
		}
		if matchesDef(categoryDefs["goals"], r) {
			add(categoryDefs["goals"].boost, "dashboard_goal")
		}
		if qctx.CurrentCourse != "" &&
			strings.Contains(strings.ToLower(r.Content), strings.ToLower(qctx.CurrentCourse)) {
			add(s.cfg.CourseBoost, "current_course")
		}
	}

	if qctx.IsTemporalQuery {
		if matchesDef(categoryDefs["activities"], r) {
			add(categoryDefs["activities"].boost, "temporal_activity")
		}
		// Recency bonus decays linearly to zero over the first week.
		if ageInDays < s.cfg.TemporalRecencyDays {
			add(s.cfg.TemporalRecencyBonus*(1-ageInDays/s.cfg.TemporalRecencyDays), "temporal_recency")
		}
	}

	// Plain chat with nothing else matched still gets light identity and
	// preference boosts so some personalization context is present.
	if qctx.Type == "chat" && len(reasons) == 0 {
		if matchesDef(categoryDefs["coreIdentity"], r) {
			add(s.cfg.ChatAmbientWeight*categoryDefs["coreIdentity"].boost, "chat_identity")
		}
		if matchesDef(categoryDefs["preferences"], r) {
			add(s.cfg.ChatAmbientWeight*categoryDefs["preferences"].boost, "chat_preference")
		}
	}

	return boost, strings.Join(reasons, "+")
}

// matchesDef checks a category definition against a result: key-substring
// or exact category match only, never free-text regex.
func matchesDef(def categoryDef, r SearchResult) bool {
	key := strings.ToLower(r.Key)
	for _, kw := range def.keywords {
		if strings.Contains(key, kw) {
			return true
		}
	}
	for _, cat := range def.categories {
		if r.Category == cat {
			return true
		}
	}
	return false
}

// termMatches reports whether any query term (length >= 3) appears in the
// result's key or content.
func termMatches(terms []string, r SearchResult) bool {
	key := strings.ToLower(r.Key)
	content := strings.ToLower(r.Content)
	for _, term := range terms {
		if len(term) < 3 {
			continue
		}
		t := strings.ToLower(term)
		if strings.Contains(key, t) || strings.Contains(content, t) {
			return true
		}
	}
	return false
}
