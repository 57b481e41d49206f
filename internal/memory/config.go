package memory

import "encoding/json"

// ScoringConfig holds the supersession-engine tunables. The weights are
// empirically chosen; operators can override any of them through the
// SCORING_CONFIG JSON blob without a code change.
type ScoringConfig struct {
	DecayPerDay           float64            `json:"decay_per_day"`
	DecayFloor            float64            `json:"decay_floor"`
	DefaultRelevance      float64            `json:"default_relevance"`
	DefaultImportance     float64            `json:"default_importance"`
	DefaultSourcePriority float64            `json:"default_source_priority"`
	SourcePriorities      map[string]float64 `json:"source_priorities"`
	AccessBonusPerUse     float64            `json:"access_bonus_per_use"`
	AccessBonusCap        float64            `json:"access_bonus_cap"`
	QueryTermBoost        float64            `json:"query_term_boost"`
	PronounBoost          float64            `json:"pronoun_boost"`
	CourseBoost           float64            `json:"course_boost"`
	TemporalRecencyBonus  float64            `json:"temporal_recency_bonus"`
	TemporalRecencyDays   float64            `json:"temporal_recency_days"`
	ChatAmbientWeight     float64            `json:"chat_ambient_weight"`
	TopN                  int                `json:"top_n"`
}

// DefaultScoringConfig returns the production defaults.
func DefaultScoringConfig() ScoringConfig {
	return ScoringConfig{
		DecayPerDay:           0.01, // floors at 50% after ~50 days
		DecayFloor:            0.5,
		DefaultRelevance:      0.8,
		DefaultImportance:     0.5,
		DefaultSourcePriority: 0.7,
		SourcePriorities: map[string]float64{
			"explicit_statement":       1.0,
			"inferred_from_context":    0.8,
			"llm_extraction_validated": 0.7,
			"auto_captured":            0.7,
			"canvas_derived":           0.6,
		},
		AccessBonusPerUse:    0.02,
		AccessBonusCap:       0.2,
		QueryTermBoost:       0.35,
		PronounBoost:         0.3,
		CourseBoost:          0.3,
		TemporalRecencyBonus: 0.2,
		TemporalRecencyDays:  7,
		ChatAmbientWeight:    0.3,
		TopN:                 15,
	}
}

// ParseScoringConfig merges a JSON override over the defaults. Returns
// defaults on nil, empty, or invalid input.
func ParseScoringConfig(data []byte) ScoringConfig {
	cfg := DefaultScoringConfig()
	if len(data) == 0 {
		return cfg
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return cfg
	}
	if len(raw) == 0 {
		return cfg
	}

	// Unmarshal over defaults so only provided fields are overwritten
	_ = json.Unmarshal(data, &cfg)
	return cfg
}

// categoryDef is one of the seven fixed category-boost definitions the
// recall intent maps caller categories onto.
type categoryDef struct {
	name       string
	boost      float64
	keywords   []string // matched against key substrings
	categories []string // matched exactly against the category field
}

// Category matching is substring-on-key OR exact-match-on-category, never
// regex against free content; content matching is reserved for the
// query-term and course bonuses.
var categoryDefs = map[string]categoryDef{
	"coreIdentity": {
		name:       "coreIdentity",
		boost:      0.5,
		keywords:   []string{"user_name", "my_name", "username", "age", "grade", "identity"},
		categories: []string{CategoryUser, CategoryIdentity},
	},
	"relationships": {
		name:       "relationships",
		boost:      0.45,
		keywords:   []string{"son", "daughter", "mother", "father", "wife", "husband", "spouse", "brother", "sister", "friend", "pet", "family"},
		categories: []string{CategoryFamily, CategoryFriend, CategoryPet, CategoryRelationship},
	},
	"preferences": {
		name:       "preferences",
		boost:      0.3,
		keywords:   []string{"prefer", "favorite", "favourite", "like", "dislike"},
		categories: []string{CategoryPreference},
	},
	"goals": {
		name:       "goals",
		boost:      0.4,
		keywords:   []string{"goal", "target", "aspiration"},
		categories: []string{CategoryGoal},
	},
	"education": {
		name:       "education",
		boost:      0.4,
		keywords:   []string{"course", "class", "subject", "lesson", "study", "learn", "school"},
		categories: []string{CategoryEducation},
	},
	"activities": {
		name:       "activities",
		boost:      0.35,
		keywords:   []string{"activity", "session", "game", "played", "visit"},
		categories: []string{CategoryActivity},
	},
	"canvas": {
		name:       "canvas",
		boost:      0.25,
		keywords:   []string{"canvas", "workspace", "document"},
		categories: []string{CategoryCanvas},
	},
}

// categoryAliases maps caller-supplied categories onto the seven defs.
var categoryAliases = map[string]string{
	"user":          "coreIdentity",
	"identity":      "coreIdentity",
	"personal":      "coreIdentity",
	"family":        "relationships",
	"friend":        "relationships",
	"friends":       "relationships",
	"pet":           "relationships",
	"pets":          "relationships",
	"relationship":  "relationships",
	"relationships": "relationships",
	"preference":    "preferences",
	"preferences":   "preferences",
	"goal":          "goals",
	"goals":         "goals",
	"course":        "education",
	"courses":       "education",
	"education":     "education",
	"learning":      "education",
	"school":        "education",
	"activity":      "activities",
	"activities":    "activities",
	"canvas":        "canvas",
}

// resolveCategoryDef maps a caller category onto a definition, falling
// back to a direct def-name lookup.
func resolveCategoryDef(category string) (categoryDef, bool) {
	if alias, ok := categoryAliases[category]; ok {
		return categoryDefs[alias], true
	}
	def, ok := categoryDefs[category]
	return def, ok
}
