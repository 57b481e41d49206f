package memory

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReweight_OrdersByCompositeScore(t *testing.T) {
	// Lower raw similarity but strong keyword overlap should win.
	overlap := SearchResult{
		Key: "son_name", Content: "The user's son is called Ali and loves soccer",
		Similarity: 0.70,
		Metadata:   map[string]any{MetaImportanceScore: 0.9, MetaAccessCount: 10},
	}
	raw := SearchResult{
		Key: "note", Content: "ok",
		Similarity: 0.78,
		Metadata:   map[string]any{},
	}

	results := []SearchResult{raw, overlap}
	reweight(results, "what is the son called")

	assert.Equal(t, "son_name", results[0].Key)
	assert.Greater(t, results[0].Similarity, results[1].Similarity)
}

func TestKeywordOverlap(t *testing.T) {
	terms := tokenizeQuery("what is the son called")
	// "the" survives (3 chars), "is" is dropped
	assert.Contains(t, terms, "son")
	assert.NotContains(t, terms, "is")

	assert.InDelta(t, 0, keywordOverlap(terms, "completely unrelated"), 1e-9)
	assert.InDelta(t, 1, keywordOverlap([]string{"son"}, "my son Ali"), 1e-9)
	assert.InDelta(t, 0, keywordOverlap(nil, "anything"), 1e-9)
}

func TestLengthRelevance(t *testing.T) {
	assert.InDelta(t, 0, lengthRelevance(""), 1e-9)
	assert.InDelta(t, 0.5, lengthRelevance(strings.Repeat("a", 10)), 1e-9)
	assert.InDelta(t, 1, lengthRelevance(strings.Repeat("a", 100)), 1e-9)
	assert.InDelta(t, 0.5, lengthRelevance(strings.Repeat("a", 800)), 1e-9)
}

func TestNormalizeRanks(t *testing.T) {
	results := []SearchResult{
		{Key: "a", Similarity: 0.08},
		{Key: "b", Similarity: 0.04},
	}
	normalizeRanks(results)

	assert.InDelta(t, 1.0, results[0].Similarity, 1e-9)
	assert.InDelta(t, 0.5, results[1].Similarity, 1e-9)

	// all-zero batch is left alone
	zero := []SearchResult{{Key: "c", Similarity: 0}}
	normalizeRanks(zero)
	assert.InDelta(t, 0, zero[0].Similarity, 1e-9)
}

func TestTimeRangeInterval(t *testing.T) {
	assert.Equal(t, "1 day", timeRangeInterval("24h"))
	assert.Equal(t, "7 days", timeRangeInterval("7d"))
	assert.Equal(t, "30 days", timeRangeInterval("30d"))
	assert.Equal(t, "90 days", timeRangeInterval("90d"))
	assert.Equal(t, "30 days", timeRangeInterval("anything else"))
}
