package memory

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neuraplay/recall/internal/config"
)

type fakeBackend struct {
	name    string
	results []SearchResult
	err     error
	gotQ    *Query
}

func (f *fakeBackend) Name() string { return f.name }

func (f *fakeBackend) Search(ctx context.Context, q Query) ([]SearchResult, error) {
	f.gotQ = &q
	return f.results, f.err
}

func (f *fakeBackend) Store(ctx context.Context, rec *Record) error { return nil }

type fixedEmbedder struct{ vec []float32 }

func (f fixedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return f.vec, nil
}
func (f fixedEmbedder) Dimensions() int { return len(f.vec) }

func testSearchConfig() config.SearchConfig {
	return config.SearchConfig{
		AcceleratedEnabled: true,
		AcceleratedTimeout: 2 * time.Second,
		VectorTimeout:      5 * time.Second,
		TextTimeout:        5 * time.Second,
		DefaultLimit:       15,
		DefaultThreshold:   0.6,
	}
}

func newTestOrchestrator(tiers ...SimilarityBackend) *Orchestrator {
	return NewOrchestrator(
		fixedEmbedder{vec: []float32{1, 0, 0}},
		tiers,
		testSearchConfig(),
		slog.Default(),
	)
}

func TestOrchestrator_FirstTierServes(t *testing.T) {
	hit := []SearchResult{{Key: "a", Content: "a", Similarity: 0.9}}
	t1 := &fakeBackend{name: SourceAccelerated, results: hit}
	t2 := &fakeBackend{name: SourceVector}
	o := newTestOrchestrator(t1, t2)

	out := o.Search(context.Background(), Query{UserID: "u1", Text: "query"})

	assert.Equal(t, SourceAccelerated, out.Tier)
	assert.Len(t, out.Results, 1)
	assert.Empty(t, out.Failed)
	// second tier never consulted
	assert.Nil(t, t2.gotQ)
}

func TestOrchestrator_FallsThroughOnErrorAndEmpty(t *testing.T) {
	t1 := &fakeBackend{name: SourceAccelerated, err: errors.New("index down")}
	t2 := &fakeBackend{name: SourceVector} // empty, no error
	t3 := &fakeBackend{name: SourceText, results: []SearchResult{{Key: "b", Content: "b"}}}
	o := newTestOrchestrator(t1, t2, t3)

	out := o.Search(context.Background(), Query{UserID: "u1", Text: "query"})

	assert.Equal(t, SourceText, out.Tier)
	assert.Len(t, out.Results, 1)
	assert.Equal(t, []string{SourceAccelerated, SourceVector}, out.Failed)
	assert.True(t, out.Degraded())
}

func TestOrchestrator_LastTierEmptyIsTerminal(t *testing.T) {
	t1 := &fakeBackend{name: SourceVector}
	t2 := &fakeBackend{name: SourceText} // empty success
	o := newTestOrchestrator(t1, t2)

	out := o.Search(context.Background(), Query{UserID: "u1", Text: "query"})

	assert.Equal(t, SourceText, out.Tier)
	assert.Empty(t, out.Results)
}

func TestOrchestrator_AllTiersFailReturnsEmpty(t *testing.T) {
	t1 := &fakeBackend{name: SourceAccelerated, err: errors.New("down")}
	t2 := &fakeBackend{name: SourceVector, err: errors.New("down")}
	t3 := &fakeBackend{name: SourceText, err: errors.New("down")}
	o := newTestOrchestrator(t1, t2, t3)

	out := o.Search(context.Background(), Query{UserID: "u1", Text: "query"})

	assert.Empty(t, out.Tier)
	assert.Empty(t, out.Results)
	assert.Equal(t, []string{SourceAccelerated, SourceVector, SourceText}, out.Failed)
	assert.True(t, out.Degraded())
}

func TestOrchestrator_AppliesDefaultsAndEmbedsOnce(t *testing.T) {
	t1 := &fakeBackend{name: SourceVector, results: []SearchResult{{Key: "a", Content: "a"}}}
	o := newTestOrchestrator(t1)

	out := o.Search(context.Background(), Query{UserID: "u1", Text: "query"})

	require.NotNil(t, t1.gotQ)
	assert.Equal(t, 15, t1.gotQ.Limit)
	assert.InDelta(t, 0.6, t1.gotQ.Threshold, 1e-9)
	assert.Equal(t, []float32{1, 0, 0}, t1.gotQ.Vector)
	assert.False(t, out.Degraded())
}

func TestOrchestrator_ExplicitLimitAndThresholdKept(t *testing.T) {
	t1 := &fakeBackend{name: SourceVector, results: []SearchResult{{Key: "a", Content: "a"}}}
	o := newTestOrchestrator(t1)

	o.Search(context.Background(), Query{UserID: "u1", Text: "query", Limit: 3, Threshold: 0.8})

	require.NotNil(t, t1.gotQ)
	assert.Equal(t, 3, t1.gotQ.Limit)
	assert.InDelta(t, 0.8, t1.gotQ.Threshold, 1e-9)
}
