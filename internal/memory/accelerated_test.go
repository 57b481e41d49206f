package memory

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func storeVec(t *testing.T, s *AcceleratedStore, userID, key, content, category string, vec []float32) uuid.UUID {
	t.Helper()
	rec := &Record{
		ID:         uuid.New(),
		UserID:     userID,
		Key:        key,
		Content:    content,
		Embedding:  vec,
		Category:   category,
		EntityType: EntityGeneral,
		Metadata:   map[string]any{},
	}
	require.NoError(t, s.Store(context.Background(), rec))
	return rec.ID
}

func TestAcceleratedStore_Disabled(t *testing.T) {
	s := NewAcceleratedStore(false)

	_, err := s.Search(context.Background(), Query{UserID: "u1", Vector: []float32{1, 0}})
	assert.ErrorIs(t, err, ErrBackendUnavailable)

	// writes are silently skipped
	rec := &Record{ID: uuid.New(), UserID: "u1", Key: "k", Content: "c", Embedding: []float32{1, 0}}
	assert.NoError(t, s.Store(context.Background(), rec))
}

func TestAcceleratedStore_UnknownUserIsEmpty(t *testing.T) {
	s := NewAcceleratedStore(true)

	results, err := s.Search(context.Background(), Query{UserID: "nobody", Vector: []float32{1, 0, 0}})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestAcceleratedStore_SearchIsUserScoped(t *testing.T) {
	s := NewAcceleratedStore(true)
	storeVec(t, s, "u1", "favorite_color", "Maya loves purple", CategoryPreference, []float32{1, 0, 0})
	storeVec(t, s, "u2", "favorite_color", "Ben loves green", CategoryPreference, []float32{1, 0, 0})

	results, err := s.Search(context.Background(), Query{
		UserID: "u1", Vector: []float32{1, 0, 0}, Limit: 10, Threshold: 0.5,
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Maya loves purple", results[0].Content)
	assert.Equal(t, SourceAccelerated, results[0].Source)
}

func TestAcceleratedStore_ThresholdAndFilters(t *testing.T) {
	s := NewAcceleratedStore(true)
	storeVec(t, s, "u1", "favorite_color", "loves purple", CategoryPreference, []float32{1, 0, 0})
	storeVec(t, s, "u1", "math_course", "enrolled in algebra", CategoryEducation, []float32{0, 1, 0})

	// orthogonal vector filtered by threshold
	results, err := s.Search(context.Background(), Query{
		UserID: "u1", Vector: []float32{1, 0, 0}, Limit: 10, Threshold: 0.9,
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "favorite_color", results[0].Key)

	// category filter
	results, err = s.Search(context.Background(), Query{
		UserID: "u1", Vector: []float32{1, 0, 0}, Limit: 10, Threshold: 0,
		Filters: Filters{Categories: []string{CategoryEducation}},
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "math_course", results[0].Key)

	// exclusion filter
	results, err = s.Search(context.Background(), Query{
		UserID: "u1", Vector: []float32{1, 0, 0}, Limit: 10, Threshold: 0,
		Filters: Filters{ExcludeCategories: []string{CategoryPreference}},
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "math_course", results[0].Key)
}

func TestAcceleratedStore_SkipsVectorlessRecords(t *testing.T) {
	s := NewAcceleratedStore(true)
	rec := &Record{ID: uuid.New(), UserID: "u1", Key: "k", Content: "text only"}
	require.NoError(t, s.Store(context.Background(), rec))

	results, err := s.Search(context.Background(), Query{UserID: "u1", Vector: []float32{1, 0, 0}})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestAcceleratedStore_Forget(t *testing.T) {
	s := NewAcceleratedStore(true)
	id := storeVec(t, s, "u1", "favorite_color", "loves purple", CategoryPreference, []float32{1, 0, 0})

	s.Forget(context.Background(), "u1", id)

	results, err := s.Search(context.Background(), Query{
		UserID: "u1", Vector: []float32{1, 0, 0}, Limit: 10, Threshold: 0,
	})
	require.NoError(t, err)
	assert.Empty(t, results)
}
