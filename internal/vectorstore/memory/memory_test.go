package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recall/internal/domain"
)

func TestUpsertIsIdempotentOnID(t *testing.T) {
	s, err := NewStore(3)
	require.NoError(t, err)
	ctx := context.Background()

	records := []domain.Record{
		{ID: "a", Values: []float32{1, 0, 0}, Metadata: map[string]any{"text": "alpha"}},
		{ID: "b", Values: []float32{0, 1, 0}, Metadata: map[string]any{"text": "beta"}},
	}
	n, err := s.Upsert(ctx, records)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	// re-upserting the same IDs overwrites, never duplicates
	n, err = s.Upsert(ctx, records)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	count, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestQueryOrdersByDescendingScore(t *testing.T) {
	s, err := NewStore(2)
	require.NoError(t, err)
	ctx := context.Background()

	_, err = s.Upsert(ctx, []domain.Record{
		{ID: "exact", Values: []float32{1, 0}},
		{ID: "close", Values: []float32{1, 0.5}},
		{ID: "far", Values: []float32{0, 1}},
	})
	require.NoError(t, err)

	matches, err := s.Query(ctx, []float32{1, 0}, 3)
	require.NoError(t, err)
	require.Len(t, matches, 3)
	assert.Equal(t, "exact", matches[0].ID)
	assert.Equal(t, "close", matches[1].ID)
	assert.Equal(t, "far", matches[2].ID)
	for i := 0; i < len(matches)-1; i++ {
		assert.GreaterOrEqual(t, matches[i].Score, matches[i+1].Score)
	}
}

func TestQueryMoreThanStoredReturnsFewer(t *testing.T) {
	s, err := NewStore(2)
	require.NoError(t, err)
	ctx := context.Background()

	_, err = s.Upsert(ctx, []domain.Record{{ID: "only", Values: []float32{1, 0}}})
	require.NoError(t, err)

	matches, err := s.Query(ctx, []float32{1, 0}, 10)
	require.NoError(t, err)
	assert.Len(t, matches, 1)
}

func TestQueryRejectsBadTopK(t *testing.T) {
	s, err := NewStore(2)
	require.NoError(t, err)

	_, err = s.Query(context.Background(), []float32{1, 0}, 0)
	assert.Error(t, err)
}

func TestDimensionMismatchIsRejected(t *testing.T) {
	s, err := NewStore(3)
	require.NoError(t, err)
	ctx := context.Background()

	var dimErr *domain.DimensionMismatchError
	_, err = s.Upsert(ctx, []domain.Record{{ID: "bad", Values: []float32{1, 0}}})
	require.Error(t, err)
	assert.True(t, errors.As(err, &dimErr))

	_, err = s.Query(ctx, []float32{1, 0}, 1)
	require.Error(t, err)
	assert.True(t, errors.As(err, &dimErr))
}
