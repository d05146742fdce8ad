package embeddings

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimple_Deterministic(t *testing.T) {
	ctx := context.Background()
	e := NewSimple(64)
	docs, err := e.EmbedDocuments(ctx, []string{"Laptop security policy", "laptop SECURITY policy!"})
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, docs[0], docs[1])
	assert.Len(t, docs[0], 64)

	query, err := e.EmbedQuery(ctx, "laptop security policy")
	require.NoError(t, err)
	assert.Equal(t, docs[0], query)

	var norm float64
	for _, v := range query {
		norm += float64(v) * float64(v)
	}
	assert.InDelta(t, 1.0, norm, 1e-5)
}

func TestSimple_EmptyText(t *testing.T) {
	v, err := NewSimple(0).EmbedQuery(context.Background(), "  ")
	require.NoError(t, err)
	assert.Len(t, v, DefaultDimension)
	for _, x := range v {
		assert.False(t, math.IsNaN(float64(x)))
		assert.Zero(t, x)
	}
}

func TestBatch(t *testing.T) {
	ctx := context.Background()
	var calls [][]string
	fn := func(ctx context.Context, texts []string) ([][]float32, error) {
		calls = append(calls, texts)
		out := make([][]float32, len(texts))
		for i := range texts {
			out[i] = []float32{float32(len(texts[i]))}
		}
		return out, nil
	}
	vectors, err := Batch(ctx, []string{"a", "bb", "ccc", "dddd", "eeeee"}, 2, fn)
	require.NoError(t, err)
	assert.Len(t, calls, 3)
	assert.Equal(t, [][]float32{{1}, {2}, {3}, {4}, {5}}, vectors)

	short := func(ctx context.Context, texts []string) ([][]float32, error) {
		return [][]float32{{1}}, nil
	}
	_, err = Batch(ctx, []string{"a", "b"}, 10, short)
	assert.True(t, errors.Is(err, ErrCountMismatch))

	empty, err := Batch(ctx, nil, 2, fn)
	require.NoError(t, err)
	assert.Empty(t, empty)
}
