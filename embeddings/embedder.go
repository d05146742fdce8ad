package embeddings

import (
	"context"
	"errors"
	"fmt"
)

// ErrCountMismatch is returned when a provider returns a different number of vectors than inputs
var ErrCountMismatch = errors.New("embeddings: vector count mismatch")

// Embedder computes fixed-length vectors for chunks and queries.
// Documents and queries must be embedded by the same model for scores to be meaningful.
type Embedder interface {
	EmbedDocuments(ctx context.Context, docs []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// BatchFunc embeds a single provider batch
type BatchFunc func(ctx context.Context, texts []string) ([][]float32, error)

// Batch splits texts into batches of at most size, calls fn for each and
// checks every batch returns one vector per input.
func Batch(ctx context.Context, texts []string, size int, fn BatchFunc) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}
	if size <= 0 {
		size = len(texts)
	}
	ret := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += size {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		end := start + size
		if end > len(texts) {
			end = len(texts)
		}
		vectors, err := fn(ctx, texts[start:end])
		if err != nil {
			return nil, err
		}
		if len(vectors) != end-start {
			return nil, fmt.Errorf("%w: got %d for %d inputs", ErrCountMismatch, len(vectors), end-start)
		}
		ret = append(ret, vectors...)
	}
	return ret, nil
}

// Query embeds a single text through EmbedDocuments
func Query(ctx context.Context, e Embedder, text string) ([]float32, error) {
	vectors, err := e.EmbedDocuments(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("%w: got %d for 1 query", ErrCountMismatch, len(vectors))
	}
	return vectors[0], nil
}
