package embeddings

import (
	"context"
	"math"
	"strings"
	"unicode"

	"github.com/minio/highwayhash"
)

// DefaultDimension matches the sentence-transformers model the index was designed around
const DefaultDimension = 384

var simpleKey = []byte("docrag-simple-embedder-hash-key!")

// Simple is a deterministic local embedder: hashed bag of lowercase terms, L2 normalized.
// It needs no model or network and is used for offline indexing and tests.
type Simple struct {
	dimension int
}

// NewSimple creates a hashed term embedder with the given dimension
func NewSimple(dimension int) *Simple {
	if dimension <= 0 {
		dimension = DefaultDimension
	}
	return &Simple{dimension: dimension}
}

// Dimension returns vector length
func (s *Simple) Dimension() int {
	return s.dimension
}

func (s *Simple) EmbedDocuments(ctx context.Context, docs []string) ([][]float32, error) {
	ret := make([][]float32, len(docs))
	for i, doc := range docs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		ret[i] = s.embed(doc)
	}
	return ret, nil
}

func (s *Simple) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.embed(text), nil
}

func (s *Simple) embed(text string) []float32 {
	vector := make([]float32, s.dimension)
	terms := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, term := range terms {
		h := highwayhash.Sum64([]byte(term), simpleKey)
		slot := int(h % uint64(s.dimension))
		if h&(1<<63) != 0 {
			vector[slot] -= 1
		} else {
			vector[slot] += 1
		}
	}
	var norm float64
	for _, v := range vector {
		norm += float64(v) * float64(v)
	}
	if norm == 0 {
		return vector
	}
	scale := float32(1 / math.Sqrt(norm))
	for i := range vector {
		vector[i] *= scale
	}
	return vector
}
