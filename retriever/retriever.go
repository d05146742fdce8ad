// Package retriever answers a query with the closest indexed chunks.
package retriever

import (
	"context"
	"fmt"

	"github.com/viant/docrag/document"
	"github.com/viant/docrag/embeddings"
	"github.com/viant/docrag/store"
)

// DefaultTopK is used when a non-positive topK is requested
const DefaultTopK = 5

// Service resolves query embeddings to chunks with provenance
type Service struct {
	store    *store.Store
	embedder embeddings.Embedder
}

// New creates a retrieval service
func New(s *store.Store, embedder embeddings.Embedder) *Service {
	return &Service{store: s, embedder: embedder}
}

// Search returns up to topK chunks ordered by descending score. Hits on
// vectors of deleted documents are dropped, so fewer may be returned.
func (s *Service) Search(ctx context.Context, query string, topK int) ([]document.Match, error) {
	if topK <= 0 {
		topK = DefaultTopK
	}
	if s.store == nil || s.store.Total() == 0 {
		return []document.Match{}, nil
	}
	vector, err := s.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	matches, err := s.store.Nearest(vector, topK)
	if err != nil {
		return nil, fmt.Errorf("failed to search index: %w", err)
	}
	return matches, nil
}
